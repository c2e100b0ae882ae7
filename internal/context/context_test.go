package context

import (
	stdctx "context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/free5gc/profilecheck/internal/model"
)

func TestActionStatus(t *testing.T) {
	ctx := stdctx.Background()
	runtime := NewRuntimeContext()

	t.Run("Should be idle initially", func(t *testing.T) {
		assert.Equal(t, model.ActionStatus{}, runtime.GetActionStatus(model.ActionCreate))
	})

	t.Run("Should move through pending and response", func(t *testing.T) {
		require.NoError(t, runtime.SetActionPending(ctx, model.ActionUpdate, "abc123"))
		status := runtime.GetActionStatus(model.ActionUpdate)
		assert.True(t, status.Pending)
		assert.Equal(t, "abc123", status.ID)

		require.NoError(t, runtime.SetActionResponse(ctx, model.ActionUpdate, "abc123", model.MustParse(`{}`)))
		status = runtime.GetActionStatus(model.ActionUpdate)
		assert.False(t, status.Pending)
		assert.True(t, status.Succeeded())

		runtime.ClearActionStatus(ctx, model.ActionUpdate)
		assert.Equal(t, model.ActionStatus{}, runtime.GetActionStatus(model.ActionUpdate))
	})

	t.Run("Should keep actions apart", func(t *testing.T) {
		require.NoError(t, runtime.SetActionError(ctx, model.ActionCreate, "", &model.ActionError{}))
		assert.True(t, runtime.GetActionStatus(model.ActionCreate).Failed())
		assert.Equal(t, model.ActionStatus{}, runtime.GetActionStatus(model.ActionUpdate))
		runtime.ClearActionStatus(ctx, model.ActionCreate)
		runtime.ClearActionStatus(ctx, model.ActionCreate)
	})

	t.Run("Should reject bad input", func(t *testing.T) {
		assert.Error(t, runtime.SetActionPending(ctx, "delete", ""))
		assert.Error(t, runtime.SetActionResponse(ctx, model.ActionCreate, "", nil))
		assert.Error(t, runtime.SetActionError(ctx, model.ActionCreate, "", nil))
	})
}

func TestFetchedProfiles(t *testing.T) {
	ctx := stdctx.Background()
	runtime := NewRuntimeContext()

	_, fetched := runtime.GetFetchedProfile("abc123")
	assert.False(t, fetched)

	record := model.MustParse(`{"_id":"abc123","imsi":"1"}`)
	require.NoError(t, runtime.SetFetchedProfile(ctx, "abc123", record))
	assert.Error(t, runtime.SetFetchedProfile(ctx, "", record))

	got, fetched := runtime.GetFetchedProfile("abc123")
	require.True(t, fetched)
	assert.True(t, got.Equal(record))
	assert.NotSame(t, record, got)

	runtime.DeleteFetchedProfile(ctx, "abc123")
	_, fetched = runtime.GetFetchedProfile("abc123")
	assert.False(t, fetched)
}

func TestProfileList(t *testing.T) {
	ctx := stdctx.Background()
	runtime := NewRuntimeContext()

	list, loaded := runtime.GetProfileList()
	assert.False(t, loaded)
	assert.Nil(t, list)

	runtime.SetProfileList(ctx, nil)
	list, loaded = runtime.GetProfileList()
	assert.True(t, loaded)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := stdctx.Background()
	runtime := NewRuntimeContext()

	var waitGroup sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for iteration := 0; iteration < 100; iteration++ {
				_ = runtime.SetActionPending(ctx, model.ActionCreate, "")
				_ = runtime.GetActionStatus(model.ActionCreate)
				runtime.ClearActionStatus(ctx, model.ActionCreate)
				runtime.SetProfileList(ctx, []*model.Value{model.MustParse(`{}`)})
				_, _ = runtime.GetProfileList()
			}
		}()
	}
	waitGroup.Wait()
}
