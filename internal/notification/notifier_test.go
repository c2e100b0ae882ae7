package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "level(9)", Level(9).String())
}

func TestLogNotifier(t *testing.T) {
	ctx := context.Background()
	notifier := NewLogNotifier()

	t.Run("Should accept a well formed notification", func(t *testing.T) {
		assert.NoError(t, notifier.Notify(ctx, Success("Profile", "New profile created")))
		assert.NoError(t, notifier.Notify(ctx, Notification{
			Level:   LevelError,
			Title:   "409",
			Message: "Conflict",
			Action:  &Action{Label: "Dismiss", Callback: func() {}},
		}))
	})

	t.Run("Should reject an empty notification", func(t *testing.T) {
		assert.Error(t, notifier.Notify(ctx, Notification{}))
	})

	t.Run("Should reject an unlabeled action", func(t *testing.T) {
		assert.Error(t, notifier.Notify(ctx, Notification{Title: "x", Action: &Action{}}))
	})

	t.Run("Should stop on a cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, notifier.Notify(cancelled, Success("a", "b")), context.Canceled)
	})
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	forwarded := NewRecorder(nil)
	recorder := NewRecorder(forwarded)

	require.NoError(t, recorder.Notify(ctx, Success("Profile", "New profile created")))
	require.NoError(t, recorder.Notify(ctx, Error("Validation Error", "'ims' is duplicated")))
	assert.Error(t, recorder.Notify(ctx, Notification{AutoDismiss: -1, Title: "x"}))

	recorded := recorder.Notifications()
	require.Len(t, recorded, 2)
	assert.Equal(t, LevelSuccess, recorded[0].Level)
	assert.Equal(t, DefaultAutoDismiss, recorded[0].AutoDismiss)
	assert.Equal(t, "Validation Error", recorded[1].Title)
	assert.Len(t, forwarded.Notifications(), 2)

	recorded[0].Title = "changed"
	assert.Equal(t, "Profile", recorder.Notifications()[0].Title)

	recorder.Reset()
	assert.Empty(t, recorder.Notifications())
}
