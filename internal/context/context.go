// Package context holds the in-memory state the form observes on every
// update cycle:
//   - the status of the last create/update per action (pending, response,
//     error)
//   - the profiles fetched so far, by storage identifier
//   - whether the existing-profiles collection has been loaded.
//
// Note: This package is named "context", so we alias the standard library
// "context" package to avoid name collisions.
package context

import (
	stdctx "context"
	"fmt"
	"sync"
	"time"

	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
)

// RuntimeContext provides concurrency-safe accessors to action statuses and
// fetched profiles. Values handed out are snapshots.
type RuntimeContext interface {
	// ---- Action status ----

	SetActionPending(ctx stdctx.Context, action model.ActionTag, id string) error
	SetActionResponse(ctx stdctx.Context, action model.ActionTag, id string, response *model.Value) error
	SetActionError(ctx stdctx.Context, action model.ActionTag, id string, actionError *model.ActionError) error

	// GetActionStatus returns the current status, the zero value when idle.
	GetActionStatus(action model.ActionTag) model.ActionStatus

	// ClearActionStatus resets the status of action to idle.
	ClearActionStatus(ctx stdctx.Context, action model.ActionTag)

	// ---- Fetched profiles ----

	SetFetchedProfile(ctx stdctx.Context, id string, record *model.Value) error
	// GetFetchedProfile returns the profile fetched for id; fetched is false
	// when no fetch completed yet.
	GetFetchedProfile(id string) (record *model.Value, fetched bool)
	DeleteFetchedProfile(ctx stdctx.Context, id string)

	// ---- Existing profiles collection ----

	SetProfileList(ctx stdctx.Context, records []*model.Value)
	// GetProfileList returns nil, false until SetProfileList was called.
	GetProfileList() (records []*model.Value, loaded bool)
}

type actionState struct {
	status    model.ActionStatus
	changedAt time.Time
}

// runtimeContextImpl is the concrete implementation of RuntimeContext.
// It keeps all state in memory guarded by RWMutexes.
type runtimeContextImpl struct {
	mutexForActions sync.RWMutex
	actionByTag     map[model.ActionTag]*actionState

	mutexForProfiles sync.RWMutex
	profileByID      map[string]*model.Value
	profileList      []*model.Value
	profileListReady bool
}

// NewRuntimeContext creates a new, empty RuntimeContext.
func NewRuntimeContext() RuntimeContext {
	return &runtimeContextImpl{
		actionByTag: make(map[model.ActionTag]*actionState),
		profileByID: make(map[string]*model.Value),
	}
}

// -----------------------------------------------------------------------------
// Action status
// -----------------------------------------------------------------------------

func (runtime *runtimeContextImpl) setActionStatus(action model.ActionTag, status model.ActionStatus) error {
	if !action.Valid() {
		return fmt.Errorf("action %q is not tracked", action)
	}

	runtime.mutexForActions.Lock()
	defer runtime.mutexForActions.Unlock()

	runtime.actionByTag[action] = &actionState{
		status:    status,
		changedAt: time.Now().UTC(),
	}
	return nil
}

// SetActionPending implements RuntimeContext.SetActionPending.
func (runtime *runtimeContextImpl) SetActionPending(
	ctx stdctx.Context,
	action model.ActionTag,
	id string,
) error {
	if err := runtime.setActionStatus(action, model.ActionStatus{Pending: true, ID: id}); err != nil {
		return err
	}
	logger.ContextLog.Debugf("action status pending action=%s id=%s", action, id)
	return nil
}

// SetActionResponse implements RuntimeContext.SetActionResponse.
func (runtime *runtimeContextImpl) SetActionResponse(
	ctx stdctx.Context,
	action model.ActionTag,
	id string,
	response *model.Value,
) error {
	if response == nil {
		return fmt.Errorf("response must not be nil")
	}
	if err := runtime.setActionStatus(action, model.ActionStatus{Response: response, ID: id}); err != nil {
		return err
	}
	logger.ContextLog.Debugf("action status response action=%s id=%s", action, id)
	return nil
}

// SetActionError implements RuntimeContext.SetActionError.
func (runtime *runtimeContextImpl) SetActionError(
	ctx stdctx.Context,
	action model.ActionTag,
	id string,
	actionError *model.ActionError,
) error {
	if actionError == nil {
		return fmt.Errorf("actionError must not be nil")
	}
	if err := runtime.setActionStatus(action, model.ActionStatus{Err: actionError, ID: id}); err != nil {
		return err
	}
	logger.ContextLog.Debugf("action status error action=%s id=%s", action, id)
	return nil
}

// GetActionStatus implements RuntimeContext.GetActionStatus.
func (runtime *runtimeContextImpl) GetActionStatus(action model.ActionTag) model.ActionStatus {
	runtime.mutexForActions.RLock()
	defer runtime.mutexForActions.RUnlock()

	state, exists := runtime.actionByTag[action]
	if !exists || state == nil {
		return model.ActionStatus{}
	}
	return state.status
}

// ClearActionStatus implements RuntimeContext.ClearActionStatus.
func (runtime *runtimeContextImpl) ClearActionStatus(ctx stdctx.Context, action model.ActionTag) {
	runtime.mutexForActions.Lock()
	defer runtime.mutexForActions.Unlock()

	state, exists := runtime.actionByTag[action]
	if !exists {
		return
	}
	delete(runtime.actionByTag, action)
	logger.ContextLog.Debugf("action status cleared action=%s age=%s", action, time.Since(state.changedAt))
}

// -----------------------------------------------------------------------------
// Fetched profiles
// -----------------------------------------------------------------------------

// SetFetchedProfile implements RuntimeContext.SetFetchedProfile.
func (runtime *runtimeContextImpl) SetFetchedProfile(
	ctx stdctx.Context,
	id string,
	record *model.Value,
) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}

	runtime.mutexForProfiles.Lock()
	defer runtime.mutexForProfiles.Unlock()

	runtime.profileByID[id] = record.Clone()
	logger.ContextLog.Debugf("profile fetched id=%s", id)
	return nil
}

// GetFetchedProfile implements RuntimeContext.GetFetchedProfile.
func (runtime *runtimeContextImpl) GetFetchedProfile(id string) (*model.Value, bool) {
	runtime.mutexForProfiles.RLock()
	defer runtime.mutexForProfiles.RUnlock()

	record, fetched := runtime.profileByID[id]
	if !fetched {
		return nil, false
	}
	return record.Clone(), true
}

// DeleteFetchedProfile implements RuntimeContext.DeleteFetchedProfile.
func (runtime *runtimeContextImpl) DeleteFetchedProfile(ctx stdctx.Context, id string) {
	runtime.mutexForProfiles.Lock()
	defer runtime.mutexForProfiles.Unlock()

	delete(runtime.profileByID, id)
}

// SetProfileList implements RuntimeContext.SetProfileList.
func (runtime *runtimeContextImpl) SetProfileList(ctx stdctx.Context, records []*model.Value) {
	copied := make([]*model.Value, len(records))
	for index, record := range records {
		copied[index] = record.Clone()
	}

	runtime.mutexForProfiles.Lock()
	defer runtime.mutexForProfiles.Unlock()

	runtime.profileList = copied
	runtime.profileListReady = true
	logger.ContextLog.Debugf("profile list loaded count=%d", len(copied))
}

// GetProfileList implements RuntimeContext.GetProfileList.
func (runtime *runtimeContextImpl) GetProfileList() ([]*model.Value, bool) {
	runtime.mutexForProfiles.RLock()
	defer runtime.mutexForProfiles.RUnlock()

	if !runtime.profileListReady {
		return nil, false
	}
	copied := make([]*model.Value, len(runtime.profileList))
	for index, record := range runtime.profileList {
		copied[index] = record.Clone()
	}
	return copied, true
}
