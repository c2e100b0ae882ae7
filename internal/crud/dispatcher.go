// Package crud connects the profile form to the profile store. Every request
// runs against the store.Store and records its outcome in the runtime
// context, where the next Props snapshot picks it up:
//   - fetches fill the fetched-profile cache and the existing-profile list
//   - writes move the action status through pending to response or error
//   - failed writes are translated into the transport response shape the
//     form knows how to display.
package crud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	profilectx "github.com/free5gc/profilecheck/internal/context"
	"github.com/free5gc/profilecheck/internal/lifecycle"
	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
	"github.com/free5gc/profilecheck/internal/store"
)

// Dispatcher is the lifecycle.Dispatcher backed by a store and a runtime
// context. It also builds the Props snapshots the controller consumes.
type Dispatcher interface {
	lifecycle.Dispatcher

	// FetchProfiles loads the existing-profile collection.
	FetchProfiles(ctx context.Context) error

	// ExistingProfiles returns the loaded collection, nil before the first
	// successful FetchProfiles.
	ExistingProfiles() []*model.Value

	// Props builds the snapshot for a form editing id under action. An empty
	// id stands for a new profile.
	Props(action model.ActionTag, id string) lifecycle.Props
}

// dispatcherImpl is the concrete implementation of Dispatcher.
type dispatcherImpl struct {
	store          store.Store
	runtimeContext profilectx.RuntimeContext
}

// NewDispatcher creates a Dispatcher using the given store and context.
func NewDispatcher(profileStore store.Store, runtimeContext profilectx.RuntimeContext) Dispatcher {
	return &dispatcherImpl{
		store:          profileStore,
		runtimeContext: runtimeContext,
	}
}

// FetchProfile implements Dispatcher.FetchProfile.
func (dispatcher *dispatcherImpl) FetchProfile(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}

	record, getError := dispatcher.store.Get(ctx, id)
	if getError != nil {
		logger.CrudLog.Errorf("failed to fetch profile id=%s: %v", id, getError)
		return getError
	}

	if setError := dispatcher.runtimeContext.SetFetchedProfile(ctx, id, record); setError != nil {
		return setError
	}
	logger.CrudLog.Debugf("fetched profile id=%s", id)
	return nil
}

// FetchProfiles implements Dispatcher.FetchProfiles.
func (dispatcher *dispatcherImpl) FetchProfiles(ctx context.Context) error {
	records, listError := dispatcher.store.List(ctx)
	if listError != nil {
		logger.CrudLog.Errorf("failed to list profiles: %v", listError)
		return listError
	}

	dispatcher.runtimeContext.SetProfileList(ctx, records)
	logger.CrudLog.Debugf("fetched %d profile(s)", len(records))
	return nil
}

// ExistingProfiles implements Dispatcher.ExistingProfiles.
func (dispatcher *dispatcherImpl) ExistingProfiles() []*model.Value {
	records, loaded := dispatcher.runtimeContext.GetProfileList()
	if !loaded {
		return nil
	}
	return records
}

// Create implements submission.Writer.Create.
func (dispatcher *dispatcherImpl) Create(ctx context.Context, payload *model.Value) (*model.Value, error) {
	if pendingError := dispatcher.runtimeContext.SetActionPending(ctx, model.ActionCreate, ""); pendingError != nil {
		return nil, pendingError
	}

	written, createError := dispatcher.store.Create(ctx, payload)
	if createError != nil {
		dispatcher.recordFailure(ctx, model.ActionCreate, "", createError)
		return nil, createError
	}

	id := model.StorageID(written)
	dispatcher.recordSuccess(ctx, model.ActionCreate, id, written)
	return written, nil
}

// Update implements submission.Writer.Update.
func (dispatcher *dispatcherImpl) Update(ctx context.Context, id string, payload *model.Value) (*model.Value, error) {
	if pendingError := dispatcher.runtimeContext.SetActionPending(ctx, model.ActionUpdate, id); pendingError != nil {
		return nil, pendingError
	}

	written, updateError := dispatcher.store.Update(ctx, id, payload)
	if updateError != nil {
		dispatcher.recordFailure(ctx, model.ActionUpdate, id, updateError)
		return nil, updateError
	}

	dispatcher.recordSuccess(ctx, model.ActionUpdate, id, written)
	return written, nil
}

// ClearActionStatus implements lifecycle.Dispatcher.ClearActionStatus.
func (dispatcher *dispatcherImpl) ClearActionStatus(ctx context.Context, action model.ActionTag) {
	dispatcher.runtimeContext.ClearActionStatus(ctx, action)
}

// Props implements Dispatcher.Props.
func (dispatcher *dispatcherImpl) Props(action model.ActionTag, id string) lifecycle.Props {
	props := lifecycle.Props{
		Profile: lifecycle.ProfileState{ID: id},
		Status:  dispatcher.runtimeContext.GetActionStatus(action),
	}
	if id == "" {
		return props
	}

	if record, fetched := dispatcher.runtimeContext.GetFetchedProfile(id); fetched {
		props.Profile.Data = record
	} else {
		props.Profile.NeedsFetch = true
		props.Profile.IsLoading = true
	}
	return props
}

// recordSuccess stores the echoed record as the fetched copy of id, so the
// next snapshot carries it as it came back from the write.
func (dispatcher *dispatcherImpl) recordSuccess(ctx context.Context, action model.ActionTag, id string, written *model.Value) {
	if id != "" {
		if setError := dispatcher.runtimeContext.SetFetchedProfile(ctx, id, written); setError != nil {
			logger.CrudLog.Warnf("failed to cache written profile id=%s: %v", id, setError)
		}
	}
	if listError := dispatcher.FetchProfiles(ctx); listError != nil {
		logger.CrudLog.Warnf("failed to refresh profile list after %s: %v", action, listError)
	}

	if statusError := dispatcher.runtimeContext.SetActionResponse(ctx, action, id, written); statusError != nil {
		logger.CrudLog.Errorf("failed to record %s response id=%s: %v", action, id, statusError)
		return
	}
	logger.CrudLog.Infof("%s succeeded id=%s", action, id)
}

func (dispatcher *dispatcherImpl) recordFailure(ctx context.Context, action model.ActionTag, id string, cause error) {
	actionError := &model.ActionError{Response: toTransportResponse(cause)}
	if statusError := dispatcher.runtimeContext.SetActionError(ctx, action, id, actionError); statusError != nil {
		logger.CrudLog.Errorf("failed to record %s error id=%s: %v", action, id, statusError)
		return
	}
	logger.CrudLog.Warnf("%s failed id=%s: %v", action, id, cause)
}

type errorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// toTransportResponse renders err the way a remote store would answer.
func toTransportResponse(err error) *model.TransportResponse {
	body := errorBody{Name: "Error", Message: err.Error()}
	status := http.StatusInternalServerError
	if storeError, ok := store.AsError(err); ok {
		body = errorBody{Name: storeError.Name, Message: storeError.Message}
		status = storeError.Status
	}

	data, marshalError := json.Marshal(body)
	if marshalError != nil {
		data = nil
	}
	return &model.TransportResponse{
		Status:     status,
		StatusText: http.StatusText(status),
		Data:       data,
	}
}
