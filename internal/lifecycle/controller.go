// Package lifecycle drives the profile edit form. On every update cycle the
// surrounding store pushes a Props snapshot; the Controller requests fetches,
// adopts normalized records as the editable state, and turns terminal action
// statuses into exactly one notification before clearing them.
//
// A Controller is not safe for concurrent use. It is driven from a single
// event loop.
package lifecycle

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
	"github.com/free5gc/profilecheck/internal/normalizer"
	"github.com/free5gc/profilecheck/internal/notification"
	"github.com/free5gc/profilecheck/internal/submission"
	"github.com/free5gc/profilecheck/internal/validator"
)

const (
	successTitle         = "Profile"
	createdMessage       = "New profile created"
	validationErrorTitle = "Validation Error"
	unknownCodeTitle     = "Unknown Code"
	unknownErrorMessage  = "Unknown Error"
	dismissLabel         = "Dismiss"
)

// Dispatcher is the CRUD side of the store as seen by the form.
type Dispatcher interface {
	submission.Writer

	// FetchProfile requests the profile stored under id.
	FetchProfile(ctx context.Context, id string) error

	// ClearActionStatus resets the status of action so it is not reprocessed.
	ClearActionStatus(ctx context.Context, action model.ActionTag)
}

// ProfileState is the store's view of the profile being edited.
type ProfileState struct {
	// ID is the storage identifier; empty for a new profile.
	ID         string
	NeedsFetch bool
	IsLoading  bool
	// Data is the fetched or written record, nil until one is available.
	Data *model.Value
}

// Props is the snapshot pushed to the controller on every update cycle.
type Props struct {
	Profile ProfileState
	Status  model.ActionStatus
}

// Option customises a Controller.
type Option func(*Controller)

// WithNormalizer replaces the default rate-field normalizer.
func WithNormalizer(normalizerInstance *normalizer.Normalizer) Option {
	return func(controller *Controller) {
		controller.normalizer = normalizerInstance
	}
}

// WithValidator replaces the default validator.
func WithValidator(validatorInstance *validator.Validator) Option {
	return func(controller *Controller) {
		controller.validator = validatorInstance
	}
}

// Controller holds the editable state of one form instance.
type Controller struct {
	action        model.ActionTag
	defaultRecord *model.Value
	dispatcher    Dispatcher
	notifier      notification.Notifier
	onHide        func()

	normalizer *normalizer.Normalizer
	validator  *validator.Validator

	formData   *model.Value
	provenance model.Provenance
}

// NewController creates a controller for action. defaultRecord is the blank
// template adopted whenever the store has no record to offer. onHide may be
// nil.
func NewController(
	action model.ActionTag,
	defaultRecord *model.Value,
	dispatcher Dispatcher,
	notifier notification.Notifier,
	onHide func(),
	options ...Option,
) (*Controller, error) {
	if defaultRecord == nil {
		return nil, fmt.Errorf("default record must not be nil")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher must not be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier must not be nil")
	}
	if onHide == nil {
		onHide = func() {}
	}

	controller := &Controller{
		action:        action,
		defaultRecord: defaultRecord.Clone(),
		dispatcher:    dispatcher,
		notifier:      notifier,
		onHide:        onHide,
		normalizer:    normalizer.NewNormalizer(),
		validator:     validator.NewValidator(validator.DefaultOptions()),
	}
	for _, option := range options {
		option(controller)
	}

	controller.formData = controller.defaultRecord.Clone()
	controller.provenance = model.ProvenanceTemplate
	return controller, nil
}

// Action returns the action the controller was built for.
func (controller *Controller) Action() model.ActionTag { return controller.action }

// FormData returns a copy of the current editable record.
func (controller *Controller) FormData() *model.Value { return controller.formData.Clone() }

// Provenance reports where the current editable record came from.
func (controller *Controller) Provenance() model.Provenance { return controller.provenance }

// Mount is called once when the form is shown.
func (controller *Controller) Mount(ctx context.Context, props Props) error {
	if props.Profile.NeedsFetch {
		return controller.fetch(ctx, props.Profile.ID)
	}
	return nil
}

// Receive processes a new Props snapshot. The returned error reports a
// failed fetch request or notification; the editable state is updated
// regardless.
func (controller *Controller) Receive(ctx context.Context, props Props) error {
	var firstError error
	keep := func(err error) {
		if err != nil && firstError == nil {
			firstError = err
		}
	}

	if props.Profile.NeedsFetch {
		keep(controller.fetch(ctx, props.Profile.ID))
	}

	if props.Profile.Data != nil {
		controller.formData = controller.normalizer.Normalize(props.Profile.Data)
		controller.provenance = model.ProvenanceFetched
		if props.Status.Succeeded() {
			controller.provenance = model.ProvenanceWritten
		}
	} else {
		controller.formData = controller.defaultRecord.Clone()
		controller.provenance = model.ProvenanceTemplate
	}
	logger.LifecycleLog.Debugf("adopted form data action=%s provenance=%s", controller.action, controller.provenance)

	if props.Status.Succeeded() {
		keep(controller.handleResponse(ctx, props.Status))
	}
	if props.Status.Failed() {
		keep(controller.handleError(ctx, props.Status))
	}
	return firstError
}

// IsLoading reports whether the form shows its loading indicator.
func (controller *Controller) IsLoading(props Props) bool {
	return props.Profile.IsLoading && !props.Status.Pending
}

// Validate runs the uniqueness and format checks for the controller's
// action. existing is nil while the profile collection is not loaded.
func (controller *Controller) Validate(record *model.Value, existing []*model.Value, errs *model.FieldErrors) *model.FieldErrors {
	return controller.validator.Validate(validator.Input{
		Record:         record,
		Existing:       existing,
		ExistingLoaded: existing != nil,
		Action:         controller.action,
	}, errs)
}

// Submit selects the write command for record and hands it to the
// dispatcher. An error is returned only for a command that cannot be
// prepared; write failures surface through the action status.
func (controller *Controller) Submit(ctx context.Context, record *model.Value) (submission.Command, error) {
	command, err := submission.Prepare(record, controller.action)
	if err != nil {
		return submission.Command{}, err
	}

	logger.LifecycleLog.Infof("submitting %s id=%q", command.Kind, command.ID)
	if _, dispatchError := command.Dispatch(ctx, controller.dispatcher); dispatchError != nil {
		logger.LifecycleLog.Debugf("%s dispatch failed: %v", command.Kind, dispatchError)
	}
	return command, nil
}

// ReportValidationErrors raises one notification per field error.
func (controller *Controller) ReportValidationErrors(ctx context.Context, errs *model.FieldErrors) error {
	for _, fieldError := range errs.Flatten() {
		message := fieldError.Message
		if fieldError.Path != "" {
			message = fmt.Sprintf(".%s %s", fieldError.Path, fieldError.Message)
		}
		if err := controller.notifier.Notify(ctx, notification.Error(validationErrorTitle, message)); err != nil {
			return fmt.Errorf("report validation error: %w", err)
		}
	}
	return nil
}

func (controller *Controller) fetch(ctx context.Context, id string) error {
	logger.LifecycleLog.Debugf("requesting fetch id=%s", id)
	if err := controller.dispatcher.FetchProfile(ctx, id); err != nil {
		return fmt.Errorf("fetch profile %s: %w", id, err)
	}
	return nil
}

func (controller *Controller) handleResponse(ctx context.Context, status model.ActionStatus) error {
	message := createdMessage
	if controller.action != model.ActionCreate {
		message = fmt.Sprintf("%s profile updated", status.ID)
	}

	notifyError := controller.notifier.Notify(ctx, notification.Success(successTitle, message))
	controller.dispatcher.ClearActionStatus(ctx, controller.action)
	controller.onHide()
	return notifyError
}

func (controller *Controller) handleError(ctx context.Context, status model.ActionStatus) error {
	var response *model.TransportResponse
	if status.Err != nil {
		response = status.Err.Response
	}
	title, message := describeFailure(response)
	logger.LifecycleLog.Warnf("%s failed: %s %s", controller.action, title, message)

	notifyError := controller.notifier.Notify(ctx, notification.Notification{
		Level:       notification.LevelError,
		Title:       title,
		Message:     message,
		AutoDismiss: 0,
		Action: &notification.Action{
			Label:    dismissLabel,
			Callback: controller.onHide,
		},
	})
	controller.dispatcher.ClearActionStatus(ctx, controller.action)
	return notifyError
}

// describeFailure picks the title and message shown for a failed write:
// data.name and data.message of the body when both are set, otherwise the
// HTTP status code and text.
func describeFailure(response *model.TransportResponse) (title string, message string) {
	title, message = unknownCodeTitle, unknownErrorMessage
	if response == nil {
		return title, message
	}

	if gjson.ValidBytes(response.Data) {
		name := gjson.GetBytes(response.Data, "name").String()
		detail := gjson.GetBytes(response.Data, "message").String()
		if name != "" && detail != "" {
			return name, detail
		}
	}

	if response.Status != 0 {
		title = strconv.Itoa(response.Status)
	}
	if response.StatusText != "" {
		message = response.StatusText
	}
	return title, message
}
