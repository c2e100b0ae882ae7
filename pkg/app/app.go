// Package app wires together all profilecheck components:
//   - configuration
//   - logging
//   - blank profile template
//   - schema checker, normalizer and validator
//   - profile store and runtime context
//   - CRUD dispatcher and notifier.
//
// cmd/main.go creates an App from the loaded Config, starts it, replays a
// submission through Submit and stops it again.
package app

import (
	stdctx "context"
	"fmt"
	"os"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	profilectx "github.com/free5gc/profilecheck/internal/context"
	"github.com/free5gc/profilecheck/internal/crud"
	"github.com/free5gc/profilecheck/internal/lifecycle"
	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
	"github.com/free5gc/profilecheck/internal/normalizer"
	"github.com/free5gc/profilecheck/internal/notification"
	"github.com/free5gc/profilecheck/internal/schema"
	"github.com/free5gc/profilecheck/internal/store"
	"github.com/free5gc/profilecheck/internal/submission"
	"github.com/free5gc/profilecheck/internal/validator"
	"github.com/free5gc/profilecheck/pkg/factory"
)

// App is the high-level interface implemented by profilecheck.
type App interface {
	// Start seeds the store from store.seedFile and loads the existing
	// profile collection.
	Start(ctx stdctx.Context) error

	// Stop marks the App as stopped; later submissions are refused.
	Stop(ctx stdctx.Context) error

	// Submit runs one submission attempt for action. id addresses the stored
	// profile for an update and may be empty for a create. A nil record
	// submits the form data as loaded (the blank template or the fetched
	// profile).
	Submit(ctx stdctx.Context, action model.ActionTag, id string, record *model.Value) (*Outcome, error)
}

// Outcome describes what one submission attempt did.
type Outcome struct {
	// Command is the write that was dispatched; nil when validation blocked
	// the submission.
	Command *submission.Command
	// Errors lists the field errors that blocked the submission.
	Errors []model.FieldError
	// Stored is the editable record after the write was adopted.
	Stored *model.Value
	// WriteFailed is set when the store rejected the write.
	WriteFailed   bool
	Notifications []notification.Notification
}

// Blocked reports whether validation errors prevented the write.
func (outcome *Outcome) Blocked() bool { return len(outcome.Errors) > 0 }

// appImpl is the concrete implementation of App.
type appImpl struct {
	config *factory.Config

	defaultRecord  *model.Value
	schemaChecker  *schema.Checker
	normalizer     *normalizer.Normalizer
	validator      *validator.Validator
	profileStore   store.Store
	runtimeContext profilectx.RuntimeContext
	dispatcher     crud.Dispatcher
	notifier       notification.Notifier

	startStopMutex sync.Mutex
	started        bool
}

// NewApp constructs a new App from a validated configuration. It builds the
// components but does not touch the store; that is handled by Start().
func NewApp(config *factory.Config) (App, error) {
	if config == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	if initError := logger.InitLog(config.Logging.Level, config.Logging.ReportCaller); initError != nil {
		logger.MainLog.Warnf("InitLog failed with level=%s, using fallback: %v",
			config.Logging.Level, initError)
	}

	logger.MainLog.Infof(
		"Starting profilecheck version=%s description=%q",
		config.Info.Version, config.Info.Description,
	)

	defaultRecord, templateError := loadTemplate(config.Profile.DefaultTemplateFile)
	if templateError != nil {
		return nil, templateError
	}

	var schemaChecker *schema.Checker
	if config.Validation.SchemaCheckEnabled() {
		var schemaError error
		schemaChecker, schemaError = loadSchema(config.Validation.SchemaFile)
		if schemaError != nil {
			return nil, schemaError
		}
	}

	profileStore, storeError := store.NewStoreFromConfig(config.Store, config.Profile.RateKeys)
	if storeError != nil {
		return nil, fmt.Errorf("failed to create profile store: %w", storeError)
	}

	runtimeContext := profilectx.NewRuntimeContext()

	return &appImpl{
		config:        config,
		defaultRecord: defaultRecord,
		schemaChecker: schemaChecker,
		normalizer:    normalizer.NewNormalizer(config.Profile.RateKeys...),
		validator: validator.NewValidator(validator.Options{
			CheckIMSIFormat: config.Validation.ImsiFormatEnabled(),
			CheckRates:      config.Validation.RateCheckEnabled(),
			RateKeys:        config.Profile.RateKeys,
		}),
		profileStore:   profileStore,
		runtimeContext: runtimeContext,
		dispatcher:     crud.NewDispatcher(profileStore, runtimeContext),
		notifier:       notification.NewLogNotifier(),
	}, nil
}

// Start implements App.Start.
func (app *appImpl) Start(ctx stdctx.Context) error {
	app.startStopMutex.Lock()
	defer app.startStopMutex.Unlock()

	if app.started {
		logger.MainLog.Warn("App.Start called more than once; ignoring subsequent call")
		return nil
	}

	if seedError := app.seedStore(ctx); seedError != nil {
		return fmt.Errorf("failed to seed profile store: %w", seedError)
	}
	if fetchError := app.dispatcher.FetchProfiles(ctx); fetchError != nil {
		return fmt.Errorf("failed to load existing profiles: %w", fetchError)
	}

	app.started = true
	logger.MainLog.Infof("profilecheck successfully started")
	return nil
}

// Stop implements App.Stop.
func (app *appImpl) Stop(ctx stdctx.Context) error {
	app.startStopMutex.Lock()
	defer app.startStopMutex.Unlock()

	if !app.started {
		return nil
	}

	app.started = false
	logger.MainLog.Infof("profilecheck shutdown completed")
	return nil
}

// Submit implements App.Submit.
func (app *appImpl) Submit(
	ctx stdctx.Context,
	action model.ActionTag,
	id string,
	record *model.Value,
) (*Outcome, error) {
	app.startStopMutex.Lock()
	started := app.started
	app.startStopMutex.Unlock()
	if !started {
		return nil, fmt.Errorf("app is not started")
	}

	recorder := notification.NewRecorder(app.notifier)
	controller, controllerError := lifecycle.NewController(
		action,
		app.defaultRecord,
		app.dispatcher,
		recorder,
		func() { logger.MainLog.Debugf("%s form closed", action) },
		lifecycle.WithNormalizer(app.normalizer),
		lifecycle.WithValidator(app.validator),
	)
	if controllerError != nil {
		return nil, controllerError
	}

	// Mount and the first update cycle: fetch the addressed profile, then
	// adopt it.
	if mountError := controller.Mount(ctx, app.dispatcher.Props(action, id)); mountError != nil {
		return nil, mountError
	}
	if receiveError := controller.Receive(ctx, app.dispatcher.Props(action, id)); receiveError != nil {
		return nil, receiveError
	}

	if record == nil {
		record = controller.FormData()
	}
	if id != "" && model.StorageID(record) == "" {
		record = record.With(model.FieldStorageID, model.String(id))
	}
	record = app.normalizer.Normalize(record)

	outcome := &Outcome{}
	errs := model.NewFieldErrors()
	if app.schemaChecker != nil {
		app.schemaChecker.Check(record, errs)
	}
	controller.Validate(record, app.dispatcher.ExistingProfiles(), errs)

	if errs.HasErrors() {
		if reportError := controller.ReportValidationErrors(ctx, errs); reportError != nil {
			logger.MainLog.Warnf("failed to report validation errors: %v", reportError)
		}
		if logger.MainLog.Logger.IsLevelEnabled(logrus.DebugLevel) {
			logger.MainLog.Debugf("rejected %s record:\n%s", action, spew.Sdump(record.Interface()))
		}
		outcome.Errors = errs.Flatten()
		outcome.Notifications = recorder.Notifications()
		return outcome, nil
	}

	command, submitError := controller.Submit(ctx, record)
	if submitError != nil {
		return nil, submitError
	}
	outcome.Command = &command

	// The update cycle that follows the write.
	status := app.dispatcher.Props(action, "").Status
	outcome.WriteFailed = status.Failed()
	props := app.dispatcher.Props(action, status.ID)
	if receiveError := controller.Receive(ctx, props); receiveError != nil {
		logger.MainLog.Warnf("failed to process %s status: %v", action, receiveError)
	}

	if status.Succeeded() {
		outcome.Stored = controller.FormData()
	}
	outcome.Notifications = recorder.Notifications()
	return outcome, nil
}

func (app *appImpl) seedStore(ctx stdctx.Context) error {
	if app.config.Store.SeedFile == "" {
		return nil
	}

	data, readError := os.ReadFile(app.config.Store.SeedFile)
	if readError != nil {
		return fmt.Errorf("read seed file: %w", readError)
	}
	seed, parseError := model.ParseValue(data)
	if parseError != nil {
		return fmt.Errorf("parse seed file: %w", parseError)
	}
	if !seed.IsArray() {
		return fmt.Errorf("seed file must hold a JSON array, got %s", seed.Kind())
	}

	for index, record := range seed.Items() {
		if _, createError := app.profileStore.Create(ctx, record); createError != nil {
			return fmt.Errorf("seed profile %d: %w", index, createError)
		}
	}
	logger.MainLog.Infof("seeded %d profile(s) from %s", seed.Len(), app.config.Store.SeedFile)
	return nil
}

func loadTemplate(path string) (*model.Value, error) {
	if path == "" {
		return model.DefaultProfile(), nil
	}

	data, readError := os.ReadFile(path)
	if readError != nil {
		return nil, fmt.Errorf("read default template: %w", readError)
	}
	template, parseError := model.ParseValue(data)
	if parseError != nil {
		return nil, fmt.Errorf("parse default template: %w", parseError)
	}
	if !template.IsObject() {
		return nil, fmt.Errorf("default template must be a JSON object, got %s", template.Kind())
	}
	return template, nil
}

func loadSchema(path string) (*schema.Checker, error) {
	var schemaJSON []byte
	if path != "" {
		var readError error
		schemaJSON, readError = os.ReadFile(path)
		if readError != nil {
			return nil, fmt.Errorf("read schema file: %w", readError)
		}
	}

	checker, compileError := schema.NewChecker(schemaJSON)
	if compileError != nil {
		return nil, fmt.Errorf("compile profile schema: %w", compileError)
	}
	return checker, nil
}
