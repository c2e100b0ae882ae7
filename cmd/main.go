// cmd/main.go
//
// Entry point for profilecheck. Responsibilities:
//   - Parse command-line flags (config path, action, record file, id).
//   - Initialise a temporary logger so config loading has a logger.
//   - Load and validate configuration from YAML.
//   - Construct and start the App (seeds the profile store).
//   - Replay one submission attempt and print its outcome as JSON.
//
// Exit codes: 0 on a dispatched write, 1 on configuration, I/O, invariant
// or store errors, 2 when validation errors blocked the submission.
package main

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidwall/pretty"

	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
	"github.com/free5gc/profilecheck/pkg/app"
	"github.com/free5gc/profilecheck/pkg/factory"
)

const (
	exitFailure = 1
	exitBlocked = 2
)

type notificationReport struct {
	Level       string `json:"level"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	AutoDismiss int    `json:"autoDismiss"`
	Action      string `json:"action,omitempty"`
}

type outcomeReport struct {
	Command       string               `json:"command,omitempty"`
	ID            string               `json:"id,omitempty"`
	Errors        []model.FieldError   `json:"errors,omitempty"`
	Stored        *model.Value         `json:"stored,omitempty"`
	WriteFailed   bool                 `json:"writeFailed,omitempty"`
	Notifications []notificationReport `json:"notifications"`
}

func main() {
	os.Exit(run())
}

func run() int {
	// ---- 1. Parse flags ------------------------------------------------------

	configPath := flag.String("c", factory.ProfileCheckDefaultConfigPath, "path to profilecheck config file (YAML)")
	actionFlag := flag.String("action", string(model.ActionCreate), "submission action: create | update")
	recordPath := flag.String("record", "", "JSON file holding the edited profile; the loaded form data when empty")
	storageID := flag.String("id", "", "storage identifier of the profile to update")
	flag.Parse()

	// ---- 2. Temporary logger initialisation ---------------------------------

	_ = logger.InitLog("info", false)

	logger.MainLog.Infof("profilecheck starting, configPath=%s action=%s", *configPath, *actionFlag)

	// ---- 3. Load configuration ----------------------------------------------

	config, readError := factory.ReadConfig(*configPath)
	if readError != nil {
		if *configPath != factory.ProfileCheckDefaultConfigPath || !errors.Is(readError, fs.ErrNotExist) {
			logger.MainLog.Errorf("failed to read config: %v", readError)
			return exitFailure
		}
		logger.MainLog.Infof("no config at %s, using defaults", *configPath)
		config = factory.DefaultConfig()
	}

	// ---- 4. Read the submission ---------------------------------------------

	action, actionError := model.ParseActionTag(*actionFlag)
	if actionError != nil {
		logger.MainLog.Errorf("invalid -action: %v", actionError)
		return exitFailure
	}

	var record *model.Value
	if *recordPath != "" {
		data, fileError := os.ReadFile(*recordPath)
		if fileError != nil {
			logger.MainLog.Errorf("failed to read record: %v", fileError)
			return exitFailure
		}
		var parseError error
		if record, parseError = model.ParseValue(data); parseError != nil {
			logger.MainLog.Errorf("failed to parse record %s: %v", *recordPath, parseError)
			return exitFailure
		}
	}

	// ---- 5. Build and start App ---------------------------------------------

	profileApp, appError := app.NewApp(config)
	if appError != nil {
		logger.MainLog.Errorf("failed to create profilecheck app: %v", appError)
		return exitFailure
	}

	rootContext, stopSignals := signal.NotifyContext(stdctx.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if startError := profileApp.Start(rootContext); startError != nil {
		logger.MainLog.Errorf("failed to start profilecheck: %v", startError)
		return exitFailure
	}
	defer func() {
		if stopError := profileApp.Stop(stdctx.Background()); stopError != nil {
			logger.MainLog.Warnf("profilecheck shutdown encountered error: %v", stopError)
		}
	}()

	// ---- 6. Submit ----------------------------------------------------------

	outcome, submitError := profileApp.Submit(rootContext, action, *storageID, record)
	if submitError != nil {
		logger.MainLog.Errorf("submission failed: %+v", submitError)
		return exitFailure
	}

	if printError := printOutcome(outcome); printError != nil {
		logger.MainLog.Errorf("failed to print outcome: %v", printError)
		return exitFailure
	}

	switch {
	case outcome.Blocked():
		return exitBlocked
	case outcome.WriteFailed:
		return exitFailure
	default:
		return 0
	}
}

func printOutcome(outcome *app.Outcome) error {
	report := outcomeReport{
		Errors:        outcome.Errors,
		Stored:        outcome.Stored,
		WriteFailed:   outcome.WriteFailed,
		Notifications: make([]notificationReport, 0, len(outcome.Notifications)),
	}
	if outcome.Command != nil {
		report.Command = outcome.Command.Kind.String()
		report.ID = outcome.Command.ID
	}
	for _, notice := range outcome.Notifications {
		entry := notificationReport{
			Level:       notice.Level.String(),
			Title:       notice.Title,
			Message:     notice.Message,
			AutoDismiss: notice.AutoDismiss,
		}
		if notice.Action != nil {
			entry.Action = notice.Action.Label
		}
		report.Notifications = append(report.Notifications, entry)
	}

	data, marshalError := json.Marshal(report)
	if marshalError != nil {
		return marshalError
	}
	_, writeError := os.Stdout.Write(pretty.Pretty(data))
	return writeError
}
