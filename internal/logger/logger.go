// Package logger provides structured loggers for the components of the
// profile check engine. It wraps logrus and exposes category-specific log
// entries such as MainLog, CfgLog, NormLog, etc. The logging level and caller
// reporting can be adjusted at runtime via InitLog.
package logger

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	moduleNameProfileCheck = "PROFILECHECK"
)

var (
	initOnce sync.Once

	// MainLog is the primary logger for high-level lifecycle events
	// (startup, shutdown, submission outcomes).
	MainLog *log.Entry

	// CfgLog is used for configuration loading, validation, and printing.
	CfgLog *log.Entry

	// NormLog is for rate-field coercion performed by the normalizer.
	NormLog *log.Entry

	// ValidLog is for uniqueness and rate checks performed by the validator.
	ValidLog *log.Entry

	// SchemaLog is for JSON Schema shape checks.
	SchemaLog *log.Entry

	// SubmitLog is for create/update command selection.
	SubmitLog *log.Entry

	// LifecycleLog is for the form lifecycle controller (fetch, adopt,
	// notifications, status clearing).
	LifecycleLog *log.Entry

	// StoreLog is for the in-memory profile store.
	StoreLog *log.Entry

	// ContextLog is for action status changes held in the runtime context.
	ContextLog *log.Entry

	// NotifyLog is for user-facing notifications.
	NotifyLog *log.Entry

	// CrudLog is for fetch/create/update requests dispatched to the store.
	CrudLog *log.Entry
)

func init() {
	// Package-level entries must be usable before InitLog is called, e.g.
	// from tests that exercise a single package.
	buildEntries()
}

func buildEntries() {
	newEntry := func(category string) *log.Entry {
		return log.WithFields(log.Fields{
			"module":   moduleNameProfileCheck,
			"category": category,
		})
	}

	MainLog = newEntry("MAIN")
	CfgLog = newEntry("CFG")
	NormLog = newEntry("NORMALIZER")
	ValidLog = newEntry("VALIDATOR")
	SchemaLog = newEntry("SCHEMA")
	SubmitLog = newEntry("SUBMIT")
	LifecycleLog = newEntry("LIFECYCLE")
	StoreLog = newEntry("STORE")
	ContextLog = newEntry("CONTEXT")
	NotifyLog = newEntry("NOTIFY")
	CrudLog = newEntry("CRUD")
}

// InitLog configures the global logrus settings. It is safe to call multiple
// times; the formatter is installed once and subsequent calls only update
// the log level and reportCaller flag.
func InitLog(levelString string, reportCaller bool) error {
	var initErr error

	initOnce.Do(func() {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		log.SetLevel(log.InfoLevel)
	})

	parsedLevel, parseErr := parseLogLevel(levelString)
	if parseErr != nil {
		// Fallback to info if parsing fails, but still return an error
		log.SetLevel(log.InfoLevel)
		CfgLog.Warnf("invalid log level %q, falling back to info: %v", levelString, parseErr)
		initErr = parseErr
	} else {
		log.SetLevel(parsedLevel)
	}

	log.SetReportCaller(reportCaller)

	return initErr
}

// parseLogLevel converts a string log level (case-insensitive) into a logrus.Level.
func parseLogLevel(levelString string) (log.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(levelString))

	switch normalized {
	case "trace":
		return log.TraceLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	case "panic":
		return log.PanicLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level: %s", levelString)
	}
}
