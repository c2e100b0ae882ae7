// Package notification delivers the user-facing messages raised by the
// profile form: a success toast after a write, an error toast with a dismiss
// action after a failed write, and one toast per validation error.
//
// The form only talks to the Notifier interface. The log-backed
// implementation prints through the NOTIFY category; the Recorder keeps the
// notifications for later inspection and can forward them to another
// Notifier.
package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/free5gc/profilecheck/internal/logger"
)

// DefaultAutoDismiss is the number of seconds a notification stays visible
// unless it sets AutoDismiss itself.
const DefaultAutoDismiss = 5

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (level Level) String() string {
	switch level {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(level))
	}
}

// Action is a button attached to a notification.
type Action struct {
	Label    string
	Callback func()
}

// Notification is a single message shown to the user.
type Notification struct {
	Level   Level
	Title   string
	Message string
	// AutoDismiss is the display time in seconds; 0 keeps the notification
	// until the user dismisses it.
	AutoDismiss int
	Action      *Action
}

// Success builds a success notification with the default display time.
func Success(title, message string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: message, AutoDismiss: DefaultAutoDismiss}
}

// Error builds an error notification with the default display time.
func Error(title, message string) Notification {
	return Notification{Level: LevelError, Title: title, Message: message, AutoDismiss: DefaultAutoDismiss}
}

// Notifier hides how notifications reach the user.
type Notifier interface {
	// Notify delivers a single notification.
	Notify(ctx context.Context, notification Notification) error
}

func checkNotification(notification Notification) error {
	if notification.Title == "" && notification.Message == "" {
		return fmt.Errorf("notification must carry a title or a message")
	}
	if notification.AutoDismiss < 0 {
		return fmt.Errorf("notification autoDismiss must be >= 0, got %d", notification.AutoDismiss)
	}
	if notification.Action != nil && notification.Action.Label == "" {
		return fmt.Errorf("notification action must have a label")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Log-backed implementation
// -----------------------------------------------------------------------------

// logNotifier writes every notification to the NOTIFY log category.
type logNotifier struct {
	entry *logrus.Entry
}

// NewLogNotifier creates a Notifier that prints notifications via logrus.
func NewLogNotifier() Notifier {
	return &logNotifier{entry: logger.NotifyLog}
}

// Notify implements the Notifier interface.
func (notifier *logNotifier) Notify(ctx context.Context, notification Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkNotification(notification); err != nil {
		return err
	}

	entry := notifier.entry.WithFields(logrus.Fields{
		"level":       notification.Level.String(),
		"autoDismiss": notification.AutoDismiss,
	})
	if notification.Action != nil {
		entry = entry.WithField("action", notification.Action.Label)
	}

	switch notification.Level {
	case LevelError:
		entry.Errorf("%s: %s", notification.Title, notification.Message)
	case LevelWarning:
		entry.Warnf("%s: %s", notification.Title, notification.Message)
	default:
		entry.Infof("%s: %s", notification.Title, notification.Message)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Recorder
// -----------------------------------------------------------------------------

// Recorder keeps every notification it receives and optionally forwards it
// to another Notifier. It is safe for concurrent use.
type Recorder struct {
	mutexForNotifications sync.Mutex
	notifications         []Notification
	next                  Notifier
}

// NewRecorder creates a Recorder forwarding to next, which may be nil.
func NewRecorder(next Notifier) *Recorder {
	return &Recorder{next: next}
}

// Notify implements the Notifier interface.
func (recorder *Recorder) Notify(ctx context.Context, notification Notification) error {
	if err := checkNotification(notification); err != nil {
		return err
	}

	recorder.mutexForNotifications.Lock()
	recorder.notifications = append(recorder.notifications, notification)
	recorder.mutexForNotifications.Unlock()

	if recorder.next == nil {
		return nil
	}
	return recorder.next.Notify(ctx, notification)
}

// Notifications returns a copy of the notifications recorded so far.
func (recorder *Recorder) Notifications() []Notification {
	recorder.mutexForNotifications.Lock()
	defer recorder.mutexForNotifications.Unlock()

	copied := make([]Notification, len(recorder.notifications))
	copy(copied, recorder.notifications)
	return copied
}

// Reset drops the recorded notifications.
func (recorder *Recorder) Reset() {
	recorder.mutexForNotifications.Lock()
	recorder.notifications = nil
	recorder.mutexForNotifications.Unlock()
}
