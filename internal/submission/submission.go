// Package submission selects the write operation for a validated profile.
//
// A "create" action yields a Create command carrying the record, an "update"
// action yields an Update command addressed to the storage identifier of the
// record. Any other action tag is a caller contract violation and fails hard
// instead of falling back to a default.
package submission

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"

	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
)

var (
	// ErrInvalidAction matches every error caused by an unsupported action tag.
	ErrInvalidAction = stderrors.New("invalid action")

	// ErrMissingIdentity is returned when an update targets a record without
	// a storage identifier.
	ErrMissingIdentity = stderrors.New("record has no storage identifier")
)

// InvalidActionError reports the action tag that was rejected.
type InvalidActionError struct {
	Action model.ActionTag
}

func (invalidActionError *InvalidActionError) Error() string {
	return fmt.Sprintf("Action type '%s' is invalid.", invalidActionError.Action)
}

// Is lets errors.Is match ErrInvalidAction.
func (invalidActionError *InvalidActionError) Is(target error) bool {
	return target == ErrInvalidAction
}

// CommandKind enumerates the write operations.
type CommandKind int

const (
	CommandCreate CommandKind = iota + 1
	CommandUpdate
)

func (kind CommandKind) String() string {
	switch kind {
	case CommandCreate:
		return "create"
	case CommandUpdate:
		return "update"
	default:
		return fmt.Sprintf("command(%d)", int(kind))
	}
}

// Command is the write request handed to the store.
type Command struct {
	Kind CommandKind
	// ID is the storage identifier the update is addressed to. Empty for
	// Create.
	ID      string
	Payload *model.Value
}

// Writer is the part of the CRUD store that executes commands.
type Writer interface {
	Create(ctx context.Context, payload *model.Value) (*model.Value, error)
	Update(ctx context.Context, id string, payload *model.Value) (*model.Value, error)
}

// Prepare selects the command for record and action.
func Prepare(record *model.Value, action model.ActionTag) (Command, error) {
	switch action {
	case model.ActionCreate:
		logger.SubmitLog.Debugf("prepared create command")
		return Command{Kind: CommandCreate, Payload: record}, nil
	case model.ActionUpdate:
		storageID := model.StorageID(record)
		if storageID == "" {
			return Command{}, errors.Wrap(ErrMissingIdentity, "cannot prepare update")
		}
		logger.SubmitLog.Debugf("prepared update command id=%s", storageID)
		return Command{Kind: CommandUpdate, ID: storageID, Payload: record}, nil
	default:
		logger.SubmitLog.Errorf("rejected submission with action=%q", action)
		return Command{}, errors.WithStack(&InvalidActionError{Action: action})
	}
}

// MustPrepare is like Prepare but panics on error. It is for callers that
// select the action themselves and treat a bad tag as a programming error.
func MustPrepare(record *model.Value, action model.ActionTag) Command {
	command, err := Prepare(record, action)
	if err != nil {
		panic(err)
	}
	return command
}

// Dispatch executes the command against writer and returns the record the
// store echoed back.
func (command Command) Dispatch(ctx context.Context, writer Writer) (*model.Value, error) {
	switch command.Kind {
	case CommandCreate:
		return writer.Create(ctx, command.Payload)
	case CommandUpdate:
		return writer.Update(ctx, command.ID, command.Payload)
	default:
		return nil, errors.Errorf("cannot dispatch %s", command.Kind)
	}
}
