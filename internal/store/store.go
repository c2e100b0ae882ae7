// Package store provides the CRUD store the profile form talks to. The
// engine only needs an in-process implementation: it plays the external
// document store, including its habit of echoing 64-bit rates back as
// strings after a write.
package store

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
	"github.com/free5gc/profilecheck/pkg/factory"
)

// Store is the profile CRUD interface. All operations are safe to be called
// from concurrent goroutines and never hand out internal state.
type Store interface {
	// Create stores payload under a new identifier and returns the stored
	// document as the store echoes it.
	Create(ctx context.Context, payload *model.Value) (*model.Value, error)

	// Update replaces the document with the given identifier.
	Update(ctx context.Context, id string, payload *model.Value) (*model.Value, error)

	// Get returns a single document as a fetch sees it.
	Get(ctx context.Context, id string) (*model.Value, error)

	// List returns every document in insertion order.
	List(ctx context.Context) ([]*model.Value, error)

	Delete(ctx context.Context, id string) error
}

// Error is a failed store call, shaped like a remote response so the form
// can render it.
type Error struct {
	Status     int
	StatusText string
	Name       string
	Message    string
}

func (storeError *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d %s)", storeError.Name, storeError.Message, storeError.Status, storeError.StatusText)
}

func newError(status int, name string, format string, args ...any) error {
	return errors.WithStack(&Error{
		Status:     status,
		StatusText: http.StatusText(status),
		Name:       name,
		Message:    fmt.Sprintf(format, args...),
	})
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var storeError *Error
	if errors.As(err, &storeError) {
		return storeError, true
	}
	return nil, false
}

// NewStoreFromConfig creates a Store based on the store configuration.
func NewStoreFromConfig(storeConfig factory.StoreSection, rateKeys []string) (Store, error) {
	switch storeConfig.Driver {
	case "memory":
		logger.StoreLog.Infof("Using in-memory profile store (maxItems=%d, longsAsStrings=%t, enforceUniqueImsi=%t)",
			storeConfig.MaxItems, storeConfig.LongsAsStrings, storeConfig.EnforceUniqueImsi)
		return newMemoryStore(storeConfig, rateKeys), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", storeConfig.Driver)
	}
}

// -----------------------------------------------------------------------------
// In-memory implementation
// -----------------------------------------------------------------------------

type memoryStore struct {
	mutexForEntries sync.RWMutex
	entries         []memoryEntry

	maxItems          int // 0 means "no explicit limit"
	longsAsStrings    bool
	enforceUniqueImsi bool
	rateKeys          map[string]struct{}
}

type memoryEntry struct {
	id            string
	record        *model.Value
	insertionTime time.Time
}

func newMemoryStore(storeConfig factory.StoreSection, rateKeys []string) *memoryStore {
	return &memoryStore{
		entries:           make([]memoryEntry, 0),
		maxItems:          storeConfig.MaxItems,
		longsAsStrings:    storeConfig.LongsAsStrings,
		enforceUniqueImsi: storeConfig.EnforceUniqueImsi,
		rateKeys:          model.RateKeySet(rateKeys),
	}
}

// Create implements Store.Create.
func (store *memoryStore) Create(ctx context.Context, payload *model.Value) (*model.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !payload.IsObject() {
		return nil, newError(http.StatusBadRequest, "ValidationError", "profile must be an object, got %s", payload.Kind())
	}

	store.mutexForEntries.Lock()
	defer store.mutexForEntries.Unlock()

	if store.maxItems > 0 && len(store.entries) >= store.maxItems {
		logger.StoreLog.Warnf("profile store reached maxItems=%d, rejecting create", store.maxItems)
		return nil, newError(http.StatusInsufficientStorage, "StorageFullError", "store holds %d profiles", len(store.entries))
	}

	id := model.StorageID(payload)
	if id == "" {
		id = uuid.NewString()
	}
	if store.indexOfLocked(id) >= 0 {
		return nil, newError(http.StatusConflict, "DuplicateKeyError", "_id '%s' already exists", id)
	}
	if err := store.checkUniqueImsiLocked(payload, ""); err != nil {
		return nil, err
	}

	stored := payload.Clone().With(model.FieldStorageID, model.String(id))
	store.entries = append(store.entries, memoryEntry{
		id:            id,
		record:        stored,
		insertionTime: time.Now(),
	})

	logger.StoreLog.Debugf("profile created id=%s", id)
	return store.echoWritten(stored), nil
}

// Update implements Store.Update.
func (store *memoryStore) Update(ctx context.Context, id string, payload *model.Value) (*model.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !payload.IsObject() {
		return nil, newError(http.StatusBadRequest, "ValidationError", "profile must be an object, got %s", payload.Kind())
	}

	store.mutexForEntries.Lock()
	defer store.mutexForEntries.Unlock()

	index := store.indexOfLocked(id)
	if index < 0 {
		return nil, newError(http.StatusNotFound, "DocumentNotFoundError", "profile '%s' not found", id)
	}
	if err := store.checkUniqueImsiLocked(payload, id); err != nil {
		return nil, err
	}

	stored := payload.Clone().With(model.FieldStorageID, model.String(id))
	store.entries[index].record = stored

	logger.StoreLog.Debugf("profile updated id=%s", id)
	return store.echoWritten(stored), nil
}

// Get implements Store.Get.
func (store *memoryStore) Get(ctx context.Context, id string) (*model.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mutexForEntries.RLock()
	defer store.mutexForEntries.RUnlock()

	index := store.indexOfLocked(id)
	if index < 0 {
		return nil, newError(http.StatusNotFound, "DocumentNotFoundError", "profile '%s' not found", id)
	}
	return store.entries[index].record.Clone(), nil
}

// List implements Store.List.
func (store *memoryStore) List(ctx context.Context) ([]*model.Value, error) {
	store.mutexForEntries.RLock()
	defer store.mutexForEntries.RUnlock()

	results := make([]*model.Value, 0, len(store.entries))
	for _, entry := range store.entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		results = append(results, entry.record.Clone())
	}
	return results, nil
}

// Delete implements Store.Delete.
func (store *memoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mutexForEntries.Lock()
	defer store.mutexForEntries.Unlock()

	index := store.indexOfLocked(id)
	if index < 0 {
		return newError(http.StatusNotFound, "DocumentNotFoundError", "profile '%s' not found", id)
	}

	age := time.Since(store.entries[index].insertionTime)
	store.entries = append(store.entries[:index], store.entries[index+1:]...)
	logger.StoreLog.Infof("profile deleted id=%s age=%s", id, age)
	return nil
}

// indexOfLocked assumes mutexForEntries is already held.
func (store *memoryStore) indexOfLocked(id string) int {
	for index, entry := range store.entries {
		if entry.id == id {
			return index
		}
	}
	return -1
}

// checkUniqueImsiLocked assumes mutexForEntries is already held. exceptID is
// the document being replaced, which may keep its own IMSI.
func (store *memoryStore) checkUniqueImsiLocked(payload *model.Value, exceptID string) error {
	if !store.enforceUniqueImsi {
		return nil
	}
	imsi, ok := model.IMSI(payload)
	if !ok {
		return nil
	}
	for _, entry := range store.entries {
		if entry.id == exceptID {
			continue
		}
		if existing, _ := model.IMSI(entry.record); existing == imsi {
			return newError(http.StatusConflict, "DuplicateKeyError", "imsi '%s' already exists", imsi)
		}
	}
	return nil
}

// echoWritten returns the copy of a stored document handed back by a write.
// With longsAsStrings the rate members are rendered as strings, the way some
// document drivers serialise 64-bit longs.
func (store *memoryStore) echoWritten(stored *model.Value) *model.Value {
	if !store.longsAsStrings {
		return stored.Clone()
	}
	return store.stringifyRates(stored)
}

func (store *memoryStore) stringifyRates(node *model.Value) *model.Value {
	switch node.Kind() {
	case model.KindObject:
		members := node.Members()
		for index, member := range members {
			if _, isRate := store.rateKeys[member.Key]; isRate {
				if quantity, ok := member.Value.Decimal(); ok {
					members[index].Value = model.String(quantity.String())
					continue
				}
			}
			members[index].Value = store.stringifyRates(member.Value)
		}
		return model.Object(members...)
	case model.KindArray:
		items := node.Items()
		for index, item := range items {
			items[index] = store.stringifyRates(item)
		}
		return model.Array(items...)
	default:
		return node.Clone()
	}
}
