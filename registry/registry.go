package registry

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	maskruntime "github.com/wippyai/mask-runtime"
)

// BindFunc instantiates the engine binding for a record. It runs outside
// the registry lock; a failure means no record is inserted.
type BindFunc func(ctx context.Context) (maskruntime.Binding, error)

// Record is one live mask instance.
type Record struct {
	Binding maskruntime.Binding
	Element maskruntime.Element
	ID      string
}

// Registry is a process-wide table of live mask bindings keyed by
// generated id. The zero value is not usable; call New.
type Registry struct {
	records map[string]*Record
	logger  *zap.Logger
	mu      sync.Mutex
}

// New creates an empty registry.
func New() *Registry {
	return NewWithLogger(nil)
}

// NewWithLogger creates an empty registry with an explicit logger.
func NewWithLogger(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		records: make(map[string]*Record),
		logger:  logger,
	}
}

// Create instantiates a binding via bind and registers it under a fresh
// id. The binding is created before any bookkeeping, so a bind failure
// leaves the registry untouched.
func (r *Registry) Create(ctx context.Context, el maskruntime.Element, bind BindFunc) (string, error) {
	binding, err := bind(ctx)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	id := newID()
	for _, taken := r.records[id]; taken; _, taken = r.records[id] {
		id = newID()
	}
	r.records[id] = &Record{ID: id, Binding: binding, Element: el}
	active := len(r.records)
	r.mu.Unlock()

	emitCreated(ctx, id, active)
	return id, nil
}

// Get returns the record for an id.
func (r *Registry) Get(id string) (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	return rec, ok
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Remove tears down the binding for id and deletes its record. Removing
// an absent id is a no-op. The record leaves the table before teardown
// runs, so a concurrent Remove of the same id tears down at most once;
// the teardown error, if any, is returned for the caller to decide on.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	rec, ok := r.records[id]
	if ok {
		delete(r.records, id)
	}
	active := len(r.records)
	r.mu.Unlock()

	if !ok {
		return nil
	}

	err := rec.Binding.Close(ctx)
	emitRemoved(ctx, id, active)
	if err != nil {
		emitTeardownFailed(ctx, id, err)
		return err
	}
	return nil
}

// RemoveAll tears down every record. Individual teardown failures are
// logged and do not stop the sweep; the registry is empty afterward.
func (r *Registry) RemoveAll(ctx context.Context) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		if err := r.Remove(ctx, id); err != nil {
			r.logger.Warn("mask teardown failed during sweep",
				zap.String("instance_id", id),
				zap.Error(err))
		}
	}
}

// newID generates a time-prefixed random id. Uniqueness within a live
// registry is enforced by Create's collision retry; ids are not suitable
// as persistent keys across process restarts.
func newID() string {
	return "m-" + strconv.FormatInt(time.Now().UnixMilli(), 36) +
		"-" + strconv.FormatUint(uint64(rand.Uint32()), 36)
}
