package loader

import (
	"context"
	"sync"

	"go.uber.org/zap"

	maskruntime "github.com/wippyai/mask-runtime"
	"github.com/wippyai/mask-runtime/errors"
)

// LoadFunc performs the actual engine load. It is invoked at most once
// per attempt, with a context detached from any single waiter.
type LoadFunc func(ctx context.Context) (maskruntime.Engine, error)

// Loader memoizes a LoadFunc with single-flight semantics.
type Loader struct {
	load     LoadFunc
	logger   *zap.Logger
	engine   maskruntime.Engine
	inflight *attempt
	mu       sync.Mutex
}

// attempt is one shared load operation. engine and err are written
// before done is closed and only read after.
type attempt struct {
	done   chan struct{}
	engine maskruntime.Engine
	err    error
}

// New creates a loader around fn.
func New(fn LoadFunc) *Loader {
	return NewWithLogger(fn, nil)
}

// NewWithLogger creates a loader with an explicit logger.
func NewWithLogger(fn LoadFunc, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{load: fn, logger: logger}
}

// EnsureLoaded returns the cached engine, joining or starting a load as
// needed. All callers observed during one in-flight load receive the
// same engine or the same failure. ctx cancellation abandons only this
// caller's wait; the shared load continues for the others.
func (l *Loader) EnsureLoaded(ctx context.Context) (maskruntime.Engine, error) {
	l.mu.Lock()
	if l.engine != nil {
		eng := l.engine
		l.mu.Unlock()
		return eng, nil
	}
	if l.load == nil {
		l.mu.Unlock()
		return nil, errors.NotInitialized(errors.PhaseLoad, "engine load function")
	}

	a := l.inflight
	if a == nil {
		a = &attempt{done: make(chan struct{})}
		l.inflight = a
		go l.run(a)
	}
	l.mu.Unlock()

	select {
	case <-a.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return a.engine, a.err
}

// Loaded reports whether a successful load is cached.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine != nil
}

// Engine returns the cached engine without triggering a load.
func (l *Loader) Engine() (maskruntime.Engine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine, l.engine != nil
}

func (l *Loader) run(a *attempt) {
	// The load outlives any individual waiter, so it runs on a
	// background context rather than the first caller's.
	eng, err := l.load(context.Background())

	l.mu.Lock()
	if err == nil {
		l.engine = eng
		l.logger.Info("mask engine loaded")
	} else {
		l.logger.Warn("mask engine load failed", zap.Error(err))
	}
	// Clearing inflight lets a later call retry after failure; on
	// success the cached engine short-circuits before inflight is read.
	l.inflight = nil
	l.mu.Unlock()

	a.engine = eng
	a.err = err
	close(a.done)
}
