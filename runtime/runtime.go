package runtime

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	maskruntime "github.com/wippyai/mask-runtime"
	"github.com/wippyai/mask-runtime/errors"
	"github.com/wippyai/mask-runtime/loader"
	"github.com/wippyai/mask-runtime/options"
	"github.com/wippyai/mask-runtime/registry"
)

// Config holds configuration for runtime creation.
type Config struct {
	// Load fetches and initializes the masking engine. Required; see
	// engine.LoadFile for the common case.
	Load loader.LoadFunc

	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Runtime coordinates engine loading, specification resolution and the
// instance registry behind a small façade.
type Runtime struct {
	loader       *loader.Loader
	registry     *registry.Registry
	logger       *zap.Logger
	teardownOnce sync.Once
}

// New creates a runtime. The engine is not loaded until the first
// CreateMask that needs it.
func New(cfg Config) (*Runtime, error) {
	if cfg.Load == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "Config.Load is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{
		loader:   loader.NewWithLogger(cfg.Load, logger),
		registry: registry.NewWithLogger(logger),
		logger:   logger,
	}, nil
}

// CreateMask binds a mask described by spec to element and returns its
// handle. spec accepts a named pattern key, a literal pattern string,
// JSON text or a map[string]any option tree.
//
// A named pattern resolves to a literal handle bound directly to the
// element: no engine is loaded and no registry entry is created for it.
func (r *Runtime) CreateMask(ctx context.Context, element maskruntime.Element, spec any) (*Handle, error) {
	if element == nil {
		return nil, errors.InvalidInput(errors.PhaseBind, "element is required")
	}

	resolved, err := options.Resolve(spec)
	if err != nil {
		return nil, err
	}

	if resolved.Kind == options.KindString {
		r.logger.Debug("named pattern shortcut", zap.String("pattern", resolved.Str))
		return newLiteralHandle(element, resolved.Str), nil
	}

	eng, err := r.loader.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	id, err := r.registry.Create(ctx, element, func(ctx context.Context) (maskruntime.Binding, error) {
		return eng.NewBinding(ctx, resolved)
	})
	if err != nil {
		return nil, err
	}

	rec, ok := r.registry.Get(id)
	if !ok {
		// A teardown raced the create; treat it like an explicit destroy.
		return nil, errors.NotFound(errors.PhaseBind, "instance", id)
	}

	return &Handle{runtime: r, id: id, binding: rec.Binding, element: element}, nil
}

// DestroyAllMasks tears down every live binding. It always completes;
// individual teardown failures are logged, never propagated.
func (r *Runtime) DestroyAllMasks(ctx context.Context) {
	r.registry.RemoveAll(ctx)
}

// Active returns the number of live bindings.
func (r *Runtime) Active() int {
	return r.registry.Len()
}

// RegisterTeardown hands a destroy-all callback to a host-provided
// shutdown registration. Only the first call registers; later calls are
// no-ops, so re-rendering hosts can call it unconditionally.
func (r *Runtime) RegisterTeardown(register func(func())) {
	r.teardownOnce.Do(func() {
		register(func() {
			r.DestroyAllMasks(context.Background())
		})
	})
}

// Close destroys all masks and releases the engine.
func (r *Runtime) Close(ctx context.Context) error {
	r.DestroyAllMasks(ctx)

	var err error
	if eng, ok := r.loader.Engine(); ok {
		err = multierr.Append(err, eng.Close(ctx))
	}
	return err
}
