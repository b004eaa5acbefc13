package engine

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	maskruntime "github.com/wippyai/mask-runtime"
	"github.com/wippyai/mask-runtime/errors"
	"github.com/wippyai/mask-runtime/loader"
	"github.com/wippyai/mask-runtime/options"
)

// Allocator export names, in lookup order.
const (
	allocExport   = "allocate"
	allocFallback = "malloc"
	freeExport    = "deallocate"
	freeFallback  = "free"
)

// Config holds configuration for engine loading.
type Config struct {
	// MemoryLimitPages sets the maximum guest memory in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// ModuleName names the instantiated guest module. Defaults to
	// "maskengine".
	ModuleName string
}

// WazeroEngine hosts the masking engine module inside a wazero runtime.
// Guest calls are serialized: wazero module instances are not safe for
// concurrent use.
type WazeroEngine struct {
	runtime wazero.Runtime
	module  api.Module

	allocFn    api.Function
	freeFn     api.Function
	newFn      api.Function
	destroyFn  api.Function
	setFn      api.Function
	getFn      api.Function
	unmaskedFn api.Function

	callMu sync.Mutex
	closed atomic.Bool
}

var _ maskruntime.Engine = (*WazeroEngine)(nil)

// Load compiles and instantiates the engine module.
func Load(ctx context.Context, wasmBytes []byte) (*WazeroEngine, error) {
	return LoadWithConfig(ctx, wasmBytes, nil)
}

// LoadWithConfig compiles and instantiates the engine module with custom
// configuration. The export surface is validated against the engine WIT
// world before the engine is returned.
func LoadWithConfig(ctx context.Context, wasmBytes []byte, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	name := "maskengine"
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.ModuleName != "" {
			name = cfg.ModuleName
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, errors.Load("compile engine module", err)
	}

	module, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, errors.Load("instantiate engine module", err)
	}

	e := &WazeroEngine{runtime: runtime, module: module}
	if err := e.bindExports(); err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	Logger().Info("mask engine ready",
		zap.String("module", name),
		zap.Uint32("memory_pages", module.Memory().Size()/65536))
	return e, nil
}

// LoadFile returns a loader.LoadFunc that reads and loads an engine
// module from disk on first use.
func LoadFile(path string) loader.LoadFunc {
	return func(ctx context.Context) (maskruntime.Engine, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Load("read engine module", err)
		}
		return Load(ctx, data)
	}
}

// bindExports looks up and validates the guest's exported functions.
func (e *WazeroEngine) bindExports() error {
	sigs, err := parseWITFunctions(engineWIT)
	if err != nil {
		return err
	}

	defs := e.module.ExportedFunctionDefinitions()
	bind := map[string]*api.Function{
		"mask-new":          &e.newFn,
		"mask-destroy":      &e.destroyFn,
		"mask-set-value":    &e.setFn,
		"mask-get-value":    &e.getFn,
		"mask-get-unmasked": &e.unmaskedFn,
	}

	for witName, target := range bind {
		name := exportName(witName)
		def, ok := defs[name]
		if !ok {
			return errors.MissingExport(name)
		}
		sig := sigs[witName]
		if len(def.ParamTypes()) != len(sig.params) || len(def.ResultTypes()) != len(sig.results) {
			return errors.New(errors.PhaseLoad, errors.KindMissingExport).
				Detail("export %q has %d params and %d results, want %d and %d",
					name, len(def.ParamTypes()), len(def.ResultTypes()),
					len(sig.params), len(sig.results)).
				Build()
		}
		*target = e.module.ExportedFunction(name)
	}

	// Allocator exports follow a fallback chain rather than the WIT world.
	if e.allocFn = e.module.ExportedFunction(allocExport); e.allocFn == nil {
		e.allocFn = e.module.ExportedFunction(allocFallback)
	}
	if e.allocFn == nil {
		return errors.MissingExport(allocExport)
	}
	if e.freeFn = e.module.ExportedFunction(freeExport); e.freeFn == nil {
		e.freeFn = e.module.ExportedFunction(freeFallback)
	}

	if e.module.Memory() == nil {
		return errors.MissingExport("memory")
	}

	return nil
}

// NewBinding instantiates a mask inside the engine from resolved options.
func (e *WazeroEngine) NewBinding(ctx context.Context, opts *options.Value) (maskruntime.Binding, error) {
	wire, err := json.Marshal(opts)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseBind, errors.KindInvalidInput, err, "encode resolved options")
	}

	e.callMu.Lock()
	defer e.callMu.Unlock()

	ptr, err := e.alloc(ctx, wire)
	if err != nil {
		return nil, err
	}
	defer e.free(ctx, ptr, uint32(len(wire)))

	results, err := e.newFn.Call(ctx, uint64(ptr), uint64(len(wire)))
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	id := uint32(results[0])
	if id == 0 {
		return nil, errors.EngineRejected("engine rejected resolved options")
	}

	debugf("mask_new -> %d (%d option bytes)", id, len(wire))
	return &guestBinding{eng: e, id: id}, nil
}

// Close releases the engine and its wazero runtime.
func (e *WazeroEngine) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.runtime.Close(ctx)
}

// alloc writes data into fresh guest memory and returns its pointer.
func (e *WazeroEngine) alloc(ctx context.Context, data []byte) (uint32, error) {
	size := uint32(len(data))
	results, err := e.allocFn.Call(ctx, uint64(size))
	if err != nil {
		return 0, errors.AllocationFailed(size, err)
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(size, nil)
	}

	if !e.module.Memory().Write(ptr, data) {
		e.free(ctx, ptr, size)
		return 0, errors.AllocationFailed(size, nil)
	}
	return ptr, nil
}

// free releases guest memory. Best-effort: the guest may not export a
// deallocator.
func (e *WazeroEngine) free(ctx context.Context, ptr, size uint32) {
	if e.freeFn == nil || ptr == 0 {
		return
	}
	if _, err := e.freeFn.Call(ctx, uint64(ptr), uint64(size)); err != nil {
		Logger().Warn("failed to free guest memory",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

// splitPacked decodes a packed pointer<<32|length guest return.
func splitPacked(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}

// readPacked copies a packed string result out of guest memory. The
// guest owns the buffer only until its next call, so the copy happens
// before the caller regains control.
func (e *WazeroEngine) readPacked(packed uint64) (string, error) {
	ptr, length := splitPacked(packed)
	if length == 0 {
		return "", nil
	}
	data, ok := e.module.Memory().Read(ptr, length)
	if !ok {
		return "", errors.New(errors.PhaseValue, errors.KindInvalidInput).
			Detail("guest returned out-of-range string (ptr=%d len=%d)", ptr, length).
			Build()
	}
	return string(data), nil
}

// guestBinding is one mask instance inside the engine.
type guestBinding struct {
	eng    *WazeroEngine
	id     uint32
	closed atomic.Bool
}

var _ maskruntime.Binding = (*guestBinding)(nil)

func (b *guestBinding) Value(ctx context.Context) (string, error) {
	if b.closed.Load() {
		return "", errors.NotInitialized(errors.PhaseValue, "binding")
	}

	b.eng.callMu.Lock()
	defer b.eng.callMu.Unlock()

	results, err := b.eng.getFn.Call(ctx, uint64(b.id))
	if err != nil {
		return "", errors.Wrap(errors.PhaseValue, errors.KindInvalidInput, err, "mask_get_value")
	}
	return b.eng.readPacked(results[0])
}

func (b *guestBinding) SetValue(ctx context.Context, v string) error {
	if b.closed.Load() {
		return errors.NotInitialized(errors.PhaseValue, "binding")
	}

	b.eng.callMu.Lock()
	defer b.eng.callMu.Unlock()

	data := []byte(v)
	var ptr uint32
	if len(data) > 0 {
		var err error
		ptr, err = b.eng.alloc(ctx, data)
		if err != nil {
			return err
		}
		defer b.eng.free(ctx, ptr, uint32(len(data)))
	}

	results, err := b.eng.setFn.Call(ctx, uint64(b.id), uint64(ptr), uint64(len(data)))
	if err != nil {
		return errors.Wrap(errors.PhaseValue, errors.KindInvalidInput, err, "mask_set_value")
	}
	if rc := uint32(results[0]); rc != 0 {
		return errors.New(errors.PhaseValue, errors.KindEngineRejected).
			Detail("engine rejected value (code %d)", rc).
			Build()
	}
	return nil
}

func (b *guestBinding) UnmaskedValue(ctx context.Context) (string, error) {
	if b.closed.Load() {
		return "", errors.NotInitialized(errors.PhaseValue, "binding")
	}

	b.eng.callMu.Lock()
	defer b.eng.callMu.Unlock()

	results, err := b.eng.unmaskedFn.Call(ctx, uint64(b.id))
	if err != nil {
		return "", errors.Wrap(errors.PhaseValue, errors.KindInvalidInput, err, "mask_get_unmasked")
	}
	return b.eng.readPacked(results[0])
}

func (b *guestBinding) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.eng.callMu.Lock()
	defer b.eng.callMu.Unlock()

	if _, err := b.eng.destroyFn.Call(ctx, uint64(b.id)); err != nil {
		return errors.Wrap(errors.PhaseTeardown, errors.KindTeardown, err, "mask_destroy")
	}
	return nil
}
