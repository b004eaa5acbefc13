// Package maskruntime provides the interop layer between host form fields
// and a WebAssembly pattern-masking engine loaded at runtime.
//
// The masking engine itself is an opaque, trusted guest module: it owns the
// character-matching semantics. This library prepares its inputs and manages
// its lifecycle: it loads the engine exactly once regardless of concurrency,
// normalizes loosely-typed mask specifications into the engine's typed
// option tree, tracks every live binding in a process-wide registry, and
// returns a small handle the host uses for value access and disposal.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	maskruntime/         Root package with core Element, Engine and Binding interfaces
//	├── runtime/         High-level API for creating and destroying masks
//	├── options/         Mask specification resolver and typed option tree
//	├── loader/          Memoized single-flight engine loading
//	├── registry/        Process-wide table of live mask bindings
//	├── engine/          Low-level wazero integration with the engine module
//	├── errors/          Structured error types for debugging
//	└── cmd/maskfield/   CLI and interactive TUI host
//
// # Quick Start
//
// Bind a mask to a field:
//
//	rt, err := runtime.New(runtime.Config{
//	    Load: engine.LoadFile("maskengine.wasm"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	handle, err := rt.CreateMask(ctx, field, `{"mask":"+1 (000) 000-0000"}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer handle.Destroy(ctx)
//
//	handle.SetValue(ctx, "5551234567")
//	v, _ := handle.Value(ctx) // "+1 (555) 123-4567"
//
// # Mask Specifications
//
// CreateMask accepts four spec shapes:
//
//   - Named pattern: a key into the built-in table ("ssn", "phoneNumber", ...).
//     Resolves to a literal pattern string; no engine binding is created.
//   - Pattern string: any other string is used as a literal pattern.
//   - JSON text: a JSON object is decoded into an option tree.
//   - Structured tree: a map[string]any passed through as an option tree.
//
// Inside option trees, "mask" string values get a secondary grammar:
// "/pattern/flags" compiles to a regular expression, and the reserved
// tokens Number, Date, Range and Enum select engine masked types.
//
// # Lifecycle
//
// Destroying a handle is idempotent. Runtime.DestroyAllMasks tears down
// every live binding and never fails; RegisterTeardown binds it to a
// host-provided shutdown signal as a safety net for hosts that re-render
// fields without destroying handles first.
//
// # Thread Safety
//
// Runtime, Loader and Registry are safe for concurrent use. A Handle is
// intended for a single goroutine, matching the one-field-one-owner
// host contract; calls into the guest are serialized by the engine.
package maskruntime
