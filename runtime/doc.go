// Package runtime provides the high-level API for binding masks to host
// form fields.
//
// A Runtime owns one engine loader and one instance registry. CreateMask
// resolves the caller's specification, loads the engine on first use,
// instantiates a binding and returns a Handle for value access and
// disposal. Named-pattern specifications short-circuit: they resolve to
// a literal pattern handle without touching the engine or the registry.
//
// DestroyAllMasks tears everything down and never fails; RegisterTeardown
// binds it to a host-provided shutdown signal as a safety net.
package runtime
