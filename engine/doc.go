// Package engine integrates the WebAssembly masking engine through wazero.
//
// One guest instance hosts every mask binding; bindings are keyed by
// guest-side ids. Resolved options cross the boundary as the options
// wire JSON, strings come back as packed pointer/length pairs copied out
// of guest memory immediately.
//
// The guest ABI surface is described by a WIT world and validated when
// the module is loaded, so a mismatched engine build fails at load time
// with a structured error instead of trapping on first use.
package engine
