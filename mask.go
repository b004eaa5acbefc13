package maskruntime

import (
	"context"

	"github.com/wippyai/mask-runtime/options"
)

// Element is the host-side input field a mask is bound to. The host owns
// native event wiring; the runtime only mirrors engine-formatted values
// back through SetValue.
type Element interface {
	Value() string
	SetValue(v string)
}

// Engine is a loaded masking engine module. One engine hosts any number
// of bindings.
type Engine interface {
	// NewBinding instantiates a mask inside the engine using resolved
	// options. The options are consumed by this call and must not be
	// reused.
	NewBinding(ctx context.Context, opts *options.Value) (Binding, error)

	// Close releases the engine module. All bindings must be closed first.
	Close(ctx context.Context) error
}

// Binding is one live mask instance inside the engine.
type Binding interface {
	// Value returns the current formatted value.
	Value(ctx context.Context) (string, error)

	// SetValue overwrites the value; the engine re-applies formatting,
	// so a subsequent Value is not required to equal v verbatim.
	SetValue(ctx context.Context, v string) error

	// UnmaskedValue returns the value with mask literals and
	// placeholders stripped.
	UnmaskedValue(ctx context.Context) (string, error)

	// Close tears the binding down. Close is called at most once by the
	// registry that owns the binding.
	Close(ctx context.Context) error
}
