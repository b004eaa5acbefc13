package runtime

import (
	"context"

	maskruntime "github.com/wippyai/mask-runtime"
)

// Handle is the caller's façade over one mask. Engine-backed handles
// proxy value access to the binding and mirror engine-formatted values
// back to the element; literal handles (named-pattern shortcut) carry a
// pattern string and proxy straight to the element.
type Handle struct {
	runtime *Runtime
	binding maskruntime.Binding
	element maskruntime.Element
	id      string
	pattern string
}

func newLiteralHandle(element maskruntime.Element, pattern string) *Handle {
	return &Handle{element: element, pattern: pattern}
}

// ID returns the registry id, or "" for a literal handle.
func (h *Handle) ID() string {
	return h.id
}

// Pattern returns the literal mask pattern for a named-pattern handle,
// or "" for an engine-backed one. Hosts render literal patterns natively.
func (h *Handle) Pattern() string {
	return h.pattern
}

// Destroy removes the mask. Safe to call more than once; only the first
// call tears the binding down. The handle must not be used for value
// access afterwards.
func (h *Handle) Destroy(ctx context.Context) error {
	if h.binding == nil {
		return nil
	}
	return h.runtime.registry.Remove(ctx, h.id)
}

// Value returns the current engine-formatted value.
func (h *Handle) Value(ctx context.Context) (string, error) {
	if h.binding == nil {
		return h.element.Value(), nil
	}
	return h.binding.Value(ctx)
}

// SetValue overwrites the value. The engine re-applies formatting, and
// the formatted result is mirrored back to the element, so a subsequent
// Value is not required to equal v verbatim.
func (h *Handle) SetValue(ctx context.Context, v string) error {
	if h.binding == nil {
		h.element.SetValue(v)
		return nil
	}
	if err := h.binding.SetValue(ctx, v); err != nil {
		return err
	}
	formatted, err := h.binding.Value(ctx)
	if err != nil {
		return err
	}
	h.element.SetValue(formatted)
	return nil
}

// UnmaskedValue returns the value with mask literals and placeholders
// stripped.
func (h *Handle) UnmaskedValue(ctx context.Context) (string, error) {
	if h.binding == nil {
		return h.element.Value(), nil
	}
	return h.binding.UnmaskedValue(ctx)
}
