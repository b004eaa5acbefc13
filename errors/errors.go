package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // engine module loading
	PhaseResolve  Phase = "resolve"  // mask specification resolution
	PhaseBind     Phase = "bind"     // engine binding instantiation
	PhaseValue    Phase = "value"    // value get/set through a binding
	PhaseTeardown Phase = "teardown" // binding and registry teardown
	PhaseParse    Phase = "parse"    // WIT/ABI surface parsing
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidPattern Kind = "invalid_pattern"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindInstantiation  Kind = "instantiation"
	KindEngineRejected Kind = "engine_rejected"
	KindMissingExport  Kind = "missing_export"
	KindAllocation     Kind = "allocation"
	KindTeardown       Kind = "teardown"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the option path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Load creates an engine load failure error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates a binding instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase: PhaseBind,
		Kind:  KindInstantiation,
		Cause: cause,
	}
}

// EngineRejected creates an error for options the engine refused
func EngineRejected(detail string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindEngineRejected,
		Detail: detail,
	}
}

// NotFound creates a not found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NotInitialized creates a not initialized error
func NotInitialized(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s is not initialized", what),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// MissingExport creates an error for a guest export absent from the engine
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("engine does not export %q", name),
	}
}

// AllocationFailed creates a guest allocation failure error
func AllocationFailed(size uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseValue,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes in guest memory", size),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
