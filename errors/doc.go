// Package errors provides structured error types for the mask-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: option path within the
// mask specification, the offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindInvalidPattern).
//		Path("blocks", "YY", "mask").
//		Detail("unterminated regular expression").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Load("fetch engine module", cause)
//	err := errors.NotFound(errors.PhaseTeardown, "instance", id)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
