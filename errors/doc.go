// Package errors provides structured error types for the fiber-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the fiber identity involved, a detail
// message, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseStack, errors.KindAllocation).
//		Fiber(id).
//		Detail("provider returned a %d byte region", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AllocationFailed(errors.PhaseCreate, size, cause)
//	err := errors.StackTooSmall(size, need)
//
// All errors implement the standard error interface and support errors.Is/As.
//
// Lifecycle-contract violations (joining an empty handle, abandoning a
// joinable handle) are deliberately NOT represented here: they abort the
// process instead of propagating, see the fiber package.
package errors
