package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the fiber lifecycle the error occurred
type Phase string

const (
	PhaseCreate   Phase = "create"   // handle construction, stack carving
	PhaseStack    Phase = "stack"    // stack provider operations
	PhaseSchedule Phase = "schedule" // ready-queue and dispatch operations
	PhaseJoin     Phase = "join"     // termination waits
	PhaseProperty Phase = "property" // fiber-local property access
	PhaseRuntime  Phase = "runtime"  // entry function execution
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation   Kind = "allocation"
	KindStackLayout  Kind = "stack_layout"
	KindUnsupported  Kind = "unsupported"
	KindInterrupted  Kind = "interrupted"
	KindInvalidInput Kind = "invalid_input"
	KindExhausted    Kind = "exhausted"
	KindClosed       Kind = "closed"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Detail  string
	FiberID uint64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.FiberID != 0 {
		fmt.Fprintf(&b, " fiber %d", e.FiberID)
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

// Fiber sets the fiber identity involved
func (b *Builder) Fiber(id uint64) *Builder {
	b.err.FiberID = id
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

// AllocationFailed reports that stack memory could not be obtained.
// No control block exists when this is returned; creation had no side effects.
func AllocationFailed(phase Phase, size int, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d byte stack region", size),
		Cause:  cause,
	}
}

// StackTooSmall reports a region too small to hold the control block plus
// a usable execution stack.
func StackTooSmall(size, need int) *Error {
	return &Error{
		Phase:  PhaseCreate,
		Kind:   KindStackLayout,
		Detail: fmt.Sprintf("%d byte region cannot fit control block, need at least %d", size, need),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Interrupted reports that a fiber observed a cooperative interrupt request
// at a suspension point.
func Interrupted(id uint64) *Error {
	return &Error{
		Phase:   PhaseRuntime,
		Kind:    KindInterrupted,
		FiberID: id,
		Detail:  "interrupt requested",
	}
}

// ErrInterrupted matches any interruption error via errors.Is.
var ErrInterrupted = &Error{Phase: PhaseRuntime, Kind: KindInterrupted}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Closed reports an operation against a closed provider or table.
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// Exhausted reports a bounded resource running out (for example a pooled
// stack provider at its cap).
func Exhausted(phase Phase, what string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("%s exhausted (limit %d)", what, limit),
	}
}
