package fiber

import (
	stderrors "errors"
	"runtime"

	fiberruntime "github.com/wippyai/fiber-runtime"
	"github.com/wippyai/fiber-runtime/errors"
	"github.com/wippyai/fiber-runtime/stack"
)

// EntryFunc is a fiber entry point. The args passed to New are captured at
// creation and applied when the fiber first runs.
type EntryFunc func(ctx *Context, args ...any)

// Options configures fiber creation.
type Options struct {
	// Stack supplies the stack region. Nil selects the shared fixed-size
	// provider with the default stack size.
	Stack fiberruntime.StackProvider

	// Properties installs a user-defined property object on the control
	// block, retrieved later via Properties[T].
	Properties any
}

var defaultProvider = stack.Default()

// Fiber is a move-only handle owning one reference to a control block.
// A non-empty handle denotes a block that has been started exactly once;
// it must be joined or detached before the handle is dropped.
//
// Fiber performs no synchronization: use it from the thread that owns the
// associated scheduler.
type Fiber struct {
	impl    *ControlBlock
	cleanup runtime.Cleanup
}

// New creates and starts a fiber on the default fixed-size stack.
// Allocation failure is the only recoverable error; on error no control
// block exists and nothing was registered.
func New(s Scheduler, fn EntryFunc, args ...any) (*Fiber, error) {
	return NewWithOptions(s, Options{}, fn, args...)
}

// NewWithStack creates and starts a fiber on a region from the given
// provider.
func NewWithStack(s Scheduler, provider fiberruntime.StackProvider, fn EntryFunc, args ...any) (*Fiber, error) {
	return NewWithOptions(s, Options{Stack: provider}, fn, args...)
}

// NewWithOptions allocates a stack region, carves the control block into
// it, registers the block with the scheduler and returns the owning
// handle, all in one step. There is no way to construct a non-empty,
// non-started handle.
func NewWithOptions(s Scheduler, opts Options, fn EntryFunc, args ...any) (*Fiber, error) {
	if s == nil {
		return nil, errors.InvalidInput(errors.PhaseCreate, "nil scheduler")
	}
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseCreate, "nil entry function")
	}

	provider := opts.Stack
	if provider == nil {
		provider = defaultProvider
	}

	region, err := provider.Allocate()
	if err != nil {
		var e *errors.Error
		if !stderrors.As(err, &e) {
			err = errors.New(errors.PhaseCreate, errors.KindAllocation).
				Detail("stack provider failed").
				Cause(err).
				Build()
		}
		return nil, err
	}

	entry := func(ctx *Context) { fn(ctx, args...) }

	cb, err := newControlBlock(region, provider, entry, opts.Properties)
	if err != nil {
		provider.Deallocate(region)
		return nil, err
	}

	s.RegisterReady(cb)

	// The registry pin now carries these; until here, these locals were
	// the only GC-visible references.
	runtime.KeepAlive(region.Mem)
	runtime.KeepAlive(entry)
	runtime.KeepAlive(opts.Properties)

	f := &Fiber{impl: cb}
	f.arm()
	return f, nil
}

// arm installs the abandoned-handle check that fires if a joinable handle
// becomes unreachable without join or detach.
func (f *Fiber) arm() {
	f.cleanup = runtime.AddCleanup(f, func(id ID) {
		Fatalf("%s abandoned: joinable handle dropped without join or detach", id)
	}, f.impl.ID())
}

// disarm empties the handle, returning the block it owned.
func (f *Fiber) disarm() *ControlBlock {
	cb := f.impl
	f.impl = nil
	f.cleanup.Stop()
	f.cleanup = runtime.Cleanup{}
	return cb
}

// Joinable reports whether the handle owns a control block. A fiber that
// already terminated but has not been joined or detached is still
// joinable; only join, detach or a move empty the handle.
func (f *Fiber) Joinable() bool { return f.impl != nil }

// Alive reports whether the handle is non-empty and the fiber has not yet
// terminated.
func (f *Fiber) Alive() bool { return f.impl != nil && !f.impl.Terminated() }

// ID returns the fiber's identity, or the zero ID for an empty handle.
func (f *Fiber) ID() ID {
	if f.impl == nil {
		return 0
	}
	return f.impl.ID()
}

// Join blocks the calling context until the fiber terminates, then empties
// the handle and releases its reference. Joining an empty handle or the
// running fiber itself is a fatal usage error.
func (f *Fiber) Join() {
	if f.impl == nil {
		Fatalf("join on an empty fiber handle")
		return
	}
	cb := f.impl
	cb.Scheduler().WaitUntilTerminated(cb)
	f.disarm()
	cb.Release()
}

// Detach empties the handle immediately without waiting for termination.
// The scheduler's reference keeps the fiber alive until it finishes.
func (f *Fiber) Detach() {
	if f.impl == nil {
		Fatalf("detach on an empty fiber handle")
		return
	}
	f.disarm().Release()
}

// Interrupt requests cooperative cancellation. The handle stays joinable;
// the fiber observes the request at its next suspension point.
func (f *Fiber) Interrupt() {
	if f.impl == nil {
		Fatalf("interrupt on an empty fiber handle")
		return
	}
	f.impl.Scheduler().RequestInterrupt(f.impl)
}

// Move transfers ownership to a fresh handle and empties f.
func (f *Fiber) Move() *Fiber {
	g := &Fiber{}
	if f.impl != nil {
		g.impl = f.disarm()
		g.arm()
	}
	return g
}

// MoveFrom transfers ownership out of other into f. Moving onto a handle
// that still owns a joinable fiber is a fatal usage error: the target must
// be joined or detached first.
func (f *Fiber) MoveFrom(other *Fiber) {
	if f == other {
		return
	}
	if f.impl != nil {
		Fatalf("move onto a joinable fiber handle (%s)", f.impl.ID())
		return
	}
	if other.impl != nil {
		f.impl = other.disarm()
		f.arm()
	}
}

// Swap exchanges the fibers owned by two handles.
func (f *Fiber) Swap(other *Fiber) {
	if f == other {
		return
	}
	a, b := f.impl, other.impl
	if f.impl != nil {
		f.disarm()
	}
	if other.impl != nil {
		other.disarm()
	}
	if b != nil {
		f.impl = b
		f.arm()
	}
	if a != nil {
		other.impl = a
		other.arm()
	}
}

// Swap exchanges the fibers owned by two handles. Free-function form for
// use alongside Less in ordered containers.
func Swap(a, b *Fiber) { a.Swap(b) }

// Less orders handles by identity; empty handles sort first.
func Less(a, b *Fiber) bool { return a.ID() < b.ID() }

// Properties returns the fiber's property object as type T. Requesting
// properties of an empty handle, of a fiber with none installed, or as the
// wrong type is a fatal usage error, not a recoverable one: it indicates a
// caller/producer mismatch.
func Properties[T any](f *Fiber) T {
	var zero T
	if f.impl == nil {
		Fatalf("properties on an empty fiber handle")
		return zero
	}
	p := f.impl.Properties()
	if p == nil {
		Fatalf("%s: properties not set", f.ID())
		return zero
	}
	v, ok := p.(T)
	if !ok {
		Fatalf("%s: properties are %T, not %T", f.ID(), p, zero)
		return zero
	}
	return v
}
