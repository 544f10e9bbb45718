package fiber

import (
	"sync/atomic"
	"unsafe"

	fiberruntime "github.com/wippyai/fiber-runtime"
	"github.com/wippyai/fiber-runtime/errors"
)

// Scheduler is the contract a control block needs from its scheduler.
// A block is handed to exactly one scheduler, exactly once, at creation.
type Scheduler interface {
	// RegisterReady takes a reference to a freshly created block, pins it,
	// and makes it eligible to run.
	RegisterReady(cb *ControlBlock)

	// WaitUntilTerminated blocks the calling context, cooperatively, until
	// the block's termination flag is set.
	WaitUntilTerminated(cb *ControlBlock)

	// RequestInterrupt marks a cooperative cancellation request, observed
	// by the fiber at its next suspension point.
	RequestInterrupt(cb *ControlBlock)
}

const (
	flagTerminated uint32 = 1 << iota
	flagInterrupt
)

// ControlBlock is the schedulable entity behind a fiber handle. It is
// constructed in place at the aligned top of its own stack region, so its
// storage and the execution stack come from one allocation.
//
// The first three fields are mutated atomically; carveLayout guarantees
// their alignment. Everything below them is written once during placement
// or Bind and read-only afterwards. Heap values referenced from here are
// invisible to the collector (the region is pointer-free memory); the pin
// object duplicates them, see Pin.
type ControlBlock struct {
	id    uint64
	flags uint32
	refs  int32

	region   fiberruntime.Region
	provider fiberruntime.StackProvider
	stack    []byte
	entry    func(*Context)
	props    any

	// saved execution context: the channel handshake pair standing in for
	// a register-level swap
	resume chan struct{}
	yield  chan struct{}

	// scheduler wiring, set by Bind
	sched      Scheduler
	reschedule func(*ControlBlock)
	onFinal    func(*ControlBlock)
}

// pin duplicates every heap value stored inside a placed block so the
// collector keeps those values live while the registry holds the pin.
type pin struct {
	mem        []byte
	provider   fiberruntime.StackProvider
	entry      func(*Context)
	props      any
	resume     chan struct{}
	yield      chan struct{}
	sched      Scheduler
	reschedule func(*ControlBlock)
	onFinal    func(*ControlBlock)
}

// newControlBlock performs the placement build. It is the only code path
// allowed to reinterpret region bytes as a ControlBlock.
//
// The returned block holds one reference (the future handle's). On error
// the region is untouched and still owned by the caller.
func newControlBlock(region fiberruntime.Region, provider fiberruntime.StackProvider, entry func(*Context), props any) (*ControlBlock, error) {
	basePtr := unsafe.Pointer(unsafe.SliceData(region.Mem))
	base := uintptr(basePtr)

	sp, consumed, ok := carveLayout(base, uintptr(len(region.Mem)))
	if !ok {
		need := int(controlBlockSize) + controlBlockAlign + minUsableStack
		return nil, errors.StackTooSmall(len(region.Mem), need)
	}

	cb := (*ControlBlock)(unsafe.Add(basePtr, sp-base))
	*cb = ControlBlock{
		id:       uint64(nextID()),
		refs:     1,
		region:   region,
		provider: provider,
		stack:    region.Mem[:uintptr(len(region.Mem))-consumed],
		entry:    entry,
		props:    props,
		resume:   make(chan struct{}),
		yield:    make(chan struct{}),
	}
	return cb, nil
}

// ID returns the block's identity. Written once during placement.
func (cb *ControlBlock) ID() ID { return ID(cb.id) }

// Terminated reports whether the fiber has finished. The flag is monotone:
// once set, the block never resumes execution again.
func (cb *ControlBlock) Terminated() bool {
	return atomic.LoadUint32(&cb.flags)&flagTerminated != 0
}

func (cb *ControlBlock) setTerminated() {
	for {
		old := atomic.LoadUint32(&cb.flags)
		if atomic.CompareAndSwapUint32(&cb.flags, old, old|flagTerminated) {
			return
		}
	}
}

// RequestInterrupt marks the cooperative cancellation flag. The fiber
// observes it at its next suspension point; a fiber that never yields
// never stops early.
func (cb *ControlBlock) RequestInterrupt() {
	for {
		old := atomic.LoadUint32(&cb.flags)
		if atomic.CompareAndSwapUint32(&cb.flags, old, old|flagInterrupt) {
			return
		}
	}
}

// InterruptRequested reports whether an interrupt has been requested.
func (cb *ControlBlock) InterruptRequested() bool {
	return atomic.LoadUint32(&cb.flags)&flagInterrupt != 0
}

// StackSize returns the usable execution stack size in bytes, after the
// control block's share was carved off.
func (cb *ControlBlock) StackSize() int { return len(cb.stack) }

// Properties returns the user-defined property object, or nil.
func (cb *ControlBlock) Properties() any { return cb.props }

// Scheduler returns the scheduler the block was registered with.
func (cb *ControlBlock) Scheduler() Scheduler { return cb.sched }

// Acquire adds a reference. Holders are the handle, the scheduler, and any
// internal bookkeeping; the count only moves through ownership-transfer
// operations, never concurrently from multiple OS threads.
func (cb *ControlBlock) Acquire() {
	atomic.AddInt32(&cb.refs, 1)
}

// Release drops a reference. The last release removes the registry pin and
// returns the entire original region to the provider, exactly once.
func (cb *ControlBlock) Release() {
	n := atomic.AddInt32(&cb.refs, -1)
	if n > 0 {
		return
	}
	if n < 0 {
		Fatalf("%s released more times than acquired", cb.ID())
		return
	}
	// Locals keep the referents alive across the pin removal; after
	// Deallocate the block's memory must not be touched.
	provider, region, final := cb.provider, cb.region, cb.onFinal
	if final != nil {
		final(cb)
	}
	provider.Deallocate(region)
}

// Bind wires the block to its scheduler. Called exactly once, from
// RegisterReady, before Launch.
func (cb *ControlBlock) Bind(s Scheduler, reschedule, onFinal func(*ControlBlock)) {
	cb.sched = s
	cb.reschedule = reschedule
	cb.onFinal = onFinal
}

// Pin returns the object the registry must hold so the collector keeps the
// block's heap referents live. Call after Bind.
func (cb *ControlBlock) Pin() any {
	return &pin{
		mem:        cb.region.Mem,
		provider:   cb.provider,
		entry:      cb.entry,
		props:      cb.props,
		resume:     cb.resume,
		yield:      cb.yield,
		sched:      cb.sched,
		reschedule: cb.reschedule,
		onFinal:    cb.onFinal,
	}
}

// Launch starts the fiber's backing goroutine, parked until the first
// Dispatch. Starting happens-before any of the entry function's code runs.
func (cb *ControlBlock) Launch() {
	go cb.run()
}

func (cb *ControlBlock) run() {
	// Local copies outlive the block: after the final handshake the
	// scheduler may release the region while this goroutine unwinds.
	resume, yield := cb.resume, cb.yield

	<-resume

	ctx := &Context{cb: cb}
	func() {
		defer func() {
			if r := recover(); r != nil {
				Fatalf("panic in %s entry: %v", cb.ID(), r)
			}
		}()
		cb.entry(ctx)
	}()

	cb.setTerminated()
	yield <- struct{}{}
}

// Dispatch switches execution into the fiber and returns when it parks or
// terminates. Called only by the scheduler, on the thread that owns it.
func (cb *ControlBlock) Dispatch() {
	cb.resume <- struct{}{}
	<-cb.yield
}

// Park switches execution out of the fiber without marking it ready.
// Called only from within the fiber's own execution; it returns when the
// scheduler dispatches the block again.
func (cb *ControlBlock) Park() {
	cb.yield <- struct{}{}
	<-cb.resume
}
