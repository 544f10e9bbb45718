package stack

import (
	"sync/atomic"

	fiberruntime "github.com/wippyai/fiber-runtime"
	"github.com/wippyai/fiber-runtime/errors"
)

// FixedSize allocates fresh fixed-size regions from the Go heap.
//
// Deallocate drops the provider's record of the region and leaves the
// memory to the garbage collector. The outstanding counter must balance:
// releasing a region twice, or a region the provider never produced, is a
// usage defect surfaced via Outstanding in tests.
type FixedSize struct {
	size        int
	outstanding atomic.Int64
}

// NewFixedSize creates a provider producing regions of the given size.
// Sizes below fiberruntime.MinStackSize are rounded up to it.
func NewFixedSize(size int) *FixedSize {
	if size < fiberruntime.MinStackSize {
		size = fiberruntime.MinStackSize
	}
	return &FixedSize{size: size}
}

// Default returns a FixedSize provider with the default stack size.
func Default() *FixedSize {
	return NewFixedSize(fiberruntime.DefaultStackSize)
}

// Size returns the region size this provider hands out.
func (p *FixedSize) Size() int { return p.size }

// Allocate returns a fresh zeroed region.
func (p *FixedSize) Allocate() (fiberruntime.Region, error) {
	mem := make([]byte, p.size)
	p.outstanding.Add(1)
	return fiberruntime.Region{Mem: mem}, nil
}

// Deallocate releases a region previously returned by Allocate.
func (p *FixedSize) Deallocate(r fiberruntime.Region) {
	if r.Mem == nil {
		return
	}
	p.outstanding.Add(-1)
}

// Outstanding returns the number of allocated, not yet released regions.
// Negative values indicate a double release.
func (p *FixedSize) Outstanding() int {
	return int(p.outstanding.Load())
}

// failing is a provider whose Allocate always fails. Used to exercise the
// allocation-failure path without exhausting real memory.
type failing struct {
	cause error
}

// NewFailing returns a provider whose Allocate always reports an
// allocation failure with the given cause.
func NewFailing(cause error) fiberruntime.StackProvider {
	return &failing{cause: cause}
}

func (p *failing) Allocate() (fiberruntime.Region, error) {
	return fiberruntime.Region{}, errors.AllocationFailed(errors.PhaseStack, 0, p.cause)
}

func (p *failing) Deallocate(fiberruntime.Region) {}
