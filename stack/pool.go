package stack

import (
	"sync"
	"sync/atomic"

	fiberruntime "github.com/wippyai/fiber-runtime"
)

const (
	// Pool limits to prevent memory bloat
	poolMaxRetained = 64 // regions kept across Deallocate calls
)

// Pooled recycles stack regions through a sync.Pool.
//
// Regions returned to the pool are zeroed before reuse so a recycled stack
// never leaks a previous fiber's data into the next one's control block.
type Pooled struct {
	pool     sync.Pool
	size     int
	retained atomic.Int64
}

// NewPooled creates a pooled provider producing regions of the given size.
// Sizes below fiberruntime.MinStackSize are rounded up to it.
func NewPooled(size int) *Pooled {
	if size < fiberruntime.MinStackSize {
		size = fiberruntime.MinStackSize
	}
	p := &Pooled{size: size}
	p.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Size returns the region size this provider hands out.
func (p *Pooled) Size() int { return p.size }

// Allocate returns a zeroed region, recycled when one is available.
func (p *Pooled) Allocate() (fiberruntime.Region, error) {
	buf := p.pool.Get().(*[]byte)
	if p.retained.Load() > 0 {
		p.retained.Add(-1)
	}
	return fiberruntime.Region{Mem: *buf}, nil
}

// Deallocate returns a region to the pool for reuse.
func (p *Pooled) Deallocate(r fiberruntime.Region) {
	if r.Mem == nil || len(r.Mem) != p.size {
		return // reject foreign or resized regions
	}
	if p.retained.Load() >= poolMaxRetained {
		return
	}
	clear(r.Mem)
	mem := r.Mem
	p.pool.Put(&mem)
	p.retained.Add(1)
}
