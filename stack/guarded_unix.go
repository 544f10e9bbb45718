//go:build unix

package stack

import (
	"sync"

	"golang.org/x/sys/unix"

	fiberruntime "github.com/wippyai/fiber-runtime"
	"github.com/wippyai/fiber-runtime/errors"
)

// Guarded allocates stacks with mmap and protects the lowest page with
// PROT_NONE, so running off the bottom of the carved stack faults instead
// of silently corrupting adjacent memory.
type Guarded struct {
	size     int // usable bytes above the guard page
	pageSize int
	mu       sync.Mutex
	mapped   map[*byte][]byte // region start -> full mapping incl. guard page
}

// NewGuarded creates a guarded provider producing regions of the given
// usable size, rounded up to a whole number of pages.
func NewGuarded(size int) *Guarded {
	pageSize := unix.Getpagesize()
	if size < fiberruntime.MinStackSize {
		size = fiberruntime.MinStackSize
	}
	if rem := size % pageSize; rem != 0 {
		size += pageSize - rem
	}
	return &Guarded{
		size:     size,
		pageSize: pageSize,
		mapped:   make(map[*byte][]byte),
	}
}

// Size returns the usable region size, excluding the guard page.
func (p *Guarded) Size() int { return p.size }

// Allocate maps size+pagesize bytes and revokes access to the lowest page.
func (p *Guarded) Allocate() (fiberruntime.Region, error) {
	total := p.size + p.pageSize
	mem, err := unix.Mmap(-1, 0, total,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return fiberruntime.Region{}, errors.AllocationFailed(errors.PhaseStack, total, err)
	}
	if err := unix.Mprotect(mem[:p.pageSize], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(mem)
		return fiberruntime.Region{}, errors.AllocationFailed(errors.PhaseStack, total, err)
	}

	usable := mem[p.pageSize:]
	p.mu.Lock()
	p.mapped[&usable[0]] = mem
	p.mu.Unlock()

	return fiberruntime.Region{Mem: usable}, nil
}

// Deallocate unmaps the full mapping, guard page included.
func (p *Guarded) Deallocate(r fiberruntime.Region) {
	if len(r.Mem) == 0 {
		return
	}
	p.mu.Lock()
	mem, ok := p.mapped[&r.Mem[0]]
	if ok {
		delete(p.mapped, &r.Mem[0])
	}
	p.mu.Unlock()
	if ok {
		_ = unix.Munmap(mem)
	}
}

// Outstanding returns the number of live mappings.
func (p *Guarded) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.mapped)
}
