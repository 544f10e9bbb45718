//go:build !unix

package stack

import (
	fiberruntime "github.com/wippyai/fiber-runtime"
	"github.com/wippyai/fiber-runtime/errors"
)

// Guarded is unavailable on this platform; Allocate always fails.
// Use FixedSize or Pooled instead.
type Guarded struct {
	size int
}

// NewGuarded creates a stub provider. Allocate reports Unsupported.
func NewGuarded(size int) *Guarded {
	if size < fiberruntime.MinStackSize {
		size = fiberruntime.MinStackSize
	}
	return &Guarded{size: size}
}

// Size returns the configured region size.
func (p *Guarded) Size() int { return p.size }

// Allocate reports that guard pages are not supported on this platform.
func (p *Guarded) Allocate() (fiberruntime.Region, error) {
	return fiberruntime.Region{}, errors.Unsupported(errors.PhaseStack, "guard-page stacks require a unix platform")
}

// Deallocate is a no-op.
func (p *Guarded) Deallocate(fiberruntime.Region) {}

// Outstanding always returns 0.
func (p *Guarded) Outstanding() int { return 0 }
