package stack

import (
	"errors"
	"testing"

	fiberruntime "github.com/wippyai/fiber-runtime"
	fibererrors "github.com/wippyai/fiber-runtime/errors"
)

func TestFixedSize_Basic(t *testing.T) {
	p := NewFixedSize(16 * 1024)

	r, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if r.Size() != 16*1024 {
		t.Fatalf("Size() = %d, want %d", r.Size(), 16*1024)
	}
	if p.Outstanding() != 1 {
		t.Fatalf("Outstanding() = %d, want 1", p.Outstanding())
	}

	p.Deallocate(r)
	if p.Outstanding() != 0 {
		t.Fatalf("Outstanding() = %d after release, want 0", p.Outstanding())
	}
}

func TestFixedSize_MinSizeClamp(t *testing.T) {
	p := NewFixedSize(16)
	if p.Size() != fiberruntime.MinStackSize {
		t.Fatalf("Size() = %d, want clamp to %d", p.Size(), fiberruntime.MinStackSize)
	}
}

func TestFixedSize_DeallocateNil(t *testing.T) {
	p := NewFixedSize(4096)
	p.Deallocate(fiberruntime.Region{})
	if p.Outstanding() != 0 {
		t.Fatal("empty region release should not change accounting")
	}
}

func TestFailing_Allocate(t *testing.T) {
	cause := errors.New("no memory")
	p := NewFailing(cause)

	_, err := p.Allocate()
	if err == nil {
		t.Fatal("expected allocation failure")
	}
	if !errors.Is(err, &fibererrors.Error{Phase: fibererrors.PhaseStack, Kind: fibererrors.KindAllocation}) {
		t.Fatalf("expected allocation error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not preserved")
	}
}

func TestPooled_Recycles(t *testing.T) {
	p := NewPooled(8 * 1024)

	r, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(r.Mem) != p.Size() {
		t.Fatalf("region size %d, want %d", len(r.Mem), p.Size())
	}

	// Dirty the region, release it, and check the next allocation is zeroed.
	for i := range r.Mem {
		r.Mem[i] = 0xAB
	}
	p.Deallocate(r)

	r2, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	for i, b := range r2.Mem {
		if b != 0 {
			t.Fatalf("recycled region not zeroed at offset %d", i)
		}
	}
}

func TestPooled_RejectsForeignRegion(t *testing.T) {
	p := NewPooled(8 * 1024)
	// Wrong size: must be dropped, not pooled.
	p.Deallocate(fiberruntime.Region{Mem: make([]byte, 123)})

	r, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(r.Mem) != p.Size() {
		t.Fatalf("foreign region leaked into pool: size %d", len(r.Mem))
	}
}
