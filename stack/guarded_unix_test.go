//go:build unix

package stack

import "testing"

func TestGuarded_AllocateRelease(t *testing.T) {
	p := NewGuarded(16 * 1024)

	r, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if r.Size() != p.Size() {
		t.Fatalf("usable size %d, want %d", r.Size(), p.Size())
	}
	if p.Outstanding() != 1 {
		t.Fatalf("Outstanding() = %d, want 1", p.Outstanding())
	}

	// Region must be writable end to end.
	r.Mem[0] = 1
	r.Mem[len(r.Mem)-1] = 1

	p.Deallocate(r)
	if p.Outstanding() != 0 {
		t.Fatalf("Outstanding() = %d after release, want 0", p.Outstanding())
	}
}

func TestGuarded_SizeRoundsToPage(t *testing.T) {
	p := NewGuarded(5000)
	if p.Size()%p.pageSize != 0 {
		t.Fatalf("Size() = %d, not page aligned", p.Size())
	}
	if p.Size() < 5000 {
		t.Fatalf("Size() = %d, rounded down instead of up", p.Size())
	}
}

func TestGuarded_DoubleDeallocate(t *testing.T) {
	p := NewGuarded(16 * 1024)
	r, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	p.Deallocate(r)
	// Second release of the same region must be ignored, not unmap twice.
	p.Deallocate(r)
	if p.Outstanding() != 0 {
		t.Fatalf("Outstanding() = %d, want 0", p.Outstanding())
	}
}
