package fiber

import (
	"unsafe"
)

const (
	// controlBlockAlign is the alignment required for an in-place control
	// block. A full cache line covers every field's natural alignment,
	// including the 32-bit fields mutated atomically.
	controlBlockAlign = 64

	// minUsableStack is the smallest execution stack worth handing to a
	// fiber after the control block is carved off.
	minUsableStack = 1024
)

var controlBlockSize = unsafe.Sizeof(ControlBlock{})

// carveLayout computes where the control block lands inside a region
// [base, base+size). It returns the aligned block address and the bytes
// consumed between the region top and that address.
//
// The block goes as near the top as possible, since the stack grows down
// from just below it: reserve blockSize bytes from the top, then round the
// candidate address down to the alignment boundary. Consumed is therefore
// in [blockSize, blockSize+align) and must be computed, never assumed equal
// to blockSize.
func carveLayout(base, size uintptr) (sp, consumed uintptr, ok bool) {
	if size < controlBlockSize+controlBlockAlign+minUsableStack {
		return 0, 0, false
	}
	top := base + size
	sp = (top - controlBlockSize) &^ (controlBlockAlign - 1)
	consumed = top - sp
	if sp < base || size-consumed < minUsableStack {
		return 0, 0, false
	}
	return sp, consumed, true
}
