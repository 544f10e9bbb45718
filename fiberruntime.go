package fiberruntime

// Stack size defaults, in bytes. MinStackSize must leave room for the
// carved control block plus a usable execution stack.
const (
	DefaultStackSize = 64 * 1024
	MinStackSize     = 4 * 1024
)

// Region is a contiguous memory region obtained from a StackProvider.
// Mem[0] is the lowest address; the stack grows downward from the top.
type Region struct {
	Mem []byte
}

// Size returns the total size of the region in bytes.
func (r Region) Size() int { return len(r.Mem) }

// StackProvider supplies raw stack memory and reclaims it on release.
//
// Deallocate is called exactly once per successful Allocate, with the same
// region that Allocate returned, regardless of how much of it the fiber
// consumed for its control block.
type StackProvider interface {
	Allocate() (Region, error)
	Deallocate(Region)
}
