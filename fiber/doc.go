// Package fiber provides the user-facing fiber handle and its in-place
// control block.
//
// A Fiber is a move-only ownership token wrapping a reference-counted
// control block shared with the scheduler. Constructing a non-empty handle
// allocates a stack region, carves the control block into the aligned top
// of that region, and registers the block with the scheduler in one step;
// there is no way to hold a constructed-but-unstarted fiber.
//
// # Stack Carving
//
// One allocation serves both the control block and the execution stack.
// The block is placed at the highest address inside the region where it
// fits with its required alignment; the bytes between the region top and
// that address are consumed, and the remainder is the usable stack:
//
//	+------------------------------- region top
//	| padding (0..align-1 bytes)
//	+------------------------------- aligned block address
//	| control block
//	+------------------------------- usable stack top
//	| execution stack (grows down)
//	+------------------------------- region base
//
// Releasing the last reference returns the entire original region to its
// provider exactly once.
//
// # Lifecycle Contract
//
// Joinable means the handle still owns a control-block reference; a fiber
// that has terminated but was never joined or detached is still joinable.
// Joining or interrupting an empty handle, move-assigning over a joinable
// handle, and dropping a joinable handle are unrecoverable usage errors:
// they go through the package fatal handler, which terminates the process.
// An abandoned running fiber has no well-defined owner to clean it up, so
// none of these conditions surface as returnable errors.
//
// # GC Safety
//
// The control block lives inside memory the collector treats as pointer
// free. newControlBlock is the only code path that reinterprets region
// bytes as a block, and every heap value stored in the block is duplicated
// into the pin object the scheduler's registry holds until the final
// reference drops. The carve arithmetic is verified by tests rather than
// the type system.
package fiber
