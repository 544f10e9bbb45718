// Package fiberruntime provides cooperative fibers for Go: independently
// stacked units of execution that are started, suspended and resumed under
// the control of a single-threaded scheduler, and must be explicitly joined
// or detached before their handle is dropped.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	fiberruntime/        Root package with core Region and StackProvider interfaces
//	├── fiber/           Fiber handle, in-place control block, stack carving
//	├── sched/           Cooperative round-robin scheduler and ready queue
//	├── stack/           Stack providers: fixed-size, pooled, mmap-guarded
//	├── registry/        Live-fiber table with lifecycle observers
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Spawn a fiber, let it yield a few times, join it:
//
//	s := sched.New()
//
//	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {
//	    for i := 0; i < 3; i++ {
//	        if err := ctx.Yield(); err != nil {
//	            return // interrupted
//	        }
//	    }
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f.Join()
//
// # Lifecycle Contract
//
// A non-empty handle owns a reference to a running fiber and must be joined
// or detached before it is dropped. Abandoning a joinable handle, joining an
// empty handle, or move-assigning over a joinable handle are programming
// defects with no safe continuation; they abort the process rather than
// returning a recoverable error.
//
// # Memory Model
//
// Each fiber's control block is constructed in place at the aligned top of
// the stack region obtained from a StackProvider, so one allocation serves
// both the metadata and the execution stack. The block is reference counted;
// the last holder (handle or scheduler) to release it returns the entire
// original region to the provider exactly once.
package fiberruntime
