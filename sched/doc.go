// Package sched implements the cooperative scheduler that fibers run
// under: a single-threaded round-robin ready queue with join and interrupt
// support.
//
// A Scheduler never runs fibers in parallel with each other or with the
// owning thread. Execution only advances when the owner pumps it:
//
//	s := sched.New()
//	f, _ := fiber.New(s, entry)
//	f.Join()   // pumps dispatches until the fiber terminates
//	s.Run()    // or: drain the ready queue to completion
//
// Dispatching switches execution into a fiber over its control block's
// channel handshake and returns when the fiber parks or terminates, so all
// scheduler state is handoff-protected rather than lock-protected: while a
// fiber runs, the scheduler's thread is blocked in that dispatch.
//
// Joins called from inside a running fiber park the caller on the target's
// waiter list; joins from the owning thread pump dispatches. Waiting on an
// unterminated fiber with an empty ready queue is a guaranteed deadlock and
// aborts, consistent with the fiber lifecycle contract.
package sched
