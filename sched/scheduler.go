package sched

import (
	"go.uber.org/zap"

	"github.com/wippyai/fiber-runtime/fiber"
	"github.com/wippyai/fiber-runtime/registry"
)

// Scheduler is a single-threaded cooperative run queue. It implements
// fiber.Scheduler.
//
// All methods must be called from the owning thread or from a fiber the
// scheduler itself is running; the dispatch handshake guarantees the two
// never execute scheduler code concurrently.
type Scheduler struct {
	table      *registry.Table
	ready      []*fiber.ControlBlock
	head       int
	waiters    map[fiber.ID][]*fiber.ControlBlock
	current    *fiber.ControlBlock
	log        *zap.Logger
	dispatches uint64
}

// Stats is a point-in-time snapshot of scheduler state.
type Stats struct {
	Ready      int    // fibers eligible to run
	Live       int    // started, not yet released fibers
	Dispatches uint64 // total dispatches since creation
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		table:   registry.NewTable(),
		waiters: make(map[fiber.ID][]*fiber.ControlBlock),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the live-fiber table, for observers and diagnostics.
func (s *Scheduler) Table() *registry.Table { return s.table }

// Stats returns a snapshot of scheduler state.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ready:      len(s.ready) - s.head,
		Live:       s.table.Len(),
		Dispatches: s.dispatches,
	}
}

// Running returns the identity of the currently dispatched fiber, or the
// zero ID when control is with the owning thread.
func (s *Scheduler) Running() fiber.ID {
	if s.current == nil {
		return 0
	}
	return s.current.ID()
}

// RegisterReady accepts a freshly created control block: takes the
// scheduler's reference, pins the block in the table, launches its backing
// goroutine and enqueues it. Part of fiber construction; a block is
// registered exactly once.
func (s *Scheduler) RegisterReady(cb *fiber.ControlBlock) {
	cb.Acquire()
	cb.Bind(s, s.enqueue, s.onFinal)
	s.table.Insert(uint64(cb.ID()), cb.Pin())
	cb.Launch()
	s.enqueue(cb)

	s.log.Debug("fiber registered",
		zap.Stringer("id", cb.ID()),
		zap.Int("stack_bytes", cb.StackSize()))
}

// WaitUntilTerminated blocks until the block's termination flag is set.
//
// From the owning thread it pumps dispatches; waiting with an empty ready
// queue is a guaranteed deadlock and aborts. From inside a running fiber
// it parks the caller on the target's waiter list and switches out.
// Returns immediately if the fiber already terminated. The termination
// flag transition happens-before this returns.
func (s *Scheduler) WaitUntilTerminated(cb *fiber.ControlBlock) {
	if s.current == cb {
		fiber.Fatalf("%s joining itself", cb.ID())
		return
	}

	if w := s.current; w != nil {
		for !cb.Terminated() {
			id := cb.ID()
			s.waiters[id] = append(s.waiters[id], w)
			w.Park()
		}
		return
	}

	for !cb.Terminated() {
		if !s.Step() {
			fiber.Fatalf("deadlock: waiting on %s with an empty ready queue", cb.ID())
			return
		}
	}
}

// RequestInterrupt marks the cooperative cancellation flag on the block.
// It never suspends and never preempts; the fiber observes the request at
// its next suspension point.
func (s *Scheduler) RequestInterrupt(cb *fiber.ControlBlock) {
	cb.RequestInterrupt()
	s.log.Debug("interrupt requested", zap.Stringer("id", cb.ID()))
}

// Step dispatches the next ready fiber. It returns false when the ready
// queue is empty.
func (s *Scheduler) Step() bool {
	cb := s.dequeue()
	if cb == nil {
		return false
	}
	s.dispatch(cb)
	return true
}

// Run drains the ready queue: fibers run round-robin until none is ready.
// Fibers parked waiting on unterminated fibers stay parked.
func (s *Scheduler) Run() {
	for s.Step() {
	}
}

func (s *Scheduler) dispatch(cb *fiber.ControlBlock) {
	s.current = cb
	s.dispatches++
	cb.Dispatch()
	s.current = nil

	if cb.Terminated() {
		s.finish(cb)
	}
}

// finish runs once per fiber, on the dispatch that observed termination:
// wake joiners, mark the table, drop the scheduler's reference.
func (s *Scheduler) finish(cb *fiber.ControlBlock) {
	id := cb.ID()
	s.table.MarkTerminated(uint64(id))

	if ws := s.waiters[id]; len(ws) > 0 {
		for _, w := range ws {
			s.enqueue(w)
		}
		delete(s.waiters, id)
	}

	s.log.Debug("fiber terminated", zap.Stringer("id", id))
	cb.Release()
}

func (s *Scheduler) enqueue(cb *fiber.ControlBlock) {
	s.ready = append(s.ready, cb)
}

func (s *Scheduler) dequeue() *fiber.ControlBlock {
	if s.head >= len(s.ready) {
		return nil
	}
	cb := s.ready[s.head]
	s.ready[s.head] = nil
	s.head++
	if s.head == len(s.ready) {
		s.ready = s.ready[:0]
		s.head = 0
	}
	return cb
}

// onFinal removes a fiber's table entry when its last reference drops,
// releasing the GC pin. Installed on every block via Bind.
func (s *Scheduler) onFinal(cb *fiber.ControlBlock) {
	s.table.Remove(uint64(cb.ID()))
}
