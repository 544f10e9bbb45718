package sched

import (
	"strings"
	"testing"

	"github.com/wippyai/fiber-runtime/fiber"
)

// Waiting from the owning thread with nothing left to dispatch can never
// make progress; the scheduler must abort instead of spinning.
func TestWaitUntilTerminated_EmptyQueueIsFatal(t *testing.T) {
	var msgs []string
	prev := fiber.SetFatalHandler(func(msg string) { msgs = append(msgs, msg) })
	defer fiber.SetFatalHandler(prev)

	s := New()
	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	cb := s.ready[s.head]

	// Empty the queue behind the scheduler's back so the target can never
	// be dispatched, then wait on it.
	s.ready = s.ready[:0]
	s.head = 0
	s.WaitUntilTerminated(cb)

	found := false
	for _, m := range msgs {
		if strings.Contains(m, "deadlock") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected deadlock fatal, got %v", msgs)
	}

	// Put the fiber back and let it finish so the stack is reclaimed.
	s.enqueue(cb)
	f.Join()
}
