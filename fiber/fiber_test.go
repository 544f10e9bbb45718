package fiber_test

import (
	stderrors "errors"
	"runtime"
	"strings"
	"testing"
	"time"

	fiberruntime "github.com/wippyai/fiber-runtime"
	"github.com/wippyai/fiber-runtime/errors"
	"github.com/wippyai/fiber-runtime/fiber"
	"github.com/wippyai/fiber-runtime/sched"
	"github.com/wippyai/fiber-runtime/stack"
)

// captureFatals redirects lifecycle violations into a record for the
// duration of a test. The violating operation then degrades to a no-op,
// which is safe for every case exercised here.
func captureFatals(t *testing.T) *[]string {
	t.Helper()
	var msgs []string
	prev := fiber.SetFatalHandler(func(msg string) {
		msgs = append(msgs, msg)
	})
	t.Cleanup(func() { fiber.SetFatalHandler(prev) })
	return &msgs
}

func TestJoin_RunsEntryExactlyOnce(t *testing.T) {
	s := sched.New()

	counter := 0
	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {
		counter++
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !f.Joinable() {
		t.Fatal("fresh handle must be joinable")
	}
	f.Join()
	if counter != 1 {
		t.Fatalf("entry ran %d times, want 1", counter)
	}
	if f.Joinable() {
		t.Fatal("joined handle must be empty")
	}
}

func TestNew_AppliesCapturedArgs(t *testing.T) {
	s := sched.New()

	var got []any
	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {
		got = append(got, args...)
	}, "a", 42)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.Join()

	if len(got) != 2 || got[0] != "a" || got[1] != 42 {
		t.Fatalf("entry saw args %v, want [a 42]", got)
	}
}

func TestMove_TransfersIdentity(t *testing.T) {
	s := sched.New()

	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	id := f.ID()

	g := f.Move()
	if f.Joinable() {
		t.Fatal("moved-from handle must be empty")
	}
	if f.ID() != 0 {
		t.Fatal("moved-from handle must report the zero ID")
	}
	if g.ID() != id {
		t.Fatalf("destination ID = %v, want %v", g.ID(), id)
	}
	g.Join()
}

func TestMoveFrom_EmptyTarget(t *testing.T) {
	s := sched.New()

	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	id := f.ID()

	g := &fiber.Fiber{}
	g.MoveFrom(f)
	if f.Joinable() || g.ID() != id {
		t.Fatal("MoveFrom did not transfer ownership")
	}
	g.Join()
}

func TestMoveFrom_OverJoinableIsFatal(t *testing.T) {
	msgs := captureFatals(t)
	s := sched.New()

	f, _ := fiber.New(s, func(ctx *fiber.Context, args ...any) {})
	g, _ := fiber.New(s, func(ctx *fiber.Context, args ...any) {})

	g.MoveFrom(f)
	if len(*msgs) != 1 || !strings.Contains((*msgs)[0], "move onto a joinable") {
		t.Fatalf("expected move-over-joinable fatal, got %v", *msgs)
	}
	// Ownership must be untouched after the violation.
	if !f.Joinable() || !g.Joinable() {
		t.Fatal("handles mutated by rejected move")
	}

	f.Join()
	g.Join()
}

func TestSwap(t *testing.T) {
	s := sched.New()

	f, _ := fiber.New(s, func(ctx *fiber.Context, args ...any) {})
	idF := f.ID()
	g := &fiber.Fiber{}

	fiber.Swap(f, g)
	if f.Joinable() {
		t.Fatal("swap left source non-empty")
	}
	if g.ID() != idF {
		t.Fatal("swap did not transfer the fiber")
	}

	if !fiber.Less(f, g) {
		t.Fatal("empty handle must order before a real one")
	}
	g.Join()
}

func TestAlive_VersusJoinable(t *testing.T) {
	s := sched.New()

	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !f.Alive() {
		t.Fatal("started fiber must be alive")
	}

	s.Run()

	// Terminated but not joined: no longer alive, still joinable. Joinable
	// only flips on join/detach, never on termination alone.
	if f.Alive() {
		t.Fatal("terminated fiber must not be alive")
	}
	if !f.Joinable() {
		t.Fatal("terminated-but-unjoined handle must stay joinable")
	}

	f.Join() // must return immediately, the fiber already terminated
	if f.Joinable() {
		t.Fatal("joined handle must be empty")
	}
}

func TestJoin_EmptyHandleIsFatal(t *testing.T) {
	msgs := captureFatals(t)

	f := &fiber.Fiber{}
	f.Join()
	f.Interrupt()
	f.Detach()

	if len(*msgs) != 3 {
		t.Fatalf("expected 3 fatals, got %v", *msgs)
	}
	for i, want := range []string{"join", "interrupt", "detach"} {
		if !strings.Contains((*msgs)[i], want) {
			t.Errorf("fatal %d = %q, want mention of %q", i, (*msgs)[i], want)
		}
	}
}

func TestDetach_SchedulerFreesStackOnce(t *testing.T) {
	s := sched.New()
	provider := stack.NewFixedSize(32 * 1024)

	ran := false
	f, err := fiber.NewWithStack(s, provider, func(ctx *fiber.Context, args ...any) {
		_ = ctx.Yield()
		ran = true
	})
	if err != nil {
		t.Fatalf("NewWithStack failed: %v", err)
	}

	f.Detach()
	if f.Joinable() {
		t.Fatal("detached handle must be empty")
	}

	s.Run()
	if !ran {
		t.Fatal("detached fiber never ran to completion")
	}
	if n := provider.Outstanding(); n != 0 {
		t.Fatalf("outstanding regions = %d after completion, want 0 (double free if negative)", n)
	}
}

func TestJoin_FreesStackOnce(t *testing.T) {
	s := sched.New()
	provider := stack.NewFixedSize(32 * 1024)

	f, err := fiber.NewWithStack(s, provider, func(ctx *fiber.Context, args ...any) {})
	if err != nil {
		t.Fatalf("NewWithStack failed: %v", err)
	}
	f.Join()

	if n := provider.Outstanding(); n != 0 {
		t.Fatalf("outstanding regions = %d after join, want 0", n)
	}
}

func TestNew_AllocationFailure(t *testing.T) {
	s := sched.New()
	cause := stderrors.New("region exhausted")

	f, err := fiber.NewWithStack(s, stack.NewFailing(cause), func(ctx *fiber.Context, args ...any) {})
	if err == nil {
		t.Fatal("expected allocation failure")
	}
	if f != nil {
		t.Fatal("no handle may exist after a failed creation")
	}
	if !stderrors.Is(err, cause) {
		t.Fatal("provider cause lost")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindAllocation {
		t.Fatalf("expected allocation kind, got %v", err)
	}
	if s.Stats().Live != 0 {
		t.Fatal("failed creation leaked scheduler state")
	}
}

type tinyProvider struct{}

func (tinyProvider) Allocate() (fiberruntime.Region, error) {
	return fiberruntime.Region{Mem: make([]byte, 512)}, nil
}
func (tinyProvider) Deallocate(fiberruntime.Region) {}

func TestNew_RegionTooSmall(t *testing.T) {
	s := sched.New()

	_, err := fiber.NewWithStack(s, tinyProvider{}, func(ctx *fiber.Context, args ...any) {})
	if err == nil {
		t.Fatal("expected carve failure")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindStackLayout {
		t.Fatalf("expected stack_layout error, got %v", err)
	}
}

func TestInterrupt_ObservedAtYield(t *testing.T) {
	s := sched.New()

	var observed error
	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {
		for {
			if err := ctx.Yield(); err != nil {
				observed = err
				return
			}
		}
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s.Step() // let the fiber reach its first yield
	f.Interrupt()
	if !f.Joinable() {
		t.Fatal("interrupt must not change handle state")
	}
	f.Join()

	if observed == nil {
		t.Fatal("fiber never observed the interrupt")
	}
	if !stderrors.Is(observed, errors.ErrInterrupted) {
		t.Fatalf("observed %v, want interruption", observed)
	}
}

func TestInterrupt_NeverCheckedNeverStops(t *testing.T) {
	s := sched.New()

	done := false
	f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {
		done = true // no suspension point, runs to completion regardless
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.Interrupt()
	f.Join()
	if !done {
		t.Fatal("interrupt preempted a fiber without suspension points")
	}
}

type connProps struct {
	Name string
}

func TestProperties_Typed(t *testing.T) {
	s := sched.New()

	props := &connProps{Name: "worker"}
	f, err := fiber.NewWithOptions(s, fiber.Options{Properties: props}, func(ctx *fiber.Context, args ...any) {
		if p, ok := ctx.Properties().(*connProps); !ok || p.Name != "worker" {
			t.Error("entry saw wrong properties")
		}
	})
	if err != nil {
		t.Fatalf("NewWithOptions failed: %v", err)
	}

	if got := fiber.Properties[*connProps](f); got != props {
		t.Fatal("Properties returned a different object")
	}
	f.Join()
}

func TestProperties_WrongTypeIsFatal(t *testing.T) {
	msgs := captureFatals(t)
	s := sched.New()

	f, _ := fiber.NewWithOptions(s, fiber.Options{Properties: &connProps{}}, func(ctx *fiber.Context, args ...any) {})

	_ = fiber.Properties[*testing.T](f)
	if len(*msgs) != 1 || !strings.Contains((*msgs)[0], "properties") {
		t.Fatalf("expected property type fatal, got %v", *msgs)
	}
	f.Join()
}

func TestProperties_MissingIsFatal(t *testing.T) {
	msgs := captureFatals(t)
	s := sched.New()

	f, _ := fiber.New(s, func(ctx *fiber.Context, args ...any) {})

	_ = fiber.Properties[*connProps](f)
	if len(*msgs) != 1 || !strings.Contains((*msgs)[0], "not set") {
		t.Fatalf("expected missing-properties fatal, got %v", *msgs)
	}
	f.Join()
}

func TestDroppedJoinableHandleIsFatal(t *testing.T) {
	fatals := make(chan string, 1)
	prev := fiber.SetFatalHandler(func(msg string) {
		select {
		case fatals <- msg:
		default:
		}
	})
	defer fiber.SetFatalHandler(prev)

	s := sched.New()
	func() {
		f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		_ = f // dropped joinable: neither joined nor detached
	}()

	deadline := time.After(5 * time.Second)
	for {
		runtime.GC()
		select {
		case msg := <-fatals:
			if !strings.Contains(msg, "abandoned") {
				t.Fatalf("unexpected fatal: %q", msg)
			}
			s.Run() // let the orphan finish so the test leaves no live fiber
			return
		case <-deadline:
			t.Fatal("dropping a joinable handle did not trigger the fatal handler")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestDroppedEmptyHandleIsQuiet(t *testing.T) {
	msgs := captureFatals(t)
	s := sched.New()

	func() {
		f, err := fiber.New(s, func(ctx *fiber.Context, args ...any) {})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		f.Join()
	}()

	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	if len(*msgs) != 0 {
		t.Fatalf("empty handle drop triggered fatals: %v", *msgs)
	}
}
