package fiber

import (
	"fmt"
	"os"
	"sync"
)

// Lifecycle-contract violations terminate the process instead of returning
// an error: an abandoned running fiber leaves no safe continuation, and
// unwinding through a live fiber stack is itself unsafe.

var (
	fatalMu sync.Mutex
	fatalFn func(msg string) = defaultFatal
)

func defaultFatal(msg string) {
	fmt.Fprintln(os.Stderr, "fiber: fatal: "+msg)
	os.Exit(2)
}

// SetFatalHandler replaces the handler invoked on lifecycle-contract
// violations and returns the previous one. The handler must terminate the
// calling goroutine; a handler that returns leaves the violating operation
// as a no-op with the program in an ill-defined state. Intended for
// death-test harnesses, not production overrides.
func SetFatalHandler(fn func(msg string)) func(msg string) {
	fatalMu.Lock()
	defer fatalMu.Unlock()
	prev := fatalFn
	if fn == nil {
		fn = defaultFatal
	}
	fatalFn = fn
	return prev
}

// Fatalf reports an unrecoverable usage error through the fatal handler.
// Exported for scheduler implementations, which share the lifecycle
// contract (self-join, guaranteed deadlock).
func Fatalf(format string, args ...any) {
	fatalMu.Lock()
	fn := fatalFn
	fatalMu.Unlock()
	fn(fmt.Sprintf(format, args...))
}
