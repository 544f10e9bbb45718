package fiber

import (
	"github.com/wippyai/fiber-runtime/errors"
)

// Context is the running fiber's view of itself, passed to the entry
// function on first dispatch. It is only valid on the fiber's own
// execution; do not retain it past the entry function's return.
type Context struct {
	cb *ControlBlock
}

// ID returns the running fiber's identity.
func (c *Context) ID() ID { return c.cb.ID() }

// Interrupted reports whether cooperative cancellation has been requested.
// Checking it is itself not a suspension point.
func (c *Context) Interrupted() bool { return c.cb.InterruptRequested() }

// Yield gives up the processor and re-enters the ready queue. It is a
// suspension point: a pending interrupt request is reported both before
// switching out and after being resumed.
func (c *Context) Yield() error {
	cb := c.cb
	if cb.InterruptRequested() {
		return errors.Interrupted(cb.id)
	}
	cb.reschedule(cb)
	cb.Park()
	if cb.InterruptRequested() {
		return errors.Interrupted(cb.id)
	}
	return nil
}

// Properties returns the fiber's user-defined property object, or nil when
// none was installed.
func (c *Context) Properties() any { return c.cb.Properties() }
