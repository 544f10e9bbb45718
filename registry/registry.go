package registry

import (
	"sync"
)

// EventType identifies a fiber lifecycle transition.
type EventType uint8

const (
	EventStarted EventType = iota
	EventTerminated
	EventReleased
)

// Event describes one fiber lifecycle transition.
type Event struct {
	Pin  any
	ID   uint64
	Type EventType
}

// Observer receives notifications about fiber lifecycle events.
type Observer interface {
	OnFiberEvent(Event)
}

type entry struct {
	pin        any
	terminated bool
}

// Table is the live-fiber table. All mutation funnels through the scheduler
// that owns it; reads may come from observers on the same thread.
type Table struct {
	entries   map[uint64]entry
	observers []Observer
	mu        sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[uint64]entry, 16),
	}
}

// Insert records a started fiber and the pin keeping its heap referents live.
// Returns false if the table is closed or the id is already present.
func (t *Table) Insert(id uint64, pin any) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	if _, dup := t.entries[id]; dup {
		t.mu.Unlock()
		return false
	}
	t.entries[id] = entry{pin: pin}
	t.mu.Unlock()

	t.notify(Event{Type: EventStarted, ID: id, Pin: pin})
	return true
}

// Get returns the pin for a live fiber.
func (t *Table) Get(id uint64) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	return e.pin, true
}

// Terminated reports whether a live fiber has been marked terminated.
func (t *Table) Terminated(id uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	return ok && e.terminated
}

// MarkTerminated flags a fiber as finished. The entry stays in the table
// until Remove; a terminated-but-unjoined fiber is still live state.
// The flag is monotone, repeated calls notify once.
func (t *Table) MarkTerminated(id uint64) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || e.terminated {
		t.mu.Unlock()
		return false
	}
	e.terminated = true
	t.entries[id] = e
	t.mu.Unlock()

	t.notify(Event{Type: EventTerminated, ID: id, Pin: e.pin})
	return true
}

// Remove drops a fiber's entry, releasing its pin.
func (t *Table) Remove(id uint64) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, id)
	t.mu.Unlock()

	t.notify(Event{Type: EventReleased, ID: id, Pin: e.pin})
	return true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live fibers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Each iterates over live fibers. The callback must not mutate the table.
func (t *Table) Each(fn func(id uint64, terminated bool) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for id, e := range t.entries {
		if !fn(id, e.terminated) {
			break
		}
	}
}

// Close empties the table and stops accepting inserts.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.entries = make(map[uint64]entry)
	t.mu.Unlock()
	return nil
}

func (t *Table) notify(e Event) {
	t.mu.RLock()
	obs := make([]Observer, len(t.observers))
	copy(obs, t.observers)
	t.mu.RUnlock()
	for _, o := range obs {
		o.OnFiberEvent(e)
	}
}
