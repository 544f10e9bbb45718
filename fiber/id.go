package fiber

import (
	"strconv"
	"sync/atomic"
)

// ID identifies a fiber. IDs are totally ordered and never reused within a
// process. The zero value means "no fiber" and sorts before every real ID.
type ID uint64

var idCounter atomic.Uint64

func nextID() ID {
	return ID(idCounter.Add(1))
}

// IsZero reports whether the ID denotes no fiber.
func (i ID) IsZero() bool { return i == 0 }

// String implements fmt.Stringer.
func (i ID) String() string {
	if i == 0 {
		return "{not-a-fiber}"
	}
	return "fiber-" + strconv.FormatUint(uint64(i), 10)
}
