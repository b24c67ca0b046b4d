// Package editid hands out the per-edit identifiers the canvas protocol
// requires.
package editid

import (
	"math/rand"
	"sync/atomic"
)

const seedLimit = 1 << 31

// Allocator returns monotonically increasing identifiers. It is safe for
// concurrent use.
type Allocator struct {
	last atomic.Uint64
}

// New returns an allocator whose first identifier is start.
func New(start uint64) *Allocator {
	a := &Allocator{}
	if start == 0 {
		start = 1
	}
	a.last.Store(start - 1)
	return a
}

// NewSeeded starts at a random point so that a restarted process reusing the
// same canvas session is unlikely to repeat identifiers.
func NewSeeded() *Allocator {
	return New(1 + uint64(rand.Int63n(seedLimit-1)))
}

// Next returns the next identifier.
func (a *Allocator) Next() uint64 {
	return a.last.Add(1)
}

// Last returns the most recently issued identifier.
func (a *Allocator) Last() uint64 {
	return a.last.Load()
}
