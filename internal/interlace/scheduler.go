// Package interlace alternates which cell rows are sampled on each render
// tick so that every row refreshes on every other tick.
package interlace

// ShouldVisit reports whether a row belongs to the given field.
func ShouldVisit(row, field int) bool {
	return row%2 == field
}

// Scheduler holds the current field. It is not safe for concurrent use; the
// render task is its only caller.
type Scheduler struct {
	field    int
	disabled bool
}

// New returns a scheduler starting on field 0. A disabled scheduler admits
// every row but still alternates its field.
func New(enabled bool) *Scheduler {
	return &Scheduler{disabled: !enabled}
}

// Field returns the current field, 0 or 1.
func (s *Scheduler) Field() int {
	if s == nil {
		return 0
	}
	return s.field
}

// Enabled reports whether rows are being interlaced.
func (s *Scheduler) Enabled() bool {
	return s != nil && !s.disabled
}

// ShouldVisit reports whether a row is sampled in the current field.
func (s *Scheduler) ShouldVisit(row int) bool {
	if s == nil || s.disabled {
		return true
	}
	return ShouldVisit(row, s.field)
}

// Toggle flips the field. Call exactly once per render tick.
func (s *Scheduler) Toggle() {
	if s == nil {
		return
	}
	s.field ^= 1
}
