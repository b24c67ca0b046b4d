package input

import (
	"sync"
	"time"
)

// Hold is how long a triggered token keeps its buttons pressed.
const Hold = 500 * time.Millisecond

// Holder tracks one release deadline per token. Triggering a token that is
// still held moves its deadline instead of stacking another release. It is
// safe for concurrent use.
type Holder struct {
	mu        sync.Mutex
	hold      time.Duration
	deadlines map[string]hold
}

type hold struct {
	buttons  ButtonSet
	deadline time.Time
}

// NewHolder returns a holder with the given hold duration; zero means Hold.
func NewHolder(d time.Duration) *Holder {
	if d <= 0 {
		d = Hold
	}
	return &Holder{hold: d, deadlines: make(map[string]hold)}
}

// Trigger presses the buttons of a token until now plus the hold duration.
func (h *Holder) Trigger(token string, buttons ButtonSet, now time.Time) {
	if h == nil || buttons.Empty() {
		return
	}
	h.mu.Lock()
	h.deadlines[token] = hold{buttons: buttons, deadline: now.Add(h.hold)}
	h.mu.Unlock()
}

// Held drops expired tokens and returns the union of buttons still pressed.
func (h *Holder) Held(now time.Time) ButtonSet {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	var set ButtonSet
	for token, entry := range h.deadlines {
		if !now.Before(entry.deadline) {
			delete(h.deadlines, token)
			continue
		}
		set |= entry.buttons
	}
	return set
}

// Pending reports how many tokens are currently held.
func (h *Holder) Pending() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.deadlines)
}
