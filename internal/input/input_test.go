package input

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		ok      bool
		action  Action
		buttons ButtonSet
	}{
		{raw: "up", ok: true, buttons: Set(Up)},
		{raw: "  Start ", ok: true, buttons: Set(Start)},
		{raw: "SELECT", ok: true, buttons: Set(Select)},
		{raw: "Right+A", ok: true, buttons: Set(Right, A)},
		{raw: "b+left", ok: true, buttons: Set(Left, B)},
		{raw: "a+a", ok: false},
		{raw: "a+b+up", ok: false},
		{raw: "jump", ok: false},
		{raw: "", ok: false},
		{raw: "Reload", ok: true, action: ActionReload},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			cmd, ok := Parse(tc.raw)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (%+v)", tc.ok, ok, cmd)
			}
			if !ok {
				return
			}
			if cmd.Action != tc.action {
				t.Fatalf("expected action %d, got %d", tc.action, cmd.Action)
			}
			if cmd.Buttons != tc.buttons {
				t.Fatalf("expected buttons %s, got %s", tc.buttons, cmd.Buttons)
			}
		})
	}
}

func TestButtonSetString(t *testing.T) {
	if got := Set(A, Right).String(); got != "right+a" {
		t.Fatalf("expected right+a, got %q", got)
	}
	if !Set().Empty() {
		t.Fatalf("expected empty set")
	}
}

func TestCompoundPressReleasesTogether(t *testing.T) {
	h := NewHolder(0)
	start := time.Unix(1000, 0)
	cmd, ok := Parse("right+a")
	if !ok {
		t.Fatalf("expected right+a to parse")
	}
	h.Trigger(cmd.Token, cmd.Buttons, start)

	held := h.Held(start.Add(100 * time.Millisecond))
	if !held.Has(Right) || !held.Has(A) {
		t.Fatalf("expected right and a held together, got %s", held)
	}
	if held := h.Held(start.Add(499 * time.Millisecond)); held != Set(Right, A) {
		t.Fatalf("expected both still held at 499ms, got %s", held)
	}
	if held := h.Held(start.Add(500 * time.Millisecond)); !held.Empty() {
		t.Fatalf("expected both released at 500ms, got %s", held)
	}
	if h.Pending() != 0 {
		t.Fatalf("expected expired token to be dropped, got %d pending", h.Pending())
	}
}

func TestRetriggerReplacesDeadline(t *testing.T) {
	h := NewHolder(Hold)
	start := time.Unix(0, 0)
	h.Trigger("right+a", Set(Right, A), start)
	h.Trigger("right+a", Set(Right, A), start.Add(300*time.Millisecond))

	if h.Pending() != 1 {
		t.Fatalf("expected a single deadline per token, got %d", h.Pending())
	}
	if held := h.Held(start.Add(600 * time.Millisecond)); held != Set(Right, A) {
		t.Fatalf("expected re-trigger to extend the hold, got %s", held)
	}
	if held := h.Held(start.Add(800 * time.Millisecond)); !held.Empty() {
		t.Fatalf("expected release 500ms after the last trigger, got %s", held)
	}
}

func TestOverlappingTokensUnion(t *testing.T) {
	h := NewHolder(Hold)
	start := time.Unix(0, 0)
	h.Trigger("left", Set(Left), start)
	h.Trigger("a", Set(A), start.Add(400*time.Millisecond))

	if held := h.Held(start.Add(450 * time.Millisecond)); held != Set(Left, A) {
		t.Fatalf("expected left and a, got %s", held)
	}
	if held := h.Held(start.Add(600 * time.Millisecond)); held != Set(A) {
		t.Fatalf("expected only a after left expires, got %s", held)
	}
}

func TestNilHolder(t *testing.T) {
	var h *Holder
	h.Trigger("a", Set(A), time.Now())
	if !h.Held(time.Now()).Empty() {
		t.Fatalf("expected nil holder to hold nothing")
	}
}
