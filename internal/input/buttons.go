// Package input turns chat and command text into controller presses and
// tracks how long each press is held.
package input

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Button is one controller input.
type Button uint8

const (
	Up Button = iota
	Down
	Left
	Right
	A
	B
	Start
	Select

	buttonCount
)

var buttonNames = [buttonCount]string{
	Up:     "up",
	Down:   "down",
	Left:   "left",
	Right:  "right",
	A:      "a",
	B:      "b",
	Start:  "start",
	Select: "select",
}

func (b Button) String() string {
	if b >= buttonCount {
		return "unknown"
	}
	return buttonNames[b]
}

// Buttons lists every button in declaration order.
func Buttons() []Button {
	out := make([]Button, buttonCount)
	for i := range out {
		out[i] = Button(i)
	}
	return out
}

// ButtonSet is a bitset of buttons.
type ButtonSet uint16

// Set builds a set from the given buttons.
func Set(buttons ...Button) ButtonSet {
	var s ButtonSet
	for _, b := range buttons {
		s = s.With(b)
	}
	return s
}

func (s ButtonSet) With(b Button) ButtonSet {
	if b >= buttonCount {
		return s
	}
	return s | 1<<b
}

func (s ButtonSet) Has(b Button) bool {
	return b < buttonCount && s&(1<<b) != 0
}

func (s ButtonSet) Empty() bool {
	return s == 0
}

// Buttons lists the members of the set in declaration order.
func (s ButtonSet) Buttons() []Button {
	var out []Button
	for b := Button(0); b < buttonCount; b++ {
		if s.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s ButtonSet) String() string {
	names := make([]string, 0, buttonCount)
	for _, b := range s.Buttons() {
		names = append(names, b.String())
	}
	return strings.Join(names, "+")
}

// Action is what a recognized token asks the bridge to do.
type Action uint8

const (
	ActionPress Action = iota
	ActionReload
)

// ReloadToken is the administrative token that reloads the ROM.
const ReloadToken = "reload"

// Command is a parsed token.
type Command struct {
	Token   string
	Action  Action
	Buttons ButtonSet
}

// Normalize trims and lower-cases a raw token.
func Normalize(raw string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(raw))
}

// Parse recognizes a button name, a compound of two distinct buttons joined
// with '+', or the reload action. Anything else reports false.
func Parse(raw string) (Command, bool) {
	token := Normalize(raw)
	if token == "" {
		return Command{}, false
	}
	if token == ReloadToken {
		return Command{Token: token, Action: ActionReload}, true
	}

	first, second, compound := strings.Cut(token, "+")
	if !compound {
		b, ok := lookup(token)
		if !ok {
			return Command{}, false
		}
		return Command{Token: token, Buttons: Set(b)}, true
	}

	a, ok := lookup(first)
	if !ok {
		return Command{}, false
	}
	b, ok := lookup(second)
	if !ok || a == b {
		return Command{}, false
	}
	return Command{Token: token, Buttons: Set(a, b)}, true
}

func lookup(name string) (Button, bool) {
	for b, n := range buttonNames {
		if n == name {
			return Button(b), true
		}
	}
	return 0, false
}
