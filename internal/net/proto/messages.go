package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind identifiers for canvas payloads.
const (
	KindWrite = "write"
	KindLink  = "link"
	KindChat  = "chat"
	KindCmd   = "cmd"

	linkTypeURL = "url"

	// ChatLocationPage scopes an announcement to the current page.
	ChatLocationPage = "page"
)

// ErrMalformed reports an inbound payload that is not a usable envelope.
var ErrMalformed = errors.New("proto: malformed message")

// Edit is one canvas character write. It travels as a nine element array:
// [tileRow, tileCol, localRow, localCol, timestampMs, char, editId, fg, bg].
type Edit struct {
	TileRow   int
	TileCol   int
	LocalRow  int
	LocalCol  int
	Timestamp int64
	Char      string
	ID        uint64
	FG        int
	BG        int
}

// MarshalJSON renders the positional array form expected by the canvas.
func (e Edit) MarshalJSON() ([]byte, error) {
	return json.Marshal([9]any{
		e.TileRow,
		e.TileCol,
		e.LocalRow,
		e.LocalCol,
		e.Timestamp,
		e.Char,
		e.ID,
		e.FG,
		e.BG,
	})
}

// UnmarshalJSON parses the positional array form.
func (e *Edit) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("proto: edit: %w", err)
	}
	if len(raw) < 9 {
		return fmt.Errorf("proto: edit: expected 9 fields, got %d", len(raw))
	}
	targets := []any{&e.TileRow, &e.TileCol, &e.LocalRow, &e.LocalCol, &e.Timestamp, &e.Char, &e.ID, &e.FG, &e.BG}
	for i, target := range targets {
		if err := json.Unmarshal(raw[i], target); err != nil {
			return fmt.Errorf("proto: edit field %d: %w", i, err)
		}
	}
	return nil
}

// WriteMessage carries one batch of edits.
type WriteMessage struct {
	Kind  string `json:"kind" jsonschema:"enum=write"`
	Edits []Edit `json:"edits" jsonschema:"description=Positional edit records: tileRow tileCol localRow localCol timestampMs char editId fg bg"`
}

// NewWrite wraps a batch of edits. A nil batch is sent as an empty array.
func NewWrite(edits []Edit) WriteMessage {
	if edits == nil {
		edits = []Edit{}
	}
	return WriteMessage{Kind: KindWrite, Edits: edits}
}

// LinkData addresses the character a link is attached to.
type LinkData struct {
	TileY int    `json:"tileY"`
	TileX int    `json:"tileX"`
	CharY int    `json:"charY"`
	CharX int    `json:"charX"`
	URL   string `json:"url"`
}

// LinkMessage binds a clickable URL to one canvas character.
type LinkMessage struct {
	Kind string   `json:"kind" jsonschema:"enum=link"`
	Type string   `json:"type" jsonschema:"enum=url"`
	Data LinkData `json:"data"`
}

// NewLink builds a url link message for the character at the given address.
func NewLink(tileRow, tileCol, localRow, localCol int, url string) LinkMessage {
	return LinkMessage{
		Kind: KindLink,
		Type: linkTypeURL,
		Data: LinkData{
			TileY: tileRow,
			TileX: tileCol,
			CharY: localRow,
			CharX: localCol,
			URL:   url,
		},
	}
}

// ChatMessage is an outbound chat announcement.
type ChatMessage struct {
	Kind     string `json:"kind" jsonschema:"enum=chat"`
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
	Location string `json:"location" jsonschema:"enum=page,enum=global"`
	Color    string `json:"color" jsonschema:"pattern=^#[0-9a-fA-F]{6}$"`
}

// NewChat builds a page-scoped announcement.
func NewChat(nickname, message, color string) ChatMessage {
	return ChatMessage{
		Kind:     KindChat,
		Nickname: nickname,
		Message:  message,
		Location: ChatLocationPage,
		Color:    color,
	}
}

// inboundEnvelope is the union of the inbound fields the bridge reads.
type inboundEnvelope struct {
	Kind         string          `json:"kind"`
	Message      string          `json:"message"`
	Nickname     string          `json:"nickname"`
	RealUsername string          `json:"realUsername"`
	Data         json.RawMessage `json:"data"`
	Sender       json.RawMessage `json:"sender"`
	Username     string          `json:"username"`
}

// Inbound is a decoded canvas message. Text is the raw command text for chat
// and cmd messages and empty for every other kind.
type Inbound struct {
	Kind   string
	Text   string
	Sender string
}

// HasText reports whether the message can carry a command token.
func (m Inbound) HasText() bool {
	return m.Text != ""
}

// DecodeInbound parses a raw websocket payload. Kinds other than chat and
// cmd decode successfully with no text.
func DecodeInbound(payload []byte) (Inbound, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Kind == "" {
		return Inbound{}, fmt.Errorf("%w: missing kind", ErrMalformed)
	}

	msg := Inbound{Kind: env.Kind}
	switch env.Kind {
	case KindChat:
		msg.Text = env.Message
		msg.Sender = env.Nickname
		if env.RealUsername != "" {
			msg.Sender = env.RealUsername
		}
	case KindCmd:
		text, ok := rawString(env.Data)
		if !ok {
			return Inbound{}, fmt.Errorf("%w: cmd data is not a string", ErrMalformed)
		}
		msg.Text = text
		msg.Sender = env.Username
		if msg.Sender == "" {
			msg.Sender, _ = rawString(env.Sender)
		}
	}
	return msg, nil
}

func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String(), true
		}
		return "", false
	}
	return s, true
}
