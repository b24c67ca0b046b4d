package proto

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestWriteMessageEncodesPositionalEdits(t *testing.T) {
	msg := NewWrite([]Edit{{
		TileRow:   2,
		TileCol:   8,
		LocalRow:  7,
		LocalCol:  2,
		Timestamp: 1700000000000,
		Char:      "▄",
		ID:        42,
		FG:        0x112233,
		BG:        0xffffff,
	}})

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal write: %v", err)
	}
	want := `{"kind":"write","edits":[[2,8,7,2,1700000000000,"▄",42,1122867,16777215]]}`
	if string(data) != want {
		t.Fatalf("unexpected payload\nwant %s\ngot  %s", want, data)
	}

	var decoded WriteMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal write: %v", err)
	}
	if len(decoded.Edits) != 1 || decoded.Edits[0] != msg.Edits[0] {
		t.Fatalf("expected edit to survive decoding, got %+v", decoded.Edits)
	}
}

func TestNewWriteNeverEncodesNull(t *testing.T) {
	data, err := json.Marshal(NewWrite(nil))
	if err != nil {
		t.Fatalf("marshal write: %v", err)
	}
	if string(data) != `{"kind":"write","edits":[]}` {
		t.Fatalf("expected empty edits array, got %s", data)
	}
}

func TestEditRejectsShortArray(t *testing.T) {
	var e Edit
	if err := json.Unmarshal([]byte(`[1,2,3]`), &e); err == nil {
		t.Fatalf("expected short edit array to fail")
	}
}

func TestLinkAndChatMessages(t *testing.T) {
	data, err := json.Marshal(NewLink(1, 2, 3, 4, "javascript:go()"))
	if err != nil {
		t.Fatalf("marshal link: %v", err)
	}
	want := `{"kind":"link","type":"url","data":{"tileY":1,"tileX":2,"charY":3,"charX":4,"url":"javascript:go()"}}`
	if string(data) != want {
		t.Fatalf("unexpected link payload\nwant %s\ngot  %s", want, data)
	}

	data, err = json.Marshal(NewChat("bridge", "hello", "#00aaff"))
	if err != nil {
		t.Fatalf("marshal chat: %v", err)
	}
	want = `{"kind":"chat","nickname":"bridge","message":"hello","location":"page","color":"#00aaff"}`
	if string(data) != want {
		t.Fatalf("unexpected chat payload\nwant %s\ngot  %s", want, data)
	}
}

func TestDecodeInbound(t *testing.T) {
	t.Run("chat", func(t *testing.T) {
		msg, err := DecodeInbound([]byte(`{"kind":"chat","nickname":"anon","realUsername":"mario","message":" Right+A ","id":12}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Kind != KindChat || msg.Text != " Right+A " || msg.Sender != "mario" {
			t.Fatalf("unexpected chat decode: %+v", msg)
		}
	})

	t.Run("cmd", func(t *testing.T) {
		msg, err := DecodeInbound([]byte(`{"kind":"cmd","data":"left","sender":"abc123"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Kind != KindCmd || msg.Text != "left" || msg.Sender != "abc123" {
			t.Fatalf("unexpected cmd decode: %+v", msg)
		}
		if !msg.HasText() {
			t.Fatalf("expected cmd to carry text")
		}
	})

	t.Run("other kinds carry no text", func(t *testing.T) {
		msg, err := DecodeInbound([]byte(`{"kind":"tileUpdate","tiles":{}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.HasText() {
			t.Fatalf("expected no text for tileUpdate, got %+v", msg)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		for _, payload := range []string{`not json`, `{}`, `{"kind":"cmd","data":{"x":1}}`} {
			if _, err := DecodeInbound([]byte(payload)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed for %s, got %v", payload, err)
			}
		}
	})
}
