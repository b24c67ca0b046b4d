package controller

import (
	"testing"
	"time"

	"glyphbridge/internal/editid"
	"glyphbridge/internal/input"
)

func TestLayoutCells(t *testing.T) {
	layout := Layout{
		OriginRow: 9,
		OriginCol: 14,
		Labels:    []Label{{Text: "[A]", Token: "a"}, {Text: "[B]", Token: "b"}},
	}
	cells := layout.Cells()
	if len(cells) != 6 {
		t.Fatalf("expected 6 label cells, got %d", len(cells))
	}
	if layout.Width() != 7 {
		t.Fatalf("expected width 7, got %d", layout.Width())
	}

	first := cells[0]
	if first.Coord.TileRow != 1 || first.Coord.LocalRow != 1 || first.Coord.TileCol != 0 || first.Coord.LocalCol != 14 {
		t.Fatalf("unexpected first cell address %+v", first.Coord)
	}
	// Third character of [A] is column 16, which starts the next tile.
	if c := cells[2].Coord; c.TileCol != 1 || c.LocalCol != 0 || cells[2].Char != "]" {
		t.Fatalf("expected tile wrap at column 16, got %+v %q", c, cells[2].Char)
	}
	// [B] starts after one blank column.
	if _, col := cells[3].Coord.Cell(); col != 18 || cells[3].Token != "b" {
		t.Fatalf("expected [B] at column 18, got %d (%s)", col, cells[3].Token)
	}
}

func TestLayoutEditsAndLinks(t *testing.T) {
	layout := Layout{Labels: []Label{{Text: "[>+A]", Token: "right+a"}}, FG: 0xffffff}
	edits := layout.Edits(time.UnixMilli(1234), editid.New(10))
	if len(edits) != 5 {
		t.Fatalf("expected 5 edits, got %d", len(edits))
	}
	if edits[0].ID != 10 || edits[4].ID != 14 {
		t.Fatalf("expected ids 10..14, got %d..%d", edits[0].ID, edits[4].ID)
	}
	if edits[1].Char != ">" || edits[1].Timestamp != 1234 || edits[1].FG != 0xffffff {
		t.Fatalf("unexpected edit %+v", edits[1])
	}

	links := layout.Links()
	if len(links) != 5 {
		t.Fatalf("expected one link per character, got %d", len(links))
	}
	want := `javascript:w.broadcastCommand("right+a")`
	if links[3].Data.URL != want || links[3].Data.CharX != 3 {
		t.Fatalf("unexpected link %+v", links[3])
	}
}

func TestDefaultLabelsParse(t *testing.T) {
	for _, label := range DefaultLabels {
		if _, ok := input.Parse(label.Token); !ok {
			t.Fatalf("expected label token %q to be a valid command", label.Token)
		}
	}
}

func TestURLTemplate(t *testing.T) {
	if got := (Layout{URLTemplate: "https://example.test/?cmd=%s"}).URL("a"); got != "https://example.test/?cmd=a" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := (Layout{URLTemplate: "https://example.test/"}).URL("a"); got != "https://example.test/" {
		t.Fatalf("expected template without verb to be used as is, got %q", got)
	}
}
