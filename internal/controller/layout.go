// Package controller draws a row of clickable button labels on the canvas.
// Each label character links to a script that broadcasts the button's
// command token back to the bridge.
package controller

import (
	"fmt"
	"strings"
	"time"

	"glyphbridge/internal/editid"
	"glyphbridge/internal/grid"
	"glyphbridge/internal/net/proto"
)

// DefaultURLTemplate is formatted with the command token.
const DefaultURLTemplate = `javascript:w.broadcastCommand("%s")`

// Label is one on-canvas button.
type Label struct {
	Text  string
	Token string
}

// DefaultLabels covers every button plus one compound press.
var DefaultLabels = []Label{
	{Text: "[^]", Token: "up"},
	{Text: "[v]", Token: "down"},
	{Text: "[<]", Token: "left"},
	{Text: "[>]", Token: "right"},
	{Text: "[A]", Token: "a"},
	{Text: "[B]", Token: "b"},
	{Text: "[START]", Token: "start"},
	{Text: "[SELECT]", Token: "select"},
	{Text: "[>+A]", Token: "right+a"},
}

// Layout places labels left to right from an absolute canvas cell, one
// blank cell apart.
type Layout struct {
	OriginRow   int
	OriginCol   int
	Labels      []Label
	URLTemplate string
	FG          int
	BG          int
}

// Cell is one character of a placed label.
type Cell struct {
	Coord grid.Coord
	Char  string
	Token string
}

// Cells lists every label character with its canvas address.
func (l Layout) Cells() []Cell {
	labels := l.Labels
	if labels == nil {
		labels = DefaultLabels
	}
	var cells []Cell
	col := l.OriginCol
	for _, label := range labels {
		for _, r := range label.Text {
			cells = append(cells, Cell{
				Coord: grid.Map(l.OriginRow, col),
				Char:  string(r),
				Token: label.Token,
			})
			col++
		}
		col++
	}
	return cells
}

// Width is the number of canvas columns the layout spans.
func (l Layout) Width() int {
	labels := l.Labels
	if labels == nil {
		labels = DefaultLabels
	}
	width := 0
	for i, label := range labels {
		if i > 0 {
			width++
		}
		width += len([]rune(label.Text))
	}
	return width
}

// Edits draws the labels.
func (l Layout) Edits(now time.Time, ids *editid.Allocator) []proto.Edit {
	cells := l.Cells()
	edits := make([]proto.Edit, 0, len(cells))
	stamp := now.UnixMilli()
	for _, c := range cells {
		edits = append(edits, proto.Edit{
			TileRow:   c.Coord.TileRow,
			TileCol:   c.Coord.TileCol,
			LocalRow:  c.Coord.LocalRow,
			LocalCol:  c.Coord.LocalCol,
			Timestamp: stamp,
			Char:      c.Char,
			ID:        ids.Next(),
			FG:        l.FG,
			BG:        l.BG,
		})
	}
	return edits
}

// Links attaches the command URL to every label character.
func (l Layout) Links() []proto.LinkMessage {
	cells := l.Cells()
	links := make([]proto.LinkMessage, 0, len(cells))
	for _, c := range cells {
		links = append(links, proto.NewLink(c.Coord.TileRow, c.Coord.TileCol, c.Coord.LocalRow, c.Coord.LocalCol, l.URL(c.Token)))
	}
	return links
}

// URL formats the link target for a token.
func (l Layout) URL(token string) string {
	tmpl := l.URLTemplate
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, token)
}
