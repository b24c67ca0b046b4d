// Package diff suppresses cells whose glyph has not changed since it was
// last emitted.
package diff

import "glyphbridge/internal/codec"

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

// Cache remembers a hash of the last glyph emitted for every cell. Entries
// are never cleared; equal hashes are treated as equal glyphs.
type Cache struct {
	hashes []uint64
	seen   []bool
}

// NewCache creates a cache for the given number of cells.
func NewCache(cells int) *Cache {
	if cells < 0 {
		cells = 0
	}
	return &Cache{
		hashes: make([]uint64, cells),
		seen:   make([]bool, cells),
	}
}

// Len reports the number of cells tracked.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.hashes)
}

// Seen reports whether a glyph has ever been emitted for the cell.
func (c *Cache) Seen(cell int) bool {
	if c == nil || cell < 0 || cell >= len(c.seen) {
		return false
	}
	return c.seen[cell]
}

// Diff records the glyph for a cell and reports whether it differs from the
// previously emitted one. Out of range cells always report a change.
func (c *Cache) Diff(cell int, g codec.Glyph) bool {
	if c == nil || cell < 0 || cell >= len(c.hashes) {
		return true
	}
	h := Hash(g)
	if c.seen[cell] && c.hashes[cell] == h {
		return false
	}
	c.hashes[cell] = h
	c.seen[cell] = true
	return true
}

// Hash combines the colors and character of a glyph with FNV-1a.
func Hash(g codec.Glyph) uint64 {
	h := uint64(fnvOffset)
	for _, v := range [3]uint32{uint32(g.FG), uint32(g.BG), uint32(g.Char)} {
		for shift := 0; shift < 32; shift += 8 {
			h ^= uint64(byte(v >> shift))
			h *= fnvPrime
		}
	}
	return h
}
