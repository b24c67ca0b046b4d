package codec

// Bit i of a mask is sample i in raster order:
//
//	0 1
//	2 3
//	4 5
//	6 7
//
// Unicode numbers the same positions octant-1 to octant-8.

const octantBase = 0x1CD00

// blockElements are the masks that already had a character before the
// octant range existed. The octant range skips them.
var blockElements = map[uint8]rune{
	// quadrants and their combinations
	0x05: '▘',
	0x0A: '▝',
	0x50: '▖',
	0xA0: '▗',
	0x0F: '▀',
	0xF0: '▄',
	0x55: '▌',
	0xAA: '▐',
	0xA5: '▚',
	0x5A: '▞',
	0x5F: '▛',
	0xAF: '▜',
	0xF5: '▙',
	0xFA: '▟',

	// whole rows
	0x03: '\U0001FB82',
	0xC0: '▂',
	0x3F: '\U0001FB85',
	0xFC: '▆',

	// middle quarters
	0x14: '\U0001FBE6',
	0x28: '\U0001FBE7',
}

// The empty, full and single corner masks have no glyph.
var unmapped = map[uint8]bool{
	0x00: true,
	0xFF: true,
	0x01: true,
	0x02: true,
	0x40: true,
	0x80: true,
}

// octantTable is indexed by mask; 0 marks a mask with no glyph.
var octantTable = buildOctantTable()

func buildOctantTable() [256]rune {
	var table [256]rune
	next := rune(octantBase)
	for m := 0; m < 256; m++ {
		mask := uint8(m)
		if unmapped[mask] {
			continue
		}
		if r, ok := blockElements[mask]; ok {
			table[m] = r
			continue
		}
		table[m] = next
		next++
	}
	return table
}

// OctantRune returns the glyph drawing the given sample mask in the
// foreground color, or false if the mask has no glyph.
func OctantRune(mask uint8) (rune, bool) {
	r := octantTable[mask]
	return r, r != 0
}

// OctantTableSize is the number of masks with a glyph.
func OctantTableSize() int {
	n := 0
	for _, r := range octantTable {
		if r != 0 {
			n++
		}
	}
	return n
}
