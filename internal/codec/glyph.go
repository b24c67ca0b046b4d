package codec

import "fmt"

const (
	// LowerHalfBlock is the fixed glyph of the half-block policy.
	LowerHalfBlock = '▄'
	// Blank is the fallback glyph for masks outside the octant table.
	Blank = ' '
)

// Glyph is one destination character with its two colors. Mask is the
// octant sample mask that selected Char, zero for the half-block policy.
type Glyph struct {
	Char rune
	FG   Color
	BG   Color
	Mask uint8
}

// Policy reduces a block of source pixels to a single glyph.
type Policy interface {
	Name() string
	CellSize() (width, height int)
	Sample(f *Frame, order ChannelOrder, cellRow, cellCol int) Glyph
}

// PolicyByName resolves a configured policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "halfblock", "half-block":
		return HalfBlock{}, nil
	case "octant":
		return Octant{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown policy %q", name)
	}
}

// HalfBlock maps a 1x2 block to a lower half block glyph with the top pixel
// as foreground and the bottom pixel as background. No quantization happens.
type HalfBlock struct{}

func (HalfBlock) Name() string { return "halfblock" }

func (HalfBlock) CellSize() (int, int) { return 1, 2 }

func (HalfBlock) Sample(f *Frame, order ChannelOrder, cellRow, cellCol int) Glyph {
	y := cellRow * 2
	return Glyph{
		Char: LowerHalfBlock,
		FG:   Normalize(f.At(cellCol, y), order),
		BG:   Normalize(f.At(cellCol, y+1), order),
	}
}

// Octant maps a 2x4 block to one of the octant glyphs using the two most
// frequent colors of its eight samples.
type Octant struct{}

func (Octant) Name() string { return "octant" }

func (Octant) CellSize() (int, int) { return 2, 4 }

func (Octant) Sample(f *Frame, order ChannelOrder, cellRow, cellCol int) Glyph {
	var samples [8]Color
	x0, y0 := cellCol*2, cellRow*4
	for i := range samples {
		samples[i] = Normalize(f.At(x0+i%2, y0+i/2), order)
	}
	return SelectOctant(samples)
}

// SelectOctant picks the glyph for eight samples given in raster order
// (row by row, left sample first). Ties between equally frequent colors go
// to the color seen first.
func SelectOctant(samples [8]Color) Glyph {
	var (
		colors [8]Color
		counts [8]int
		n      int
	)
	for _, c := range samples {
		found := false
		for j := 0; j < n; j++ {
			if colors[j] == c {
				counts[j]++
				found = true
				break
			}
		}
		if !found {
			colors[n] = c
			counts[n] = 1
			n++
		}
	}

	first := 0
	for j := 1; j < n; j++ {
		if counts[j] > counts[first] {
			first = j
		}
	}
	second := -1
	for j := 0; j < n; j++ {
		if j == first {
			continue
		}
		if second < 0 || counts[j] > counts[second] {
			second = j
		}
	}

	fg := colors[first]
	bg := fg
	if second >= 0 {
		bg = colors[second]
	}

	var mask uint8
	for i, c := range samples {
		if c == fg {
			mask |= 1 << i
		}
	}

	r, ok := OctantRune(mask)
	if !ok {
		return Glyph{Char: Blank, FG: fg, BG: fg, Mask: mask}
	}
	return Glyph{Char: r, FG: fg, BG: bg, Mask: mask}
}
