package codec

import (
	"errors"
	"fmt"
)

// Pixel is a packed triple of 8-bit channels in the frame source's order.
// The high byte is ignored.
type Pixel uint32

// Color is a destination-order 0xRRGGBB value.
type Color uint32

// ChannelOrder names the byte layout of a source Pixel.
type ChannelOrder string

const (
	// OrderRGB is 0x00RRGGBB. Normalization is the identity.
	OrderRGB ChannelOrder = "rgb"
	// OrderBGR is 0x00BBGGRR, which is what RGBA bytes look like when read
	// as a little-endian uint32.
	OrderBGR ChannelOrder = "bgr"
)

// ErrGeometry reports a frame or cell geometry that does not tile evenly.
var ErrGeometry = errors.New("codec: invalid geometry")

// ParseChannelOrder validates a configured channel order.
func ParseChannelOrder(raw string) (ChannelOrder, error) {
	switch ChannelOrder(raw) {
	case OrderRGB, OrderBGR:
		return ChannelOrder(raw), nil
	case "":
		return OrderRGB, nil
	default:
		return "", fmt.Errorf("codec: unknown channel order %q", raw)
	}
}

// Normalize rearranges a source pixel into destination channel order.
func Normalize(p Pixel, order ChannelOrder) Color {
	if order == OrderBGR {
		return Color((p&0xff)<<16 | (p & 0xff00) | (p>>16)&0xff)
	}
	return Color(p & 0xffffff)
}

// RGB packs three channels into a destination-order color.
func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Int returns the color as the integer the destination protocol expects.
func (c Color) Int() int {
	return int(c & 0xffffff)
}

// Frame is one complete raster from the frame source.
type Frame struct {
	Width  int
	Height int
	Pix    []Pixel
}

// NewFrame allocates a black frame of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Pix: make([]Pixel, width*height)}
}

// At returns the pixel at (x, y). Out of range coordinates read as black.
func (f *Frame) At(x, y int) Pixel {
	if f == nil || x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Pix[y*f.Width+x]
}

// Valid reports whether the pixel slice matches the declared dimensions.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height
}

// Geometry describes how a source raster is cut into cells.
type Geometry struct {
	Width      int
	Height     int
	CellWidth  int
	CellHeight int
}

// NewGeometry validates that the raster tiles evenly into cells of the
// given policy.
func NewGeometry(width, height int, policy Policy) (Geometry, error) {
	if policy == nil {
		return Geometry{}, fmt.Errorf("%w: nil policy", ErrGeometry)
	}
	cw, ch := policy.CellSize()
	if width <= 0 || height <= 0 {
		return Geometry{}, fmt.Errorf("%w: frame %dx%d", ErrGeometry, width, height)
	}
	if width%cw != 0 || height%ch != 0 {
		return Geometry{}, fmt.Errorf("%w: frame %dx%d does not tile into %dx%d cells", ErrGeometry, width, height, cw, ch)
	}
	return Geometry{Width: width, Height: height, CellWidth: cw, CellHeight: ch}, nil
}

// Rows is the number of cell rows.
func (g Geometry) Rows() int {
	if g.CellHeight == 0 {
		return 0
	}
	return g.Height / g.CellHeight
}

// Cols is the number of cell columns.
func (g Geometry) Cols() int {
	if g.CellWidth == 0 {
		return 0
	}
	return g.Width / g.CellWidth
}

// Cells is the total cell count.
func (g Geometry) Cells() int {
	return g.Rows() * g.Cols()
}
