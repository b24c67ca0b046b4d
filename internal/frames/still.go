package frames

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"glyphbridge/internal/codec"
	"glyphbridge/internal/input"
)

// StillImage treats its ROM as an image file, scales it to the raster and
// emits the same frame on every step.
type StillImage struct {
	mu      sync.Mutex
	width   int
	height  int
	order   codec.ChannelOrder
	scaler  xdraw.Scaler
	pix     []codec.Pixel
	loaded  bool
	onFrame func([]codec.Pixel)
}

// NewStillImage creates an image source. A nil scaler uses approximate
// bilinear filtering.
func NewStillImage(width, height int, order codec.ChannelOrder, scaler xdraw.Scaler) *StillImage {
	if scaler == nil {
		scaler = xdraw.ApproxBiLinear
	}
	return &StillImage{
		width:  width,
		height: height,
		order:  order,
		scaler: scaler,
		pix:    make([]codec.Pixel, width*height),
	}
}

// Load decodes a PNG, GIF, JPEG or BMP image. On error the previous image
// stays in place.
func (s *StillImage) Load(rom []byte) error {
	src, _, err := image.Decode(bytes.NewReader(rom))
	if err != nil {
		return fmt.Errorf("frames: decode image: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	s.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	pix := make([]codec.Pixel, s.width*s.height)
	PackRGBA(dst, s.order, pix)

	s.mu.Lock()
	s.pix = pix
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *StillImage) Advance() {
	s.mu.Lock()
	fn, pix, loaded := s.onFrame, s.pix, s.loaded
	s.mu.Unlock()
	if fn != nil && loaded {
		fn(pix)
	}
}

// SetButton is accepted and ignored.
func (s *StillImage) SetButton(input.Button, bool) {}

func (s *StillImage) OnFrame(fn func([]codec.Pixel)) {
	s.mu.Lock()
	s.onFrame = fn
	s.mu.Unlock()
}

func (s *StillImage) Size() (int, int) {
	return s.width, s.height
}
