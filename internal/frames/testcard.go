package frames

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"glyphbridge/internal/codec"
	"glyphbridge/internal/input"
)

var barColors = [...]color.RGBA{
	{0xc0, 0xc0, 0xc0, 0xff},
	{0xc0, 0xc0, 0x00, 0xff},
	{0x00, 0xc0, 0xc0, 0xff},
	{0x00, 0xc0, 0x00, 0xff},
	{0xc0, 0x00, 0xc0, 0xff},
	{0xc0, 0x00, 0x00, 0xff},
	{0x00, 0x00, 0xc0, 0xff},
	{0x10, 0x10, 0x10, 0xff},
}

// TestCard is a built-in emulator that scrolls color bars and prints the
// loaded ROM size and the held buttons. Load accepts any bytes.
type TestCard struct {
	mu      sync.Mutex
	img     *image.RGBA
	order   codec.ChannelOrder
	pix     []codec.Pixel
	frame   uint64
	title   string
	held    input.ButtonSet
	onFrame func([]codec.Pixel)
}

// NewTestCard creates a test card of the given size.
func NewTestCard(width, height int, order codec.ChannelOrder) *TestCard {
	return &TestCard{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		order: order,
		pix:   make([]codec.Pixel, width*height),
		title: "no rom",
	}
}

func (c *TestCard) Load(rom []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.title = fmt.Sprintf("rom %dB", len(rom))
	c.frame = 0
	c.held = 0
	return nil
}

func (c *TestCard) SetButton(b input.Button, pressed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pressed {
		c.held = c.held.With(b)
	} else {
		c.held &^= input.Set(b)
	}
}

func (c *TestCard) OnFrame(fn func([]codec.Pixel)) {
	c.mu.Lock()
	c.onFrame = fn
	c.mu.Unlock()
}

func (c *TestCard) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Advance draws the next frame and hands it to the frame callback.
func (c *TestCard) Advance() {
	c.mu.Lock()
	c.frame++
	c.draw()
	PackRGBA(c.img, c.order, c.pix)
	fn, pix := c.onFrame, c.pix
	c.mu.Unlock()

	if fn != nil {
		fn(pix)
	}
}

func (c *TestCard) draw() {
	b := c.img.Bounds()
	w := b.Dx()
	barWidth := max(w/len(barColors), 1)
	shift := int(c.frame % uint64(w))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < w; x++ {
			bar := ((x + shift) % w) / barWidth
			c.img.SetRGBA(x, y, barColors[bar%len(barColors)])
		}
	}

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	d.Dot = fixed.P(2, 12)
	d.DrawString(c.title)

	label := c.held.String()
	if label == "" {
		label = "-"
	}
	d.Dot = fixed.P(2, b.Dy()-3)
	d.DrawString(label)
}
