// Package frames holds the frame sources the bridge can drive and the
// single-slot hand-off between the producer and the renderer.
package frames

import (
	"image"

	"glyphbridge/internal/codec"
	"glyphbridge/internal/input"
)

// Emulator is a frame source driven one step at a time. OnFrame's callback
// runs on the goroutine that calls Advance and must not retain pix.
type Emulator interface {
	Load(rom []byte) error
	Advance()
	SetButton(b input.Button, pressed bool)
	OnFrame(fn func(pix []codec.Pixel))
	Size() (width, height int)
}

// ApplyButtons presses every button in held and releases the rest.
func ApplyButtons(emu Emulator, held input.ButtonSet) {
	if emu == nil {
		return
	}
	for _, b := range input.Buttons() {
		emu.SetButton(b, held.Has(b))
	}
}

// PackRGBA writes img into dst as pixels of the given channel order. dst must
// hold one pixel per image pixel.
func PackRGBA(img *image.RGBA, order codec.ChannelOrder, dst []codec.Pixel) {
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl := uint32(row[x*4]), uint32(row[x*4+1]), uint32(row[x*4+2])
			if order == codec.OrderBGR {
				dst[i] = codec.Pixel(bl<<16 | g<<8 | r)
			} else {
				dst[i] = codec.Pixel(r<<16 | g<<8 | bl)
			}
			i++
		}
	}
}
