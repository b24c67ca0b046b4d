package frames

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"glyphbridge/internal/codec"
	"glyphbridge/internal/input"
)

func TestSlotCopiesAndCountsDrops(t *testing.T) {
	slot := NewSlot(2, 1)
	if slot.Latest() != nil {
		t.Fatalf("expected empty slot to return nil")
	}

	pix := []codec.Pixel{1, 2}
	if err := slot.Store(pix); err != nil {
		t.Fatalf("store: %v", err)
	}
	pix[0] = 99
	if got := slot.Latest().Pix[0]; got != 1 {
		t.Fatalf("expected stored frame to be a copy, got %d", got)
	}

	slot.Store([]codec.Pixel{3, 4})
	slot.Store([]codec.Pixel{5, 6})
	if slot.Dropped() != 1 {
		t.Fatalf("expected one dropped frame, got %d", slot.Dropped())
	}
	if got := slot.Latest().Pix; got[0] != 5 || got[1] != 6 {
		t.Fatalf("expected latest frame to win, got %v", got)
	}
	if slot.Stored() != 3 {
		t.Fatalf("expected 3 stored frames, got %d", slot.Stored())
	}

	if err := slot.Store([]codec.Pixel{1}); err == nil {
		t.Fatalf("expected size mismatch to fail")
	}
}

func TestPackRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff})
	dst := make([]codec.Pixel, 1)

	PackRGBA(img, codec.OrderRGB, dst)
	if dst[0] != 0x112233 {
		t.Fatalf("expected rgb pixel 0x112233, got %#x", dst[0])
	}
	PackRGBA(img, codec.OrderBGR, dst)
	if dst[0] != 0x332211 {
		t.Fatalf("expected bgr pixel 0x332211, got %#x", dst[0])
	}
	if codec.Normalize(dst[0], codec.OrderBGR) != 0x112233 {
		t.Fatalf("expected bgr pixel to normalize back")
	}
}

func TestTestCardEmitsFrames(t *testing.T) {
	card := NewTestCard(64, 32, codec.OrderRGB)
	if w, h := card.Size(); w != 64 || h != 32 {
		t.Fatalf("expected 64x32, got %dx%d", w, h)
	}
	if err := card.Load([]byte("rom")); err != nil {
		t.Fatalf("load: %v", err)
	}

	slot := NewSlot(64, 32)
	card.OnFrame(func(pix []codec.Pixel) {
		if err := slot.Store(pix); err != nil {
			t.Errorf("store: %v", err)
		}
	})
	card.Advance()
	first := slot.Latest()
	card.Advance()
	second := slot.Latest()
	if first == nil || second == nil {
		t.Fatalf("expected frames after advancing")
	}
	if bytes.Equal(pixBytes(first.Pix), pixBytes(second.Pix)) {
		t.Fatalf("expected the bars to move between frames")
	}

	ApplyButtons(card, input.Set(input.Start))
	card.Advance()
	pressed := slot.Latest()
	ApplyButtons(card, 0)
	if card.held != 0 {
		t.Fatalf("expected release to clear held buttons, got %s", card.held)
	}
	if pressed == nil {
		t.Fatalf("expected frame with held buttons")
	}
}

func pixBytes(pix []codec.Pixel) []byte {
	out := make([]byte, 0, len(pix)*4)
	for _, p := range pix {
		out = append(out, byte(p), byte(p>>8), byte(p>>16), byte(p>>24))
	}
	return out
}

func solidImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestStillImageScalesPNGAndBMP(t *testing.T) {
	red := color.RGBA{R: 0xff, A: 0xff}

	var pngData, bmpData bytes.Buffer
	if err := png.Encode(&pngData, solidImage(red)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := bmp.Encode(&bmpData, solidImage(red)); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}

	for name, data := range map[string][]byte{"png": pngData.Bytes(), "bmp": bmpData.Bytes()} {
		t.Run(name, func(t *testing.T) {
			still := NewStillImage(8, 8, codec.OrderRGB, xdraw.NearestNeighbor)
			var got []codec.Pixel
			still.OnFrame(func(pix []codec.Pixel) { got = append([]codec.Pixel(nil), pix...) })

			still.Advance()
			if got != nil {
				t.Fatalf("expected no frame before an image is loaded")
			}
			if err := still.Load(data); err != nil {
				t.Fatalf("load: %v", err)
			}
			still.Advance()
			if len(got) != 64 {
				t.Fatalf("expected 64 pixels, got %d", len(got))
			}
			for i, p := range got {
				if p != 0xff0000 {
					t.Fatalf("expected red at %d, got %#x", i, p)
				}
			}
		})
	}
}

func TestStillImageRejectsGarbage(t *testing.T) {
	still := NewStillImage(8, 8, codec.OrderRGB, nil)
	if err := still.Load([]byte("definitely not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rom.gb":
			w.Write([]byte("0123456789"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	data, err := Fetcher{Source: srv.URL + "/rom.gb"}.Fetch(ctx)
	if err != nil || string(data) != "0123456789" {
		t.Fatalf("expected rom bytes, got %q (%v)", data, err)
	}

	_, err = Fetcher{Source: srv.URL + "/rom.gb", MaxBytes: 4}.Fetch(ctx)
	if !errors.Is(err, ErrROMTooLarge) {
		t.Fatalf("expected ErrROMTooLarge, got %v", err)
	}

	if _, err := (Fetcher{Source: srv.URL + "/missing"}).Fetch(ctx); err == nil {
		t.Fatalf("expected 404 to fail")
	}

	path := filepath.Join(t.TempDir(), "local.gb")
	if err := os.WriteFile(path, []byte("local"), 0o600); err != nil {
		t.Fatalf("write rom: %v", err)
	}
	for _, source := range []string{path, "file://" + path} {
		data, err := Fetcher{Source: source}.Fetch(ctx)
		if err != nil || string(data) != "local" {
			t.Fatalf("expected local rom from %s, got %q (%v)", source, data, err)
		}
	}

	if _, err := (Fetcher{}).Fetch(ctx); err == nil {
		t.Fatalf("expected empty source to fail")
	}
}
