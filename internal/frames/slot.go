package frames

import (
	"fmt"
	"sync"

	"glyphbridge/internal/codec"
)

// Slot keeps only the most recently completed frame. Frames overwritten
// before anyone read them are counted as dropped.
type Slot struct {
	mu       sync.Mutex
	width    int
	height   int
	frame    *codec.Frame
	observed bool
	stored   uint64
	dropped  uint64
}

// NewSlot creates an empty slot for frames of a fixed size.
func NewSlot(width, height int) *Slot {
	return &Slot{width: width, height: height}
}

// Store copies pix into a fresh frame and publishes it.
func (s *Slot) Store(pix []codec.Pixel) error {
	if len(pix) != s.width*s.height {
		return fmt.Errorf("frames: got %d pixels, want %dx%d", len(pix), s.width, s.height)
	}
	frame := codec.NewFrame(s.width, s.height)
	copy(frame.Pix, pix)

	s.mu.Lock()
	if s.frame != nil && !s.observed {
		s.dropped++
	}
	s.frame = frame
	s.observed = false
	s.stored++
	s.mu.Unlock()
	return nil
}

// Latest returns the newest frame, or nil if none has been stored. The frame
// is never modified after it is published.
func (s *Slot) Latest() *codec.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed = true
	return s.frame
}

// Stored reports how many frames have been published.
func (s *Slot) Stored() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored
}

// Dropped reports how many frames were replaced without being read.
func (s *Slot) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
