// Package render runs one render tick: it walks the cells admitted by the
// interlace scheduler, reduces each to a glyph, drops unchanged glyphs and
// turns the rest into canvas edits.
package render

import (
	"fmt"
	"time"

	"glyphbridge/internal/codec"
	"glyphbridge/internal/diff"
	"glyphbridge/internal/editid"
	"glyphbridge/internal/grid"
	"glyphbridge/internal/interlace"
	"glyphbridge/internal/net/proto"
)

// Config describes the fixed source raster and where it lands on the canvas.
type Config struct {
	Width     int
	Height    int
	Policy    codec.Policy
	Order     codec.ChannelOrder
	Mapper    grid.Mapper
	Interlace bool
	IDs       *editid.Allocator
}

// Renderer owns the per-cell state of one session. It is not safe for
// concurrent use.
type Renderer struct {
	geometry  codec.Geometry
	policy    codec.Policy
	order     codec.ChannelOrder
	mapper    grid.Mapper
	cache     *diff.Cache
	scheduler *interlace.Scheduler
	ids       *editid.Allocator
	ticks     uint64
}

// New validates the geometry and allocates the cell cache.
func New(cfg Config) (*Renderer, error) {
	policy := cfg.Policy
	if policy == nil {
		policy = codec.HalfBlock{}
	}
	geometry, err := codec.NewGeometry(cfg.Width, cfg.Height, policy)
	if err != nil {
		return nil, err
	}
	if cfg.Mapper.OriginRow < 0 || cfg.Mapper.OriginCol < 0 {
		return nil, fmt.Errorf("render: negative canvas origin %+v", cfg.Mapper)
	}
	ids := cfg.IDs
	if ids == nil {
		ids = editid.NewSeeded()
	}
	return &Renderer{
		geometry:  geometry,
		policy:    policy,
		order:     cfg.Order,
		mapper:    cfg.Mapper,
		cache:     diff.NewCache(geometry.Cells()),
		scheduler: interlace.New(cfg.Interlace),
		ids:       ids,
	}, nil
}

// Geometry reports the cell layout.
func (r *Renderer) Geometry() codec.Geometry {
	return r.geometry
}

// Field reports the interlace field the next tick will sample.
func (r *Renderer) Field() int {
	return r.scheduler.Field()
}

// Ticks reports how many render ticks have run.
func (r *Renderer) Ticks() uint64 {
	return r.ticks
}

// Tick produces the edits for one render tick in row-major order. A nil or
// mis-sized frame produces nothing, but the interlace field still advances.
func (r *Renderer) Tick(frame *codec.Frame, now time.Time) []proto.Edit {
	defer r.scheduler.Toggle()
	r.ticks++

	if !frame.Valid() || frame.Width != r.geometry.Width || frame.Height != r.geometry.Height {
		return nil
	}

	stamp := now.UnixMilli()
	rows, cols := r.geometry.Rows(), r.geometry.Cols()
	var edits []proto.Edit
	for row := 0; row < rows; row++ {
		if !r.scheduler.ShouldVisit(row) {
			continue
		}
		for col := 0; col < cols; col++ {
			g := r.policy.Sample(frame, r.order, row, col)
			if !r.cache.Diff(row*cols+col, g) {
				continue
			}
			coord := r.mapper.Map(row, col)
			edits = append(edits, proto.Edit{
				TileRow:   coord.TileRow,
				TileCol:   coord.TileCol,
				LocalRow:  coord.LocalRow,
				LocalCol:  coord.LocalCol,
				Timestamp: stamp,
				Char:      string(g.Char),
				ID:        r.ids.Next(),
				FG:        g.FG.Int(),
				BG:        g.BG.Int(),
			})
		}
	}
	return edits
}
