// Package grid maps cell positions onto the destination canvas, which
// addresses characters by tile and by position within the tile.
package grid

const (
	// TileWidth is the number of character columns in one canvas tile.
	TileWidth = 16
	// TileHeight is the number of character rows in one canvas tile.
	TileHeight = 8
)

// Coord is a two-level canvas address.
type Coord struct {
	TileRow  int
	TileCol  int
	LocalRow int
	LocalCol int
}

// Map converts an absolute cell position into tile and local coordinates.
// Both arguments must be non-negative.
func Map(cellRow, cellCol int) Coord {
	return Coord{
		TileRow:  cellRow / TileHeight,
		TileCol:  cellCol / TileWidth,
		LocalRow: cellRow % TileHeight,
		LocalCol: cellCol % TileWidth,
	}
}

// Cell returns the absolute cell position of the coordinate.
func (c Coord) Cell() (row, col int) {
	return c.TileRow*TileHeight + c.LocalRow, c.TileCol*TileWidth + c.LocalCol
}

// Mapper places a cell grid at a fixed cell offset on the canvas.
type Mapper struct {
	OriginRow int
	OriginCol int
}

// FromTiles returns a mapper whose origin is the top-left character of the
// given tile.
func FromTiles(tileRow, tileCol int) Mapper {
	return Mapper{OriginRow: tileRow * TileHeight, OriginCol: tileCol * TileWidth}
}

// Map converts a cell position relative to the mapper origin.
func (m Mapper) Map(cellRow, cellCol int) Coord {
	return Map(m.OriginRow+cellRow, m.OriginCol+cellCol)
}
