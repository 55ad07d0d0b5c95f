// Package grid models pixel positions on a bounded raster, their 8-connected
// neighbourhoods, and position-keyed pixel sets.
package grid

import (
	"fmt"

	"github.com/jmylchreest/allcolour/internal/colour"
)

// Coord is an integer position on the grid. Identity is (X, Y) only.
type Coord struct {
	X int
	Y int
}

// String returns the coordinate as "(x,y)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid holds the raster bounds.
type Grid struct {
	Width  int
	Height int
}

// New returns a Grid, rejecting non-positive dimensions.
func New(width, height int) (Grid, error) {
	if width < 1 || height < 1 {
		return Grid{}, fmt.Errorf("grid dimensions must be positive, got %dx%d", width, height)
	}
	return Grid{Width: width, Height: height}, nil
}

// Len returns the number of cells.
func (g Grid) Len() int {
	return g.Width * g.Height
}

// Contains reports whether c lies inside the grid.
func (g Grid) Contains(c Coord) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Index packs c into y*width + x. c must be inside the grid.
func (g Grid) Index(c Coord) int {
	return c.Y*g.Width + c.X
}

// Coord unpacks an index produced by Index.
func (g Grid) Coord(i int) Coord {
	return Coord{X: i % g.Width, Y: i / g.Width}
}

// Centre returns (width/2, height/2).
func (g Grid) Centre() Coord {
	return Coord{X: g.Width / 2, Y: g.Height / 2}
}

// Neighbours returns the in-bounds Moore neighbourhood of c, centre excluded.
func (g Grid) Neighbours(c Coord) []Coord {
	out := make([]Coord, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := Coord{X: c.X + dx, Y: c.Y + dy}
			if g.Contains(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// Pixel is a grid position carrying an assigned colour.
type Pixel struct {
	Coord
	Colour colour.RGB

	neighbours []Coord
}

// NewPixel returns a pixel at c with colour col.
func NewPixel(c Coord, col colour.RGB) *Pixel {
	return &Pixel{Coord: c, Colour: col}
}

// Neighbours returns the pixel's in-bounds neighbours, computing them on
// first use. The slice is cached and owned by the pixel; callers may reorder
// it but must not resize it.
func (p *Pixel) Neighbours(g Grid) []Coord {
	if p.neighbours == nil {
		p.neighbours = g.Neighbours(p.Coord)
	}
	return p.neighbours
}
