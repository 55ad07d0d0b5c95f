package placement

import (
	"github.com/jmylchreest/allcolour/internal/colour"
	"github.com/jmylchreest/allcolour/internal/grid"
)

// Snapshot is a point-in-time copy of the coloured pixels of a run.
// It does not change when the engine advances.
type Snapshot struct {
	grid    grid.Grid
	colours []colour.RGB
	filled  []bool
	count   int
}

func newSnapshot(g grid.Grid) *Snapshot {
	return &Snapshot{
		grid:    g,
		colours: make([]colour.RGB, g.Len()),
		filled:  make([]bool, g.Len()),
	}
}

func (s *Snapshot) set(c grid.Coord, col colour.RGB) {
	i := s.grid.Index(c)
	if !s.filled[i] {
		s.filled[i] = true
		s.count++
	}
	s.colours[i] = col
}

// Width returns the grid width.
func (s *Snapshot) Width() int { return s.grid.Width }

// Height returns the grid height.
func (s *Snapshot) Height() int { return s.grid.Height }

// Len returns the number of coloured pixels.
func (s *Snapshot) Len() int { return s.count }

// At returns the colour at c and whether one has been assigned.
func (s *Snapshot) At(c grid.Coord) (colour.RGB, bool) {
	if !s.grid.Contains(c) {
		return colour.RGB{}, false
	}
	i := s.grid.Index(c)
	return s.colours[i], s.filled[i]
}

// All returns an iterator over coloured pixels in row-major order.
func (s *Snapshot) All() func(func(grid.Coord, colour.RGB) bool) {
	return func(yield func(grid.Coord, colour.RGB) bool) {
		for i, ok := range s.filled {
			if !ok {
				continue
			}
			if !yield(s.grid.Coord(i), s.colours[i]) {
				return
			}
		}
	}
}
