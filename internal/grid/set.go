package grid

import (
	"math/rand/v2"
)

// Set is a collection of pixels keyed by position. Membership is tracked in
// a flat index over the grid so every operation is O(1) and allocation free.
// Set is not safe for concurrent use.
type Set struct {
	grid Grid
	// slot holds 1 + the member's position in pixels, 0 when absent.
	slot   []int32
	pixels []*Pixel
}

// NewSet returns an empty set over g.
func NewSet(g Grid) *Set {
	return &Set{
		grid: g,
		slot: make([]int32, g.Len()),
	}
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.pixels)
}

// Contains reports whether a pixel at c is a member.
func (s *Set) Contains(c Coord) bool {
	return s.grid.Contains(c) && s.slot[s.grid.Index(c)] != 0
}

// Get returns the member at c.
func (s *Set) Get(c Coord) (*Pixel, bool) {
	if !s.Contains(c) {
		return nil, false
	}
	return s.pixels[s.slot[s.grid.Index(c)]-1], true
}

// Add inserts p, replacing any member at the same position. It reports
// whether the position was newly added.
func (s *Set) Add(p *Pixel) bool {
	i := s.grid.Index(p.Coord)
	if k := s.slot[i]; k != 0 {
		s.pixels[k-1] = p
		return false
	}
	s.pixels = append(s.pixels, p)
	s.slot[i] = int32(len(s.pixels)) // #nosec G115 -- grid size is bounded by the palette
	return true
}

// Remove deletes the member at c, reporting whether it was present.
func (s *Set) Remove(c Coord) bool {
	if !s.Contains(c) {
		return false
	}
	i := s.grid.Index(c)
	k := s.slot[i] - 1
	last := len(s.pixels) - 1
	if int(k) != last {
		moved := s.pixels[last]
		s.pixels[k] = moved
		s.slot[s.grid.Index(moved.Coord)] = k + 1
	}
	s.pixels[last] = nil
	s.pixels = s.pixels[:last]
	s.slot[i] = 0
	return true
}

// Pixels returns a snapshot of the members. The order is unspecified.
func (s *Set) Pixels() []*Pixel {
	out := make([]*Pixel, len(s.pixels))
	copy(out, s.pixels)
	return out
}

// All returns an iterator over the members.
func (s *Set) All() func(func(*Pixel) bool) {
	return func(yield func(*Pixel) bool) {
		for _, p := range s.pixels {
			if !yield(p) {
				return
			}
		}
	}
}

// PickRandom returns a uniformly chosen member without removing it.
func (s *Set) PickRandom(rng *rand.Rand) (*Pixel, bool) {
	if len(s.pixels) == 0 {
		return nil, false
	}
	return s.pixels[rng.IntN(len(s.pixels))], true
}

// PopRandom removes and returns a uniformly chosen member.
func (s *Set) PopRandom(rng *rand.Rand) (*Pixel, bool) {
	p, ok := s.PickRandom(rng)
	if !ok {
		return nil, false
	}
	s.Remove(p.Coord)
	return p, true
}
