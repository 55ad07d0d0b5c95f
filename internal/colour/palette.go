// Package colour provides the colour model and exhaustive palette generation.
package colour

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jmylchreest/allcolour/internal/util"
)

// ErrEmptyPalette is returned when a colour is requested from a drained palette.
var ErrEmptyPalette = errors.New("palette is empty")

const (
	// MinBits is the smallest supported channel depth.
	MinBits = 1
	// MaxBits is the largest supported channel depth.
	MaxBits = 8
)

// Size returns the number of colours in a palette with the given channel depth.
func Size(bits int) int {
	return 1 << (3 * bits)
}

// ValidateBits checks that bits is a supported channel depth.
func ValidateBits(bits int) error {
	if bits < MinBits || bits > MaxBits {
		return fmt.Errorf("channel depth must be between %d and %d bits, got %d", MinBits, MaxBits, bits)
	}
	return nil
}

// Generate returns every colour representable with bits bits per channel.
// Channels step by 256>>bits and are enumerated red-major, blue-minor, so the
// result is deterministic and free of duplicates.
func Generate(bits int) ([]RGB, error) {
	if err := ValidateBits(bits); err != nil {
		return nil, err
	}

	step := 256 >> bits
	colours := make([]RGB, 0, Size(bits))
	for r := 0; r < 256; r += step {
		for g := 0; g < 256; g += step {
			for b := 0; b < 256; b += step {
				colours = append(colours, RGB{R: uint8(r), G: uint8(g), B: uint8(b)}) // #nosec G115 -- bounded by 256
			}
		}
	}
	return colours, nil
}

// Palette is a depletable sequence of distinct colours.
type Palette struct {
	Colours []RGB
}

// NewPalette generates the palette for bits and shuffles it with rng.
func NewPalette(bits int, rng *rand.Rand) (*Palette, error) {
	colours, err := Generate(bits)
	if err != nil {
		return nil, err
	}
	util.Shuffle(colours, rng)
	return &Palette{Colours: colours}, nil
}

// Len returns the number of colours left in the palette.
func (p *Palette) Len() int {
	return len(p.Colours)
}

// Pop removes and returns the last colour.
func (p *Palette) Pop() (RGB, error) {
	n := len(p.Colours)
	if n == 0 {
		return RGB{}, ErrEmptyPalette
	}
	c := p.Colours[n-1]
	p.Colours = p.Colours[:n-1]
	return c, nil
}

// PopRandom removes and returns a uniformly chosen colour.
func (p *Palette) PopRandom(rng *rand.Rand) (RGB, error) {
	n := len(p.Colours)
	if n == 0 {
		return RGB{}, ErrEmptyPalette
	}
	i := rng.IntN(n)
	p.Colours[i], p.Colours[n-1] = p.Colours[n-1], p.Colours[i]
	return p.Pop()
}

// ColorJSON represents a color in JSON output format.
type ColorJSON struct {
	Hex string `json:"hex"`
	RGB RGB    `json:"rgb"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Count  int         `json:"count"`
	Colors []ColorJSON `json:"colors"`
}

// ToJSON converts the palette to JSON format.
func (p *Palette) ToJSON() ([]byte, error) {
	colors := make([]ColorJSON, len(p.Colours))
	for i, c := range p.Colours {
		colors[i] = ColorJSON{
			Hex: c.Hex(),
			RGB: c,
		}
	}

	return json.MarshalIndent(PaletteJSON{
		Count:  len(p.Colours),
		Colors: colors,
	}, "", "  ")
}

// All returns an iterator over the remaining colours.
func (p *Palette) All() func(func(int, RGB) bool) {
	return func(yield func(int, RGB) bool) {
		for i, c := range p.Colours {
			if !yield(i, c) {
				return
			}
		}
	}
}
