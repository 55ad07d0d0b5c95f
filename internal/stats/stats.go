// Package stats summarises how smooth a generated image is by measuring the
// colour distance between adjacent pixels.
package stats

import (
	"fmt"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jmylchreest/allcolour/internal/colour"
	"github.com/jmylchreest/allcolour/internal/grid"
	"github.com/jmylchreest/allcolour/internal/placement"
	"github.com/jmylchreest/allcolour/internal/render"
)

// forward lists the half of the Moore neighbourhood that visits each
// adjacent pair exactly once.
var forward = []grid.Coord{{X: 1, Y: 0}, {X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1}}

// Summary describes the distribution of neighbour distances.
type Summary struct {
	Pixels int
	Pairs  int
	Mean   float64
	StdDev float64
	Median float64
	Max    float64
	// LabMean is the mean CIE76 distance of the same pairs in L*a*b* space.
	LabMean float64
}

// String returns a one-line report.
func (s Summary) String() string {
	return fmt.Sprintf("pixels=%d pairs=%d mean=%.2f stddev=%.2f median=%.0f max=%.0f lab=%.4f",
		s.Pixels, s.Pairs, s.Mean, s.StdDev, s.Median, s.Max, s.LabMean)
}

// Smoothness measures the Manhattan distance of every pair of coloured
// 8-neighbours in snap.
func Smoothness(snap *placement.Snapshot) Summary {
	summary := Summary{Pixels: snap.Len()}

	var distances, lab []float64
	for c, col := range snap.All() {
		for _, d := range forward {
			other, ok := snap.At(grid.Coord{X: c.X + d.X, Y: c.Y + d.Y})
			if !ok {
				continue
			}
			distances = append(distances, float64(colour.Distance(col, other)))
			lab = append(lab, toColorful(col).DistanceLab(toColorful(other)))
		}
	}

	summary.Pairs = len(distances)
	if len(distances) == 0 {
		return summary
	}

	summary.Mean, summary.StdDev = stat.MeanStdDev(distances, nil)
	summary.LabMean = stat.Mean(lab, nil)
	summary.Max = floats.Max(distances)
	if len(distances) < 2 {
		summary.StdDev = 0
	}

	slices.Sort(distances)
	summary.Median = stat.Quantile(0.5, stat.Empirical, distances, nil)
	return summary
}

func toColorful(c colour.RGB) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Swatch is a dominant colour and the share of the image it covers.
type Swatch struct {
	Colour colour.RGB
	Weight float64
}

// Dominant returns up to n dominant colours of the rendered snapshot,
// heaviest first.
func Dominant(snap *placement.Snapshot, n int) []Swatch {
	if n < 1 || snap.Len() == 0 {
		return nil
	}
	found := dominantcolor.FindWeight(render.ToImage(snap, render.Background), n)
	swatches := make([]Swatch, 0, len(found))
	for _, f := range found {
		swatches = append(swatches, Swatch{Colour: colour.ToRGB(f.RGBA), Weight: f.Weight})
	}
	slices.SortStableFunc(swatches, func(a, b Swatch) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})
	return swatches
}
