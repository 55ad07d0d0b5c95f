// Package placement implements greedy region growing: every palette colour is
// attached next to the frontier pixel whose colour is closest to it, so the
// image fills with smooth gradients instead of noise.
package placement

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/hashicorp/go-hclog"
	"github.com/jmylchreest/allcolour/internal/colour"
	"github.com/jmylchreest/allcolour/internal/grid"
	"github.com/jmylchreest/allcolour/internal/util"
)

// ErrStarvedFrontier is returned when no frontier pixel has a free neighbour
// although colours and unplaced positions remain. It cannot happen on a
// connected grid and indicates a bug.
var ErrStarvedFrontier = errors.New("frontier has no free neighbour")

// Engine places palette colours on a grid. It is single threaded; a caller
// drives it with Step and may inspect it between calls.
type Engine struct {
	grid       grid.Grid
	config     Config
	rng        *rand.Rand
	logger     hclog.Logger
	palette    *colour.Palette
	frontier   *grid.Set
	placed     *grid.Set
	total      int
	remaining  int
	sealed     int
	candidates []candidate
	err        error
}

type candidate struct {
	pixel    *grid.Pixel
	distance int
}

// New constructs an Engine seeded from config.Seed.
func New(config Config) (*Engine, error) {
	return NewBuilder().WithConfig(config).Build()
}

func newEngine(config Config, rng *rand.Rand, logger hclog.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	g, err := grid.New(config.Width, config.Height)
	if err != nil {
		return nil, err
	}
	if config.SeedPolicy == "" {
		config.SeedPolicy = SeedFirst
	}
	if len(config.Starts) == 0 {
		config.Starts = []grid.Coord{g.Centre()}
	}

	palette, err := colour.NewPalette(config.Depth, rng)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		grid:     g,
		config:   config,
		rng:      rng,
		logger:   logger,
		palette:  palette,
		frontier: grid.NewSet(g),
		placed:   grid.NewSet(g),
		total:    min(g.Len(), palette.Len()),
	}

	for _, start := range config.Starts {
		c, err := e.seedColour()
		if err != nil {
			return nil, fmt.Errorf("seeding %v: %w", start, err)
		}
		e.frontier.Add(grid.NewPixel(start, c))
	}
	e.remaining = e.total - len(config.Starts)

	logger.Debug("engine created",
		"width", g.Width, "height", g.Height, "depth", config.Depth,
		"colours", palette.Len()+len(config.Starts), "steps", e.remaining,
		"starts", len(config.Starts), "policy", config.SeedPolicy)

	if e.remaining <= 0 {
		e.finish()
	}
	return e, nil
}

func (e *Engine) seedColour() (colour.RGB, error) {
	if e.config.SeedPolicy == SeedRandom {
		return e.palette.PopRandom(e.rng)
	}
	return e.palette.Pop()
}

// Grid returns the engine's grid bounds.
func (e *Engine) Grid() grid.Grid {
	return e.grid
}

// IsDone reports whether every available colour has been placed.
func (e *Engine) IsDone() bool {
	return e.remaining <= 0
}

// Err returns the fatal error that stopped the engine, if any.
func (e *Engine) Err() error {
	return e.err
}

// Step advances up to batch placements and reports whether the run is
// complete. A batch below 1 advances nothing. After a fatal error the engine
// stays stopped and every call returns that error.
func (e *Engine) Step(batch int) (bool, error) {
	if e.err != nil {
		return false, e.err
	}
	for i := 0; i < batch && !e.IsDone(); i++ {
		if err := e.step(); err != nil {
			e.err = err
			e.logger.Error("placement failed", "error", err, "remaining", e.remaining)
			return false, err
		}
		if e.IsDone() {
			e.finish()
		}
	}
	return e.IsDone(), nil
}

// Run steps the engine in batches until it completes or ctx is cancelled.
// onBatch, when set, is called after every batch; an error from it stops
// the run.
func (e *Engine) Run(ctx context.Context, batch int, onBatch func(Progress) error) error {
	if batch < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", batch)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := e.Step(batch)
		if err != nil {
			return err
		}
		if onBatch != nil {
			if err := onBatch(e.Progress()); err != nil {
				return err
			}
		}
		if done {
			return nil
		}
	}
}

func (e *Engine) step() error {
	next, err := e.palette.Pop()
	if err != nil {
		return fmt.Errorf("step %d: %w", e.Progress().Done, err)
	}

	// Score every frontier pixel against the incoming colour and order them
	// worst to best so the best match sits at the tail.
	e.candidates = e.candidates[:0]
	for p := range e.frontier.All() {
		e.candidates = append(e.candidates, candidate{
			pixel:    p,
			distance: colour.Distance(p.Colour, next),
		})
	}
	slices.SortStableFunc(e.candidates, func(a, b candidate) int {
		return b.distance - a.distance
	})

	for i := len(e.candidates) - 1; i >= 0; i-- {
		best := e.candidates[i].pixel
		neighbours := best.Neighbours(e.grid)
		util.Shuffle(neighbours, e.rng)
		for _, n := range neighbours {
			if e.frontier.Contains(n) || e.placed.Contains(n) {
				continue
			}
			e.frontier.Add(grid.NewPixel(n, next))
			e.remaining--
			return nil
		}

		e.frontier.Remove(best.Coord)
		e.placed.Add(best)
		e.sealed++
		e.logger.Trace("sealed", "at", best.Coord, "colour", best.Colour.Hex())
	}

	return fmt.Errorf("placing %s with %d positions left: %w", next.Hex(), e.remaining, ErrStarvedFrontier)
}

// finish moves whatever is left on the frontier into the placed set.
func (e *Engine) finish() {
	for _, p := range e.frontier.Pixels() {
		e.frontier.Remove(p.Coord)
		e.placed.Add(p)
	}
	e.candidates = nil
	e.logger.Debug("placement complete", "placed", e.placed.Len(), "sealed", e.sealed, "unused_colours", e.palette.Len())
}

// Progress describes how far a run has got.
type Progress struct {
	// Done counts pixels holding a colour.
	Done int
	// Total is the number of pixels the run will colour.
	Total    int
	Frontier int
	Placed   int
	// Sealed counts frontier pixels retired because they had no free neighbour.
	Sealed int
}

// Remaining returns the number of placements still to make.
func (p Progress) Remaining() int {
	return p.Total - p.Done
}

// Progress returns the current counters.
func (e *Engine) Progress() Progress {
	return Progress{
		Done:     e.frontier.Len() + e.placed.Len(),
		Total:    e.total,
		Frontier: e.frontier.Len(),
		Placed:   e.placed.Len(),
		Sealed:   e.sealed,
	}
}

// InFrontier reports whether c is on the growth boundary.
func (e *Engine) InFrontier(c grid.Coord) bool {
	return e.frontier.Contains(c)
}

// IsPlaced reports whether c has been sealed or finalised.
func (e *Engine) IsPlaced(c grid.Coord) bool {
	return e.placed.Contains(c)
}

// Snapshot copies the colours of every placed and frontier pixel.
func (e *Engine) Snapshot() *Snapshot {
	s := newSnapshot(e.grid)
	for p := range e.placed.All() {
		s.set(p.Coord, p.Colour)
	}
	for p := range e.frontier.All() {
		s.set(p.Coord, p.Colour)
	}
	return s
}
