package placement

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/jmylchreest/allcolour/internal/colour"
	"github.com/jmylchreest/allcolour/internal/grid"
)

func mustEngine(t *testing.T, config Config) *Engine {
	t.Helper()
	e, err := New(config)
	if err != nil {
		t.Fatalf("New(%+v) error = %v", config, err)
	}
	return e
}

func runToEnd(t *testing.T, e *Engine) {
	t.Helper()
	done, err := e.Step(e.grid.Len() + 1)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if !done {
		t.Fatal("Step() with a batch larger than the grid did not finish")
	}
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		depth         int
	}{
		{name: "8x8 exact", width: 8, height: 8, depth: 2},
		{name: "16x32 exact", width: 16, height: 32, depth: 3},
		{name: "64x64 exact", width: 64, height: 64, depth: 4},
		{name: "palette larger than grid", width: 5, height: 7, depth: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, Config{Width: tt.width, Height: tt.height, Depth: tt.depth, Seed: 11})
			runToEnd(t, e)

			p := e.Progress()
			if p.Frontier != 0 {
				t.Errorf("frontier holds %d pixels after completion", p.Frontier)
			}
			if p.Placed != tt.width*tt.height {
				t.Errorf("placed %d pixels, want %d", p.Placed, tt.width*tt.height)
			}

			snap := e.Snapshot()
			for y := range tt.height {
				for x := range tt.width {
					if !e.IsPlaced(grid.Coord{X: x, Y: y}) {
						t.Fatalf("(%d,%d) not placed", x, y)
					}
					if _, ok := snap.At(grid.Coord{X: x, Y: y}); !ok {
						t.Fatalf("(%d,%d) missing from snapshot", x, y)
					}
				}
			}
		})
	}
}

func TestPaletteConservation(t *testing.T) {
	e := mustEngine(t, Config{Width: 16, Height: 16, Depth: 2, Seed: 3})
	runToEnd(t, e)

	want, err := colour.Generate(2)
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	remaining := make(map[colour.RGB]int, len(want))
	for _, c := range want {
		remaining[c]++
	}

	// 16x16 = 256 pixels but depth 2 only has 64 colours.
	count := 0
	for _, c := range e.Snapshot().All() {
		remaining[c]--
		if remaining[c] < 0 {
			t.Fatalf("colour %v placed more than once", c)
		}
		count++
	}
	if count != 64 {
		t.Errorf("placed %d colours, want 64", count)
	}
	for c, n := range remaining {
		if n != 0 {
			t.Errorf("colour %v placed %d fewer times than expected", c, n)
		}
	}
}

func TestPaletteConservationExact(t *testing.T) {
	e := mustEngine(t, Config{Width: 8, Height: 8, Depth: 2, Seed: 99})
	runToEnd(t, e)

	seen := make(map[colour.RGB]bool)
	for _, c := range e.Snapshot().All() {
		if seen[c] {
			t.Fatalf("colour %v placed twice", c)
		}
		seen[c] = true
	}
	if len(seen) != colour.Size(2) {
		t.Errorf("placed %d distinct colours, want %d", len(seen), colour.Size(2))
	}
}

func TestInvariantsEveryStep(t *testing.T) {
	e := mustEngine(t, Config{Width: 12, Height: 9, Depth: 3, Seed: 5})
	g := e.Grid()

	prev := e.Progress().Done
	if prev != 1 {
		t.Fatalf("initial coloured pixels = %d, want 1", prev)
	}
	for !e.IsDone() {
		if _, err := e.Step(1); err != nil {
			t.Fatalf("Step(1) error = %v", err)
		}

		for i := range g.Len() {
			c := g.Coord(i)
			if e.InFrontier(c) && e.IsPlaced(c) {
				t.Fatalf("%v is in both frontier and placed", c)
			}
		}

		done := e.Progress().Done
		if done != prev+1 {
			t.Fatalf("coloured pixels went from %d to %d in one step", prev, done)
		}
		prev = done
	}
	if prev != g.Len() {
		t.Errorf("finished with %d pixels, want %d", prev, g.Len())
	}
}

func TestDeterminism(t *testing.T) {
	config := Config{Width: 20, Height: 20, Depth: 3, Seed: 0xdeadbeef}

	a := mustEngine(t, config)
	b := mustEngine(t, config)
	runToEnd(t, a)

	// Different batching must not change the outcome.
	for !b.IsDone() {
		if _, err := b.Step(7); err != nil {
			t.Fatalf("Step(7) error = %v", err)
		}
	}

	sa, sb := a.Snapshot(), b.Snapshot()
	for c, ca := range sa.All() {
		cb, ok := sb.At(c)
		if !ok || ca != cb {
			t.Fatalf("runs differ at %v: %v vs %v", c, ca, cb)
		}
	}

	c := mustEngine(t, Config{Width: 20, Height: 20, Depth: 3, Seed: 0xfeedface})
	runToEnd(t, c)
	differs := false
	for coord, ca := range sa.All() {
		if cc, _ := c.Snapshot().At(coord); cc != ca {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("different seeds produced identical images")
	}
}

func TestDeterminismWithSource(t *testing.T) {
	build := func() *Engine {
		e, err := NewBuilder().
			WithSize(6, 6).
			WithDepth(2).
			WithSource(rand.NewPCG(1, 2)).
			Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		return e
	}

	a, b := build(), build()
	runToEnd(t, a)
	runToEnd(t, b)
	for c, ca := range a.Snapshot().All() {
		if cb, _ := b.Snapshot().At(c); ca != cb {
			t.Fatalf("runs differ at %v", c)
		}
	}
}

func TestTwoByTwoScenario(t *testing.T) {
	e := mustEngine(t, Config{Width: 2, Height: 2, Depth: 1, Seed: 1})

	if e.palette.Len() != 7 {
		t.Fatalf("palette holds %d colours after seeding, want 7", e.palette.Len())
	}

	steps := 0
	for !e.IsDone() {
		if _, err := e.Step(1); err != nil {
			t.Fatalf("Step(1) error = %v", err)
		}
		steps++
	}

	if steps != 3 {
		t.Errorf("took %d steps, want 3", steps)
	}
	if e.palette.Len() != 4 {
		t.Errorf("%d colours left unused, want 4", e.palette.Len())
	}
	if e.Progress().Placed != 4 {
		t.Errorf("placed %d pixels, want 4", e.Progress().Placed)
	}
}

func TestRandomConfigurationsTerminate(t *testing.T) {
	rng := rand.New(rand.NewPCG(2024, 10))

	for i := range 60 {
		config := Config{
			Width:  1 + rng.IntN(12),
			Height: 1 + rng.IntN(12),
			Depth:  1 + rng.IntN(4),
			Seed:   rng.Uint64(),
		}
		if rng.IntN(2) == 0 {
			config.SeedPolicy = SeedRandom
		}

		e := mustEngine(t, config)
		done, err := e.Step(config.Width*config.Height + 1)
		if err != nil {
			t.Fatalf("run %d (%+v) error = %v", i, config, err)
		}
		if !done {
			t.Fatalf("run %d (%+v) did not finish", i, config)
		}

		want := min(config.Width*config.Height, colour.Size(config.Depth))
		if got := e.Snapshot().Len(); got != want {
			t.Fatalf("run %d (%+v) coloured %d pixels, want %d", i, config, got, want)
		}
	}
}

func TestMultipleStarts(t *testing.T) {
	starts := []grid.Coord{{X: 0, Y: 0}, {X: 9, Y: 9}, {X: 0, Y: 9}}
	e := mustEngine(t, Config{Width: 10, Height: 10, Depth: 3, Seed: 8, Starts: starts})

	if got := e.Progress().Frontier; got != 3 {
		t.Fatalf("initial frontier = %d, want 3", got)
	}
	for _, s := range starts {
		if !e.InFrontier(s) {
			t.Errorf("start %v not on the frontier", s)
		}
	}

	runToEnd(t, e)
	if got := e.Progress().Placed; got != 100 {
		t.Errorf("placed %d, want 100", got)
	}
}

func TestSingleCellGridIsDoneImmediately(t *testing.T) {
	e := mustEngine(t, Config{Width: 1, Height: 1, Depth: 1})

	if !e.IsDone() {
		t.Fatal("1x1 engine not done at construction")
	}
	if p := e.Progress(); p.Placed != 1 || p.Frontier != 0 {
		t.Errorf("progress = %+v, want one placed pixel", p)
	}
	done, err := e.Step(10)
	if err != nil || !done {
		t.Errorf("Step() = %v, %v; want true, nil", done, err)
	}
}

func TestStepZeroBatch(t *testing.T) {
	e := mustEngine(t, Config{Width: 4, Height: 4, Depth: 2})
	before := e.Progress()

	done, err := e.Step(0)
	if err != nil || done {
		t.Fatalf("Step(0) = %v, %v", done, err)
	}
	if e.Progress() != before {
		t.Error("Step(0) changed the engine")
	}
}

func TestSnapshotMidRun(t *testing.T) {
	e := mustEngine(t, Config{Width: 10, Height: 10, Depth: 3, Seed: 2})
	if _, err := e.Step(20); err != nil {
		t.Fatalf("Step(20) error = %v", err)
	}

	snap := e.Snapshot()
	if snap.Len() != 21 {
		t.Fatalf("snapshot has %d pixels, want 21", snap.Len())
	}

	if _, err := e.Step(20); err != nil {
		t.Fatalf("Step(20) error = %v", err)
	}
	if snap.Len() != 21 {
		t.Error("snapshot changed after the engine advanced")
	}
	for c := range snap.All() {
		if !e.InFrontier(c) && !e.IsPlaced(c) {
			t.Errorf("snapshot pixel %v is not coloured in the engine", c)
		}
	}
}

func TestRun(t *testing.T) {
	e := mustEngine(t, Config{Width: 9, Height: 9, Depth: 3, Seed: 4})

	batches := 0
	last := Progress{}
	err := e.Run(context.Background(), 10, func(p Progress) error {
		batches++
		if p.Done <= last.Done {
			t.Errorf("progress did not advance: %+v -> %+v", last, p)
		}
		last = p
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if batches != 8 {
		t.Errorf("Run made %d batches, want 8", batches)
	}
	if last.Remaining() != 0 {
		t.Errorf("Remaining() = %d after Run", last.Remaining())
	}
}

func TestRunStops(t *testing.T) {
	t.Run("cancelled context", func(t *testing.T) {
		e := mustEngine(t, Config{Width: 9, Height: 9, Depth: 3})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := e.Run(ctx, 10, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
		if e.Progress().Done != 1 {
			t.Error("Run advanced after cancellation")
		}
	})

	t.Run("callback error", func(t *testing.T) {
		e := mustEngine(t, Config{Width: 9, Height: 9, Depth: 3})
		stop := errors.New("stop")

		err := e.Run(context.Background(), 5, func(Progress) error { return stop })
		if !errors.Is(err, stop) {
			t.Errorf("Run() error = %v, want stop", err)
		}
		if got := e.Progress().Done; got != 6 {
			t.Errorf("Done = %d after one batch, want 6", got)
		}
	})

	t.Run("bad batch", func(t *testing.T) {
		e := mustEngine(t, Config{Width: 9, Height: 9, Depth: 3})
		if err := e.Run(context.Background(), 0, nil); err == nil {
			t.Error("Run() with batch 0 expected error")
		}
	})
}

func TestStarvedFrontierLatches(t *testing.T) {
	e := mustEngine(t, Config{Width: 4, Height: 4, Depth: 2, Seed: 1})

	// Claim every free cell behind the engine's back so nothing can grow.
	g := e.Grid()
	for i := range g.Len() {
		c := g.Coord(i)
		if !e.frontier.Contains(c) {
			e.placed.Add(grid.NewPixel(c, colour.RGB{}))
		}
	}

	_, err := e.Step(1)
	if !errors.Is(err, ErrStarvedFrontier) {
		t.Fatalf("Step() error = %v, want ErrStarvedFrontier", err)
	}
	if _, again := e.Step(1); !errors.Is(again, ErrStarvedFrontier) {
		t.Errorf("second Step() error = %v, want the latched error", again)
	}
	if !errors.Is(e.Err(), ErrStarvedFrontier) {
		t.Errorf("Err() = %v", e.Err())
	}
}

func TestEmptyPalettePropagates(t *testing.T) {
	e := mustEngine(t, Config{Width: 4, Height: 4, Depth: 2, Seed: 1})
	e.palette.Colours = nil

	_, err := e.Step(1)
	if !errors.Is(err, colour.ErrEmptyPalette) {
		t.Errorf("Step() error = %v, want ErrEmptyPalette", err)
	}
}
