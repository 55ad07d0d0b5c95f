package placement

import (
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/jmylchreest/allcolour/internal/colour"
	"github.com/jmylchreest/allcolour/internal/grid"
)

// SeedPolicy selects how start pixels draw their colour from the palette.
type SeedPolicy string

const (
	// SeedFirst takes the next colour of the shuffled palette.
	SeedFirst SeedPolicy = "first"
	// SeedRandom removes a uniformly chosen colour from the palette.
	SeedRandom SeedPolicy = "random"
)

// ValidSeedPolicies returns the accepted seed policies.
func ValidSeedPolicies() []SeedPolicy {
	return []SeedPolicy{SeedFirst, SeedRandom}
}

// ParseSeedPolicy converts a string to a SeedPolicy.
func ParseSeedPolicy(s string) (SeedPolicy, error) {
	p := SeedPolicy(s)
	if slices.Contains(ValidSeedPolicies(), p) {
		return p, nil
	}
	return "", fmt.Errorf("invalid seed policy: %s (valid: first, random)", s)
}

// Config holds everything an Engine needs at construction.
type Config struct {
	Width  int
	Height int
	// Depth is the number of bits per colour channel.
	Depth int
	// Seed drives the palette shuffle, neighbour order and random seeding.
	Seed uint64
	// Starts are the initial frontier positions. Empty means the grid centre.
	Starts     []grid.Coord
	SeedPolicy SeedPolicy
}

// DefaultConfig returns a 512x512 grid with 6 bits per channel, which uses
// every colour exactly once.
func DefaultConfig() Config {
	return Config{
		Width:      512,
		Height:     512,
		Depth:      6,
		SeedPolicy: SeedFirst,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	g, err := grid.New(c.Width, c.Height)
	if err != nil {
		return err
	}
	if err := colour.ValidateBits(c.Depth); err != nil {
		return err
	}
	if c.SeedPolicy != "" && !slices.Contains(ValidSeedPolicies(), c.SeedPolicy) {
		return fmt.Errorf("invalid seed policy: %s", c.SeedPolicy)
	}

	seen := make(map[grid.Coord]bool, len(c.Starts))
	for _, s := range c.Starts {
		if !g.Contains(s) {
			return fmt.Errorf("start point %v is outside the %dx%d grid", s, c.Width, c.Height)
		}
		if seen[s] {
			return fmt.Errorf("start point %v given more than once", s)
		}
		seen[s] = true
	}
	if n := len(c.Starts); n > colour.Size(c.Depth) {
		return fmt.Errorf("%d start points exceed the %d colours available at depth %d", n, colour.Size(c.Depth), c.Depth)
	}
	return nil
}

// Builder assembles an Engine.
type Builder struct {
	config Config
	source rand.Source
	logger hclog.Logger
	err    error
}

// NewBuilder creates a Builder starting from DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config
	return b
}

// WithSize sets the grid dimensions.
func (b *Builder) WithSize(width, height int) *Builder {
	b.config.Width = width
	b.config.Height = height
	return b
}

// WithDepth sets the channel depth in bits.
func (b *Builder) WithDepth(bits int) *Builder {
	b.config.Depth = bits
	return b
}

// WithSeed sets the PRNG seed.
func (b *Builder) WithSeed(seed uint64) *Builder {
	b.config.Seed = seed
	return b
}

// WithSource supplies the random source directly, overriding the seed.
func (b *Builder) WithSource(src rand.Source) *Builder {
	b.source = src
	return b
}

// WithStarts sets the initial frontier positions.
func (b *Builder) WithStarts(starts ...grid.Coord) *Builder {
	b.config.Starts = starts
	return b
}

// WithSeedPolicy sets how start colours are drawn.
func (b *Builder) WithSeedPolicy(p SeedPolicy) *Builder {
	b.config.SeedPolicy = p
	return b
}

// WithLogger sets the engine logger.
func (b *Builder) WithLogger(logger hclog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithEnvConfig loads configuration from environment variables.
// Reads ALLCOLOUR_SIZE (WxH), ALLCOLOUR_DEPTH and ALLCOLOUR_SEED (hex).
// Setters called afterwards take precedence over the environment.
func (b *Builder) WithEnvConfig() *Builder {
	if err := applyEnv(&b.config); err != nil && b.err == nil {
		b.err = fmt.Errorf("invalid environment configuration: %w", err)
	}
	return b
}

// Config returns the configuration assembled so far.
func (b *Builder) Config() Config {
	return b.config
}

// Build validates the configuration and constructs the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}

	src := b.source
	if src == nil {
		src = NewSource(b.config.Seed)
	}

	logger := b.logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return newEngine(b.config, rand.New(src), logger)
}

// NewSource returns the deterministic source used for a given seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func applyEnv(config *Config) error {
	if size := os.Getenv("ALLCOLOUR_SIZE"); size != "" {
		w, h, err := ParseSize(size)
		if err != nil {
			return fmt.Errorf("ALLCOLOUR_SIZE: %w", err)
		}
		config.Width, config.Height = w, h
	}
	if depth := os.Getenv("ALLCOLOUR_DEPTH"); depth != "" {
		d, err := strconv.Atoi(depth)
		if err != nil {
			return fmt.Errorf("ALLCOLOUR_DEPTH: %w", err)
		}
		config.Depth = d
	}
	if seed := os.Getenv("ALLCOLOUR_SEED"); seed != "" {
		s, err := strconv.ParseUint(strings.TrimPrefix(seed, "0x"), 16, 64)
		if err != nil {
			return fmt.Errorf("ALLCOLOUR_SEED: %w", err)
		}
		config.Seed = s
	}
	return nil
}

// ParseSize parses "WxH" (or "W:H") into its dimensions.
func ParseSize(s string) (int, int, error) {
	sep := "x"
	if strings.Contains(s, ":") {
		sep = ":"
	}
	parts := strings.Split(strings.ToLower(s), sep)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q (expected WxH)", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("size must be positive, got %dx%d", w, h)
	}
	return w, h, nil
}

// ParseCoord parses "x,y" into a coordinate.
func ParseCoord(s string) (grid.Coord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return grid.Coord{}, fmt.Errorf("invalid point %q (expected x,y)", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return grid.Coord{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return grid.Coord{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return grid.Coord{X: x, Y: y}, nil
}
