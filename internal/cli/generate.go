package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/allcolour/internal/placement"
	"github.com/jmylchreest/allcolour/internal/render"
	"github.com/jmylchreest/allcolour/internal/seed"
	"github.com/jmylchreest/allcolour/internal/stats"
)

// generateOptions holds the generate command flags.
type generateOptions struct {
	size       sizeValue
	depth      int
	seedMode   string
	seedValue  string
	seedPhrase string
	starts     startsValue
	seedPolicy string
	batch      int
	output     string
	format     string
	frames     int
	stream     string
	compress   bool
	preview    bool
	columns    int
	stats      bool
}

func newGenerateCmd() *cobra.Command {
	defaults := placement.DefaultConfig()
	opts := &generateOptions{
		size: sizeValue{width: defaults.Width, height: defaults.Height},
	}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Grow an image that uses every colour once",
		Long: `Grow an image from one or more start points, placing every colour of the
palette next to the boundary pixel with the closest colour.

The palette holds (2^depth)^3 colours. When that equals width*height every
colour is used exactly once; otherwise the run stops when either the colours
or the pixels run out.

Size, depth and seed may also be set with ALLCOLOUR_SIZE, ALLCOLOUR_DEPTH and
ALLCOLOUR_SEED; flags take precedence.

Examples:
  # The classic: 512x512 with 64 levels per channel
  allcolour generate -o allrgb.png

  # Small and fast, reproducible
  allcolour generate -s 64x64 -d 4 -S 1f2e3d -o small.png

  # Grow from three corners
  allcolour generate -s 256x128 -d 5 -p 0,0 -p 255,0 -p 128,127

  # Write every 4096th step as an xz-compressed PPM video stream
  allcolour generate -s 256x128 -d 5 --frames 4096 --stream frames.ppm.xz --xz

  # Preview in the terminal
  allcolour generate -s 128x64 -d 4 --preview -o /dev/null -f ppm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.VarP(&opts.size, "size", "s", "image size")
	flags.IntVarP(&opts.depth, "depth", "d", defaults.Depth, "bits per colour channel (1-8)")
	flags.StringVar(&opts.seedMode, "seed-mode", "", "seed mode (random, manual, phrase); inferred from --seed/--seed-phrase when empty")
	flags.StringVarP(&opts.seedValue, "seed", "S", "", "random seed in hex")
	flags.StringVar(&opts.seedPhrase, "seed-phrase", "", "derive the random seed from a phrase")
	flags.VarP(&opts.starts, "start", "p", "start point, may be repeated (default: centre)")
	flags.StringVar(&opts.seedPolicy, "seed-policy", string(placement.SeedFirst), "how start points take their colour (first, random)")
	flags.IntVarP(&opts.batch, "batch", "n", 4096, "placements per batch between progress reports")
	flags.StringVarP(&opts.output, "output", "o", "allcolour.png", "output image, - for stdout")
	flags.StringVarP(&opts.format, "format", "f", "", "output format (png, bmp, tiff, ppm); default from the output extension")
	flags.IntVar(&opts.frames, "frames", 0, "placements between frames written to --stream (0 disables)")
	flags.StringVar(&opts.stream, "stream", "", "write frames as a PPM stream to this path, - for stdout")
	flags.BoolVar(&opts.compress, "xz", false, "xz-compress the frame stream")
	flags.BoolVar(&opts.preview, "preview", false, "print the result in the terminal")
	flags.IntVar(&opts.columns, "preview-width", 0, "preview width in columns (default: terminal width)")
	flags.BoolVar(&opts.stats, "stats", false, "report neighbour colour distance statistics")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	logger := newLogger(cmd)

	builder := placement.NewBuilder().WithEnvConfig()
	flags := cmd.Flags()
	if flags.Changed("size") {
		builder.WithSize(opts.size.width, opts.size.height)
	}
	if flags.Changed("depth") {
		builder.WithDepth(opts.depth)
	}

	seedValue, err := resolveSeed(opts, builder.Config().Seed)
	if err != nil {
		return err
	}
	policy, err := placement.ParseSeedPolicy(opts.seedPolicy)
	if err != nil {
		return err
	}

	engine, err := builder.
		WithSeed(seedValue).
		WithStarts(opts.starts.points...).
		WithSeedPolicy(policy).
		WithLogger(logger.Named("engine")).
		Build()
	if err != nil {
		return err
	}

	format, err := outputFormat(opts)
	if err != nil {
		return err
	}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && opts.output == "-" && render.IsTerminal(f) {
		return fmt.Errorf("refusing to write binary image data to a terminal (use --output)")
	}

	g := engine.Grid()
	logger.Info("generating", "size", fmt.Sprintf("%dx%d", g.Width, g.Height),
		"seed", seed.Format(seedValue), "placements", engine.Progress().Total)

	var frameSink *render.PPMStream
	if opts.stream != "" {
		frameSink, err = openStream(cmd, opts)
		if err != nil {
			return err
		}
		defer frameSink.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	batch := opts.batch
	if frameSink != nil && opts.frames > 0 {
		batch = opts.frames
	}

	start := time.Now()
	runErr := engine.Run(ctx, batch, func(p placement.Progress) error {
		logger.Debug("progress", "placed", p.Done, "total", p.Total, "frontier", p.Frontier)
		if frameSink != nil && opts.frames > 0 {
			return frameSink.Render(engine.Snapshot())
		}
		return nil
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("generation failed: %w", runErr)
	}

	snap := engine.Snapshot()
	if errors.Is(runErr, context.Canceled) {
		logger.Warn("interrupted, writing partial image", "placed", snap.Len())
	}

	if frameSink != nil {
		if err := frameSink.Render(snap); err != nil {
			return err
		}
		if err := frameSink.Close(); err != nil {
			return err
		}
		logger.Info("frames written", "path", opts.stream, "frames", frameSink.Frames())
	}

	sinks := render.MultiSink{&render.FileSink{Path: opts.output, Format: format, Stdout: cmd.OutOrStdout()}}
	if opts.preview {
		preview := render.NewTerminalSink(opts.columns)
		preview.Out = cmd.ErrOrStderr()
		sinks = append(sinks, preview)
	}
	if err := sinks.Render(snap); err != nil {
		return err
	}

	logger.Info("done", "output", opts.output, "format", format,
		"placed", snap.Len(), "elapsed", time.Since(start).Round(time.Millisecond))

	if opts.stats {
		reportStats(logger, snap)
	}
	return runErr
}

// resolveSeed picks the seed from the flags, falling back to envSeed when
// ALLCOLOUR_SEED supplied one.
func resolveSeed(opts *generateOptions, envSeed uint64) (uint64, error) {
	mode := seed.Mode(opts.seedMode)
	if opts.seedMode == "" {
		switch {
		case opts.seedValue != "":
			mode = seed.ModeManual
		case opts.seedPhrase != "":
			mode = seed.ModePhrase
		case os.Getenv("ALLCOLOUR_SEED") != "":
			return envSeed, nil
		default:
			mode = seed.ModeRandom
		}
	} else if _, err := seed.ParseMode(opts.seedMode); err != nil {
		return 0, err
	}

	config := seed.Config{Mode: mode, Phrase: opts.seedPhrase}
	if opts.seedValue != "" {
		v, err := seed.ParseValue(opts.seedValue)
		if err != nil {
			return 0, err
		}
		config.Value = &v
	}
	return seed.Calculate(config)
}

func outputFormat(opts *generateOptions) (render.Format, error) {
	if opts.format != "" {
		return render.ParseFormat(opts.format)
	}
	return render.FormatFromPath(opts.output), nil
}

// writerOnly hides Close so the stream does not close stdout.
type writerOnly struct{ io.Writer }

func openStream(cmd *cobra.Command, opts *generateOptions) (*render.PPMStream, error) {
	if opts.stream == "-" {
		if opts.output == "-" {
			return nil, fmt.Errorf("--stream and --output cannot both write to stdout")
		}
		return render.NewPPMStream(writerOnly{cmd.OutOrStdout()}, opts.compress)
	}

	file, err := os.Create(opts.stream) // #nosec G304 - User-specified stream path
	if err != nil {
		return nil, fmt.Errorf("failed to create stream file: %w", err)
	}
	stream, err := render.NewPPMStream(file, opts.compress)
	if err != nil {
		file.Close()
		return nil, err
	}
	return stream, nil
}

func reportStats(logger hclog.Logger, snap *placement.Snapshot) {
	s := stats.Smoothness(snap)
	logger.Info("smoothness",
		"pixels", s.Pixels, "pairs", s.Pairs,
		"mean", fmt.Sprintf("%.2f", s.Mean), "stddev", fmt.Sprintf("%.2f", s.StdDev),
		"median", s.Median, "max", s.Max, "lab_mean", fmt.Sprintf("%.4f", s.LabMean))

	for i, sw := range stats.Dominant(snap, 5) {
		logger.Info("dominant colour", "rank", i+1, "colour", sw.Colour.Hex(), "weight", fmt.Sprintf("%.3f", sw.Weight))
	}
}
