package cli

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/allcolour/internal/colour"
	"github.com/jmylchreest/allcolour/internal/placement"
	"github.com/jmylchreest/allcolour/internal/seed"
)

// paletteOptions holds the palette command flags.
type paletteOptions struct {
	depth   int
	format  string
	preview bool
	shuffle bool
	seed    string
}

func newPaletteCmd() *cobra.Command {
	opts := &paletteOptions{}

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "List the colours of a palette",
		Long: `List every colour available at a channel depth, in generation order or in
the shuffled order a run would consume them (last colour first).

Examples:
  # The 8 colours of a 1-bit palette
  allcolour palette -d 1

  # With colour swatches
  allcolour palette -d 2 --preview

  # Shuffled as the generator would with seed 1f
  allcolour palette -d 2 --shuffle -S 1f --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPalette(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 2, "bits per colour channel (1-8)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "hex", "output format (hex, rgb, table, json)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "show colour previews in terminal")
	cmd.Flags().BoolVar(&opts.shuffle, "shuffle", false, "shuffle the palette as a run would")
	cmd.Flags().StringVarP(&opts.seed, "seed", "S", "", "random seed in hex for --shuffle")

	return cmd
}

func runPalette(cmd *cobra.Command, opts *paletteOptions) error {
	var palette *colour.Palette
	if opts.shuffle {
		seedValue := seed.GenerateRandomSeed()
		if opts.seed != "" {
			v, err := seed.ParseValue(opts.seed)
			if err != nil {
				return err
			}
			seedValue = v
		}
		p, err := colour.NewPalette(opts.depth, rand.New(placement.NewSource(seedValue)))
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		palette = p
	} else {
		colours, err := colour.Generate(opts.depth)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		palette = &colour.Palette{Colours: colours}
	}

	output, err := formatPalette(palette, opts.format, opts.preview)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// formatPalette formats the palette according to the specified format.
func formatPalette(palette *colour.Palette, format string, showPreview bool) (string, error) {
	switch format {
	case "hex":
		return formatHex(palette, showPreview), nil
	case "rgb":
		return formatRGB(palette, showPreview), nil
	case "table":
		return formatTable(palette), nil
	case "json":
		jsonBytes, err := palette.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(jsonBytes) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: hex, rgb, table, json)", format)
	}
}

// formatHex formats the palette as hex colour codes.
func formatHex(palette *colour.Palette, showPreview bool) string {
	var b strings.Builder
	for _, c := range palette.All() {
		if showPreview {
			b.WriteString(colour.FormatColourWithPreview(c, 8))
		} else {
			b.WriteString(c.Hex())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// formatRGB formats the palette as RGB values.
func formatRGB(palette *colour.Palette, showPreview bool) string {
	var b strings.Builder
	for _, c := range palette.All() {
		if showPreview {
			b.WriteString(colour.FormatColourWithPreview(c, 8) + "  ")
		}
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// formatTable lists the palette with indices and both notations.
func formatTable(palette *colour.Palette) string {
	table := NewTable("#", "HEX", "RGB")
	for i, c := range palette.All() {
		table.AddRow(strconv.Itoa(i), c.Hex(), c.String())
	}
	return table.Render()
}
