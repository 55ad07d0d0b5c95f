// Package cli provides the command-line interface for allcolour.
package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/allcolour/internal/version"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "allcolour",
		Short: "Paint an image that uses every colour exactly once",
		Long: `allcolour grows an image outward from one or more start points, placing
each colour of an exhaustive RGB palette next to the boundary pixel whose colour
is the closest match. Every colour is used exactly once, and the result is a
smooth, fractal-like gradient rather than noise.`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newPaletteCmd())

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns the application logger configured from the global flags.
func newLogger(cmd *cobra.Command) hclog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := hclog.Info
	switch {
	case quiet:
		level = hclog.Error
	case verbose:
		level = hclog.Debug
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "allcolour",
		Output: cmd.ErrOrStderr(),
		Level:  level,
		Color:  hclog.AutoColor,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
