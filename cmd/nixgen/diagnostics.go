package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nixgen/internal/diag"
	"nixgen/internal/diagfmt"
	"nixgen/internal/source"
)

type outputOptions struct {
	format   string
	color    bool
	quiet    bool
	timings  bool
	maxDiags int
	ui       switchMode
}

func readOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	flags := cmd.Root().PersistentFlags()
	var opts outputOptions
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	colorMode, err := readSwitch("color", colorFlag)
	if err != nil {
		return opts, err
	}
	uiFlag, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readSwitch("ui", uiFlag); err != nil {
		return opts, err
	}
	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiags, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if f := cmd.Flags().Lookup("format"); f != nil {
		opts.format = f.Value.String()
	}
	if opts.format == "" {
		opts.format = "pretty"
	}
	switch opts.format {
	case "pretty", "short", "json":
	default:
		return opts, fmt.Errorf("unknown format: %s (expected pretty|short|json)", opts.format)
	}
	opts.color = shouldUseColor(colorMode, os.Stderr)
	return opts, nil
}

// printDiagnostics renders bag in the selected format. Warnings are
// dropped in quiet mode.
func printDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts outputOptions) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	if opts.quiet && !bag.HasErrors() {
		return nil
	}
	switch opts.format {
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			Max:              opts.maxDiags,
			IncludeNotes:     true,
		}
		if err := diagfmt.JSON(w, bag, fs, jsonOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "short":
		diagfmt.Short(w, bag, fs, diagfmt.PrettyOpts{Color: opts.color, Max: opts.maxDiags})
	default:
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     opts.color,
			Context:   1,
			PathMode:  diagfmt.PathModeAuto,
			ShowNotes: true,
			Max:       opts.maxDiags,
		})
	}
	return nil
}
