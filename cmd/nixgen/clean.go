package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nixgen/internal/buildpipeline"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove generated Nix files",
	Long: `Remove the project's output directory ([build].out). With --cache the
shared on-disk output cache is dropped as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().Bool("cache", false, "also drop the on-disk output cache")
}

func runClean(cmd *cobra.Command, args []string) error {
	startDir := "."
	if len(args) > 0 && args[0] != "" {
		startDir = args[0]
	}
	settings, err := loadBuildSettings(cmd, startDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	outDir := settings.config.OutDir

	info, err := os.Stat(outDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(out, "output directory not found\n")
	case err != nil:
		return fmt.Errorf("failed to stat %q: %w", outDir, err)
	case !info.IsDir():
		return fmt.Errorf("%q is not a directory", outDir)
	default:
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("failed to remove %q: %w", outDir, err)
		}
		fmt.Fprintf(out, "removed %s\n", formatPathForOutput(settings.root, outDir))
	}

	dropCache, err := cmd.Flags().GetBool("cache")
	if err != nil || !dropCache {
		return err
	}
	cache, err := buildpipeline.OpenDiskCache("nixgen")
	if err != nil {
		return fmt.Errorf("failed to open output cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop output cache: %w", err)
	}
	fmt.Fprintf(out, "dropped cache %s\n", cache.Dir())
	return nil
}
