package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nixgen/internal/buildpipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Generate Nix files for a project",
	Long: `Generate one .nix file per typed module found under [build].src and write
them, together with the gleam.nix prelude, to [build].out. The project is
located by searching for nixgen.toml upwards from [path] (default: .).`,
	Args: cobra.MaximumNArgs(1),
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().String("src", "", "directory of typed modules (overrides [build].src)")
	buildCmd.Flags().String("out", "", "output directory (overrides [build].out)")
	buildCmd.Flags().Int("jobs", 0, "parallel jobs, 0 = GOMAXPROCS")
	buildCmd.Flags().Int("line-width", 0, "target line width of generated code")
	buildCmd.Flags().Bool("enforce-targets", false, "reject functions without a Nix implementation")
	buildCmd.Flags().Bool("no-cache", false, "do not read or write the on-disk output cache")
	buildCmd.Flags().String("format", "pretty", "diagnostics format (pretty|short|json)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	startDir := "."
	if len(args) > 0 && args[0] != "" {
		startDir = args[0]
	}
	settings, err := loadBuildSettings(cmd, startDir)
	if err != nil {
		return err
	}
	cfg := settings.config

	var disk *buildpipeline.DiskCache
	if cfg.Cache {
		disk, err = buildpipeline.OpenDiskCache("nixgen")
		if err != nil && !opts.quiet {
			// без кэша сборка всё равно корректна
			fmt.Fprintf(os.Stderr, "warning: output cache disabled: %v\n", err)
		}
	}
	builder := buildpipeline.NewBuilder(disk)

	req := buildpipeline.Request{
		SrcDir:         cfg.SrcDir,
		OutDir:         cfg.OutDir,
		Jobs:           cfg.Jobs,
		LineWidth:      cfg.LineWidth,
		EnforceTargets: cfg.EnforceTargets,
		MaxDiagnostics: opts.maxDiags,
		BaseDir:        settings.root,
	}

	var res *buildpipeline.Result
	if shouldUseTUI(opts.ui, opts.quiet) {
		res, err = runBuildWithUI(cmd.Context(), "nixgen build", builder, &req)
	} else {
		res, err = builder.Build(cmd.Context(), &req)
	}
	if err != nil {
		if res != nil && opts.timings {
			printStageTimings(os.Stdout, res.Timings)
		}
		return err
	}

	if err := printDiagnostics(os.Stderr, res.Bag, res.FileSet, opts); err != nil {
		return err
	}
	if opts.timings && res.Timer != nil {
		fmt.Fprint(os.Stdout, res.Timer.Summary())
	}
	if !opts.quiet {
		printBuildSummary(os.Stdout, settings.root, cfg.OutDir, res)
	}
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func printBuildSummary(out io.Writer, root, outDir string, res *buildpipeline.Result) {
	var written, cached, broken int
	for _, m := range res.Modules {
		switch {
		case m.Broken:
			broken++
		case m.OutPath != "":
			written++
			if m.Cached {
				cached++
			}
		}
	}
	fmt.Fprintf(out, "generated %d of %d modules into %s", written, len(res.Modules), formatPathForOutput(root, outDir))
	if cached > 0 {
		fmt.Fprintf(out, " (%d cached)", cached)
	}
	if broken > 0 {
		fmt.Fprintf(out, ", %d failed", broken)
	}
	fmt.Fprintln(out)
}
