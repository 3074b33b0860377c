package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nixgen/internal/buildpipeline"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <file>",
	Short: "Generate Nix for a single typed module",
	Long: `Generate Nix for a single typed-module file and print it to stdout
(or write it with -o). Imports are not resolved.`,
	Args: cobra.ExactArgs(1),
	RunE: compileExecution,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "write the result to a file instead of stdout")
	compileCmd.Flags().Int("line-width", 80, "target line width of generated code")
	compileCmd.Flags().Bool("enforce-targets", false, "reject functions without a Nix implementation")
	compileCmd.Flags().String("format", "pretty", "diagnostics format (pretty|short|json)")
}

func compileExecution(cmd *cobra.Command, args []string) error {
	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	width, err := cmd.Flags().GetInt("line-width")
	if err != nil {
		return err
	}
	if width <= 0 {
		return fmt.Errorf("--line-width must be positive, got %d", width)
	}
	enforce, err := cmd.Flags().GetBool("enforce-targets")
	if err != nil {
		return err
	}

	res, err := buildpipeline.Compile(cmd.Context(), &buildpipeline.CompileRequest{
		Path:           args[0],
		LineWidth:      width,
		EnforceTargets: enforce,
		MaxDiagnostics: opts.maxDiags,
	})
	if err != nil {
		return err
	}
	if err := printDiagnostics(os.Stderr, res.Bag, res.FileSet, opts); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return errDiagnostics
	}

	if output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), res.Output)
		return err
	}
	if err := os.WriteFile(output, []byte(res.Output), 0o644); err != nil { // #nosec G306 -- generated source is not secret
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if !opts.quiet {
		fmt.Fprintf(os.Stdout, "wrote %s (module %s)\n", output, res.Module)
	}
	return nil
}
