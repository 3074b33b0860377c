package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nixgen/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a nixgen project",
	Long: `Create a nixgen.toml manifest and an empty typed-module directory. If
[path|name] is omitted, initializes the current directory; a non-existing
name is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) > 0 && args[0] != "." {
		target = absFrom(wd, args[0])
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	name := projectName(target)
	if err := os.WriteFile(manifestPath, []byte(defaultManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	srcDir := filepath.Join(target, project.DefaultSrcDir)
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", srcDir, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized nixgen project %q in %s\n", name, formatPathForOutput(wd, target))
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	fmt.Fprintf(out, "  - %s/\n", project.DefaultSrcDir)
	return nil
}

// projectName derives the package name from the directory, falling back
// to "nix-project" for names nothing can be made of.
func projectName(dir string) string {
	name := strings.TrimSpace(filepath.Base(dir))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "nix-project"
	}
	return name
}

func defaultManifest(name string) string {
	return fmt.Sprintf(`# nixgen project manifest
[package]
name = %q

[build]
src = %q
out = %q
line_width = %d
`, name, project.DefaultSrcDir, project.DefaultOutDir, project.DefaultLineWidth)
}
