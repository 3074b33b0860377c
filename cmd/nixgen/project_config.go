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

const noManifestMessage = "no " + project.ManifestName + " found\nrun `nixgen init` or pass --src and --out explicitly"

// buildSettings is the manifest's [build] section with flag overrides
// applied.
type buildSettings struct {
	root   string
	name   string
	config project.BuildConfig
}

// loadBuildSettings finds the manifest above startDir. Without one, the
// build runs from --src/--out relative to the working directory.
func loadBuildSettings(cmd *cobra.Command, startDir string) (*buildSettings, error) {
	path, ok, err := project.FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	var s buildSettings
	if ok {
		m, err := project.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		s = buildSettings{root: m.Root, name: m.Name, config: m.Build}
	} else {
		if !cmd.Flags().Changed("src") || !cmd.Flags().Changed("out") {
			return nil, errors.New(noManifestMessage)
		}
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		s = buildSettings{root: wd, config: project.DefaultBuild(wd)}
	}
	if err := applyBuildFlags(cmd, &s.config); err != nil {
		return nil, err
	}
	return &s, nil
}

// applyBuildFlags overrides cfg with the flags set on the command line.
func applyBuildFlags(cmd *cobra.Command, cfg *project.BuildConfig) error {
	flags := cmd.Flags()
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if flags.Changed("src") {
		v, _ := flags.GetString("src")
		cfg.SrcDir = absFrom(wd, v)
	}
	if flags.Changed("out") {
		v, _ := flags.GetString("out")
		cfg.OutDir = absFrom(wd, v)
	}
	if flags.Changed("jobs") {
		v, _ := flags.GetInt("jobs")
		if v < 0 {
			return fmt.Errorf("--jobs must be >= 0, got %d", v)
		}
		cfg.Jobs = v
	}
	if flags.Changed("line-width") {
		v, _ := flags.GetInt("line-width")
		if v <= 0 {
			return fmt.Errorf("--line-width must be positive, got %d", v)
		}
		cfg.LineWidth = v
	}
	if flags.Changed("enforce-targets") {
		cfg.EnforceTargets, _ = flags.GetBool("enforce-targets")
	}
	if flags.Changed("no-cache") {
		noCache, _ := flags.GetBool("no-cache")
		cfg.Cache = cfg.Cache && !noCache
	}
	return nil
}

func absFrom(wd, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(wd, p)
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
