package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing in the manifest.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing or empty.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

// Defaults for the [build] section.
const (
	DefaultSrcDir    = "typed"
	DefaultOutDir    = "build/nix"
	DefaultLineWidth = 80
)

// BuildConfig is the resolved [build] section. Paths are absolute.
type BuildConfig struct {
	SrcDir         string
	OutDir         string
	Jobs           int // 0 = GOMAXPROCS
	LineWidth      int
	EnforceTargets bool
	Cache          bool
}

// Manifest is a decoded nixgen.toml.
type Manifest struct {
	Path  string // absolute path of the manifest file
	Root  string // directory holding the manifest
	Name  string
	Build BuildConfig
}

type manifestFile struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Build struct {
		Src            string `toml:"src"`
		Out            string `toml:"out"`
		Jobs           int    `toml:"jobs"`
		LineWidth      int    `toml:"line_width"`
		EnforceTargets bool   `toml:"enforce_targets"`
		Cache          bool   `toml:"cache"`
	} `toml:"build"`
}

// DefaultBuild returns the [build] settings of a manifest that omits the
// section, with paths resolved against root.
func DefaultBuild(root string) BuildConfig {
	return BuildConfig{
		SrcDir:    filepath.Join(root, DefaultSrcDir),
		OutDir:    filepath.Join(root, DefaultOutDir),
		LineWidth: DefaultLineWidth,
		Cache:     true,
	}
}

// LoadManifest parses nixgen.toml at path.
func LoadManifest(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	var cfg manifestFile
	meta, err := toml.DecodeFile(abs, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", abs, ErrPackageSectionMissing)
	}
	name := strings.TrimSpace(cfg.Package.Name)
	if !meta.IsDefined("package", "name") || name == "" {
		return nil, fmt.Errorf("%s: %w", abs, ErrPackageNameMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", abs, undecoded[0].String())
	}

	root := filepath.Dir(abs)
	m := &Manifest{Path: abs, Root: root, Name: name, Build: DefaultBuild(root)}
	b := &m.Build
	if meta.IsDefined("build", "src") {
		if strings.TrimSpace(cfg.Build.Src) == "" {
			return nil, fmt.Errorf("%s: [build].src must not be empty", abs)
		}
		b.SrcDir = resolve(root, cfg.Build.Src)
	}
	if meta.IsDefined("build", "out") {
		if strings.TrimSpace(cfg.Build.Out) == "" {
			return nil, fmt.Errorf("%s: [build].out must not be empty", abs)
		}
		b.OutDir = resolve(root, cfg.Build.Out)
	}
	if meta.IsDefined("build", "jobs") {
		if cfg.Build.Jobs < 0 {
			return nil, fmt.Errorf("%s: [build].jobs must be >= 0, got %d", abs, cfg.Build.Jobs)
		}
		b.Jobs = cfg.Build.Jobs
	}
	if meta.IsDefined("build", "line_width") {
		if cfg.Build.LineWidth <= 0 {
			return nil, fmt.Errorf("%s: [build].line_width must be positive, got %d", abs, cfg.Build.LineWidth)
		}
		b.LineWidth = cfg.Build.LineWidth
	}
	if meta.IsDefined("build", "enforce_targets") {
		b.EnforceTargets = cfg.Build.EnforceTargets
	}
	if meta.IsDefined("build", "cache") {
		b.Cache = cfg.Build.Cache
	}
	return m, nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
