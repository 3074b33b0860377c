package diagfmt

import (
	"path/filepath"
	"strings"

	"nixgen/internal/source"
)

func formatPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeRelative:
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			return f.Path
		}
		if rel, err := filepath.Rel(fs.BaseDir(), abs); err == nil {
			return filepath.ToSlash(rel)
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		if !filepath.IsAbs(f.Path) {
			return f.Path
		}
		if rel, err := filepath.Rel(fs.BaseDir(), f.Path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
		return filepath.Base(f.Path)
	}
}

// located reports whether sp points into real text. Spans of modules
// without source text resolve to empty virtual files.
func located(fs *source.FileSet, sp source.Span) (*source.File, bool) {
	if fs == nil {
		return nil, false
	}
	f := fs.Get(sp.File)
	if f == nil {
		return nil, false
	}
	if len(f.Content) == 0 && f.Flags&source.FileVirtual != 0 {
		return f, false
	}
	return f, int(sp.End) <= len(f.Content)
}
