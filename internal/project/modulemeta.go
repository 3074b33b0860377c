package project

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"nixgen/internal/source"
	"nixgen/internal/tast"
)

type ImportMeta struct {
	Path string // имя импортируемого модуля: "a/b"
	Span source.Span
}

type ModuleMeta struct {
	Name        string      // имя модуля: "a/b"
	File        string      // путь к interchange файлу
	Span        source.Span // span объявления (первого определения)
	Imports     []ImportMeta
	ContentHash Digest // хеш interchange документа
	ModuleHash  Digest // агрегированный хеш с учётом зависимостей
}

var errInvalidModuleName = errors.New("invalid module name")

// IsValidModuleSegment reports whether seg is a lowercase identifier:
// [a-z][a-z0-9_]*.
func IsValidModuleSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= 'a' && c <= 'z':
		case i > 0 && (c == '_' || c >= '0' && c <= '9'):
		default:
			return false
		}
	}
	return true
}

// ValidateModuleName checks a slash separated module name such as
// "gleam/list".
func ValidateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", errInvalidModuleName)
	}
	for seg := range strings.SplitSeq(name, "/") {
		if !IsValidModuleSegment(seg) {
			return fmt.Errorf("%w %q: bad segment %q", errInvalidModuleName, name, seg)
		}
	}
	return nil
}

// OutputPath maps a module name to its file under the output root.
func OutputPath(name string) string {
	return name + ".nix"
}

// MetaFromModule collects the import metadata of a decoded module.
// Imports are sorted by path; repeated imports keep the first span.
func MetaFromModule(mod *tast.Module, file string, content Digest) ModuleMeta {
	meta := ModuleMeta{
		Name:        mod.Name,
		File:        file,
		ContentHash: content,
		ModuleHash:  content,
	}
	if len(mod.Definitions) > 0 {
		meta.Span = mod.Definitions[0].Span
	}
	seen := make(map[string]bool)
	for _, def := range mod.Definitions {
		imp, ok := def.Data.(tast.ImportData)
		if !ok || seen[imp.Module] {
			continue
		}
		seen[imp.Module] = true
		meta.Imports = append(meta.Imports, ImportMeta{Path: imp.Module, Span: def.Span})
	}
	slices.SortFunc(meta.Imports, func(a, b ImportMeta) int {
		return strings.Compare(a.Path, b.Path)
	})
	return meta
}
