package project

import (
	"errors"
	"testing"

	"nixgen/internal/source"
	"nixgen/internal/tast"
)

func TestValidateModuleName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"app", true},
		{"gleam/list", true},
		{"app/internal/v2_codec", true},
		{"", false},
		{"App", false},
		{"app//x", false},
		{"/app", false},
		{"app/", false},
		{"2fast", false},
		{"_hidden", false},
		{"app/my-mod", false},
	}
	for _, tt := range tests {
		err := ValidateModuleName(tt.name)
		if tt.ok && err != nil {
			t.Errorf("ValidateModuleName(%q) = %v, want nil", tt.name, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("ValidateModuleName(%q) = nil, want error", tt.name)
			} else if !errors.Is(err, errInvalidModuleName) {
				t.Errorf("ValidateModuleName(%q) error %v does not wrap errInvalidModuleName", tt.name, err)
			}
		}
	}
}

func TestMetaFromModuleSortsAndDedupsImports(t *testing.T) {
	first := source.Span{File: 1, Start: 0, End: 12}
	mod := &tast.Module{
		Name: "app/main",
		Definitions: []*tast.Definition{
			{Kind: tast.DefImport, Span: first, Data: tast.ImportData{Module: "gleam/list"}},
			{Kind: tast.DefImport, Span: source.Span{File: 1, Start: 13, End: 30}, Data: tast.ImportData{Module: "app/util"}},
			{Kind: tast.DefImport, Span: source.Span{File: 1, Start: 31, End: 50}, Data: tast.ImportData{Module: "gleam/list", Alias: "l"}},
		},
	}
	content := HashBytes([]byte("doc"))
	meta := MetaFromModule(mod, "typed/main.yaml", content)

	if meta.Name != "app/main" || meta.File != "typed/main.yaml" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if meta.Span != first {
		t.Fatalf("span = %v, want %v", meta.Span, first)
	}
	if len(meta.Imports) != 2 {
		t.Fatalf("imports = %v", meta.Imports)
	}
	if meta.Imports[0].Path != "app/util" || meta.Imports[1].Path != "gleam/list" {
		t.Fatalf("imports not sorted: %v", meta.Imports)
	}
	if meta.Imports[1].Span != first {
		t.Fatalf("repeated import should keep the first span, got %v", meta.Imports[1].Span)
	}
	if meta.ContentHash != content || meta.ModuleHash != content {
		t.Fatalf("hashes not initialised from content")
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("gleam/list"); got != "gleam/list.nix" {
		t.Fatalf("OutputPath = %q", got)
	}
}

func TestOptionsDigest(t *testing.T) {
	base := OptionsDigest("1.0.0", 80, false)
	if base != OptionsDigest("1.0.0", 80, false) {
		t.Fatalf("digest is not deterministic")
	}
	for _, other := range []Digest{
		OptionsDigest("1.0.1", 80, false),
		OptionsDigest("1.0.0", 100, false),
		OptionsDigest("1.0.0", 80, true),
	} {
		if other == base {
			t.Fatalf("settings change did not change the digest")
		}
	}
}
