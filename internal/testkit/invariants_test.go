package testkit

import (
	"strings"
	"testing"

	"nixgen/internal/source"
	"nixgen/internal/tast"
)

func TestCheckModuleSpans(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.gleam", []byte("pub fn f() { 1 }\n"))
	file := fs.Get(id)

	def := tast.Fun("f", true, nil, tast.Do(tast.Int("1")))
	def.Span = source.Span{File: id, Start: 0, End: 16}
	mod := &tast.Module{Name: "m", Definitions: []*tast.Definition{def}}
	if err := CheckModuleSpans(mod, file); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def.Span.End = 99
	if err := CheckModuleSpans(mod, file); err == nil || !strings.Contains(err.Error(), "beyond content") {
		t.Fatalf("expected out-of-bounds error, got %v", err)
	}

	def.Span = source.Span{File: id + 1, Start: 0, End: 4}
	if err := CheckModuleSpans(mod, file); err == nil || !strings.Contains(err.Error(), "file mismatch") {
		t.Fatalf("expected file mismatch, got %v", err)
	}

	// без файла проверяется только порядок границ
	def.Span = source.Span{Start: 5, End: 2}
	if err := CheckModuleSpans(mod, nil); err == nil || !strings.Contains(err.Error(), "inverted") {
		t.Fatalf("expected inverted span error, got %v", err)
	}
	if err := CheckModuleSpans(nil, nil); err == nil {
		t.Fatal("nil module must be rejected")
	}
}
