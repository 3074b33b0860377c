package buildpipeline

import (
	"context"
	"testing"

	"nixgen/internal/diag"
)

func TestCompileSingleFile(t *testing.T) {
	path := writeUnit(t, t.TempDir(), "util.yaml", utilUnit)
	res, err := Compile(context.Background(), &CompileRequest{Path: path, MaxDiagnostics: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Module != "util" || res.Bag.Len() != 0 {
		t.Fatalf("unexpected result: %+v %v", res, res.Bag.Items())
	}
	want := "let\n  one = { }: 1;\nin\n{ inherit one; }\n"
	if res.Output != want {
		t.Fatalf("output:\n%s\nwant:\n%s", res.Output, want)
	}
}

func TestCompileReportsDiagnostics(t *testing.T) {
	path := writeUnit(t, t.TempDir(), "bad.yaml", "module: bad\ndefinitions:\n  - const: {name: c, value: {int: \"9223372036854775808\"}}\n")
	res, err := Compile(context.Background(), &CompileRequest{Path: path, MaxDiagnostics: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Output != "" || res.Bag.Len() != 1 || res.Bag.Items()[0].Code != diag.GenIntOutOfRange {
		t.Fatalf("unexpected result: %q %v", res.Output, res.Bag.Items())
	}
}

func TestCompileMissingFile(t *testing.T) {
	if _, err := Compile(context.Background(), &CompileRequest{Path: "/nonexistent/x.yaml"}); err == nil {
		t.Fatalf("expected an error")
	}
}
