package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nixgen/internal/backend/nix"
	"nixgen/internal/buildpipeline"
	"nixgen/internal/project"
)

const utilUnit = `module: util
definitions:
  - public: true
    function: {name: one, body: [{expr: {int: "1"}}]}
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	shutdown(os.Stderr)
	return out.String(), err
}

func TestReadSwitch(t *testing.T) {
	cases := map[string]switchMode{"": modeAuto, "AUTO": modeAuto, "on": modeOn, " off ": modeOff}
	for in, want := range cases {
		got, err := readSwitch("ui", in)
		if err != nil || got != want {
			t.Errorf("readSwitch(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readSwitch("color", "always"); err == nil || !strings.Contains(err.Error(), "--color") {
		t.Fatalf("expected --color error, got %v", err)
	}
}

func TestFormatPathForOutput(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "proj")
	if got := formatPathForOutput(root, filepath.Join(root, "build", "nix")); got != "build/nix" {
		t.Fatalf("got %q", got)
	}
	outside := filepath.Join(string(filepath.Separator), "elsewhere")
	if got := formatPathForOutput(root, outside); got != outside {
		t.Fatalf("got %q", got)
	}
}

func TestDefaultManifestLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(defaultManifest("demo")), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := project.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Name != "demo" || m.Build.SrcDir != filepath.Join(m.Root, project.DefaultSrcDir) {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestPrintStageTimings(t *testing.T) {
	var tm buildpipeline.Timings
	tm.Set(buildpipeline.StageLoad, 2*time.Millisecond)
	tm.Set(buildpipeline.StageWrite, time.Millisecond)
	var out bytes.Buffer
	printStageTimings(&out, tm)
	want := "load     2.0 ms\nwrite    1.0 ms\ntotal    3.0 ms\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestExitCodeOf(t *testing.T) {
	if exitCodeOf(errDiagnostics) != 1 {
		t.Fatal("diagnostics must exit with 1")
	}
	if exitCodeOf(errors.New("boom")) != 1 {
		t.Fatal("plain errors must exit with 1")
	}
}

func TestInitThenBuild(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "demo")

	out, err := runCLI(t, "--ui=off", "--color=off", "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, project.ManifestName) {
		t.Fatalf("init output: %q", out)
	}
	if _, err := runCLI(t, "init", dir); err == nil {
		t.Fatal("second init must fail")
	}

	unit := filepath.Join(dir, project.DefaultSrcDir, "util.yaml")
	if err := os.WriteFile(unit, []byte(utilUnit), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "--ui=off", "--quiet", "build", dir); err != nil {
		t.Fatalf("build: %v", err)
	}
	outDir := filepath.Join(dir, project.DefaultOutDir)
	data, err := os.ReadFile(filepath.Join(outDir, "util.nix"))
	if err != nil {
		t.Fatalf("util.nix: %v", err)
	}
	if !strings.Contains(string(data), "inherit one;") {
		t.Fatalf("unexpected output:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(outDir, nix.PreludeFile)); err != nil {
		t.Fatalf("prelude not written: %v", err)
	}

	if _, err := runCLI(t, "--quiet", "clean", dir); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Fatalf("output directory survived clean: %v", err)
	}
}

func TestBuildReportsErrors(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	manifest := "[package]\nname = \"bad\"\n[build]\ncache = false\n"
	if err := os.WriteFile(filepath.Join(dir, project.ManifestName), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, project.DefaultSrcDir)
	if err := os.MkdirAll(src, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "bad.yaml"), []byte("module: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, "--ui=off", "--quiet", "--color=off", "build", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("expected diagnostics error, got %v", err)
	}
}

func TestCompileAndPrelude(t *testing.T) {
	path := filepath.Join(t.TempDir(), "util.yaml")
	if err := os.WriteFile(path, []byte(utilUnit), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "--ui=off", "compile", path)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if out != "let\n  one = { }: 1;\nin\n{ inherit one; }\n" {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = runCLI(t, "prelude")
	if err != nil {
		t.Fatalf("prelude: %v", err)
	}
	if out != nix.Prelude() {
		t.Fatal("prelude output differs from the embedded prelude")
	}
}
