package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func override(t *testing.T, v, commit, date string) {
	t.Helper()
	origV, origC, origD := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origV, origC, origD
	})
}

func TestBannerPlain(t *testing.T) {
	override(t, "1.2.3", "abc123", "2026-01-15T10:30:00Z")

	want := "nixgen 1.2.3\ncommit: abc123\nbuilt:  2026-01-15T10:30:00Z\n"
	if got := Banner(false); got != want {
		t.Fatalf("Banner = %q, want %q", got, want)
	}
}

func TestBannerOmitsEmptyFields(t *testing.T) {
	override(t, "1.2.3", "", "")
	if got := Banner(false); got != "nixgen 1.2.3\n" {
		t.Fatalf("Banner = %q", got)
	}
}

func TestColoredKeepsSuffix(t *testing.T) {
	override(t, "0.4.1-rc1", "", "")
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	got := Colored()
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected escape codes in %q", got)
	}
	if !strings.HasSuffix(got, "-rc1") {
		t.Fatalf("suffix lost: %q", got)
	}
}

func TestColoredFallsBackForOddVersions(t *testing.T) {
	override(t, "nightly", "", "")
	if got := Colored(); got != "nightly" {
		t.Fatalf("Colored = %q", got)
	}
}
