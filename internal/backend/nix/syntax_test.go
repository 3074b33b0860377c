package nix

import (
	"errors"
	"strings"
	"testing"

	"nixgen/internal/source"
)

func TestIntLiteral(t *testing.T) {
	cases := map[string]string{
		"42":                   "42",
		"1_000":                "1000",
		"0xFF":                 "255",
		"0o17":                 "15",
		"0b101":                "5",
		"-0x10":                "-16",
		"007":                  "7",
		"-9223372036854775807": "-9223372036854775807",
		"-9223372036854775808": "(-9223372036854775807 - 1)",
		"-0x8000000000000000":  "(-9223372036854775807 - 1)",
	}
	for in, want := range cases {
		got, err := intLiteral(in, source.Span{})
		if err != nil {
			t.Errorf("%s: unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%s: got %s, want %s", in, got, want)
		}
	}
	var rangeErr *IntRangeError
	if _, err := intLiteral("9223372036854775808", source.Span{}); !errors.As(err, &rangeErr) {
		t.Fatalf("expected IntRangeError, got %v", err)
	}
}

func TestFloatLiteralNormalization(t *testing.T) {
	cases := map[string]string{
		"2.5":                    "2.5",
		"3.":                     "3.0",
		"1_000.0":                "1000.0",
		"1e10":                   "1.0e+10",
		"1.5e-7":                 "1.5e-07",
		"-0.25":                  "-0.25",
		"1.7976931348623157e308": "1.7976931348623157e+308",
	}
	for in, want := range cases {
		got, err := floatLiteral(in, source.Span{})
		if err != nil {
			t.Errorf("%s: unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%s: got %s, want %s", in, got, want)
		}
	}
}

func TestFloatLiteralRange(t *testing.T) {
	for _, in := range []string{"1.7976931348623158e308", "1.8e308", "-1.8e308", "1e400"} {
		var rangeErr *FloatRangeError
		if _, err := floatLiteral(in, source.Span{}); !errors.As(err, &rangeErr) {
			t.Errorf("%s: expected FloatRangeError, got %v", in, err)
		}
	}
}

func TestQuoteString(t *testing.T) {
	got, err := quoteString("a\"b\\c\n${x} $y", source.Span{})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	want := `"a\"b\\c\n\${x} $y"`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	var unsup *UnsupportedError
	if _, err := quoteString("a\x00b", source.Span{}); !errors.As(err, &unsup) {
		t.Fatalf("expected UnsupportedError for NUL, got %v", err)
	}
}

func TestEscapeNames(t *testing.T) {
	if got := escapeName("with"); got != "with'" {
		t.Errorf("escapeName(with) = %q", got)
	}
	if got := escapeName("value"); got != "value" {
		t.Errorf("escapeName(value) = %q", got)
	}
	if got := attrName("inherit"); got != `"inherit"` {
		t.Errorf("attrName(inherit) = %q", got)
	}
	if got := fieldAttr([]string{"name", ""}, 1); got != "_1" {
		t.Errorf("fieldAttr positional = %q", got)
	}
}

func TestRelativePath(t *testing.T) {
	if got := relativePath("app", "gleam.nix"); got != "./gleam.nix" {
		t.Errorf("got %q", got)
	}
	if got := relativePath("a/b/c", "x/y.nix"); got != "./../../x/y.nix" {
		t.Errorf("got %q", got)
	}
}

func TestPreludeHelpersSorted(t *testing.T) {
	for i := 1; i < len(preludeHelpers); i++ {
		if preludeHelpers[i-1] >= preludeHelpers[i] {
			t.Fatalf("helpers not sorted at %q", preludeHelpers[i])
		}
	}
	for _, h := range preludeHelpers {
		if !isPreludeHelper(h) {
			t.Fatalf("isPreludeHelper(%q) = false", h)
		}
	}
	src := Prelude()
	i := strings.LastIndex(src, "\nin\n{")
	if i < 0 {
		t.Fatalf("embedded prelude has no export set")
	}
	exported := make(map[string]bool)
	for _, f := range strings.Fields(src[i:]) {
		exported[strings.TrimSuffix(f, ";")] = true
	}
	for _, h := range preludeHelpers {
		if !exported[h] {
			t.Errorf("prelude does not export %s", h)
		}
	}
}
