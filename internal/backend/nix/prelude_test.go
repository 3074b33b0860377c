package nix

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"nixgen/internal/bitarray"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

// preludeDir writes the prelude (and optional generated modules) into a
// fresh directory and skips when no Nix evaluator is installed.
func preludeDir(t *testing.T, modules map[string]string) string {
	t.Helper()
	if _, err := exec.LookPath("nix-instantiate"); err != nil {
		t.Skip("nix-instantiate not installed; skipping prelude evaluation tests")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, PreludeFile), []byte(Prelude()), 0o600); err != nil {
		t.Fatalf("write prelude: %v", err)
	}
	for name, src := range modules {
		if err := os.WriteFile(filepath.Join(dir, name+".nix"), []byte(src), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func nixEval(dir, expr string) (string, error) {
	cmd := exec.Command("nix-instantiate", "--eval", "--strict", "--json", "--readonly-mode",
		"-E", "let p = import ./"+PreludeFile+"; in "+expr)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

func mustEval(t *testing.T, dir, expr string) string {
	t.Helper()
	out, err := nixEval(dir, expr)
	if err != nil {
		t.Fatalf("eval %s: %v", expr, err)
	}
	return out
}

func bitList(b bitarray.BitArray) string {
	parts := make([]string, b.BitLen)
	for i := range b.BitLen {
		parts[i] = fmt.Sprint(b.Bit(i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestPreludeSizedIntMatchesEncoder(t *testing.T) {
	dir := preludeDir(t, nil)
	cases := []struct {
		value int64
		size  int
		big   bool
	}{
		{5, 3, true},
		{-1, 8, true},
		{0x1234, 16, true},
		{0x1234, 16, false},
		{-300, 24, false},
		{3000000000, 32, false},
	}
	for _, c := range cases {
		endian := bitarray.BigEndian
		if !c.big {
			endian = bitarray.LittleEndian
		}
		want, err := bitarray.Encode([]bitarray.Segment{{
			Shape: bitarray.Shape{Kind: bitarray.KindInt, Size: c.size, Endian: endian},
			Value: bitarray.Value{Int: big.NewInt(c.value)},
		}})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got := mustEval(t, dir, fmt.Sprintf("p.sizedInt (%d) %d %t", c.value, c.size, c.big))
		if got != bitList(want) {
			t.Errorf("sizedInt %d %d %t = %s, want %s", c.value, c.size, c.big, got, bitList(want))
		}

		back := mustEval(t, dir, fmt.Sprintf("p.bitArraySliceToInt (p.toBitArray [ (p.sizedInt (%d) %d %t) ]) 0 %d %t %t",
			c.value, c.size, c.big, c.size, c.big, c.value < 0))
		if back != fmt.Sprint(c.value) {
			t.Errorf("slice back %d %d %t = %s", c.value, c.size, c.big, back)
		}
	}
}

func TestPreludeLittleEndianNeedsWholeBytes(t *testing.T) {
	dir := preludeDir(t, nil)
	for _, expr := range []string{
		"p.sizedInt 1 12 false",
		"p.bitArraySliceToInt (p.bitArrayFromBytes [ 1 2 ] 16) 0 12 false false",
	} {
		_, err := nixEval(dir, expr)
		if err == nil || !strings.Contains(err.Error(), "not a whole number of bytes") {
			t.Errorf("%s: expected a whole-bytes error, got %v", expr, err)
		}
	}
}

func TestPreludeStringBits(t *testing.T) {
	dir := preludeDir(t, nil)
	for _, s := range []string{"hi", "hé€", "\"quoted\" \\ 𝄞", "\x01\x7f"} {
		lit, err := quoteString(s, source.Span{})
		if err != nil {
			t.Fatalf("quote %q: %v", s, err)
		}
		got := mustEval(t, dir, "p.stringBits "+lit)
		if want := bitList(bitarray.FromBytes([]byte(s))); got != want {
			t.Errorf("stringBits %q = %s, want %s", s, got, want)
		}
	}
}

func TestPreludeCodepoints(t *testing.T) {
	dir := preludeDir(t, nil)
	width := func(data []byte, start int) string {
		return mustEval(t, dir, fmt.Sprintf("p.bitArrayCodepointWidth (p.bitArrayFromBytes %s %d) %d",
			nixBytes(data), len(data)*8, start))
	}
	euroA := []byte("€A")
	if got := width(euroA, 0); got != "24" {
		t.Fatalf("width of euro = %s", got)
	}
	if got := width(euroA, 24); got != "8" {
		t.Fatalf("width of A = %s", got)
	}
	cp := mustEval(t, dir, fmt.Sprintf("p.bitArraySliceCodepoint (p.bitArrayFromBytes %s 32) 0 24", nixBytes(euroA)))
	if cp != "8364" {
		t.Fatalf("euro codepoint = %s", cp)
	}
	for name, data := range map[string][]byte{
		"continuation lead": {0x80},
		"truncated":         {0xE2, 0x82},
		"surrogate":         {0xED, 0xA0, 0x80},
		"overlong":          {0xE0, 0x80, 0x80},
		"bad continuation":  {0xC3, 0x41},
		"past the end":      {},
	} {
		if got := width(data, 0); got != "0" {
			t.Errorf("%s: width = %s, want 0", name, got)
		}
	}

	want := bitList(bitarray.FromBytes([]byte("😀")))
	if got := mustEval(t, dir, "p.codepointBits 128512"); got != want {
		t.Fatalf("codepointBits 128512 = %s, want %s", got, want)
	}
}

func nixBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprint(b)
	}
	return "[ " + strings.Join(parts, " ") + " ]"
}

// A generated codepoint pattern and a dynamic utf8 segment evaluate end to
// end against the prelude.
func TestGeneratedBitArrayCodeEvaluates(t *testing.T) {
	b := tast.Local("b", tast.BitsType)
	c := tast.Local("c", tast.IntType)
	s := tast.Local("s", tast.StringType)
	mod := &tast.Module{Name: "app", Definitions: []*tast.Definition{
		tast.Fun("first", true, []string{"b"}, tast.Do(tast.Case(true, []*tast.Expr{b},
			tast.Arm(c, pbits(pseg(tast.PVar("c"), tast.SegUTF8Codepoint, nil), pseg(tast.PDiscard(), tast.SegBits, nil))),
			tast.Arm(tast.Int("-1"), tast.PDiscard()),
		))),
		tast.Fun("encode", true, []string{"s"}, tast.Do(bits(tast.Segment{Value: s}))),
	}}
	src, err := EmitModule(mod, nil, Support{})
	if err != nil {
		t.Fatalf("EmitModule: %v", err)
	}
	dir := preludeDir(t, map[string]string{"app": src})
	cases := map[string]string{
		`(import ./app.nix).first ((import ./app.nix).encode "€uro")`: "8364",
		`(import ./app.nix).first ((import ./app.nix).encode "")`:     "-1",
		`(import ./app.nix).first (p.bitArrayFromBytes [ 255 ] 8)`:    "-1",
	}
	for expr, want := range cases {
		if got := mustEval(t, dir, expr); got != want {
			t.Errorf("%s = %s, want %s", expr, got, want)
		}
	}
}

func sized(value *tast.Expr, kind tast.SegmentKind, size string) tast.Segment {
	seg := tast.Segment{Value: value, Options: tast.SegmentOptions{Kind: kind}}
	if size != "" {
		seg.Options.Size = tast.Int(size)
	}
	return seg
}

// Values packed by generated construction code come back unchanged through
// a generated pattern over the same segment shapes.
func TestGeneratedBinaryRoundTrip(t *testing.T) {
	local := func(name string, typ tast.Type) *tast.Expr { return tast.Local(name, typ) }
	pack := tast.Fun("pack", true, []string{"a", "b", "c", "d", "e", "s", "t"}, tast.Do(bits(
		sized(local("a", tast.IntType), tast.SegInt, "1"),
		sized(local("b", tast.IntType), tast.SegInt, "4"),
		sized(local("c", tast.IntType), tast.SegInt, ""),
		sized(local("d", tast.IntType), tast.SegInt, "16"),
		sized(local("e", tast.IntType), tast.SegInt, "32"),
		sized(local("s", tast.StringType), tast.SegUTF8, ""),
		sized(local("t", tast.BitsType), tast.SegBits, ""),
	)))
	unpack := tast.Fun("unpack", true, []string{"x"}, tast.Do(tast.Case(true, []*tast.Expr{local("x", tast.BitsType)},
		tast.Arm(
			tast.Tuple(local("a", tast.IntType), local("b", tast.IntType), local("c", tast.IntType),
				local("d", tast.IntType), local("e", tast.IntType), local("rest", tast.BitsType)),
			pbits(
				pseg(tast.PVar("a"), tast.SegInt, tast.Int("1")),
				pseg(tast.PVar("b"), tast.SegInt, tast.Int("4")),
				pseg(tast.PVar("c"), tast.SegInt, nil),
				pseg(tast.PVar("d"), tast.SegInt, tast.Int("16")),
				pseg(tast.PVar("e"), tast.SegInt, tast.Int("32")),
				pseg(tast.PString("hé"), tast.SegUTF8, nil),
				pseg(tast.PVar("rest"), tast.SegBits, nil),
			),
		),
		tast.Arm(tast.Tuple(), tast.PDiscard()),
	)))
	// a two byte header, then a bytes tail that must be whole bytes
	frame := tast.Fun("frame", true, []string{"x"}, tast.Do(tast.Case(true, []*tast.Expr{local("x", tast.BitsType)},
		tast.Arm(local("body", tast.BitsType), pbits(
			pseg(tast.PInt("1"), tast.SegInt, tast.Int("16")),
			pseg(tast.PVar("body"), tast.SegBytes, nil),
		)),
		tast.Arm(tast.Int("0"), tast.PDiscard()),
	)))
	src, err := EmitModule(&tast.Module{Name: "app", Definitions: []*tast.Definition{pack, unpack, frame}}, nil, Support{})
	if err != nil {
		t.Fatalf("EmitModule: %v", err)
	}
	dir := preludeDir(t, map[string]string{"app": src})

	const app = "(import ./app.nix)"
	got := mustEval(t, dir, app+`.unpack (`+app+`.pack 1 9 200 40000 3000000000 "hé" (p.bitArrayFromBytes [ 160 ] 3))`)
	want := `[1,9,200,40000,3000000000,{"__gleamTag":"BitArray","bits":[1,0,1]}]`
	if got != want {
		t.Fatalf("round trip = %s, want %s", got, want)
	}
	if got := mustEval(t, dir, app+`.unpack (`+app+`.pack 1 9 200 40000 3000000000 "ho" (p.bitArrayFromBytes [ ] 0))`); got != "[]" {
		t.Fatalf("mismatched utf8 literal matched: %s", got)
	}

	body := mustEval(t, dir, app+`.frame (p.bitArrayFromBytes [ 0 1 104 105 ] 32)`)
	if body != `{"__gleamTag":"BitArray","bits":[0,1,1,0,1,0,0,0,0,1,1,0,1,0,0,1]}` {
		t.Fatalf("bytes tail = %s", body)
	}
	if got := mustEval(t, dir, app+`.frame (p.bitArrayFromBytes [ 0 1 255 ] 20)`); got != "0" {
		t.Fatalf("partial byte tail matched: %s", got)
	}
}
