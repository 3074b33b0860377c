package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"nixgen/internal/diag"
	"nixgen/internal/source"
)

type palette struct {
	err, warn, info *color.Color
	code, caret     *color.Color
	gutter, note    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgBlue, color.Bold),
		code:   color.New(color.Bold),
		caret:  color.New(color.FgRed, color.Bold),
		gutter: color.New(color.FgBlue),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.caret, p.gutter, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if opts.Max > 0 && i >= opts.Max {
			fmt.Fprintf(w, "... and %d more\n", bag.Len()-opts.Max)
			return
		}
		loc := location(fs, d.Primary, opts.PathMode)
		head := pal.severity(d.Severity).Sprint(d.Severity.String()) + " " + pal.code.Sprint(d.Code.ID())
		if loc != "" {
			fmt.Fprintf(w, "%s: %s: %s\n", loc, head, d.Message)
		} else {
			fmt.Fprintf(w, "%s: %s\n", head, d.Message)
		}
		snippet(w, fs, d.Primary, int(opts.Context), pal)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if nl := location(fs, n.Span, opts.PathMode); nl != "" {
				fmt.Fprintf(w, "  %s: %s: %s\n", pal.note.Sprint("note"), nl, n.Msg)
			} else {
				fmt.Fprintf(w, "  %s: %s\n", pal.note.Sprint("note"), n.Msg)
			}
		}
	}
}

// Short prints one line per diagnostic: `path:line:col: severity: message [CODE]`.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if opts.Max > 0 && i >= opts.Max {
			return
		}
		sev := pal.severity(d.Severity).Sprint(d.Severity.Label())
		if loc := location(fs, d.Primary, opts.PathMode); loc != "" {
			fmt.Fprintf(w, "%s: %s: %s [%s]\n", loc, sev, d.Message, d.Code.ID())
		} else {
			fmt.Fprintf(w, "%s: %s [%s]\n", sev, d.Message, d.Code.ID())
		}
	}
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	f, ok := located(fs, sp)
	if f == nil {
		return ""
	}
	path := formatPath(fs, f, mode)
	if !ok {
		return path
	}
	pos := f.Position(sp.Start)
	return path + ":" + strconv.FormatUint(uint64(pos.Line), 10) + ":" + strconv.FormatUint(uint64(pos.Col), 10)
}

func snippet(w io.Writer, fs *source.FileSet, sp source.Span, context int, pal palette) {
	f, ok := located(fs, sp)
	if !ok {
		return
	}
	start := f.Position(sp.Start)
	first := max(int(start.Line)-context, 1)
	gutterWidth := len(strconv.Itoa(int(start.Line)))
	for ln := first; ln <= int(start.Line); ln++ {
		num := fmt.Sprintf("%*d", gutterWidth, ln)
		fmt.Fprintf(w, "  %s %s\n", pal.gutter.Sprint(num+" |"), f.GetLine(uint32(ln)))
	}

	text := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(text))
	end := col + int(sp.End-sp.Start)
	if end > len(text) {
		end = len(text)
	}
	pad := caretPad(text[:col])
	marks := "^"
	if width := runewidth.StringWidth(text[col:end]); width > 1 {
		marks += strings.Repeat("~", width-1)
	}
	blank := strings.Repeat(" ", gutterWidth)
	fmt.Fprintf(w, "  %s %s%s\n", pal.gutter.Sprint(blank+" |"), pad, pal.caret.Sprint(marks))
}

// caretPad keeps tabs so the caret lines up with the source line.
func caretPad(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}
