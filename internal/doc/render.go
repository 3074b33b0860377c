package doc

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// DefaultWidth is the line width used when none is configured.
const DefaultWidth = 80

type frame struct {
	indent int
	flat   bool
	doc    *Doc
}

type writer struct {
	buf         strings.Builder
	col         int
	pending     int
	atLineStart bool
}

func (w *writer) text(s string) {
	if w.atLineStart {
		for range w.pending {
			w.buf.WriteByte(' ')
		}
		w.col = w.pending
		w.atLineStart = false
	}
	w.buf.WriteString(s)
	w.col += runewidth.StringWidth(s)
}

// newline defers indentation until text follows so blank lines stay empty.
func (w *writer) newline(indent int) {
	w.buf.WriteByte('\n')
	w.col = indent
	w.pending = indent
	w.atLineStart = true
}

// Render lays out d so that lines fit width where possible.
func Render(d Doc, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	w := &writer{}
	stack := []frame{{doc: &d}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch f.doc.kind {
		case kindNil:
		case kindText:
			w.text(f.doc.text)
		case kindLine:
			if f.flat {
				w.text(f.doc.text)
			} else {
				w.newline(f.indent)
			}
		case kindHard:
			w.newline(f.indent)
		case kindNest:
			stack = append(stack, frame{indent: f.indent + f.doc.indent, flat: f.flat, doc: &f.doc.children[0]})
		case kindGroup:
			child := &f.doc.children[0]
			flat := f.flat
			if !flat {
				fw := flatWidth(child)
				flat = fw >= 0 && w.col+fw <= width
			}
			stack = append(stack, frame{indent: f.indent, flat: flat, doc: child})
		case kindConcat:
			for i := len(f.doc.children) - 1; i >= 0; i-- {
				stack = append(stack, frame{indent: f.indent, flat: f.flat, doc: &f.doc.children[i]})
			}
		}
	}
	return w.buf.String()
}

// flatWidth measures d rendered flat, or -1 if d contains a hard line.
func flatWidth(d *Doc) int {
	switch d.kind {
	case kindText, kindLine:
		return runewidth.StringWidth(d.text)
	case kindHard:
		return -1
	case kindNest, kindGroup, kindConcat:
		total := 0
		for i := range d.children {
			n := flatWidth(&d.children[i])
			if n < 0 {
				return -1
			}
			total += n
		}
		return total
	}
	return 0
}
