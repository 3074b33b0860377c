// Package doc is a small layout-document algebra used to render generated
// source text.
//
// A Doc is built from text, line breaks, nesting and groups. Rendering picks,
// per group, either the flat layout (all soft lines become spaces or nothing)
// or the broken layout, so output fits a target width when it can.
// Rendering is pure: the same Doc and width always produce the same bytes.
//
// Не делает: ничего не знает о Nix; синтаксис собирает backend.
package doc

type kind uint8

const (
	kindNil kind = iota
	kindText
	kindLine
	kindHard
	kindNest
	kindGroup
	kindConcat
)

// Doc is an immutable layout document.
type Doc struct {
	kind     kind
	text     string // text for kindText, flat alternative for kindLine
	indent   int
	children []Doc
}

// Nil is the empty document.
var Nil = Doc{}

// Text is literal text. It must not contain newlines; use Lines for that.
func Text(s string) Doc {
	if s == "" {
		return Nil
	}
	return Doc{kind: kindText, text: s}
}

// Line breaks when its group breaks and renders as a space otherwise.
func Line() Doc { return Doc{kind: kindLine, text: " "} }

// SoftLine breaks when its group breaks and renders as nothing otherwise.
func SoftLine() Doc { return Doc{kind: kindLine} }

// HardLine always breaks and forces every enclosing group to break.
func HardLine() Doc { return Doc{kind: kindHard} }

// Nest increases the indentation of line breaks inside d by n columns.
func Nest(n int, d Doc) Doc {
	return Doc{kind: kindNest, indent: n, children: []Doc{d}}
}

// Group renders d flat if it fits in the remaining width.
func Group(d Doc) Doc {
	return Doc{kind: kindGroup, children: []Doc{d}}
}

// Concat joins documents without separators.
func Concat(ds ...Doc) Doc {
	out := make([]Doc, 0, len(ds))
	for _, d := range ds {
		if d.kind != kindNil {
			out = append(out, d)
		}
	}
	switch len(out) {
	case 0:
		return Nil
	case 1:
		return out[0]
	}
	return Doc{kind: kindConcat, children: out}
}

// Join places sep between consecutive documents.
func Join(sep Doc, ds []Doc) Doc {
	if len(ds) == 0 {
		return Nil
	}
	out := make([]Doc, 0, len(ds)*2-1)
	for i, d := range ds {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, d)
	}
	return Concat(out...)
}

// Lines renders multi-line text, one hard line between lines.
func Lines(ls []string) Doc {
	ds := make([]Doc, len(ls))
	for i, l := range ls {
		ds[i] = Text(l)
	}
	return Join(HardLine(), ds)
}

// IsNil reports whether d is empty.
func (d Doc) IsNil() bool { return d.kind == kindNil }

// Append returns d followed by more.
func (d Doc) Append(more ...Doc) Doc {
	return Concat(append([]Doc{d}, more...)...)
}
