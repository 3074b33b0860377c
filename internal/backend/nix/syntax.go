package nix

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"nixgen/internal/doc"
	"nixgen/internal/source"
)

// Names that cannot be bound as-is in Nix: keywords plus the builtins and
// literals that generated code relies on.
var reservedWords = map[string]struct{}{
	"if": {}, "then": {}, "else": {}, "let": {}, "in": {}, "rec": {},
	"with": {}, "inherit": {}, "assert": {}, "or": {},
	"builtins": {}, "import": {}, "throw": {}, "abort": {},
	"true": {}, "false": {}, "null": {},
	"__curPos": {}, "__nixPath": {},
}

func isReserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

// escapeName renders a source name as a Nix identifier.
func escapeName(name string) string {
	if isReserved(name) {
		return name + "'"
	}
	return name
}

// attrName renders an attribute key. Keywords must be quoted.
func attrName(label string) string {
	if isReserved(label) {
		return strconv.Quote(label)
	}
	return label
}

// fieldAttr returns the record attribute for field index i.
func fieldAttr(fields []string, i int) string {
	if i < len(fields) && fields[i] != "" {
		return attrName(fields[i])
	}
	return "_" + strconv.Itoa(i)
}

const tagAttr = "__gleamTag"

func quoteString(s string, sp source.Span) (string, error) {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case 0:
			return "", unsupported("a string containing a NUL byte", sp)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				sb.WriteString(`\$`)
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String(), nil
}

func stringDoc(s string, sp source.Span) (doc.Doc, error) {
	q, err := quoteString(s, sp)
	if err != nil {
		return doc.Nil, err
	}
	return doc.Text(q), nil
}

var (
	minInt64 = big.NewInt(math.MinInt64)
	maxInt64 = big.NewInt(math.MaxInt64)
	maxFloat = new(big.Rat).SetFloat64(math.MaxFloat64)
)

// parseInt parses an int literal as written (prefixes, separators, sign).
func parseInt(text string) (*big.Int, bool) {
	s := strings.ReplaceAll(text, "_", "")
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	base := 10
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			s = s[2:]
		}
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}

const minIntLiteral = "(-9223372036854775807 - 1)"

// intLiteral checks an int literal against the Nix int range and renders it
// in decimal.
func intLiteral(text string, sp source.Span) (string, error) {
	n, ok := parseInt(text)
	if !ok {
		return "", invalid(sp, "malformed int literal %q", text)
	}
	if n.Cmp(minInt64) < 0 || n.Cmp(maxInt64) > 0 {
		return "", &IntRangeError{Literal: text, Location: sp}
	}
	if n.Cmp(minInt64) == 0 {
		// Nix parses the digits before negating them
		return minIntLiteral, nil
	}
	return n.String(), nil
}

func cleanFloat(text string) string {
	s := strings.ReplaceAll(text, "_", "")
	if i := strings.IndexAny(s, "eE"); i > 0 && s[i-1] == '.' {
		s = s[:i] + "0" + s[i:]
	} else if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// floatLiteral is the single range check for float literals, used for
// module constants, expressions and patterns alike. The comparison is exact:
// a literal that would round down to the largest double is still rejected
// when its written value is larger.
func floatLiteral(text string, sp source.Span) (string, error) {
	s := cleanFloat(text)
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", invalid(sp, "malformed float literal %q", text)
	}
	if new(big.Rat).Abs(r).Cmp(maxFloat) > 0 {
		return "", &FloatRangeError{Literal: text, Location: sp}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", &FloatRangeError{Literal: text, Location: sp}
	}
	out := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.Contains(out, ".") {
		if i := strings.IndexByte(out, 'e'); i >= 0 {
			out = out[:i] + ".0" + out[i:]
		} else {
			out += ".0"
		}
	}
	return out, nil
}

// parens wraps d unless atom is set.
func parens(d doc.Doc, atom bool) doc.Doc {
	if atom {
		return d
	}
	return doc.Concat(doc.Text("("), d, doc.Text(")"))
}

// apply renders `f a b` breaking arguments onto indented lines when long.
func apply(fn doc.Doc, args ...doc.Doc) doc.Doc {
	if len(args) == 0 {
		return fn
	}
	parts := make([]doc.Doc, 0, len(args)*2+1)
	parts = append(parts, fn)
	for _, a := range args {
		parts = append(parts, doc.Line(), a)
	}
	return doc.Group(doc.Concat(parts[0], doc.Nest(2, doc.Concat(parts[1:]...))))
}

// listDoc renders `[ a b ]`.
func listDoc(items []doc.Doc) doc.Doc {
	if len(items) == 0 {
		return doc.Text("[ ]")
	}
	return doc.Group(doc.Concat(
		doc.Text("["),
		doc.Nest(2, doc.Concat(doc.Line(), doc.Join(doc.Line(), items))),
		doc.Line(),
		doc.Text("]"),
	))
}

type attr struct {
	name  string
	value doc.Doc
}

// attrsDoc renders `{ a = x; b = y; }`.
func attrsDoc(attrs []attr) doc.Doc {
	if len(attrs) == 0 {
		return doc.Text("{ }")
	}
	items := make([]doc.Doc, len(attrs))
	for i, a := range attrs {
		items[i] = doc.Concat(doc.Text(a.name+" ="), doc.Nest(2, doc.Concat(doc.Line(), a.value)), doc.Text(";"))
	}
	return doc.Group(doc.Concat(
		doc.Text("{"),
		doc.Nest(2, doc.Concat(doc.Line(), doc.Join(doc.Line(), items))),
		doc.Line(),
		doc.Text("}"),
	))
}

// letDoc renders `let a = x; in body`. Bindings always break onto their own
// lines so long blocks stay readable.
func letDoc(binds []attr, body doc.Doc) doc.Doc {
	if len(binds) == 0 {
		return body
	}
	items := make([]doc.Doc, len(binds))
	for i, b := range binds {
		items[i] = doc.Group(doc.Concat(doc.Text(b.name+" ="), doc.Nest(2, doc.Concat(doc.Line(), b.value)), doc.Text(";")))
	}
	return doc.Concat(
		doc.Text("let"),
		doc.Nest(2, doc.Concat(doc.HardLine(), doc.Join(doc.HardLine(), items))),
		doc.HardLine(),
		doc.Text("in"),
		doc.Nest(2, doc.Concat(doc.HardLine(), body)),
	)
}

// ifDoc renders `if c then a else b`.
func ifDoc(cond, then, els doc.Doc) doc.Doc {
	return doc.Group(doc.Concat(
		doc.Text("if "), cond, doc.Text(" then"),
		doc.Nest(2, doc.Concat(doc.Line(), then)),
		doc.Line(),
		doc.Text("else"),
		doc.Nest(2, doc.Concat(doc.Line(), els)),
	))
}

// andDoc joins checks with &&, wrapping each non-trivial check in parens.
func andDoc(checks []doc.Doc) doc.Doc {
	if len(checks) == 1 {
		return checks[0]
	}
	wrapped := make([]doc.Doc, len(checks))
	for i, c := range checks {
		wrapped[i] = parens(c, false)
	}
	return doc.Group(doc.Join(doc.Concat(doc.Line(), doc.Text("&& ")), wrapped))
}
