package nix

import (
	"strconv"

	"nixgen/internal/doc"
	"nixgen/internal/tast"
)

// subject is a lowered value being matched. atom records whether it can be
// used as an argument without parentheses.
type subject struct {
	doc  doc.Doc
	atom bool
}

func (s subject) sel(attr string) subject {
	return subject{doc: doc.Concat(parens(s.doc, s.atom), doc.Text("."+attr)), atom: true}
}

func (s subject) arg() doc.Doc { return parens(s.doc, s.atom) }

// match accumulates the tests and bindings of one pattern, left to right.
// values maps source names bound so far to their value, for bit array
// sizes that refer to earlier segments.
type match struct {
	checks []doc.Doc
	binds  []attr
	values map[string]doc.Doc
}

func newMatch() *match {
	return &match{values: make(map[string]doc.Doc)}
}

func (m *match) bind(ident, name string, s subject) {
	m.binds = append(m.binds, attr{name: ident, value: s.doc})
	m.values[name] = s.arg()
}

func (m *match) check(c doc.Doc) { m.checks = append(m.checks, c) }

func eqDoc(s subject, lit doc.Doc, litAtom bool) doc.Doc {
	return binary(s.doc, s.atom, "==", lit, litAtom)
}

func tagCheck(s subject, tag string) doc.Doc {
	return eqDoc(s.sel(tagAttr), doc.Text(strconv.Quote(tag)), true)
}

// pattern compiles p against s, binding names in scope.
func (fe *funcEmitter) pattern(p *tast.Pattern, s subject, scope ScopeID, m *match) error {
	if p == nil {
		return nil
	}
	switch d := p.Data.(type) {
	case tast.PatIntData:
		lit, err := intLiteral(d.Text, p.Span)
		if err != nil {
			return err
		}
		m.check(eqDoc(s, doc.Text(lit), lit[0] != '-'))
	case tast.PatFloatData:
		lit, err := floatLiteral(d.Text, p.Span)
		if err != nil {
			return err
		}
		m.check(eqDoc(s, doc.Text(lit), lit[0] != '-'))
	case tast.PatStringData:
		lit, err := stringDoc(d.Value, p.Span)
		if err != nil {
			return err
		}
		m.check(eqDoc(s, lit, true))
	case tast.PatVarData:
		m.bind(fe.ledger.Bind(scope, d.Name), d.Name, s)
	case tast.PatDiscardData:
	case tast.PatAssignData:
		if err := fe.pattern(d.Pattern, s, scope, m); err != nil {
			return err
		}
		m.bind(fe.ledger.Bind(scope, d.Name), d.Name, s)
	case tast.PatTupleData:
		for i, el := range d.Elems {
			at := subject{doc: apply(doc.Text("builtins.elemAt"), s.arg(), doc.Text(strconv.Itoa(i)))}
			if err := fe.pattern(el, at, scope, m); err != nil {
				return err
			}
		}
	case tast.PatListData:
		n := doc.Text(strconv.Itoa(len(d.Elems)))
		if d.Tail == nil {
			m.check(apply(fe.e.helper("listHasLength"), s.arg(), n))
		} else if len(d.Elems) > 0 {
			m.check(apply(fe.e.helper("listHasAtLeastLength"), s.arg(), n))
		}
		cur := s
		for _, el := range d.Elems {
			if err := fe.pattern(el, cur.sel("head"), scope, m); err != nil {
				return err
			}
			cur = cur.sel("tail")
		}
		if d.Tail != nil {
			return fe.pattern(d.Tail, cur, scope, m)
		}
	case tast.PatConstructorData:
		return fe.constructorPattern(d, s, scope, m)
	case tast.PatStringPrefixData:
		prefix, err := stringDoc(d.Prefix, p.Span)
		if err != nil {
			return err
		}
		m.check(apply(fe.e.helper("strHasPrefix"), prefix, s.arg()))
		if d.PrefixAlias != "" {
			m.bind(fe.ledger.Bind(scope, d.PrefixAlias), d.PrefixAlias, subject{doc: prefix, atom: true})
		}
		rest := subject{doc: apply(doc.Text("builtins.substring"),
			doc.Text(strconv.Itoa(len(d.Prefix))),
			parens(apply(doc.Text("builtins.stringLength"), s.arg()), false),
			s.arg(),
		)}
		return fe.pattern(d.Rest, rest, scope, m)
	case tast.PatBitArrayData:
		return fe.bitArrayPattern(d, p.Span, s, scope, m)
	default:
		return invalid(p.Span, "unknown pattern kind %s", p.Kind)
	}
	return nil
}

func (fe *funcEmitter) constructorPattern(d tast.PatConstructorData, s subject, scope ScopeID, m *match) error {
	vc := d.Constructor
	if vc.IsPrelude() {
		switch vc.Name {
		case "True":
			m.check(s.doc)
			return nil
		case "False":
			m.check(doc.Concat(doc.Text("!"), s.arg()))
			return nil
		case "Nil":
			return nil
		}
	}
	m.check(tagCheck(s, vc.Name))
	for i, a := range d.Args {
		if err := fe.pattern(a, s.sel(fieldAttr(vc.Fields, i)), scope, m); err != nil {
			return err
		}
	}
	return nil
}
