package nix

import (
	"nixgen/internal/doc"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

const noMatchMessage = "No case clause matched"

type branch struct {
	cond doc.Doc // Nil when the branch always matches
	body doc.Doc
	atom bool
}

// caseExpr compiles clauses in source order into an if/else chain over
// subjects that are each evaluated once. A case the type checker proved
// exhaustive has no failure branch; any other case ends in exactly one.
func (fe *funcEmitter) caseExpr(d tast.CaseData, sp source.Span, scope ScopeID) (doc.Doc, error) {
	var pre []attr
	var forced []doc.Doc
	subs := make([]subject, len(d.Subjects))
	for i, x := range d.Subjects {
		v, err := fe.expr(x, scope)
		if err != nil {
			return doc.Nil, err
		}
		var binds []attr
		subs[i], binds = fe.bindSubject(x, v, scope)
		pre = append(pre, binds...)
		if len(binds) > 0 && !isPure(x) {
			forced = append(forced, subs[i].doc)
		}
	}

	var branches []branch
	total := false
clauses:
	for ci, cl := range d.Clauses {
		for ai, alt := range cl.Patterns {
			if len(alt) != len(subs) {
				return doc.Nil, invalid(cl.Span, "clause has %d patterns for %d subjects", len(alt), len(subs))
			}
			last := ci == len(d.Clauses)-1 && ai == len(cl.Patterns)-1
			b, err := fe.clause(cl, alt, subs, scope, d.Exhaustive && last)
			if err != nil {
				return doc.Nil, err
			}
			branches = append(branches, b)
			if b.cond.IsNil() {
				total = true
				break clauses
			}
		}
	}

	var final doc.Doc
	atom := false
	if total {
		final = branches[len(branches)-1].body
		atom = branches[len(branches)-1].atom
		branches = branches[:len(branches)-1]
	} else {
		values := make([]doc.Doc, len(subs))
		for i, s := range subs {
			values[i] = s.arg()
		}
		msg, _ := stringDoc(noMatchMessage, sp)
		extra := append([]attr{{name: "values", value: listDoc(values)}}, spanAttrs("", sp)...)
		final = fe.abort("case_no_match", msg, sp, extra)
	}
	conds := make([]doc.Doc, len(branches))
	bodies := make([]doc.Doc, len(branches))
	for i, b := range branches {
		conds[i], bodies[i] = b.cond, b.body
	}
	body := chainDoc(conds, bodies, final)
	atom = atom && len(conds) == 0
	// subjects are evaluated even when no clause inspects them
	for i := len(forced) - 1; i >= 0; i-- {
		body = seqDoc(forced[i], body, atom)
		atom = false
	}
	return letDoc(pre, body), nil
}

// clause compiles one alternative of a clause. Its bindings are visible to
// the guard and the body; unconditional drops every test.
func (fe *funcEmitter) clause(cl tast.Clause, alt []*tast.Pattern, subs []subject, scope ScopeID, unconditional bool) (branch, error) {
	arm := fe.ledger.Push(scope)
	m := newMatch()
	for i, p := range alt {
		if err := fe.pattern(p, subs[i], arm, m); err != nil {
			return branch{}, err
		}
	}
	checks := m.checks
	if cl.Guard != nil {
		g, err := fe.expr(cl.Guard, arm)
		if err != nil {
			return branch{}, err
		}
		if len(m.binds) > 0 {
			g = parens(letDoc(m.binds, g), false)
		}
		checks = append(checks, g)
	}
	body, err := fe.expr(cl.Then, arm)
	if err != nil {
		return branch{}, err
	}
	b := branch{body: letDoc(m.binds, body), atom: len(m.binds) == 0 && fe.e.atomic(cl.Then)}
	if !unconditional && len(checks) > 0 {
		b.cond = andDoc(checks)
	}
	return b, nil
}

// chainDoc renders `if c1 then b1 else if c2 then b2 else final` flat,
// without nesting each else branch deeper.
func chainDoc(conds, bodies []doc.Doc, final doc.Doc) doc.Doc {
	if len(conds) == 0 {
		return final
	}
	var parts []doc.Doc
	for i, c := range conds {
		kw := "if "
		if i > 0 {
			parts = append(parts, doc.Line())
			kw = "else if "
		}
		parts = append(parts,
			doc.Text(kw), c, doc.Text(" then"),
			doc.Nest(2, doc.Concat(doc.Line(), bodies[i])),
		)
	}
	parts = append(parts, doc.Line(), doc.Text("else"), doc.Nest(2, doc.Concat(doc.Line(), final)))
	return doc.Group(doc.Concat(parts...))
}
