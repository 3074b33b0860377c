package nix

import (
	"nixgen/internal/doc"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

const defaultAssertMessage = "Pattern match failed, no pattern matched the value."

// statements lowers a body. Nix is lazy, so every statement but the last is
// forced with builtins.seq before the rest of the body runs.
func (fe *funcEmitter) statements(stmts []tast.Statement, scope ScopeID) (doc.Doc, error) {
	if len(stmts) == 0 {
		return doc.Text("null"), nil
	}
	st, rest := stmts[0], stmts[1:]
	switch d := st.Data.(type) {
	case tast.ExprStmt:
		v, err := fe.expr(d.Value, scope)
		if err != nil {
			return doc.Nil, err
		}
		if len(rest) == 0 {
			return v, nil
		}
		next, err := fe.statements(rest, scope)
		if err != nil {
			return doc.Nil, err
		}
		if isPure(d.Value) {
			return next, nil
		}
		return seqDoc(parens(v, fe.e.atomic(d.Value)), next, fe.atomicRest(rest)), nil
	case tast.AssignStmt:
		return fe.assign(d, st.Span, rest, scope)
	case tast.UseStmt:
		return fe.use(d, rest, scope)
	default:
		return doc.Nil, invalid(st.Span, "unknown statement kind %d", st.Kind)
	}
}

func seqDoc(forced, rest doc.Doc, restAtom bool) doc.Doc {
	return apply(doc.Text("builtins.seq"), forced, parens(rest, restAtom))
}

// atomicRest reports whether the lowered remainder of a body is a single
// atom and needs no parentheses.
func (fe *funcEmitter) atomicRest(rest []tast.Statement) bool {
	if len(rest) != 1 {
		return false
	}
	s, ok := rest[0].Data.(tast.ExprStmt)
	return ok && fe.e.atomic(s.Value)
}

// isPure reports whether evaluating e can have no observable effect.
func isPure(e *tast.Expr) bool {
	switch e.Kind {
	case tast.ExprInt, tast.ExprFloat, tast.ExprString, tast.ExprVar, tast.ExprFn, tast.ExprModuleSelect:
		return true
	}
	return false
}

// restOr lowers the remaining statements, or yields ref when the binding
// was the last statement (a trailing let evaluates to its value).
func (fe *funcEmitter) restOr(rest []tast.Statement, scope ScopeID, ref doc.Doc) (doc.Doc, error) {
	if len(rest) == 0 {
		return ref, nil
	}
	return fe.statements(rest, scope)
}

func (fe *funcEmitter) assign(d tast.AssignStmt, sp source.Span, rest []tast.Statement, scope ScopeID) (doc.Doc, error) {
	value, err := fe.expr(d.Value, scope)
	if err != nil {
		return doc.Nil, err
	}
	switch p := d.Pattern.Data.(type) {
	case tast.PatVarData:
		ident := fe.ledger.Bind(scope, p.Name)
		next, err := fe.restOr(rest, scope, doc.Text(ident))
		if err != nil {
			return doc.Nil, err
		}
		if isPure(d.Value) || len(rest) == 0 {
			return letDoc([]attr{{name: ident, value: value}}, next), nil
		}
		return letDoc([]attr{{name: ident, value: value}}, seqDoc(doc.Text(ident), next, fe.atomicRest(rest))), nil
	case tast.PatDiscardData:
		if len(rest) == 0 {
			return value, nil
		}
		next, err := fe.statements(rest, scope)
		if err != nil {
			return doc.Nil, err
		}
		if isPure(d.Value) {
			return next, nil
		}
		return seqDoc(parens(value, fe.e.atomic(d.Value)), next, fe.atomicRest(rest)), nil
	}

	subj, pre := fe.bindSubject(d.Value, value, scope)
	m := newMatch()
	if err := fe.pattern(d.Pattern, subj, scope, m); err != nil {
		return doc.Nil, err
	}
	next, err := fe.restOr(rest, scope, subj.doc)
	if err != nil {
		return doc.Nil, err
	}
	force := func(body doc.Doc) doc.Doc {
		if len(pre) == 0 {
			return body
		}
		return seqDoc(subj.doc, body, false)
	}
	if d.Kind == tast.AssignLet || len(m.checks) == 0 {
		return letDoc(append(pre, m.binds...), force(next)), nil
	}

	var msg doc.Doc
	if d.Message != nil {
		msg, err = fe.expr(d.Message, scope)
		if err != nil {
			return doc.Nil, err
		}
		msg = parens(msg, fe.e.atomic(d.Message))
	} else {
		msg, _ = stringDoc(defaultAssertMessage, sp)
	}
	extra := append([]attr{{name: "value", value: subj.doc}}, spanAttrs("", sp)...)
	extra = append(extra, spanAttrs("pattern_", d.Pattern.Span)...)
	fail := fe.abort("let_assert", msg, sp, extra)
	return letDoc(pre, force(ifDoc(andDoc(m.checks), letDoc(m.binds, next), fail))), nil
}

// bindSubject makes sure a matched value is evaluated once: locals are used
// directly, anything else gets a synthetic binding.
func (fe *funcEmitter) bindSubject(e *tast.Expr, value doc.Doc, scope ScopeID) (subject, []attr) {
	if v, ok := e.Data.(tast.VarData); ok && v.Constructor.Kind == tast.VarLocal {
		return subject{doc: value, atom: true}, nil
	}
	name := fe.ledger.Fresh(scope, "subject")
	return subject{doc: doc.Text(name), atom: true}, []attr{{name: name, value: value}}
}

// use lowers `use a, b <- call(args)` to `call args (a: b: rest)`.
func (fe *funcEmitter) use(d tast.UseStmt, rest []tast.Statement, scope ScopeID) (doc.Doc, error) {
	fun := d.Call
	var args []doc.Doc
	if c, ok := d.Call.Data.(tast.CallData); ok {
		fun = c.Fun
		var err error
		if args, err = fe.args(c.Args, scope); err != nil {
			return doc.Nil, err
		}
	}

	cb := fe.ledger.Push(scope)
	names := make([]string, len(d.Patterns))
	m := newMatch()
	for i, p := range d.Patterns {
		switch pd := p.Data.(type) {
		case tast.PatVarData:
			names[i] = fe.ledger.Bind(cb, pd.Name)
		case tast.PatDiscardData:
			names[i] = "_"
		default:
			names[i] = fe.ledger.Fresh(cb, "use")
			if err := fe.pattern(p, subject{doc: doc.Text(names[i]), atom: true}, cb, m); err != nil {
				return doc.Nil, err
			}
		}
	}
	body, err := fe.statements(rest, cb)
	if err != nil {
		return doc.Nil, err
	}
	callback := fe.lambdaDoc(nil, names, letDoc(m.binds, body))
	args = append(args, parens(callback, false))
	return fe.call(fun, args, scope)
}
