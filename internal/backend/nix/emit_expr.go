package nix

import (
	"strconv"

	"nixgen/internal/doc"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

const (
	defaultPanicMessage = "`panic` expression evaluated."
	defaultTodoMessage  = "`todo` expression evaluated. This code has not yet been implemented."
)

// expr lowers one expression in scope.
func (fe *funcEmitter) expr(x *tast.Expr, scope ScopeID) (doc.Doc, error) {
	if x == nil {
		return doc.Nil, invalid(source.Span{}, "missing expression")
	}
	switch d := x.Data.(type) {
	case tast.IntData, tast.FloatData, tast.StringData:
		return fe.e.env.Evaluate(x)
	case tast.VarData:
		if d.Constructor.Kind == tast.VarLocal {
			ident, err := fe.ledger.Resolve(scope, d.Name)
			if err != nil {
				return doc.Nil, invalid(x.Span, "%v", err)
			}
			return doc.Text(ident), nil
		}
		return fe.e.valueRef(d, x.Span)
	case tast.FnData:
		return fe.lambda(d.Params, d.Body, scope)
	case tast.CallData:
		args, err := fe.args(d.Args, scope)
		if err != nil {
			return doc.Nil, err
		}
		return fe.call(d.Fun, args, scope)
	case tast.BinOpData:
		return fe.binOp(d, scope)
	case tast.NegateData:
		v, err := fe.expr(d.Value, scope)
		if err != nil {
			return doc.Nil, err
		}
		op := "-"
		if x.Kind == tast.ExprNegateBool {
			op = "!"
		}
		return doc.Concat(doc.Text(op), parens(v, fe.e.atomic(d.Value))), nil
	case tast.BlockData:
		return fe.statements(d.Statements, fe.ledger.Push(scope))
	case tast.PipelineData:
		return fe.pipeline(d, scope)
	case tast.TupleData:
		items, err := fe.args(d.Elems, scope)
		if err != nil {
			return doc.Nil, err
		}
		return listDoc(items), nil
	case tast.TupleIndexData:
		t, err := fe.expr(d.Tuple, scope)
		if err != nil {
			return doc.Nil, err
		}
		return apply(doc.Text("builtins.elemAt"), parens(t, fe.e.atomic(d.Tuple)), doc.Text(strconv.Itoa(d.Index))), nil
	case tast.ListData:
		items, err := fe.args(d.Elems, scope)
		if err != nil {
			return doc.Nil, err
		}
		if d.Tail == nil {
			return apply(fe.e.helper("toList"), listDoc(items)), nil
		}
		tail, err := fe.arg(d.Tail, scope)
		if err != nil {
			return doc.Nil, err
		}
		return fe.e.prependAll(items, tail), nil
	case tast.BitArrayData:
		return fe.bitArray(d, x.Span, scope)
	case tast.CaseData:
		return fe.caseExpr(d, x.Span, scope)
	case tast.RecordAccessData:
		return fe.recordAccess(d, scope)
	case tast.RecordUpdateData:
		return fe.recordUpdate(d, scope)
	case tast.ModuleSelectData:
		return fe.e.selectRef(d, x.Span)
	case tast.AbortData:
		kind, text := "panic", defaultPanicMessage
		if x.Kind == tast.ExprTodo {
			kind, text = "todo", defaultTodoMessage
		}
		var msg doc.Doc
		if d.Message != nil {
			var err error
			if msg, err = fe.arg(d.Message, scope); err != nil {
				return doc.Nil, err
			}
		} else {
			msg, _ = stringDoc(text, x.Span)
		}
		return fe.abort(kind, msg, x.Span, nil), nil
	default:
		return doc.Nil, invalid(x.Span, "unknown expression kind %s", x.Kind)
	}
}

// arg lowers x for use as a function argument or list element.
func (fe *funcEmitter) arg(x *tast.Expr, scope ScopeID) (doc.Doc, error) {
	d, err := fe.expr(x, scope)
	if err != nil {
		return doc.Nil, err
	}
	return parens(d, fe.e.atomic(x)), nil
}

func (fe *funcEmitter) args(xs []*tast.Expr, scope ScopeID) ([]doc.Doc, error) {
	out := make([]doc.Doc, len(xs))
	for i, x := range xs {
		d, err := fe.arg(x, scope)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// call applies fun to already lowered arguments. Fully applied
// constructors become record literals.
func (fe *funcEmitter) call(fun *tast.Expr, args []doc.Doc, scope ScopeID) (doc.Doc, error) {
	if vc, ok := constructorOf(fun); ok && vc.Arity > 0 && len(args) == vc.Arity {
		return fe.e.construct(vc, args), nil
	}
	f, err := fe.arg(fun, scope)
	if err != nil {
		return doc.Nil, err
	}
	if len(args) == 0 {
		return apply(f, doc.Text("{ }")), nil
	}
	return apply(f, args...), nil
}

func (fe *funcEmitter) pipeline(d tast.PipelineData, scope ScopeID) (doc.Doc, error) {
	v, err := fe.expr(d.First, scope)
	if err != nil {
		return doc.Nil, err
	}
	v = parens(v, fe.e.atomic(d.First))
	for i, step := range d.Steps {
		args, err := fe.args(step.Args, scope)
		if err != nil {
			return doc.Nil, err
		}
		var out doc.Doc
		if step.Insert < 0 {
			f, err := fe.call(step.Fun, args, scope)
			if err != nil {
				return doc.Nil, err
			}
			out = apply(parens(f, false), v)
		} else {
			at := min(step.Insert, len(args))
			withValue := make([]doc.Doc, 0, len(args)+1)
			withValue = append(withValue, args[:at]...)
			withValue = append(withValue, v)
			withValue = append(withValue, args[at:]...)
			if out, err = fe.call(step.Fun, withValue, scope); err != nil {
				return doc.Nil, err
			}
		}
		if i == len(d.Steps)-1 {
			return out, nil
		}
		v = parens(out, false)
	}
	return v, nil
}

var nativeOps = map[tast.BinOp]string{
	tast.OpAnd: "&&", tast.OpOr: "||",
	tast.OpEq: "==", tast.OpNotEq: "!=",
	tast.OpLtInt: "<", tast.OpLtEqInt: "<=", tast.OpGtInt: ">", tast.OpGtEqInt: ">=",
	tast.OpLtFloat: "<", tast.OpLtEqFloat: "<=", tast.OpGtFloat: ">", tast.OpGtEqFloat: ">=",
	tast.OpAddInt: "+", tast.OpAddFloat: "+", tast.OpConcatenate: "+",
	tast.OpSubInt: "-", tast.OpSubFloat: "-",
	tast.OpMultInt: "*", tast.OpMultFloat: "*",
}

var helperOps = map[tast.BinOp]string{
	tast.OpDivInt:       "divideInt",
	tast.OpRemainderInt: "remainderInt",
	tast.OpDivFloat:     "divideFloat",
}

// binOp lowers an operator. && and || keep Nix's own short-circuiting,
// which matches the source semantics for panic and todo operands too.
func (fe *funcEmitter) binOp(d tast.BinOpData, scope ScopeID) (doc.Doc, error) {
	left, err := fe.expr(d.Left, scope)
	if err != nil {
		return doc.Nil, err
	}
	right, err := fe.expr(d.Right, scope)
	if err != nil {
		return doc.Nil, err
	}
	la, ra := fe.e.atomic(d.Left), fe.e.atomic(d.Right)
	if h, ok := helperOps[d.Op]; ok {
		return apply(fe.e.helper(h), parens(left, la), parens(right, ra)), nil
	}
	op, ok := nativeOps[d.Op]
	if !ok {
		return doc.Nil, invalid(d.Left.Span.Cover(d.Right.Span), "unknown operator %d", d.Op)
	}
	return binary(left, la, op, right, ra), nil
}

func binary(left doc.Doc, la bool, op string, right doc.Doc, ra bool) doc.Doc {
	return doc.Group(doc.Concat(parens(left, la), doc.Line(), doc.Text(op+" "), parens(right, ra)))
}

func (fe *funcEmitter) recordAccess(d tast.RecordAccessData, scope ScopeID) (doc.Doc, error) {
	rec, err := fe.expr(d.Record, scope)
	if err != nil {
		return doc.Nil, err
	}
	attrs := variantAttrs(d)
	if len(attrs) == 1 {
		return doc.Concat(parens(rec, fe.e.atomic(d.Record)), doc.Text("."+attrs[0])), nil
	}
	// variants store the field under different attributes: dispatch on the tag
	subj, pre := fe.bindSubject(d.Record, rec, scope)
	var conds, bodies []doc.Doc
	for _, v := range d.Variants[:len(d.Variants)-1] {
		conds = append(conds, tagCheck(subj, v.Constructor))
		bodies = append(bodies, subj.sel(fieldAttr(v.Fields, v.Index)).doc)
	}
	last := d.Variants[len(d.Variants)-1]
	return letDoc(pre, chainDoc(conds, bodies, subj.sel(fieldAttr(last.Fields, last.Index)).doc)), nil
}

// variantAttrs returns the distinct attributes the field is stored under.
// It returns one entry when every variant agrees.
func variantAttrs(d tast.RecordAccessData) []string {
	if len(d.Variants) == 0 {
		return []string{attrName(d.Label)}
	}
	first := fieldAttr(d.Variants[0].Fields, d.Variants[0].Index)
	for _, v := range d.Variants[1:] {
		if fieldAttr(v.Fields, v.Index) != first {
			out := make([]string, len(d.Variants))
			for i, v := range d.Variants {
				out[i] = fieldAttr(v.Fields, v.Index)
			}
			return out
		}
	}
	return []string{first}
}

func (fe *funcEmitter) recordUpdate(d tast.RecordUpdateData, scope ScopeID) (doc.Doc, error) {
	rec, err := fe.expr(d.Record, scope)
	if err != nil {
		return doc.Nil, err
	}
	attrs := make([]attr, len(d.Updates))
	for i, u := range d.Updates {
		v, err := fe.expr(u.Value, scope)
		if err != nil {
			return doc.Nil, err
		}
		name := attrName(u.Label)
		if d.Constructor.Fields != nil {
			name = fieldAttr(d.Constructor.Fields, u.Index)
		}
		attrs[i] = attr{name: name, value: v}
	}
	return binary(rec, fe.e.atomic(d.Record), "//", attrsDoc(attrs), true), nil
}

// valueRef lowers a reference to a module-level value.
func (e *Emitter) valueRef(d tast.VarData, sp source.Span) (doc.Doc, error) {
	vc := d.Constructor
	switch vc.Kind {
	case tast.VarModuleConstant:
		return e.env.reference(vc, sp)
	case tast.VarModuleFn:
		if vc.Module == e.mod.Name || vc.Module == "" {
			return doc.Text(escapeName(vc.Name)), nil
		}
		return e.foreignRef(vc.Module, vc.Name), nil
	case tast.VarConstructor:
		return e.constructorRef(vc), nil
	default:
		return doc.Nil, invalid(sp, "local %q outside a function body", d.Name)
	}
}

func (e *Emitter) selectRef(d tast.ModuleSelectData, sp source.Span) (doc.Doc, error) {
	vc := d.Constructor
	if vc.Module == "" {
		vc.Module = d.Module
	}
	if vc.Name == "" {
		vc.Name = d.Label
	}
	switch vc.Kind {
	case tast.VarModuleConstant:
		return e.env.reference(vc, sp)
	case tast.VarConstructor:
		return e.constructorRef(vc), nil
	default:
		return e.foreignRef(vc.Module, vc.Name), nil
	}
}

// constructorRef lowers a constructor used as a value. Classification
// decides: a user type with a variant called True is still a record.
func (e *Emitter) constructorRef(vc tast.ValueConstructor) doc.Doc {
	if vc.IsPrelude() {
		switch vc.Name {
		case "True":
			return doc.Text("true")
		case "False":
			return doc.Text("false")
		case "Nil":
			return doc.Text("null")
		}
		if e.defined[vc.Name] {
			return doc.Text("value: ").Append(recordDoc(vc.Name, nil, []doc.Doc{doc.Text("value")}))
		}
		return e.helper(vc.Name)
	}
	if vc.Arity == 0 {
		return recordDoc(vc.Name, nil, nil)
	}
	if vc.Module == e.mod.Name {
		return doc.Text(escapeName(vc.Name))
	}
	return e.foreignRef(vc.Module, vc.Name)
}

// construct builds a fully applied constructor.
func (e *Emitter) construct(vc tast.ValueConstructor, args []doc.Doc) doc.Doc {
	if vc.IsPrelude() && !e.defined[vc.Name] {
		return apply(e.helper(vc.Name), args...)
	}
	return recordDoc(vc.Name, vc.Fields, args)
}

func (e *Emitter) prependAll(items []doc.Doc, tail doc.Doc) doc.Doc {
	acc := tail
	for i := len(items) - 1; i >= 0; i-- {
		acc = apply(e.helper("listPrepend"), items[i], acc)
		if i > 0 {
			acc = parens(acc, false)
		}
	}
	return acc
}

// atomic reports whether the lowered form of x can be used as a function
// argument without parentheses.
func (e *Emitter) atomic(x *tast.Expr) bool {
	return e.atomicDepth(x, 0)
}

func (e *Emitter) atomicDepth(x *tast.Expr, depth int) bool {
	if x == nil || depth > 32 {
		return false
	}
	switch d := x.Data.(type) {
	case tast.IntData:
		if n, ok := parseInt(d.Text); ok && n.Cmp(minInt64) == 0 {
			return true
		}
		return len(d.Text) > 0 && d.Text[0] != '-'
	case tast.FloatData:
		return len(d.Text) > 0 && d.Text[0] != '-'
	case tast.StringData, tast.TupleData:
		return true
	case tast.VarData:
		return e.refAtomic(d.Constructor, depth)
	case tast.ModuleSelectData:
		vc := d.Constructor
		if vc.Module == "" {
			vc.Module = d.Module
		}
		return e.refAtomic(vc, depth)
	case tast.RecordAccessData:
		return len(variantAttrs(d)) == 1
	}
	return false
}

func (e *Emitter) refAtomic(vc tast.ValueConstructor, depth int) bool {
	switch vc.Kind {
	case tast.VarModuleConstant:
		if vc.Module == e.mod.Name {
			if c, ok := e.consts[vc.Name]; ok {
				return e.atomicDepth(c.Value, depth+1)
			}
			return true
		}
		if vc.Literal != nil {
			return e.atomicDepth(vc.Literal, depth+1)
		}
		return true
	case tast.VarConstructor:
		return !(vc.IsPrelude() && e.defined[vc.Name] && vc.Name != "True" && vc.Name != "False" && vc.Name != "Nil")
	}
	return true
}
