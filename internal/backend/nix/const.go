package nix

import (
	"nixgen/internal/doc"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

type constKey struct {
	module string
	name   string
}

// constEnv memoizes lowered module constants by (module, name). It lives
// for one module compilation.
type constEnv struct {
	e      *Emitter
	memo   map[constKey]doc.Doc
	active map[constKey]bool
}

func newConstEnv(e *Emitter) *constEnv {
	return &constEnv{
		e:      e,
		memo:   make(map[constKey]doc.Doc),
		active: make(map[constKey]bool),
	}
}

// local lowers a constant defined by the module being compiled.
func (c *constEnv) local(name string, sp source.Span) (doc.Doc, error) {
	def, ok := c.e.consts[name]
	if !ok {
		return doc.Nil, invalid(sp, "unknown constant %q", name)
	}
	return c.lookup(constKey{module: c.e.mod.Name, name: name}, def.Value, sp)
}

// reference lowers a constant reference by its true identity. Constants of
// other modules are inlined from the literal the front-end attached; without
// one the constant is read from the module at runtime.
func (c *constEnv) reference(vc tast.ValueConstructor, sp source.Span) (doc.Doc, error) {
	if vc.Module == c.e.mod.Name {
		return c.local(vc.Name, sp)
	}
	if vc.Literal == nil {
		return c.e.foreignRef(vc.Module, vc.Name), nil
	}
	return c.lookup(constKey{module: vc.Module, name: vc.Name}, vc.Literal, sp)
}

func (c *constEnv) lookup(key constKey, value *tast.Expr, sp source.Span) (doc.Doc, error) {
	if d, ok := c.memo[key]; ok {
		return d, nil
	}
	if c.active[key] {
		return doc.Nil, invalid(sp, "constant %s.%s refers to itself", key.module, key.name)
	}
	c.active[key] = true
	defer delete(c.active, key)
	d, err := c.Evaluate(value)
	if err != nil {
		return doc.Nil, err
	}
	c.memo[key] = d
	return d, nil
}

// Evaluate lowers a constant expression. Constants are literals, tuples,
// lists, bit arrays and records of constants, string concatenation, and
// references to functions, constructors and other constants.
func (c *constEnv) Evaluate(expr *tast.Expr) (doc.Doc, error) {
	if expr == nil {
		return doc.Nil, invalid(source.Span{}, "missing constant value")
	}
	switch d := expr.Data.(type) {
	case tast.IntData:
		text, err := intLiteral(d.Text, expr.Span)
		if err != nil {
			return doc.Nil, err
		}
		return doc.Text(text), nil
	case tast.FloatData:
		text, err := floatLiteral(d.Text, expr.Span)
		if err != nil {
			return doc.Nil, err
		}
		return doc.Text(text), nil
	case tast.StringData:
		return stringDoc(d.Value, expr.Span)
	case tast.TupleData:
		items, err := c.atoms(d.Elems)
		if err != nil {
			return doc.Nil, err
		}
		return listDoc(items), nil
	case tast.ListData:
		items, err := c.atoms(d.Elems)
		if err != nil {
			return doc.Nil, err
		}
		if d.Tail == nil {
			return apply(c.e.helper("toList"), listDoc(items)), nil
		}
		tail, err := c.Evaluate(d.Tail)
		if err != nil {
			return doc.Nil, err
		}
		return c.e.prependAll(items, parens(tail, c.e.atomic(d.Tail))), nil
	case tast.VarData:
		return c.e.valueRef(d, expr.Span)
	case tast.ModuleSelectData:
		return c.e.selectRef(d, expr.Span)
	case tast.CallData:
		vc, ok := constructorOf(d.Fun)
		if !ok {
			return doc.Nil, invalid(expr.Span, "function call in constant")
		}
		args, err := c.atoms(d.Args)
		if err != nil {
			return doc.Nil, err
		}
		return c.e.construct(vc, args), nil
	case tast.BinOpData:
		if d.Op != tast.OpConcatenate {
			return doc.Nil, invalid(expr.Span, "operator %s in constant", d.Op)
		}
		left, err := c.Evaluate(d.Left)
		if err != nil {
			return doc.Nil, err
		}
		right, err := c.Evaluate(d.Right)
		if err != nil {
			return doc.Nil, err
		}
		return binary(left, c.e.atomic(d.Left), "+", right, c.e.atomic(d.Right)), nil
	case tast.BitArrayData:
		return c.e.constBitArray(d, expr.Span)
	default:
		return doc.Nil, invalid(expr.Span, "%s expression in constant", expr.Kind)
	}
}

func (c *constEnv) atoms(es []*tast.Expr) ([]doc.Doc, error) {
	out := make([]doc.Doc, len(es))
	for i, x := range es {
		d, err := c.Evaluate(x)
		if err != nil {
			return nil, err
		}
		out[i] = parens(d, c.e.atomic(x))
	}
	return out, nil
}

func constructorOf(fun *tast.Expr) (tast.ValueConstructor, bool) {
	if fun == nil {
		return tast.ValueConstructor{}, false
	}
	switch d := fun.Data.(type) {
	case tast.VarData:
		return d.Constructor, d.Constructor.Kind == tast.VarConstructor
	case tast.ModuleSelectData:
		return d.Constructor, d.Constructor.Kind == tast.VarConstructor
	}
	return tast.ValueConstructor{}, false
}
