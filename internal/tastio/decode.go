package tastio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"nixgen/internal/diag"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

// Unit is one decoded interchange file.
type Unit struct {
	Path   string
	Module *tast.Module
	// File is the module's source text, nil when the document names none
	// or no file set was given.
	File *source.File
}

// Load reads the interchange file at path. When the document names a
// source file it is loaded into fs, relative to the interchange file.
func Load(fs *source.FileSet, path string) (*Unit, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(fs, data, path)
}

// Decode decodes interchange data. name is used in error messages and as
// the anchor for a relative `source` path.
func Decode(fs *source.FileSet, data []byte, name string) (*Unit, error) {
	var root unitNode
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &Error{Code: diag.InpMalformed, Path: name, Msg: err.Error()}
	}
	if root.Module == "" {
		return nil, &Error{Code: diag.InpMissingField, Path: name, Msg: "module name is required"}
	}
	d := &decoder{}
	unit := &Unit{Path: name}
	if root.Source != "" && fs != nil {
		src := root.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(filepath.Dir(name), src)
		}
		id, err := fs.Load(src)
		if err != nil {
			code := diag.InpMalformed
			if errors.Is(err, os.ErrNotExist) {
				code = diag.InpMissingSource
			}
			return nil, &Error{Code: code, Path: name, Msg: fmt.Sprintf("source %s: %v", root.Source, err)}
		}
		d.file = id
		unit.File = fs.Get(id)
		if size, err := safecast.Conv[uint32](len(unit.File.Content)); err == nil {
			d.size, d.sized = size, true
		}
	} else if fs != nil {
		// spans still need a file to point at; diagnostics print the path only
		d.file = fs.AddVirtual(name, nil)
	}
	mod, err := d.module(root)
	if err != nil {
		return nil, err
	}
	unit.Module = mod
	return unit, nil
}

type decoder struct {
	file source.FileID
	// size of the source text; spans are clamped to it when sized
	size  uint32
	sized bool
}

func (d *decoder) span(sp spanNode) source.Span {
	if len(sp) != 2 {
		return source.Span{File: d.file}
	}
	start, end := sp[0], sp[1]
	if d.sized {
		end = min(end, d.size)
	}
	start = min(start, end)
	return source.Span{File: d.file, Start: start, End: end}
}

func (d *decoder) checkSpan(path string, sp spanNode) error {
	if len(sp) != 0 && (len(sp) != 2 || sp[0] > sp[1]) {
		return d.fail(diag.InpMalformed, path, nil, "span must be [start, end], got %v", []uint32(sp))
	}
	return nil
}

// variants counts how many variant keys of a node are set.
func variants(set ...bool) int {
	n := 0
	for _, s := range set {
		if s {
			n++
		}
	}
	return n
}

func (d *decoder) module(root unitNode) (*tast.Module, error) {
	mod := &tast.Module{Name: root.Module}
	seen := make(map[string]bool)
	for i := range root.Definitions {
		path := fmt.Sprintf("definitions[%d]", i)
		def, err := d.definition(path, &root.Definitions[i])
		if err != nil {
			return nil, err
		}
		for _, name := range definedNames(def) {
			if seen[name] {
				return nil, d.fail(diag.InpDuplicateName, path, root.Definitions[i].Span, "%q is defined twice", name)
			}
			seen[name] = true
		}
		mod.Definitions = append(mod.Definitions, def)
	}
	return mod, nil
}

func definedNames(def *tast.Definition) []string {
	switch d := def.Data.(type) {
	case tast.FunctionData:
		return []string{d.Name}
	case tast.ConstantData:
		return []string{d.Name}
	case tast.CustomTypeData:
		names := make([]string, len(d.Constructors))
		for i, c := range d.Constructors {
			names[i] = c.Name
		}
		return names
	}
	return nil
}

func (d *decoder) definition(path string, n *defNode) (*tast.Definition, error) {
	if err := d.checkSpan(path, n.Span); err != nil {
		return nil, err
	}
	switch variants(n.Import != nil, n.Function != nil, n.Constant != nil, n.Type != nil, n.TypeAlias != nil) {
	case 1:
	case 0:
		return nil, d.fail(diag.InpUnknownKind, path, n.Span, "definition has no kind")
	default:
		return nil, d.fail(diag.InpUnknownKind, path, n.Span, "definition has more than one kind")
	}
	def := &tast.Definition{Span: d.span(n.Span), Doc: n.Doc, Public: n.Public}
	if len(n.DocSpan) > 0 {
		if err := d.checkSpan(path+".doc_span", n.DocSpan); err != nil {
			return nil, err
		}
		def.DocSpan = d.span(n.DocSpan)
	}
	switch {
	case n.Import != nil:
		if n.Import.Module == "" {
			return nil, d.fail(diag.InpMissingField, path+".import", n.Span, "module is required")
		}
		data := tast.ImportData{Module: n.Import.Module, Alias: n.Import.Alias}
		for _, u := range n.Import.Unqualified {
			data.Unqualified = append(data.Unqualified, tast.UnqualifiedImport{Name: u.Name, As: u.As, IsType: u.Type})
		}
		def.Kind, def.Data = tast.DefImport, data
	case n.Function != nil:
		fn, err := d.function(path+".function", n.Function)
		if err != nil {
			return nil, err
		}
		def.Kind, def.Data = tast.DefFunction, fn
	case n.Constant != nil:
		p := path + ".const"
		if n.Constant.Name == "" || n.Constant.Value == nil {
			return nil, d.fail(diag.InpMissingField, p, n.Span, "name and value are required")
		}
		v, err := d.expr(p+".value", n.Constant.Value)
		if err != nil {
			return nil, err
		}
		def.Kind, def.Data = tast.DefConstant, tast.ConstantData{Name: n.Constant.Name, Value: v}
	case n.Type != nil:
		data := tast.CustomTypeData{Name: n.Type.Name, Opaque: n.Type.Opaque}
		for i, v := range n.Type.Variants {
			if v.Name == "" {
				return nil, d.fail(diag.InpMissingField, fmt.Sprintf("%s.type.variants[%d]", path, i), v.Span, "variant name is required")
			}
			data.Constructors = append(data.Constructors, tast.ConstructorDef{Name: v.Name, Fields: v.Fields, Span: d.span(v.Span)})
		}
		def.Kind, def.Data = tast.DefCustomType, data
	default:
		def.Kind, def.Data = tast.DefTypeAlias, tast.TypeAliasData{Name: *n.TypeAlias}
	}
	return def, nil
}

func (d *decoder) function(path string, n *functionNode) (tast.FunctionData, error) {
	if n.Name == "" {
		return tast.FunctionData{}, d.fail(diag.InpMissingField, path, nil, "function name is required")
	}
	fn := tast.FunctionData{Name: n.Name, Params: d.params(n.Params)}
	if n.External != nil {
		fn.External = &tast.External{Module: n.External.Module, Function: n.External.Function}
	}
	body, err := d.statements(path+".body", n.Body)
	if err != nil {
		return tast.FunctionData{}, err
	}
	fn.Body = body
	return fn, nil
}

func (d *decoder) params(ns []paramNode) []tast.Param {
	out := make([]tast.Param, len(ns))
	for i, p := range ns {
		out[i] = tast.Param{Name: p.Name, Span: d.span(p.Span)}
	}
	return out
}

func (d *decoder) statements(path string, ns []stmtNode) ([]tast.Statement, error) {
	var out []tast.Statement
	for i := range ns {
		st, err := d.statement(fmt.Sprintf("%s[%d]", path, i), &ns[i])
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (d *decoder) statement(path string, n *stmtNode) (tast.Statement, error) {
	if variants(n.Expr != nil, n.Let != nil, n.Use != nil) != 1 {
		return tast.Statement{}, d.fail(diag.InpUnknownKind, path, n.Span, "statement needs exactly one of expr, let, use")
	}
	sp := d.span(n.Span)
	switch {
	case n.Expr != nil:
		v, err := d.expr(path+".expr", n.Expr)
		if err != nil {
			return tast.Statement{}, err
		}
		if len(n.Span) == 0 {
			sp = v.Span
		}
		return tast.Statement{Kind: tast.StmtExpr, Span: sp, Data: tast.ExprStmt{Value: v}}, nil
	case n.Let != nil:
		p := path + ".let"
		if n.Let.Pattern == nil || n.Let.Value == nil {
			return tast.Statement{}, d.fail(diag.InpMissingField, p, n.Span, "pattern and value are required")
		}
		pat, err := d.pattern(p+".pattern", n.Let.Pattern)
		if err != nil {
			return tast.Statement{}, err
		}
		v, err := d.expr(p+".value", n.Let.Value)
		if err != nil {
			return tast.Statement{}, err
		}
		st := tast.AssignStmt{Kind: tast.AssignLet, Pattern: pat, Value: v}
		if n.Let.Assert {
			st.Kind = tast.AssignLetAssert
		}
		if n.Let.Message != nil {
			if st.Message, err = d.expr(p+".message", n.Let.Message); err != nil {
				return tast.Statement{}, err
			}
		}
		return tast.Statement{Kind: tast.StmtAssign, Span: sp, Data: st}, nil
	default:
		p := path + ".use"
		if n.Use.Call == nil {
			return tast.Statement{}, d.fail(diag.InpMissingField, p, n.Span, "call is required")
		}
		call, err := d.expr(p+".call", n.Use.Call)
		if err != nil {
			return tast.Statement{}, err
		}
		pats, err := d.patterns(p+".patterns", n.Use.Patterns)
		if err != nil {
			return tast.Statement{}, err
		}
		return tast.Statement{Kind: tast.StmtUse, Span: sp, Data: tast.UseStmt{Patterns: pats, Call: call}}, nil
	}
}

var varKinds = map[string]tast.VarKind{
	"":      tast.VarLocal,
	"local": tast.VarLocal,
	"const": tast.VarModuleConstant,
	"fn":    tast.VarModuleFn,
	"ctor":  tast.VarConstructor,
}

func (d *decoder) ref(path string, n *refNode) (tast.ValueConstructor, error) {
	kind, ok := varKinds[n.Kind]
	if !ok {
		return tast.ValueConstructor{}, d.fail(diag.InpUnknownKind, path, nil, "unknown reference kind %q", n.Kind)
	}
	if n.Name == "" {
		return tast.ValueConstructor{}, d.fail(diag.InpMissingField, path, nil, "name is required")
	}
	if kind != tast.VarLocal && n.Module == "" {
		return tast.ValueConstructor{}, d.fail(diag.InpMissingField, path, nil, "%s reference %q needs a module", n.Kind, n.Name)
	}
	vc := tast.ValueConstructor{
		Kind:     kind,
		Module:   n.Module,
		Name:     n.Name,
		Arity:    n.Arity,
		TypeName: n.TypeName,
		Fields:   n.Fields,
	}
	if n.Origin != "" {
		vc.Name = n.Origin
	}
	if kind == tast.VarConstructor && vc.Arity == 0 {
		vc.Arity = len(n.Fields)
	}
	if n.Literal != nil {
		lit, err := d.expr(path+".literal", n.Literal)
		if err != nil {
			return tast.ValueConstructor{}, err
		}
		vc.Literal = lit
	}
	return vc, nil
}

var binOps = func() map[string]tast.BinOp {
	m := make(map[string]tast.BinOp)
	for op := tast.OpAnd; op <= tast.OpConcatenate; op++ {
		m[op.String()] = op
	}
	return m
}()

func (d *decoder) exprs(path string, ns []exprNode) ([]*tast.Expr, error) {
	out := make([]*tast.Expr, len(ns))
	for i := range ns {
		e, err := d.expr(fmt.Sprintf("%s[%d]", path, i), &ns[i])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// optExpr decodes n when it is present.
func (d *decoder) optExpr(path string, n *exprNode) (*tast.Expr, error) {
	if n == nil {
		return nil, nil
	}
	return d.expr(path, n)
}

func (d *decoder) need(path string, n *exprNode, field string) (*tast.Expr, error) {
	if n == nil {
		return nil, d.fail(diag.InpMissingField, path, nil, "%s is required", field)
	}
	return d.expr(path+"."+field, n)
}

func (d *decoder) expr(path string, n *exprNode) (*tast.Expr, error) {
	if err := d.checkSpan(path, n.Span); err != nil {
		return nil, err
	}
	count := variants(
		n.Int != nil, n.Float != nil, n.String != nil, n.Var != nil, n.Fn != nil,
		n.Call != nil, n.BinOp != nil, n.Negate != nil, n.Not != nil, n.Block != nil,
		n.Pipe != nil, n.Tuple != nil || n.EmptyTuple, n.TupleIndex != nil, n.List != nil,
		n.Bits != nil, n.Case != nil, n.Access != nil, n.Update != nil, n.Select != nil,
		n.Panic != nil, n.Todo != nil,
	)
	if count != 1 {
		return nil, d.fail(diag.InpUnknownKind, path, n.Span, "expression needs exactly one kind, found %d", count)
	}
	t, err := parseType(n.Type)
	if err != nil {
		return nil, d.fail(diag.InpMalformed, path+".type", n.Span, "%v", err)
	}
	e := &tast.Expr{Type: t, Span: d.span(n.Span)}
	switch {
	case n.Int != nil:
		e.Kind, e.Data = tast.ExprInt, tast.IntData{Text: *n.Int}
		e.Type = orType(e.Type, tast.IntType)
	case n.Float != nil:
		e.Kind, e.Data = tast.ExprFloat, tast.FloatData{Text: *n.Float}
		e.Type = orType(e.Type, tast.FloatType)
	case n.String != nil:
		e.Kind, e.Data = tast.ExprString, tast.StringData{Value: *n.String}
		e.Type = orType(e.Type, tast.StringType)
	case n.Var != nil:
		vc, err := d.ref(path+".var", n.Var)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = tast.ExprVar, tast.VarData{Name: n.Var.Name, Constructor: vc}
	case n.Fn != nil:
		body, err := d.statements(path+".fn.body", n.Fn.Body)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = tast.ExprFn, tast.FnData{Params: d.params(n.Fn.Params), Body: body}
		e.Type = orType(e.Type, tast.Type{Kind: tast.TypeFn})
	case n.Call != nil:
		fun, err := d.need(path+".call", n.Call.Fun, "fun")
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(path+".call.args", n.Call.Args)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = tast.ExprCall, tast.CallData{Fun: fun, Args: args}
	case n.BinOp != nil:
		p := path + ".binop"
		op, ok := binOps[n.BinOp.Op]
		if !ok {
			return nil, d.fail(diag.InpUnknownKind, p, n.Span, "unknown operator %q", n.BinOp.Op)
		}
		left, err := d.need(p, n.BinOp.Left, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.need(p, n.BinOp.Right, "right")
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = tast.ExprBinOp, tast.BinOpData{Op: op, Left: left, Right: right}
		e.Type = orType(e.Type, opType(op))
	case n.Negate != nil, n.Not != nil:
		e.Kind, e.Type = tast.ExprNegateInt, orType(e.Type, tast.IntType)
		inner, p := n.Negate, path+".negate"
		if n.Not != nil {
			e.Kind, e.Type = tast.ExprNegateBool, orType(t, tast.BoolType)
			inner, p = n.Not, path+".not"
		}
		v, err := d.expr(p, inner)
		if err != nil {
			return nil, err
		}
		e.Data = tast.NegateData{Value: v}
	case n.Block != nil:
		stmts, err := d.statements(path+".block", n.Block)
		if err != nil {
			return nil, err
		}
		if len(stmts) == 0 {
			return nil, d.fail(diag.InpMalformed, path+".block", n.Span, "empty block")
		}
		e.Kind, e.Data = tast.ExprBlock, tast.BlockData{Statements: stmts}
	case n.Pipe != nil:
		return d.pipeline(path+".pipe", n, e)
	case n.Tuple != nil || n.EmptyTuple:
		elems, err := d.exprs(path+".tuple", n.Tuple)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = tast.ExprTuple, tast.TupleData{Elems: elems}
	case n.TupleIndex != nil:
		tuple, err := d.need(path+".tuple_index", n.TupleIndex.Tuple, "tuple")
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = tast.ExprTupleIndex, tast.TupleIndexData{Tuple: tuple, Index: n.TupleIndex.Index}
	case n.List != nil:
		elems, err := d.exprs(path+".list.elems", n.List.Elems)
		if err != nil {
			return nil, err
		}
		tail, err := d.optExpr(path+".list.tail", n.List.Tail)
		if err != nil {
			return nil, err
		}
		e.Kind, e.Data = tast.ExprList, tast.ListData{Elems: elems, Tail: tail}
	case n.Bits != nil:
		segs := make([]tast.Segment, len(n.Bits))
		for i := range n.Bits {
			p := fmt.Sprintf("%s.bits[%d]", path, i)
			s := &n.Bits[i]
			v, err := d.need(p, s.Value, "value")
			if err != nil {
				return nil, err
			}
			opts, err := d.options(p+".options", &s.Options)
			if err != nil {
				return nil, err
			}
			segs[i] = tast.Segment{Value: v, Options: opts, Span: d.span(s.Span)}
		}
		e.Kind, e.Data = tast.ExprBitArray, tast.BitArrayData{Segments: segs}
		e.Type = orType(e.Type, tast.BitsType)
	case n.Case != nil:
		return d.caseExpr(path+".case", n.Case, e)
	case n.Access != nil:
		p := path + ".access"
		rec, err := d.need(p, n.Access.Record, "record")
		if err != nil {
			return nil, err
		}
		data := tast.RecordAccessData{Record: rec, Label: n.Access.Label}
		for _, v := range n.Access.Variants {
			data.Variants = append(data.Variants, tast.VariantField{Constructor: v.Constructor, Index: v.Index, Fields: v.Fields})
		}
		e.Kind, e.Data = tast.ExprRecordAccess, data
	case n.Update != nil:
		p := path + ".update"
		rec, err := d.need(p, n.Update.Record, "record")
		if err != nil {
			return nil, err
		}
		data := tast.RecordUpdateData{Record: rec}
		if n.Update.Constructor != nil {
			if data.Constructor, err = d.ref(p+".constructor", n.Update.Constructor); err != nil {
				return nil, err
			}
		}
		for i, u := range n.Update.Updates {
			v, err := d.need(fmt.Sprintf("%s.updates[%d]", p, i), u.Value, "value")
			if err != nil {
				return nil, err
			}
			data.Updates = append(data.Updates, tast.RecordUpdateArg{Label: u.Label, Index: u.Index, Value: v})
		}
		e.Kind, e.Data = tast.ExprRecordUpdate, data
	case n.Select != nil:
		p := path + ".select"
		data := tast.ModuleSelectData{ModuleAlias: n.Select.Alias, Module: n.Select.Module, Label: n.Select.Label}
		if data.Module == "" || data.Label == "" {
			return nil, d.fail(diag.InpMissingField, p, n.Span, "module and label are required")
		}
		data.Constructor = tast.ValueConstructor{Kind: tast.VarModuleFn, Module: data.Module, Name: data.Label}
		if n.Select.Ref != nil {
			r := *n.Select.Ref
			if r.Name == "" {
				r.Name = data.Label
			}
			if r.Module == "" {
				r.Module = data.Module
			}
			vc, err := d.ref(p+".ref", &r)
			if err != nil {
				return nil, err
			}
			data.Constructor = vc
		}
		e.Kind, e.Data = tast.ExprModuleSelect, data
	default:
		e.Kind = tast.ExprPanic
		abort, p := n.Panic, path+".panic"
		if n.Todo != nil {
			e.Kind, abort, p = tast.ExprTodo, n.Todo, path+".todo"
		}
		msg, err := d.optExpr(p+".message", abort.Message)
		if err != nil {
			return nil, err
		}
		e.Data = tast.AbortData{Message: msg}
	}
	return e, nil
}

func (d *decoder) pipeline(path string, n *exprNode, e *tast.Expr) (*tast.Expr, error) {
	first, err := d.need(path, n.Pipe.First, "first")
	if err != nil {
		return nil, err
	}
	if len(n.Pipe.Steps) == 0 {
		return nil, d.fail(diag.InpMissingField, path, n.Span, "pipeline has no steps")
	}
	data := tast.PipelineData{First: first}
	for i := range n.Pipe.Steps {
		s := &n.Pipe.Steps[i]
		p := fmt.Sprintf("%s.steps[%d]", path, i)
		fun, err := d.need(p, s.Fun, "fun")
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(p+".args", s.Args)
		if err != nil {
			return nil, err
		}
		if s.Insert < -1 || s.Insert > len(args) {
			return nil, d.fail(diag.InpMalformed, p, s.Span, "insert position %d out of range", s.Insert)
		}
		data.Steps = append(data.Steps, tast.PipeStep{Fun: fun, Args: args, Insert: s.Insert, Span: d.span(s.Span)})
	}
	e.Kind, e.Data = tast.ExprPipeline, data
	return e, nil
}

func (d *decoder) caseExpr(path string, n *caseNode, e *tast.Expr) (*tast.Expr, error) {
	subjects, err := d.exprs(path+".subjects", n.Subjects)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, d.fail(diag.InpMissingField, path, nil, "case has no subjects")
	}
	data := tast.CaseData{Subjects: subjects, Exhaustive: n.Exhaustive}
	for i := range n.Clauses {
		c := &n.Clauses[i]
		p := fmt.Sprintf("%s.clauses[%d]", path, i)
		if len(c.Alternatives) == 0 {
			return nil, d.fail(diag.InpMissingField, p, c.Span, "clause has no patterns")
		}
		clause := tast.Clause{Span: d.span(c.Span)}
		for j, alt := range c.Alternatives {
			if len(alt) != len(subjects) {
				return nil, d.fail(diag.InpMalformed, p, c.Span, "alternative %d has %d patterns for %d subjects", j, len(alt), len(subjects))
			}
			pats, err := d.patterns(fmt.Sprintf("%s.alternatives[%d]", p, j), alt)
			if err != nil {
				return nil, err
			}
			clause.Patterns = append(clause.Patterns, pats)
		}
		if clause.Guard, err = d.optExpr(p+".guard", c.Guard); err != nil {
			return nil, err
		}
		if clause.Then, err = d.need(p, c.Then, "then"); err != nil {
			return nil, err
		}
		data.Clauses = append(data.Clauses, clause)
	}
	e.Kind, e.Data = tast.ExprCase, data
	return e, nil
}

var segmentKinds = map[string]tast.SegmentKind{
	"":               tast.SegDefault,
	"int":            tast.SegInt,
	"float":          tast.SegFloat,
	"bits":           tast.SegBits,
	"bit_array":      tast.SegBits,
	"bytes":          tast.SegBytes,
	"utf8":           tast.SegUTF8,
	"utf8_codepoint": tast.SegUTF8Codepoint,
	"utf16":          tast.SegUTF16,
	"utf32":          tast.SegUTF32,
}

var endians = map[string]tast.Endian{
	"":       tast.EndianBig,
	"big":    tast.EndianBig,
	"little": tast.EndianLittle,
	"native": tast.EndianNative,
}

func (d *decoder) options(path string, n *optionsNode) (tast.SegmentOptions, error) {
	kind, ok := segmentKinds[n.Kind]
	if !ok {
		return tast.SegmentOptions{}, d.fail(diag.InpUnknownKind, path, nil, "unknown segment type %q", n.Kind)
	}
	endian, ok := endians[n.Endian]
	if !ok {
		return tast.SegmentOptions{}, d.fail(diag.InpUnknownKind, path, nil, "unknown endianness %q", n.Endian)
	}
	if n.Unit < 0 || n.Unit > 256 {
		return tast.SegmentOptions{}, d.fail(diag.InpMalformed, path, nil, "unit %d out of range", n.Unit)
	}
	size, err := d.optExpr(path+".size", n.Size)
	if err != nil {
		return tast.SegmentOptions{}, err
	}
	return tast.SegmentOptions{Kind: kind, Size: size, Unit: n.Unit, Endian: endian, Signed: n.Signed}, nil
}

func (d *decoder) patterns(path string, ns []patNode) ([]*tast.Pattern, error) {
	out := make([]*tast.Pattern, len(ns))
	for i := range ns {
		p, err := d.pattern(fmt.Sprintf("%s[%d]", path, i), &ns[i])
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (d *decoder) optPattern(path string, n *patNode) (*tast.Pattern, error) {
	if n == nil {
		return nil, nil
	}
	return d.pattern(path, n)
}

func (d *decoder) pattern(path string, n *patNode) (*tast.Pattern, error) {
	if err := d.checkSpan(path, n.Span); err != nil {
		return nil, err
	}
	count := variants(
		n.Int != nil, n.Float != nil, n.String != nil, n.Var != nil, n.Discard != nil,
		n.Assign != nil, n.Tuple != nil || n.EmptyTuple, n.List != nil, n.Constructor != nil,
		n.Prefix != nil, n.Bits != nil,
	)
	if count != 1 {
		return nil, d.fail(diag.InpUnknownKind, path, n.Span, "pattern needs exactly one kind, found %d", count)
	}
	t, err := parseType(n.Type)
	if err != nil {
		return nil, d.fail(diag.InpMalformed, path+".type", n.Span, "%v", err)
	}
	p := &tast.Pattern{Type: t, Span: d.span(n.Span)}
	switch {
	case n.Int != nil:
		p.Kind, p.Data, p.Type = tast.PatInt, tast.PatIntData{Text: *n.Int}, orType(t, tast.IntType)
	case n.Float != nil:
		p.Kind, p.Data, p.Type = tast.PatFloat, tast.PatFloatData{Text: *n.Float}, orType(t, tast.FloatType)
	case n.String != nil:
		p.Kind, p.Data, p.Type = tast.PatString, tast.PatStringData{Value: *n.String}, orType(t, tast.StringType)
	case n.Var != nil:
		if *n.Var == "" {
			return nil, d.fail(diag.InpMissingField, path+".var", n.Span, "variable name is required")
		}
		p.Kind, p.Data = tast.PatVar, tast.PatVarData{Name: *n.Var}
	case n.Discard != nil:
		name := *n.Discard
		if name == "" {
			name = "_"
		}
		p.Kind, p.Data = tast.PatDiscard, tast.PatDiscardData{Name: name}
	case n.Assign != nil:
		if n.Assign.Pattern == nil || n.Assign.Name == "" {
			return nil, d.fail(diag.InpMissingField, path+".assign", n.Span, "name and pattern are required")
		}
		inner, err := d.pattern(path+".assign.pattern", n.Assign.Pattern)
		if err != nil {
			return nil, err
		}
		p.Kind, p.Data = tast.PatAssign, tast.PatAssignData{Name: n.Assign.Name, Pattern: inner}
	case n.Tuple != nil || n.EmptyTuple:
		elems, err := d.patterns(path+".tuple", n.Tuple)
		if err != nil {
			return nil, err
		}
		p.Kind, p.Data = tast.PatTuple, tast.PatTupleData{Elems: elems}
	case n.List != nil:
		elems, err := d.patterns(path+".list.elems", n.List.Elems)
		if err != nil {
			return nil, err
		}
		tail, err := d.optPattern(path+".list.tail", n.List.Tail)
		if err != nil {
			return nil, err
		}
		p.Kind, p.Data = tast.PatList, tast.PatListData{Elems: elems, Tail: tail}
	case n.Constructor != nil:
		ref := n.Constructor.Ref
		if ref.Kind == "" {
			ref.Kind = "ctor"
		}
		vc, err := d.ref(path+".constructor.ref", &ref)
		if err != nil {
			return nil, err
		}
		args, err := d.patterns(path+".constructor.args", n.Constructor.Args)
		if err != nil {
			return nil, err
		}
		p.Kind, p.Data = tast.PatConstructor, tast.PatConstructorData{Constructor: vc, Args: args}
	case n.Prefix != nil:
		rest, err := d.optPattern(path+".prefix.rest", n.Prefix.Rest)
		if err != nil {
			return nil, err
		}
		p.Kind, p.Data = tast.PatStringPrefix, tast.PatStringPrefixData{Prefix: n.Prefix.Prefix, PrefixAlias: n.Prefix.Alias, Rest: rest}
		p.Type = orType(t, tast.StringType)
	default:
		segs := make([]tast.PatSegment, len(n.Bits))
		for i := range n.Bits {
			sp := fmt.Sprintf("%s.bits[%d]", path, i)
			s := &n.Bits[i]
			if s.Value == nil {
				return nil, d.fail(diag.InpMissingField, sp, s.Span, "value is required")
			}
			v, err := d.pattern(sp+".value", s.Value)
			if err != nil {
				return nil, err
			}
			opts, err := d.options(sp+".options", &s.Options)
			if err != nil {
				return nil, err
			}
			segs[i] = tast.PatSegment{Value: v, Options: opts, Span: d.span(s.Span)}
		}
		p.Kind, p.Data, p.Type = tast.PatBitArray, tast.PatBitArrayData{Segments: segs}, orType(t, tast.BitsType)
	}
	return p, nil
}

func orType(t, fallback tast.Type) tast.Type {
	if t.Kind == tast.TypeUnknown {
		return fallback
	}
	return t
}

func opType(op tast.BinOp) tast.Type {
	switch op {
	case tast.OpAddInt, tast.OpSubInt, tast.OpMultInt, tast.OpDivInt, tast.OpRemainderInt:
		return tast.IntType
	case tast.OpAddFloat, tast.OpSubFloat, tast.OpMultFloat, tast.OpDivFloat:
		return tast.FloatType
	case tast.OpConcatenate:
		return tast.StringType
	}
	return tast.BoolType
}

var simpleTypes = map[string]tast.TypeKind{
	"Int":      tast.TypeInt,
	"Float":    tast.TypeFloat,
	"String":   tast.TypeString,
	"Bool":     tast.TypeBool,
	"Nil":      tast.TypeNil,
	"BitArray": tast.TypeBitArray,
	"List":     tast.TypeList,
	"Tuple":    tast.TypeTuple,
	"Fn":       tast.TypeFn,
}

// parseType reads the written form of a type: `Int`, `List(String)`,
// `Tuple(Int, Float)`, `gleam/option.Option(a)`, or a type variable `a`.
func parseType(s string) (tast.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return tast.Type{}, nil
	}
	head, args := s, ""
	if i := strings.IndexByte(s, '('); i >= 0 {
		if !strings.HasSuffix(s, ")") {
			return tast.Type{}, fmt.Errorf("unbalanced type %q", s)
		}
		head, args = s[:i], s[i+1:len(s)-1]
	}
	var t tast.Type
	if k, ok := simpleTypes[head]; ok {
		t.Kind = k
	} else if i := strings.LastIndexByte(head, '.'); i > 0 {
		t = tast.Type{Kind: tast.TypeCustom, Module: head[:i], Name: head[i+1:]}
	} else if head[0] >= 'a' && head[0] <= 'z' {
		t.Kind = tast.TypeVar
		t.Name = head
	} else {
		return tast.Type{}, fmt.Errorf("unknown type %q", head)
	}
	parts, err := splitTypeArgs(args)
	if err != nil {
		return tast.Type{}, err
	}
	for _, p := range parts {
		a, err := parseType(p)
		if err != nil {
			return tast.Type{}, err
		}
		t.Args = append(t.Args, a)
	}
	return t, nil
}

func splitTypeArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced parentheses in " + strconv.Quote(s))
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced parentheses in " + strconv.Quote(s))
	}
	return append(out, s[start:]), nil
}
