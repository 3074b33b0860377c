package nix

import (
	"fmt"
	"strconv"
	"strings"

	"nixgen/internal/doc"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

// funcEmitter lowers the body of one top-level definition. Its ledger is
// private to that definition.
type funcEmitter struct {
	e      *Emitter
	fnName string
	ledger *Ledger
}

func (e *Emitter) newFuncEmitter(name string) *funcEmitter {
	return &funcEmitter{e: e, fnName: name, ledger: NewLedger(e.reserved)}
}

func (e *Emitter) emitFunction(def *tast.Definition, d tast.FunctionData) (doc.Doc, error) {
	if d.External != nil {
		return externalDoc(d.External), nil
	}
	fe := e.newFuncEmitter(d.Name)
	if len(d.Body) == 0 {
		if e.support.Enforced {
			return doc.Nil, unsupported(fmt.Sprintf("function %s without a nix implementation", d.Name), def.Span)
		}
		params := make([]tast.Param, len(d.Params))
		for i := range params {
			params[i] = tast.Param{Name: "_"}
		}
		msg, err := stringDoc(fmt.Sprintf("%s has no implementation for the nix target", d.Name), def.Span)
		if err != nil {
			return doc.Nil, err
		}
		return fe.lambdaDoc(params, nil, fe.abort("todo", msg, def.Span, nil)), nil
	}
	root := fe.ledger.Push(NoScope)
	out, err := fe.lambda(d.Params, d.Body, root)
	if lerr := fe.ledger.Err(); lerr != nil {
		return doc.Nil, invalid(def.Span, "%s: %v", d.Name, lerr)
	}
	return out, err
}

func externalDoc(ext *tast.External) doc.Doc {
	path := ext.Module
	if !strings.HasPrefix(path, "./") && !strings.HasPrefix(path, "../") && !strings.HasPrefix(path, "/") {
		path = "./" + path
	}
	return doc.Text("(builtins.import " + path + ")." + attrName(ext.Function))
}

// lambda lowers `fn(a, b) { body }` to `a: b: body` in a child of parent.
func (fe *funcEmitter) lambda(params []tast.Param, body []tast.Statement, parent ScopeID) (doc.Doc, error) {
	scope := fe.ledger.Push(parent)
	names := fe.bindParams(params, scope)
	b, err := fe.statements(body, scope)
	if err != nil {
		return doc.Nil, err
	}
	return fe.lambdaDoc(nil, names, b), nil
}

func (fe *funcEmitter) bindParams(params []tast.Param, scope ScopeID) []string {
	names := make([]string, len(params))
	for i, p := range params {
		if p.IsDiscard() {
			names[i] = "_"
		} else {
			names[i] = fe.ledger.Bind(scope, p.Name)
		}
	}
	return names
}

// lambdaDoc renders the curried head. Zero-arity functions take an empty
// attrset and are called as `f { }`.
func (fe *funcEmitter) lambdaDoc(params []tast.Param, names []string, body doc.Doc) doc.Doc {
	if names == nil {
		names = make([]string, len(params))
		for i, p := range params {
			names[i] = p.Name
		}
	}
	head := "{ }:"
	if len(names) > 0 {
		head = strings.Join(names, ": ") + ":"
	}
	return doc.Group(doc.Concat(doc.Text(head), doc.Nest(2, doc.Concat(doc.Line(), body))))
}

// abort builds `builtins.throw (makeError kind module line fn message { ... })`.
func (fe *funcEmitter) abort(kind string, message doc.Doc, sp source.Span, extra []attr) doc.Doc {
	mod, _ := quoteString(fe.e.mod.Name, sp)
	fn, _ := quoteString(fe.fnName, sp)
	call := apply(fe.e.helper("makeError"),
		doc.Text(strconv.Quote(kind)),
		doc.Text(mod),
		doc.Text(strconv.FormatUint(uint64(fe.e.line(sp)), 10)),
		doc.Text(fn),
		message,
		attrsDoc(extra),
	)
	return apply(doc.Text("builtins.throw"), parens(call, false))
}

func spanAttrs(prefix string, sp source.Span) []attr {
	return []attr{
		{name: prefix + "start", value: doc.Text(strconv.FormatUint(uint64(sp.Start), 10))},
		{name: prefix + "end", value: doc.Text(strconv.FormatUint(uint64(sp.End), 10))},
	}
}
