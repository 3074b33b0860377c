package nix

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"nixgen/internal/doc"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

// Support describes which optional features the target accepts.
// When Enforced is set, functions without a Nix implementation are errors
// instead of runtime-throwing stubs.
type Support struct {
	Enforced bool
}

// Option tweaks module emission.
type Option func(*Emitter)

// WithLineWidth sets the target line width of the rendered module.
func WithLineWidth(width int) Option {
	return func(e *Emitter) {
		if width > 0 {
			e.width = width
		}
	}
}

type importInfo struct {
	binding string // module-level name holding the imported attrset
	path    string
}

// Emitter holds the state of one module compilation. Nothing in it is
// shared with other compilations.
type Emitter struct {
	mod     *tast.Module
	file    *source.File
	support Support
	width   int

	// module-level names; locals with these names are renamed
	reserved map[string]struct{}
	// names defined by this module (functions, constants, constructors)
	defined map[string]bool
	consts  map[string]*tast.ConstantData
	env     *constEnv

	imports     map[string]importInfo // by module name
	unqualified map[[2]string]string  // (module, name) -> local binding
	autoImports map[string]importInfo
	helpers     map[string]bool
}

// EmitModule generates the Nix source of mod. file is the module's source
// text, used to resolve line numbers and documentation comments; it may be
// nil. The result is deterministic for identical inputs.
func EmitModule(mod *tast.Module, file *source.File, support Support, opts ...Option) (string, error) {
	if mod == nil {
		return "", fmt.Errorf("nil module")
	}
	e := &Emitter{
		mod:         mod,
		file:        file,
		support:     support,
		width:       doc.DefaultWidth,
		reserved:    make(map[string]struct{}),
		defined:     make(map[string]bool),
		consts:      make(map[string]*tast.ConstantData),
		imports:     make(map[string]importInfo),
		unqualified: make(map[[2]string]string),
		autoImports: make(map[string]importInfo),
		helpers:     make(map[string]bool),
	}
	e.env = newConstEnv(e)
	for _, opt := range opts {
		opt(e)
	}
	if err := e.collect(); err != nil {
		return "", err
	}
	body, err := e.emitDefinitions()
	if err != nil {
		return "", err
	}
	out := doc.Render(e.assemble(body), e.width)
	return out + "\n", nil
}

// collect registers every module-level name before any body is lowered.
func (e *Emitter) collect() error {
	e.reserved[preludeBinding] = struct{}{}
	for _, h := range preludeHelpers {
		e.reserved[h] = struct{}{}
	}
	for _, def := range e.mod.Definitions {
		switch d := def.Data.(type) {
		case tast.ImportData:
			alias := d.ModuleAlias()
			info := importInfo{binding: escapeName(alias), path: relativePath(e.mod.Name, d.Module+".nix")}
			if _, dup := e.imports[d.Module]; !dup {
				e.imports[d.Module] = info
			}
			e.reserved[alias] = struct{}{}
			for _, u := range d.Unqualified {
				if u.IsType {
					continue
				}
				e.unqualified[[2]string{d.Module, u.Name}] = escapeName(u.LocalName())
				e.reserved[u.LocalName()] = struct{}{}
			}
		case tast.FunctionData:
			if err := e.define(d.Name, def.Span); err != nil {
				return err
			}
		case tast.ConstantData:
			if err := e.define(d.Name, def.Span); err != nil {
				return err
			}
			e.consts[d.Name] = &d
		case tast.CustomTypeData:
			for _, c := range d.Constructors {
				if err := e.define(c.Name, c.Span); err != nil {
					return err
				}
			}
		case tast.TypeAliasData:
		default:
			return invalid(def.Span, "unknown definition kind %s", def.Kind)
		}
	}
	return nil
}

func (e *Emitter) define(name string, sp source.Span) error {
	if e.defined[name] {
		return invalid(sp, "duplicate definition of %q", name)
	}
	e.defined[name] = true
	e.reserved[name] = struct{}{}
	return nil
}

// helper returns a reference to a prelude function and records its use.
// A module definition with the same name forces a qualified reference.
func (e *Emitter) helper(name string) doc.Doc {
	e.helpers[name] = true
	if e.defined[name] {
		return doc.Text(preludeBinding + "." + name)
	}
	return doc.Text(name)
}

func (e *Emitter) line(sp source.Span) uint32 {
	if e.file == nil {
		return 0
	}
	return e.file.Line(sp.Start)
}

type topBinding struct {
	comment []string
	name    string // source name
	ident   string // Nix binding
	value   doc.Doc
	public  bool
}

func (e *Emitter) emitDefinitions() ([]topBinding, error) {
	var out []topBinding
	for _, def := range e.mod.Definitions {
		switch d := def.Data.(type) {
		case tast.FunctionData:
			value, err := e.emitFunction(def, d)
			if err != nil {
				return nil, err
			}
			out = append(out, topBinding{comment: e.docLines(def), name: d.Name, ident: escapeName(d.Name), value: value, public: def.Public})
		case tast.ConstantData:
			value, err := e.env.local(d.Name, def.Span)
			if err != nil {
				return nil, err
			}
			out = append(out, topBinding{comment: e.docLines(def), name: d.Name, ident: escapeName(d.Name), value: value, public: def.Public})
		case tast.CustomTypeData:
			for i, c := range d.Constructors {
				value := e.constructorFunction(c)
				var comment []string
				if i == 0 {
					comment = e.docLines(def)
				}
				out = append(out, topBinding{comment: comment, name: c.Name, ident: escapeName(c.Name), value: value, public: def.Public && !d.Opaque})
			}
		}
	}
	return out, nil
}

// docLines returns the documentation comment of def, reading it from source
// when the tree carries only its span. Lines are NFC-normalized so output
// does not depend on how an editor stored accents.
func (e *Emitter) docLines(def *tast.Definition) []string {
	if len(def.Doc) > 0 || def.DocSpan.Empty() || e.file == nil {
		out := make([]string, len(def.Doc))
		for i, l := range def.Doc {
			out[i] = norm.NFC.String(l)
		}
		return out
	}
	var out []string
	for _, l := range strings.Split(e.file.Slice(def.DocSpan), "\n") {
		l = strings.TrimSpace(l)
		if rest, ok := strings.CutPrefix(l, "///"); ok {
			out = append(out, norm.NFC.String(strings.TrimPrefix(rest, " ")))
		}
	}
	return out
}

// constructorFunction builds `a: b: { __gleamTag = "Name"; ... }` for a
// variant, or the bare record for a variant without fields.
func (e *Emitter) constructorFunction(c tast.ConstructorDef) doc.Doc {
	params := make([]string, len(c.Fields))
	values := make([]doc.Doc, len(c.Fields))
	for i, f := range c.Fields {
		if f != "" {
			params[i] = escapeName(f)
		} else {
			params[i] = fmt.Sprintf("_%d", i)
		}
		values[i] = doc.Text(params[i])
	}
	rec := recordDoc(c.Name, c.Fields, values)
	if len(params) == 0 {
		return rec
	}
	return doc.Text(strings.Join(params, ": ") + ": ").Append(rec)
}

func recordDoc(tag string, fields []string, values []doc.Doc) doc.Doc {
	attrs := make([]attr, 0, len(values)+1)
	attrs = append(attrs, attr{name: tagAttr, value: doc.Text(`"` + tag + `"`)})
	for i, v := range values {
		attrs = append(attrs, attr{name: fieldAttr(fields, i), value: v})
	}
	return attrsDoc(attrs)
}

// assemble lays out `let <imports> <definitions> in { <exports> }`.
func (e *Emitter) assemble(defs []topBinding) doc.Doc {
	var header []doc.Doc
	if len(e.helpers) > 0 {
		header = append(header, doc.Text(preludeBinding+" = builtins.import "+relativePath(e.mod.Name, PreludeFile)+";"))
		var names []string
		for h := range e.helpers {
			if !e.defined[h] {
				names = append(names, h)
			}
		}
		slices.Sort(names)
		if len(names) > 0 {
			header = append(header, inheritDoc(preludeBinding, names))
		}
	}
	header = append(header, e.importDocs()...)

	var sections []doc.Doc
	if len(header) > 0 {
		sections = append(sections, doc.Join(doc.HardLine(), header))
	}
	for _, b := range defs {
		var parts []doc.Doc
		for _, c := range b.comment {
			parts = append(parts, doc.Text(strings.TrimRight("# "+c, " ")), doc.HardLine())
		}
		parts = append(parts, doc.Group(doc.Concat(
			doc.Text(b.ident+" ="),
			doc.Nest(2, doc.Concat(doc.Line(), b.value)),
			doc.Text(";"),
		)))
		sections = append(sections, doc.Concat(parts...))
	}

	var exports []attr
	var inherits []string
	for _, b := range defs {
		if !b.public {
			continue
		}
		if b.ident == b.name {
			inherits = append(inherits, b.name)
		} else {
			exports = append(exports, attr{name: attrName(b.name), value: doc.Text(b.ident)})
		}
	}
	result := exportsDoc(inherits, exports)
	if len(sections) == 0 {
		return result
	}
	return doc.Concat(
		doc.Text("let"),
		doc.Nest(2, doc.Concat(doc.HardLine(), doc.Join(doc.Concat(doc.HardLine(), doc.HardLine()), sections))),
		doc.HardLine(),
		doc.Text("in"),
		doc.HardLine(),
		result,
	)
}

func (e *Emitter) importDocs() []doc.Doc {
	var out []doc.Doc
	modules := make([]string, 0, len(e.imports))
	for m := range e.imports {
		modules = append(modules, m)
	}
	slices.Sort(modules)
	bound := make(map[string]bool)
	for _, m := range modules {
		info := e.imports[m]
		if !bound[info.binding] {
			bound[info.binding] = true
			out = append(out, doc.Text(info.binding+" = builtins.import "+info.path+";"))
		}
	}
	for _, def := range e.mod.Definitions {
		d, ok := def.Data.(tast.ImportData)
		if !ok {
			continue
		}
		from := e.imports[d.Module].binding
		var plain []string
		for _, u := range d.Unqualified {
			if u.IsType {
				continue
			}
			if u.As == "" && !isReserved(u.Name) {
				plain = append(plain, u.Name)
				continue
			}
			out = append(out, doc.Text(escapeName(u.LocalName())+" = "+from+"."+attrName(u.Name)+";"))
		}
		if len(plain) > 0 {
			out = append(out, inheritDoc(from, plain))
		}
	}
	autos := make([]string, 0, len(e.autoImports))
	for m := range e.autoImports {
		autos = append(autos, m)
	}
	slices.Sort(autos)
	for _, m := range autos {
		info := e.autoImports[m]
		out = append(out, doc.Text(info.binding+" = builtins.import "+info.path+";"))
	}
	return out
}

func inheritDoc(from string, names []string) doc.Doc {
	items := make([]doc.Doc, len(names))
	for i, n := range names {
		items[i] = doc.Text(n)
	}
	return doc.Group(doc.Concat(
		doc.Text("inherit ("+from+")"),
		doc.Nest(2, doc.Concat(doc.Line(), doc.Join(doc.Line(), items))),
		doc.Text(";"),
	))
}

func exportsDoc(inherits []string, exports []attr) doc.Doc {
	var items []doc.Doc
	if len(inherits) > 0 {
		names := make([]doc.Doc, len(inherits))
		for i, n := range inherits {
			names[i] = doc.Text(n)
		}
		items = append(items, doc.Group(doc.Concat(
			doc.Text("inherit"),
			doc.Nest(2, doc.Concat(doc.Line(), doc.Join(doc.Line(), names))),
			doc.Text(";"),
		)))
	}
	for _, a := range exports {
		items = append(items, doc.Concat(doc.Text(a.name+" = "), a.value, doc.Text(";")))
	}
	if len(items) == 0 {
		return doc.Text("{ }")
	}
	return doc.Group(doc.Concat(
		doc.Text("{"),
		doc.Nest(2, doc.Concat(doc.Line(), doc.Join(doc.Line(), items))),
		doc.Line(),
		doc.Text("}"),
	))
}

// moduleRef returns the binding through which names of module m are
// reached, adding a synthetic import when m is not imported.
func (e *Emitter) moduleRef(m string) string {
	if info, ok := e.imports[m]; ok {
		return info.binding
	}
	if info, ok := e.autoImports[m]; ok {
		return info.binding
	}
	info := importInfo{
		binding: tast.LastSegment(m) + "'import",
		path:    relativePath(e.mod.Name, m+".nix"),
	}
	for _, other := range e.autoImports {
		if other.binding == info.binding {
			info.binding = strings.ReplaceAll(m, "/", "_") + "'import"
			break
		}
	}
	e.autoImports[m] = info
	return info.binding
}

// foreignRef renders a reference to name defined in module m.
func (e *Emitter) foreignRef(m, name string) doc.Doc {
	if local, ok := e.unqualified[[2]string{m, name}]; ok {
		return doc.Text(local)
	}
	return doc.Text(e.moduleRef(m) + "." + attrName(name))
}
