package tast

import "nixgen/internal/source"

// DefKind enumerates top-level definition kinds.
type DefKind uint8

const (
	DefImport DefKind = iota
	DefFunction
	DefConstant
	DefCustomType
	DefTypeAlias
)

func (k DefKind) String() string {
	switch k {
	case DefImport:
		return "import"
	case DefFunction:
		return "function"
	case DefConstant:
		return "constant"
	case DefCustomType:
		return "custom_type"
	case DefTypeAlias:
		return "type_alias"
	default:
		return "unknown"
	}
}

// Module is one type-checked module. Name is slash separated ("a/b/c").
type Module struct {
	Name        string
	Definitions []*Definition
}

// Definition is one top-level item. Doc is the documentation comment text
// with the leading `///` stripped, one entry per line. When Doc is empty and
// DocSpan is set the backend reads the comment from the source file.
type Definition struct {
	Kind    DefKind
	Span    source.Span
	Doc     []string
	DocSpan source.Span
	Public  bool
	Data    DefData
}

// DefData is implemented by every definition payload.
type DefData interface {
	defData()
}

// UnqualifiedImport is one `{name as alias}` entry of an import.
type UnqualifiedImport struct {
	Name   string
	As     string // "" when not aliased
	IsType bool
}

// LocalName returns the name the import is visible under.
func (u UnqualifiedImport) LocalName() string {
	if u.As != "" {
		return u.As
	}
	return u.Name
}

// ImportData holds data for DefImport.
type ImportData struct {
	Module      string
	Alias       string // "" means the last path segment
	Unqualified []UnqualifiedImport
}

func (ImportData) defData() {}

// ModuleAlias returns the name the imported module is referenced by.
func (d ImportData) ModuleAlias() string {
	if d.Alias != "" {
		return d.Alias
	}
	return LastSegment(d.Module)
}

// External names a foreign implementation for a function.
type External struct {
	Module   string
	Function string
}

// FunctionData holds data for DefFunction. External is set when the
// function has an `@external(nix, ...)` attribute; Body may then be empty.
type FunctionData struct {
	Name     string
	Params   []Param
	Body     []Statement
	External *External
}

func (FunctionData) defData() {}

// ConstantData holds data for DefConstant.
type ConstantData struct {
	Name  string
	Value *Expr
}

func (ConstantData) defData() {}

// ConstructorDef is one variant of a custom type.
type ConstructorDef struct {
	Name   string
	Fields []string // labels, "" for positional fields
	Span   source.Span
}

// CustomTypeData holds data for DefCustomType.
type CustomTypeData struct {
	Name         string
	Opaque       bool
	Constructors []ConstructorDef
}

func (CustomTypeData) defData() {}

// TypeAliasData holds data for DefTypeAlias. Aliases produce no output.
type TypeAliasData struct {
	Name string
}

func (TypeAliasData) defData() {}

// LastSegment returns the final `/` separated segment of a module name.
func LastSegment(module string) string {
	for i := len(module) - 1; i >= 0; i-- {
		if module[i] == '/' {
			return module[i+1:]
		}
	}
	return module
}

// Imports returns the module's import definitions in source order.
func (m *Module) Imports() []ImportData {
	var out []ImportData
	for _, d := range m.Definitions {
		if imp, ok := d.Data.(ImportData); ok {
			out = append(out, imp)
		}
	}
	return out
}
