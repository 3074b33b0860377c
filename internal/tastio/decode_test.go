package tastio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nixgen/internal/diag"
	"nixgen/internal/source"
	"nixgen/internal/tast"
	"nixgen/internal/testkit"
)

const sample = `
module: app/main
definitions:
  - import:
      module: gleam/list
      unqualified:
        - {name: map}
        - {name: filter, as: keep}
  - public: true
    doc: ["Adds one."]
    span: [0, 40]
    function:
      name: inc
      params: [{name: x}]
      body:
        - expr:
            binop:
              op: "+"
              left: {var: {name: x}, type: Int}
              right: {int: "1"}
  - const:
      name: pair
      value:
        tuple:
          - {float: "1.5"}
          - {string: "a"}
  - public: true
    type:
      name: Shape
      variants:
        - {name: Square, fields: [size]}
        - {name: Point}
  - function:
      name: area
      params: [{name: s}]
      body:
        - let:
            assert: true
            pattern:
              constructor:
                ref: {name: Square, module: app/main, type_name: Shape, fields: [size]}
                args: [{var: n}]
            value: {var: {name: s}}
        - expr:
            case:
              exhaustive: false
              subjects: [{var: {name: n}, type: Int}]
              clauses:
                - alternatives: [[{int: "0"}], [{int: "1"}]]
                  then: {string: small}
                - alternatives: [[{discard: _}]]
                  guard: {binop: {op: ">", left: {var: {name: n}}, right: {int: "9"}}}
                  then: {todo: {}}
`

func TestDecodeModule(t *testing.T) {
	unit, err := Decode(nil, []byte(sample), "main.yaml")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	mod := unit.Module
	if mod.Name != "app/main" {
		t.Fatalf("module name = %q", mod.Name)
	}
	if len(mod.Definitions) != 5 {
		t.Fatalf("got %d definitions, want 5", len(mod.Definitions))
	}

	imp, ok := mod.Definitions[0].Data.(tast.ImportData)
	if !ok || imp.ModuleAlias() != "list" || len(imp.Unqualified) != 2 || imp.Unqualified[1].LocalName() != "keep" {
		t.Fatalf("import decoded as %+v", mod.Definitions[0].Data)
	}

	inc := mod.Definitions[1]
	fn, ok := inc.Data.(tast.FunctionData)
	if !ok || !inc.Public || fn.Name != "inc" || len(fn.Params) != 1 {
		t.Fatalf("function decoded as %+v", inc)
	}
	if inc.Span.End != 40 || len(inc.Doc) != 1 {
		t.Fatalf("definition span/doc = %v %v", inc.Span, inc.Doc)
	}
	bin := fn.Body[0].Data.(tast.ExprStmt).Value
	bd, ok := bin.Data.(tast.BinOpData)
	if !ok || bd.Op != tast.OpAddInt || bin.Type.Kind != tast.TypeInt {
		t.Fatalf("binop decoded as %+v", bin)
	}
	if v := bd.Left.Data.(tast.VarData); v.Constructor.Kind != tast.VarLocal || v.Name != "x" {
		t.Fatalf("left operand = %+v", v)
	}

	pair := mod.Definitions[2].Data.(tast.ConstantData)
	if pair.Value.Kind != tast.ExprTuple || len(pair.Value.Data.(tast.TupleData).Elems) != 2 {
		t.Fatalf("constant decoded as %+v", pair.Value)
	}

	shape := mod.Definitions[3].Data.(tast.CustomTypeData)
	if len(shape.Constructors) != 2 || shape.Constructors[0].Fields[0] != "size" {
		t.Fatalf("custom type decoded as %+v", shape)
	}

	area := mod.Definitions[4].Data.(tast.FunctionData)
	assign := area.Body[0].Data.(tast.AssignStmt)
	if assign.Kind != tast.AssignLetAssert {
		t.Fatalf("let assert decoded as %v", assign.Kind)
	}
	ctor := assign.Pattern.Data.(tast.PatConstructorData)
	if ctor.Constructor.Kind != tast.VarConstructor || ctor.Constructor.Arity != 1 {
		t.Fatalf("constructor pattern = %+v", ctor.Constructor)
	}
	cs := area.Body[1].Data.(tast.ExprStmt).Value.Data.(tast.CaseData)
	if len(cs.Clauses) != 2 || len(cs.Clauses[0].Patterns) != 2 || cs.Clauses[1].Guard == nil {
		t.Fatalf("case decoded as %+v", cs)
	}
	if then := cs.Clauses[1].Then; then.Kind != tast.ExprTodo {
		t.Fatalf("todo decoded as %v", then.Kind)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		code diag.Code
	}{
		{"malformed", "module: [", diag.InpMalformed},
		{"no module", "definitions: []", diag.InpMissingField},
		{"no kind", "module: a\ndefinitions:\n  - public: true\n", diag.InpUnknownKind},
		{"two kinds", "module: a\ndefinitions:\n  - {type_alias: T, import: {module: b}}\n", diag.InpUnknownKind},
		{"bad op", "module: a\ndefinitions:\n  - const: {name: c, value: {binop: {op: \"^\", left: {int: \"1\"}, right: {int: \"2\"}}}}\n", diag.InpUnknownKind},
		{"duplicate", "module: a\ndefinitions:\n  - const: {name: c, value: {int: \"1\"}}\n  - function: {name: c}\n", diag.InpDuplicateName},
		{"bad span", "module: a\ndefinitions:\n  - {span: [5, 1], type_alias: T}\n", diag.InpMalformed},
		{"ref without module", "module: a\ndefinitions:\n  - const: {name: c, value: {var: {name: f, kind: fn}}}\n", diag.InpMissingField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(nil, []byte(tc.doc), "x.yaml")
			var de *Error
			if !errors.As(err, &de) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if de.Code != tc.code {
				t.Fatalf("code = %v, want %v (%v)", de.Code, tc.code, err)
			}
		})
	}
}

func TestLoadReadsSource(t *testing.T) {
	dir := t.TempDir()
	src := "/// Doc\npub fn main() { 1 }\n"
	if err := os.WriteFile(filepath.Join(dir, "main.gleam"), []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	doc := "module: main\nsource: main.gleam\ndefinitions:\n  - {function: {name: main, body: [{expr: {int: \"1\", span: [24, 25]}}]}}\n"
	path := filepath.Join(dir, "main.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	unit, err := Load(fs, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if unit.File == nil || string(unit.File.Content) != src {
		t.Fatalf("source file not loaded: %+v", unit.File)
	}
	v := unit.Module.Definitions[0].Data.(tast.FunctionData).Body[0].Data.(tast.ExprStmt).Value
	if v.Span.File != unit.File.ID || v.Span.Start != 24 {
		t.Fatalf("span not stamped with the source file: %v", v.Span)
	}
	if line := unit.File.Line(v.Span.Start); line != 2 {
		t.Fatalf("line = %d, want 2", line)
	}
	if err := testkit.CheckModuleSpans(unit.Module, unit.File); err != nil {
		t.Fatal(err)
	}
}

func TestSpansClampedToSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.gleam"), []byte("pub fn f() { 1 }\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	doc := "module: m\nsource: m.gleam\ndefinitions:\n  - span: [4, 500]\n    function: {name: f, params: [{name: x, span: [300, 400]}], body: [{expr: {int: \"1\"}}]}\n"
	path := filepath.Join(dir, "m.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	unit, err := Load(source.NewFileSet(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := unit.Module.Definitions[0]
	if def.Span.Start != 4 || def.Span.End != 17 {
		t.Fatalf("definition span = %v, want [4, 17)", def.Span)
	}
	param := def.Data.(tast.FunctionData).Params[0]
	if param.Span.Start != 17 || param.Span.End != 17 {
		t.Fatalf("param span = %v", param.Span)
	}
	if err := testkit.CheckModuleSpans(unit.Module, unit.File); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.yaml")
	if err := os.WriteFile(path, []byte("module: m\nsource: gone.gleam\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(source.NewFileSet(), path)
	var de *Error
	if !errors.As(err, &de) || de.Code != diag.InpMissingSource {
		t.Fatalf("expected InpMissingSource, got %v", err)
	}
}

func TestParseType(t *testing.T) {
	cases := map[string]tast.TypeKind{
		"":                       tast.TypeUnknown,
		"Int":                    tast.TypeInt,
		"List(Tuple(Int, a))":    tast.TypeList,
		"gleam/option.Option(a)": tast.TypeCustom,
		"a":                      tast.TypeVar,
	}
	for in, want := range cases {
		got, err := parseType(in)
		if err != nil {
			t.Fatalf("parseType(%q): %v", in, err)
		}
		if got.Kind != want {
			t.Errorf("parseType(%q).Kind = %v, want %v", in, got.Kind, want)
		}
	}
	nested, _ := parseType("List(Tuple(Int, a))")
	if len(nested.Args) != 1 || len(nested.Args[0].Args) != 2 {
		t.Fatalf("nested args = %+v", nested)
	}
	if _, err := parseType("List(Int"); err == nil {
		t.Fatalf("expected error for unbalanced type")
	}
}
