package tast

// Constructors for tree nodes. Used by the interchange decoder and tests.

var (
	IntType    = Type{Kind: TypeInt}
	FloatType  = Type{Kind: TypeFloat}
	StringType = Type{Kind: TypeString}
	BoolType   = Type{Kind: TypeBool}
	NilType    = Type{Kind: TypeNil}
	BitsType   = Type{Kind: TypeBitArray}
)

func ListOf(elem Type) Type { return Type{Kind: TypeList, Args: []Type{elem}} }

func TupleOf(elems ...Type) Type { return Type{Kind: TypeTuple, Args: elems} }

func Int(text string) *Expr {
	return &Expr{Kind: ExprInt, Type: IntType, Data: IntData{Text: text}}
}

func Float(text string) *Expr {
	return &Expr{Kind: ExprFloat, Type: FloatType, Data: FloatData{Text: text}}
}

func String(value string) *Expr {
	return &Expr{Kind: ExprString, Type: StringType, Data: StringData{Value: value}}
}

// Local references a local variable.
func Local(name string, t Type) *Expr {
	return &Expr{Kind: ExprVar, Type: t, Data: VarData{
		Name:        name,
		Constructor: ValueConstructor{Kind: VarLocal, Name: name},
	}}
}

// ModuleFn references a module-level function.
func ModuleFn(module, name string, arity int) *Expr {
	return &Expr{Kind: ExprVar, Type: Type{Kind: TypeFn}, Data: VarData{
		Name:        name,
		Constructor: ValueConstructor{Kind: VarModuleFn, Module: module, Name: name, Arity: arity},
	}}
}

// ModuleConst references a module-level constant whose value is literal.
func ModuleConst(module, name string, literal *Expr) *Expr {
	t := Type{}
	if literal != nil {
		t = literal.Type
	}
	return &Expr{Kind: ExprVar, Type: t, Data: VarData{
		Name:        name,
		Constructor: ValueConstructor{Kind: VarModuleConstant, Module: module, Name: name, Literal: literal},
	}}
}

// Ctor references a record constructor.
func Ctor(module, typeName, name string, fields ...string) *Expr {
	return &Expr{Kind: ExprVar, Type: Type{Kind: TypeCustom, Module: module, Name: typeName}, Data: VarData{
		Name: name,
		Constructor: ValueConstructor{
			Kind:     VarConstructor,
			Module:   module,
			Name:     name,
			Arity:    len(fields),
			TypeName: typeName,
			Fields:   fields,
		},
	}}
}

func True() *Expr {
	e := Ctor(PreludeModule, "Bool", "True")
	e.Type = BoolType
	return e
}

func False() *Expr {
	e := Ctor(PreludeModule, "Bool", "False")
	e.Type = BoolType
	return e
}

func Call(fun *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Data: CallData{Fun: fun, Args: args}}
}

func Bin(op BinOp, left, right *Expr) *Expr {
	return &Expr{Kind: ExprBinOp, Type: binOpType(op, left), Data: BinOpData{Op: op, Left: left, Right: right}}
}

func binOpType(op BinOp, left *Expr) Type {
	switch op {
	case OpAddInt, OpSubInt, OpMultInt, OpDivInt, OpRemainderInt:
		return IntType
	case OpAddFloat, OpSubFloat, OpMultFloat, OpDivFloat:
		return FloatType
	case OpConcatenate:
		return StringType
	default:
		return BoolType
	}
}

func Tuple(elems ...*Expr) *Expr {
	types := make([]Type, len(elems))
	for i, e := range elems {
		types[i] = e.Type
	}
	return &Expr{Kind: ExprTuple, Type: TupleOf(types...), Data: TupleData{Elems: elems}}
}

func List(elems ...*Expr) *Expr {
	return &Expr{Kind: ExprList, Data: ListData{Elems: elems}}
}

func Fn(params []string, body ...Statement) *Expr {
	ps := make([]Param, len(params))
	for i, p := range params {
		ps[i] = Param{Name: p}
	}
	return &Expr{Kind: ExprFn, Type: Type{Kind: TypeFn}, Data: FnData{Params: ps, Body: body}}
}

func Block(stmts ...Statement) *Expr {
	return &Expr{Kind: ExprBlock, Data: BlockData{Statements: stmts}}
}

func Case(exhaustive bool, subjects []*Expr, clauses ...Clause) *Expr {
	return &Expr{Kind: ExprCase, Data: CaseData{Subjects: subjects, Clauses: clauses, Exhaustive: exhaustive}}
}

// Arm builds a single-alternative clause.
func Arm(then *Expr, patterns ...*Pattern) Clause {
	return Clause{Patterns: [][]*Pattern{patterns}, Then: then}
}

func Panic(message *Expr) *Expr {
	return &Expr{Kind: ExprPanic, Data: AbortData{Message: message}}
}

func Todo(message *Expr) *Expr {
	return &Expr{Kind: ExprTodo, Data: AbortData{Message: message}}
}

func Do(e *Expr) Statement {
	return Statement{Kind: StmtExpr, Span: e.Span, Data: ExprStmt{Value: e}}
}

func Let(p *Pattern, value *Expr) Statement {
	return Statement{Kind: StmtAssign, Data: AssignStmt{Kind: AssignLet, Pattern: p, Value: value}}
}

func LetAssert(p *Pattern, value, message *Expr) Statement {
	return Statement{Kind: StmtAssign, Data: AssignStmt{Kind: AssignLetAssert, Pattern: p, Value: value, Message: message}}
}

func Use(call *Expr, patterns ...*Pattern) Statement {
	return Statement{Kind: StmtUse, Data: UseStmt{Patterns: patterns, Call: call}}
}

func PVar(name string) *Pattern {
	return &Pattern{Kind: PatVar, Data: PatVarData{Name: name}}
}

func PDiscard() *Pattern {
	return &Pattern{Kind: PatDiscard, Data: PatDiscardData{Name: "_"}}
}

func PInt(text string) *Pattern {
	return &Pattern{Kind: PatInt, Type: IntType, Data: PatIntData{Text: text}}
}

func PFloat(text string) *Pattern {
	return &Pattern{Kind: PatFloat, Type: FloatType, Data: PatFloatData{Text: text}}
}

func PString(value string) *Pattern {
	return &Pattern{Kind: PatString, Type: StringType, Data: PatStringData{Value: value}}
}

func PTuple(elems ...*Pattern) *Pattern {
	return &Pattern{Kind: PatTuple, Data: PatTupleData{Elems: elems}}
}

func PList(tail *Pattern, elems ...*Pattern) *Pattern {
	return &Pattern{Kind: PatList, Data: PatListData{Elems: elems, Tail: tail}}
}

func PAssign(name string, p *Pattern) *Pattern {
	return &Pattern{Kind: PatAssign, Type: p.Type, Data: PatAssignData{Name: name, Pattern: p}}
}

// PCtor matches a constructor. ctor must be built with Ctor.
func PCtor(ctor *Expr, args ...*Pattern) *Pattern {
	vd := ctor.Data.(VarData)
	return &Pattern{Kind: PatConstructor, Type: ctor.Type, Data: PatConstructorData{Constructor: vd.Constructor, Args: args}}
}

func Fun(name string, public bool, params []string, body ...Statement) *Definition {
	ps := make([]Param, len(params))
	for i, p := range params {
		ps[i] = Param{Name: p}
	}
	return &Definition{Kind: DefFunction, Public: public, Data: FunctionData{Name: name, Params: ps, Body: body}}
}

func Const(name string, public bool, value *Expr) *Definition {
	return &Definition{Kind: DefConstant, Public: public, Data: ConstantData{Name: name, Value: value}}
}

func Import(module, alias string, unqualified ...UnqualifiedImport) *Definition {
	return &Definition{Kind: DefImport, Data: ImportData{Module: module, Alias: alias, Unqualified: unqualified}}
}

func CustomType(name string, public bool, ctors ...ConstructorDef) *Definition {
	return &Definition{Kind: DefCustomType, Public: public, Data: CustomTypeData{Name: name, Constructors: ctors}}
}
