package tast

import (
	"nixgen/internal/source"
)

// ExprKind enumerates typed expression kinds.
type ExprKind uint8

const (
	ExprInt ExprKind = iota
	ExprFloat
	ExprString
	ExprVar
	ExprFn
	ExprCall
	ExprBinOp
	ExprNegateInt
	ExprNegateBool
	ExprBlock
	ExprPipeline
	ExprTuple
	ExprTupleIndex
	ExprList
	ExprBitArray
	ExprCase
	ExprRecordAccess
	ExprRecordUpdate
	ExprModuleSelect
	ExprPanic
	ExprTodo
)

func (k ExprKind) String() string {
	switch k {
	case ExprInt:
		return "Int"
	case ExprFloat:
		return "Float"
	case ExprString:
		return "String"
	case ExprVar:
		return "Var"
	case ExprFn:
		return "Fn"
	case ExprCall:
		return "Call"
	case ExprBinOp:
		return "BinOp"
	case ExprNegateInt:
		return "NegateInt"
	case ExprNegateBool:
		return "NegateBool"
	case ExprBlock:
		return "Block"
	case ExprPipeline:
		return "Pipeline"
	case ExprTuple:
		return "Tuple"
	case ExprTupleIndex:
		return "TupleIndex"
	case ExprList:
		return "List"
	case ExprBitArray:
		return "BitArray"
	case ExprCase:
		return "Case"
	case ExprRecordAccess:
		return "RecordAccess"
	case ExprRecordUpdate:
		return "RecordUpdate"
	case ExprModuleSelect:
		return "ModuleSelect"
	case ExprPanic:
		return "Panic"
	case ExprTodo:
		return "Todo"
	default:
		return "Unknown"
	}
}

// Expr is a typed expression node.
type Expr struct {
	Kind ExprKind
	Type Type
	Span source.Span
	Data ExprData // Kind-specific payload
}

// ExprData is implemented by every expression payload.
type ExprData interface {
	exprData()
}

// IntData holds data for ExprInt. Text is the literal as written
// (may carry 0x/0o/0b prefixes, '_' separators and a leading '-').
type IntData struct {
	Text string
}

func (IntData) exprData() {}

// FloatData holds data for ExprFloat.
type FloatData struct {
	Text string
}

func (FloatData) exprData() {}

// StringData holds data for ExprString. Value is already unescaped.
type StringData struct {
	Value string
}

func (StringData) exprData() {}

// VarData holds data for ExprVar. Name is the spelling at the use site,
// which differs from Constructor.Name for aliased imports.
type VarData struct {
	Name        string
	Constructor ValueConstructor
}

func (VarData) exprData() {}

// Param is a function parameter. Discarded parameters start with '_'.
type Param struct {
	Name string
	Span source.Span
}

// IsDiscard reports whether the parameter is never referenced.
func (p Param) IsDiscard() bool {
	return p.Name == "" || p.Name[0] == '_'
}

// FnData holds data for ExprFn.
type FnData struct {
	Params []Param
	Body   []Statement
}

func (FnData) exprData() {}

// CallData holds data for ExprCall. Labelled arguments are already in
// positional order.
type CallData struct {
	Fun  *Expr
	Args []*Expr
}

func (CallData) exprData() {}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	OpAnd BinOp = iota
	OpOr
	OpEq
	OpNotEq
	OpLtInt
	OpLtEqInt
	OpGtInt
	OpGtEqInt
	OpLtFloat
	OpLtEqFloat
	OpGtFloat
	OpGtEqFloat
	OpAddInt
	OpAddFloat
	OpSubInt
	OpSubFloat
	OpMultInt
	OpMultFloat
	OpDivInt
	OpDivFloat
	OpRemainderInt
	OpConcatenate
)

func (op BinOp) String() string {
	switch op {
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpLtInt:
		return "<"
	case OpLtEqInt:
		return "<="
	case OpGtInt:
		return ">"
	case OpGtEqInt:
		return ">="
	case OpLtFloat:
		return "<."
	case OpLtEqFloat:
		return "<=."
	case OpGtFloat:
		return ">."
	case OpGtEqFloat:
		return ">=."
	case OpAddInt:
		return "+"
	case OpAddFloat:
		return "+."
	case OpSubInt:
		return "-"
	case OpSubFloat:
		return "-."
	case OpMultInt:
		return "*"
	case OpMultFloat:
		return "*."
	case OpDivInt:
		return "/"
	case OpDivFloat:
		return "/."
	case OpRemainderInt:
		return "%"
	case OpConcatenate:
		return "<>"
	default:
		return "?"
	}
}

// BinOpData holds data for ExprBinOp.
type BinOpData struct {
	Op    BinOp
	Left  *Expr
	Right *Expr
}

func (BinOpData) exprData() {}

// NegateData holds data for ExprNegateInt and ExprNegateBool.
type NegateData struct {
	Value *Expr
}

func (NegateData) exprData() {}

// BlockData holds data for ExprBlock.
type BlockData struct {
	Statements []Statement
}

func (BlockData) exprData() {}

// PipeStep is one `|> step` of a pipeline. The piped value is inserted into
// Args at position Insert; a bare function step has no Args and Insert 0.
// Insert -1 applies the result of calling Fun with Args to the value.
type PipeStep struct {
	Fun    *Expr
	Args   []*Expr
	Insert int
	Span   source.Span
}

// PipelineData holds data for ExprPipeline.
type PipelineData struct {
	First *Expr
	Steps []PipeStep
}

func (PipelineData) exprData() {}

// TupleData holds data for ExprTuple.
type TupleData struct {
	Elems []*Expr
}

func (TupleData) exprData() {}

// TupleIndexData holds data for ExprTupleIndex.
type TupleIndexData struct {
	Tuple *Expr
	Index int
}

func (TupleIndexData) exprData() {}

// ListData holds data for ExprList. Tail is nil for a plain list literal.
type ListData struct {
	Elems []*Expr
	Tail  *Expr
}

func (ListData) exprData() {}

// BitArrayData holds data for ExprBitArray.
type BitArrayData struct {
	Segments []Segment
}

func (BitArrayData) exprData() {}

// Segment is one segment of a bit array literal.
type Segment struct {
	Value   *Expr
	Options SegmentOptions
	Span    source.Span
}

// Clause is one arm of a case expression. Patterns holds the alternatives
// (`p1 | p2`); each alternative has one pattern per subject.
type Clause struct {
	Patterns [][]*Pattern
	Guard    *Expr
	Then     *Expr
	Span     source.Span
}

// CaseData holds data for ExprCase. Exhaustive is set by the front-end when
// the clauses are proven to cover every value.
type CaseData struct {
	Subjects   []*Expr
	Clauses    []Clause
	Exhaustive bool
}

func (CaseData) exprData() {}

// VariantField locates an accessed field inside one variant of a custom type.
type VariantField struct {
	Constructor string
	Index       int
	Fields      []string // labels of the variant's fields, "" when positional
}

// RecordAccessData holds data for ExprRecordAccess.
type RecordAccessData struct {
	Record   *Expr
	Label    string
	Variants []VariantField
}

func (RecordAccessData) exprData() {}

// RecordUpdateArg is one `label: value` of a record update.
type RecordUpdateArg struct {
	Label string
	Index int
	Value *Expr
}

// RecordUpdateData holds data for ExprRecordUpdate.
type RecordUpdateData struct {
	Record      *Expr
	Constructor ValueConstructor
	Updates     []RecordUpdateArg
}

func (RecordUpdateData) exprData() {}

// ModuleSelectData holds data for ExprModuleSelect (`alias.label`).
type ModuleSelectData struct {
	ModuleAlias string
	Module      string
	Label       string
	Constructor ValueConstructor
}

func (ModuleSelectData) exprData() {}

// AbortData holds data for ExprPanic and ExprTodo.
type AbortData struct {
	Message *Expr // optional
}

func (AbortData) exprData() {}
