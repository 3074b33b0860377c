package tast

import "nixgen/internal/source"

// StmtKind enumerates statement kinds inside function bodies and blocks.
type StmtKind uint8

const (
	StmtExpr StmtKind = iota
	StmtAssign
	StmtUse
)

// Statement is one statement of a body.
type Statement struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is implemented by every statement payload.
type StmtData interface {
	stmtData()
}

// ExprStmt holds data for StmtExpr.
type ExprStmt struct {
	Value *Expr
}

func (ExprStmt) stmtData() {}

// AssignKind distinguishes `let` from `let assert`.
type AssignKind uint8

const (
	AssignLet AssignKind = iota
	AssignLetAssert
)

// AssignStmt holds data for StmtAssign. Message is the optional
// `as "..."` of a let assert.
type AssignStmt struct {
	Kind    AssignKind
	Pattern *Pattern
	Value   *Expr
	Message *Expr
}

func (AssignStmt) stmtData() {}

// UseStmt holds data for StmtUse: `use p1, p2 <- call`. The statements that
// follow the use in the same body become the callback body.
type UseStmt struct {
	Patterns []*Pattern
	Call     *Expr
}

func (UseStmt) stmtData() {}
