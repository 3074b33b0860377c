package tastio

// Узлы YAML-документа. Каждая структура с несколькими указателями
// описывает вариант: ровно одно поле должно быть заполнено.

type spanNode []uint32

type unitNode struct {
	Module      string    `yaml:"module"`
	Source      string    `yaml:"source,omitempty"`
	Definitions []defNode `yaml:"definitions"`
}

type defNode struct {
	Span    spanNode `yaml:"span,flow,omitempty"`
	Doc     []string `yaml:"doc,omitempty"`
	DocSpan spanNode `yaml:"doc_span,flow,omitempty"`
	Public  bool     `yaml:"public,omitempty"`

	Import    *importNode   `yaml:"import,omitempty"`
	Function  *functionNode `yaml:"function,omitempty"`
	Constant  *constantNode `yaml:"const,omitempty"`
	Type      *typeDefNode  `yaml:"type,omitempty"`
	TypeAlias *string       `yaml:"type_alias,omitempty"`
}

type importNode struct {
	Module      string            `yaml:"module"`
	Alias       string            `yaml:"alias,omitempty"`
	Unqualified []unqualifiedNode `yaml:"unqualified,omitempty"`
}

type unqualifiedNode struct {
	Name string `yaml:"name"`
	As   string `yaml:"as,omitempty"`
	Type bool   `yaml:"type,omitempty"`
}

type externalNode struct {
	Module   string `yaml:"module"`
	Function string `yaml:"function"`
}

type paramNode struct {
	Name string   `yaml:"name"`
	Span spanNode `yaml:"span,flow,omitempty"`
}

type functionNode struct {
	Name     string        `yaml:"name"`
	Params   []paramNode   `yaml:"params,omitempty"`
	Body     []stmtNode    `yaml:"body,omitempty"`
	External *externalNode `yaml:"external,omitempty"`
}

type constantNode struct {
	Name  string    `yaml:"name"`
	Value *exprNode `yaml:"value"`
}

type variantNode struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields,omitempty"`
	Span   spanNode `yaml:"span,flow,omitempty"`
}

type typeDefNode struct {
	Name     string        `yaml:"name"`
	Opaque   bool          `yaml:"opaque,omitempty"`
	Variants []variantNode `yaml:"variants"`
}

type stmtNode struct {
	Span spanNode  `yaml:"span,flow,omitempty"`
	Expr *exprNode `yaml:"expr,omitempty"`
	Let  *letNode  `yaml:"let,omitempty"`
	Use  *useNode  `yaml:"use,omitempty"`
}

type letNode struct {
	Pattern *patNode  `yaml:"pattern"`
	Value   *exprNode `yaml:"value"`
	Assert  bool      `yaml:"assert,omitempty"`
	Message *exprNode `yaml:"message,omitempty"`
}

type useNode struct {
	Patterns []patNode `yaml:"patterns,omitempty"`
	Call     *exprNode `yaml:"call"`
}

// refNode is the resolved meaning of a name.
type refNode struct {
	Name     string    `yaml:"name"`
	Kind     string    `yaml:"kind,omitempty"` // local (default), const, fn, ctor
	Module   string    `yaml:"module,omitempty"`
	Origin   string    `yaml:"origin,omitempty"` // name in the defining module
	Literal  *exprNode `yaml:"literal,omitempty"`
	Arity    int       `yaml:"arity,omitempty"`
	TypeName string    `yaml:"type_name,omitempty"`
	Fields   []string  `yaml:"fields,omitempty"`
}

type exprNode struct {
	Span spanNode `yaml:"span,flow,omitempty"`
	Type string   `yaml:"type,omitempty"`

	Int        *string         `yaml:"int,omitempty"`
	Float      *string         `yaml:"float,omitempty"`
	String     *string         `yaml:"string,omitempty"`
	Var        *refNode        `yaml:"var,omitempty"`
	Fn         *fnNode         `yaml:"fn,omitempty"`
	Call       *callNode       `yaml:"call,omitempty"`
	BinOp      *binOpNode      `yaml:"binop,omitempty"`
	Negate     *exprNode       `yaml:"negate,omitempty"`
	Not        *exprNode       `yaml:"not,omitempty"`
	Block      []stmtNode      `yaml:"block,omitempty"`
	Pipe       *pipeNode       `yaml:"pipe,omitempty"`
	Tuple      []exprNode      `yaml:"tuple,omitempty"`
	EmptyTuple bool            `yaml:"unit,omitempty"`
	TupleIndex *tupleIndexNode `yaml:"tuple_index,omitempty"`
	List       *listNode       `yaml:"list,omitempty"`
	Bits       []segmentNode   `yaml:"bits,omitempty"`
	Case       *caseNode       `yaml:"case,omitempty"`
	Access     *accessNode     `yaml:"access,omitempty"`
	Update     *updateNode     `yaml:"update,omitempty"`
	Select     *selectNode     `yaml:"select,omitempty"`
	Panic      *abortNode      `yaml:"panic,omitempty"`
	Todo       *abortNode      `yaml:"todo,omitempty"`
}

type fnNode struct {
	Params []paramNode `yaml:"params,omitempty"`
	Body   []stmtNode  `yaml:"body"`
}

type callNode struct {
	Fun  *exprNode  `yaml:"fun"`
	Args []exprNode `yaml:"args,omitempty"`
}

type binOpNode struct {
	Op    string    `yaml:"op"`
	Left  *exprNode `yaml:"left"`
	Right *exprNode `yaml:"right"`
}

type pipeStepNode struct {
	Span   spanNode   `yaml:"span,flow,omitempty"`
	Fun    *exprNode  `yaml:"fun"`
	Args   []exprNode `yaml:"args,omitempty"`
	Insert int        `yaml:"insert,omitempty"`
}

type pipeNode struct {
	First *exprNode      `yaml:"first"`
	Steps []pipeStepNode `yaml:"steps"`
}

type tupleIndexNode struct {
	Tuple *exprNode `yaml:"tuple"`
	Index int       `yaml:"index"`
}

type listNode struct {
	Elems []exprNode `yaml:"elems,omitempty"`
	Tail  *exprNode  `yaml:"tail,omitempty"`
}

type optionsNode struct {
	Kind   string    `yaml:"kind,omitempty"`
	Size   *exprNode `yaml:"size,omitempty"`
	Unit   int       `yaml:"unit,omitempty"`
	Endian string    `yaml:"endian,omitempty"`
	Signed bool      `yaml:"signed,omitempty"`
}

type segmentNode struct {
	Span    spanNode    `yaml:"span,flow,omitempty"`
	Value   *exprNode   `yaml:"value"`
	Options optionsNode `yaml:"options,omitempty"`
}

type clauseNode struct {
	Span         spanNode    `yaml:"span,flow,omitempty"`
	Alternatives [][]patNode `yaml:"alternatives"`
	Guard        *exprNode   `yaml:"guard,omitempty"`
	Then         *exprNode   `yaml:"then"`
}

type caseNode struct {
	Subjects   []exprNode   `yaml:"subjects"`
	Clauses    []clauseNode `yaml:"clauses"`
	Exhaustive bool         `yaml:"exhaustive,omitempty"`
}

type variantFieldNode struct {
	Constructor string   `yaml:"constructor"`
	Index       int      `yaml:"index"`
	Fields      []string `yaml:"fields,omitempty"`
}

type accessNode struct {
	Record   *exprNode          `yaml:"record"`
	Label    string             `yaml:"label"`
	Variants []variantFieldNode `yaml:"variants,omitempty"`
}

type updateArgNode struct {
	Label string    `yaml:"label"`
	Index int       `yaml:"index"`
	Value *exprNode `yaml:"value"`
}

type updateNode struct {
	Record      *exprNode       `yaml:"record"`
	Constructor *refNode        `yaml:"constructor,omitempty"`
	Updates     []updateArgNode `yaml:"updates"`
}

type selectNode struct {
	Alias  string   `yaml:"alias"`
	Module string   `yaml:"module"`
	Label  string   `yaml:"label"`
	Ref    *refNode `yaml:"ref,omitempty"`
}

type abortNode struct {
	Message *exprNode `yaml:"message,omitempty"`
}

type patSegmentNode struct {
	Span    spanNode    `yaml:"span,flow,omitempty"`
	Value   *patNode    `yaml:"value"`
	Options optionsNode `yaml:"options,omitempty"`
}

type patNode struct {
	Span spanNode `yaml:"span,flow,omitempty"`
	Type string   `yaml:"type,omitempty"`

	Int         *string          `yaml:"int,omitempty"`
	Float       *string          `yaml:"float,omitempty"`
	String      *string          `yaml:"string,omitempty"`
	Var         *string          `yaml:"var,omitempty"`
	Discard     *string          `yaml:"discard,omitempty"`
	Assign      *assignPatNode   `yaml:"assign,omitempty"`
	Tuple       []patNode        `yaml:"tuple,omitempty"`
	EmptyTuple  bool             `yaml:"unit,omitempty"`
	List        *listPatNode     `yaml:"list,omitempty"`
	Constructor *ctorPatNode     `yaml:"constructor,omitempty"`
	Prefix      *prefixPatNode   `yaml:"prefix,omitempty"`
	Bits        []patSegmentNode `yaml:"bits,omitempty"`
}

type assignPatNode struct {
	Name    string   `yaml:"name"`
	Pattern *patNode `yaml:"pattern"`
}

type listPatNode struct {
	Elems []patNode `yaml:"elems,omitempty"`
	Tail  *patNode  `yaml:"tail,omitempty"`
}

type ctorPatNode struct {
	Ref  refNode   `yaml:"ref"`
	Args []patNode `yaml:"args,omitempty"`
}

type prefixPatNode struct {
	Prefix string   `yaml:"prefix"`
	Alias  string   `yaml:"alias,omitempty"`
	Rest   *patNode `yaml:"rest,omitempty"`
}
