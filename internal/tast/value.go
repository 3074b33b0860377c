package tast

// VarKind classifies what a variable reference resolves to.
type VarKind uint8

const (
	VarLocal VarKind = iota
	VarModuleConstant
	VarModuleFn
	VarConstructor
)

func (k VarKind) String() string {
	switch k {
	case VarLocal:
		return "local"
	case VarModuleConstant:
		return "module_constant"
	case VarModuleFn:
		return "module_fn"
	case VarConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// ValueConstructor is the resolved meaning of a name.
//
// For VarModuleConstant the front-end attaches the constant's value as
// Literal so imported constants can be inlined without loading the other
// module. For VarConstructor Arity, TypeName and Fields describe the record.
type ValueConstructor struct {
	Kind     VarKind
	Module   string // defining module, "" for locals
	Name     string // name in the defining module
	Literal  *Expr
	Arity    int
	TypeName string
	Fields   []string // field labels, "" for positional fields
}

// IsPrelude reports whether the constructor comes from the core module.
func (v ValueConstructor) IsPrelude() bool { return v.Module == PreludeModule }

// PreludeModule is the module name of the built-in types.
const PreludeModule = "gleam"
