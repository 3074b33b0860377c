package tast

// TypeKind is the coarse shape of a resolved type.
type TypeKind uint8

const (
	TypeUnknown TypeKind = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeNil
	TypeBitArray
	TypeList
	TypeTuple
	TypeFn
	TypeCustom
	TypeVar
)

func (k TypeKind) String() string {
	switch k {
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeString:
		return "String"
	case TypeBool:
		return "Bool"
	case TypeNil:
		return "Nil"
	case TypeBitArray:
		return "BitArray"
	case TypeList:
		return "List"
	case TypeTuple:
		return "Tuple"
	case TypeFn:
		return "Fn"
	case TypeCustom:
		return "Custom"
	case TypeVar:
		return "Var"
	default:
		return "Unknown"
	}
}

// Type is the resolved type attached to expressions and patterns.
// Only the parts the backend inspects are modelled.
type Type struct {
	Kind   TypeKind
	Module string // for TypeCustom
	Name   string // for TypeCustom
	Args   []Type
}

func (t Type) Is(kind TypeKind) bool { return t.Kind == kind }
