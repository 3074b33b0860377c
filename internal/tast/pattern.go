package tast

import "nixgen/internal/source"

// PatternKind enumerates pattern kinds.
type PatternKind uint8

const (
	PatInt PatternKind = iota
	PatFloat
	PatString
	PatVar
	PatDiscard
	PatAssign
	PatTuple
	PatList
	PatConstructor
	PatStringPrefix
	PatBitArray
)

func (k PatternKind) String() string {
	switch k {
	case PatInt:
		return "Int"
	case PatFloat:
		return "Float"
	case PatString:
		return "String"
	case PatVar:
		return "Var"
	case PatDiscard:
		return "Discard"
	case PatAssign:
		return "Assign"
	case PatTuple:
		return "Tuple"
	case PatList:
		return "List"
	case PatConstructor:
		return "Constructor"
	case PatStringPrefix:
		return "StringPrefix"
	case PatBitArray:
		return "BitArray"
	default:
		return "Unknown"
	}
}

// Pattern is a typed pattern node.
type Pattern struct {
	Kind PatternKind
	Type Type
	Span source.Span
	Data PatternData
}

// PatternData is implemented by every pattern payload.
type PatternData interface {
	patternData()
}

// PatIntData holds data for PatInt.
type PatIntData struct {
	Text string
}

func (PatIntData) patternData() {}

// PatFloatData holds data for PatFloat.
type PatFloatData struct {
	Text string
}

func (PatFloatData) patternData() {}

// PatStringData holds data for PatString.
type PatStringData struct {
	Value string
}

func (PatStringData) patternData() {}

// PatVarData holds data for PatVar.
type PatVarData struct {
	Name string
}

func (PatVarData) patternData() {}

// PatDiscardData holds data for PatDiscard.
type PatDiscardData struct {
	Name string // "_" or "_name"
}

func (PatDiscardData) patternData() {}

// PatAssignData holds data for PatAssign (`pattern as name`).
type PatAssignData struct {
	Name    string
	Pattern *Pattern
}

func (PatAssignData) patternData() {}

// PatTupleData holds data for PatTuple.
type PatTupleData struct {
	Elems []*Pattern
}

func (PatTupleData) patternData() {}

// PatListData holds data for PatList. Tail is nil for an exact-length match.
type PatListData struct {
	Elems []*Pattern
	Tail  *Pattern
}

func (PatListData) patternData() {}

// PatConstructorData holds data for PatConstructor. Args are in field order;
// labelled shorthand is resolved by the front-end.
type PatConstructorData struct {
	Constructor ValueConstructor
	Args        []*Pattern
}

func (PatConstructorData) patternData() {}

// PatStringPrefixData holds data for PatStringPrefix
// (`"prefix" as alias <> rest`). PrefixAlias and Rest are optional.
type PatStringPrefixData struct {
	Prefix      string
	PrefixAlias string
	Rest        *Pattern
}

func (PatStringPrefixData) patternData() {}

// PatSegment is one segment of a bit array pattern.
type PatSegment struct {
	Value   *Pattern
	Options SegmentOptions
	Span    source.Span
}

// PatBitArrayData holds data for PatBitArray.
type PatBitArrayData struct {
	Segments []PatSegment
}

func (PatBitArrayData) patternData() {}

// Bindings returns the names bound by p in left-to-right order.
func (p *Pattern) Bindings() []string {
	var out []string
	p.walkBindings(&out)
	return out
}

func (p *Pattern) walkBindings(out *[]string) {
	if p == nil {
		return
	}
	switch d := p.Data.(type) {
	case PatVarData:
		*out = append(*out, d.Name)
	case PatAssignData:
		d.Pattern.walkBindings(out)
		*out = append(*out, d.Name)
	case PatTupleData:
		for _, e := range d.Elems {
			e.walkBindings(out)
		}
	case PatListData:
		for _, e := range d.Elems {
			e.walkBindings(out)
		}
		d.Tail.walkBindings(out)
	case PatConstructorData:
		for _, a := range d.Args {
			a.walkBindings(out)
		}
	case PatStringPrefixData:
		if d.PrefixAlias != "" {
			*out = append(*out, d.PrefixAlias)
		}
		d.Rest.walkBindings(out)
	case PatBitArrayData:
		for _, s := range d.Segments {
			s.Value.walkBindings(out)
		}
	}
}
