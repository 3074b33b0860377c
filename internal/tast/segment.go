package tast

// SegmentKind is the type option of a bit array segment.
type SegmentKind uint8

const (
	SegDefault SegmentKind = iota
	SegInt
	SegFloat
	SegBits
	SegBytes
	SegUTF8
	SegUTF8Codepoint
	SegUTF16
	SegUTF32
)

func (k SegmentKind) String() string {
	switch k {
	case SegDefault:
		return "default"
	case SegInt:
		return "int"
	case SegFloat:
		return "float"
	case SegBits:
		return "bits"
	case SegBytes:
		return "bytes"
	case SegUTF8:
		return "utf8"
	case SegUTF8Codepoint:
		return "utf8_codepoint"
	case SegUTF16:
		return "utf16"
	case SegUTF32:
		return "utf32"
	default:
		return "unknown"
	}
}

// Endian is the byte order option of a segment.
type Endian uint8

const (
	EndianBig Endian = iota
	EndianLittle
	EndianNative
)

func (e Endian) String() string {
	switch e {
	case EndianLittle:
		return "little"
	case EndianNative:
		return "native"
	default:
		return "big"
	}
}

// SegmentOptions describes how a segment value is laid out.
// Size is nil when no size was written; Unit is 0 when no unit was written.
type SegmentOptions struct {
	Kind   SegmentKind
	Size   *Expr
	Unit   int
	Endian Endian
	Signed bool
}

// EffectiveUnit returns the unit, applying the per-kind default.
func (o SegmentOptions) EffectiveUnit() int {
	if o.Unit > 0 {
		return o.Unit
	}
	if o.Kind == SegBytes {
		return 8
	}
	return 1
}
