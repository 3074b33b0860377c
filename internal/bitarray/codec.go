package bitarray

import (
	"fmt"
	"math/big"
	"slices"
	"unicode/utf8"

	"fortio.org/safecast"
)

// Kind is the type tag of a segment.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindBits
	KindBytes
	KindUTF8
	KindUTF8Codepoint
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBits:
		return "bits"
	case KindBytes:
		return "bytes"
	case KindUTF8:
		return "utf8"
	case KindUTF8Codepoint:
		return "utf8_codepoint"
	default:
		return "unknown"
	}
}

// Endian is the byte order of an integer segment.
type Endian uint8

const (
	BigEndian Endian = iota
	LittleEndian
)

// DefaultIntSize is the width of an integer segment without a size option.
const DefaultIntSize = 8

// Rest marks a bits/bytes shape that takes the whole value.
const Rest = -1

// Shape is the layout of one segment: kind plus width in bits.
// For KindInt Size 0 means DefaultIntSize. For KindBits/KindBytes Size Rest
// takes the whole value. For KindUTF8 Size is the encoded width.
// KindUTF8Codepoint writes one encoded rune and ignores Size.
type Shape struct {
	Kind   Kind
	Size   int
	Endian Endian
}

// Value is a segment value to encode.
type Value struct {
	Int  *big.Int
	Bits BitArray
	Text string
	Rune rune
}

// Segment pairs a shape with its value for encoding.
type Segment struct {
	Shape
	Value
}

// IntSegment is a shorthand for an integer segment.
func IntSegment(v int64, size int) Segment {
	return Segment{Shape: Shape{Kind: KindInt, Size: size}, Value: Value{Int: big.NewInt(v)}}
}

// Encode packs segments left to right.
func Encode(segs []Segment) (BitArray, error) {
	var w writer
	for i, s := range segs {
		if err := encodeSegment(&w, s); err != nil {
			return BitArray{}, fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return w.bits(), nil
}

func encodeSegment(w *writer, s Segment) error {
	switch s.Kind {
	case KindInt:
		size := s.Size
		if size == 0 {
			size = DefaultIntSize
		}
		bs, err := intBits(s.Int, size, s.Endian)
		if err != nil {
			return err
		}
		w.appendBits(bs)
	case KindBits:
		if s.Size == Rest || s.Size == s.Bits.BitLen {
			w.appendBits(s.Bits)
			return nil
		}
		if s.Size > s.Bits.BitLen || s.Size < 0 {
			return fmt.Errorf("%w: bits value has %d bits, size is %d", ErrBadSize, s.Bits.BitLen, s.Size)
		}
		head, err := s.Bits.Slice(0, s.Size)
		if err != nil {
			return err
		}
		w.appendBits(head)
	case KindBytes:
		if !s.Bits.ByteAligned() {
			return ErrUnaligned
		}
		if s.Size != Rest && s.Size != s.Bits.BitLen {
			if s.Size < 0 || s.Size > s.Bits.BitLen || s.Size%8 != 0 {
				return fmt.Errorf("%w: bytes value has %d bits, size is %d", ErrBadSize, s.Bits.BitLen, s.Size)
			}
			w.appendBytes(s.Bits.Data[:s.Size/8])
			return nil
		}
		w.appendBits(s.Bits)
	case KindUTF8:
		w.appendBytes([]byte(s.Text))
	case KindUTF8Codepoint:
		if !utf8.ValidRune(s.Rune) {
			return fmt.Errorf("%w: codepoint %d", ErrInvalidUTF8, s.Rune)
		}
		w.appendBytes(utf8.AppendRune(nil, s.Rune))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, s.Kind)
	}
	return nil
}

// intBits lays out v modulo 2^size.
func intBits(v *big.Int, size int, endian Endian) (BitArray, error) {
	if size < 0 {
		return BitArray{}, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if v == nil {
		v = new(big.Int)
	}
	width, err := safecast.Conv[uint](size)
	if err != nil {
		return BitArray{}, err
	}
	m := new(big.Int).Mod(v, new(big.Int).Lsh(big.NewInt(1), width))
	if endian == LittleEndian {
		if size%8 != 0 {
			return BitArray{}, fmt.Errorf("%w: little endian int of %d bits", ErrUnaligned, size)
		}
		buf := m.FillBytes(make([]byte, size/8))
		slices.Reverse(buf)
		return FromBytes(buf), nil
	}
	var w writer
	for i := size - 1; i >= 0; i-- {
		w.appendBit(m.Bit(i))
	}
	return w.bits(), nil
}
