package bitarray

import (
	"fmt"
	"strings"
)

// BitArray is an immutable-by-convention sequence of bits.
// Data holds ceil(BitLen/8) bytes; unused low bits of the last byte are zero.
type BitArray struct {
	Data   []byte
	BitLen int
}

// FromBytes wraps whole bytes.
func FromBytes(b []byte) BitArray {
	data := make([]byte, len(b))
	copy(data, b)
	return BitArray{Data: data, BitLen: len(b) * 8}
}

// Bit returns the bit at position i (0 or 1).
func (b BitArray) Bit(i int) uint {
	return uint(b.Data[i/8]>>(7-i%8)) & 1
}

// ByteAligned reports whether the length is a whole number of bytes.
func (b BitArray) ByteAligned() bool { return b.BitLen%8 == 0 }

// Slice returns n bits starting at off.
func (b BitArray) Slice(off, n int) (BitArray, error) {
	if off < 0 || n < 0 || off+n > b.BitLen {
		return BitArray{}, fmt.Errorf("%w: slice [%d:%d] of %d bits", ErrShort, off, off+n, b.BitLen)
	}
	var w writer
	for i := range n {
		w.appendBit(b.Bit(off + i))
	}
	return w.bits(), nil
}

// String renders the array the way the source language prints it:
// <<1, 2, 3:size(4)>>.
func (b BitArray) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	full := b.BitLen / 8
	for i := range full {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", b.Data[i])
	}
	if rem := b.BitLen % 8; rem != 0 {
		if full > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d:size(%d)", b.Data[full]>>(8-rem), rem)
	}
	sb.WriteString(">>")
	return sb.String()
}

type writer struct {
	data []byte
	n    int
}

func (w *writer) appendBit(bit uint) {
	if w.n%8 == 0 {
		w.data = append(w.data, 0)
	}
	if bit&1 == 1 {
		w.data[w.n/8] |= 1 << (7 - w.n%8)
	}
	w.n++
}

func (w *writer) appendBits(b BitArray) {
	if w.n%8 == 0 && b.ByteAligned() {
		w.data = append(w.data, b.Data...)
		w.n += b.BitLen
		return
	}
	for i := range b.BitLen {
		w.appendBit(b.Bit(i))
	}
}

func (w *writer) appendBytes(bs []byte) {
	w.appendBits(BitArray{Data: bs, BitLen: len(bs) * 8})
}

func (w *writer) bits() BitArray {
	return BitArray{Data: w.data, BitLen: w.n}
}
