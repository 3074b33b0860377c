package nix

import (
	"errors"
	"fmt"
	"strconv"

	"nixgen/internal/bitarray"
	"nixgen/internal/doc"
	"nixgen/internal/source"
	"nixgen/internal/tast"
)

// segmentKind resolves the default type option from the value's type.
func segmentKind(o tast.SegmentOptions, t tast.Type) tast.SegmentKind {
	if o.Kind != tast.SegDefault {
		return o.Kind
	}
	switch t.Kind {
	case tast.TypeFloat:
		return tast.SegFloat
	case tast.TypeString:
		return tast.SegUTF8
	case tast.TypeBitArray:
		return tast.SegBits
	default:
		return tast.SegInt
	}
}

func bigEndian(o tast.SegmentOptions) bool {
	// native is little endian on every platform Nix runs on
	return o.Endian == tast.EndianBig
}

func unsupportedKind(k tast.SegmentKind, sp source.Span) error {
	return unsupported(k.String()+" bit array segment", sp)
}

// staticSize returns the literal size of a segment in bits.
func staticSize(o tast.SegmentOptions) (int, bool, error) {
	if o.Size == nil {
		return 0, false, nil
	}
	lit, ok := o.Size.Data.(tast.IntData)
	if !ok {
		return 0, false, nil
	}
	n, ok := parseInt(lit.Text)
	if !ok || !n.IsInt64() || n.Sign() < 0 || n.Int64() > 1<<24 {
		return 0, false, invalid(o.Size.Span, "invalid segment size %s", lit.Text)
	}
	return int(n.Int64()) * o.EffectiveUnit(), true, nil
}

// foldBitArray encodes an all-literal bit array at generation time.
// ok is false when some segment is not a literal.
func (e *Emitter) foldBitArray(d tast.BitArrayData) (doc.Doc, bool, error) {
	bits, ok, err := foldBits(d)
	if err != nil || !ok {
		return doc.Nil, false, err
	}
	return e.bitsLiteral(bits), true, nil
}

func foldBits(d tast.BitArrayData) (bitarray.BitArray, bool, error) {
	segs := make([]bitarray.Segment, 0, len(d.Segments))
	for _, s := range d.Segments {
		if s.Options.Size != nil {
			if _, ok := s.Options.Size.Data.(tast.IntData); !ok {
				return bitarray.BitArray{}, false, nil
			}
		}
		size, static, err := staticSize(s.Options)
		if err != nil {
			return bitarray.BitArray{}, false, err
		}
		kind := segmentKind(s.Options, s.Value.Type)
		switch v := s.Value.Data.(type) {
		case tast.IntData:
			if kind != tast.SegInt {
				return bitarray.BitArray{}, false, nil
			}
			if _, err := intLiteral(v.Text, s.Value.Span); err != nil {
				return bitarray.BitArray{}, false, err
			}
			n, _ := parseInt(v.Text)
			if !static {
				size = bitarray.DefaultIntSize
			}
			endian := bitarray.BigEndian
			if !bigEndian(s.Options) {
				endian = bitarray.LittleEndian
			}
			segs = append(segs, bitarray.Segment{
				Shape: bitarray.Shape{Kind: bitarray.KindInt, Size: size, Endian: endian},
				Value: bitarray.Value{Int: n},
			})
		case tast.StringData:
			if kind != tast.SegUTF8 {
				return bitarray.BitArray{}, false, nil
			}
			if _, err := quoteString(v.Value, s.Value.Span); err != nil {
				return bitarray.BitArray{}, false, err
			}
			segs = append(segs, bitarray.Segment{
				Shape: bitarray.Shape{Kind: bitarray.KindUTF8, Size: len(v.Value) * 8},
				Value: bitarray.Value{Text: v.Value},
			})
		case tast.BitArrayData:
			if kind != tast.SegBits && kind != tast.SegBytes {
				return bitarray.BitArray{}, false, nil
			}
			inner, ok, err := foldBits(v)
			if err != nil || !ok {
				return bitarray.BitArray{}, false, err
			}
			shape := bitarray.Shape{Kind: bitarray.KindBits, Size: bitarray.Rest}
			if kind == tast.SegBytes {
				if !inner.ByteAligned() {
					return bitarray.BitArray{}, false, invalid(s.Span, "bytes segment value has %d bits, not a whole number of bytes", inner.BitLen)
				}
				shape.Kind = bitarray.KindBytes
			}
			if static {
				shape.Size = size
			}
			segs = append(segs, bitarray.Segment{Shape: shape, Value: bitarray.Value{Bits: inner}})
		default:
			return bitarray.BitArray{}, false, nil
		}
	}
	bits, err := bitarray.Encode(segs)
	if err != nil {
		if errors.Is(err, bitarray.ErrUnaligned) {
			return bitarray.BitArray{}, false, unsupported("little endian segment that is not a whole number of bytes", sourceOf(d))
		}
		return bitarray.BitArray{}, false, invalid(sourceOf(d), "%v", err)
	}
	return bits, true, nil
}

func sourceOf(d tast.BitArrayData) source.Span {
	if len(d.Segments) == 0 {
		return source.Span{}
	}
	return d.Segments[0].Span.Cover(d.Segments[len(d.Segments)-1].Span)
}

func (e *Emitter) bitsLiteral(bits bitarray.BitArray) doc.Doc {
	bytes := make([]doc.Doc, len(bits.Data))
	for i, b := range bits.Data {
		bytes[i] = doc.Text(strconv.Itoa(int(b)))
	}
	return apply(e.helper("bitArrayFromBytes"), listDoc(bytes), doc.Text(strconv.Itoa(bits.BitLen)))
}

// constBitArray lowers a bit array inside a module constant. Constants have
// no locals, so a throwaway function emitter is enough.
func (e *Emitter) constBitArray(d tast.BitArrayData, sp source.Span) (doc.Doc, error) {
	fe := e.newFuncEmitter("")
	out, err := fe.bitArray(d, sp, fe.ledger.Push(NoScope))
	if lerr := fe.ledger.Err(); lerr != nil {
		return doc.Nil, invalid(sp, "%v", lerr)
	}
	return out, err
}

// bitArray lowers a bit array literal to `toBitArray [ <bit lists> ]`.
func (fe *funcEmitter) bitArray(d tast.BitArrayData, sp source.Span, scope ScopeID) (doc.Doc, error) {
	for _, s := range d.Segments {
		switch k := segmentKind(s.Options, s.Value.Type); k {
		case tast.SegFloat, tast.SegUTF16, tast.SegUTF32:
			return doc.Nil, unsupportedKind(k, s.Span)
		}
	}
	folded, ok, err := fe.e.foldBitArray(d)
	if err != nil || ok {
		return folded, err
	}
	segs := make([]doc.Doc, len(d.Segments))
	for i, s := range d.Segments {
		if segs[i], err = fe.segment(s, scope); err != nil {
			return doc.Nil, err
		}
	}
	return apply(fe.e.helper("toBitArray"), listDoc(segs)), nil
}

func (fe *funcEmitter) segment(s tast.Segment, scope ScopeID) (doc.Doc, error) {
	kind := segmentKind(s.Options, s.Value.Type)
	switch kind {
	case tast.SegUTF8:
		lit, ok := s.Value.Data.(tast.StringData)
		if !ok {
			v, err := fe.arg(s.Value, scope)
			if err != nil {
				return doc.Nil, err
			}
			return parens(apply(fe.e.helper("stringBits"), v), false), nil
		}
		if _, err := quoteString(lit.Value, s.Span); err != nil {
			return doc.Nil, err
		}
		bits := bitarray.FromBytes([]byte(lit.Value))
		return parens(apply(fe.e.helper("bitArrayBits"), parens(fe.e.bitsLiteral(bits), false)), false), nil
	case tast.SegUTF8Codepoint:
		v, err := fe.arg(s.Value, scope)
		if err != nil {
			return doc.Nil, err
		}
		return parens(apply(fe.e.helper("codepointBits"), v), false), nil
	}

	v, err := fe.arg(s.Value, scope)
	if err != nil {
		return doc.Nil, err
	}
	switch kind {
	case tast.SegBits, tast.SegBytes:
		if s.Options.Size == nil {
			return parens(apply(fe.e.helper("bitArrayBits"), v), false), nil
		}
		size, err := fe.sizeDoc(s.Options, scope, nil)
		if err != nil {
			return doc.Nil, err
		}
		return parens(apply(fe.e.helper("sizedBits"), v, size), false), nil
	case tast.SegInt:
		size := doc.Text(strconv.Itoa(bitarray.DefaultIntSize))
		if s.Options.Size != nil {
			n, static, err := staticSize(s.Options)
			if err != nil {
				return doc.Nil, err
			}
			if static && n%8 != 0 && !bigEndian(s.Options) {
				return doc.Nil, unsupported("little endian segment that is not a whole number of bytes", s.Span)
			}
			if size, err = fe.sizeDoc(s.Options, scope, nil); err != nil {
				return doc.Nil, err
			}
		}
		return parens(apply(fe.e.helper("sizedInt"), v, size, boolDoc(bigEndian(s.Options))), false), nil
	default:
		return doc.Nil, unsupportedKind(kind, s.Span)
	}
}

func boolDoc(b bool) doc.Doc {
	if b {
		return doc.Text("true")
	}
	return doc.Text("false")
}

// sizeDoc lowers a segment size in bits. Names bound by earlier segments
// of the same pattern resolve to their values through m.
func (fe *funcEmitter) sizeDoc(o tast.SegmentOptions, scope ScopeID, m *match) (doc.Doc, error) {
	if n, ok, err := staticSize(o); err != nil || ok {
		return doc.Text(strconv.Itoa(n)), err
	}
	var size doc.Doc
	if v, ok := o.Size.Data.(tast.VarData); ok && m != nil && v.Constructor.Kind == tast.VarLocal {
		if bound, ok := m.values[v.Name]; ok {
			size = bound
		}
	}
	if size.IsNil() {
		var err error
		if size, err = fe.arg(o.Size, scope); err != nil {
			return doc.Nil, err
		}
	}
	if unit := o.EffectiveUnit(); unit != 1 {
		return parens(binary(size, true, "*", doc.Text(strconv.Itoa(unit)), true), false), nil
	}
	return size, nil
}

// offset is a bit position: a static part plus dynamic terms.
type offset struct {
	static int
	terms  []doc.Doc
}

func (o offset) add(n int, term doc.Doc) offset {
	out := offset{static: o.static + n, terms: o.terms}
	if !term.IsNil() {
		out.terms = append(append([]doc.Doc(nil), o.terms...), term)
	}
	return out
}

func (o offset) doc() doc.Doc {
	if len(o.terms) == 0 {
		return doc.Text(strconv.Itoa(o.static))
	}
	parts := append([]doc.Doc(nil), o.terms...)
	if o.static != 0 {
		parts = append(parts, doc.Text(strconv.Itoa(o.static)))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parens(doc.Join(doc.Text(" + "), parts), false)
}

type segPlan struct {
	seg    tast.PatSegment
	kind   tast.SegmentKind
	width  int
	static bool
	tail   bool
	bytes  []byte // expected content of a utf8 literal
}

// bitArrayPattern slices the subject left to right by cumulative offset:
// one test per literal segment, one binding per variable segment, and a
// final length test unless the pattern ends in an open bits/bytes tail.
func (fe *funcEmitter) bitArrayPattern(d tast.PatBitArrayData, sp source.Span, s subject, scope ScopeID, m *match) error {
	plans := make([]segPlan, len(d.Segments))
	allStatic := true
	for i, seg := range d.Segments {
		p, err := planSegment(seg, i == len(d.Segments)-1)
		if err != nil {
			return err
		}
		plans[i] = p
		if !p.static && !p.tail {
			allStatic = false
		}
	}

	length := apply(fe.e.helper("bitArrayLength"), s.arg())
	total := 0
	for _, p := range plans {
		total += p.width
	}
	open := len(plans) > 0 && plans[len(plans)-1].tail
	if allStatic {
		op := "=="
		if open {
			op = ">="
		}
		m.check(binary(length, false, op, doc.Text(strconv.Itoa(total)), true))
	}

	off := offset{}
	for _, p := range plans {
		start := off.doc()
		if p.tail {
			rest := subject{doc: apply(fe.e.helper("bitArraySliceAfter"), s.arg(), start)}
			if p.kind == tast.SegBytes {
				remaining := binary(length, false, "-", start, true)
				m.check(binary(apply(fe.e.helper("remainderInt"), parens(remaining, false), doc.Text("8")), false, "==", doc.Text("0"), true))
			}
			return fe.pattern(p.seg.Value, rest, scope, m)
		}
		var next offset
		switch {
		case p.static:
			next = off.add(p.width, doc.Nil)
		case p.kind == tast.SegUTF8Codepoint:
			width := parens(apply(fe.e.helper("bitArrayCodepointWidth"), s.arg(), start), false)
			m.check(binary(width, true, ">", doc.Text("0"), true))
			next = off.add(0, width)
		default:
			size, err := fe.sizeDoc(p.seg.Options, scope, m)
			if err != nil {
				return err
			}
			next = off.add(0, size)
		}
		end := next.doc()
		if !allStatic {
			m.check(binary(length, false, ">=", end, true))
		}
		switch p.kind {
		case tast.SegInt:
			value := subject{doc: apply(fe.e.helper("bitArraySliceToInt"), s.arg(), start, end,
				boolDoc(bigEndian(p.seg.Options)), boolDoc(p.seg.Options.Signed))}
			if err := fe.pattern(p.seg.Value, value, scope, m); err != nil {
				return err
			}
		case tast.SegBits, tast.SegBytes:
			value := subject{doc: apply(fe.e.helper("bitArraySlice"), s.arg(), start, end)}
			if err := fe.pattern(p.seg.Value, value, scope, m); err != nil {
				return err
			}
		case tast.SegUTF8Codepoint:
			value := subject{doc: apply(fe.e.helper("bitArraySliceCodepoint"), s.arg(), start, end)}
			if err := fe.pattern(p.seg.Value, value, scope, m); err != nil {
				return err
			}
		case tast.SegUTF8:
			slice := subject{doc: apply(fe.e.helper("bitArraySlice"), s.arg(), start, end)}
			m.check(eqDoc(slice, fe.e.bitsLiteral(bitarray.FromBytes(p.bytes)), false))
		}
		off = next
	}
	if !allStatic {
		m.check(binary(length, false, "==", off.doc(), true))
	}
	return nil
}

func planSegment(seg tast.PatSegment, last bool) (segPlan, error) {
	kind := segmentKind(seg.Options, seg.Value.Type)
	p := segPlan{seg: seg, kind: kind}
	switch kind {
	case tast.SegInt:
		if _, ok := seg.Value.Data.(tast.PatFloatData); ok {
			return p, unsupportedKind(tast.SegFloat, seg.Span)
		}
		if seg.Options.Size == nil {
			p.width, p.static = bitarray.DefaultIntSize, true
			return p, nil
		}
		n, static, err := staticSize(seg.Options)
		if err != nil {
			return p, err
		}
		if static && n%8 != 0 && !bigEndian(seg.Options) {
			return p, unsupported("little endian segment that is not a whole number of bytes", seg.Span)
		}
		p.width, p.static = n, static
	case tast.SegBits, tast.SegBytes:
		if seg.Options.Size == nil {
			if !last {
				return p, invalid(seg.Span, "%s segment without a size must be last", kind)
			}
			p.tail = true
			return p, nil
		}
		n, static, err := staticSize(seg.Options)
		if err != nil {
			return p, err
		}
		p.width, p.static = n, static
	case tast.SegUTF8:
		lit, ok := literalString(seg.Value)
		if !ok {
			return p, unsupported("utf8 pattern segment that is not a string literal", seg.Span)
		}
		p.bytes = []byte(lit)
		p.width, p.static = len(p.bytes)*8, true
	case tast.SegUTF8Codepoint:
		// width comes from the lead byte at match time
	default:
		return p, unsupported(fmt.Sprintf("%s segment in a pattern", kind), seg.Span)
	}
	return p, nil
}

func literalString(p *tast.Pattern) (string, bool) {
	if p == nil {
		return "", false
	}
	if s, ok := p.Data.(tast.PatStringData); ok {
		return s.Value, true
	}
	return "", false
}
