package bitarray

import "errors"

var (
	// ErrShort is returned when a segment reads past the end of the input.
	ErrShort = errors.New("bit array too short")
	// ErrUnaligned is returned for byte-oriented data that is not byte aligned.
	ErrUnaligned = errors.New("segment is not byte aligned")
	// ErrUnsupported is returned for segment kinds this codec cannot represent.
	ErrUnsupported = errors.New("unsupported segment")
	// ErrInvalidUTF8 is returned for a codepoint that cannot be encoded.
	ErrInvalidUTF8 = errors.New("invalid utf8")
	// ErrBadSize is returned for sizes the value cannot fill.
	ErrBadSize = errors.New("invalid segment size")
)
