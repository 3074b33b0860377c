package nix

import (
	"errors"
	"fmt"

	"nixgen/internal/diag"
	"nixgen/internal/source"
)

// UnsupportedError reports a construct that has no representation on Nix.
type UnsupportedError struct {
	Feature  string
	Location source.Span
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported on the nix target", e.Feature)
}

// FloatRangeError reports a float literal whose magnitude exceeds the
// largest finite double.
type FloatRangeError struct {
	Literal  string
	Location source.Span
}

func (e *FloatRangeError) Error() string {
	return fmt.Sprintf("float literal %s is outside the representable range", e.Literal)
}

// IntRangeError reports an int literal that does not fit a Nix (64-bit) int.
type IntRangeError struct {
	Literal  string
	Location source.Span
}

func (e *IntRangeError) Error() string {
	return fmt.Sprintf("int literal %s is outside the 64-bit range", e.Literal)
}

// InvalidInputError reports a typed tree that breaks front-end guarantees.
type InvalidInputError struct {
	Reason   string
	Location source.Span
}

func (e *InvalidInputError) Error() string {
	return "invalid typed tree: " + e.Reason
}

func unsupported(feature string, sp source.Span) error {
	return &UnsupportedError{Feature: feature, Location: sp}
}

func invalid(sp source.Span, format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...), Location: sp}
}

// ToDiagnostic converts a generation error into a diagnostic. Errors not
// produced by this package map to GenInvalidInput without a location.
func ToDiagnostic(err error) diag.Diagnostic {
	var (
		unsup *UnsupportedError
		fr    *FloatRangeError
		ir    *IntRangeError
		inv   *InvalidInputError
	)
	switch {
	case errors.As(err, &unsup):
		return diag.NewError(diag.GenUnsupported, unsup.Location, unsup.Error()).
			WithNote(unsup.Location, "this feature is available on other targets only")
	case errors.As(err, &fr):
		return diag.NewError(diag.GenFloatOutOfRange, fr.Location, fr.Error()).
			WithNote(fr.Location, "the largest finite float is 1.7976931348623157e308")
	case errors.As(err, &ir):
		return diag.NewError(diag.GenIntOutOfRange, ir.Location, ir.Error())
	case errors.As(err, &inv):
		return diag.NewError(diag.GenInvalidInput, inv.Location, inv.Error())
	default:
		return diag.NewError(diag.GenInvalidInput, source.Span{}, err.Error())
	}
}
