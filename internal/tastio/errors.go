package tastio

import (
	"fmt"

	"nixgen/internal/diag"
	"nixgen/internal/source"
)

// Error reports a malformed interchange document. Path locates the node,
// e.g. "definitions[2].function.body[0].expr".
type Error struct {
	Code diag.Code
	Path string
	Span source.Span
	Msg  string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Path + ": " + e.Msg
}

// Diagnostic converts the error for the diagnostic bag.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Error())
}

func (d *decoder) fail(code diag.Code, path string, sp spanNode, format string, args ...any) error {
	return &Error{Code: code, Path: path, Span: d.span(sp), Msg: fmt.Sprintf(format, args...)}
}
