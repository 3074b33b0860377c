// Package testkit holds invariant checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"nixgen/internal/source"
	"nixgen/internal/tast"
)

// CheckModuleSpans verifies the spans of a decoded module:
// 1) every span has Start <= End
// 2) when file is known, every non-empty span points at file and stays
// within its content
//
// Definitions, doc spans, parameters, constructors and top-level body
// statements are checked; nested expressions are left to the decoder.
func CheckModuleSpans(mod *tast.Module, file *source.File) error {
	if mod == nil {
		return fmt.Errorf("nil module")
	}
	c := spanChecker{file: file}
	if file != nil {
		size, err := safecast.Conv[uint32](len(file.Content))
		if err != nil {
			return fmt.Errorf("len content overflow: %w", err)
		}
		c.size = size
	}
	for i, def := range mod.Definitions {
		if def == nil {
			return fmt.Errorf("definitions[%d] is nil", i)
		}
		where := fmt.Sprintf("definitions[%d]", i)
		if err := c.check(where, def.Span); err != nil {
			return err
		}
		if err := c.check(where+".doc", def.DocSpan); err != nil {
			return err
		}
		switch data := def.Data.(type) {
		case tast.FunctionData:
			for j, p := range data.Params {
				if err := c.check(fmt.Sprintf("%s.params[%d]", where, j), p.Span); err != nil {
					return err
				}
			}
			for j, st := range data.Body {
				if err := c.check(fmt.Sprintf("%s.body[%d]", where, j), st.Span); err != nil {
					return err
				}
			}
		case tast.CustomTypeData:
			for j, ctor := range data.Constructors {
				if err := c.check(fmt.Sprintf("%s.variants[%d]", where, j), ctor.Span); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type spanChecker struct {
	file *source.File
	size uint32
}

func (c spanChecker) check(where string, sp source.Span) error {
	if sp.End < sp.Start {
		return fmt.Errorf("%s: inverted span %v", where, sp)
	}
	if c.file == nil || sp.Start == sp.End {
		return nil
	}
	if sp.File != c.file.ID {
		return fmt.Errorf("%s: span file mismatch: got=%d want=%d", where, sp.File, c.file.ID)
	}
	if sp.End > c.size {
		return fmt.Errorf("%s: span end beyond content: %d > %d", where, sp.End, c.size)
	}
	return nil
}
