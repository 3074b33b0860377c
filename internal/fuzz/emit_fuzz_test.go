package fuzztests

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"nixgen/internal/backend/nix"
	"nixgen/internal/diag"
	"nixgen/internal/source"
	"nixgen/internal/tastio"
	"nixgen/internal/testkit"
)

// emitTimeout bounds decode plus generation of one input; exceeding it
// means a loop in the generator or the document renderer.
const emitTimeout = 5 * time.Second

func decodeAndEmit(input []byte) (string, error) {
	fs := source.NewFileSet()
	fs.AddVirtual("<fuzz>", nil)
	unit, err := tastio.Decode(fs, input, "fuzz.yaml")
	if err != nil {
		return "", err
	}
	if err := testkit.CheckModuleSpans(unit.Module, unit.File); err != nil {
		return "", fmt.Errorf("decoded module breaks span invariants: %w", err)
	}
	return nix.EmitModule(unit.Module, unit.File, nix.Support{}, nix.WithLineWidth(40))
}

func FuzzDecodeAndEmit(f *testing.F) {
	addModuleSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		_, err := decodeAndEmit(input)
		if err == nil {
			return
		}
		// любая ошибка обязана превращаться в диагностику
		var ioErr *tastio.Error
		if errors.As(err, &ioErr) {
			if ioErr.Diagnostic().Code == diag.UnknownCode {
				t.Fatalf("decode error without a code: %v", err)
			}
			return
		}
		if strings.Contains(err.Error(), "span invariants") {
			t.Fatal(err)
		}
		if d := nix.ToDiagnostic(err); d.Message == "" {
			t.Fatalf("generation error with empty message: %v", err)
		}
	})
}

func FuzzEmitNoHang(f *testing.F) {
	addModuleSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = decodeAndEmit(input)
		}()
		select {
		case <-done:
		case <-time.After(emitTimeout):
			t.Fatalf("decode+emit did not finish within %v for input (len=%d): %q", emitTimeout, len(input), input)
		}
	})
}

func TestSeedsAreDeterministic(t *testing.T) {
	for _, seed := range moduleSeeds {
		first, err1 := decodeAndEmit([]byte(seed))
		second, err2 := decodeAndEmit([]byte(seed))
		if (err1 == nil) != (err2 == nil) || first != second {
			t.Fatalf("non-deterministic result for seed %q", seed)
		}
	}
}
