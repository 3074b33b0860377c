package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.Record("load", 2*time.Millisecond, "3 files")
	idx := tm.Begin("generate")
	tm.End(idx, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(r.Phases))
	}
	if r.Phases[0].Name != "load" || r.Phases[0].DurationMS != 2 || r.Phases[0].Note != "3 files" {
		t.Fatalf("unexpected first phase: %+v", r.Phases[0])
	}
	if r.TotalMS < 2 {
		t.Fatalf("total = %v, want >= 2", r.TotalMS)
	}

	s := tm.Summary()
	for _, want := range []string{"timings:\n", "load", "// 3 files", "generate", "total"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestEmptyReport(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Fatalf("unexpected report: %+v", r)
	}
}
