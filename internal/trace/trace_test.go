package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "DEBUG"} {
		l, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if l.String() != strings.ToLower(s) {
			t.Fatalf("round trip %q -> %q", s, l)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	ctx := WithTracer(context.Background(), tr)

	ctx, phase := Start(ctx, ScopePhase, "generate")
	_, mod := Start(ctx, ScopeModule, "module:app")
	mod.End("")
	phase.End("1 module")

	out := buf.String()
	if !strings.Contains(out, "→ generate") || !strings.Contains(out, "← generate") {
		t.Fatalf("phase span missing:\n%s", out)
	}
	if strings.Contains(out, "module:app") {
		t.Fatalf("module span leaked at phase level:\n%s", out)
	}
	if !strings.Contains(out, "(1 module)") {
		t.Fatalf("detail missing:\n%s", out)
	}
}

func TestErrorLevelOnlyShowsFailures(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatText)

	Begin(tr, ScopeModule, "ok", 0).End("")
	Begin(tr, ScopeModule, "bad", 0).Fail().End("boom")

	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.Contains(out, "bad") || !strings.Contains(out, "FAILED") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNDJSONParentLinks(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	ctx, outer := Start(ctx, ScopeDriver, "build")
	_, inner := Start(ctx, ScopePhase, "load")
	inner.WithExtra("files", "3").End("")
	outer.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d events, want 4", len(lines))
	}
	var ev jsonEvent
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != "end" || ev.Name != "load" || ev.ParentID != outer.ID() || ev.Extra["files"] != "3" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Seq != 3 {
		t.Fatalf("seq = %d, want 3", ev.Seq)
	}
}

func TestNopIsDefault(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop tracer")
	}
	ctx, span := Start(context.Background(), ScopeDriver, "x")
	if span.End("") != 0 || CurrentSpanID(ctx) != 0 {
		t.Fatalf("nop span should be inert")
	}
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
}
