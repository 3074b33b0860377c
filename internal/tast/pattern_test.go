package tast

import (
	"slices"
	"testing"
)

func TestPatternBindingsOrder(t *testing.T) {
	some := Ctor("app", "Option", "Some", "")
	p := PTuple(
		PVar("a"),
		PAssign("whole", PCtor(some, PVar("inner"))),
		PList(PVar("rest"), PVar("head"), PDiscard()),
		&Pattern{Kind: PatStringPrefix, Data: PatStringPrefixData{Prefix: "x", PrefixAlias: "px", Rest: PVar("tail")}},
	)
	got := p.Bindings()
	want := []string{"a", "inner", "whole", "head", "rest", "px", "tail"}
	if !slices.Equal(got, want) {
		t.Fatalf("bindings = %v, want %v", got, want)
	}
}

func TestImportModuleAlias(t *testing.T) {
	imp := ImportData{Module: "gleam/list"}
	if got := imp.ModuleAlias(); got != "list" {
		t.Errorf("alias = %q, want list", got)
	}
	imp.Alias = "l"
	if got := imp.ModuleAlias(); got != "l" {
		t.Errorf("alias = %q, want l", got)
	}
	if got := LastSegment("single"); got != "single" {
		t.Errorf("LastSegment = %q", got)
	}
}

func TestSegmentEffectiveUnit(t *testing.T) {
	if u := (SegmentOptions{Kind: SegBytes}).EffectiveUnit(); u != 8 {
		t.Errorf("bytes unit = %d, want 8", u)
	}
	if u := (SegmentOptions{Kind: SegInt}).EffectiveUnit(); u != 1 {
		t.Errorf("int unit = %d, want 1", u)
	}
	if u := (SegmentOptions{Kind: SegBits, Unit: 4}).EffectiveUnit(); u != 4 {
		t.Errorf("explicit unit = %d, want 4", u)
	}
}
