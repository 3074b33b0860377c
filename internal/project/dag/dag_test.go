package dag

import (
	"testing"

	"nixgen/internal/diag"
	"nixgen/internal/project"
	"nixgen/internal/source"
)

func idsToNames(idx ModuleIndex, ids []ModuleID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

func batchesToNames(idx ModuleIndex, batches [][]ModuleID) [][]string {
	out := make([][]string, len(batches))
	for i, batch := range batches {
		out[i] = idsToNames(idx, batch)
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildIndexIncludesImports(t *testing.T) {
	metas := []project.ModuleMeta{
		{
			Name: "app/main",
			Imports: []project.ImportMeta{
				{Path: "gleam/list"},
				{Path: "app/util"},
			},
		},
		{Name: "app/util"},
	}

	idx := BuildIndex(metas)

	wantNames := []string{"app/main", "app/util", "gleam/list"}
	if len(idx.IDToName) != len(wantNames) {
		t.Fatalf("unexpected module count: %d", len(idx.IDToName))
	}
	for i, want := range wantNames {
		if got := idx.IDToName[i]; got != want {
			t.Fatalf("idx.IDToName[%d] = %q, want %q", i, got, want)
		}
		if id, ok := idx.NameToID[want]; !ok || int(id) != i {
			t.Fatalf("idx.NameToID[%q] = %v, want %d", want, id, i)
		}
	}
}

func TestBuildGraphWarnsOnExternalImports(t *testing.T) {
	appMeta := project.ModuleMeta{
		Name: "app",
		Span: source.Span{File: 1, Start: 0, End: 10},
		Imports: []project.ImportMeta{
			{Path: "core", Span: source.Span{File: 1, Start: 1, End: 4}},
			{Path: "gleam/list", Span: source.Span{File: 1, Start: 5, End: 8}},
		},
	}
	coreMeta := project.ModuleMeta{Name: "core", Span: source.Span{File: 2, Start: 0, End: 8}}

	bagApp := diag.NewBag(10)
	bagCore := diag.NewBag(10)
	nodes := []ModuleNode{
		{Meta: appMeta, Bag: bagApp},
		{Meta: coreMeta, Bag: bagCore},
	}
	idx := BuildIndex([]project.ModuleMeta{appMeta, coreMeta})
	graph, _ := BuildGraph(idx, nodes)

	appID := idx.NameToID["app"]
	coreID := idx.NameToID["core"]
	listID := idx.NameToID["gleam/list"]

	deps := graph.Edges[int(appID)]
	if len(deps) != 2 || deps[0] != coreID || deps[1] != listID {
		t.Fatalf("app deps = %v, want [%v %v]", deps, coreID, listID)
	}
	if !graph.Present[int(appID)] || !graph.Present[int(coreID)] || graph.Present[int(listID)] {
		t.Fatalf("unexpected Present flags: %v", graph.Present)
	}
	if graph.Indeg[int(coreID)] != 1 || graph.Indeg[int(listID)] != 0 {
		t.Fatalf("unexpected in-degrees: %v", graph.Indeg)
	}

	if bagApp.Len() != 1 {
		t.Fatalf("app diagnostics = %d, want 1", bagApp.Len())
	}
	d := bagApp.Items()[0]
	if d.Code != diag.InpUnknownModule || d.Severity != diag.SevWarning {
		t.Fatalf("app diag = %v %v, want warning %v", d.Severity, d.Code, diag.InpUnknownModule)
	}
	if bagApp.HasErrors() {
		t.Fatalf("external import must not be an error")
	}
	if bagCore.Len() != 0 {
		t.Fatalf("unexpected core diagnostics: %v", bagCore.Items())
	}
}

func TestBuildGraphSelfImport(t *testing.T) {
	meta := project.ModuleMeta{
		Name:    "a",
		Imports: []project.ImportMeta{{Path: "a", Span: source.Span{File: 1, Start: 0, End: 3}}},
	}
	bag := diag.NewBag(10)
	idx := BuildIndex([]project.ModuleMeta{meta})
	graph, _ := BuildGraph(idx, []ModuleNode{{Meta: meta, Bag: bag}})

	if len(graph.Edges[0]) != 0 {
		t.Fatalf("self import must not become an edge: %v", graph.Edges[0])
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ProjSelfImport {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestBuildGraphDuplicateModules(t *testing.T) {
	spanA := source.Span{File: 1, Start: 0, End: 5}
	spanB := source.Span{File: 2, Start: 0, End: 5}

	metaA := project.ModuleMeta{Name: "dup/mod", File: "a.yaml", Span: spanA}
	metaB := project.ModuleMeta{Name: "dup/mod", File: "b.yaml", Span: spanB}

	bagA := diag.NewBag(10)
	bagB := diag.NewBag(10)
	nodes := []ModuleNode{
		{Meta: metaA, Bag: bagA},
		{Meta: metaB, Bag: bagB},
	}

	idx := BuildIndex([]project.ModuleMeta{metaA, metaB})
	graph, slots := BuildGraph(idx, nodes)

	if !graph.Present[idx.NameToID["dup/mod"]] {
		t.Fatalf("expected module to be present")
	}
	if bagA.Len() != 0 {
		t.Fatalf("unexpected diagnostics for first module: %v", bagA.Items())
	}
	if bagB.Len() != 1 {
		t.Fatalf("expected one diagnostic for duplicate, got %d", bagB.Len())
	}
	d := bagB.Items()[0]
	if d.Code != diag.ProjDuplicateModule {
		t.Fatalf("duplicate code = %v, want %v", d.Code, diag.ProjDuplicateModule)
	}
	if len(d.Notes) != 1 || d.Notes[0].Span != spanA {
		t.Fatalf("expected a note at the first definition, got %v", d.Notes)
	}

	slot := slots[int(idx.NameToID["dup/mod"])]
	if !slot.Present || slot.Meta.File != "a.yaml" {
		t.Fatalf("expected slot to hold first module metadata")
	}
}

func TestToposortKahnBatches(t *testing.T) {
	metas := []project.ModuleMeta{
		{Name: "b", Imports: []project.ImportMeta{{Path: "c"}}},
		{Name: "a"},
		{Name: "c"},
	}
	nodes := []ModuleNode{{Meta: metas[0]}, {Meta: metas[1]}, {Meta: metas[2]}}

	idx := BuildIndex(metas)
	graph, _ := BuildGraph(idx, nodes)

	topo := ToposortKahn(graph)
	if topo.Cyclic {
		t.Fatalf("expected acyclic graph")
	}
	if got := idsToNames(idx, topo.Order); !equalNames(got, []string{"a", "b", "c"}) {
		t.Fatalf("order = %v", got)
	}

	batches := batchesToNames(idx, topo.Batches)
	wantBatches := [][]string{{"a", "b"}, {"c"}}
	if len(batches) != len(wantBatches) {
		t.Fatalf("batches len = %d, want %d", len(batches), len(wantBatches))
	}
	for i := range wantBatches {
		if !equalNames(batches[i], wantBatches[i]) {
			t.Fatalf("batch[%d] = %v, want %v", i, batches[i], wantBatches[i])
		}
	}
}

func TestReportCycles(t *testing.T) {
	spanA := source.Span{File: 1, Start: 0, End: 4}
	spanB := source.Span{File: 2, Start: 0, End: 4}

	metaA := project.ModuleMeta{
		Name:    "a",
		Span:    spanA,
		Imports: []project.ImportMeta{{Path: "b", Span: spanA}},
	}
	metaB := project.ModuleMeta{
		Name:    "b",
		Span:    spanB,
		Imports: []project.ImportMeta{{Path: "a", Span: spanB}, {Path: "c", Span: spanB}},
	}
	metaC := project.ModuleMeta{Name: "c"}

	bagA := diag.NewBag(10)
	bagB := diag.NewBag(10)
	bagC := diag.NewBag(10)
	nodes := []ModuleNode{
		{Meta: metaA, Bag: bagA},
		{Meta: metaB, Bag: bagB},
		{Meta: metaC, Bag: bagC},
	}

	idx := BuildIndex([]project.ModuleMeta{metaA, metaB, metaC})
	graph, slots := BuildGraph(idx, nodes)

	topo := ToposortKahn(graph)
	if !topo.Cyclic {
		t.Fatalf("expected a cycle")
	}
	if got := idsToNames(idx, topo.Cycles); !equalNames(got, []string{"a", "b"}) {
		t.Fatalf("cycles = %v, want [a b]", got)
	}
	// c is only imported from the cycle and still gets an order slot
	if got := idsToNames(idx, topo.Order); !equalNames(got, []string{"c"}) {
		t.Fatalf("order = %v, want [c]", got)
	}

	ReportCycles(idx, slots, topo)

	if bagA.Len() != 1 || bagA.Items()[0].Code != diag.ProjImportCycle {
		t.Fatalf("module a diagnostics = %v", bagA.Items())
	}
	if bagB.Len() != 1 || bagB.Items()[0].Code != diag.ProjImportCycle {
		t.Fatalf("module b diagnostics = %v", bagB.Items())
	}
	if bagC.Len() != 0 {
		t.Fatalf("module c diagnostics = %v", bagC.Items())
	}
	if !slots[idx.NameToID["a"]].Broken || slots[idx.NameToID["c"]].Broken {
		t.Fatalf("unexpected broken flags")
	}
}

func TestReportBrokenDepsIsTransitive(t *testing.T) {
	// app -> mid -> base, base is broken
	importSpan := source.Span{File: 3, Start: 2, End: 6}
	first := diag.NewError(diag.GenUnsupported, source.Span{File: 1, Start: 0, End: 1}, "boom")
	metas := []project.ModuleMeta{
		{Name: "app", Imports: []project.ImportMeta{{Path: "mid", Span: importSpan}}},
		{Name: "mid", Imports: []project.ImportMeta{{Path: "base"}}},
		{Name: "base"},
	}
	bags := []*diag.Bag{diag.NewBag(10), diag.NewBag(10), diag.NewBag(10)}
	nodes := []ModuleNode{
		{Meta: metas[0], Bag: bags[0]},
		{Meta: metas[1], Bag: bags[1]},
		{Meta: metas[2], Bag: bags[2], Broken: true, FirstErr: &first},
	}

	idx := BuildIndex(metas)
	graph, slots := BuildGraph(idx, nodes)
	topo := ToposortKahn(graph)
	ReportBrokenDeps(idx, slots, topo)

	for i, name := range []string{"app", "mid"} {
		if !slots[idx.NameToID[name]].Broken {
			t.Fatalf("%s should be broken", name)
		}
		if bags[i].Len() != 1 || bags[i].Items()[0].Code != diag.ProjDependencyFailed {
			t.Fatalf("%s diagnostics = %v", name, bags[i].Items())
		}
	}
	midDiag := bags[1].Items()[0]
	if len(midDiag.Notes) != 1 || midDiag.Notes[0].Msg != "first error in dependency: boom" {
		t.Fatalf("mid notes = %v", midDiag.Notes)
	}
	if bags[0].Items()[0].Primary != importSpan {
		t.Fatalf("app diagnostic should point at the import")
	}
	if bags[2].Len() != 0 {
		t.Fatalf("base got extra diagnostics: %v", bags[2].Items())
	}
}

func TestModuleHashesFollowDependencies(t *testing.T) {
	build := func(baseContent byte) []ModuleSlot {
		metas := []project.ModuleMeta{
			{Name: "app", ContentHash: project.Digest{1}, Imports: []project.ImportMeta{{Path: "base"}}},
			{Name: "base", ContentHash: project.Digest{baseContent}},
			{Name: "other", ContentHash: project.Digest{3}},
		}
		nodes := []ModuleNode{{Meta: metas[0]}, {Meta: metas[1]}, {Meta: metas[2]}}
		idx := BuildIndex(metas)
		graph, slots := BuildGraph(idx, nodes)
		ModuleHashes(graph, slots, ToposortKahn(graph))
		return slots
	}

	// IDs: app=0 base=1 other=2
	s1 := build(2)
	s2 := build(9)

	if s1[1].Meta.ModuleHash != project.Combine(project.Digest{2}) {
		t.Fatalf("leaf hash should only cover its content")
	}
	if s1[0].Meta.ModuleHash != project.Combine(project.Digest{1}, s1[1].Meta.ModuleHash) {
		t.Fatalf("app hash should fold in base")
	}
	if s1[0].Meta.ModuleHash == s2[0].Meta.ModuleHash {
		t.Fatalf("changing a dependency must change the importer's hash")
	}
	if s1[2].Meta.ModuleHash != s2[2].Meta.ModuleHash {
		t.Fatalf("unrelated module hash changed")
	}
}
