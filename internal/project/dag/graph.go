package dag

import (
	"fmt"
	"slices"
	"strings"

	"nixgen/internal/diag"
	"nixgen/internal/project"
	"nixgen/internal/source"
)

type Graph struct {
	Edges   [][]ModuleID // Edges[from] = []to, from imports to
	Indeg   []int        // входящие степени для Kahn (только присутствующие модули)
	Present []bool       // модуль реально собирается, а не только импортируется
}

// ModuleNode is one decoded module handed to the graph. Bag receives the
// module's project-level diagnostics and may be nil.
type ModuleNode struct {
	Meta     project.ModuleMeta
	Bag      *diag.Bag
	Broken   bool
	FirstErr *diag.Diagnostic
}

type ModuleSlot struct {
	Meta     project.ModuleMeta
	Bag      *diag.Bag
	Present  bool
	Broken   bool
	FirstErr *diag.Diagnostic
}

func (s *ModuleSlot) report(d diag.Diagnostic) {
	if s.Bag != nil {
		s.Bag.Add(d)
	}
}

// BuildGraph wires the import edges between nodes. Imports of modules that
// are not part of the build are warnings: the generated file still refers
// to them and they are expected to be provided next to the output.
func BuildGraph(idx ModuleIndex, nodes []ModuleNode) (Graph, []ModuleSlot) {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]ModuleSlot, nodeCount)
	for i, name := range idx.IDToName {
		slots[i].Meta.Name = name
	}

	for _, node := range nodes {
		meta := node.Meta
		if meta.Name == "" {
			continue
		}
		id, ok := idx.NameToID[meta.Name]
		if !ok {
			// индекс строится на тех же метаданных
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			if node.Bag != nil {
				d := diag.NewError(diag.ProjDuplicateModule, meta.Span,
					fmt.Sprintf("duplicate module %q (also defined by %s)", meta.Name, slot.Meta.File))
				if slot.Meta.Span != (source.Span{}) {
					d = d.WithNote(slot.Meta.Span, fmt.Sprintf("previous definition of %q", meta.Name))
				}
				node.Bag.Add(d)
			}
			continue
		}
		slot.Meta = meta
		slot.Bag = node.Bag
		slot.Present = true
		slot.Broken = node.Broken
		slot.FirstErr = node.FirstErr
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present || len(slot.Meta.Imports) == 0 {
			continue
		}
		seen := make(map[ModuleID]struct{}, len(slot.Meta.Imports))
		for _, dep := range slot.Meta.Imports {
			toID, ok := idx.NameToID[dep.Path]
			if !ok {
				continue
			}
			if ModuleID(from) == toID {
				slot.report(diag.NewError(diag.ProjSelfImport, dep.Span,
					fmt.Sprintf("module %q imports itself", slot.Meta.Name)))
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}

			g.Edges[from] = append(g.Edges[from], toID)
			if g.Present[int(toID)] {
				g.Indeg[int(toID)]++
			} else {
				slot.report(diag.New(diag.SevWarning, diag.InpUnknownModule, dep.Span,
					fmt.Sprintf("module %q imports %q, which is not part of this build", slot.Meta.Name, dep.Path)))
			}
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	return g, slots
}

// ReportCycles marks every module left in a cycle as broken.
func ReportCycles(idx ModuleIndex, slots []ModuleSlot, topo *Topo) {
	if !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	summary := strings.Join(names, " -> ")

	for _, id := range topo.Cycles {
		slot := &slots[int(id)]
		if !slot.Present {
			continue
		}
		d := diag.NewError(diag.ProjImportCycle, slot.Meta.Span,
			fmt.Sprintf("module %q participates in an import cycle: %s", slot.Meta.Name, summary))
		slot.report(d)
		slot.Broken = true
		if slot.FirstErr == nil {
			slot.FirstErr = &d
		}
	}
}

// ReportBrokenDeps reports imports of broken modules. Dependents become
// broken too, following the order so breakage propagates transitively.
func ReportBrokenDeps(idx ModuleIndex, slots []ModuleSlot, topo *Topo) {
	// Order lists importers before the modules they import.
	for i := len(topo.Order) - 1; i >= 0; i-- {
		slotFrom := &slots[int(topo.Order[i])]
		reportBrokenImports(idx, slots, slotFrom)
	}
}

func reportBrokenImports(idx ModuleIndex, slots []ModuleSlot, slotFrom *ModuleSlot) {
	if !slotFrom.Present || len(slotFrom.Meta.Imports) == 0 {
		return
	}
	for _, imp := range slotFrom.Meta.Imports {
		toID, ok := idx.NameToID[imp.Path]
		if !ok {
			continue
		}
		depSlot := slots[int(toID)]
		if !depSlot.Present || !depSlot.Broken || depSlot.Meta.Name == slotFrom.Meta.Name {
			continue
		}
		d := diag.NewError(diag.ProjDependencyFailed, imp.Span,
			fmt.Sprintf("dependency module %q has errors", imp.Path))
		if depSlot.FirstErr != nil {
			d = d.WithNote(depSlot.FirstErr.Primary,
				fmt.Sprintf("first error in dependency: %s", depSlot.FirstErr.Message))
		}
		slotFrom.report(d)
		if !slotFrom.Broken {
			slotFrom.Broken = true
			slotFrom.FirstErr = &d
		}
	}
}

// ModuleHashes folds the hashes of imported modules into each present
// module's ModuleHash. Dependencies are hashed before their importers.
func ModuleHashes(g Graph, slots []ModuleSlot, topo *Topo) {
	for i := len(topo.Order) - 1; i >= 0; i-- {
		id := int(topo.Order[i])
		deps := make([]project.Digest, 0, len(g.Edges[id]))
		for _, to := range g.Edges[id] {
			if g.Present[int(to)] {
				deps = append(deps, slots[int(to)].Meta.ModuleHash)
			}
		}
		slots[id].Meta.ModuleHash = project.Combine(slots[id].Meta.ContentHash, deps...)
	}
}
