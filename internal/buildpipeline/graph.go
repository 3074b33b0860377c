package buildpipeline

import (
	"nixgen/internal/project"
	"nixgen/internal/project/dag"
)

// moduleGraph is the import graph of the decoded units.
type moduleGraph struct {
	idx   dag.ModuleIndex
	graph dag.Graph
	slots []dag.ModuleSlot
	topo  *dag.Topo
	owner map[string]*unit // module name -> unit that defines it
	units []*unit          // units in the graph, file order
}

// newModuleGraph wires the loaded units together, reports duplicates,
// self imports and cycles into the unit bags, and computes module hashes.
func newModuleGraph(units []*unit) *moduleGraph {
	g := &moduleGraph{owner: make(map[string]*unit)}
	var metas []project.ModuleMeta
	var nodes []dag.ModuleNode
	for _, u := range units {
		if u.mod == nil || u.broken {
			continue
		}
		meta := project.MetaFromModule(u.mod, u.path, u.content)
		metas = append(metas, meta)
		nodes = append(nodes, dag.ModuleNode{Meta: meta, Bag: u.bag})
		g.units = append(g.units, u)
	}

	g.idx = dag.BuildIndex(metas)
	g.graph, g.slots = dag.BuildGraph(g.idx, nodes)
	g.topo = dag.ToposortKahn(g.graph)
	dag.ReportCycles(g.idx, g.slots, g.topo)
	dag.ModuleHashes(g.graph, g.slots, g.topo)

	for _, u := range g.units {
		slot := g.slot(u)
		if slot.Meta.File == u.path {
			g.owner[u.mod.Name] = u
		}
		if u.bag.HasErrors() || slot.Meta.File != u.path {
			u.broken = true
		}
	}
	return g
}

func (g *moduleGraph) slot(u *unit) *dag.ModuleSlot {
	return &g.slots[int(g.idx.NameToID[u.mod.Name])]
}

// ready returns the units that can be generated.
func (g *moduleGraph) ready() []*unit {
	out := make([]*unit, 0, len(g.units))
	for _, u := range g.units {
		if !u.broken {
			out = append(out, u)
		}
	}
	return out
}

func (g *moduleGraph) moduleHash(u *unit) project.Digest {
	return g.slot(u).Meta.ModuleHash
}

// propagateFailures marks importers of failed modules as broken so they
// are not written next to a missing dependency.
func (g *moduleGraph) propagateFailures() {
	for name, u := range g.owner {
		slot := &g.slots[int(g.idx.NameToID[name])]
		if u.broken {
			slot.Broken = true
			if slot.FirstErr == nil {
				slot.FirstErr = u.firstError()
			}
		}
	}
	dag.ReportBrokenDeps(g.idx, g.slots, g.topo)
	for name, u := range g.owner {
		if g.slots[int(g.idx.NameToID[name])].Broken {
			u.broken = true
		}
	}
}
