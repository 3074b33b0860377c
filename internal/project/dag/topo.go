package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []ModuleID   // импортирующие раньше импортируемых (только реальные модули)
	Batches [][]ModuleID // волны независимых модулей
	Cyclic  bool
	Cycles  []ModuleID // узлы, оставшиеся в цикле
}

func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order:   make([]ModuleID, 0, nodeCount),
		Batches: make([][]ModuleID, 0),
	}

	active := 0
	for i := range nodeCount {
		if g.Present[i] {
			active++
		}
	}

	current := make([]ModuleID, 0, nodeCount)
	for i := range nodeCount {
		if !g.Present[i] {
			continue
		}
		if indeg[i] == 0 {
			current = append(current, moduleID(i))
		}
	}
	slices.Sort(current)

	visited := 0
	for len(current) > 0 {
		batch := make([]ModuleID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]ModuleID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.Edges[int(id)] {
				if !g.Present[int(to)] {
					continue
				}
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		topo.Cycles = peelSinks(g, indeg, topo)
	}

	return topo
}

// peelSinks splits the nodes Kahn could not order into cycle members and
// modules that are only imported from a cycle. The latter are appended to
// Order; the former are returned sorted.
func peelSinks(g Graph, indeg []int, topo *Topo) []ModuleID {
	nodeCount := len(g.Edges)
	left := make([]bool, nodeCount)
	for i := range nodeCount {
		left[i] = g.Present[i] && indeg[i] > 0
	}
	outdeg := make([]int, nodeCount)
	for i := range nodeCount {
		if !left[i] {
			continue
		}
		for _, to := range g.Edges[i] {
			if left[int(to)] {
				outdeg[i]++
			}
		}
	}

	var peeled []ModuleID
	for changed := true; changed; {
		changed = false
		for i := range nodeCount {
			if !left[i] || outdeg[i] > 0 {
				continue
			}
			left[i] = false
			changed = true
			peeled = append(peeled, moduleID(i))
			for from := range nodeCount {
				if left[from] && slices.Contains(g.Edges[from], moduleID(i)) {
					outdeg[from]--
				}
			}
		}
	}
	for i := len(peeled) - 1; i >= 0; i-- {
		topo.Order = append(topo.Order, peeled[i])
	}

	var cycles []ModuleID
	for i := range nodeCount {
		if left[i] {
			cycles = append(cycles, moduleID(i))
		}
	}
	return cycles
}

func moduleID(i int) ModuleID {
	mID, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return mID
}
