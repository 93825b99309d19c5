// Package graph provides the mutable directed graph the sampler operates on,
// together with snowball sampling zone metadata, nodal attribute columns,
// and Pajek-style arc list I/O.
package graph

import (
	"fmt"
	"strings"
)

// Digraph is a directed graph over a fixed node set 0..n-1. Arc multiplicity
// is boolean and self-loops are not allowed. The zero value is not usable;
// create one with New or LoadArcList.
//
// A Digraph is not safe for concurrent use. During a sampler batch it is
// exclusively owned by the sampler.
type Digraph struct {
	n      int
	arcs   int
	out    []map[int]struct{}
	in     []map[int]struct{}
	indeg  []int
	outdeg []int

	// Snowball sampling metadata, present only after AttachZones.
	zones       []int
	maxZone     int
	innerNodes  []int
	prevWaveDeg []int

	// Nodal attribute columns, loaded from attribute files.
	binAttrs  []attrColumn
	catAttrs  []attrColumn
	contAttrs []attrColumn
}

// New creates an empty digraph with n nodes and no arcs.
func New(n int) *Digraph {
	g := &Digraph{
		n:      n,
		out:    make([]map[int]struct{}, n),
		in:     make([]map[int]struct{}, n),
		indeg:  make([]int, n),
		outdeg: make([]int, n),
	}
	for i := 0; i < n; i++ {
		g.out[i] = make(map[int]struct{})
		g.in[i] = make(map[int]struct{})
	}
	return g
}

// NumNodes returns the number of nodes.
func (g *Digraph) NumNodes() int { return g.n }

// NumArcs returns the number of arcs currently present.
func (g *Digraph) NumArcs() int { return g.arcs }

// InDegree returns the in-degree of node j.
func (g *Digraph) InDegree(j int) int { return g.indeg[j] }

// OutDegree returns the out-degree of node i.
func (g *Digraph) OutDegree(i int) int { return g.outdeg[i] }

// ArcExists reports whether the arc i->j is present.
func (g *Digraph) ArcExists(i, j int) bool {
	_, ok := g.out[i][j]
	return ok
}

// ArcExistsIgnoreDirection reports whether either i->j or j->i is present.
func (g *Digraph) ArcExistsIgnoreDirection(i, j int) bool {
	return g.ArcExists(i, j) || g.ArcExists(j, i)
}

// InsertArc adds the arc i->j. Inserting an existing arc or a self-loop is a
// programming error and panics.
func (g *Digraph) InsertArc(i, j int) {
	if i == j {
		panic(fmt.Sprintf("graph: self-loop %d->%d", i, j))
	}
	if g.ArcExists(i, j) {
		panic(fmt.Sprintf("graph: arc %d->%d already present", i, j))
	}
	g.out[i][j] = struct{}{}
	g.in[j][i] = struct{}{}
	g.outdeg[i]++
	g.indeg[j]++
	g.arcs++
	g.updatePrevWaveDeg(i, j, 1)
}

// RemoveArc removes the arc i->j. Removing a missing arc panics.
func (g *Digraph) RemoveArc(i, j int) {
	if !g.ArcExists(i, j) {
		panic(fmt.Sprintf("graph: arc %d->%d not present", i, j))
	}
	delete(g.out[i], j)
	delete(g.in[j], i)
	g.outdeg[i]--
	g.indeg[j]--
	g.arcs--
	g.updatePrevWaveDeg(i, j, -1)
}

// updatePrevWaveDeg keeps the preceding-wave tie count consistent under arc
// mutation. Only ties between adjacent waves contribute, and only for the
// endpoint in the outer wave.
func (g *Digraph) updatePrevWaveDeg(i, j, delta int) {
	if g.zones == nil {
		return
	}
	// The preceding-wave count is direction-agnostic, so a pair with a
	// surviving reverse arc still counts as one tie and nothing changes.
	if g.ArcExists(j, i) {
		return
	}
	switch {
	case g.zones[i] == g.zones[j]+1:
		g.prevWaveDeg[i] += delta
	case g.zones[j] == g.zones[i]+1:
		g.prevWaveDeg[j] += delta
	}
}

// Arcs returns all arcs as (i, j) pairs in unspecified order.
func (g *Digraph) Arcs() [][2]int {
	arcs := make([][2]int, 0, g.arcs)
	for i := range g.out {
		for j := range g.out[i] {
			arcs = append(arcs, [2]int{i, j})
		}
	}
	return arcs
}

// Density returns the arc density |A| / (n*(n-1)).
func (g *Digraph) Density() float64 {
	if g.n < 2 {
		return 0
	}
	return float64(g.arcs) / (float64(g.n) * float64(g.n-1))
}

// Summary returns a one-line description of the graph for logging.
func (g *Digraph) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d nodes, %d arcs, density %g", g.n, g.arcs, g.Density())
	if g.zones != nil {
		fmt.Fprintf(&sb, ", %d waves, %d inner nodes", g.maxZone+1, len(g.innerNodes))
	}
	return sb.String()
}
