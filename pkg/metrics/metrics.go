// Package metrics reports structural properties of a control flow graph:
// reachability, loops, back edges, dominators and cyclomatic complexity.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
)

// Report summarizes one control flow graph.
type Report struct {
	Method      string               `json:"method" toon:"method"`
	Nodes       int                  `json:"nodes" toon:"nodes"`
	Edges       int                  `json:"edges" toon:"edges"`
	NodesByKind map[cfg.NodeKind]int `json:"nodes_by_kind" toon:"nodes_by_kind"`
	EdgesByKind map[cfg.EdgeKind]int `json:"edges_by_kind" toon:"edges_by_kind"`
	Reachable   int                  `json:"reachable" toon:"reachable"`
	Unreachable []int                `json:"unreachable" toon:"unreachable"`
	// Loops are the strongly connected components with a cycle, each sorted,
	// ordered by their first node.
	Loops     [][]int    `json:"loops" toon:"loops"`
	BackEdges []cfg.Edge `json:"back_edges" toon:"back_edges"`
	// IDom lists the immediate dominator of each reachable node except the
	// entry, in node order.
	IDom       []Dominator `json:"idom" toon:"idom"`
	SelfLoops  int         `json:"self_loops" toon:"self_loops"`
	Complexity int         `json:"complexity" toon:"complexity"`
}

// Dominator pairs a node with its immediate dominator.
type Dominator struct {
	Node int `json:"node" toon:"node"`
	IDom int `json:"idom" toon:"idom"`
}

// Dominates reports whether a dominates b. Every node dominates itself; nodes
// without a dominator entry are dominated by nothing else.
func (r Report) Dominates(a, b int) bool {
	idom := make(map[int]int, len(r.IDom))
	for _, d := range r.IDom {
		idom[d.Node] = d.IDom
	}
	return dominates(idom, a, b)
}

// directed converts g to a gonum graph. Self-loops are dropped since simple
// graphs cannot hold them; their count is returned.
func directed(g *cfg.Graph) (*simple.DirectedGraph, int) {
	dg := simple.NewDirectedGraph()
	for _, n := range g.Nodes {
		dg.AddNode(simple.Node(n.Index))
	}
	selfLoops := 0
	for _, e := range g.Edges {
		if e.From == e.To {
			selfLoops++
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(e.From), T: simple.Node(e.To)})
	}
	return dg, selfLoops
}

// Compute builds the report for g.
func Compute(g *cfg.Graph) Report {
	r := Report{
		Method:      g.Name,
		Nodes:       len(g.Nodes),
		Edges:       len(g.Edges),
		NodesByKind: make(map[cfg.NodeKind]int),
		EdgesByKind: make(map[cfg.EdgeKind]int),
		Unreachable: []int{},
		Loops:       [][]int{},
		BackEdges:   []cfg.Edge{},
		IDom:        []Dominator{},
	}
	for _, n := range g.Nodes {
		r.NodesByKind[n.Kind]++
	}
	for _, e := range g.Edges {
		r.EdgesByKind[e.Kind]++
	}
	if len(g.Nodes) == 0 {
		return r
	}

	dg, selfLoops := directed(g)
	r.SelfLoops = selfLoops

	reached := reachable(dg)
	r.Reachable = len(reached)
	for _, n := range g.Nodes {
		if !reached[n.Index] {
			r.Unreachable = append(r.Unreachable, n.Index)
		}
	}

	r.Loops = loops(g, dg)

	idom := make(map[int]int)
	dom := flow.Dominators(simple.Node(0), dg)
	for _, n := range g.Nodes {
		if n.Index == 0 || !reached[n.Index] {
			continue
		}
		if d := dom.DominatorOf(int64(n.Index)); d != nil {
			idom[n.Index] = int(d.ID())
			r.IDom = append(r.IDom, Dominator{Node: n.Index, IDom: int(d.ID())})
		}
	}

	for _, e := range g.Edges {
		if reached[e.From] && dominates(idom, e.To, e.From) {
			r.BackEdges = append(r.BackEdges, e)
		}
	}

	r.Complexity = cfg.Complexity(g)
	return r
}

func reachable(dg *simple.DirectedGraph) map[int]bool {
	reached := make(map[int]bool)
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) { reached[int(n.ID())] = true },
	}
	bf.Walk(dg, simple.Node(0), nil)
	return reached
}

// loops returns the cyclic strongly connected components, including single nodes
// with a self-loop.
func loops(g *cfg.Graph, dg *simple.DirectedGraph) [][]int {
	self := make(map[int]bool)
	for _, e := range g.Edges {
		if e.From == e.To {
			self[e.From] = true
		}
	}

	var out [][]int
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) == 1 && !self[int(scc[0].ID())] {
			continue
		}
		ids := make([]int, len(scc))
		for i, n := range scc {
			ids[i] = int(n.ID())
		}
		sort.Ints(ids)
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	if out == nil {
		out = [][]int{}
	}
	return out
}

// dominates walks the immediate dominator chain of b, rooted at node 0.
func dominates(idom map[int]int, a, b int) bool {
	for {
		if a == b {
			return true
		}
		parent, ok := idom[b]
		if !ok {
			return false
		}
		b = parent
	}
}
