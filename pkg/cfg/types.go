// Package cfg defines data structures for representing Control Flow Graphs (CFGs)
// of a single method, and the builder that derives them from a syntax tree.
package cfg

import "github.com/l3aro/go-flow-graph/pkg/syntax"

// NodeKind represents the type of a CFG node.
type NodeKind string

const (
	NodeMethod    NodeKind = "method"    // Method entry, always node 0
	NodeStatement NodeKind = "statement" // Simple statement or opaque construct
	NodeCondition NodeKind = "condition" // Branch or loop test
	NodeReturn    NodeKind = "return"    // Return statement
)

func (k NodeKind) String() string { return string(k) }

// EdgeKind represents the type of a CFG edge.
type EdgeKind string

const (
	EdgeUnconditional EdgeKind = "unconditional" // Fallthrough
	EdgeTrue          EdgeKind = "true"          // True branch of a condition
	EdgeFalse         EdgeKind = "false"         // False branch of a condition
)

func (k EdgeKind) String() string { return string(k) }

// Node is a control-relevant statement or expression.
type Node struct {
	Index  int         `json:"index" msgpack:"index"` // Insertion order, stable
	Kind   NodeKind    `json:"kind" msgpack:"kind"`
	Label  string      `json:"label" msgpack:"label"`
	Line   int         `json:"line" msgpack:"line"` // First source line
	Source syntax.Node `json:"-" msgpack:"-"`       // Originating statement or sub-expression; nil for a missing for-condition
}

// Edge is a directed control transfer between two nodes.
type Edge struct {
	From int      `json:"from" msgpack:"from" toon:"from"`
	To   int      `json:"to" msgpack:"to" toon:"to"`
	Kind EdgeKind `json:"kind" msgpack:"kind" toon:"kind"`
}

// Graph is the control flow graph of one method.
type Graph struct {
	Name   string         `json:"name" msgpack:"name"`
	Nodes  []Node         `json:"nodes" msgpack:"nodes"`
	Edges  []Edge         `json:"edges" msgpack:"edges"`
	Method *syntax.Method `json:"-" msgpack:"-"`
	Src    syntax.Source  `json:"-" msgpack:"-"`
}

// Successors returns, per node, the distinct direct successors in edge order.
func (g *Graph) Successors() [][]int {
	return g.adjacency(func(e Edge) (int, int) { return e.From, e.To })
}

// Predecessors returns, per node, the distinct direct predecessors in edge order.
func (g *Graph) Predecessors() [][]int {
	return g.adjacency(func(e Edge) (int, int) { return e.To, e.From })
}

func (g *Graph) adjacency(ends func(Edge) (int, int)) [][]int {
	adj := make([][]int, len(g.Nodes))
	seen := make(map[[2]int]bool, len(g.Edges))
	for _, e := range g.Edges {
		a, b := ends(e)
		if seen[[2]int{a, b}] {
			continue
		}
		seen[[2]int{a, b}] = true
		adj[a] = append(adj[a], b)
	}
	return adj
}

// OutEdges returns the edges leaving node i.
func (g *Graph) OutEdges(i int) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == i {
			out = append(out, e)
		}
	}
	return out
}

// InEdges returns the edges entering node i.
func (g *Graph) InEdges(i int) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.To == i {
			in = append(in, e)
		}
	}
	return in
}

// Reachable reports, per node, whether it can be reached from node 0.
func (g *Graph) Reachable() []bool {
	reached := make([]bool, len(g.Nodes))
	if len(g.Nodes) == 0 {
		return reached
	}
	succ := g.Successors()
	stack := []int{0}
	reached[0] = true
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range succ[n] {
			if !reached[s] {
				reached[s] = true
				stack = append(stack, s)
			}
		}
	}
	return reached
}

// Complexity returns the cyclomatic complexity of the reachable part of g: one plus
// the number of extra outgoing edges of each reachable node. It equals E - N + 2 on
// the graph completed with a single exit node.
func Complexity(g *Graph) int {
	if len(g.Nodes) == 0 {
		return 0
	}
	reached := g.Reachable()
	out := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.From]++
	}
	complexity := 1
	for i, r := range reached {
		if r && out[i] > 1 {
			complexity += out[i] - 1
		}
	}
	return complexity
}
