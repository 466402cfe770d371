// Package render converts analysis results into a neutral drawable graph and
// writes it in one of several output formats.
package render

import (
	"strconv"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/pdg"
	"github.com/l3aro/go-flow-graph/pkg/ssa"
)

// Shape is the outline a node is drawn with.
type Shape string

const (
	ShapeEllipse Shape = "ellipse"
	ShapeBox     Shape = "box"
	ShapeDiamond Shape = "diamond"
)

func (s Shape) String() string { return string(s) }

// Style is the line style of an edge. The empty style draws a plain edge.
type Style string

const (
	StyleNone   Style = ""
	StyleSolid  Style = "solid"
	StyleInvis  Style = "invis"
	StyleDashed Style = "dashed"
)

func (s Style) String() string { return string(s) }

// KindPhi is the node kind of a phi pseudo-node.
const KindPhi = "phi"

// KindData is the edge kind of a data dependency.
const KindData = "data"

// Node is a drawable node.
type Node struct {
	ID    string `json:"id" msgpack:"id" toon:"id"`
	Kind  string `json:"kind" msgpack:"kind" toon:"kind"`
	Label string `json:"label" msgpack:"label" toon:"label"`
	Shape Shape  `json:"shape" msgpack:"shape" toon:"shape"`
	Line  int    `json:"line,omitempty" msgpack:"line,omitempty" toon:"line,omitempty"`
}

// Edge is a drawable edge. Kind is a control edge kind or KindData.
type Edge struct {
	From  string   `json:"from" msgpack:"from" toon:"from"`
	To    string   `json:"to" msgpack:"to" toon:"to"`
	Kind  string   `json:"kind" msgpack:"kind" toon:"kind"`
	Style Style    `json:"style,omitempty" msgpack:"style,omitempty" toon:"style,omitempty"`
	Vars  []string `json:"vars,omitempty" msgpack:"vars,omitempty" toon:"vars,omitempty"`
}

// Graph is a drawable graph of one method.
type Graph struct {
	Name  string `json:"name" msgpack:"name" toon:"name"`
	Kind  string `json:"kind" msgpack:"kind" toon:"kind"`
	Nodes []Node `json:"nodes" msgpack:"nodes" toon:"nodes"`
	Edges []Edge `json:"edges" msgpack:"edges" toon:"edges"`
}

// ShapeOf returns the shape for a CFG node kind.
func ShapeOf(k cfg.NodeKind) Shape {
	switch k {
	case cfg.NodeMethod, cfg.NodeReturn:
		return ShapeEllipse
	case cfg.NodeCondition:
		return ShapeDiamond
	default:
		return ShapeBox
	}
}

func nodeID(i int) string {
	return "n" + strconv.Itoa(i)
}

func fromNode(n cfg.Node) Node {
	return Node{
		ID:    nodeID(n.Index),
		Kind:  string(n.Kind),
		Label: n.Label,
		Shape: ShapeOf(n.Kind),
		Line:  n.Line,
	}
}

// FromCFG converts a control flow graph.
func FromCFG(g *cfg.Graph) Graph {
	out := Graph{
		Name:  g.Name,
		Kind:  "cfg",
		Nodes: make([]Node, 0, len(g.Nodes)),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, fromNode(n))
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, Edge{
			From: nodeID(e.From),
			To:   nodeID(e.To),
			Kind: string(e.Kind),
		})
	}
	return out
}

// FromPDG converts a dependence graph. Control edges are hidden in a DDG and
// solid in a PDG; data edges are dashed.
func FromPDG(p *pdg.PDGInfo) Graph {
	out := Graph{
		Name:  p.FunctionName,
		Kind:  string(p.Kind),
		Nodes: make([]Node, 0, len(p.Nodes)),
		Edges: make([]Edge, 0, len(p.Edges)),
	}
	for _, n := range p.Nodes {
		out.Nodes = append(out.Nodes, Node{
			ID:    nodeID(n.Index),
			Kind:  string(n.Kind),
			Label: n.Label,
			Shape: ShapeOf(n.Kind),
			Line:  n.StartLine,
		})
	}

	control := StyleSolid
	if p.Kind == pdg.KindDDG {
		control = StyleInvis
	}
	for _, e := range p.Edges {
		if e.DepType == pdg.DepTypeData {
			out.Edges = append(out.Edges, Edge{
				From:  nodeID(e.From),
				To:    nodeID(e.To),
				Kind:  KindData,
				Style: StyleDashed,
				Vars:  e.Vars,
			})
			continue
		}
		out.Edges = append(out.Edges, Edge{
			From:  nodeID(e.From),
			To:    nodeID(e.To),
			Kind:  string(e.Branch),
			Style: control,
		})
	}
	return out
}

// FromSSA converts an SSA result. Each node is preceded by the phis placed in
// front of it.
func FromSSA(r *ssa.Result) Graph {
	out := Graph{
		Name:  r.Name,
		Kind:  "ssa",
		Nodes: make([]Node, 0, len(r.Nodes)+len(r.Phis)),
		Edges: make([]Edge, 0, len(r.Edges)),
	}
	for _, n := range r.Nodes {
		for _, p := range r.PhisAt(n.Index) {
			out.Nodes = append(out.Nodes, Node{
				ID:    "n" + p.ID,
				Kind:  KindPhi,
				Label: p.Label,
				Shape: ShapeBox,
				Line:  n.Line,
			})
		}
		out.Nodes = append(out.Nodes, fromNode(n.Node))
	}
	for _, e := range r.Edges {
		out.Edges = append(out.Edges, Edge{
			From: "n" + e.From,
			To:   "n" + e.To,
			Kind: string(e.Kind),
		})
	}
	return out
}
