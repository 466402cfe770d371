package pdg

import (
	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/dfg"
	"github.com/l3aro/go-flow-graph/pkg/syntax"
)

// PDGBuilder builds a dependence graph by merging CFG and dependency information.
type PDGBuilder struct {
	kind Kind
	dfg  *dfg.Result
}

// NewPDGBuilder creates a new PDGBuilder for the given analysis result.
func NewPDGBuilder(kind Kind, result *dfg.Result) *PDGBuilder {
	return &PDGBuilder{kind: kind, dfg: result}
}

// Build constructs the dependence graph: one node per CFG node, then the CFG
// edges as control edges, then the dependencies as data edges.
func (b *PDGBuilder) Build() *PDGInfo {
	if b.dfg == nil || b.dfg.Graph == nil {
		return &PDGInfo{Kind: b.kind, Nodes: []PDGNode{}, Edges: []PDGEdge{}}
	}
	g := b.dfg.Graph

	info := &PDGInfo{
		FunctionName: g.Name,
		Kind:         b.kind,
		Nodes:        make([]PDGNode, 0, len(g.Nodes)),
		Edges:        make([]PDGEdge, 0, len(g.Edges)+len(b.dfg.Deps)),
	}

	// Step 1: Create nodes from CFG nodes
	for _, n := range g.Nodes {
		node := PDGNode{
			Index:     n.Index,
			Kind:      n.Kind,
			Label:     n.Label,
			StartLine: n.Line,
			EndLine:   endLine(n),
		}
		if n.Index < len(b.dfg.Occurrences) {
			node.Definitions = b.dfg.Occurrences[n.Index].WriteSet()
			node.Uses = b.dfg.Occurrences[n.Index].ReadSet()
		}
		info.Nodes = append(info.Nodes, node)
	}

	// Step 2: Add control edges from CFG
	for _, e := range g.Edges {
		info.Edges = append(info.Edges, PDGEdge{From: e.From, To: e.To, DepType: DepTypeControl, Branch: e.Kind})
	}

	// Step 3: Add data edges from dependencies
	for _, d := range b.dfg.Deps {
		info.Edges = append(info.Edges, PDGEdge{From: d.From, To: d.To, DepType: DepTypeData, Vars: d.Vars})
	}

	return info
}

// Build is shorthand for NewPDGBuilder(kind, result).Build().
func Build(kind Kind, result *dfg.Result) *PDGInfo {
	return NewPDGBuilder(kind, result).Build()
}

// endLine is the last source line a node covers. The method node only claims its
// header line so that slicing by line never selects it for a body statement.
func endLine(n cfg.Node) int {
	if n.Source == nil {
		return n.Line
	}
	if _, ok := n.Source.(*syntax.Method); ok {
		return n.Line
	}
	return n.Source.Span().End.Line
}
