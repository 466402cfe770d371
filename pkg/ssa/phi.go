package ssa

import (
	"strings"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
)

// materialize creates one phi per divergent (merge node, variable), variables in
// name order, and splices the phis of a node as a chain in front of it: edges that
// entered the node enter the first phi, and the last phi flows into the node.
func materialize(res *Result, opts Options) {
	edges := make([]Edge, 0, len(res.CFG.Edges))
	for _, e := range res.CFG.Edges {
		edges = append(edges, Edge{From: NodeID(e.From), To: NodeID(e.To), Kind: e.Kind})
	}

	for i, n := range res.Nodes {
		if !n.Merge {
			continue
		}

		var phis []Phi
		for _, v := range sortedKeys(n.ByFrom) {
			operands := distinct(n.ByFrom[v])
			if len(operands) < 2 {
				continue
			}
			phi := Phi{
				ID:       PhiID(i, v),
				Node:     i,
				Var:      v,
				Version:  n.In[v],
				Operands: operands,
			}
			phi.Label = phiLabel(phi, opts.ASCII)
			phis = append(phis, phi)
		}
		if len(phis) == 0 {
			continue
		}

		target := NodeID(i)
		for k := range edges {
			if edges[k].To == target {
				edges[k].To = phis[0].ID
			}
		}
		for k := 1; k < len(phis); k++ {
			edges = append(edges, Edge{From: phis[k-1].ID, To: phis[k].ID, Kind: cfg.EdgeUnconditional})
		}
		edges = append(edges, Edge{From: phis[len(phis)-1].ID, To: target, Kind: cfg.EdgeUnconditional})

		res.Phis = append(res.Phis, phis...)
	}
	res.Edges = edges
}

func phiLabel(p Phi, ascii bool) string {
	operands := make([]string, len(p.Operands))
	for k, ver := range p.Operands {
		operands[k] = p.Var + subscript(ver, ascii)
	}
	return p.Var + subscript(p.Version, ascii) + " = φ(" + strings.Join(operands, ", ") + ")"
}
