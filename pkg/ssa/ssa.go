package ssa

import (
	"fmt"

	"github.com/l3aro/go-flow-graph/internal/log"
	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/occurrence"
	"github.com/l3aro/go-flow-graph/pkg/syntax"
)

// Build constructs the CFG of m and transforms it.
func Build(m *syntax.Method, src syntax.Source, opts Options) (*Result, error) {
	g, err := cfg.Build(m, src)
	if err != nil {
		return nil, err
	}
	return Transform(g, opts)
}

// Transform computes the SSA form of g.
func Transform(g *cfg.Graph, opts Options) (*Result, error) {
	logger := log.OrNop(opts.Logger)

	occ := occurrence.ExtractAll(g, occurrence.ModeSSA)
	st, err := propagate(g, occ)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", g.Name, err)
	}
	removed := st.removeTrivialPhis()
	st.canonicalize()

	res := &Result{
		CFG:    g,
		Name:   g.Name,
		Nodes:  make([]Node, len(g.Nodes)),
		Visits: st.visits,
	}
	for i, n := range g.Nodes {
		res.Nodes[i] = Node{
			Node:   n,
			In:     st.ctx[i],
			Writes: st.writes[i],
			ByFrom: st.byFrom[i],
			Merge:  st.merge[i],
		}
	}

	if err := label(res, occ, opts); err != nil {
		return nil, err
	}
	materialize(res, opts)

	logger.Debug("ssa", "method", g.Name, "nodes", len(g.Nodes), "phis", len(res.Phis),
		"trivial_phis", removed, "visits", st.visits)
	return res, nil
}
