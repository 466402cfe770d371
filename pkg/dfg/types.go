// Package dfg computes data dependencies between the nodes of a control flow graph
// using a may-reach definitions analysis.
package dfg

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/occurrence"
)

// Dependency connects a node that writes a variable to a node that may read that
// write. Vars lists every variable carrying the dependency, sorted.
type Dependency struct {
	From int      `json:"from" msgpack:"from"`
	To   int      `json:"to" msgpack:"to"`
	Vars []string `json:"vars" msgpack:"vars"`
}

// Result is the outcome of the analysis over one graph.
type Result struct {
	Graph       *cfg.Graph               `json:"graph"`
	Occurrences []occurrence.Occurrences `json:"-"`
	// Reaching holds, per node and variable, the writer nodes whose write may be
	// live on entry to the node.
	Reaching []map[string]*roaring.Bitmap `json:"-"`
	Deps     []Dependency                 `json:"dependencies"`
	Visits   int                          `json:"visits"`
}

// ReachingWriters returns the writer nodes of variable v that reach node n, ascending.
func (r *Result) ReachingWriters(n int, v string) []int {
	if n < 0 || n >= len(r.Reaching) {
		return nil
	}
	bm, ok := r.Reaching[n][v]
	if !ok {
		return nil
	}
	out := make([]int, 0, bm.GetCardinality())
	for _, w := range bm.ToArray() {
		out = append(out, int(w))
	}
	return out
}

// TraceFunc observes every growth of a reaching set: node n's set for variable v
// went from before to after elements.
type TraceFunc func(n int, v string, before, after uint64)
