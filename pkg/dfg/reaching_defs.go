package dfg

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/l3aro/go-flow-graph/internal/log"
	"github.com/l3aro/go-flow-graph/internal/worklist"
	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/occurrence"
)

// ReachingDefsAnalyzer performs reaching definitions analysis on a control flow graph.
// It uses a worklist-based algorithm to compute which writes may reach each node,
// then emits one dependency per (writer, reader) pair.
type ReachingDefsAnalyzer struct {
	trace TraceFunc
	log   log.Logger
}

// Option configures a ReachingDefsAnalyzer.
type Option func(*ReachingDefsAnalyzer)

// WithTrace installs a hook observing every reaching-set growth.
func WithTrace(fn TraceFunc) Option {
	return func(r *ReachingDefsAnalyzer) { r.trace = fn }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l log.Logger) Option {
	return func(r *ReachingDefsAnalyzer) { r.log = l }
}

// NewReachingDefsAnalyzer creates a new ReachingDefsAnalyzer.
func NewReachingDefsAnalyzer(opts ...Option) *ReachingDefsAnalyzer {
	r := &ReachingDefsAnalyzer{log: log.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = log.OrNop(r.log)
	return r
}

// Analyze runs the analysis with default options.
func Analyze(g *cfg.Graph) *Result {
	return NewReachingDefsAnalyzer().Analyze(g)
}

// Analyze computes the reaching sets of every node of g and the resulting dependencies.
//
// A node's outgoing state maps each variable it writes to itself and passes every
// other variable's reaching set through unchanged. Successors accumulate the union
// of their predecessors' outgoing states; a successor is revisited only when its
// sets grew or it has never been visited.
func (r *ReachingDefsAnalyzer) Analyze(g *cfg.Graph) *Result {
	res := &Result{
		Graph:       g,
		Occurrences: occurrence.ExtractAll(g, occurrence.ModeDependency),
		Reaching:    make([]map[string]*roaring.Bitmap, len(g.Nodes)),
	}
	for i := range res.Reaching {
		res.Reaching[i] = make(map[string]*roaring.Bitmap)
	}
	if len(g.Nodes) == 0 {
		return res
	}

	writes := make([][]string, len(g.Nodes))
	for i, occ := range res.Occurrences {
		writes[i] = occ.WriteSet()
	}
	succ := g.Successors()
	visited := make([]bool, len(g.Nodes))

	q := worklist.New(0)
	for !q.Empty() {
		p, _ := q.Pop()
		visited[p] = true
		res.Visits++

		out := r.outState(res.Reaching[p], p, writes[p])
		for _, s := range succ[p] {
			if r.merge(res.Reaching[s], s, out) || !visited[s] {
				q.Push(s)
			}
		}
	}

	res.Deps = dependencies(res)
	r.log.Debug("reaching definitions", "method", g.Name, "nodes", len(g.Nodes), "visits", res.Visits, "deps", len(res.Deps))
	return res
}

func (r *ReachingDefsAnalyzer) outState(in map[string]*roaring.Bitmap, p int, writes []string) map[string]*roaring.Bitmap {
	out := make(map[string]*roaring.Bitmap, len(in)+len(writes))
	for v, bm := range in {
		out[v] = bm
	}
	for _, v := range writes {
		out[v] = roaring.BitmapOf(uint32(p))
	}
	return out
}

// merge unions out into the reaching sets of node s and reports whether any grew.
func (r *ReachingDefsAnalyzer) merge(dst map[string]*roaring.Bitmap, s int, out map[string]*roaring.Bitmap) bool {
	vars := make([]string, 0, len(out))
	for v := range out {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	changed := false
	for _, v := range vars {
		bm := dst[v]
		if bm == out[v] {
			// self-loop: a node passing its own set back to itself
			continue
		}
		if bm == nil {
			bm = roaring.New()
			dst[v] = bm
		}
		before := bm.GetCardinality()
		bm.Or(out[v])
		after := bm.GetCardinality()
		if after != before {
			changed = true
			if r.trace != nil {
				r.trace(s, v, before, after)
			}
		}
	}
	return changed
}

func dependencies(res *Result) []Dependency {
	type pair struct{ from, to int }
	byPair := make(map[pair][]string)

	for n, occ := range res.Occurrences {
		for _, v := range occ.ReadSet() {
			for _, w := range res.ReachingWriters(n, v) {
				k := pair{w, n}
				byPair[k] = append(byPair[k], v)
			}
		}
	}

	deps := make([]Dependency, 0, len(byPair))
	for k, vars := range byPair {
		sort.Strings(vars)
		deps = append(deps, Dependency{From: k.from, To: k.to, Vars: vars})
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].From != deps[j].From {
			return deps[i].From < deps[j].From
		}
		return deps[i].To < deps[j].To
	})
	return deps
}
