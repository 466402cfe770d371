package ssa

import (
	"sort"

	"github.com/l3aro/go-flow-graph/internal/worklist"
	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/occurrence"
)

// state holds the provisional versions computed by propagate.
type state struct {
	ctx     []map[string]int
	writes  []map[string]int
	byFrom  []map[string]map[int]int
	merge   []bool
	phi     []map[string]int // phi version allocated per merge node and variable
	counter map[string]int
	visits  int
}

func (st *state) next(v string) int {
	st.counter[v]++
	return st.counter[v]
}

// out is the version context leaving node p: its entry context overridden by its
// own writes.
func (st *state) out(p int) map[string]int {
	out := make(map[string]int, len(st.ctx[p])+len(st.writes[p]))
	for v, ver := range st.ctx[p] {
		out[v] = ver
	}
	for v, ver := range st.writes[p] {
		out[v] = ver
	}
	return out
}

// propagate walks g from node 0 until no entry context changes.
//
// A node with one predecessor copies that predecessor's outgoing context. A merge
// node rebuilds its per-predecessor table from every predecessor reached so far;
// variables on which they disagree get a phi version, allocated once per node and
// variable and kept even if the disagreement later vanishes. Write versions are
// allocated on a node's first visit only.
func propagate(g *cfg.Graph, occ []occurrence.Occurrences) (*state, error) {
	n := len(g.Nodes)
	st := &state{
		ctx:     make([]map[string]int, n),
		writes:  make([]map[string]int, n),
		byFrom:  make([]map[string]map[int]int, n),
		merge:   make([]bool, n),
		phi:     make([]map[string]int, n),
		counter: make(map[string]int),
	}
	if n == 0 {
		return st, nil
	}

	preds := g.Predecessors()
	succ := g.Successors()
	vars := make(map[string]bool)
	writeSets := make([][]string, n)
	for i := range g.Nodes {
		st.ctx[i] = make(map[string]int)
		st.writes[i] = make(map[string]int)
		st.phi[i] = make(map[string]int)
		st.merge[i] = len(preds[i]) > 1
		writeSets[i] = occ[i].WriteSet()
		for _, v := range writeSets[i] {
			vars[v] = true
		}
		for _, v := range occ[i].ReadSet() {
			vars[v] = true
		}
	}

	// Every (node, variable) value changes a bounded number of times; this guard
	// only trips on a broken invariant.
	limit := (n + 1) * (n + 1) * (len(vars) + 2)
	visited := make([]bool, n)

	q := worklist.New(0)
	for !q.Empty() {
		i, _ := q.Pop()
		st.visits++
		if st.visits > limit {
			return nil, ErrNoFixpoint
		}

		changed := false
		switch {
		case st.merge[i]:
			changed = st.mergeInto(i, preds[i], visited)
		case len(preds[i]) == 1:
			for v, ver := range st.out(preds[i][0]) {
				if st.ctx[i][v] != ver {
					st.ctx[i][v] = ver
					changed = true
				}
			}
		}

		if !visited[i] {
			visited[i] = true
			changed = true
			for _, v := range writeSets[i] {
				st.writes[i][v] = st.next(v)
			}
		}

		if changed {
			for _, s := range succ[i] {
				q.Push(s)
			}
		}
	}
	return st, nil
}

// mergeInto recomputes the entry context of merge node i and reports whether it changed.
func (st *state) mergeInto(i int, preds []int, visited []bool) bool {
	byFrom := make(map[string]map[int]int)
	for _, p := range preds {
		if !visited[p] {
			continue
		}
		for v, ver := range st.out(p) {
			if byFrom[v] == nil {
				byFrom[v] = make(map[int]int)
			}
			byFrom[v][p] = ver
		}
	}
	st.byFrom[i] = byFrom

	vars := make([]string, 0, len(byFrom))
	for v := range byFrom {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	changed := false
	for _, v := range vars {
		values := distinct(byFrom[v])
		var ver int
		if phi, ok := st.phi[i][v]; ok || len(values) > 1 {
			if !ok {
				phi = st.next(v)
				st.phi[i][v] = phi
			}
			ver = phi
		} else {
			ver = values[0]
		}
		if st.ctx[i][v] != ver {
			st.ctx[i][v] = ver
			changed = true
		}
	}
	return changed
}

// distinct returns the sorted distinct values of m.
func distinct(m map[int]int) []int {
	seen := make(map[int]bool, len(m))
	out := make([]int, 0, len(m))
	for _, v := range m {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// removeTrivialPhis drops every phi whose operands, ignoring the phi itself, are a
// single version, and substitutes that version for it. It repeats until no phi is
// trivial and returns how many were removed.
func (st *state) removeTrivialPhis() int {
	removed := 0
	for {
		i, v, from, to, ok := st.findTrivialPhi()
		if !ok {
			return removed
		}
		delete(st.phi[i], v)
		st.substitute(v, from, to)
		removed++
	}
}

func (st *state) findTrivialPhi() (node int, v string, from, to int, ok bool) {
	for i := range st.phi {
		vars := make([]string, 0, len(st.phi[i]))
		for v := range st.phi[i] {
			vars = append(vars, v)
		}
		sort.Strings(vars)

		for _, v := range vars {
			phi := st.phi[i][v]
			var operands []int
			for _, ver := range distinct(st.byFrom[i][v]) {
				if ver != phi {
					operands = append(operands, ver)
				}
			}
			if len(operands) == 1 {
				return i, v, phi, operands[0], true
			}
		}
	}
	return 0, "", 0, 0, false
}

// substitute replaces version from of v by to in every context.
func (st *state) substitute(v string, from, to int) {
	for i := range st.ctx {
		if st.ctx[i][v] == from {
			st.ctx[i][v] = to
		}
		for p, ver := range st.byFrom[i][v] {
			if ver == from {
				st.byFrom[i][v][p] = to
			}
		}
	}
}
