package ssa

import "sort"

// canonicalize renumbers every variable's versions densely, in node order: at each
// node the versions of its divergent merges come first, then its writes. Entry
// contexts and per-predecessor tables are rewritten afterwards. Version 0 (no
// reaching write) is left alone. Applying it twice is the same as applying it once.
func (st *state) canonicalize() {
	mapping := make(map[string]map[int]int)
	counter := make(map[string]int)
	match := func(v string, old int) int {
		if old == 0 {
			return 0
		}
		m := mapping[v]
		if m == nil {
			m = make(map[int]int)
			mapping[v] = m
		}
		if ver, ok := m[old]; ok {
			return ver
		}
		counter[v]++
		m[old] = counter[v]
		return counter[v]
	}

	for i := range st.ctx {
		if st.merge[i] {
			for _, v := range sortedKeys(st.byFrom[i]) {
				if len(distinct(st.byFrom[i][v])) > 1 {
					match(v, st.ctx[i][v])
				}
			}
		}
		for _, v := range sortedKeys(st.writes[i]) {
			st.writes[i][v] = match(v, st.writes[i][v])
		}
	}

	for i := range st.ctx {
		for _, v := range sortedKeys(st.ctx[i]) {
			st.ctx[i][v] = match(v, st.ctx[i][v])
		}
		for _, v := range sortedKeys(st.byFrom[i]) {
			for p, ver := range st.byFrom[i][v] {
				st.byFrom[i][v][p] = match(v, ver)
			}
		}
		for v, ver := range st.phi[i] {
			st.phi[i][v] = match(v, ver)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
