package pdg

import (
	"sort"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
)

// DependencyInfo contains the control and data dependencies for a specific line.
// It separates incoming and outgoing edges for both control and data dependence types.
type DependencyInfo struct {
	ControlIn  []PDGEdge `json:"control_in" toon:"control_in"`
	ControlOut []PDGEdge `json:"control_out" toon:"control_out"`
	DataIn     []PDGEdge `json:"data_in" toon:"data_in"`
	DataOut    []PDGEdge `json:"data_out" toon:"data_out"`
}

// buildEdgeMaps creates incoming and outgoing edge maps for efficient traversal.
func buildEdgeMaps(pdg *PDGInfo) (incoming map[int][]PDGEdge, outgoing map[int][]PDGEdge) {
	incoming = make(map[int][]PDGEdge)
	outgoing = make(map[int][]PDGEdge)

	for _, edge := range pdg.Edges {
		outgoing[edge.From] = append(outgoing[edge.From], edge)
		incoming[edge.To] = append(incoming[edge.To], edge)
	}
	return
}

// NodesAtLine returns the indices of all nodes whose source range covers line.
func NodesAtLine(pdg *PDGInfo, line int) []int {
	if pdg == nil {
		return nil
	}
	var nodes []int
	for _, node := range pdg.Nodes {
		if line >= node.StartLine && line <= node.EndLine {
			nodes = append(nodes, node.Index)
		}
	}
	return nodes
}

// Lines returns the sorted distinct source lines covered by the given nodes.
func Lines(pdg *PDGInfo, nodes []int) []int {
	lineSet := make(map[int]struct{})
	for _, idx := range nodes {
		if idx < 0 || idx >= len(pdg.Nodes) {
			continue
		}
		node := pdg.Nodes[idx]
		for line := node.StartLine; line <= node.EndLine; line++ {
			lineSet[line] = struct{}{}
		}
	}

	lines := make([]int, 0, len(lineSet))
	for line := range lineSet {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// BackwardSlice returns the nodes whose writes may reach the statements at line.
// If a variable filter is provided, only data edges carrying it are followed.
func BackwardSlice(pdg *PDGInfo, line int, variable *string) []int {
	return SliceNodes(pdg, NodesAtLine(pdg, line), variable, false)
}

// ForwardSlice returns the nodes that may read the writes made at line.
func ForwardSlice(pdg *PDGInfo, line int, variable *string) []int {
	return SliceNodes(pdg, NodesAtLine(pdg, line), variable, true)
}

// SliceNodes walks data edges breadth-first from the start nodes, against edge
// direction unless forward is set, and returns the visited nodes sorted.
func SliceNodes(pdg *PDGInfo, start []int, variable *string, forward bool) []int {
	if pdg == nil || len(start) == 0 {
		return nil
	}
	incoming, outgoing := buildEdgeMaps(pdg)

	visited := make(map[int]bool)
	queue := make([]int, 0, len(start))
	for _, n := range start {
		if !visited[n] {
			visited[n] = true
			queue = append(queue, n)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges := incoming[current]
		if forward {
			edges = outgoing[current]
		}
		for _, edge := range edges {
			if edge.DepType != DepTypeData {
				continue
			}
			if variable != nil && !edge.HasVar(*variable) {
				continue
			}
			next := edge.From
			if forward {
				next = edge.To
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	result := make([]int, 0, len(visited))
	for n := range visited {
		result = append(result, n)
	}
	sort.Ints(result)
	return result
}

// GetDependencies returns all dependencies for a specific line.
// It separates control and data dependencies into incoming and outgoing categories.
func GetDependencies(pdg *PDGInfo, line int) DependencyInfo {
	info := DependencyInfo{
		ControlIn:  []PDGEdge{},
		ControlOut: []PDGEdge{},
		DataIn:     []PDGEdge{},
		DataOut:    []PDGEdge{},
	}
	nodes := NodesAtLine(pdg, line)
	if len(nodes) == 0 {
		return info
	}
	incoming, outgoing := buildEdgeMaps(pdg)

	seen := make(map[edgeKey]bool)
	add := func(dst *[]PDGEdge, edge PDGEdge) {
		key := edge.key()
		if seen[key] {
			return
		}
		seen[key] = true
		*dst = append(*dst, edge)
	}

	for _, n := range nodes {
		for _, edge := range incoming[n] {
			if edge.DepType == DepTypeControl {
				add(&info.ControlIn, edge)
			} else {
				add(&info.DataIn, edge)
			}
		}
		for _, edge := range outgoing[n] {
			if edge.DepType == DepTypeControl {
				add(&info.ControlOut, edge)
			} else {
				add(&info.DataOut, edge)
			}
		}
	}

	for _, edges := range [][]PDGEdge{info.ControlIn, info.ControlOut, info.DataIn, info.DataOut} {
		sortEdges(edges)
	}
	return info
}

// edgeKey identifies an edge for de-duplication.
type edgeKey struct {
	from, to int
	depType  DepType
	branch   cfg.EdgeKind
}

// key returns the identity of e; data edges between the same nodes share a key.
func (e PDGEdge) key() edgeKey {
	return edgeKey{from: e.From, to: e.To, depType: e.DepType, branch: e.Branch}
}

func sortEdges(edges []PDGEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
}

// GetVariableNames returns all unique variable names carried by data edges.
func GetVariableNames(pdg *PDGInfo) []string {
	if pdg == nil {
		return nil
	}

	varSet := make(map[string]bool)
	for _, edge := range pdg.Edges {
		if edge.DepType == DepTypeData {
			for _, v := range edge.Vars {
				varSet[v] = true
			}
		}
	}

	variables := make([]string, 0, len(varSet))
	for v := range varSet {
		variables = append(variables, v)
	}
	sort.Strings(variables)
	return variables
}

// FindNodesByVariable returns the nodes that define or use varName.
func FindNodesByVariable(pdg *PDGInfo, varName string) []int {
	if pdg == nil {
		return nil
	}

	var nodes []int
	for _, node := range pdg.Nodes {
		if contains(node.Definitions, varName) || contains(node.Uses, varName) {
			nodes = append(nodes, node.Index)
		}
	}
	return nodes
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
