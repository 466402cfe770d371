package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toon-format/toon-go"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/ingest"
)

func buildGraph(t *testing.T, method string) *cfg.Graph {
	t.Helper()
	f, err := ingest.ParseJava(context.Background(), []byte("class T {\n"+method+"\n}\n"))
	require.NoError(t, err)
	require.NotEmpty(t, f.Methods)
	m, err := f.Method(f.Methods[0].Name)
	require.NoError(t, err)
	g, err := cfg.Build(m, f.Source)
	require.NoError(t, err)
	return g
}

func TestComputeWhileLoop(t *testing.T) {
	g := buildGraph(t, `int f() { int x = 0; while (x < 10) { x = x + 1; } return x; }`)
	r := Compute(g)

	assert.Equal(t, "f", r.Method)
	assert.Equal(t, 5, r.Nodes)
	assert.Equal(t, 5, r.Edges)
	assert.Equal(t, 1, r.NodesByKind[cfg.NodeCondition])
	assert.Equal(t, 1, r.NodesByKind[cfg.NodeReturn])
	assert.Equal(t, 1, r.EdgesByKind[cfg.EdgeTrue])
	assert.Equal(t, 1, r.EdgesByKind[cfg.EdgeFalse])
	assert.Equal(t, 5, r.Reachable)
	assert.Empty(t, r.Unreachable)
	assert.Equal(t, [][]int{{2, 3}}, r.Loops)
	assert.Equal(t, []cfg.Edge{{From: 3, To: 2, Kind: cfg.EdgeUnconditional}}, r.BackEdges)
	assert.Equal(t, []Dominator{{1, 0}, {2, 1}, {3, 2}, {4, 2}}, r.IDom)
	assert.Equal(t, 2, r.Complexity)
	assert.Zero(t, r.SelfLoops)
}

func TestComputeIfElse(t *testing.T) {
	g := buildGraph(t, `int f(int x) { int y; if (x > 0) { y = 1; } else { y = 2; } return y; }`)
	r := Compute(g)

	assert.Empty(t, r.Loops)
	assert.Empty(t, r.BackEdges)
	assert.Contains(t, r.IDom, Dominator{Node: 4, IDom: 1})
	assert.True(t, r.Dominates(1, 3))
	assert.False(t, r.Dominates(2, 4))
	assert.True(t, r.Dominates(0, 4))
	assert.Equal(t, 2, r.Complexity)
}

func TestComputeUnreachable(t *testing.T) {
	g := buildGraph(t, `int f() { return 1; int y = 2; }`)
	r := Compute(g)

	assert.Equal(t, 2, r.Reachable)
	assert.Equal(t, []int{2}, r.Unreachable)
	assert.Equal(t, []Dominator{{Node: 1, IDom: 0}}, r.IDom)
	assert.False(t, r.Dominates(0, 2))
	assert.Equal(t, 1, r.Complexity)
}

func TestComputeSelfLoop(t *testing.T) {
	g := buildGraph(t, `void f(boolean b) { while (b) ; }`)
	r := Compute(g)

	assert.Equal(t, 1, r.SelfLoops)
	assert.Equal(t, [][]int{{1}}, r.Loops)
	require.Len(t, r.BackEdges, 1)
	assert.Equal(t, 1, r.BackEdges[0].From)
	assert.Equal(t, 1, r.BackEdges[0].To)
}

func TestComputeEmpty(t *testing.T) {
	r := Compute(&cfg.Graph{Name: "empty"})
	assert.Equal(t, "empty", r.Method)
	assert.Zero(t, r.Nodes)
	assert.Empty(t, r.Loops)
	assert.Empty(t, r.IDom)
}

func TestReportTOON(t *testing.T) {
	g := buildGraph(t, `int f() { int x = 0; while (x < 10) { x = x + 1; } return x; }`)
	r := Compute(g)

	out, err := toon.Marshal(r, toon.WithIndent(2))
	require.NoError(t, err)
	got := string(out)
	assert.Contains(t, got, "method: f")
	assert.Contains(t, got, "condition: 1")
	assert.Contains(t, got, "unconditional: 3")
	assert.Contains(t, got, "idom[4]")
	assert.Contains(t, got, "back_edges[1]")
}
