package ssa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/ingest"
	"github.com/l3aro/go-flow-graph/pkg/occurrence"
)

func graph(t *testing.T, method string) *cfg.Graph {
	t.Helper()
	f, err := ingest.ParseJava(context.Background(), []byte("class T {\n"+method+"\n}\n"))
	require.NoError(t, err)
	m, err := f.Method(f.Methods[0].Name)
	require.NoError(t, err)
	g, err := cfg.Build(m, f.Source)
	require.NoError(t, err)
	return g
}

func transform(t *testing.T, method string, opts Options) *Result {
	t.Helper()
	res, err := Transform(graph(t, method), opts)
	require.NoError(t, err)
	return res
}

func labels(res *Result) []string {
	out := make([]string, len(res.Nodes))
	for i, n := range res.Nodes {
		out[i] = n.Label
	}
	return out
}

const ifElse = `int f(int x) { int y; if (x > 0) { y = 1; } else { y = 2; } return y; }`

func TestIfElseMerge(t *testing.T) {
	res := transform(t, ifElse, Options{})

	assert.Equal(t, []string{"f(x₁)", "x₁ > 0", "y₁ = 1", "y₂ = 2", "return y₃"}, labels(res))
	require.Len(t, res.Phis, 1)
	assert.Equal(t, Phi{
		ID:       "4_y",
		Node:     4,
		Var:      "y",
		Version:  3,
		Operands: []int{1, 2},
		Label:    "y₃ = φ(y₁, y₂)",
	}, res.Phis[0])

	assert.ElementsMatch(t, []Edge{
		{From: "0", To: "1", Kind: cfg.EdgeUnconditional},
		{From: "1", To: "2", Kind: cfg.EdgeTrue},
		{From: "1", To: "3", Kind: cfg.EdgeFalse},
		{From: "2", To: "4_y", Kind: cfg.EdgeUnconditional},
		{From: "3", To: "4_y", Kind: cfg.EdgeUnconditional},
		{From: "4_y", To: "4", Kind: cfg.EdgeUnconditional},
	}, res.Edges)

	assert.True(t, res.Nodes[4].Merge)
	assert.Equal(t, map[int]int{2: 1, 3: 2}, res.Nodes[4].ByFrom["y"])
	assert.Equal(t, 3, res.Nodes[4].In["y"])
}

func TestWhileLoopPhi(t *testing.T) {
	res := transform(t, `int f() { int x = 0; while (x < 10) { x = x + 1; } return x; }`, Options{})

	assert.Equal(t, []string{"f()", "x₁ = 0", "x₂ < 10", "x₃ = x₂ + 1", "return x₂"}, labels(res))
	require.Len(t, res.Phis, 1)
	assert.Equal(t, "x₂ = φ(x₁, x₃)", res.Phis[0].Label)
	assert.Equal(t, 2, res.Phis[0].Node)

	assert.Contains(t, res.Edges, Edge{From: "1", To: "2_x", Kind: cfg.EdgeUnconditional})
	assert.Contains(t, res.Edges, Edge{From: "3", To: "2_x", Kind: cfg.EdgeUnconditional})
	assert.Contains(t, res.Edges, Edge{From: "2_x", To: "2", Kind: cfg.EdgeUnconditional})
	assert.Contains(t, res.Edges, Edge{From: "2", To: "3", Kind: cfg.EdgeTrue})
	assert.Contains(t, res.Edges, Edge{From: "2", To: "4", Kind: cfg.EdgeFalse})

	// the body write keeps a single version however often the loop is revisited
	assert.Equal(t, map[string]int{"x": 3}, res.Nodes[3].Writes)
	assert.Equal(t, 2, res.Nodes[3].In["x"])
}

func TestCompoundAndIncrementLabels(t *testing.T) {
	res := transform(t, `int f(int a) { int s = 0; s += a * 2; s++; s -= 1; --s; return s; }`, Options{})

	assert.Equal(t, []string{
		"f(a₁)",
		"s₁ = 0",
		"s₂ = s₁ + (a₁ * 2)",
		"s₃ = s₂ + 1",
		"s₄ = s₃ - 1",
		"s₅ = s₄ - 1",
		"return s₅",
	}, labels(res))
	assert.Empty(t, res.Phis)
}

func TestStoreLabels(t *testing.T) {
	res := transform(t, `void f(int[] a, int i) { a[i] = i; a[i] += 1; }`, Options{})
	assert.Equal(t, []string{"f(a₁, i₁)", "a₂[i₁] = i₁", "a₃[i₁] += 1"}, labels(res))
}

func TestASCIIVersions(t *testing.T) {
	res := transform(t, ifElse, Options{ASCII: true})
	assert.Equal(t, "return y_3", res.Nodes[4].Label)
	assert.Equal(t, "y_3 = φ(y_1, y_2)", res.Phis[0].Label)
	assert.Equal(t, "f(x_1)", res.Nodes[0].Label)
}

func TestSubscript(t *testing.T) {
	assert.Equal(t, "₀", subscript(0, false))
	assert.Equal(t, "₁₂", subscript(12, false))
	assert.Equal(t, "_107", subscript(107, true))
}

func TestUndefinedVariable(t *testing.T) {
	method := `int f() { return z; }`

	res := transform(t, method, Options{})
	assert.Equal(t, "return z₀", res.Nodes[1].Label)

	_, err := Transform(graph(t, method), Options{Strict: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedVariable)
	assert.ErrorIs(t, err, cfg.ErrMalformed)

	var perr *cfg.PositionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Pos.Line)
}

func TestUndefinedUpdateTarget(t *testing.T) {
	tests := []struct {
		name   string
		method string
		label  string
	}{
		{"compound", `int f() { int x; x += 1; return 0; }`, "x₁ = x₀ + 1"},
		{"increment", `int f() { int x; x++; return 0; }`, "x₁ = x₀ + 1"},
		{"decrement", `int f() { int x; x--; return 0; }`, "x₁ = x₀ - 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := transform(t, tt.method, Options{})
			assert.Equal(t, tt.label, res.Nodes[1].Label)

			_, err := Transform(graph(t, tt.method), Options{Strict: true})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUndefinedVariable)

			var perr *cfg.PositionError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, 2, perr.Pos.Line)
		})
	}
}

func TestPhiChain(t *testing.T) {
	res := transform(t, `int f(int c) { int a = 0; int b = 0; if (c > 0) { a = 1; b = 1; } return a + b; }`, Options{})

	phis := res.PhisAt(6)
	require.Len(t, phis, 2)
	assert.Equal(t, "6_a", phis[0].ID)
	assert.Equal(t, "6_b", phis[1].ID)
	assert.Equal(t, "a₃ = φ(a₁, a₂)", phis[0].Label)
	assert.Equal(t, "b₃ = φ(b₁, b₂)", phis[1].Label)
	assert.Equal(t, "return a₃ + b₃", res.Nodes[6].Label)

	var into6 []Edge
	for _, e := range res.Edges {
		if e.To == "6" || e.To == "6_a" || e.To == "6_b" {
			into6 = append(into6, e)
		}
	}
	assert.ElementsMatch(t, []Edge{
		{From: "3", To: "6_a", Kind: cfg.EdgeFalse},
		{From: "5", To: "6_a", Kind: cfg.EdgeUnconditional},
		{From: "6_a", To: "6_b", Kind: cfg.EdgeUnconditional},
		{From: "6_b", To: "6", Kind: cfg.EdgeUnconditional},
	}, into6)
}

func TestNoPhiWhenPathsAgree(t *testing.T) {
	res := transform(t, `int f(int c) { int a = 0; if (c > 0) { g(a); } return a; }`, Options{})
	assert.Empty(t, res.Phis)
	assert.Equal(t, "return a₁", res.Nodes[4].Label)

	// a variable that disagrees gets a phi even when nothing reads it afterwards
	res = transform(t, `int f(int c) { int a = 0; if (c > 0) { c = 1; } return a; }`, Options{})
	require.Len(t, res.Phis, 1)
	assert.Equal(t, "c", res.Phis[0].Var)
}

func TestUnreachableNodeKeepsPlainLabel(t *testing.T) {
	res := transform(t, `int f(int x) { return x; x = 2; }`, Options{Strict: true})
	assert.Equal(t, "x = 2", res.Nodes[2].Label)
	assert.Empty(t, res.Nodes[2].Writes)
}

const nested = `int f(int n) {
    int s = 0;
    int i = 0;
    while (i < n) {
        int j = 0;
        while (j < i) {
            if (j % 2 == 0) { s += j; } else { s = s - 1; continue; }
            j++;
        }
        i++;
    }
    return s;
}`

func TestSingleAssignment(t *testing.T) {
	res := transform(t, nested, Options{Strict: true})

	defined := make(map[string]map[int]bool)
	define := func(v string, ver int) {
		if defined[v] == nil {
			defined[v] = make(map[int]bool)
		}
		assert.False(t, defined[v][ver], "version %d of %s defined twice", ver, v)
		defined[v][ver] = true
	}
	for _, n := range res.Nodes {
		for v, ver := range n.Writes {
			define(v, ver)
		}
	}
	for _, p := range res.Phis {
		define(p.Var, p.Version)
	}

	// versions are dense
	for v, vers := range defined {
		for k := 1; k <= len(vers); k++ {
			assert.True(t, vers[k], "%s lacks version %d", v, k)
		}
	}

	// every read sees a defined version
	for _, n := range res.Nodes {
		for v, ver := range n.In {
			assert.True(t, defined[v][ver], "node %d reads undefined %s version %d", n.Index, v, ver)
		}
	}
	assert.NotEmpty(t, res.Phis)
}

func snapshot(st *state) (ctx, writes []map[string]int, byFrom []map[string]map[int]int) {
	for i := range st.ctx {
		c := make(map[string]int)
		for k, v := range st.ctx[i] {
			c[k] = v
		}
		w := make(map[string]int)
		for k, v := range st.writes[i] {
			w[k] = v
		}
		b := make(map[string]map[int]int)
		for k, m := range st.byFrom[i] {
			b[k] = make(map[int]int)
			for p, v := range m {
				b[k][p] = v
			}
		}
		ctx = append(ctx, c)
		writes = append(writes, w)
		byFrom = append(byFrom, b)
	}
	return
}

func TestCanonicalizeIdempotent(t *testing.T) {
	g := graph(t, nested)
	st, err := propagate(g, occurrence.ExtractAll(g, occurrence.ModeSSA))
	require.NoError(t, err)
	st.removeTrivialPhis()

	st.canonicalize()
	ctx1, writes1, byFrom1 := snapshot(st)
	st.canonicalize()
	ctx2, writes2, byFrom2 := snapshot(st)

	assert.Equal(t, ctx1, ctx2)
	assert.Equal(t, writes1, writes2)
	assert.Equal(t, byFrom1, byFrom2)
}

func TestRemoveTrivialPhis(t *testing.T) {
	st := &state{
		ctx:    []map[string]int{{}, {"x": 1}, {"x": 3}, {"x": 3}},
		writes: []map[string]int{{}, {"x": 1}, {}, {}},
		byFrom: []map[string]map[int]int{nil, nil, {"x": {1: 1, 3: 3}}, nil},
		merge:  []bool{false, false, true, false},
		phi:    []map[string]int{{}, {}, {"x": 3}, {}},
	}

	assert.Equal(t, 1, st.removeTrivialPhis())
	assert.Empty(t, st.phi[2])
	assert.Equal(t, 1, st.ctx[2]["x"])
	assert.Equal(t, 1, st.ctx[3]["x"])
	assert.Equal(t, map[int]int{1: 1, 3: 1}, st.byFrom[2]["x"])
	assert.Zero(t, st.removeTrivialPhis())
}

func TestForWithoutCondition(t *testing.T) {
	res := transform(t, `void f(int x) { for (;;) { x = x * 2; } }`, Options{})
	assert.Equal(t, "true", res.Nodes[1].Label)
	assert.Equal(t, "x₃ = x₂ * 2", res.Nodes[2].Label)
	require.Len(t, res.Phis, 1)
	assert.Equal(t, "x₂ = φ(x₁, x₃)", res.Phis[0].Label)
}

func TestBuildPropagatesMalformed(t *testing.T) {
	f, err := ingest.ParseJava(context.Background(), []byte("class T { void f() { break; } }"))
	require.NoError(t, err)
	m, err := f.Method("f")
	require.NoError(t, err)

	_, err = Build(m, f.Source, Options{})
	assert.ErrorIs(t, err, cfg.ErrMalformed)
}
