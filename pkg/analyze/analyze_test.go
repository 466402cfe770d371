package analyze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-flow-graph/pkg/cache"
	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/ingest"
	"github.com/l3aro/go-flow-graph/pkg/ssa"
)

const calc = `class Calc {
    int sign(int x) {
        int y;
        if (x > 0) { y = 1; } else { y = 2; }
        return y;
    }

    int count() {
        int x = 0;
        while (x < 10) { x = x + 1; }
        return x;
    }

    int undefined() {
        return z;
    }
}
`

func TestParseKind(t *testing.T) {
	k, err := ParseKind("SSA")
	require.NoError(t, err)
	assert.Equal(t, KindSSA, k)

	_, err = ParseKind("ast")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestRunKinds(t *testing.T) {
	tests := []struct {
		kind      Kind
		nodes     int
		dependent bool
		ssa       bool
	}{
		{KindCFG, 5, false, false},
		{KindDDG, 5, true, false},
		{KindPDG, 5, true, false},
		{KindSSA, 6, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			res, err := Run(context.Background(), Request{Source: []byte(calc), Method: "sign", Kind: tt.kind})
			require.NoError(t, err)

			assert.Equal(t, "sign", res.Graph.Name)
			assert.Equal(t, string(tt.kind), res.Graph.Kind)
			assert.Len(t, res.Graph.Nodes, tt.nodes)
			assert.NotNil(t, res.CFG)
			assert.Equal(t, tt.dependent, res.Dependence != nil)
			assert.Equal(t, tt.ssa, res.SSA != nil)
			assert.Equal(t, 2, res.Metrics.Complexity)
		})
	}
}

func TestRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Calc.java")
	require.NoError(t, os.WriteFile(path, []byte(calc), 0o644))

	res, err := Run(context.Background(), Request{Path: path, Method: "Calc.count", Kind: KindCFG})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{2, 3}}, res.Metrics.Loops)
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, Request{Source: []byte(calc), Method: "missing", Kind: KindCFG})
	assert.True(t, errors.Is(err, ingest.ErrMethodNotFound))

	_, err = Run(ctx, Request{Source: []byte(calc), Method: "sign", Kind: "ast"})
	assert.True(t, errors.Is(err, ErrUnknownKind))

	_, err = Run(ctx, Request{Source: []byte(calc), Method: "undefined", Kind: KindSSA, Strict: true})
	assert.True(t, errors.Is(err, ssa.ErrUndefinedVariable))
	assert.True(t, errors.Is(err, cfg.ErrMalformed))

	res, err := Run(ctx, Request{Source: []byte(calc), Method: "undefined", Kind: KindSSA})
	require.NoError(t, err)
	assert.Equal(t, "return z₀", res.SSA.Nodes[1].Label)
}

func TestRunAll(t *testing.T) {
	f, err := ingest.ParseJava(context.Background(), []byte(calc))
	require.NoError(t, err)
	f.Path = "Calc.java"

	reqs := make([]Request, 0, 3)
	for _, r := range Requests(f, KindSSA) {
		r.Source = []byte(calc)
		r.Strict = true
		reqs = append(reqs, r)
	}
	require.Len(t, reqs, 3)

	var done atomic.Int32
	out := RunAll(context.Background(), reqs, BatchOptions{
		Workers: 2,
		OnDone:  func(Outcome) { done.Add(1) },
	})

	require.Len(t, out, 3)
	assert.Equal(t, int32(3), done.Load())
	assert.NoError(t, out[0].Err)
	assert.Equal(t, "sign", out[0].Graph.Name)
	assert.NoError(t, out[1].Err)
	assert.Equal(t, "count", out[1].Graph.Name)
	assert.True(t, errors.Is(out[2].Err, ssa.ErrUndefinedVariable))
}

func TestRequestsOverloads(t *testing.T) {
	const src = `class Over {
    int add(int a) { return a; }
    int add(int a, int b) { return a + b; }
}
`
	f, err := ingest.ParseJava(context.Background(), []byte(src))
	require.NoError(t, err)
	f.Path = "Over.java"

	reqs := Requests(f, KindCFG)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Over.add(int)", reqs[0].Method)
	assert.Equal(t, "Over.add(int,int)", reqs[1].Method)

	for i := range reqs {
		reqs[i].Source = []byte(src)
	}
	out := RunAll(context.Background(), reqs, BatchOptions{Workers: 2})
	require.Len(t, out, 2)
	require.NoError(t, out[0].Err)
	require.NoError(t, out[1].Err)
	assert.Equal(t, "add(a)", out[0].Graph.Nodes[0].Label)
	assert.Equal(t, "add(a, b)", out[1].Graph.Nodes[0].Label)
}

func TestRunAllCache(t *testing.T) {
	c := cache.New(cache.Options{MaxSize: 10})
	reqs := []Request{{Source: []byte(calc), Method: "sign", Kind: KindPDG}}

	first := RunAll(context.Background(), reqs, BatchOptions{Workers: 1, Cache: c})
	require.NoError(t, first[0].Err)
	assert.False(t, first[0].Cached)
	assert.Equal(t, 1, c.Len())

	second := RunAll(context.Background(), reqs, BatchOptions{Workers: 1, Cache: c})
	require.NoError(t, second[0].Err)
	assert.True(t, second[0].Cached)
	assert.Equal(t, first[0].Graph, second[0].Graph)
}

func TestRunAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := RunAll(ctx, []Request{{Source: []byte(calc), Method: "sign"}}, BatchOptions{})
	require.Len(t, out, 1)
	assert.True(t, errors.Is(out[0].Err, context.Canceled))
}
