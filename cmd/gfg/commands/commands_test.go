package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-flow-graph/pkg/analyze"
	"github.com/l3aro/go-flow-graph/pkg/ingest"
	"github.com/l3aro/go-flow-graph/pkg/render"
)

const calcSource = `class Calc {
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
}
`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.Execute())
	return out.Bytes()
}

func TestGraphPath(t *testing.T) {
	tests := []struct {
		rel    string
		method string
		format render.Format
		want   string
	}{
		{"Calc.java", "Calc.sign", render.FormatDOT, filepath.Join("out", "Calc", "Calc.sign.dot")},
		{"a/b/Util.java", "Util.max", render.FormatJSON, filepath.Join("out", "a", "b", "Util", "Util.max.json")},
		{"Calc.java", "Calc.sign", render.FormatTable, filepath.Join("out", "Calc", "Calc.sign.txt")},
		{"Calc.java", "Calc.add(int,int)", render.FormatDOT, filepath.Join("out", "Calc", "Calc.add(int,int).dot")},
		{"Box.java", "Box.put(List<String>)", render.FormatDOT, filepath.Join("out", "Box", "Box.put(List_String_).dot")},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, graphPath("out", tt.rel, tt.method, tt.format))
		})
	}
}

func TestCFGCommandJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "config.yaml", "format: dot\n")
	src := writeTemp(t, dir, "Single.java", `class Single {
    int abs(int x) {
        if (x < 0) { return -x; }
        return x;
    }
}
`)

	data := execute(t, "cfg", src, "--config", cfgPath, "--format", "json")

	var g render.Graph
	require.NoError(t, json.Unmarshal(data, &g))
	assert.Equal(t, "cfg", g.Kind)
	assert.NotEmpty(t, g.Nodes)
	assert.NotEmpty(t, g.Edges)
}

func TestBatchWritesOneGraphPerMethod(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "config.yaml", "format: dot\n")
	root := filepath.Join(dir, "src")
	writeTemp(t, root, "Calc.java", calcSource)
	writeTemp(t, root, "skipped/Other.java", calcSource)
	writeTemp(t, root, ".gfgignore", "skipped/\n")
	outDir := filepath.Join(dir, "out")

	data := execute(t, "batch", root, "--config", cfgPath, "--format", "json", "--kind", "cfg", "--out-dir", outDir)

	var summary BatchSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, 2, summary.Methods)
	assert.Equal(t, 2, summary.Written)
	assert.Empty(t, summary.Failed)

	for _, name := range []string{"Calc.sign.json", "Calc.count.json"} {
		raw, err := os.ReadFile(filepath.Join(outDir, "Calc", name))
		require.NoError(t, err, name)
		var g render.Graph
		require.NoError(t, json.Unmarshal(raw, &g))
		assert.Equal(t, "cfg", g.Kind)
	}
	assert.NoDirExists(t, filepath.Join(outDir, "skipped"))
}

func TestBatchSeparatesOverloads(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "config.yaml", "format: dot\n")
	root := filepath.Join(dir, "src")
	writeTemp(t, root, "Over.java", `class Over {
    int add(int a) { return a; }
    int add(int a, int b) { return a + b; }
}
`)
	outDir := filepath.Join(dir, "out")

	data := execute(t, "batch", root, "--config", cfgPath, "--format", "json", "--kind", "cfg", "--out-dir", outDir)

	var summary BatchSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 2, summary.Written)

	for name, label := range map[string]string{
		"Over.add(int).json":     "add(a)",
		"Over.add(int,int).json": "add(a, b)",
	} {
		raw, err := os.ReadFile(filepath.Join(outDir, "Over", name))
		require.NoError(t, err, name)
		var g render.Graph
		require.NoError(t, json.Unmarshal(raw, &g))
		assert.Equal(t, label, g.Nodes[0].Label)
	}
}

func TestStatsCommandTOON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "config.yaml", "format: dot\n")
	src := writeTemp(t, dir, "Calc.java", calcSource)

	out := string(execute(t, "stats", src, "Calc.count", "--config", cfgPath, "--format", "toon"))
	assert.Contains(t, out, "method: count")
	assert.Contains(t, out, "idom[4]{node,idom}:")
	assert.Contains(t, out, "complexity: 2")
}

func TestSliceCommandDependencies(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "config.yaml", "format: dot\n")
	src := writeTemp(t, dir, "Calc.java", calcSource)

	data := execute(t, "slice", src, "Calc.sign", "--config", cfgPath, "--format", "json",
		"--line", "5", "--var", "y", "--deps")

	var got SliceResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "backward", got.Direction)
	assert.Equal(t, []int{2, 3, 4}, got.Nodes)
	assert.Equal(t, []int{4, 5}, got.Lines)
	assert.Equal(t, []int{4, 5}, got.Mentions)
	require.NotNil(t, got.Dependencies)
	assert.Len(t, got.Dependencies.ControlIn, 2)
	assert.Empty(t, got.Dependencies.ControlOut)
	require.Len(t, got.Dependencies.DataIn, 2)
	assert.Equal(t, []string{"y"}, got.Dependencies.DataIn[0].Vars)
	assert.Empty(t, got.Dependencies.DataOut)
}

func TestComputeSliceUnknownVariable(t *testing.T) {
	f, err := ingest.ParseJava(context.Background(), []byte(calcSource))
	require.NoError(t, err)
	res, err := analyze.RunFile(context.Background(), f, analyze.Request{Method: "Calc.sign", Kind: analyze.KindPDG})
	require.NoError(t, err)

	name := "z"
	_, err = computeSlice(res.Dependence, 5, &name, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variable "z" not found`)
	assert.Contains(t, err.Error(), "Available: x, y")

	var out bytes.Buffer
	r, err := computeSlice(res.Dependence, 5, nil, false, true)
	require.NoError(t, err)
	r.Method = "Calc.sign"
	printSlice(&out, r)
	assert.Contains(t, out.String(), "Lines: 4, 5")
	assert.Contains(t, out.String(), "data in:")
	assert.Contains(t, out.String(), "2 -> 4 [y]")
}
