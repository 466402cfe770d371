package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-flow-graph/pkg/syntax"
)

const calcSource = `class Calc {
    int run(int a, int[] arr) {
        int x = 0, y;
        x += a * 2;
        x++;
        arr[x] = a;
        if (x > 0) {
            return x;
        } else y = 1;
        for (int i = 0; i < 10; i++) {
            continue;
        }
        while (true) break;
        return y;
    }
}
`

func parse(t *testing.T, src string) *File {
	t.Helper()
	f, err := ParseJava(context.Background(), []byte(src))
	require.NoError(t, err)
	return f
}

func TestParseJavaStatements(t *testing.T) {
	f := parse(t, calcSource)
	m, err := f.Method("run")
	require.NoError(t, err)

	assert.Equal(t, "run", m.Name.Name)
	require.Len(t, m.Params, 2)
	assert.Equal(t, "a", m.Params[0].Name.Name)
	assert.Equal(t, "arr", m.Params[1].Name.Name)
	assert.Equal(t, "int[]", m.Params[1].Type)

	stmts := m.Body.Stmts
	require.Len(t, stmts, 8)

	decl, ok := stmts[0].(*syntax.VarDecl)
	require.True(t, ok)
	require.Len(t, decl.Decls, 2)
	assert.Equal(t, "x", decl.Decls[0].Name.Name)
	assert.NotNil(t, decl.Decls[0].Init)
	assert.Nil(t, decl.Decls[1].Init)

	compound := stmts[1].(*syntax.ExprStmt).X.(*syntax.Assign)
	assert.Equal(t, "+=", compound.Op)
	assert.IsType(t, &syntax.Binary{}, compound.Value)

	inc := stmts[2].(*syntax.ExprStmt).X.(*syntax.Unary)
	assert.Equal(t, "++", inc.Op)
	assert.True(t, inc.Postfix)

	store := stmts[3].(*syntax.ExprStmt).X.(*syntax.Assign)
	assert.IsType(t, &syntax.Index{}, store.Target)

	ifStmt := stmts[4].(*syntax.If)
	assert.Equal(t, "x > 0", f.Source.Text(ifStmt.Cond.Span()))
	assert.IsType(t, &syntax.Block{}, ifStmt.Then)
	assert.IsType(t, &syntax.ExprStmt{}, ifStmt.Else)

	forStmt := stmts[5].(*syntax.For)
	require.Len(t, forStmt.Init, 1)
	assert.IsType(t, &syntax.VarDecl{}, forStmt.Init[0])
	assert.Equal(t, "i < 10", f.Source.Text(forStmt.Cond.Span()))
	require.Len(t, forStmt.Update, 1)
	assert.IsType(t, &syntax.Continue{}, forStmt.Body.(*syntax.Block).Stmts[0])

	while := stmts[6].(*syntax.While)
	assert.IsType(t, &syntax.Literal{}, while.Cond)
	assert.IsType(t, &syntax.Break{}, while.Body)

	ret := stmts[7].(*syntax.Return)
	assert.Equal(t, "y", ret.Result.(*syntax.Ident).Name)
}

func TestParseJavaPositions(t *testing.T) {
	f := parse(t, calcSource)
	m, err := f.Method("Calc.run")
	require.NoError(t, err)

	assert.Equal(t, 2, m.Start.Line)
	ret := m.Body.Stmts[len(m.Body.Stmts)-1]
	assert.Equal(t, 14, ret.Span().Start.Line)
	assert.Equal(t, 9, ret.Span().Start.Column)
	assert.Equal(t, "return y;", f.Source.Text(ret.Span()))
}

func TestParseJavaLabeledAndCalls(t *testing.T) {
	f := parse(t, `class L {
    void f(java.util.List<String> xs) {
        outer:
        while (xs.size() > 0) {
            xs.remove(0);
            break outer;
        }
        this.g(new int[3]);
    }
}`)
	m, err := f.Method("f")
	require.NoError(t, err)
	require.Len(t, m.Body.Stmts, 2)

	lab := m.Body.Stmts[0].(*syntax.Labeled)
	assert.Equal(t, "outer", lab.Label)
	loop := lab.Body.(*syntax.While)
	call := loop.Cond.(*syntax.Binary).X.(*syntax.Call)
	assert.Equal(t, "size", call.Name.Name)
	assert.Equal(t, "xs", call.Recv.(*syntax.Ident).Name)

	br := loop.Body.(*syntax.Block).Stmts[1].(*syntax.Break)
	assert.Equal(t, "outer", br.Label)

	g := m.Body.Stmts[1].(*syntax.ExprStmt).X.(*syntax.Call)
	require.Len(t, g.Args, 1)
	arr := g.Args[0].(*syntax.NewArray)
	require.Len(t, arr.Dims, 1)
	assert.Equal(t, "3", arr.Dims[0].(*syntax.Literal).Value)
}

func TestMethodLookup(t *testing.T) {
	f := parse(t, `class Outer {
    class Inner {
        int g() { return 1; }
    }
    int g() { return 2; }
    Outer() { }
    abstract void h();
}`)

	assert.Equal(t, []string{"Outer.Inner.g", "Outer.g", "Outer.Outer"}, f.Names())

	inner, err := f.Method("g")
	require.NoError(t, err)
	outer, err := f.Method("Outer.g")
	require.NoError(t, err)
	assert.NotSame(t, inner, outer)
	assert.Equal(t, 3, inner.Start.Line)
	assert.Equal(t, 5, outer.Start.Line)

	_, err = f.Method("h")
	assert.ErrorIs(t, err, ErrMethodNotFound)

	_, err = f.Method("missing")
	assert.ErrorIs(t, err, ErrMethodNotFound)
}

func TestOverloadSelectors(t *testing.T) {
	f := parse(t, `class Calc {
    Calc() { }
    Calc(int seed) { }
    int add(int a, int b) { return a + b; }
    int add(int a, int b, int c) { return a + b + c; }
    double add(java.util.Map<String, Integer> m) { return 0; }
    int sub(int a) { return -a; }
}`)

	assert.Equal(t, []string{
		"Calc.Calc()",
		"Calc.Calc(int)",
		"Calc.add(int,int)",
		"Calc.add(int,int,int)",
		"Calc.add(java.util.Map<String,Integer>)",
		"Calc.sub",
	}, f.Names())

	tests := []struct {
		name string
		line int
	}{
		{"Calc.add(int,int)", 4},
		{"Calc.add(int,int,int)", 5},
		{"Calc.Calc(int)", 3},
		{"add", 4},
		{"Calc.sub", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := f.Method(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.line, m.Start.Line)
		})
	}

	_, err := f.Method("Calc.add(long)")
	assert.ErrorIs(t, err, ErrMethodNotFound)
}

func TestDuplicateSignatures(t *testing.T) {
	f := parse(t, `class Dup {
    int f(int a) { return 1; }
    int f(int b) { return 2; }
}`)

	assert.Equal(t, []string{"Dup.f(int)", "Dup.f(int)#2"}, f.Names())
	m, err := f.Method("Dup.f(int)#2")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Start.Line)
}

func TestMethodWithSyntaxError(t *testing.T) {
	f := parse(t, `class Broken {
    void ok() { int a = 1; }
    void bad() { int x = ; }
}`)

	_, err := f.Method("ok")
	require.NoError(t, err)

	_, err = f.Method("bad")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParseJavaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Calc.java")
	require.NoError(t, os.WriteFile(path, []byte(calcSource), 0o644))

	f, err := ParseJavaFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Equal(t, []string{"Calc.run"}, f.Names())

	_, err = ParseJavaFile(context.Background(), filepath.Join(t.TempDir(), "none.java"))
	assert.Error(t, err)
}
