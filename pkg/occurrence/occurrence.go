// Package occurrence computes which variables a CFG node reads and writes.
//
// Extraction is purely syntactic: it recurses over the expression attached to the
// node and never consults other nodes. Two modes exist because the dependency
// analysis and the SSA renaming disagree on a few shapes (see Mode).
package occurrence

import (
	"sort"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/syntax"
)

// Mode selects the occurrence rules.
type Mode int

const (
	// ModeDependency treats compound assignment and increment targets as both read
	// and written, and array/field stores as a read of the whole access path plus a
	// write of its base variable.
	ModeDependency Mode = iota
	// ModeSSA never reads an assignment target (the label shows the prior version
	// explicitly) and treats a store as a write of its base variable whose indices
	// are still read.
	ModeSSA
)

func (m Mode) String() string {
	if m == ModeSSA {
		return "ssa"
	}
	return "dependency"
}

// Occurrences are the identifier occurrences of one node, in source order.
type Occurrences struct {
	Reads  []*syntax.Ident
	Writes []*syntax.Ident
}

// ReadSet returns the distinct variable names read, sorted.
func (o Occurrences) ReadSet() []string {
	return names(o.Reads)
}

// WriteSet returns the distinct variable names written, sorted.
func (o Occurrences) WriteSet() []string {
	return names(o.Writes)
}

func names(ids []*syntax.Ident) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id.Name] {
			seen[id.Name] = true
			out = append(out, id.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Extract returns the occurrences of node under mode.
func Extract(node cfg.Node, mode Mode) Occurrences {
	x := &extractor{mode: mode}

	switch src := node.Source.(type) {
	case *syntax.Method:
		for _, p := range src.Params {
			x.write(p.Name)
		}
	case *syntax.Return:
		x.reads(src.Result)
	case *syntax.Declarator:
		x.reads(src.Init)
		x.write(src.Name)
	case syntax.Expr:
		x.top(src)
	}
	return x.occ
}

// ExtractAll returns the occurrences of every node of g, indexed like g.Nodes.
func ExtractAll(g *cfg.Graph, mode Mode) []Occurrences {
	out := make([]Occurrences, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = Extract(n, mode)
	}
	return out
}

type extractor struct {
	mode Mode
	occ  Occurrences
}

func (x *extractor) read(id *syntax.Ident) {
	if id != nil {
		x.occ.Reads = append(x.occ.Reads, id)
	}
}

func (x *extractor) write(id *syntax.Ident) {
	if id != nil {
		x.occ.Writes = append(x.occ.Writes, id)
	}
}

// top handles the expression a statement or condition node is made of. Only here
// does an increment or decrement count as a write.
func (x *extractor) top(e syntax.Expr) {
	switch e := syntax.Unparen(e).(type) {
	case *syntax.Unary:
		if e.IsIncDec() {
			x.target(e.X, true)
			return
		}
		x.reads(e)
	default:
		x.reads(e)
	}
}

func (x *extractor) assign(a *syntax.Assign) {
	x.reads(a.Value)
	x.target(a.Target, a.IsCompound())
}

// target records the left-hand side of an assignment or increment.
func (x *extractor) target(t syntax.Expr, compound bool) {
	switch t := syntax.Unparen(t).(type) {
	case *syntax.Ident:
		if compound && x.mode == ModeDependency {
			x.read(t)
		}
		x.write(t)

	case *syntax.Index, *syntax.FieldAccess:
		if x.mode == ModeDependency {
			x.reads(t)
		} else {
			x.storePath(t)
		}
		x.write(syntax.BaseIdent(t))

	default:
		x.reads(t)
	}
}

// storePath reads everything on an access path except its base variable.
func (x *extractor) storePath(e syntax.Expr) {
	for {
		switch p := e.(type) {
		case *syntax.Index:
			x.reads(p.Index)
			e = p.X
		case *syntax.FieldAccess:
			e = p.X
		case *syntax.Paren:
			e = p.X
		case *syntax.Ident:
			return
		default:
			x.reads(p)
			return
		}
	}
}

func (x *extractor) reads(e syntax.Expr) {
	switch e := e.(type) {
	case nil:
	case *syntax.Ident:
		x.read(e)
	case *syntax.Paren:
		x.reads(e.X)
	case *syntax.Assign:
		x.assign(e)
	case *syntax.Binary:
		x.reads(e.X)
		x.reads(e.Y)
	case *syntax.Unary:
		x.reads(e.X)
	case *syntax.Call:
		for _, arg := range e.Args {
			x.reads(arg)
		}
	case *syntax.FieldAccess:
		x.reads(e.X)
	case *syntax.Index:
		x.reads(e.X)
		x.reads(e.Index)
	case *syntax.NewArray:
		for _, d := range e.Dims {
			x.reads(d)
		}
	case *syntax.NewObject:
		for _, arg := range e.Args {
			x.reads(arg)
		}
	case *syntax.Conditional:
		x.reads(e.Cond)
		x.reads(e.Then)
		x.reads(e.Else)
	case *syntax.Cast:
		x.reads(e.X)
	case *syntax.Literal, *syntax.OtherExpr:
	}
}
