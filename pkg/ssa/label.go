package ssa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
	"github.com/l3aro/go-flow-graph/pkg/occurrence"
	"github.com/l3aro/go-flow-graph/pkg/syntax"
)

const subscriptDigits = "₀₁₂₃₄₅₆₇₈₉"

// subscript renders a version number: "₁₂" for 12, or "_12" in ASCII mode.
func subscript(version int, ascii bool) string {
	s := strconv.Itoa(version)
	if ascii {
		return "_" + s
	}
	digits := []rune(subscriptDigits)
	var sb strings.Builder
	for _, c := range s {
		sb.WriteRune(digits[c-'0'])
	}
	return sb.String()
}

// label rewrites every node label with version marks after each variable
// occurrence. Compound assignments and increments of a plain variable are spelled
// out as `x₂ = x₁ op rhs` so the previous version is visible.
func label(res *Result, occ []occurrence.Occurrences, opts Options) error {
	src := res.CFG.Src
	reached := res.CFG.Reachable()
	for i := range res.Nodes {
		if !reached[i] {
			// never visited: no versions to show
			continue
		}
		n := &res.Nodes[i]
		marks := syntax.Marks{}
		for _, id := range occ[i].Writes {
			marks.Add(id.End.Offset, subscript(n.Writes[id.Name], opts.ASCII))
		}
		for _, id := range occ[i].Reads {
			ver, ok := n.In[id.Name]
			if !ok && opts.Strict {
				return undefined(id)
			}
			marks.Add(id.End.Offset, subscript(ver, opts.ASCII))
		}

		render := func(node syntax.Node) string {
			return src.Render(node.Span(), marks)
		}

		switch s := n.Source.(type) {
		case nil:
		case *syntax.Method:
			params := make([]string, len(s.Params))
			for k, p := range s.Params {
				params[k] = p.Name.Name + subscript(n.Writes[p.Name.Name], opts.ASCII)
			}
			n.Label = s.Name.Name + "(" + strings.Join(params, ", ") + ")"
		case *syntax.Return:
			n.Label = "return"
			if s.Result != nil {
				n.Label += " " + render(s.Result)
			}
		case *syntax.Assign:
			target, isIdent := syntax.Unparen(s.Target).(*syntax.Ident)
			if !s.IsCompound() || !isIdent {
				n.Label = render(s)
				break
			}
			rhs := render(s.Value)
			switch s.Value.(type) {
			case *syntax.Binary, *syntax.Conditional, *syntax.Assign:
				rhs = "(" + rhs + ")"
			}
			prior, err := priorVersion(n, target, opts)
			if err != nil {
				return err
			}
			n.Label = fmt.Sprintf("%s = %s %s %s", render(target), prior, s.BinaryOp(), rhs)
		case *syntax.Unary:
			target, isIdent := syntax.Unparen(s.X).(*syntax.Ident)
			if !s.IsIncDec() || !isIdent {
				n.Label = render(s)
				break
			}
			prior, err := priorVersion(n, target, opts)
			if err != nil {
				return err
			}
			sign := "+"
			if s.Op == "--" {
				sign = "-"
			}
			n.Label = fmt.Sprintf("%s%s = %s %s 1",
				target.Name, subscript(n.Writes[target.Name], opts.ASCII), prior, sign)
		default:
			n.Label = render(s)
		}
	}
	return nil
}

// priorVersion spells the version a compound assignment or increment reads
// before writing the target.
func priorVersion(n *Node, target *syntax.Ident, opts Options) (string, error) {
	ver, ok := n.In[target.Name]
	if !ok && opts.Strict {
		return "", undefined(target)
	}
	return target.Name + subscript(ver, opts.ASCII), nil
}

func undefined(id *syntax.Ident) error {
	return &cfg.PositionError{Pos: id.Start, Err: fmt.Errorf("%q: %w", id.Name, ErrUndefinedVariable)}
}
