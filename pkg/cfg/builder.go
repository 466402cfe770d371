package cfg

import (
	"strings"

	"github.com/l3aro/go-flow-graph/pkg/syntax"
)

// pending is an edge whose target is the next node to be added.
type pending struct {
	from int
	kind EdgeKind
}

// frame collects the jumps that leave or restart an enclosing statement. Loops
// have a condition node; labeled blocks only accept break.
type frame struct {
	label     string
	cond      int
	loop      bool
	breaks    []pending
	continues []pending
}

type builder struct {
	src    syntax.Source
	g      *Graph
	queue  []pending
	frames []*frame
}

// Build constructs the control flow graph of m. src is the text m was parsed from
// and is used for node labels only.
func Build(m *syntax.Method, src syntax.Source) (*Graph, error) {
	b := &builder{
		src: src,
		g:   &Graph{Method: m, Src: src},
	}
	if m.Name != nil {
		b.g.Name = m.Name.Name
	}

	b.add(NodeMethod, m, methodLabel(m))
	if m.Body != nil {
		if err := b.stmt(m.Body); err != nil {
			return nil, err
		}
	}
	// falling off the end of the method leads nowhere
	b.queue = nil
	return b.g, nil
}

func methodLabel(m *syntax.Method) string {
	names := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		names = append(names, p.Name.Name)
	}
	name := ""
	if m.Name != nil {
		name = m.Name.Name
	}
	return name + "(" + strings.Join(names, ", ") + ")"
}

// add appends a node, resolves every pending edge to it and leaves a single
// unconditional edge out of it pending.
func (b *builder) add(kind NodeKind, source syntax.Node, label string) int {
	idx := len(b.g.Nodes)
	node := Node{Index: idx, Kind: kind, Label: label, Source: source}
	if source != nil {
		node.Line = source.Span().Start.Line
	}
	b.g.Nodes = append(b.g.Nodes, node)

	for _, p := range b.queue {
		b.g.Edges = append(b.g.Edges, Edge{From: p.from, To: idx, Kind: p.kind})
	}
	b.queue = []pending{{from: idx, kind: EdgeUnconditional}}
	return idx
}

// connect resolves the given edges to an existing node.
func (b *builder) connect(edges []pending, to int) {
	for _, p := range edges {
		b.g.Edges = append(b.g.Edges, Edge{From: p.from, To: to, Kind: p.kind})
	}
}

func (b *builder) text(n syntax.Node) string {
	return b.src.Text(n.Span())
}

func (b *builder) stmt(s syntax.Stmt) error {
	switch s := s.(type) {
	case nil:
		return nil

	case *syntax.Block:
		for _, st := range s.Stmts {
			if err := b.stmt(st); err != nil {
				return err
			}
		}

	case *syntax.ExprStmt:
		if s.X == nil {
			b.add(NodeStatement, s, b.text(s))
			return nil
		}
		b.add(NodeStatement, s.X, b.text(s.X))

	case *syntax.VarDecl:
		for _, d := range s.Decls {
			if d.Init != nil {
				b.add(NodeStatement, d, b.text(d))
			}
		}

	case *syntax.If:
		cond := b.add(NodeCondition, s.Cond, b.text(s.Cond))
		b.queue[0].kind = EdgeTrue
		if err := b.stmt(s.Then); err != nil {
			return err
		}
		then := b.queue
		b.queue = []pending{{from: cond, kind: EdgeFalse}}
		if err := b.stmt(s.Else); err != nil {
			return err
		}
		b.queue = append(b.queue, then...)

	case *syntax.While:
		return b.loop("", nil, s.Cond, nil, s.Body)

	case *syntax.For:
		return b.loop("", s.Init, s.Cond, s.Update, s.Body)

	case *syntax.Labeled:
		return b.labeled(s)

	case *syntax.Return:
		label := "return"
		if s.Result != nil {
			label += " " + b.text(s.Result)
		}
		b.add(NodeReturn, s, label)
		b.queue = nil

	case *syntax.Break:
		f, err := b.target(s.Label, s.Start, false)
		if err != nil {
			return err
		}
		f.breaks = append(f.breaks, b.queue...)
		b.queue = nil

	case *syntax.Continue:
		f, err := b.target(s.Label, s.Start, true)
		if err != nil {
			return err
		}
		f.continues = append(f.continues, b.queue...)
		b.queue = nil

	case *syntax.OtherStmt:
		b.add(NodeStatement, s, b.text(s))

	default:
		b.add(NodeStatement, s, b.text(s))
	}
	return nil
}

// loop handles while and for statements. init runs once before the condition;
// update runs after the body and after every continue.
func (b *builder) loop(label string, init []syntax.Stmt, cond syntax.Expr, update []syntax.Stmt, body syntax.Stmt) error {
	for _, st := range init {
		if err := b.stmt(st); err != nil {
			return err
		}
	}

	var c int
	if cond == nil {
		c = b.add(NodeCondition, nil, "true")
	} else {
		c = b.add(NodeCondition, cond, b.text(cond))
	}
	b.queue[0].kind = EdgeTrue

	f := &frame{label: label, cond: c, loop: true}
	b.frames = append(b.frames, f)
	defer func() { b.frames = b.frames[:len(b.frames)-1] }()

	if err := b.stmt(body); err != nil {
		return err
	}
	if len(update) > 0 {
		b.queue = append(b.queue, f.continues...)
		f.continues = nil
		for _, st := range update {
			if err := b.stmt(st); err != nil {
				return err
			}
		}
	}

	b.connect(b.queue, c)
	b.connect(f.continues, c)
	b.queue = append([]pending{{from: c, kind: EdgeFalse}}, f.breaks...)
	return nil
}

func (b *builder) labeled(s *syntax.Labeled) error {
	switch body := s.Body.(type) {
	case *syntax.While:
		return b.loop(s.Label, nil, body.Cond, nil, body.Body)
	case *syntax.For:
		return b.loop(s.Label, body.Init, body.Cond, body.Update, body.Body)
	}

	f := &frame{label: s.Label, cond: -1}
	b.frames = append(b.frames, f)
	defer func() { b.frames = b.frames[:len(b.frames)-1] }()

	if err := b.stmt(s.Body); err != nil {
		return err
	}
	b.queue = append(b.queue, f.breaks...)
	return nil
}

// target finds the frame a break or continue jumps to: the innermost loop when
// unlabeled, otherwise the statement carrying the label.
func (b *builder) target(label string, pos syntax.Pos, isContinue bool) (*frame, error) {
	keyword := "break"
	if isContinue {
		keyword = "continue"
	}

	for i := len(b.frames) - 1; i >= 0; i-- {
		f := b.frames[i]
		if label == "" && !f.loop {
			continue
		}
		if label != "" && f.label != label {
			continue
		}
		if isContinue && f.cond < 0 {
			return nil, malformed(pos, "continue %s: label does not denote a loop", label)
		}
		return f, nil
	}

	if label != "" {
		return nil, malformed(pos, "%s %s: undefined label", keyword, label)
	}
	return nil, malformed(pos, "%s outside loop", keyword)
}
