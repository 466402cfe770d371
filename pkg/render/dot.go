package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/l3aro/go-flow-graph/pkg/cfg"
)

// dotEscaper escapes backslashes before quotes so a trailing backslash cannot
// swallow the closing quote of a label.
var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// EscapeQuotes makes s safe inside a double-quoted DOT string.
func EscapeQuotes(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	return dotEscaper.Replace(s)
}

// DOT returns g as a single-line Graphviz digraph.
func DOT(g Graph, opts Options) string {
	opts = opts.withDefaults()
	lines := make([]string, 0, len(g.Nodes)+len(g.Edges))
	for _, n := range g.Nodes {
		lines = append(lines, fmt.Sprintf(`%s [label="%s", shape="%s"]`, n.ID, EscapeQuotes(n.Label), n.Shape))
	}
	for _, e := range g.Edges {
		lines = append(lines, dotEdge(e, opts))
	}
	return "digraph { " + strings.Join(lines, ";") + " }"
}

func dotEdge(e Edge, opts Options) string {
	line := e.From + " -> " + e.To
	if e.Kind == KindData {
		return line + ` [style="dashed", constraint=false]`
	}

	var attrs []string
	if e.Style != StyleNone {
		attrs = append(attrs, "style="+string(e.Style))
	}
	switch cfg.EdgeKind(e.Kind) {
	case cfg.EdgeTrue:
		attrs = append(attrs, fmt.Sprintf(`label="%s"`, EscapeQuotes(opts.TrueLabel)))
	case cfg.EdgeFalse:
		attrs = append(attrs, fmt.Sprintf(`label="%s"`, EscapeQuotes(opts.FalseLabel)))
	}
	if len(attrs) > 0 {
		line += " [" + strings.Join(attrs, " ") + "]"
	}
	return line
}

// WriteDOT writes g as a Graphviz digraph followed by a newline.
func WriteDOT(w io.Writer, g Graph, opts Options) error {
	_, err := io.WriteString(w, DOT(g, opts)+"\n")
	return err
}
