package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-flow-graph/pkg/analyze"
	"github.com/l3aro/go-flow-graph/pkg/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats <file> [method]",
	Short: "Show structural metrics of a method's control flow graph",
	Long: `Reports node and edge counts, unreachable statements, loops, back edges,
immediate dominators and the cyclomatic complexity of a method.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := parseFile(ctx, args[0])
		if err != nil {
			return err
		}
		method, err := methodArg(f, args, 1)
		if err != nil {
			return err
		}
		res, err := analyze.RunFile(ctx, f, analyze.Request{Path: f.Path, Method: method, Kind: analyze.KindCFG})
		if err != nil {
			return err
		}
		report := res.Metrics
		return writeData(cmd, report, func(w io.Writer, colored bool) error {
			printReport(w, report, colored)
			return nil
		})
	},
}

func printReport(w io.Writer, r metrics.Report, colored bool) {
	title := fmt.Sprintf("=== Metrics for method: %s ===", r.Method)
	if colored {
		color.New(color.Bold).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintf(w, "Cyclomatic Complexity: %d\n", r.Complexity)
	fmt.Fprintf(w, "Nodes: %d (reachable %d)\n", r.Nodes, r.Reachable)
	fmt.Fprintf(w, "Edges: %d\n", r.Edges)

	kinds := make([]string, 0, len(r.NodesByKind))
	for k, n := range r.NodesByKind {
		kinds = append(kinds, fmt.Sprintf("%s=%d", k, n))
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "Node kinds: %s\n", strings.Join(kinds, " "))

	if len(r.Unreachable) > 0 {
		msg := fmt.Sprintf("Unreachable nodes: %v", r.Unreachable)
		if colored {
			color.New(color.FgYellow).Fprintln(w, msg)
		} else {
			fmt.Fprintln(w, msg)
		}
	}
	fmt.Fprintf(w, "Loops (%d):\n", len(r.Loops))
	for _, loop := range r.Loops {
		fmt.Fprintf(w, "  %v\n", loop)
	}
	fmt.Fprintf(w, "Back edges (%d):\n", len(r.BackEdges))
	for _, e := range r.BackEdges {
		fmt.Fprintf(w, "  %d --%s--> %d\n", e.From, e.Kind, e.To)
	}

	fmt.Fprintln(w, "Immediate dominators:")
	for _, d := range r.IDom {
		fmt.Fprintf(w, "  %d <- %d\n", d.Node, d.IDom)
	}
}
