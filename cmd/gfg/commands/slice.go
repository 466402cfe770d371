package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-flow-graph/pkg/analyze"
	"github.com/l3aro/go-flow-graph/pkg/pdg"
)

// SliceResult is the output of the slice command.
type SliceResult struct {
	Method    string `json:"method" toon:"method"`
	Line      int    `json:"line" toon:"line"`
	Direction string `json:"direction" toon:"direction"`
	Variable  string `json:"variable,omitempty" toon:"variable,omitempty"`
	// Mentions are the lines that define or use Variable.
	Mentions     []int               `json:"mentions,omitempty" toon:"mentions,omitempty"`
	Nodes        []int               `json:"nodes" toon:"nodes"`
	Lines        []int               `json:"lines" toon:"lines"`
	Dependencies *pdg.DependencyInfo `json:"dependencies,omitempty" toon:"dependencies,omitempty"`
}

var sliceCmd = &cobra.Command{
	Use:   "slice <file> <method> --line N [--forward] [--var NAME] [--deps]",
	Short: "Perform backward or forward slice analysis on a method",
	Long: `Perform slice analysis on a Java method by following data dependences.

Backward slice: all lines whose writes may reach the statements at the line.
Forward slice: all lines that may read the writes made at the line.

With --deps the control and data edges entering and leaving the line are listed
as well.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, _ := cmd.Flags().GetInt("line")
		if line <= 0 {
			return fmt.Errorf("line number must be positive: %d", line)
		}
		forward, _ := cmd.Flags().GetBool("forward")
		deps, _ := cmd.Flags().GetBool("deps")

		var varFilter *string
		if cmd.Flags().Changed("var") {
			name, _ := cmd.Flags().GetString("var")
			varFilter = &name
		}

		ctx := cmd.Context()
		f, err := parseFile(ctx, args[0])
		if err != nil {
			return err
		}
		method, err := methodArg(f, args, 1)
		if err != nil {
			return err
		}
		res, err := analyze.RunFile(ctx, f, analyze.Request{Path: f.Path, Method: method, Kind: analyze.KindPDG})
		if err != nil {
			return err
		}

		result, err := computeSlice(res.Dependence, line, varFilter, forward, deps)
		if err != nil {
			return fmt.Errorf("%s in %s: %w", method, f.Path, err)
		}
		result.Method = method
		return writeData(cmd, result, func(w io.Writer, _ bool) error {
			printSlice(w, result)
			return nil
		})
	},
}

func computeSlice(g *pdg.PDGInfo, line int, variable *string, forward, deps bool) (SliceResult, error) {
	result := SliceResult{Line: line, Direction: "backward", Nodes: []int{}, Lines: []int{}}
	if forward {
		result.Direction = "forward"
	}
	if variable != nil {
		mentions := pdg.FindNodesByVariable(g, *variable)
		if len(mentions) == 0 {
			return SliceResult{}, fmt.Errorf("variable %q not found\nAvailable: %s",
				*variable, strings.Join(pdg.GetVariableNames(g), ", "))
		}
		result.Variable = *variable
		result.Mentions = pdg.Lines(g, mentions)
	}

	var nodes []int
	if forward {
		nodes = pdg.ForwardSlice(g, line, variable)
	} else {
		nodes = pdg.BackwardSlice(g, line, variable)
	}
	if len(nodes) > 0 {
		result.Nodes = nodes
		result.Lines = pdg.Lines(g, nodes)
	}
	if deps {
		info := pdg.GetDependencies(g, line)
		result.Dependencies = &info
	}
	return result, nil
}

func printSlice(w io.Writer, r SliceResult) {
	fmt.Fprintf(w, "=== %s slice of %s from line %d", r.Direction, r.Method, r.Line)
	if r.Variable != "" {
		fmt.Fprintf(w, " (variable %s)", r.Variable)
	}
	fmt.Fprintln(w, " ===")
	if len(r.Lines) == 0 {
		fmt.Fprintln(w, "No statements at this line")
		return
	}
	fmt.Fprintf(w, "Lines: %s\n", joinInts(r.Lines))
	if len(r.Mentions) > 0 {
		fmt.Fprintf(w, "%s appears on lines: %s\n", r.Variable, joinInts(r.Mentions))
	}

	if d := r.Dependencies; d != nil {
		fmt.Fprintln(w, "Dependencies:")
		printEdges(w, "control in", d.ControlIn)
		printEdges(w, "control out", d.ControlOut)
		printEdges(w, "data in", d.DataIn)
		printEdges(w, "data out", d.DataOut)
	}
}

func printEdges(w io.Writer, title string, edges []pdg.PDGEdge) {
	if len(edges) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", title)
	for _, e := range edges {
		switch {
		case e.Branch != "":
			fmt.Fprintf(w, "    %d -> %d (%s)\n", e.From, e.To, e.Branch)
		case len(e.Vars) > 0:
			fmt.Fprintf(w, "    %d -> %d [%s]\n", e.From, e.To, strings.Join(e.Vars, ", "))
		default:
			fmt.Fprintf(w, "    %d -> %d\n", e.From, e.To)
		}
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}

func init() {
	sliceCmd.Flags().IntP("line", "l", 0, "Line number to slice from (required)")
	sliceCmd.Flags().Bool("forward", false, "Forward slice instead of backward")
	sliceCmd.Flags().String("var", "", "Only follow dependences carried by this variable")
	sliceCmd.Flags().Bool("deps", false, "Also list the dependence edges at the line")
	_ = sliceCmd.MarkFlagRequired("line")
}
