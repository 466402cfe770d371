package commands

import (
	"github.com/spf13/cobra"

	"github.com/l3aro/go-flow-graph/pkg/analyze"
)

var cfgCmd = graphCommand(analyze.KindCFG, "Extract the control flow graph of a method",
	`Builds the control flow graph of a Java method: one node per statement, condition
and return, with true/false branch edges. There is no exit node.`)

var ddgCmd = graphCommand(analyze.KindDDG, "Extract the data dependence graph of a method",
	`Builds the data dependence graph: a dashed edge from every statement that writes a
variable to every statement that may read that write. Control edges are kept
invisible so the layout follows the control flow.`)

var pdgCmd = graphCommand(analyze.KindPDG, "Extract the program dependence graph of a method",
	`Builds the program dependence graph: the data dependence graph with the control
flow edges drawn.`)

var ssaCmd = graphCommand(analyze.KindSSA, "Transform a method into static single assignment form",
	`Renames every variable occurrence with a version subscript so that each version is
assigned once, and inserts a phi node in front of every merge point where the
incoming versions of a variable disagree.`)

func graphCommand(kind analyze.Kind, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind) + " <file> [method]",
		Short: short,
		Long:  long,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, kind, args)
		},
	}
	if kind == analyze.KindSSA {
		cmd.Flags().Bool("ascii", false, "Write versions as x_1 instead of x₁")
		cmd.Flags().Bool("strict", false, "Fail on variables read before any assignment")
	}
	return cmd
}

func runGraph(cmd *cobra.Command, kind analyze.Kind, args []string) error {
	ctx := cmd.Context()
	f, err := parseFile(ctx, args[0])
	if err != nil {
		return err
	}
	method, err := methodArg(f, args, 1)
	if err != nil {
		return err
	}

	req := analyze.Request{
		Path:   f.Path,
		Method: method,
		Kind:   kind,
		ASCII:  appConfig.ASCIIVersions,
		Strict: appConfig.Strict,
	}
	if cmd.Flags().Changed("ascii") {
		req.ASCII, _ = cmd.Flags().GetBool("ascii")
	}
	if cmd.Flags().Changed("strict") {
		req.Strict, _ = cmd.Flags().GetBool("strict")
	}

	res, err := analyze.RunFile(ctx, f, req)
	if err != nil {
		return err
	}
	return writeGraph(cmd, res.Graph)
}
