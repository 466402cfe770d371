package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-flow-graph/pkg/ingest"
)

var methodsCmd = &cobra.Command{
	Use:   "methods <file>",
	Short: "List the methods and constructors of a Java file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := parseFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		methods := f.Methods
		if methods == nil {
			methods = []ingest.MethodInfo{}
		}
		return writeData(cmd, methods, func(w io.Writer, _ bool) error {
			printMethods(w, f)
			return nil
		})
	},
}

func printMethods(w io.Writer, f *ingest.File) {
	fmt.Fprintf(w, "=== Methods in %s (%d) ===\n", f.Path, len(f.Methods))
	for _, m := range f.Methods {
		suffix := ""
		if m.HasError {
			suffix = " (syntax error)"
		}
		fmt.Fprintf(w, "  %4d  %s%s\n", m.Line, m.Selector, suffix)
	}
}
