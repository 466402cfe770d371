package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-flow-graph/internal/log"
	"github.com/l3aro/go-flow-graph/pkg/ingest"
	"github.com/l3aro/go-flow-graph/pkg/render"
)

// errNoMethod is returned when the method argument is missing and no prompt can be shown.
var errNoMethod = errors.New("method name required (no terminal to choose one interactively)")

// output is where a command writes its result.
type output struct {
	w       io.Writer
	file    *os.File
	colored bool
}

func openOutput(cmd *cobra.Command) (*output, error) {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		w := cmd.OutOrStdout()
		return &output{w: w, colored: w == os.Stdout && !color.NoColor}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return &output{w: f, file: f}, nil
}

func (o *output) Close() error {
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}

func format() (render.Format, error) {
	return render.ParseFormat(appConfig.Format)
}

// writeGraph renders g in the configured format.
func writeGraph(cmd *cobra.Command, g render.Graph) error {
	f, err := format()
	if err != nil {
		return err
	}
	out, err := openOutput(cmd)
	if err != nil {
		return err
	}
	if err := render.Write(out.w, g, f, appConfig.RenderOptions(out.colored)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeData writes a non-graph result. DOT and table formats fall back to text,
// produced by the given function.
func writeData(cmd *cobra.Command, v any, text func(w io.Writer, colored bool) error) error {
	f, err := format()
	if err != nil {
		return err
	}
	out, err := openOutput(cmd)
	if err != nil {
		return err
	}
	switch f {
	case render.FormatJSON:
		err = render.WriteJSON(out.w, v)
	case render.FormatMsgpack:
		err = render.WriteMsgpack(out.w, v)
	case render.FormatTOON:
		err = render.WriteTOON(out.w, v)
	default:
		err = text(out.w, out.colored)
	}
	if err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// parseFile checks that path is a Java file and parses it.
func parseFile(ctx context.Context, path string) (*ingest.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".java") {
		return nil, fmt.Errorf("unsupported file type: %s (only .java files supported)", path)
	}
	return ingest.ParseJavaFile(ctx, path)
}

// methodArg returns the method named on the command line, or lets the user pick one
// when running in a terminal.
func methodArg(f *ingest.File, args []string, idx int) (string, error) {
	if len(args) > idx {
		name := args[idx]
		if _, err := f.Method(name); err != nil {
			if errors.Is(err, ingest.ErrMethodNotFound) {
				return "", fmt.Errorf("method %q not found in %s\nAvailable: %s", name, f.Path, strings.Join(f.Names(), ", "))
			}
			return "", err
		}
		return name, nil
	}
	if len(f.Methods) == 0 {
		return "", fmt.Errorf("no methods found in %s", f.Path)
	}
	if len(f.Methods) == 1 {
		return f.Methods[0].Selector, nil
	}
	if !log.IsTTY() {
		return "", errNoMethod
	}
	return pickMethod(f)
}

func pickMethod(f *ingest.File) (string, error) {
	options := make([]huh.Option[string], 0, len(f.Methods))
	for _, m := range f.Methods {
		label := fmt.Sprintf("%s (line %d)", m.Selector, m.Line)
		options = append(options, huh.NewOption(label, m.Selector))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Method").
				Description(fmt.Sprintf("Select a method of %s", filepath.Base(f.Path))).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("interactive prompt failed: %w", err)
	}
	return choice, nil
}
