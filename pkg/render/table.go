package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteTable writes the nodes and edges of g as two text tables.
func WriteTable(w io.Writer, g Graph, opts Options) error {
	opts = opts.withDefaults()

	title(w, fmt.Sprintf("%s %s: %d nodes", strings.ToUpper(g.Kind), g.Name, len(g.Nodes)), opts.Color)
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		line := ""
		if n.Line > 0 {
			line = strconv.Itoa(n.Line)
		}
		rows = append(rows, []string{n.ID, n.Kind, line, n.Label})
	}
	if err := table(w, []string{"ID", "Kind", "Line", "Label"}, rows); err != nil {
		return err
	}

	title(w, fmt.Sprintf("Edges: %d", len(g.Edges)), opts.Color)
	rows = rows[:0]
	for _, e := range g.Edges {
		caption := e.Kind
		switch e.Kind {
		case "true":
			caption = opts.TrueLabel
		case "false":
			caption = opts.FalseLabel
		}
		rows = append(rows, []string{e.From, e.To, caption, strings.Join(e.Vars, ", ")})
	}
	return table(w, []string{"From", "To", "Kind", "Vars"}, rows)
}

func title(w io.Writer, text string, colored bool) {
	if colored {
		color.New(color.Bold).Fprintln(w, text)
	} else {
		fmt.Fprintln(w, text)
	}
	fmt.Fprintln(w, strings.Repeat("=", len(text)))
}

func table(w io.Writer, headers []string, rows [][]string) error {
	t := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)
	t.Header(headers)
	for _, row := range rows {
		if err := t.Append(row); err != nil {
			return err
		}
	}
	if err := t.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}
