package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

const (
	defaultTermWidth = 80
	// minColWidth keeps columns readable on very narrow terminals.
	minColWidth = 20
)

// TerminalWidth returns the width of w when it is a terminal, otherwise
// defaultTermWidth.
func TerminalWidth(w io.Writer) int {
	type fder interface{ Fd() uintptr }
	if f, ok := w.(fder); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 { //nolint:gosec // file descriptors fit in int
			return width
		}
	}
	return defaultTermWidth
}

// TableStyle selects the layout used by RenderTable.
type TableStyle int

const (
	// TablePlain renders one line per row.
	TablePlain TableStyle = iota
	// TableGrouped merges repeated first-column cells and draws a line
	// between groups, e.g. one group per host in a resolve listing.
	TableGrouped
)

// RenderTable writes header and rows to w, wrapping cells so the table fits
// the terminal. overhead is the width used by borders and unwrapped columns.
func RenderTable(w io.Writer, style TableStyle, overhead int, header []string, rows [][]string) error {
	table := newTable(w, style, max(minColWidth, TerminalWidth(w)-overhead))
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func newTable(w io.Writer, style TableStyle, maxColWidth int) *tablewriter.Table {
	formatting := tw.CellFormatting{AutoWrap: tw.WrapNormal}
	opts := []tablewriter.Option{}
	if style == TableGrouped {
		formatting.MergeMode = tw.MergeHierarchical
		opts = append(opts, tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})))
	}
	opts = append(opts, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Formatting:   formatting,
			ColMaxWidths: tw.CellWidth{Global: maxColWidth},
		},
	}))
	return tablewriter.NewTable(w, opts...)
}
