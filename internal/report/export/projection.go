// Package export projects report rows into tabular outputs: an aligned
// on-screen table, RFC-4180 CSV and PDF.
package export

import "strings"

// Alignment of a rendered cell.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// EmptyCell is what a missing value renders as on screen. CSV renders
// the same cell as an empty quoted field instead.
const EmptyCell = "—"

// Column describes one projected column. Render, when set, overrides
// the plain string lookup for the column's key.
type Column struct {
	Key    string
	Header string
	Align  Align
	Render func(row map[string]any) string
}

// Row is one report row keyed by column key. Values are stringified
// with no type-specific formatting.
type Row = map[string]any

// Table is the projected output: a header plus cell grid, all strings.
type Table struct {
	Headers []string
	Aligns  []Align
	Cells   [][]string
}

// Project renders rows against an ordered column list. Missing and
// empty values become empty cells; Screen and CSV decide how an empty
// cell is shown.
func Project(columns []Column, rows []Row) Table {
	table := Table{
		Headers: make([]string, len(columns)),
		Aligns:  make([]Align, len(columns)),
		Cells:   make([][]string, 0, len(rows)),
	}
	for i, col := range columns {
		table.Headers[i] = col.Header
		table.Aligns[i] = col.Align
	}

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = renderCell(col, row)
		}
		table.Cells = append(table.Cells, cells)
	}
	return table
}

func renderCell(col Column, row Row) string {
	if col.Render != nil {
		return strings.TrimSpace(col.Render(row))
	}
	value, ok := row[col.Key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(stringify(value))
}

// Screen returns the cell grid with empty cells replaced by an em-dash.
func (t Table) Screen() [][]string {
	out := make([][]string, len(t.Cells))
	for i, row := range t.Cells {
		cells := make([]string, len(row))
		for j, cell := range row {
			if cell == "" {
				cell = EmptyCell
			}
			cells[j] = cell
		}
		out[i] = cells
	}
	return out
}
