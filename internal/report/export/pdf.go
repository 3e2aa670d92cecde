package export

import (
	"bytes"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	mconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// maroto lays rows out on a 12-column grid; wider tables are truncated.
const maxPDFColumns = 12

// PDF renders the table as a simple paginated document: a title row,
// a bold header row, then one row per record with the table's column
// alignment carried over. Empty cells render as the em-dash, matching
// the on-screen table.
func (t Table) PDF(title, subtitle string) (io.Reader, error) {
	cfg := mconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	if subtitle != "" {
		m.AddRow(8,
			text.NewCol(12, subtitle, props.Text{Size: 9, Align: align.Left}),
		)
	}

	ncols := len(t.Headers)
	if ncols > maxPDFColumns {
		ncols = maxPDFColumns
	}
	widths := columnWidths(ncols)

	headerCols := make([]core.Col, 0, ncols)
	for i := 0; i < ncols; i++ {
		headerCols = append(headerCols, text.NewCol(widths[i], t.Headers[i], props.Text{
			Style: fontstyle.Bold,
			Size:  9,
			Align: pdfAlign(t.Aligns[i]),
		}))
	}
	m.AddRow(8, headerCols...)

	for _, row := range t.Screen() {
		cols := make([]core.Col, 0, ncols)
		for i := 0; i < ncols && i < len(row); i++ {
			cols = append(cols, text.NewCol(widths[i], row[i], props.Text{
				Size:  8,
				Align: pdfAlign(t.Aligns[i]),
			}))
		}
		m.AddRow(6, cols...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

// columnWidths spreads maroto's 12-column grid across n columns, giving
// the leftmost columns the remainder.
func columnWidths(n int) []int {
	if n == 0 {
		return nil
	}
	if n > 12 {
		n = 12
	}
	base := 12 / n
	rem := 12 % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < rem {
			widths[i]++
		}
	}
	return widths
}

func pdfAlign(a Align) align.Type {
	switch a {
	case AlignRight:
		return align.Right
	case AlignCenter:
		return align.Center
	default:
		return align.Left
	}
}
