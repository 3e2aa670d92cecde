package export

import (
	"strings"
	"testing"

	"github.com/agencydesk/agencydesk/internal/report/domain"
)

func TestProjectRendersAndScreensEmptyCells(t *testing.T) {
	cols := []Column{
		{Key: "name", Header: "Name"},
		{Key: "count", Header: "Count", Align: AlignRight},
		{Key: "note", Header: "Note"},
	}
	rows := []Row{
		{"name": "Ann", "count": 3},
		{"name": "Bob", "count": 0, "note": nil},
	}

	table := Project(cols, rows)

	if len(table.Cells) != 2 {
		t.Fatalf("cells = %d rows", len(table.Cells))
	}
	if table.Cells[0][1] != "3" {
		t.Fatalf("count cell = %q", table.Cells[0][1])
	}
	// Raw cells keep missing values empty.
	if table.Cells[0][2] != "" || table.Cells[1][2] != "" {
		t.Fatalf("missing cells = %q / %q", table.Cells[0][2], table.Cells[1][2])
	}
	// Screen substitutes the em-dash.
	screen := table.Screen()
	if screen[0][2] != EmptyCell {
		t.Fatalf("screen cell = %q, want em-dash", screen[0][2])
	}
	// Zero is a value, not an empty cell.
	if screen[1][1] != "0" {
		t.Fatalf("zero cell = %q", screen[1][1])
	}
}

func TestProjectRenderOverride(t *testing.T) {
	cols := []Column{
		{Key: "status", Header: "Status", Render: func(row map[string]any) string {
			if row["status"] == "active" {
				return "Active"
			}
			return "Inactive"
		}},
	}

	table := Project(cols, []Row{{"status": "active"}, {"status": "lead"}})
	if table.Cells[0][0] != "Active" || table.Cells[1][0] != "Inactive" {
		t.Fatalf("cells = %v", table.Cells)
	}
}

func TestCSVAlwaysQuotes(t *testing.T) {
	cols := []Column{
		{Key: "name", Header: "Name"},
		{Key: "note", Header: "Note"},
	}
	rows := []Row{
		{"name": `Jane "J" Doe, Jr.`, "note": "line"},
		{"name": "Empty"},
	}

	out, err := Project(cols, rows).CSV()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d: %q", len(lines), out)
	}
	if lines[0] != `"Name","Note"` {
		t.Fatalf("header = %q", lines[0])
	}
	// Internal quotes are doubled, commas survive inside the field.
	if lines[1] != `"Jane ""J"" Doe, Jr.","line"` {
		t.Fatalf("row = %q", lines[1])
	}
	// Empty values are empty quoted fields, not em-dashes.
	if lines[2] != `"Empty",""` {
		t.Fatalf("row = %q", lines[2])
	}
}

func TestProductionProjection(t *testing.T) {
	row := domain.ProductionRow{AgentID: "1", AgentName: "Ann", Total: 3}
	row.Months[0] = 2
	row.Months[11] = 1

	table := Project(ProductionColumns(), ProductionRows([]domain.ProductionRow{row}))

	if len(table.Headers) != 14 {
		t.Fatalf("headers = %d, want agent + 12 months + total", len(table.Headers))
	}
	if table.Headers[1] != "Jan" || table.Headers[12] != "Dec" {
		t.Fatalf("month headers = %v", table.Headers)
	}
	cells := table.Cells[0]
	if cells[1] != "2" || cells[12] != "1" || cells[13] != "3" {
		t.Fatalf("cells = %v", cells)
	}
}

func TestRosterProjection(t *testing.T) {
	table := Project(RosterColumns(), RosterRows([]domain.RosterRow{
		{AgentID: "1", AgentName: "Ann", Email: "ann@example.com", Status: "active", ClientCount: 2, PolicyCount: 5},
	}))
	cells := table.Cells[0]
	if cells[0] != "Ann" || cells[4] != "2" || cells[5] != "5" {
		t.Fatalf("cells = %v", cells)
	}
	// NPN missing renders as em-dash on screen.
	if table.Screen()[0][2] != EmptyCell {
		t.Fatalf("npn cell = %q", table.Screen()[0][2])
	}
}
