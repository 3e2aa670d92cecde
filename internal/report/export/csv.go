package export

import (
	"io"
	"strings"
)

// WriteCSV writes the table as RFC-4180 CSV with CRLF line endings.
// Every field is double-quoted, including empty ones, with internal
// quotes doubled. encoding/csv only quotes when it must, so the
// always-quoted contract is written out directly here.
func (t Table) WriteCSV(w io.Writer) error {
	if err := writeCSVRecord(w, t.Headers); err != nil {
		return err
	}
	for _, row := range t.Cells {
		if err := writeCSVRecord(w, row); err != nil {
			return err
		}
	}
	return nil
}

// CSV renders the table to a string.
func (t Table) CSV() (string, error) {
	var sb strings.Builder
	if err := t.WriteCSV(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeCSVRecord(w io.Writer, fields []string) error {
	var sb strings.Builder
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
