package cli

import (
	"strings"
)

// Table lays out rows under headers with columns sized to their widest cell.
type Table struct {
	headers []string
	rows    [][]string
	padding int
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, padding: 2}
}

// AddRow adds a row, padding or truncating it to the header count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render formats and returns the table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	sep := strings.Repeat(" ", t.padding)
	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = padRight(c, widths[i])
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, sep), " "))
		b.WriteByte('\n')
	}

	writeRow(t.headers)
	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("-", w)
	}
	writeRow(rules)
	for _, row := range t.rows {
		writeRow(row)
	}
	return b.String()
}

// padRight pads s with spaces to width; longer strings are returned unchanged.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
