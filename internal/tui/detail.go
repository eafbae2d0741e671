package tui

import (
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/rshade/tablefold/internal/table"
)

// FieldList renders every payload field of row as an aligned "name: value"
// line, in name order. It is a ready-made RenderSubRow.
func FieldList(row table.Row, _ []table.Row) string {
	fields := make([]string, 0, len(row.Values))
	width := 0
	for f := range row.Values {
		if f == table.ClassNameField {
			continue
		}
		fields = append(fields, f)
		width = max(width, runewidth.StringWidth(f))
	}
	sort.Strings(fields)

	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = runewidth.FillRight(f+":", width+1) + " " + cellText(row.Values[f])
	}
	return strings.Join(lines, "\n")
}
