package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/rshade/tablefold/internal/table"
)

const (
	maxColumnWidth = 24
	minColumnWidth = 3
	columnGap      = "  "
	ellipsis       = "…"
)

// Column is one displayed payload field.
type Column struct {
	Header string
	Field  string
	// Width in terminal cells. Zero sizes the column to its content.
	Width int
}

// ColumnsFor derives columns from data: the key field first, then every
// other field in name order. The row class field is never shown.
func ColumnsFor(data []map[string]any, keyField string) []Column {
	seen := map[string]bool{table.ClassNameField: true}
	var fields []string
	for _, values := range data {
		for f := range values {
			if !seen[f] {
				seen[f] = true
				fields = append(fields, f)
			}
		}
	}
	sort.Strings(fields)
	for i, f := range fields {
		if f == keyField {
			copy(fields[1:i+1], fields[:i])
			fields[0] = f
			break
		}
	}

	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = Column{Header: f, Field: f}
	}
	return sizeColumns(cols, data)
}

// sizeColumns fills zero widths from the header and cell contents.
func sizeColumns(cols []Column, data []map[string]any) []Column {
	out := make([]Column, len(cols))
	copy(out, cols)
	for i := range out {
		if out[i].Width > 0 {
			continue
		}
		w := runewidth.StringWidth(out[i].Header)
		for _, values := range data {
			if cw := runewidth.StringWidth(cellText(values[out[i].Field])); cw > w {
				w = cw
			}
		}
		out[i].Width = min(max(w, minColumnWidth), maxColumnWidth)
	}
	return out
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return strings.ReplaceAll(fmt.Sprint(v), "\n", " ")
}

// fitCell truncates or pads s to exactly width cells.
func fitCell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ellipsis), width)
}
