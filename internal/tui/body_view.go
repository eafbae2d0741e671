package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/tablefold/internal/rowkey"
	"github.com/rshade/tablefold/internal/table"
)

// View renders the header, the body and the footer (Bubble Tea interface).
func (m *BodyModel) View() string {
	var sections []string
	if m.fixedHeader {
		sections = append(sections, m.renderHeader())
	}
	sections = append(sections, m.renderBody(), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *BodyModel) renderBody() string {
	if m.engine.Len() == 0 {
		return FooterStyle.Render(emptyMessage)
	}
	if m.list != nil {
		return m.list.View()
	}

	rows := m.engine.Rows()
	blocks := make([]string, len(rows))
	for i, row := range rows {
		blocks[i] = m.renderRowBlock(row, i == m.cursor)
	}
	return strings.Join(blocks, "\n")
}

// renderVirtualRow is the list's render function.
func (m *BodyModel) renderVirtualRow(_ rowkey.Key, index int, selected bool, _ int) string {
	row, ok := m.engine.Row(index)
	if !ok {
		return ""
	}
	return m.renderRowBlock(row, selected)
}

// renderRowBlock renders a row line followed by its sub row when expanded.
// In virtualized mode the row line is padded to the configured row height.
func (m *BodyModel) renderRowBlock(row table.Row, cursor bool) string {
	lines := []string{m.renderRowLine(row, cursor)}
	if m.virt != nil {
		for i := 1; i < m.virt.RowHeight; i++ {
			lines = append(lines, "")
		}
	}
	if row.Expanded && m.renderSubRow != nil {
		lines = append(lines, SubRowStyle.Render(m.renderSubRow(row, m.engine.Rows())))
	}
	return strings.Join(lines, "\n")
}

func (m *BodyModel) renderRowLine(row table.Row, cursor bool) string {
	var b strings.Builder
	if row.Expanded {
		b.WriteString(expandedGlyph)
	} else {
		b.WriteString(closedGlyph)
	}
	b.WriteString(" ")

	checked := m.checked != nil && m.checked.Has(row.Key)
	if m.checked != nil {
		if checked {
			b.WriteString(checkedBox)
		} else {
			b.WriteString(uncheckedBox)
		}
		b.WriteString(" ")
	}

	cells := make([]string, len(m.columns))
	for i, col := range m.columns {
		cells[i] = fitCell(cellText(row.Value(col.Field)), col.Width)
	}
	b.WriteString(strings.Join(cells, columnGap))

	style := RowStyle
	switch {
	case cursor:
		style = CursorRowStyle
	case row.Expanded:
		style = ExpandedRowStyle
	case checked:
		style = CheckedRowStyle
	}
	if cls, ok := m.classStyles[row.ClassName]; ok {
		style = style.Inherit(cls)
	}
	return style.Render(b.String())
}

func (m *BodyModel) renderHeader() string {
	var b strings.Builder
	b.WriteString("  ")
	if m.checked != nil {
		b.WriteString(strings.Repeat(" ", len(uncheckedBox)+1))
	}
	cells := make([]string, len(m.columns))
	for i, col := range m.columns {
		cells[i] = fitCell(col.Header, col.Width)
	}
	b.WriteString(strings.Join(cells, columnGap))
	return HeaderStyle.Render(b.String())
}

func (m *BodyModel) renderFooter() string {
	expanded := 0
	if _, ok := m.controller.Expanded(); ok {
		expanded = 1
	}
	counts := m.printer.Sprintf("%d rows, %d expanded", m.engine.Len(), expanded)
	if m.checked != nil {
		counts += m.printer.Sprintf(", %d checked", len(m.checked))
	}
	if m.status != "" {
		counts += "  " + m.status
	}
	return FooterStyle.Render(counts) + "\n" + m.help.View(m.keys)
}
