package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}
	colorCheck  = lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}
	colorPanel  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#333333"}
)

var (
	// HeaderStyle renders the column header line.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	// RowStyle renders a collapsed, unselected row.
	RowStyle = lipgloss.NewStyle()

	// CursorRowStyle renders the row under the cursor.
	CursorRowStyle = lipgloss.NewStyle().Reverse(true)

	// ExpandedRowStyle renders the expanded row.
	ExpandedRowStyle = lipgloss.NewStyle().Bold(true)

	// CheckedRowStyle renders checked rows.
	CheckedRowStyle = lipgloss.NewStyle().Foreground(colorCheck)

	// SubRowStyle renders the detail block under the expanded row.
	SubRowStyle = lipgloss.NewStyle().
			Background(colorPanel).
			PaddingLeft(subRowIndent)

	// FooterStyle renders the status counts.
	FooterStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// subRowIndent lines the sub row up under the first data cell.
const subRowIndent = 2
