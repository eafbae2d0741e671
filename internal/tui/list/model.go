package list

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// minItemSize is the smallest height an item may occupy.
const minItemSize = 1

// SizeFunc returns the height in lines of the item at index.
type SizeFunc func(index int) int

// RenderFunc renders an item into exactly height lines (shorter output is
// padded, longer output is cut). The selected parameter indicates whether
// this item is currently selected.
type RenderFunc[T any] func(item T, index int, selected bool, height int) string

// VariableSizeListModel implements virtual scrolling for items of differing
// heights. Item offsets are measured lazily through the size function and
// cached until InvalidateFrom drops them, so only the rows intersecting the
// viewport are measured and rendered on each paint.
type VariableSizeListModel[T any] struct {
	// items contains all list items
	items []T

	sizeFunc   SizeFunc
	renderFunc RenderFunc[T]

	// selected is the currently selected item index (0-based)
	selected int

	// scrollOffset is the first visible line
	scrollOffset int

	// visibleFrom is the first visible item index
	visibleFrom int

	// visibleTo is the last visible item index (exclusive)
	visibleTo int

	// height is the viewport height in lines
	height int

	// width is the viewport width in columns
	width int

	// sizes and offsets are valid for indices <= lastMeasured
	sizes        []int
	offsets      []int
	lastMeasured int

	invalidations int
	measurements  int
}

// NewVariableSizeListModel creates a new virtual list model.
// items: the complete list of items to display.
// height: viewport height in lines.
// width: viewport width in columns.
// sizeFunc: height of each item, queried lazily and cached.
// renderFunc: function to render each item.
func NewVariableSizeListModel[T any](
	items []T,
	height, width int,
	sizeFunc SizeFunc,
	renderFunc RenderFunc[T],
) *VariableSizeListModel[T] {
	m := &VariableSizeListModel[T]{
		sizeFunc:   sizeFunc,
		renderFunc: renderFunc,
		height:     height,
		width:      width,
	}
	m.SetItems(items)
	return m
}

// Init initializes the model (required for tea.Model interface).
func (m *VariableSizeListModel[T]) Init() tea.Cmd {
	return nil
}

// Update handles keyboard, mouse wheel and resize messages.
func (m *VariableSizeListModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg), nil
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button { //nolint:exhaustive // Only wheel buttons scroll.
		case tea.MouseButtonWheelUp:
			m.SetSelected(m.selected - 1)
		case tea.MouseButtonWheelDown:
			m.SetSelected(m.selected + 1)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	}

	return m, nil
}

// handleKeyMsg processes keyboard input for navigation.
//
//nolint:exhaustive // Only navigation keys are handled.
func (m *VariableSizeListModel[T]) handleKeyMsg(msg tea.KeyMsg) tea.Model {
	if len(m.items) == 0 {
		return m
	}

	switch msg.Type {
	case tea.KeyUp:
		m.SetSelected(m.selected - 1)
	case tea.KeyDown:
		m.SetSelected(m.selected + 1)
	case tea.KeyPgUp:
		m.SetSelected(m.selected - m.pageItems())
	case tea.KeyPgDown:
		m.SetSelected(m.selected + m.pageItems())
	case tea.KeyHome:
		m.SetSelected(0)
	case tea.KeyEnd:
		m.SetSelected(len(m.items) - 1)
	case tea.KeyRunes:
		// Handle vim-style navigation
		if len(msg.Runes) > 0 {
			switch msg.Runes[0] {
			case 'j':
				m.SetSelected(m.selected + 1)
			case 'k':
				m.SetSelected(m.selected - 1)
			case 'g':
				m.SetSelected(0)
			case 'G':
				m.SetSelected(len(m.items) - 1)
			}
		}
	default:
		// Ignore other key types (Ctrl combinations, function keys, etc.)
	}

	return m
}

// pageItems is the number of items a page key moves by.
func (m *VariableSizeListModel[T]) pageItems() int {
	if n := m.visibleTo - m.visibleFrom; n > 1 {
		return n
	}
	return 1
}

// SetItems replaces the items and drops every cached measurement.
func (m *VariableSizeListModel[T]) SetItems(items []T) {
	m.items = items
	m.sizes = make([]int, len(items))
	m.offsets = make([]int, len(items))
	m.lastMeasured = -1
	m.scrollOffset = 0
	m.selected = 0
	m.updateVisibleRange()
}

// SetSize resizes the viewport.
func (m *VariableSizeListModel[T]) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.scrollToItem(m.selected)
}

// InvalidateFrom drops cached sizes and offsets for index and everything
// after it, then recomputes the visible window.
func (m *VariableSizeListModel[T]) InvalidateFrom(index int) {
	if index < 0 {
		index = 0
	}
	m.invalidations++
	if m.lastMeasured >= index {
		m.lastMeasured = index - 1
	}
	m.scrollToItem(m.selected)
}

// measureThrough fills the cache up to and including index.
func (m *VariableSizeListModel[T]) measureThrough(index int) {
	if index >= len(m.items) {
		index = len(m.items) - 1
	}
	for i := m.lastMeasured + 1; i <= index; i++ {
		size := m.sizeFunc(i)
		if size < minItemSize {
			size = minItemSize
		}
		m.measurements++
		m.sizes[i] = size
		if i == 0 {
			m.offsets[i] = 0
		} else {
			m.offsets[i] = m.offsets[i-1] + m.sizes[i-1]
		}
		m.lastMeasured = i
	}
}

// ItemOffset returns the first line of the item at index.
func (m *VariableSizeListModel[T]) ItemOffset(index int) int {
	if index < 0 || index >= len(m.items) {
		return 0
	}
	m.measureThrough(index)
	return m.offsets[index]
}

// ItemSize returns the height of the item at index.
func (m *VariableSizeListModel[T]) ItemSize(index int) int {
	if index < 0 || index >= len(m.items) {
		return 0
	}
	m.measureThrough(index)
	return m.sizes[index]
}

// TotalSize returns the height of the whole list in lines.
func (m *VariableSizeListModel[T]) TotalSize() int {
	last := len(m.items) - 1
	if last < 0 {
		return 0
	}
	return m.ItemOffset(last) + m.ItemSize(last)
}

// IndexAtLine returns the item covering viewport line y, or -1.
func (m *VariableSizeListModel[T]) IndexAtLine(y int) int {
	if y < 0 || y >= m.height {
		return -1
	}
	return m.indexAtOffset(m.scrollOffset + y)
}

// indexAtOffset returns the item covering absolute line, or -1.
func (m *VariableSizeListModel[T]) indexAtOffset(line int) int {
	if len(m.items) == 0 || line < 0 {
		return -1
	}
	// measure forward until the line is covered
	for m.lastMeasured < len(m.items)-1 {
		if m.lastMeasured >= 0 && m.offsets[m.lastMeasured]+m.sizes[m.lastMeasured] > line {
			break
		}
		m.measureThrough(m.lastMeasured + 1)
	}
	n := m.lastMeasured + 1
	i := sort.Search(n, func(k int) bool {
		return m.offsets[k]+m.sizes[k] > line
	})
	if i >= n {
		return -1
	}
	return i
}

// scrollToItem scrolls the minimum distance that shows the whole item
// (or its top, when it is taller than the viewport).
func (m *VariableSizeListModel[T]) scrollToItem(index int) {
	if len(m.items) > 0 {
		top := m.ItemOffset(index)
		bottom := top + m.ItemSize(index)
		switch {
		case top < m.scrollOffset:
			m.scrollOffset = top
		case bottom > m.scrollOffset+m.height:
			m.scrollOffset = bottom - m.height
			if m.scrollOffset > top {
				m.scrollOffset = top
			}
		}
	}
	m.clampScroll()
	m.updateVisibleRange()
}

// clampScroll keeps the viewport inside the list. Items are measured only
// until the viewport is covered; the full total is needed near the end.
func (m *VariableSizeListModel[T]) clampScroll() {
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
	if m.height > 0 && m.indexAtOffset(m.scrollOffset+m.height-1) >= 0 {
		return
	}
	maxScroll := m.TotalSize() - m.height
	if m.scrollOffset > maxScroll {
		m.scrollOffset = maxScroll
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// updateVisibleRange calculates which items intersect the viewport.
func (m *VariableSizeListModel[T]) updateVisibleRange() {
	if len(m.items) == 0 {
		m.visibleFrom = 0
		m.visibleTo = 0
		return
	}

	from := m.indexAtOffset(m.scrollOffset)
	if from < 0 {
		from = 0
	}
	end := m.scrollOffset + m.height
	to := from
	for to < len(m.items) && m.ItemOffset(to) < end {
		to++
	}

	m.visibleFrom = from
	m.visibleTo = to
}

// View renders the lines of the viewport. Only items intersecting the
// viewport are rendered.
func (m *VariableSizeListModel[T]) View() string {
	if len(m.items) == 0 || m.height <= 0 {
		return ""
	}

	lines := make([]string, 0, m.height)
	skip := m.scrollOffset - m.ItemOffset(m.visibleFrom)
	for i := m.visibleFrom; i < m.visibleTo && len(lines) < m.height; i++ {
		size := m.ItemSize(i)
		rendered := fitLines(m.renderFunc(m.items[i], i, i == m.selected, size), size)
		for _, line := range rendered {
			if skip > 0 {
				skip--
				continue
			}
			if len(lines) == m.height {
				break
			}
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// fitLines splits s into exactly n lines.
func fitLines(s string, n int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		return lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return lines
}

// ItemCount returns the total number of items in the list.
func (m *VariableSizeListModel[T]) ItemCount() int {
	return len(m.items)
}

// Selected returns the currently selected item index.
func (m *VariableSizeListModel[T]) Selected() int {
	return m.selected
}

// SetSelected sets the selected item index, capping to valid bounds, and
// scrolls it into view.
func (m *VariableSizeListModel[T]) SetSelected(index int) {
	if len(m.items) == 0 {
		m.selected = 0
		return
	}

	switch {
	case index < 0:
		m.selected = 0
	case index >= len(m.items):
		m.selected = len(m.items) - 1
	default:
		m.selected = index
	}

	m.scrollToItem(m.selected)
}

// ScrollOffset returns the first visible line.
func (m *VariableSizeListModel[T]) ScrollOffset() int {
	return m.scrollOffset
}

// VisibleFrom returns the first visible item index (inclusive).
func (m *VariableSizeListModel[T]) VisibleFrom() int {
	return m.visibleFrom
}

// VisibleTo returns the last visible item index (exclusive).
func (m *VariableSizeListModel[T]) VisibleTo() int {
	return m.visibleTo
}

// Height returns the viewport height.
func (m *VariableSizeListModel[T]) Height() int {
	return m.height
}

// Width returns the viewport width.
func (m *VariableSizeListModel[T]) Width() int {
	return m.width
}

// Invalidations returns how many times InvalidateFrom was called.
func (m *VariableSizeListModel[T]) Invalidations() int {
	return m.invalidations
}

// Measurements returns how many times the size function was queried.
func (m *VariableSizeListModel[T]) Measurements() int {
	return m.measurements
}

// GetSelectedItem returns the currently selected item.
// Returns nil if list is empty.
func (m *VariableSizeListModel[T]) GetSelectedItem() *T {
	if len(m.items) == 0 || m.selected < 0 || m.selected >= len(m.items) {
		return nil
	}
	return &m.items[m.selected]
}
