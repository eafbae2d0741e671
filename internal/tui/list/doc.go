// Package list provides a variable-height virtual scrolling list for
// Bubble Tea TUI applications.
//
// Only the items intersecting the viewport are measured and rendered. Item
// heights come from a caller-supplied size function; the cumulative offsets
// derived from them are cached and stay valid until InvalidateFrom is called
// for an index at or before the first item whose height changed. Key features:
//   - Lazy offset measurement, O(viewport) render cost
//   - Index-based cache invalidation
//   - Keyboard navigation (up/down, pgup/pgdn, home/end, j/k/g/G) and mouse wheel
//   - Line-to-item hit testing for mouse clicks
package list
