package list_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rshade/tablefold/internal/tui/list"
)

// blockRender renders an item as "<index>:<line>" for every line it occupies.
func blockRender(_ string, index int, selected bool, height int) string {
	marker := " "
	if selected {
		marker = ">"
	}
	lines := make([]string, height)
	for l := range lines {
		lines[l] = fmt.Sprintf("%s%d:%d", marker, index, l)
	}
	return strings.Join(lines, "\n")
}

// TestVariableSizeListModel_ViewRendersOnlyVisibleRows tests that only visible rows are rendered.
func TestVariableSizeListModel_ViewRendersOnlyVisibleRows(t *testing.T) {
	rendered := 0
	renderFunc := func(item string, _ int, selected bool, _ int) string {
		rendered++
		if selected {
			return "> " + item
		}
		return "  " + item
	}

	model := list.NewVariableSizeListModel(newItems(1000), 20, 80, uniform, renderFunc)

	view := model.View()

	assert.Len(t, strings.Split(view, "\n"), 20)
	assert.Equal(t, 20, rendered, "Should render 20 rows, not all 1000")
}

// TestVariableSizeListModel_ViewUpdatesWithScroll tests that view updates when scrolling.
func TestVariableSizeListModel_ViewUpdatesWithScroll(t *testing.T) {
	model := list.NewVariableSizeListModel(newItems(100), 20, 80, uniform, blockRender)

	viewBefore := model.View()
	model.SetSelected(50)
	viewAfter := model.View()

	assert.NotEqual(t, viewBefore, viewAfter, "View should change after scrolling")
	assert.True(t, strings.HasSuffix(viewAfter, ">50:0"))
}

// TestVariableSizeListModel_ViewPadsAndClipsItems tests line fitting per item.
func TestVariableSizeListModel_ViewPadsAndClipsItems(t *testing.T) {
	sizes := []int{2, 1}
	renderFunc := func(_ string, index int, _ bool, _ int) string {
		if index == 0 {
			return "only-one-line"
		}
		return "a\nb\nc"
	}
	model := list.NewVariableSizeListModel(newItems(2), 10, 80, func(i int) int { return sizes[i] }, renderFunc)

	assert.Equal(t, "only-one-line\n\na", model.View())
}

// TestVariableSizeListModel_ViewClipsPartialFirstRow tests a scroll offset inside an item.
func TestVariableSizeListModel_ViewClipsPartialFirstRow(t *testing.T) {
	sizes := []int{3, 1, 1, 1}
	model := list.NewVariableSizeListModel(newItems(len(sizes)), 2, 80,
		func(i int) int { return sizes[i] }, blockRender)

	model.SetSelected(3)

	require.Equal(t, 4, model.ScrollOffset())
	assert.Equal(t, " 2:0\n>3:0", model.View())

	model.SetSelected(0)
	assert.Equal(t, ">0:0\n>0:1", model.View())
}

// TestVariableSizeListModel_StaleWithoutInvalidation shows that cached offsets
// survive size changes until they are invalidated.
func TestVariableSizeListModel_StaleWithoutInvalidation(t *testing.T) {
	sizes := []int{1, 1, 1, 1}
	model := list.NewVariableSizeListModel(newItems(len(sizes)), 6, 80,
		func(i int) int { return sizes[i] }, blockRender)
	require.Equal(t, ">0:0\n 1:0\n 2:0\n 3:0", model.View())

	sizes[1] = 3
	assert.Equal(t, ">0:0\n 1:0\n 2:0\n 3:0", model.View(), "no invalidation, no re-measure")
	assert.Equal(t, 2, model.ItemOffset(2))

	model.InvalidateFrom(1)
	assert.Equal(t, ">0:0\n 1:0\n 1:1\n 1:2\n 2:0\n 3:0", model.View())
	assert.Equal(t, 4, model.ItemOffset(2))
	assert.Equal(t, 1, model.Invalidations())
}

// TestVariableSizeListModel_InvalidateKeepsEarlierOffsets tests that only
// indices at or after the invalidated one are re-measured.
func TestVariableSizeListModel_InvalidateKeepsEarlierOffsets(t *testing.T) {
	var queried []int
	model := list.NewVariableSizeListModel(newItems(5), 10, 80, func(i int) int {
		queried = append(queried, i)
		return 1
	}, blockRender)

	queried = nil
	model.InvalidateFrom(3)

	assert.Equal(t, []int{3, 4}, queried)

	queried = nil
	model.InvalidateFrom(-2)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, queried)
}

// TestVariableSizeListModel_SetItemsResetsCache tests cache reset on new data.
func TestVariableSizeListModel_SetItemsResetsCache(t *testing.T) {
	model := list.NewVariableSizeListModel(newItems(50), 5, 80, uniform, blockRender)
	model.SetSelected(40)

	model.SetItems(newItems(3))

	assert.Equal(t, 0, model.Selected())
	assert.Equal(t, 0, model.ScrollOffset())
	assert.Equal(t, 3, model.VisibleTo())
	assert.Equal(t, ">0:0\n 1:0\n 2:0", model.View())
}

// TestVariableSizeListModel_CoherentAfterInvalidation checks that after any
// size change followed by InvalidateFrom(i) with i at or before the change,
// every rendered row sits at the offset implied by the current sizes.
func TestVariableSizeListModel_CoherentAfterInvalidation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "items")
		sizes := make([]int, n)
		for i := range sizes {
			sizes[i] = rapid.IntRange(1, 4).Draw(t, "size")
		}
		height := rapid.IntRange(1, 12).Draw(t, "height")
		model := list.NewVariableSizeListModel(newItems(n), height, 80,
			func(i int) int { return sizes[i] }, blockRender)

		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for s := 0; s < steps; s++ {
			changed := rapid.IntRange(0, n-1).Draw(t, "changed")
			sizes[changed] = rapid.IntRange(1, 4).Draw(t, "newSize")
			model.InvalidateFrom(rapid.IntRange(0, changed).Draw(t, "from"))
			model.SetSelected(rapid.IntRange(0, n-1).Draw(t, "select"))

			// expected layout straight from sizes
			var all []string
			for i := 0; i < n; i++ {
				marker := " "
				if i == model.Selected() {
					marker = ">"
				}
				for l := 0; l < sizes[i]; l++ {
					all = append(all, fmt.Sprintf("%s%d:%d", marker, i, l))
				}
			}
			start := model.ScrollOffset()
			end := start + height
			if end > len(all) {
				end = len(all)
			}
			want := strings.Join(all[start:end], "\n")
			if got := model.View(); got != want {
				t.Fatalf("view mismatch at step %d\nwant:\n%s\ngot:\n%s", s, want, got)
			}
		}
	})
}
