package height

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/rshade/tablefold/internal/config"
	"github.com/rshade/tablefold/internal/expansion"
	"github.com/rshade/tablefold/internal/table"
)

type fakeList struct {
	from []int
}

func (f *fakeList) InvalidateFrom(index int) {
	f.from = append(f.from, index)
}

func virtualCfg() *config.VirtualisationConfig {
	return &config.VirtualisationConfig{TableHeight: 10, RowHeight: 1, SubRowHeight: 5}
}

func rows(n int) []map[string]any {
	data := make([]map[string]any, n)
	for i := range data {
		data[i] = map[string]any{"id": i + 1}
	}
	return data
}

func TestHeightOf(t *testing.T) {
	engine := table.New(rows(3))
	r := New(engine, virtualCfg(), zerolog.Nop())

	engine.ToggleExpansion("2")

	assert.Equal(t, 1, r.HeightOf(0))
	assert.Equal(t, 5, r.HeightOf(1))
	assert.Equal(t, 1, r.HeightOf(2))
	assert.Equal(t, 1, r.HeightOf(99), "out of range rows use the standard height")
}

func TestOnExpansionChanged_Virtualized(t *testing.T) {
	engine := table.New(rows(3))
	list := &fakeList{}
	r := New(engine, virtualCfg(), zerolog.Nop())
	r.Bind(list)

	r.OnExpansionChanged(2)
	r.OnExpansionChanged(-4)

	assert.True(t, r.Active())
	assert.Equal(t, []int{2, 0}, list.from)
}

func TestOnExpansionChanged_Fallback(t *testing.T) {
	engine := table.New(rows(2))
	r := New(engine, nil, zerolog.Nop())

	assert.False(t, r.Active())
	assert.NotPanics(t, func() { r.OnExpansionChanged(0) })
	engine.ToggleExpansion("1")
	assert.Equal(t, 1, r.HeightOf(0))
}

// Non-virtualized mode: toggling never reaches an invalidation.
func TestController_NonVirtualizedNeverInvalidates(t *testing.T) {
	engine := table.New(rows(2))
	r := New(engine, nil, zerolog.Nop())
	c := expansion.NewController(engine, expansion.WithNotifier(r))

	c.Toggle("1")

	assert.True(t, engine.IsExpanded("1"))
	assert.False(t, r.Active())
}

func TestController_InvalidatesAtOrBeforeChangedRow(t *testing.T) {
	engine := table.New(rows(5))
	list := &fakeList{}
	r := New(engine, virtualCfg(), zerolog.Nop())
	r.Bind(list)
	c := expansion.NewController(engine, expansion.WithNotifier(r))

	c.Toggle("4")
	c.Toggle("2")

	assert.Equal(t, []int{3, 1}, list.from)
	assert.Equal(t, 5, r.HeightOf(1))
	assert.Equal(t, 1, r.HeightOf(3))
}
