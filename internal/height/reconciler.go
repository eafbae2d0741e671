// Package height bridges row expansion state to the virtualized list.
//
// The list asks HeightOf for each row it lays out and caches the resulting
// offsets. Whenever a row expands or collapses, every offset after it is
// stale, so OnExpansionChanged tells the list to drop its cache from that row
// onward. Without virtualization there is no cache and both calls are cheap
// no-ops.
package height

import (
	"github.com/rs/zerolog"

	"github.com/rshade/tablefold/internal/config"
)

// ExpandedAt reports whether the row at an index is expanded.
type ExpandedAt interface {
	IsExpandedAt(index int) bool
}

// Invalidator drops cached offsets for index and every index after it.
type Invalidator interface {
	InvalidateFrom(index int)
}

// Reconciler supplies row heights and keeps the offset cache coherent.
type Reconciler struct {
	rows         ExpandedAt
	rowHeight    int
	subRowHeight int
	invalidator  Invalidator
	logger       zerolog.Logger
}

// New returns a Reconciler. A nil cfg selects non-virtualized rendering:
// every row is one line tall and invalidation does nothing.
func New(rows ExpandedAt, cfg *config.VirtualisationConfig, logger zerolog.Logger) *Reconciler {
	r := &Reconciler{
		rows:         rows,
		rowHeight:    config.DefaultRowHeight,
		subRowHeight: config.DefaultRowHeight,
		logger:       logger,
	}
	if cfg != nil {
		r.rowHeight = cfg.RowHeight
		r.subRowHeight = cfg.SubRowHeight
	}
	return r
}

// Bind attaches the list whose cache must follow expansion changes.
func (r *Reconciler) Bind(inv Invalidator) {
	r.invalidator = inv
}

// Active reports whether changes reach a virtualized list.
func (r *Reconciler) Active() bool {
	return r.invalidator != nil
}

// HeightOf returns the rendered height of the row at index.
func (r *Reconciler) HeightOf(index int) int {
	if r.rows.IsExpandedAt(index) {
		return r.subRowHeight
	}
	return r.rowHeight
}

// OnExpansionChanged invalidates cached offsets from index onward.
func (r *Reconciler) OnExpansionChanged(index int) {
	if r.invalidator == nil {
		return
	}
	if index < 0 {
		index = 0
	}
	r.logger.Debug().
		Str("operation", "invalidate").
		Int("from_index", index).
		Msg("row heights changed")
	r.invalidator.InvalidateFrom(index)
}
