// Package expansion keeps at most one table row expanded.
//
// The Controller sits between user intents (row activation, an externally
// selected row, a replaced data set) and the row engine. It installs a state
// reducer on the engine that narrows any multi-row expansion down to the
// newly expanded row, then reports the lowest row index whose height may have
// changed so the virtualized list can drop stale offsets before the next paint.
package expansion

import (
	"github.com/rs/zerolog"

	"github.com/rshade/tablefold/internal/rowkey"
	"github.com/rshade/tablefold/internal/table"
)

// Engine is the row engine the controller drives.
type Engine interface {
	IndexOf(key rowkey.Key) (int, bool)
	IsExpanded(key rowkey.Key) bool
	ExpandedKeys() rowkey.Set
	ToggleExpansion(key rowkey.Key)
	SetExpanded(key rowkey.Key, expanded bool)
	Dispatch(action table.Action)
	LowestIndex(keys rowkey.Set) int
	SetStateReducer(r table.StateReducer)
}

// Notifier receives the lowest row index affected by a transition.
type Notifier interface {
	OnExpansionChanged(index int)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(index int)

// OnExpansionChanged calls f.
func (f NotifierFunc) OnExpansionChanged(index int) {
	f(index)
}

// Controller owns the single-expansion invariant.
type Controller struct {
	engine   Engine
	notifier Notifier
	logger   zerolog.Logger

	signal *rowkey.Key

	// busy is set while a transition runs; operations arriving meanwhile
	// wait in pending and run in arrival order.
	busy    bool
	pending []func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the index notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController wraps engine and installs the narrowing reducer on it.
func NewController(engine Engine, opts ...Option) *Controller {
	c := &Controller{
		engine: engine,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	engine.SetStateReducer(NarrowOrdered(engine.IndexOf))
	return c
}

// SetNotifier replaces the index notifier. Nil disables notification.
func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

// Signal returns the selection signal last reconciled, or nil.
func (c *Controller) Signal() *rowkey.Key {
	if c.signal == nil {
		return nil
	}
	return c.signal.Ptr()
}

// Expanded returns the expanded row key, if any.
func (c *Controller) Expanded() (rowkey.Key, bool) {
	for k := range c.engine.ExpandedKeys() {
		return k, true
	}
	return "", false
}

// Toggle collapses the row if it is expanded, otherwise expands it and
// collapses every other row. Unknown keys are ignored.
func (c *Controller) Toggle(key rowkey.Key) {
	c.run("toggle", key, false, func() {
		if _, ok := c.engine.IndexOf(key); !ok {
			return
		}
		c.engine.ToggleExpansion(key)
		if c.engine.IsExpanded(key) {
			c.collapseAllExcept(key.Ptr())
		}
	})
}

// Collapse collapses the row if it is expanded.
func (c *Controller) Collapse(key rowkey.Key) {
	c.run("collapse", key, false, func() {
		if c.engine.IsExpanded(key) {
			c.engine.SetExpanded(key, false)
		}
	})
}

// ReconcileSelection makes the signalled row the only expanded one.
// A nil signal, or one naming an unknown row, collapses everything.
// Reconciling an already consistent state changes nothing.
func (c *Controller) ReconcileSelection(signal *rowkey.Key) {
	var key rowkey.Key
	if signal != nil {
		key = *signal
		signal = key.Ptr()
	}

	c.run("reconcile_selection", key, false, func() {
		c.signal = signal
		if signal != nil {
			if _, ok := c.engine.IndexOf(*signal); ok && !c.engine.IsExpanded(*signal) {
				c.engine.SetExpanded(*signal, true)
			}
		}
		c.collapseAllExcept(signal)
	})
}

// Reset handles a replaced row set: every row collapses and the whole
// height table is reported stale.
func (c *Controller) Reset() {
	c.run("reset", "", true, func() {
		c.signal = nil
		c.engine.Dispatch(table.Action{Type: table.ActionResetExpanded})
	})
}

func (c *Controller) collapseAllExcept(keep *rowkey.Key) {
	for _, k := range c.engine.ExpandedKeys().Sorted() {
		if !rowkey.Equal(keep, k) {
			c.engine.SetExpanded(k, false)
		}
	}
}

// run executes op as one transition and notifies the lowest changed index.
func (c *Controller) run(op string, key rowkey.Key, fromStart bool, fn func()) {
	transition := func() {
		before := c.engine.ExpandedKeys()
		fn()
		after := c.engine.ExpandedKeys()

		changed := before.Difference(after)
		for k := range after.Difference(before) {
			changed.Add(k)
		}

		index := c.engine.LowestIndex(changed)
		if fromStart {
			index = 0
		}

		c.logger.Debug().
			Str("operation", op).
			Str("key", string(key)).
			Int("changed", len(changed)).
			Int("lowest_index", index).
			Msg("expansion transition")

		if index >= 0 && c.notifier != nil {
			c.notifier.OnExpansionChanged(index)
		}
	}

	if c.busy {
		c.logger.Debug().Str("operation", op).Msg("queued behind in-flight transition")
		c.pending = append(c.pending, transition)
		return
	}

	c.busy = true
	defer func() { c.busy = false }()

	transition()
	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]
		next()
	}
}
