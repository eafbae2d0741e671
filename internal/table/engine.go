// Package table is the in-memory row engine behind the table body.
//
// It owns the ordered rows of the current data set and the per-row expansion
// flags. Expansion changes go through Dispatch, which computes the engine's
// native next state and then hands it to an optional StateReducer so callers
// can intercept and rewrite it before it is committed.
package table

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/tablefold/internal/rowkey"
)

// ActionType names an expansion action.
type ActionType string

// Expansion actions understood by Dispatch.
const (
	ActionToggleRowExpanded     ActionType = "toggleRowExpanded"
	ActionToggleAllRowsExpanded ActionType = "toggleAllRowsExpanded"
	ActionResetExpanded         ActionType = "resetExpanded"
)

// ClassNameField is the optional payload field carrying a per-row class.
const ClassNameField = "className"

// Action is a request to change expansion state.
// Value forces the target state when set; otherwise the action toggles.
type Action struct {
	Type  ActionType
	Key   rowkey.Key
	Value *bool
}

// State is the engine's reducible state.
type State struct {
	Expanded rowkey.Set
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{Expanded: s.Expanded.Clone()}
}

// StateReducer rewrites the engine's proposed next state.
// prevState is the committed state before the action.
type StateReducer func(newState State, action Action, prevState State) State

// Row is one entry of the current data set.
type Row struct {
	Index     int
	Key       rowkey.Key
	Expanded  bool
	ClassName string
	Values    map[string]any
}

// Value returns the payload field, or nil.
func (r Row) Value(field string) any {
	return r.Values[field]
}

// Change describes a committed state change.
type Change struct {
	// Reset is true when the row set itself was replaced.
	Reset  bool
	Action Action
	Before rowkey.Set
	After  rowkey.Set
}

// Listener is notified after every committed change.
type Listener func(Change)

// Engine holds rows and their expansion flags.
type Engine struct {
	keyOf     rowkey.Accessor
	data      []map[string]any
	rows      []Row
	index     map[rowkey.Key]int
	state     State
	reducer   StateReducer
	listeners []Listener
	logger    zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithKeyField reads row keys from the named payload field.
func WithKeyField(field string) Option {
	return func(e *Engine) {
		e.keyOf = rowkey.FieldAccessor(field)
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStateReducer installs a reducer applied after every action.
func WithStateReducer(r StateReducer) Option {
	return func(e *Engine) {
		e.reducer = r
	}
}

// New creates an engine over data.
func New(data []map[string]any, opts ...Option) *Engine {
	e := &Engine{
		keyOf: rowkey.FieldAccessor(rowkey.DefaultField),
		state:  State{Expanded: rowkey.NewSet()},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load(data)
	return e
}

// SetStateReducer replaces the installed reducer. Nil removes it.
func (e *Engine) SetStateReducer(r StateReducer) {
	e.reducer = r
}

// Subscribe registers l for change notifications.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

// SetData replaces the row set. Expansion state resets to empty and
// listeners receive a Reset change.
func (e *Engine) SetData(data []map[string]any) {
	before := e.state.Expanded.Clone()
	e.load(data)
	e.notify(Change{
		Reset:  true,
		Action: Action{Type: ActionResetExpanded},
		Before: before,
		After:  rowkey.NewSet(),
	})
}

func (e *Engine) load(data []map[string]any) {
	e.data = data
	e.rows = make([]Row, len(data))
	e.index = make(map[rowkey.Key]int, len(data))
	e.state = State{Expanded: rowkey.NewSet()}

	for i, values := range data {
		key, ok := e.keyOf(values)
		if !ok {
			key = rowkey.Key(fmt.Sprintf("row-%d", i))
		}
		className, _ := values[ClassNameField].(string)
		e.rows[i] = Row{
			Index:     i,
			Key:       key,
			ClassName: className,
			Values:    values,
		}
		// first row wins on duplicate keys
		if first, dup := e.index[key]; dup {
			e.logger.Debug().
				Str("key", string(key)).
				Int("index", i).
				Int("first_index", first).
				Msg("duplicate row key; lookups resolve to the first row")
			continue
		}
		e.index[key] = i
	}
}

// Data returns the current data set.
func (e *Engine) Data() []map[string]any {
	return e.data
}

// Len returns the number of rows.
func (e *Engine) Len() int {
	return len(e.rows)
}

// Rows returns a copy of the rows in order.
func (e *Engine) Rows() []Row {
	out := make([]Row, len(e.rows))
	copy(out, e.rows)
	return out
}

// Row returns the row at index.
func (e *Engine) Row(index int) (Row, bool) {
	if index < 0 || index >= len(e.rows) {
		return Row{}, false
	}
	return e.rows[index], true
}

// IndexOf returns the index of the row with key.
func (e *Engine) IndexOf(key rowkey.Key) (int, bool) {
	i, ok := e.index[key]
	return i, ok
}

// IsExpandedAt reports whether the row at index is expanded.
func (e *Engine) IsExpandedAt(index int) bool {
	if index < 0 || index >= len(e.rows) {
		return false
	}
	return e.rows[index].Expanded
}

// IsExpanded reports whether the row with key is expanded.
func (e *Engine) IsExpanded(key rowkey.Key) bool {
	return e.state.Expanded.Has(key)
}

// ExpandedKeys returns a copy of the expanded set.
func (e *Engine) ExpandedKeys() rowkey.Set {
	return e.state.Expanded.Clone()
}

// State returns a copy of the committed state.
func (e *Engine) State() State {
	return e.state.Clone()
}

// ToggleExpansion flips the expansion flag of the row with key.
// Unknown keys are ignored.
func (e *Engine) ToggleExpansion(key rowkey.Key) {
	e.Dispatch(Action{Type: ActionToggleRowExpanded, Key: key})
}

// SetExpanded forces the expansion flag of the row with key.
func (e *Engine) SetExpanded(key rowkey.Key, expanded bool) {
	e.Dispatch(Action{Type: ActionToggleRowExpanded, Key: key, Value: &expanded})
}

// ToggleAllExpanded expands every row, or collapses all of them when every
// row is already expanded.
func (e *Engine) ToggleAllExpanded() {
	e.Dispatch(Action{Type: ActionToggleAllRowsExpanded})
}

// Dispatch applies an action: native transition, then the reducer, then
// commit and notify. Nothing is notified when the expanded set is unchanged.
func (e *Engine) Dispatch(action Action) {
	prev := e.state.Clone()
	next := e.reduce(prev.Clone(), action)
	if e.reducer != nil {
		next = e.reducer(next, action, prev)
	}

	committed := rowkey.NewSet()
	for k := range next.Expanded {
		if _, ok := e.index[k]; ok {
			committed.Add(k)
		}
	}
	if committed.Equal(prev.Expanded) {
		return
	}

	e.state = State{Expanded: committed}
	for i := range e.rows {
		e.rows[i].Expanded = committed.Has(e.rows[i].Key) && e.index[e.rows[i].Key] == i
	}

	e.notify(Change{Action: action, Before: prev.Expanded, After: committed.Clone()})
}

// reduce is the engine's native behavior: rows toggle independently.
func (e *Engine) reduce(state State, action Action) State {
	switch action.Type {
	case ActionToggleRowExpanded:
		if _, ok := e.index[action.Key]; !ok {
			return state
		}
		expand := !state.Expanded.Has(action.Key)
		if action.Value != nil {
			expand = *action.Value
		}
		if expand {
			state.Expanded.Add(action.Key)
		} else {
			state.Expanded.Remove(action.Key)
		}

	case ActionToggleAllRowsExpanded:
		expand := len(state.Expanded) < len(e.index)
		if action.Value != nil {
			expand = *action.Value
		}
		state.Expanded = rowkey.NewSet()
		if expand {
			for k := range e.index {
				state.Expanded.Add(k)
			}
		}

	case ActionResetExpanded:
		state.Expanded = rowkey.NewSet()
	}

	return state
}

// LowestIndex returns the smallest row index among keys, or -1.
func (e *Engine) LowestIndex(keys rowkey.Set) int {
	lowest := -1
	for k := range keys {
		i, ok := e.index[k]
		if !ok {
			continue
		}
		if lowest < 0 || i < lowest {
			lowest = i
		}
	}
	return lowest
}

func (e *Engine) notify(c Change) {
	for _, l := range e.listeners {
		l(c)
	}
}
