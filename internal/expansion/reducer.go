package expansion

import (
	"github.com/rshade/tablefold/internal/rowkey"
	"github.com/rshade/tablefold/internal/table"
)

// Narrow is a table.StateReducer enforcing single expansion.
// Among several newly expanded keys it keeps the action's key, else the
// smallest key.
func Narrow(newState table.State, action table.Action, prevState table.State) table.State {
	return narrow(newState, action, prevState, nil)
}

// NarrowOrdered is Narrow with ties broken by row position instead of key
// order. Keys without a position lose to keys with one.
func NarrowOrdered(position func(rowkey.Key) (int, bool)) table.StateReducer {
	return func(newState table.State, action table.Action, prevState table.State) table.State {
		return narrow(newState, action, prevState, position)
	}
}

func narrow(
	newState table.State,
	action table.Action,
	prevState table.State,
	position func(rowkey.Key) (int, bool),
) table.State {
	if action.Type != table.ActionToggleRowExpanded && action.Type != table.ActionToggleAllRowsExpanded {
		return newState
	}
	if len(newState.Expanded) <= 1 {
		return newState
	}

	added := newState.Expanded.Difference(prevState.Expanded)
	switch len(added) {
	case 0:
		// pure collapse
		return newState
	case 1:
		return table.State{Expanded: added}
	}

	if action.Key != "" && added.Has(action.Key) {
		return table.State{Expanded: rowkey.NewSet(action.Key)}
	}
	return table.State{Expanded: rowkey.NewSet(first(added, position))}
}

func first(keys rowkey.Set, position func(rowkey.Key) (int, bool)) rowkey.Key {
	sorted := keys.Sorted()
	if position == nil {
		return sorted[0]
	}

	best := sorted[0]
	bestPos, bestOK := position(best)
	for _, k := range sorted[1:] {
		pos, ok := position(k)
		if ok && (!bestOK || pos < bestPos) {
			best, bestPos, bestOK = k, pos, true
		}
	}
	return best
}
