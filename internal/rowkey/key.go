// Package rowkey identifies table rows by a stable key read from a
// caller-chosen field of the row payload.
package rowkey

import (
	"fmt"
	"sort"
	"strconv"
)

// DefaultField is the payload field used as the row key when none is configured.
const DefaultField = "id"

// Key is the canonical string form of a row's key field.
type Key string

// Ptr returns a pointer to k, for use as a selection signal.
func (k Key) Ptr() *Key {
	return &k
}

// Accessor extracts the key of a row payload.
type Accessor func(values map[string]any) (Key, bool)

// FieldAccessor returns an Accessor reading the named field.
// An empty field name falls back to DefaultField.
func FieldAccessor(field string) Accessor {
	if field == "" {
		field = DefaultField
	}
	return func(values map[string]any) (Key, bool) {
		v, ok := values[field]
		if !ok || v == nil {
			return "", false
		}
		return Of(v), true
	}
}

// Of converts an arbitrary key value to its canonical Key.
// Integral numbers render without a fractional part so that 1, 1.0 and "1"
// identify the same row.
func Of(v any) Key {
	switch t := v.(type) {
	case Key:
		return t
	case string:
		return Key(t)
	case int:
		return Key(strconv.Itoa(t))
	case int64:
		return Key(strconv.FormatInt(t, 10))
	case uint64:
		return Key(strconv.FormatUint(t, 10))
	case float64:
		if t == float64(int64(t)) {
			return Key(strconv.FormatInt(int64(t), 10))
		}
		return Key(strconv.FormatFloat(t, 'g', -1, 64))
	case bool:
		return Key(strconv.FormatBool(t))
	case fmt.Stringer:
		return Key(t.String())
	default:
		return Key(fmt.Sprint(v))
	}
}

// Equal reports whether a signal points at key. A nil signal matches nothing.
func Equal(signal *Key, key Key) bool {
	return signal != nil && *signal == key
}

// SameSignal reports whether two selection signals identify the same row.
func SameSignal(a, b *Key) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Set is an unordered set of keys.
type Set map[Key]struct{}

// NewSet builds a set from keys.
func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Add inserts k.
func (s Set) Add(k Key) {
	s[k] = struct{}{}
}

// Remove deletes k.
func (s Set) Remove(k Key) {
	delete(s, k)
}

// Clone returns an independent copy. Cloning a nil set yields an empty set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the keys in ascending order.
func (s Set) Sorted() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Difference returns the keys in s that are not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for k := range s {
		if !other.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold the same keys.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}
