package qs

import (
	"bytes"
	"time"
)

// Value is a sealed interface representing the closed set of types the codec
// operates on. Only Undefined, Null, Bool, Number, String, Bytes, Time, Map,
// List, and Set implement it. Foreign Go containers are converted to these
// via Normalize before any algorithm touches them.
type Value interface {
	value() // Sealed - only these types implement it
}

// Undefined is a sentinel meaning "omit this entry". It can appear inside
// intermediate structures during a decode (sparse list slots, dropped
// callback results) but never in a finished Decode result: the compaction
// pass strips it.
type Undefined struct{}

func (Undefined) value() {}

// Null represents an explicit null value, produced for bare keys under
// strict null handling and accepted as a leaf on encode.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean leaf.
type Bool bool

func (Bool) value() {}

// Number represents a numeric leaf. One float64-backed type covers the
// closed sum's Number arm; text form is invariant-culture decimal.
type Number float64

func (Number) value() {}

// String represents a text leaf.
type String string

func (String) value() {}

// Bytes represents an already-decoded byte leaf. It is passed through the
// encoder as text without further interpretation.
type Bytes []byte

func (Bytes) value() {}

// Time represents a date/time leaf. Default text form is millisecond UTC
// ISO-8601; EncodeOptions.DateSerializer overrides it.
type Time time.Time

func (Time) value() {}

// noOverflow marks a Map that was not produced by list promotion.
const noOverflow = -1

// Map is the canonical associative container: string-keyed with insertion
// order preserved. A Map produced by promoting an over-limit List carries an
// overflow counter tracking the next free sequential integer-string key so
// that repeated merges keep appending instead of colliding with genuine
// numeric-looking keys (a pre-existing "010" never perturbs the sequence).
type Map struct {
	keys     []string
	items    map[string]Value
	overflow int
}

// NewMap creates an empty canonical map.
func NewMap() *Map {
	return &Map{items: make(map[string]Value), overflow: noOverflow}
}

func (*Map) value() {}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Set stores v under key, appending the key to the insertion order if new.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = v
}

// Delete removes key and its slot in the insertion order.
func (m *Map) Delete(key string) {
	if _, ok := m.items[key]; !ok {
		return
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// HasOverflow reports whether this map was produced by list promotion and
// still tracks an append counter.
func (m *Map) HasOverflow() bool {
	return m.overflow != noOverflow
}

// List is the canonical sequence container. Slots may hold Undefined while a
// decode is in flight (sparse numeric indices); compaction removes them.
type List struct {
	items []Value
}

// NewList creates a list holding vals.
func NewList(vals ...Value) *List {
	return &List{items: vals}
}

func (*List) value() {}

// Len returns the number of slots, including Undefined ones.
func (l *List) Len() int {
	return len(l.items)
}

// At returns the value at index i.
func (l *List) At(i int) Value {
	return l.items[i]
}

// SetAt stores v at index i, growing the list with Undefined slots as needed.
func (l *List) SetAt(i int, v Value) {
	for len(l.items) <= i {
		l.items = append(l.items, Undefined{})
	}
	l.items[i] = v
}

// Append adds v at the end.
func (l *List) Append(v Value) {
	l.items = append(l.items, v)
}

// Values returns the underlying slots. The slice is a copy.
func (l *List) Values() []Value {
	vals := make([]Value, len(l.items))
	copy(vals, l.items)
	return vals
}

// Set is an order-preserving collection with union-by-equality semantics.
type Set struct {
	items []Value
}

// NewSet creates a set holding vals, deduplicated in order.
func NewSet(vals ...Value) *Set {
	s := &Set{}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

func (*Set) value() {}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.items)
}

// Has reports whether v is already a member (structural equality).
func (s *Set) Has(v Value) bool {
	for _, item := range s.items {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// Add inserts v unless an equal member exists.
func (s *Set) Add(v Value) {
	if !s.Has(v) {
		s.items = append(s.items, v)
	}
}

// Values returns the members in insertion order. The slice is a copy.
func (s *Set) Values() []Value {
	vals := make([]Value, len(s.items))
	copy(vals, s.items)
	return vals
}

// isContainer reports whether v is a Map, List, or Set.
func isContainer(v Value) bool {
	switch v.(type) {
	case *Map, *List, *Set:
		return true
	}
	return false
}

// isScalar reports whether v is a leaf (including Null, excluding Undefined).
func isScalar(v Value) bool {
	switch v.(type) {
	case Null, Bool, Number, String, Bytes, Time:
		return true
	}
	return false
}

func isUndefined(v Value) bool {
	_, ok := v.(Undefined)
	return v == nil || ok
}

// eqPair keys the visited table for structural equality. Containers are
// pointers, so the pair is comparable.
type eqPair struct {
	a, b Value
}

// Equal reports structural equality of two values. Container comparison is
// cycle-safe: a pair of containers already under comparison on the current
// path is assumed equal, which makes equal cyclic shapes compare true and
// guarantees termination.
func Equal(a, b Value) bool {
	return equal(a, b, make(map[eqPair]bool))
}

func equal(a, b Value, visiting map[eqPair]bool) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytes.Equal(av, bv)
	case Time:
		bv, ok := b.(Time)
		return ok && time.Time(av).Equal(time.Time(bv))
	case *Map:
		bv, ok := b.(*Map)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		pair := eqPair{a, b}
		if visiting[pair] {
			return true
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		if len(av.keys) != len(bv.keys) {
			return false
		}
		for i, k := range av.keys {
			if bv.keys[i] != k || !equal(av.items[k], bv.items[k], visiting) {
				return false
			}
		}
		return true
	case *List:
		bv, ok := b.(*List)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		pair := eqPair{a, b}
		if visiting[pair] {
			return true
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		if len(av.items) != len(bv.items) {
			return false
		}
		for i := range av.items {
			if !equal(av.items[i], bv.items[i], visiting) {
				return false
			}
		}
		return true
	case *Set:
		bv, ok := b.(*Set)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		pair := eqPair{a, b}
		if visiting[pair] {
			return true
		}
		visiting[pair] = true
		defer delete(visiting, pair)
		if len(av.items) != len(bv.items) {
			return false
		}
		for i := range av.items {
			if !equal(av.items[i], bv.items[i], visiting) {
				return false
			}
		}
		return true
	}
	return false
}

// ToGo converts a canonical Value back into plain Go containers
// (map[string]any, []any, scalars). Cycles are preserved: the same source
// container always maps to the same Go container. Map insertion order is
// necessarily lost.
func ToGo(v Value) any {
	return toGo(v, make(map[Value]any))
}

func toGo(v Value, visited map[Value]any) any {
	switch val := v.(type) {
	case nil, Undefined:
		return nil
	case Null:
		return nil
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case String:
		return string(val)
	case Bytes:
		return []byte(val)
	case Time:
		return time.Time(val)
	case *Map:
		if out, ok := visited[v]; ok {
			return out
		}
		out := make(map[string]any, len(val.keys))
		visited[v] = out
		for _, k := range val.keys {
			out[k] = toGo(val.items[k], visited)
		}
		return out
	case *List:
		if out, ok := visited[v]; ok {
			return out
		}
		out := make([]any, len(val.items))
		outAny := any(out)
		visited[v] = outAny
		for i, item := range val.items {
			out[i] = toGo(item, visited)
		}
		return outAny
	case *Set:
		if out, ok := visited[v]; ok {
			return out
		}
		out := make([]any, len(val.items))
		outAny := any(out)
		visited[v] = outAny
		for i, item := range val.items {
			out[i] = toGo(item, visited)
		}
		return outAny
	}
	return nil
}
