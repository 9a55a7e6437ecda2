package qs

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// refID identifies a foreign container by reference, not by structure.
// Maps, slices, and pointers get their data pointer; the kind disambiguates
// a map and a slice that happen to share an address.
type refID struct {
	ptr  uintptr
	kind reflect.Kind
}

// normalizer canonicalizes arbitrary foreign map/list/scalar graphs into the
// Value union. The visited table is keyed by source reference identity; the
// canonical counterpart is registered before recursing into children, which
// is what makes cycles terminate and preserves identity on reentry.
type normalizer struct {
	visited map[refID]Value
}

// Normalize converts an arbitrary Go value into a canonical Value. Already
// canonical values pass through unchanged (their children included). Foreign
// maps are unordered, so their entries are inserted in sorted key order;
// non-string keys stringify via their text representation and a nil key
// normalizes to the empty string. Self-referential inputs are
// preserved by identity and never cause non-termination.
func Normalize(input any) Value {
	n := &normalizer{visited: make(map[refID]Value)}
	return n.normalize(input)
}

func (n *normalizer) normalize(input any) Value {
	switch v := input.(type) {
	case nil:
		return Null{}
	case Value:
		return v
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case []byte:
		return Bytes(v)
	case time.Time:
		return Time(v)
	case int:
		return Number(v)
	case int8:
		return Number(v)
	case int16:
		return Number(v)
	case int32:
		return Number(v)
	case int64:
		return Number(v)
	case uint:
		return Number(v)
	case uint8:
		return Number(v)
	case uint16:
		return Number(v)
	case uint32:
		return Number(v)
	case uint64:
		return Number(v)
	case float32:
		return Number(v)
	case float64:
		return Number(v)
	}
	return n.normalizeReflect(reflect.ValueOf(input))
}

func (n *normalizer) normalizeReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}
		}
		return n.normalize(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return Null{}
		}
		id := refID{ptr: rv.Pointer(), kind: reflect.Map}
		if seen, ok := n.visited[id]; ok {
			return seen
		}
		out := NewMap()
		n.visited[id] = out
		// Go map iteration order is randomized; sorted stringified keys make
		// the canonical insertion order deterministic.
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		entries := make(map[string]reflect.Value, len(keys))
		for i, mk := range keys {
			name := stringifyKey(mk)
			names[i] = name
			entries[name] = rv.MapIndex(mk)
		}
		sort.Strings(names)
		for _, name := range names {
			out.Set(name, n.normalizeEntry(entries[name]))
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}
		}
		id := refID{ptr: rv.Pointer(), kind: reflect.Slice}
		if seen, ok := n.visited[id]; ok {
			return seen
		}
		out := NewList()
		n.visited[id] = out
		for i := 0; i < rv.Len(); i++ {
			out.Append(n.normalizeEntry(rv.Index(i)))
		}
		return out
	case reflect.Array:
		out := NewList()
		for i := 0; i < rv.Len(); i++ {
			out.Append(n.normalizeEntry(rv.Index(i)))
		}
		return out
	}
	// Anything else (struct, chan, func) has no canonical form; its text
	// representation becomes a String leaf.
	return String(fmt.Sprint(rv.Interface()))
}

func (n *normalizer) normalizeEntry(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Null{}
	}
	if rv.Kind() == reflect.Interface && rv.IsNil() {
		return Null{}
	}
	return n.normalize(rv.Interface())
}

// stringifyKey converts a non-string map key to its text representation.
// A key that stringifies to nothing (nil) normalizes to the empty string.
func stringifyKey(rv reflect.Value) string {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
		return ""
	}
	return fmt.Sprint(rv.Interface())
}
