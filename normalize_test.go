package qs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScalars(t *testing.T) {
	assert.Equal(t, Null{}, Normalize(nil))
	assert.Equal(t, Bool(true), Normalize(true))
	assert.Equal(t, String("x"), Normalize("x"))
	assert.Equal(t, Number(3), Normalize(3))
	assert.Equal(t, Number(3), Normalize(int64(3)))
	assert.Equal(t, Number(2.5), Normalize(2.5))
	assert.Equal(t, Bytes("raw"), Normalize([]byte("raw")))

	at := time.UnixMilli(7).UTC()
	assert.Equal(t, Time(at), Normalize(at))
}

func TestNormalizeCanonicalPassThrough(t *testing.T) {
	m := NewMap()
	m.Set("k", String("v"))
	assert.Same(t, m, Normalize(m))

	l := NewList(String("a"))
	assert.Same(t, l, Normalize(l))
}

func TestNormalizeContainers(t *testing.T) {
	v := Normalize(map[string]any{
		"a": "1",
		"b": []any{"x", 2, nil},
	})
	m, ok := v.(*Map)
	require.True(t, ok)
	assert.Equal(t, 2, m.Len())

	b, ok := m.Get("b")
	require.True(t, ok)
	assert.True(t, Equal(b, NewList(String("x"), Number(2), Null{})))
}

func TestNormalizeNonStringKeys(t *testing.T) {
	v := Normalize(map[any]any{1: "one"})
	m, ok := v.(*Map)
	require.True(t, ok)
	one, ok := m.Get("1")
	require.True(t, ok)
	assert.Equal(t, String("one"), one)

	v = Normalize(map[any]any{nil: "empty"})
	m, ok = v.(*Map)
	require.True(t, ok)
	empty, ok := m.Get("")
	require.True(t, ok)
	assert.Equal(t, String("empty"), empty)
}

func TestNormalizeMapKeyOrderDeterministic(t *testing.T) {
	v := Normalize(map[string]any{"b": "2", "d": "4", "a": "1", "c": "3"})
	m, ok := v.(*Map)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c", "d"}, m.Keys())

	v = Normalize(map[any]any{10: "x", 2: "y"})
	m, ok = v.(*Map)
	require.True(t, ok)
	// Sorted as text, not numerically.
	assert.Equal(t, []string{"10", "2"}, m.Keys())
}

func TestNormalizeTypedContainers(t *testing.T) {
	v := Normalize(map[string]int{"n": 7})
	m, ok := v.(*Map)
	require.True(t, ok)
	n, ok := m.Get("n")
	require.True(t, ok)
	assert.Equal(t, Number(7), n)

	v = Normalize([]string{"a", "b"})
	assert.True(t, Equal(v, NewList(String("a"), String("b"))))

	v = Normalize([2]int{1, 2})
	assert.True(t, Equal(v, NewList(Number(1), Number(2))))
}

func TestNormalizeSharedReference(t *testing.T) {
	shared := []any{"x"}
	v := Normalize(map[string]any{"a": shared, "b": shared})
	m, ok := v.(*Map)
	require.True(t, ok)
	a, _ := m.Get("a")
	b, _ := m.Get("b")
	assert.Same(t, a, b)
}

func TestNormalizeCyclic(t *testing.T) {
	root := map[string]any{}
	root["self"] = root

	v := Normalize(root)
	m, ok := v.(*Map)
	require.True(t, ok)
	self, ok := m.Get("self")
	require.True(t, ok)
	// The canonical map refers to itself, mirroring the source graph.
	assert.Same(t, Value(m), self)
}

func TestNormalizeNilSlicesAndMaps(t *testing.T) {
	var s []any
	var mp map[string]any
	assert.Equal(t, Null{}, Normalize(s))
	assert.Equal(t, Null{}, Normalize(mp))
}
