package qs

import "strconv"

// merger combines two canonical values at a shared key path. The visiting
// table is keyed by (target, source) identity so self-referential inputs
// terminate and keep their identity; merge never fails on cycles.
type merger struct {
	cfg      *decodeConfig
	visiting map[eqPair]bool
}

// mergeValues merges source into target under cfg's limits and returns the
// combined value. Both sides must already be canonical.
func mergeValues(target, source Value, cfg *decodeConfig) (Value, error) {
	m := &merger{cfg: cfg, visiting: make(map[eqPair]bool)}
	return m.merge(target, source)
}

func (m *merger) merge(target, source Value) (Value, error) {
	if isUndefined(source) {
		return target, nil
	}
	if isUndefined(target) {
		return source, nil
	}
	if isContainer(target) && isContainer(source) {
		pair := eqPair{target, source}
		if m.visiting[pair] {
			return target, nil
		}
		m.visiting[pair] = true
		defer delete(m.visiting, pair)
	}

	// A bare scalar source acts as a literal key on a map target, appends
	// to a list target, and pairs up with a scalar target.
	if !isContainer(source) {
		switch t := target.(type) {
		case *List:
			return m.appendTo(t, source)
		case *Map:
			t.Set(scalarText(source, nil), Bool(true))
			return t, nil
		case *Set:
			t.Add(source)
			return t, nil
		default:
			if _, ok := source.(Null); ok {
				return target, nil
			}
			// A value appeared without, then with, a key.
			return NewList(target, source), nil
		}
	}

	// Container source into a non-container target: an explicit Null gives
	// way to the source entirely, a map source pairs up with the scalar as a
	// two-element list, and a sequence source prepends the scalar.
	if !isContainer(target) {
		if _, ok := target.(Null); ok {
			return source, nil
		}
		if _, ok := source.(*Map); ok {
			return NewList(target, source), nil
		}
		return m.merge(NewList(target), source)
	}

	switch t := target.(type) {
	case *List:
		switch s := source.(type) {
		case *List:
			return m.mergeListList(t, s)
		case *Set:
			// Set into List promotes to a List: order-preserving append.
			out := Value(t)
			var err error
			for _, item := range s.Values() {
				if out, err = m.appendAny(out, item); err != nil {
					return nil, err
				}
			}
			return out, nil
		case *Map:
			// List to Map promotion is monotonic, never reversed.
			return m.mergeMapMap(listToMap(t), s)
		}
	case *Set:
		switch s := source.(type) {
		case *List:
			for _, item := range s.Values() {
				if !isUndefined(item) {
					t.Add(item)
				}
			}
			return t, nil
		case *Set:
			for _, item := range s.Values() {
				t.Add(item)
			}
			return t, nil
		case *Map:
			t.Add(s)
			return t, nil
		}
	case *Map:
		switch s := source.(type) {
		case *Map:
			return m.mergeMapMap(t, s)
		case *List:
			if t.HasOverflow() {
				// Promoted maps keep appending at the overflow counter.
				var err error
				out := Value(t)
				for _, item := range s.Values() {
					if isUndefined(item) {
						continue
					}
					if out, err = m.appendAny(out, item); err != nil {
						return nil, err
					}
				}
				return out, nil
			}
			return m.mergeMapMap(t, listToMap(s))
		case *Set:
			return m.mergeMapMap(t, listToMap(NewList(s.Values()...)))
		}
	}
	return target, nil
}

// mergeListList merges source slots into target positionally: a defined
// source slot merges into an occupied target slot when both sides are
// containers, otherwise appends; slots past the target's length extend it.
// Undefined source slots are dropped.
func (m *merger) mergeListList(target, source *List) (Value, error) {
	out := Value(target)
	for i, item := range source.items {
		if isUndefined(item) {
			continue
		}
		list, ok := out.(*List)
		if !ok {
			// Overflow promoted mid-merge; keep appending at the counter.
			var err error
			if out, err = m.appendAny(out, item); err != nil {
				return nil, err
			}
			continue
		}
		if i < len(list.items) {
			existing := list.items[i]
			switch {
			case isUndefined(existing):
				list.items[i] = item
			case isContainer(existing) && isContainer(item):
				merged, err := m.merge(existing, item)
				if err != nil {
					return nil, err
				}
				list.items[i] = merged
			default:
				var err error
				if out, err = m.appendAny(out, item); err != nil {
					return nil, err
				}
			}
			continue
		}
		if i > len(list.items) {
			// Preserve the slot position; holes compact away later.
			if i <= m.cfg.listLimit {
				list.SetAt(i, item)
				continue
			}
			if err := m.limitExceeded(i); err != nil {
				return nil, err
			}
			promoted := listToMap(list)
			promoted.Set(strconv.Itoa(i), item)
			promoted.overflow = i + 1
			out = promoted
			continue
		}
		var err error
		if out, err = m.appendAny(out, item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *merger) mergeMapMap(target, source *Map) (Value, error) {
	for _, key := range source.keys {
		sv := source.items[key]
		if tv, ok := target.items[key]; ok {
			merged, err := m.merge(tv, sv)
			if err != nil {
				return nil, err
			}
			target.items[key] = merged
		} else {
			target.Set(key, sv)
		}
	}
	return target, nil
}

// appendTo appends v to list, promoting it to a map once the next index
// would exceed the list limit. Returns the container to use from then on.
func (m *merger) appendTo(list *List, v Value) (Value, error) {
	next := len(list.items)
	if next <= m.cfg.listLimit {
		list.Append(v)
		return list, nil
	}
	if err := m.limitExceeded(next); err != nil {
		return nil, err
	}
	promoted := listToMap(list)
	promoted.Set(strconv.Itoa(promoted.overflow), v)
	promoted.overflow++
	return promoted, nil
}

// appendAny appends v to a list or an overflow-promoted map.
func (m *merger) appendAny(container Value, v Value) (Value, error) {
	switch c := container.(type) {
	case *List:
		return m.appendTo(c, v)
	case *Map:
		if c.HasOverflow() {
			c.Set(strconv.Itoa(c.overflow), v)
			c.overflow++
			return c, nil
		}
		c.Set(strconv.Itoa(c.Len()), v)
		return c, nil
	}
	return container, nil
}

// limitExceeded is called when an append runs past the list limit. Failing
// is opt-in; the silent path promotes the list to a map instead.
func (m *merger) limitExceeded(index int) error {
	if m.cfg.throwOnLimitExceeded {
		return newError(ErrCodeLimitExceeded, "list limit exceeded: index %d over limit %d", index, m.cfg.listLimit)
	}
	return nil
}

// listToMap converts a list's positions to string-numeric keys. Undefined
// slots are dropped; the overflow counter starts at the list's length so
// later appends continue the sequence regardless of the keys' text.
func listToMap(l *List) *Map {
	out := NewMap()
	for i, item := range l.items {
		if !isUndefined(item) {
			out.Set(strconv.Itoa(i), item)
		}
	}
	out.overflow = len(l.items)
	return out
}
