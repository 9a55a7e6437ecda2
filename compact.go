package qs

// compact strips Undefined entries from every container reachable from root
// and clears residual overflow counters, leaving a canonical result. List
// slots holding Undefined become Null when allowSparse is set, otherwise
// the slot is removed and later elements shift down. Compaction is
// idempotent and cycle-safe: the traversal is an explicit work stack over an
// identity-visited set, so deeply nested or self-referential input neither
// overflows the stack nor loops.
func compact(root Value, allowSparse bool) Value {
	if !isContainer(root) {
		return root
	}
	visited := map[Value]bool{root: true}
	stack := []Value{root}
	var containers []Value
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		containers = append(containers, v)
		for _, child := range children(v) {
			if isContainer(child) && !visited[child] {
				visited[child] = true
				stack = append(stack, child)
			}
		}
	}
	for _, v := range containers {
		switch c := v.(type) {
		case *List:
			if allowSparse {
				for i, item := range c.items {
					if isUndefined(item) {
						c.items[i] = Null{}
					}
				}
				continue
			}
			kept := c.items[:0]
			for _, item := range c.items {
				if !isUndefined(item) {
					kept = append(kept, item)
				}
			}
			c.items = kept
		case *Map:
			for _, k := range c.Keys() {
				if isUndefined(c.items[k]) {
					c.Delete(k)
				}
			}
			c.overflow = noOverflow
		case *Set:
			kept := c.items[:0]
			for _, item := range c.items {
				if !isUndefined(item) {
					kept = append(kept, item)
				}
			}
			c.items = kept
		}
	}
	return root
}

// children returns a container's immediate child values in order.
func children(v Value) []Value {
	switch c := v.(type) {
	case *Map:
		out := make([]Value, 0, len(c.keys))
		for _, k := range c.keys {
			out = append(out, c.items[k])
		}
		return out
	case *List:
		return c.items
	case *Set:
		return c.items
	}
	return nil
}
