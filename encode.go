package qs

import (
	"sort"
	"strconv"
	"strings"
)

// Encode serializes input into query-string text. Foreign Go containers are
// normalized first; a non-container root (after an optional root filter
// substitution) encodes to the empty string. Cyclic input is rejected with a
// CYCLIC_REFERENCE error: unlike Decode, the encoder cannot give a cycle a
// finite text form.
func Encode(input any, opts *EncodeOptions) (string, error) {
	cfg, err := resolveEncodeOptions(opts)
	if err != nil {
		return "", err
	}

	obj := Normalize(input)
	if f, ok := cfg.filter.(FuncFilter); ok {
		obj = f("", obj)
	}
	if !isContainer(obj) {
		return "", nil
	}

	parts, err := cfg.walk(obj)
	if err != nil {
		return "", err
	}
	joined := strings.Join(parts, cfg.delimiter)
	if joined == "" {
		return "", nil
	}

	var prefix string
	if cfg.addQueryPrefix {
		prefix = "?"
	}
	if cfg.charsetSentinel {
		if cfg.charset == CharsetLatin1 {
			prefix += sentinelLatin1 + cfg.delimiter
		} else {
			prefix += sentinelUTF8 + cfg.delimiter
		}
	}
	return prefix + joined, nil
}

// encItem is one unit of encoder work: either a value to render under a
// key-path prefix, or an exit marker releasing a container from the
// ancestor set once its subtree is done.
type encItem struct {
	v      Value
	prefix string
	exit   bool
}

// walk renders the tree into ordered key=value parts. The traversal is an
// explicit LIFO work stack (children pushed in reverse so they pop in
// order), with an ancestor-identity set per recursion path: reencountering
// a container already on the path is a cyclic reference.
func (cfg *encodeConfig) walk(root Value) ([]string, error) {
	var parts []string
	ancestors := make(map[Value]bool)
	stack := make([]encItem, 0, 16)

	push := func(items []encItem) {
		for i := len(items) - 1; i >= 0; i-- {
			stack = append(stack, items[i])
		}
	}

	rootChildren, err := cfg.childItems(root, "", true)
	if err != nil {
		return nil, err
	}
	ancestors[root] = true
	stack = append(stack, encItem{v: root, exit: true})
	push(rootChildren)

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.exit {
			delete(ancestors, it.v)
			continue
		}

		v := it.v
		if f, ok := cfg.filter.(FuncFilter); ok {
			v = f(it.prefix, v)
		}
		if isUndefined(v) {
			continue
		}
		if t, ok := v.(Time); ok {
			v = String(scalarText(t, cfg.serializeDate))
		}
		if _, isNull := v.(Null); isNull && cfg.skipNulls {
			continue
		}

		if !isContainer(v) {
			parts = append(parts, cfg.renderLeaf(it.prefix, v, false))
			continue
		}

		if ancestors[v] {
			return nil, newError(ErrCodeCyclicReference, "cyclic reference at %q", it.prefix)
		}

		if part, done := cfg.renderCommaList(it.prefix, v); done {
			if part != "" {
				parts = append(parts, part)
			}
			continue
		}

		if l, ok := v.(*List); ok && l.Len() == 0 {
			if cfg.allowEmptyLists {
				parts = append(parts, it.prefix+"[]")
			}
			continue
		}

		children, err := cfg.childItems(v, it.prefix, false)
		if err != nil {
			return nil, err
		}
		ancestors[v] = true
		stack = append(stack, encItem{v: v, exit: true})
		push(children)
	}
	return parts, nil
}

// renderCommaList handles a list under the Comma strategy, joining its
// scalar children into one value at the unchanged prefix. Lists holding
// container children are left to the caller (they fall back to Indices).
// The second return reports whether the list was consumed.
func (cfg *encodeConfig) renderCommaList(prefix string, v Value) (string, bool) {
	if cfg.listFormat != ListFormatComma {
		return "", false
	}
	l, ok := v.(*List)
	if !ok {
		return "", false
	}
	if l.Len() == 0 {
		if cfg.allowEmptyLists {
			return prefix + "[]", true
		}
		return "", true
	}
	texts := make([]string, 0, l.Len())
	for _, item := range l.items {
		if isContainer(item) {
			return "", false
		}
		text := scalarText(item, cfg.serializeDate)
		if cfg.encode && cfg.encodeValuesOnly {
			// Elements encode individually so a literal comma inside one
			// survives as %2C while the separators stay bare.
			text = cfg.encodeToken(String(text))
		}
		texts = append(texts, text)
	}
	if cfg.commaRoundTrip && l.Len() == 1 {
		// Re-add brackets so a single element decodes back to a list.
		prefix += "[]"
	}
	joined := strings.Join(texts, ",")
	if joined == "" {
		return cfg.renderLeaf(prefix, Null{}, false), true
	}
	preEncoded := cfg.encode && cfg.encodeValuesOnly
	return cfg.renderLeaf(prefix, String(joined), preEncoded), true
}

// childItems enumerates a container's children as work items in visit
// order: an iterable filter restricts and orders the keys, a sort callback
// reorders them, and the list-format strategy shapes each child's key path.
// At the root the child key itself is the path.
func (cfg *encodeConfig) childItems(v Value, prefix string, isRoot bool) ([]encItem, error) {
	var keys []string
	if f, ok := cfg.filter.(IterableFilter); ok {
		keys = []string(f)
	} else {
		keys = naturalKeys(v)
	}
	if cfg.sort != nil {
		sorted := make([]string, len(keys))
		copy(sorted, keys)
		sort.SliceStable(sorted, func(i, j int) bool { return cfg.sort(sorted[i], sorted[j]) < 0 })
		keys = sorted
	}

	_, isMap := v.(*Map)
	items := make([]encItem, 0, len(keys))
	for _, key := range keys {
		child := childOf(v, key)
		var childPrefix string
		switch {
		case isRoot:
			childPrefix = cfg.escapeKeyName(key)
		case isMap:
			name := cfg.escapeKeyName(key)
			if cfg.allowDots {
				childPrefix = prefix + "." + name
			} else {
				childPrefix = prefix + "[" + name + "]"
			}
		default:
			switch cfg.listFormat {
			case ListFormatBrackets:
				childPrefix = prefix + "[]"
			case ListFormatRepeat:
				childPrefix = prefix
			default:
				// Indices, and the Comma fallback for container children.
				childPrefix = prefix + "[" + key + "]"
			}
		}
		items = append(items, encItem{v: child, prefix: childPrefix})
	}
	return items, nil
}

// naturalKeys returns a container's own key order: map insertion order,
// list and set positions as decimal strings.
func naturalKeys(v Value) []string {
	switch c := v.(type) {
	case *Map:
		return c.Keys()
	case *List:
		keys := make([]string, c.Len())
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	case *Set:
		keys := make([]string, c.Len())
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return nil
}

func childOf(v Value, key string) Value {
	switch c := v.(type) {
	case *Map:
		if child, ok := c.Get(key); ok {
			return child
		}
	case *List:
		if i, ok := canonicalIndex(key); ok && i < c.Len() {
			return c.At(i)
		}
	case *Set:
		if i, ok := canonicalIndex(key); ok && i < c.Len() {
			return c.items[i]
		}
	}
	return Undefined{}
}

// escapeKeyName rewrites literal dots inside a key name to %2E. Separators
// added around the name are never touched.
func (cfg *encodeConfig) escapeKeyName(name string) string {
	if cfg.encodeDotInKeys {
		return strings.ReplaceAll(name, ".", "%2E")
	}
	return name
}

// renderLeaf renders one key=value part. A Null leaf under strict null
// handling emits the bare key with no '='; otherwise Null encodes as an
// empty value. preEncoded marks a value that already went through the
// encoder (comma-joined elements) and must not be encoded again.
func (cfg *encodeConfig) renderLeaf(prefix string, v Value, preEncoded bool) string {
	if _, isNull := v.(Null); isNull {
		if cfg.strictNullHandling {
			if cfg.encode && !cfg.encodeValuesOnly {
				return cfg.encodeToken(String(prefix))
			}
			return prefix
		}
		v = String("")
	}

	keyTok := prefix
	if cfg.encode && !cfg.encodeValuesOnly {
		keyTok = cfg.encodeToken(String(prefix))
	}

	var valTok string
	switch {
	case preEncoded:
		valTok = scalarText(v, cfg.serializeDate)
	case cfg.encode:
		valTok = cfg.encodeToken(v)
	default:
		valTok = scalarText(v, cfg.serializeDate)
	}
	return formatOutput(cfg.format, keyTok) + "=" + formatOutput(cfg.format, valTok)
}

// encodeToken runs the configured encoder on one key or value token.
func (cfg *encodeConfig) encodeToken(v Value) string {
	if cfg.encoder != nil {
		return cfg.encoder(v, cfg.charset, cfg.format)
	}
	return PercentEncode(scalarText(v, cfg.serializeDate), cfg.charset, cfg.format)
}
