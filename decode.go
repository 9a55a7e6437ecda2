package qs

import (
	"regexp"
	"strconv"
	"strings"
)

// Sentinel parameters selecting the submission charset. Browsers emit the
// checkmark (U+2713) in the form's charset: UTF-8 yields the three-byte
// sequence, Latin1 yields the numeric character reference.
const (
	sentinelUTF8   = "utf8=%E2%9C%93"
	sentinelLatin1 = "utf8=%26%2310003%3B"
)

// bracketGroupRe matches one non-nested bracket segment.
var bracketGroupRe = regexp.MustCompile(`\[[^\[\]]*\]`)

// dotSegmentRe matches a dot-segment for rewriting into bracket form.
var dotSegmentRe = regexp.MustCompile(`\.([^.[]+)`)

// Decode parses query-string text or a foreign map into the canonical
// nested Map. Input must be a string or a map-shaped value; anything else
// is an INVALID_ARGUMENT error. A nil input or empty string decodes to an
// empty map.
func Decode(input any, opts *DecodeOptions) (*Map, error) {
	cfg, err := resolveDecodeOptions(opts)
	if err != nil {
		return nil, err
	}

	var flat *Map
	switch in := input.(type) {
	case nil:
		return NewMap(), nil
	case string:
		if in == "" {
			return NewMap(), nil
		}
		flat, err = parseParameters(in, cfg)
		if err != nil {
			return nil, err
		}
	default:
		normalized := Normalize(input)
		fm, ok := normalized.(*Map)
		if !ok {
			return nil, newError(ErrCodeInvalidArgument, "decode input must be text or a map, got %T", input)
		}
		flat = fm
	}

	root := Value(NewMap())
	for _, key := range flat.Keys() {
		val, _ := flat.Get(key)
		built, err := buildPath(key, val, cfg)
		if err != nil {
			return nil, err
		}
		if built == nil {
			continue
		}
		if root, err = mergeValues(root, built, cfg); err != nil {
			return nil, err
		}
	}

	result := compact(root, cfg.allowSparseLists)
	if m, ok := result.(*Map); ok {
		return m, nil
	}
	// A bare "[]" path can leave a list at the root; wrap it.
	out := NewMap()
	if l, ok := result.(*List); ok {
		for i, item := range l.Values() {
			out.Set(strconv.Itoa(i), item)
		}
	}
	return out, nil
}

// parseParameters splits raw text into parameter tokens and accumulates
// them into an ordered flat map of decoded key to decoded value, applying
// the parameter limit, the charset sentinel, and the duplicates policy.
func parseParameters(text string, cfg *decodeConfig) (*Map, error) {
	if cfg.ignoreQueryPrefix {
		text = strings.TrimPrefix(text, "?")
	}

	parts := strings.Split(text, cfg.delimiter)
	if len(parts) > cfg.parameterLimit {
		if cfg.throwOnLimitExceeded {
			return nil, newError(ErrCodeLimitExceeded, "parameter limit exceeded: %d parameters over limit %d", len(parts), cfg.parameterLimit)
		}
		parts = parts[:cfg.parameterLimit]
	}

	// The sentinel may appear anywhere among the tokens and affects the
	// decoding of all of them, including ones that precede it.
	charset := cfg.charset
	skipIndex := -1
	if cfg.charsetSentinel {
		for i, part := range parts {
			if strings.HasPrefix(part, "utf8=") {
				switch part {
				case sentinelUTF8:
					charset = CharsetUTF8
				case sentinelLatin1:
					charset = CharsetLatin1
				}
				skipIndex = i
				break
			}
		}
	}

	flat := NewMap()
	for i, part := range parts {
		if i == skipIndex || part == "" {
			continue
		}

		// Split at the first '=', tolerating one inside a bracket segment.
		pos := strings.Index(part, "]=")
		if pos == -1 {
			pos = strings.Index(part, "=")
		} else {
			pos++
		}

		var rawKey string
		var val Value
		if pos == -1 {
			rawKey = part
			if cfg.strictNullHandling {
				val = Null{}
			} else {
				val = String("")
			}
		} else {
			rawKey = part[:pos]
			var err error
			val, err = parseTokenValue(part[pos+1:], charset, cfg)
			if err != nil {
				return nil, err
			}
			// A token with "[]=" keeps a comma-split value nested.
			if strings.Contains(part, "[]=") {
				if l, ok := val.(*List); ok {
					val = NewList(l)
				}
			}
		}
		if charset == CharsetLatin1 && cfg.interpretNumericEntities {
			val = interpretEntitiesValue(val)
		}

		keyVal := cfg.decodeScalar(rawKey, charset, KindKey)
		if isUndefined(keyVal) {
			continue
		}
		key := scalarText(keyVal, nil)

		existing, exists := flat.Get(key)
		switch {
		case exists && cfg.duplicates == DuplicatesCombine:
			flat.Set(key, combine(existing, val))
		case !exists || cfg.duplicates == DuplicatesLast:
			flat.Set(key, val)
		}
	}
	return flat, nil
}

// parseTokenValue decodes one raw parameter value, splitting unescaped
// commas into sub-values first when the comma option is on (percent-encoded
// commas are not split points).
func parseTokenValue(raw string, charset Charset, cfg *decodeConfig) (Value, error) {
	if cfg.comma && strings.Contains(raw, ",") {
		pieces := strings.Split(raw, ",")
		if cfg.throwOnLimitExceeded && len(pieces) > cfg.listLimit {
			return nil, newError(ErrCodeLimitExceeded, "list limit exceeded: %d comma values over limit %d", len(pieces), cfg.listLimit)
		}
		out := NewList()
		for _, piece := range pieces {
			out.Append(cfg.decodeScalar(piece, charset, KindValue))
		}
		return out, nil
	}
	return cfg.decodeScalar(raw, charset, KindValue), nil
}

// decodeScalar runs the configured decoder chain on one token.
func (cfg *decodeConfig) decodeScalar(text string, charset Charset, kind DecodeKind) Value {
	if cfg.kindDecoder != nil {
		v := cfg.kindDecoder(text, charset, kind)
		if v == nil {
			return Undefined{}
		}
		return v
	}
	if cfg.decoder != nil {
		s := cfg.decoder(text, charset)
		if s == nil {
			return Undefined{}
		}
		return String(*s)
	}
	return String(defaultDecode(text, charset))
}

// defaultDecode applies application/x-www-form-urlencoded rules: '+' means
// space, then percent escapes decode per the charset byte width.
func defaultDecode(text string, charset Charset) string {
	return PercentDecode(strings.ReplaceAll(text, "+", " "), charset)
}

func interpretEntitiesValue(val Value) Value {
	switch v := val.(type) {
	case String:
		return String(InterpretNumericEntities(string(v)))
	case *List:
		for i, item := range v.items {
			if s, ok := item.(String); ok {
				v.items[i] = String(InterpretNumericEntities(string(s)))
			}
		}
	}
	return val
}

// combine concatenates two flat-stage values into one list, flattening
// lists one level.
func combine(a, b Value) *List {
	out := NewList()
	for _, v := range []Value{a, b} {
		if l, ok := v.(*List); ok {
			out.items = append(out.items, l.items...)
		} else {
			out.Append(v)
		}
	}
	return out
}

// splitKeySegments tokenizes a decoded key into ordered path segments: the
// leading bare name, then bracket segments up to the depth limit. Dot
// segments rewrite into bracket form first when allowDots is on. Once depth
// is exceeded, the remaining bracket text collapses into one literal
// trailing segment, unless strictDepth fails instead.
func splitKeySegments(key string, cfg *decodeConfig) ([]string, error) {
	k := key
	if cfg.allowDots {
		k = dotSegmentRe.ReplaceAllString(k, "[$1]")
	}
	if cfg.depth == 0 {
		return []string{k}, nil
	}
	matches := bracketGroupRe.FindAllStringIndex(k, -1)
	if matches == nil {
		return []string{k}, nil
	}

	var segments []string
	if parent := k[:matches[0][0]]; parent != "" {
		segments = append(segments, parent)
	}
	n := 0
	for ; n < len(matches) && n < cfg.depth; n++ {
		segments = append(segments, k[matches[n][0]:matches[n][1]])
	}
	if n < len(matches) {
		if cfg.strictDepth {
			return nil, newError(ErrCodeDepthExceeded, "key %q nested deeper than depth %d", key, cfg.depth)
		}
		segments = append(segments, "["+k[matches[n][0]:]+"]")
	}
	return segments, nil
}

// buildPath builds the single-path value for one decoded key bottom-up:
// the leaf value is wrapped segment by segment, innermost first. An
// empty or canonical-numeric bracket segment yields a list wrapper (subject
// to the list limit), a named segment yields a single-key map.
func buildPath(key string, val Value, cfg *decodeConfig) (Value, error) {
	if key == "" {
		return nil, nil
	}
	segments, err := splitKeySegments(key, cfg)
	if err != nil {
		return nil, err
	}

	leaf := val
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]

		if seg == "[]" && cfg.parseLists {
			if cfg.allowEmptyLists && (leaf == String("") || (cfg.strictNullHandling && leaf == Value(Null{}))) {
				leaf = NewList()
			} else {
				leaf = combine(NewList(), leaf)
			}
			continue
		}

		name := seg
		if len(seg) >= 2 && seg[0] == '[' && seg[len(seg)-1] == ']' {
			name = seg[1 : len(seg)-1]
		}
		if cfg.decodeDotInKeys {
			name = strings.ReplaceAll(strings.ReplaceAll(name, "%2E", "."), "%2e", ".")
		}

		if !cfg.parseLists && name == "" {
			m := NewMap()
			m.Set("0", leaf)
			leaf = m
			continue
		}

		// Only a bracketed canonical integer ("[0]", never bare "0" or
		// "[010]") indexes a list, and only while within the list limit.
		if index, ok := canonicalIndex(name); ok && seg != name && cfg.parseLists {
			if index <= cfg.listLimit {
				l := NewList()
				l.SetAt(index, leaf)
				leaf = l
				continue
			}
			if cfg.throwOnLimitExceeded {
				return nil, newError(ErrCodeLimitExceeded, "list limit exceeded: index %d over limit %d", index, cfg.listLimit)
			}
		}

		m := NewMap()
		m.Set(name, leaf)
		leaf = m
	}
	return leaf, nil
}

// canonicalIndex parses s as a canonical non-negative integer: digits only,
// no leading zeros ("010" is a map key, not an index).
func canonicalIndex(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
