package qs

import (
	"strconv"
	"strings"
)

// maxCodePoint is the highest valid Unicode code point.
const maxCodePoint = 0x10FFFF

// InterpretNumericEntities rewrites numeric character references in s into
// the characters they name: "&#NNN;" (decimal) and "&#xHH;" (hex, the x
// case-insensitive). A reference must have a non-empty digit run, a
// terminating ';', and a code point no greater than U+10FFFF; anything
// non-conforming is left untouched verbatim.
func InterpretNumericEntities(s string) string {
	if !strings.Contains(s, "&#") {
		return s
	}
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '&' && i+1 < len(s) && s[i+1] == '#' {
			if r, width, ok := scanEntity(s[i:]); ok {
				out.WriteRune(r)
				i += width
				continue
			}
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// scanEntity parses one reference at the front of s (which starts "&#").
// Returns the code point, the reference width in bytes, and whether the
// reference was well formed.
func scanEntity(s string) (rune, int, bool) {
	i := 2
	base := 10
	if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
		base = 16
		i++
	}
	start := i
	for i < len(s) && isDigitInBase(s[i], base) {
		i++
	}
	if i == start || i >= len(s) || s[i] != ';' {
		return 0, 0, false
	}
	cp, err := strconv.ParseUint(s[start:i], base, 32)
	if err != nil || cp > maxCodePoint {
		return 0, 0, false
	}
	return rune(cp), i + 1, true
}

func isDigitInBase(c byte, base int) bool {
	if base == 16 {
		return isHexDigit(c)
	}
	return c >= '0' && c <= '9'
}
