package qs

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// escapeSafe reports whether a code unit passes the legacy escape codec
// unchanged. Historical semantics: '@', '*', '_', '+', '-', '.', '/' are
// safe, tilde is not; '(' and ')' are safe only under RFC 1738.
func escapeSafe(c uint16, format Format) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '@' || c == '*' || c == '_' || c == '+' || c == '-' || c == '.' || c == '/':
		return true
	case format == FormatRFC1738 && (c == '(' || c == ')'):
		return true
	}
	return false
}

// Escape applies the legacy escape codec: safe code units pass through,
// units below 0x100 become %XX, and everything else becomes %uXXXX. The
// input is treated as UTF-16 code units, so characters outside the basic
// plane produce two %uXXXX escapes.
func Escape(s string, format Format) string {
	var out strings.Builder
	out.Grow(len(s))
	for _, c := range utf16.Encode([]rune(s)) {
		switch {
		case escapeSafe(c, format):
			out.WriteByte(byte(c))
		case c < 0x100:
			out.WriteByte('%')
			out.WriteByte(upperhex[c>>4])
			out.WriteByte(upperhex[c&0xF])
		default:
			out.WriteString("%u")
			out.WriteByte(upperhex[c>>12])
			out.WriteByte(upperhex[(c>>8)&0xF])
			out.WriteByte(upperhex[(c>>4)&0xF])
			out.WriteByte(upperhex[c&0xF])
		}
	}
	return out.String()
}

// Unescape reverses the legacy escape codec, accepting both %XX and %uXXXX
// forms. Malformed escapes are left verbatim. Surrogate pairs written as two
// %uXXXX escapes recombine into one character.
func Unescape(s string) string {
	var units []uint16
	for i := 0; i < len(s); {
		if s[i] == '%' {
			if i+5 < len(s) && (s[i+1] == 'u' || s[i+1] == 'U') &&
				isHexDigit(s[i+2]) && isHexDigit(s[i+3]) && isHexDigit(s[i+4]) && isHexDigit(s[i+5]) {
				u, _ := strconv.ParseUint(s[i+2:i+6], 16, 16)
				units = append(units, uint16(u))
				i += 6
				continue
			}
			if i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
				b, _ := strconv.ParseUint(s[i+1:i+3], 16, 16)
				units = append(units, uint16(b))
				i += 3
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			// Invalid byte passes through as itself so malformed input
			// survives verbatim.
			r = rune(s[i])
		}
		units = append(units, utf16.Encode([]rune{r})...)
		i += size
	}
	return string(utf16.Decode(units))
}
