package qs

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// Charset selects the byte interpretation of percent escapes.
type Charset int

const (
	// CharsetUTF8 interprets percent escapes as UTF-8 byte sequences.
	CharsetUTF8 Charset = iota

	// CharsetLatin1 interprets each percent escape as one ISO-8859-1 byte.
	CharsetLatin1
)

// String returns the IANA name of the charset.
func (c Charset) String() string {
	if c == CharsetLatin1 {
		return "iso-8859-1"
	}
	return "utf-8"
}

// Format selects the escaping dialect for encoded output.
type Format int

const (
	// FormatRFC3986 percent-encodes spaces as %20. Default.
	FormatRFC3986 Format = iota

	// FormatRFC1738 additionally treats '(' and ')' as safe and rewrites
	// %20 to '+' in the final output.
	FormatRFC1738
)

// formatOutput applies the format's post-processing to an encoded token.
func formatOutput(f Format, s string) string {
	if f == FormatRFC1738 {
		return strings.ReplaceAll(s, "%20", "+")
	}
	return s
}

// encodeSegment caps how many UTF-16 code units are buffered before the
// encoder flushes. Bounds allocation on very large inputs.
const encodeSegment = 1024

const upperhex = "0123456789ABCDEF"

// percentSafe reports whether an ASCII byte needs no escaping under the
// given format. RFC 3986 unreserved set; RFC 1738 adds '(' and ')'.
func percentSafe(c byte, format Format) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	case format == FormatRFC1738 && (c == '(' || c == ')'):
		return true
	}
	return false
}

// PercentEncode percent-encodes s for the given charset and format. Every
// byte outside the safe set is escaped. Input is processed in fixed-size
// segments; a multi-code-unit character never straddles a segment boundary.
// Under Latin1, characters with no Latin1 byte form are emitted as
// percent-encoded decimal numeric character references, one per UTF-16 code
// unit (so astral characters produce two references).
func PercentEncode(s string, charset Charset, format Format) string {
	if charset == CharsetLatin1 {
		return encodeLatin1(s, format)
	}
	var out strings.Builder
	out.Grow(len(s))
	var seg strings.Builder
	units := 0
	flush := func() {
		out.WriteString(seg.String())
		seg.Reset()
		units = 0
	}
	for _, r := range s {
		width := 1
		if r > 0xFFFF {
			width = 2
		}
		// Never split a character across segments.
		if units+width > encodeSegment {
			flush()
		}
		if r < 0x80 && percentSafe(byte(r), format) {
			seg.WriteByte(byte(r))
		} else {
			var buf [4]byte
			n := encodeRuneUTF8(buf[:], r)
			for i := 0; i < n; i++ {
				seg.WriteByte('%')
				seg.WriteByte(upperhex[buf[i]>>4])
				seg.WriteByte(upperhex[buf[i]&0xF])
			}
		}
		units += width
	}
	flush()
	return out.String()
}

// encodeRuneUTF8 writes r as UTF-8 into buf and returns the byte count.
func encodeRuneUTF8(buf []byte, r rune) int {
	switch {
	case r < 0x80:
		buf[0] = byte(r)
		return 1
	case r < 0x800:
		buf[0] = byte(0xC0 | r>>6)
		buf[1] = byte(0x80 | r&0x3F)
		return 2
	case r < 0x10000:
		buf[0] = byte(0xE0 | r>>12)
		buf[1] = byte(0x80 | (r>>6)&0x3F)
		buf[2] = byte(0x80 | r&0x3F)
		return 3
	default:
		buf[0] = byte(0xF0 | r>>18)
		buf[1] = byte(0x80 | (r>>12)&0x3F)
		buf[2] = byte(0x80 | (r>>6)&0x3F)
		buf[3] = byte(0x80 | r&0x3F)
		return 4
	}
}

// encodeLatin1 encodes via the legacy escape dialect, then rewrites each
// %uXXXX escape into a percent-encoded decimal character reference
// ("&#NNNN;" as %26%23NNNN%3B).
func encodeLatin1(s string, format Format) string {
	escaped := Escape(s, format)
	var out strings.Builder
	out.Grow(len(escaped))
	for i := 0; i < len(escaped); {
		if escaped[i] == '%' && i+5 < len(escaped) && (escaped[i+1] == 'u' || escaped[i+1] == 'U') &&
			isHexDigit(escaped[i+2]) && isHexDigit(escaped[i+3]) && isHexDigit(escaped[i+4]) && isHexDigit(escaped[i+5]) {
			cp, _ := strconv.ParseUint(escaped[i+2:i+6], 16, 32)
			out.WriteString("%26%23")
			out.WriteString(strconv.FormatUint(cp, 10))
			out.WriteString("%3B")
			i += 6
			continue
		}
		out.WriteByte(escaped[i])
		i++
	}
	return out.String()
}

// PercentDecode reverses percent-encoding per the charset's byte width.
// Malformed percent sequences fail soft: the offending text is returned
// unchanged. A '+' is left intact; legacy form contexts rewrite it to a
// space before calling this.
func PercentDecode(s string, charset Charset) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	if charset == CharsetLatin1 {
		return decodeLatin1(s)
	}
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
			b, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
			out.WriteByte(byte(b))
			i += 3
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// decodeLatin1 decodes each %XX escape independently as one ISO-8859-1 byte.
func decodeLatin1(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
			b, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
			out.WriteRune(charmap.ISO8859_1.DecodeByte(byte(b)))
			i += 3
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// scalarText stringifies a scalar leaf: invariant-culture numbers and
// booleans, ISO-8601 date/time, bytes passed through as already-decoded
// text. serializeDate overrides the date form when non-nil.
func scalarText(v Value, serializeDate DateSerializer) string {
	switch val := v.(type) {
	case Null, Undefined, nil:
		return ""
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Number:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case String:
		return string(val)
	case Bytes:
		return string(val)
	case Time:
		if serializeDate != nil {
			return serializeDate(time.Time(val))
		}
		return isoDate(time.Time(val))
	}
	return ""
}

// isoDate renders t as millisecond-precision UTC ISO-8601.
func isoDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
}
