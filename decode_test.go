package qs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeToGo decodes and converts to plain Go containers for comparison.
func decodeToGo(t *testing.T, input any, opts *DecodeOptions) map[string]any {
	t.Helper()
	result, err := Decode(input, opts)
	require.NoError(t, err)
	out, ok := ToGo(result).(map[string]any)
	require.True(t, ok)
	return out
}

func TestDecodeBasic(t *testing.T) {
	assert.Equal(t, map[string]any{"a": "b"}, decodeToGo(t, "a=b", nil))
	assert.Equal(t, map[string]any{"a": "b", "c": "d"}, decodeToGo(t, "a=b&c=d", nil))
	assert.Equal(t, map[string]any{"a": map[string]any{"b": "c"}}, decodeToGo(t, "a[b]=c", nil))
	assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": "d"}}}, decodeToGo(t, "a[b][c]=d", nil))
}

func TestDecodeEmptyInput(t *testing.T) {
	assert.Equal(t, map[string]any{}, decodeToGo(t, "", nil))
	assert.Equal(t, map[string]any{}, decodeToGo(t, nil, nil))
}

func TestDecodePercentEscapes(t *testing.T) {
	assert.Equal(t, map[string]any{"a": "b c"}, decodeToGo(t, "a=b%20c", nil))
	assert.Equal(t, map[string]any{"a": "b c"}, decodeToGo(t, "a=b+c", nil))
	assert.Equal(t, map[string]any{"a": "b=c"}, decodeToGo(t, "a=b%3Dc", nil))
	assert.Equal(t, map[string]any{"a": "b=c"}, decodeToGo(t, "a=b=c", nil))
	assert.Equal(t, map[string]any{"ø": "ø"}, decodeToGo(t, "%C3%B8=%C3%B8", nil))
}

func TestDecodeBracketedEquals(t *testing.T) {
	// The first '=' inside a bracket segment belongs to the key.
	assert.Equal(t, map[string]any{"a": map[string]any{"=": "x"}}, decodeToGo(t, "a[=]=x", nil))
}

func TestDecodeDepthDefault(t *testing.T) {
	// Five bracket groups parse; the rest collapses into one literal segment.
	out := decodeToGo(t, "a[b][c][d][e][f][g][h]=i", nil)
	want := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"c": map[string]any{
					"d": map[string]any{
						"e": map[string]any{
							"f": map[string]any{
								"[g][h]": "i",
							},
						},
					},
				},
			},
		},
	}
	assert.Equal(t, want, out)
}

func TestDecodeDepthOne(t *testing.T) {
	out := decodeToGo(t, "a[b][c]=d", &DecodeOptions{Depth: IntPtr(1)})
	assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"[c]": "d"}}}, out)
}

func TestDecodeDepthZeroKeepsKeyLiteral(t *testing.T) {
	out := decodeToGo(t, "a[b]=c", &DecodeOptions{Depth: IntPtr(0)})
	assert.Equal(t, map[string]any{"a[b]": "c"}, out)
}

func TestDecodeStrictDepth(t *testing.T) {
	_, err := Decode("a[b][c]=d", &DecodeOptions{Depth: IntPtr(1), StrictDepth: true})
	require.Error(t, err)
	assert.True(t, IsDepthExceeded(err))

	// Within the limit nothing fails.
	out := decodeToGo(t, "a[b]=c", &DecodeOptions{Depth: IntPtr(1), StrictDepth: true})
	assert.Equal(t, map[string]any{"a": map[string]any{"b": "c"}}, out)
}

func TestDecodeLists(t *testing.T) {
	assert.Equal(t, map[string]any{"a": []any{"b", "c"}}, decodeToGo(t, "a[]=b&a[]=c", nil))
	assert.Equal(t, map[string]any{"a": []any{"b", "c"}}, decodeToGo(t, "a[0]=b&a[1]=c", nil))
	// Out-of-order indices land in order; holes compact away.
	assert.Equal(t, map[string]any{"a": []any{"b", "c"}}, decodeToGo(t, "a[1]=c&a[0]=b", nil))
	assert.Equal(t, map[string]any{"a": []any{"b"}}, decodeToGo(t, "a[5]=b", nil))
}

func TestDecodeListLimitBoundary(t *testing.T) {
	// Index 20 is the last list index under the default limit.
	assert.Equal(t, map[string]any{"a": []any{"a"}}, decodeToGo(t, "a[20]=a", nil))
	assert.Equal(t, map[string]any{"a": map[string]any{"21": "a"}}, decodeToGo(t, "a[21]=a", nil))

	out := decodeToGo(t, "a[6]=x", &DecodeOptions{ListLimit: IntPtr(5)})
	assert.Equal(t, map[string]any{"a": map[string]any{"6": "x"}}, out)
}

func TestDecodeListLimitThrow(t *testing.T) {
	_, err := Decode("a[21]=a", &DecodeOptions{ThrowOnLimitExceeded: true})
	require.Error(t, err)
	assert.True(t, IsLimitExceeded(err))
}

func TestDecodeNonCanonicalIndexIsMapKey(t *testing.T) {
	assert.Equal(t, map[string]any{"a": map[string]any{"010": "x"}}, decodeToGo(t, "a[010]=x", nil))
	// A bare numeric name at the top level is a map key, never an index.
	assert.Equal(t, map[string]any{"0": "x"}, decodeToGo(t, "0=x", nil))
}

func TestDecodeMixedListThenMap(t *testing.T) {
	out := decodeToGo(t, "a[0]=b&a[b]=c", nil)
	assert.Equal(t, map[string]any{"a": map[string]any{"0": "b", "b": "c"}}, out)
}

func TestDecodeScalarThenNestedKey(t *testing.T) {
	out := decodeToGo(t, "a=b&a[c]=d", nil)
	assert.Equal(t, map[string]any{"a": []any{"b", map[string]any{"c": "d"}}}, out)
}

func TestDecodeNullThenNestedKey(t *testing.T) {
	// An explicit null target gives way to the structured value.
	out := decodeToGo(t, "a&a[c]=d", &DecodeOptions{StrictNullHandling: true})
	assert.Equal(t, map[string]any{"a": map[string]any{"c": "d"}}, out)

	// Without strict nulls the bare key decodes to "", which pairs up.
	out = decodeToGo(t, "a&a[c]=d", nil)
	assert.Equal(t, map[string]any{"a": []any{"", map[string]any{"c": "d"}}}, out)
}

func TestDecodeDuplicates(t *testing.T) {
	assert.Equal(t, map[string]any{"a": []any{"b", "c"}}, decodeToGo(t, "a=b&a=c", nil))

	out := decodeToGo(t, "a=b&a=c", &DecodeOptions{Duplicates: DuplicatesFirst})
	assert.Equal(t, map[string]any{"a": "b"}, out)

	out = decodeToGo(t, "a=b&a=c", &DecodeOptions{Duplicates: DuplicatesLast})
	assert.Equal(t, map[string]any{"a": "c"}, out)
}

func TestDecodeListThenBareKey(t *testing.T) {
	assert.Equal(t, map[string]any{"a": []any{"b", "c"}}, decodeToGo(t, "a[]=b&a=c", nil))
}

func TestDecodeStrictNullHandling(t *testing.T) {
	assert.Equal(t, map[string]any{"a": ""}, decodeToGo(t, "a", nil))

	out := decodeToGo(t, "a&b=", &DecodeOptions{StrictNullHandling: true})
	assert.Equal(t, map[string]any{"a": nil, "b": ""}, out)
}

func TestDecodeIgnoreQueryPrefix(t *testing.T) {
	out := decodeToGo(t, "?a=b", &DecodeOptions{IgnoreQueryPrefix: true})
	assert.Equal(t, map[string]any{"a": "b"}, out)

	assert.Equal(t, map[string]any{"?a": "b"}, decodeToGo(t, "?a=b", nil))
}

func TestDecodeCustomDelimiter(t *testing.T) {
	out := decodeToGo(t, "a=b;c=d", &DecodeOptions{Delimiter: ";"})
	assert.Equal(t, map[string]any{"a": "b", "c": "d"}, out)
}

func TestDecodeParameterLimit(t *testing.T) {
	out := decodeToGo(t, "a=1&b=2&c=3", &DecodeOptions{ParameterLimit: IntPtr(2)})
	assert.Equal(t, map[string]any{"a": "1", "b": "2"}, out)

	_, err := Decode("a=1&b=2&c=3", &DecodeOptions{ParameterLimit: IntPtr(2), ThrowOnLimitExceeded: true})
	require.Error(t, err)
	assert.True(t, IsLimitExceeded(err))

	_, err = Decode("a=1", &DecodeOptions{ParameterLimit: IntPtr(0)})
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestDecodeCharsetSentinelUTF8(t *testing.T) {
	// The sentinel overrides the configured Latin1 charset for every token.
	out := decodeToGo(t, "utf8=%E2%9C%93&%C3%B8=%C3%B8", &DecodeOptions{
		Charset:         CharsetLatin1,
		CharsetSentinel: true,
	})
	assert.Equal(t, map[string]any{"ø": "ø"}, out)
}

func TestDecodeCharsetSentinelLatin1(t *testing.T) {
	out := decodeToGo(t, "utf8=%26%2310003%3B&a=%F8", &DecodeOptions{CharsetSentinel: true})
	assert.Equal(t, map[string]any{"a": "ø"}, out)

	// Sentinel before or after the parameters, same effect.
	out = decodeToGo(t, "a=%F8&utf8=%26%2310003%3B", &DecodeOptions{CharsetSentinel: true})
	assert.Equal(t, map[string]any{"a": "ø"}, out)
}

func TestDecodeCharsetSentinelUnknownValue(t *testing.T) {
	// An unrecognized sentinel is consumed without changing the charset.
	out := decodeToGo(t, "utf8=checked&a=b", &DecodeOptions{CharsetSentinel: true})
	assert.Equal(t, map[string]any{"a": "b"}, out)
}

func TestDecodeLatin1(t *testing.T) {
	out := decodeToGo(t, "a=%F8", &DecodeOptions{Charset: CharsetLatin1})
	assert.Equal(t, map[string]any{"a": "ø"}, out)
}

func TestDecodeNumericEntities(t *testing.T) {
	opts := &DecodeOptions{Charset: CharsetLatin1, InterpretNumericEntities: true}
	assert.Equal(t, map[string]any{"a": "☺"}, decodeToGo(t, "a=%26%239786%3B", opts))

	// Without the option the reference text survives as-is.
	out := decodeToGo(t, "a=%26%239786%3B", &DecodeOptions{Charset: CharsetLatin1})
	assert.Equal(t, map[string]any{"a": "&#9786;"}, out)
}

func TestDecodeComma(t *testing.T) {
	opts := &DecodeOptions{Comma: true}
	assert.Equal(t, map[string]any{"a": []any{"b", "c"}}, decodeToGo(t, "a=b,c", opts))
	// Percent-encoded commas are not split points.
	assert.Equal(t, map[string]any{"a": "b,c"}, decodeToGo(t, "a=b%2Cc", opts))
	// A bracketed key keeps the split value nested one level down.
	assert.Equal(t, map[string]any{"a": []any{[]any{"b", "c"}}}, decodeToGo(t, "a[]=b,c", opts))
}

func TestDecodeCommaLimitThrow(t *testing.T) {
	_, err := Decode("a=1,2,3", &DecodeOptions{Comma: true, ListLimit: IntPtr(2), ThrowOnLimitExceeded: true})
	require.Error(t, err)
	assert.True(t, IsLimitExceeded(err))
}

func TestDecodeAllowDots(t *testing.T) {
	out := decodeToGo(t, "a.b=c", &DecodeOptions{AllowDots: BoolPtr(true)})
	assert.Equal(t, map[string]any{"a": map[string]any{"b": "c"}}, out)

	out = decodeToGo(t, "a.b.c=d", &DecodeOptions{AllowDots: BoolPtr(true)})
	assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": "d"}}}, out)

	// Off by default: the dot stays in the key.
	assert.Equal(t, map[string]any{"a.b": "c"}, decodeToGo(t, "a.b=c", nil))
}

func TestDecodeDotInKeys(t *testing.T) {
	out := decodeToGo(t, "name%252Eobj.first=John&name%252Eobj.last=Doe", &DecodeOptions{DecodeDotInKeys: true})
	assert.Equal(t, map[string]any{"name.obj": map[string]any{"first": "John", "last": "Doe"}}, out)
}

func TestDecodeDotInKeysRequiresAllowDots(t *testing.T) {
	_, err := Decode("a=b", &DecodeOptions{DecodeDotInKeys: true, AllowDots: BoolPtr(false)})
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestDecodeAllowEmptyLists(t *testing.T) {
	out := decodeToGo(t, "foo[]&bar=baz", &DecodeOptions{AllowEmptyLists: true})
	assert.Equal(t, map[string]any{"foo": []any{}, "bar": "baz"}, out)

	out = decodeToGo(t, "foo[]", &DecodeOptions{AllowEmptyLists: true, StrictNullHandling: true})
	assert.Equal(t, map[string]any{"foo": []any{}}, out)
}

func TestDecodeAllowSparseLists(t *testing.T) {
	out := decodeToGo(t, "a[1]=b", &DecodeOptions{AllowSparseLists: true})
	assert.Equal(t, map[string]any{"a": []any{nil, "b"}}, out)

	out = decodeToGo(t, "a[4]=x&a[1]=b", &DecodeOptions{AllowSparseLists: true})
	assert.Equal(t, map[string]any{"a": []any{nil, "b", nil, nil, "x"}}, out)
}

func TestDecodeParseListsDisabled(t *testing.T) {
	opts := &DecodeOptions{ParseLists: BoolPtr(false)}
	assert.Equal(t, map[string]any{"a": map[string]any{"0": "b"}}, decodeToGo(t, "a[0]=b", opts))
	assert.Equal(t, map[string]any{"a": map[string]any{"0": "b"}}, decodeToGo(t, "a[]=b", opts))
}

func TestDecodeListRootWraps(t *testing.T) {
	assert.Equal(t, map[string]any{"0": "a"}, decodeToGo(t, "[]=a", nil))
	assert.Equal(t, map[string]any{"0": "a", "1": "b"}, decodeToGo(t, "[]=a&[]=b", nil))
}

func TestDecodeCustomDecoder(t *testing.T) {
	upper := func(text string, charset Charset) *string {
		s := strings.ToUpper(PercentDecode(text, charset))
		return &s
	}
	out := decodeToGo(t, "a=b%20c", &DecodeOptions{Decoder: upper})
	assert.Equal(t, map[string]any{"A": "B C"}, out)

	// Returning nil for a key drops the whole parameter.
	dropA := func(text string, charset Charset) *string {
		if text == "drop" {
			return nil
		}
		return &text
	}
	out = decodeToGo(t, "drop=x&keep=y", &DecodeOptions{Decoder: dropA})
	assert.Equal(t, map[string]any{"keep": "y"}, out)
}

func TestDecodeKindDecoder(t *testing.T) {
	// Values decode to numbers, keys pass through; takes precedence over
	// the plain decoder.
	kd := func(text string, charset Charset, kind DecodeKind) Value {
		if kind == KindValue {
			return Number(len(text))
		}
		return String(text)
	}
	plain := func(text string, charset Charset) *string {
		s := "unused"
		return &s
	}
	out := decodeToGo(t, "ab=xyz", &DecodeOptions{DecoderWithKind: kd, Decoder: plain})
	assert.Equal(t, map[string]any{"ab": float64(3)}, out)
}

func TestDecodeMapInput(t *testing.T) {
	out := decodeToGo(t, map[string]any{"a[b]": "c"}, nil)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": "c"}}, out)

	out = decodeToGo(t, map[string]any{"a": map[string]any{"b": "c"}}, nil)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": "c"}}, out)
}

func TestDecodeInvalidInput(t *testing.T) {
	_, err := Decode(42, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	_, err = Decode([]string{"a"}, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestDecodeCyclicMapInput(t *testing.T) {
	root := map[string]any{}
	root["self"] = root
	root["leaf"] = "x"

	result, err := Decode(root, nil)
	require.NoError(t, err)
	leaf, ok := result.Get("leaf")
	require.True(t, ok)
	assert.Equal(t, String("x"), leaf)
	self, ok := result.Get("self")
	require.True(t, ok)
	assert.True(t, isContainer(self))
}

func TestDecodeEmptyTokensSkipped(t *testing.T) {
	assert.Equal(t, map[string]any{"a": "b", "c": "d"}, decodeToGo(t, "a=b&&c=d", nil))
	assert.Equal(t, map[string]any{"a": "b"}, decodeToGo(t, "&a=b&", nil))
}

func TestDecodeEmptyKeyDropped(t *testing.T) {
	assert.Equal(t, map[string]any{"a": "b"}, decodeToGo(t, "=ignored&a=b", nil))
}
