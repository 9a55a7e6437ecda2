package qs

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestGoldenEncode(t *testing.T) {
	basic := NewMap()
	basic.Set("a", String("b"))
	nested := NewMap()
	nested.Set("x", String("1"))
	basic.Set("nested", nested)
	basic.Set("list", NewList(String("one"), String("two")))

	dotted := NewMap()
	user := NewMap()
	user.Set("first.name", String("Ann"))
	user.Set("city", String("Oslo"))
	dotted.Set("user", user)

	comma := NewMap()
	comma.Set("tags", NewList(String("go"), String("query strings")))

	spaced := NewMap()
	spaced.Set("q", String("go qs"))
	spaced.Set("page", String("1"))

	latin := NewMap()
	latin.Set("name", String("æbleskiver"))

	cases := []struct {
		name  string
		input Value
		opts  *EncodeOptions
	}{
		{"basic", basic, nil},
		{"dotted", dotted, &EncodeOptions{EncodeDotInKeys: true}},
		{"comma", comma, &EncodeOptions{ListFormat: ListFormatComma}},
		{"rfc1738", spaced, &EncodeOptions{Format: FormatRFC1738}},
		{"sentinel_latin1", latin, &EncodeOptions{Charset: CharsetLatin1, CharsetSentinel: true}},
	}

	g := newGoldie(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Encode(tc.input, tc.opts)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(out))
		})
	}
}
