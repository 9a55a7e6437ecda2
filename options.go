package qs

import "time"

// Defaults applied when an option field is unset.
const (
	DefaultDelimiter      = "&"
	DefaultDepth          = 5
	DefaultParameterLimit = 1000
	DefaultListLimit      = 20
)

// BoolPtr returns a pointer to v, for tri-state option fields.
func BoolPtr(v bool) *bool { return &v }

// IntPtr returns a pointer to v, for option fields whose zero value is
// meaningful.
func IntPtr(v int) *int { return &v }

// Duplicates selects how repeated top-level keys combine during decode.
type Duplicates int

const (
	// DuplicatesCombine merges repeated keys into a list. Default.
	DuplicatesCombine Duplicates = iota

	// DuplicatesFirst keeps the first occurrence and discards the rest.
	DuplicatesFirst

	// DuplicatesLast keeps only the last occurrence.
	DuplicatesLast
)

// ListFormat selects how list elements serialize during encode.
type ListFormat int

const (
	// ListFormatIndices appends "[idx]" to the key per element. Default.
	ListFormatIndices ListFormat = iota

	// ListFormatBrackets appends "[]" to the key per element.
	ListFormatBrackets

	// ListFormatRepeat repeats the bare key per element.
	ListFormatRepeat

	// ListFormatComma joins scalar elements into one comma-separated value.
	ListFormatComma
)

// DecodeKind tells a KindDecoder whether it is decoding a key or a value.
type DecodeKind int

const (
	KindKey DecodeKind = iota
	KindValue
)

// Decoder replaces the default percent decoder. Returning nil falls back to
// the decoded text being treated as absent (the entry is dropped).
type Decoder func(text string, charset Charset) *string

// KindDecoder is a Decoder that also receives whether a key or a value is
// being decoded, and may return any scalar Value. Returning nil drops the
// entry. Takes precedence over Decoder when both are set.
type KindDecoder func(text string, charset Charset, kind DecodeKind) Value

// Encoder replaces the default percent encoder for scalar leaves and keys.
type Encoder func(value Value, charset Charset, format Format) string

// DateSerializer replaces the default ISO-8601 date/time text form.
type DateSerializer func(t time.Time) string

// SortFunc orders sibling keys during encode. Negative means a before b.
type SortFunc func(a, b string) int

// Filter is a sealed interface: either a FuncFilter substituting values by
// key-path prefix, or an IterableFilter restricting and ordering the keys
// visited at every level.
type Filter interface {
	filter()
}

// FuncFilter substitutes the value at each key-path prefix before the
// encoder descends into it. It is called with the empty prefix for the root.
type FuncFilter func(prefix string, value Value) Value

func (FuncFilter) filter() {}

// IterableFilter is an ordered allow-list of keys and list indices applied
// at every level, including the root.
type IterableFilter []string

func (IterableFilter) filter() {}

// DecodeOptions configures Decode. The zero value gives default behavior.
// Pointer fields distinguish "unset" from an explicit zero; options are
// read-only for the duration of one call and safe for concurrent reuse.
type DecodeOptions struct {
	// Delimiter separates parameters. Defaults to "&".
	Delimiter string

	// Depth bounds how many bracket segments are parsed per key; deeper
	// text collapses into one literal trailing segment. Defaults to 5.
	Depth *int

	// ParameterLimit bounds how many parameters are processed. Must be
	// positive. Defaults to 1000.
	ParameterLimit *int

	// ListLimit bounds numeric list indices; a larger index turns the list
	// into a map. Defaults to 20.
	ListLimit *int

	// ParseLists disables list construction entirely when set to false;
	// numeric segments then build maps. Defaults to true.
	ParseLists *bool

	// AllowDots parses "a.b" as nested keys. Implied by DecodeDotInKeys
	// when unset; an explicit false combined with DecodeDotInKeys is an
	// error.
	AllowDots *bool

	// DecodeDotInKeys rewrites "%2E" inside decoded key segments back into
	// literal dots. Requires AllowDots.
	DecodeDotInKeys bool

	// AllowEmptyLists decodes "a[]=" into an empty list.
	AllowEmptyLists bool

	// AllowSparseLists keeps holes in lists as Null slots instead of
	// shifting later elements down.
	AllowSparseLists bool

	// ThrowOnLimitExceeded fails fast on parameter/list limit breaches
	// instead of truncating or promoting silently.
	ThrowOnLimitExceeded bool

	// StrictDepth fails on keys nested deeper than Depth instead of
	// collapsing the excess into a literal segment.
	StrictDepth bool

	// StrictNullHandling decodes a bare key (no '=') as Null instead of "".
	StrictNullHandling bool

	// IgnoreQueryPrefix strips a leading '?' from the input.
	IgnoreQueryPrefix bool

	// CharsetSentinel honors an out-of-band "utf8=..." parameter selecting
	// the submission charset for all parameters.
	CharsetSentinel bool

	// InterpretNumericEntities rewrites "&#NNN;" references in Latin1
	// values.
	InterpretNumericEntities bool

	// Comma splits unescaped commas in values into multiple sub-values.
	Comma bool

	// Duplicates selects the repeated-key policy.
	Duplicates Duplicates

	// Charset selects the percent-escape interpretation.
	Charset Charset

	// Decoder replaces the default percent decoder.
	Decoder Decoder

	// DecoderWithKind replaces the default percent decoder and receives the
	// token kind. Takes precedence over Decoder.
	DecoderWithKind KindDecoder
}

// decodeConfig is a DecodeOptions with defaults resolved and validated.
type decodeConfig struct {
	delimiter                string
	depth                    int
	parameterLimit           int
	listLimit                int
	parseLists               bool
	allowDots                bool
	decodeDotInKeys          bool
	allowEmptyLists          bool
	allowSparseLists         bool
	throwOnLimitExceeded     bool
	strictDepth              bool
	strictNullHandling       bool
	ignoreQueryPrefix        bool
	charsetSentinel          bool
	interpretNumericEntities bool
	comma                    bool
	duplicates               Duplicates
	charset                  Charset
	decoder                  Decoder
	kindDecoder              KindDecoder
}

func resolveDecodeOptions(opts *DecodeOptions) (*decodeConfig, error) {
	if opts == nil {
		opts = &DecodeOptions{}
	}
	cfg := &decodeConfig{
		delimiter:                opts.Delimiter,
		depth:                    DefaultDepth,
		parameterLimit:           DefaultParameterLimit,
		listLimit:                DefaultListLimit,
		parseLists:               true,
		decodeDotInKeys:          opts.DecodeDotInKeys,
		allowEmptyLists:          opts.AllowEmptyLists,
		allowSparseLists:         opts.AllowSparseLists,
		throwOnLimitExceeded:     opts.ThrowOnLimitExceeded,
		strictDepth:              opts.StrictDepth,
		strictNullHandling:       opts.StrictNullHandling,
		ignoreQueryPrefix:        opts.IgnoreQueryPrefix,
		charsetSentinel:          opts.CharsetSentinel,
		interpretNumericEntities: opts.InterpretNumericEntities,
		comma:                    opts.Comma,
		duplicates:               opts.Duplicates,
		charset:                  opts.Charset,
		decoder:                  opts.Decoder,
		kindDecoder:              opts.DecoderWithKind,
	}
	if cfg.delimiter == "" {
		cfg.delimiter = DefaultDelimiter
	}
	if opts.Depth != nil {
		cfg.depth = *opts.Depth
		if cfg.depth < 0 {
			cfg.depth = 0
		}
	}
	if opts.ParameterLimit != nil {
		cfg.parameterLimit = *opts.ParameterLimit
	}
	if cfg.parameterLimit <= 0 {
		return nil, newError(ErrCodeInvalidArgument, "parameter limit must be positive, got %d", cfg.parameterLimit)
	}
	if opts.ListLimit != nil {
		cfg.listLimit = *opts.ListLimit
	}
	if opts.ParseLists != nil {
		cfg.parseLists = *opts.ParseLists
	}
	if opts.Charset != CharsetUTF8 && opts.Charset != CharsetLatin1 {
		return nil, newError(ErrCodeInvalidArgument, "unsupported charset %d", opts.Charset)
	}
	if opts.AllowDots != nil {
		cfg.allowDots = *opts.AllowDots
		if opts.DecodeDotInKeys && !cfg.allowDots {
			return nil, newError(ErrCodeInvalidArgument, "DecodeDotInKeys requires AllowDots")
		}
	} else {
		// DecodeDotInKeys implies dot parsing unless explicitly disabled.
		cfg.allowDots = opts.DecodeDotInKeys
	}
	if opts.Duplicates != DuplicatesCombine && opts.Duplicates != DuplicatesFirst && opts.Duplicates != DuplicatesLast {
		return nil, newError(ErrCodeInvalidArgument, "unsupported duplicates policy %d", opts.Duplicates)
	}
	return cfg, nil
}

// EncodeOptions configures Encode. The zero value gives default behavior.
type EncodeOptions struct {
	// Delimiter joins the encoded parts. Defaults to "&".
	Delimiter string

	// Encode percent-encodes keys and values. Defaults to true.
	Encode *bool

	// EncodeValuesOnly leaves keys unencoded.
	EncodeValuesOnly bool

	// AddQueryPrefix prepends '?' to non-empty output.
	AddQueryPrefix bool

	// AllowDots renders map-key separators as '.' instead of "[key]".
	// Implied by EncodeDotInKeys when unset.
	AllowDots *bool

	// EncodeDotInKeys escapes literal dots inside key names to "%2E" before
	// percent-encoding wraps the token.
	EncodeDotInKeys bool

	// StrictNullHandling emits a bare key (no '=') for Null leaves.
	StrictNullHandling bool

	// SkipNulls drops Null leaves entirely.
	SkipNulls bool

	// ListFormat selects the list serialization strategy.
	ListFormat ListFormat

	// CommaRoundTrip re-adds "[]" for single-element comma lists so they
	// decode back to lists.
	CommaRoundTrip bool

	// AllowEmptyLists emits "prefix[]" for empty lists instead of omitting
	// them.
	AllowEmptyLists bool

	// Charset selects the output charset.
	Charset Charset

	// CharsetSentinel prepends a literal "utf8=..." sentinel parameter.
	CharsetSentinel bool

	// Format selects the escaping dialect.
	Format Format

	// Sort orders sibling keys at every level.
	Sort SortFunc

	// Filter substitutes values (FuncFilter) or restricts and orders keys
	// (IterableFilter).
	Filter Filter

	// Encoder replaces the default percent encoder.
	Encoder Encoder

	// DateSerializer replaces the default ISO-8601 date/time form.
	DateSerializer DateSerializer
}

type encodeConfig struct {
	delimiter          string
	encode             bool
	encodeValuesOnly   bool
	addQueryPrefix     bool
	allowDots          bool
	encodeDotInKeys    bool
	strictNullHandling bool
	skipNulls          bool
	listFormat         ListFormat
	commaRoundTrip     bool
	allowEmptyLists    bool
	charset            Charset
	charsetSentinel    bool
	format             Format
	sort               SortFunc
	filter             Filter
	encoder            Encoder
	serializeDate      DateSerializer
}

func resolveEncodeOptions(opts *EncodeOptions) (*encodeConfig, error) {
	if opts == nil {
		opts = &EncodeOptions{}
	}
	cfg := &encodeConfig{
		delimiter:          opts.Delimiter,
		encode:             true,
		encodeValuesOnly:   opts.EncodeValuesOnly,
		addQueryPrefix:     opts.AddQueryPrefix,
		encodeDotInKeys:    opts.EncodeDotInKeys,
		strictNullHandling: opts.StrictNullHandling,
		skipNulls:          opts.SkipNulls,
		listFormat:         opts.ListFormat,
		commaRoundTrip:     opts.CommaRoundTrip,
		allowEmptyLists:    opts.AllowEmptyLists,
		charset:            opts.Charset,
		charsetSentinel:    opts.CharsetSentinel,
		format:             opts.Format,
		sort:               opts.Sort,
		filter:             opts.Filter,
		encoder:            opts.Encoder,
		serializeDate:      opts.DateSerializer,
	}
	if cfg.delimiter == "" {
		cfg.delimiter = DefaultDelimiter
	}
	if opts.Encode != nil {
		cfg.encode = *opts.Encode
	}
	if opts.Charset != CharsetUTF8 && opts.Charset != CharsetLatin1 {
		return nil, newError(ErrCodeInvalidArgument, "unsupported charset %d", opts.Charset)
	}
	if opts.Format != FormatRFC3986 && opts.Format != FormatRFC1738 {
		return nil, newError(ErrCodeInvalidArgument, "unsupported format %d", opts.Format)
	}
	if opts.ListFormat < ListFormatIndices || opts.ListFormat > ListFormatComma {
		return nil, newError(ErrCodeInvalidArgument, "unsupported list format %d", opts.ListFormat)
	}
	if opts.AllowDots != nil {
		cfg.allowDots = *opts.AllowDots
	} else {
		// EncodeDotInKeys implies dot separators unless explicitly set.
		cfg.allowDots = opts.EncodeDotInKeys
	}
	return cfg, nil
}
