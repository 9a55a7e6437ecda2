package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qs"
)

// encodeFlags mirrors qs.EncodeOptions for the command line.
type encodeFlags struct {
	delimiter          string
	listFormat         string
	allowDots          bool
	encodeDotInKeys    bool
	addQueryPrefix     bool
	charset            string
	charsetSentinel    bool
	encode             bool
	encodeValuesOnly   bool
	format             string
	skipNulls          bool
	strictNullHandling bool
	allowEmptyLists    bool
	commaRoundTrip     bool
	sortKeys           bool
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &encodeFlags{}

	cmd := &cobra.Command{
		Use:   "encode [FILE]",
		Short: "Encode a nested structure into a query string",
		Long: `Encode a nested structure into percent-encoded query-string text.

The structure is read as yaml or json from FILE, or from stdin when no
argument is given. The encoded query string is printed to stdout.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, flags, cmd, args)
		},
	}

	cmd.Flags().StringVar(&flags.delimiter, "delimiter", qs.DefaultDelimiter, "parameter delimiter")
	cmd.Flags().StringVar(&flags.listFormat, "list-format", "indices", "list strategy (indices|brackets|repeat|comma)")
	cmd.Flags().BoolVar(&flags.allowDots, "allow-dots", false, "render map-key separators as dots")
	cmd.Flags().BoolVar(&flags.encodeDotInKeys, "encode-dot-in-keys", false, "escape literal dots inside key names")
	cmd.Flags().BoolVar(&flags.addQueryPrefix, "add-query-prefix", false, "prepend '?' to non-empty output")
	cmd.Flags().StringVar(&flags.charset, "charset", "utf-8", "output charset (utf-8|iso-8859-1)")
	cmd.Flags().BoolVar(&flags.charsetSentinel, "charset-sentinel", false, "prepend a utf8= sentinel parameter")
	cmd.Flags().BoolVar(&flags.encode, "encode", true, "percent-encode keys and values")
	cmd.Flags().BoolVar(&flags.encodeValuesOnly, "encode-values-only", false, "leave keys unencoded")
	cmd.Flags().StringVar(&flags.format, "escape-format", "rfc3986", "escaping dialect (rfc3986|rfc1738)")
	cmd.Flags().BoolVar(&flags.skipNulls, "skip-nulls", false, "drop null leaves entirely")
	cmd.Flags().BoolVar(&flags.strictNullHandling, "strict-null-handling", false, "emit bare keys for null leaves")
	cmd.Flags().BoolVar(&flags.allowEmptyLists, "allow-empty-lists", false, "emit prefix[] for empty lists")
	cmd.Flags().BoolVar(&flags.commaRoundTrip, "comma-round-trip", false, "re-add [] for single-element comma lists")
	cmd.Flags().BoolVar(&flags.sortKeys, "sort", false, "sort keys alphabetically at every level")

	return cmd
}

func runEncode(opts *RootOptions, flags *encodeFlags, cmd *cobra.Command, args []string) error {
	data, err := readDocument(cmd, args)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading input", err)
	}

	input, err := readStructure(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "parsing input document", err)
	}

	encodeOpts, err := flags.toOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	out, err := qs.Encode(input, encodeOpts)
	if err != nil {
		return WrapExitError(ExitFailure, "encode failed", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (f *encodeFlags) toOptions() (*qs.EncodeOptions, error) {
	listFormat, err := parseListFormat(f.listFormat)
	if err != nil {
		return nil, err
	}
	charset, err := parseCharset(f.charset)
	if err != nil {
		return nil, err
	}
	format, err := parseEscapeFormat(f.format)
	if err != nil {
		return nil, err
	}
	encodeOpts := &qs.EncodeOptions{
		Delimiter:          f.delimiter,
		ListFormat:         listFormat,
		AllowDots:          qs.BoolPtr(f.allowDots || f.encodeDotInKeys),
		EncodeDotInKeys:    f.encodeDotInKeys,
		AddQueryPrefix:     f.addQueryPrefix,
		Charset:            charset,
		CharsetSentinel:    f.charsetSentinel,
		Encode:             qs.BoolPtr(f.encode),
		EncodeValuesOnly:   f.encodeValuesOnly,
		Format:             format,
		SkipNulls:          f.skipNulls,
		StrictNullHandling: f.strictNullHandling,
		AllowEmptyLists:    f.allowEmptyLists,
		CommaRoundTrip:     f.commaRoundTrip,
	}
	if f.sortKeys {
		encodeOpts.Sort = func(a, b string) int { return strings.Compare(a, b) }
	}
	return encodeOpts, nil
}

func parseListFormat(s string) (qs.ListFormat, error) {
	switch s {
	case "indices":
		return qs.ListFormatIndices, nil
	case "brackets":
		return qs.ListFormatBrackets, nil
	case "repeat":
		return qs.ListFormatRepeat, nil
	case "comma":
		return qs.ListFormatComma, nil
	}
	return 0, fmt.Errorf("invalid list format %q: must be indices, brackets, repeat, or comma", s)
}

func parseEscapeFormat(s string) (qs.Format, error) {
	switch s {
	case "rfc3986":
		return qs.FormatRFC3986, nil
	case "rfc1738":
		return qs.FormatRFC1738, nil
	}
	return 0, fmt.Errorf("invalid escape format %q: must be rfc3986 or rfc1738", s)
}

// readDocument returns the named file's contents, or stdin when absent.
func readDocument(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}
