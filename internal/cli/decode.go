package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qs"
)

// decodeFlags mirrors qs.DecodeOptions for the command line.
type decodeFlags struct {
	delimiter                string
	depth                    int
	parameterLimit           int
	listLimit                int
	allowDots                bool
	decodeDotInKeys          bool
	comma                    bool
	duplicates               string
	charset                  string
	charsetSentinel          bool
	ignoreQueryPrefix        bool
	strictNullHandling       bool
	strictDepth              bool
	allowEmptyLists          bool
	allowSparseLists         bool
	interpretNumericEntities bool
	throwOnLimit             bool
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &decodeFlags{}

	cmd := &cobra.Command{
		Use:   "decode [QUERY]",
		Short: "Decode a query string into a nested structure",
		Long: `Decode percent-encoded query-string text into a nested structure.

The query string is taken from the argument, or read from stdin when no
argument is given. The decoded structure is printed in the configured
output format.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, flags, cmd, args)
		},
	}

	cmd.Flags().StringVar(&flags.delimiter, "delimiter", qs.DefaultDelimiter, "parameter delimiter")
	cmd.Flags().IntVar(&flags.depth, "depth", qs.DefaultDepth, "maximum bracket nesting depth")
	cmd.Flags().IntVar(&flags.parameterLimit, "parameter-limit", qs.DefaultParameterLimit, "maximum number of parameters")
	cmd.Flags().IntVar(&flags.listLimit, "list-limit", qs.DefaultListLimit, "maximum numeric list index")
	cmd.Flags().BoolVar(&flags.allowDots, "allow-dots", false, "parse a.b as nested keys")
	cmd.Flags().BoolVar(&flags.decodeDotInKeys, "decode-dot-in-keys", false, "decode %2E in keys as literal dots")
	cmd.Flags().BoolVar(&flags.comma, "comma", false, "split unescaped commas into sub-values")
	cmd.Flags().StringVar(&flags.duplicates, "duplicates", "combine", "repeated-key policy (combine|first|last)")
	cmd.Flags().StringVar(&flags.charset, "charset", "utf-8", "input charset (utf-8|iso-8859-1)")
	cmd.Flags().BoolVar(&flags.charsetSentinel, "charset-sentinel", false, "honor a utf8= sentinel parameter")
	cmd.Flags().BoolVar(&flags.ignoreQueryPrefix, "ignore-query-prefix", false, "strip a leading '?'")
	cmd.Flags().BoolVar(&flags.strictNullHandling, "strict-null-handling", false, "decode bare keys as null")
	cmd.Flags().BoolVar(&flags.strictDepth, "strict-depth", false, "fail on keys nested deeper than depth")
	cmd.Flags().BoolVar(&flags.allowEmptyLists, "allow-empty-lists", false, "decode a[]= as an empty list")
	cmd.Flags().BoolVar(&flags.allowSparseLists, "allow-sparse-lists", false, "keep list holes as null slots")
	cmd.Flags().BoolVar(&flags.interpretNumericEntities, "interpret-numeric-entities", false, "interpret &#NNN; references in latin1 values")
	cmd.Flags().BoolVar(&flags.throwOnLimit, "throw-on-limit", false, "fail fast on limit breaches")

	return cmd
}

func runDecode(opts *RootOptions, flags *decodeFlags, cmd *cobra.Command, args []string) error {
	query, err := readArgument(cmd, args)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading input", err)
	}

	decodeOpts, err := flags.toOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	result, err := qs.Decode(query, decodeOpts)
	if err != nil {
		return WrapExitError(ExitFailure, "decode failed", err)
	}

	return writeStructure(cmd.OutOrStdout(), opts.Format, qs.ToGo(result))
}

func (f *decodeFlags) toOptions() (*qs.DecodeOptions, error) {
	duplicates, err := parseDuplicates(f.duplicates)
	if err != nil {
		return nil, err
	}
	charset, err := parseCharset(f.charset)
	if err != nil {
		return nil, err
	}
	return &qs.DecodeOptions{
		Delimiter:                f.delimiter,
		Depth:                    qs.IntPtr(f.depth),
		ParameterLimit:           qs.IntPtr(f.parameterLimit),
		ListLimit:                qs.IntPtr(f.listLimit),
		AllowDots:                qs.BoolPtr(f.allowDots || f.decodeDotInKeys),
		DecodeDotInKeys:          f.decodeDotInKeys,
		Comma:                    f.comma,
		Duplicates:               duplicates,
		Charset:                  charset,
		CharsetSentinel:          f.charsetSentinel,
		IgnoreQueryPrefix:        f.ignoreQueryPrefix,
		StrictNullHandling:       f.strictNullHandling,
		StrictDepth:              f.strictDepth,
		AllowEmptyLists:          f.allowEmptyLists,
		AllowSparseLists:         f.allowSparseLists,
		InterpretNumericEntities: f.interpretNumericEntities,
		ThrowOnLimitExceeded:     f.throwOnLimit,
	}, nil
}

func parseDuplicates(s string) (qs.Duplicates, error) {
	switch s {
	case "combine":
		return qs.DuplicatesCombine, nil
	case "first":
		return qs.DuplicatesFirst, nil
	case "last":
		return qs.DuplicatesLast, nil
	}
	return 0, fmt.Errorf("invalid duplicates policy %q: must be combine, first, or last", s)
}

func parseCharset(s string) (qs.Charset, error) {
	switch s {
	case "utf-8", "utf8":
		return qs.CharsetUTF8, nil
	case "iso-8859-1", "latin1":
		return qs.CharsetLatin1, nil
	}
	return 0, fmt.Errorf("invalid charset %q: must be utf-8 or iso-8859-1", s)
}

// readArgument returns the first positional argument, or stdin when absent.
func readArgument(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
