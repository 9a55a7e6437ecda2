package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "yaml" | "json"
}

// ValidFormats defines the allowed structure formats.
var ValidFormats = []string{"yaml", "json"}

// NewRootCommand creates the root command for the qs CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qs",
		Short: "qs - nested query-string codec",
		Long:  "Convert between percent-encoded query strings and nested structures, in both directions.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "yaml", "structure format (yaml|json)")

	// Add subcommands
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
