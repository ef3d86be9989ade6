package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RedBearAK/Toshy/internal/rules/pattern"
)

// NewPatternCommand creates the pattern command group.
func NewPatternCommand(_ *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Build and test context patterns",
	}
	cmd.AddCommand(newPatternNegateCommand())
	cmd.AddCommand(newPatternMatchCommand())
	return cmd
}

func newPatternNegateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "negate LABEL...",
		Short: "Print the alternation of labels and its negation",
		Long: `Print a case-folded, anchored alternation matching any of the labels, and
the pattern that matches everything except them.

  toshy-rules pattern negate kitty Alacritty`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			alt := pattern.Alternation(args)
			neg := pattern.Negate(alt)
			for _, src := range []string{alt, neg} {
				if _, err := pattern.Compile(src, false); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "alternation: %s\nnegation:    %s\n", alt, neg)
			return nil
		},
	}
}

func newPatternMatchCommand() *cobra.Command {
	var caseSensitive bool

	cmd := &cobra.Command{
		Use:           "match PATTERN TEXT...",
		Short:         "Report whether PATTERN is found in each TEXT",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pattern.Compile(args[0], caseSensitive)
			if err != nil {
				return err
			}
			for _, text := range args[1:] {
				verdict := "no match"
				if p.Find(text) {
					verdict = "match"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s  %q\n", verdict, text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "do not fold case")
	return cmd
}
