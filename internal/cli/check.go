package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/config"
	"github.com/RedBearAK/Toshy/internal/engine"
	"github.com/RedBearAK/Toshy/internal/logging"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Quiet bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [RULES]",
		Short: "Load and compile a rule file",
		Long: `Load and compile a rule file and list its keymaps and bindings. Every
problem in the file is reported. The default file is
$XDG_CONFIG_HOME/toshy-rules/rules.toml.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			return Check(cmd.OutOrStdout(), path, opts.Quiet)
		},
	}
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "print only the summary line")
	return cmd
}

// Check loads and compiles the rule file at path and describes it on w.
func Check(w io.Writer, path string, quiet bool) error {
	f, err := config.Load(path)
	if err != nil {
		return describeErrors(err)
	}

	eng := engine.New(action.SinkFunc(func(action.Item) error { return nil }),
		engine.WithLogger(logging.For("engine")))
	defer eng.Close()

	rules, err := eng.Compile(f)
	if err != nil {
		return describeErrors(err)
	}

	fmt.Fprintf(w, "%s: %d keymaps, %d bindings, %d multi-tap\n",
		path, len(f.Keymaps), f.BindingCount(), rules.TapBindings())
	if quiet {
		return nil
	}

	if len(f.Files) > 1 {
		for _, file := range f.Files[1:] {
			fmt.Fprintf(w, "  includes %s\n", file)
		}
	}
	s := f.Settings
	fmt.Fprintf(w, "  multitap: tap_interval=%.2fs min_tap_delay=%.2fs\n", s.MultiTap.TapInterval, s.MultiTap.MinTapDelay)
	if s.Keyboard.Override != "" {
		fmt.Fprintf(w, "  keyboard: override=%s\n", s.Keyboard.Override)
	}
	if p := f.ScriptPath(); p != "" {
		fmt.Fprintf(w, "  scripts: %s\n", p)
	}

	for _, km := range rules.Summary() {
		var tags []string
		if km.KBType != "" {
			tags = append(tags, "kbtype="+km.KBType)
		}
		if km.When {
			tags = append(tags, "conditional")
		} else {
			tags = append(tags, "global")
		}
		fmt.Fprintf(w, "\nkeymap %q (%s)\n", km.Name, strings.Join(tags, ", "))
		for _, b := range km.Bindings {
			fmt.Fprintf(w, "  %-20s %s\n", b.Trigger, b.Action)
		}
	}
	return nil
}

// describeErrors flattens joined errors into one message per line.
func describeErrors(err error) error {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return err
	}
	errs := joined.Unwrap()
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = "  " + e.Error()
	}
	return fmt.Errorf("%d problems:\n%s", len(errs), strings.Join(lines, "\n"))
}
