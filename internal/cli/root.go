// Package cli implements the toshy-rules command line.
package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/RedBearAK/Toshy/internal/logging"
)

// Build information, set by main.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbosity int
	LogFile   string
	NoColor   bool

	closeLog func() error
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "toshy-rules",
		Short: "Context-matching and multi-tap rule layer for key remapping",
		Long: `toshy-rules checks, simulates and runs keymap rule files: keymaps that
apply by window class, title, device and lock-key state, with multi-tap,
double-tap, toggle and Lua-computed outputs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logFile := opts.LogFile
			if logFile == "default" {
				logFile = logging.DefaultLogFile()
			}
			closeLog, err := logging.Setup(opts.Verbosity, logging.Options{
				Out:     cmd.ErrOrStderr(),
				LogFile: logFile,
				NoColor: opts.NoColor,
			})
			opts.closeLog = closeLog
			if err != nil {
				log.Warn().Err(err).Msg("Log file unavailable")
			}
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.closeLog != nil {
				return opts.closeLog()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "increase verbosity (-v info, -vv debug, -vvv trace)")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", `also write JSON logs to this file ("default" for the XDG state directory)`)
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored log output")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPatternCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		return 1
	}
	return 0
}
