package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/config"
	"github.com/RedBearAK/Toshy/internal/config/watcher"
	"github.com/RedBearAK/Toshy/internal/engine"
	"github.com/RedBearAK/Toshy/internal/focus"
	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/input/key"
	"github.com/RedBearAK/Toshy/internal/input/termsource"
	"github.com/RedBearAK/Toshy/internal/logging"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Class   string
	Title   string
	Device  string
	Quit    string
	NoWatch bool
	NoFocus bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [RULES]",
		Short: "Apply a rule file to keys typed in this terminal",
		Long: `Apply a rule file to keys typed in this terminal, in real time, and show
what each key emits. The rule file is reloaded when it or one of its
includes changes; a reload that fails keeps the previous rules.

Terminals cannot report every key or modifier. Use --class, --title and
--device to choose the context keys are evaluated in.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := runRules(ctx, opts, path)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Class, "class", "terminal", "window class keys are evaluated with")
	cmd.Flags().StringVar(&opts.Title, "title", "", "window title keys are evaluated with")
	cmd.Flags().StringVar(&opts.Device, "device", "", "device name keys are evaluated with")
	cmd.Flags().StringVar(&opts.Quit, "quit", "C-q", "combo that exits")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "do not reload the rule file on change")
	cmd.Flags().BoolVar(&opts.NoFocus, "no-focus", false, "do not follow device sharing logs")
	return cmd
}

func runRules(ctx context.Context, opts *RunOptions, path string) error {
	log := logging.For("run")

	quit, err := key.Parse(opts.Quit)
	if err != nil {
		return fmt.Errorf("--quit: %w", err)
	}
	f, err := config.Load(path)
	if err != nil {
		return describeErrors(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal screen: %w", err)
	}
	defer screen.Fini()

	src := termsource.New(screen,
		input.NewContext(opts.Class, opts.Title).WithDevice(opts.Device),
		termsource.WithQuit(quit),
		termsource.WithLogger(logging.For("termsource")),
	)
	sink := action.SinkFunc(func(item action.Item) error {
		src.Println("  out  " + item.String())
		return nil
	})

	engineOpts := []engine.Option{engine.WithLogger(logging.For("engine"))}
	if !opts.NoFocus {
		tracker := focus.NewTracker(
			focus.WithLogger(logging.For("focus")),
			focus.OnChange(func(focused bool) {
				src.Println(fmt.Sprintf("screen focus: %t", focused))
			}),
		)
		if n := tracker.AddSoftware(f.Settings.Focus.Software, f.Settings.Focus.LogPath); n > 0 {
			if err := tracker.Start(); err != nil {
				log.Warn().Err(err).Msg("Focus tracking disabled")
			} else {
				defer tracker.Close()
				engineOpts = append(engineOpts, engine.WithFocus(tracker))
			}
		}
	}

	eng := engine.New(sink, engineOpts...)
	defer eng.Close()
	if err := eng.Load(f); err != nil {
		return describeErrors(err)
	}

	rl := &reloader{path: path, engine: eng, report: src.Println, log: log}
	if !opts.NoWatch {
		w, err := watcher.New(rl.reload, watcher.WithLogger(logging.For("watcher")))
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.Watch(f.Files...); err != nil {
			return err
		}
		rl.watch = w
	}

	src.Println(fmt.Sprintf("%s: %d keymaps, %d bindings. %s quits.", path, len(f.Keymaps), f.BindingCount(), quit))
	return src.Run(ctx, func(ev key.Event, kctx input.Context) {
		res := eng.HandleKey(ev, kctx)
		switch {
		case res.Handled:
			src.Println(fmt.Sprintf("%-16s [%s]", ev.String(), res.Keymap))
		case !res.Context.ScreenHasFocus:
			src.Println(fmt.Sprintf("%-16s pass (unfocused)", ev.String()))
		default:
			src.Println(fmt.Sprintf("%-16s pass", ev.String()))
		}
	})
}

// replacer is the part of watcher.Watcher a reload needs.
type replacer interface {
	Replace(paths ...string) error
}

// reloader recompiles the rule file when the watcher reports a change.
type reloader struct {
	path   string
	engine *engine.Engine
	watch  replacer
	report func(string)
	log    zerolog.Logger
}

func (r *reloader) reload(events []watcher.Event) {
	for _, ev := range events {
		r.log.Debug().Str("path", ev.Path).Stringer("op", ev.Op).Msg("Rule file changed")
	}

	f, err := config.Load(r.path)
	if err == nil {
		err = r.engine.Load(f)
	}
	if err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("Reload failed, keeping previous rules")
		r.report("reload failed: " + describeErrors(err).Error())
		return
	}

	if r.watch != nil {
		if err := r.watch.Replace(f.Files...); err != nil {
			r.log.Warn().Err(err).Msg("Updating watch list")
		}
	}
	r.log.Info().Str("path", r.path).Int("keymaps", len(f.Keymaps)).Msg("Rules reloaded")
	r.report(fmt.Sprintf("reloaded: %d keymaps, %d bindings", len(f.Keymaps), f.BindingCount()))
}
