package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/config"
	"github.com/RedBearAK/Toshy/internal/engine"
	"github.com/RedBearAK/Toshy/internal/logging"
	"github.com/RedBearAK/Toshy/internal/schedule"
)

// simEpoch is the virtual start time of every simulation.
var simEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// drainAfter is how far past the last event a simulation runs so pending
// tap runs finalize.
const drainAfter = 10 * time.Second

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate RULES EVENTS",
		Short: "Replay a key timeline against a rule file",
		Long: `Replay a key timeline against a rule file in virtual time and print
every key and emitted item with its timestamp. The output is deterministic.

Timeline lines look like:

  0    RC-CapsLock  class=kitty
  120  RC-CapsLock
  900  C-Shift-c    title="Mozilla Firefox" nofocus

class, title and device carry over to later lines; numlock, capslock and
nofocus apply to their own line. '#' starts a comment.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(args[0])
			if err != nil {
				return err
			}
			events, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer events.Close()

			steps, err := ParseTimeline(events)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			return Simulate(cmd.OutOrStdout(), f, steps)
		},
	}
}

// Simulate replays steps against f and writes the trace to w.
func Simulate(w io.Writer, f *config.File, steps []Step) error {
	clock := schedule.NewVirtual(simEpoch)
	out := &traceWriter{w: w, clock: clock}

	eng := engine.New(action.SinkFunc(out.emit),
		engine.WithScheduler(clock),
		engine.WithLogger(logging.For("engine")),
	)
	defer eng.Close()

	if err := eng.Load(f); err != nil {
		return err
	}

	var last time.Duration
	for _, st := range steps {
		clock.AdvanceTo(simEpoch.Add(st.At))
		out.flush()

		res := eng.HandleKey(st.Key, st.Context)
		status := "keymap=" + res.Keymap
		switch {
		case !res.Context.ScreenHasFocus:
			status = "pass (unfocused)"
		case !res.Handled:
			status = "pass"
		}
		out.line("key", st.Key.String()+"  "+status)
		out.flush()
		if res.Err != nil {
			out.line("err", res.Err.Error())
		}
		last = st.At
	}

	clock.AdvanceTo(simEpoch.Add(last + drainAfter))
	out.flush()
	return out.err
}

// traceWriter formats simulation output. Items emitted while an event is
// being handled are held back so they print after the event's own line.
type traceWriter struct {
	w       io.Writer
	clock   *schedule.Virtual
	pending []string
	err     error
}

func (t *traceWriter) emit(item action.Item) error {
	t.pending = append(t.pending, t.format("out", item.String()))
	return nil
}

func (t *traceWriter) line(kind, text string) {
	t.write(t.format(kind, text))
}

func (t *traceWriter) flush() {
	for _, l := range t.pending {
		t.write(l)
	}
	t.pending = t.pending[:0]
}

func (t *traceWriter) format(kind, text string) string {
	ms := t.clock.Now().Sub(simEpoch).Milliseconds()
	return fmt.Sprintf("%6dms  %-3s  %s\n", ms, kind, text)
}

func (t *traceWriter) write(s string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, s)
}
