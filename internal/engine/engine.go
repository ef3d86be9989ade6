package engine

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/config"
	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/input/key"
	"github.com/RedBearAK/Toshy/internal/rules/match"
	"github.com/RedBearAK/Toshy/internal/schedule"
)

// Result reports how an event was handled.
type Result struct {
	// Handled is true when a binding consumed the event. A handled event
	// may emit nothing yet, e.g. the first tap of a multi-tap binding.
	Handled bool

	// Keymap and Trigger identify the binding that handled the event.
	Keymap  string
	Trigger string

	// Context is the context the event was evaluated with, keyboard type
	// filled in.
	Context input.Context

	// Err is the dispatch failure, if any. Items emitted before the
	// failure stay emitted.
	Err error
}

// Engine routes key events through the installed Rules.
//
// All methods are safe for concurrent use.
type Engine struct {
	session    uuid.UUID
	sched      schedule.Scheduler
	timing     *config.MultiTap
	focus      FocusSource
	dispatcher *action.Dispatcher
	matchers   *match.Compiler
	log        zerolog.Logger

	latchMu sync.Mutex
	latches map[string]*action.Latch

	mu     sync.RWMutex
	rules  *Rules
	closed bool
}

// New creates an engine emitting to sink. It has no rules until Load or
// Swap is called; until then every event passes through.
func New(sink action.Sink, opts ...Option) *Engine {
	e := &Engine{
		session: uuid.New(),
		sched:   schedule.NewReal(),
		log:     zerolog.Nop(),
		latches: make(map[string]*action.Latch),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("session", e.session.String()).Logger()
	if e.timing == nil {
		e.timing = config.NewMultiTap(e.log)
	}
	e.dispatcher = action.NewDispatcher(sink, action.WithLogger(e.log))
	e.matchers = match.NewCompiler(
		match.WithLogger(e.log),
		match.WithClock(e.sched.Now),
	)
	return e
}

// Session identifies this engine instance in logs.
func (e *Engine) Session() uuid.UUID {
	return e.session
}

// Timing returns the multi-tap timing in use.
func (e *Engine) Timing() *config.MultiTap {
	return e.timing
}

// Stats returns the context-match statistics shared by every rule set this
// engine compiles.
func (e *Engine) Stats() *match.Stats {
	return e.matchers.Stats()
}

// Rules returns the installed rules, or nil.
func (e *Engine) Rules() *Rules {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules
}

// Load compiles f, applies its multitap settings and installs the result.
// On a compile error the installed rules are kept. Out-of-range timing
// values are logged and do not fail the load.
func (e *Engine) Load(f *config.File) error {
	r, err := e.Compile(f)
	if err != nil {
		return err
	}
	if err := f.Settings.Apply(e.timing); err != nil {
		e.log.Warn().Err(err).Msg("Multi-tap settings partly rejected")
	}
	return e.Swap(r)
}

// Swap installs r and releases the previous rules. Tap runs in progress on
// the previous rules are abandoned without dispatching.
func (e *Engine) Swap(r *Rules) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		r.close()
		return ErrClosed
	}
	old := e.rules
	e.rules = r
	e.mu.Unlock()

	if old != nil {
		old.close()
	}
	e.log.Info().
		Str("rules", r.id.String()).
		Str("path", r.path).
		Int("keymaps", len(r.keymaps)).
		Msg("Rules installed")
	return nil
}

// HandleKey evaluates ev in ctx and dispatches the bound action, if any.
func (e *Engine) HandleKey(ev key.Event, ctx input.Context) Result {
	if e.focus != nil && !e.focus.Focused() {
		ctx.ScreenHasFocus = false
	}

	e.mu.RLock()
	r, closed := e.rules, e.closed
	e.mu.RUnlock()

	res := Result{Context: ctx}
	if closed || r == nil {
		return res
	}
	if !ctx.ScreenHasFocus {
		e.log.Trace().Str("key", ev.String()).Msg("Screen unfocused, passing through")
		return res
	}

	if ctx.KeyboardType == "" && ctx.DeviceName != "" {
		ctx.KeyboardType = r.kbtypes.Classify(ctx.DeviceName)
		res.Context = ctx
	}

	trig := ev.String()
	km, b := r.lookup(trig, ctx)
	if b == nil {
		e.log.Trace().Str("key", trig).Msg("No binding")
		return res
	}

	res.Handled = true
	res.Keymap = km.name
	res.Trigger = trig
	e.log.Debug().
		Str("key", trig).
		Str("keymap", km.name).
		Str("action", b.spec.String()).
		Msg("Binding matched")

	if err := e.dispatcher.Dispatch(b.action, ctx); err != nil {
		e.log.Error().Err(err).Str("key", trig).Str("keymap", km.name).Msg("Binding failed")
		res.Err = err
	}
	return res
}

// lookup returns the first applicable keymap binding trig.
func (r *Rules) lookup(trig string, ctx input.Context) (*keymap, *binding) {
	for _, km := range r.keymaps {
		b, ok := km.bindings[trig]
		if !ok {
			continue
		}
		if km.kbtype != "" && km.kbtype != ctx.KeyboardType {
			continue
		}
		if km.when != nil && !km.when.Matches(ctx) {
			continue
		}
		return km, b
	}
	return nil, nil
}

// latch returns the named latch, creating it in the on state. Latches
// outlive rule reloads.
func (e *Engine) latch(name string) *action.Latch {
	e.latchMu.Lock()
	defer e.latchMu.Unlock()
	if l, ok := e.latches[name]; ok {
		return l
	}
	l := action.NewLatch()
	l.Set(true)
	e.latches[name] = l
	return l
}

// Close releases the installed rules. Later events pass through and Swap
// fails with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	r := e.rules
	e.rules = nil
	e.mu.Unlock()

	if r != nil {
		r.close()
	}
}
