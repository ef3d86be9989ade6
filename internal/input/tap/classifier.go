// Package tap counts repeated strikes of a key and commits to an action
// once the key goes quiet.
//
// A Tapper tracks one run per binding: each qualifying tap extends the run
// and re-arms a finalize timer; when the timer fires, the action bound to
// the final count is dispatched with the context captured on the first tap.
// Commitment therefore lags the last tap by the tap interval.
package tap

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/schedule"
)

// Timing supplies the current tap interval and minimum tap delay. It is
// consulted on every tap so changes apply immediately.
type Timing interface {
	TapInterval() time.Duration
	MinTapDelay() time.Duration
}

// Dispatcher runs a finalized action.
type Dispatcher interface {
	Dispatch(a action.Action, ctx input.Context) error
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the classifier's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Classifier) {
		c.log = log
	}
}

// Classifier owns the Tappers and double-tap state for one rule set.
type Classifier struct {
	sched      schedule.Scheduler
	timing     Timing
	dispatcher Dispatcher
	log        zerolog.Logger

	mu      sync.Mutex
	tappers map[string]*Tapper

	double doubleState
}

// NewClassifier creates a classifier.
func NewClassifier(sched schedule.Scheduler, timing Timing, dispatcher Dispatcher, opts ...Option) *Classifier {
	c := &Classifier{
		sched:      sched,
		timing:     timing,
		dispatcher: dispatcher,
		log:        zerolog.Nop(),
		tappers:    make(map[string]*Tapper),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register returns the Tapper for b, creating it on first use. Registering
// an equal binding again returns the same Tapper.
func (c *Classifier) Register(b Binding) *Tapper {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tappers[b.Key()]; ok {
		return t
	}
	t := &Tapper{
		c:       c,
		binding: b,
		log:     c.log.With().Str("binding", b.Key()).Logger(),
	}
	c.tappers[b.Key()] = t
	return t
}

// Len returns the number of registered Tappers.
func (c *Classifier) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tappers)
}

// Active returns the number of Tappers with a run in progress.
func (c *Classifier) Active() int {
	c.mu.Lock()
	tappers := make([]*Tapper, 0, len(c.tappers))
	for _, t := range c.tappers {
		tappers = append(tappers, t)
	}
	c.mu.Unlock()

	n := 0
	for _, t := range tappers {
		if t.Count() > 0 {
			n++
		}
	}
	return n
}

// Reset abandons every run in progress without dispatching.
func (c *Classifier) Reset() {
	c.mu.Lock()
	tappers := make([]*Tapper, 0, len(c.tappers))
	for _, t := range c.tappers {
		tappers = append(tappers, t)
	}
	c.mu.Unlock()

	for _, t := range tappers {
		t.abandon()
	}
	c.double.reset()
}

// run is the state of one tap run.
type run struct {
	id     uuid.UUID
	count  int
	last   time.Time
	ctx    input.Context
	handle schedule.Handle
	// arm counts timer arms; only the latest arm's callback may finalize.
	arm uint64
}

// Tapper classifies taps for one Binding. Its mutex serializes taps and
// timer callbacks.
type Tapper struct {
	c       *Classifier
	binding Binding
	log     zerolog.Logger

	mu    sync.Mutex
	state *run
}

// Binding returns the binding this tapper serves.
func (t *Tapper) Binding() Binding {
	return t.binding
}

// Count returns the tap count of the current run, or 0 when idle.
func (t *Tapper) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return 0
	}
	return t.state.count
}

// Tap records one strike of the bound key. It never dispatches the current
// run's action; that happens when the run finalizes. A stale run is
// finalized here before the new run starts.
func (t *Tapper) Tap(ctx input.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.c.sched.Now()
	st := t.state
	if st == nil {
		t.startLocked(ctx, now)
		return
	}

	elapsed := now.Sub(st.last)
	interval := t.c.timing.TapInterval()

	switch {
	case elapsed < t.c.timing.MinTapDelay():
		t.log.Trace().Dur("elapsed", elapsed).Msg("Tap below minimum delay ignored")
		return

	case elapsed >= interval:
		t.log.Debug().Dur("elapsed", elapsed).Int("count", st.count).Msg("Stale tap run finalized")
		st.handle.Stop()
		t.state = nil
		t.finalizeLocked(st)
		t.startLocked(ctx, now)
		return

	case st.count >= MaxTaps:
		t.log.Trace().Msg("Tap count capped")
		return
	}

	st.handle.Stop()
	st.count++
	st.last = now
	t.armLocked(st, interval)
	t.log.Trace().Int("count", st.count).Str("run", st.id.String()).Msg("Tap counted")
}

func (t *Tapper) startLocked(ctx input.Context, now time.Time) {
	st := &run{
		id:    uuid.New(),
		count: 1,
		last:  now,
		ctx:   ctx,
	}
	t.state = st
	t.armLocked(st, t.c.timing.TapInterval())
	t.log.Trace().Str("run", st.id.String()).Msg("Tap run started")
}

func (t *Tapper) armLocked(st *run, interval time.Duration) {
	st.arm++
	arm := st.arm
	st.handle = t.c.sched.AfterFunc(interval, func() {
		t.expire(st, arm)
	})
}

// expire is the finalize timer callback. A callback that Stop could not
// prevent finds a newer run or a newer arm and does nothing.
func (t *Tapper) expire(st *run, arm uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != st || st.arm != arm {
		return
	}
	t.state = nil
	t.finalizeLocked(st)
}

// finalizeLocked dispatches the action for the run's count. Failures are
// logged and never reach the caller.
func (t *Tapper) finalizeLocked(st *run) {
	a := t.binding.Action(st.count)
	if a == nil {
		t.log.Debug().Int("count", st.count).Msg("No action bound for tap count")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Int("count", st.count).Msg("Tap action panicked")
		}
	}()

	t.log.Debug().Int("count", st.count).Str("run", st.id.String()).Msg("Tap run finalized")
	if err := t.c.dispatcher.Dispatch(a, st.ctx); err != nil {
		t.log.Error().Err(err).Int("count", st.count).Msg("Tap action failed")
	}
}

// abandon drops the current run without dispatching.
func (t *Tapper) abandon() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != nil {
		t.state.handle.Stop()
		t.state = nil
	}
}

// Action wraps Tap as a Computation that produces no immediate output.
func (t *Tapper) Action() action.Computation {
	return action.Compute("multi_tap", func(ctx input.Context) (action.Action, error) {
		t.Tap(ctx)
		return nil, nil
	})
}
