package tap

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/schedule"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixedTiming struct {
	interval, minDelay time.Duration
}

func (f fixedTiming) TapInterval() time.Duration { return f.interval }
func (f fixedTiming) MinTapDelay() time.Duration { return f.minDelay }

var defaultTiming = fixedTiming{interval: 250 * time.Millisecond, minDelay: 70 * time.Millisecond}

type harness struct {
	v   *schedule.Virtual
	rec *action.Recorder
	c   *Classifier
}

func newHarness(opts ...Option) *harness {
	v := schedule.NewVirtual(epoch)
	rec := action.NewRecorder(v.Now)
	c := NewClassifier(v, defaultTiming, action.NewDispatcher(rec), opts...)
	return &harness{v: v, rec: rec, c: c}
}

// at advances the virtual clock to ms milliseconds after epoch.
func (h *harness) at(ms int) {
	h.v.AdvanceTo(epoch.Add(time.Duration(ms) * time.Millisecond))
}

func (h *harness) emitted() []string {
	return h.rec.Strings()
}

func (h *harness) emittedAt() []time.Duration {
	var out []time.Duration
	for _, e := range h.rec.Items() {
		out = append(out, e.At.Sub(epoch))
	}
	return out
}

func countBinding(t *testing.T) Binding {
	t.Helper()
	b, err := NewBinding(
		action.MustCombo("F1"),
		action.MustCombo("F2"),
		action.MustCombo("F3"),
		action.MustCombo("F4"),
		action.MustCombo("F5"),
	)
	require.NoError(t, err)
	return b
}

func TestTwoTapsFinalizeAfterInterval(t *testing.T) {
	h := newHarness()
	tp := h.c.Register(countBinding(t))
	ctx := input.NewContext("kitty", "")

	tp.Tap(ctx)
	h.at(100)
	tp.Tap(ctx)
	assert.Equal(t, 2, tp.Count())

	h.at(349)
	assert.Empty(t, h.emitted())

	h.at(350)
	assert.Equal(t, []string{"F2"}, h.emitted())
	assert.Equal(t, []time.Duration{350 * time.Millisecond}, h.emittedAt())
	assert.Zero(t, tp.Count())
}

func TestSingleTapFinalizesWithCountOne(t *testing.T) {
	h := newHarness()
	tp := h.c.Register(countBinding(t))

	tp.Tap(input.NewContext("kitty", ""))
	h.at(1000)

	assert.Equal(t, []string{"F1"}, h.emitted())
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, h.emittedAt())
}

func TestTapsBelowMinDelayCoalesce(t *testing.T) {
	h := newHarness()
	tp := h.c.Register(countBinding(t))
	ctx := input.NewContext("kitty", "")

	tp.Tap(ctx)
	h.at(30)
	tp.Tap(ctx)
	assert.Equal(t, 1, tp.Count())

	h.at(250)
	assert.Equal(t, []string{"F1"}, h.emitted())
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, h.emittedAt())
}

func TestCountCapsAtFive(t *testing.T) {
	h := newHarness()
	tp := h.c.Register(countBinding(t))
	ctx := input.NewContext("kitty", "")

	for i := 0; i < 7; i++ {
		h.at(i * 80)
		tp.Tap(ctx)
	}
	assert.Equal(t, MaxTaps, tp.Count())

	h.at(2000)
	assert.Equal(t, []string{"F5"}, h.emitted())
	// The fifth tap at 320ms armed the last timer; later taps did not rearm.
	assert.Equal(t, []time.Duration{570 * time.Millisecond}, h.emittedAt())
}

func TestFinalizeUsesFirstTapContext(t *testing.T) {
	h := newHarness()
	var seen []string
	b, err := NewBinding(nil, action.Compute("class", func(ctx input.Context) (action.Action, error) {
		seen = append(seen, ctx.WindowClass)
		return nil, nil
	}))
	require.NoError(t, err)
	tp := h.c.Register(b)

	tp.Tap(input.NewContext("first", ""))
	h.at(100)
	tp.Tap(input.NewContext("second", ""))
	h.at(1000)

	assert.Equal(t, []string{"first"}, seen)
}

func TestUnboundCountIsSilent(t *testing.T) {
	h := newHarness()
	b, err := NewBinding(action.MustCombo("Esc"))
	require.NoError(t, err)
	tp := h.c.Register(b)

	tp.Tap(input.Context{})
	h.at(100)
	tp.Tap(input.Context{})
	h.at(1000)

	assert.Empty(t, h.emitted())
	assert.Zero(t, tp.Count())
}

func TestDispatchFailureIsContained(t *testing.T) {
	var buf bytes.Buffer
	h := newHarness(WithLogger(zerolog.New(&buf)))

	bad, err := NewBinding(action.Compute0("boom", func() (action.Action, error) { panic("boom") }))
	require.NoError(t, err)
	good, err := NewBinding(action.MustCombo("a"))
	require.NoError(t, err)

	badTapper := h.c.Register(bad)
	goodTapper := h.c.Register(good)

	assert.NotPanics(t, func() {
		badTapper.Tap(input.Context{})
		goodTapper.Tap(input.Context{})
		h.at(500)
	})
	assert.Equal(t, []string{"a"}, h.emitted())
	assert.Contains(t, buf.String(), "Tap action failed")
}

func TestRegisterIsIdempotent(t *testing.T) {
	h := newHarness()
	a := h.c.Register(countBinding(t))
	b := h.c.Register(countBinding(t))
	assert.Same(t, a, b)

	other, err := NewBinding(action.MustCombo("F1"))
	require.NoError(t, err)
	assert.NotSame(t, a, h.c.Register(other))
	assert.Equal(t, 2, h.c.Len())
}

func TestNewBindingValidation(t *testing.T) {
	_, err := NewBinding()
	assert.ErrorIs(t, err, ErrBinding)

	six := make([]action.Action, 6)
	_, err = NewBinding(six...)
	assert.ErrorIs(t, err, ErrBinding)

	b, err := NewBinding(action.MustCombo("a"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Nil(t, b.Action(2))
	assert.Nil(t, b.Action(0))
	assert.Nil(t, b.Action(3))
	assert.Equal(t, "taps(combo:a | nil)", b.Key())
}

func TestResetAbandonsRuns(t *testing.T) {
	h := newHarness()
	tp := h.c.Register(countBinding(t))

	tp.Tap(input.Context{})
	assert.Equal(t, 1, h.c.Active())
	h.c.Reset()
	assert.Zero(t, h.c.Active())

	h.at(1000)
	assert.Empty(t, h.emitted())
}

func TestTapperAsAction(t *testing.T) {
	h := newHarness()
	tp := h.c.Register(countBinding(t))
	d := action.NewDispatcher(h.rec)

	require.NoError(t, d.Dispatch(tp.Action(), input.Context{}))
	assert.Empty(t, h.emitted())
	h.at(300)
	assert.Equal(t, []string{"F1"}, h.emitted())
}

// lagScheduler never fires on its own, so a run can outlive its interval.
// Its handles report the callback as already under way.
type lagScheduler struct {
	mu      sync.Mutex
	now     time.Time
	pending []func()
}

type lagHandle struct{}

func (lagHandle) Stop() bool { return false }

func (s *lagScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *lagScheduler) AfterFunc(_ time.Duration, fn func()) schedule.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
	return lagHandle{}
}

func TestStaleRunFinalizedOnNextTap(t *testing.T) {
	s := &lagScheduler{now: epoch}
	rec := action.NewRecorder(s.Now)
	var seen []string
	b, err := NewBinding(action.Compute("ctx", func(ctx input.Context) (action.Action, error) {
		seen = append(seen, ctx.WindowClass)
		return action.MustCombo("x"), nil
	}))
	require.NoError(t, err)

	c := NewClassifier(s, defaultTiming, action.NewDispatcher(rec))
	tp := c.Register(b)

	tp.Tap(input.NewContext("old", ""))
	s.now = epoch.Add(300 * time.Millisecond)
	tp.Tap(input.NewContext("new", ""))

	assert.Equal(t, []string{"old"}, seen)
	assert.Equal(t, 1, tp.Count())

	// The first run's timer arrives late and must not finalize the new run.
	s.pending[0]()
	assert.Equal(t, []string{"old"}, seen)
	assert.Equal(t, 1, tp.Count())

	s.pending[1]()
	assert.Equal(t, []string{"old", "new"}, seen)
	assert.Equal(t, []string{"x", "x"}, rec.Strings())
}

func TestRealSchedulerConcurrentTaps(t *testing.T) {
	rec := action.NewRecorder(nil)
	timing := fixedTiming{interval: 60 * time.Millisecond, minDelay: 5 * time.Millisecond}
	c := NewClassifier(schedule.NewReal(), timing, action.NewDispatcher(rec))
	tp := c.Register(countBinding(t))

	tp.Tap(input.Context{})
	time.Sleep(20 * time.Millisecond)
	tp.Tap(input.Context{})

	require.Eventually(t, func() bool {
		return len(rec.Items()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"F2"}, rec.Strings())
}

func TestRearmIgnoresCallbackAlreadyUnderWay(t *testing.T) {
	s := &lagScheduler{now: epoch}
	rec := action.NewRecorder(s.Now)
	b, err := NewBinding(action.MustCombo("F1"), action.MustCombo("F2"), action.MustCombo("F3"))
	require.NoError(t, err)

	c := NewClassifier(s, defaultTiming, action.NewDispatcher(rec))
	tp := c.Register(b)
	ctx := input.NewContext("kitty", "")

	steps := []struct {
		at   time.Duration
		fire int
	}{
		{0, -1},
		{240 * time.Millisecond, 0},
		{340 * time.Millisecond, 1},
	}
	for i, st := range steps {
		s.now = epoch.Add(st.at)
		tp.Tap(ctx)
		if st.fire >= 0 {
			// The timer of an earlier arm was already running when Tap
			// rearmed and now gets the lock.
			s.pending[st.fire]()
		}
		assert.Equal(t, i+1, tp.Count())
		assert.Empty(t, rec.Strings())
	}

	s.pending[len(s.pending)-1]()
	assert.Equal(t, []string{"F3"}, rec.Strings())
	assert.Equal(t, 0, tp.Count())
}
