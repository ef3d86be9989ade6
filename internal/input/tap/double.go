package tap

import (
	"sync"
	"time"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/input"
)

// doubleState is shared by every DoubleTap of one Classifier. It remembers
// only the output of the pending first tap, so two keys bound to the same
// output can complete each other's double tap.
type doubleState struct {
	mu    sync.Mutex
	count int
	first time.Time
	last  string
}

func (s *doubleState) reset() {
	s.mu.Lock()
	s.count = 0
	s.first = time.Time{}
	s.last = ""
	s.mu.Unlock()
}

// DoubleTap yields its output only when struck twice within the tap
// interval. A single strike produces nothing.
type DoubleTap struct {
	c      *Classifier
	output action.Action
	key    string
}

// DoubleTap creates a double-tap trigger for output.
func (c *Classifier) DoubleTap(output action.Action) *DoubleTap {
	return &DoubleTap{c: c, output: output, key: action.Canonical(output)}
}

// Tap records a strike and returns the output on a qualifying second tap,
// or nil.
func (d *DoubleTap) Tap() action.Action {
	s := &d.c.double
	s.mu.Lock()
	defer s.mu.Unlock()

	now := d.c.sched.Now()
	elapsed := now.Sub(s.first)

	if s.count == 1 && s.last != d.key {
		s.last = ""
		s.count = 0
	}
	if s.count == 1 && elapsed >= d.c.timing.TapInterval() {
		s.count = 0
	}
	if s.count == 1 && elapsed < d.c.timing.MinTapDelay() {
		s.count = 0
		return nil
	}
	if s.count == 1 {
		s.count = 0
		s.first = time.Time{}
		d.c.log.Debug().Str("output", d.key).Msg("Double tap")
		return d.output
	}

	s.last = d.key
	s.count = 1
	s.first = now
	return nil
}

// Action wraps Tap as a Computation.
func (d *DoubleTap) Action() action.Computation {
	return action.Compute("double_tap", func(input.Context) (action.Action, error) {
		return d.Tap(), nil
	})
}
