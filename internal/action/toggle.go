package action

import "sync"

// Latch is a shared on/off state read and flipped by Toggle actions, e.g.
// "Enter renames" in file managers. Every Toggle bound to one Latch sees the
// same state.
type Latch struct {
	mu sync.Mutex
	on bool
}

// NewLatch returns a latch in the off state.
func NewLatch() *Latch {
	return &Latch{}
}

// On reports the current state.
func (l *Latch) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Set forces the state.
func (l *Latch) Set(on bool) {
	l.mu.Lock()
	l.on = on
	l.mu.Unlock()
}

// Toggle chooses its output from a Latch.
//
// With Set nil it emits IfOn while the latch is on and IfOff while it is
// off, flipping the latch each time unless KeepOn / KeepOff hold it. With
// Set non-nil it always emits IfOn and forces the latch to *Set.
type Toggle struct {
	Latch   *Latch
	IfOn    Action
	IfOff   Action
	Set     *bool
	KeepOn  bool
	KeepOff bool
}

// Resolve returns the action to emit now and updates the latch.
func (t *Toggle) Resolve() Action {
	t.Latch.mu.Lock()
	defer t.Latch.mu.Unlock()

	if t.Set != nil {
		t.Latch.on = *t.Set
		return t.IfOn
	}
	if t.Latch.on {
		if !t.KeepOn {
			t.Latch.on = false
		}
		return t.IfOn
	}
	if !t.KeepOff {
		t.Latch.on = true
	}
	return t.IfOff
}

// Action wraps the toggle as a Computation.
func (t *Toggle) Action() Computation {
	return Compute0("toggle", func() (Action, error) {
		return t.Resolve(), nil
	})
}
