package engine

import (
	"github.com/rs/zerolog"

	"github.com/RedBearAK/Toshy/internal/config"
	"github.com/RedBearAK/Toshy/internal/schedule"
)

// FocusSource reports whether this machine's screen has keyboard focus.
type FocusSource interface {
	Focused() bool
}

// Option configures an Engine during creation.
type Option func(*Engine)

// WithScheduler sets the scheduler tap timers run on. Defaults to
// schedule.Real.
func WithScheduler(sched schedule.Scheduler) Option {
	return func(e *Engine) {
		if sched != nil {
			e.sched = sched
		}
	}
}

// WithTiming shares a multi-tap timing object with the engine. Loading a
// rule file applies its multitap settings to it.
func WithTiming(mt *config.MultiTap) Option {
	return func(e *Engine) {
		if mt != nil {
			e.timing = mt
		}
	}
}

// WithFocus sets the focus source consulted on every event.
func WithFocus(f FocusSource) Option {
	return func(e *Engine) {
		e.focus = f
	}
}

// WithLogger sets the engine's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}
