// Package schedule provides the cancellable delayed-callback capability used
// for tap finalization and debouncing.
//
// Real runs callbacks on timer goroutines. Virtual runs them synchronously
// from Advance, which makes timing-dependent behavior reproducible in tests
// and in offline simulations.
package schedule

import "time"

// Handle cancels a scheduled callback.
type Handle interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or was already stopped.
	Stop() bool
}

// Scheduler is a clock plus a delayed-callback facility.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// AfterFunc arranges for fn to run once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Handle
}

// Real is the wall-clock Scheduler backed by time.AfterFunc.
type Real struct{}

// NewReal returns a wall-clock scheduler.
func NewReal() Real {
	return Real{}
}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc. fn runs on its own goroutine.
func (Real) AfterFunc(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}

// Seconds converts a float number of seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
