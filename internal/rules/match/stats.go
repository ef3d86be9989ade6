package match

import (
	"sync"
	"sync/atomic"
	"time"
)

// Warm-up thresholds for skipping structural checks.
const (
	DefaultWarmEvaluations = 1000
	DefaultWarmAfter       = 6 * time.Second
)

// Stats counts matcher evaluations for every Matcher built by one Compiler.
// Once both thresholds have passed it turns warm and matchers stop
// re-checking their own structure on each call. It never affects results.
type Stats struct {
	evals     atomic.Uint64
	warm      atomic.Bool
	start     time.Time
	now       func() time.Time
	threshold uint64
	after     time.Duration
	mu        sync.Mutex
}

func newStats(now func() time.Time, threshold uint64, after time.Duration) *Stats {
	return &Stats{
		start:     now(),
		now:       now,
		threshold: threshold,
		after:     after,
	}
}

// record counts one evaluation and reports whether the counter is warm.
func (s *Stats) record() bool {
	n := s.evals.Add(1)
	if s.warm.Load() {
		return true
	}
	if n < s.threshold {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Sub(s.start) >= s.after {
		s.warm.Store(true)
	}
	return s.warm.Load()
}

// Evaluations returns the number of top-level evaluations so far.
func (s *Stats) Evaluations() uint64 {
	return s.evals.Load()
}

// Warm reports whether structural checks are being skipped.
func (s *Stats) Warm() bool {
	return s.warm.Load()
}
