package config

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Multi-tap timing bounds, in seconds.
const (
	DefaultTapInterval = 0.25
	MinTapInterval     = 0.15
	MaxTapInterval     = 1.5

	DefaultMinTapDelay = 0.07
	MinMinTapDelay     = 0.05
	MaxMinTapDelay     = 0.5

	// minDelayClampRatio is the fraction of the interval used when the
	// minimum delay would reach or exceed the interval.
	minDelayClampRatio = 0.25
)

// MultiTap holds the tap-timing tunables. It is safe for concurrent use and
// may be changed while classifiers are running; they read it on every tap.
type MultiTap struct {
	mu       sync.RWMutex
	interval float64
	minDelay float64
	log      zerolog.Logger
}

// NewMultiTap returns the default timing. Rejections and clamps are logged
// to log.
func NewMultiTap(log zerolog.Logger) *MultiTap {
	return &MultiTap{
		interval: DefaultTapInterval,
		minDelay: DefaultMinTapDelay,
		log:      log,
	}
}

// TapInterval returns how long a tap run stays open after its latest tap.
func (m *MultiTap) TapInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return seconds(m.interval)
}

// MinTapDelay returns the shortest gap between taps that still counts.
func (m *MultiTap) MinTapDelay() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return seconds(m.minDelay)
}

// Values returns the interval and minimum delay in seconds.
func (m *MultiTap) Values() (interval, minDelay float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.interval, m.minDelay
}

// SetTapInterval sets the interval. Out-of-range values are rejected. If the
// current minimum delay is no longer below the new interval it is clamped.
func (m *MultiTap) SetTapInterval(s float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setIntervalLocked(s); err != nil {
		return err
	}
	m.clampLocked()
	return nil
}

// SetMinTapDelay sets the minimum delay. Out-of-range values are rejected;
// a value at or above the interval is clamped to a quarter of the interval.
func (m *MultiTap) SetMinTapDelay(s float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setMinDelayLocked(s); err != nil {
		return err
	}
	m.clampLocked()
	return nil
}

// Configure sets both tunables, interval first. A rejected value leaves that
// tunable unchanged while the other is still applied; the first rejection is
// returned.
func (m *MultiTap) Configure(interval, minDelay float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	errInterval := m.setIntervalLocked(interval)
	errDelay := m.setMinDelayLocked(minDelay)
	m.clampLocked()

	if errInterval != nil {
		return errInterval
	}
	return errDelay
}

func (m *MultiTap) setIntervalLocked(s float64) error {
	if !(s >= MinTapInterval && s <= MaxTapInterval) {
		err := &ValueOutOfRangeError{Name: "tap_interval", Value: s, Min: MinTapInterval, Max: MaxTapInterval, Kept: m.interval}
		m.log.Warn().Err(err).Msg("Rejected tap interval")
		return err
	}
	m.interval = s
	return nil
}

func (m *MultiTap) setMinDelayLocked(s float64) error {
	if !(s >= MinMinTapDelay && s <= MaxMinTapDelay) {
		err := &ValueOutOfRangeError{Name: "min_tap_delay", Value: s, Min: MinMinTapDelay, Max: MaxMinTapDelay, Kept: m.minDelay}
		m.log.Warn().Err(err).Msg("Rejected minimum tap delay")
		return err
	}
	m.minDelay = s
	return nil
}

// clampLocked keeps the minimum delay strictly below the interval.
func (m *MultiTap) clampLocked() {
	if m.minDelay < m.interval {
		return
	}
	clamped := m.interval * minDelayClampRatio
	m.log.Warn().
		Float64("min_tap_delay", m.minDelay).
		Float64("tap_interval", m.interval).
		Float64("clamped", clamped).
		Msg("Minimum tap delay not below tap interval, clamping")
	m.minDelay = clamped
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
