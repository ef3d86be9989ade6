package schedule

import (
	"sync"
	"time"
)

// Debouncer groups rapid successive calls into a single callback after a
// quiet period. It is safe for concurrent use, and the callback is never
// called concurrently with itself from one Debouncer.
type Debouncer struct {
	mu       sync.Mutex
	sched    Scheduler
	delay    time.Duration
	handle   Handle
	pending  bool
	seq      uint64 // detects stale callbacks
	callback func()
}

// NewDebouncer creates a debouncer that runs callback once no Call has
// happened for delay.
func NewDebouncer(sched Scheduler, delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		sched:    sched,
		delay:    delay,
		callback: callback,
	}
}

// Call (re)starts the quiet period.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	currentSeq := d.seq

	if d.handle != nil {
		d.handle.Stop()
	}

	d.handle = d.sched.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending && d.seq == currentSeq && d.callback != nil {
			d.pending = false
			d.handle = nil
			d.mu.Unlock()
			d.callback()
			return
		}
		d.mu.Unlock()
	})
}

// Flush runs the callback now if a call is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.handle != nil {
		d.handle.Stop()
		d.handle = nil
	}
	d.seq++

	if d.pending && d.callback != nil {
		d.pending = false
		d.mu.Unlock()
		d.callback()
		return
	}
	d.mu.Unlock()
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != nil {
		d.handle.Stop()
		d.handle = nil
	}
	d.seq++
	d.pending = false
}

// IsPending returns true if a callback is waiting for the quiet period.
func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
