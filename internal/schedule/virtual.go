package schedule

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a manually advanced Scheduler. Callbacks run on the goroutine
// that calls Advance, in deadline order, with ties broken by scheduling order.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	queue timerQueue
}

// NewVirtual creates a virtual scheduler whose clock starts at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// AfterFunc schedules fn at Now()+d. A non-positive d fires on the next Advance.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) Handle {
	v.mu.Lock()
	defer v.mu.Unlock()

	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{owner: v, when: v.now.Add(d), seq: v.seq, fn: fn}
	heap.Push(&v.queue, t)
	return t
}

// Advance moves the clock forward by d, running every callback that falls
// due. Callbacks scheduled by callbacks also run if they fall inside the
// window. The clock reads each callback's deadline while it runs.
func (v *Virtual) Advance(d time.Duration) {
	v.AdvanceTo(v.Now().Add(d))
}

// AdvanceTo moves the clock to target (never backwards), running due callbacks.
func (v *Virtual) AdvanceTo(target time.Time) {
	for {
		v.mu.Lock()
		next := v.popDueLocked(target)
		if next == nil {
			if target.After(v.now) {
				v.now = target
			}
			v.mu.Unlock()
			return
		}
		if next.when.After(v.now) {
			v.now = next.when
		}
		next.fired = true
		fn := next.fn
		v.mu.Unlock()

		fn()
	}
}

// Pending returns the number of callbacks still scheduled.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, t := range v.queue {
		if !t.stopped {
			n++
		}
	}
	return n
}

// popDueLocked removes and returns the earliest live timer due at or before
// target. Stopped timers are discarded on the way.
func (v *Virtual) popDueLocked(target time.Time) *virtualTimer {
	for v.queue.Len() > 0 {
		t := v.queue[0]
		if t.stopped {
			heap.Pop(&v.queue)
			continue
		}
		if t.when.After(target) {
			return nil
		}
		heap.Pop(&v.queue)
		return t
	}
	return nil
}

type virtualTimer struct {
	owner   *Virtual
	when    time.Time
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
	index   int
}

// Stop marks the timer dead; it is dropped lazily when it reaches the front.
func (t *virtualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// timerQueue is a min-heap on (when, seq).
type timerQueue []*virtualTimer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].when.Equal(q[j].when) {
		return q[i].seq < q[j].seq
	}
	return q[i].when.Before(q[j].when)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*virtualTimer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
