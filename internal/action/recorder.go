package action

import (
	"sync"
	"time"
)

// Emitted is one item captured by a Recorder.
type Emitted struct {
	At   time.Time
	Item Item
}

// Recorder is a Sink that keeps everything emitted, stamped with a clock.
type Recorder struct {
	mu    sync.Mutex
	now   func() time.Time
	items []Emitted
}

// NewRecorder creates a recorder. A nil clock uses time.Now.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Emit records item.
func (r *Recorder) Emit(item Item) error {
	r.mu.Lock()
	r.items = append(r.items, Emitted{At: r.now(), Item: item})
	r.mu.Unlock()
	return nil
}

// Items returns a copy of everything recorded.
func (r *Recorder) Items() []Emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emitted, len(r.items))
	copy(out, r.items)
	return out
}

// Strings returns the String form of each recorded item.
func (r *Recorder) Strings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	for i, e := range r.items {
		out[i] = e.Item.String()
	}
	return out
}

// Reset discards recorded items.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}
