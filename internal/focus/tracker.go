package focus

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ErrTrackerClosed is returned when operating on a closed tracker.
var ErrTrackerClosed = errors.New("focus tracker is closed")

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Tracker) {
		t.log = log
	}
}

// WithClock sets the clock that dates the tracker's start.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// OnChange sets a callback run whenever the focus state flips.
func OnChange(fn func(focused bool)) Option {
	return func(t *Tracker) {
		t.onChange = fn
	}
}

// Tracker combines the focus reports of one or more log tails. The screen
// starts focused and keeps the most recently announced state.
type Tracker struct {
	mu       sync.Mutex
	tails    map[string]*Tail
	watcher  *fsnotify.Watcher
	started  time.Time
	now      func() time.Time
	log      zerolog.Logger
	onChange func(bool)
	focused  atomic.Bool

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewTracker creates a tracker with no logs.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		tails:   make(map[string]*Tail),
		now:     time.Now,
		log:     zerolog.Nop(),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.started = t.now()
	t.focused.Store(true)
	return t
}

// Add follows the log at path. Lines dated before the tracker was created
// are ignored.
func (t *Tracker) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTrackerClosed
	}
	if _, ok := t.tails[abs]; ok {
		return nil
	}
	t.tails[abs] = NewTail(abs, t.started)

	if t.watcher != nil {
		if err := t.watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
		}
	}
	return nil
}

// AddSoftware follows the first existing log of each named program.
// Unknown names and programs without a log are logged and skipped.
func (t *Tracker) AddSoftware(names []string, logPath string) int {
	added := 0
	if logPath != "" {
		if err := t.Add(logPath); err != nil {
			t.log.Warn().Err(err).Str("path", logPath).Msg("Cannot follow focus log")
			return 0
		}
		return 1
	}

	for _, name := range names {
		sw, ok := Lookup(name)
		if !ok {
			t.log.Warn().Str("software", name).Msg("Unknown device sharing software")
			continue
		}
		path, ok := sw.FindLog()
		if !ok {
			t.log.Debug().Str("software", name).Msg("No log file found")
			continue
		}
		if err := t.Add(path); err != nil {
			t.log.Warn().Err(err).Str("path", path).Msg("Cannot follow focus log")
			continue
		}
		t.log.Debug().Str("software", name).Str("path", path).Msg("Following focus log")
		added++
	}
	return added
}

// Focused reports whether this screen has focus.
func (t *Tracker) Focused() bool {
	return t.focused.Load()
}

// Paths returns the followed log files.
func (t *Tracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.tails))
	for p := range t.tails {
		paths = append(paths, p)
	}
	return paths
}

// Refresh reads every followed log once.
func (t *Tracker) Refresh() {
	t.mu.Lock()
	tails := make([]*Tail, 0, len(t.tails))
	for _, tail := range t.tails {
		tails = append(tails, tail)
	}
	t.mu.Unlock()

	for _, tail := range tails {
		t.read(tail)
	}
}

func (t *Tracker) read(tail *Tail) {
	t.mu.Lock()
	focused, changed, err := tail.Read()
	t.mu.Unlock()

	if err != nil {
		t.log.Warn().Err(err).Str("path", tail.Path()).Msg("Reading focus log")
		return
	}
	if changed {
		t.set(focused)
	}
}

func (t *Tracker) set(focused bool) {
	if t.focused.Swap(focused) == focused {
		return
	}
	t.log.Info().Bool("focused", focused).Msg("Screen focus changed")
	if t.onChange != nil {
		t.onChange(focused)
	}
}

// Start reads every log and then follows changes with fsnotify until Close.
func (t *Tracker) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = w.Close()
		return ErrTrackerClosed
	}
	dirs := make(map[string]bool)
	for p := range t.tails {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			t.mu.Unlock()
			_ = w.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	t.watcher = w
	t.mu.Unlock()

	t.Refresh()

	t.wg.Add(1)
	go t.loop(w)
	return nil
}

func (t *Tracker) loop(w *fsnotify.Watcher) {
	defer t.wg.Done()

	for {
		select {
		case <-t.closeCh:
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			t.mu.Lock()
			tail := t.tails[ev.Name]
			t.mu.Unlock()
			if tail != nil {
				t.read(tail)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			t.log.Warn().Err(err).Msg("Focus log watcher")
		}
	}
}

// Close stops following logs.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.closeCh)
	w := t.watcher
	t.mu.Unlock()

	t.wg.Wait()
	if w != nil {
		return w.Close()
	}
	return nil
}
