// Package watcher reports changes to rule files for live reload.
//
// Editors often save by writing a temporary file and renaming it over the
// original, which replaces the inode a per-file watch would follow. The
// watcher therefore watches each file's directory and filters by name.
// Bursts of events are debounced into a single notification.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/RedBearAK/Toshy/internal/schedule"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 200 * time.Millisecond

// ErrWatcherClosed is returned when operating on a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one change to a watched file.
type Event struct {
	Path string
	Op   Operation
	Time time.Time
}

// Handler receives the events gathered during one quiet period, at most one
// per file, ordered by path.
type Handler func(events []Event)

// Watcher monitors files for changes.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	pending  map[string]Event
	debounce *schedule.Debouncer
	handler  Handler
	sched    schedule.Scheduler
	log      zerolog.Logger

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*options)

type options struct {
	debounce time.Duration
	sched    schedule.Scheduler
	log      zerolog.Logger
}

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithScheduler sets the scheduler that times the quiet period.
func WithScheduler(s schedule.Scheduler) Option {
	return func(o *options) {
		o.sched = s
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New starts a watcher that calls handler after changes settle.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	o := options{
		debounce: DefaultDebounce,
		sched:    schedule.NewReal(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]Event),
		handler: handler,
		sched:   o.sched,
		log:     o.log,
		closeCh: make(chan struct{}),
	}
	w.debounce = schedule.NewDebouncer(o.sched, o.debounce, w.flush)

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds files to the watch list. The files need not exist yet but
// their directories must.
func (w *Watcher) Watch(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		dir := filepath.Dir(abs)
		if !w.dirs[dir] {
			if err := w.fsw.Add(dir); err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			w.dirs[dir] = true
		}
		w.files[abs] = true
	}
	return nil
}

// Replace swaps the watch list, e.g. after a reload changed the includes.
func (w *Watcher) Replace(paths ...string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	for dir := range w.dirs {
		_ = w.fsw.Remove(dir)
	}
	w.dirs = make(map[string]bool)
	w.files = make(map[string]bool)
	w.mu.Unlock()

	return w.Watch(paths...)
}

// WatchedFiles returns the watched files, sorted.
func (w *Watcher) WatchedFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make([]string, 0, len(w.files))
	for p := range w.files {
		files = append(files, p)
	}
	sort.Strings(files)
	return files
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *Watcher) handle(fsEvent fsnotify.Event) {
	op, ok := convertOp(fsEvent.Op)
	if !ok {
		return
	}
	w.record(Event{Path: fsEvent.Name, Op: op, Time: w.sched.Now()})
}

// record queues an event for the next flush if its file is watched.
func (w *Watcher) record(ev Event) {
	w.mu.Lock()
	if !w.files[ev.Path] || w.closed {
		w.mu.Unlock()
		return
	}
	w.pending[ev.Path] = coalesce(w.pending[ev.Path], ev)
	w.mu.Unlock()

	w.debounce.Call()
}

// coalesce merges a new event into a pending one for the same file:
// a remove wins, a create is kept over a later write.
func coalesce(existing, ev Event) Event {
	if existing.Path == "" {
		return ev
	}
	switch {
	case ev.Op == OpRemove:
		return ev
	case ev.Op == OpWrite && existing.Op == OpCreate:
		existing.Time = ev.Time
		return existing
	default:
		return ev
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 || w.closed {
		w.mu.Unlock()
		return
	}
	events := make([]Event, 0, len(w.pending))
	for _, ev := range w.pending {
		events = append(events, ev)
	}
	w.pending = make(map[string]Event)
	w.mu.Unlock()

	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	w.log.Debug().Int("files", len(events)).Msg("Rule files changed")
	if w.handler != nil {
		w.handler(events)
	}
}

// convertOp maps fsnotify operations; chmod alone is ignored.
func convertOp(fsOp fsnotify.Op) (Operation, bool) {
	switch {
	case fsOp.Has(fsnotify.Remove):
		return OpRemove, true
	case fsOp.Has(fsnotify.Rename):
		return OpRename, true
	case fsOp.Has(fsnotify.Create):
		return OpCreate, true
	case fsOp.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

// Close stops the watcher. Pending events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.debounce.Cancel()
	w.wg.Wait()
	return w.fsw.Close()
}
