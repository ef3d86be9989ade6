package termsource

import (
	"context"
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/input/key"
)

// ErrRunning is returned by Run when the source is already running.
var ErrRunning = errors.New("terminal source already running")

// Handler receives each converted key event with the source's context.
type Handler func(ev key.Event, ctx input.Context)

// Option configures a Source.
type Option func(*Source)

// WithQuit sets the combo that ends Run. Defaults to Ctrl-q.
func WithQuit(ev key.Event) Option {
	return func(s *Source) {
		s.quit = ev.String()
	}
}

// WithLogger sets the source's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Source) {
		s.log = log
	}
}

// Source reads key events from a tcell screen and shows emitted output as
// a scrolling list of lines.
type Source struct {
	screen tcell.Screen
	quit   string
	log    zerolog.Logger

	mu      sync.Mutex
	ctx     input.Context
	lines   []string
	running bool
}

// New creates a source on an initialized screen. Events are reported with
// ctx until SetContext changes it.
func New(screen tcell.Screen, ctx input.Context, opts ...Option) *Source {
	s := &Source{
		screen: screen,
		quit:   "Ctrl-q",
		log:    zerolog.Nop(),
		ctx:    ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetContext replaces the context reported with later events.
func (s *Source) SetContext(ctx input.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

// Context returns the current context.
func (s *Source) Context() input.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Run polls the screen and calls h for every key until the quit combo is
// pressed, ctx is cancelled, or the screen is finalized.
func (s *Source) Run(ctx context.Context, h Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// PollEvent returns nil once an interrupt is delivered.
			_ = s.screen.PostEvent(tcell.NewEventInterrupt(ctx.Err()))
		case <-done:
		}
	}()

	for {
		switch ev := s.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			return ctx.Err()
		case *tcell.EventResize:
			s.mu.Lock()
			s.redrawLocked()
			s.mu.Unlock()
		case *tcell.EventKey:
			kev, ok := Convert(ev)
			if !ok {
				s.log.Debug().Str("key", ev.Name()).Msg("Unsupported terminal key")
				continue
			}
			if kev.String() == s.quit {
				return nil
			}
			h(kev, s.Context())
		}
	}
}

// Println appends a line to the output area. Safe to call from any
// goroutine.
func (s *Source) Println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	_, height := s.screen.Size()
	if height > 0 && len(s.lines) > height {
		s.lines = s.lines[len(s.lines)-height:]
	}
	s.redrawLocked()
}

// Lines returns the lines currently shown.
func (s *Source) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *Source) redrawLocked() {
	s.screen.Clear()
	width, _ := s.screen.Size()
	for y, line := range s.lines {
		x := 0
		for _, r := range line {
			if x >= width {
				break
			}
			s.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
			x++
		}
	}
	s.screen.Show()
}
