package action

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/RedBearAK/Toshy/internal/input"
)

// MaxDepth bounds nesting of sequences and computations.
const MaxDepth = 16

// Sink receives output items one at a time, in dispatch order.
type Sink interface {
	Emit(item Item) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Item) error

// Emit calls f.
func (f SinkFunc) Emit(item Item) error {
	return f(item)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithMaxDepth overrides MaxDepth.
func WithMaxDepth(n int) Option {
	return func(d *Dispatcher) {
		d.maxDepth = n
	}
}

// Dispatcher flattens actions depth-first into a sink.
type Dispatcher struct {
	sink     Sink
	log      zerolog.Logger
	maxDepth int
}

// NewDispatcher creates a dispatcher writing to sink.
func NewDispatcher(sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sink:     sink,
		log:      zerolog.Nop(),
		maxDepth: MaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch emits every item a produces, in declaration order. Items already
// emitted stay emitted if a later part fails; dispatch stops at the first
// failure. A nil action is a no-op.
func (d *Dispatcher) Dispatch(a Action, ctx input.Context) error {
	return d.dispatch(a, ctx, 0)
}

func (d *Dispatcher) dispatch(a Action, ctx input.Context, depth int) error {
	if a == nil {
		return nil
	}
	if depth > d.maxDepth {
		return &DispatchError{Action: Canonical(a), Err: ErrDepthExceeded}
	}

	switch v := a.(type) {
	case Item:
		if err := d.sink.Emit(v); err != nil {
			return &DispatchError{Action: v.Canonical(), Err: fmt.Errorf("emit %s: %w", v.Kind(), err)}
		}
		d.log.Trace().Str("kind", v.Kind()).Str("item", v.String()).Msg("Emitted")
		return nil

	case Sequence:
		for _, child := range v {
			if err := d.dispatch(child, ctx, depth+1); err != nil {
				return err
			}
		}
		return nil

	case Computation:
		next, err := d.evaluate(v, ctx)
		if err != nil {
			return err
		}
		return d.dispatch(next, ctx, depth+1)

	default:
		return &DispatchError{Action: Canonical(a), Err: fmt.Errorf("unsupported action %T", a)}
	}
}

// evaluate runs a computation, turning panics into errors.
func (d *Dispatcher) evaluate(c Computation, ctx input.Context) (result Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Debug().Str("stack", string(debug.Stack())).Msg("Computation panicked")
			result = nil
			err = &DispatchError{Action: c.Canonical(), Panic: r}
		}
	}()

	if c.fn == nil {
		return nil, nil
	}
	result, err = c.fn(ctx)
	if err != nil {
		return nil, &DispatchError{Action: c.Canonical(), Err: err}
	}
	return result, nil
}
