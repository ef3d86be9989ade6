// Package action models what a binding produces and dispatches it to an
// output sink.
//
// An Action is a closed variant: a single output Item (Combo, Text or
// Unicode), an ordered Sequence of actions, or a Computation evaluated at
// dispatch time whose result is dispatched in turn.
package action

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/input/key"
)

// Action is the closed set of dispatchable values.
type Action interface {
	// Canonical returns a comparable identity. Equal items share one;
	// each Computation has its own.
	Canonical() string
	isAction()
}

// Item is an Action the sink can emit directly.
type Item interface {
	Action
	// Kind names the item type: "combo", "text" or "unicode".
	Kind() string
	String() string
}

// Combo emits one key combo.
type Combo struct {
	Event key.Event
}

// NewCombo parses spec into a Combo.
func NewCombo(spec string) (Combo, error) {
	ev, err := key.Parse(spec)
	if err != nil {
		return Combo{}, err
	}
	return Combo{Event: ev}, nil
}

// MustCombo is NewCombo that panics on error.
func MustCombo(spec string) Combo {
	return Combo{Event: key.MustParse(spec)}
}

func (Combo) isAction()           {}
func (Combo) Kind() string        { return "combo" }
func (c Combo) String() string    { return c.Event.String() }
func (c Combo) Canonical() string { return "combo:" + c.Event.String() }

// Text types a string.
type Text struct {
	Text string
}

func (Text) isAction()           {}
func (Text) Kind() string        { return "text" }
func (t Text) String() string    { return strconv.Quote(t.Text) }
func (t Text) Canonical() string { return "text:" + strconv.Quote(t.Text) }

// Unicode enters a single character by code point.
type Unicode struct {
	Rune rune
}

func (Unicode) isAction()    {}
func (Unicode) Kind() string { return "unicode" }

func (u Unicode) String() string {
	return fmt.Sprintf("U+%04X %c", u.Rune, u.Rune)
}

func (u Unicode) Canonical() string { return fmt.Sprintf("unicode:U+%04X", u.Rune) }

// Sequence dispatches its actions in order.
type Sequence []Action

func (Sequence) isAction() {}

// Canonical joins the children's identities.
func (s Sequence) Canonical() string {
	parts := make([]string, len(s))
	for i, a := range s {
		parts[i] = canonical(a)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var computationIDs atomic.Uint64

// Computation produces an action at dispatch time. A nil result emits nothing.
type Computation struct {
	name string
	id   uint64
	fn   func(input.Context) (Action, error)
}

// Compute creates a computation that receives the event context.
func Compute(name string, fn func(input.Context) (Action, error)) Computation {
	return Computation{name: name, id: computationIDs.Add(1), fn: fn}
}

// Compute0 creates a computation that ignores the event context.
func Compute0(name string, fn func() (Action, error)) Computation {
	return Compute(name, func(input.Context) (Action, error) {
		return fn()
	})
}

func (Computation) isAction() {}

// Name returns the computation's descriptive name.
func (c Computation) Name() string {
	return c.name
}

// Canonical identifies this computation instance.
func (c Computation) Canonical() string {
	return fmt.Sprintf("fn:%s#%d", c.name, c.id)
}

// Canonical returns a's identity, or "nil".
func Canonical(a Action) string {
	return canonical(a)
}

func canonical(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.Canonical()
}
