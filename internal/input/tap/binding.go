package tap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RedBearAK/Toshy/internal/action"
)

// MaxTaps is the highest tap count a run can reach.
const MaxTaps = 5

// ErrBinding indicates a binding with no actions or too many.
var ErrBinding = errors.New("invalid tap binding")

// Binding holds the actions for tap counts 1..n. A nil entry leaves that
// count unbound.
type Binding struct {
	actions []action.Action
	key     string
}

// NewBinding creates a binding; actions[i] runs after i+1 taps.
func NewBinding(actions ...action.Action) (Binding, error) {
	if len(actions) == 0 {
		return Binding{}, fmt.Errorf("%w: no actions", ErrBinding)
	}
	if len(actions) > MaxTaps {
		return Binding{}, fmt.Errorf("%w: %d actions, at most %d taps are counted", ErrBinding, len(actions), MaxTaps)
	}

	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = action.Canonical(a)
	}
	return Binding{
		actions: append([]action.Action(nil), actions...),
		key:     "taps(" + strings.Join(parts, " | ") + ")",
	}, nil
}

// Key is the binding's canonical identity. Bindings with equal keys share
// one Tapper.
func (b Binding) Key() string {
	return b.key
}

// Len returns the highest bound count.
func (b Binding) Len() int {
	return len(b.actions)
}

// Action returns the action for count, or nil if none is bound.
func (b Binding) Action(count int) action.Action {
	if count < 1 || count > len(b.actions) {
		return nil
	}
	return b.actions[count-1]
}
