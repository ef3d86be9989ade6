package action

import (
	"errors"
	"fmt"
)

var (
	// ErrDispatch is matched by every *DispatchError.
	ErrDispatch = errors.New("dispatch failed")

	// ErrDepthExceeded indicates computations nested deeper than MaxDepth.
	ErrDepthExceeded = errors.New("action nesting too deep")
)

// DispatchError reports a failure while producing or emitting output.
type DispatchError struct {
	// Action is the canonical form of the failing action.
	Action string
	// Panic is the recovered panic value, if the action panicked.
	Panic any
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("dispatch %s: panic: %v", e.Action, e.Panic)
	}
	return fmt.Sprintf("dispatch %s: %v", e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match DispatchError with ErrDispatch.
func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatch
}
