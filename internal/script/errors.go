package script

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrFunctionNotFound is returned when a binding names a function the
	// script does not define.
	ErrFunctionNotFound = errors.New("lua function not found")

	// ErrBadResult is returned when a function returns a value that is not
	// an action.
	ErrBadResult = errors.New("lua function returned an unsupported value")
)
