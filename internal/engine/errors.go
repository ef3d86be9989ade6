package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrClosed indicates the engine has been closed.
	ErrClosed = errors.New("engine is closed")

	// ErrNoScript indicates a Lua binding in a rule file with no script.
	ErrNoScript = errors.New("no script file configured")
)
