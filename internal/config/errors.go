package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrValueOutOfRange indicates a tunable was set outside its bounds.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrFileNotFound indicates the rule file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrInvalidRules indicates the keymaps section is malformed.
	ErrInvalidRules = errors.New("invalid rules")

	// ErrInvalidSettings indicates a settings section has the wrong shape.
	ErrInvalidSettings = errors.New("invalid settings")
)

// ValueOutOfRangeError is returned when a tunable is rejected. The previous
// value stays in effect.
type ValueOutOfRangeError struct {
	// Name is the tunable, e.g. "tap_interval".
	Name string
	// Value is the rejected value.
	Value float64
	// Min and Max are the inclusive bounds.
	Min, Max float64
	// Kept is the value still in effect.
	Kept float64
}

// Error implements the error interface.
func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("%s %.3f outside [%.2f, %.2f], keeping %.3f",
		e.Name, e.Value, e.Min, e.Max, e.Kept)
}

// Is allows errors.Is to match ValueOutOfRangeError with ErrValueOutOfRange.
func (e *ValueOutOfRangeError) Is(target error) bool {
	return target == ErrValueOutOfRange
}

// RuleError locates a problem inside the keymaps section of a rule file.
type RuleError struct {
	// Path is the rule file.
	Path string
	// Keymap is the keymap name or index.
	Keymap string
	// Field is the offending entry inside the keymap.
	Field string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	loc := "keymap " + e.Keymap
	if e.Field != "" {
		loc += " " + e.Field
	}
	if e.Path != "" {
		loc = e.Path + ": " + loc
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error {
	return e.Err
}
