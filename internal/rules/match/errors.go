package match

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every *ConfigurationError.
var ErrConfiguration = errors.New("invalid match specification")

// ConfigurationError describes a malformed match specification. It is
// returned at load time; a matcher is never built from a failing spec.
type ConfigurationError struct {
	// Key is the specification key at fault, empty when the whole spec is.
	Key string
	// Path locates nested child specs, e.g. "lst[1]".
	Path string
	// Message describes the problem.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	where := e.Key
	if e.Path != "" {
		if where != "" {
			where = e.Path + "." + where
		} else {
			where = e.Path
		}
	}
	if where == "" {
		return fmt.Sprintf("match spec: %s", e.Message)
	}
	return fmt.Sprintf("match spec %s: %s", where, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match ConfigurationError with ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErr(key, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, Message: fmt.Sprintf(format, args...)}
}

// nest prefixes the error location with a child path.
func nest(err error, path string) error {
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		return err
	}
	out := *ce
	if out.Path == "" {
		out.Path = path
	} else {
		out.Path = path + "." + out.Path
	}
	return &out
}
