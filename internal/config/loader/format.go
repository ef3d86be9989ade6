package loader

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ParseError reports a syntax error in a rule file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TOML decodes TOML documents.
type TOML struct{}

// Name returns "toml".
func (TOML) Name() string { return "toml" }

// Decode parses data.
func (TOML) Decode(source string, data []byte) (map[string]any, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return nil, perr
	}
	return m, nil
}

// YAML decodes YAML documents.
type YAML struct{}

// Name returns "yaml".
func (YAML) Name() string { return "yaml" }

// Decode parses data. Mapping keys are converted to strings.
func (YAML) Decode(source string, data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	normalized, _ := normalize(m).(map[string]any)
	return normalized, nil
}

// normalize rewrites map[any]any values, which yaml produces for
// non-string keys, into map[string]any.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, val := range v {
			v[k] = normalize(val)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range v {
			v[i] = normalize(val)
		}
		return v
	default:
		return v
	}
}
