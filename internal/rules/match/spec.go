package match

import (
	"fmt"
	"sort"
	"strings"
)

// Field names a string property of an input.Context.
type Field uint8

const (
	FieldClass Field = iota
	FieldTitle
	FieldDevice
)

// String returns the short key used in rule files.
func (f Field) String() string {
	switch f {
	case FieldClass:
		return "clas"
	case FieldTitle:
		return "name"
	case FieldDevice:
		return "devn"
	default:
		return fmt.Sprintf("Field(%d)", f)
	}
}

// Flag names a lock-key state of an input.Context.
type Flag uint8

const (
	FlagNumLock Flag = iota
	FlagCapsLock
)

// String returns the short key used in rule files.
func (f Flag) String() string {
	switch f {
	case FlagNumLock:
		return "numlk"
	case FlagCapsLock:
		return "capslk"
	default:
		return fmt.Sprintf("Flag(%d)", f)
	}
}

// Spec is a declarative context rule. A Spec is either in field mode
// (patterns and flags, all of which must hold) or in list mode (Any or None
// over child specs). Compiler.Compile validates it.
type Spec struct {
	// Class, Title and Device are patterns that must be found in the
	// corresponding context string. Empty means unset.
	Class, Title, Device string

	// NotClass, NotTitle and NotDevice are patterns that must not be found.
	NotClass, NotTitle, NotDevice string

	// NumLock and CapsLock, when non-nil, require the LED to be in that state.
	NumLock, CapsLock *bool

	// CaseSensitive disables case folding for every pattern in this spec.
	CaseSensitive bool

	// Any matches when at least one child matches.
	Any []Spec

	// None matches when no child matches.
	None []Spec

	// Debug labels the rule in trace logs.
	Debug string
}

// Bool returns a pointer to b, for the tri-state flag fields.
func Bool(b bool) *bool {
	return &b
}

// Keys accepted in the map form of a Spec. Long names are aliases.
var specKeys = map[string]string{
	"clas":           "clas",
	"class":          "clas",
	"name":           "name",
	"title":          "name",
	"devn":           "devn",
	"device":         "devn",
	"not_clas":       "not_clas",
	"not_class":      "not_clas",
	"not_name":       "not_name",
	"not_title":      "not_name",
	"not_devn":       "not_devn",
	"not_device":     "not_devn",
	"numlk":          "numlk",
	"numlock":        "numlk",
	"capslk":         "capslk",
	"capslock":       "capslk",
	"cse":            "cse",
	"case_sensitive": "cse",
	"lst":            "lst",
	"any":            "lst",
	"not_lst":        "not_lst",
	"none":           "not_lst",
	"dbg":            "dbg",
	"debug":          "dbg",
}

// FromMap builds a Spec from its rule-file form, as decoded from TOML or
// YAML. Every shape problem is reported as a *ConfigurationError.
func FromMap(m map[string]any) (Spec, error) {
	var spec Spec
	if len(m) == 0 {
		return spec, configErr("", "no condition given")
	}

	seen := make(map[string]string, len(m))
	for _, raw := range sortedKeys(m) {
		canon, ok := specKeys[strings.ToLower(raw)]
		if !ok {
			return spec, configErr(raw, "unrecognized key")
		}
		if prev, dup := seen[canon]; dup {
			return spec, configErr(raw, "duplicates %q", prev)
		}
		seen[canon] = raw
		val := m[raw]

		var err error
		switch canon {
		case "clas":
			spec.Class, err = textValue(raw, val)
		case "name":
			spec.Title, err = textValue(raw, val)
		case "devn":
			spec.Device, err = textValue(raw, val)
		case "not_clas":
			spec.NotClass, err = textValue(raw, val)
		case "not_name":
			spec.NotTitle, err = textValue(raw, val)
		case "not_devn":
			spec.NotDevice, err = textValue(raw, val)
		case "numlk":
			spec.NumLock, err = flagValue(raw, val)
		case "capslk":
			spec.CapsLock, err = flagValue(raw, val)
		case "cse":
			var b *bool
			b, err = flagValue(raw, val)
			spec.CaseSensitive = b != nil && *b
		case "dbg":
			spec.Debug, err = textValue(raw, val)
		case "lst":
			spec.Any, err = childValues(raw, val)
		case "not_lst":
			spec.None, err = childValues(raw, val)
		}
		if err != nil {
			return spec, err
		}
	}
	return spec, nil
}

func textValue(key string, val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", configErr(key, "must be a string, got %T", val)
	}
	return s, nil
}

// flagValue accepts exactly true, false, or nil (don't care).
func flagValue(key string, val any) (*bool, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil
	case bool:
		return Bool(v), nil
	default:
		return nil, configErr(key, "must be true, false or absent, got %T %v", val, val)
	}
}

func childValues(key string, val any) ([]Spec, error) {
	list, ok := val.([]any)
	if !ok {
		if maps, isMaps := val.([]map[string]any); isMaps {
			list = make([]any, len(maps))
			for i, m := range maps {
				list[i] = m
			}
		} else {
			return nil, configErr(key, "must be a list of tables, got %T", val)
		}
	}
	if len(list) == 0 {
		return nil, configErr(key, "list is empty")
	}

	children := make([]Spec, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("%s[%d]", key, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &ConfigurationError{Path: path, Message: fmt.Sprintf("must be a table, got %T", item)}
		}
		child, err := FromMap(m)
		if err != nil {
			return nil, nest(err, path)
		}
		children = append(children, child)
	}
	return children, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
