package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/RedBearAK/Toshy/internal/input/key"
	"github.com/RedBearAK/Toshy/internal/kbtype"
	"github.com/RedBearAK/Toshy/internal/rules/match"
)

// ActionKind names the form of a binding's output.
type ActionKind string

const (
	KindCombo     ActionKind = "combo"
	KindSequence  ActionKind = "sequence"
	KindText      ActionKind = "text"
	KindUnicode   ActionKind = "unicode"
	KindLua       ActionKind = "lua"
	KindToggle    ActionKind = "toggle"
	KindTaps      ActionKind = "taps"
	KindDoubleTap ActionKind = "double_tap"
	KindReport    ActionKind = "report"
)

// DefaultLatch is the latch toggles share when they name none.
const DefaultLatch = "enter_f2"

// ActionSpec is a parsed, not yet compiled, binding output.
type ActionSpec struct {
	Kind ActionKind

	// Combo is set for KindCombo.
	Combo key.Event
	// Items holds the children of KindSequence, the per-count actions of
	// KindTaps, the single action of KindDoubleTap, and [on, off] for
	// KindToggle.
	Items []ActionSpec
	// Text is set for KindText.
	Text string
	// Rune is set for KindUnicode.
	Rune rune
	// Func names the Lua function for KindLua.
	Func string

	// Toggle options.
	Latch   string
	Set     *bool
	KeepOn  bool
	KeepOff bool
}

// String renders the action compactly for check output.
func (a ActionSpec) String() string {
	switch a.Kind {
	case KindCombo:
		return a.Combo.String()
	case KindText:
		return "text " + strconv.Quote(a.Text)
	case KindUnicode:
		return fmt.Sprintf("unicode U+%04X", a.Rune)
	case KindLua:
		return "lua " + a.Func
	case KindReport:
		return "report"
	default:
		parts := make([]string, len(a.Items))
		for i, it := range a.Items {
			parts[i] = it.String()
		}
		return string(a.Kind) + "(" + strings.Join(parts, ", ") + ")"
	}
}

// BindingSpec maps one trigger combo to an output.
type BindingSpec struct {
	Trigger key.Event
	Action  ActionSpec
}

// Keymap is a named group of bindings active when its condition matches.
type Keymap struct {
	Name string
	// KBType restricts the keymap to one keyboard type when set.
	KBType string
	// When is nil for a keymap that applies everywhere.
	When     *match.Spec
	Bindings []BindingSpec
}

// ParseKeymaps reads the "keymaps" list of a rule file. Every problem is
// reported; the returned error joins them.
func ParseKeymaps(path string, raw any) ([]Keymap, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &RuleError{Path: path, Keymap: "list", Err: fmt.Errorf("%w: keymaps must be a list, got %T", ErrInvalidRules, raw)}
	}

	var (
		keymaps []Keymap
		errs    []error
	)
	for i, item := range list {
		km, kerrs := parseKeymap(path, i, item)
		if len(kerrs) > 0 {
			errs = append(errs, kerrs...)
			continue
		}
		keymaps = append(keymaps, km)
	}
	return keymaps, errors.Join(errs...)
}

func parseKeymap(path string, index int, raw any) (Keymap, []error) {
	label := fmt.Sprintf("#%d", index+1)
	fail := func(field string, err error) error {
		return &RuleError{Path: path, Keymap: label, Field: field, Err: err}
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return Keymap{}, []error{fail("", fmt.Errorf("%w: keymap must be a table, got %T", ErrInvalidRules, raw))}
	}

	var km Keymap
	var errs []error

	if name, ok := m["name"].(string); ok && name != "" {
		km.Name = name
		label = fmt.Sprintf("%q", name)
	} else {
		km.Name = label
	}

	for k := range m {
		switch k {
		case "name", "kbtype", "when", "bindings":
		default:
			errs = append(errs, fail(k, fmt.Errorf("%w: unknown keymap key", ErrInvalidRules)))
		}
	}

	if v, ok := m["kbtype"]; ok {
		s, ok := v.(string)
		switch {
		case !ok:
			errs = append(errs, fail("kbtype", fmt.Errorf("%w: must be a string", ErrInvalidRules)))
		case s != "" && !kbtype.Valid(s):
			errs = append(errs, fail("kbtype", fmt.Errorf("%w %q", kbtype.ErrInvalidType, s)))
		default:
			km.KBType = s
		}
	}

	if v, ok := m["when"]; ok {
		when, ok := v.(map[string]any)
		if !ok {
			errs = append(errs, fail("when", fmt.Errorf("%w: must be a table, got %T", ErrInvalidRules, v)))
		} else {
			spec, err := match.FromMap(when)
			if err != nil {
				errs = append(errs, fail("when", err))
			} else {
				km.When = &spec
			}
		}
	}

	bindings, ok := m["bindings"].(map[string]any)
	if !ok {
		errs = append(errs, fail("bindings", fmt.Errorf("%w: keymap needs a bindings table", ErrInvalidRules)))
		return km, errs
	}

	seen := make(map[string]string)
	for _, trigger := range sortedKeys(bindings) {
		field := "bindings." + strconv.Quote(trigger)
		ev, err := key.Parse(trigger)
		if err != nil {
			errs = append(errs, fail(field, err))
			continue
		}
		canon := ev.String()
		if prev, dup := seen[canon]; dup {
			errs = append(errs, fail(field, fmt.Errorf("%w: same combo as %q", ErrInvalidRules, prev)))
			continue
		}
		seen[canon] = trigger

		a, err := ParseAction(bindings[trigger])
		if err != nil {
			errs = append(errs, fail(field, err))
			continue
		}
		km.Bindings = append(km.Bindings, BindingSpec{Trigger: ev, Action: a})
	}

	return km, errs
}

// ParseAction reads one binding output.
//
//	"C-c"                      combo
//	"C-a C-c"                  sequence of combos
//	["C-a", {text = "x"}]      sequence
//	{combo = "C-c"}            combo
//	{text = "hello"}           typed text
//	{unicode = 0xA3}           one character by code point
//	{lua = "fn"}               Lua function result
//	{report = true}            context report
//	{toggle = [on, off]}       latch toggle, or {toggle = {on=..., off=..., latch=..., set=..., keep_on=..., keep_off=...}}
//	{taps = [a1, a2, ...]}     multi-tap, one action per count
//	{double_tap = a}           double-tap
func ParseAction(raw any) (ActionSpec, error) {
	switch v := raw.(type) {
	case string:
		return parseComboString(v)
	case []any:
		items, err := parseList(v)
		if err != nil {
			return ActionSpec{}, err
		}
		if len(items) == 0 {
			return ActionSpec{}, fmt.Errorf("%w: empty sequence", ErrInvalidRules)
		}
		return ActionSpec{Kind: KindSequence, Items: items}, nil
	case map[string]any:
		return parseActionTable(v)
	default:
		return ActionSpec{}, fmt.Errorf("%w: unsupported action value %T", ErrInvalidRules, raw)
	}
}

func parseComboString(s string) (ActionSpec, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return ActionSpec{}, fmt.Errorf("%w: empty combo", ErrInvalidRules)
	case 1:
		ev, err := key.Parse(fields[0])
		if err != nil {
			return ActionSpec{}, err
		}
		return ActionSpec{Kind: KindCombo, Combo: ev}, nil
	default:
		items := make([]ActionSpec, len(fields))
		for i, f := range fields {
			ev, err := key.Parse(f)
			if err != nil {
				return ActionSpec{}, err
			}
			items[i] = ActionSpec{Kind: KindCombo, Combo: ev}
		}
		return ActionSpec{Kind: KindSequence, Items: items}, nil
	}
}

func parseList(list []any) ([]ActionSpec, error) {
	items := make([]ActionSpec, len(list))
	for i, el := range list {
		a, err := ParseAction(el)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		items[i] = a
	}
	return items, nil
}

var actionKeys = []string{"combo", "text", "unicode", "lua", "report", "toggle", "taps", "double_tap"}

func parseActionTable(m map[string]any) (ActionSpec, error) {
	var kind string
	for _, k := range actionKeys {
		if _, ok := m[k]; ok {
			if kind != "" {
				return ActionSpec{}, fmt.Errorf("%w: %q and %q in one action", ErrInvalidRules, kind, k)
			}
			kind = k
		}
	}
	if kind == "" || len(m) != 1 {
		return ActionSpec{}, fmt.Errorf("%w: action table needs exactly one of %s", ErrInvalidRules, strings.Join(actionKeys, ", "))
	}
	v := m[kind]

	switch kind {
	case "combo":
		s, ok := v.(string)
		if !ok {
			return ActionSpec{}, fmt.Errorf("%w: combo must be a string", ErrInvalidRules)
		}
		return parseComboString(s)

	case "text":
		s, ok := v.(string)
		if !ok {
			return ActionSpec{}, fmt.Errorf("%w: text must be a string", ErrInvalidRules)
		}
		return ActionSpec{Kind: KindText, Text: s}, nil

	case "unicode":
		r, err := runeValue(v)
		if err != nil {
			return ActionSpec{}, err
		}
		return ActionSpec{Kind: KindUnicode, Rune: r}, nil

	case "lua":
		s, ok := v.(string)
		if !ok || s == "" {
			return ActionSpec{}, fmt.Errorf("%w: lua must name a function", ErrInvalidRules)
		}
		return ActionSpec{Kind: KindLua, Func: s}, nil

	case "report":
		if b, ok := v.(bool); !ok || !b {
			return ActionSpec{}, fmt.Errorf("%w: report must be true", ErrInvalidRules)
		}
		return ActionSpec{Kind: KindReport}, nil

	case "toggle":
		return parseToggle(v)

	case "taps":
		list, ok := v.([]any)
		if !ok || len(list) == 0 || len(list) > 5 {
			return ActionSpec{}, fmt.Errorf("%w: taps must list 1 to 5 actions", ErrInvalidRules)
		}
		items, err := parseList(list)
		if err != nil {
			return ActionSpec{}, fmt.Errorf("taps%w", err)
		}
		return ActionSpec{Kind: KindTaps, Items: items}, nil

	default: // double_tap
		a, err := ParseAction(v)
		if err != nil {
			return ActionSpec{}, fmt.Errorf("double_tap: %w", err)
		}
		return ActionSpec{Kind: KindDoubleTap, Items: []ActionSpec{a}}, nil
	}
}

func parseToggle(v any) (ActionSpec, error) {
	spec := ActionSpec{Kind: KindToggle, Latch: DefaultLatch}

	switch t := v.(type) {
	case []any:
		if len(t) != 2 {
			return ActionSpec{}, fmt.Errorf("%w: toggle list must be [on, off]", ErrInvalidRules)
		}
		items, err := parseList(t)
		if err != nil {
			return ActionSpec{}, fmt.Errorf("toggle%w", err)
		}
		spec.Items = items
		return spec, nil

	case map[string]any:
		on, ok := t["on"]
		if !ok {
			return ActionSpec{}, fmt.Errorf("%w: toggle needs an on action", ErrInvalidRules)
		}
		onSpec, err := ParseAction(on)
		if err != nil {
			return ActionSpec{}, fmt.Errorf("toggle.on: %w", err)
		}
		offSpec := onSpec
		if off, ok := t["off"]; ok {
			if offSpec, err = ParseAction(off); err != nil {
				return ActionSpec{}, fmt.Errorf("toggle.off: %w", err)
			}
		}
		spec.Items = []ActionSpec{onSpec, offSpec}

		for k, val := range t {
			switch k {
			case "on", "off":
			case "latch":
				s, ok := val.(string)
				if !ok || s == "" {
					return ActionSpec{}, fmt.Errorf("%w: toggle.latch must be a name", ErrInvalidRules)
				}
				spec.Latch = s
			case "set", "keep_on", "keep_off":
				b, ok := val.(bool)
				if !ok {
					return ActionSpec{}, fmt.Errorf("%w: toggle.%s must be a boolean", ErrInvalidRules, k)
				}
				switch k {
				case "set":
					spec.Set = &b
				case "keep_on":
					spec.KeepOn = b
				default:
					spec.KeepOff = b
				}
			default:
				return ActionSpec{}, fmt.Errorf("%w: unknown toggle key %q", ErrInvalidRules, k)
			}
		}
		return spec, nil

	default:
		return ActionSpec{}, fmt.Errorf("%w: toggle must be a list or table, got %T", ErrInvalidRules, v)
	}
}

func runeValue(v any) (rune, error) {
	var n int64
	switch x := v.(type) {
	case int64:
		n = x
	case int:
		n = int64(x)
	case uint64:
		if x > math.MaxInt32 {
			return 0, fmt.Errorf("%w: unicode value out of range", ErrInvalidRules)
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: unicode must be an integer", ErrInvalidRules)
		}
		n = int64(x)
	case string:
		s := strings.TrimPrefix(strings.ToUpper(x), "U+")
		parsed, err := strconv.ParseInt(s, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: unicode %q is not a hex code point", ErrInvalidRules, x)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%w: unicode must be a number or \"U+XXXX\"", ErrInvalidRules)
	}
	if n <= 0 || n > 0x10FFFF || (n >= 0xD800 && n <= 0xDFFF) {
		return 0, fmt.Errorf("%w: U+%04X is not a valid character", ErrInvalidRules, n)
	}
	return rune(n), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
