package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/config"
	"github.com/RedBearAK/Toshy/internal/input/tap"
	"github.com/RedBearAK/Toshy/internal/kbtype"
	"github.com/RedBearAK/Toshy/internal/rules/match"
	"github.com/RedBearAK/Toshy/internal/script"
)

// Rules is a compiled rule file, ready to be installed with Engine.Swap.
type Rules struct {
	id       uuid.UUID
	path     string
	files    []string
	settings config.Settings
	keymaps  []*keymap
	kbtypes  *kbtype.Classifier
	taps     *tap.Classifier
	script   *script.State
	log      zerolog.Logger
}

type keymap struct {
	name     string
	kbtype   string
	when     *match.Matcher
	bindings map[string]*binding
	order    []string
}

type binding struct {
	trigger string
	spec    config.ActionSpec
	action  action.Action
}

// KeymapSummary describes one compiled keymap.
type KeymapSummary struct {
	Name     string
	KBType   string
	When     bool
	Bindings []BindingSummary
}

// BindingSummary describes one compiled binding.
type BindingSummary struct {
	Trigger string
	Action  string
}

// ID identifies this compilation in logs.
func (r *Rules) ID() uuid.UUID {
	return r.id
}

// Path returns the main rule file.
func (r *Rules) Path() string {
	return r.path
}

// Files returns every file the rules were read from.
func (r *Rules) Files() []string {
	return append([]string(nil), r.files...)
}

// Settings returns the settings the rules were loaded with.
func (r *Rules) Settings() config.Settings {
	return r.settings
}

// TapBindings returns the number of distinct multi-tap bindings.
func (r *Rules) TapBindings() int {
	return r.taps.Len()
}

// Summary describes the keymaps in lookup order.
func (r *Rules) Summary() []KeymapSummary {
	out := make([]KeymapSummary, len(r.keymaps))
	for i, km := range r.keymaps {
		s := KeymapSummary{Name: km.name, KBType: km.kbtype, When: km.when != nil}
		for _, trig := range km.order {
			b := km.bindings[trig]
			s.Bindings = append(s.Bindings, BindingSummary{Trigger: b.trigger, Action: b.spec.String()})
		}
		out[i] = s
	}
	return out
}

// close releases the Lua state and abandons tap runs.
func (r *Rules) close() {
	r.taps.Reset()
	if r.script != nil {
		if err := r.script.Close(); err != nil {
			r.log.Warn().Err(err).Msg("Closing script state")
		}
	}
}

// Compile builds Rules from f. Every invalid keymap or binding is reported;
// the returned error joins them and no Rules are returned.
func (e *Engine) Compile(f *config.File) (*Rules, error) {
	r := &Rules{
		id:       uuid.New(),
		path:     f.Path,
		files:    f.Files,
		settings: f.Settings,
	}
	log := e.log.With().Str("rules", r.id.String()).Logger()
	r.log = log

	kb, err := kbtype.New(kbtype.Options{
		Override: f.Settings.Keyboard.Override,
		Devices:  f.Settings.Keyboard.Devices,
		Logger:   log.With().Str("component", "kbtype").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: keyboard: %w", f.Path, err)
	}
	r.kbtypes = kb
	r.taps = tap.NewClassifier(e.sched, e.timing, e.dispatcher,
		tap.WithLogger(log.With().Str("component", "tap").Logger()))

	if p := f.ScriptPath(); p != "" {
		st := script.NewState(script.WithLogger(log.With().Str("component", "lua").Logger()))
		if err := st.DoFile(p); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("%s: scripts: %w", f.Path, err)
		}
		r.script = st
	}

	c := &compiler{engine: e, rules: r, matchers: e.matchers}
	var errs []error
	for _, spec := range f.Keymaps {
		km, kerrs := c.keymap(f.Path, spec)
		if len(kerrs) > 0 {
			errs = append(errs, kerrs...)
			continue
		}
		r.keymaps = append(r.keymaps, km)
	}
	if err := errors.Join(errs...); err != nil {
		r.close()
		return nil, err
	}

	log.Debug().
		Str("path", f.Path).
		Int("keymaps", len(r.keymaps)).
		Int("bindings", f.BindingCount()).
		Int("tap_bindings", r.taps.Len()).
		Msg("Rules compiled")
	return r, nil
}

type compiler struct {
	engine   *Engine
	rules    *Rules
	matchers *match.Compiler
}

func (c *compiler) keymap(path string, spec config.Keymap) (*keymap, []error) {
	km := &keymap{
		name:     spec.Name,
		kbtype:   spec.KBType,
		bindings: make(map[string]*binding, len(spec.Bindings)),
	}
	var errs []error

	if spec.When != nil {
		m, err := c.matchers.Compile(*spec.When)
		if err != nil {
			errs = append(errs, &config.RuleError{Path: path, Keymap: keymapLabel(spec.Name), Field: "when", Err: err})
		} else {
			km.when = m
		}
	}

	for _, b := range spec.Bindings {
		trig := b.Trigger.String()
		a, err := c.action(b.Action)
		if err != nil {
			errs = append(errs, &config.RuleError{
				Path:   path,
				Keymap: keymapLabel(spec.Name),
				Field:  "bindings." + strconv.Quote(trig),
				Err:    err,
			})
			continue
		}
		km.bindings[trig] = &binding{trigger: trig, spec: b.Action, action: a}
		km.order = append(km.order, trig)
	}
	return km, errs
}

func (c *compiler) action(spec config.ActionSpec) (action.Action, error) {
	switch spec.Kind {
	case config.KindCombo:
		return action.Combo{Event: spec.Combo}, nil

	case config.KindText:
		return action.Text{Text: spec.Text}, nil

	case config.KindUnicode:
		return action.Unicode{Rune: spec.Rune}, nil

	case config.KindReport:
		return action.ContextReport(), nil

	case config.KindLua:
		if c.rules.script == nil {
			return nil, fmt.Errorf("%w: lua %q", ErrNoScript, spec.Func)
		}
		return c.rules.script.Function(spec.Func)

	case config.KindSequence:
		items, err := c.actions(spec.Items)
		if err != nil {
			return nil, err
		}
		return action.Sequence(items), nil

	case config.KindToggle:
		items, err := c.actions(spec.Items)
		if err != nil {
			return nil, err
		}
		t := &action.Toggle{
			Latch:   c.engine.latch(spec.Latch),
			IfOn:    items[0],
			IfOff:   items[1],
			Set:     spec.Set,
			KeepOn:  spec.KeepOn,
			KeepOff: spec.KeepOff,
		}
		return t.Action(), nil

	case config.KindTaps:
		items, err := c.actions(spec.Items)
		if err != nil {
			return nil, err
		}
		b, err := tap.NewBinding(items...)
		if err != nil {
			return nil, err
		}
		return c.rules.taps.Register(b).Action(), nil

	case config.KindDoubleTap:
		items, err := c.actions(spec.Items)
		if err != nil {
			return nil, err
		}
		return c.rules.taps.DoubleTap(items[0]).Action(), nil

	default:
		return nil, fmt.Errorf("%w: unknown action kind %q", config.ErrInvalidRules, spec.Kind)
	}
}

func (c *compiler) actions(specs []config.ActionSpec) ([]action.Action, error) {
	out := make([]action.Action, len(specs))
	for i, s := range specs {
		a, err := c.action(s)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

// keymapLabel matches the labels config uses: generated "#N" names bare,
// user names quoted.
func keymapLabel(name string) string {
	if strings.HasPrefix(name, "#") {
		return name
	}
	return strconv.Quote(name)
}
