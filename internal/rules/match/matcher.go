// Package match compiles declarative context rules into matchers.
//
// A rule either tests properties of the event context (window class, title,
// device, lock keys) or combines child rules with any/none semantics.
// Matchers are immutable after compilation and safe for concurrent use.
package match

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/rules/pattern"
)

// condition is one compiled predicate. Field conditions and list
// conditions are the only variants.
type condition interface {
	eval(ctx input.Context) bool
	valid() bool
}

// fieldPattern tests whether a pattern is found (or not found) in a field.
type fieldPattern struct {
	field  Field
	negate bool
	pat    *pattern.Pattern
}

func (c fieldPattern) eval(ctx input.Context) bool {
	var s string
	switch c.field {
	case FieldClass:
		s = ctx.WindowClass
	case FieldTitle:
		s = ctx.WindowTitle
	case FieldDevice:
		s = ctx.DeviceName
	}
	return c.pat.Find(s) != c.negate
}

func (c fieldPattern) valid() bool {
	return c.pat != nil && c.field <= FieldDevice
}

// flagEquals tests a lock-key LED for strict equality.
type flagEquals struct {
	flag  Flag
	value bool
}

func (c flagEquals) eval(ctx input.Context) bool {
	switch c.flag {
	case FlagNumLock:
		return ctx.NumLockOn == c.value
	case FlagCapsLock:
		return ctx.CapsLockOn == c.value
	}
	return false
}

func (c flagEquals) valid() bool {
	return c.flag <= FlagCapsLock
}

// listOf is the any / none combination of child matchers.
type listOf struct {
	none     bool
	children []*Matcher
}

func (c listOf) eval(ctx input.Context) bool {
	for _, child := range c.children {
		if child.eval(ctx) {
			return !c.none
		}
	}
	return c.none
}

func (c listOf) valid() bool {
	return len(c.children) > 0
}

// Matcher is a compiled Spec. Matches is a pure function of its argument.
type Matcher struct {
	conds  []condition
	list   bool
	debug  string
	source Spec
	stats  *Stats
	log    zerolog.Logger
}

// Matches reports whether ctx satisfies the rule. A context without screen
// focus never matches, and no pattern is evaluated for it.
func (m *Matcher) Matches(ctx input.Context) bool {
	if !ctx.ScreenHasFocus {
		return false
	}
	if !m.stats.record() && !m.wellFormed() {
		return false
	}
	result := m.eval(ctx)
	if m.debug != "" {
		m.log.Trace().
			Str("rule", m.debug).
			Bool("matched", result).
			Str("class", ctx.WindowClass).
			Str("title", ctx.WindowTitle).
			Str("device", ctx.DeviceName).
			Msg("Context match")
	}
	return result
}

// eval evaluates without the focus gate or statistics; used for children.
func (m *Matcher) eval(ctx input.Context) bool {
	for _, c := range m.conds {
		if !c.eval(ctx) {
			return false
		}
	}
	return true
}

// wellFormed re-checks the structure established at compile time.
func (m *Matcher) wellFormed() bool {
	if len(m.conds) == 0 {
		return false
	}
	if m.list && len(m.conds) != 1 {
		return false
	}
	for _, c := range m.conds {
		if !c.valid() {
			return false
		}
		if l, ok := c.(listOf); ok {
			for _, child := range l.children {
				if !child.wellFormed() {
					return false
				}
			}
		}
	}
	return true
}

// Spec returns the specification the matcher was compiled from.
func (m *Matcher) Spec() Spec {
	return m.source
}

// Debug returns the debug label, if any.
func (m *Matcher) Debug() string {
	return m.debug
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug-labelled rules.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Compiler) {
		c.log = log
	}
}

// WithClock sets the time source used by the warm-up statistics.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) {
		c.now = now
	}
}

// WithWarmup overrides the warm-up thresholds.
func WithWarmup(evaluations uint64, after time.Duration) Option {
	return func(c *Compiler) {
		c.warmEvals = evaluations
		c.warmAfter = after
	}
}

// Compiler compiles specs. All matchers from one Compiler share its Stats.
type Compiler struct {
	log       zerolog.Logger
	now       func() time.Time
	warmEvals uint64
	warmAfter time.Duration
	stats     *Stats
}

// NewCompiler creates a compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		log:       zerolog.Nop(),
		now:       time.Now,
		warmEvals: DefaultWarmEvaluations,
		warmAfter: DefaultWarmAfter,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats = newStats(c.now, c.warmEvals, c.warmAfter)
	return c
}

// Stats returns the evaluation statistics shared by this compiler's matchers.
func (c *Compiler) Stats() *Stats {
	return c.stats
}

// CompileMap is FromMap followed by Compile.
func (c *Compiler) CompileMap(m map[string]any) (*Matcher, error) {
	spec, err := FromMap(m)
	if err != nil {
		return nil, err
	}
	return c.Compile(spec)
}

// Compile validates spec and builds its matcher.
func (c *Compiler) Compile(spec Spec) (*Matcher, error) {
	m := &Matcher{
		debug:  spec.Debug,
		source: spec,
		stats:  c.stats,
		log:    c.log,
	}

	hasFields := spec.hasFieldPredicate()
	hasList := spec.Any != nil || spec.None != nil

	switch {
	case spec.Any != nil && spec.None != nil:
		return nil, configErr("lst", "cannot be combined with not_lst")
	case hasList && hasFields:
		return nil, configErr("lst", "list mode cannot be combined with field conditions")
	case hasList && spec.CaseSensitive:
		return nil, configErr("cse", "cannot be combined with list mode; set it on the children")
	case !hasList && !hasFields:
		return nil, configErr("", "no condition given")
	}

	if hasList {
		children, key, none := spec.Any, "lst", false
		if spec.None != nil {
			children, key, none = spec.None, "not_lst", true
		}
		if len(children) == 0 {
			return nil, configErr(key, "list is empty")
		}
		compiled := make([]*Matcher, 0, len(children))
		for i, child := range children {
			cm, err := c.Compile(child)
			if err != nil {
				return nil, nest(err, fmt.Sprintf("%s[%d]", key, i))
			}
			compiled = append(compiled, cm)
		}
		m.list = true
		m.conds = []condition{listOf{none: none, children: compiled}}
		return m, nil
	}

	pairs := []struct {
		field      Field
		pos, neg   string
		posK, negK string
	}{
		{FieldClass, spec.Class, spec.NotClass, "clas", "not_clas"},
		{FieldTitle, spec.Title, spec.NotTitle, "name", "not_name"},
		{FieldDevice, spec.Device, spec.NotDevice, "devn", "not_devn"},
	}
	for _, p := range pairs {
		if p.pos != "" && p.neg != "" {
			return nil, configErr(p.negK, "cannot be combined with %s", p.posK)
		}
		src, key, negate := p.pos, p.posK, false
		if p.neg != "" {
			src, key, negate = p.neg, p.negK, true
		}
		if src == "" {
			continue
		}
		pat, err := pattern.Compile(src, spec.CaseSensitive)
		if err != nil {
			return nil, &ConfigurationError{Key: key, Message: "pattern does not compile", Err: err}
		}
		m.conds = append(m.conds, fieldPattern{field: p.field, negate: negate, pat: pat})
	}
	if spec.NumLock != nil {
		m.conds = append(m.conds, flagEquals{flag: FlagNumLock, value: *spec.NumLock})
	}
	if spec.CapsLock != nil {
		m.conds = append(m.conds, flagEquals{flag: FlagCapsLock, value: *spec.CapsLock})
	}
	return m, nil
}

// hasFieldPredicate reports whether any field-mode condition is set.
func (s Spec) hasFieldPredicate() bool {
	return s.Class != "" || s.Title != "" || s.Device != "" ||
		s.NotClass != "" || s.NotTitle != "" || s.NotDevice != "" ||
		s.NumLock != nil || s.CapsLock != nil
}
