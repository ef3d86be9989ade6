// Package kbtype classifies keyboard devices by physical layout family.
//
// Keymaps can be restricted to one family so that, for example, Apple
// keyboards get a different modifier arrangement than PC keyboards. A device
// is classified once and the result cached by device name.
package kbtype

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/RedBearAK/Toshy/internal/rules/pattern"
)

// Keyboard types.
const (
	IBM          = "IBM"
	Chromebook   = "Chromebook"
	Windows      = "Windows"
	Apple        = "Apple"
	Unidentified = "unidentified"
)

// Types lists the valid keyboard types in lookup order.
var Types = []string{IBM, Chromebook, Windows, Apple}

// ErrInvalidType is returned for a type name outside Types.
var ErrInvalidType = errors.New("invalid keyboard type")

// Valid reports whether t is one of Types. The comparison is case sensitive.
func Valid(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

// DefaultLists holds known device names per type. Spaces in a name match
// any run of characters.
var DefaultLists = map[string][]string{
	IBM: {
		"IBM Enhanced (101/102-key) Keyboard",
		"IBM Rapid Access Keyboard",
		"IBM Space Saver II",
		"IBM Model M",
		"IBM Model F",
	},
	Chromebook: {
		"Google.*Keyboard",
	},
	Windows: {
		"AT Translated Set 2 keyboard",
	},
	Apple: {
		"Mitsumi Electric Apple Extended USB Keyboard",
		"Magic Keyboard with Numeric Keypad",
		"Magic Keyboard",
		"MX Keys Mac Keyboard",
	},
}

// Source describes which rule produced a classification.
type Source string

const (
	SourceOverride Source = "override"
	SourceCustom   Source = "custom type for device"
	SourceList     Source = "device list match"
	SourceName     Source = "type in device name"
	SourceDefault  Source = "default type for device"
	SourceNone     Source = "no rule matched"
)

// Result is a classification.
type Result struct {
	Type   string
	Source Source
	Cached bool
}

// Options configures a Classifier.
type Options struct {
	// Override forces every device to one type when set.
	Override string

	// Devices maps device names (compared case-insensitively) to types.
	Devices map[string]string

	// Lists replaces DefaultLists when non-nil.
	Lists map[string][]string

	Logger zerolog.Logger
}

// Classifier assigns keyboard types to device names.
type Classifier struct {
	override string
	devices  map[string]string
	lists    map[string][]*pattern.Pattern
	known    *pattern.Pattern
	notWin   *pattern.Pattern
	fold     cases.Caser
	log      zerolog.Logger

	mu    sync.Mutex
	cache map[string]Result
}

// New builds a Classifier. Invalid type names and list patterns are errors.
func New(opts Options) (*Classifier, error) {
	if opts.Override != "" && !Valid(opts.Override) {
		return nil, fmt.Errorf("%w %q for override (valid: %s)", ErrInvalidType, opts.Override, strings.Join(Types, ", "))
	}

	c := &Classifier{
		override: opts.Override,
		devices:  make(map[string]string, len(opts.Devices)),
		lists:    make(map[string][]*pattern.Pattern),
		fold:     cases.Fold(),
		log:      opts.Logger,
		cache:    make(map[string]Result),
	}

	for name, t := range opts.Devices {
		if !Valid(t) {
			return nil, fmt.Errorf("%w %q for device %q", ErrInvalidType, t, name)
		}
		c.devices[c.fold.String(name)] = t
	}

	lists := opts.Lists
	if lists == nil {
		lists = DefaultLists
	}
	var all []string
	for t, names := range lists {
		if !Valid(t) {
			return nil, fmt.Errorf("%w %q in device lists", ErrInvalidType, t)
		}
		for _, name := range names {
			p, err := pattern.Compile(strings.ReplaceAll(name, " ", ".*"), false)
			if err != nil {
				return nil, fmt.Errorf("device list %s: %w", t, err)
			}
			c.lists[t] = append(c.lists[t], p)
			all = append(all, name)
		}
	}

	if len(all) > 0 {
		known, err := pattern.Compile(pattern.Alternation(all), false)
		if err != nil {
			return nil, fmt.Errorf("device lists: %w", err)
		}
		c.known = known
	}
	c.notWin = pattern.MustCompile("IBM|Chromebook|Apple", false)

	return c, nil
}

// Classify returns the keyboard type of device.
func (c *Classifier) Classify(device string) string {
	return c.Lookup(device).Type
}

// Lookup classifies device and reports how the type was chosen.
//
// The override wins over everything and is never cached. Otherwise a cached
// result is reused, then the device table, the device lists, a type name
// contained in the device name, and finally "Windows" for any device that
// names no other family.
func (c *Classifier) Lookup(device string) Result {
	if c.override != "" {
		r := Result{Type: c.override, Source: SourceOverride}
		c.trace(device, r)
		return r
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.cache[device]; ok {
		r.Cached = true
		c.trace(device, r)
		return r
	}

	r := c.classify(device)
	if r.Source != SourceNone {
		c.cache[device] = r
		c.trace(device, r)
	} else {
		c.log.Error().Str("device", device).Msg("Keyboard type fell through all checks")
	}
	return r
}

func (c *Classifier) classify(device string) Result {
	folded := c.fold.String(device)

	if t, ok := c.devices[folded]; ok {
		return Result{Type: t, Source: SourceCustom}
	}

	for _, t := range Types {
		for _, p := range c.lists[t] {
			if p.Find(folded) {
				return Result{Type: t, Source: SourceList}
			}
		}
	}

	for _, t := range Types {
		if strings.Contains(folded, c.fold.String(t)) {
			return Result{Type: t, Source: SourceName}
		}
	}

	if !c.notWin.Find(folded) && (c.known == nil || !c.known.Find(folded)) {
		return Result{Type: Windows, Source: SourceDefault}
	}

	return Result{Type: Unidentified, Source: SourceNone}
}

func (c *Classifier) trace(device string, r Result) {
	c.log.Debug().
		Str("device", device).
		Str("kbtype", r.Type).
		Str("source", string(r.Source)).
		Bool("cached", r.Cached).
		Msg("Keyboard type")
}

// Forget drops all cached classifications.
func (c *Classifier) Forget() {
	c.mu.Lock()
	c.cache = make(map[string]Result)
	c.mu.Unlock()
}

// CacheLen returns the number of cached devices.
func (c *Classifier) CacheLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
