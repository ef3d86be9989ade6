package key

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModSuper indicates the Super key (Cmd on macOS, Win on Windows).
	ModSuper
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasShift returns true if Shift is pressed.
func (m Modifier) HasShift() bool {
	return m.Has(ModShift)
}

// HasCtrl returns true if Control is pressed.
func (m Modifier) HasCtrl() bool {
	return m.Has(ModCtrl)
}

// HasAlt returns true if Alt is pressed.
func (m Modifier) HasAlt() bool {
	return m.Has(ModAlt)
}

// HasSuper returns true if Super is pressed.
func (m Modifier) HasSuper() bool {
	return m.Has(ModSuper)
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// String returns a human-readable representation like "Ctrl-Alt".
// The order is fixed (Ctrl, Alt, Super, Shift) so equal sets format equally.
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.HasCtrl() {
		parts = append(parts, "Ctrl")
	}
	if m.HasAlt() {
		parts = append(parts, "Alt")
	}
	if m.HasSuper() {
		parts = append(parts, "Super")
	}
	if m.HasShift() {
		parts = append(parts, "Shift")
	}
	return strings.Join(parts, "-")
}

// ShortString returns a compact representation like "C-A-S".
func (m Modifier) ShortString() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.HasCtrl() {
		parts = append(parts, "C")
	}
	if m.HasAlt() {
		parts = append(parts, "A")
	}
	if m.HasSuper() {
		parts = append(parts, "D")
	}
	if m.HasShift() {
		parts = append(parts, "S")
	}
	return strings.Join(parts, "-")
}

// modifierNameMap maps modifier names (lowercase) to Modifier values.
var modifierNameMap = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"c":       ModCtrl,
	"lc":      ModCtrl,
	"rc":      ModCtrl,
	"lctrl":   ModCtrl,
	"rctrl":   ModCtrl,
	"alt":     ModAlt,
	"a":       ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"lalt":    ModAlt,
	"ralt":    ModAlt,
	"shift":   ModShift,
	"s":       ModShift,
	"lshift":  ModShift,
	"rshift":  ModShift,
	"super":   ModSuper,
	"lsuper":  ModSuper,
	"rsuper":  ModSuper,
	"meta":    ModSuper,
	"m":       ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"win":     ModSuper,
	"d":       ModSuper,
}

// ModifierFromName returns the Modifier for a given name (case-insensitive).
// Returns ModNone if the name is not recognized.
func ModifierFromName(name string) Modifier {
	if m, ok := modifierNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return ModNone
}
