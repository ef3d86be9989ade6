package key

import (
	"time"
	"unicode"
)

// Event represents a single key combo: one key plus the modifiers held with it.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events. Letters are stored lowercase;
	// an uppercase letter is expressed as Shift plus the lowercase rune.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Timestamp is when the event occurred. Zero for combos parsed from config.
	Timestamp time.Time
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	if unicode.IsUpper(r) {
		r = unicode.ToLower(r)
		mods = mods.With(ModShift)
	}
	return Event{
		Key:       KeyRune,
		Rune:      r,
		Modifiers: mods,
	}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{
		Key:       key,
		Modifiers: mods,
	}
}

// At returns a copy of the event stamped with t.
func (e Event) At(t time.Time) Event {
	e.Timestamp = t
	return e
}

// KeyName returns the name of the key without modifiers.
func (e Event) KeyName() string {
	if e.Key != KeyRune {
		return e.Key.String()
	}
	switch e.Rune {
	case ' ':
		return "Space"
	case '-':
		return "Minus"
	case '+':
		return "Plus"
	case 0:
		return "None"
	}
	return string(e.Rune)
}

// String returns the canonical combo string, which Parse accepts.
// Examples: "a", "Shift-a", "Ctrl-Shift-c", "Alt-Super-Shift-i", "Esc"
func (e Event) String() string {
	if e.Modifiers == ModNone {
		return e.KeyName()
	}
	return e.Modifiers.String() + "-" + e.KeyName()
}

// Equals returns true if two events represent the same combo.
// Timestamps are not compared.
func (e Event) Equals(other Event) bool {
	return e.Key == other.Key &&
		e.Rune == other.Rune &&
		e.Modifiers == other.Modifiers
}

// Matches checks if this event matches a key specification string.
func (e Event) Matches(spec string) bool {
	parsed, err := Parse(spec)
	if err != nil {
		return false
	}
	return e.Equals(parsed)
}
