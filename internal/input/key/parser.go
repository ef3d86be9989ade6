package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse errors
var (
	ErrEmptySpec        = errors.New("empty key specification")
	ErrInvalidSpec      = errors.New("invalid key specification")
	ErrUnmatchedBracket = errors.New("unmatched bracket in key specification")
)

// Parse parses a combo specification string into an Event.
//
// Supported formats:
//   - Single character: "a", "A" (Shift-a), "1", "@"
//   - Special keys: "Enter", "Esc", "Tab", "CapsLock", "F13"
//   - Hyphenated: "C-s", "Shift-Super-Alt-i", "RC-CapsLock", "C--"
//   - Plus-separated: "Ctrl+S", "Alt+F4", "Ctrl+Shift+P"
//   - Angle brackets: "<C-s>", "<A-f>", "<CR>", "<Esc>"
//   - Key aliases: "Key_4", "Minus", "Grave", "Semicolon"
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}

	if strings.HasPrefix(spec, "<") && len(spec) > 1 {
		if !strings.HasSuffix(spec, ">") {
			return Event{}, fmt.Errorf("%w: %q", ErrUnmatchedBracket, spec)
		}
		return parseJoined(spec[1:len(spec)-1], "-")
	}

	if utf8.RuneCountInString(spec) > 1 {
		if strings.Contains(spec, "+") {
			return parseJoined(spec, "+")
		}
		if strings.Contains(spec, "-") {
			return parseJoined(spec, "-")
		}
	}

	return parseKeyWithModifiers(spec, ModNone)
}

// parseJoined parses "mod<sep>mod<sep>key". A trailing doubled separator
// ("C--", "Ctrl++") names the separator character itself.
func parseJoined(inner, sep string) (Event, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return Event{}, ErrInvalidSpec
	}

	var keyPart string
	var modPart string
	switch {
	case inner == sep:
		keyPart = sep
	case strings.HasSuffix(inner, sep+sep):
		keyPart = sep
		modPart = strings.TrimSuffix(inner, sep+sep)
	default:
		i := strings.LastIndex(inner, sep)
		if i < 0 {
			keyPart = inner
		} else {
			keyPart = inner[i+len(sep):]
			modPart = inner[:i]
		}
	}

	var mods Modifier
	if modPart != "" {
		for _, p := range strings.Split(modPart, sep) {
			mod := ModifierFromName(p)
			if mod == ModNone {
				return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, strings.TrimSpace(p))
			}
			mods = mods.With(mod)
		}
	}

	return parseKeyWithModifiers(keyPart, mods)
}

// runeAliases maps key names that produce printable characters.
var runeAliases = map[string]rune{
	"space":       ' ',
	"minus":       '-',
	"plus":        '+',
	"equal":       '=',
	"grave":       '`',
	"comma":       ',',
	"dot":         '.',
	"period":      '.',
	"slash":       '/',
	"backslash":   '\\',
	"bslash":      '\\',
	"semicolon":   ';',
	"apostrophe":  '\'',
	"left_brace":  '[',
	"right_brace": ']',
	"lt":          '<',
	"gt":          '>',
	"bar":         '|',
}

// parseKeyWithModifiers parses a key part with already-known modifiers
func parseKeyWithModifiers(keyPart string, mods Modifier) (Event, error) {
	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		return Event{}, ErrInvalidSpec
	}

	lowerKey := strings.ToLower(keyPart)

	// Keymapper-style "Key_4" names a digit or letter key.
	if rest, ok := strings.CutPrefix(lowerKey, "key_"); ok && utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		return NewRuneEvent(r, mods), nil
	}

	if r, ok := runeAliases[lowerKey]; ok {
		return NewRuneEvent(r, mods), nil
	}

	if key := KeyFromName(lowerKey); key != KeyNone && key != KeyRune {
		return NewSpecialEvent(key, mods), nil
	}

	runes := []rune(keyPart)
	if len(runes) == 1 {
		r := runes[0]
		if !unicode.IsPrint(r) {
			return Event{}, fmt.Errorf("%w: unprintable key %q", ErrInvalidSpec, keyPart)
		}
		// Letter case only implies Shift when the key stands alone.
		if mods != ModNone {
			r = unicode.ToLower(r)
		}
		return NewRuneEvent(r, mods), nil
	}

	return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}

// MustParse parses a key specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Event {
	event, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return event
}

// NormalizeSpec parses and re-formats a key specification to its canonical form.
func NormalizeSpec(spec string) (string, error) {
	event, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return event.String(), nil
}
