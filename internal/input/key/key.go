package key

import (
	"fmt"
	"strings"
)

// Key represents a keyboard key.
// For character keys, use KeyRune and set the Rune field in Event.
type Key uint16

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// Special keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24

	// Other special keys
	KeySpace
	KeyPause
	KeyPrintScreen
	KeyScrollLock
	KeyNumLock
	KeyCapsLock
	KeyMenu

	// Media keys
	KeyVolumeUp
	KeyVolumeDown
	KeyMute
	KeyPlayPause

	// KeyRune is used for character keys (letters, numbers, punctuation).
	// The actual character is stored in Event.Rune.
	KeyRune
)

var keyNames = map[Key]string{
	KeyNone:        "None",
	KeyEscape:      "Esc",
	KeyEnter:       "Enter",
	KeyTab:         "Tab",
	KeyBackspace:   "Backspace",
	KeyDelete:      "Delete",
	KeyInsert:      "Insert",
	KeyHome:        "Home",
	KeyEnd:         "End",
	KeyPageUp:      "PageUp",
	KeyPageDown:    "PageDown",
	KeyUp:          "Up",
	KeyDown:        "Down",
	KeyLeft:        "Left",
	KeyRight:       "Right",
	KeySpace:       "Space",
	KeyPause:       "Pause",
	KeyPrintScreen: "PrintScreen",
	KeyScrollLock:  "ScrollLock",
	KeyNumLock:     "NumLock",
	KeyCapsLock:    "CapsLock",
	KeyMenu:        "Menu",
	KeyVolumeUp:    "VolumeUp",
	KeyVolumeDown:  "VolumeDown",
	KeyMute:        "Mute",
	KeyPlayPause:   "PlayPause",
	KeyRune:        "Rune",
}

// String returns a human-readable name for the key.
func (k Key) String() string {
	if k.IsFunctionKey() {
		return fmt.Sprintf("F%d", int(k-KeyF1)+1)
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", k)
}

// IsSpecial returns true if this is a special (non-character) key.
func (k Key) IsSpecial() bool {
	return k != KeyNone && k != KeyRune
}

// IsFunctionKey returns true if this is a function key (F1-F24).
func (k Key) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF24
}

// IsArrowKey returns true if this is an arrow key.
func (k Key) IsArrowKey() bool {
	return k >= KeyUp && k <= KeyRight
}

// IsLockKey returns true for keys that toggle a keyboard LED.
func (k Key) IsLockKey() bool {
	return k == KeyCapsLock || k == KeyNumLock || k == KeyScrollLock
}

// keyNameMap maps key names (lowercase) to Key values.
var keyNameMap = map[string]Key{
	"none":        KeyNone,
	"escape":      KeyEscape,
	"esc":         KeyEscape,
	"enter":       KeyEnter,
	"return":      KeyEnter,
	"cr":          KeyEnter,
	"tab":         KeyTab,
	"backspace":   KeyBackspace,
	"bs":          KeyBackspace,
	"delete":      KeyDelete,
	"del":         KeyDelete,
	"insert":      KeyInsert,
	"ins":         KeyInsert,
	"home":        KeyHome,
	"end":         KeyEnd,
	"pageup":      KeyPageUp,
	"page_up":     KeyPageUp,
	"pgup":        KeyPageUp,
	"pagedown":    KeyPageDown,
	"page_down":   KeyPageDown,
	"pgdn":        KeyPageDown,
	"up":          KeyUp,
	"down":        KeyDown,
	"left":        KeyLeft,
	"right":       KeyRight,
	"pause":       KeyPause,
	"printscreen": KeyPrintScreen,
	"sysrq":       KeyPrintScreen,
	"scrolllock":  KeyScrollLock,
	"scroll_lock": KeyScrollLock,
	"numlock":     KeyNumLock,
	"num_lock":    KeyNumLock,
	"capslock":    KeyCapsLock,
	"caps_lock":   KeyCapsLock,
	"menu":        KeyMenu,
	"compose":     KeyMenu,
	"volumeup":    KeyVolumeUp,
	"volumedown":  KeyVolumeDown,
	"mute":        KeyMute,
	"playpause":   KeyPlayPause,
}

func init() {
	for k := KeyF1; k <= KeyF24; k++ {
		keyNameMap[strings.ToLower(k.String())] = k
	}
}

// KeyFromName returns the Key for a given name (case-insensitive).
// Returns KeyNone if the name is not recognized.
func KeyFromName(name string) Key {
	name = strings.ToLower(strings.TrimSpace(name))
	if k, ok := keyNameMap[name]; ok {
		return k
	}
	return KeyNone
}
