// Package key provides key combo types and parsing for remapping rules.
//
// This package defines the fundamental types for representing keyboard input
// and output:
//
//   - Key: Identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Super)
//   - Event: A single key combo with modifiers and timestamp
//   - Sequence: An ordered series of combos, such as typed text
//
// # Combo Specifications
//
// Combo specifications can be written in multiple formats:
//
//   - Simple keys: "a", "A", "1", "Enter", "Esc", "CapsLock"
//   - Hyphenated: "C-s", "Shift-Super-Alt-i", "RC-CapsLock", "RAlt-Key_4"
//   - Plus-separated: "Ctrl+S", "Alt+F4", "Ctrl+Shift+P"
//   - Bracketed: "<C-s>", "<A-f>", "<C-S-p>", "<CR>", "<Esc>"
//
// Side-specific modifier names (RC, LAlt, RShift, ...) are accepted and folded
// onto the generic modifier, since rules match on the logical combo.
package key
