// Package config loads and validates keymap rule files.
//
// A rule file is TOML (or YAML) with a list of keymaps and a few settings
// sections:
//
//	"@include" = ["apps.toml"]
//
//	[multitap]
//	tap_interval = 0.25
//	min_tap_delay = 0.07
//
//	[keyboard]
//	override = ""
//	[keyboard.devices]
//	"Magic Keyboard" = "Apple"
//
//	[focus]
//	software = ["synergy", "input-leap"]
//
//	[scripts]
//	file = "actions.lua"
//
//	[[keymaps]]
//	name = "Terminals"
//	when = { class = "^(konsole|kitty)$" }
//	[keymaps.bindings]
//	"C-Shift-c" = "C-c"
//	"RC-CapsLock" = { taps = ["Esc", "CapsLock"] }
//
// Included files are merged by the loader subpackage; keymaps of the main
// file come first. Settings are layered with koanf: built-in defaults, then
// the file, then TOSHY_RULES_ environment variables.
//
// # Sub-packages
//
//   - loader: file decoding and @include resolution
//   - watcher: debounced change notification for live reload
//
// # Errors
//
// Keymap problems are collected rather than stopping at the first one.
// Load returns them joined, each a *RuleError wrapping ErrInvalidRules or a
// more specific cause. Out-of-range multitap values produce a
// *ValueOutOfRangeError and leave the previous value in effect.
package config
