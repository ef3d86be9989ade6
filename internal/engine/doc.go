// Package engine applies compiled keymaps to incoming key events.
//
// An Engine owns one Rules value at a time. Rules are compiled from a
// config.File: each keymap's condition becomes a match.Matcher, each binding
// becomes an action.Action, and multi-tap bindings register Tappers with the
// rule set's tap.Classifier. Swapping rules is atomic with respect to
// HandleKey; runs in progress on the old rules are abandoned.
//
// # Lookup
//
// For every event the engine fills in the keyboard type, then walks the
// keymaps in file order. A keymap applies when its keyboard type restriction
// (if any) and its condition (if any) both hold. The first applicable keymap
// that binds the event's combo handles it. Unhandled events are the caller's
// to pass through.
//
// While the screen does not have focus, because a shared-keyboard tool is
// forwarding input to another machine, every event is passed through.
//
// # Concurrency
//
// HandleKey may be called from one goroutine while tap timers fire on
// another. The Sink must tolerate that.
package engine
