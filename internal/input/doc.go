// Package input holds the per-event context handed to the rule layer.
//
// A Context describes where a key event happened: the focused window, the
// originating device, lock-key LEDs, and whether this machine currently owns
// the shared keyboard. Subpackages provide the key combo model (key), tap
// classification (tap), and a terminal event source (termsource).
package input
