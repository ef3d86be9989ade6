package key

import (
	"strings"
)

// Sequence represents a series of combos emitted one after another.
// Examples: "C-a C-c" (select all, copy), or the keys of a typed word.
type Sequence struct {
	// Events contains the combos in order.
	Events []Event
}

// NewSequence creates an empty key sequence.
func NewSequence() *Sequence {
	return &Sequence{
		Events: make([]Event, 0, 4),
	}
}

// NewSequenceFrom creates a sequence from the given events.
func NewSequenceFrom(events ...Event) *Sequence {
	return &Sequence{
		Events: events,
	}
}

// Len returns the number of events in the sequence.
func (s *Sequence) Len() int {
	return len(s.Events)
}

// IsEmpty returns true if the sequence has no events.
func (s *Sequence) IsEmpty() bool {
	return len(s.Events) == 0
}

// Add appends an event to the sequence.
func (s *Sequence) Add(event Event) {
	s.Events = append(s.Events, event)
}

// String returns the combos joined by spaces, the form ParseSequence reads.
func (s *Sequence) String() string {
	if len(s.Events) == 0 {
		return ""
	}

	parts := make([]string, len(s.Events))
	for i, e := range s.Events {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// Equals returns true if two sequences are identical.
func (s *Sequence) Equals(other *Sequence) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Events) != len(other.Events) {
		return false
	}
	for i, e := range s.Events {
		if !e.Equals(other.Events[i]) {
			return false
		}
	}
	return true
}

// ParseSequence parses space-separated combos into a Sequence.
// Example: "C-a C-c", "Home Shift-End Delete"
func ParseSequence(s string) (*Sequence, error) {
	seq := NewSequence()
	for _, part := range strings.Fields(s) {
		event, err := Parse(part)
		if err != nil {
			return nil, err
		}
		seq.Add(event)
	}
	return seq, nil
}

// TextSequence returns the combos that type text on a US layout.
// Characters with no key on that layout are skipped and reported.
func TextSequence(text string) (*Sequence, []rune) {
	seq := NewSequence()
	var skipped []rune
	for _, r := range text {
		switch {
		case r == '\n':
			seq.Add(NewSpecialEvent(KeyEnter, ModNone))
		case r == '\t':
			seq.Add(NewSpecialEvent(KeyTab, ModNone))
		case r < 0x80 && r >= ' ':
			if base, ok := shiftedASCII[r]; ok {
				seq.Add(NewRuneEvent(base, ModShift))
			} else {
				seq.Add(NewRuneEvent(r, ModNone))
			}
		default:
			skipped = append(skipped, r)
		}
	}
	return seq, skipped
}

// shiftedASCII maps shifted symbols to their unshifted key on a US layout.
var shiftedASCII = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
	'_': '-', '+': '=', '{': '[', '}': ']', '|': '\\',
	':': ';', '"': '\'', '<': ',', '>': '.', '?': '/',
	'~': '`',
}
