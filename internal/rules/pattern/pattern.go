// Package pattern compiles the regular expressions used by context rules.
//
// Patterns use .NET-style syntax via regexp2 so rule files may use lookahead,
// which the negated label lists depend on. Matching is a search: a pattern
// accepts a string when it is found anywhere inside it.
package pattern

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"
)

// DefaultTimeout bounds a single evaluation so a pathological pattern cannot
// stall key handling.
const DefaultTimeout = 250 * time.Millisecond

// ErrCompile is returned when a pattern source is not a valid expression.
var ErrCompile = errors.New("invalid pattern")

// Pattern is a compiled, immutable rule pattern.
type Pattern struct {
	src           string
	caseSensitive bool
	re            *regexp2.Regexp
}

// Compile compiles src. Unless caseSensitive is set the pattern ignores case.
func Compile(src string, caseSensitive bool) (*Pattern, error) {
	opts := regexp2.RegexOptions(regexp2.Singleline)
	if !caseSensitive {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(src, opts)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrCompile, src, err)
	}
	re.MatchTimeout = DefaultTimeout
	return &Pattern{src: src, caseSensitive: caseSensitive, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string, caseSensitive bool) *Pattern {
	p, err := Compile(src, caseSensitive)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether the pattern is found in s. The only possible error
// is a match timeout.
func (p *Pattern) Match(s string) (bool, error) {
	return p.re.MatchString(s)
}

// Find reports whether the pattern is found in s, treating a timeout as no match.
func (p *Pattern) Find(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

// String returns the pattern source.
func (p *Pattern) String() string {
	return p.src
}

// CaseSensitive reports whether the pattern was compiled case-sensitively.
func (p *Pattern) CaseSensitive() bool {
	return p.caseSensitive
}

// Alternation builds an alternation that matches any of labels exactly.
// Each label is stripped of its own anchors, case-folded, anchored again,
// and joined with "|": ["^Kitty$", "konsole"] becomes "^kitty$|^konsole$".
// Labels are expression fragments and are not escaped.
func Alternation(labels []string) string {
	fold := cases.Fold()
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSuffix(strings.TrimPrefix(label, "^"), "$")
		if label == "" {
			continue
		}
		parts = append(parts, "^"+fold.String(label)+"$")
	}
	return strings.Join(parts, "|")
}

// Negate returns a pattern that matches exactly when the input equals none
// of the alternatives in alternation. The whole alternation sits inside a
// single negative lookahead that must reach the end of input, so
// Negate("^a$|^b$") rejects "a" and "B" but accepts "ab" and "xb".
func Negate(alternation string) string {
	return `^(?!(?:` + alternation + `)\z).*`
}

// NegateLabels is shorthand for Negate(Alternation(labels)).
func NegateLabels(labels []string) string {
	return Negate(Alternation(labels))
}
