package pattern

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndFind(t *testing.T) {
	p, err := Compile("^(konsole|kitty)$", false)
	require.NoError(t, err)

	assert.True(t, p.Find("kitty"))
	assert.True(t, p.Find("Konsole"))
	assert.False(t, p.Find("kitty-session"))
	assert.Equal(t, "^(konsole|kitty)$", p.String())
	assert.False(t, p.CaseSensitive())
}

func TestFindIsSearch(t *testing.T) {
	p := MustCompile("fire", false)
	assert.True(t, p.Find("Mozilla Firefox"))
	assert.False(t, p.Find("chromium"))
}

func TestCaseSensitive(t *testing.T) {
	p := MustCompile("Firefox", true)
	assert.True(t, p.Find("Firefox"))
	assert.False(t, p.Find("firefox"))
}

func TestCompileError(t *testing.T) {
	_, err := Compile("(unclosed", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompile))
	assert.Contains(t, err.Error(), "(unclosed")
}

func TestAlternation(t *testing.T) {
	tests := []struct {
		labels []string
		want   string
	}{
		{[]string{"kitty"}, "^kitty$"},
		{[]string{"^Kitty$", "Konsole"}, "^kitty$|^konsole$"},
		{[]string{"Straße"}, "^strasse$"},
		{[]string{"", "^$", "xterm"}, "^xterm$"},
		{nil, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Alternation(tt.labels), "labels %q", tt.labels)
	}
}

func TestNegateMatchesNoneOfLabels(t *testing.T) {
	labels := []string{"a", "b", "kitty", "gnome-terminal"}
	neg := MustCompile(NegateLabels(labels), false)

	inputs := []string{
		"", "a", "A", "b", "B", "ab", "ba", "xb", "bx", "aa",
		"kitty", "KITTY", "kitty2", "xkitty", "gnome-terminal",
		"Gnome-Terminal", "gnome-terminal-server", "a\n", "\nb", "firefox",
	}

	for _, in := range inputs {
		equalsLabel := false
		for _, l := range labels {
			if strings.EqualFold(in, l) {
				equalsLabel = true
			}
		}
		assert.Equal(t, !equalsLabel, neg.Find(in), "input %q", in)
	}
}

func TestNegateWrapsWholeAlternation(t *testing.T) {
	assert.Equal(t, `^(?!(?:^a$|^b$)\z).*`, Negate("^a$|^b$"))
}
