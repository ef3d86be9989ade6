package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeline(t *testing.T) {
	src := `
# comment
0    C-c     class=kitty title="~/src dir"   # trailing comment
120  Shift-a numlock capslock
300  Esc     device="Magic Keyboard" nofocus
`
	steps, err := ParseTimeline(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, 3, steps[0].Line)
	assert.Equal(t, time.Duration(0), steps[0].At)
	assert.Equal(t, "Ctrl-c", steps[0].Key.String())
	assert.Equal(t, "kitty", steps[0].Context.WindowClass)
	assert.Equal(t, "~/src dir", steps[0].Context.WindowTitle)
	assert.True(t, steps[0].Context.ScreenHasFocus)

	assert.Equal(t, 120*time.Millisecond, steps[1].At)
	assert.Equal(t, "kitty", steps[1].Context.WindowClass, "class carries over")
	assert.True(t, steps[1].Context.NumLockOn)
	assert.True(t, steps[1].Context.CapsLockOn)

	assert.Equal(t, "Magic Keyboard", steps[2].Context.DeviceName)
	assert.False(t, steps[2].Context.NumLockOn, "flags apply to one line")
	assert.False(t, steps[2].Context.ScreenHasFocus)
}

func TestParseTimelineErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing key", "100\n", "want <ms> <key>"},
		{"bad time", "soon a\n", "bad time"},
		{"negative time", "-5 a\n", "bad time"},
		{"time goes back", "10 a\n5 b\n", "line 2"},
		{"bad key", "0 Hyper-Nope-x\n", "line 1"},
		{"unknown field", "0 a colour=red\n", "unknown field"},
		{"open quote", "0 a title=\"x\n", "unterminated quote"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimeline(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTimeline)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
