package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContextIsFocused(t *testing.T) {
	ctx := NewContext("kitty", "~")
	assert.Equal(t, "kitty", ctx.WindowClass)
	assert.Equal(t, "~", ctx.WindowTitle)
	assert.True(t, ctx.ScreenHasFocus)
	assert.False(t, ctx.NumLockOn)
}

func TestWithHelpersCopy(t *testing.T) {
	base := NewContext("kitty", "~")

	derived := base.
		WithDevice("Apple Internal Keyboard").
		WithKeyboardType("Apple").
		WithLocks(true, false).
		WithFocus(false).
		WithWindow("firefox", "Mozilla Firefox")

	assert.Equal(t, "kitty", base.WindowClass)
	assert.Empty(t, base.DeviceName)
	assert.True(t, base.ScreenHasFocus)

	assert.Equal(t, "firefox", derived.WindowClass)
	assert.Equal(t, "Mozilla Firefox", derived.WindowTitle)
	assert.Equal(t, "Apple Internal Keyboard", derived.DeviceName)
	assert.Equal(t, "Apple", derived.KeyboardType)
	assert.True(t, derived.NumLockOn)
	assert.False(t, derived.CapsLockOn)
	assert.False(t, derived.ScreenHasFocus)
}

func TestContextString(t *testing.T) {
	ctx := NewContext("kitty", "t").WithDevice("kbd")
	assert.Equal(t,
		`class="kitty" title="t" device="kbd" kbtype="" numlock=false capslock=false focus=true`,
		ctx.String())
}
