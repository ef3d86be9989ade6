package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedBearAK/Toshy/internal/input"
)

func TestToggleAlternates(t *testing.T) {
	latch := NewLatch()
	enter := &Toggle{Latch: latch, IfOn: MustCombo("F2"), IfOff: MustCombo("Enter")}

	d, rec := newTestDispatcher()
	for i := 0; i < 4; i++ {
		require.NoError(t, d.Dispatch(enter.Action(), input.Context{}))
	}
	assert.Equal(t, []string{"Enter", "F2", "Enter", "F2"}, rec.Strings())
	assert.False(t, latch.On())
}

func TestToggleKeepFlags(t *testing.T) {
	latch := NewLatch()
	keepOff := &Toggle{Latch: latch, IfOn: MustCombo("F2"), IfOff: MustCombo("Enter"), KeepOff: true}

	assert.Equal(t, "Enter", keepOff.Resolve().(Combo).String())
	assert.False(t, latch.On())

	latch.Set(true)
	keepOn := &Toggle{Latch: latch, IfOn: MustCombo("F2"), IfOff: MustCombo("Enter"), KeepOn: true}
	assert.Equal(t, "F2", keepOn.Resolve().(Combo).String())
	assert.True(t, latch.On())
}

func TestToggleSetForcesLatch(t *testing.T) {
	latch := NewLatch()
	on := true
	escape := &Toggle{Latch: latch, IfOn: MustCombo("Esc"), Set: &on}
	enter := &Toggle{Latch: latch, IfOn: MustCombo("F2"), IfOff: MustCombo("Enter")}

	assert.Equal(t, "Esc", escape.Resolve().(Combo).String())
	assert.True(t, latch.On())
	assert.Equal(t, "F2", enter.Resolve().(Combo).String())
	assert.False(t, latch.On())

	silent := &Toggle{Latch: latch, Set: &on}
	assert.Nil(t, silent.Resolve())
	assert.True(t, latch.On())
}

func TestContextReport(t *testing.T) {
	d, rec := newTestDispatcher()
	ctx := input.NewContext("kitty", "~/src").WithDevice("Apple Keyboard").WithKeyboardType("Apple")

	require.NoError(t, d.Dispatch(ContextReport(), ctx))
	got := rec.Strings()
	require.Len(t, got, 13)
	assert.Equal(t, "Enter", got[0])
	assert.Equal(t, `"Class: 'kitty'"`, got[1])
	assert.Equal(t, `"Title: '~/src'"`, got[3])
	assert.Equal(t, `"Keybd: 'Apple Keyboard'"`, got[5])
	assert.Equal(t, `"Keyboard type: 'Apple'"`, got[7])
	assert.Equal(t, "Enter", got[12])
}
