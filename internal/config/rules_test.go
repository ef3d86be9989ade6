package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedBearAK/Toshy/internal/input/key"
	"github.com/RedBearAK/Toshy/internal/kbtype"
	"github.com/RedBearAK/Toshy/internal/rules/match"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"combo", "C-c", "Ctrl-c"},
		{"combo table", map[string]any{"combo": "Super-Space"}, "Super-Space"},
		{"spaced sequence", "C-a C-c", "sequence(Ctrl-a, Ctrl-c)"},
		{"list sequence", []any{"C-a", map[string]any{"text": "x"}}, `sequence(Ctrl-a, text "x")`},
		{"text", map[string]any{"text": "hello"}, `text "hello"`},
		{"unicode int", map[string]any{"unicode": int64(0xA3)}, "unicode U+00A3"},
		{"unicode yaml int", map[string]any{"unicode": 0xA3}, "unicode U+00A3"},
		{"unicode string", map[string]any{"unicode": "U+20AC"}, "unicode U+20AC"},
		{"lua", map[string]any{"lua": "describe_window"}, "lua describe_window"},
		{"report", map[string]any{"report": true}, "report"},
		{"toggle list", map[string]any{"toggle": []any{"F2", "Enter"}}, "toggle(F2, Enter)"},
		{"taps", map[string]any{"taps": []any{"Esc", "CapsLock", []any{"C-a", "C-c"}}}, "taps(Esc, CapsLock, sequence(Ctrl-a, Ctrl-c))"},
		{"double tap", map[string]any{"double_tap": map[string]any{"report": true}}, "double_tap(report)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAction(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestParseToggleTable(t *testing.T) {
	a, err := ParseAction(map[string]any{
		"toggle": map[string]any{"on": "F2", "latch": "rename", "set": false, "keep_on": true},
	})
	require.NoError(t, err)
	assert.Equal(t, KindToggle, a.Kind)
	assert.Equal(t, "rename", a.Latch)
	require.NotNil(t, a.Set)
	assert.False(t, *a.Set)
	assert.True(t, a.KeepOn)
	require.Len(t, a.Items, 2)
	assert.Equal(t, a.Items[0], a.Items[1], "off defaults to on")

	a, err = ParseAction(map[string]any{"toggle": []any{"F2", "Enter"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultLatch, a.Latch)
}

func TestParseActionErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"empty", ""},
		{"bad combo", "C-Nope"},
		{"empty list", []any{}},
		{"number", 42},
		{"two kinds", map[string]any{"text": "a", "lua": "b"}},
		{"extra key", map[string]any{"text": "a", "note": "b"}},
		{"no kind", map[string]any{"note": "b"}},
		{"report false", map[string]any{"report": false}},
		{"too many taps", map[string]any{"taps": []any{"a", "b", "c", "d", "e", "f"}}},
		{"no taps", map[string]any{"taps": []any{}}},
		{"toggle triple", map[string]any{"toggle": []any{"a", "b", "c"}}},
		{"toggle unknown key", map[string]any{"toggle": map[string]any{"on": "a", "flip": true}}},
		{"surrogate", map[string]any{"unicode": int64(0xD800)}},
		{"fractional", map[string]any{"unicode": 65.5}},
		{"bad hex", map[string]any{"unicode": "U+XYZ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAction(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseKeymaps(t *testing.T) {
	raw := []any{
		map[string]any{
			"name":   "Terminals",
			"kbtype": "Apple",
			"when":   map[string]any{"clas": "^(konsole|kitty)$"},
			"bindings": map[string]any{
				"C-Shift-c": "C-c",
				"C-Shift-v": "C-v",
			},
		},
		map[string]any{
			"bindings": map[string]any{"RAlt-4": map[string]any{"unicode": int64(0xA3)}},
		},
	}

	keymaps, err := ParseKeymaps("rules.toml", raw)
	require.NoError(t, err)
	require.Len(t, keymaps, 2)

	term := keymaps[0]
	assert.Equal(t, "Terminals", term.Name)
	assert.Equal(t, kbtype.Apple, term.KBType)
	require.NotNil(t, term.When)
	require.Len(t, term.Bindings, 2)
	assert.Equal(t, "Ctrl-Shift-c", term.Bindings[0].Trigger.String())
	assert.Equal(t, "Ctrl-Shift-v", term.Bindings[1].Trigger.String())

	global := keymaps[1]
	assert.Equal(t, "#2", global.Name)
	assert.Nil(t, global.When)
	assert.Equal(t, key.MustParse("RAlt-4"), global.Bindings[0].Trigger)
}

func TestParseKeymapsCollectsErrors(t *testing.T) {
	raw := []any{
		map[string]any{
			"name":     "Broken",
			"kbtype":   "Mac",
			"when":     map[string]any{"klass": "a"},
			"bindings": map[string]any{"C-x": 42},
			"colour":   "red",
		},
		map[string]any{
			"name":     "Dupes",
			"bindings": map[string]any{"C-c": "a", "Ctrl-c": "b"},
		},
		map[string]any{"name": "Empty"},
		"not a table",
	}

	keymaps, err := ParseKeymaps("rules.toml", raw)
	require.Error(t, err)
	assert.Empty(t, keymaps)

	assert.ErrorIs(t, err, ErrInvalidRules)
	assert.ErrorIs(t, err, kbtype.ErrInvalidType)
	assert.ErrorIs(t, err, match.ErrConfiguration)

	var re *RuleError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "rules.toml", re.Path)

	msg := err.Error()
	assert.Contains(t, msg, `keymap "Broken" kbtype`)
	assert.Contains(t, msg, `keymap "Broken" colour`)
	assert.Contains(t, msg, `keymap "Dupes" bindings."Ctrl-c"`)
	assert.Contains(t, msg, `keymap "Empty" bindings`)
	assert.Contains(t, msg, "keymap #4")
}

func TestParseKeymapsNotAList(t *testing.T) {
	_, err := ParseKeymaps("rules.toml", map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidRules)

	keymaps, err := ParseKeymaps("rules.toml", nil)
	assert.NoError(t, err)
	assert.Nil(t, keymaps)
}
