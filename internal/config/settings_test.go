package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().MultiTap, s.MultiTap)
	assert.Equal(t, []string{"synergy", "input-leap", "deskflow"}, s.Focus.Software)
	assert.Empty(t, s.Keyboard.Override)
}

func TestLoadSettingsFromFile(t *testing.T) {
	raw := map[string]any{
		"multitap": map[string]any{"tap_interval": 0.4},
		"keyboard": map[string]any{
			"override": "Apple",
			"devices":  map[string]any{"Apple Inc. Magic Keyboard": "IBM"},
		},
		"focus":   map[string]any{"software": []any{"deskflow"}},
		"keymaps": []any{},
	}

	s, err := LoadSettings(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.4, s.MultiTap.TapInterval)
	assert.Equal(t, DefaultMinTapDelay, s.MultiTap.MinTapDelay)
	assert.Equal(t, "Apple", s.Keyboard.Override)
	assert.Equal(t, map[string]string{"Apple Inc. Magic Keyboard": "IBM"}, s.Keyboard.Devices)
	assert.Equal(t, []string{"deskflow"}, s.Focus.Software)
}

func TestLoadSettingsIntegerSeconds(t *testing.T) {
	s, err := LoadSettings(map[string]any{
		"multitap": map[string]any{"tap_interval": int64(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.MultiTap.TapInterval)
}

func TestLoadSettingsEnvironmentWins(t *testing.T) {
	t.Setenv("TOSHY_RULES_MULTITAP__MIN_TAP_DELAY", "0.09")
	t.Setenv("TOSHY_RULES_FOCUS__SOFTWARE", "synergy,deskflow")
	t.Setenv("TOSHY_RULES_SCRIPTS__FILE", "/tmp/actions.lua")

	s, err := LoadSettings(map[string]any{
		"multitap": map[string]any{"min_tap_delay": 0.1},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.09, s.MultiTap.MinTapDelay)
	assert.Equal(t, []string{"synergy", "deskflow"}, s.Focus.Software)
	assert.Equal(t, "/tmp/actions.lua", s.Scripts.File)
}

func TestLoadSettingsBadSection(t *testing.T) {
	_, err := LoadSettings(map[string]any{"multitap": "fast"})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestSettingsApply(t *testing.T) {
	mt := NewMultiTap(zerolog.Nop())
	s := DefaultSettings()
	s.MultiTap.TapInterval = 0.5
	s.MultiTap.MinTapDelay = 0.1

	require.NoError(t, s.Apply(mt))
	interval, minDelay := mt.Values()
	assert.Equal(t, 0.5, interval)
	assert.Equal(t, 0.1, minDelay)

	s.MultiTap.TapInterval = 9
	assert.ErrorIs(t, s.Apply(mt), ErrValueOutOfRange)
	interval, _ = mt.Values()
	assert.Equal(t, 0.5, interval)
}
