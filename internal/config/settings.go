package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides. "__" separates a section from
// its key: TOSHY_RULES_MULTITAP__TAP_INTERVAL=0.3.
const EnvPrefix = "TOSHY_RULES_"

// settingsSections are the rule file's top-level keys that hold settings.
var settingsSections = []string{"multitap", "keyboard", "focus", "scripts"}

// Settings are the non-rule sections of a rule file. Mutating a Settings
// value has no effect on running components.
type Settings struct {
	MultiTap MultiTapSettings `koanf:"multitap"`
	Keyboard KeyboardSettings `koanf:"keyboard"`
	Focus    FocusSettings    `koanf:"focus"`
	Scripts  ScriptSettings   `koanf:"scripts"`
}

// MultiTapSettings are the tap-timing tunables, in seconds.
type MultiTapSettings struct {
	TapInterval float64 `koanf:"tap_interval"`
	MinTapDelay float64 `koanf:"min_tap_delay"`
}

// KeyboardSettings controls keyboard type detection.
type KeyboardSettings struct {
	// Override forces one keyboard type for every device.
	Override string `koanf:"override"`
	// Devices assigns types to device names.
	Devices map[string]string `koanf:"devices"`
}

// FocusSettings controls shared-device focus tracking.
type FocusSettings struct {
	// Software names the sharing programs whose logs are followed.
	Software []string `koanf:"software"`
	// LogPath replaces the probed log location.
	LogPath string `koanf:"log_path"`
}

// ScriptSettings names the Lua file whose functions bindings may call.
type ScriptSettings struct {
	File string `koanf:"file"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		MultiTap: MultiTapSettings{
			TapInterval: DefaultTapInterval,
			MinTapDelay: DefaultMinTapDelay,
		},
		Focus: FocusSettings{
			Software: []string{"synergy", "input-leap", "deskflow"},
		},
	}
}

func defaultSettingsMap() map[string]any {
	d := DefaultSettings()
	software := make([]any, len(d.Focus.Software))
	for i, s := range d.Focus.Software {
		software[i] = s
	}
	return map[string]any{
		"multitap": map[string]any{
			"tap_interval":  d.MultiTap.TapInterval,
			"min_tap_delay": d.MultiTap.MinTapDelay,
		},
		"keyboard": map[string]any{
			"override": "",
			"devices":  map[string]any{},
		},
		"focus": map[string]any{
			"software": software,
			"log_path": "",
		},
		"scripts": map[string]any{
			"file": "",
		},
	}
}

// LoadSettings layers the defaults, the settings sections of raw, and the
// environment, in increasing priority.
func LoadSettings(raw map[string]any) (Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultSettingsMap(), ""), nil); err != nil {
		return Settings{}, fmt.Errorf("loading default settings: %w", err)
	}

	fileSettings := make(map[string]any)
	for _, section := range settingsSections {
		if v, ok := raw[section]; ok {
			m, ok := v.(map[string]any)
			if !ok {
				return Settings{}, fmt.Errorf("%w: [%s] must be a table, got %T", ErrInvalidSettings, section, v)
			}
			fileSettings[section] = m
		}
	}
	if err := k.Load(confmap.Provider(fileSettings, ""), nil); err != nil {
		return Settings{}, fmt.Errorf("loading file settings: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Settings{}, fmt.Errorf("loading environment settings: %w", err)
	}

	var s Settings
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &s, conf); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return s, nil
}

// envKey maps TOSHY_RULES_FOCUS__LOG_PATH to focus.log_path.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Apply pushes the multi-tap settings into mt. Out-of-range values are
// logged by mt and the previous values kept.
func (s Settings) Apply(mt *MultiTap) error {
	return mt.Configure(s.MultiTap.TapInterval, s.MultiTap.MinTapDelay)
}
