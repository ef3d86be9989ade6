package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
"@include" = "apps.yaml"

[multitap]
tap_interval = 0.3
min_tap_delay = 0.08

[keyboard]
override = ""
[keyboard.devices]
"My Keyboard" = "Apple"

[scripts]
file = "actions.lua"

[[keymaps]]
name = "Terminals"
when = { clas = "^(konsole|kitty)$" }
[keymaps.bindings]
"C-Shift-c" = "C-c"
"C-1" = ["C-a", "C-c"]
"C-2" = { text = "hello" }
"RAlt-4" = { unicode = 0xA3 }
"C-3" = { lua = "describe_window" }
"Enter" = { toggle = ["F2", "Enter"] }
"RC-CapsLock" = { taps = ["Esc", "CapsLock", ["C-a", "C-c"]] }
"Shift-Super-Alt-i" = { double_tap = { report = true } }
`

const sampleYAML = `
keymaps:
  - name: Browsers
    when:
      class: firefox
    bindings:
      C-t: C-n
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.toml", sampleTOML)
	writeFile(t, dir, "apps.yaml", sampleYAML)

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, f.Path)
	assert.Equal(t, []string{path, filepath.Join(dir, "apps.yaml")}, f.Files)
	assert.Equal(t, 0.3, f.Settings.MultiTap.TapInterval)
	assert.Equal(t, 0.08, f.Settings.MultiTap.MinTapDelay)
	assert.Equal(t, map[string]string{"My Keyboard": "Apple"}, f.Settings.Keyboard.Devices)
	assert.Equal(t, filepath.Join(dir, "actions.lua"), f.ScriptPath())

	require.Len(t, f.Keymaps, 2)
	assert.Equal(t, "Terminals", f.Keymaps[0].Name)
	assert.Equal(t, "Browsers", f.Keymaps[1].Name)
	assert.Equal(t, 9, f.BindingCount())

	kinds := make(map[string]ActionKind)
	for _, b := range f.Keymaps[0].Bindings {
		kinds[b.Trigger.String()] = b.Action.Kind
	}
	assert.Equal(t, map[string]ActionKind{
		"Ctrl-Shift-c":      KindCombo,
		"Ctrl-1":            KindSequence,
		"Ctrl-2":            KindText,
		"Alt-4":             KindUnicode,
		"Ctrl-3":            KindLua,
		"Enter":             KindToggle,
		"Ctrl-CapsLock":     KindTaps,
		"Alt-Super-Shift-i": KindDoubleTap,
	}, kinds)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "rules.toml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadFileUnknownTopLevelKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.toml", "[editor]\ntab = 4\n")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidRules)
	assert.True(t, strings.Contains(err.Error(), `"editor"`))
}

func TestScriptPathAbsolute(t *testing.T) {
	f := &File{Path: "/etc/rules.toml"}
	assert.Empty(t, f.ScriptPath())

	f.Settings.Scripts.File = "/opt/a.lua"
	assert.Equal(t, "/opt/a.lua", f.ScriptPath())
}

func TestDefaultPath(t *testing.T) {
	p := DefaultPath()
	assert.Equal(t, "rules.toml", filepath.Base(p))
	assert.Equal(t, AppName, filepath.Base(filepath.Dir(p)))
}
