package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/RedBearAK/Toshy/internal/config/loader"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "toshy-rules"

// DefaultPath returns $XDG_CONFIG_HOME/toshy-rules/rules.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "rules.toml")
}

// File is a loaded and validated rule file.
type File struct {
	// Path is the main file.
	Path string
	// Files lists every file read, includes after the main file.
	Files    []string
	Settings Settings
	Keymaps  []Keymap
}

// ScriptPath returns the Lua script location, resolved against the rule
// file's directory, or "" when none is configured.
func (f *File) ScriptPath() string {
	p := f.Settings.Scripts.File
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(f.Path), p)
}

// BindingCount returns the number of bindings over all keymaps.
func (f *File) BindingCount() int {
	n := 0
	for _, km := range f.Keymaps {
		n += len(km.Bindings)
	}
	return n
}

// Load reads, merges and validates the rule file at path.
func Load(path string, opts ...loader.Option) (*File, error) {
	res, err := loader.New(opts...).Load(path)
	if err != nil {
		if errors.Is(err, loader.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
		}
		return nil, err
	}
	return Parse(path, res.Files, res.Data)
}

// Parse validates already decoded rule file data.
func Parse(path string, files []string, data map[string]any) (*File, error) {
	for k := range data {
		switch k {
		case "keymaps", "multitap", "keyboard", "focus", "scripts":
		default:
			return nil, fmt.Errorf("%s: %w: unknown top-level key %q", path, ErrInvalidRules, k)
		}
	}

	settings, err := LoadSettings(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	keymaps, err := ParseKeymaps(path, data["keymaps"])
	if err != nil {
		return nil, err
	}

	return &File{
		Path:     path,
		Files:    files,
		Settings: settings,
		Keymaps:  keymaps,
	}, nil
}
