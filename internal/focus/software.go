// Package focus tracks whether this machine's screen has keyboard focus when
// a keyboard and mouse sharing program is in use.
//
// Synergy, Input Leap and Deskflow log "entering screen" and "leaving screen"
// on the server as the pointer crosses to another machine. The tracker tails
// those logs so rules can stop remapping while input is routed elsewhere.
package focus

import (
	"os"
	"path/filepath"
	"strings"
)

// Software describes one sharing program.
type Software struct {
	Name string

	// LogPaths are candidate log locations, most likely first. A leading
	// "~/" is expanded to the home directory.
	LogPaths []string
}

// Known lists the supported programs.
var Known = []Software{
	{
		Name: "synergy",
		LogPaths: []string{
			"~/.local/state/Synergy/synergy.log",
			"~/.local/share/Synergy/synergy.log",
			"~/.config/Synergy/synergy.log",
			"~/synergy.log",
			"~/.synergy/synergy.log",
		},
	},
	{
		Name: "input-leap",
		LogPaths: []string{
			"/var/log/input-leap.log",
			"~/input-leap.log",
			"~/.local/state/InputLeap/input-leap.log",
			"~/.local/share/InputLeap/input-leap.log",
			"~/.config/InputLeap/input-leap.log",
		},
	},
	{
		Name: "deskflow",
		LogPaths: []string{
			"~/deskflow.log",
			"~/.local/state/Deskflow/deskflow.log",
			"~/.local/share/Deskflow/deskflow.log",
			"~/.config/Deskflow/deskflow.log",
			"/var/log/deskflow.log",
		},
	},
}

// Lookup returns the known program called name.
func Lookup(name string) (Software, bool) {
	for _, s := range Known {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Software{}, false
}

// FindLog returns the first candidate log path that exists.
func (s Software) FindLog() (string, bool) {
	for _, p := range s.LogPaths {
		p = expandHome(p)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
