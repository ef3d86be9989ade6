package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/config"
	"github.com/RedBearAK/Toshy/internal/engine"
	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/input/key"
	"github.com/RedBearAK/Toshy/internal/schedule"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "toshy-rules", cmd.Use)

	for _, name := range []string{"check", "simulate", "run", "pattern", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "0", verbose.DefValue)

	logFile := cmd.PersistentFlags().Lookup("log-file")
	require.NotNil(t, logFile)
	assert.Equal(t, "", logFile.DefValue)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulateGolden(t *testing.T) {
	out, err := execute(t, "simulate", "testdata/simulate.toml", "testdata/simulate.events")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "simulate", []byte(out))
}

func TestSimulateIsDeterministic(t *testing.T) {
	first, err := execute(t, "simulate", "testdata/simulate.toml", "testdata/simulate.events")
	require.NoError(t, err)
	second, err := execute(t, "simulate", "testdata/simulate.toml", "testdata/simulate.events")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulateBadTimeline(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "bad.events")
	require.NoError(t, os.WriteFile(events, []byte("100 a\n50 b\n"), 0o644))

	_, err := execute(t, "simulate", "testdata/simulate.toml", events)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeline)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", "testdata/simulate.toml")
	require.NoError(t, err)

	assert.Contains(t, out, "testdata/simulate.toml: 3 keymaps, 7 bindings, 1 multi-tap")
	assert.Contains(t, out, `keymap "Terminals" (conditional)`)
	assert.Contains(t, out, `keymap "General" (global)`)
	assert.Contains(t, out, "Ctrl-CapsLock")
	assert.Contains(t, out, "taps(Esc, CapsLock, sequence(Ctrl-a, Ctrl-c))")
}

func TestCheckQuiet(t *testing.T) {
	out, err := execute(t, "check", "-q", "testdata/simulate.toml")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestCheckReportsEveryProblem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[keymaps]]
name = "Broken"
[keymaps.bindings]
"C-1" = { lua = "one" }
"C-2" = { lua = "two" }
`), 0o644))

	_, err := execute(t, "check", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problems")
	assert.Contains(t, err.Error(), "one")
	assert.Contains(t, err.Error(), "two")
}

func TestCheckMissingFile(t *testing.T) {
	_, err := execute(t, "check", filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrFileNotFound)
}

func TestPatternNegate(t *testing.T) {
	out, err := execute(t, "pattern", "negate", "Kitty", "^konsole$")
	require.NoError(t, err)
	assert.Equal(t, "alternation: ^kitty$|^konsole$\nnegation:    ^(?!(?:^kitty$|^konsole$)\\z).*\n", out)
}

func TestPatternMatch(t *testing.T) {
	out, err := execute(t, "pattern", "match", "fire", "Firefox", "Chromium")
	require.NoError(t, err)
	assert.Contains(t, out, `match     "Firefox"`)
	assert.Contains(t, out, `no match  "Chromium"`)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "toshy-rules version dev")
}

type fakeReplacer struct{ paths []string }

func (f *fakeReplacer) Replace(paths ...string) error {
	f.paths = paths
	return nil
}

func TestReloaderKeepsRulesOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	write := func(s string) { require.NoError(t, os.WriteFile(path, []byte(s), 0o644)) }
	write(`
[[keymaps]]
name = "One"
[keymaps.bindings]
"C-1" = "C-a"
`)

	rec := action.NewRecorder(nil)
	eng := engine.New(rec, engine.WithScheduler(schedule.NewVirtual(time.Time{})))
	defer eng.Close()
	f, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, eng.Load(f))

	var reports []string
	watch := &fakeReplacer{}
	rl := &reloader{path: path, engine: eng, watch: watch, report: func(s string) { reports = append(reports, s) }}

	write(`
[[keymaps]]
name = "Broken"
[keymaps.bindings]
"C-1" = { lua = "missing" }
`)
	rl.reload(nil)
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0], "reload failed")
	assert.Nil(t, watch.paths)

	ctx := input.NewContext("kitty", "")
	eng.HandleKey(key.MustParse("C-1"), ctx)
	assert.Equal(t, []string{"Ctrl-a"}, rec.Strings())

	write(`
[[keymaps]]
name = "Two"
[keymaps.bindings]
"C-1" = "C-b"
`)
	rl.reload(nil)
	assert.Contains(t, reports[1], "reloaded: 1 keymaps, 1 bindings")
	assert.Equal(t, []string{path}, watch.paths)

	eng.HandleKey(key.MustParse("C-1"), ctx)
	assert.Equal(t, []string{"Ctrl-a", "Ctrl-b"}, rec.Strings())
}
