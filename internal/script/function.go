package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/RedBearAK/Toshy/internal/action"
	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/input/key"
)

// Function returns a computation that calls the global Lua function name.
// It fails at load time if the script does not define it.
func (s *State) Function(name string) (action.Computation, error) {
	if !s.HasFunction(name) {
		return action.Computation{}, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return action.Compute("lua:"+name, func(ctx input.Context) (action.Action, error) {
		s.mu.Lock()
		arg := contextTable(s.L, ctx)
		s.mu.Unlock()

		ret, err := s.Call(name, arg)
		if err != nil {
			return nil, err
		}
		return toAction(ret)
	}), nil
}

// contextTable converts ctx into the table passed to script functions.
func contextTable(L *lua.LState, ctx input.Context) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("class", lua.LString(ctx.WindowClass))
	t.RawSetString("title", lua.LString(ctx.WindowTitle))
	t.RawSetString("device", lua.LString(ctx.DeviceName))
	t.RawSetString("kbtype", lua.LString(ctx.KeyboardType))
	t.RawSetString("numlock", lua.LBool(ctx.NumLockOn))
	t.RawSetString("capslock", lua.LBool(ctx.CapsLockOn))
	t.RawSetString("focus", lua.LBool(ctx.ScreenHasFocus))
	return t
}

// toAction converts a function result into an action.
func toAction(lv lua.LValue) (action.Action, error) {
	return toActionVisited(lv, make(map[*lua.LTable]bool))
}

func toActionVisited(lv lua.LValue, visited map[*lua.LTable]bool) (action.Action, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LString:
		return combos(string(v))
	case *lua.LTable:
		if visited[v] {
			return nil, fmt.Errorf("%w: table refers to itself", ErrBadResult)
		}
		visited[v] = true
		return tableAction(v, visited)
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadResult, lv.Type())
	}
}

func tableAction(t *lua.LTable, visited map[*lua.LTable]bool) (action.Action, error) {
	if text, ok := t.RawGetString("text").(lua.LString); ok {
		return action.Text{Text: string(text)}, nil
	}
	if code, ok := t.RawGetString("unicode").(lua.LNumber); ok {
		return action.Unicode{Rune: rune(code)}, nil
	}
	if spec, ok := t.RawGetString("combo").(lua.LString); ok {
		return combos(string(spec))
	}

	n := t.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: table has no text, unicode, combo or list entries", ErrBadResult)
	}
	seq := make(action.Sequence, 0, n)
	for i := 1; i <= n; i++ {
		a, err := toActionVisited(t.RawGetInt(i), visited)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		seq = append(seq, a)
	}
	return seq, nil
}

// combos parses one combo, or several separated by spaces.
func combos(spec string) (action.Action, error) {
	if !strings.ContainsAny(strings.TrimSpace(spec), " \t") {
		c, err := action.NewCombo(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResult, err)
		}
		return c, nil
	}
	seq, err := key.ParseSequence(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResult, err)
	}
	out := make(action.Sequence, seq.Len())
	for i, ev := range seq.Events {
		out[i] = action.Combo{Event: ev}
	}
	return out, nil
}
