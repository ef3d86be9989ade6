// Package script runs Lua functions as binding computations.
//
// A rule file may name a Lua script; its global functions can then be bound
// to keys. Each call receives the event context as a table and returns the
// output to emit:
//
//	function describe_window(ctx)
//	  return { text = ctx.class .. " / " .. ctx.title }
//	end
//
// Accepted results are nil (emit nothing), a combo string ("C-c", or
// several combos separated by spaces), {text = "..."}, {unicode = 0xA3},
// {combo = "..."}, or an array of any of these.
package script

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

// DefaultCallTimeout bounds one function call.
const DefaultCallTimeout = 500 * time.Millisecond

// State wraps a sandboxed gopher-lua state. gopher-lua is not goroutine-safe;
// the mutex serializes every use.
type State struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	log     zerolog.Logger
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// WithLogger sets the logger that receives the script's log() output.
func WithLogger(log zerolog.Logger) StateOption {
	return func(s *State) {
		s.log = log
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{
		timeout: DefaultCallTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	installSandbox(L)
	L.SetGlobal("log", L.NewFunction(s.luaLog))
	s.L = L
	return s
}

// openSafeLibraries opens only libraries without file or process access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installSandbox removes base functions that load code from disk or strings.
func installSandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// luaLog implements log(msg) for scripts.
func (s *State) luaLog(L *lua.LState) int {
	s.log.Debug().Str("source", "lua").Msg(L.CheckString(1))
	return 0
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.do(func() error { return s.L.DoFile(path) })
}

// DoString executes a Lua chunk.
func (s *State) DoString(code string) error {
	return s.do(func() error { return s.L.DoString(code) })
}

func (s *State) do(fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// HasFunction reports whether name is a global function.
func (s *State) HasFunction(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.L.GetGlobal(name).Type() == lua.LTFunction
}

// Call calls a global function and returns its first result.
func (s *State) Call(name string, args ...lua.LValue) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil, ErrStateClosed
	}

	fn := s.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		callErr = s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	}()
	if callErr != nil {
		return lua.LNil, fmt.Errorf("calling %s: %w", name, callErr)
	}

	ret := s.L.Get(-1)
	s.L.Pop(1)
	return ret, nil
}

// Close releases the Lua state.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
