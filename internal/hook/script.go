package hook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/topicview/internal/logging"
)

// DefaultScriptTimeout bounds one script call.
const DefaultScriptTimeout = 2 * time.Second

// ErrScriptClosed is returned when firing a closed script.
var ErrScriptClosed = errors.New("script closed")

// Script is one sandboxed Lua state. Scripts register handlers with
//
//	hooks.on("action:posts.edited", function(data) ... end)
//
// and may log with hooks.log(msg). Only the base, table, string and math
// libraries are available; file loading and module loading are removed.
type Script struct {
	name    string
	timeout time.Duration
	logger  *logging.Logger

	mu       sync.Mutex
	L        *lua.LState
	handlers map[string][]*lua.LFunction
	closed   bool
}

// ScriptOption configures a Script.
type ScriptOption func(*Script)

// WithScriptTimeout bounds each call. Zero disables the bound.
func WithScriptTimeout(d time.Duration) ScriptOption {
	return func(s *Script) {
		s.timeout = d
	}
}

// WithScriptLogger sets the logger used by hooks.log.
func WithScriptLogger(l *logging.Logger) ScriptOption {
	return func(s *Script) {
		if l != nil {
			s.logger = l
		}
	}
}

// LoadScript runs code in a fresh sandbox.
func LoadScript(name, code string, opts ...ScriptOption) (*Script, error) {
	s := &Script{
		name:     name,
		timeout:  DefaultScriptTimeout,
		logger:   logging.Nop(),
		handlers: make(map[string][]*lua.LFunction),
	}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	s.L = L
	if err := s.openLibraries(); err != nil {
		L.Close()
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	s.installAPI()

	ctx, cancel := s.callContext(context.Background())
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	if err := L.DoString(code); err != nil {
		L.Close()
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	return s, nil
}

// LoadScriptFile loads a script from disk. The file name is the script name.
func LoadScriptFile(path string, opts ...ScriptOption) (*Script, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return LoadScript(filepath.Base(path), string(code), opts...)
}

// LoadScriptFiles loads every path, closing what was loaded on failure.
func LoadScriptFiles(paths []string, opts ...ScriptOption) ([]*Script, error) {
	scripts := make([]*Script, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScriptFile(p, opts...)
		if err != nil {
			for _, loaded := range scripts {
				loaded.Close()
			}
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

func (s *Script) openLibraries() error {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := s.L.CallByParam(lua.P{
			Fn:      s.L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return fmt.Errorf("open %s: %w", lib.name, err)
		}
	}

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	return nil
}

func (s *Script) installAPI() {
	mod := s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"on": func(L *lua.LState) int {
			name := L.CheckString(1)
			fn := L.CheckFunction(2)
			s.handlers[name] = append(s.handlers[name], fn)
			return 0
		},
		"log": func(L *lua.LState) int {
			s.logger.WithField("script", s.name).Info("%s", L.CheckString(1))
			return 0
		},
	})
	s.L.SetGlobal("hooks", mod)
}

func (s *Script) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.timeout)
}

// Name returns the script name.
func (s *Script) Name() string {
	return s.name
}

// Handles reports whether the script registered a handler for name.
func (s *Script) Handles(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers[name]) > 0
}

// Names returns the hook names the script handles, sorted.
func (s *Script) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.handlers))
	for n := range s.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fire calls the script's handlers for name with data converted to Lua.
// The first failing handler stops the call.
func (s *Script) Fire(ctx context.Context, name string, data any) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrScriptClosed
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	s.L.SetContext(callCtx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	arg := toLua(s.L, data)
	for _, fn := range s.handlers[name] {
		if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, arg); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}

// toLua converts decoded JSON values into Lua values.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case float64:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case []any:
		t := L.CreateTable(len(val), 0)
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		for k, item := range val {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(val))
	}
}
