// Package luahost runs Lua scripts against the same native function tables
// the game engine receives, so the input bridge can be exercised outside the
// game.
package luahost

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"gmpatch/internal/engine"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("lua host closed")

// Host is a Lua interpreter standing in for the engine's script machine.
//
// gopher-lua states are not goroutine-safe; mu serialises every use of L.
type Host struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool
	logger golog.Logger
}

// New creates a host with no libraries opened. OpenLibs plays the part of
// the engine's own library setup.
func New(logger golog.Logger) *Host {
	return &Host{
		L:      lua.NewState(lua.Options{SkipOpenLibs: true}),
		logger: logger,
	}
}

// OpenLibs opens the safe standard libraries. The machine handle is unused;
// the signature matches the hooked setup function.
func (h *Host) OpenLibs(uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	lua.OpenBase(h.L)
	lua.OpenTable(h.L)
	lua.OpenString(h.L)
	lua.OpenMath(h.L)
	h.logger.Debug("LuaHost: opened standard libraries")
}

// RegisterLibrary implements engine.Engine. An empty table name registers
// globals. With newTable false the functions are added to an existing table
// when there is one.
func (h *Host) RegisterLibrary(_ uintptr, fns []engine.FunctionEntry, table string, newTable bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	if table == "" {
		for _, fn := range fns {
			h.L.SetGlobal(fn.Name, h.L.NewFunction(wrap(fn)))
		}
		return nil
	}

	tbl, ok := h.L.GetGlobal(table).(*lua.LTable)
	if !ok || newTable {
		tbl = h.L.NewTable()
		h.L.SetGlobal(table, tbl)
	}
	for _, fn := range fns {
		h.L.SetField(tbl, fn.Name, h.L.NewFunction(wrap(fn)))
	}
	return nil
}

// wrap adapts a native callback. A status other than engine.ResultOK is
// raised as a Lua error.
func wrap(fn engine.FunctionEntry) lua.LGFunction {
	return func(L *lua.LState) int {
		if status := fn.Func(Args{L: L}); status != engine.ResultOK {
			L.RaiseError("%s returned status %d", fn.Name, status)
		}
		return 0
	}
}

// DoString runs code. ctx bounds the run.
func (h *Host) DoString(ctx context.Context, code string) error {
	return h.do(ctx, func() error { return h.L.DoString(code) })
}

// DoFile runs the script at path. ctx bounds the run.
func (h *Host) DoFile(ctx context.Context, path string) error {
	return h.do(ctx, func() error { return h.L.DoFile(path) })
}

func (h *Host) do(ctx context.Context, fn func() error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	h.L.SetContext(ctx)
	defer h.L.RemoveContext()
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the interpreter.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.L.Close()
}
