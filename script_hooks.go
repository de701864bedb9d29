// script_hooks.go - Lua hooks run on frame and part boundaries

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

/*
A hook script may define

	function on_frame(frame) ... end
	function on_part(part) ... end

and call var_get(i), var_set(i, v), part(), frame(), request_part(id) and
log(msg). Hooks run on the interpreter goroutine between frames.
*/

package main

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// ScriptHooks owns the Lua state of one hook script.
type ScriptHooks struct {
	L   *lua.LState
	e   *Engine
	log *slog.Logger
}

// NewScriptHooks loads the hook script in path. src, when not empty, is run
// instead of reading a file.
func NewScriptHooks(e *Engine, path, src string) (*ScriptHooks, error) {
	h := &ScriptHooks{
		L:   lua.NewState(),
		e:   e,
		log: e.log.With("component", "hooks"),
	}
	h.register()
	var err error
	if src != "" {
		err = h.L.DoString(src)
	} else {
		err = h.L.DoFile(path)
	}
	if err != nil {
		h.L.Close()
		return nil, fmt.Errorf("hook script %s: %w", path, err)
	}
	return h, nil
}

func (h *ScriptHooks) register() {
	fns := map[string]lua.LGFunction{
		"var_get": func(L *lua.LState) int {
			i := L.CheckInt(1)
			if i < 0 || i >= numVars {
				L.ArgError(1, "variable index out of range")
				return 0
			}
			L.Push(lua.LNumber(h.e.vm.vars[i]))
			return 1
		},
		"var_set": func(L *lua.LState) int {
			i := L.CheckInt(1)
			v := L.CheckInt(2)
			if i < 0 || i >= numVars {
				L.ArgError(1, "variable index out of range")
				return 0
			}
			h.e.vm.vars[i] = int16(v)
			return 0
		},
		"part": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.e.res.CurrentPart()))
			return 1
		},
		"frame": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.e.frames))
			return 1
		},
		"request_part": func(L *lua.LState) int {
			id := L.CheckInt(1)
			if id < partFirst || id > partLast {
				L.ArgError(1, "not a game part")
				return 0
			}
			h.e.res.requestedPart = uint16(id)
			return 0
		},
		"log": func(L *lua.LState) int {
			h.log.Info(L.CheckString(1))
			return 0
		},
	}
	for name, fn := range fns {
		h.L.SetGlobal(name, h.L.NewFunction(fn))
	}
}

func (h *ScriptHooks) call(name string, arg lua.LValue) error {
	fn := h.L.GetGlobal(name)
	if fn == lua.LNil {
		return nil
	}
	return h.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, arg)
}

func (h *ScriptHooks) OnFrame(frame uint64) error {
	return h.call("on_frame", lua.LNumber(frame))
}

func (h *ScriptHooks) OnPart(part uint16) error {
	return h.call("on_part", lua.LNumber(part))
}

func (h *ScriptHooks) Close() {
	h.L.Close()
}
