/*
   Lua peripheral scripting bridge: loads up to 256 lua_model scripts and
   ticks each one's global tick() function once per active simulation
   loop iteration (one clock cycle),
   giving it read/write access to data memory and pin state.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package luabridge loads lua_model peripheral scripts and ticks them
// against a running MCU, exposing peek/poke of data memory and the
// TestFail signal a model can raise when an assertion in the firmware
// under test fails.
package luabridge

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/mcusim/mcusim/emu/mcu"
)

// mcuRef is a mutable box so the closures registerAPI installs can see
// whichever MCU the most recent Tick call passed in, without re-registering
// functions on every tick.
type mcuRef struct {
	m *mcu.MCU
}

// Bridge owns one Lua state per loaded script, each with its own mcuRef so
// every script's peekByte/pokeByte/failTest calls reach the right MCU.
type Bridge struct {
	states []*lua.LState
	refs   []*mcuRef
}

// Load starts a Lua state for every path and runs the script once so its
// top-level setup and tick() definition are installed.
func Load(paths []string) (*Bridge, error) {
	if len(paths) > 256 {
		return nil, fmt.Errorf("too many lua_model entries: %d (max 256)", len(paths))
	}
	b := &Bridge{}
	for _, path := range paths {
		st := lua.NewState()
		ref := &mcuRef{}
		registerAPI(st, ref)
		if err := st.DoFile(path); err != nil {
			b.Close()
			return nil, fmt.Errorf("lua_model %s: %w", path, err)
		}
		b.states = append(b.states, st)
		b.refs = append(b.refs, ref)
	}
	return b, nil
}

// Tick calls every loaded script's global tick() function once, after
// rebinding its peekByte/pokeByte/failTest closures to m.
func (b *Bridge) Tick(m *mcu.MCU) {
	for i, st := range b.states {
		b.refs[i].m = m
		fn := st.GetGlobal("tick")
		if fn.Type() != lua.LTFunction {
			continue
		}
		if err := st.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			slog.Warn("lua_model tick failed", "err", err)
		}
	}
}

// Close releases every Lua state.
func (b *Bridge) Close() {
	for _, st := range b.states {
		st.Close()
	}
	b.states = nil
	b.refs = nil
}

// registerAPI binds peekByte/pokeByte/failTest into st against whatever MCU
// ref currently holds.
func registerAPI(st *lua.LState, ref *mcuRef) {
	st.SetGlobal("peekByte", st.NewFunction(func(l *lua.LState) int {
		if ref.m == nil {
			l.Push(lua.LNumber(0))
			return 1
		}
		addr := int(l.CheckNumber(1))
		l.Push(lua.LNumber(ref.m.Mem.PeekByte(addr)))
		return 1
	}))
	st.SetGlobal("pokeByte", st.NewFunction(func(l *lua.LState) int {
		if ref.m == nil {
			return 0
		}
		addr := int(l.CheckNumber(1))
		val := byte(l.CheckNumber(2))
		ref.m.Mem.PokeByte(addr, val)
		return 0
	}))
	st.SetGlobal("failTest", st.NewFunction(func(l *lua.LState) int {
		if ref.m != nil {
			ref.m.State = mcu.TestFail
		}
		return 0
	}))
}
