/*
   CPU: main instruction fetch and execute.

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

// Package cpu decodes and executes AVR instructions directly against an
// mcu.MCU's program and data memory.
package cpu

import (
	"log/slog"

	"github.com/mcusim/mcusim/emu/mcu"
)

// instrFunc executes one decoded instruction and returns the extra cycles
// it costs beyond the 1-cycle baseline every Step already charges (so a
// 2-cycle instruction like SBI/CBI returns 1, a 4-cycle CALL
// returns 3, and so on). Most instructions return 0.
type instrFunc func(m *mcu.MCU, op uint16) int

// Step fetches, decodes and executes one instruction on m, honoring any
// multi-cycle cost already in flight from a previous call (spec §4.4's
// Busy/Done contract): if ICLeft is nonzero, Step only decrements it and
// returns without fetching a new opcode.
func Step(m *mcu.MCU) {
	if m.MCI {
		m.ICLeft--
		if m.ICLeft <= 0 {
			m.MCI = false
		}
		return
	}

	m.Mem.ClearWatched()
	pc := m.PC
	op := m.Mem.PmReadWord(pc)
	m.Mem.ReadFromMPM = false

	if op == mcu.BreakOpcode {
		m.State = mcu.Stopped
		m.Mem.ReadFromMPM = true
		return
	}

	fn := table[op]
	if fn == nil {
		slog.Error("unknown opcode", "pc", pc, "opcode", op)
		m.State = mcu.TestFail
		m.PC = pc + 1
		return
	}

	m.PC = pc + 1
	extra := fn(m, op)
	if extra > 0 {
		m.MCI = true
		m.ICLeft = extra
	}
}
