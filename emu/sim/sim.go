/*
   Simulation loop: the fixed per-half-cycle ordering that drives the MCU,
   its peripherals, the GDB RSP server and the VCD trace writer.

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

// Package sim drives one MCU through its simulation loop: peripheral
// ticks, optional Lua peripheral scripts, VCD sampling, instruction
// decode, pin mirroring and interrupt dispatch, in the fixed order the
// hardware model requires.
package sim

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcusim/mcusim/emu/cpu"
	"github.com/mcusim/mcusim/emu/gdbrsp"
	"github.com/mcusim/mcusim/emu/mcu"
	"github.com/mcusim/mcusim/emu/timer"
	"github.com/mcusim/mcusim/emu/usart"
	"github.com/mcusim/mcusim/emu/vcd"
	"github.com/mcusim/mcusim/emu/watchdog"
)

// LuaTicker ticks every loaded Lua peripheral model once. Left nil when no
// lua_model config key is set.
type LuaTicker func(m *mcu.MCU)

// Sim owns one MCU's run loop, mirroring the teacher's core.core lifecycle
// (wg + done channel + Start/Stop) but single-instance rather than a
// package-level singleton.
type Sim struct {
	M    *mcu.MCU
	GDB  *gdbrsp.Server // nil when firmware_test skips the RSP server
	Sess *gdbrsp.Session
	VCD  *vcd.Writer // nil when no vcd_file is configured

	FirmwareTest bool
	LuaTick      LuaTicker

	wg   sync.WaitGroup
	done chan struct{}
}

// New builds a Sim for m. If gdbServer is non-nil, a Session is created to
// dispatch its packets; SetWatchdogReset is wired here so the decoder's WDR
// opcode reaches the real watchdog without an import cycle.
func New(m *mcu.MCU, gdbServer *gdbrsp.Server, vcdWriter *vcd.Writer, firmwareTest bool) *Sim {
	cpu.SetWatchdogReset(watchdog.Reset)
	s := &Sim{
		M:            m,
		GDB:          gdbServer,
		VCD:          vcdWriter,
		FirmwareTest: firmwareTest,
		done:         make(chan struct{}),
	}
	if gdbServer != nil {
		s.Sess = gdbrsp.NewSession(m)
	}
	return s
}

// Start runs the loop in its own goroutine.
func (s *Sim) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()
}

// Stop signals the loop to end at the next instruction boundary and waits
// for it, matching the teacher's core.Stop's bounded wait.
func (s *Sim) Stop() {
	close(s.done)
	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		slog.Warn("sim: timed out waiting for loop to finish")
	}
}

// Run executes spec §4.9's per-half-cycle ordering until the MCU reaches
// SimStop/TestFail or Stop is called. Ordering is fixed: peripherals ->
// Lua -> VCD sample -> decode -> pin sync -> IRQ promote/handle ->
// bookkeeping. Reordering these steps changes observable behavior.
func (s *Sim) Run() {
	m := s.M
	flashEndByte := m.Mem.FlashEndWord()*2 + 1

	for {
		select {
		case <-s.done:
			return
		default:
		}

		icLeftZero := m.ICLeft == 0

		if m.State == mcu.SimStop && icLeftZero {
			return
		}
		if m.State == mcu.TestFail && icLeftZero {
			slog.Error("sim: halted on illegal state", "pc", m.PC)
			return
		}
		if m.State == mcu.Stopped && icLeftZero && !s.FirmwareTest {
			if s.GDB == nil {
				return
			}
			s.handleRSP()
			continue
		}

		active := m.State == mcu.Running || m.State == mcu.Step

		if active {
			timer.Tick(m)
			usart.Tick(m)
			watchdog.Tick(m)
			if s.LuaTick != nil {
				s.LuaTick(m)
			}
			if s.VCD != nil {
				if err := s.VCD.Sample(m, m.Tick); err != nil {
					slog.Warn("sim: vcd sample failed", "err", err)
				}
			}
		}

		if active && m.PC*2 > flashEndByte {
			slog.Error("sim: PC ran past flash", "pc", m.PC)
			m.State = mcu.TestFail
			continue
		}

		if active {
			cpu.Step(m)
		}

		m.SyncPins()

		icLeftZero = m.ICLeft == 0
		if m.GIE() && icLeftZero && active {
			if m.HandleIRQ() && m.Intr.TrapAtISR && m.State == mcu.Running {
				m.State = mcu.Step
			}
		}
		// exec_main's one-instruction-after-RETI interlock clears on every
		// instruction boundary, not only the ones where HandleIRQ actually
		// ran: a CLI between RETI and the window's end must not leave it
		// stuck set forever once interrupts are re-enabled.
		if icLeftZero {
			m.ExecMain = false
		}

		if active {
			m.Tick++
		}
		if m.ICLeft == 0 && m.State == mcu.Step {
			m.State = mcu.Stopped
		}
	}
}

// handleRSP services one waiting GDB packet, or polls for a just-connected
// client / break request when none is attached yet.
func (s *Sim) handleRSP() {
	if s.GDB == nil || s.Sess == nil {
		return
	}
	gdbrsp.HandleOne(s.GDB, s.Sess)
}

// CheckBreak polls the attached GDB client for an out-of-band 0x03 while
// the MCU is Running, per spec §4.8's bounded-time ^C requirement. Callers
// (e.g. a dedicated goroutine, or main's signal-driven poll) should call
// this frequently while Run is executing with state == Running.
func (s *Sim) CheckBreak() {
	if s.GDB == nil {
		return
	}
	if s.GDB.PollBreak() {
		s.M.State = mcu.Stopped
	}
}
