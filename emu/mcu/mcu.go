/*
   MCU: the single owner of one AVR simulation instance's mutable state.

   This is the logical owner described by the design notes: one struct,
   passed by exclusive mutable reference through the simulation loop, with
   every subsystem (decoder, timers, USART, GDB server) operating on
   borrowed mutable views of it. No package-level globals are used here,
   unlike the teacher's single static MSIM_AVR-style state: the teacher's
   own design notes call that out as a pattern to avoid.

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

package mcu

import (
	"fmt"

	mem "github.com/mcusim/mcusim/emu/memory"
)

// State is one of the MCU run states named in spec §3.
type State int

const (
	Running State = iota
	Stopped
	Sleeping
	Step
	SimStop
	TestFail
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Sleeping:
		return "sleeping"
	case Step:
		return "step"
	case SimStop:
		return "simstop"
	case TestFail:
		return "testfail"
	default:
		return "unknown"
	}
}

// FuseKind selects which fuse byte an operation targets.
type FuseKind int

const (
	FuseLow FuseKind = iota
	FuseHigh
	FuseExt
)

// Bootloader section, byte addressed.
type BLS struct {
	Start int
	End   int
	Size  int
}

// Interrupt holds the IRQ pending table and vector dispatch parameters.
type Interrupt struct {
	Irq       []bool // pending latch per vector, arbitrated lowest-index-wins
	ResetPC   int    // word address
	IVT       int    // word address of vector 0
	Stride    int    // word addresses between successive vectors
	TrapAtISR bool
}

// MCU is the single owner of one simulated AVR chip's state.
type MCU struct {
	Name      string
	Signature [3]byte
	PCBits    int
	FreqHz    uint64

	Mem *mem.Memory
	L   Layout

	PC int // word address

	Fuse     [3]byte
	Lockbits byte
	BLS      BLS

	Intr Interrupt

	Timers []*TimerRuntime
	Usarts []*UsartRuntime
	WDT    Watchdog

	State State

	ICLeft int  // cycles remaining in current multi-cycle instruction
	MCI    bool // mid multi-cycle instruction
	ExecMain bool // force one main instruction before next IRQ (post-RETI)

	Tick uint64 // half-cycle counter, VCD timebase

	StartAddr int // not set by the RSP handlers: 'c addr' writes PC directly

	BootRstHigh bool // BOOTRST fuse: reset vector at BLS.Start when true

	breakpoints map[int]bool // word addresses currently trapped with BREAK
}

// Watchdog is presently a stub: see spec §2 component table and §1
// non-goals (power-down/brown-out not modelled). It still exposes a WDR
// counter reset so the WDR opcode has an observable effect.
type Watchdog struct {
	Presc   uint32
	Counter uint32
}

// New builds an MCU for the named model ("m8a", "m328", "m328p", "m2560").
func New(model string) (*MCU, error) {
	md, ok := Lookup(model)
	if !ok {
		return nil, fmt.Errorf("mcu: unknown model %q", model)
	}
	layout := md.Layout()
	m := &MCU{
		Name:      md.Name,
		Signature: md.Signature,
		PCBits:    md.PCBits,
		FreqHz:    md.MaxFreqHz,
		Mem:       mem.New(md.FlashWords, md.IoCount, md.SRAMSize, md.EepromSize),
		L:         layout,
		BLS:       BLS{Start: md.FlashWords, End: md.FlashWords, Size: 0},
		breakpoints: make(map[int]bool),
	}
	m.Intr = Interrupt{
		Irq:     make([]bool, vectorCount(layout)+1),
		ResetPC: md.ResetPC,
		IVT:     0,
		Stride:  md.IvtStride,
	}
	m.installIoRegs()
	for i := range layout.Timers {
		m.Timers = append(m.Timers, newTimerRuntime(&m.L.Timers[i]))
	}
	for i := range layout.Usarts {
		m.Usarts = append(m.Usarts, newUsartRuntime(&m.L.Usarts[i]))
	}
	m.Reset()
	return m, nil
}

func vectorCount(l Layout) int {
	max := 0
	bump := func(v int) {
		if v > max {
			max = v
		}
	}
	for _, t := range l.Timers {
		bump(t.VectorOvf)
		bump(t.VectorCapt)
		bump(t.VectorCompA)
		bump(t.VectorCompB)
	}
	for _, u := range l.Usarts {
		bump(u.VectorRxc)
		bump(u.VectorTxc)
		bump(u.VectorUdre)
	}
	return max
}

// Reset restores PC, run state and per-cycle bookkeeping to power-on
// defaults without clearing SRAM or flash.
func (m *MCU) Reset() {
	m.PC = m.resetVector()
	m.State = Stopped
	m.ICLeft = 0
	m.MCI = false
	m.ExecMain = false
	m.Mem.ReadFromMPM = false
	for i := range m.Intr.Irq {
		m.Intr.Irq[i] = false
	}
}

func (m *MCU) resetVector() int {
	if m.BootRstHigh {
		return m.BLS.Start / 2
	}
	return m.Intr.ResetPC
}

// SetFuse applies a fuse byte and updates the derived bootloader geometry.
// Grounded on spec.md §6 ("mcu_efuse/hfuse/lfuse ... affects bootloader
// size, reset vector, clock source, frequency").
func (m *MCU) SetFuse(kind FuseKind, val byte) {
	m.Fuse[kind] = val
	if kind == FuseHigh {
		// BOOTSZ1:0 in bits 2:1 (active low), BOOTRST in bit 0 (active low).
		bootsz := (^val >> 1) & 0x3
		md, _ := Lookup(m.Name)
		idx := int(bootsz)
		if idx >= len(md.BootloaderSizes) {
			idx = 0
		}
		size := 0
		if val&0x6 != 0x6 { // BOOTSZ bits meaningful only if not all-ones pattern; simplified
			size = md.BootloaderSizes[idx] * 2 // words to bytes
		}
		m.BLS.Size = size
		m.BLS.End = md.FlashWords*2 - 1
		m.BLS.Start = m.BLS.End + 1 - size
		m.BootRstHigh = val&0x1 == 0
		m.PC = m.resetVector()
	}
}

// SetLock applies the lock-bits byte.
func (m *MCU) SetLock(val byte) {
	m.Lockbits = val
}
