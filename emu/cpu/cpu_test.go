/*
   AVR CPU decoder/executor test cases.

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

package cpu

import (
	"testing"

	"github.com/mcusim/mcusim/emu/mcu"
)

func newTestMCU(t *testing.T) *mcu.MCU {
	t.Helper()
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	m.State = mcu.Running
	return m
}

func load(m *mcu.MCU, addr int, words ...uint16) {
	for i, w := range words {
		m.Mem.PmWriteWord(addr+i, w)
	}
}

// drain runs the busy cycles a multi-cycle instruction leaves behind, so
// the next Step fetches a new opcode.
func drain(m *mcu.MCU) {
	for m.MCI {
		Step(m)
	}
}

func TestAddSetsCarryAndZero(t *testing.T) {
	m := newTestMCU(t)
	m.Mem.DmWrite(1, 0xFF)
	m.Mem.DmWrite(2, 0x01)
	load(m, 0, 0x0C21) // add r2, r1  (d=2,r=1)
	Step(m)
	if got := m.Mem.DmRead(2); got != 0 {
		t.Errorf("r2 = %#x, want 0", got)
	}
	if !m.C() {
		t.Errorf("carry not set")
	}
	if !m.Z() {
		t.Errorf("zero not set")
	}
}

func TestSubiBorrow(t *testing.T) {
	m := newTestMCU(t)
	m.Mem.DmWrite(16, 0x00)
	load(m, 0, 0x5001) // subi r16, 0x01
	Step(m)
	if got := m.Mem.DmRead(16); got != 0xFF {
		t.Errorf("r16 = %#x, want 0xff", got)
	}
	if !m.C() {
		t.Errorf("borrow (carry) not set")
	}
}

func TestLdiAndOut(t *testing.T) {
	m := newTestMCU(t)
	load(m, 0,
		0xE50F, // ldi r16, 0x5F
		0xBB0F, // out 0x1f, r16 (an arbitrary low IO address)
	)
	Step(m)
	if got := m.Mem.DmRead(16); got != 0x5F {
		t.Errorf("r16 = %#x, want 0x5f", got)
	}
	Step(m)
	if got := m.Mem.DmRead(m.Mem.SfrOff + 0x1F); got != 0x5F {
		t.Errorf("io[0x1f] = %#x, want 0x5f", got)
	}
}

func TestBrneTakenAndNotTaken(t *testing.T) {
	m := newTestMCU(t)
	// brne +5: BRBC testing SREG bit 1 (Z), branching if Z clear.
	brne := uint16(0xF400) | (5&0x7F)<<3 | 1
	load(m, 0, brne)

	m.SetZ(false)
	Step(m)
	if m.PC != 6 {
		t.Errorf("PC = %d, want 6 after taken branch from PC 0", m.PC)
	}
	drain(m)

	m.PC = 0
	m.SetZ(true)
	Step(m)
	if m.PC != 1 {
		t.Errorf("PC = %d, want 1 after not-taken branch", m.PC)
	}
}

func TestCpseSkipsLongOpcode(t *testing.T) {
	m := newTestMCU(t)
	m.Mem.DmWrite(1, 5)
	m.Mem.DmWrite(2, 5)
	load(m, 0,
		0x1021, // cpse r2, r1
		0x9200, // sts (32-bit, placeholder second word doesn't matter for skip)
		0x0000, // extra word of the sts it skips
		0xE00F, // ldi r16, 0x0f  (should execute)
	)
	Step(m)
	if m.PC != 3 {
		t.Errorf("PC = %d, want 3 after skipping a 2-word instruction", m.PC)
	}
	drain(m)
	Step(m)
	if got := m.Mem.DmRead(16); got != 0x0F {
		t.Errorf("r16 = %#x, want 0x0f", got)
	}
}

func TestPushPopCallRet(t *testing.T) {
	m := newTestMCU(t)
	sp := 0x100
	m.Mem.DmWrite(m.Mem.SfrOff+m.L.Spl, byte(sp))
	m.Mem.DmWrite(m.Mem.SfrOff+m.L.Sph, byte(sp>>8))
	m.Mem.DmWrite(3, 0x42)

	load(m, 0,
		0x940E, 0x0004, // call 4
	)
	load(m, 4,
		0x920F|(3<<4), // push r3
		0x900F|(5<<4), // pop r5
		0x9508,         // ret
	)
	Step(m) // call
	if m.PC != 4 {
		t.Errorf("PC = %d, want 4 after call", m.PC)
	}
	drain(m)
	Step(m) // push r3
	drain(m)
	Step(m) // pop r5
	drain(m)
	if got := m.Mem.DmRead(5); got != 0x42 {
		t.Errorf("r5 = %#x, want 0x42", got)
	}
	Step(m) // ret
	if m.PC != 2 {
		t.Errorf("PC = %d, want 2 after ret", m.PC)
	}
}

func TestLdsSts(t *testing.T) {
	m := newTestMCU(t)
	m.Mem.DmWrite(16, 0x77)
	load(m, 0,
		0x9300, 0x0200, // sts 0x0200, r16
		0x9100, 0x0200, // lds r16, 0x0200
	)
	Step(m)
	if got := m.Mem.DmRead(0x0200); got != 0x77 {
		t.Errorf("data[0x200] = %#x, want 0x77", got)
	}
	drain(m)
	Step(m)
	if got := m.Mem.DmRead(16); got != 0x77 {
		t.Errorf("r16 = %#x, want 0x77", got)
	}
}

func TestJmp(t *testing.T) {
	m := newTestMCU(t)
	load(m, 0, 0x940C, 0x0010) // jmp 0x10
	Step(m)
	if m.PC != 0x10 {
		t.Errorf("PC = %#x, want 0x10", m.PC)
	}
}

func TestMulsSignedMultiply(t *testing.T) {
	m := newTestMCU(t)
	m.Mem.DmWrite(16, 0xFF) // -1
	m.Mem.DmWrite(17, 0x02) // 2
	load(m, 0, 0x0201) // muls r16, r17
	Step(m)
	got := uint16(m.Mem.DmRead(0)) | uint16(m.Mem.DmRead(1))<<8
	if int16(got) != -2 {
		t.Errorf("r1:r0 = %d, want -2", int16(got))
	}
}

func TestSbiCbi(t *testing.T) {
	m := newTestMCU(t)
	addr := m.L.Ports[0].PortOff
	load(m, 0,
		uint16(0x9A00|(addr<<3)|2), // sbi addr, 2
	)
	Step(m)
	if !m.Mem.PeekBit(m.Mem.SfrOff+addr, 2) {
		t.Errorf("bit 2 not set after sbi")
	}
	drain(m)

	load(m, 1, uint16(0x9800|(addr<<3)|2)) // cbi addr, 2
	Step(m)
	if m.Mem.PeekBit(m.Mem.SfrOff+addr, 2) {
		t.Errorf("bit 2 still set after cbi")
	}
}

func TestBreakpointStopsExecution(t *testing.T) {
	m := newTestMCU(t)
	load(m, 0, 0xE00F) // ldi r16, 0xf
	m.InsertBreakpoint(0)
	Step(m)
	if m.State != mcu.Stopped {
		t.Errorf("state = %v, want Stopped", m.State)
	}
	if m.PC != 0 {
		t.Errorf("pc = %#x, want 0 (BREAK must not advance pc)", m.PC)
	}
	if !m.Mem.ReadFromMPM {
		t.Errorf("ReadFromMPM not armed after BREAK trap")
	}

	m.RemoveBreakpoint(0)
	m.State = mcu.Running
	Step(m)
	if got := m.Mem.DmRead(16); got != 0x0F {
		t.Errorf("r16 = %#x, want 0x0f after breakpoint removed", got)
	}
	if m.PC != 1 {
		t.Errorf("pc = %#x, want 1 after resumed ldi executes", m.PC)
	}
	if m.Mem.ReadFromMPM {
		t.Errorf("ReadFromMPM still armed after the shadowed fetch")
	}
}

func TestUnknownOpcodeFailsTest(t *testing.T) {
	m := newTestMCU(t)
	load(m, 0, 0xFFFF) // not a defined encoding
	Step(m)
	if m.State != mcu.TestFail {
		t.Errorf("state = %v, want TestFail for undecodable opcode", m.State)
	}
}
