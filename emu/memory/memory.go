/*
   AVR address space: flash program memory, byte-addressed data memory
   (general registers, I/O registers, SRAM), shadow flash for software
   breakpoints, and a stub EEPROM.

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

package memory

import "log/slog"

// IoReg describes one memory-mapped I/O register: its data-memory offset,
// reset value and write access mask. Unmapped I/O slots carry Offset -1.
type IoReg struct {
	Name  string
	Off   int
	Reset uint8
	Mask  uint8

	// ClearOnWrite1 marks registers with AVR's "write a 1 to clear" flag
	// semantics (TIFRn, UCSRnA's TXC bit): a written 1 bit clears the
	// corresponding stored bit instead of being stored.
	ClearOnWrite1 bool
}

// Memory owns one MCU instance's flash, data space and shadow flash. It is
// never a package-level global: every MCU owns an exclusive *Memory so that
// concurrently-instantiated simulators do not alias state.
type Memory struct {
	Flash       []uint16 // Program memory, word-addressed.
	ShadowFlash []uint16 // Original opcodes displaced by software breakpoints.
	Data        []byte   // GPRs [0:32), I/O regs [32:32+ioCount), then SRAM.
	Eeprom      []byte   // Stub; see spec O4.

	RegCount int // Always 32.
	IoCount  int
	SfrOff   int // = RegCount; data[SfrOff+ioAddr] is IO register ioAddr.

	ioRegs     []IoReg // indexed by io address; Off < 0 means reserved/unmapped.
	WritIO     [4]int  // reg_io_watched: data-memory addresses of I/O registers written this cycle.
	writIOUsed int

	ReadFromMPM bool // BREAK forces next fetch to read shadow image.
}

// New allocates a Memory for a flash of flashWords words, ioCount I/O
// registers, sramSize bytes of user SRAM and an EEPROM of eepromSize bytes.
func New(flashWords, ioCount, sramSize, eepromSize int) *Memory {
	const regCount = 32
	m := &Memory{
		Flash:       make([]uint16, flashWords),
		ShadowFlash: make([]uint16, flashWords),
		Data:        make([]byte, regCount+ioCount+sramSize),
		Eeprom:      make([]byte, eepromSize),
		RegCount:    regCount,
		IoCount:     ioCount,
		SfrOff:      regCount,
		ioRegs:      make([]IoReg, ioCount),
	}
	for i := range m.ioRegs {
		m.ioRegs[i] = IoReg{Off: -1}
	}
	return m
}

// DefineIoReg installs an access-masked I/O register descriptor at io
// address addr (0-based, not yet offset by SfrOff).
func (m *Memory) DefineIoReg(addr int, reg IoReg) {
	reg.Off = addr
	m.ioRegs[addr] = reg
	m.Data[m.SfrOff+addr] = reg.Reset
}

// IoDescriptor returns the descriptor for io address addr, or false if the
// slot is reserved/unmapped.
func (m *Memory) IoDescriptor(addr int) (IoReg, bool) {
	if addr < 0 || addr >= len(m.ioRegs) {
		return IoReg{}, false
	}
	r := m.ioRegs[addr]
	return r, r.Off >= 0
}

// ClearWatched clears reg_io_watched; called at the start of every decode.
func (m *Memory) ClearWatched() {
	m.writIOUsed = 0
}

func (m *Memory) noteWrite(addr int) {
	if m.writIOUsed < len(m.WritIO) {
		m.WritIO[m.writIOUsed] = addr
		m.writIOUsed++
	}
}

// Watched returns the data-memory addresses written to during the current
// cycle (I-class writes only).
func (m *Memory) Watched() []int {
	return m.WritIO[:m.writIOUsed]
}

// DmRead reads one byte of data memory (GPR, I/O, or SRAM) without masking;
// reads are always unfiltered per spec invariant I2.
func (m *Memory) DmRead(addr int) uint8 {
	if addr < 0 || addr >= len(m.Data) {
		return 0
	}
	return m.Data[addr]
}

// DmWrite writes one byte of data memory. Writes that land in the I/O
// region are filtered through the register's access mask (I2); general
// registers and SRAM are stored verbatim.
func (m *Memory) DmWrite(addr int, val uint8) {
	if addr < 0 || addr >= len(m.Data) {
		return
	}
	ioAddr := addr - m.SfrOff
	if ioAddr >= 0 && ioAddr < m.IoCount {
		reg, ok := m.IoDescriptor(ioAddr)
		if !ok {
			slog.Debug("write to reserved I/O register", "addr", ioAddr, "value", val)
			m.Data[addr] = val
			m.noteWrite(addr)
			return
		}
		cur := m.Data[addr]
		if reg.ClearOnWrite1 {
			m.Data[addr] = cur &^ (val & reg.Mask)
		} else {
			m.Data[addr] = (cur &^ reg.Mask) | (val & reg.Mask)
		}
		m.noteWrite(addr)
		return
	}
	m.Data[addr] = val
}

// PmReadWord reads one 16-bit word from program memory (or its shadow, if
// ReadFromMPM is armed by a BREAK trap).
func (m *Memory) PmReadWord(wordAddr int) uint16 {
	if wordAddr < 0 || wordAddr >= len(m.Flash) {
		return 0
	}
	if m.ReadFromMPM {
		return m.ShadowFlash[wordAddr]
	}
	return m.Flash[wordAddr]
}

// PmWriteWord writes one 16-bit word to program memory (used by SPM).
func (m *Memory) PmWriteWord(wordAddr int, val uint16) {
	if wordAddr < 0 || wordAddr >= len(m.Flash) {
		return
	}
	m.Flash[wordAddr] = val
}

// PmReadWordLive reads program memory ignoring ReadFromMPM, used to detect
// whether a BREAK opcode already sits at an address before re-trapping it.
func (m *Memory) PmReadWordLive(wordAddr int) uint16 {
	if wordAddr < 0 || wordAddr >= len(m.Flash) {
		return 0
	}
	return m.Flash[wordAddr]
}

// MpmReadWord / MpmWriteWord access the shadow-flash image directly,
// independent of ReadFromMPM, for breakpoint save/restore (I6).
func (m *Memory) MpmReadWord(wordAddr int) uint16 {
	if wordAddr < 0 || wordAddr >= len(m.ShadowFlash) {
		return 0
	}
	return m.ShadowFlash[wordAddr]
}

func (m *Memory) MpmWriteWord(wordAddr int, val uint16) {
	if wordAddr < 0 || wordAddr >= len(m.ShadowFlash) {
		return
	}
	m.ShadowFlash[wordAddr] = val
}

// FlashEndWord is the highest legal word address in program memory.
func (m *Memory) FlashEndWord() int {
	return len(m.Flash) - 1
}

// PokeBit sets or clears one bit of a data-memory byte directly, bypassing
// the access-mask filtering DmWrite applies to CPU-driven writes. Hardware
// (timer/USART engines) updates its own status flags this way; CPU-driven
// stores (OUT, STS, ST/STD, SBI/CBI, stack pointer updates) go through
// DmWrite.
func (m *Memory) PokeBit(addr, bit int, val bool) {
	if addr < 0 || addr >= len(m.Data) {
		return
	}
	if val {
		m.Data[addr] |= 1 << uint(bit)
	} else {
		m.Data[addr] &^= 1 << uint(bit)
	}
}

// PokeByte stores val directly, bypassing access-mask filtering. Used by
// hardware engines (timer/USART) updating their own counters and shift
// registers, as opposed to CPU-driven DmWrite.
func (m *Memory) PokeByte(addr int, val byte) {
	if addr < 0 || addr >= len(m.Data) {
		return
	}
	m.Data[addr] = val
}

// PeekByte reads a data-memory byte without bounds side effects.
func (m *Memory) PeekByte(addr int) byte {
	if addr < 0 || addr >= len(m.Data) {
		return 0
	}
	return m.Data[addr]
}

// PeekBit reads one bit of a data-memory byte.
func (m *Memory) PeekBit(addr, bit int) bool {
	if addr < 0 || addr >= len(m.Data) {
		return false
	}
	return m.Data[addr]&(1<<uint(bit)) != 0
}
