/*
   X/Y/Z pointer-register addressed load/store, LDI, the 32-bit absolute
   LDS/STS, LPM/ELPM, SPM, and the jump/call family. Grounded on the
   standard AVR instruction set manual's bit layouts so real avr-gcc
   firmware images decode correctly.
*/

package cpu

import "github.com/mcusim/mcusim/emu/mcu"

func ptrWord(m *mcu.MCU, base int) uint16 {
	return uint16(reg(m, base)) | uint16(reg(m, base+1))<<8
}

func setPtrWord(m *mcu.MCU, base int, v uint16) {
	setReg(m, base, uint8(v))
	setReg(m, base+1, uint8(v>>8))
}

const (
	regX = 26
	regY = 28
	regZ = 30
)

// qDisp decodes LDD/STD's 6-bit displacement, split across bits 13, 11:10
// and 2:0.
func qDisp(op uint16) uint16 {
	return uint16(op&0x7) | uint16(op>>7)&0x18 | uint16(op>>8)&0x20
}

func iLdi(m *mcu.MCU, op uint16) int {
	setReg(m, rd4(op), k8(op))
	return 0
}

// Data-space addressing is absolute (the whole 0..RAMEND range, GPRs
// included), so pointer values index m.Mem.Data directly.
func ldAt(m *mcu.MCU, d int, addr uint16) { setReg(m, d, m.Mem.DmRead(int(addr))) }
func stAt(m *mcu.MCU, addr uint16, v uint8) { m.Mem.DmWrite(int(addr), v) }

func iLdX(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	ldAt(m, d, ptrWord(m, regX))
	return 1
}

func iLdXInc(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	a := ptrWord(m, regX)
	ldAt(m, d, a)
	setPtrWord(m, regX, a+1)
	return 1
}

func iLdXDec(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	a := ptrWord(m, regX) - 1
	setPtrWord(m, regX, a)
	ldAt(m, d, a)
	return 1
}

func iLdYInc(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	a := ptrWord(m, regY)
	ldAt(m, d, a)
	setPtrWord(m, regY, a+1)
	return 1
}

func iLdYDec(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	a := ptrWord(m, regY) - 1
	setPtrWord(m, regY, a)
	ldAt(m, d, a)
	return 1
}

func iLddY(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	ldAt(m, d, ptrWord(m, regY)+qDisp(op))
	return 1
}

func iLdZInc(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	a := ptrWord(m, regZ)
	ldAt(m, d, a)
	setPtrWord(m, regZ, a+1)
	return 1
}

func iLdZDec(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	a := ptrWord(m, regZ) - 1
	setPtrWord(m, regZ, a)
	ldAt(m, d, a)
	return 1
}

func iLddZ(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	ldAt(m, d, ptrWord(m, regZ)+qDisp(op))
	return 1
}

func iStX(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	stAt(m, ptrWord(m, regX), reg(m, r))
	return 1
}

func iStXInc(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	a := ptrWord(m, regX)
	stAt(m, a, reg(m, r))
	setPtrWord(m, regX, a+1)
	return 1
}

func iStXDec(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	a := ptrWord(m, regX) - 1
	setPtrWord(m, regX, a)
	stAt(m, a, reg(m, r))
	return 1
}

func iStYInc(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	a := ptrWord(m, regY)
	stAt(m, a, reg(m, r))
	setPtrWord(m, regY, a+1)
	return 1
}

func iStYDec(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	a := ptrWord(m, regY) - 1
	setPtrWord(m, regY, a)
	stAt(m, a, reg(m, r))
	return 1
}

func iStdY(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	stAt(m, ptrWord(m, regY)+qDisp(op), reg(m, r))
	return 1
}

func iStZInc(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	a := ptrWord(m, regZ)
	stAt(m, a, reg(m, r))
	setPtrWord(m, regZ, a+1)
	return 1
}

func iStZDec(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	a := ptrWord(m, regZ) - 1
	setPtrWord(m, regZ, a)
	stAt(m, a, reg(m, r))
	return 1
}

func iStdZ(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	stAt(m, ptrWord(m, regZ)+qDisp(op), reg(m, r))
	return 1
}

// fetchExtra reads the instruction word immediately after the one Step
// already advanced past, for the 32-bit LDS/STS/JMP/CALL family.
func fetchExtra(m *mcu.MCU) uint16 {
	w := m.Mem.PmReadWord(m.PC)
	m.PC++
	return w
}

func iLds(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	addr := fetchExtra(m)
	ldAt(m, d, addr)
	return 1
}

func iSts(m *mcu.MCU, op uint16) int {
	r := rd5(op)
	addr := fetchExtra(m)
	stAt(m, addr, reg(m, r))
	return 1
}

func iLpm(m *mcu.MCU, op uint16) int {
	z := ptrWord(m, regZ)
	w := m.Mem.PmReadWord(int(z / 2))
	var b uint8
	if z&1 != 0 {
		b = uint8(w >> 8)
	} else {
		b = uint8(w)
	}
	setReg(m, 0, b)
	return 2
}

func iLpmRd(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	z := ptrWord(m, regZ)
	w := m.Mem.PmReadWord(int(z / 2))
	var b uint8
	if z&1 != 0 {
		b = uint8(w >> 8)
	} else {
		b = uint8(w)
	}
	setReg(m, d, b)
	return 2
}

func iLpmRdInc(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	z := ptrWord(m, regZ)
	w := m.Mem.PmReadWord(int(z / 2))
	var b uint8
	if z&1 != 0 {
		b = uint8(w >> 8)
	} else {
		b = uint8(w)
	}
	setReg(m, d, b)
	setPtrWord(m, regZ, z+1)
	return 2
}

func rampz(m *mcu.MCU) uint8 {
	if m.L.Rampz < 0 {
		return 0
	}
	return m.Mem.DmRead(m.Mem.SfrOff + m.L.Rampz)
}

func iElpmRd(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	z := ptrWord(m, regZ)
	full := uint32(rampz(m))<<16 | uint32(z)
	w := m.Mem.PmReadWord(int(full / 2))
	var b uint8
	if full&1 != 0 {
		b = uint8(w >> 8)
	} else {
		b = uint8(w)
	}
	setReg(m, d, b)
	return 2
}

func iElpmRdInc(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	z := ptrWord(m, regZ)
	full := uint32(rampz(m))<<16 | uint32(z)
	w := m.Mem.PmReadWord(int(full / 2))
	var b uint8
	if full&1 != 0 {
		b = uint8(w >> 8)
	} else {
		b = uint8(w)
	}
	setReg(m, d, b)
	full++
	setPtrWord(m, regZ, uint16(full))
	if m.L.Rampz >= 0 {
		m.Mem.DmWrite(m.Mem.SfrOff+m.L.Rampz, uint8(full>>16))
	}
	return 2
}

// iSpm implements an immediate single-word flash write from R1:R0 at the Z
// pointer. The real SPM instruction drives a page erase/fill/write state
// machine timed over many milliseconds (spec §4.4 point 1 names it as a
// multi-cycle instruction); this models only its net effect on flash
// content, not the timing of the intermediate buffer-fill steps.
func iSpm(m *mcu.MCU, op uint16) int {
	z := ptrWord(m, regZ)
	word := uint16(reg(m, 0)) | uint16(reg(m, 1))<<8
	m.Mem.PmWriteWord(int(z/2), word)
	return 3
}

func iRjmp(m *mcu.MCU, op uint16) int {
	m.PC += jmpOffset12(op)
	return 1
}

func iJmp(m *mcu.MCU, op uint16) int {
	lo := fetchExtra(m)
	hi := ((op >> 4) & 0x1F) << 1 | (op & 0x1)
	m.PC = int(hi)<<16 | int(lo)
	return 2
}

func iRcall(m *mcu.MCU, op uint16) int {
	m.PushPC(m.PC)
	m.PC += jmpOffset12(op)
	return 2
}

func iCall(m *mcu.MCU, op uint16) int {
	lo := fetchExtra(m)
	hi := ((op >> 4) & 0x1F) << 1 | (op & 0x1)
	m.PushPC(m.PC)
	m.PC = int(hi)<<16 | int(lo)
	return 3
}

func iRet(m *mcu.MCU, op uint16) int {
	m.PC = int(m.PopPC())
	return 3
}

func iReti(m *mcu.MCU, op uint16) int {
	m.PC = int(m.PopPC())
	m.SetGIE(true)
	m.ExecMain = true
	return 3
}

func iIjmp(m *mcu.MCU, op uint16) int {
	m.PC = int(ptrWord(m, regZ))
	return 1
}

func iIcall(m *mcu.MCU, op uint16) int {
	m.PushPC(m.PC)
	m.PC = int(ptrWord(m, regZ))
	return 2
}

func iEijmp(m *mcu.MCU, op uint16) int {
	z := ptrWord(m, regZ)
	eind := uint8(0)
	if m.L.Eind >= 0 {
		eind = m.Mem.DmRead(m.Mem.SfrOff + m.L.Eind)
	}
	m.PC = int(eind)<<16 | int(z)
	return 1
}

func iEicall(m *mcu.MCU, op uint16) int {
	m.PushPC(m.PC)
	z := ptrWord(m, regZ)
	eind := uint8(0)
	if m.L.Eind >= 0 {
		eind = m.Mem.DmRead(m.Mem.SfrOff + m.L.Eind)
	}
	m.PC = int(eind)<<16 | int(z)
	return 2
}

func iPush(m *mcu.MCU, op uint16) int {
	m.PushByte(reg(m, rd5(op)))
	return 1
}

func iPop(m *mcu.MCU, op uint16) int {
	setReg(m, rd5(op), m.PopByte())
	return 1
}
