package cpu

import "github.com/mcusim/mcusim/emu/mcu"

func iBset(m *mcu.MCU, op uint16) int {
	m.Mem.PokeBit(m.Mem.SfrOff+m.L.Sreg, bitNum3High(op), true)
	return 0
}

func iBclr(m *mcu.MCU, op uint16) int {
	m.Mem.PokeBit(m.Mem.SfrOff+m.L.Sreg, bitNum3High(op), false)
	return 0
}

func iBst(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	m.SetT(m.Mem.PeekBit(d, bitNum3(op)))
	return 0
}

func iBld(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	v := reg(m, d)
	bit := bitNum3(op)
	if m.T() {
		v |= 1 << uint(bit)
	} else {
		v &^= 1 << uint(bit)
	}
	setReg(m, d, v)
	return 0
}

func iSbi(m *mcu.MCU, op uint16) int {
	addr := m.Mem.SfrOff + ioAddr5(op)
	m.IOBitWrite(addr, bitNum3(op), true)
	return 1
}

func iCbi(m *mcu.MCU, op uint16) int {
	addr := m.Mem.SfrOff + ioAddr5(op)
	m.IOBitWrite(addr, bitNum3(op), false)
	return 1
}

func skipNext(m *mcu.MCU) int {
	next := m.Mem.PmReadWord(m.PC)
	if mcu.IsLongOpcode(next) {
		m.PC += 2
		return 2
	}
	m.PC++
	return 1
}

func iSbrc(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	if !m.Mem.PeekBit(d, bitNum3(op)) {
		return skipNext(m)
	}
	return 0
}

func iSbrs(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	if m.Mem.PeekBit(d, bitNum3(op)) {
		return skipNext(m)
	}
	return 0
}

func iSbic(m *mcu.MCU, op uint16) int {
	addr := m.Mem.SfrOff + ioAddr5(op)
	if !m.IOBitRead(addr, bitNum3(op)) {
		return skipNext(m)
	}
	return 0
}

func iSbis(m *mcu.MCU, op uint16) int {
	addr := m.Mem.SfrOff + ioAddr5(op)
	if m.IOBitRead(addr, bitNum3(op)) {
		return skipNext(m)
	}
	return 0
}

func iIn(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	setReg(m, d, m.Mem.DmRead(m.Mem.SfrOff+ioAddr6(op)))
	return 0
}

func iOut(m *mcu.MCU, op uint16) int {
	d := rd5(op)
	m.Mem.DmWrite(m.Mem.SfrOff+ioAddr6(op), reg(m, d))
	return 0
}
