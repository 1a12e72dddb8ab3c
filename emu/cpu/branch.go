package cpu

import "github.com/mcusim/mcusim/emu/mcu"

// iBrbs/iBrbc implement the whole BREQ/BRNE/BRCS/.../BRID family: they all
// share one opcode class, differing only in which SREG bit the 3-bit field
// names (spec names this generalization explicitly, to avoid 16 near-
// duplicate handlers for what is one conditional-branch instruction).
func iBrbs(m *mcu.MCU, op uint16) int {
	if m.Mem.PeekBit(m.Mem.SfrOff+m.L.Sreg, bitNum3(op)) {
		m.PC += branchOffset7(op)
		return 1
	}
	return 0
}

func iBrbc(m *mcu.MCU, op uint16) int {
	if !m.Mem.PeekBit(m.Mem.SfrOff+m.L.Sreg, bitNum3(op)) {
		m.PC += branchOffset7(op)
		return 1
	}
	return 0
}
