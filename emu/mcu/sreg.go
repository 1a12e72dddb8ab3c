package mcu

// SREG bit positions, standard across every AVR part.
const (
	FlagC = iota
	FlagZ
	FlagN
	FlagV
	FlagS
	FlagH
	FlagT
	FlagI
)

func (m *MCU) flag(bit int) bool {
	return m.Mem.PeekBit(m.Mem.SfrOff+m.L.Sreg, bit)
}

func (m *MCU) setFlag(bit int, val bool) {
	m.Mem.PokeBit(m.Mem.SfrOff+m.L.Sreg, bit, val)
}

func (m *MCU) C() bool   { return m.flag(FlagC) }
func (m *MCU) Z() bool   { return m.flag(FlagZ) }
func (m *MCU) N() bool   { return m.flag(FlagN) }
func (m *MCU) V() bool   { return m.flag(FlagV) }
func (m *MCU) S() bool   { return m.flag(FlagS) }
func (m *MCU) H() bool   { return m.flag(FlagH) }
func (m *MCU) T() bool   { return m.flag(FlagT) }
func (m *MCU) GIE() bool { return m.flag(FlagI) }

func (m *MCU) SetC(v bool)   { m.setFlag(FlagC, v) }
func (m *MCU) SetZ(v bool)   { m.setFlag(FlagZ, v) }
func (m *MCU) SetN(v bool)   { m.setFlag(FlagN, v) }
func (m *MCU) SetV(v bool)   { m.setFlag(FlagV, v) }
func (m *MCU) SetS(v bool)   { m.setFlag(FlagS, v) }
func (m *MCU) SetH(v bool)   { m.setFlag(FlagH, v) }
func (m *MCU) SetT(v bool)   { m.setFlag(FlagT, v) }
func (m *MCU) SetGIE(v bool) { m.setFlag(FlagI, v) }

// UpdateSNVZ sets N and recomputes S (N^V) and, optionally, Z from a result byte;
// every arithmetic/logical instruction that touches SREG calls this after
// setting C/V itself.
func (m *MCU) UpdateSNVZ(result uint8, touchZ bool) {
	m.SetN(result&0x80 != 0)
	m.SetS(m.N() != m.V())
	if touchZ {
		m.SetZ(result == 0)
	}
}
