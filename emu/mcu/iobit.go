package mcu

// The teacher's generic "IOBIT" helpers are generalized here to the single
// bit-addressable primitive every peripheral engine needs: read, write and
// toggle one bit of one data-memory byte, expressed once instead of
// repeated per-register as field-specific accessors.

// IOBitRead reads bit `bit` of the data-memory byte at absolute address addr.
func (m *MCU) IOBitRead(addr, bit int) bool {
	return m.Mem.PeekBit(addr, bit)
}

// IOBitWrite sets or clears bit `bit` of the data-memory byte at addr,
// going through DmWrite so access-mask filtering (I2) still applies.
func (m *MCU) IOBitWrite(addr, bit int, val bool) {
	cur := m.Mem.DmRead(addr)
	if val {
		m.Mem.DmWrite(addr, cur|1<<uint(bit))
	} else {
		m.Mem.DmWrite(addr, cur&^(1<<uint(bit)))
	}
}

// IOBitToggle flips bit `bit` of addr and returns the new value.
func (m *MCU) IOBitToggle(addr, bit int) bool {
	v := !m.IOBitRead(addr, bit)
	m.IOBitWrite(addr, bit, v)
	return v
}

// PinLevel reads the driven level of one named pin: DDR=1 (output) reads
// back PORT; DDR=0 (input) reads PIN.
func (m *MCU) PinLevel(ref PinRef) bool {
	if ref.PortOff < 0 {
		return false
	}
	if m.Mem.PeekBit(m.Mem.SfrOff+ref.DdrOff, ref.Bit) {
		return m.Mem.PeekBit(m.Mem.SfrOff+ref.PortOff, ref.Bit)
	}
	for _, p := range m.L.Ports {
		if p.PortOff == ref.PortOff {
			return m.Mem.PeekBit(m.Mem.SfrOff+p.PinOff, ref.Bit)
		}
	}
	return m.Mem.PeekBit(m.Mem.SfrOff+ref.PortOff, ref.Bit)
}

// DriveOcPin forces a timer compare-output pin to level, used by the timer
// engine's com_op actions. No-op for channels with no physical pin (OC2B on
// parts that don't bond it out, modelled with PortOff < 0).
func (m *MCU) DriveOcPin(ref PinRef, level bool) {
	if ref.PortOff < 0 {
		return
	}
	m.Mem.PokeBit(m.Mem.SfrOff+ref.PortOff, ref.Bit, level)
}
