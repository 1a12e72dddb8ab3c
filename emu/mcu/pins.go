package mcu

// SyncPins mirrors every driven output bit through to its PINx register:
// PINx = PINx | (PORTx & DDRx). Reading a pin configured as an output must
// observe the driven level even when nothing external holds the line.
func (m *MCU) SyncPins() {
	for _, p := range m.L.Ports {
		pin := m.Mem.SfrOff + p.PinOff
		ddr := m.Mem.SfrOff + p.DdrOff
		port := m.Mem.SfrOff + p.PortOff
		driven := m.Mem.PeekByte(ddr) & m.Mem.PeekByte(port)
		m.Mem.PokeByte(pin, m.Mem.PeekByte(pin)|driven)
	}
}
