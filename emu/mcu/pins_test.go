package mcu

import "testing"

func TestSyncPinsMirrorsDrivenOutputs(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var portB Port
	found := false
	for _, p := range m.L.Ports {
		if p.Name == "B" {
			portB = p
			found = true
		}
	}
	if !found {
		t.Fatalf("no PORTB in this model's layout")
	}

	ddr := m.Mem.SfrOff + portB.DdrOff
	port := m.Mem.SfrOff + portB.PortOff
	pin := m.Mem.SfrOff + portB.PinOff

	m.Mem.PokeByte(ddr, 0x0F)  // pins 0-3 are outputs
	m.Mem.PokeByte(port, 0xFF) // drive everything high

	m.SyncPins()

	if got := m.Mem.PeekByte(pin); got != 0x0F {
		t.Errorf("PINB = %#02x, want 0x0f (only output bits mirrored)", got)
	}
}

func TestSyncPinsPreservesExternallyDrivenInputBits(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var portB Port
	for _, p := range m.L.Ports {
		if p.Name == "B" {
			portB = p
		}
	}
	ddr := m.Mem.SfrOff + portB.DdrOff
	port := m.Mem.SfrOff + portB.PortOff
	pin := m.Mem.SfrOff + portB.PinOff

	m.Mem.PokeByte(ddr, 0x00) // all inputs
	m.Mem.PokeByte(port, 0xFF)
	m.Mem.PokeByte(pin, 0x80) // externally driven high on bit 7

	m.SyncPins()

	if got := m.Mem.PeekByte(pin); got != 0x80 {
		t.Errorf("PINB = %#02x, want 0x80 (no output bits to mirror)", got)
	}
}
