package mcu

import "testing"

func TestRegisterNamesIncludesCoreAndPeripheralRegs(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	names := m.RegisterNames()
	for _, want := range []string{
		"SREG", "SPL", "SPH",
		"PINB", "DDRB", "PORTB",
		"TCCR1A", "TIMSK1", "TIFR1",
		"TCNT1L", "TCNT1H", "OCR1A", "OCR1AL", "OCR1AH",
		"TCNT0", "OCR0A",
		"UDR0", "UCSR0A", "UCSR0B",
	} {
		if _, ok := names[want]; !ok {
			t.Errorf("RegisterNames missing %q", want)
		}
	}
	if _, ok := names["RAMPZ"]; ok {
		t.Errorf("m328p should not expose RAMPZ")
	}
}

func TestLookupRegisterWholeByteAndBit(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	addr, bit, ok := m.LookupRegister("PORTB")
	if !ok {
		t.Fatalf("LookupRegister(PORTB) not found")
	}
	if bit != -1 {
		t.Errorf("PORTB bit = %d, want -1 (whole byte)", bit)
	}
	wantAddr := m.Mem.SfrOff + func() int {
		for _, p := range m.L.Ports {
			if p.Name == "B" {
				return p.PortOff
			}
		}
		return -1
	}()
	if addr != wantAddr {
		t.Errorf("PORTB addr = %#x, want %#x", addr, wantAddr)
	}

	_, bit, ok = m.LookupRegister("PORTB3")
	if !ok {
		t.Fatalf("LookupRegister(PORTB3) not found")
	}
	if bit != 3 {
		t.Errorf("PORTB3 bit = %d, want 3", bit)
	}
}

func TestLookupRegisterUnknownName(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, ok := m.LookupRegister("NOTAREG"); ok {
		t.Errorf("LookupRegister(NOTAREG) should fail")
	}
}
