package mcu

import "testing"

func TestPromoteIRQPicksLowestVector(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.RequestIRQ(5)
	m.RequestIRQ(2)
	if got := m.PromoteIRQ(); got != 2 {
		t.Errorf("PromoteIRQ = %d, want 2", got)
	}
	// PromoteIRQ must not consume the latch.
	if got := m.PromoteIRQ(); got != 2 {
		t.Errorf("second PromoteIRQ = %d, want 2 (latch should persist)", got)
	}
}

func TestHandleIRQDispatchesAndClearsGIE(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.SetGIE(true)
	m.PC = 0x10
	m.RequestIRQ(3)

	if !m.HandleIRQ() {
		t.Fatalf("HandleIRQ returned false, want true")
	}
	if m.GIE() {
		t.Errorf("GIE still set after dispatch")
	}
	wantPC := m.Intr.IVT + 3*m.Intr.Stride
	if m.PC != wantPC {
		t.Errorf("PC = %#x, want %#x", m.PC, wantPC)
	}
	if ret := m.PopPC(); ret != 0x10 {
		t.Errorf("pushed return PC = %#x, want 0x10", ret)
	}
}

func TestHandleIRQNoopWithoutGIE(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.RequestIRQ(3)
	if m.HandleIRQ() {
		t.Errorf("HandleIRQ dispatched despite GIE clear")
	}
}

func TestHandleIRQWakesSleepingMCU(t *testing.T) {
	m, err := New("m328p")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.SetGIE(true)
	m.State = Sleeping
	m.RequestIRQ(3)
	m.HandleIRQ()
	if m.State != Running {
		t.Errorf("state after wake = %v, want Running", m.State)
	}
}
