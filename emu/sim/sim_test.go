package sim

import (
	"testing"
	"time"

	"github.com/mcusim/mcusim/emu/mcu"
)

func TestRunHaltsOnIllegalOpcode(t *testing.T) {
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	m.Mem.PmWriteWord(0, 0x0000) // NOP
	m.Mem.PmWriteWord(1, 0xFFFF) // no registered opcode
	m.State = mcu.Running

	s := New(m, nil, nil, true)
	s.Run()

	if m.State != mcu.TestFail {
		t.Errorf("state = %v, want TestFail", m.State)
	}
	if m.PC != 2 {
		t.Errorf("PC = %d, want 2", m.PC)
	}
}

func TestRunStopsOnStepCompletion(t *testing.T) {
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	m.Mem.PmWriteWord(0, 0x0000) // NOP
	m.State = mcu.Step

	// Not firmware-test mode: with no GDB server attached, Run returns once
	// the step leaves the MCU Stopped.
	s := New(m, nil, nil, false)
	s.Run()

	if m.State != mcu.Stopped {
		t.Errorf("state = %v, want Stopped", m.State)
	}
	if m.PC != 1 {
		t.Errorf("PC = %d, want 1", m.PC)
	}
}

func TestStartStopReturnsPromptly(t *testing.T) {
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	for w := 0; w < 4; w++ {
		m.Mem.PmWriteWord(w, 0x0000) // NOP, NOP, NOP, NOP
	}
	m.State = mcu.Running

	s := New(m, nil, nil, true)
	s.Start()
	time.Sleep(5 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return in time")
	}
}

func TestIRQDispatchPushesPCAndJumps(t *testing.T) {
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	m.Mem.PmWriteWord(0, 0x0000) // NOP
	m.SetGIE(true)
	m.RequestIRQ(2)
	m.State = mcu.Running

	s := New(m, nil, nil, true)
	// Run exactly long enough to dispatch the pending IRQ once, then halt
	// by flipping to TestFail from outside via an illegal opcode at the
	// vector target... simplest: stop after the first iteration by
	// checking PC moved to the vector address.
	m.Mem.PmWriteWord(m.Intr.IVT+2*m.Intr.Stride, 0xFFFF)
	s.Run()

	if m.State != mcu.TestFail {
		t.Fatalf("state = %v, want TestFail (ran into illegal opcode at vector)", m.State)
	}
	if m.GIE() {
		t.Errorf("SREG.I still set after IRQ dispatch")
	}
}
