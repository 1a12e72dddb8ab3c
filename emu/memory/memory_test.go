package memory

import "testing"

func TestDmReadWriteGPRAndSRAM(t *testing.T) {
	m := New(1024, 64, 512, 256)
	m.DmWrite(5, 0x42) // GPR r5
	if got := m.DmRead(5); got != 0x42 {
		t.Errorf("DmRead(5) = %#x, want 0x42", got)
	}
	sramAddr := m.SfrOff + m.IoCount + 10
	m.DmWrite(sramAddr, 0x99)
	if got := m.DmRead(sramAddr); got != 0x99 {
		t.Errorf("DmRead(sram) = %#x, want 0x99", got)
	}
}

func TestDmWriteMasksIoRegister(t *testing.T) {
	m := New(1024, 64, 512, 256)
	m.DefineIoReg(3, IoReg{Reset: 0x00, Mask: 0x0F})
	addr := m.SfrOff + 3

	m.DmWrite(addr, 0xFF)
	if got := m.DmRead(addr); got != 0x0F {
		t.Errorf("DmRead after masked write = %#x, want 0x0f", got)
	}
}

func TestDmWriteClearOnWrite1(t *testing.T) {
	m := New(1024, 64, 512, 256)
	m.DefineIoReg(4, IoReg{Reset: 0xFF, Mask: 0xFF, ClearOnWrite1: true})
	addr := m.SfrOff + 4

	m.DmWrite(addr, 0x05) // clear bits 0 and 2
	if got := m.DmRead(addr); got != 0xFA {
		t.Errorf("DmRead after clear-on-write-1 = %#x, want 0xfa", got)
	}
}

func TestDmWriteReservedIoRegStoresVerbatim(t *testing.T) {
	m := New(1024, 64, 512, 256)
	addr := m.SfrOff + 7 // never defined via DefineIoReg
	m.DmWrite(addr, 0x77)
	if got := m.DmRead(addr); got != 0x77 {
		t.Errorf("DmRead(reserved io) = %#x, want 0x77", got)
	}
}

func TestWatchedTracksIoWritesOnly(t *testing.T) {
	m := New(1024, 64, 512, 256)
	m.DefineIoReg(0, IoReg{Mask: 0xFF})
	m.ClearWatched()
	m.DmWrite(0x10, 1)           // GPR write, not watched
	m.DmWrite(m.SfrOff+0, 0x55)  // IO write, watched
	watched := m.Watched()
	if len(watched) != 1 || watched[0] != m.SfrOff {
		t.Errorf("Watched = %v, want [%d]", watched, m.SfrOff)
	}
}

func TestPmReadWordHonorsShadowFlag(t *testing.T) {
	m := New(16, 8, 8, 8)
	m.PmWriteWord(2, 0x1111)
	m.MpmWriteWord(2, 0x2222)

	if got := m.PmReadWord(2); got != 0x1111 {
		t.Errorf("PmReadWord (live) = %#04x, want 0x1111", got)
	}
	m.ReadFromMPM = true
	if got := m.PmReadWord(2); got != 0x2222 {
		t.Errorf("PmReadWord (shadow armed) = %#04x, want 0x2222", got)
	}
	if got := m.PmReadWordLive(2); got != 0x1111 {
		t.Errorf("PmReadWordLive should ignore ReadFromMPM, got %#04x", got)
	}
}

func TestPeekPokeByteAndBit(t *testing.T) {
	m := New(16, 8, 8, 8)
	m.PokeByte(10, 0x80)
	if got := m.PeekByte(10); got != 0x80 {
		t.Errorf("PeekByte = %#x, want 0x80", got)
	}
	if !m.PeekBit(10, 7) {
		t.Errorf("PeekBit(10,7) = false, want true")
	}
	m.PokeBit(10, 0, true)
	if got := m.PeekByte(10); got != 0x81 {
		t.Errorf("PeekByte after PokeBit = %#x, want 0x81", got)
	}
}

func TestFlashEndWord(t *testing.T) {
	m := New(4096, 8, 8, 8)
	if got := m.FlashEndWord(); got != 4095 {
		t.Errorf("FlashEndWord = %d, want 4095", got)
	}
}

func TestOutOfRangeAccessesAreSafe(t *testing.T) {
	m := New(16, 8, 8, 8)
	if got := m.DmRead(-1); got != 0 {
		t.Errorf("DmRead(-1) = %#x, want 0", got)
	}
	if got := m.DmRead(len(m.Data) + 10); got != 0 {
		t.Errorf("DmRead(oob) = %#x, want 0", got)
	}
	m.DmWrite(-1, 0xFF)  // must not panic
	m.PmWriteWord(-1, 1) // must not panic
	if got := m.PmReadWord(-1); got != 0 {
		t.Errorf("PmReadWord(-1) = %#x, want 0", got)
	}
}
