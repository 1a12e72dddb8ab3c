package gdbrsp

import (
	"strings"
	"testing"

	"github.com/mcusim/mcusim/emu/mcu"
)

func newSession(t *testing.T) (*Session, *mcu.MCU) {
	t.Helper()
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	return NewSession(m), m
}

func TestQueryMark(t *testing.T) {
	sess, _ := newSession(t)
	reply, detach := sess.Dispatch([]byte("?"))
	if reply != "S05" || detach {
		t.Errorf("Dispatch(?) = %q,%v, want S05,false", reply, detach)
	}
}

// TestGPacket mirrors the example in §4.8: R0..R31 = i, SREG = 0x80,
// SP = 0x045F, PC = 0x0100 (word address) should produce a 78-hex-char
// reply (64 for GPRs, 2 for SREG, 4 for SP, 8 for PC).
func TestGPacket(t *testing.T) {
	sess, m := newSession(t)
	for i := 0; i < 32; i++ {
		m.Mem.DmWrite(i, byte(i))
	}
	m.Mem.PokeByte(m.Mem.SfrOff+m.L.Sreg, 0x80)
	m.Mem.PokeByte(m.Mem.SfrOff+m.L.Spl, 0x5F)
	m.Mem.PokeByte(m.Mem.SfrOff+m.L.Sph, 0x04)
	m.PC = 0x0100

	reply, _ := sess.Dispatch([]byte("g"))
	if len(reply) != 78 {
		t.Fatalf("len(g reply) = %d, want 78: %q", len(reply), reply)
	}
	if !strings.HasPrefix(reply, "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f80") {
		t.Errorf("g reply = %q", reply)
	}
	// SP = 5f 04, PC = pc<<1 = 0x0200, as 3 bytes + 00 little-endian: 00 02 00 00
	tail := reply[len(reply)-12:]
	if tail != "5f0400020000" {
		t.Errorf("g reply tail = %q, want 5f0400020000", tail)
	}
}

func TestGWriteRoundTrip(t *testing.T) {
	sess, m := newSession(t)
	payload := strings.Repeat("00", 32) + "80" + "5f04" + "00020000"
	reply, _ := sess.Dispatch([]byte("G" + payload))
	if reply != "OK" {
		t.Fatalf("Dispatch(G) = %q, want OK", reply)
	}
	if m.Mem.PeekByte(m.Mem.SfrOff+m.L.Sreg) != 0x80 {
		t.Errorf("SREG not written")
	}
	if m.PC != 0x0100 {
		t.Errorf("PC = %#x, want 0x100", m.PC)
	}
}

func TestMemReadWriteData(t *testing.T) {
	sess, m := newSession(t)
	const addr = 100 // 0x64, a data-memory address comfortably inside SRAM
	m.Mem.PokeByte(addr, 0xAB)

	reply, _ := sess.Dispatch([]byte("m800064,1"))
	if reply != "ab" {
		t.Errorf("mem read = %q, want ab", reply)
	}

	writeCmd := "M800064,1:cd"
	reply, _ = sess.Dispatch([]byte(writeCmd))
	if reply != "OK" {
		t.Fatalf("mem write = %q, want OK", reply)
	}
	if m.Mem.PeekByte(addr) != 0xCD {
		t.Errorf("data mem not updated: %#x", m.Mem.PeekByte(addr))
	}
}

// TestBreakpointInsertRemove mirrors §4.8 scenario S4: flash at word 0x20
// contains a 32-bit JMP; Z0 at byte address 0x40 should install BREAK and
// blank the second word, z0 should restore both.
func TestBreakpointInsertRemove(t *testing.T) {
	sess, m := newSession(t)
	m.Mem.PmWriteWord(0x20, 0x940C) // JMP opcode, first word
	m.Mem.PmWriteWord(0x21, 0x0040) // target, second word

	reply, _ := sess.Dispatch([]byte("Z0,40,4"))
	if reply != "OK" {
		t.Fatalf("Z0 = %q, want OK", reply)
	}
	if m.Mem.PmReadWordLive(0x20) != mcu.BreakOpcode {
		t.Errorf("word 0x20 = %#x, want BREAK", m.Mem.PmReadWordLive(0x20))
	}
	if m.Mem.PmReadWordLive(0x21) != 0 {
		t.Errorf("word 0x21 = %#x, want 0 (blanked)", m.Mem.PmReadWordLive(0x21))
	}

	reply, _ = sess.Dispatch([]byte("z0,40,4"))
	if reply != "OK" {
		t.Fatalf("z0 = %q, want OK", reply)
	}
	if m.Mem.PmReadWordLive(0x20) != 0x940C {
		t.Errorf("word 0x20 restored = %#x, want 0x940c", m.Mem.PmReadWordLive(0x20))
	}
	if m.Mem.PmReadWordLive(0x21) != 0x0040 {
		t.Errorf("word 0x21 restored = %#x, want 0x40", m.Mem.PmReadWordLive(0x21))
	}
}

func TestRemoveBreakpointWithoutBreakFails(t *testing.T) {
	sess, _ := newSession(t)
	reply, _ := sess.Dispatch([]byte("z0,40,2"))
	if reply != "E01" {
		t.Errorf("z0 without existing BREAK = %q, want E01", reply)
	}
}

func TestContinueAndStepSetState(t *testing.T) {
	sess, m := newSession(t)
	m.State = mcu.Stopped
	sess.Dispatch([]byte("c"))
	if m.State != mcu.Running {
		t.Errorf("state after c = %v, want Running", m.State)
	}
	// Only the 0x03 break byte is honoured while Running, so halt first.
	m.State = mcu.Stopped
	sess.Dispatch([]byte("s"))
	if m.State != mcu.Step {
		t.Errorf("state after s = %v, want Step", m.State)
	}
}

func TestKillSetsSimStop(t *testing.T) {
	sess, m := newSession(t)
	reply, _ := sess.Dispatch([]byte("k"))
	if reply != "OK" || m.State != mcu.SimStop {
		t.Errorf("Dispatch(k) = %q, state=%v", reply, m.State)
	}
}

func TestDetach(t *testing.T) {
	sess, _ := newSession(t)
	reply, detach := sess.Dispatch([]byte("D"))
	if reply != "OK" || !detach {
		t.Errorf("Dispatch(D) = %q,%v, want OK,true", reply, detach)
	}
}

func TestQuerySupported(t *testing.T) {
	sess, _ := newSession(t)
	reply, _ := sess.Dispatch([]byte("qSupported:multiprocess+"))
	if !strings.HasPrefix(reply, "PacketSize=") {
		t.Errorf("qSupported reply = %q", reply)
	}
}

func TestRunningRejectsNonBreakCommands(t *testing.T) {
	sess, m := newSession(t)
	m.State = mcu.Running
	reply, _ := sess.Dispatch([]byte("g"))
	if !strings.HasPrefix(reply, "O") {
		t.Errorf("running reply = %q, want console O-message", reply)
	}
}
