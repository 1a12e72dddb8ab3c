package ihex

import (
	"strings"
	"testing"

	"github.com/mcusim/mcusim/emu/mcu"
)

func TestParseChecksumMismatch(t *testing.T) {
	_, err := Parse(strings.NewReader(":10000000FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF01\n"))
	if err == nil {
		t.Errorf("expected checksum error, got nil")
	}
}

func TestParseValidRecord(t *testing.T) {
	// :02 0000 00 0A0B E9
	recs, err := Parse(strings.NewReader(":020000000A0BE9\n:00000001FF\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].Data[0] != 0x0A || recs[0].Data[1] != 0x0B {
		t.Errorf("data = %x, want 0a0b", recs[0].Data)
	}
	if recs[1].Type != RecEOF {
		t.Errorf("second record type = %d, want EOF", recs[1].Type)
	}
}

func TestLoadAndDumpRoundTrip(t *testing.T) {
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	recs, err := Parse(strings.NewReader(":020000000A0BE9\n:00000001FF\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := LoadFlash(m, recs); err != nil {
		t.Fatalf("LoadFlash: %v", err)
	}
	if got := m.Mem.PmReadWordLive(0); got != 0x0B0A {
		t.Errorf("flash[0] = %#x, want 0x0b0a", got)
	}

	var sb strings.Builder
	if err := DumpFlash(m, &sb); err != nil {
		t.Fatalf("DumpFlash: %v", err)
	}
	recs2, err := Parse(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Parse(dump): %v", err)
	}
	m2, _ := mcu.New("m328p")
	if err := LoadFlash(m2, recs2); err != nil {
		t.Fatalf("LoadFlash(round-trip): %v", err)
	}
	if got := m2.Mem.PmReadWordLive(0); got != 0x0B0A {
		t.Errorf("round-tripped flash[0] = %#x, want 0x0b0a", got)
	}
}
