package vcd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mcusim/mcusim/emu/mcu"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestHeaderAndDumpvars(t *testing.T) {
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	var buf bytes.Buffer
	entries, err := EntriesFromNames(m, []string{"PORTB"})
	if err != nil {
		t.Fatalf("EntriesFromNames: %v", err)
	}
	w, err := New(nopCloser{&buf}, "m328p", 16_000_000, entries)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Sample(m, 0); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "$timescale") {
		t.Errorf("missing $timescale header: %q", out)
	}
	if !strings.Contains(out, "$dumpvars") {
		t.Errorf("missing $dumpvars block: %q", out)
	}
	if !strings.Contains(out, "PORTB") {
		t.Errorf("missing watched var PORTB: %q", out)
	}
}

func TestSampleOnlyWritesOnChange(t *testing.T) {
	m, err := mcu.New("m328p")
	if err != nil {
		t.Fatalf("mcu.New: %v", err)
	}
	entries, _ := EntriesFromNames(m, []string{"PORTB"})
	var buf bytes.Buffer
	w, _ := New(nopCloser{&buf}, "m328p", 16_000_000, entries)
	w.Sample(m, 0)
	buf.Reset()
	w.Sample(m, 1)
	if strings.Contains(buf.String(), "PORTB") {
		t.Errorf("unchanged register rewritten: %q", buf.String())
	}

	addr, _, _ := m.LookupRegister("PORTB")
	m.Mem.PokeByte(addr, 0xFF)
	buf.Reset()
	w.Sample(m, 2)
	if !strings.Contains(buf.String(), "PORTB") {
		t.Errorf("changed register not written: %q", buf.String())
	}
}
