package mcu

import "strings"

// RegisterNames returns every symbolic register name this model's Layout
// exposes, mapped to its raw I/O address (add m.Mem.SfrOff for the
// absolute data-memory address). Pairs of 8-bit halves of a 16-bit
// register are also registered under the combined name ("OCR1A" in
// addition to "OCR1AL"/"OCR1AH"), per the dump_reg config key's matching
// rule.
func (m *MCU) RegisterNames() map[string]int {
	names := map[string]int{
		"SREG": m.L.Sreg,
		"SPL":  m.L.Spl,
		"SPH":  m.L.Sph,
	}
	if m.L.Rampz >= 0 {
		names["RAMPZ"] = m.L.Rampz
	}
	if m.L.Eind >= 0 {
		names["EIND"] = m.L.Eind
	}
	names["SPMCSR"] = m.L.Spmcsr
	names["WDTCR"] = m.L.Wdtcr

	for _, p := range m.L.Ports {
		names["PIN"+p.Name] = p.PinOff
		names["DDR"+p.Name] = p.DdrOff
		names["PORT"+p.Name] = p.PortOff
	}

	for _, t := range m.L.Timers {
		n := strings.TrimPrefix(t.Name, "Timer")
		names["TCCR"+n+"A"] = t.Tccra
		names["TCCR"+n+"B"] = t.Tccrb
		names["TIMSK"+n] = t.Timsk
		names["TIFR"+n] = t.Tifr
		if t.Bits == 16 {
			names["TCNT"+n] = t.TcntLo
			names["TCNT"+n+"L"] = t.TcntLo
			names["TCNT"+n+"H"] = t.TcntHi
			names["OCR"+n+"A"] = t.OcrALo
			names["OCR"+n+"AL"] = t.OcrALo
			names["OCR"+n+"AH"] = t.OcrAHi
			if t.OcrBLo >= 0 {
				names["OCR"+n+"B"] = t.OcrBLo
				names["OCR"+n+"BL"] = t.OcrBLo
				names["OCR"+n+"BH"] = t.OcrBHi
			}
			if t.Icr >= 0 {
				names["ICR"+n] = t.Icr
				names["ICR"+n+"L"] = t.Icr
				names["ICR"+n+"H"] = t.IcrHi
			}
		} else {
			names["TCNT"+n] = t.TcntLo
			names["OCR"+n+"A"] = t.OcrALo
			if t.OcrBLo >= 0 {
				names["OCR"+n+"B"] = t.OcrBLo
			}
		}
	}

	for _, u := range m.L.Usarts {
		n := strings.TrimPrefix(u.Name, "USART")
		names["UDR"+n] = u.Udr
		names["UCSR"+n+"A"] = u.Ucsra
		names["UCSR"+n+"B"] = u.Ucsrb
		names["UCSR"+n+"C"] = u.UcsrcOrUbrrh
		names["UBRR"+n+"H"] = u.UcsrcOrUbrrh
		names["UBRR"+n+"L"] = u.Ubrrl
	}

	return names
}

// LookupRegister resolves a dump_reg-style name, optionally suffixed with a
// decimal bit index 0-7, to its absolute data-memory address and bit (-1
// for the whole byte).
func (m *MCU) LookupRegister(name string) (addr, bit int, ok bool) {
	names := m.RegisterNames()
	if off, ok := names[name]; ok {
		return m.Mem.SfrOff + off, -1, true
	}
	if len(name) > 1 {
		last := name[len(name)-1]
		if last >= '0' && last <= '7' {
			base := name[:len(name)-1]
			if off, ok := names[base]; ok {
				return m.Mem.SfrOff + off, int(last - '0'), true
			}
		}
	}
	return 0, 0, false
}
