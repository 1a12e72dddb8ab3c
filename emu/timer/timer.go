/*
   Timer/counter engine: prescaled clock derivation, waveform generation
   mode state machine, compare-output pin actions and the one-cycle
   latency between a compare/overflow/capture condition being detected
   and its TIFR flag (and interrupt request) actually being raised.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package timer

import "github.com/mcusim/mcusim/emu/mcu"

// Tick advances every timer/counter unit on m by one system clock cycle.
// Called once per main-loop iteration from the simulation loop (spec
// §4.9), before interrupt promotion so a compare match raised this cycle
// can be promoted and handled in the same iteration.
func Tick(m *mcu.MCU) {
	for _, tr := range m.Timers {
		tickOne(m, tr)
	}
}

func modeFor(l *mcu.TimerLayout, wgm uint8) ModeDesc {
	if l.Bits == 8 {
		return modes8[wgm&0x7]
	}
	return modes16[wgm&0xF]
}

func wgmIndex(l *mcu.TimerLayout, tccra, tccrb uint8) uint8 {
	if l.Bits == 8 {
		return (tccrb>>3)&0x1<<2 | tccra&0x3
	}
	return (tccrb>>3)&0x3<<2 | tccra&0x3
}

func readWord(m *mcu.MCU, lo, hi int) uint16 {
	l := m.Mem.DmRead(m.Mem.SfrOff + lo)
	if hi < 0 {
		return uint16(l)
	}
	h := m.Mem.DmRead(m.Mem.SfrOff + hi)
	return uint16(h)<<8 | uint16(l)
}

func writeWord(m *mcu.MCU, lo, hi int, v uint16) {
	m.Mem.PokeByte(m.Mem.SfrOff+lo, byte(v))
	if hi >= 0 {
		m.Mem.PokeByte(m.Mem.SfrOff+hi, byte(v>>8))
	}
}

func computeTop(m *mcu.MCU, l *mcu.TimerLayout, d ModeDesc) uint16 {
	switch d.Top {
	case OcrATop:
		return readWord(m, l.OcrALo, l.OcrAHi)
	case IcrTopSrc:
		return readWord(m, l.Icr, l.IcrHi)
	default:
		return uint16(d.Fixed)
	}
}

// tickOne advances a single timer/counter unit by one system clock cycle.
func tickOne(m *mcu.MCU, tr *mcu.TimerRuntime) {
	l := tr.L
	tccrb := m.Mem.DmRead(m.Mem.SfrOff + l.Tccrb)
	cs := tccrb & 0x7
	presc := prescaleDivisors[cs]
	tr.Presc = presc
	if presc == 0 {
		return
	}
	tccra := m.Mem.DmRead(m.Mem.SfrOff + l.Tccra)
	wgm := wgmIndex(l, tccra, tccrb)
	desc := modeFor(l, wgm)
	top := computeTop(m, l, desc)

	tcnt := readWord(m, l.TcntLo, l.TcntHi)
	ocrA := readWord(m, l.OcrALo, l.OcrAHi)
	var ocrB uint16
	if l.OcrBLo >= 0 {
		ocrB = readWord(m, l.OcrBLo, l.OcrBHi)
	}
	comA := resolveComAction(desc.Kind, tccra>>6)
	comB := resolveComAction(desc.Kind, tccra>>4)

	goingUp := !tr.CountingDown

	detectMatch := func(ocr uint16, pending *bool, action ComAction, pin mcu.PinRef) {
		if (goingUp && tcnt+1 == ocr) || (!goingUp && ocr != 0 && tcnt-1 == ocr) {
			*pending = true
			applyComAction(m, action, goingUp, pin)
		}
	}
	detectMatch(ocrA, &tr.CompAPending, comA, l.OcPinA)
	if l.OcrBLo >= 0 {
		detectMatch(ocrB, &tr.CompBPending, comB, l.OcPinB)
	}

	if l.Icr >= 0 && l.IcpPort >= 0 {
		level := m.Mem.PeekBit(m.Mem.SfrOff+l.IcpPort, l.IcpBit)
		edgeRising := tccrb&0x40 != 0
		if level != tr.IcpLast && level == edgeRising {
			tr.CaptPending = true
		}
		tr.IcpLast = level
	}

	// Transfer previously-detected pending flags into the hardware TIFR
	// bits one sub-tick ahead of the counter's own rollover, modelling the
	// one-cycle latency real silicon shows between a match and the flag
	// becoming visible to the CPU.
	if presc == 1 || tr.ScCount+2 == presc {
		m.RaiseTimerFlags(tr)
	}

	tr.ScCount++
	if tr.ScCount < presc {
		return
	}
	tr.ScCount = 0

	var maxVal uint16 = 0xFFFF
	if l.TcntHi < 0 {
		maxVal = 0xFF
	}
	atTop := tcnt == top
	atBottom := tcnt == 0
	atMax := tcnt == maxVal

	if desc.DualSlope {
		if atTop {
			tr.CountingDown = true
		}
		if atBottom {
			tr.CountingDown = false
		}
		if tr.CountingDown {
			tcnt--
		} else {
			tcnt++
		}
	} else {
		if atTop {
			tcnt = 0
		} else {
			tcnt++
		}
	}

	if (desc.TovAt == AtTop && atTop) || (desc.TovAt == AtBottom && atBottom) || (desc.TovAt == AtMax && atMax) {
		tr.OvfPending = true
	}

	writeWord(m, l.TcntLo, l.TcntHi, tcnt)

	if atBottom {
		if comA == ClearOnMatchSetAtBottom {
			m.DriveOcPin(l.OcPinA, true)
		} else if comA == SetOnMatchClearAtBottom {
			m.DriveOcPin(l.OcPinA, false)
		}
		if l.OcrBLo >= 0 {
			if comB == ClearOnMatchSetAtBottom {
				m.DriveOcPin(l.OcPinB, true)
			} else if comB == SetOnMatchClearAtBottom {
				m.DriveOcPin(l.OcPinB, false)
			}
		}
	}
}

func applyComAction(m *mcu.MCU, action ComAction, goingUp bool, pin mcu.PinRef) {
	switch action {
	case Disconnected:
	case ToggleOnMatch:
		m.DriveOcPin(pin, !m.PinLevel(pin))
	case ClearOnMatch, ClearOnMatchSetAtBottom:
		m.DriveOcPin(pin, false)
	case SetOnMatch, SetOnMatchClearAtBottom:
		m.DriveOcPin(pin, true)
	case ClearOnUpSetOnDown:
		m.DriveOcPin(pin, !goingUp)
	case SetOnUpClearOnDown:
		m.DriveOcPin(pin, goingUp)
	}
}
