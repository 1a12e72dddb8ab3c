/*
   Watchdog timer stub. Power-down/brown-out reset modelling is out of
   scope (spec §1 non-goals); what remains is the observable contract the
   WDR opcode needs: a prescaled counter (m.WDT.Counter) that the decoder
   can reset. The counter is held outside data memory, so it has no
   register name and dump_reg cannot trace it.

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

package watchdog

import "github.com/mcusim/mcusim/emu/mcu"

var wdtPrescale = [8]uint32{2048, 4096, 8192, 16384, 32768, 65536, 131072, 262144}

// Reset implements the WDR opcode's effect: zero the prescaled counter.
func Reset(m *mcu.MCU) {
	m.WDT.Counter = 0
}

// Tick advances the watchdog's free-running counter by one system clock
// cycle. No reset action is taken on expiry (see package doc); a firmware
// image that relies on an actual watchdog reset is out of scope.
func Tick(m *mcu.MCU) {
	wdtcr := m.Mem.DmRead(m.Mem.SfrOff + m.L.Wdtcr)
	if wdtcr&0x08 == 0 { // WDE not set
		return
	}
	presc := wdtPrescale[wdtcr&0x7]
	m.WDT.Presc = presc
	m.WDT.Counter++
	if m.WDT.Counter >= presc {
		m.WDT.Counter = 0
	}
}
