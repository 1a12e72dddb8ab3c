/*
   USART engine: baud-rate generator, transmit shift-register timing and
   receive-complete flagging, driven by the same per-cycle Tick the timer
   engine uses.

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

package usart

import "github.com/mcusim/mcusim/emu/mcu"

// UCSRnA bit positions.
const (
	ucsraRXC  = 7
	ucsraTXC  = 6
	ucsraUDRE = 5
	ucsraU2X  = 1
)

// UCSRnB bit positions.
const (
	ucsrbRXCIE = 7
	ucsrbTXCIE = 6
	ucsrbUDRIE = 5
	ucsrbRXEN  = 4
	ucsrbTXEN  = 3
)

// Tick advances every USART unit on m by one system clock cycle, moving
// bytes out of UDR on a byte-time cadence derived from UBRR.
func Tick(m *mcu.MCU) {
	for _, ur := range m.Usarts {
		tickOne(m, ur)
	}
}

func baudDivisor(m *mcu.MCU, l *mcu.UsartLayout) uint32 {
	ubrrl := m.Mem.DmRead(m.Mem.SfrOff + l.Ubrrl)
	ubrrh := m.Mem.DmRead(m.Mem.SfrOff+l.UcsrcOrUbrrh) & 0x0F
	ubrr := uint32(ubrrh)<<8 | uint32(ubrrl)
	return (ubrr + 1) * 16
}

func tickOne(m *mcu.MCU, ur *mcu.UsartRuntime) {
	l := ur.L
	ucsrb := m.Mem.DmRead(m.Mem.SfrOff + l.Ucsrb)
	if ucsrb&(1<<ucsrbTXEN) == 0 {
		ur.TxBusy = false
		return
	}
	ur.BaudDivisor = baudDivisor(m, l)
	if ur.BaudDivisor == 0 {
		return
	}

	udreAddr := m.Mem.SfrOff + l.Ucsra
	if !m.Mem.PeekBit(udreAddr, ucsraUDRE) && !ur.TxBusy {
		// A byte was just written to UDR: latch it and start the shift-out
		// timer. 10 bit-times (start + 8 data + stop) approximate enough
		// fidelity for the baud-rate contract spec §4.7 names; exact frame
		// composition (parity, 5-9 data bits) is not modelled.
		ur.TxShift = m.Mem.DmRead(m.Mem.SfrOff + l.Udr)
		ur.TxBusy = true
		ur.TxCount = ur.BaudDivisor * 10
		m.Mem.PokeBit(udreAddr, ucsraUDRE, true)
	}

	if ur.TxBusy {
		ur.TxCount--
		if ur.TxCount == 0 {
			ur.TxBusy = false
			m.Mem.PokeBit(udreAddr, ucsraTXC, true)
			if ucsrb&(1<<ucsrbTXCIE) != 0 {
				m.RequestIRQ(l.VectorTxc)
			}
		}
	}
	if m.Mem.PeekBit(udreAddr, ucsraUDRE) && ucsrb&(1<<ucsrbUDRIE) != 0 {
		m.RequestIRQ(l.VectorUdre)
	}
}

// Inject delivers one received byte into UDR, setting RXC and requesting
// the receive-complete vector if enabled. Exposed for the console/Lua
// bridge to simulate inbound serial traffic; spec §1 names no real
// external UART peer.
func Inject(m *mcu.MCU, usartIdx int, b byte) {
	if usartIdx < 0 || usartIdx >= len(m.Usarts) {
		return
	}
	ur := m.Usarts[usartIdx]
	l := ur.L
	ucsrb := m.Mem.DmRead(m.Mem.SfrOff + l.Ucsrb)
	if ucsrb&(1<<ucsrbRXEN) == 0 {
		return
	}
	m.Mem.PokeByte(m.Mem.SfrOff+l.Udr, b)
	rxcAddr := m.Mem.SfrOff + l.Ucsra
	m.Mem.PokeBit(rxcAddr, ucsraRXC, true)
	if ucsrb&(1<<ucsrbRXCIE) != 0 {
		m.RequestIRQ(l.VectorRxc)
	}
}
