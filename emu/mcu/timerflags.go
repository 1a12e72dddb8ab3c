package mcu

// Bit positions shared by every TIFRn/TIMSKn pair, matching the standard
// ATmega Timer/Counter1-style layout (Timer0/Timer2 units simply never set
// the capture bit since they have no ICR).
const (
	tifrBitOvf   = 0
	tifrBitCompA = 1
	tifrBitCompB = 2
	tifrBitCapt  = 5
)

// RaiseTimerFlags transfers any condition the timer engine marked pending
// last sub-tick into the hardware-visible TIFR bits, requesting the
// matching interrupt vector when the corresponding TIMSK enable bit is set.
func (m *MCU) RaiseTimerFlags(tr *TimerRuntime) {
	l := tr.L
	tifr := m.Mem.SfrOff + l.Tifr
	timsk := m.Mem.SfrOff + l.Timsk

	raise := func(pending *bool, bit, vector int) {
		if !*pending {
			return
		}
		*pending = false
		m.Mem.PokeBit(tifr, bit, true)
		if vector >= 0 && m.Mem.PeekBit(timsk, bit) {
			m.RequestIRQ(vector)
		}
	}
	raise(&tr.CompAPending, tifrBitCompA, l.VectorCompA)
	raise(&tr.CompBPending, tifrBitCompB, l.VectorCompB)
	raise(&tr.OvfPending, tifrBitOvf, l.VectorOvf)
	raise(&tr.CaptPending, tifrBitCapt, l.VectorCapt)
}
