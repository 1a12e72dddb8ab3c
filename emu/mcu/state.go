package mcu

import mem "github.com/mcusim/mcusim/emu/memory"

// TimerRuntime is one timer/counter unit's live (non-address) state: the
// prescaler phase, counting direction and the one-cycle compare/overflow
// latches described in spec §4.6.
type TimerRuntime struct {
	L *TimerLayout

	Presc   uint32 // configured prescale divisor, 0 = stopped
	ScCount uint32 // sub-prescale tick counter, 0..Presc-1

	CountingDown bool // dual-slope direction

	CompAPending bool
	CompBPending bool
	OvfPending   bool
	CaptPending  bool

	CompABuf    uint16 // OCRA double-buffer, latched at the mode's update point
	CompABuffered bool
	CompBBuf    uint16
	CompBBuffered bool

	IcpLast bool // previous sampled ICP pin level, edge detection
}

func newTimerRuntime(l *TimerLayout) *TimerRuntime {
	return &TimerRuntime{L: l}
}

// UsartRuntime is one USART unit's live baud/shift-register state.
type UsartRuntime struct {
	L *UsartLayout

	BaudDivisor  uint32
	TxCount      uint32
	RxCount      uint32
	TxShift      byte
	TxBusy       bool
	RxPending    bool
	RxByte       byte
}

func newUsartRuntime(l *UsartLayout) *UsartRuntime {
	return &UsartRuntime{L: l}
}

// installIoRegs defines every memory-mapped I/O register descriptor for the
// resolved layout so that Memory.DmWrite can apply AVR's per-register access
// masks (I2) uniformly for any model.
func (m *MCU) installIoRegs() {
	d := m.Mem
	l := m.L

	d.DefineIoReg(l.Sreg, mem.IoReg{Name: "SREG", Mask: 0xFF})
	d.DefineIoReg(l.Spl, mem.IoReg{Name: "SPL", Mask: 0xFF, Reset: byte(len(d.Data) - 1)})
	d.DefineIoReg(l.Sph, mem.IoReg{Name: "SPH", Mask: 0xFF, Reset: byte((len(d.Data) - 1) >> 8)})
	if l.Rampz >= 0 {
		d.DefineIoReg(l.Rampz, mem.IoReg{Name: "RAMPZ", Mask: 0xFF})
	}
	if l.Eind >= 0 {
		d.DefineIoReg(l.Eind, mem.IoReg{Name: "EIND", Mask: 0xFF})
	}
	d.DefineIoReg(l.Spmcsr, mem.IoReg{Name: "SPMCSR", Mask: 0xFF})
	d.DefineIoReg(l.Wdtcr, mem.IoReg{Name: "WDTCR", Mask: 0xFF})

	for _, p := range l.Ports {
		d.DefineIoReg(p.PinOff, mem.IoReg{Name: "PIN" + p.Name, Mask: 0x00})
		d.DefineIoReg(p.DdrOff, mem.IoReg{Name: "DDR" + p.Name, Mask: 0xFF})
		d.DefineIoReg(p.PortOff, mem.IoReg{Name: "PORT" + p.Name, Mask: 0xFF})
	}

	for _, t := range l.Timers {
		d.DefineIoReg(t.TcntLo, mem.IoReg{Name: t.Name + "_TCNTL", Mask: 0xFF})
		if t.TcntHi >= 0 {
			d.DefineIoReg(t.TcntHi, mem.IoReg{Name: t.Name + "_TCNTH", Mask: 0xFF})
		}
		d.DefineIoReg(t.Tccra, mem.IoReg{Name: t.Name + "_TCCRA", Mask: 0xFF})
		d.DefineIoReg(t.Tccrb, mem.IoReg{Name: t.Name + "_TCCRB", Mask: 0xFF})
		d.DefineIoReg(t.Timsk, mem.IoReg{Name: t.Name + "_TIMSK", Mask: 0xFF})
		d.DefineIoReg(t.Tifr, mem.IoReg{Name: t.Name + "_TIFR", Mask: 0xFF, ClearOnWrite1: true})
		d.DefineIoReg(t.OcrALo, mem.IoReg{Name: t.Name + "_OCRAL", Mask: 0xFF})
		if t.OcrAHi >= 0 {
			d.DefineIoReg(t.OcrAHi, mem.IoReg{Name: t.Name + "_OCRAH", Mask: 0xFF})
		}
		if t.OcrBLo >= 0 {
			d.DefineIoReg(t.OcrBLo, mem.IoReg{Name: t.Name + "_OCRBL", Mask: 0xFF})
		}
		if t.OcrBHi >= 0 {
			d.DefineIoReg(t.OcrBHi, mem.IoReg{Name: t.Name + "_OCRBH", Mask: 0xFF})
		}
		if t.Icr >= 0 {
			d.DefineIoReg(t.Icr, mem.IoReg{Name: t.Name + "_ICRL", Mask: 0xFF})
			d.DefineIoReg(t.IcrHi, mem.IoReg{Name: t.Name + "_ICRH", Mask: 0xFF})
		}
	}

	for _, u := range l.Usarts {
		d.DefineIoReg(u.Udr, mem.IoReg{Name: u.Name + "_UDR", Mask: 0xFF})
		d.DefineIoReg(u.Ucsra, mem.IoReg{Name: u.Name + "_UCSRA", Mask: 0xFF, ClearOnWrite1: true})
		d.DefineIoReg(u.Ucsrb, mem.IoReg{Name: u.Name + "_UCSRB", Mask: 0xFF})
		d.DefineIoReg(u.UcsrcOrUbrrh, mem.IoReg{Name: u.Name + "_UCSRC_UBRRH", Mask: 0xFF})
		d.DefineIoReg(u.Ubrrl, mem.IoReg{Name: u.Name + "_UBRRL", Mask: 0xFF})
	}
}
