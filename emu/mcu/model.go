/*
   AVR model registry: per-device geometry (flash/SRAM/EEPROM size, program
   counter width, timer/port/USART population) for ATmega8A, ATmega328(P)
   and ATmega2560.

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

package mcu

// Port holds the data-memory addresses of one {PINx, DDRx, PORTx} triple.
type Port struct {
	Name    string
	PinOff  int
	DdrOff  int
	PortOff int
}

// TimerLayout is the data-memory geometry of one timer/counter unit. The bit
// positions follow the standard ATmega TCCRnA/TCCRnB/TIMSKn/TIFRn layout so
// that WGM, COM and CS fields can be decoded uniformly whether the counter
// is 8-bit (OcrHi < 0) or 16-bit.
type TimerLayout struct {
	Name       string
	Bits       int // 8 or 16
	TcntLo     int
	TcntHi     int // -1 for 8-bit counters
	Tccra      int
	Tccrb      int
	Timsk      int
	Tifr       int
	OcrALo     int
	OcrAHi     int // -1 for 8-bit
	OcrBLo     int
	OcrBHi     int // -1 for 8-bit
	Icr        int // -1 if no input capture
	IcrHi      int
	IcpPort    int // io address of the port this timer's ICP pin lives on, -1 if none
	IcpBit     int
	VectorOvf  int
	VectorCapt int // -1 if none
	VectorCompA int
	VectorCompB int
	OcPinA     PinRef
	OcPinB     PinRef
}

// PinRef names one bit of one port register triple.
type PinRef struct {
	PortOff int // -1 if unconnected
	DdrOff  int
	Bit     int
}

// UsartLayout is the data-memory geometry of one USART unit.
type UsartLayout struct {
	Name    string
	Udr     int
	Ucsra   int
	Ucsrb   int
	UcsrcOrUbrrh int // shared slot, disambiguated by URSEL on write
	Ubrrl   int
	VectorRxc  int
	VectorTxc  int
	VectorUdre int
}

// Layout is the fully-resolved data-memory map for one MCU model.
type Layout struct {
	Sreg, Spl, Sph int
	Rampz          int // -1 if absent
	Eind           int // -1 if absent
	Spmcsr         int
	Wdtcr          int
	Ports          []Port
	Timers         []TimerLayout
	Usarts         []UsartLayout
}

// Model describes one MCU variant.
type Model struct {
	Name      string
	Signature [3]byte
	PCBits    int
	FlashWords int
	SRAMSize  int
	EepromSize int
	IoCount   int
	MaxFreqHz uint64
	IvtStride int // word addresses between successive interrupt vectors
	ResetPC   int
	BootloaderSizes []int // legal boot-loader sizes in words, smallest first
	Layout    func() Layout
}

var registry = map[string]Model{}

func register(m Model) {
	registry[m.Name] = m
}

// Lookup returns the named model ("m8a", "m328", "m328p", "m2560").
func Lookup(name string) (Model, bool) {
	m, ok := registry[name]
	return m, ok
}

// io address bump helper used while building a Layout.
type builder struct {
	next int
}

func (b *builder) alloc() int {
	a := b.next
	b.next++
	return a
}

func layoutM8A() Layout {
	b := &builder{}
	sreg := b.alloc()
	spl := b.alloc()
	sph := b.alloc()
	spmcsr := b.alloc()
	wdtcr := b.alloc()

	portB := Port{Name: "B", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}
	portC := Port{Name: "C", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}
	portD := Port{Name: "D", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}

	t0 := TimerLayout{
		Name: "Timer0", Bits: 8,
		TcntLo: b.alloc(), TcntHi: -1,
		Tccra: b.alloc(), Tccrb: b.alloc(),
		Timsk: b.alloc(), Tifr: b.alloc(),
		OcrALo: b.alloc(), OcrAHi: -1, OcrBLo: -1, OcrBHi: -1,
		Icr: -1, IcrHi: -1, IcpPort: -1,
		VectorOvf: 9, VectorCapt: -1, VectorCompA: -1, VectorCompB: -1,
		OcPinA: PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 3},
	}
	t1 := TimerLayout{
		Name: "Timer1", Bits: 16,
		TcntLo: b.alloc(), TcntHi: b.alloc(),
		Tccra: b.alloc(), Tccrb: b.alloc(),
		Timsk: t0.Timsk, Tifr: t0.Tifr,
		OcrALo: b.alloc(), OcrAHi: b.alloc(),
		OcrBLo: b.alloc(), OcrBHi: b.alloc(),
		Icr: b.alloc(), IcrHi: b.alloc(), IcpPort: portB.PinOff, IcpBit: 0,
		VectorOvf: 7, VectorCapt: 6, VectorCompA: 8, VectorCompB: -1,
		OcPinA: PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 1},
		OcPinB: PinRef{PortOff: -1},
	}

	u0 := UsartLayout{
		Name: "USART0",
		Udr: b.alloc(), Ucsra: b.alloc(), Ucsrb: b.alloc(),
		UcsrcOrUbrrh: b.alloc(), Ubrrl: b.alloc(),
		VectorRxc: 11, VectorTxc: 14, VectorUdre: 13,
	}

	return Layout{
		Sreg: sreg, Spl: spl, Sph: sph, Rampz: -1, Eind: -1, Spmcsr: spmcsr, Wdtcr: wdtcr,
		Ports:  []Port{portB, portC, portD},
		Timers: []TimerLayout{t0, t1},
		Usarts: []UsartLayout{u0},
	}
}

func layoutM328() Layout {
	b := &builder{}
	sreg := b.alloc()
	spl := b.alloc()
	sph := b.alloc()
	spmcsr := b.alloc()
	wdtcr := b.alloc()

	portB := Port{Name: "B", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}
	portC := Port{Name: "C", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}
	portD := Port{Name: "D", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}

	t0 := TimerLayout{
		Name: "Timer0", Bits: 8,
		TcntLo: b.alloc(), TcntHi: -1,
		Tccra: b.alloc(), Tccrb: b.alloc(),
		Timsk: b.alloc(), Tifr: b.alloc(),
		OcrALo: b.alloc(), OcrAHi: -1, OcrBLo: b.alloc(), OcrBHi: -1,
		Icr: -1, IcrHi: -1, IcpPort: -1,
		VectorOvf: 16, VectorCapt: -1, VectorCompA: 14, VectorCompB: 15,
		OcPinA: PinRef{PortOff: portD.PortOff, DdrOff: portD.DdrOff, Bit: 6},
		OcPinB: PinRef{PortOff: portD.PortOff, DdrOff: portD.DdrOff, Bit: 5},
	}
	t1 := TimerLayout{
		Name: "Timer1", Bits: 16,
		TcntLo: b.alloc(), TcntHi: b.alloc(),
		Tccra: b.alloc(), Tccrb: b.alloc(),
		Timsk: b.alloc(), Tifr: b.alloc(),
		OcrALo: b.alloc(), OcrAHi: b.alloc(),
		OcrBLo: b.alloc(), OcrBHi: b.alloc(),
		Icr: b.alloc(), IcrHi: b.alloc(), IcpPort: portB.PinOff, IcpBit: 0,
		VectorOvf: 13, VectorCapt: 10, VectorCompA: 11, VectorCompB: 12,
		OcPinA: PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 1},
		OcPinB: PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 2},
	}
	t2 := TimerLayout{
		Name: "Timer2", Bits: 8,
		TcntLo: b.alloc(), TcntHi: -1,
		Tccra: b.alloc(), Tccrb: b.alloc(),
		Timsk: b.alloc(), Tifr: b.alloc(),
		OcrALo: b.alloc(), OcrAHi: -1, OcrBLo: b.alloc(), OcrBHi: -1,
		Icr: -1, IcrHi: -1, IcpPort: -1,
		VectorOvf: 8, VectorCapt: -1, VectorCompA: 6, VectorCompB: 7,
		OcPinA: PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 3},
		OcPinB: PinRef{PortOff: portD.PortOff, DdrOff: portD.DdrOff, Bit: 3},
	}

	u0 := UsartLayout{
		Name: "USART0",
		Udr: b.alloc(), Ucsra: b.alloc(), Ucsrb: b.alloc(),
		UcsrcOrUbrrh: b.alloc(), Ubrrl: b.alloc(),
		VectorRxc: 18, VectorTxc: 20, VectorUdre: 19,
	}

	return Layout{
		Sreg: sreg, Spl: spl, Sph: sph, Rampz: -1, Eind: -1, Spmcsr: spmcsr, Wdtcr: wdtcr,
		Ports:  []Port{portB, portC, portD},
		Timers: []TimerLayout{t0, t1, t2},
		Usarts: []UsartLayout{u0},
	}
}

func layoutM2560() Layout {
	b := &builder{}
	sreg := b.alloc()
	spl := b.alloc()
	sph := b.alloc()
	rampz := b.alloc()
	eind := b.alloc()
	spmcsr := b.alloc()
	wdtcr := b.alloc()

	portA := Port{Name: "A", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}
	portB := Port{Name: "B", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}
	portC := Port{Name: "C", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}
	portD := Port{Name: "D", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}
	portE := Port{Name: "E", PinOff: b.alloc(), DdrOff: b.alloc(), PortOff: b.alloc()}

	mk8 := func(name string, ovf, compA, compB int, pinA, pinB PinRef) TimerLayout {
		return TimerLayout{
			Name: name, Bits: 8,
			TcntLo: b.alloc(), TcntHi: -1,
			Tccra: b.alloc(), Tccrb: b.alloc(),
			Timsk: b.alloc(), Tifr: b.alloc(),
			OcrALo: b.alloc(), OcrAHi: -1, OcrBLo: b.alloc(), OcrBHi: -1,
			Icr: -1, IcrHi: -1, IcpPort: -1,
			VectorOvf: ovf, VectorCapt: -1, VectorCompA: compA, VectorCompB: compB,
			OcPinA: pinA, OcPinB: pinB,
		}
	}
	mk16 := func(name string, ovf, capt, compA, compB int, icpPort, icpBit int, pinA, pinB PinRef) TimerLayout {
		return TimerLayout{
			Name: name, Bits: 16,
			TcntLo: b.alloc(), TcntHi: b.alloc(),
			Tccra: b.alloc(), Tccrb: b.alloc(),
			Timsk: b.alloc(), Tifr: b.alloc(),
			OcrALo: b.alloc(), OcrAHi: b.alloc(),
			OcrBLo: b.alloc(), OcrBHi: b.alloc(),
			Icr: b.alloc(), IcrHi: b.alloc(), IcpPort: icpPort, IcpBit: icpBit,
			VectorOvf: ovf, VectorCapt: capt, VectorCompA: compA, VectorCompB: compB,
			OcPinA: pinA, OcPinB: pinB,
		}
	}

	t0 := mk8("Timer0", 23, 21, 22,
		PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 7},
		PinRef{PortOff: -1, Bit: 5})
	t1 := mk16("Timer1", 28, 25, 26, 27, portD.PinOff, 4,
		PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 5},
		PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 6})
	t2 := mk8("Timer2", 11, 9, 10,
		PinRef{PortOff: portB.PortOff, DdrOff: portB.DdrOff, Bit: 4},
		PinRef{PortOff: -1, Bit: 6})
	t3 := mk16("Timer3", 36, 33, 34, 35, portE.PinOff, 7,
		PinRef{PortOff: portE.PortOff, DdrOff: portE.DdrOff, Bit: 3},
		PinRef{PortOff: portE.PortOff, DdrOff: portE.DdrOff, Bit: 4})

	u0 := UsartLayout{
		Name: "USART0",
		Udr: b.alloc(), Ucsra: b.alloc(), Ucsrb: b.alloc(),
		UcsrcOrUbrrh: b.alloc(), Ubrrl: b.alloc(),
		VectorRxc: 18, VectorTxc: 20, VectorUdre: 19,
	}

	return Layout{
		Sreg: sreg, Spl: spl, Sph: sph, Rampz: rampz, Eind: eind, Spmcsr: spmcsr, Wdtcr: wdtcr,
		Ports:  []Port{portA, portB, portC, portD, portE},
		Timers: []TimerLayout{t0, t1, t2, t3},
		Usarts: []UsartLayout{u0},
	}
}

func init() {
	register(Model{
		Name: "m8a", Signature: [3]byte{0x1e, 0x93, 0x07}, PCBits: 12,
		FlashWords: 4096, SRAMSize: 1024, EepromSize: 512, IoCount: 64,
		MaxFreqHz: 16_000_000, IvtStride: 2, ResetPC: 0,
		BootloaderSizes: []int{256, 512, 1024, 2048},
		Layout: layoutM8A,
	})
	register(Model{
		Name: "m328", Signature: [3]byte{0x1e, 0x95, 0x14}, PCBits: 14,
		FlashWords: 16384, SRAMSize: 2048, EepromSize: 1024, IoCount: 224,
		MaxFreqHz: 20_000_000, IvtStride: 2, ResetPC: 0,
		BootloaderSizes: []int{256, 512, 1024, 2048},
		Layout: layoutM328,
	})
	register(Model{
		Name: "m328p", Signature: [3]byte{0x1e, 0x95, 0x0f}, PCBits: 14,
		FlashWords: 16384, SRAMSize: 2048, EepromSize: 1024, IoCount: 224,
		MaxFreqHz: 20_000_000, IvtStride: 2, ResetPC: 0,
		BootloaderSizes: []int{256, 512, 1024, 2048},
		Layout: layoutM328,
	})
	register(Model{
		Name: "m2560", Signature: [3]byte{0x1e, 0x98, 0x01}, PCBits: 17,
		FlashWords: 131072, SRAMSize: 8192, EepromSize: 4096, IoCount: 416,
		MaxFreqHz: 16_000_000, IvtStride: 4, ResetPC: 0,
		BootloaderSizes: []int{1024, 2048, 4096, 8192},
		Layout: layoutM2560,
	})
}
