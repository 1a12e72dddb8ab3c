/*
   Waveform generation mode tables: the TOP source, OCR buffer update point
   and TOV set point for every WGM encoding, split into the 16-bit-counter
   table (WGM3:0) and the 8-bit-counter table (WGM2:0), following the
   standard ATmega Timer/Counter1 and Timer/Counter0 datasheet tables.

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

// WgmKind groups WGM encodings by the family of behavior the rest of the
// engine (compare-output actions, dual-slope counting) needs to branch on.
type WgmKind int

const (
	Normal WgmKind = iota
	CTC
	FastPWM
	PhaseCorrect
	PhaseFreqCorrect
)

// TopSource selects where a mode's TOP value comes from.
type TopSource int

const (
	FixedTop TopSource = iota
	OcrATop
	IcrTopSrc
)

// UpdatePoint names one of the four points in a timer period where OCR
// buffers latch and TOV can be set, per spec §4.6.
type UpdatePoint int

const (
	Immediate UpdatePoint = iota
	AtTop
	AtBottom
	AtMax
)

// ModeDesc fully describes one WGM encoding's behavior.
type ModeDesc struct {
	Kind      WgmKind
	Top       TopSource
	Fixed     uint32 // meaningful when Top == FixedTop
	UpdateAt  UpdatePoint
	TovAt     UpdatePoint
	DualSlope bool
}

// modes16 is indexed by WGM3:0 for 16-bit timers (Timer1/Timer3/Timer4/Timer5
// style units).
var modes16 = [16]ModeDesc{
	0:  {Kind: Normal, Top: FixedTop, Fixed: 0xFFFF, UpdateAt: Immediate, TovAt: AtMax},
	1:  {Kind: PhaseCorrect, Top: FixedTop, Fixed: 0x00FF, UpdateAt: AtTop, TovAt: AtBottom, DualSlope: true},
	2:  {Kind: PhaseCorrect, Top: FixedTop, Fixed: 0x01FF, UpdateAt: AtTop, TovAt: AtBottom, DualSlope: true},
	3:  {Kind: PhaseCorrect, Top: FixedTop, Fixed: 0x03FF, UpdateAt: AtTop, TovAt: AtBottom, DualSlope: true},
	4:  {Kind: CTC, Top: OcrATop, UpdateAt: Immediate, TovAt: AtMax},
	5:  {Kind: FastPWM, Top: FixedTop, Fixed: 0x00FF, UpdateAt: AtTop, TovAt: AtMax},
	6:  {Kind: FastPWM, Top: FixedTop, Fixed: 0x01FF, UpdateAt: AtTop, TovAt: AtMax},
	7:  {Kind: FastPWM, Top: FixedTop, Fixed: 0x03FF, UpdateAt: AtTop, TovAt: AtMax},
	8:  {Kind: PhaseFreqCorrect, Top: IcrTopSrc, UpdateAt: AtBottom, TovAt: AtBottom, DualSlope: true},
	9:  {Kind: PhaseFreqCorrect, Top: OcrATop, UpdateAt: AtBottom, TovAt: AtBottom, DualSlope: true},
	10: {Kind: PhaseCorrect, Top: IcrTopSrc, UpdateAt: AtTop, TovAt: AtBottom, DualSlope: true},
	11: {Kind: PhaseCorrect, Top: OcrATop, UpdateAt: AtTop, TovAt: AtBottom, DualSlope: true},
	12: {Kind: CTC, Top: IcrTopSrc, UpdateAt: Immediate, TovAt: AtMax},
	13: {Kind: Normal, Top: FixedTop, Fixed: 0xFFFF, UpdateAt: Immediate, TovAt: AtMax}, // reserved, falls back to Normal
	14: {Kind: FastPWM, Top: IcrTopSrc, UpdateAt: AtTop, TovAt: AtMax},
	15: {Kind: FastPWM, Top: OcrATop, UpdateAt: AtTop, TovAt: AtMax},
}

// modes8 is indexed by WGM2:0 for 8-bit timers (Timer0/Timer2 style units).
var modes8 = [8]ModeDesc{
	0: {Kind: Normal, Top: FixedTop, Fixed: 0xFF, UpdateAt: Immediate, TovAt: AtMax},
	1: {Kind: PhaseCorrect, Top: FixedTop, Fixed: 0xFF, UpdateAt: AtTop, TovAt: AtBottom, DualSlope: true},
	2: {Kind: CTC, Top: OcrATop, UpdateAt: Immediate, TovAt: AtMax},
	3: {Kind: FastPWM, Top: FixedTop, Fixed: 0xFF, UpdateAt: AtTop, TovAt: AtMax},
	4: {Kind: Normal, Top: FixedTop, Fixed: 0xFF, UpdateAt: Immediate, TovAt: AtMax}, // reserved
	5: {Kind: PhaseCorrect, Top: OcrATop, UpdateAt: AtTop, TovAt: AtBottom, DualSlope: true},
	6: {Kind: Normal, Top: FixedTop, Fixed: 0xFF, UpdateAt: Immediate, TovAt: AtMax}, // reserved
	7: {Kind: FastPWM, Top: OcrATop, UpdateAt: AtTop, TovAt: AtMax},
}

// prescaleDivisors is indexed by CS2:0 (the bottom three bits of TCCRnB),
// shared by every timer's clock-select field except the async Timer2 on
// parts that support it (not modelled).
var prescaleDivisors = [8]uint32{0, 1, 8, 64, 256, 1024, 0, 0} // 6,7 = external clock, not modelled
