/*
   Opcode dispatch table: maps every 16-bit instruction word to the
   instrFunc that executes it. Built once at package init by scanning
   mask/value patterns over the full opcode space, the same approach
   the AVR instruction set manual's bit layouts are written against.

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

package cpu

import "github.com/mcusim/mcusim/emu/mcu"

type opEntry struct {
	mask, value uint16
	fn          instrFunc
}

// iElpmImplicit is the implicit-R0 form of ELPM; LPM's implicit form is
// iLpm itself.
func iElpmImplicit(m *mcu.MCU, op uint16) int {
	z := ptrWord(m, regZ)
	full := uint32(rampz(m))<<16 | uint32(z)
	w := m.Mem.PmReadWord(int(full / 2))
	var b uint8
	if full&1 != 0 {
		b = uint8(w >> 8)
	} else {
		b = uint8(w)
	}
	setReg(m, 0, b)
	return 2
}

var opTable = []opEntry{
	{0xFC00, 0x0C00, iAdd},
	{0xFC00, 0x1C00, iAdc},
	{0xFC00, 0x1800, iSub},
	{0xFC00, 0x0800, iSbc},
	{0xF000, 0x5000, iSubi},
	{0xF000, 0x4000, iSbci},
	{0xFC00, 0x1400, iCp},
	{0xFC00, 0x0400, iCpc},
	{0xF000, 0x3000, iCpi},
	{0xFC00, 0x1000, iCpse},
	{0xFC00, 0x2000, iAnd},
	{0xF000, 0x7000, iAndi},
	{0xFC00, 0x2800, iOr},
	{0xF000, 0x6000, iOri},
	{0xFC00, 0x2400, iEor},
	{0xFE0F, 0x9400, iCom},
	{0xFE0F, 0x9401, iNeg},
	{0xFE0F, 0x9403, iInc},
	{0xFE0F, 0x940A, iDec},
	{0xFC00, 0x9C00, iMul},
	{0xFF00, 0x0200, iMuls},
	{0xFF88, 0x0300, iMulsu},
	{0xFF88, 0x0308, iFmul},
	{0xFF88, 0x0380, iFmuls},
	{0xFF88, 0x0388, iFmulsu},
	{0xFF00, 0x9600, iAdiw},
	{0xFF00, 0x9700, iSbiw},
	{0xFF00, 0x0100, iMovw},
	{0xFE0F, 0x9406, iLsr},
	{0xFE0F, 0x9405, iAsr},
	{0xFE0F, 0x9407, iRor},
	{0xFE0F, 0x9402, iSwap},
	{0xFE0F, 0x920F, iPush},
	{0xFE0F, 0x900F, iPop},

	{0xFF8F, 0x9408, iBset},
	{0xFF8F, 0x9488, iBclr},
	{0xFE08, 0xFA00, iBst},
	{0xFE08, 0xF800, iBld},
	{0xFF00, 0x9A00, iSbi},
	{0xFF00, 0x9800, iCbi},
	{0xFF00, 0x9900, iSbic},
	{0xFF00, 0x9B00, iSbis},
	{0xFE08, 0xFC00, iSbrc},
	{0xFE08, 0xFE00, iSbrs},
	{0xF800, 0xB000, iIn},
	{0xF800, 0xB800, iOut},

	{0xFC00, 0xF000, iBrbs},
	{0xFC00, 0xF400, iBrbc},

	{0xF000, 0xE000, iLdi},

	{0xFE0F, 0x9000, iLds},
	{0xFE0F, 0x9200, iSts},
	{0xFE0F, 0x900C, iLdX},
	{0xFE0F, 0x900D, iLdXInc},
	{0xFE0F, 0x900E, iLdXDec},
	{0xFE0F, 0x9009, iLdYInc},
	{0xFE0F, 0x900A, iLdYDec},
	{0xFE0F, 0x9001, iLdZInc},
	{0xFE0F, 0x9002, iLdZDec},
	{0xFE0F, 0x920C, iStX},
	{0xFE0F, 0x920D, iStXInc},
	{0xFE0F, 0x920E, iStXDec},
	{0xFE0F, 0x9209, iStYInc},
	{0xFE0F, 0x920A, iStYDec},
	{0xFE0F, 0x9201, iStZInc},
	{0xFE0F, 0x9202, iStZDec},
	// LD Rd,Y and LD Rd,Z (no displacement) are the q=0 case of LDD; one
	// handler covers both since qDisp(op) evaluates to 0 for that opcode.
	{0xD208, 0x8000, iLddZ},
	{0xD208, 0x8008, iLddY},
	{0xD208, 0x8200, iStdZ},
	{0xD208, 0x8208, iStdY},

	{0xFFFF, 0x95C8, iLpm},
	{0xFE0F, 0x9004, iLpmRd},
	{0xFE0F, 0x9005, iLpmRdInc},
	{0xFFFF, 0x95D8, iElpmImplicit},
	{0xFE0F, 0x9006, iElpmRd},
	{0xFE0F, 0x9007, iElpmRdInc},
	{0xFFFF, 0x95E8, iSpm},

	{0xF000, 0xC000, iRjmp},
	{0xF000, 0xD000, iRcall},
	{0xFE0E, 0x940C, iJmp},
	{0xFE0E, 0x940E, iCall},
	{0xFFFF, 0x9508, iRet},
	{0xFFFF, 0x9518, iReti},
	{0xFFFF, 0x9409, iIjmp},
	{0xFFFF, 0x9509, iIcall},
	{0xFFFF, 0x9419, iEijmp},
	{0xFFFF, 0x9519, iEicall},

	{0xFFFF, 0x0000, iNop},
	{0xFC00, 0x2C00, iMov},
	{0xFFFF, 0x9588, iSleep},
	{0xFFFF, 0x95A8, iWdr},
}

var table [65536]instrFunc

func init() {
	for _, e := range opTable {
		for op := 0; op < 65536; op++ {
			if uint16(op)&e.mask == e.value {
				table[op] = e.fn
			}
		}
	}
}
