/*
   Opcode field extraction: every AVR instruction word packs its register
   and immediate operands into a small set of recurring bit layouts. These
   helpers decode those layouts once so the exec_* files read as plain
   register/immediate arithmetic.

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

// rd5/rr5 decode the 5-bit destination/source register fields common to
// two-operand instructions (ADD, AND, MOV, CP, ...).
func rd5(op uint16) int { return int(op>>4) & 0x1F }
func rr5(op uint16) int { return int(op&0xF) | int(op>>5)&0x10 }

// rd4 is the 4-bit destination field used by immediate instructions
// (ANDI, ORI, SUBI, CPI, LDI), addressing R16-R31 only.
func rd4(op uint16) int { return 16 + int(op>>4)&0xF }

// k8 is the 8-bit immediate split across bits 11:8 and 3:0.
func k8(op uint16) uint8 { return uint8(op&0xF) | uint8(op>>4)&0xF0 }

// rdPair/k6 decode ADIW/SBIW's register-pair index (24,26,28,30) and
// 6-bit immediate.
func rdPair(op uint16) int { return 24 + 2*int(op>>4)&0x6 }
func k6(op uint16) uint8   { return uint8(op&0xF) | uint8(op>>2)&0x30 }

// rd3/rr3 decode MULS/MULSU/FMUL-family 3-bit register fields, R16-R23.
func rd3(op uint16) int { return 16 + int(op>>4)&0x7 }
func rr3(op uint16) int { return 16 + int(op&0x7) }

// branchOffset7 sign-extends BRBS/BRBC's 7-bit relative offset.
func branchOffset7(op uint16) int {
	k := int(op>>3) & 0x7F
	if k&0x40 != 0 {
		k -= 0x80
	}
	return k
}

// jmpOffset12 sign-extends RJMP/RCALL's 12-bit relative offset.
func jmpOffset12(op uint16) int {
	k := int(op & 0xFFF)
	if k&0x800 != 0 {
		k -= 0x1000
	}
	return k
}

// bitNum3 decodes the 3-bit bit index common to SBI/CBI/SBIC/SBIS, the
// skip-bit family, BST/BLD and BRBS/BRBC, all of which place it in bits 2:0.
func bitNum3(op uint16) int { return int(op & 0x7) }

// bitNum3High decodes BSET/BCLR's 3-bit SREG index, which sits in bits 6:4
// instead of 2:0.
func bitNum3High(op uint16) int { return int(op>>4) & 0x7 }

// ioAddr6 decodes IN/OUT's 6-bit I/O address.
func ioAddr6(op uint16) int { return int(op&0xF) | int(op>>5)&0x30 }

// ioAddr5 decodes SBI/CBI/SBIC/SBIS's 5-bit I/O address.
func ioAddr5(op uint16) int { return int(op>>3) & 0x1F }

// dBit decodes the destination register for a single-operand 5-bit-field
// instruction (COM, NEG, INC, DEC, LSR, ASR, ROR, SWAP, PUSH, POP, ...).
func dBit(op uint16) int { return int(op>>4) & 0x1F }
