/*
   GDB remote serial protocol: packet framing, checksum and escaping.

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

// Package gdbrsp implements the GDB remote serial protocol server: packet
// framing, register/memory access and breakpoint commands operating
// directly on an mcu.MCU.
package gdbrsp

import (
	"strings"

	"github.com/mcusim/mcusim/util/hex"
)

const escapeXOR = 0x20

func needsEscape(b byte) bool {
	switch b {
	case '$', '#', '*', '}':
		return true
	default:
		return false
	}
}

// Frame wraps payload as "$<escaped payload>#<checksum>", where checksum is
// the mod-256 sum of the escaped bytes actually transmitted.
func Frame(payload []byte) string {
	var sb strings.Builder
	sb.WriteByte('$')
	var sum byte
	for _, b := range payload {
		if needsEscape(b) {
			sb.WriteByte('}')
			sum += '}'
			eb := b ^ escapeXOR
			sb.WriteByte(eb)
			sum += eb
			continue
		}
		sb.WriteByte(b)
		sum += b
	}
	sb.WriteByte('#')
	hex.FormatByte(&sb, sum)
	return sb.String()
}

// checksum sums the escaped bytes between '$' and '#', mod 256.
func checksum(escaped []byte) byte {
	var sum byte
	for _, b := range escaped {
		sum += b
	}
	return sum
}

// Unescape reverses the '}'-prefix/XOR escaping rule on a raw payload body.
func Unescape(body []byte) []byte {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		b := body[i]
		if b == '}' && i+1 < len(body) {
			i++
			out = append(out, body[i]^escapeXOR)
			continue
		}
		out = append(out, b)
	}
	return out
}
