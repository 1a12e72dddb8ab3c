/*
   Intel-HEX record parsing and serialization: loads a firmware image into
   flash and dumps flash back out on clean exit, per the persisted-state
   contract (.mcusim.flash).

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

package ihex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcusim/mcusim/emu/mcu"
	"github.com/mcusim/mcusim/util/hex"
)

const (
	RecData = 0
	RecEOF  = 1
)

// Record is one line of an Intel-HEX file, already checksum-verified.
type Record struct {
	Addr uint16
	Type uint8
	Data []byte
}

// Parse reads Intel-HEX records from r, verifying each record's checksum.
func Parse(r io.Reader) ([]Record, error) {
	var recs []Record
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
		if rec.Type == RecEOF {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func parseLine(line string) (Record, error) {
	if len(line) < 11 || line[0] != ':' {
		return Record{}, fmt.Errorf("ihex: malformed record %q", line)
	}
	raw, err := hex.DecodeBytes(line[1:])
	if err != nil {
		return Record{}, fmt.Errorf("ihex: %w", err)
	}
	if len(raw) < 5 {
		return Record{}, fmt.Errorf("ihex: record too short %q", line)
	}
	dataLen := int(raw[0])
	if len(raw) != dataLen+5 {
		return Record{}, fmt.Errorf("ihex: length mismatch %q", line)
	}
	addr := uint16(raw[1])<<8 | uint16(raw[2])
	typ := raw[3]
	data := raw[4 : 4+dataLen]
	cksum := raw[4+dataLen]

	var sum byte
	for _, b := range raw[:4+dataLen] {
		sum += b
	}
	if byte(-int8(sum)) != cksum {
		return Record{}, fmt.Errorf("ihex: checksum mismatch in record %q", line)
	}
	return Record{Addr: addr, Type: typ, Data: append([]byte(nil), data...)}, nil
}

// LoadFlash writes the records' data bytes into m's flash as little-endian
// 16-bit words, byte-addressed per the record's own Addr field.
func LoadFlash(m *mcu.MCU, recs []Record) error {
	for _, rec := range recs {
		if rec.Type != RecData {
			continue
		}
		for i := 0; i < len(rec.Data); {
			byteAddr := int(rec.Addr) + i
			wordAddr := byteAddr / 2
			lo := rec.Data[i]
			if byteAddr%2 != 0 {
				// Odd address: merge into the high byte of the word
				// already in flash, then continue word-aligned.
				existing := m.Mem.PmReadWordLive(wordAddr)
				m.Mem.PmWriteWord(wordAddr, existing&0x00FF|uint16(lo)<<8)
				i++
				continue
			}
			hi := byte(0)
			if i+1 < len(rec.Data) {
				hi = rec.Data[i+1]
			}
			m.Mem.PmWriteWord(wordAddr, uint16(lo)|uint16(hi)<<8)
			i += 2
		}
	}
	return nil
}

// DumpFlash serializes m's full flash contents as Intel-HEX data records
// (16 bytes per line) terminated by an EOF record, for .mcusim.flash.
func DumpFlash(m *mcu.MCU, w io.Writer) error {
	bw := bufio.NewWriter(w)
	const perLine = 16
	end := m.Mem.FlashEndWord()
	buf := make([]byte, 0, perLine)
	addr := 0
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := writeRecord(bw, uint16(addr-len(buf)), RecData, buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}
	for word := 0; word <= end; word++ {
		w16 := m.Mem.PmReadWordLive(word)
		buf = append(buf, byte(w16), byte(w16>>8))
		addr += 2
		if len(buf) == perLine {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := writeRecord(bw, 0, RecEOF, nil); err != nil {
		return err
	}
	return bw.Flush()
}

func writeRecord(w io.Writer, addr uint16, typ uint8, data []byte) error {
	var sum byte
	sum += byte(len(data))
	sum += byte(addr >> 8)
	sum += byte(addr)
	sum += typ
	for _, b := range data {
		sum += b
	}
	cksum := byte(-int8(sum))

	var sb strings.Builder
	sb.WriteByte(':')
	hex.FormatByte(&sb, byte(len(data)))
	hex.FormatByte(&sb, byte(addr>>8))
	hex.FormatByte(&sb, byte(addr))
	hex.FormatByte(&sb, typ)
	hex.FormatBytes(&sb, false, data)
	hex.FormatByte(&sb, cksum)
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// DumpFlashFile writes m's flash to path, used for the .mcusim.flash
// persisted-state file on clean exit or signal.
func DumpFlashFile(m *mcu.MCU, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return DumpFlash(m, f)
}
