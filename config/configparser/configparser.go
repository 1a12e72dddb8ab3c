/*
 * mcusim - Configuration file parser
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package configparser loads the mcusim key/value configuration file: one
// recognized key per line, '#' comments and blank lines ignored.
package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Config holds every recognized key's parsed value. Keys never present in
// the file keep their zero value; callers apply their own defaults.
type Config struct {
	MCU string

	MCUFreq     uint64
	HaveFreq    bool
	MCULockbits byte
	HaveLock    bool
	MCUEfuse    byte
	HaveEfuse   bool
	MCUHfuse    byte
	HaveHfuse   bool
	MCULfuse    byte
	HaveLfuse   bool

	FirmwareFile string
	FirmwareTest bool
	ResetFlash   bool

	RSPPort uint32

	LuaModels []string
	VCDFile   string
	DumpRegs  []string

	TrapAtISR bool
}

var lineNumber int

// Load reads and parses the configuration file at name.
func Load(name string) (*Config, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := &Config{}
	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		line := &optionLine{line: raw}
		if perr := line.parseLine(cfg); perr != nil {
			return nil, perr
		}
		if err != nil && errors.Is(err, io.EOF) {
			break
		}
	}
	return cfg, nil
}

// Current option line being parsed.
type optionLine struct {
	line string
	pos  int
}

func (l *optionLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *optionLine) isEOL() bool {
	if l.pos >= len(l.line) {
		return true
	}
	return l.line[l.pos] == '#'
}

func (l *optionLine) getNext(inQuote bool) byte {
	l.pos++
	if l.isEOL() {
		return 0
	}
	by := l.line[l.pos]
	if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || inQuote {
		return by
	}
	return 0
}

func (l *optionLine) getPeek() byte {
	if l.pos+1 >= len(l.line) {
		return 0
	}
	return l.line[l.pos+1]
}

// getName grabs the key token: a run of letters, digits and underscores.
func (l *optionLine) getName() string {
	start := l.pos
	for l.pos < len(l.line) {
		by := l.line[l.pos]
		if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || by == '_' {
			l.pos++
			continue
		}
		break
	}
	return l.line[start:l.pos]
}

// parseQuoteString reads a bare word, or a "quoted string" where embedded
// whitespace is kept. Mirrors the teacher's parseQuoteString.
func (l *optionLine) parseQuoteString() string {
	inQuote := false
	value := ""
	if l.pos < len(l.line) && l.line[l.pos] == '"' {
		inQuote = true
		l.pos++
	}
	for ; l.pos < len(l.line); l.pos++ {
		by := l.line[l.pos]
		if by == '"' && inQuote {
			l.pos++
			return value
		}
		if !inQuote && (by == '#' || unicode.IsSpace(rune(by))) {
			return value
		}
		value += string(by)
	}
	return value
}

func (l *optionLine) parseLine(cfg *Config) error {
	l.skipSpace()
	if l.isEOL() {
		return nil
	}
	key := l.getName()
	if key == "" {
		return fmt.Errorf("invalid configuration line %d", lineNumber)
	}
	l.skipSpace()

	switch strings.ToLower(key) {
	case "mcu":
		cfg.MCU = l.parseQuoteString()
	case "mcu_freq":
		v, err := l.parseUint(64)
		if err != nil {
			return err
		}
		cfg.MCUFreq = v
		cfg.HaveFreq = true
	case "mcu_lockbits":
		v, err := l.parseUint(8)
		if err != nil {
			return err
		}
		cfg.MCULockbits = byte(v)
		cfg.HaveLock = true
	case "mcu_efuse":
		v, err := l.parseUint(8)
		if err != nil {
			return err
		}
		cfg.MCUEfuse = byte(v)
		cfg.HaveEfuse = true
	case "mcu_hfuse":
		v, err := l.parseUint(8)
		if err != nil {
			return err
		}
		cfg.MCUHfuse = byte(v)
		cfg.HaveHfuse = true
	case "mcu_lfuse":
		v, err := l.parseUint(8)
		if err != nil {
			return err
		}
		cfg.MCULfuse = byte(v)
		cfg.HaveLfuse = true
	case "firmware_file":
		cfg.FirmwareFile = l.parseQuoteString()
	case "firmware_test":
		b, err := l.parseBool()
		if err != nil {
			return err
		}
		cfg.FirmwareTest = b
	case "reset_flash":
		b, err := l.parseBool()
		if err != nil {
			return err
		}
		cfg.ResetFlash = b
	case "rsp_port":
		v, err := l.parseUint(32)
		if err != nil {
			return err
		}
		if v <= 1024 || v > 65535 {
			return fmt.Errorf("rsp_port out of range (1024,65535], line %d", lineNumber)
		}
		cfg.RSPPort = uint32(v)
	case "lua_model":
		if len(cfg.LuaModels) >= 256 {
			slog.Warn("too many lua_model entries, ignoring", "line", lineNumber)
			return nil
		}
		cfg.LuaModels = append(cfg.LuaModels, l.parseQuoteString())
	case "vcd_file":
		cfg.VCDFile = l.parseQuoteString()
	case "dump_reg":
		cfg.DumpRegs = append(cfg.DumpRegs, l.parseQuoteString())
	case "trap_at_isr":
		b, err := l.parseBool()
		if err != nil {
			return err
		}
		cfg.TrapAtISR = b
	default:
		return fmt.Errorf("unknown configuration key %q, line %d", key, lineNumber)
	}

	l.skipSpace()
	if !l.isEOL() {
		return fmt.Errorf("unexpected trailing data after %q, line %d", key, lineNumber)
	}
	return nil
}

func (l *optionLine) parseUint(bits int) (uint64, error) {
	tok := l.parseQuoteString()
	v, err := strconv.ParseUint(tok, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q, line %d: %w", tok, lineNumber, err)
	}
	return v, nil
}

func (l *optionLine) parseBool() (bool, error) {
	tok := strings.ToLower(l.parseQuoteString())
	switch tok {
	case "yes", "true", "1", "on":
		return true, nil
	case "no", "false", "0", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q, line %d", tok, lineNumber)
	}
}
