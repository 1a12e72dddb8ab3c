package gdbrsp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcusim/mcusim/emu/mcu"
	"github.com/mcusim/mcusim/util/hex"
)

// regCount is GPR0..31 + SREG + SP + PC, the avr-gdb register map.
const regCount = 35

// Session binds one RSP command dispatcher to one MCU. Long (32-bit)
// software breakpoints need to remember their width between insertion and
// removal, which mcu.MCU's own breakpoint table does not track, so Session
// keeps that alongside it.
type Session struct {
	M    *mcu.MCU
	long map[int]bool // wordAddr of breakpoints spanning 2 flash words
}

// NewSession creates a dispatcher for m.
func NewSession(m *mcu.MCU) *Session {
	return &Session{M: m, long: make(map[int]bool)}
}

// Dispatch executes one already-unescaped, checksum-verified RSP command and
// returns the reply to frame back to the client. detach is true after a 'D'
// packet, telling the caller to close the connection.
func (sess *Session) Dispatch(payload []byte) (reply string, detach bool) {
	if len(payload) == 0 {
		return "", false
	}
	m := sess.M
	if m.State == mcu.Running && payload[0] != 0x03 {
		return encodeConsole("simulator running, ignoring command"), false
	}

	cmd := string(payload)
	switch {
	case cmd == "?":
		return "S05", false

	case cmd == "g":
		return sess.readAllRegs(), false

	case strings.HasPrefix(cmd, "G"):
		sess.writeAllRegs(cmd[1:])
		return "OK", false

	case strings.HasPrefix(cmd, "p"):
		n, err := strconv.ParseInt(cmd[1:], 16, 32)
		if err != nil || n < 0 || n >= regCount {
			return "E01", false
		}
		var sb strings.Builder
		hex.FormatBytes(&sb, false, sess.readReg(int(n)))
		return sb.String(), false

	case strings.HasPrefix(cmd, "P"):
		return sess.doWriteReg(cmd[1:]), false

	case strings.HasPrefix(cmd, "m"):
		return sess.doReadMem(cmd[1:]), false

	case strings.HasPrefix(cmd, "M"):
		return sess.doWriteMem(cmd[1:], false), false

	case strings.HasPrefix(cmd, "X"):
		return sess.doWriteMem(cmd[1:], true), false

	case strings.HasPrefix(cmd, "c"):
		sess.doContinue(cmd[1:])
		return "", false

	case strings.HasPrefix(cmd, "s"):
		sess.doStep(cmd[1:])
		return "", false

	case cmd == "D":
		return "OK", true

	case cmd == "k" || strings.HasPrefix(cmd, "vKill"):
		m.State = mcu.SimStop
		return "OK", false

	case cmd == "R" || strings.HasPrefix(cmd, "vRun"):
		m.Reset()
		if strings.HasPrefix(cmd, "vRun") {
			return "S05", false
		}
		return "", false

	case strings.HasPrefix(cmd, "Z0,"):
		return sess.insertBreakpoint(cmd[len("Z0,"):]), false

	case strings.HasPrefix(cmd, "z0,"):
		return sess.removeBreakpoint(cmd[len("z0,"):]), false

	case strings.HasPrefix(cmd, "q"):
		return sess.doQuery(cmd), false

	case strings.HasPrefix(cmd, "H"):
		return "OK", false

	default:
		return "", false
	}
}

func encodeConsole(msg string) string {
	var sb strings.Builder
	sb.WriteByte('O')
	hex.FormatBytes(&sb, false, []byte(msg))
	return sb.String()
}

func (sess *Session) readReg(n int) []byte {
	m := sess.M
	switch {
	case n >= 0 && n < 32:
		return []byte{m.Mem.DmRead(n)}
	case n == 32:
		return []byte{m.Mem.PeekByte(m.Mem.SfrOff + m.L.Sreg)}
	case n == 33:
		return []byte{
			m.Mem.PeekByte(m.Mem.SfrOff + m.L.Spl),
			m.Mem.PeekByte(m.Mem.SfrOff + m.L.Sph),
		}
	case n == 34:
		v := uint32(m.PC) << 1
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), 0}
	}
	return nil
}

func (sess *Session) writeReg(n int, data []byte) {
	m := sess.M
	switch {
	case n >= 0 && n < 32:
		if len(data) > 0 {
			m.Mem.DmWrite(n, data[0])
		}
	case n == 32:
		if len(data) > 0 {
			m.Mem.PokeByte(m.Mem.SfrOff+m.L.Sreg, data[0])
		}
	case n == 33:
		if len(data) > 0 {
			m.Mem.PokeByte(m.Mem.SfrOff+m.L.Spl, data[0])
		}
		if len(data) > 1 {
			m.Mem.PokeByte(m.Mem.SfrOff+m.L.Sph, data[1])
		}
	case n == 34:
		var v uint32
		for i := 0; i < len(data) && i < 4; i++ {
			v |= uint32(data[i]) << (8 * i)
		}
		m.PC = int(v >> 1)
	}
}

func (sess *Session) readAllRegs() string {
	var sb strings.Builder
	for n := 0; n < regCount; n++ {
		hex.FormatBytes(&sb, false, sess.readReg(n))
	}
	return sb.String()
}

func (sess *Session) writeAllRegs(payload string) {
	raw, err := hex.DecodeBytes(payload)
	if err != nil {
		return
	}
	off := 0
	widths := regWidths()
	for n := 0; n < regCount && off < len(raw); n++ {
		w := widths[n]
		end := off + w
		if end > len(raw) {
			end = len(raw)
		}
		sess.writeReg(n, raw[off:end])
		off = end
	}
}

func regWidths() [regCount]int {
	var w [regCount]int
	for i := 0; i < 32; i++ {
		w[i] = 1
	}
	w[32] = 1
	w[33] = 2
	w[34] = 4
	return w
}

func (sess *Session) doWriteReg(body string) string {
	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		return "E01"
	}
	n, err := strconv.ParseInt(body[:eq], 16, 32)
	if err != nil || n < 0 || n >= regCount {
		return "E01"
	}
	data, err := hex.DecodeBytes(body[eq+1:])
	if err != nil {
		return "E01"
	}
	sess.writeReg(int(n), data)
	return "OK"
}

// memRegion classifies an RSP address per spec §4.8's bits-23..16 scheme.
const (
	regionFlash = iota
	regionData
	regionEeprom
	regionInvalid
)

func classifyAddr(addr uint32) (region int, offset uint32) {
	a := addr & 0x00FFFFFF
	switch {
	case a < 0x008000:
		return regionFlash, a
	case a >= 0x800000 && a < 0x810000:
		return regionData, a - 0x800000
	case a >= 0x810000:
		return regionEeprom, a - 0x810000
	default:
		return regionInvalid, 0
	}
}

func parseAddrLen(s string) (addr uint32, length int, ok bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.ParseUint(parts[0], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	l, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(a), int(l), true
}

func (sess *Session) doReadMem(body string) string {
	addr, length, ok := parseAddrLen(body)
	if !ok {
		return "E01"
	}
	region, off := classifyAddr(addr)
	var data []byte
	switch region {
	case regionFlash:
		data = readFlashBytes(sess.M, int(off), length)
	case regionData:
		data = make([]byte, length)
		for i := 0; i < length; i++ {
			data[i] = sess.M.Mem.PeekByte(int(off) + i)
		}
	default:
		return "E01"
	}
	var sb strings.Builder
	hex.FormatBytes(&sb, false, data)
	return sb.String()
}

// readFlashBytes returns length bytes of flash starting at byte offset off,
// each word's two bytes swapped (high byte first) per spec §4.8.
func readFlashBytes(m *mcu.MCU, off, length int) []byte {
	startWord := off / 2
	endWord := (off + length - 1) / 2
	buf := make([]byte, 0, (endWord-startWord+1)*2)
	for w := startWord; w <= endWord; w++ {
		word := m.Mem.PmReadWordLive(w)
		buf = append(buf, byte(word>>8), byte(word))
	}
	skip := off - startWord*2
	end := skip + length
	if end > len(buf) {
		end = len(buf)
	}
	return buf[skip:end]
}

func (sess *Session) doWriteMem(body string, binary bool) string {
	colon := strings.IndexByte(body, ':')
	if colon < 0 {
		return "E01"
	}
	addr, length, ok := parseAddrLen(body[:colon])
	if !ok {
		return "E01"
	}
	var data []byte
	var err error
	if binary {
		data = Unescape([]byte(body[colon+1:]))
	} else {
		data, err = hex.DecodeBytes(body[colon+1:])
	}
	if err != nil || len(data) < length {
		return "E01"
	}
	data = data[:length]

	region, off := classifyAddr(addr)
	switch region {
	case regionFlash:
		writeFlashBytes(sess.M, int(off), data)
	case regionData:
		for i, b := range data {
			sess.M.Mem.PokeByte(int(off)+i, b)
		}
	default:
		return "E01"
	}
	return "OK"
}

// writeFlashBytes packs data into whole 16-bit words, merging with the
// existing word at an unaligned start or end per spec §4.8's "word-pair
// packing".
func writeFlashBytes(m *mcu.MCU, off int, data []byte) {
	startWord := off / 2
	startSkip := off - startWord*2
	end := off + len(data)
	endWord := (end - 1) / 2

	full := make([]byte, 0, (endWord-startWord+1)*2)
	for w := startWord; w <= endWord; w++ {
		word := m.Mem.PmReadWordLive(w)
		full = append(full, byte(word), byte(word>>8))
	}
	copy(full[startSkip:], data)
	for i, w := 0, startWord; w <= endWord; i, w = i+2, w+1 {
		word := uint16(full[i]) | uint16(full[i+1])<<8
		m.Mem.PmWriteWord(w, word)
	}
}

func (sess *Session) doContinue(arg string) {
	m := sess.M
	if arg != "" {
		if a, err := strconv.ParseUint(arg, 16, 32); err == nil {
			m.PC = int(a) >> 1
		}
	}
	m.State = mcu.Running
}

func (sess *Session) doStep(arg string) {
	m := sess.M
	if arg != "" {
		if a, err := strconv.ParseUint(arg, 16, 32); err == nil {
			m.PC = int(a) >> 1
		}
	}
	m.State = mcu.Step
}

func (sess *Session) insertBreakpoint(body string) string {
	addr, length, ok := parseAddrLen(body)
	if !ok {
		return "E01"
	}
	wordAddr := int(addr) / 2
	orig := sess.M.Mem.PmReadWordLive(wordAddr)
	isLong := mcu.IsLongOpcode(orig) && length > 2
	sess.M.InsertBreakpoint(wordAddr)
	if isLong {
		sess.M.Mem.MpmWriteWord(wordAddr+1, sess.M.Mem.PmReadWordLive(wordAddr+1))
		sess.M.Mem.PmWriteWord(wordAddr+1, 0)
		sess.long[wordAddr] = true
	}
	return "OK"
}

func (sess *Session) removeBreakpoint(body string) string {
	addr, _, ok := parseAddrLen(body)
	if !ok {
		return "E01"
	}
	wordAddr := int(addr) / 2
	if sess.M.Mem.PmReadWordLive(wordAddr) != mcu.BreakOpcode {
		return "E01"
	}
	sess.M.RemoveBreakpoint(wordAddr)
	if sess.long[wordAddr] {
		sess.M.Mem.PmWriteWord(wordAddr+1, sess.M.Mem.MpmReadWord(wordAddr+1))
		delete(sess.long, wordAddr)
	}
	return "OK"
}

func (sess *Session) doQuery(cmd string) string {
	switch {
	case cmd == "qC":
		return ""
	case cmd == "qOffsets":
		return "Text=0;Data=0;Bss=0"
	case strings.HasPrefix(cmd, "qSupported"):
		return fmt.Sprintf("PacketSize=%x", maxPacketSize)
	case cmd == "qfThreadInfo":
		return "m-1"
	case cmd == "qsThreadInfo":
		return "l"
	case strings.HasPrefix(cmd, "qSymbol:"):
		return "OK"
	default:
		return ""
	}
}

const maxPacketSize = 4096

// HandleOne blocks for the next packet from s's attached client, dispatches
// it against sess, and writes the reply. It implements spec §4.9's
// rsp_handle_one_packet() call, made once per tick while the MCU is Stopped
// with no multi-cycle instruction in flight. ok is false once the client
// has disconnected.
func HandleOne(s *Server, sess *Session) (ok bool) {
	payload, ok := s.NextPacket()
	if !ok {
		return false
	}
	reply, detach := sess.Dispatch(payload)
	if reply != "" {
		s.Reply(reply)
	}
	if detach {
		s.Detach()
	}
	return true
}

// StopReply is the packet the simulation loop sends once the MCU
// transitions back to Stopped after a 'c' or 's', following the GDB
// stop-reply convention ("?" and a fresh halt both report the same signal).
func StopReply() string {
	return "S05"
}
