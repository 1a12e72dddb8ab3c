package mcu

// BreakOpcode is the AVR BREAK instruction (1001 0101 1001 1000).
const BreakOpcode uint16 = 0x9598

// IsLongOpcode reports whether word is the first word of a 32-bit
// instruction (JMP, CALL, LDS Rd,k or STS k,Rd), so callers know to fetch
// and account for a second instruction word.
func IsLongOpcode(word uint16) bool {
	if word&0xFE0F == 0x9000 || word&0xFE0F == 0x9200 { // LDS / STS
		return true
	}
	if word&0xFE0E == 0x940C || word&0xFE0E == 0x940E { // JMP / CALL
		return true
	}
	return false
}

// InsertBreakpoint saves the opcode at wordAddr into shadow flash and
// replaces it with BREAK, matching the RSP 'Z0' insertion described in
// spec §4.8. Re-inserting at an address already trapped is a no-op.
func (m *MCU) InsertBreakpoint(wordAddr int) {
	if m.Mem.PmReadWordLive(wordAddr) == BreakOpcode && m.breakpointSet(wordAddr) {
		return
	}
	orig := m.Mem.Flash[wordAddr]
	m.Mem.MpmWriteWord(wordAddr, orig)
	m.Mem.Flash[wordAddr] = BreakOpcode
	m.breakpoints[wordAddr] = true
}

// RemoveBreakpoint restores the original opcode at wordAddr from shadow
// flash ('z0').
func (m *MCU) RemoveBreakpoint(wordAddr int) {
	if !m.breakpointSet(wordAddr) {
		return
	}
	m.Mem.Flash[wordAddr] = m.Mem.MpmReadWord(wordAddr)
	delete(m.breakpoints, wordAddr)
}

func (m *MCU) breakpointSet(wordAddr int) bool {
	return m.breakpoints[wordAddr]
}

// BreakpointAddrs returns every word address currently trapped, for the
// console's breakpoint listing and for save/restore around a flash reload.
func (m *MCU) BreakpointAddrs() []int {
	addrs := make([]int, 0, len(m.breakpoints))
	for a := range m.breakpoints {
		addrs = append(addrs, a)
	}
	return addrs
}
