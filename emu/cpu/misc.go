package cpu

import "github.com/mcusim/mcusim/emu/mcu"

func iNop(m *mcu.MCU, op uint16) int { return 0 }

func iMov(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	setReg(m, d, reg(m, r))
	return 0
}

// iSleep transitions the MCU to the Sleeping state; HandleIRQ wakes it on
// the next dispatched interrupt (spec §3 state machine).
func iSleep(m *mcu.MCU, op uint16) int {
	m.State = mcu.Sleeping
	return 0
}

func iWdr(m *mcu.MCU, op uint16) int {
	watchdogReset(m)
	return 0
}

// watchdogReset is set by the sim package at startup to avoid an import
// cycle between cpu and watchdog (watchdog.Reset takes an *mcu.MCU, cpu
// only needs to call it).
var watchdogReset = func(m *mcu.MCU) {}

// SetWatchdogReset lets the simulation loop wire in the real watchdog
// reset function without cpu importing the watchdog package directly.
func SetWatchdogReset(fn func(m *mcu.MCU)) {
	watchdogReset = fn
}
