/*
   Operator console: an interactive line-editing REPL for inspecting and
   driving a simulation independently of an attached GDB client.

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

// Package console implements a small operator REPL over a running
// simulation: register/memory inspection, breakpoint management and
// run/step control, independent of whatever GDB client may be attached.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/mcusim/mcusim/emu/mcu"
	"github.com/mcusim/mcusim/emu/sim"
)

var commandNames = []string{
	"continue", "step", "stop", "break", "delete", "regs", "print", "quit", "help",
}

// Run starts the interactive console loop against s, blocking until the
// operator quits or the input stream closes. Mirrors the teacher's
// reader.ConsoleReader shape: liner for history/completion, one command
// per prompt.
func Run(s *sim.Sim) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		var out []string
		for _, c := range commandNames {
			if strings.HasPrefix(c, partial) {
				out = append(out, c)
			}
		}
		return out
	})

	for {
		input, err := line.Prompt("mcusim> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("console: error reading line", "err", err)
			return
		}
		line.AppendHistory(input)

		quit, err := dispatch(strings.TrimSpace(input), s)
		if err != nil {
			fmt.Println("error: " + err.Error())
		}
		if quit {
			return
		}
	}
}

func dispatch(input string, s *sim.Sim) (quit bool, err error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "continue", "c":
		s.M.State = mcu.Running
		fmt.Println("running")
	case "step", "s":
		s.M.State = mcu.Step
		s.Run()
	case "stop":
		s.M.State = mcu.Stopped
	case "break", "b":
		addr, err := parseAddr(args)
		if err != nil {
			return false, err
		}
		s.M.InsertBreakpoint(addr)
		fmt.Printf("breakpoint set at word %#x\n", addr)
	case "delete", "d":
		addr, err := parseAddr(args)
		if err != nil {
			return false, err
		}
		s.M.RemoveBreakpoint(addr)
	case "regs":
		printRegs(s.M)
	case "print", "p":
		if len(args) != 1 {
			return false, errors.New("usage: print <register>")
		}
		printNamedReg(s.M, args[0])
	case "quit", "q":
		return true, nil
	case "help":
		fmt.Println(strings.Join(commandNames, " "))
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func parseAddr(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("usage: break <word-address>")
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", args[0], err)
	}
	return int(v), nil
}

func printRegs(m *mcu.MCU) {
	sp := int(m.Mem.PeekByte(m.Mem.SfrOff+m.L.Spl)) | int(m.Mem.PeekByte(m.Mem.SfrOff+m.L.Sph))<<8
	sreg := m.Mem.PeekByte(m.Mem.SfrOff + m.L.Sreg)
	fmt.Printf("PC=%#06x SP=%#04x SREG=%#02x\n", m.PC, sp, sreg)
	for i := 0; i < 32; i++ {
		fmt.Printf("r%-2d=%#02x ", i, m.Mem.PeekByte(i))
		if i%8 == 7 {
			fmt.Println()
		}
	}
}

func printNamedReg(m *mcu.MCU, name string) {
	addr, bit, ok := m.LookupRegister(strings.ToUpper(name))
	if !ok {
		fmt.Printf("unknown register %q\n", name)
		return
	}
	if bit >= 0 {
		fmt.Printf("%s = %v\n", name, m.Mem.PeekBit(addr, bit))
		return
	}
	fmt.Printf("%s = %#02x\n", name, m.Mem.PeekByte(addr))
}
