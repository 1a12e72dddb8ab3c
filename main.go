/*
 * mcusim - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	config "github.com/mcusim/mcusim/config/configparser"
	"github.com/mcusim/mcusim/emu/gdbrsp"
	"github.com/mcusim/mcusim/emu/ihex"
	"github.com/mcusim/mcusim/emu/mcu"
	"github.com/mcusim/mcusim/emu/sim"
	"github.com/mcusim/mcusim/emu/vcd"
	"github.com/mcusim/mcusim/internal/console"
	"github.com/mcusim/mcusim/internal/luabridge"
	logger "github.com/mcusim/mcusim/util/logger"
)

const flashDumpPath = ".mcusim.flash"

const version = "mcusim 1.0"

func main() {
	optConfig := getopt.StringLong("conf", 'c', "mcusim.cfg", "Configuration file")
	optVersion := getopt.BoolLong("version", 0, "Print version and exit")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(2)
	}
	if *optVersion {
		fmt.Println(version)
		os.Exit(2)
	}

	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel}, new(bool))))

	cfg, err := config.Load(*optConfig)
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}

	m, err := mcu.New(cfg.MCU)
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}
	model, _ := mcu.Lookup(cfg.MCU)

	if cfg.HaveFreq {
		if cfg.MCUFreq == 0 {
			slog.Warn("mcu_freq is zero, ignoring")
		} else if cfg.MCUFreq > model.MaxFreqHz {
			slog.Warn("mcu_freq exceeds model maximum, ignoring", "requested", cfg.MCUFreq, "max", model.MaxFreqHz)
		} else {
			m.FreqHz = cfg.MCUFreq
		}
	}
	if cfg.HaveLock {
		m.SetLock(cfg.MCULockbits)
	}
	if cfg.HaveEfuse {
		m.SetFuse(mcu.FuseExt, cfg.MCUEfuse)
	}
	if cfg.HaveHfuse {
		m.SetFuse(mcu.FuseHigh, cfg.MCUHfuse)
	}
	if cfg.HaveLfuse {
		m.SetFuse(mcu.FuseLow, cfg.MCULfuse)
	}

	if err := loadFirmware(m, cfg); err != nil {
		slog.Error("firmware load failed", "err", err)
		os.Exit(1)
	}

	var vcdWriter *vcd.Writer
	if cfg.VCDFile != "" {
		vcdWriter, err = openVCD(m, cfg)
		if err != nil {
			slog.Error("vcd open failed", "err", err)
		}
	}

	var gdbServer *gdbrsp.Server
	if !cfg.FirmwareTest {
		gdbServer, err = gdbrsp.Listen(int(cfg.RSPPort))
		if err != nil {
			slog.Error("rsp listen failed", "err", err)
			os.Exit(1)
		}
	}

	s := sim.New(m, gdbServer, vcdWriter, cfg.FirmwareTest)
	m.Intr.TrapAtISR = cfg.TrapAtISR
	if len(cfg.LuaModels) > 0 {
		bridge, err := luabridge.Load(cfg.LuaModels)
		if err != nil {
			slog.Error("lua model load failed", "err", err)
			os.Exit(1)
		}
		s.LuaTick = bridge.Tick
	}

	if cfg.FirmwareTest {
		m.State = mcu.Running
	} else {
		m.State = mcu.Stopped
	}

	installDumpHandler(m)

	if gdbServer != nil {
		go func() {
			if err := gdbServer.Accept(); err != nil {
				slog.Warn("rsp accept failed", "err", err)
			}
		}()
	}

	s.Start()
	if !cfg.FirmwareTest {
		console.Run(s)
	}
	s.Stop()

	if vcdWriter != nil {
		vcdWriter.Close()
	}
	_ = ihex.DumpFlashFile(m, flashDumpPath)

	if m.State == mcu.TestFail {
		os.Exit(1)
	}
}

func loadFirmware(m *mcu.MCU, cfg *config.Config) error {
	path := cfg.FirmwareFile
	if !cfg.ResetFlash {
		if _, err := os.Stat(flashDumpPath); err == nil {
			path = flashDumpPath
		}
	}
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := ihex.Parse(f)
	if err != nil {
		return err
	}
	return ihex.LoadFlash(m, recs)
}

func openVCD(m *mcu.MCU, cfg *config.Config) (*vcd.Writer, error) {
	f, err := os.Create(cfg.VCDFile)
	if err != nil {
		return nil, err
	}
	entries, err := vcd.EntriesFromNames(m, cfg.DumpRegs)
	if err != nil {
		f.Close()
		return nil, err
	}
	return vcd.New(f, cfg.MCU, m.FreqHz, entries)
}

func installDumpHandler(m *mcu.MCU) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGABRT, syscall.SIGQUIT, syscall.SIGSEGV, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Warn("signal received, dumping flash", "path", flashDumpPath)
		_ = ihex.DumpFlashFile(m, flashDumpPath)
		os.Exit(1)
	}()
}
