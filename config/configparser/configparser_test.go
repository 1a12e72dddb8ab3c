/*
 * mcusim - Configuration file parser test set.
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

package configparser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mcusim.conf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadBasicKeys(t *testing.T) {
	path := writeTempConfig(t, `
# sample configuration
mcu m328p
mcu_freq 16000000
firmware_file blink.hex
firmware_test yes
rsp_port 12750
trap_at_isr no
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MCU != "m328p" {
		t.Errorf("MCU = %q, want m328p", cfg.MCU)
	}
	if !cfg.HaveFreq || cfg.MCUFreq != 16_000_000 {
		t.Errorf("MCUFreq = %d (have=%v), want 16000000", cfg.MCUFreq, cfg.HaveFreq)
	}
	if cfg.FirmwareFile != "blink.hex" {
		t.Errorf("FirmwareFile = %q, want blink.hex", cfg.FirmwareFile)
	}
	if !cfg.FirmwareTest {
		t.Errorf("FirmwareTest = false, want true")
	}
	if cfg.RSPPort != 12750 {
		t.Errorf("RSPPort = %d, want 12750", cfg.RSPPort)
	}
	if cfg.TrapAtISR {
		t.Errorf("TrapAtISR = true, want false")
	}
}

func TestLoadRepeatableKeys(t *testing.T) {
	path := writeTempConfig(t, `
lua_model a.lua
lua_model b.lua
dump_reg PORTB
dump_reg OCR1A
dump_reg TIFR0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.LuaModels) != 2 || cfg.LuaModels[0] != "a.lua" || cfg.LuaModels[1] != "b.lua" {
		t.Errorf("LuaModels = %v, want [a.lua b.lua]", cfg.LuaModels)
	}
	if len(cfg.DumpRegs) != 3 {
		t.Errorf("DumpRegs = %v, want 3 entries", cfg.DumpRegs)
	}
}

func TestLoadFuseAndLockHex(t *testing.T) {
	path := writeTempConfig(t, `
mcu_lockbits 0x3f
mcu_efuse 0xFF
mcu_hfuse 0xD9
mcu_lfuse 0x62
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MCULockbits != 0x3F {
		t.Errorf("MCULockbits = %#x, want 0x3f", cfg.MCULockbits)
	}
	if cfg.MCUEfuse != 0xFF || cfg.MCUHfuse != 0xD9 || cfg.MCULfuse != 0x62 {
		t.Errorf("fuse bytes = %#x/%#x/%#x, want 0xff/0xd9/0x62", cfg.MCUEfuse, cfg.MCUHfuse, cfg.MCULfuse)
	}
}

func TestLoadCommentsAndBlankLines(t *testing.T) {
	path := writeTempConfig(t, "\n# just a comment\n\nmcu m8a   # trailing comment\n\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MCU != "m8a" {
		t.Errorf("MCU = %q, want m8a", cfg.MCU)
	}
}

func TestLoadUnknownKeyFails(t *testing.T) {
	path := writeTempConfig(t, "bogus_key 1\n")
	if _, err := Load(path); err == nil {
		t.Errorf("Load with unknown key should fail")
	}
}

func TestLoadBadRspPortRangeFails(t *testing.T) {
	path := writeTempConfig(t, "rsp_port 80\n")
	if _, err := Load(path); err == nil {
		t.Errorf("Load with rsp_port below 1024 should fail")
	}
	path = writeTempConfig(t, "rsp_port 70000\n")
	if _, err := Load(path); err == nil {
		t.Errorf("Load with rsp_port above 65535 should fail")
	}
}

func TestLoadBadBoolFails(t *testing.T) {
	path := writeTempConfig(t, "firmware_test maybe\n")
	if _, err := Load(path); err == nil {
		t.Errorf("Load with invalid bool should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Errorf("Load of missing file should fail")
	}
}
