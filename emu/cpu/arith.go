package cpu

import "github.com/mcusim/mcusim/emu/mcu"

func reg(m *mcu.MCU, r int) uint8      { return m.Mem.DmRead(r) }
func setReg(m *mcu.MCU, r int, v uint8) { m.Mem.DmWrite(r, v) }

// addFlags computes d+r+carryIn, sets H/V/N/Z/C/S and returns the result,
// the formulas every 8-bit AVR adder uses.
func addFlags(m *mcu.MCU, d, r uint8, carryIn bool) uint8 {
	var c uint8
	if carryIn {
		c = 1
	}
	res16 := uint16(d) + uint16(r) + uint16(c)
	res := uint8(res16)
	h := (d&0x8 != 0 && r&0x8 != 0) || (r&0x8 != 0 && res&0x8 == 0) || (res&0x8 == 0 && d&0x8 != 0)
	v := (d&0x80 != 0 && r&0x80 != 0 && res&0x80 == 0) || (d&0x80 == 0 && r&0x80 == 0 && res&0x80 != 0)
	carry := (d&0x80 != 0 && r&0x80 != 0) || (r&0x80 != 0 && res&0x80 == 0) || (res&0x80 == 0 && d&0x80 != 0)
	m.SetH(h)
	m.SetV(v)
	m.SetC(carry)
	m.UpdateSNVZ(res, true)
	return res
}

// subFlags computes d-r-carryIn (SUB/SBC/CP/CPC family). touchZ=false
// applies the SBC/CPC rule: Z is cleared on a nonzero result and otherwise
// left unchanged.
func subFlags(m *mcu.MCU, d, r uint8, carryIn bool, touchZ bool) uint8 {
	var c uint8
	if carryIn {
		c = 1
	}
	res := d - r - c
	h := (d&0x8 == 0 && r&0x8 != 0) || (r&0x8 != 0 && res&0x8 != 0) || (res&0x8 != 0 && d&0x8 == 0)
	v := (d&0x80 != 0 && r&0x80 == 0 && res&0x80 == 0) || (d&0x80 == 0 && r&0x80 != 0 && res&0x80 != 0)
	carry := (d&0x80 == 0 && r&0x80 != 0) || (r&0x80 != 0 && res&0x80 != 0) || (res&0x80 != 0 && d&0x80 == 0)
	m.SetH(h)
	m.SetV(v)
	m.SetC(carry)
	if touchZ {
		m.UpdateSNVZ(res, true)
	} else {
		m.UpdateSNVZ(res, false)
		if res != 0 {
			m.SetZ(false)
		}
	}
	return res
}

func iAdd(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	setReg(m, d, addFlags(m, reg(m, d), reg(m, r), false))
	return 0
}

func iAdc(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	setReg(m, d, addFlags(m, reg(m, d), reg(m, r), m.C()))
	return 0
}

func iSub(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	setReg(m, d, subFlags(m, reg(m, d), reg(m, r), false, true))
	return 0
}

func iSbc(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	setReg(m, d, subFlags(m, reg(m, d), reg(m, r), m.C(), false))
	return 0
}

func iSubi(m *mcu.MCU, op uint16) int {
	d := rd4(op)
	setReg(m, d, subFlags(m, reg(m, d), k8(op), false, true))
	return 0
}

func iSbci(m *mcu.MCU, op uint16) int {
	d := rd4(op)
	setReg(m, d, subFlags(m, reg(m, d), k8(op), m.C(), false))
	return 0
}

func iCp(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	subFlags(m, reg(m, d), reg(m, r), false, true)
	return 0
}

func iCpc(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	subFlags(m, reg(m, d), reg(m, r), m.C(), false)
	return 0
}

func iCpi(m *mcu.MCU, op uint16) int {
	d := rd4(op)
	subFlags(m, reg(m, d), k8(op), false, true)
	return 0
}

func iCpse(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	if reg(m, d) == reg(m, r) {
		return skipNext(m)
	}
	return 0
}

func iAnd(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	res := reg(m, d) & reg(m, r)
	setReg(m, d, res)
	m.SetV(false)
	m.UpdateSNVZ(res, true)
	return 0
}

func iAndi(m *mcu.MCU, op uint16) int {
	d := rd4(op)
	res := reg(m, d) & k8(op)
	setReg(m, d, res)
	m.SetV(false)
	m.UpdateSNVZ(res, true)
	return 0
}

func iOr(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	res := reg(m, d) | reg(m, r)
	setReg(m, d, res)
	m.SetV(false)
	m.UpdateSNVZ(res, true)
	return 0
}

func iOri(m *mcu.MCU, op uint16) int {
	d := rd4(op)
	res := reg(m, d) | k8(op)
	setReg(m, d, res)
	m.SetV(false)
	m.UpdateSNVZ(res, true)
	return 0
}

func iEor(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	res := reg(m, d) ^ reg(m, r)
	setReg(m, d, res)
	m.SetV(false)
	m.UpdateSNVZ(res, true)
	return 0
}

func iCom(m *mcu.MCU, op uint16) int {
	d := dBit(op)
	res := ^reg(m, d)
	setReg(m, d, res)
	m.SetC(true)
	m.SetV(false)
	m.UpdateSNVZ(res, true)
	return 0
}

func iNeg(m *mcu.MCU, op uint16) int {
	d := dBit(op)
	v := reg(m, d)
	res := subFlags(m, 0, v, false, true)
	setReg(m, d, res)
	m.SetC(res != 0)
	return 0
}

func iInc(m *mcu.MCU, op uint16) int {
	d := dBit(op)
	v := reg(m, d)
	res := v + 1
	setReg(m, d, res)
	m.SetV(v == 0x7F)
	m.UpdateSNVZ(res, true)
	return 0
}

func iDec(m *mcu.MCU, op uint16) int {
	d := dBit(op)
	v := reg(m, d)
	res := v - 1
	setReg(m, d, res)
	m.SetV(v == 0x80)
	m.UpdateSNVZ(res, true)
	return 0
}

func iMul(m *mcu.MCU, op uint16) int {
	d, r := rd5(op), rr5(op)
	res := uint16(reg(m, d)) * uint16(reg(m, r))
	setReg(m, 0, uint8(res))
	setReg(m, 1, uint8(res>>8))
	m.SetC(res&0x8000 != 0)
	m.SetZ(res == 0)
	return 1
}

func iMuls(m *mcu.MCU, op uint16) int {
	dReg := 16 + int(op>>4)&0xF
	rReg := 16 + int(op&0xF)
	sd := int8(reg(m, dReg))
	sr := int8(reg(m, rReg))
	res := int16(sd) * int16(sr)
	setReg(m, 0, uint8(res))
	setReg(m, 1, uint8(res>>8))
	m.SetC(uint16(res)&0x8000 != 0)
	m.SetZ(res == 0)
	return 1
}

func iMulsu(m *mcu.MCU, op uint16) int {
	d, r := rd3(op), rr3(op)
	sd := int8(reg(m, d))
	ur := reg(m, r)
	res := int16(sd) * int16(ur)
	setReg(m, 0, uint8(res))
	setReg(m, 1, uint8(res>>8))
	m.SetC(uint16(res)&0x8000 != 0)
	m.SetZ(res == 0)
	return 1
}

func fmulCommon(m *mcu.MCU, res16 int32) {
	c := res16&0x8000 != 0
	res16 <<= 1
	setReg(m, 0, uint8(res16))
	setReg(m, 1, uint8(res16>>8))
	m.SetC(c)
	m.SetZ(uint16(res16) == 0)
}

func iFmul(m *mcu.MCU, op uint16) int {
	d, r := rd3(op), rr3(op)
	fmulCommon(m, int32(reg(m, d))*int32(reg(m, r)))
	return 1
}

func iFmuls(m *mcu.MCU, op uint16) int {
	d, r := rd3(op), rr3(op)
	fmulCommon(m, int32(int8(reg(m, d)))*int32(int8(reg(m, r))))
	return 1
}

func iFmulsu(m *mcu.MCU, op uint16) int {
	d, r := rd3(op), rr3(op)
	fmulCommon(m, int32(int8(reg(m, d)))*int32(reg(m, r)))
	return 1
}

func iAdiw(m *mcu.MCU, op uint16) int {
	d := rdPair(op)
	k := uint16(k6(op))
	lo, hi := reg(m, d), reg(m, d+1)
	v := uint16(lo) | uint16(hi)<<8
	res := v + k
	setReg(m, d, uint8(res))
	setReg(m, d+1, uint8(res>>8))
	m.SetV(v&0x8000 == 0 && res&0x8000 != 0)
	m.SetC(res < v)
	m.SetN(res&0x8000 != 0)
	m.SetS(m.N() != m.V())
	m.SetZ(res == 0)
	return 1
}

func iSbiw(m *mcu.MCU, op uint16) int {
	d := rdPair(op)
	k := uint16(k6(op))
	lo, hi := reg(m, d), reg(m, d+1)
	v := uint16(lo) | uint16(hi)<<8
	res := v - k
	setReg(m, d, uint8(res))
	setReg(m, d+1, uint8(res>>8))
	m.SetV(v&0x8000 != 0 && res&0x8000 == 0)
	m.SetC(res > v)
	m.SetN(res&0x8000 != 0)
	m.SetS(m.N() != m.V())
	m.SetZ(res == 0)
	return 1
}

func iMovw(m *mcu.MCU, op uint16) int {
	d := int(op>>4) & 0xF * 2
	r := int(op&0xF) * 2
	setReg(m, d, reg(m, r))
	setReg(m, d+1, reg(m, r+1))
	return 0
}

func iLsr(m *mcu.MCU, op uint16) int {
	d := dBit(op)
	v := reg(m, d)
	m.SetC(v&1 != 0)
	res := v >> 1
	setReg(m, d, res)
	m.SetN(false)
	m.SetZ(res == 0)
	m.SetV(m.N() != m.C())
	m.SetS(m.N() != m.V())
	return 0
}

func iAsr(m *mcu.MCU, op uint16) int {
	d := dBit(op)
	v := reg(m, d)
	m.SetC(v&1 != 0)
	res := v>>1 | v&0x80
	setReg(m, d, res)
	m.UpdateSNVZ(res, true)
	m.SetV(m.N() != m.C())
	m.SetS(m.N() != m.V())
	return 0
}

func iRor(m *mcu.MCU, op uint16) int {
	d := dBit(op)
	v := reg(m, d)
	carryIn := m.C()
	m.SetC(v&1 != 0)
	res := v >> 1
	if carryIn {
		res |= 0x80
	}
	setReg(m, d, res)
	m.UpdateSNVZ(res, true)
	m.SetV(m.N() != m.C())
	m.SetS(m.N() != m.V())
	return 0
}

func iSwap(m *mcu.MCU, op uint16) int {
	d := dBit(op)
	v := reg(m, d)
	setReg(m, d, v<<4|v>>4)
	return 0
}
