package emu

import "github.com/sarchlab/xtsim/insts"

// Handler surcharges for the 0xF6/0xF7 group members, on top of the
// group's base cost. Multiply and divide on the 8088 are microcoded
// loops; these are midpoint figures of the documented ranges.
const (
	extraMUL8   uint64 = 65
	extraMUL16  uint64 = 113
	extraIMUL8  uint64 = 75
	extraIMUL16 uint64 = 123
	extraDIV8   uint64 = 75
	extraDIV16  uint64 = 139
	extraIDIV8  uint64 = 96
	extraIDIV16 uint64 = 160
)

// opUnaryGroup routes the 0xF6/0xF7 forms by their ModR/M group
// selector. Selectors 0 and 1 both encode TEST with an immediate.
func opUnaryGroup(c *CPU, inst *insts.Instruction) {
	switch inst.Reg {
	case 0, 1:
		opTEST(c, inst)
	case 2:
		opNOT(c, inst)
	case 3:
		opNEG(c, inst)
	case 4:
		opMUL(c, inst)
	case 5:
		opIMUL(c, inst)
	case 6:
		opDIV(c, inst)
	case 7:
		opIDIV(c, inst)
	}
}

// setMulFlags installs the flag state of a multiply: CF and OF report
// whether the upper half of the product carries information, ZF, SF,
// and PF derive from the lower half, and AF clears.
func (c *CPU) setMulFlags(low uint16, wide bool, carry bool) {
	if wide {
		c.setLazy(uint32(low), FlagOpAnd16)
	} else {
		c.setLazy(uint32(uint8(low)), FlagOpAnd8)
	}
	c.flags = c.computeFlags()
	c.lastOp = FlagOpNone
	c.setEagerFlag(FlagCF, carry)
	c.setEagerFlag(FlagOF, carry)
	c.setEagerFlag(FlagAF, false)
}

// opMUL multiplies the accumulator by the operand, unsigned. The wide
// form leaves the product in DX:AX, the byte form in AX.
func opMUL(c *CPU, inst *insts.Instruction) {
	if inst.Dst.IsWide() {
		c.chargeCycles(extraMUL16)
		src := c.readOperand(&inst.Dst)
		product := uint32(c.Regs[insts.RegAX]) * uint32(src)
		c.Regs[insts.RegAX] = uint16(product)
		c.Regs[insts.RegDX] = uint16(product >> 16)
		c.setMulFlags(uint16(product), true, product>>16 != 0)
	} else {
		c.chargeCycles(extraMUL8)
		src := uint8(c.readOperand(&inst.Dst))
		product := uint16(c.Reg8(insts.RegAL)) * uint16(src)
		c.Regs[insts.RegAX] = product
		c.setMulFlags(product, false, product>>8 != 0)
	}
}

// opIMUL multiplies signed. CF and OF report that the upper half is not
// a plain sign extension of the lower.
func opIMUL(c *CPU, inst *insts.Instruction) {
	if inst.Dst.IsWide() {
		c.chargeCycles(extraIMUL16)
		src := c.readOperand(&inst.Dst)
		product := int32(int16(c.Regs[insts.RegAX])) * int32(int16(src))
		c.Regs[insts.RegAX] = uint16(product)
		c.Regs[insts.RegDX] = uint16(uint32(product) >> 16)
		c.setMulFlags(uint16(product), true, product != int32(int16(product)))
	} else {
		c.chargeCycles(extraIMUL8)
		src := uint8(c.readOperand(&inst.Dst))
		product := int16(int8(c.Reg8(insts.RegAL))) * int16(int8(src))
		c.Regs[insts.RegAX] = uint16(product)
		c.setMulFlags(uint16(product), false, product != int16(int8(product)))
	}
}

// divideFault records a divide error and raises interrupt 0. The pushed
// return address is the instruction after the divide, matching the
// hardware's fault reporting.
func (c *CPU) divideFault(inst *insts.Instruction) {
	cs := c.Segments[insts.SegCS]
	c.recordFault(FaultDivideError, cs, c.instStart,
		c.linearAddr(insts.SegCS, c.instStart), inst.Opcode)
	c.enterInterrupt(0)
}

// opDIV divides DX:AX (or AX) by the operand, unsigned. Divide by zero
// and quotient overflow raise interrupt 0 and leave the accumulator
// unchanged.
func opDIV(c *CPU, inst *insts.Instruction) {
	if inst.Dst.IsWide() {
		c.chargeCycles(extraDIV16)
		divisor := uint32(c.readOperand(&inst.Dst))
		dividend := uint32(c.Regs[insts.RegDX])<<16 | uint32(c.Regs[insts.RegAX])
		if divisor == 0 {
			c.divideFault(inst)
			return
		}
		quotient := dividend / divisor
		if quotient > 0xFFFF {
			c.divideFault(inst)
			return
		}
		c.Regs[insts.RegAX] = uint16(quotient)
		c.Regs[insts.RegDX] = uint16(dividend % divisor)
	} else {
		c.chargeCycles(extraDIV8)
		divisor := uint16(uint8(c.readOperand(&inst.Dst)))
		dividend := c.Regs[insts.RegAX]
		if divisor == 0 {
			c.divideFault(inst)
			return
		}
		quotient := dividend / divisor
		if quotient > 0xFF {
			c.divideFault(inst)
			return
		}
		c.SetReg8(insts.RegAL, uint8(quotient))
		c.SetReg8(insts.RegAH, uint8(dividend%divisor))
	}
}

// opIDIV divides signed. The quotient truncates toward zero and the
// remainder takes the dividend's sign.
func opIDIV(c *CPU, inst *insts.Instruction) {
	if inst.Dst.IsWide() {
		c.chargeCycles(extraIDIV16)
		divisor := int32(int16(c.readOperand(&inst.Dst)))
		dividend := int32(uint32(c.Regs[insts.RegDX])<<16 | uint32(c.Regs[insts.RegAX]))
		if divisor == 0 {
			c.divideFault(inst)
			return
		}
		quotient := dividend / divisor
		if quotient > 0x7FFF || quotient < -0x8000 {
			c.divideFault(inst)
			return
		}
		c.Regs[insts.RegAX] = uint16(quotient)
		c.Regs[insts.RegDX] = uint16(dividend % divisor)
	} else {
		c.chargeCycles(extraIDIV8)
		divisor := int16(int8(c.readOperand(&inst.Dst)))
		dividend := int16(c.Regs[insts.RegAX])
		if divisor == 0 {
			c.divideFault(inst)
			return
		}
		quotient := dividend / divisor
		if quotient > 0x7F || quotient < -0x80 {
			c.divideFault(inst)
			return
		}
		c.SetReg8(insts.RegAL, uint8(quotient))
		c.SetReg8(insts.RegAH, uint8(dividend%divisor))
	}
}

// opAAM converts the binary value in AL to two unpacked BCD digits by
// dividing by the immediate base, normally ten. A zero base raises the
// divide interrupt like DIV.
func opAAM(c *CPU, inst *insts.Instruction) {
	base := uint8(inst.Src.Val)
	if base == 0 {
		c.divideFault(inst)
		return
	}
	al := c.Reg8(insts.RegAL)
	c.SetReg8(insts.RegAH, al/base)
	c.SetReg8(insts.RegAL, al%base)
	c.setLazy(uint32(al%base), FlagOpAnd8)
}

// opAAD folds two unpacked BCD digits in AH:AL back into a binary value
// in AL.
func opAAD(c *CPU, inst *insts.Instruction) {
	base := uint8(inst.Src.Val)
	al := c.Reg8(insts.RegAL) + c.Reg8(insts.RegAH)*base
	c.Regs[insts.RegAX] = uint16(al)
	c.setLazy(uint32(al), FlagOpAnd8)
}
