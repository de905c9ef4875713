package emu

import (
	"math/bits"

	"github.com/sarchlab/xtsim/insts"
)

// opShiftGroup routes the 0xD0-0xD3 forms by their ModR/M group
// selector. The 0xD0/0xD1 forms shift by one; 0xD2/0xD3 shift by CL and
// charge per count bit on top of the group base.
func opShiftGroup(c *CPU, inst *insts.Instruction) {
	count := uint8(1)
	if inst.Opcode == 0xD2 || inst.Opcode == 0xD3 {
		count = c.Reg8(insts.RegCL)
		c.chargeCycles(uint64(count) * c.table.ShiftPerBitCycles)
	}

	switch inst.Reg {
	case 0:
		opROL(c, inst, count)
	case 1:
		opROR(c, inst, count)
	case 2:
		opRCL(c, inst, count)
	case 3:
		opRCR(c, inst, count)
	case 4, 6:
		opSHL(c, inst, count)
	case 5:
		opSHR(c, inst, count)
	case 7:
		opSAR(c, inst, count)
	}
}

// setShiftFlags installs the flag state of the logical and arithmetic
// shifts: ZF, SF, and PF from the result, OF and AF cleared, CF pinned
// to the last bit shifted out. Single-bit forms set OF on top of this.
func (c *CPU) setShiftFlags(result uint16, wide bool, cf bool) {
	if wide {
		c.setLazy(uint32(result), FlagOpAnd16)
	} else {
		c.setLazy(uint32(uint8(result)), FlagOpAnd8)
	}
	c.flags = c.computeFlags()
	c.lastOp = FlagOpNone
	c.flags &^= FlagOF | FlagCF | FlagAF
	c.setEagerFlag(FlagCF, cf)
}

// opROL rotates left. The rotate count masks to the operand width, and
// a masked count of zero leaves value and flags alone. CF receives the
// bit that wrapped into the low end.
func opROL(c *CPU, inst *insts.Instruction, count uint8) {
	if count == 0 {
		return
	}
	value := c.readOperand(&inst.Dst)
	wide := inst.Dst.IsWide()

	var result uint16
	if wide {
		count &= 0x0F
		if count == 0 {
			return
		}
		result = bits.RotateLeft16(value, int(count))
	} else {
		count &= 0x07
		if count == 0 {
			return
		}
		result = uint16(bits.RotateLeft8(uint8(value), int(count)))
	}
	cf := result&1 != 0

	c.writeOperand(&inst.Dst, result)
	c.SetFlag(FlagCF, cf)
	if count == 1 {
		msb := result&0x80 != 0
		if wide {
			msb = result&0x8000 != 0
		}
		c.setEagerFlag(FlagOF, msb != cf)
	}
}

// opROR rotates right. CF receives the bit that wrapped into the high
// end; the single-bit OF compares the two top result bits.
func opROR(c *CPU, inst *insts.Instruction, count uint8) {
	if count == 0 {
		return
	}
	value := c.readOperand(&inst.Dst)
	wide := inst.Dst.IsWide()

	var result uint16
	var cf bool
	if wide {
		count &= 0x0F
		if count == 0 {
			return
		}
		result = bits.RotateLeft16(value, -int(count))
		cf = result&0x8000 != 0
	} else {
		count &= 0x07
		if count == 0 {
			return
		}
		result = uint16(bits.RotateLeft8(uint8(value), -int(count)))
		cf = result&0x80 != 0
	}

	c.writeOperand(&inst.Dst, result)
	c.SetFlag(FlagCF, cf)
	if count == 1 {
		var msb, nextMSB bool
		if wide {
			msb = result&0x8000 != 0
			nextMSB = result&0x4000 != 0
		} else {
			msb = result&0x80 != 0
			nextMSB = result&0x40 != 0
		}
		c.setEagerFlag(FlagOF, msb != nextMSB)
	}
}

// opRCL rotates left through CF, one bit per step. The carry flag acts
// as a ninth or seventeenth value bit.
func opRCL(c *CPU, inst *insts.Instruction, count uint8) {
	if count == 0 {
		return
	}
	value := c.readOperand(&inst.Dst)
	wide := inst.Dst.IsWide()
	cf := c.GetFlag(FlagCF)

	result := value
	steps := count & 0x1F
	if wide {
		for i := uint8(0); i < steps; i++ {
			newCF := result&0x8000 != 0
			result <<= 1
			if cf {
				result |= 1
			}
			cf = newCF
		}
	} else {
		for i := uint8(0); i < steps; i++ {
			newCF := result&0x80 != 0
			result = (result << 1) & 0xFF
			if cf {
				result |= 1
			}
			cf = newCF
		}
	}

	c.writeOperand(&inst.Dst, result)
	c.SetFlag(FlagCF, cf)
	if count == 1 {
		msb := result&0x80 != 0
		if wide {
			msb = result&0x8000 != 0
		}
		c.setEagerFlag(FlagOF, msb != cf)
	}
}

// opRCR rotates right through CF.
func opRCR(c *CPU, inst *insts.Instruction, count uint8) {
	if count == 0 {
		return
	}
	value := c.readOperand(&inst.Dst)
	wide := inst.Dst.IsWide()
	cf := c.GetFlag(FlagCF)

	result := value
	steps := count & 0x1F
	if wide {
		for i := uint8(0); i < steps; i++ {
			newCF := result&1 != 0
			result >>= 1
			if cf {
				result |= 0x8000
			}
			cf = newCF
		}
	} else {
		for i := uint8(0); i < steps; i++ {
			newCF := result&1 != 0
			result >>= 1
			if cf {
				result |= 0x80
			}
			cf = newCF
		}
	}

	c.writeOperand(&inst.Dst, result)
	c.SetFlag(FlagCF, cf)
	if count == 1 {
		var msb, nextMSB bool
		if wide {
			msb = result&0x8000 != 0
			nextMSB = result&0x4000 != 0
		} else {
			msb = result&0x80 != 0
			nextMSB = result&0x40 != 0
		}
		c.setEagerFlag(FlagOF, msb != nextMSB)
	}
}

// opSHL shifts left, filling with zeros. Counts at or past the operand
// width clear the result, with CF taking the last bit shifted out.
func opSHL(c *CPU, inst *insts.Instruction, count uint8) {
	if count == 0 {
		return
	}
	value := c.readOperand(&inst.Dst)
	wide := inst.Dst.IsWide()

	var result uint16
	var cf bool
	if wide {
		n := count
		if n > 16 {
			n = 16
		}
		cf = (value>>(16-n))&1 != 0
		if n >= 16 {
			result = 0
		} else {
			result = value << n
		}
	} else {
		v := uint8(value)
		n := count
		if n > 8 {
			n = 8
		}
		cf = (v>>(8-n))&1 != 0
		if n >= 8 {
			result = 0
		} else {
			result = uint16(v << n)
		}
	}

	c.writeOperand(&inst.Dst, result)
	c.setShiftFlags(result, wide, cf)
	if count == 1 {
		msb := result&0x80 != 0
		if wide {
			msb = result&0x8000 != 0
		}
		c.setEagerFlag(FlagOF, msb != cf)
	}
}

// opSHR shifts right, filling with zeros. The single-bit OF is the sign
// bit of the original value.
func opSHR(c *CPU, inst *insts.Instruction, count uint8) {
	if count == 0 {
		return
	}
	value := c.readOperand(&inst.Dst)
	wide := inst.Dst.IsWide()

	var result uint16
	var cf, msb bool
	if wide {
		msb = value&0x8000 != 0
		n := count
		if n > 16 {
			n = 16
		}
		cf = (value>>(n-1))&1 != 0
		if n >= 16 {
			result = 0
		} else {
			result = value >> n
		}
	} else {
		v := uint8(value)
		msb = v&0x80 != 0
		n := count
		if n > 8 {
			n = 8
		}
		cf = (v>>(n-1))&1 != 0
		if n >= 8 {
			result = 0
		} else {
			result = uint16(v >> n)
		}
	}

	c.writeOperand(&inst.Dst, result)
	c.setShiftFlags(result, wide, cf)
	if count == 1 {
		c.setEagerFlag(FlagOF, msb)
	}
}

// opSAR shifts right arithmetically, replicating the sign bit. OF
// clears for the single-bit form since the sign cannot change.
func opSAR(c *CPU, inst *insts.Instruction, count uint8) {
	if count == 0 {
		return
	}
	value := c.readOperand(&inst.Dst)
	wide := inst.Dst.IsWide()

	var result uint16
	var cf bool
	if wide {
		v := int16(value)
		n := count
		if n > 16 {
			n = 16
		}
		cf = (uint16(v)>>(n-1))&1 != 0
		result = uint16(v >> n)
	} else {
		v := int8(uint8(value))
		n := count
		if n > 8 {
			n = 8
		}
		cf = (uint8(v)>>(n-1))&1 != 0
		result = uint16(uint8(v >> n))
	}

	c.writeOperand(&inst.Dst, result)
	c.setShiftFlags(result, wide, cf)
	if count == 1 {
		c.setEagerFlag(FlagOF, false)
	}
}
