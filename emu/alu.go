package emu

import "github.com/sarchlab/xtsim/insts"

// ALU handlers. Each reads its operands, computes the widened result,
// records the eager overflow and auxiliary-carry bits, installs the lazy
// flag record, and writes the result back. Memory operands charge their
// bus penalties inside readOperand and writeOperand.

// extraIndirectIncDec is the handler surcharge for INC and DEC reached
// through the 0xFF group encoding.
const extraIndirectIncDec uint64 = 2

func opADD(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)

	var result uint32
	if inst.Dst.IsWide() {
		result = uint32(dst) + uint32(src)
		c.setAddOFAF16(dst, src, result)
		c.setLazy(result, FlagOpAdd16)
	} else {
		result = uint32(uint8(dst)) + uint32(uint8(src))
		c.setAddOFAF8(uint8(dst), uint8(src), result)
		c.setLazy(result, FlagOpAdd8)
	}
	c.writeOperand(&inst.Dst, uint16(result))
}

func opADC(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)
	var carry uint32
	if c.GetFlag(FlagCF) {
		carry = 1
	}

	var result uint32
	if inst.Dst.IsWide() {
		result = uint32(dst) + uint32(src) + carry
		c.setAdcOFAF16(dst, src, uint16(carry), result)
		c.setLazy(result, FlagOpAdc16)
	} else {
		result = uint32(uint8(dst)) + uint32(uint8(src)) + carry
		c.setAdcOFAF8(uint8(dst), uint8(src), uint8(carry), result)
		c.setLazy(result, FlagOpAdc8)
	}
	c.writeOperand(&inst.Dst, uint16(result))
}

func opSUB(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)

	var result uint32
	if inst.Dst.IsWide() {
		result = uint32(dst) - uint32(src)
		c.setSubOFAF16(dst, src, result)
		c.setLazy(result, FlagOpSub16)
	} else {
		result = uint32(uint8(dst)) - uint32(uint8(src))
		c.setSubOFAF8(uint8(dst), uint8(src), result)
		c.setLazy(result, FlagOpSub8)
	}
	c.writeOperand(&inst.Dst, uint16(result))
}

func opSBB(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)
	var borrow uint32
	if c.GetFlag(FlagCF) {
		borrow = 1
	}

	var result uint32
	if inst.Dst.IsWide() {
		result = uint32(dst) - uint32(src) - borrow
		c.setSbbOFAF16(dst, src, uint16(borrow), result)
		c.setLazy(result, FlagOpSbb16)
	} else {
		result = uint32(uint8(dst)) - uint32(uint8(src)) - borrow
		c.setSbbOFAF8(uint8(dst), uint8(src), uint8(borrow), result)
		c.setLazy(result, FlagOpSbb8)
	}
	c.writeOperand(&inst.Dst, uint16(result))
}

// opCMP subtracts for flags only; the destination is not written.
func opCMP(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)

	if inst.Dst.IsWide() {
		result := uint32(dst) - uint32(src)
		c.setSubOFAF16(dst, src, result)
		c.setLazy(result, FlagOpSub16)
	} else {
		result := uint32(uint8(dst)) - uint32(uint8(src))
		c.setSubOFAF8(uint8(dst), uint8(src), result)
		c.setLazy(result, FlagOpSub8)
	}
}

func opAND(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)
	result := dst & src

	c.setLogicFlags(result, inst.Dst.IsWide())
	c.writeOperand(&inst.Dst, result)
}

func opOR(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)
	result := dst | src

	c.setLogicFlags(result, inst.Dst.IsWide())
	c.writeOperand(&inst.Dst, result)
}

func opXOR(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)
	result := dst ^ src

	c.setLogicFlags(result, inst.Dst.IsWide())
	c.writeOperand(&inst.Dst, result)
}

// opTEST is AND for flags only.
func opTEST(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)
	c.setLogicFlags(dst&src, inst.Dst.IsWide())
}

// setLogicFlags installs the flag state of the logical operations: OF,
// CF, and AF clear, the rest derived from the result.
func (c *CPU) setLogicFlags(result uint16, wide bool) {
	c.clearOFCFAF()
	if wide {
		c.setLazy(uint32(result), FlagOpAnd16)
	} else {
		c.setLazy(uint32(uint8(result)), FlagOpAnd8)
	}
}

// opINC adds one without touching CF.
func opINC(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)

	if inst.Dst.IsWide() {
		result := uint32(dst) + 1
		c.setIncOFAF16(dst, uint16(result))
		c.setLazyIncDec(result, FlagOpInc16)
		c.writeOperand(&inst.Dst, uint16(result))
	} else {
		result := uint32(uint8(dst)) + 1
		c.setIncOFAF8(uint8(dst), uint8(result))
		c.setLazyIncDec(result, FlagOpInc8)
		c.writeOperand(&inst.Dst, uint16(result))
	}
}

// opDEC subtracts one without touching CF.
func opDEC(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)

	if inst.Dst.IsWide() {
		result := uint32(dst) - 1
		c.setDecOFAF16(dst, uint16(result))
		c.setLazyIncDec(result, FlagOpDec16)
		c.writeOperand(&inst.Dst, uint16(result))
	} else {
		result := uint32(uint8(dst)) - 1
		c.setDecOFAF8(uint8(dst), uint8(result))
		c.setLazyIncDec(result, FlagOpDec8)
		c.writeOperand(&inst.Dst, uint16(result))
	}
}

// opNOT complements the operand. No flags change.
func opNOT(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	c.writeOperand(&inst.Dst, ^dst)
}

// opNEG subtracts the operand from zero, with SUB flag semantics. CF
// sets for any nonzero operand.
func opNEG(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)

	if inst.Dst.IsWide() {
		result := uint32(0) - uint32(dst)
		c.setSubOFAF16(0, dst, result)
		c.setLazy(result, FlagOpSub16)
		c.writeOperand(&inst.Dst, uint16(result))
	} else {
		result := uint32(0) - uint32(uint8(dst))
		c.setSubOFAF8(0, uint8(dst), result)
		c.setLazy(result, FlagOpSub8)
		c.writeOperand(&inst.Dst, uint16(result))
	}
}

// opALUImmGroup routes the 0x80-0x83 immediate forms by their ModR/M
// group selector.
func opALUImmGroup(c *CPU, inst *insts.Instruction) {
	switch inst.Reg {
	case 0:
		opADD(c, inst)
	case 1:
		opOR(c, inst)
	case 2:
		opADC(c, inst)
	case 3:
		opSBB(c, inst)
	case 4:
		opAND(c, inst)
	case 5:
		opSUB(c, inst)
	case 6:
		opXOR(c, inst)
	case 7:
		opCMP(c, inst)
	}
}

// opIncDecGroup routes the 0xFE byte forms. The decoder rejects the
// other group selectors.
func opIncDecGroup(c *CPU, inst *insts.Instruction) {
	if inst.Reg == 0 {
		opINC(c, inst)
	} else {
		opDEC(c, inst)
	}
}

// setBCDFlags8 installs the flag state of the decimal adjusts: ZF, SF,
// and PF from the adjusted AL, CF and AF pinned to the adjust outcome.
// OF is undefined and left alone.
func (c *CPU) setBCDFlags8(result uint8, cf, af bool) {
	c.setLazy(uint32(result), FlagOpAnd8)
	c.flags = c.computeFlags()
	c.lastOp = FlagOpNone
	c.setEagerFlag(FlagCF, cf)
	c.setEagerFlag(FlagAF, af)
}

// opDAA decimal-adjusts AL after a packed BCD addition. Both adjust
// conditions test the pre-adjust AL.
func opDAA(c *CPU, inst *insts.Instruction) {
	oldAL := c.Reg8(insts.RegAL)
	oldCF := c.GetFlag(FlagCF)
	oldAF := c.GetFlag(FlagAF)

	al := oldAL
	cf := false
	af := false
	if oldAL&0x0F > 9 || oldAF {
		cf = oldCF || oldAL > 0xF9
		al += 6
		af = true
	}
	if oldAL > 0x99 || oldCF {
		al += 0x60
		cf = true
	}

	c.SetReg8(insts.RegAL, al)
	c.setBCDFlags8(al, cf, af)
}

// opDAS decimal-adjusts AL after a packed BCD subtraction.
func opDAS(c *CPU, inst *insts.Instruction) {
	oldAL := c.Reg8(insts.RegAL)
	oldCF := c.GetFlag(FlagCF)
	oldAF := c.GetFlag(FlagAF)

	al := oldAL
	cf := false
	af := false
	if oldAL&0x0F > 9 || oldAF {
		cf = oldCF || oldAL < 6
		al -= 6
		af = true
	}
	if oldAL > 0x99 || oldCF {
		al -= 0x60
		cf = true
	}

	c.SetReg8(insts.RegAL, al)
	c.setBCDFlags8(al, cf, af)
}

// opAAA adjusts AL after an unpacked BCD addition, carrying into AH.
func opAAA(c *CPU, inst *insts.Instruction) {
	al := c.Reg8(insts.RegAL)

	cf := false
	if al&0x0F > 9 || c.GetFlag(FlagAF) {
		c.SetReg8(insts.RegAL, al+6)
		c.SetReg8(insts.RegAH, c.Reg8(insts.RegAH)+1)
		cf = true
	}
	al = c.Reg8(insts.RegAL) & 0x0F
	c.SetReg8(insts.RegAL, al)
	c.setBCDFlags8(al, cf, cf)
}

// opAAS adjusts AL after an unpacked BCD subtraction, borrowing from AH.
func opAAS(c *CPU, inst *insts.Instruction) {
	al := c.Reg8(insts.RegAL)

	cf := false
	if al&0x0F > 9 || c.GetFlag(FlagAF) {
		c.SetReg8(insts.RegAL, al-6)
		c.SetReg8(insts.RegAH, c.Reg8(insts.RegAH)-1)
		cf = true
	}
	al = c.Reg8(insts.RegAL) & 0x0F
	c.SetReg8(insts.RegAL, al)
	c.setBCDFlags8(al, cf, cf)
}
