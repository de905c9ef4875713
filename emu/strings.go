package emu

import "github.com/sarchlab/xtsim/insts"

// String operations execute one element per step. A REP prefix turns
// the step into one iteration of the loop: the element is processed,
// CX decrements, and IP moves back to the first prefix byte when the
// loop continues. Interrupts are therefore taken between iterations
// and resume re-executes the full prefixed instruction.

// stringSourceSeg returns the segment of the SI side of a string
// operation. Only the source honors a segment override; the ES:DI
// destination is fixed.
func (c *CPU) stringSourceSeg() uint8 {
	if c.segOverride != insts.SegNone {
		return c.segOverride
	}
	return insts.SegDS
}

// stringDelta returns the per-element pointer adjustment: the element
// size, negated when DF is set.
func (c *CPU) stringDelta(wide bool) uint16 {
	d := uint16(1)
	if wide {
		d = 2
	}
	if c.GetFlag(FlagDF) {
		return -d
	}
	return d
}

// repSkip reports whether a repeated operation should run zero
// iterations because CX is already zero on entry.
func (c *CPU) repSkip() bool {
	return c.repPrefix != 0 && c.Regs[insts.RegCX] == 0
}

// handleRep finishes one iteration of an unconditionally repeated
// operation: CX decrements and the instruction restarts while CX
// remains nonzero.
func (c *CPU) handleRep() {
	if c.repPrefix == 0 {
		return
	}
	c.Regs[insts.RegCX]--
	if c.Regs[insts.RegCX] != 0 {
		c.IP = c.instStart
	}
}

// handleRepConditional finishes one iteration of REPE CMPS/SCAS or
// REPNE CMPS/SCAS. The loop continues while CX remains nonzero and ZF
// matches the prefix condition.
func (c *CPU) handleRepConditional() {
	if c.repPrefix == 0 {
		return
	}
	c.Regs[insts.RegCX]--
	if c.Regs[insts.RegCX] == 0 {
		return
	}
	zf := c.GetFlag(FlagZF)
	if (c.repPrefix == insts.PrefixREP && zf) ||
		(c.repPrefix == insts.PrefixREPNE && !zf) {
		c.IP = c.instStart
	}
}

// compareString computes src1 - src2 for CMPS and SCAS flag effects.
func (c *CPU) compareString(src1, src2 uint16, wide bool) {
	if wide {
		result := uint32(src1) - uint32(src2)
		c.setSubOFAF16(src1, src2, result)
		c.setLazy(result, FlagOpSub16)
		return
	}
	result := uint32(uint8(src1)) - uint32(uint8(src2))
	c.setSubOFAF8(uint8(src1), uint8(src2), result)
	c.setLazy(result, FlagOpSub8)
}

// opMOVS copies one element from the source segment at SI to ES:DI.
func opMOVS(c *CPU, inst *insts.Instruction) {
	if c.repSkip() {
		return
	}
	wide := inst.Opcode&1 != 0
	srcSeg := c.stringSourceSeg()
	si := c.Regs[insts.RegSI]
	di := c.Regs[insts.RegDI]

	if wide {
		c.writeWord(insts.SegES, di, c.readWord(srcSeg, si))
	} else {
		v := c.readMemByte(c.linearAddr(srcSeg, si))
		c.writeMemByte(c.linearAddr(insts.SegES, di), v)
	}

	d := c.stringDelta(wide)
	c.Regs[insts.RegSI] = si + d
	c.Regs[insts.RegDI] = di + d
	c.handleRep()
}

// opCMPS compares the element at the source segment and SI against the
// element at ES:DI, source minus destination.
func opCMPS(c *CPU, inst *insts.Instruction) {
	if c.repSkip() {
		return
	}
	wide := inst.Opcode&1 != 0
	srcSeg := c.stringSourceSeg()
	si := c.Regs[insts.RegSI]
	di := c.Regs[insts.RegDI]

	var src1, src2 uint16
	if wide {
		src1 = c.readWord(srcSeg, si)
		src2 = c.readWord(insts.SegES, di)
	} else {
		src1 = uint16(c.readMemByte(c.linearAddr(srcSeg, si)))
		src2 = uint16(c.readMemByte(c.linearAddr(insts.SegES, di)))
	}
	c.compareString(src1, src2, wide)

	d := c.stringDelta(wide)
	c.Regs[insts.RegSI] = si + d
	c.Regs[insts.RegDI] = di + d
	c.handleRepConditional()
}

// opSCAS compares the accumulator against the element at ES:DI.
func opSCAS(c *CPU, inst *insts.Instruction) {
	if c.repSkip() {
		return
	}
	wide := inst.Opcode&1 != 0
	di := c.Regs[insts.RegDI]

	var src1, src2 uint16
	if wide {
		src1 = c.Regs[insts.RegAX]
		src2 = c.readWord(insts.SegES, di)
	} else {
		src1 = uint16(c.Reg8(insts.RegAL))
		src2 = uint16(c.readMemByte(c.linearAddr(insts.SegES, di)))
	}
	c.compareString(src1, src2, wide)

	c.Regs[insts.RegDI] = di + c.stringDelta(wide)
	c.handleRepConditional()
}

// opSTOS stores the accumulator at ES:DI.
func opSTOS(c *CPU, inst *insts.Instruction) {
	if c.repSkip() {
		return
	}
	wide := inst.Opcode&1 != 0
	di := c.Regs[insts.RegDI]

	if wide {
		c.writeWord(insts.SegES, di, c.Regs[insts.RegAX])
	} else {
		c.writeMemByte(c.linearAddr(insts.SegES, di), c.Reg8(insts.RegAL))
	}

	c.Regs[insts.RegDI] = di + c.stringDelta(wide)
	c.handleRep()
}

// opLODS loads the accumulator from the source segment at SI.
func opLODS(c *CPU, inst *insts.Instruction) {
	if c.repSkip() {
		return
	}
	wide := inst.Opcode&1 != 0
	srcSeg := c.stringSourceSeg()
	si := c.Regs[insts.RegSI]

	if wide {
		c.Regs[insts.RegAX] = c.readWord(srcSeg, si)
	} else {
		c.SetReg8(insts.RegAL, c.readMemByte(c.linearAddr(srcSeg, si)))
	}

	c.Regs[insts.RegSI] = si + c.stringDelta(wide)
	c.handleRep()
}
