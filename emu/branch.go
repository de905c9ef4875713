package emu

import "github.com/sarchlab/xtsim/insts"

// Handler surcharges for the 0xFF group's control-transfer members, on
// top of the group's base cost.
const (
	extraCallRM     uint64 = 16
	extraCallFarMem uint64 = 31
	extraJmpRM      uint64 = 11
	extraJmpFarMem  uint64 = 18
	extraPushRM     uint64 = 15
)

// takeBranch charges the taken-branch refill cost and flushes the
// prefetch queue. Conditional branches and loops price their not-taken
// path in the base cost and pay the refill only when they jump.
func (c *CPU) takeBranch() {
	c.chargeCycles(c.table.BranchTakenCycles)
	c.prefetch.Flush()
}

// jccTaken evaluates the condition encoded in a 0x70-0x7F opcode
// against a materialized flags word. The low opcode bit negates.
func jccTaken(opcode uint8, f uint16) bool {
	var r bool
	switch opcode >> 1 & 7 {
	case 0:
		r = f&FlagOF != 0
	case 1:
		r = f&FlagCF != 0
	case 2:
		r = f&FlagZF != 0
	case 3:
		r = f&(FlagCF|FlagZF) != 0
	case 4:
		r = f&FlagSF != 0
	case 5:
		r = f&FlagPF != 0
	case 6:
		r = (f&FlagSF != 0) != (f&FlagOF != 0)
	case 7:
		r = f&FlagZF != 0 || (f&FlagSF != 0) != (f&FlagOF != 0)
	}
	if opcode&1 == 1 {
		r = !r
	}
	return r
}

func opJcc(c *CPU, inst *insts.Instruction) {
	if jccTaken(inst.Opcode, c.Flags()) {
		c.IP += inst.Src.Val
		c.takeBranch()
	}
}

// opJMP covers the near and short relative forms; they differ only in
// displacement width and base cost.
func opJMP(c *CPU, inst *insts.Instruction) {
	c.IP += inst.Src.Val
	c.prefetch.Flush()
}

func opJMPFar(c *CPU, inst *insts.Instruction) {
	c.Segments[insts.SegCS] = inst.Src.FarSeg
	c.IP = inst.Src.Val
	c.prefetch.Flush()
}

// opCALLNear pushes the return offset and jumps relative.
func opCALLNear(c *CPU, inst *insts.Instruction) {
	c.pushWord(c.IP)
	c.IP += inst.Src.Val
	c.prefetch.Flush()
}

// opCALLFar pushes CS then the return offset, then loads both from the
// far immediate.
func opCALLFar(c *CPU, inst *insts.Instruction) {
	c.pushWord(c.Segments[insts.SegCS])
	c.pushWord(c.IP)
	c.Segments[insts.SegCS] = inst.Src.FarSeg
	c.IP = inst.Src.Val
	c.prefetch.Flush()
}

func opRET(c *CPU, inst *insts.Instruction) {
	c.IP = c.popWord()
	c.prefetch.Flush()
}

// opRETImm additionally discards the callee's stack arguments.
func opRETImm(c *CPU, inst *insts.Instruction) {
	c.IP = c.popWord()
	c.Regs[insts.RegSP] += inst.Src.Val
	c.prefetch.Flush()
}

// opRETF pops the return offset first, then CS, undoing the far call's
// push order.
func opRETF(c *CPU, inst *insts.Instruction) {
	c.IP = c.popWord()
	c.Segments[insts.SegCS] = c.popWord()
	c.prefetch.Flush()
}

func opRETFImm(c *CPU, inst *insts.Instruction) {
	c.IP = c.popWord()
	c.Segments[insts.SegCS] = c.popWord()
	c.Regs[insts.RegSP] += inst.Src.Val
	c.prefetch.Flush()
}

// opLOOP decrements CX and branches while it is nonzero. The decrement
// does not touch flags.
func opLOOP(c *CPU, inst *insts.Instruction) {
	c.Regs[insts.RegCX]--
	if c.Regs[insts.RegCX] != 0 {
		c.IP += inst.Src.Val
		c.takeBranch()
	}
}

func opLOOPE(c *CPU, inst *insts.Instruction) {
	c.Regs[insts.RegCX]--
	if c.Regs[insts.RegCX] != 0 && c.GetFlag(FlagZF) {
		c.IP += inst.Src.Val
		c.takeBranch()
	}
}

func opLOOPNE(c *CPU, inst *insts.Instruction) {
	c.Regs[insts.RegCX]--
	if c.Regs[insts.RegCX] != 0 && !c.GetFlag(FlagZF) {
		c.IP += inst.Src.Val
		c.takeBranch()
	}
}

// opJCXZ branches when CX is already zero, without decrementing.
func opJCXZ(c *CPU, inst *insts.Instruction) {
	if c.Regs[insts.RegCX] == 0 {
		c.IP += inst.Src.Val
		c.takeBranch()
	}
}

// readFarPointer reads the offset and segment words of a far pointer at
// the memory operand's effective address. The offset wraps within the
// segment between words.
func (c *CPU) readFarPointer(op *insts.Operand) (off, seg uint16) {
	ea := c.effectiveAddr(op)
	off = c.readWord(op.Seg, ea)
	seg = c.readWord(op.Seg, ea+2)
	return off, seg
}

// opIndirectGroup routes the 0xFF forms: INC, DEC, near and far CALL
// and JMP through a register or memory operand, and PUSH. The decoder
// rejects selector 7 and register operands of the far members.
func opIndirectGroup(c *CPU, inst *insts.Instruction) {
	switch inst.Reg {
	case 0:
		c.chargeCycles(extraIndirectIncDec)
		opINC(c, inst)
	case 1:
		c.chargeCycles(extraIndirectIncDec)
		opDEC(c, inst)
	case 2:
		c.chargeCycles(extraCallRM)
		target := c.readOperand(&inst.Dst)
		c.pushWord(c.IP)
		c.IP = target
		c.prefetch.Flush()
	case 3:
		c.chargeCycles(extraCallFarMem)
		off, seg := c.readFarPointer(&inst.Dst)
		c.pushWord(c.Segments[insts.SegCS])
		c.pushWord(c.IP)
		c.Segments[insts.SegCS] = seg
		c.IP = off
		c.prefetch.Flush()
	case 4:
		c.chargeCycles(extraJmpRM)
		c.IP = c.readOperand(&inst.Dst)
		c.prefetch.Flush()
	case 5:
		c.chargeCycles(extraJmpFarMem)
		off, seg := c.readFarPointer(&inst.Dst)
		c.Segments[insts.SegCS] = seg
		c.IP = off
		c.prefetch.Flush()
	case 6:
		c.chargeCycles(extraPushRM)
		c.pushWord(c.readOperand(&inst.Dst))
	}
}
