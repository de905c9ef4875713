package emu

import "github.com/sarchlab/xtsim/insts"

// extraPopRM is the handler surcharge for POP through the 0x8F
// encoding.
const extraPopRM uint64 = 6

// pushWord stores a word at SS:SP after decrementing SP. The stack
// grows downward.
func (c *CPU) pushWord(v uint16) {
	c.Regs[insts.RegSP] -= 2
	c.writeWord(insts.SegSS, c.Regs[insts.RegSP], v)
}

// popWord loads the word at SS:SP and increments SP.
func (c *CPU) popWord() uint16 {
	v := c.readWord(insts.SegSS, c.Regs[insts.RegSP])
	c.Regs[insts.RegSP] += 2
	return v
}

func opMOV(c *CPU, inst *insts.Instruction) {
	c.writeOperand(&inst.Dst, c.readOperand(&inst.Src))
}

// opMOVSreg loads a segment register. A load of SS holds off interrupt
// recognition for one instruction so SS:SP can update atomically; a
// load of CS abandons the prefetched code stream.
func opMOVSreg(c *CPU, inst *insts.Instruction) {
	c.writeOperand(&inst.Dst, c.readOperand(&inst.Src))
	switch inst.Dst.Reg {
	case insts.SegSS:
		c.delayInterrupt = true
	case insts.SegCS:
		c.prefetch.Flush()
	}
}

// opMOVMoffs moves between the accumulator and a direct memory offset.
// The flat base cost covers the transfer, so the access is raw.
func opMOVMoffs(c *CPU, inst *insts.Instruction) {
	if inst.Dst.IsMem() {
		if inst.Dst.Kind == insts.KindMem16 {
			c.writeWord(inst.Dst.Seg, inst.Dst.Val, c.Regs[insts.RegAX])
		} else {
			c.writeMemByte(c.memAddr(&inst.Dst), c.Reg8(insts.RegAL))
		}
		return
	}
	if inst.Src.Kind == insts.KindMem16 {
		c.Regs[insts.RegAX] = c.readWord(inst.Src.Seg, inst.Src.Val)
	} else {
		c.SetReg8(insts.RegAL, c.readMemByte(c.memAddr(&inst.Src)))
	}
}

func opXCHG(c *CPU, inst *insts.Instruction) {
	dst := c.readOperand(&inst.Dst)
	src := c.readOperand(&inst.Src)
	c.writeOperand(&inst.Dst, src)
	c.writeOperand(&inst.Src, dst)
}

// opXCHGAX swaps AX with the register encoded in the opcode. Opcode
// 0x90 exchanges AX with itself, the canonical NOP.
func opXCHGAX(c *CPU, inst *insts.Instruction) {
	r := inst.Dst.Reg
	c.Regs[insts.RegAX], c.Regs[r] = c.Regs[r], c.Regs[insts.RegAX]
}

// opLEA stores the source operand's effective address, not its value.
// No memory access happens.
func opLEA(c *CPU, inst *insts.Instruction) {
	c.Regs[inst.Dst.Reg] = c.effectiveAddr(&inst.Src)
}

// loadPointer loads a far pointer from the source memory operand: the
// offset word into the destination register, the following word into
// the named segment register. The base cost covers both transfers.
func (c *CPU) loadPointer(inst *insts.Instruction, seg uint8) {
	ea := c.effectiveAddr(&inst.Src)
	c.Regs[inst.Dst.Reg] = c.readWord(inst.Src.Seg, ea)
	c.Segments[seg] = c.readWord(inst.Src.Seg, ea+2)
}

func opLES(c *CPU, inst *insts.Instruction) {
	c.loadPointer(inst, insts.SegES)
}

func opLDS(c *CPU, inst *insts.Instruction) {
	c.loadPointer(inst, insts.SegDS)
}

// opXLAT replaces AL with the byte at DS:BX+AL, honoring a segment
// override.
func opXLAT(c *CPU, inst *insts.Instruction) {
	seg := c.segOverride
	if seg == insts.SegNone {
		seg = insts.SegDS
	}
	off := c.Regs[insts.RegBX] + uint16(c.Reg8(insts.RegAL))
	c.SetReg8(insts.RegAL, c.readMemByte(c.linearAddr(seg, off)))
}

// opCBW sign-extends AL into AX.
func opCBW(c *CPU, inst *insts.Instruction) {
	c.Regs[insts.RegAX] = uint16(int16(int8(c.Reg8(insts.RegAL))))
}

// opCWD sign-extends AX into DX:AX.
func opCWD(c *CPU, inst *insts.Instruction) {
	if c.Regs[insts.RegAX]&0x8000 != 0 {
		c.Regs[insts.RegDX] = 0xFFFF
	} else {
		c.Regs[insts.RegDX] = 0
	}
}

// opPUSHReg pushes a register or memory word. PUSH SP stores the
// already-decremented value, an 8088 artifact later silicon reversed.
func opPUSHReg(c *CPU, inst *insts.Instruction) {
	if inst.Dst.Kind == insts.KindReg16 && inst.Dst.Reg == insts.RegSP {
		c.Regs[insts.RegSP] -= 2
		c.writeWord(insts.SegSS, c.Regs[insts.RegSP], c.Regs[insts.RegSP])
		return
	}
	c.pushWord(c.readOperand(&inst.Dst))
}

func opPOPReg(c *CPU, inst *insts.Instruction) {
	c.writeOperand(&inst.Dst, c.popWord())
}

func opPUSHSeg(c *CPU, inst *insts.Instruction) {
	c.pushWord(c.readOperand(&inst.Src))
}

// opPOPSeg loads a segment register from the stack. Like MOV to SS, a
// POP into SS delays interrupt recognition by one instruction.
func opPOPSeg(c *CPU, inst *insts.Instruction) {
	c.writeOperand(&inst.Dst, c.popWord())
	if inst.Dst.Reg == insts.SegSS {
		c.delayInterrupt = true
	}
}

// opPOPRM pops into a register or memory operand through the 0x8F
// group encoding.
func opPOPRM(c *CPU, inst *insts.Instruction) {
	c.chargeCycles(extraPopRM)
	v := c.popWord()
	c.writeOperand(&inst.Dst, v)
}

func opPUSHF(c *CPU, inst *insts.Instruction) {
	c.pushWord(c.Flags())
}

// opPOPF replaces the whole flags word, control flags included.
func opPOPF(c *CPU, inst *insts.Instruction) {
	c.SetFlags(c.popWord())
}

// opSAHF stores AH into the low flags byte: SF, ZF, AF, PF, and CF.
func opSAHF(c *CPU, inst *insts.Instruction) {
	f := c.Flags()
	c.SetFlags(f&0xFF00 | uint16(c.Reg8(insts.RegAH)))
}

// opLAHF loads AH from the low flags byte.
func opLAHF(c *CPU, inst *insts.Instruction) {
	c.SetReg8(insts.RegAH, uint8(c.Flags()))
}
