package emu

import "github.com/sarchlab/xtsim/insts"

// effectiveAddr computes the offset of a ModR/M memory operand from its
// base and index registers plus displacement. Offset arithmetic wraps at
// 64 KiB.
func (c *CPU) effectiveAddr(op *insts.Operand) uint16 {
	if op.RM == insts.RMDirect {
		return op.Val
	}
	disp := op.Val
	switch op.RM {
	case 0:
		return c.Regs[insts.RegBX] + c.Regs[insts.RegSI] + disp
	case 1:
		return c.Regs[insts.RegBX] + c.Regs[insts.RegDI] + disp
	case 2:
		return c.Regs[insts.RegBP] + c.Regs[insts.RegSI] + disp
	case 3:
		return c.Regs[insts.RegBP] + c.Regs[insts.RegDI] + disp
	case 4:
		return c.Regs[insts.RegSI] + disp
	case 5:
		return c.Regs[insts.RegDI] + disp
	case 6:
		return c.Regs[insts.RegBP] + disp
	default:
		return c.Regs[insts.RegBX] + disp
	}
}

// memAddr resolves a memory operand to its physical address. The
// operand's segment was fixed at decode time, override included.
func (c *CPU) memAddr(op *insts.Operand) uint32 {
	return c.linearAddr(op.Seg, c.effectiveAddr(op))
}

// readMemByte reads one byte from physical memory without charging any
// penalty cycles. Penalties belong to operand access, not raw access.
func (c *CPU) readMemByte(addr uint32) uint8 {
	return c.bus.ReadByte(addr)
}

// writeMemByte writes one byte to physical memory and drops any cached
// state covering the address: decode cache entries, basic blocks, and
// prefetched bytes. Self-modifying code is re-decoded on next use.
func (c *CPU) writeMemByte(addr uint32, v uint8) {
	c.bus.WriteByte(addr, v)
	c.decodeCache.InvalidateAddr(addr)
	c.blocks.InvalidateAddr(addr)
	c.prefetch.InvalidateAddr(addr)
}

// readWord reads a 16-bit value at seg:off. The offset wraps within the
// segment between the two byte accesses.
func (c *CPU) readWord(segIdx uint8, off uint16) uint16 {
	lo := c.readMemByte(c.linearAddr(segIdx, off))
	hi := c.readMemByte(c.linearAddr(segIdx, off+1))
	return uint16(lo) | uint16(hi)<<8
}

// writeWord writes a 16-bit value at seg:off, low byte first.
func (c *CPU) writeWord(segIdx uint8, off uint16, v uint16) {
	c.writeMemByte(c.linearAddr(segIdx, off), uint8(v))
	c.writeMemByte(c.linearAddr(segIdx, off+1), uint8(v>>8))
}

// readOperand returns the current value of an operand. ModR/M memory
// operands charge the bus read penalty; registers and immediates are
// free, their cost being part of the opcode base.
func (c *CPU) readOperand(op *insts.Operand) uint16 {
	switch op.Kind {
	case insts.KindReg8:
		return uint16(c.Reg8(op.Reg))
	case insts.KindReg16:
		return c.Regs[op.Reg]
	case insts.KindSeg:
		return c.Segments[op.Reg]
	case insts.KindImm8, insts.KindImm16, insts.KindRel8, insts.KindRel16:
		return op.Val
	case insts.KindMem8:
		c.chargeCycles(c.table.MemReadPenalty)
		return uint16(c.readMemByte(c.memAddr(op)))
	case insts.KindMem16:
		c.chargeCycles(c.table.MemReadPenalty)
		return c.readWord(op.Seg, c.effectiveAddr(op))
	}
	return 0
}

// writeOperand stores a value into an operand. ModR/M memory operands
// charge the bus write penalty.
func (c *CPU) writeOperand(op *insts.Operand, v uint16) {
	switch op.Kind {
	case insts.KindReg8:
		c.SetReg8(op.Reg, uint8(v))
	case insts.KindReg16:
		c.Regs[op.Reg] = v
	case insts.KindSeg:
		c.Segments[op.Reg] = v
	case insts.KindMem8:
		c.chargeCycles(c.table.MemWritePenalty)
		c.writeMemByte(c.memAddr(op), uint8(v))
	case insts.KindMem16:
		c.chargeCycles(c.table.MemWritePenalty)
		c.writeWord(op.Seg, c.effectiveAddr(op), v)
	}
}

// fetchWindow fills buf with the instruction bytes at CS:IP. Code
// addresses wrap within the code segment.
func (c *CPU) fetchWindow(buf []byte) {
	for i := range buf {
		buf[i] = c.readMemByte(c.linearAddr(insts.SegCS, c.IP+uint16(i)))
	}
}
