package emu

import "github.com/sarchlab/xtsim/insts"

// opIN reads a port into the accumulator. The port number comes from
// an immediate or from DX; both forms read it the same way.
func opIN(c *CPU, inst *insts.Instruction) {
	port := c.readOperand(&inst.Src)
	if inst.Dst.IsWide() {
		c.Regs[insts.RegAX] = c.bus.ReadPort16(port)
		return
	}
	c.SetReg8(insts.RegAL, c.bus.ReadPort8(port))
}

// opOUT writes the accumulator to a port.
func opOUT(c *CPU, inst *insts.Instruction) {
	port := c.readOperand(&inst.Dst)
	value := c.readOperand(&inst.Src)
	if inst.Src.IsWide() {
		c.bus.WritePort16(port, value)
		return
	}
	c.bus.WritePort8(port, uint8(value))
}
