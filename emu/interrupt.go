package emu

import "github.com/sarchlab/xtsim/insts"

// INTO charges by outcome; its base table entry is zero.
const (
	extraINTONotTaken uint64 = 4
	extraINTOTaken    uint64 = 53
)

// enterInterrupt performs the state transition of an interrupt entry:
// push the flags word, CS, and the return offset, clear IF and TF, and
// load CS:IP from the vector table at the bottom of memory. Callers
// account for cycles; the transition itself charges none.
func (c *CPU) enterInterrupt(vector uint8) {
	c.pushWord(c.Flags())
	c.flags &^= FlagIF | FlagTF
	c.pushWord(c.Segments[insts.SegCS])
	c.pushWord(c.IP)

	addr := uint32(vector) * 4
	c.IP = c.bus.ReadWord(addr)
	c.Segments[insts.SegCS] = c.bus.ReadWord(addr + 2)
	c.prefetch.Flush()
}

// opINT raises the software interrupt named by the immediate.
func opINT(c *CPU, inst *insts.Instruction) {
	c.enterInterrupt(uint8(inst.Src.Val))
}

// opINT3 is the one-byte breakpoint encoding of INT 3.
func opINT3(c *CPU, inst *insts.Instruction) {
	c.enterInterrupt(3)
}

// opINTO raises interrupt 4 when OF is set and otherwise falls through
// for a few cycles.
func opINTO(c *CPU, inst *insts.Instruction) {
	if c.GetFlag(FlagOF) {
		c.chargeCycles(extraINTOTaken)
		c.enterInterrupt(4)
		return
	}
	c.chargeCycles(extraINTONotTaken)
}

// opIRET unwinds an interrupt entry: offset, CS, then the whole flags
// word, IF and TF included.
func opIRET(c *CPU, inst *insts.Instruction) {
	c.IP = c.popWord()
	c.Segments[insts.SegCS] = c.popWord()
	c.SetFlags(c.popWord())
	c.prefetch.Flush()
}

// checkInterrupts runs the end-of-instruction interrupt check. The
// one-instruction shadow after STI and stack-segment loads suppresses
// exactly one check. A pending unmasked request is acknowledged and
// entered only while IF is set.
func (c *CPU) checkInterrupts() {
	if c.delayInterrupt {
		c.delayInterrupt = false
		return
	}
	pic := c.bus.PIC()
	if pic == nil || !pic.INTR() {
		return
	}
	if !c.GetFlag(FlagIF) {
		return
	}
	vector := pic.Acknowledge()
	c.halted = false
	c.chargeCycles(c.table.InterruptEntryCycles)
	c.enterInterrupt(vector)
}
