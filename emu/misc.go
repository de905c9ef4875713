package emu

import "github.com/sarchlab/xtsim/insts"

const extraWAIT uint64 = 4

// opHLT parks the core. Execution resumes at the wake check in Step
// once an unmasked interrupt arrives.
func opHLT(c *CPU, inst *insts.Instruction) {
	c.halted = true
}

func opWAIT(c *CPU, inst *insts.Instruction) {
	c.chargeCycles(extraWAIT)
}

func opCMC(c *CPU, inst *insts.Instruction) {
	c.SetFlag(FlagCF, !c.GetFlag(FlagCF))
}

func opCLC(c *CPU, inst *insts.Instruction) {
	c.SetFlag(FlagCF, false)
}

func opSTC(c *CPU, inst *insts.Instruction) {
	c.SetFlag(FlagCF, true)
}

func opCLI(c *CPU, inst *insts.Instruction) {
	c.SetFlag(FlagIF, false)
}

// opSTI enables interrupts with a one-instruction shadow: a request
// pending at the STI itself is not taken until the next instruction
// has retired.
func opSTI(c *CPU, inst *insts.Instruction) {
	if !c.GetFlag(FlagIF) {
		c.delayInterrupt = true
	}
	c.SetFlag(FlagIF, true)
}

func opCLD(c *CPU, inst *insts.Instruction) {
	c.SetFlag(FlagDF, false)
}

func opSTD(c *CPU, inst *insts.Instruction) {
	c.SetFlag(FlagDF, true)
}
