package emu

import "github.com/sarchlab/xtsim/insts"

// StepTier identifies the execution tier that retired a step.
type StepTier uint8

const (
	// TierNone marks a step that retired no instruction: halted idle
	// time or an interrupt wake.
	TierNone StepTier = iota

	// Tier1 is the full fetch-and-decode path.
	Tier1

	// Tier2 reuses a cached decode.
	Tier2

	// Tier3 executes a promoted basic block.
	Tier3
)

func (t StepTier) String() string {
	switch t {
	case Tier1:
		return "decode"
	case Tier2:
		return "decode-cache"
	case Tier3:
		return "block"
	}
	return "none"
}

// StepResult reports one Step call.
type StepResult struct {
	// Cycles is the simulated time the step consumed.
	Cycles uint64

	// Tier is the execution tier that ran.
	Tier StepTier

	// Fault is the fault recorded during the step, or nil.
	Fault *Fault
}

// Step executes one instruction, or one basic block once the address is
// promoted, and advances the cycle accounting. A halted CPU spends idle
// time until an unmasked interrupt arrives.
//
// The three tiers retire identical architectural state and identical
// cycle counts for the same instruction stream; they differ only in how
// much decode work they skip.
func (c *CPU) Step() StepResult {
	c.cycles = 0
	if c.halted {
		return c.stepHalted()
	}

	faultBefore := c.faultCount
	c.segOverride = insts.SegNone
	c.repPrefix = 0
	c.locked = false
	c.instStart = c.IP

	if b := c.blocks.Lookup(c.codeAddr()); b != nil {
		if c.blockEntryFresh(b) {
			return c.runBlock(b)
		}
		c.blocks.Invalidate(b)
	}

	// Consume prefix bytes. A segment's worth of prefixes proves the
	// stream can never reach an opcode.
	prefixes := 0
	for {
		b := c.readMemByte(c.codeAddr())
		if !insts.IsPrefix(b) {
			break
		}
		if prefixes++; prefixes > 0xFFFF {
			return c.faultInvalid(b, faultBefore, 0)
		}
		switch b {
		case insts.PrefixREP, insts.PrefixREPNE:
			c.repPrefix = b
		case insts.PrefixLOCK:
			c.locked = true
		default:
			c.segOverride = insts.SegmentForPrefix(b)
			c.chargeCycles(c.table.SegmentOverrideCycles)
		}
		c.IP++
	}

	addr := c.codeAddr()
	prefixLen := c.IP - c.instStart
	var window [insts.MaxLength]byte
	c.fetchWindow(window[:])

	tier := Tier1
	var inst *insts.Instruction

	if prefixLen == 0 {
		if entry := c.decodeCache.Lookup(addr, window[:]); entry != nil {
			if entry.visits >= promoteVisitThreshold {
				if b := c.buildBlock(addr); b != nil {
					return c.runBlock(b)
				}
			}
			entry.visits++
			inst = entry.inst
			tier = Tier2
		}
	}

	if inst == nil {
		decoded, err := c.decoder.Decode(window[:], c.segOverride)
		if err != nil {
			return c.faultInvalid(window[0], faultBefore, prefixLen)
		}
		inst = decoded
		if prefixLen == 0 {
			c.decodeCache.Insert(addr, inst)
		}
	}

	c.prefetch.Consume(c.linearAddr(insts.SegCS, c.instStart),
		int(prefixLen)+int(inst.Length))
	c.executeInst(inst)
	c.finishStep()

	return StepResult{Cycles: c.cycles, Tier: tier, Fault: c.newFaultSince(faultBefore)}
}

// stepHalted spends one slice of halt time. A pending unmasked
// interrupt wakes the core and enters its handler; the handler's first
// instruction runs on the next step.
func (c *CPU) stepHalted() StepResult {
	c.checkInterrupts()
	if c.halted {
		c.chargeCycles(c.table.HaltIdleCycles)
	}
	c.prefetch.Refill(c.cycles)
	c.bus.TickDevices(c.cycles)
	c.TotalCycles += c.cycles
	return StepResult{Cycles: c.cycles, Tier: TierNone}
}

// executeInst charges the decode-time cycle share, advances IP past the
// instruction, and dispatches to the handler. Handlers see IP already
// at the next instruction, which is what relative branches and the
// stacked return address need.
func (c *CPU) executeInst(inst *insts.Instruction) {
	h := dispatchTable[inst.Opcode]
	if h == nil {
		c.recordFault(FaultInvalidOpcode, c.Segments[insts.SegCS], c.instStart,
			c.codeAddr(), inst.Opcode)
		c.chargeCycles(c.table.InvalidOpcodeCycles)
		c.IP++
		return
	}
	c.chargeCycles(inst.FixedCycles)
	c.IP += inst.Length
	h(c, inst)
}

// finishStep closes out one instruction: the end-of-instruction
// interrupt check, prefetch refill, device time, and the running
// counters.
func (c *CPU) finishStep() {
	c.checkInterrupts()
	c.prefetch.Refill(c.cycles)
	c.bus.TickDevices(c.cycles)
	c.TotalCycles += c.cycles
	c.Instructions++
}

// faultInvalid records an undefined or truncated instruction, charges
// the fault cost, and skips the offending byte so execution continues.
func (c *CPU) faultInvalid(b uint8, faultBefore uint64, prefixLen uint16) StepResult {
	c.recordFault(FaultInvalidOpcode, c.Segments[insts.SegCS], c.instStart,
		c.codeAddr(), b)
	c.chargeCycles(c.table.InvalidOpcodeCycles)
	c.prefetch.Consume(c.linearAddr(insts.SegCS, c.instStart), int(prefixLen)+1)
	c.IP++
	c.finishStep()
	return StepResult{Cycles: c.cycles, Tier: Tier1, Fault: c.newFaultSince(faultBefore)}
}

// runBlock executes the members of a basic block until the block ends,
// a transfer or fault redirects IP, the block is invalidated, or the
// core halts. Each member retires with the same accounting a lone Step
// would give it, interrupt check included.
func (c *CPU) runBlock(b *BasicBlock) StepResult {
	b.visits++
	c.blocks.stats.Executions++
	faultBefore := c.faultCount
	c.segOverride = insts.SegNone
	c.repPrefix = 0
	c.locked = false

	var total uint64
	for i := range b.members {
		if !b.valid || c.halted {
			break
		}
		m := &b.members[i]
		c.cycles = 0
		c.instStart = m.ip
		c.prefetch.Consume(m.addr, int(m.inst.Length))
		c.executeInst(m.inst)
		c.finishStep()
		total += c.cycles

		if i+1 < len(b.members) && c.IP != b.members[i+1].ip {
			break
		}
	}
	return StepResult{Cycles: total, Tier: Tier3, Fault: c.newFaultSince(faultBefore)}
}

// newFaultSince returns the last fault if one was recorded after the
// given count, or nil.
func (c *CPU) newFaultSince(before uint64) *Fault {
	if c.faultCount > before {
		return c.lastFault
	}
	return nil
}

// RunFor executes steps until at least budget cycles have elapsed and
// returns the cycles actually consumed. The final step always retires
// whole; it is never cut short to land on the budget.
func (c *CPU) RunFor(budget uint64) uint64 {
	var used uint64
	for used < budget {
		used += c.Step().Cycles
	}
	return used
}
