package emu

import (
	"github.com/sarchlab/xtsim/insts"
	"github.com/sarchlab/xtsim/mem"
	"github.com/sarchlab/xtsim/timing"
)

// ResetVector is the power-on CS:IP pair. The physical address works out
// to 0xFFFF0, sixteen bytes below the top of the address space.
const (
	ResetCS uint16 = 0xF000
	ResetIP uint16 = 0xFFF0
)

// CPU holds the complete execution state of one 8088 core: the register
// file, segment registers, instruction pointer, lazy flag state, prefix
// state, cycle counters, and the attached decode and block caches.
//
// All mutable processor state lives here. Handlers receive the CPU and
// the decoded instruction and touch nothing else.
type CPU struct {
	Regs     [8]uint16 // AX, CX, DX, BX, SP, BP, SI, DI
	Segments [4]uint16 // ES, CS, SS, DS
	IP       uint16

	// Lazy flag state. The flags word carries the eagerly maintained
	// bits; CF, ZF, SF, and PF derive from lastResult and lastOp when
	// read. See flags.go.
	flags      uint16
	lastResult uint32
	lastOp     FlagOp

	halted         bool
	delayInterrupt bool

	// Per-instruction prefix state, reset at the top of every step.
	segOverride uint8
	repPrefix   uint8
	locked      bool

	// instStart is the address of the first byte of the current
	// instruction, including prefixes. Repeated string operations loop
	// back to it.
	instStart uint16

	cycles       uint64
	TotalCycles  uint64
	Instructions uint64

	bus     *mem.Bus
	table   *timing.Table
	decoder *insts.Decoder

	decodeCache *DecodeCache
	blocks      *BlockCache
	prefetch    *PrefetchQueue

	lastFault  *Fault
	faultCount uint64
}

// NewCPU creates a CPU attached to the given bus and cycle table. A nil
// table selects the reference table.
func NewCPU(bus *mem.Bus, table *timing.Table) *CPU {
	if table == nil {
		table = timing.DefaultTable()
	}
	c := &CPU{
		bus:      bus,
		table:    table,
		decoder:  insts.NewDecoder(table),
		prefetch: NewPrefetchQueue(),
	}
	c.decodeCache = NewDecodeCache()
	c.blocks = NewBlockCache()
	c.Reset()
	return c
}

// Reset returns the CPU to power-on state: registers cleared, CS:IP at
// the reset vector, flags at their architectural reset value, and both
// caches and the prefetch queue emptied.
func (c *CPU) Reset() {
	c.Regs = [8]uint16{}
	c.Segments = [4]uint16{}
	c.Segments[insts.SegCS] = ResetCS
	c.IP = ResetIP
	c.flags = flagAlwaysOn
	c.lastResult = 0
	c.lastOp = FlagOpNone
	c.halted = false
	c.delayInterrupt = false
	c.segOverride = insts.SegNone
	c.repPrefix = 0
	c.locked = false
	c.instStart = 0
	c.cycles = 0
	c.TotalCycles = 0
	c.Instructions = 0
	c.lastFault = nil
	c.faultCount = 0
	c.decodeCache.Reset()
	c.blocks.Reset()
	c.prefetch.Reset()
}

// Bus returns the attached memory bus.
func (c *CPU) Bus() *mem.Bus {
	return c.bus
}

// Table returns the cycle table the CPU executes against.
func (c *CPU) Table() *timing.Table {
	return c.table
}

// Halted reports whether the CPU is stopped on a HLT instruction.
func (c *CPU) Halted() bool {
	return c.halted
}

// DecodeCacheStats returns the decode cache counters.
func (c *CPU) DecodeCacheStats() DecodeCacheStats {
	return c.decodeCache.Stats()
}

// BlockCacheStats returns the basic block counters.
func (c *CPU) BlockCacheStats() BlockCacheStats {
	return c.blocks.Stats()
}

// BlockCount returns the number of live basic blocks.
func (c *CPU) BlockCount() int {
	return c.blocks.Len()
}

// PrefetchStats returns the prefetch queue counters.
func (c *CPU) PrefetchStats() PrefetchStats {
	return c.prefetch.Stats()
}

// Reg8 reads an 8-bit register. Indices 0-3 address the low byte of
// AX-BX, indices 4-7 the high byte.
func (c *CPU) Reg8(idx uint8) uint8 {
	word := c.Regs[idx&3]
	if idx < 4 {
		return uint8(word)
	}
	return uint8(word >> 8)
}

// SetReg8 writes an 8-bit register.
func (c *CPU) SetReg8(idx uint8, v uint8) {
	word := c.Regs[idx&3]
	if idx < 4 {
		word = word&0xFF00 | uint16(v)
	} else {
		word = word&0x00FF | uint16(v)<<8
	}
	c.Regs[idx&3] = word
}

// linearAddr forms the 20-bit physical address of a segment:offset pair,
// wrapping at the top of the address space.
func (c *CPU) linearAddr(segIdx uint8, off uint16) uint32 {
	return (uint32(c.Segments[segIdx])<<4 + uint32(off)) & mem.AddressMask
}

// codeAddr is the physical address of the next instruction byte.
func (c *CPU) codeAddr() uint32 {
	return c.linearAddr(insts.SegCS, c.IP)
}

// chargeCycles adds handler cycles to the current instruction.
func (c *CPU) chargeCycles(n uint64) {
	c.cycles += n
}

// Snapshot captures the architectural state of the CPU at one point in
// time. Flags are fully materialized.
type Snapshot struct {
	Regs     [8]uint16
	Segments [4]uint16
	IP       uint16
	Flags    uint16

	Halted       bool
	TotalCycles  uint64
	Instructions uint64
	FaultCount   uint64
}

// Snapshot returns a copy of the current architectural state.
func (c *CPU) Snapshot() Snapshot {
	return Snapshot{
		Regs:         c.Regs,
		Segments:     c.Segments,
		IP:           c.IP,
		Flags:        c.Flags(),
		Halted:       c.halted,
		TotalCycles:  c.TotalCycles,
		Instructions: c.Instructions,
		FaultCount:   c.faultCount,
	}
}
