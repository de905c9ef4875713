package emu

import (
	"github.com/sarchlab/xtsim/insts"
	"github.com/sarchlab/xtsim/mem"
)

const (
	// promoteVisitThreshold is the execution count at which an address
	// graduates from the decode cache to a basic block. The threshold
	// visit itself already runs through the block.
	promoteVisitThreshold = 100

	// maxBlockInsts caps how many instructions one block may hold.
	maxBlockInsts = 64
)

// blockMember is one instruction of a basic block together with its
// placement at build time.
type blockMember struct {
	inst *insts.Instruction
	addr uint32 // physical address of the opcode byte
	ip   uint16 // offset of the opcode byte within the code segment
}

// BasicBlock is a straight-line run of prefix-free instructions starting
// at a hot entry address. A block ends at a control transfer, at a
// prefix or undecodable byte, or at the member cap.
type BasicBlock struct {
	entry   uint32
	members []blockMember

	// lo and hi bound the members' byte span. A write outside the
	// bounds cannot touch the block; a write inside them is checked
	// member by member. The bounds are conservative when the span
	// wraps the address space.
	lo, hi uint32

	valid  bool
	visits uint64
}

// covers reports whether addr falls inside any member's encoded bytes.
func (b *BasicBlock) covers(addr uint32) bool {
	for _, m := range b.members {
		if (addr-m.addr)&mem.AddressMask < uint32(m.inst.Length) {
			return true
		}
	}
	return false
}

// Len returns the number of instructions in the block.
func (b *BasicBlock) Len() int {
	return len(b.members)
}

// Visits returns how many times the block has executed.
func (b *BasicBlock) Visits() uint64 {
	return b.visits
}

// BlockCacheStats counts basic block events.
type BlockCacheStats struct {
	Built         uint64
	Executions    uint64
	Invalidations uint64
}

// BlockCache is the third execution tier: basic blocks keyed by the
// physical address of their entry instruction.
type BlockCache struct {
	blocks map[uint32]*BasicBlock
	stats  BlockCacheStats
}

// NewBlockCache creates an empty block cache.
func NewBlockCache() *BlockCache {
	return &BlockCache{blocks: make(map[uint32]*BasicBlock)}
}

// Lookup returns the valid block entered at addr, or nil.
func (bc *BlockCache) Lookup(addr uint32) *BasicBlock {
	b := bc.blocks[addr]
	if b == nil {
		return nil
	}
	if !b.valid {
		delete(bc.blocks, addr)
		return nil
	}
	return b
}

// Insert registers a freshly built block under its entry address.
func (bc *BlockCache) Insert(b *BasicBlock) {
	bc.blocks[b.entry] = b
	bc.stats.Built++
}

// Invalidate drops one block.
func (bc *BlockCache) Invalidate(b *BasicBlock) {
	b.valid = false
	delete(bc.blocks, b.entry)
	bc.stats.Invalidations++
}

// InvalidateAddr drops every block whose member bytes cover addr. A
// block running when its bytes change stops before its next member.
func (bc *BlockCache) InvalidateAddr(addr uint32) {
	for entry, b := range bc.blocks {
		if addr < b.lo || addr > b.hi {
			continue
		}
		if b.covers(addr) {
			b.valid = false
			delete(bc.blocks, entry)
			bc.stats.Invalidations++
		}
	}
}

// Len returns the number of cached blocks.
func (bc *BlockCache) Len() int {
	return len(bc.blocks)
}

// Stats returns the event counters.
func (bc *BlockCache) Stats() BlockCacheStats {
	return bc.stats
}

// Reset drops all blocks and clears the counters.
func (bc *BlockCache) Reset() {
	bc.blocks = make(map[uint32]*BasicBlock)
	bc.stats = BlockCacheStats{}
}

// isControlTransfer reports whether an instruction can move IP somewhere
// other than the next sequential instruction. Such instructions end a
// basic block.
func isControlTransfer(inst *insts.Instruction) bool {
	op := inst.Opcode
	switch {
	case op >= 0x70 && op <= 0x7F: // Jcc
		return true
	case op >= 0xE0 && op <= 0xE3: // LOOP, LOOPE, LOOPNE, JCXZ
		return true
	case op == 0xC2 || op == 0xC3 || op == 0xCA || op == 0xCB: // RET, RETF
		return true
	case op >= 0xCC && op <= 0xCF: // INT3, INT, INTO, IRET
		return true
	case op == 0x9A || op == 0xE8: // CALL
		return true
	case op == 0xE9 || op == 0xEA || op == 0xEB: // JMP
		return true
	case op == 0xF4: // HLT
		return true
	case op == 0xFF: // indirect CALL/JMP selectors
		return inst.Reg >= 2 && inst.Reg <= 5
	}
	return false
}

// blockEntryFresh checks the block's first instruction bytes against
// the tag captured at build time. Executed stores invalidate blocks
// eagerly; the entry tag catches writes that never passed through the
// execution path.
func (c *CPU) blockEntryFresh(b *BasicBlock) bool {
	m := &b.members[0]
	n := int(m.inst.Length)
	var buf [insts.MaxLength]byte
	for i := 0; i < n; i++ {
		buf[i] = c.readMemByte((m.addr + uint32(i)) & mem.AddressMask)
	}
	return insts.ContentTag(buf[:n]) == m.inst.Tag
}

// buildBlock decodes a basic block starting at the current CS:IP and
// registers it under entryAddr. Building reads code through the bus
// without charging cycles; the members are priced when they execute.
func (c *CPU) buildBlock(entryAddr uint32) *BasicBlock {
	members := make([]blockMember, 0, 8)
	ip := c.IP
	var window [insts.MaxLength]byte

	for len(members) < maxBlockInsts {
		addr := c.linearAddr(insts.SegCS, ip)
		for i := range window {
			window[i] = c.readMemByte(c.linearAddr(insts.SegCS, ip+uint16(i)))
		}
		if insts.IsPrefix(window[0]) {
			break
		}
		inst, err := c.decoder.Decode(window[:], insts.SegNone)
		if err != nil {
			break
		}
		members = append(members, blockMember{inst: inst, addr: addr, ip: ip})
		if isControlTransfer(inst) {
			break
		}
		ip += inst.Length
	}
	if len(members) == 0 {
		return nil
	}

	b := &BasicBlock{
		entry:   entryAddr,
		members: members,
		lo:      members[0].addr,
		hi:      members[0].addr,
		valid:   true,
	}
	for _, m := range members {
		if m.addr < b.lo {
			b.lo = m.addr
		}
		end := (m.addr + uint32(m.inst.Length) - 1) & mem.AddressMask
		if end > b.hi {
			b.hi = end
		}
		if end < m.addr {
			// The member wraps the top of the address space; widen the
			// bounds to keep the reject test conservative.
			b.lo = 0
			b.hi = mem.AddressMask
		}
	}
	c.blocks.Insert(b)
	return b
}
