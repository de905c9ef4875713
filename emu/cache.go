package emu

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/xtsim/insts"
	"github.com/sarchlab/xtsim/mem"
)

// Decode cache geometry: 2048 sets of 4 ways, one decoded instruction
// per way. The directory tracks one byte address per block, so set
// selection falls directly out of the instruction's start address.
const (
	decodeCacheSets  = 2048
	decodeCacheAssoc = 4
)

// decodeEntry is the payload behind one directory way: the decoded
// instruction for one physical start address and the number of times
// execution has reached it.
type decodeEntry struct {
	inst   *insts.Instruction
	addr   uint32
	visits uint64
}

// DecodeCacheStats counts decode cache events.
type DecodeCacheStats struct {
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Invalidations uint64
}

// DecodeCache is the second execution tier: a set-associative cache of
// decoded instructions keyed by the physical address of the opcode
// byte. An entry is reused only when the content tag of the live bytes
// still matches the decode-time tag, so a stale decode loses to
// self-modifying code even if a write slipped past invalidation.
//
// Prefixed instructions are never cached. Their decoded form bakes in
// the override segment, which would alias with a prefix-free decode of
// the same opcode bytes.
type DecodeCache struct {
	directory *akitacache.DirectoryImpl
	entries   []decodeEntry
	stats     DecodeCacheStats
}

// NewDecodeCache creates an empty decode cache.
func NewDecodeCache() *DecodeCache {
	return &DecodeCache{
		directory: akitacache.NewDirectory(
			decodeCacheSets,
			decodeCacheAssoc,
			1,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]decodeEntry, decodeCacheSets*decodeCacheAssoc),
	}
}

// entryFor returns the payload slot of a directory block.
func (dc *DecodeCache) entryFor(block *akitacache.Block) *decodeEntry {
	return &dc.entries[block.SetID*decodeCacheAssoc+block.WayID]
}

// Lookup probes the cache for the instruction starting at addr. window
// holds the live bytes at addr for tag revalidation; a stale entry is
// dropped and reported as a miss.
func (dc *DecodeCache) Lookup(addr uint32, window []byte) *decodeEntry {
	block := dc.directory.Lookup(0, uint64(addr))
	if block == nil || !block.IsValid {
		dc.stats.Misses++
		return nil
	}

	entry := dc.entryFor(block)
	n := int(entry.inst.Length)
	if n > len(window) || insts.ContentTag(window[:n]) != entry.inst.Tag {
		block.IsValid = false
		entry.inst = nil
		dc.stats.Invalidations++
		dc.stats.Misses++
		return nil
	}

	dc.stats.Hits++
	dc.directory.Visit(block)
	return entry
}

// Insert caches a freshly decoded instruction, evicting the LRU way of
// its set when the set is full. The entry starts with one visit, the
// execution that decoded it.
func (dc *DecodeCache) Insert(addr uint32, inst *insts.Instruction) {
	victim := dc.directory.FindVictim(uint64(addr))
	if victim == nil {
		return
	}
	if victim.IsValid {
		dc.stats.Evictions++
	}

	victim.Tag = uint64(addr)
	victim.IsValid = true
	victim.IsDirty = false
	*dc.entryFor(victim) = decodeEntry{inst: inst, addr: addr, visits: 1}
	dc.directory.Visit(victim)
}

// InvalidateAddr drops any cached instruction whose encoded bytes cover
// addr. Only starts within MaxLength-1 bytes back can reach it.
func (dc *DecodeCache) InvalidateAddr(addr uint32) {
	for off := uint32(0); off < insts.MaxLength; off++ {
		start := (addr - off) & mem.AddressMask
		block := dc.directory.Lookup(0, uint64(start))
		if block == nil || !block.IsValid {
			continue
		}
		entry := dc.entryFor(block)
		if uint32(entry.inst.Length) > off {
			block.IsValid = false
			entry.inst = nil
			dc.stats.Invalidations++
		}
	}
}

// Stats returns the event counters.
func (dc *DecodeCache) Stats() DecodeCacheStats {
	return dc.stats
}

// Reset empties the cache and clears the counters.
func (dc *DecodeCache) Reset() {
	dc.directory.Reset()
	for i := range dc.entries {
		dc.entries[i] = decodeEntry{}
	}
	dc.stats = DecodeCacheStats{}
}
