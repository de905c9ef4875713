package insts

import "hash/crc32"

// Prefix bytes recognized by IsPrefix. These never reach Decode as an
// opcode; the step loop consumes them and tracks their effect itself.
const (
	PrefixES    uint8 = 0x26
	PrefixCS    uint8 = 0x2E
	PrefixSS    uint8 = 0x36
	PrefixDS    uint8 = 0x3E
	PrefixLOCK  uint8 = 0xF0
	PrefixREPNE uint8 = 0xF2
	PrefixREP   uint8 = 0xF3
)

// IsPrefix reports whether b is an instruction prefix byte.
func IsPrefix(b uint8) bool {
	switch b {
	case PrefixES, PrefixCS, PrefixSS, PrefixDS, PrefixLOCK, PrefixREPNE, PrefixREP:
		return true
	}
	return false
}

// SegmentForPrefix returns the segment register index selected by a
// segment-override prefix byte, or SegNone for other bytes.
func SegmentForPrefix(b uint8) uint8 {
	switch b {
	case PrefixES:
		return SegES
	case PrefixCS:
		return SegCS
	case PrefixSS:
		return SegSS
	case PrefixDS:
		return SegDS
	}
	return SegNone
}

// Instruction represents one decoded 8088 instruction.
//
// Length counts the bytes of the instruction itself, excluding any prefix
// bytes. FixedCycles is the decode-time share of the instruction's cost:
// the opcode base cost plus effective-address and word-operand charges.
// Bus-access and handler charges are added during execution.
type Instruction struct {
	Opcode uint8
	Reg    uint8 // ModR/M reg field: register operand index or group selector
	Dst    Operand
	Src    Operand

	Length      uint16
	FixedCycles uint64
	Tag         uint32
	HasModRM    bool
}

// ContentTag computes the content-identity tag of an encoded instruction.
// Cached decode results are revalidated against the live instruction bytes
// with this tag before reuse.
func ContentTag(code []byte) uint32 {
	return crc32.ChecksumIEEE(code)
}
