// Package timing provides the 8088 instruction cycle model.
//
// The model is additive: every instruction starts from the register-form
// base cost of its opcode, then collects effective-address cycles for
// ModR/M memory operands, per-access bus penalties, prefix costs, and any
// handler-specific extras (taken branches, shift counts, repeats).
//
// Base costs assume steady-state prefetch overlap, matching the figures in
// the Intel hardware reference. The prefetch queue is modeled structurally
// and does not alter instruction costs.
package timing

// Penalty and extra-cost defaults, in cycles.
const (
	// DefaultMemReadPenalty is charged per memory read of a ModR/M operand.
	// The 8-bit bus needs one full bus cycle (4 clocks) plus EU overlap loss.
	DefaultMemReadPenalty uint64 = 6

	// DefaultMemWritePenalty is charged per memory write of a ModR/M operand.
	DefaultMemWritePenalty uint64 = 7

	// DefaultWordTransferPenalty is charged once per 16-bit ModR/M memory
	// operand. The 8088 moves words as two byte transfers.
	DefaultWordTransferPenalty uint64 = 4

	// DefaultDispCycles is added to the EA cost when a nonzero displacement
	// participates in the address computation.
	DefaultDispCycles uint64 = 4

	// DefaultDirectAddressCycles is the EA cost of a direct (mod=00, rm=110)
	// address.
	DefaultDirectAddressCycles uint64 = 6

	// DefaultSegmentOverrideCycles is charged per segment-override prefix.
	DefaultSegmentOverrideCycles uint64 = 2

	// DefaultBranchTakenCycles is the extra cost of a taken conditional
	// branch or loop, covering the prefetch queue refill.
	DefaultBranchTakenCycles uint64 = 12

	// DefaultInterruptEntryCycles is the cost of a hardware interrupt entry:
	// two INTA bus cycles, three pushes, and the vector fetch.
	DefaultInterruptEntryCycles uint64 = 61

	// DefaultHaltIdleCycles is the cost of one step while the processor is
	// halted with no pending interrupt.
	DefaultHaltIdleCycles uint64 = 4

	// DefaultInvalidOpcodeCycles is charged when an undefined opcode byte is
	// skipped, so that budget-driven runs always make progress.
	DefaultInvalidOpcodeCycles uint64 = 4

	// DefaultShiftPerBitCycles is the per-count cost of variable shifts and
	// rotates (the CL-count forms).
	DefaultShiftPerBitCycles uint64 = 4
)

// BaseCycles holds the register-operand-form cost of each opcode byte.
// Entries of 0 mark bytes that are prefixes, undefined opcodes, or opcodes
// whose cost is supplied entirely by their handler (group members, INTO).
var BaseCycles = [256]uint64{
	// 0x00-0x07: ADD, PUSH ES, POP ES
	3, 3, 3, 3, 4, 4, 14, 12,
	// 0x08-0x0F: OR, PUSH CS, (0x0F undefined)
	3, 3, 3, 3, 4, 4, 14, 0,
	// 0x10-0x17: ADC, PUSH SS, POP SS
	3, 3, 3, 3, 4, 4, 14, 12,
	// 0x18-0x1F: SBB, PUSH DS, POP DS
	3, 3, 3, 3, 4, 4, 14, 12,
	// 0x20-0x27: AND, ES: prefix, DAA
	3, 3, 3, 3, 4, 4, 0, 4,
	// 0x28-0x2F: SUB, CS: prefix, DAS
	3, 3, 3, 3, 4, 4, 0, 4,
	// 0x30-0x37: XOR, SS: prefix, AAA
	3, 3, 3, 3, 4, 4, 0, 4,
	// 0x38-0x3F: CMP, DS: prefix, AAS
	3, 3, 3, 3, 4, 4, 0, 4,
	// 0x40-0x4F: INC r16, DEC r16
	2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2,
	// 0x50-0x5F: PUSH r16, POP r16
	15, 15, 15, 15, 15, 15, 15, 15,
	12, 12, 12, 12, 12, 12, 12, 12,
	// 0x60-0x6F: undefined on the 8088
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	// 0x70-0x7F: Jcc short (not-taken cost; taken adds BranchTakenCycles)
	4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4,
	// 0x80-0x87: immediate groups, TEST, XCHG
	4, 4, 4, 4, 5, 5, 4, 4,
	// 0x88-0x8F: MOV, LEA, MOV sreg, POP r/m (group)
	2, 2, 2, 2, 2, 2, 2, 0,
	// 0x90-0x97: NOP / XCHG AX,r16
	3, 3, 3, 3, 3, 3, 3, 3,
	// 0x98-0x9F: CBW, CWD, CALL far, WAIT, PUSHF, POPF, SAHF, LAHF
	2, 5, 36, 0, 14, 12, 4, 4,
	// 0xA0-0xA7: MOV moffs forms, MOVS, CMPS
	14, 14, 14, 14, 18, 26, 22, 30,
	// 0xA8-0xAF: TEST acc, STOS, LODS, SCAS
	4, 4, 11, 15, 12, 16, 15, 19,
	// 0xB0-0xBF: MOV r,imm
	4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4,
	// 0xC0-0xC7: RET imm, RET, LES, LDS, MOV r/m,imm
	0, 0, 24, 20, 24, 24, 4, 4,
	// 0xC8-0xCF: RETF imm, RETF, INT3, INT n, INTO (handler-costed), IRET
	0, 0, 33, 34, 52, 51, 0, 44,
	// 0xD0-0xD7: shift groups, AAM, AAD, (0xD6 undefined), XLAT
	2, 2, 8, 8, 83, 60, 0, 11,
	// 0xD8-0xDF: ESC opcodes, undefined without a coprocessor
	0, 0, 0, 0, 0, 0, 0, 0,
	// 0xE0-0xE7: LOOPNE, LOOPE, LOOP, JCXZ, IN, OUT (immediate port)
	5, 5, 5, 6, 10, 14, 10, 14,
	// 0xE8-0xEF: CALL, JMP near/far/short, IN, OUT (DX port)
	23, 15, 15, 15, 8, 12, 8, 12,
	// 0xF0-0xF7: LOCK, (0xF1), REPNE, REP, HLT, CMC, unary groups
	0, 0, 0, 0, 2, 2, 5, 5,
	// 0xF8-0xFF: flag ops, INC/DEC group, indirect group
	2, 2, 2, 2, 2, 2, 3, 0,
}

// EACycles holds the effective-address computation cost indexed by the
// ModR/M rm field: BX+SI, BX+DI, BP+SI, BP+DI, SI, DI, BP, BX.
var EACycles = [8]uint64{7, 8, 8, 7, 5, 5, 5, 5}

// Table is a resolved cycle model: the static base and EA tables combined
// with the tunable penalties of a Config.
type Table struct {
	Base [256]uint64
	EA   [8]uint64

	MemReadPenalty      uint64
	MemWritePenalty     uint64
	WordTransferPenalty uint64

	DispCycles            uint64
	DirectAddressCycles   uint64
	SegmentOverrideCycles uint64

	BranchTakenCycles    uint64
	InterruptEntryCycles uint64
	HaltIdleCycles       uint64
	InvalidOpcodeCycles  uint64
	ShiftPerBitCycles    uint64
}

// NewTable builds a Table from a Config. The config is not retained.
func NewTable(cfg *Config) *Table {
	t := &Table{
		Base:                  BaseCycles,
		EA:                    EACycles,
		MemReadPenalty:        cfg.MemReadPenalty,
		MemWritePenalty:       cfg.MemWritePenalty,
		WordTransferPenalty:   cfg.WordTransferPenalty,
		DispCycles:            cfg.DispCycles,
		DirectAddressCycles:   cfg.DirectAddressCycles,
		SegmentOverrideCycles: cfg.SegmentOverrideCycles,
		BranchTakenCycles:     cfg.BranchTakenCycles,
		InterruptEntryCycles:  cfg.InterruptEntryCycles,
		HaltIdleCycles:        cfg.HaltIdleCycles,
		InvalidOpcodeCycles:   cfg.InvalidOpcodeCycles,
		ShiftPerBitCycles:     cfg.ShiftPerBitCycles,
	}
	return t
}

// DefaultTable returns a Table with the reference 8088 cycle counts.
func DefaultTable() *Table {
	return NewTable(DefaultConfig())
}

// EAClocks returns the effective-address cost for a ModR/M memory operand.
// direct selects the mod=00 rm=110 absolute form; hasDisp reports a nonzero
// displacement in the base+displacement forms.
func (t *Table) EAClocks(rm uint8, direct bool, hasDisp bool) uint64 {
	if direct {
		return t.DirectAddressCycles
	}
	cycles := t.EA[rm&7]
	if hasDisp {
		cycles += t.DispCycles
	}
	return cycles
}
