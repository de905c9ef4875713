package insts

import (
	"errors"

	"github.com/sarchlab/xtsim/timing"
)

// Decode errors.
var (
	// ErrInvalidOpcode reports an opcode byte the 8088 does not define.
	ErrInvalidOpcode = errors.New("invalid opcode")

	// ErrPrefixByte reports that the decode position holds a prefix byte,
	// which the caller must consume itself before decoding.
	ErrPrefixByte = errors.New("prefix byte")

	// ErrTruncated reports that the code window ends inside the instruction.
	ErrTruncated = errors.New("truncated instruction")
)

// MaxLength is the longest encoding Decode accepts, excluding prefixes:
// opcode, ModR/M, 16-bit displacement, 16-bit immediate.
const MaxLength = 6

// Decoder decodes 8088 machine code into instructions.
type Decoder struct {
	table *timing.Table
}

// NewDecoder creates a decoder that prices instructions against the given
// cycle table. A nil table selects the reference table.
func NewDecoder(table *timing.Table) *Decoder {
	if table == nil {
		table = timing.DefaultTable()
	}
	return &Decoder{table: table}
}

// decodeState tracks the fetch position inside one instruction window.
type decodeState struct {
	window   []byte
	pos      int
	override uint8
}

func (s *decodeState) fetchByte() (uint8, error) {
	if s.pos >= len(s.window) {
		return 0, ErrTruncated
	}
	b := s.window[s.pos]
	s.pos++
	return b, nil
}

func (s *decodeState) fetchWord() (uint16, error) {
	lo, err := s.fetchByte()
	if err != nil {
		return 0, err
	}
	hi, err := s.fetchByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// parseModRM decodes a ModR/M byte and its displacement. The returned
// operand is the r/m side; reg is the raw reg field. wide selects the
// 16-bit register and memory kinds.
func (s *decodeState) parseModRM(wide bool) (Operand, uint8, error) {
	b, err := s.fetchByte()
	if err != nil {
		return Operand{}, 0, err
	}
	mod := b >> 6
	reg := (b >> 3) & 7
	rm := b & 7

	regKind, memKind := KindReg8, KindMem8
	if wide {
		regKind, memKind = KindReg16, KindMem16
	}

	if mod == 3 {
		return Operand{Kind: regKind, Reg: rm}, reg, nil
	}

	op := Operand{Kind: memKind, RM: rm, Seg: defaultSegment(mod, rm)}
	switch mod {
	case 0:
		if rm == 6 {
			addr, err := s.fetchWord()
			if err != nil {
				return Operand{}, 0, err
			}
			op.RM = RMDirect
			op.Val = addr
		}
	case 1:
		disp, err := s.fetchByte()
		if err != nil {
			return Operand{}, 0, err
		}
		op.Val = uint16(int16(int8(disp)))
		op.HasDisp = true
	case 2:
		disp, err := s.fetchWord()
		if err != nil {
			return Operand{}, 0, err
		}
		op.Val = disp
		op.HasDisp = true
	}
	if s.override != SegNone {
		op.Seg = s.override
	}
	return op, reg, nil
}

// defaultSegment returns the segment a memory operand addresses when no
// override prefix is present. BP-based rows go through SS; the mod=00
// rm=110 row is a direct DS address, not a BP reference.
func defaultSegment(mod, rm uint8) uint8 {
	switch rm {
	case 2, 3:
		return SegSS
	case 6:
		if mod == 0 {
			return SegDS
		}
		return SegSS
	}
	return SegDS
}

func regOperand(idx uint8, wide bool) Operand {
	if wide {
		return Operand{Kind: KindReg16, Reg: idx}
	}
	return Operand{Kind: KindReg8, Reg: idx}
}

func accOperand(wide bool) Operand {
	return regOperand(RegAX, wide)
}

// Decode decodes the instruction at the start of window. The window must
// begin at the opcode byte; prefixes are the caller's concern, with any
// active segment override passed in (SegNone for none).
//
// The returned instruction carries its decode-time cycle share in
// FixedCycles and a content tag over the consumed bytes for cache
// revalidation.
func (d *Decoder) Decode(window []byte, override uint8) (*Instruction, error) {
	if len(window) == 0 {
		return nil, ErrTruncated
	}
	opcode := window[0]
	if IsPrefix(opcode) {
		return nil, ErrPrefixByte
	}

	s := &decodeState{window: window, pos: 1, override: override}
	inst := &Instruction{Opcode: opcode, FixedCycles: d.table.Base[opcode]}

	var err error
	switch {
	case opcode < 0x40 && opcode&7 < 6:
		err = d.decodeALUForm(s, inst)
	case opcode == 0x06 || opcode == 0x0E || opcode == 0x16 || opcode == 0x1E:
		inst.Src = Operand{Kind: KindSeg, Reg: opcode >> 3}
	case opcode == 0x07 || opcode == 0x17 || opcode == 0x1F:
		inst.Dst = Operand{Kind: KindSeg, Reg: opcode >> 3}
	case opcode == 0x27 || opcode == 0x2F || opcode == 0x37 || opcode == 0x3F:
		// DAA, DAS, AAA, AAS take no operands.
	case opcode >= 0x40 && opcode <= 0x5F:
		// INC/DEC/PUSH/POP r16, register in the low 3 bits.
		inst.Dst = Operand{Kind: KindReg16, Reg: opcode & 7}
	case opcode >= 0x70 && opcode <= 0x7F:
		err = d.decodeRel8(s, inst)
	case opcode >= 0x80 && opcode <= 0x83:
		err = d.decodeImmGroup(s, inst)
	case opcode >= 0x84 && opcode <= 0x89:
		// TEST r/m,r; XCHG r/m,r; MOV r/m,r.
		err = d.decodeModRMPair(s, inst, opcode&1 == 1, true)
	case opcode == 0x8A || opcode == 0x8B:
		// MOV r, r/m.
		err = d.decodeModRMPair(s, inst, opcode&1 == 1, false)
	case opcode == 0x8C || opcode == 0x8E:
		err = d.decodeMOVSeg(s, inst)
	case opcode == 0x8D:
		err = d.decodeLoadPointer(s, inst)
	case opcode == 0x8F:
		err = d.decodePopRM(s, inst)
	case opcode >= 0x90 && opcode <= 0x97:
		// NOP / XCHG AX,r16.
		inst.Dst = Operand{Kind: KindReg16, Reg: opcode & 7}
	case opcode == 0x98 || opcode == 0x99:
		// CBW, CWD operate on the accumulator pair implicitly.
	case opcode == 0x9A:
		err = d.decodeFar(s, inst)
	case opcode >= 0x9B && opcode <= 0x9F:
		// WAIT, PUSHF, POPF, SAHF, LAHF take no operands.
	case opcode >= 0xA0 && opcode <= 0xA3:
		err = d.decodeMoffs(s, inst)
	case opcode >= 0xA4 && opcode <= 0xA7 || opcode >= 0xAA && opcode <= 0xAF:
		// String operations use SI, DI, and the accumulator implicitly.
	case opcode == 0xA8 || opcode == 0xA9:
		err = d.decodeTestAcc(s, inst)
	case opcode >= 0xB0 && opcode <= 0xBF:
		err = d.decodeMOVImm(s, inst)
	case opcode == 0xC2 || opcode == 0xCA:
		err = d.decodeRetImm(s, inst)
	case opcode == 0xC3 || opcode == 0xCB:
		// RET without a stack adjustment.
	case opcode == 0xC4 || opcode == 0xC5:
		err = d.decodeLoadPointer(s, inst)
	case opcode == 0xC6 || opcode == 0xC7:
		err = d.decodeMOVRMImm(s, inst)
	case opcode == 0xCC || opcode == 0xCE || opcode == 0xCF:
		// INT3, INTO, IRET.
	case opcode == 0xCD:
		err = d.decodeInt(s, inst)
	case opcode >= 0xD0 && opcode <= 0xD3:
		err = d.decodeShiftGroup(s, inst)
	case opcode == 0xD4 || opcode == 0xD5:
		err = d.decodeASCIIAdjust(s, inst)
	case opcode == 0xD7:
		// XLAT addresses DS:BX+AL implicitly.
	case opcode >= 0xE0 && opcode <= 0xE3:
		err = d.decodeRel8(s, inst)
	case opcode >= 0xE4 && opcode <= 0xE7:
		err = d.decodePortImm(s, inst)
	case opcode == 0xE8 || opcode == 0xE9:
		err = d.decodeRel16(s, inst)
	case opcode == 0xEA:
		err = d.decodeFar(s, inst)
	case opcode == 0xEB:
		err = d.decodeRel8(s, inst)
	case opcode >= 0xEC && opcode <= 0xEF:
		d.decodePortDX(inst)
	case opcode == 0xF4 || opcode == 0xF5:
		// HLT, CMC.
	case opcode == 0xF6 || opcode == 0xF7:
		err = d.decodeUnaryGroup(s, inst)
	case opcode >= 0xF8 && opcode <= 0xFD:
		// CLC, STC, CLI, STI, CLD, STD.
	case opcode == 0xFE || opcode == 0xFF:
		err = d.decodeIncDecGroup(s, inst)
	default:
		return nil, ErrInvalidOpcode
	}
	if err != nil {
		return nil, err
	}

	inst.Length = uint16(s.pos)
	inst.Tag = ContentTag(window[:s.pos])
	return inst, nil
}

// addMemCycles prices the ModR/M memory operand of inst, if any: the
// effective-address cost plus the word-transfer penalty for 16-bit
// operands. LEA computes an address without touching memory and skips the
// transfer penalty.
func (d *Decoder) addMemCycles(inst *Instruction) {
	m := &inst.Dst
	if !m.IsMem() {
		m = &inst.Src
		if !m.IsMem() {
			return
		}
	}
	inst.FixedCycles += d.table.EAClocks(m.RM, m.RM == RMDirect, m.HasDisp)
	if m.Kind == KindMem16 && inst.Opcode != 0x8D {
		inst.FixedCycles += d.table.WordTransferPenalty
	}
}

// decodeModRMPair handles the two-operand ModR/M forms: one side is the
// r/m operand, the other the register named by the reg field. rmIsDst
// selects the direction.
func (d *Decoder) decodeModRMPair(s *decodeState, inst *Instruction, wide, rmIsDst bool) error {
	rm, reg, err := s.parseModRM(wide)
	if err != nil {
		return err
	}
	inst.HasModRM = true
	inst.Reg = reg
	regOp := regOperand(reg, wide)
	if rmIsDst {
		inst.Dst, inst.Src = rm, regOp
	} else {
		inst.Dst, inst.Src = regOp, rm
	}
	d.addMemCycles(inst)
	return nil
}

// decodeALUForm handles the six-form ALU rows (ADD through CMP). The low
// three opcode bits select the form: r/m-with-register in both
// directions, then accumulator-with-immediate.
func (d *Decoder) decodeALUForm(s *decodeState, inst *Instruction) error {
	form := inst.Opcode & 7
	wide := inst.Opcode&1 == 1
	switch form {
	case 0, 1, 2, 3:
		return d.decodeModRMPair(s, inst, wide, form < 2)
	case 4:
		v, err := s.fetchByte()
		if err != nil {
			return err
		}
		inst.Dst = Operand{Kind: KindReg8, Reg: RegAL}
		inst.Src = Operand{Kind: KindImm8, Val: uint16(v)}
	case 5:
		v, err := s.fetchWord()
		if err != nil {
			return err
		}
		inst.Dst = Operand{Kind: KindReg16, Reg: RegAX}
		inst.Src = Operand{Kind: KindImm16, Val: v}
	}
	return nil
}

// decodeImmGroup handles opcodes 0x80-0x83: ALU operation r/m, imm with
// the operation selected by the reg field. 0x82 aliases 0x80; 0x83
// sign-extends a byte immediate to word width.
func (d *Decoder) decodeImmGroup(s *decodeState, inst *Instruction) error {
	wide := inst.Opcode == 0x81 || inst.Opcode == 0x83
	rm, reg, err := s.parseModRM(wide)
	if err != nil {
		return err
	}
	inst.HasModRM = true
	inst.Reg = reg
	inst.Dst = rm
	d.addMemCycles(inst)

	if inst.Opcode == 0x81 {
		v, err := s.fetchWord()
		if err != nil {
			return err
		}
		inst.Src = Operand{Kind: KindImm16, Val: v}
		return nil
	}
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	if inst.Opcode == 0x83 {
		inst.Src = Operand{Kind: KindImm16, Val: uint16(int16(int8(v)))}
	} else {
		inst.Src = Operand{Kind: KindImm8, Val: uint16(v)}
	}
	return nil
}

// decodeMOVSeg handles 0x8C (MOV r/m16, sreg) and 0x8E (MOV sreg, r/m16).
// The segment register index is the reg field masked to two bits.
func (d *Decoder) decodeMOVSeg(s *decodeState, inst *Instruction) error {
	rm, reg, err := s.parseModRM(true)
	if err != nil {
		return err
	}
	inst.HasModRM = true
	inst.Reg = reg
	segOp := Operand{Kind: KindSeg, Reg: reg & 3}
	if inst.Opcode == 0x8C {
		inst.Dst, inst.Src = rm, segOp
	} else {
		inst.Dst, inst.Src = segOp, rm
	}
	d.addMemCycles(inst)
	return nil
}

// decodeLoadPointer handles LEA (0x8D), LES (0xC4), and LDS (0xC5). All
// three require a memory source; a register encoding is undefined.
func (d *Decoder) decodeLoadPointer(s *decodeState, inst *Instruction) error {
	rm, reg, err := s.parseModRM(true)
	if err != nil {
		return err
	}
	if !rm.IsMem() {
		return ErrInvalidOpcode
	}
	inst.HasModRM = true
	inst.Reg = reg
	inst.Dst = Operand{Kind: KindReg16, Reg: reg}
	inst.Src = rm
	d.addMemCycles(inst)
	return nil
}

// decodePopRM handles 0x8F, POP r/m16. The reg field is ignored, matching
// the hardware aliasing of the undefined encodings onto /0.
func (d *Decoder) decodePopRM(s *decodeState, inst *Instruction) error {
	rm, reg, err := s.parseModRM(true)
	if err != nil {
		return err
	}
	inst.HasModRM = true
	inst.Reg = reg
	inst.Dst = rm
	d.addMemCycles(inst)
	return nil
}

// decodeMoffs handles 0xA0-0xA3, the accumulator moves through a direct
// 16-bit offset. The memory side is encoded as a direct operand but is
// priced flat by the base cost, so no EA charge is added here.
func (d *Decoder) decodeMoffs(s *decodeState, inst *Instruction) error {
	addr, err := s.fetchWord()
	if err != nil {
		return err
	}
	wide := inst.Opcode&1 == 1
	memKind := KindMem8
	if wide {
		memKind = KindMem16
	}
	seg := SegDS
	if s.override != SegNone {
		seg = s.override
	}
	mem := Operand{Kind: memKind, RM: RMDirect, Seg: seg, Val: addr}
	if inst.Opcode < 0xA2 {
		inst.Dst, inst.Src = accOperand(wide), mem
	} else {
		inst.Dst, inst.Src = mem, accOperand(wide)
	}
	return nil
}

func (d *Decoder) decodeTestAcc(s *decodeState, inst *Instruction) error {
	wide := inst.Opcode&1 == 1
	inst.Dst = accOperand(wide)
	if wide {
		v, err := s.fetchWord()
		if err != nil {
			return err
		}
		inst.Src = Operand{Kind: KindImm16, Val: v}
		return nil
	}
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindImm8, Val: uint16(v)}
	return nil
}

// decodeMOVImm handles 0xB0-0xBF, MOV r, imm with the register in the low
// three opcode bits.
func (d *Decoder) decodeMOVImm(s *decodeState, inst *Instruction) error {
	wide := inst.Opcode >= 0xB8
	inst.Dst = regOperand(inst.Opcode&7, wide)
	if wide {
		v, err := s.fetchWord()
		if err != nil {
			return err
		}
		inst.Src = Operand{Kind: KindImm16, Val: v}
		return nil
	}
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindImm8, Val: uint16(v)}
	return nil
}

func (d *Decoder) decodeRetImm(s *decodeState, inst *Instruction) error {
	v, err := s.fetchWord()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindImm16, Val: v}
	return nil
}

// decodeMOVRMImm handles 0xC6 and 0xC7, MOV r/m, imm. The immediate
// follows the displacement bytes.
func (d *Decoder) decodeMOVRMImm(s *decodeState, inst *Instruction) error {
	wide := inst.Opcode == 0xC7
	rm, reg, err := s.parseModRM(wide)
	if err != nil {
		return err
	}
	inst.HasModRM = true
	inst.Reg = reg
	inst.Dst = rm
	d.addMemCycles(inst)
	if wide {
		v, err := s.fetchWord()
		if err != nil {
			return err
		}
		inst.Src = Operand{Kind: KindImm16, Val: v}
		return nil
	}
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindImm8, Val: uint16(v)}
	return nil
}

func (d *Decoder) decodeInt(s *decodeState, inst *Instruction) error {
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindImm8, Val: uint16(v)}
	return nil
}

// decodeShiftGroup handles 0xD0-0xD3: rotates and shifts selected by the
// reg field, by one (0xD0/0xD1) or by CL (0xD2/0xD3).
func (d *Decoder) decodeShiftGroup(s *decodeState, inst *Instruction) error {
	wide := inst.Opcode&1 == 1
	rm, reg, err := s.parseModRM(wide)
	if err != nil {
		return err
	}
	inst.HasModRM = true
	inst.Reg = reg
	inst.Dst = rm
	d.addMemCycles(inst)
	return nil
}

func (d *Decoder) decodeASCIIAdjust(s *decodeState, inst *Instruction) error {
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindImm8, Val: uint16(v)}
	return nil
}

func (d *Decoder) decodeRel8(s *decodeState, inst *Instruction) error {
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindRel8, Val: uint16(int16(int8(v)))}
	return nil
}

func (d *Decoder) decodeRel16(s *decodeState, inst *Instruction) error {
	v, err := s.fetchWord()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindRel16, Val: v}
	return nil
}

func (d *Decoder) decodeFar(s *decodeState, inst *Instruction) error {
	off, err := s.fetchWord()
	if err != nil {
		return err
	}
	seg, err := s.fetchWord()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindFar, Val: off, FarSeg: seg}
	return nil
}

// decodePortImm handles 0xE4-0xE7, IN and OUT with an immediate port.
func (d *Decoder) decodePortImm(s *decodeState, inst *Instruction) error {
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	port := Operand{Kind: KindImm8, Val: uint16(v)}
	wide := inst.Opcode&1 == 1
	if inst.Opcode < 0xE6 {
		inst.Dst, inst.Src = accOperand(wide), port
	} else {
		inst.Dst, inst.Src = port, accOperand(wide)
	}
	return nil
}

// decodePortDX handles 0xEC-0xEF, IN and OUT through the DX port.
func (d *Decoder) decodePortDX(inst *Instruction) {
	port := Operand{Kind: KindReg16, Reg: RegDX}
	wide := inst.Opcode&1 == 1
	if inst.Opcode < 0xEE {
		inst.Dst, inst.Src = accOperand(wide), port
	} else {
		inst.Dst, inst.Src = port, accOperand(wide)
	}
}

// decodeUnaryGroup handles 0xF6 and 0xF7: TEST imm, NOT, NEG, MUL, IMUL,
// DIV, IDIV selected by the reg field. The undefined /1 encoding aliases
// TEST, matching the hardware. TEST carries its immediate after the
// displacement bytes.
func (d *Decoder) decodeUnaryGroup(s *decodeState, inst *Instruction) error {
	wide := inst.Opcode == 0xF7
	rm, reg, err := s.parseModRM(wide)
	if err != nil {
		return err
	}
	inst.HasModRM = true
	inst.Reg = reg
	inst.Dst = rm
	d.addMemCycles(inst)
	if reg > 1 {
		return nil
	}
	if wide {
		v, err := s.fetchWord()
		if err != nil {
			return err
		}
		inst.Src = Operand{Kind: KindImm16, Val: v}
		return nil
	}
	v, err := s.fetchByte()
	if err != nil {
		return err
	}
	inst.Src = Operand{Kind: KindImm8, Val: uint16(v)}
	return nil
}

// decodeIncDecGroup handles 0xFE (INC/DEC r/m8) and 0xFF (the full
// indirect group: INC, DEC, CALL, CALL far, JMP, JMP far, PUSH). The far
// indirect forms require a memory operand.
func (d *Decoder) decodeIncDecGroup(s *decodeState, inst *Instruction) error {
	wide := inst.Opcode == 0xFF
	rm, reg, err := s.parseModRM(wide)
	if err != nil {
		return err
	}
	if !wide && reg > 1 {
		return ErrInvalidOpcode
	}
	if wide && reg == 7 {
		return ErrInvalidOpcode
	}
	if (reg == 3 || reg == 5) && wide && !rm.IsMem() {
		return ErrInvalidOpcode
	}
	inst.HasModRM = true
	inst.Reg = reg
	inst.Dst = rm
	d.addMemCycles(inst)
	return nil
}
