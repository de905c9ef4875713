package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtsim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder(nil)
	})

	decode := func(code ...byte) *insts.Instruction {
		inst, err := decoder.Decode(code, insts.SegNone)
		Expect(err).ToNot(HaveOccurred())
		return inst
	}

	Describe("MOV immediate forms", func() {
		// MOV AX, 0x1234 -> B8 34 12
		It("should decode MOV r16, imm16", func() {
			inst := decode(0xB8, 0x34, 0x12)

			Expect(inst.Opcode).To(Equal(uint8(0xB8)))
			Expect(inst.Dst.Kind).To(Equal(insts.KindReg16))
			Expect(inst.Dst.Reg).To(Equal(insts.RegAX))
			Expect(inst.Src.Kind).To(Equal(insts.KindImm16))
			Expect(inst.Src.Val).To(Equal(uint16(0x1234)))
			Expect(inst.Length).To(Equal(uint16(3)))
			Expect(inst.FixedCycles).To(Equal(uint64(4)))
		})

		// MOV CH, 0x7F -> B5 7F
		It("should decode MOV r8, imm8", func() {
			inst := decode(0xB5, 0x7F)

			Expect(inst.Dst.Kind).To(Equal(insts.KindReg8))
			Expect(inst.Dst.Reg).To(Equal(insts.RegCH))
			Expect(inst.Src.Val).To(Equal(uint16(0x7F)))
			Expect(inst.Length).To(Equal(uint16(2)))
		})

		// MOV word [BX], 0x0102 -> C7 07 02 01
		It("should decode MOV r/m16, imm16 with the immediate after the ModR/M", func() {
			inst := decode(0xC7, 0x07, 0x02, 0x01)

			Expect(inst.Dst.Kind).To(Equal(insts.KindMem16))
			Expect(inst.Dst.RM).To(Equal(uint8(7)))
			Expect(inst.Src.Val).To(Equal(uint16(0x0102)))
			Expect(inst.Length).To(Equal(uint16(4)))
			// Base 4, EA 5, word operand 4.
			Expect(inst.FixedCycles).To(Equal(uint64(13)))
		})
	})

	Describe("ModR/M addressing", func() {
		// ADD AX, BX -> 01 D8 (mod=11, reg=BX, rm=AX)
		It("should decode the register form", func() {
			inst := decode(0x01, 0xD8)

			Expect(inst.HasModRM).To(BeTrue())
			Expect(inst.Dst.Kind).To(Equal(insts.KindReg16))
			Expect(inst.Dst.Reg).To(Equal(insts.RegAX))
			Expect(inst.Src.Kind).To(Equal(insts.KindReg16))
			Expect(inst.Src.Reg).To(Equal(insts.RegBX))
			Expect(inst.FixedCycles).To(Equal(uint64(3)))
			Expect(inst.Length).To(Equal(uint16(2)))
		})

		// MOV AX, [BX] -> 8B 07 (mod=00, reg=AX, rm=BX)
		It("should decode a word memory source", func() {
			inst := decode(0x8B, 0x07)

			Expect(inst.Dst.Reg).To(Equal(insts.RegAX))
			Expect(inst.Src.Kind).To(Equal(insts.KindMem16))
			Expect(inst.Src.RM).To(Equal(uint8(7)))
			Expect(inst.Src.Seg).To(Equal(insts.SegDS))
			Expect(inst.Src.HasDisp).To(BeFalse())
			// Base 2, EA 5, word operand 4.
			Expect(inst.FixedCycles).To(Equal(uint64(11)))
		})

		// MOV AL, [BX] -> 8A 07
		It("should not charge the word penalty for a byte operand", func() {
			inst := decode(0x8A, 0x07)

			Expect(inst.Src.Kind).To(Equal(insts.KindMem8))
			// Base 2, EA 5.
			Expect(inst.FixedCycles).To(Equal(uint64(7)))
		})

		// MOV AX, [BX+0x10] -> 8B 47 10
		It("should decode an 8-bit displacement", func() {
			inst := decode(0x8B, 0x47, 0x10)

			Expect(inst.Src.HasDisp).To(BeTrue())
			Expect(inst.Src.Val).To(Equal(uint16(0x0010)))
			// Base 2, EA 5+4, word operand 4.
			Expect(inst.FixedCycles).To(Equal(uint64(15)))
			Expect(inst.Length).To(Equal(uint16(3)))
		})

		// MOV AX, [BP-0x10] -> 8B 46 F0
		It("should sign-extend an 8-bit displacement", func() {
			inst := decode(0x8B, 0x46, 0xF0)

			Expect(inst.Src.RM).To(Equal(uint8(6)))
			Expect(inst.Src.Val).To(Equal(uint16(0xFFF0)))
			Expect(inst.Src.Seg).To(Equal(insts.SegSS))
		})

		// MOV AX, [BX+0x0200] -> 8B 87 00 02
		It("should decode a 16-bit displacement", func() {
			inst := decode(0x8B, 0x87, 0x00, 0x02)

			Expect(inst.Src.Val).To(Equal(uint16(0x0200)))
			Expect(inst.Src.HasDisp).To(BeTrue())
			Expect(inst.Length).To(Equal(uint16(4)))
			Expect(inst.FixedCycles).To(Equal(uint64(15)))
		})

		// MOV AX, [0x1234] -> 8B 06 34 12 (mod=00, rm=110)
		It("should decode a direct address", func() {
			inst := decode(0x8B, 0x06, 0x34, 0x12)

			Expect(inst.Src.RM).To(Equal(insts.RMDirect))
			Expect(inst.Src.Val).To(Equal(uint16(0x1234)))
			Expect(inst.Src.Seg).To(Equal(insts.SegDS))
			// Base 2, direct EA 6, word operand 4.
			Expect(inst.FixedCycles).To(Equal(uint64(12)))
			Expect(inst.Length).To(Equal(uint16(4)))
		})

		It("should map BP rows to the stack segment", func() {
			// MOV AX, [BP+SI] -> 8B 02
			Expect(decode(0x8B, 0x02).Src.Seg).To(Equal(insts.SegSS))
			// MOV AX, [BX+SI] -> 8B 00
			Expect(decode(0x8B, 0x00).Src.Seg).To(Equal(insts.SegDS))
		})

		It("should apply a segment override to the memory operand", func() {
			inst, err := decoder.Decode([]byte{0x8B, 0x07}, insts.SegES)

			Expect(err).ToNot(HaveOccurred())
			Expect(inst.Src.Seg).To(Equal(insts.SegES))
		})

		It("should price the base and index rows", func() {
			// The rows pair as 7, 8, 8, 7, then 5 for the single-register rows.
			Expect(decode(0x8B, 0x00).FixedCycles).To(Equal(uint64(2 + 7 + 4)))
			Expect(decode(0x8B, 0x01).FixedCycles).To(Equal(uint64(2 + 8 + 4)))
			Expect(decode(0x8B, 0x02).FixedCycles).To(Equal(uint64(2 + 8 + 4)))
			Expect(decode(0x8B, 0x03).FixedCycles).To(Equal(uint64(2 + 7 + 4)))
			Expect(decode(0x8B, 0x04).FixedCycles).To(Equal(uint64(2 + 5 + 4)))
		})
	})

	Describe("ALU forms", func() {
		// ADD AX, [BX] -> 03 07
		It("should decode r16, r/m16", func() {
			inst := decode(0x03, 0x07)

			Expect(inst.Dst.Kind).To(Equal(insts.KindReg16))
			Expect(inst.Dst.Reg).To(Equal(insts.RegAX))
			Expect(inst.Src.Kind).To(Equal(insts.KindMem16))
			Expect(inst.FixedCycles).To(Equal(uint64(3 + 5 + 4)))
		})

		// ADD AL, 0x05 -> 04 05
		It("should decode the accumulator immediate form", func() {
			inst := decode(0x04, 0x05)

			Expect(inst.Dst.Kind).To(Equal(insts.KindReg8))
			Expect(inst.Dst.Reg).To(Equal(insts.RegAL))
			Expect(inst.Src.Val).To(Equal(uint16(5)))
			Expect(inst.FixedCycles).To(Equal(uint64(4)))
		})

		// CMP AX, 0x0100 -> 3D 00 01
		It("should decode CMP AX, imm16", func() {
			inst := decode(0x3D, 0x00, 0x01)

			Expect(inst.Src.Kind).To(Equal(insts.KindImm16))
			Expect(inst.Src.Val).To(Equal(uint16(0x0100)))
			Expect(inst.Length).To(Equal(uint16(3)))
		})
	})

	Describe("Immediate groups", func() {
		// ADD BX, 0x03E8 -> 81 C3 E8 03
		It("should decode group 0x81 with a word immediate", func() {
			inst := decode(0x81, 0xC3, 0xE8, 0x03)

			Expect(inst.Reg).To(Equal(uint8(0)))
			Expect(inst.Dst.Reg).To(Equal(insts.RegBX))
			Expect(inst.Src.Kind).To(Equal(insts.KindImm16))
			Expect(inst.Src.Val).To(Equal(uint16(0x03E8)))
			Expect(inst.Length).To(Equal(uint16(4)))
		})

		// SUB BX, 1 -> 83 EB 01
		It("should carry the operation in the reg field", func() {
			inst := decode(0x83, 0xEB, 0x01)

			Expect(inst.Reg).To(Equal(uint8(5)))
			Expect(inst.Dst.Reg).To(Equal(insts.RegBX))
		})

		// ADD BX, -5 -> 83 C3 FB
		It("should sign-extend the group 0x83 immediate to a word", func() {
			inst := decode(0x83, 0xC3, 0xFB)

			Expect(inst.Src.Kind).To(Equal(insts.KindImm16))
			Expect(inst.Src.Val).To(Equal(uint16(0xFFFB)))
		})

		// 0x82 is an alias of 0x80. CMP BL, 3 -> 82 FB 03
		It("should alias group 0x82 onto the byte group", func() {
			inst := decode(0x82, 0xFB, 0x03)

			Expect(inst.Reg).To(Equal(uint8(7)))
			Expect(inst.Src.Kind).To(Equal(insts.KindImm8))
			Expect(inst.Src.Val).To(Equal(uint16(3)))
		})
	})

	Describe("TEST and XCHG", func() {
		// TEST BX, AX -> 85 C3
		It("should decode TEST r/m16, r16", func() {
			inst := decode(0x85, 0xC3)

			Expect(inst.Dst.Reg).To(Equal(insts.RegBX))
			Expect(inst.Src.Reg).To(Equal(insts.RegAX))
		})

		// XCHG AL, AH -> 86 E0 (mod=11, reg=AH, rm=AL)
		It("should decode XCHG r/m8, r8", func() {
			inst := decode(0x86, 0xE0)

			Expect(inst.Dst.Kind).To(Equal(insts.KindReg8))
			Expect(inst.Dst.Reg).To(Equal(insts.RegAL))
			Expect(inst.Src.Reg).To(Equal(insts.RegAH))
		})

		// XCHG AX, BX -> 93
		It("should decode the XCHG AX short form", func() {
			inst := decode(0x93)

			Expect(inst.Dst.Kind).To(Equal(insts.KindReg16))
			Expect(inst.Dst.Reg).To(Equal(insts.RegBX))
			Expect(inst.Length).To(Equal(uint16(1)))
			Expect(inst.FixedCycles).To(Equal(uint64(3)))
		})
	})

	Describe("Segment register moves", func() {
		// MOV DS, AX -> 8E D8
		It("should decode MOV sreg, r/m16", func() {
			inst := decode(0x8E, 0xD8)

			Expect(inst.Dst.Kind).To(Equal(insts.KindSeg))
			Expect(inst.Dst.Reg).To(Equal(insts.SegDS))
			Expect(inst.Src.Kind).To(Equal(insts.KindReg16))
			Expect(inst.Src.Reg).To(Equal(insts.RegAX))
		})

		// MOV AX, ES -> 8C C0
		It("should decode MOV r/m16, sreg", func() {
			inst := decode(0x8C, 0xC0)

			Expect(inst.Dst.Kind).To(Equal(insts.KindReg16))
			Expect(inst.Dst.Reg).To(Equal(insts.RegAX))
			Expect(inst.Src.Kind).To(Equal(insts.KindSeg))
			Expect(inst.Src.Reg).To(Equal(insts.SegES))
		})

		// PUSH ES -> 06, POP DS -> 1F
		It("should decode segment push and pop", func() {
			push := decode(0x06)
			Expect(push.Src.Kind).To(Equal(insts.KindSeg))
			Expect(push.Src.Reg).To(Equal(insts.SegES))
			Expect(push.FixedCycles).To(Equal(uint64(14)))

			pop := decode(0x1F)
			Expect(pop.Dst.Kind).To(Equal(insts.KindSeg))
			Expect(pop.Dst.Reg).To(Equal(insts.SegDS))
			Expect(pop.FixedCycles).To(Equal(uint64(12)))
		})
	})

	Describe("Address loads", func() {
		// LEA AX, [BX+8] -> 8D 47 08
		It("should decode LEA without the word transfer penalty", func() {
			inst := decode(0x8D, 0x47, 0x08)

			Expect(inst.Dst.Reg).To(Equal(insts.RegAX))
			Expect(inst.Src.Kind).To(Equal(insts.KindMem16))
			// Base 2, EA 5+4, no transfer.
			Expect(inst.FixedCycles).To(Equal(uint64(11)))
		})

		It("should reject LEA with a register operand", func() {
			_, err := decoder.Decode([]byte{0x8D, 0xC0}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrInvalidOpcode))
		})

		// LES AX, [BX] -> C4 07
		It("should decode LES", func() {
			inst := decode(0xC4, 0x07)

			Expect(inst.Dst.Reg).To(Equal(insts.RegAX))
			Expect(inst.Src.Kind).To(Equal(insts.KindMem16))
			Expect(inst.FixedCycles).To(Equal(uint64(24 + 5 + 4)))
		})

		It("should reject LDS with a register operand", func() {
			_, err := decoder.Decode([]byte{0xC5, 0xD8}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrInvalidOpcode))
		})
	})

	Describe("Accumulator moves through a direct offset", func() {
		// MOV AX, [0x0010] -> A1 10 00
		It("should decode the load form flat, without an EA charge", func() {
			inst := decode(0xA1, 0x10, 0x00)

			Expect(inst.Dst.Reg).To(Equal(insts.RegAX))
			Expect(inst.Src.Kind).To(Equal(insts.KindMem16))
			Expect(inst.Src.RM).To(Equal(insts.RMDirect))
			Expect(inst.Src.Val).To(Equal(uint16(0x0010)))
			Expect(inst.FixedCycles).To(Equal(uint64(14)))
			Expect(inst.Length).To(Equal(uint16(3)))
		})

		// MOV [0x0080], AL -> A2 80 00
		It("should decode the store form", func() {
			inst := decode(0xA2, 0x80, 0x00)

			Expect(inst.Dst.Kind).To(Equal(insts.KindMem8))
			Expect(inst.Dst.Val).To(Equal(uint16(0x0080)))
			Expect(inst.Src.Reg).To(Equal(insts.RegAL))
		})

		It("should honor a segment override", func() {
			inst, err := decoder.Decode([]byte{0xA0, 0x80, 0x00}, insts.SegES)

			Expect(err).ToNot(HaveOccurred())
			Expect(inst.Src.Seg).To(Equal(insts.SegES))
		})
	})

	Describe("Control flow", func() {
		// JZ -2 -> 74 FE
		It("should decode a conditional jump with a sign-extended target", func() {
			inst := decode(0x74, 0xFE)

			Expect(inst.Src.Kind).To(Equal(insts.KindRel8))
			Expect(inst.Src.Val).To(Equal(uint16(0xFFFE)))
			Expect(inst.FixedCycles).To(Equal(uint64(4)))
		})

		// CALL +0x0100 -> E8 00 01
		It("should decode CALL rel16", func() {
			inst := decode(0xE8, 0x00, 0x01)

			Expect(inst.Src.Kind).To(Equal(insts.KindRel16))
			Expect(inst.Src.Val).To(Equal(uint16(0x0100)))
			Expect(inst.FixedCycles).To(Equal(uint64(23)))
			Expect(inst.Length).To(Equal(uint16(3)))
		})

		// JMP F000:1000 -> EA 00 10 00 F0
		It("should decode JMP far", func() {
			inst := decode(0xEA, 0x00, 0x10, 0x00, 0xF0)

			Expect(inst.Src.Kind).To(Equal(insts.KindFar))
			Expect(inst.Src.Val).To(Equal(uint16(0x1000)))
			Expect(inst.Src.FarSeg).To(Equal(uint16(0xF000)))
			Expect(inst.Length).To(Equal(uint16(5)))
		})

		// LOOP -4 -> E2 FC
		It("should decode LOOP", func() {
			inst := decode(0xE2, 0xFC)

			Expect(inst.Src.Kind).To(Equal(insts.KindRel8))
			Expect(inst.Src.Val).To(Equal(uint16(0xFFFC)))
			Expect(inst.FixedCycles).To(Equal(uint64(5)))
		})

		// RET 4 -> C2 04 00
		It("should decode RET with a stack adjustment", func() {
			inst := decode(0xC2, 0x04, 0x00)

			Expect(inst.Src.Val).To(Equal(uint16(4)))
			Expect(inst.FixedCycles).To(Equal(uint64(24)))
		})

		// INT 0x21 -> CD 21
		It("should decode INT n", func() {
			inst := decode(0xCD, 0x21)

			Expect(inst.Src.Val).To(Equal(uint16(0x21)))
			Expect(inst.FixedCycles).To(Equal(uint64(51)))
		})
	})

	Describe("Shift group", func() {
		// SHL BX, 1 -> D1 E3
		It("should decode a shift by one", func() {
			inst := decode(0xD1, 0xE3)

			Expect(inst.Reg).To(Equal(uint8(4)))
			Expect(inst.Dst.Reg).To(Equal(insts.RegBX))
			Expect(inst.FixedCycles).To(Equal(uint64(2)))
		})

		// SHL AL, CL -> D2 E0
		It("should decode a shift by CL", func() {
			inst := decode(0xD2, 0xE0)

			Expect(inst.Reg).To(Equal(uint8(4)))
			Expect(inst.Dst.Kind).To(Equal(insts.KindReg8))
			Expect(inst.Dst.Reg).To(Equal(insts.RegAL))
			Expect(inst.FixedCycles).To(Equal(uint64(8)))
		})
	})

	Describe("Unary group", func() {
		// TEST AL, 0x0F -> F6 C0 0F
		It("should decode TEST r/m8, imm8 with the trailing immediate", func() {
			inst := decode(0xF6, 0xC0, 0x0F)

			Expect(inst.Reg).To(Equal(uint8(0)))
			Expect(inst.Dst.Reg).To(Equal(insts.RegAL))
			Expect(inst.Src.Kind).To(Equal(insts.KindImm8))
			Expect(inst.Src.Val).To(Equal(uint16(0x0F)))
			Expect(inst.Length).To(Equal(uint16(3)))
		})

		// MUL BX -> F7 E3
		It("should decode MUL without an immediate", func() {
			inst := decode(0xF7, 0xE3)

			Expect(inst.Reg).To(Equal(uint8(4)))
			Expect(inst.Dst.Reg).To(Equal(insts.RegBX))
			Expect(inst.Src.Kind).To(Equal(insts.KindNone))
			Expect(inst.Length).To(Equal(uint16(2)))
		})
	})

	Describe("Indirect group", func() {
		// INC word [0x2000] -> FF 06 00 20
		It("should decode INC r/m16", func() {
			inst := decode(0xFF, 0x06, 0x00, 0x20)

			Expect(inst.Reg).To(Equal(uint8(0)))
			Expect(inst.Dst.Kind).To(Equal(insts.KindMem16))
			Expect(inst.Dst.Val).To(Equal(uint16(0x2000)))
			// Base 0, direct EA 6, word operand 4.
			Expect(inst.FixedCycles).To(Equal(uint64(10)))
		})

		// CALL near [BX] -> FF 17
		It("should decode an indirect near call", func() {
			inst := decode(0xFF, 0x17)

			Expect(inst.Reg).To(Equal(uint8(2)))
			Expect(inst.Dst.Kind).To(Equal(insts.KindMem16))
		})

		It("should reject the undefined /7 encoding", func() {
			_, err := decoder.Decode([]byte{0xFF, 0xFF}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrInvalidOpcode))
		})

		It("should reject a far indirect branch through a register", func() {
			_, err := decoder.Decode([]byte{0xFF, 0xDB}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrInvalidOpcode))
		})

		It("should reject byte group encodings past DEC", func() {
			_, err := decoder.Decode([]byte{0xFE, 0xD0}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrInvalidOpcode))
		})
	})

	Describe("Port I/O", func() {
		// IN AL, 0x60 -> E4 60
		It("should decode IN with an immediate port", func() {
			inst := decode(0xE4, 0x60)

			Expect(inst.Dst.Reg).To(Equal(insts.RegAL))
			Expect(inst.Src.Kind).To(Equal(insts.KindImm8))
			Expect(inst.Src.Val).To(Equal(uint16(0x60)))
			Expect(inst.FixedCycles).To(Equal(uint64(10)))
		})

		// OUT DX, AL -> EE
		It("should decode OUT through DX", func() {
			inst := decode(0xEE)

			Expect(inst.Dst.Kind).To(Equal(insts.KindReg16))
			Expect(inst.Dst.Reg).To(Equal(insts.RegDX))
			Expect(inst.Src.Reg).To(Equal(insts.RegAL))
			Expect(inst.FixedCycles).To(Equal(uint64(8)))
		})
	})

	Describe("Implicit operand instructions", func() {
		It("should decode single-byte instructions flat", func() {
			Expect(decode(0x90).FixedCycles).To(Equal(uint64(3)))  // NOP
			Expect(decode(0x43).FixedCycles).To(Equal(uint64(2)))  // INC BX
			Expect(decode(0x53).FixedCycles).To(Equal(uint64(15))) // PUSH BX
			Expect(decode(0x5B).FixedCycles).To(Equal(uint64(12))) // POP BX
			Expect(decode(0xA4).FixedCycles).To(Equal(uint64(18))) // MOVSB
			Expect(decode(0xF8).FixedCycles).To(Equal(uint64(2)))  // CLC
			Expect(decode(0xF4).FixedCycles).To(Equal(uint64(2)))  // HLT
		})

		It("should give each a length of one", func() {
			for _, op := range []byte{0x90, 0x43, 0x53, 0xA4, 0xC3, 0xCF, 0xD7, 0xF4} {
				Expect(decode(op).Length).To(Equal(uint16(1)))
			}
		})
	})

	Describe("Content tags", func() {
		It("should cover exactly the instruction bytes", func() {
			// Trailing bytes past the instruction must not affect the tag.
			a := decode(0x90, 0xFF)
			b := decode(0x90, 0x00)
			Expect(a.Tag).To(Equal(b.Tag))
		})

		It("should distinguish different immediates", func() {
			a := decode(0xB8, 0x34, 0x12)
			b := decode(0xB8, 0x55, 0x12)
			Expect(a.Tag).ToNot(Equal(b.Tag))
		})
	})

	Describe("Rejections", func() {
		It("should reject undefined opcodes", func() {
			for _, op := range []byte{0x0F, 0x63, 0xC0, 0xC1, 0xC8, 0xC9, 0xD6, 0xD9, 0xF1} {
				_, err := decoder.Decode([]byte{op, 0x00, 0x00}, insts.SegNone)
				Expect(err).To(MatchError(insts.ErrInvalidOpcode), "opcode %#02x", op)
			}
		})

		It("should reject prefix bytes at the opcode position", func() {
			_, err := decoder.Decode([]byte{0x26, 0x8B, 0x07}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrPrefixByte))

			_, err = decoder.Decode([]byte{0xF3, 0xA4}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrPrefixByte))
		})

		It("should reject truncated windows", func() {
			_, err := decoder.Decode(nil, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrTruncated))

			_, err = decoder.Decode([]byte{0xB8, 0x34}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrTruncated))

			_, err = decoder.Decode([]byte{0x8B}, insts.SegNone)
			Expect(err).To(MatchError(insts.ErrTruncated))
		})
	})
})
