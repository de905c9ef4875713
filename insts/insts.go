// Package insts provides 8088 instruction definitions and decoding.
//
// This package implements decoding of 8088 machine code into structured
// instruction representations. It covers the full base instruction set:
//   - Data transfer: MOV, XCHG, PUSH, POP, LEA, LES, LDS, XLAT, IN, OUT
//   - Arithmetic and logic: ADD, ADC, SUB, SBB, CMP, AND, OR, XOR, TEST,
//     INC, DEC, NEG, NOT, MUL, IMUL, DIV, IDIV, and the BCD adjusts
//   - Shifts and rotates: the 0xD0-0xD3 group
//   - Control flow: Jcc, JMP, CALL, RET, LOOP, INT, IRET
//   - String operations: MOVS, CMPS, SCAS, LODS, STOS
//
// Prefix bytes (segment overrides, LOCK, REP/REPNE) are not part of a
// decoded instruction. The caller consumes them first and passes any
// segment override into Decode, so a cached instruction is always keyed
// by its opcode byte alone.
//
// Usage:
//
//	decoder := insts.NewDecoder(nil)
//	inst, err := decoder.Decode([]byte{0xB8, 0x34, 0x12}, insts.SegNone)
//	fmt.Printf("Op: %#02x, Dst reg: %d, Imm: %#04x\n", inst.Opcode, inst.Dst.Reg, inst.Src.Val)
package insts
