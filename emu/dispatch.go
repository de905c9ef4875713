package emu

import "github.com/sarchlab/xtsim/insts"

// handlerFn executes one decoded instruction against the CPU. The
// instruction pointer has already advanced past the instruction when a
// handler runs; control-flow handlers adjust it from there.
type handlerFn func(c *CPU, inst *insts.Instruction)

// dispatchTable routes opcode bytes straight to their handlers. Every
// opcode the decoder accepts has an entry; prefix and undefined bytes
// never reach dispatch.
var dispatchTable [256]handlerFn

func init() {
	buildDispatchTable()
}

func buildDispatchTable() {
	// The six leading opcodes of each ALU row share one handler; the
	// decoder already shaped their operands.
	aluRow := func(base uint8, h handlerFn) {
		for op := base; op < base+6; op++ {
			dispatchTable[op] = h
		}
	}

	aluRow(0x00, opADD)
	dispatchTable[0x06] = opPUSHSeg
	dispatchTable[0x07] = opPOPSeg
	aluRow(0x08, opOR)
	dispatchTable[0x0E] = opPUSHSeg
	aluRow(0x10, opADC)
	dispatchTable[0x16] = opPUSHSeg
	dispatchTable[0x17] = opPOPSeg
	aluRow(0x18, opSBB)
	dispatchTable[0x1E] = opPUSHSeg
	dispatchTable[0x1F] = opPOPSeg
	aluRow(0x20, opAND)
	dispatchTable[0x27] = opDAA
	aluRow(0x28, opSUB)
	dispatchTable[0x2F] = opDAS
	aluRow(0x30, opXOR)
	dispatchTable[0x37] = opAAA
	aluRow(0x38, opCMP)
	dispatchTable[0x3F] = opAAS

	for op := 0x40; op <= 0x47; op++ {
		dispatchTable[op] = opINC
	}
	for op := 0x48; op <= 0x4F; op++ {
		dispatchTable[op] = opDEC
	}
	for op := 0x50; op <= 0x57; op++ {
		dispatchTable[op] = opPUSHReg
	}
	for op := 0x58; op <= 0x5F; op++ {
		dispatchTable[op] = opPOPReg
	}

	for op := 0x70; op <= 0x7F; op++ {
		dispatchTable[op] = opJcc
	}

	for op := 0x80; op <= 0x83; op++ {
		dispatchTable[op] = opALUImmGroup
	}
	dispatchTable[0x84] = opTEST
	dispatchTable[0x85] = opTEST
	dispatchTable[0x86] = opXCHG
	dispatchTable[0x87] = opXCHG
	for op := 0x88; op <= 0x8C; op++ {
		dispatchTable[op] = opMOV
	}
	dispatchTable[0x8D] = opLEA
	dispatchTable[0x8E] = opMOVSreg
	dispatchTable[0x8F] = opPOPRM

	for op := 0x90; op <= 0x97; op++ {
		dispatchTable[op] = opXCHGAX
	}

	dispatchTable[0x98] = opCBW
	dispatchTable[0x99] = opCWD
	dispatchTable[0x9A] = opCALLFar
	dispatchTable[0x9B] = opWAIT
	dispatchTable[0x9C] = opPUSHF
	dispatchTable[0x9D] = opPOPF
	dispatchTable[0x9E] = opSAHF
	dispatchTable[0x9F] = opLAHF

	for op := 0xA0; op <= 0xA3; op++ {
		dispatchTable[op] = opMOVMoffs
	}
	dispatchTable[0xA4] = opMOVS
	dispatchTable[0xA5] = opMOVS
	dispatchTable[0xA6] = opCMPS
	dispatchTable[0xA7] = opCMPS
	dispatchTable[0xA8] = opTEST
	dispatchTable[0xA9] = opTEST
	dispatchTable[0xAA] = opSTOS
	dispatchTable[0xAB] = opSTOS
	dispatchTable[0xAC] = opLODS
	dispatchTable[0xAD] = opLODS
	dispatchTable[0xAE] = opSCAS
	dispatchTable[0xAF] = opSCAS

	for op := 0xB0; op <= 0xBF; op++ {
		dispatchTable[op] = opMOV
	}

	dispatchTable[0xC2] = opRETImm
	dispatchTable[0xC3] = opRET
	dispatchTable[0xC4] = opLES
	dispatchTable[0xC5] = opLDS
	dispatchTable[0xC6] = opMOV
	dispatchTable[0xC7] = opMOV
	dispatchTable[0xCA] = opRETFImm
	dispatchTable[0xCB] = opRETF
	dispatchTable[0xCC] = opINT3
	dispatchTable[0xCD] = opINT
	dispatchTable[0xCE] = opINTO
	dispatchTable[0xCF] = opIRET

	for op := 0xD0; op <= 0xD3; op++ {
		dispatchTable[op] = opShiftGroup
	}
	dispatchTable[0xD4] = opAAM
	dispatchTable[0xD5] = opAAD
	dispatchTable[0xD7] = opXLAT

	dispatchTable[0xE0] = opLOOPNE
	dispatchTable[0xE1] = opLOOPE
	dispatchTable[0xE2] = opLOOP
	dispatchTable[0xE3] = opJCXZ
	dispatchTable[0xE4] = opIN
	dispatchTable[0xE5] = opIN
	dispatchTable[0xE6] = opOUT
	dispatchTable[0xE7] = opOUT
	dispatchTable[0xE8] = opCALLNear
	dispatchTable[0xE9] = opJMP
	dispatchTable[0xEA] = opJMPFar
	dispatchTable[0xEB] = opJMP
	dispatchTable[0xEC] = opIN
	dispatchTable[0xED] = opIN
	dispatchTable[0xEE] = opOUT
	dispatchTable[0xEF] = opOUT

	dispatchTable[0xF4] = opHLT
	dispatchTable[0xF5] = opCMC
	dispatchTable[0xF6] = opUnaryGroup
	dispatchTable[0xF7] = opUnaryGroup
	dispatchTable[0xF8] = opCLC
	dispatchTable[0xF9] = opSTC
	dispatchTable[0xFA] = opCLI
	dispatchTable[0xFB] = opSTI
	dispatchTable[0xFC] = opCLD
	dispatchTable[0xFD] = opSTD
	dispatchTable[0xFE] = opIncDecGroup
	dispatchTable[0xFF] = opIndirectGroup
}
