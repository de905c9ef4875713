// Package benchmarks provides timing benchmark infrastructure for XTSim
// calibration.
package benchmarks

import (
	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/insts"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks for 8088
// calibration. Each benchmark targets a specific CPU characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		registerALULoop(),
		memorySequential(),
		stringCopy(),
		branchHeavy(),
		functionCalls(),
		prefetchDiscard(),
		mulDivChain(),
		mixedWorkload(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a hot loop, a memory walker, and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		registerALULoop(),
		memorySequential(),
		branchHeavy(),
	}
}

// 1. Register ALU Loop - hot counted loop, promotes to the block tier
func registerALULoop() Benchmark {
	return Benchmark{
		Name:        "register_alu_loop",
		Description: "200-iteration INC/ADD loop - exercises block promotion",
		Program: BuildProgram(
			EncodeMOVRegImm(insts.RegAX, 0),
			EncodeMOVRegImm(insts.RegCX, 200),
			EncodeINCReg(insts.RegAX), // loop body at offset 6
			EncodeADDAXImm(3),
			EncodeLOOP(-6),
			EncodeHLT(),
		),
		ExpectedAX: 800, // 200 * (1 + 3)
	}
}

// 2. Memory Sequential - word stores and loads walking through [BX]
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load-accumulate pairs at sequential addresses",
		Program: BuildProgram(
			EncodeMOVRegImm(insts.RegBX, 0x2000),
			EncodeMOVRegImm(insts.RegCX, 10),
			EncodeMOVRegImm(insts.RegAX, 1),
			EncodeMOVRegImm(insts.RegDX, 0),
			EncodeMOVMemReg(insts.RegAX), // loop body at offset 12
			EncodeADDRegMem(insts.RegDX),
			EncodeINCReg(insts.RegAX),
			EncodeINCReg(insts.RegBX),
			EncodeINCReg(insts.RegBX),
			EncodeLOOP(-9),
			EncodeMOVRegReg(insts.RegAX, insts.RegDX),
			EncodeHLT(),
		),
		ExpectedAX: 55, // 1 + 2 + ... + 10
	}
}

// 3. String Copy - REP MOVSB block transfer plus a checksum pass
func stringCopy() Benchmark {
	return Benchmark{
		Name:        "string_copy",
		Description: "REP MOVSB of 256 bytes, then a byte-sum verification loop",
		Setup: func(e *emu.Emulator) {
			for i := 0; i < 256; i++ {
				e.Bus().WriteByte(0x3000+uint32(i), byte(i))
			}
		},
		Program: BuildProgram(
			EncodeMOVRegImm(insts.RegSI, 0x3000),
			EncodeMOVRegImm(insts.RegDI, 0x3100),
			EncodeMOVRegImm(insts.RegCX, 256),
			[]byte{0xFC},       // CLD
			[]byte{0xF3, 0xA4}, // REP MOVSB
			EncodeMOVRegImm(insts.RegSI, 0x3100),
			EncodeMOVRegImm(insts.RegCX, 256),
			EncodeMOVRegImm(insts.RegAX, 0),
			EncodeMOVRegImm(insts.RegBX, 0),
			[]byte{0x8A, 0x1C}, // MOV BL, [SI]; sum loop at offset 24
			EncodeADDRegReg(insts.RegAX, insts.RegBX),
			EncodeINCReg(insts.RegSI),
			EncodeLOOP(-7),
			EncodeHLT(),
		),
		ExpectedAX: 32640, // 0 + 1 + ... + 255
	}
}

// 4. Branch Heavy - conditional branch alternating taken and fall-through
func branchHeavy() Benchmark {
	return Benchmark{
		Name:        "branch_heavy",
		Description: "50-iteration loop with a parity test that branches every other pass",
		Program: BuildProgram(
			EncodeMOVRegImm(insts.RegCX, 50),
			EncodeMOVRegImm(insts.RegAX, 0),
			EncodeMOVRegImm(insts.RegDX, 0),
			// Loop body at offset 9. Odd DX skips the INC.
			EncodeINCReg(insts.RegDX),
			[]byte{0xF7, 0xC2, 0x01, 0x00}, // TEST DX, 1
			EncodeJNZ(1),
			EncodeINCReg(insts.RegAX),
			EncodeLOOP(-10),
			EncodeHLT(),
		),
		ExpectedAX: 25, // DX is even on half of the 50 passes
	}
}

// 5. Function Calls - near CALL/RET overhead
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "20 near calls to an add-five helper",
		Program: BuildProgram(
			EncodeMOVRegImm(insts.RegAX, 0),
			EncodeMOVRegImm(insts.RegCX, 20),
			EncodeCALLNear(3), // call body at offset 6, helper at 12
			EncodeLOOP(-5),
			EncodeHLT(),
			EncodeADDAXImm(5), // add_five helper
			EncodeRET(),
		),
		ExpectedAX: 100, // 20 calls * 5
	}
}

// 6. Prefetch Discard - taken jumps that flush the prefetch queue
func prefetchDiscard() Benchmark {
	return Benchmark{
		Name:        "prefetch_discard",
		Description: "100-iteration loop of short jumps - every transfer drops the queue",
		Program: BuildProgram(
			EncodeMOVRegImm(insts.RegCX, 100),
			EncodeMOVRegImm(insts.RegAX, 0),
			EncodeJMPShort(0), // loop body at offset 6
			EncodeINCReg(insts.RegAX),
			EncodeJMPShort(0),
			EncodeINCReg(insts.RegAX),
			EncodeLOOP(-8),
			EncodeHLT(),
		),
		ExpectedAX: 200,
	}
}

// 7. Multiply/Divide Chain - the long-latency arithmetic surcharges
func mulDivChain() Benchmark {
	return Benchmark{
		Name:        "muldiv_chain",
		Description: "10 rounds of AX = AX*3/2 with the quotients accumulated in SI",
		Program: BuildProgram(
			EncodeMOVRegImm(insts.RegAX, 2),
			EncodeMOVRegImm(insts.RegCX, 10),
			EncodeMOVRegImm(insts.RegBX, 3), // loop body at offset 6
			[]byte{0xF7, 0xE3},              // MUL BX
			EncodeMOVRegImm(insts.RegBX, 2),
			[]byte{0xF7, 0xF3}, // DIV BX
			EncodeADDRegReg(insts.RegSI, insts.RegAX),
			EncodeLOOP(-14),
			EncodeMOVRegReg(insts.RegAX, insts.RegSI),
			EncodeHLT(),
		),
		// 2 -> 3 -> 4 -> 6 -> 9 -> 13 -> 19 -> 28 -> 42 -> 63 -> 94,
		// with each quotient after the first added into SI.
		ExpectedAX: 281,
	}
}

// 8. Mixed Workload - ALU, memory, and call blend
func mixedWorkload() Benchmark {
	return Benchmark{
		Name:        "mixed_workload",
		Description: "30-iteration loop mixing stores, memory adds, and a helper call",
		Program: BuildProgram(
			EncodeMOVRegImm(insts.RegBX, 0x4000),
			EncodeMOVRegImm(insts.RegAX, 0),
			EncodeMOVRegImm(insts.RegCX, 30),
			EncodeMOVMemReg(insts.RegCX), // loop body at offset 9
			EncodeADDRegMem(insts.RegAX),
			EncodeCALLNear(5), // helper at offset 21
			EncodeINCReg(insts.RegBX),
			EncodeINCReg(insts.RegBX),
			EncodeLOOP(-11),
			EncodeHLT(),
			EncodeINCReg(insts.RegAX), // bump helper
			EncodeRET(),
		),
		ExpectedAX: 495, // sum(1..30) + 30 calls
	}
}
