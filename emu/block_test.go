package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/insts"
)

var _ = Describe("Basic block execution", func() {
	// The hot loop under test: INC AX; LOOP -3; HLT. Each iteration is
	// one INC step and one LOOP step until the loop body is promoted,
	// after which a single step retires the whole iteration.
	newLoop := func(count uint16) *emu.Emulator {
		e := newTestEmulator(0x40, 0xE2, 0xFD, 0xF4)
		e.CPU().Regs[insts.RegCX] = count
		return e
	}

	It("promotes a loop body after one hundred visits", func() {
		e := newLoop(200)
		cpu := e.CPU()

		// Iterations 1-100 run through decode and the decode cache.
		for i := 0; i < 200; i++ {
			r := e.Step()
			Expect(r.Tier).NotTo(Equal(emu.Tier3))
		}
		Expect(cpu.BlockCount()).To(Equal(0))

		// The 101st visit builds the block and runs it.
		promoted := e.Step()
		Expect(promoted.Tier).To(Equal(emu.Tier3))
		Expect(promoted.Tier.String()).To(Equal("block"))
		Expect(cpu.BlockCount()).To(Equal(1))
		Expect(cpu.BlockCacheStats().Built).To(Equal(uint64(1)))
	})

	It("retires one full iteration per block step", func() {
		e := newLoop(200)
		cpu := e.CPU()

		for i := 0; i < 200; i++ {
			e.Step()
		}
		r := e.Step()

		// INC AX plus a taken LOOP.
		Expect(r.Cycles).To(Equal(uint64(2 + 17)))
		Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(101)))
		Expect(cpu.Regs[insts.RegCX]).To(Equal(uint16(99)))
		Expect(cpu.IP).To(Equal(uint16(0)))
	})

	It("keeps block execution cycle-identical to stepped execution", func() {
		e := newLoop(200)
		for i := 0; i < 200; i++ {
			e.Step()
		}

		// Measure one pre-promotion iteration on a second instance.
		e2 := newLoop(200)
		stepN(e2, 100)
		inc := e2.Step()
		loop := e2.Step()

		promoted := e.Step()
		Expect(promoted.Cycles).To(Equal(inc.Cycles + loop.Cycles))
	})

	It("runs the tail iteration and the halt to the same totals", func() {
		e := newLoop(200)
		cpu := e.CPU()

		for !cpu.Halted() {
			e.Step()
		}

		Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(200)))
		Expect(cpu.Regs[insts.RegCX]).To(Equal(uint16(0)))
		// 199 taken iterations, one falling out of the loop, one HLT.
		Expect(cpu.TotalCycles).To(Equal(uint64(199*19 + 7 + 2)))
		Expect(cpu.BlockCacheStats().Executions).To(Equal(uint64(100)))
	})

	It("rejects a block whose entry bytes changed behind the bus", func() {
		e := newLoop(300)
		cpu := e.CPU()

		for i := 0; i < 201; i++ {
			e.Step()
		}
		Expect(cpu.BlockCount()).To(Equal(1))

		// Patch INC AX to INC BX without an executed store.
		e.Bus().WriteByte(0x1000, 0x43)
		r := e.Step()

		Expect(r.Tier).To(Equal(emu.Tier1))
		Expect(cpu.BlockCount()).To(Equal(0))
		Expect(cpu.BlockCacheStats().Invalidations).To(Equal(uint64(1)))
		Expect(cpu.Regs[insts.RegBX]).To(Equal(uint16(1)))
	})

	It("invalidates a block that stores into itself mid-run", func() {
		// MOV byte [0x0005], 0x40; (NOP at 5, soon an INC); HLT
		e := newTestEmulator(0xC6, 0x06, 0x05, 0x00, 0x40, 0x90, 0xF4)
		cpu := e.CPU()
		cpu.Segments[insts.SegDS] = codeSegment

		var last emu.StepResult
		for i := 0; i < 101; i++ {
			cpu.IP = 0
			last = e.Step()
		}

		// The block ran once, then its own store tore it down after the
		// first member.
		Expect(last.Tier).To(Equal(emu.Tier3))
		Expect(cpu.IP).To(Equal(uint16(5)))
		Expect(cpu.BlockCacheStats().Built).To(Equal(uint64(1)))
		Expect(cpu.BlockCacheStats().Invalidations).To(Equal(uint64(1)))
		Expect(cpu.BlockCount()).To(Equal(0))

		stepN(e, 2)
		Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(1)))
		Expect(cpu.Halted()).To(BeTrue())
	})
})
