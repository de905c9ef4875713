package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/insts"
)

var _ = Describe("Prefetch queue", func() {
	It("fills one byte per four bus cycles up to its capacity", func() {
		q := emu.NewPrefetchQueue()

		q.Refill(3)
		Expect(q.Len()).To(Equal(0))

		q.Refill(1)
		Expect(q.Len()).To(Equal(1))

		q.Refill(400)
		Expect(q.Len()).To(Equal(4))
		Expect(q.Stats().BytesFetched).To(Equal(uint64(4)))

		q.Refill(4)
		Expect(q.Len()).To(Equal(4))
		Expect(q.Stats().BytesFetched).To(Equal(uint64(4)))
	})

	It("serves queued bytes and counts the shortfall as demand fetches", func() {
		q := emu.NewPrefetchQueue()

		q.Consume(0x1000, 2)
		q.Refill(16)

		q.Consume(0x1002, 3)
		Expect(q.Len()).To(Equal(1))

		q.Consume(0x1005, 2)
		Expect(q.Len()).To(Equal(0))

		Expect(q.Stats().BytesServed).To(Equal(uint64(4)))
		Expect(q.Stats().BytesMissed).To(Equal(uint64(3)))
		Expect(q.Stats().Flushes).To(Equal(uint64(0)))
	})

	It("flushes when the consumed address leaves the queued stream", func() {
		q := emu.NewPrefetchQueue()

		q.Consume(0x1000, 1)
		q.Refill(16)
		Expect(q.Len()).To(Equal(4))

		q.Consume(0x2000, 1)
		Expect(q.Len()).To(Equal(0))
		Expect(q.Stats().Flushes).To(Equal(uint64(1)))

		// The stream realigns at the divergent address.
		q.Refill(8)
		q.Consume(0x2001, 2)
		Expect(q.Stats().BytesServed).To(Equal(uint64(2)))
	})

	It("drops queued bytes overwritten by a store", func() {
		q := emu.NewPrefetchQueue()

		q.Consume(0x1000, 1)
		q.Refill(16)

		// Span is 0x1001..0x1004; neighbors on both sides stay clear.
		q.InvalidateAddr(0x1000)
		q.InvalidateAddr(0x1005)
		Expect(q.Len()).To(Equal(4))
		Expect(q.Stats().Flushes).To(Equal(uint64(0)))

		q.InvalidateAddr(0x1004)
		Expect(q.Len()).To(Equal(0))
		Expect(q.Stats().Flushes).To(Equal(uint64(1)))

		q.InvalidateAddr(0x1002)
		Expect(q.Stats().Flushes).To(Equal(uint64(1)))
	})

	It("clears fill state and counters on reset", func() {
		q := emu.NewPrefetchQueue()

		q.Consume(0x1000, 2)
		q.Refill(16)
		q.Reset()

		Expect(q.Len()).To(Equal(0))
		Expect(q.Stats()).To(Equal(emu.PrefetchStats{}))
	})
})

var _ = Describe("Prefetch during execution", func() {
	It("overlaps fill with execution and serves the following fetch", func() {
		// MOV AX, 0x1234; NOP; HLT
		e := newTestEmulator(0xB8, 0x34, 0x12, 0x90, 0xF4)
		cpu := e.CPU()

		stepN(e, 3)

		Expect(cpu.Halted()).To(BeTrue())
		Expect(cpu.PrefetchStats()).To(Equal(emu.PrefetchStats{
			BytesFetched: 2,
			BytesServed:  1,
			BytesMissed:  4,
		}))
	})

	It("flushes on a taken branch and refills at the target", func() {
		// JMP $+2; HLT
		e := newTestEmulator(0xEB, 0x00, 0xF4)
		cpu := e.CPU()

		stepN(e, 2)

		Expect(cpu.Halted()).To(BeTrue())
		Expect(cpu.PrefetchStats()).To(Equal(emu.PrefetchStats{
			BytesFetched: 4,
			BytesServed:  1,
			BytesMissed:  2,
			Flushes:      1,
		}))
	})

	It("keeps the queue across a not-taken branch", func() {
		// MOV CX, 1; LOOP $+2; HLT
		e := newTestEmulator(0xB9, 0x01, 0x00, 0xE2, 0x00, 0xF4)
		cpu := e.CPU()

		stepN(e, 3)

		Expect(cpu.Halted()).To(BeTrue())
		Expect(cpu.PrefetchStats()).To(Equal(emu.PrefetchStats{
			BytesFetched: 2,
			BytesServed:  2,
			BytesMissed:  4,
		}))
	})

	It("flushes when an executed store hits prefetched bytes", func() {
		// MOV [BX], AX; MOV [DI], AL; HLT, with DI aimed at the HLT byte
		// and AL holding the byte already there. The first store misses
		// the queue; the second lands inside it.
		e := newTestEmulator(0x89, 0x07, 0x88, 0x05, 0xF4)
		cpu := e.CPU()
		cpu.Segments[insts.SegDS] = codeSegment
		cpu.Regs[insts.RegAX] = 0x00F4
		cpu.Regs[insts.RegBX] = 0x2000
		cpu.Regs[insts.RegDI] = 0x0004

		stepN(e, 3)

		Expect(cpu.Halted()).To(BeTrue())
		Expect(cpu.FaultCount()).To(Equal(uint64(0)))
		Expect(cpu.PrefetchStats().Flushes).To(Equal(uint64(1)))
		Expect(e.Bus().ReadByte(0x1004)).To(Equal(uint8(0xF4)))
	})
})
