package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtsim/devices"
	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/insts"
)

// setVector points an interrupt vector at 0x0050:0x0000 and plants an
// IRET there, giving the tests a service routine that returns at once.
func setVector(e *emu.Emulator, vector uint8) {
	e.Bus().WriteWord(uint32(vector)*4, 0x0000)
	e.Bus().WriteWord(uint32(vector)*4+2, 0x0050)
	e.Bus().WriteByte(0x500, 0xCF)
}

var _ = Describe("Interrupts", func() {
	Describe("software interrupts", func() {
		It("INT pushes flags, CS, and the return offset", func() {
			// STI; INT 0x21
			e := newTestEmulator(0xFB, 0xCD, 0x21)
			setVector(e, 0x21)
			cpu := e.CPU()

			stepN(e, 2)

			Expect(cpu.Segments[insts.SegCS]).To(Equal(uint16(0x0050)))
			Expect(cpu.IP).To(Equal(uint16(0x0000)))
			Expect(cpu.Regs[insts.RegSP]).To(Equal(uint16(0x7FFA)))
			Expect(e.Bus().ReadWord(0x7FFE) & emu.FlagIF).NotTo(BeZero())
			Expect(e.Bus().ReadWord(0x7FFC)).To(Equal(codeSegment))
			Expect(e.Bus().ReadWord(0x7FFA)).To(Equal(uint16(3)))
		})

		It("clears IF and TF on entry", func() {
			// STI; INT 0x21
			e := newTestEmulator(0xFB, 0xCD, 0x21)
			setVector(e, 0x21)
			cpu := e.CPU()

			stepN(e, 2)

			Expect(cpu.GetFlag(emu.FlagIF)).To(BeFalse())
			Expect(cpu.GetFlag(emu.FlagTF)).To(BeFalse())
		})

		It("IRET restores the interrupted context", func() {
			// STC; INT 0x21; MOV BL, 1
			e := newTestEmulator(0xF9, 0xCD, 0x21, 0xB3, 0x01)
			setVector(e, 0x21)
			cpu := e.CPU()

			stepN(e, 4)

			Expect(cpu.Segments[insts.SegCS]).To(Equal(codeSegment))
			Expect(cpu.Reg8(insts.RegBL)).To(Equal(uint8(1)))
			Expect(cpu.GetFlag(emu.FlagCF)).To(BeTrue())
			Expect(cpu.Regs[insts.RegSP]).To(Equal(uint16(0x8000)))
		})

		It("INT3 takes the breakpoint vector", func() {
			// INT3
			e := newTestEmulator(0xCC)
			setVector(e, 3)
			cpu := e.CPU()

			result := e.Step()

			Expect(cpu.Segments[insts.SegCS]).To(Equal(uint16(0x0050)))
			Expect(result.Cycles).To(Equal(uint64(52)))
		})

		It("INTO fires only on overflow", func() {
			// MOV AX, 0x7FFF; INC AX; INTO
			e := newTestEmulator(0xB8, 0xFF, 0x7F, 0x40, 0xCE)
			setVector(e, 4)
			cpu := e.CPU()

			stepN(e, 2)
			result := e.Step()

			Expect(cpu.Segments[insts.SegCS]).To(Equal(uint16(0x0050)))
			Expect(result.Cycles).To(Equal(uint64(53)))
		})

		It("INTO falls through when OF is clear", func() {
			// INTO
			e := newTestEmulator(0xCE)
			cpu := e.CPU()

			result := e.Step()

			Expect(cpu.Segments[insts.SegCS]).To(Equal(codeSegment))
			Expect(cpu.IP).To(Equal(uint16(1)))
			Expect(result.Cycles).To(Equal(uint64(4)))
		})
	})

	Describe("hardware interrupts", func() {
		var (
			e   *emu.Emulator
			pic *devices.PIC
		)

		attach := func(code ...byte) {
			e = newTestEmulator(code...)
			pic = devices.NewPIC()
			e.Bus().AttachPIC(pic)
			pic.SetIMR(0xFE)
			setVector(e, 8)
		}

		It("wakes a halted processor", func() {
			// STI; HLT; NOP
			attach(0xFB, 0xF4, 0x90)
			cpu := e.CPU()

			stepN(e, 2)
			Expect(cpu.Halted()).To(BeTrue())

			idle := e.Step()
			Expect(idle.Cycles).To(Equal(uint64(4)))
			Expect(idle.Tier).To(Equal(emu.TierNone))

			pic.SetIRQLevel(0, true)
			entry := e.Step()

			Expect(entry.Cycles).To(Equal(uint64(61)))
			Expect(cpu.Halted()).To(BeFalse())
			Expect(cpu.Segments[insts.SegCS]).To(Equal(uint16(0x0050)))
		})

		It("resumes after the halt once the routine returns", func() {
			// STI; HLT; MOV BL, 1
			attach(0xFB, 0xF4, 0xB3, 0x01)
			cpu := e.CPU()

			stepN(e, 2)
			pic.SetIRQLevel(0, true)
			stepN(e, 3)

			Expect(cpu.Reg8(insts.RegBL)).To(Equal(uint8(1)))
		})

		It("holds delivery for one instruction after STI", func() {
			// STI; NOP; NOP
			attach(0xFB, 0x90, 0x90)
			cpu := e.CPU()
			pic.SetIRQLevel(0, true)

			e.Step()
			Expect(cpu.Segments[insts.SegCS]).To(Equal(codeSegment))

			e.Step()
			Expect(cpu.Segments[insts.SegCS]).To(Equal(uint16(0x0050)))
			Expect(e.Bus().ReadWord(0x7FFA)).To(Equal(uint16(2)))
		})

		It("delivers between REP iterations and resumes the count", func() {
			// STI; REP STOSB; HLT
			attach(0xFB, 0xF3, 0xAA, 0xF4)
			cpu := e.CPU()
			cpu.Regs[insts.RegCX] = 4
			cpu.Regs[insts.RegDI] = 0x3000
			cpu.Regs[insts.RegAX] = 0x005A

			stepN(e, 2)
			pic.SetIRQLevel(0, true)
			e.Step()

			// Entry lands after the second element; the stacked return
			// offset points back at the prefix.
			Expect(cpu.Segments[insts.SegCS]).To(Equal(uint16(0x0050)))
			Expect(cpu.Regs[insts.RegCX]).To(Equal(uint16(2)))
			Expect(e.Bus().ReadWord(0x7FFA)).To(Equal(uint16(1)))

			for !cpu.Halted() {
				e.Step()
			}
			Expect(cpu.Regs[insts.RegCX]).To(Equal(uint16(0)))
			for i := uint32(0); i < 4; i++ {
				Expect(e.Bus().ReadByte(0x3000 + i)).To(Equal(uint8(0x5A)))
			}
		})

		It("masks lines through the IMR", func() {
			// STI; NOP; NOP
			attach(0xFB, 0x90, 0x90)
			cpu := e.CPU()
			pic.SetIMR(0xFF)
			pic.SetIRQLevel(0, true)

			stepN(e, 3)

			Expect(cpu.Segments[insts.SegCS]).To(Equal(codeSegment))
		})

		It("marks the line in service until EOI", func() {
			// STI; NOP
			attach(0xFB, 0x90)
			pic.SetIRQLevel(0, true)

			stepN(e, 2)

			Expect(pic.ISR() & 0x01).NotTo(BeZero())
		})
	})

	Describe("halt idling", func() {
		It("charges idle cycles without counting instructions", func() {
			// HLT
			e := newTestEmulator(0xF4)
			cpu := e.CPU()

			e.Step()
			executed := cpu.Instructions

			r1 := e.Step()
			r2 := e.Step()

			Expect(r1.Cycles).To(Equal(uint64(4)))
			Expect(r2.Cycles).To(Equal(uint64(4)))
			Expect(cpu.Instructions).To(Equal(executed))
			Expect(cpu.Halted()).To(BeTrue())
		})
	})
})
