package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/insts"
)

var _ = Describe("Multiply and divide", func() {
	Describe("MUL", func() {
		It("widens a byte product into AX", func() {
			// MUL BL
			e := newTestEmulator(0xF6, 0xE3)
			cpu := e.CPU()
			cpu.SetReg8(insts.RegAL, 20)
			cpu.SetReg8(insts.RegBL, 30)

			e.Step()

			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(600)))
			Expect(cpu.GetFlag(emu.FlagCF)).To(BeTrue())
			Expect(cpu.GetFlag(emu.FlagOF)).To(BeTrue())
		})

		It("clears CF and OF when the high half is zero", func() {
			// MUL BL
			e := newTestEmulator(0xF6, 0xE3)
			cpu := e.CPU()
			cpu.SetReg8(insts.RegAL, 3)
			cpu.SetReg8(insts.RegBL, 4)

			e.Step()

			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(12)))
			Expect(cpu.GetFlag(emu.FlagCF)).To(BeFalse())
			Expect(cpu.GetFlag(emu.FlagOF)).To(BeFalse())
		})

		It("spreads a word product across DX:AX", func() {
			// MUL BX
			e := newTestEmulator(0xF7, 0xE3)
			cpu := e.CPU()
			cpu.Regs[insts.RegAX] = 0x1234
			cpu.Regs[insts.RegBX] = 0x0100

			e.Step()

			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(0x3400)))
			Expect(cpu.Regs[insts.RegDX]).To(Equal(uint16(0x0012)))
			Expect(cpu.GetFlag(emu.FlagCF)).To(BeTrue())
		})
	})

	Describe("IMUL", func() {
		It("keeps sign through a byte product", func() {
			// IMUL BL
			e := newTestEmulator(0xF6, 0xEB)
			cpu := e.CPU()
			cpu.SetReg8(insts.RegAL, 0xFE) // -2
			cpu.SetReg8(insts.RegBL, 3)

			e.Step()

			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(0xFFFA)))
			Expect(cpu.GetFlag(emu.FlagCF)).To(BeFalse())
			Expect(cpu.GetFlag(emu.FlagOF)).To(BeFalse())
		})

		It("flags a product that no longer fits the low half", func() {
			// IMUL BL
			e := newTestEmulator(0xF6, 0xEB)
			cpu := e.CPU()
			cpu.SetReg8(insts.RegAL, 100)
			cpu.SetReg8(insts.RegBL, 3)

			e.Step()

			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(300)))
			Expect(cpu.GetFlag(emu.FlagCF)).To(BeTrue())
			Expect(cpu.GetFlag(emu.FlagOF)).To(BeTrue())
		})
	})

	Describe("DIV", func() {
		It("splits a byte quotient and remainder across AL and AH", func() {
			// DIV BL
			e := newTestEmulator(0xF6, 0xF3)
			cpu := e.CPU()
			cpu.Regs[insts.RegAX] = 100
			cpu.SetReg8(insts.RegBL, 7)

			e.Step()

			Expect(cpu.Reg8(insts.RegAL)).To(Equal(uint8(14)))
			Expect(cpu.Reg8(insts.RegAH)).To(Equal(uint8(2)))
		})

		It("divides DX:AX by a word divisor", func() {
			// DIV BX
			e := newTestEmulator(0xF7, 0xF3)
			cpu := e.CPU()
			cpu.Regs[insts.RegDX] = 0x0001
			cpu.Regs[insts.RegAX] = 0x0000
			cpu.Regs[insts.RegBX] = 0x0002

			e.Step()

			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(0x8000)))
			Expect(cpu.Regs[insts.RegDX]).To(Equal(uint16(0x0000)))
		})
	})

	Describe("IDIV", func() {
		It("truncates a signed byte quotient toward zero", func() {
			// IDIV BL
			e := newTestEmulator(0xF6, 0xFB)
			cpu := e.CPU()
			cpu.Regs[insts.RegAX] = 0xFF9C // -100
			cpu.SetReg8(insts.RegBL, 7)

			e.Step()

			Expect(cpu.Reg8(insts.RegAL)).To(Equal(uint8(0xF2))) // -14
			Expect(cpu.Reg8(insts.RegAH)).To(Equal(uint8(0xFE))) // -2
		})
	})

	Describe("divide faults", func() {
		var e *emu.Emulator

		It("raises interrupt 0 on a zero divisor", func() {
			// DIV BL
			e = newTestEmulator(0xF6, 0xF3)
			setVector(e, 0)
			cpu := e.CPU()
			cpu.Regs[insts.RegAX] = 100

			result := e.Step()

			Expect(result.Fault).NotTo(BeNil())
			Expect(result.Fault.Kind).To(Equal(emu.FaultDivideError))
			Expect(cpu.Segments[insts.SegCS]).To(Equal(uint16(0x0050)))
			Expect(cpu.IP).To(Equal(uint16(0x0000)))
			Expect(cpu.FaultCount()).To(Equal(uint64(1)))
		})

		It("pushes the address of the following instruction", func() {
			// DIV BL
			e = newTestEmulator(0xF6, 0xF3)
			setVector(e, 0)
			cpu := e.CPU()

			e.Step()

			Expect(cpu.Regs[insts.RegSP]).To(Equal(uint16(0x7FFA)))
			Expect(e.Bus().ReadWord(0x7FFA)).To(Equal(uint16(0x0002)))
			Expect(e.Bus().ReadWord(0x7FFC)).To(Equal(codeSegment))
		})

		It("leaves the registers untouched on an overflowed quotient", func() {
			// DIV BL
			e = newTestEmulator(0xF6, 0xF3)
			setVector(e, 0)
			cpu := e.CPU()
			cpu.Regs[insts.RegAX] = 0x1000
			cpu.SetReg8(insts.RegBL, 1)

			result := e.Step()

			Expect(result.Fault).NotTo(BeNil())
			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(0x1000)))
		})

		It("faults the minimum word dividend divided by minus one", func() {
			// IDIV BX
			e = newTestEmulator(0xF7, 0xFB)
			setVector(e, 0)
			cpu := e.CPU()
			cpu.Regs[insts.RegDX] = 0xFFFF
			cpu.Regs[insts.RegAX] = 0x8000 // DX:AX = -32768
			cpu.Regs[insts.RegBX] = 0xFFFF // -1

			result := e.Step()

			Expect(result.Fault).NotTo(BeNil())
			Expect(result.Fault.Kind).To(Equal(emu.FaultDivideError))
			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(0x8000)))
		})

		It("faults AAM with a zero base", func() {
			// AAM 0
			e = newTestEmulator(0xD4, 0x00)
			setVector(e, 0)

			result := e.Step()

			Expect(result.Fault).NotTo(BeNil())
			Expect(result.Fault.Kind).To(Equal(emu.FaultDivideError))
		})
	})

	Describe("ASCII adjust with a base", func() {
		It("splits AL into digits with AAM", func() {
			// AAM
			e := newTestEmulator(0xD4, 0x0A)
			cpu := e.CPU()
			cpu.SetReg8(insts.RegAL, 63)

			e.Step()

			Expect(cpu.Reg8(insts.RegAH)).To(Equal(uint8(6)))
			Expect(cpu.Reg8(insts.RegAL)).To(Equal(uint8(3)))
		})

		It("recombines digits with AAD", func() {
			// AAD
			e := newTestEmulator(0xD5, 0x0A)
			cpu := e.CPU()
			cpu.SetReg8(insts.RegAH, 6)
			cpu.SetReg8(insts.RegAL, 3)

			e.Step()

			Expect(cpu.Regs[insts.RegAX]).To(Equal(uint16(63)))
		})
	})
})
