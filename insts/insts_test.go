package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtsim/insts"
)

var _ = Describe("Prefix bytes", func() {
	It("should recognize all seven prefixes", func() {
		for _, b := range []uint8{0x26, 0x2E, 0x36, 0x3E, 0xF0, 0xF2, 0xF3} {
			Expect(insts.IsPrefix(b)).To(BeTrue())
		}
	})

	It("should not flag ordinary opcodes", func() {
		for _, b := range []uint8{0x00, 0x27, 0x90, 0xB8, 0xF1, 0xF4, 0xFF} {
			Expect(insts.IsPrefix(b)).To(BeFalse())
		}
	})

	It("should map segment override prefixes to segment indices", func() {
		Expect(insts.SegmentForPrefix(0x26)).To(Equal(insts.SegES))
		Expect(insts.SegmentForPrefix(0x2E)).To(Equal(insts.SegCS))
		Expect(insts.SegmentForPrefix(0x36)).To(Equal(insts.SegSS))
		Expect(insts.SegmentForPrefix(0x3E)).To(Equal(insts.SegDS))
	})

	It("should map non-segment bytes to SegNone", func() {
		Expect(insts.SegmentForPrefix(0xF3)).To(Equal(insts.SegNone))
		Expect(insts.SegmentForPrefix(0x90)).To(Equal(insts.SegNone))
	})
})

var _ = Describe("Operand", func() {
	It("should classify memory operands", func() {
		m8 := insts.Operand{Kind: insts.KindMem8}
		m16 := insts.Operand{Kind: insts.KindMem16}
		r16 := insts.Operand{Kind: insts.KindReg16}

		Expect(m8.IsMem()).To(BeTrue())
		Expect(m16.IsMem()).To(BeTrue())
		Expect(r16.IsMem()).To(BeFalse())
	})

	It("should classify operand width", func() {
		Expect((&insts.Operand{Kind: insts.KindReg16}).IsWide()).To(BeTrue())
		Expect((&insts.Operand{Kind: insts.KindMem16}).IsWide()).To(BeTrue())
		Expect((&insts.Operand{Kind: insts.KindImm16}).IsWide()).To(BeTrue())
		Expect((&insts.Operand{Kind: insts.KindSeg}).IsWide()).To(BeTrue())
		Expect((&insts.Operand{Kind: insts.KindReg8}).IsWide()).To(BeFalse())
		Expect((&insts.Operand{Kind: insts.KindImm8}).IsWide()).To(BeFalse())
		Expect((&insts.Operand{Kind: insts.KindNone}).IsWide()).To(BeFalse())
	})
})

var _ = Describe("ContentTag", func() {
	It("should be deterministic", func() {
		code := []byte{0xB8, 0x34, 0x12}
		Expect(insts.ContentTag(code)).To(Equal(insts.ContentTag([]byte{0xB8, 0x34, 0x12})))
	})

	It("should change when any byte changes", func() {
		base := insts.ContentTag([]byte{0xB8, 0x34, 0x12})
		Expect(insts.ContentTag([]byte{0xB8, 0x55, 0x12})).NotTo(Equal(base))
		Expect(insts.ContentTag([]byte{0xB8, 0x34, 0x13})).NotTo(Equal(base))
		Expect(insts.ContentTag([]byte{0xB9, 0x34, 0x12})).NotTo(Equal(base))
	})
})
