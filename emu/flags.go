package emu

import "math/bits"

// Flag bit masks. Bit 1 reads back as set on the 8088.
const (
	FlagCF uint16 = 1 << 0  // carry
	FlagPF uint16 = 1 << 2  // parity
	FlagAF uint16 = 1 << 4  // auxiliary carry
	FlagZF uint16 = 1 << 6  // zero
	FlagSF uint16 = 1 << 7  // sign
	FlagTF uint16 = 1 << 8  // trap
	FlagIF uint16 = 1 << 9  // interrupt enable
	FlagDF uint16 = 1 << 10 // direction
	FlagOF uint16 = 1 << 11 // overflow

	flagAlwaysOn uint16 = 0x0002
)

// FlagOp identifies the operation recorded in the lazy flag state.
//
// CF, ZF, SF, and PF are not computed when an ALU instruction executes.
// The instruction records its widened result and operation kind, and the
// flags derive from that record when something reads them. OF and AF
// need the original operands, so they are maintained eagerly in the
// flags word, as are the control flags DF, IF, and TF.
type FlagOp uint8

// Lazy flag operation kinds.
const (
	FlagOpNone FlagOp = iota
	FlagOpAdd8
	FlagOpAdd16
	FlagOpAdc8
	FlagOpAdc16
	FlagOpSub8
	FlagOpSub16
	FlagOpSbb8
	FlagOpSbb16
	FlagOpAnd8
	FlagOpAnd16
	FlagOpOr8
	FlagOpOr16
	FlagOpXor8
	FlagOpXor16
	FlagOpInc8
	FlagOpInc16
	FlagOpDec8
	FlagOpDec16
)

func (op FlagOp) is16() bool {
	switch op {
	case FlagOpAdd16, FlagOpAdc16, FlagOpSub16, FlagOpSbb16,
		FlagOpAnd16, FlagOpOr16, FlagOpXor16, FlagOpInc16, FlagOpDec16:
		return true
	}
	return false
}

// carryFromResult reports whether CF derives from the carry-out bit of
// the recorded result. Subtraction qualifies because results are
// recorded as wrapping 32-bit values, where a borrow leaves the bit set.
func (op FlagOp) carryFromResult() bool {
	switch op {
	case FlagOpAdd8, FlagOpAdd16, FlagOpAdc8, FlagOpAdc16,
		FlagOpSub8, FlagOpSub16, FlagOpSbb8, FlagOpSbb16:
		return true
	}
	return false
}

// preservesCarry reports whether the operation leaves CF untouched.
func (op FlagOp) preservesCarry() bool {
	switch op {
	case FlagOpInc8, FlagOpInc16, FlagOpDec8, FlagOpDec16:
		return true
	}
	return false
}

// computeFlags derives the full flags word from the stored word and the
// lazy record. The stored word supplies the eager bits; ZF, SF, and PF
// come from the recorded result, and CF from the carry-out bit for the
// arithmetic kinds. INC and DEC preserve the CF their setter
// materialized into the stored word.
func (c *CPU) computeFlags() uint16 {
	if c.lastOp == FlagOpNone {
		return c.flags | flagAlwaysOn
	}

	flags := flagAlwaysOn
	flags |= c.flags & (FlagOF | FlagAF | FlagDF | FlagIF | FlagTF)

	var result uint16
	var signBit uint16
	var carryBit uint32
	if c.lastOp.is16() {
		result = uint16(c.lastResult)
		signBit = 0x8000
		carryBit = 0x10000
	} else {
		result = uint16(uint8(c.lastResult))
		signBit = 0x80
		carryBit = 0x100
	}

	if result == 0 {
		flags |= FlagZF
	}
	if result&signBit != 0 {
		flags |= FlagSF
	}
	if bits.OnesCount8(uint8(result))%2 == 0 {
		flags |= FlagPF
	}

	switch {
	case c.lastOp.carryFromResult():
		if c.lastResult&carryBit != 0 {
			flags |= FlagCF
		}
	case c.lastOp.preservesCarry():
		flags |= c.flags & FlagCF
	}

	return flags
}

// Flags returns the flags word, materializing the lazy state into the
// stored word.
func (c *CPU) Flags() uint16 {
	c.flags = c.computeFlags()
	return c.flags
}

// GetFlag reports whether every bit of mask is set in the flags word.
func (c *CPU) GetFlag(mask uint16) bool {
	return c.Flags()&mask != 0
}

// SetFlags replaces the whole flags word and drops the lazy record. Bit
// 1 always reads back as set.
func (c *CPU) SetFlags(v uint16) {
	c.flags = v | flagAlwaysOn
	c.lastOp = FlagOpNone
}

// SetFlag sets or clears one flag, materializing the rest first so the
// derived bits are not lost with the record.
func (c *CPU) SetFlag(mask uint16, on bool) {
	c.flags = c.computeFlags()
	c.setEagerFlag(mask, on)
	c.lastOp = FlagOpNone
}

func (c *CPU) setEagerFlag(mask uint16, on bool) {
	if on {
		c.flags |= mask
	} else {
		c.flags &^= mask
	}
}

// setLazy records an ALU result for on-demand flag derivation.
func (c *CPU) setLazy(result uint32, op FlagOp) {
	c.lastResult = result
	c.lastOp = op
}

// setLazyIncDec records an INC or DEC result. CF survives these
// operations, so the previous state is materialized first; computeFlags
// then carries CF over from the stored word.
func (c *CPU) setLazyIncDec(result uint32, op FlagOp) {
	c.flags = c.computeFlags()
	c.lastResult = result
	c.lastOp = op
}

// setAddOFAF8 sets OF and AF eagerly for an 8-bit ADD. Overflow fires
// when two same-sign operands produce the opposite sign; AF is the carry
// out of bit 3.
func (c *CPU) setAddOFAF8(op1, op2 uint8, result uint32) {
	overflow := (uint32(op1)^result)&(uint32(op2)^result)&0x80 != 0
	c.setEagerFlag(FlagOF, overflow)
	c.setEagerFlag(FlagAF, (uint32(op1)^uint32(op2)^result)&0x10 != 0)
}

func (c *CPU) setAddOFAF16(op1, op2 uint16, result uint32) {
	overflow := (uint32(op1)^result)&(uint32(op2)^result)&0x8000 != 0
	c.setEagerFlag(FlagOF, overflow)
	c.setEagerFlag(FlagAF, (uint32(op1)^uint32(op2)^result)&0x10 != 0)
}

// setAdcOFAF8 folds the carry-in into the AF computation; the overflow
// test is unchanged from ADD.
func (c *CPU) setAdcOFAF8(op1, op2, carry uint8, result uint32) {
	overflow := (uint32(op1)^result)&(uint32(op2)^result)&0x80 != 0
	c.setEagerFlag(FlagOF, overflow)
	c.setEagerFlag(FlagAF, (uint32(op1)^uint32(op2)^uint32(carry)^result)&0x10 != 0)
}

func (c *CPU) setAdcOFAF16(op1, op2, carry uint16, result uint32) {
	overflow := (uint32(op1)^result)&(uint32(op2)^result)&0x8000 != 0
	c.setEagerFlag(FlagOF, overflow)
	c.setEagerFlag(FlagAF, (uint32(op1)^uint32(op2)^uint32(carry)^result)&0x10 != 0)
}

// setSubOFAF8 sets OF and AF eagerly for an 8-bit SUB. Overflow fires
// when subtracting a different-sign operand flips the sign; AF is the
// borrow into bit 3.
func (c *CPU) setSubOFAF8(op1, op2 uint8, result uint32) {
	overflow := (uint32(op1)^uint32(op2))&(uint32(op1)^result)&0x80 != 0
	c.setEagerFlag(FlagOF, overflow)
	c.setEagerFlag(FlagAF, (uint32(op1)^uint32(op2)^result)&0x10 != 0)
}

func (c *CPU) setSubOFAF16(op1, op2 uint16, result uint32) {
	overflow := (uint32(op1)^uint32(op2))&(uint32(op1)^result)&0x8000 != 0
	c.setEagerFlag(FlagOF, overflow)
	c.setEagerFlag(FlagAF, (uint32(op1)^uint32(op2)^result)&0x10 != 0)
}

func (c *CPU) setSbbOFAF8(op1, op2, borrow uint8, result uint32) {
	overflow := (uint32(op1)^uint32(op2))&(uint32(op1)^result)&0x80 != 0
	c.setEagerFlag(FlagOF, overflow)
	c.setEagerFlag(FlagAF, (uint32(op1)^uint32(op2)^uint32(borrow)^result)&0x10 != 0)
}

func (c *CPU) setSbbOFAF16(op1, op2, borrow uint16, result uint32) {
	overflow := (uint32(op1)^uint32(op2))&(uint32(op1)^result)&0x8000 != 0
	c.setEagerFlag(FlagOF, overflow)
	c.setEagerFlag(FlagAF, (uint32(op1)^uint32(op2)^uint32(borrow)^result)&0x10 != 0)
}

// setIncOFAF8 sets OF and AF for an 8-bit INC. Overflow fires only on
// the 0x7F to 0x80 transition.
func (c *CPU) setIncOFAF8(op1, result uint8) {
	c.setEagerFlag(FlagOF, op1 == 0x7F && result == 0x80)
	c.setEagerFlag(FlagAF, (uint32(op1)^1^uint32(result))&0x10 != 0)
}

func (c *CPU) setIncOFAF16(op1, result uint16) {
	c.setEagerFlag(FlagOF, op1 == 0x7FFF && result == 0x8000)
	c.setEagerFlag(FlagAF, (uint32(op1)^1^uint32(result))&0x10 != 0)
}

// setDecOFAF8 sets OF and AF for an 8-bit DEC. Overflow fires only on
// the 0x80 to 0x7F transition.
func (c *CPU) setDecOFAF8(op1, result uint8) {
	c.setEagerFlag(FlagOF, op1 == 0x80 && result == 0x7F)
	c.setEagerFlag(FlagAF, (uint32(op1)^1^uint32(result))&0x10 != 0)
}

func (c *CPU) setDecOFAF16(op1, result uint16) {
	c.setEagerFlag(FlagOF, op1 == 0x8000 && result == 0x7FFF)
	c.setEagerFlag(FlagAF, (uint32(op1)^1^uint32(result))&0x10 != 0)
}

// clearOFCFAF clears OF, CF, and AF. The logical operations always clear
// CF and OF and leave AF in a known state.
func (c *CPU) clearOFCFAF() {
	c.flags &^= FlagOF | FlagCF | FlagAF
}
