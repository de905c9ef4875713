package insts

// 16-bit register indices, in encoding order.
const (
	RegAX uint8 = iota
	RegCX
	RegDX
	RegBX
	RegSP
	RegBP
	RegSI
	RegDI
)

// 8-bit register indices, in encoding order. Indices 0-3 address the low
// byte of AX-BX, indices 4-7 the high byte.
const (
	RegAL uint8 = iota
	RegCL
	RegDL
	RegBL
	RegAH
	RegCH
	RegDH
	RegBH
)

// Segment register indices, in encoding order.
const (
	SegES uint8 = iota
	SegCS
	SegSS
	SegDS
)

// SegNone marks the absence of a segment override.
const SegNone uint8 = 0xFF

// RMDirect marks a direct-address memory operand (mod=00, rm=110), where
// Val carries the full 16-bit offset instead of a displacement.
const RMDirect uint8 = 8

// OperandKind classifies an instruction operand.
type OperandKind uint8

// Operand kinds.
const (
	KindNone  OperandKind = iota
	KindReg8              // 8-bit register, index in Reg
	KindReg16             // 16-bit register, index in Reg
	KindSeg               // segment register, index in Reg
	KindImm8              // 8-bit immediate in Val
	KindImm16             // 16-bit immediate in Val
	KindMem8              // 8-bit memory operand via ModR/M
	KindMem16             // 16-bit memory operand via ModR/M
	KindRel8              // branch displacement, sign-extended into Val
	KindRel16             // branch displacement in Val
	KindFar               // far pointer immediate: offset in Val, segment in FarSeg
)

// Operand is one decoded instruction operand.
//
// Memory operands keep the ModR/M rm row in RM (or RMDirect), the
// displacement or direct offset in Val, and the resolved default or
// overridden segment in Seg. Register operands keep their index in Reg.
// Immediates and branch displacements live in Val.
type Operand struct {
	Kind    OperandKind
	Reg     uint8
	RM      uint8
	Seg     uint8
	Val     uint16
	FarSeg  uint16
	HasDisp bool
}

// IsMem reports whether the operand addresses memory.
func (o *Operand) IsMem() bool {
	return o.Kind == KindMem8 || o.Kind == KindMem16
}

// IsWide reports whether the operand is 16 bits wide.
func (o *Operand) IsWide() bool {
	switch o.Kind {
	case KindReg16, KindSeg, KindImm16, KindMem16, KindRel16:
		return true
	}
	return false
}
