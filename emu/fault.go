package emu

import "fmt"

// FaultKind classifies an execution fault.
type FaultKind uint8

// Fault kinds.
const (
	// FaultNone marks the zero value.
	FaultNone FaultKind = iota

	// FaultInvalidOpcode reports an architecturally undefined opcode
	// byte, or an instruction truncated by the end of the code window.
	// The byte is skipped and recorded; execution continues.
	FaultInvalidOpcode

	// FaultDivideError reports a divide overflow or divide by zero. The
	// instruction also raises interrupt 0, so the fault record is a
	// diagnostic alongside the architectural behavior.
	FaultDivideError
)

// String returns the fault kind name.
func (k FaultKind) String() string {
	switch k {
	case FaultInvalidOpcode:
		return "invalid opcode"
	case FaultDivideError:
		return "divide error"
	}
	return "none"
}

// Fault records one execution fault: what happened, where the offending
// instruction lived, and the opcode byte that triggered it.
type Fault struct {
	Kind FaultKind
	Addr uint32 // physical address of the offending byte
	CS   uint16
	IP   uint16 // offset of the offending byte within CS
	Byte uint8
}

// String formats the fault for diagnostics.
func (f *Fault) String() string {
	return fmt.Sprintf("%s at %04X:%04X (phys 0x%05X, byte 0x%02X)",
		f.Kind, f.CS, f.IP, f.Addr, f.Byte)
}

// recordFault updates the diagnostic fault record.
func (c *CPU) recordFault(kind FaultKind, cs, ip uint16, addr uint32, b uint8) *Fault {
	f := &Fault{Kind: kind, Addr: addr, CS: cs, IP: ip, Byte: b}
	c.lastFault = f
	c.faultCount++
	return f
}

// LastFault returns the most recent fault record, or nil if none has
// occurred since reset.
func (c *CPU) LastFault() *Fault {
	return c.lastFault
}

// FaultCount returns the number of faults recorded since reset.
func (c *CPU) FaultCount() uint64 {
	return c.faultCount
}
