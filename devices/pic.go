package devices

// PIC port and command constants.
const (
	// PICCommandPort is the controller command/status port.
	PICCommandPort uint16 = 0x20
	// PICDataPort is the interrupt mask register port.
	PICDataPort uint16 = 0x21

	// picEOICommand is the non-specific end-of-interrupt command byte.
	picEOICommand byte = 0x20

	// DefaultVectorOffset maps IRQ 0-7 to interrupt vectors 0x08-0x0F,
	// the PC/XT BIOS convention.
	DefaultVectorOffset byte = 0x08
)

// PIC models the interrupt-priority core of an 8259A programmable
// interrupt controller: eight edge-triggered request lines, a mask
// register, an in-service register, and fixed priority with IRQ 0 highest.
// The full ICW initialization protocol is not modeled; the controller
// comes up in the PC/XT operating mode.
type PIC struct {
	vectorOffset byte

	irr     byte // interrupt request register, one bit per pending line
	isr     byte // in-service register
	imr     byte // interrupt mask register, set bits are masked
	irqPrev byte // previous line levels for edge detection
}

// NewPIC returns a controller with all lines masked and IRQ 0-7 mapped to
// vectors 0x08-0x0F.
func NewPIC() *PIC {
	return &PIC{
		vectorOffset: DefaultVectorOffset,
		imr:          0xFF,
	}
}

// SetIRQLevel drives one request line. A rising edge latches the request;
// holding the line high does not re-trigger.
func (p *PIC) SetIRQLevel(line uint8, level bool) {
	if line > 7 {
		return
	}
	bit := byte(1) << line
	was := p.irqPrev&bit != 0
	if level && !was {
		p.irr |= bit
	}
	if level {
		p.irqPrev |= bit
	} else {
		p.irqPrev &^= bit
	}
}

// INTR reports whether an unmasked request is pending.
func (p *PIC) INTR() bool {
	return p.irr & ^p.imr != 0
}

// Acknowledge runs one interrupt-acknowledge cycle and returns the vector
// number. The highest-priority unmasked request wins; its IRR bit clears
// and its ISR bit sets until EOI. With nothing pending the controller
// returns the spurious vector (offset+7).
func (p *PIC) Acknowledge() byte {
	pending := p.irr & ^p.imr
	if pending == 0 {
		return p.vectorOffset + 7
	}
	for line := uint8(0); line < 8; line++ {
		bit := byte(1) << line
		if pending&bit != 0 {
			p.irr &^= bit
			p.isr |= bit
			return p.vectorOffset + line
		}
	}
	return p.vectorOffset + 7
}

// EOI performs a non-specific end of interrupt, clearing the
// highest-priority in-service bit.
func (p *PIC) EOI() {
	for line := uint8(0); line < 8; line++ {
		bit := byte(1) << line
		if p.isr&bit != 0 {
			p.isr &^= bit
			return
		}
	}
}

// IMR returns the interrupt mask register.
func (p *PIC) IMR() byte { return p.imr }

// SetIMR replaces the interrupt mask register. Set bits mask their lines.
func (p *PIC) SetIMR(mask byte) { p.imr = mask }

// IRR returns the interrupt request register.
func (p *PIC) IRR() byte { return p.irr }

// ISR returns the in-service register.
func (p *PIC) ISR() byte { return p.isr }

// ReadPort implements Device. The command port reads back the request
// register, the data port the mask register.
func (p *PIC) ReadPort(port uint16) byte {
	switch port {
	case PICCommandPort:
		return p.irr
	case PICDataPort:
		return p.imr
	}
	return 0xFF
}

// WritePort implements Device. An EOI command on the command port retires
// the in-service interrupt; writes to the data port set the mask.
func (p *PIC) WritePort(port uint16, value byte) {
	switch port {
	case PICCommandPort:
		if value == picEOICommand {
			p.EOI()
		}
	case PICDataPort:
		p.imr = value
	}
}

// PortRange implements Device.
func (p *PIC) PortRange() (lo, hi uint16) {
	return PICCommandPort, PICDataPort
}

// Tick implements Device. The controller itself needs no per-cycle work.
func (p *PIC) Tick(cycles uint64, pic *PIC) {}
