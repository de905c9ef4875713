// Package devices provides I/O port devices for the simulated system.
//
// Devices attach to the memory bus port space and claim an inclusive port
// range. The bus ticks every device once per executed instruction so that
// devices with internal timing can raise interrupt request lines on the
// programmable interrupt controller.
package devices

// Device is an I/O port device.
type Device interface {
	// ReadPort returns the byte read from the given port.
	ReadPort(port uint16) byte

	// WritePort handles a byte written to the given port.
	WritePort(port uint16, value byte)

	// PortRange returns the inclusive range of ports the device claims.
	PortRange() (lo, hi uint16)

	// Tick advances the device by the given number of CPU cycles. Devices
	// raise interrupts by driving lines on the controller.
	Tick(cycles uint64, pic *PIC)
}
