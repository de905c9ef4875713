package mem

import "github.com/sarchlab/xtsim/devices"

// RegisterDevice attaches a device to the I/O port space. Devices are
// probed in registration order; the first device whose range contains the
// port handles the access.
func (b *Bus) RegisterDevice(d devices.Device) {
	b.devices = append(b.devices, d)
}

// AttachPIC registers the interrupt controller on its ports and makes it
// the interrupt sink for device ticks.
func (b *Bus) AttachPIC(p *devices.PIC) {
	b.pic = p
	b.RegisterDevice(p)
}

// PIC returns the attached interrupt controller, or nil.
func (b *Bus) PIC() *devices.PIC {
	return b.pic
}

func (b *Bus) findDevice(port uint16) devices.Device {
	for _, d := range b.devices {
		lo, hi := d.PortRange()
		if port >= lo && port <= hi {
			return d
		}
	}
	return nil
}

// ReadPort8 reads one byte from an I/O port. Unmapped ports read 0xFF.
func (b *Bus) ReadPort8(port uint16) byte {
	b.stats.PortReads++
	if d := b.findDevice(port); d != nil {
		return d.ReadPort(port)
	}
	return 0xFF
}

// WritePort8 writes one byte to an I/O port. Unmapped ports drop the write.
func (b *Bus) WritePort8(port uint16, value byte) {
	b.stats.PortWrites++
	if d := b.findDevice(port); d != nil {
		d.WritePort(port, value)
	}
}

// ReadPort16 reads a 16-bit value as two byte accesses on consecutive
// ports, low byte first.
func (b *Bus) ReadPort16(port uint16) uint16 {
	lo := b.ReadPort8(port)
	hi := b.ReadPort8(port + 1)
	return uint16(lo) | uint16(hi)<<8
}

// WritePort16 writes a 16-bit value as two byte accesses on consecutive
// ports, low byte first.
func (b *Bus) WritePort16(port uint16, value uint16) {
	b.WritePort8(port, byte(value))
	b.WritePort8(port+1, byte(value>>8))
}

// TickDevices advances every registered device by the given cycle count.
func (b *Bus) TickDevices(cycles uint64) {
	for _, d := range b.devices {
		d.Tick(cycles, b.pic)
	}
}
