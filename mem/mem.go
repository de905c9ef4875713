// Package mem provides the 8088 system memory bus.
//
// The bus resolves 20-bit physical addresses against a RAM region at the
// bottom of the address space and a ROM region near the top, and owns the
// 64K I/O port space with its device registry. Reads of unmapped addresses
// return 0xFF (open bus); writes to ROM or unmapped addresses are dropped.
// Word accesses are two byte accesses, little-endian, matching the 8-bit
// external bus.
package mem

import (
	"fmt"

	"github.com/sarchlab/xtsim/devices"
)

// AddressMask wraps physical addresses at the 1MiB boundary.
const AddressMask uint32 = 0xFFFFF

// Config holds the bus memory geometry. RAM always starts at address 0.
type Config struct {
	// RAMSize is the size of the RAM region in bytes. Default: 64KiB.
	RAMSize uint32 `json:"ram_size"`

	// ROMBase is the physical base address of the ROM region.
	// Default: 0xF0000.
	ROMBase uint32 `json:"rom_base"`

	// ROMSize is the size of the ROM region in bytes. Default: 64KiB.
	ROMSize uint32 `json:"rom_size"`
}

// DefaultConfig returns the PC/XT-like default geometry: 64KiB of RAM at
// address 0 and 64KiB of ROM topping out the 1MiB space.
func DefaultConfig() Config {
	return Config{
		RAMSize: 64 * 1024,
		ROMBase: 0xF0000,
		ROMSize: 64 * 1024,
	}
}

// Validate checks that the regions fit the 20-bit address space and do not
// overlap.
func (c Config) Validate() error {
	if c.RAMSize == 0 {
		return fmt.Errorf("ram_size must be > 0")
	}
	if uint64(c.RAMSize) > uint64(AddressMask)+1 {
		return fmt.Errorf("ram_size exceeds the 1MiB address space")
	}
	if uint64(c.ROMBase)+uint64(c.ROMSize) > uint64(AddressMask)+1 {
		return fmt.Errorf("rom region exceeds the 1MiB address space")
	}
	if c.ROMSize > 0 && c.ROMBase < c.RAMSize {
		return fmt.Errorf("rom region overlaps ram")
	}
	return nil
}

// Statistics holds bus access counters.
type Statistics struct {
	Reads         uint64
	Writes        uint64
	UnmappedReads uint64
	DroppedWrites uint64
	PortReads     uint64
	PortWrites    uint64
}

// Bus is the system memory and I/O port bus.
type Bus struct {
	config Config
	ram    []byte
	rom    []byte

	devices []devices.Device
	pic     *devices.PIC

	stats Statistics
}

// NewBus creates a bus with the given geometry.
func NewBus(config Config) *Bus {
	return &Bus{
		config: config,
		ram:    make([]byte, config.RAMSize),
		rom:    make([]byte, config.ROMSize),
	}
}

// Config returns the bus geometry.
func (b *Bus) Config() Config {
	return b.config
}

// Stats returns the access counters.
func (b *Bus) Stats() Statistics {
	return b.stats
}

// ResetStats clears the access counters.
func (b *Bus) ResetStats() {
	b.stats = Statistics{}
}

// ReadByte reads one byte from a physical address.
func (b *Bus) ReadByte(addr uint32) byte {
	addr &= AddressMask
	b.stats.Reads++

	if addr < b.config.RAMSize {
		return b.ram[addr]
	}
	if b.inROM(addr) {
		return b.rom[addr-b.config.ROMBase]
	}
	b.stats.UnmappedReads++
	return 0xFF
}

// WriteByte writes one byte to a physical address. Writes to ROM or
// unmapped addresses are dropped.
func (b *Bus) WriteByte(addr uint32, value byte) {
	addr &= AddressMask
	b.stats.Writes++

	if addr < b.config.RAMSize {
		b.ram[addr] = value
		return
	}
	b.stats.DroppedWrites++
}

// ReadWord reads a little-endian 16-bit word as two byte accesses.
func (b *Bus) ReadWord(addr uint32) uint16 {
	lo := b.ReadByte(addr)
	hi := b.ReadByte(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

// WriteWord writes a little-endian 16-bit word as two byte accesses.
func (b *Bus) WriteWord(addr uint32, value uint16) {
	b.WriteByte(addr, byte(value))
	b.WriteByte(addr+1, byte(value>>8))
}

// LoadRAM copies an image into RAM at the given offset.
func (b *Bus) LoadRAM(data []byte, offset uint32) error {
	if uint64(offset)+uint64(len(data)) > uint64(b.config.RAMSize) {
		return fmt.Errorf("image of %d bytes does not fit ram at offset 0x%X", len(data), offset)
	}
	copy(b.ram[offset:], data)
	return nil
}

// LoadROM copies an image into the ROM region at the given offset from
// ROMBase. Unlike bus writes, loading bypasses the write protection.
func (b *Bus) LoadROM(data []byte, offset uint32) error {
	if uint64(offset)+uint64(len(data)) > uint64(b.config.ROMSize) {
		return fmt.Errorf("image of %d bytes does not fit rom at offset 0x%X", len(data), offset)
	}
	copy(b.rom[offset:], data)
	return nil
}

func (b *Bus) inROM(addr uint32) bool {
	return b.config.ROMSize > 0 &&
		addr >= b.config.ROMBase &&
		addr < b.config.ROMBase+b.config.ROMSize
}
