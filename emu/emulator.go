// Package emu executes 8088 machine code against a cycle model.
//
// The package couples the memory bus, the decoder, and per-opcode
// handlers into a stepping core with three execution tiers: a full
// fetch-and-decode path, a cache of decoded instructions, and basic
// blocks built at hot addresses. The tiers retire identical
// architectural state and identical cycle counts; promotion between
// them is invisible to the program.
package emu

import (
	"fmt"

	"github.com/sarchlab/xtsim/insts"
	"github.com/sarchlab/xtsim/mem"
	"github.com/sarchlab/xtsim/timing"
)

// Emulator bundles a CPU and its bus behind one setup surface.
type Emulator struct {
	bus *mem.Bus
	cpu *CPU

	busConfig    mem.Config
	timingConfig *timing.Config
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithBusConfig sets the memory geometry.
func WithBusConfig(cfg mem.Config) EmulatorOption {
	return func(e *Emulator) {
		e.busConfig = cfg
	}
}

// WithTimingConfig sets the cycle model knobs.
func WithTimingConfig(cfg *timing.Config) EmulatorOption {
	return func(e *Emulator) {
		e.timingConfig = cfg
	}
}

// NewEmulator creates an emulator with the given options. Omitted
// options fall back to the PC/XT-like bus geometry and the reference
// cycle values.
func NewEmulator(opts ...EmulatorOption) (*Emulator, error) {
	e := &Emulator{
		busConfig:    mem.DefaultConfig(),
		timingConfig: timing.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.busConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bus config: %w", err)
	}
	if err := e.timingConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	e.bus = mem.NewBus(e.busConfig)
	e.cpu = NewCPU(e.bus, timing.NewTable(e.timingConfig))
	return e, nil
}

// CPU returns the core for direct state access.
func (e *Emulator) CPU() *CPU {
	return e.cpu
}

// Bus returns the memory and I/O bus.
func (e *Emulator) Bus() *mem.Bus {
	return e.bus
}

// LoadProgram copies code into RAM at segment:0 and points CS:IP at its
// first byte. The CPU is reset first, so caches and counters start
// clean.
func (e *Emulator) LoadProgram(code []byte, segment uint16) error {
	base := uint32(segment) << 4
	if err := e.bus.LoadRAM(code, base); err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}
	e.cpu.Reset()
	e.cpu.Segments[insts.SegCS] = segment
	e.cpu.IP = 0
	return nil
}

// LoadBIOS copies a ROM image so that it ends at the top of the address
// space, putting its last sixteen bytes under the reset vector.
func (e *Emulator) LoadBIOS(image []byte) error {
	if uint32(len(image)) > e.busConfig.ROMSize {
		return fmt.Errorf("bios image of %d bytes exceeds rom size %d",
			len(image), e.busConfig.ROMSize)
	}
	offset := e.busConfig.ROMSize - uint32(len(image))
	if err := e.bus.LoadROM(image, offset); err != nil {
		return fmt.Errorf("failed to load bios image: %w", err)
	}
	return nil
}

// Reset returns the CPU to power-on state. Memory contents survive.
func (e *Emulator) Reset() {
	e.cpu.Reset()
}

// Step executes one instruction or one promoted block.
func (e *Emulator) Step() StepResult {
	return e.cpu.Step()
}

// RunFor executes steps until at least budget cycles have elapsed and
// returns the cycles actually consumed.
func (e *Emulator) RunFor(budget uint64) uint64 {
	return e.cpu.RunFor(budget)
}

// Snapshot returns the current architectural state.
func (e *Emulator) Snapshot() Snapshot {
	return e.cpu.Snapshot()
}
