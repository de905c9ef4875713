package timing

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the tunable penalties of the cycle model.
// The per-opcode base table and the EA table are fixed; the knobs here
// cover the costs that depend on bus behavior and are worth adjusting when
// calibrating against captured hardware traces.
type Config struct {
	// MemReadPenalty is charged per memory read of a ModR/M operand.
	// Default: 6 cycles.
	MemReadPenalty uint64 `json:"mem_read_penalty"`

	// MemWritePenalty is charged per memory write of a ModR/M operand.
	// Default: 7 cycles.
	MemWritePenalty uint64 `json:"mem_write_penalty"`

	// WordTransferPenalty is charged once per 16-bit ModR/M memory operand,
	// covering the second byte transfer on the 8-bit bus. Default: 4 cycles.
	WordTransferPenalty uint64 `json:"word_transfer_penalty"`

	// DispCycles is added to the EA cost when a nonzero displacement is
	// present. Default: 4 cycles.
	DispCycles uint64 `json:"disp_cycles"`

	// DirectAddressCycles is the EA cost of a direct address. Default: 6.
	DirectAddressCycles uint64 `json:"direct_address_cycles"`

	// SegmentOverrideCycles is charged per segment-override prefix.
	// Default: 2 cycles.
	SegmentOverrideCycles uint64 `json:"segment_override_cycles"`

	// BranchTakenCycles is the extra cost of a taken conditional branch or
	// loop. Default: 12 cycles.
	BranchTakenCycles uint64 `json:"branch_taken_cycles"`

	// InterruptEntryCycles is the cost of a hardware interrupt entry.
	// Default: 61 cycles.
	InterruptEntryCycles uint64 `json:"interrupt_entry_cycles"`

	// HaltIdleCycles is the cost of one step while halted with no pending
	// interrupt. Default: 4 cycles.
	HaltIdleCycles uint64 `json:"halt_idle_cycles"`

	// InvalidOpcodeCycles is charged when an undefined opcode is skipped.
	// Default: 4 cycles.
	InvalidOpcodeCycles uint64 `json:"invalid_opcode_cycles"`

	// ShiftPerBitCycles is the per-count cost of CL-count shifts and
	// rotates. Default: 4 cycles.
	ShiftPerBitCycles uint64 `json:"shift_per_bit_cycles"`
}

// DefaultConfig returns a Config with the reference 8088 values.
func DefaultConfig() *Config {
	return &Config{
		MemReadPenalty:        DefaultMemReadPenalty,
		MemWritePenalty:       DefaultMemWritePenalty,
		WordTransferPenalty:   DefaultWordTransferPenalty,
		DispCycles:            DefaultDispCycles,
		DirectAddressCycles:   DefaultDirectAddressCycles,
		SegmentOverrideCycles: DefaultSegmentOverrideCycles,
		BranchTakenCycles:     DefaultBranchTakenCycles,
		InterruptEntryCycles:  DefaultInterruptEntryCycles,
		HaltIdleCycles:        DefaultHaltIdleCycles,
		InvalidOpcodeCycles:   DefaultInvalidOpcodeCycles,
		ShiftPerBitCycles:     DefaultShiftPerBitCycles,
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the cycle values keep budget-driven runs live.
func (c *Config) Validate() error {
	if c.HaltIdleCycles == 0 {
		return fmt.Errorf("halt_idle_cycles must be > 0")
	}
	if c.InvalidOpcodeCycles == 0 {
		return fmt.Errorf("invalid_opcode_cycles must be > 0")
	}
	if c.InterruptEntryCycles == 0 {
		return fmt.Errorf("interrupt_entry_cycles must be > 0")
	}
	if c.MemReadPenalty == 0 {
		return fmt.Errorf("mem_read_penalty must be > 0")
	}
	if c.MemWritePenalty == 0 {
		return fmt.Errorf("mem_write_penalty must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
