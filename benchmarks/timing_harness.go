// Package benchmarks provides timing benchmark infrastructure for XTSim
// calibration.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/timing"
)

// LoadSegment is the paragraph benchmark programs are loaded at; the image
// lands at physical 0x1000, clear of the interrupt vector table.
const LoadSegment uint16 = 0x0100

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count charged by the cycle model
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// Tier1Steps counts steps served by full fetch-and-decode
	Tier1Steps uint64 `json:"tier1_steps"`

	// Tier2Steps counts steps served from the decode cache
	Tier2Steps uint64 `json:"tier2_steps"`

	// Tier3Steps counts steps served by compiled basic blocks
	Tier3Steps uint64 `json:"tier3_steps"`

	// DecodeCacheHits/Misses from the decode cache directory
	DecodeCacheHits   uint64 `json:"decode_cache_hits"`
	DecodeCacheMisses uint64 `json:"decode_cache_misses"`

	// BlocksBuilt is the number of basic blocks compiled
	BlocksBuilt uint64 `json:"blocks_built"`

	// BlockExecutions is the number of whole-block runs
	BlockExecutions uint64 `json:"block_executions"`

	// PrefetchFlushes counts queue discards on taken transfers
	PrefetchFlushes uint64 `json:"prefetch_flushes"`

	// BusReads/BusWrites are the memory bus counters
	BusReads  uint64 `json:"bus_reads"`
	BusWrites uint64 `json:"bus_writes"`

	// Faults is the number of faults recorded during the run
	Faults uint64 `json:"faults"`

	// ExitAX is the AX value at the halt point (for validation)
	ExitAX uint16 `json:"exit_ax"`

	// Halted reports whether the program reached HLT
	Halted bool `json:"halted"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup seeds emulator state after the program image is placed.
	// LoadProgram resets the CPU, so register and memory seeding has to
	// happen here rather than before the load.
	Setup func(e *emu.Emulator)

	// Program is the 8088 machine code to execute. It must end in HLT.
	Program []byte

	// ExpectedAX is the AX value the program leaves at its halt point
	ExpectedAX uint16
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// TimingConfig overrides the cycle model knobs (nil = defaults)
	TimingConfig *timing.Config

	// MaxSteps bounds a single benchmark run; a program that has not
	// halted by then is reported as an error
	MaxSteps uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		TimingConfig: nil,
		MaxSteps:     1 << 20,
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.MaxSteps == 0 {
		config.MaxSteps = 1 << 20
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. The first
// infrastructure failure (bad config, runaway program) stops the run.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(bench)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

// runBenchmark executes a single benchmark on a fresh emulator.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	var opts []emu.EmulatorOption
	if h.config.TimingConfig != nil {
		opts = append(opts, emu.WithTimingConfig(h.config.TimingConfig))
	}

	e, err := emu.NewEmulator(opts...)
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("benchmark %s: %w", bench.Name, err)
	}
	if err := e.LoadProgram(bench.Program, LoadSegment); err != nil {
		return BenchmarkResult{}, fmt.Errorf("benchmark %s: %w", bench.Name, err)
	}
	if bench.Setup != nil {
		bench.Setup(e)
	}

	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	cpu := e.CPU()
	start := time.Now()
	steps := uint64(0)
	for !cpu.Halted() {
		if steps >= h.config.MaxSteps {
			return result, fmt.Errorf("benchmark %s did not halt within %d steps",
				bench.Name, h.config.MaxSteps)
		}
		steps++

		switch e.Step().Tier {
		case emu.Tier1:
			result.Tier1Steps++
		case emu.Tier2:
			result.Tier2Steps++
		case emu.Tier3:
			result.Tier3Steps++
		}
	}
	result.WallTime = time.Since(start)

	snap := e.Snapshot()
	result.SimulatedCycles = snap.TotalCycles
	result.InstructionsRetired = snap.Instructions
	if snap.Instructions > 0 {
		result.CPI = float64(snap.TotalCycles) / float64(snap.Instructions)
	}
	result.Faults = snap.FaultCount
	result.ExitAX = snap.Regs[insts.RegAX]
	result.Halted = snap.Halted

	dc := cpu.DecodeCacheStats()
	result.DecodeCacheHits = dc.Hits
	result.DecodeCacheMisses = dc.Misses

	bc := cpu.BlockCacheStats()
	result.BlocksBuilt = bc.Built
	result.BlockExecutions = bc.Executions

	result.PrefetchFlushes = cpu.PrefetchStats().Flushes

	bus := e.Bus().Stats()
	result.BusReads = bus.Reads
	result.BusWrites = bus.Writes

	return result, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== XTSim Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Exit AX: %d (halted: %v)\n", r.ExitAX, r.Halted)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Tiers ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Fetch+Decode Steps:   %d\n", r.Tier1Steps)
		_, _ = fmt.Fprintf(h.config.Output, "  Decode Cache Steps:   %d\n", r.Tier2Steps)
		_, _ = fmt.Fprintf(h.config.Output, "  Block Steps:          %d\n", r.Tier3Steps)
		_, _ = fmt.Fprintf(h.config.Output, "  Decode Cache:         %d hits, %d misses\n",
			r.DecodeCacheHits, r.DecodeCacheMisses)
		_, _ = fmt.Fprintf(h.config.Output, "  Blocks:               %d built, %d executions\n",
			r.BlocksBuilt, r.BlockExecutions)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Bus ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Reads:  %d\n", r.BusReads)
		_, _ = fmt.Fprintf(h.config.Output, "  Writes: %d\n", r.BusWrites)
		_, _ = fmt.Fprintf(h.config.Output, "  Prefetch Flushes: %d\n", r.PrefetchFlushes)
		if r.Faults > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Faults: %d\n", r.Faults)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,tier1_steps,tier2_steps,tier3_steps,"+
			"dcache_hits,dcache_misses,blocks_built,block_executions,"+
			"bus_reads,bus_writes,prefetch_flushes,faults,exit_ax")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.Tier1Steps,
			r.Tier2Steps,
			r.Tier3Steps,
			r.DecodeCacheHits,
			r.DecodeCacheMisses,
			r.BlocksBuilt,
			r.BlockExecutions,
			r.BusReads,
			r.BusWrites,
			r.PrefetchFlushes,
			r.Faults,
			r.ExitAX,
		)
	}
}

// Helper functions for building 8088 programs

// BuildProgram concatenates instruction encodings into one image.
func BuildProgram(instrs ...[]byte) []byte {
	size := 0
	for _, inst := range instrs {
		size += len(inst)
	}
	program := make([]byte, 0, size)
	for _, inst := range instrs {
		program = append(program, inst...)
	}
	return program
}

// Instruction encoding helpers (16-bit register forms)

// EncodeMOVRegImm encodes MOV r16, imm16.
func EncodeMOVRegImm(reg uint8, imm uint16) []byte {
	return []byte{0xB8 + reg, byte(imm), byte(imm >> 8)}
}

// EncodeMOVRegReg encodes MOV r16, r16 (dst from src).
func EncodeMOVRegReg(dst, src uint8) []byte {
	return []byte{0x8B, 0xC0 | dst<<3 | src}
}

// EncodeADDRegReg encodes ADD r16, r16 (dst += src).
func EncodeADDRegReg(dst, src uint8) []byte {
	return []byte{0x01, 0xC0 | src<<3 | dst}
}

// EncodeADDAXImm encodes ADD AX, imm16.
func EncodeADDAXImm(imm uint16) []byte {
	return []byte{0x05, byte(imm), byte(imm >> 8)}
}

// EncodeMOVMemReg encodes MOV [BX], r16.
func EncodeMOVMemReg(src uint8) []byte {
	return []byte{0x89, 0x07 | src<<3}
}

// EncodeMOVRegMem encodes MOV r16, [BX].
func EncodeMOVRegMem(dst uint8) []byte {
	return []byte{0x8B, 0x07 | dst<<3}
}

// EncodeADDRegMem encodes ADD r16, [BX].
func EncodeADDRegMem(dst uint8) []byte {
	return []byte{0x03, 0x07 | dst<<3}
}

// EncodeINCReg encodes INC r16.
func EncodeINCReg(reg uint8) []byte {
	return []byte{0x40 + reg}
}

// EncodeDECReg encodes DEC r16.
func EncodeDECReg(reg uint8) []byte {
	return []byte{0x48 + reg}
}

// EncodeLOOP encodes LOOP rel8.
func EncodeLOOP(disp int8) []byte {
	return []byte{0xE2, byte(disp)}
}

// EncodeJNZ encodes JNZ rel8.
func EncodeJNZ(disp int8) []byte {
	return []byte{0x75, byte(disp)}
}

// EncodeJMPShort encodes JMP rel8.
func EncodeJMPShort(disp int8) []byte {
	return []byte{0xEB, byte(disp)}
}

// EncodeCALLNear encodes CALL rel16.
func EncodeCALLNear(disp int16) []byte {
	return []byte{0xE8, byte(disp), byte(disp >> 8)}
}

// EncodeRET encodes near RET.
func EncodeRET() []byte {
	return []byte{0xC3}
}

// EncodeHLT encodes HLT.
func EncodeHLT() []byte {
	return []byte{0xF4}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "0.1.0",
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
