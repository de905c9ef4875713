// Package main provides the entry point for XTSim.
// XTSim is a cycle-estimating Intel 8088 core simulator.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/insts"
	"github.com/sarchlab/xtsim/loader"
	"github.com/sarchlab/xtsim/timing"
)

var (
	biosMode    = flag.Bool("bios", false, "Treat the image as a BIOS ROM and boot from the reset vector")
	loadSegment = flag.Uint("segment", uint(loader.DefaultSegment), "Load segment for flat binaries")
	maxCycles   = flag.Uint64("cycles", 100_000_000, "Stop after this many simulated cycles")
	configPath  = flag.String("config", "", "Path to timing configuration JSON file")
	verbose     = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: xtsim [options] <program.bin|program.hex|bios.rom>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	timingConfig := timing.DefaultConfig()
	if *configPath != "" {
		var err error
		timingConfig, err = timing.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
	}

	emulator, err := emu.NewEmulator(emu.WithTimingConfig(timingConfig))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating emulator: %v\n", err)
		os.Exit(1)
	}

	if err := loadImage(emulator, programPath, *biosMode, uint16(*loadSegment)); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		cpu := emulator.CPU()
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Start: %04X:%04X\n", cpu.Segments[insts.SegCS], cpu.IP)
		fmt.Printf("Cycle budget: %d\n", *maxCycles)
	}

	tally := runCore(emulator, *maxCycles)
	printReport(emulator, programPath, tally)

	if tally.budgetHit {
		fmt.Fprintf(os.Stderr, "Warning: cycle budget exhausted before the core halted\n")
		os.Exit(2)
	}
}

// loadImage places a program or ROM image and points CS:IP at its entry.
// BIOS images boot from the reset vector; Intel HEX images honor their
// start-segment record; flat binaries start at segment:0.
func loadImage(e *emu.Emulator, path string, bios bool, segment uint16) error {
	if bios {
		image, err := loader.LoadROM(path)
		if err != nil {
			return err
		}
		return e.LoadBIOS(image)
	}

	if strings.EqualFold(filepath.Ext(path), ".hex") {
		return loadHexImage(e, path)
	}

	prog, err := loader.LoadFlat(path, segment)
	if err != nil {
		return err
	}
	return e.LoadProgram(prog.Data, prog.Segment)
}

// loadHexImage places every chunk of an Intel HEX image into RAM and
// resets the core to the image's start address.
func loadHexImage(e *emu.Emulator, path string) error {
	img, err := loader.LoadHex(path)
	if err != nil {
		return err
	}

	bus := e.Bus()
	for _, chunk := range img.Chunks {
		if err := bus.LoadRAM(chunk.Data, chunk.Addr); err != nil {
			return fmt.Errorf("failed to place hex chunk at 0x%05X: %w", chunk.Addr, err)
		}
	}

	e.Reset()
	cpu := e.CPU()
	if img.HasStart {
		cpu.Segments[insts.SegCS] = img.StartCS
		cpu.IP = img.StartIP
	} else {
		cpu.Segments[insts.SegCS] = loader.DefaultSegment
		cpu.IP = 0
	}
	return nil
}

// runTally counts the steps of one run by execution tier.
type runTally struct {
	tier1     uint64
	tier2     uint64
	tier3     uint64
	idle      uint64
	budgetHit bool
}

// runCore steps the emulator until the core halts or the cycle budget is
// spent.
func runCore(e *emu.Emulator, maxCycles uint64) runTally {
	var tally runTally
	cpu := e.CPU()

	for !cpu.Halted() {
		if cpu.TotalCycles >= maxCycles {
			tally.budgetHit = true
			break
		}
		switch e.Step().Tier {
		case emu.Tier1:
			tally.tier1++
		case emu.Tier2:
			tally.tier2++
		case emu.Tier3:
			tally.tier3++
		default:
			tally.idle++
		}
	}
	return tally
}

// printReport prints the run summary: retired work, cycle totals, the
// tier breakdown, and cache and bus event counts.
func printReport(e *emu.Emulator, programPath string, tally runTally) {
	snap := e.Snapshot()
	cpu := e.CPU()

	totalSteps := tally.tier1 + tally.tier2 + tally.tier3 + tally.idle
	if totalSteps == 0 {
		totalSteps = 1 // Avoid division by zero
	}

	cpi := 0.0
	if snap.Instructions > 0 {
		cpi = float64(snap.TotalCycles) / float64(snap.Instructions)
	}

	fmt.Printf("\n")
	fmt.Printf("Program: %s\n", programPath)
	fmt.Printf("Halted: %v\n", snap.Halted)
	fmt.Printf("Exit AX: 0x%04X\n", snap.Regs[insts.RegAX])
	fmt.Printf("Total Instructions: %d\n", snap.Instructions)
	fmt.Printf("Total Cycles: %d\n", snap.TotalCycles)
	fmt.Printf("CPI: %.2f\n", cpi)
	fmt.Printf("\n")
	fmt.Printf("Tier Breakdown:\n")
	fmt.Printf("  Decode:       %8d steps (%5.1f%%)\n",
		tally.tier1, 100.0*float64(tally.tier1)/float64(totalSteps))
	fmt.Printf("  Decode cache: %8d steps (%5.1f%%)\n",
		tally.tier2, 100.0*float64(tally.tier2)/float64(totalSteps))
	fmt.Printf("  Block:        %8d steps (%5.1f%%)\n",
		tally.tier3, 100.0*float64(tally.tier3)/float64(totalSteps))
	if tally.idle > 0 {
		fmt.Printf("  Idle:         %8d steps (%5.1f%%)\n",
			tally.idle, 100.0*float64(tally.idle)/float64(totalSteps))
	}

	decode := cpu.DecodeCacheStats()
	blocks := cpu.BlockCacheStats()
	prefetch := cpu.PrefetchStats()
	busStats := e.Bus().Stats()

	fmt.Printf("\n")
	fmt.Printf("Cache Events:\n")
	fmt.Printf("  Decode cache hits:   %d\n", decode.Hits)
	fmt.Printf("  Decode cache misses: %d\n", decode.Misses)
	fmt.Printf("  Blocks built:        %d\n", blocks.Built)
	fmt.Printf("  Block executions:    %d\n", blocks.Executions)
	fmt.Printf("  Prefetch flushes:    %d\n", prefetch.Flushes)
	fmt.Printf("\n")
	fmt.Printf("Bus Events:\n")
	fmt.Printf("  Reads:   %d\n", busStats.Reads)
	fmt.Printf("  Writes:  %d\n", busStats.Writes)
	fmt.Printf("  Dropped: %d\n", busStats.DroppedWrites)

	if snap.FaultCount > 0 {
		fmt.Printf("\nFaults: %d\n", snap.FaultCount)
	}
}
