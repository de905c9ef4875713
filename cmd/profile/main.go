// Package main provides a profiling wrapper for XTSim to identify performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/insts"
	"github.com/sarchlab/xtsim/loader"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	maxSteps   = flag.Int("max-steps", 10_000_000, "max steps to execute (0 = unlimited)")
	segment    = flag.Uint("segment", uint(loader.DefaultSegment), "Load segment for the program image")
	topOpcodes = flag.Int("top", 10, "number of hottest opcodes to report")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := loader.LoadFlat(programPath, uint16(*segment))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	emulator, err := emu.NewEmulator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating emulator: %v\n", err)
		os.Exit(1)
	}
	if err := emulator.LoadProgram(prog.Data, prog.Segment); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Start: %04X:0000\n", prog.Segment)

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	steps, opcodeSteps := runProfile(emulator)

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	snap := emulator.Snapshot()

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Halted: %v\n", snap.Halted)
	fmt.Printf("Instructions executed: %d\n", snap.Instructions)
	fmt.Printf("Simulated cycles: %d\n", snap.TotalCycles)
	fmt.Printf("Host steps: %d\n", steps)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if snap.Instructions > 0 && elapsed.Seconds() > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(snap.Instructions)/elapsed.Seconds())
	}

	printHotOpcodes(opcodeSteps, *topOpcodes)
}

// runProfile steps the core, attributing each step to the lead byte at
// the step's entry address. Block steps land on the block's first opcode,
// the way a PC-sampling profiler attributes a straight-line run; REP and
// override prefixes show up under their prefix byte.
func runProfile(e *emu.Emulator) (uint64, map[byte]uint64) {
	cpu := e.CPU()
	bus := e.Bus()
	opcodeSteps := make(map[byte]uint64)

	var steps uint64
	for !cpu.Halted() {
		if *maxSteps > 0 && steps >= uint64(*maxSteps) {
			break
		}
		addr := uint32(cpu.Segments[insts.SegCS])<<4 + uint32(cpu.IP)
		opcodeSteps[bus.ReadByte(addr)]++
		e.Step()
		steps++
	}
	return steps, opcodeSteps
}

// printHotOpcodes prints the most frequently stepped lead bytes.
func printHotOpcodes(opcodeSteps map[byte]uint64, top int) {
	type opCount struct {
		op    byte
		count uint64
	}

	counts := make([]opCount, 0, len(opcodeSteps))
	var total uint64
	for op, n := range opcodeSteps {
		counts = append(counts, opCount{op, n})
		total += n
	}
	if total == 0 || top <= 0 {
		return
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].op < counts[j].op
	})
	if top > len(counts) {
		top = len(counts)
	}

	fmt.Printf("\nHottest lead opcodes:\n")
	for _, c := range counts[:top] {
		fmt.Printf("  0x%02X: %8d steps (%5.1f%%)\n",
			c.op, c.count, 100.0*float64(c.count)/float64(total))
	}
}
