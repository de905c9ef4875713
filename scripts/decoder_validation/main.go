// Validate decode cost - measures allocation rates for raw decode against
// the cached execution tiers
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/xtsim/emu"
	"github.com/sarchlab/xtsim/insts"
	"github.com/sarchlab/xtsim/timing"
)

func main() {
	decoder := insts.NewDecoder(timing.DefaultTable())

	// Four encodings covering immediate, register, memory, and branch forms
	windows := [][]byte{
		{0xB8, 0x2A, 0x00, 0x00, 0x00, 0x00}, // MOV AX, 42
		{0x01, 0xD8, 0x00, 0x00, 0x00, 0x00}, // ADD AX, BX
		{0x8B, 0x07, 0x00, 0x00, 0x00, 0x00}, // MOV AX, [BX]
		{0x75, 0xFE, 0x00, 0x00, 0x00, 0x00}, // JNZ rel8
	}

	// Warm up
	for i := 0; i < 1000; i++ {
		_, _ = decoder.Decode(windows[0], insts.SegNone)
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	for i := 0; i < iterations; i++ {
		for _, w := range windows {
			_, _ = decoder.Decode(w, insts.SegNone)
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(windows)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Raw Decode Results:\n")
	fmt.Printf("========================================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))

	measureCachedStepping()
}

// measureCachedStepping runs a hot loop and reports allocations per step.
// Once the decode cache and block tier warm up, steps reuse the decoded
// instructions instead of allocating new ones.
func measureCachedStepping() {
	e, err := emu.NewEmulator()
	if err != nil {
		fmt.Printf("emulator creation failed: %v\n", err)
		return
	}

	program := []byte{
		0xB9, 0x60, 0xEA, // MOV CX, 60000
		0x40,       // INC AX
		0xE2, 0xFD, // LOOP -3
		0xF4, // HLT
	}
	if err := e.LoadProgram(program, 0x0100); err != nil {
		fmt.Printf("program load failed: %v\n", err)
		return
	}

	// Warm the tiers before measuring; by 1000 steps the loop body has
	// promoted into a block.
	for i := 0; i < 1000; i++ {
		e.Step()
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	steps := 50000
	start := time.Now()
	for i := 0; i < steps && !e.CPU().Halted(); i++ {
		e.Step()
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	allocations := m2.Mallocs - m1.Mallocs

	fmt.Printf("\nCached Stepping Results:\n")
	fmt.Printf("========================================\n")
	fmt.Printf("Steps: %d\n", steps)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Steps per second: %.0f\n", float64(steps)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocations per step: %.3f\n", float64(allocations)/float64(steps))

	if allocations == 0 {
		fmt.Printf("\n✅ SUCCESS: Zero allocations detected! The cached tiers are allocation-free.\n")
	} else if float64(allocations)/float64(steps) < 0.1 {
		fmt.Printf("\n✅ GOOD: Low allocation rate (< 0.1 per step)\n")
	} else {
		fmt.Printf("\n⚠️  WARNING: High allocation rate detected\n")
	}
}
