// Package main provides the entry point for XTSim.
// XTSim is a cycle-estimating Intel 8088 core simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/xtsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("XTSim - Intel 8088 Core Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: xtsim [options] <program.bin|program.hex|bios.rom>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -bios      Treat the image as a BIOS ROM and boot from the reset vector")
	fmt.Println("  -segment   Load segment for flat binaries")
	fmt.Println("  -cycles    Stop after this many simulated cycles")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/xtsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/xtsim' instead.")
	}
}
