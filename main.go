// Package main provides the entry point for bipack.
// bipack packs Bifrost GPU clauses and disassembles packed binaries.
//
// For the disassembler, use: go run ./cmd/bidis
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("bipack - Bifrost clause packer and disassembler")
	fmt.Println("")
	fmt.Println("Usage: bidis [options] --gpu <name>|--id <id> <shader.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -gpu       GPU name, e.g. G72")
	fmt.Println("  -id        Numeric GPU product ID")
	fmt.Println("  -v         Verbose output")
	fmt.Println("  -stats     Print an instruction fetch report")
	fmt.Println("  -config    Path to debug options JSON file")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/bidis' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/bidis' instead.")
	}
}
