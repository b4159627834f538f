// Package insts provides Bifrost instruction-set definitions and the
// per-unit instruction word codec.
//
// This package describes the vocabulary shared by the packer and the
// disassembler. It covers:
//   - Clause header enums: flow control, message types, flush-to-zero modes
//   - The register port model: slot operations and the register mode table
//   - Packed source selectors and PC-relative constant modifiers
//   - FAU (fixed address uniform) index helpers
//   - The FMA (23-bit) and ADD (20-bit) instruction words
//
// Usage:
//
//	word, err := insts.EncodeFMA(insts.OpFmaFMA, []insts.PackedSrc{0, 1, 4}, 0)
//	inst := insts.NewDecoder().DecodeFMA(word)
//	fmt.Printf("Op: %v, Srcs: %v\n", inst.Op, inst.Srcs)
package insts
