// Package image implements the program image the machine package consumes
// (spec.md §6 "Program image (consumed, not produced)"): a flat
// instruction array, a constants pool, and a library manifest. The core VM
// never defines this file layout itself; image supplies both the
// disassembler/assembler pair used to build test programs by hand and a
// reference binary codec, adapted from the teacher repo's lang/compiler
// package (which plays the analogous role for its own bytecode).
package image

import "github.com/plume-lang/plume/lang/machine"

// Library describes one entry in the manifest a program image carries
// (spec.md §6): a name, whether it should be resolved against PLUME_PATH
// (`is_standard`), and how many function slots its native-call vector
// needs.
type Library struct {
	Name         string
	IsStandard   bool
	NumFunctions int
}

// Program is a fully assembled/deserialized image: code, constants and the
// library manifest, ready to be handed to machine.NewModule.
type Program struct {
	Code      []machine.Instruction
	Constants []machine.Value
	Libraries []Library
}

// LibFuncCounts extracts the per-library function-slot counts
// machine.NewModule needs to size its native-call cache.
func (p *Program) LibFuncCounts() []int {
	counts := make([]int, len(p.Libraries))
	for i, lib := range p.Libraries {
		counts[i] = lib.NumFunctions
	}
	return counts
}
