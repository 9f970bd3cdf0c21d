package image_test

import (
	"testing"

	"github.com/plume-lang/plume/lang/image"
	"github.com/plume-lang/plume/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestAsmParsesLibrariesConstantsAndCode(t *testing.T) {
	src := []byte(`
program:
	loads:
		mathlib std
		extras
	constants:
		int    10
		float  1.5
		string "hi"
code:
	load_constant 0
	load_constant 1
	add
	halt
`)
	p, err := image.Asm(src)
	require.NoError(t, err)
	require.Len(t, p.Libraries, 2)
	require.Equal(t, image.Library{Name: "mathlib", IsStandard: true}, p.Libraries[0])
	require.Equal(t, image.Library{Name: "extras", IsStandard: false}, p.Libraries[1])
	require.Len(t, p.Constants, 3)
	require.Equal(t, machine.Int(10), p.Constants[0])
	require.Equal(t, machine.Float(1.5), p.Constants[1])
	require.Len(t, p.Code, 4)
	require.Equal(t, machine.Halt, p.Code[3].Op)
}

func TestAsmResolvesLabels(t *testing.T) {
	src := []byte(`
program:
	constants:
		int 0
code:
	L0:
	load_constant 0
	jump_else_rel @L1
	jump_rel @L0
	L1:
	halt
`)
	p, err := image.Asm(src)
	require.NoError(t, err)
	require.Len(t, p.Code, 4)
	// jump_else_rel is at index 1, L1 is at index 3: relative offset 2.
	require.Equal(t, int32(2), p.Code[1].Imm1)
	// jump_rel is at index 2, L0 is at index 0: relative offset -2.
	require.Equal(t, int32(-2), p.Code[2].Imm1)
}

func TestAsmUnknownOpcodeIsAnError(t *testing.T) {
	_, err := image.Asm([]byte("program:\ncode:\n\tnot_a_real_opcode\n"))
	require.Error(t, err)
}

func TestAsmUndefinedLabelIsAnError(t *testing.T) {
	_, err := image.Asm([]byte("program:\ncode:\n\tjump_rel @nope\n"))
	require.Error(t, err)
}

func TestDasmPrintsOpcodesOperandsAndConstants(t *testing.T) {
	p := &image.Program{
		Constants: []machine.Value{machine.Int(1)},
		Code: []machine.Instruction{
			{Op: machine.LoadConstant, Imm1: 0},
			{Op: machine.Halt},
		},
	}
	out := image.Dasm(p)
	require.Contains(t, string(out), "load_constant 0")
	require.Contains(t, string(out), "halt")
	require.Contains(t, string(out), "int 1")
}
