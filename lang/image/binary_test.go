package image_test

import (
	"bytes"
	"testing"

	"github.com/plume-lang/plume/lang/image"
	"github.com/plume-lang/plume/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestWriteReadImageRoundTrip(t *testing.T) {
	p := &image.Program{
		Libraries: []image.Library{
			{Name: "mathlib", IsStandard: true, NumFunctions: 2},
			{Name: "extras", IsStandard: false, NumFunctions: 1},
		},
		Constants: []machine.Value{
			machine.Int(-7),
			machine.Float(2.5),
			machine.NewStringFromString("hello, plume"),
		},
		Code: []machine.Instruction{
			{Op: machine.LoadConstant, Imm1: 0},
			{Op: machine.LoadConstant, Imm1: 1, Imm2: 2, Imm3: 3},
			{Op: machine.Halt},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, image.WriteImage(&buf, p))

	got, err := image.ReadImage(&buf)
	require.NoError(t, err)

	require.Equal(t, p.Libraries, got.Libraries)
	require.Equal(t, p.Code, got.Code)
	require.Len(t, got.Constants, len(p.Constants))
	require.Equal(t, p.Constants[0], got.Constants[0])
	require.Equal(t, p.Constants[1], got.Constants[1])
	require.Equal(t, p.Constants[2].(*machine.String).GoString(), got.Constants[2].(*machine.String).GoString())
}

func TestReadImageRejectsBadMagic(t *testing.T) {
	_, err := image.ReadImage(bytes.NewReader([]byte{1, 2, 3, 4}))
	require.Error(t, err)
}
