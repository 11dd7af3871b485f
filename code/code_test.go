package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeAndReadOperands(t *testing.T) {
	tests := []struct {
		op        Opcode
		operands  []int
		bytesRead int
	}{
		{PushConstant, []int{65534}, 2},
		{LoadLocalVar, []int{255}, 1},
		{Jump, []int{16777214}, 3},
		{CaptureValue, []int{1, 42}, 2},
	}

	for _, tt := range tests {
		instruction := Make(tt.op, tt.operands...)
		def, err := Lookup(byte(tt.op))
		assert.NoError(t, err)

		operandsRead, n := ReadOperands(def, instruction[1:])
		assert.Equal(t, tt.bytesRead, n)
		assert.Equal(t, tt.operands, operandsRead)
	}
}

func TestInstructionsString(t *testing.T) {
	instructions := []Instructions{
		Make(PushConstant, 1),
		Make(PushConstant, 2),
		Make(Jump, 65535),
		Make(CallNative, 3),
	}

	var concatted Instructions
	for _, ins := range instructions {
		concatted = append(concatted, ins...)
	}

	expected := "0000 PushConstant 1\n0003 PushConstant 2\n0006 Jump 65535\n0010 CallNative 3\n"
	assert.Equal(t, expected, concatted.String())
}

func TestPutAndReadUint24(t *testing.T) {
	b := make([]byte, 3)
	PutUint24(b, 16777215)
	assert.Equal(t, uint32(16777215), ReadUint24(b))

	PutUint24(b, 0)
	assert.Equal(t, uint32(0), ReadUint24(b))
}
