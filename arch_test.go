package vmthook

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func TestEncoding_Rel32(t *testing.T) {
	code := EncodingRel32.Encode(100, 150)
	require.Equal(t, []byte{0xe9, 0x2d, 0x00, 0x00, 0x00}, code)

	code = EncodingRel32.Encode(0x1000, 0x800)
	require.Equal(t, []byte{0xe9, 0xfb, 0xf7, 0xff, 0xff}, code)

	// wraps around the 32 bit address space
	code = EncodingRel32.Encode(0xfffffff0, 0x10)
	require.Equal(t, []byte{0xe9, 0x1b, 0x00, 0x00, 0x00}, code)

	inst, err := x86asm.Decode(EncodingRel32.Encode(0x401000, 0x402000), 32)
	require.NoError(t, err)
	require.Equal(t, x86asm.JMP, inst.Op)
	require.Equal(t, x86asm.Rel(0xffb), inst.Args[0])
	require.Equal(t, rel32JumpSize, inst.Len)
}

func TestEncoding_Abs64(t *testing.T) {
	code := EncodingAbs64.Encode(0x1000, 0x1122334455667788)
	expected := []byte{
		0x48, 0xb8, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11,
		0xff, 0xe0,
	}
	require.Equal(t, expected, code)

	// independent of the source address
	require.Equal(t, code, EncodingAbs64.Encode(0x7fff00000000, 0x1122334455667788))

	mov, err := x86asm.Decode(code, 64)
	require.NoError(t, err)
	require.Equal(t, x86asm.MOV, mov.Op)
	require.Equal(t, x86asm.RAX, mov.Args[0])
	require.Equal(t, x86asm.Imm(0x1122334455667788), mov.Args[1])
	require.Equal(t, 10, mov.Len)

	jmp, err := x86asm.Decode(code[mov.Len:], 64)
	require.NoError(t, err)
	require.Equal(t, x86asm.JMP, jmp.Op)
	require.Equal(t, x86asm.RAX, jmp.Args[0])
	require.Equal(t, abs64JumpSize, mov.Len+jmp.Len)
}

func TestEncoding_None(t *testing.T) {
	assert.Equal(t, 0, EncodingNone.Size())
	assert.Equal(t, 0, EncodingNone.Mode())
	assert.Equal(t, "none", EncodingNone.String())
	assert.Panics(t, func() { EncodingNone.Encode(1, 2) })
}

func TestEncoding_Properties(t *testing.T) {
	assert.Equal(t, "rel32", EncodingRel32.String())
	assert.Equal(t, 32, EncodingRel32.Mode())
	assert.Equal(t, "abs64", EncodingAbs64.String())
	assert.Equal(t, 64, EncodingAbs64.Mode())

	for _, enc := range []Encoding{EncodingRel32, EncodingAbs64} {
		assert.Len(t, enc.Encode(0x1000, 0x2000), enc.Size())
		assert.LessOrEqual(t, enc.Size(), MaxJumpSize)
	}
}

func TestEncoding_PatchCode(t *testing.T) {
	for _, enc := range []Encoding{EncodingRel32, EncodingAbs64} {
		t.Run(enc.String(), func(t *testing.T) {
			code := enc.patchCode(0x1000, 0x2000, 16)
			require.Len(t, code, 16)
			require.Equal(t, enc.Encode(0x1000, 0x2000), code[:enc.Size()])
			require.Equal(t, bytes.Repeat([]byte{nop}, 16-enc.Size()), code[enc.Size():])

			code = enc.patchCode(0x1000, 0x2000, enc.Size())
			require.Equal(t, enc.Encode(0x1000, 0x2000), code)
		})
	}
}
