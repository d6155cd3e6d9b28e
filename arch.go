package vmthook

import (
	"encoding/binary"
	"fmt"
)

// Encoding is a jump instruction encoding. Exactly one encoding is native to
// a build, selected by GOARCH in arch_*.go.
type Encoding uint8

const (
	// EncodingNone means the build has no jump encoding, hooking is unsupported.
	EncodingNone Encoding = iota
	// EncodingRel32 is "jmp rel32" for a 32 bit address space.
	EncodingRel32
	// EncodingAbs64 is "mov rax, imm64; jmp rax" for a 64 bit address space.
	EncodingAbs64
)

const (
	rel32JumpSize = 5
	abs64JumpSize = 12

	// MaxJumpSize is the room a gateway reserves after the copied prologue.
	MaxJumpSize = 14

	nop = 0x90
)

func (e Encoding) String() string {
	switch e {
	case EncodingRel32:
		return "rel32"
	case EncodingAbs64:
		return "abs64"
	default:
		return "none"
	}
}

// Size is the length of a jump in this encoding.
func (e Encoding) Size() int {
	switch e {
	case EncodingRel32:
		return rel32JumpSize
	case EncodingAbs64:
		return abs64JumpSize
	default:
		return 0
	}
}

// Mode is the x86asm decoding mode matching the encoding.
func (e Encoding) Mode() int {
	switch e {
	case EncodingRel32:
		return 32
	case EncodingAbs64:
		return 64
	default:
		return 0
	}
}

// Encode returns the jump placed at address from that transfers control to to.
func (e Encoding) Encode(from, to uintptr) []byte {
	switch e {
	case EncodingRel32:
		// wraps modulo 2^32, which is what the cpu does in a 32 bit space
		dis := uint32(to) - uint32(from) - rel32JumpSize
		code := make([]byte, rel32JumpSize)
		code[0] = 0xe9
		binary.LittleEndian.PutUint32(code[1:], dis)
		return code
	case EncodingAbs64:
		code := make([]byte, abs64JumpSize)
		code[0], code[1] = 0x48, 0xb8 // mov rax, imm64
		binary.LittleEndian.PutUint64(code[2:10], uint64(to))
		code[10], code[11] = 0xff, 0xe0 // jmp rax
		return code
	default:
		panic(fmt.Sprintf("vmthook: no jump encoding for %s", e))
	}
}

// NativeEncoding returns the encoding used by this build.
func NativeEncoding() Encoding {
	return nativeEncoding
}

// patchCode is the entry patch: the jump to detour padded with nop up to
// patchLen bytes.
func (e Encoding) patchCode(target, detour uintptr, patchLen int) []byte {
	code := make([]byte, patchLen)
	for i := range code {
		code[i] = nop
	}
	copy(code, e.Encode(target, detour))
	return code
}
