package vmthook

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"golang.org/x/arch/x86/x86asm"
)

// The helpers below look at machine code for callers that want to check a
// patch length offline. The hook engine itself never decodes the target.

// Disassemble renders code in Intel syntax, one instruction per line
// prefixed with its offset. Decoding stops at the first invalid instruction.
func Disassemble(code []byte, mode int) []string {
	var lines []string
	for off := 0; off < len(code); {
		inst, err := decode(code[off:], mode)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%04x  %-24s  (bad)", off, hex.EncodeToString(code[off:])))
			break
		}
		asm := x86asm.IntelSyntax(inst, uint64(off), nil)
		lines = append(lines, fmt.Sprintf("%04x  %-24s  %s", off, hex.EncodeToString(code[off:off+inst.Len]), asm))
		off += inst.Len
	}
	return lines
}

// InstructionBoundary returns the length of the shortest run of whole
// instructions at the start of code that is at least least bytes long.
func InstructionBoundary(code []byte, least, mode int) (int, error) {
	n := 0
	for n < least {
		if n >= len(code) {
			return 0, errors.Errorf("only %d of %d bytes decoded", n, least)
		}
		inst, err := decode(code[n:], mode)
		if err != nil {
			return 0, errors.WithMessagef(err, "offset %d", n)
		}
		n += inst.Len
	}
	return n, nil
}

// RelativeInstructions returns the offsets of instructions in code whose
// operands are relative to the instruction pointer. Such instructions break
// when copied into a gateway.
func RelativeInstructions(code []byte, mode int) ([]int, error) {
	var offsets []int
	for off := 0; off < len(code); {
		inst, err := decode(code[off:], mode)
		if err != nil {
			return offsets, errors.WithMessagef(err, "offset %d", off)
		}
		if isRelative(inst) {
			offsets = append(offsets, off)
		}
		off += inst.Len
	}
	return offsets, nil
}

func decode(code []byte, mode int) (x86asm.Inst, error) {
	inst, err := x86asm.Decode(code, mode)
	switch {
	case err == nil && inst.Op != 0:
		return inst, nil
	case err != nil && err != x86asm.ErrTruncated:
		return inst, errors.WithStack(err)
	}
	// x86asm reports most truncated and invalid input as a bare prefix
	return inst, undecodable(code, mode)
}

// maxInstLen is the architectural limit of an x86 instruction.
const maxInstLen = 15

func undecodable(code []byte, mode int) error {
	if len(code) == 1 && isPrefix(code[0], mode) {
		return errors.Errorf("dangling prefix 0x%02x", code[0])
	}
	padded := make([]byte, len(code)+maxInstLen)
	copy(padded, code)
	full, err := x86asm.Decode(padded, mode)
	if err == nil && full.Op != 0 && full.Len > len(code) {
		return errors.WithMessagef(x86asm.ErrTruncated, "need %d bytes, have %d", full.Len, len(code))
	}
	return errors.Errorf("invalid instruction 0x%s", hex.EncodeToString(code[:1]))
}

func isPrefix(b byte, mode int) bool {
	switch b {
	case 0x26, 0x2e, 0x36, 0x3e, 0x64, 0x65, 0x66, 0x67, 0xf0, 0xf2, 0xf3:
		return true
	}
	return mode == 64 && b&0xf0 == 0x40
}

func isRelative(inst x86asm.Inst) bool {
	for _, arg := range inst.Args {
		switch a := arg.(type) {
		case nil:
			return false
		case x86asm.Rel:
			return true
		case x86asm.Mem:
			if a.Base == x86asm.RIP {
				return true
			}
		}
	}
	return false
}

func dumpCode(code []byte, mode int) string {
	if mode == 0 {
		return spew.Sdump(code)
	}
	return strings.Join(Disassemble(code, mode), "\n") + "\n"
}
