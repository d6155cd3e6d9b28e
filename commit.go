package vmthook

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

const wordSize = 8

// commit writes code to dst, narrowing the window in which a concurrent
// caller can run a half written entry point. Bytes past the aligned word
// that holds dst go first, with the widest aligned stores that fit. The
// word holding dst goes last, as a single atomic 8 byte store that merges
// code into the bytes already there. Instructions still straddle stores,
// so this is best effort, not atomic. dst must be writable.
func commit(dst uintptr, code []byte) {
	if len(code) == 0 {
		return
	}
	head := dst &^ (wordSize - 1)
	split := int(head + wordSize - dst)
	if split > len(code) {
		split = len(code)
	}
	if split < len(code) {
		storeAligned(dst+uintptr(split), code[split:])
	}
	storeMerged(head, int(dst-head), code[:split])
}

// storeMerged replaces part of the aligned word at addr, starting at off,
// with one atomic store.
func storeMerged(addr uintptr, off int, part []byte) {
	p := (*uint64)(unsafe.Pointer(addr))
	var word [wordSize]byte
	binary.LittleEndian.PutUint64(word[:], atomic.LoadUint64(p))
	copy(word[off:], part)
	atomic.StoreUint64(p, binary.LittleEndian.Uint64(word[:]))
}

// storeAligned writes code at dst with naturally aligned 8, 4, 2 and 1 byte
// stores, never touching memory outside [dst, dst+len(code)).
func storeAligned(dst uintptr, code []byte) {
	for len(code) > 0 {
		switch {
		case dst%8 == 0 && len(code) >= 8:
			atomic.StoreUint64((*uint64)(unsafe.Pointer(dst)), binary.LittleEndian.Uint64(code))
			dst, code = dst+8, code[8:]
		case dst%4 == 0 && len(code) >= 4:
			atomic.StoreUint32((*uint32)(unsafe.Pointer(dst)), binary.LittleEndian.Uint32(code))
			dst, code = dst+4, code[4:]
		case dst%2 == 0 && len(code) >= 2:
			*(*uint16)(unsafe.Pointer(dst)) = binary.LittleEndian.Uint16(code)
			dst, code = dst+2, code[2:]
		default:
			*(*byte)(unsafe.Pointer(dst)) = code[0]
			dst, code = dst+1, code[1:]
		}
	}
}
