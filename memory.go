package vmthook

import (
	"os"
	"unsafe"
)

// Protection is an opaque, OS native set of page protection flags
// (PROT_* on unix, PAGE_* on windows) as returned by Unprotect.
type Protection uint32

// Allocator hands out executable memory for gateways.
type Allocator interface {
	// Alloc returns at least size bytes of read, write and execute memory.
	Alloc(size int) ([]byte, error)
	// Free releases memory returned by Alloc.
	Free(mem []byte) error
}

// Protector changes the protection of existing code pages.
type Protector interface {
	// Unprotect makes [addr, addr+size) writable and executable and
	// returns the protection it had before.
	Unprotect(addr uintptr, size int) (Protection, error)
	// Reprotect applies a protection previously returned by Unprotect.
	Reprotect(addr uintptr, size int, prot Protection) error
}

// Platform is the virtual memory interface consumed by a Hook.
type Platform interface {
	Allocator
	Protector
}

// SystemPlatform returns the Platform backed by the operating system.
func SystemPlatform() Platform {
	return systemPlatform{}
}

type systemPlatform struct{}

var pageSize = uintptr(os.Getpagesize())

func pageAddr(addr uintptr) uintptr {
	return addr &^ (pageSize - 1)
}

// pageSpan returns the page aligned region covering [addr, addr+size).
func pageSpan(addr uintptr, size int) (uintptr, uintptr) {
	start := pageAddr(addr)
	end := pageAddr(addr+uintptr(size)+pageSize-1)
	return start, end - start
}

// gatewaySize rounds the room needed for patchLen up to whole pages.
func gatewaySize(patchLen int) int {
	n := uintptr(patchLen + MaxJumpSize)
	return int((n + pageSize - 1) &^ (pageSize - 1))
}

func makeSliceFromPointer(p uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), length)
}

// readMemory copies length bytes starting at p.
func readMemory(p uintptr, length int) []byte {
	data := make([]byte, length)
	copy(data, makeSliceFromPointer(p, length))
	return data
}
