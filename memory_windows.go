package vmthook

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

func (systemPlatform) Alloc(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to alloc %d bytes", size)
	}
	return makeSliceFromPointer(addr, size), nil
}

func (systemPlatform) Free(mem []byte) error {
	addr := uintptr(unsafe.Pointer(&mem[0]))
	err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
	if err != nil {
		return errors.Wrapf(err, "failed to free memory at 0x%X", addr)
	}
	return nil
}

func (systemPlatform) Unprotect(addr uintptr, size int) (Protection, error) {
	var old uint32
	err := windows.VirtualProtect(addr, uintptr(size), windows.PAGE_EXECUTE_READWRITE, &old)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to unprotect memory at 0x%X", addr)
	}
	return Protection(old), nil
}

func (systemPlatform) Reprotect(addr uintptr, size int, prot Protection) error {
	var old uint32
	err := windows.VirtualProtect(addr, uintptr(size), uint32(prot), &old)
	if err != nil {
		return errors.Wrapf(err, "failed to reprotect memory at 0x%X", addr)
	}
	return nil
}
