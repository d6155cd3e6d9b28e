//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package vmthook

import (
	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const protRWX = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC

func (systemPlatform) Alloc(size int) ([]byte, error) {
	m, err := mmap.MapRegion(nil, size, mmap.RDWR|mmap.EXEC, mmap.ANON, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map %d bytes", size)
	}
	return m, nil
}

func (systemPlatform) Free(mem []byte) error {
	m := mmap.MMap(mem)
	return errors.Wrap(m.Unmap(), "failed to unmap gateway")
}

func (systemPlatform) Unprotect(addr uintptr, size int) (Protection, error) {
	old, err := queryProtection(addr)
	if err != nil {
		return 0, err
	}
	err = mprotect(addr, size, protRWX)
	if err != nil {
		return 0, err
	}
	return old, nil
}

func (systemPlatform) Reprotect(addr uintptr, size int, prot Protection) error {
	return mprotect(addr, size, int(prot))
}

func mprotect(addr uintptr, size int, prot int) error {
	start, length := pageSpan(addr, size)
	err := unix.Mprotect(makeSliceFromPointer(start, int(length)), prot)
	if err != nil {
		return errors.Wrapf(err, "mprotect 0x%X+0x%X", start, length)
	}
	return nil
}
