//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package vmthook

import (
	"golang.org/x/sys/unix"
)

// without procfs code pages are assumed to be read and execute
func queryProtection(uintptr) (Protection, error) {
	return unix.PROT_READ | unix.PROT_EXEC, nil
}
