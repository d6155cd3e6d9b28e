package vmthook

import (
	"golang.org/x/sys/unix"
)

const (
	protReadWriteExec = Protection(unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC)
	protReadExec      = Protection(unix.PROT_READ | unix.PROT_EXEC)
)
