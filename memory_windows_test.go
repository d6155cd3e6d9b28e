package vmthook

import (
	"golang.org/x/sys/windows"
)

const (
	protReadWriteExec = Protection(windows.PAGE_EXECUTE_READWRITE)
	protReadExec      = Protection(windows.PAGE_EXECUTE_READ)
)
