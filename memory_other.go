//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package vmthook

import (
	"runtime"

	"github.com/pkg/errors"
)

func (systemPlatform) Alloc(int) ([]byte, error) {
	return nil, errors.Errorf("executable memory is not available on %s", runtime.GOOS)
}

func (systemPlatform) Free([]byte) error {
	return nil
}

func (systemPlatform) Unprotect(uintptr, int) (Protection, error) {
	return 0, errors.Errorf("memory protection is not available on %s", runtime.GOOS)
}

func (systemPlatform) Reprotect(uintptr, int, Protection) error {
	return errors.Errorf("memory protection is not available on %s", runtime.GOOS)
}
