package vmthook

import (
	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// queryProtection reads the protection of the mapping that contains addr
// from /proc/self/maps. A range spanning mappings with different flags gets
// the flags of the first one back on Reprotect.
func queryProtection(addr uintptr) (Protection, error) {
	self, err := procfs.Self()
	if err != nil {
		return 0, errors.Wrap(err, "failed to open procfs")
	}
	maps, err := self.ProcMaps()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read memory maps")
	}
	for _, m := range maps {
		if addr < m.StartAddr || addr >= m.EndAddr {
			continue
		}
		var prot Protection
		if m.Perms.Read {
			prot |= unix.PROT_READ
		}
		if m.Perms.Write {
			prot |= unix.PROT_WRITE
		}
		if m.Perms.Execute {
			prot |= unix.PROT_EXEC
		}
		return prot, nil
	}
	return 0, errors.Errorf("address 0x%X is not mapped", addr)
}
