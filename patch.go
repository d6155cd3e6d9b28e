package vmthook

import (
	"bytes"

	"github.com/pkg/errors"
)

// patchRecord is everything needed to undo the entry point patch.
type patchRecord struct {
	addr     uintptr
	original []byte     // target bytes before the patch
	code     []byte     // bytes written over them
	prot     Protection // protection before the last write
}

func newPatchRecord(target uintptr, code []byte) *patchRecord {
	return &patchRecord{
		addr:     target,
		original: readMemory(target, len(code)),
		code:     code,
	}
}

// apply writes the patch. When the write happened but protection could not be
// restored, the original bytes are put back before the error is returned.
func (pr *patchRecord) apply(p Protector) error {
	written, err := pr.write(p, pr.code)
	if err == nil || !written {
		return err
	}
	// still writable, Reprotect is what failed
	commit(pr.addr, pr.original)
	if e := p.Reprotect(pr.addr, len(pr.original), pr.prot); e != nil {
		return errors.WithMessagef(err, "rolled back patch, protection left at RWX (%s)", e)
	}
	return errors.WithMessage(err, "rolled back patch")
}

// revert writes the original bytes back. written reports whether they reached
// the target.
func (pr *patchRecord) revert(p Protector) (written bool, err error) {
	return pr.write(p, pr.original)
}

func (pr *patchRecord) write(p Protector, data []byte) (bool, error) {
	old, err := p.Unprotect(pr.addr, len(data))
	if err != nil {
		return false, newError(ErrProtection, err)
	}
	pr.prot = old
	commit(pr.addr, data)
	err = p.Reprotect(pr.addr, len(data), old)
	if err != nil {
		return true, newError(ErrProtection, err)
	}
	return true, nil
}

// intact reports whether the target still holds the bytes the patch wrote.
func (pr *patchRecord) intact() bool {
	return bytes.Equal(readMemory(pr.addr, len(pr.code)), pr.code)
}
