package vmthook

import (
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/pkg/errors"
)

// IUnknown slots, every COM interface starts with them.
const (
	SlotQueryInterface = 0
	SlotAddRef         = 1
	SlotRelease        = 2
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// VTable returns the dispatch table pointer stored in the first word of obj.
func VTable(obj unsafe.Pointer) (uintptr, error) {
	if obj == nil {
		return 0, errors.WithMessage(ErrResolution, "object pointer is nil")
	}
	table := *(*uintptr)(obj)
	if table == 0 {
		return 0, errors.WithMessage(ErrResolution, "virtual table pointer is nil")
	}
	return table, nil
}

// LocateSlot returns the function pointer at index slot of the virtual table
// of obj. The table size is unknown, an out of range slot is caller error.
func LocateSlot(obj unsafe.Pointer, slot int) (uintptr, error) {
	if slot < 0 {
		return 0, errors.WithMessagef(ErrResolution, "negative slot %d", slot)
	}
	table, err := VTable(obj)
	if err != nil {
		return 0, err
	}
	fn := *(*uintptr)(unsafe.Pointer(table + uintptr(slot)*ptrSize))
	if fn == 0 {
		return 0, errors.WithMessagef(ErrResolution, "slot %d of table 0x%X is nil", slot, table)
	}
	return fn, nil
}

// ReadVTable copies the first n entries of the virtual table of obj.
func ReadVTable(obj unsafe.Pointer, n int) ([]uintptr, error) {
	table, err := VTable(obj)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	entries := make([]uintptr, n)
	copy(entries, unsafe.Slice((*uintptr)(unsafe.Pointer(table)), n))
	return entries, nil
}

// LocateIUnknown resolves slot of a COM object.
func LocateIUnknown(unk *ole.IUnknown, slot int) (uintptr, error) {
	if unk == nil {
		return 0, errors.WithMessage(ErrResolution, "IUnknown is nil")
	}
	return LocateSlot(unsafe.Pointer(unk), slot)
}
