package vmthook

import (
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

// funcval is the runtime layout a Go func value points to.
type funcval struct {
	fn uintptr
}

// BindFunc stores into *fnPtr a func value that calls the code at addr.
// Typically addr is a gateway and fnPtr belongs to a Go detour that wants
// to run the original function. The code must follow the Go calling
// convention of the func type, no check is made.
func BindFunc(fnPtr interface{}, addr uintptr) error {
	v := reflect.ValueOf(fnPtr)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Func {
		return errors.WithMessagef(ErrInputType, "%T", fnPtr)
	}
	if addr == 0 {
		return errors.WithMessage(ErrResolution, "code address is nil")
	}
	*(**funcval)(unsafe.Pointer(v.Pointer())) = &funcval{fn: addr}
	return nil
}

// FuncAddr returns the entry address of a Go function, usable as a detour.
func FuncAddr(fn interface{}) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return 0
	}
	return v.Pointer()
}
