package vmthook

import (
	"unsafe"

	"github.com/pkg/errors"
)

// gateway is the executable stub that runs the saved prologue of a target
// and jumps back behind the patch window. The Hook that built it is its only
// owner.
type gateway struct {
	mem   []byte
	alloc Allocator
	size  int // prologue + jump back
}

// newGateway allocates executable memory and builds the stub for target.
// Nothing is written to target.
func newGateway(alloc Allocator, enc Encoding, target uintptr, patchLen int) (*gateway, error) {
	mem, err := alloc.Alloc(gatewaySize(patchLen))
	if err != nil {
		return nil, newError(ErrAllocation, err)
	}
	if len(mem) < patchLen+enc.Size() {
		_ = alloc.Free(mem)
		return nil, errors.WithMessagef(ErrAllocation, "got %d bytes, need %d", len(mem), patchLen+enc.Size())
	}
	gw := &gateway{mem: mem, alloc: alloc}
	gw.build(enc, target, patchLen)
	return gw, nil
}

// build copies the prologue and appends the jump to target+patchLen.
func (gw *gateway) build(enc Encoding, target uintptr, patchLen int) {
	copy(gw.mem, makeSliceFromPointer(target, patchLen))
	back := enc.Encode(gw.addr()+uintptr(patchLen), target+uintptr(patchLen))
	copy(gw.mem[patchLen:], back)
	gw.size = patchLen + len(back)
}

func (gw *gateway) addr() uintptr {
	if gw == nil || gw.mem == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(&gw.mem[0]))
}

// code returns a copy of the generated stub.
func (gw *gateway) code() []byte {
	if gw == nil || gw.mem == nil {
		return nil
	}
	return append([]byte(nil), gw.mem[:gw.size]...)
}

// release frees the memory. Subsequent calls do nothing.
func (gw *gateway) release() error {
	if gw.mem == nil {
		return nil
	}
	mem := gw.mem
	gw.mem = nil
	err := gw.alloc.Free(mem)
	if err != nil {
		return errors.WithMessage(err, "failed to release gateway")
	}
	return nil
}
