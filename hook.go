package vmthook

import (
	"runtime"
	"unsafe"

	"github.com/davecgh/go-spew/spew"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"

	"github.com/brahma-adshonor/vmthook/logger"
)

const logSrc = "vmthook"

// State is the lifecycle state of a Hook.
type State string

// states about hook
const (
	StateUninstalled State = "uninstalled" // initial, or after Restore
	StateInstalled   State = "installed"   // target jumps to detour
	StateFailed      State = "failed"      // terminal, build a new Hook
)

// events about hook
const (
	eventInstall = "install"
	eventRestore = "restore"
	eventFail    = "fail"
)

// Target describes the hooked function. Object is borrowed and nil when the
// hook was created from a raw address.
type Target struct {
	Object unsafe.Pointer
	Slot   int
	Addr   uintptr
}

// Options contains the parameters of a Hook.
type Options struct {
	// PatchLen is the number of target bytes overwritten by the patch. It must
	// end on an instruction boundary of the target's prologue and must not cut
	// relative addressed instructions; neither is checked. It must hold the
	// jump of the native encoding (5 bytes on 386, 12 on amd64).
	PatchLen int

	// Platform defaults to SystemPlatform().
	Platform Platform

	// Logger defaults to logger.Discard.
	Logger logger.Logger

	// DeferRelease keeps the gateway alive after Restore until Release is
	// called, for callers that must first make sure no thread still runs
	// inside it.
	DeferRelease bool
}

// Hook redirects a target function to a detour and keeps the original
// callable through a gateway. It is the only owner of the gateway and the
// only writer of the target's bytes. A Hook is not safe for concurrent
// Install, Restore and Release; the target itself may be called from any
// thread at any time.
//
// The jump sequence overwrites RAX on amd64, both at the target entry and at
// the end of the gateway. Patching is not atomic: a thread entering the
// target while Install or Restore runs may execute a torn instruction stream.
// Restore needs the caller to quiesce the target first.
type Hook struct {
	target       Target
	detour       uintptr
	patchLen     int
	enc          Encoding
	platform     Platform
	logger       logger.Logger
	deferRelease bool

	gateway *gateway
	patch   *patchRecord
	patched bool // target bytes currently hold the patch
	fsm     *fsm.FSM
}

// New is used to create a hook that redirects the function at target to
// detour. Nothing is written until Install.
func New(target, detour uintptr, opts Options) (*Hook, error) {
	if target == 0 {
		return nil, errors.WithMessage(ErrResolution, "target address is nil")
	}
	if detour == 0 {
		return nil, errors.WithMessage(ErrResolution, "detour address is nil")
	}
	if opts.PatchLen <= 0 {
		return nil, errors.WithMessagef(ErrPatchLength, "%d", opts.PatchLen)
	}
	h := &Hook{
		target:       Target{Slot: -1, Addr: target},
		detour:       detour,
		patchLen:     opts.PatchLen,
		enc:          nativeEncoding,
		platform:     opts.Platform,
		logger:       opts.Logger,
		deferRelease: opts.DeferRelease,
	}
	if h.platform == nil {
		h.platform = SystemPlatform()
	}
	if h.logger == nil {
		h.logger = logger.Discard
	}
	events := fsm.Events{
		{Name: eventInstall, Src: []string{string(StateUninstalled)}, Dst: string(StateInstalled)},
		{Name: eventRestore, Src: []string{string(StateInstalled)}, Dst: string(StateUninstalled)},
		{Name: eventFail, Src: []string{string(StateUninstalled), string(StateInstalled)}, Dst: string(StateFailed)},
	}
	callbacks := fsm.Callbacks{
		"enter_state": func(e *fsm.Event) {
			h.logger.Printf(logger.Debug, logSrc, "hook at 0x%X: %s -> %s", h.target.Addr, e.Src, e.Dst)
		},
	}
	h.fsm = fsm.NewFSM(string(StateUninstalled), events, callbacks)
	return h, nil
}

// NewVTableHook is used to create a hook on slot of the virtual table of obj.
func NewVTableHook(obj unsafe.Pointer, slot int, detour uintptr, opts Options) (*Hook, error) {
	fn, err := LocateSlot(obj, slot)
	if err != nil {
		return nil, err
	}
	h, err := New(fn, detour, opts)
	if err != nil {
		return nil, err
	}
	h.target.Object = obj
	h.target.Slot = slot
	return h, nil
}

// Install builds the gateway and patches the target entry. It returns the
// gateway address, call it to run the original function.
func (h *Hook) Install() (uintptr, error) {
	switch h.State() {
	case StateInstalled:
		return 0, errors.WithMessagef(ErrAlreadyInstalled, "target 0x%X", h.target.Addr)
	case StateFailed:
		return 0, errors.WithMessagef(ErrFailed, "target 0x%X", h.target.Addr)
	}
	if h.gateway != nil {
		return 0, errors.WithMessagef(ErrGatewayInUse, "gateway 0x%X", h.gateway.addr())
	}
	if h.enc == EncodingNone {
		return 0, errors.WithMessage(ErrUnsupportedArch, runtime.GOARCH)
	}
	if h.patchLen < h.enc.Size() {
		const format = "%d bytes can not hold a %d bytes %s jump"
		return 0, errors.WithMessagef(ErrPatchLength, format, h.patchLen, h.enc.Size(), h.enc)
	}
	gw, err := newGateway(h.platform, h.enc, h.target.Addr, h.patchLen)
	if err != nil {
		h.fail(err)
		return 0, err
	}
	patch := newPatchRecord(h.target.Addr, h.enc.patchCode(h.target.Addr, h.detour, h.patchLen))
	err = patch.apply(h.platform)
	if err != nil {
		// the patch never became visible, so nothing can run in the gateway
		if e := gw.release(); e != nil {
			h.logger.Printf(logger.Warning, logSrc, "%s", e)
		}
		h.fail(err)
		return 0, err
	}
	h.gateway = gw
	h.patch = patch
	h.patched = true
	h.transit(eventInstall)
	h.logger.Printf(logger.Info, logSrc, "install hook at 0x%X, detour 0x%X, gateway 0x%X",
		h.target.Addr, h.detour, gw.addr())
	h.logger.Printf(logger.Debug, logSrc, "original bytes:\n%spatch:\n%sgateway:\n%s",
		spew.Sdump(patch.original), spew.Sdump(patch.code), dumpCode(gw.code(), h.enc.Mode()))
	return gw.addr(), nil
}

// Restore writes the original bytes back. Restoring an uninstalled hook does
// nothing. The gateway is released unless Options.DeferRelease is set.
func (h *Hook) Restore() error {
	switch h.State() {
	case StateUninstalled:
		return nil
	case StateFailed:
		return errors.WithMessagef(ErrFailed, "target 0x%X", h.target.Addr)
	}
	if !h.patch.intact() {
		h.logger.Printf(logger.Warning, logSrc, "target 0x%X was modified after install:\n%s",
			h.target.Addr, spew.Sdump(readMemory(h.target.Addr, h.patchLen)))
	}
	written, err := h.patch.revert(h.platform)
	if written {
		h.patched = false
	}
	if err != nil {
		h.fail(err)
		return err
	}
	h.transit(eventRestore)
	h.logger.Printf(logger.Info, logSrc, "restore hook at 0x%X", h.target.Addr)
	if h.deferRelease {
		return nil
	}
	return h.Release()
}

// Release frees the gateway kept by a deferred Restore. The caller must
// guarantee that no thread is executing inside the gateway.
func (h *Hook) Release() error {
	if h.patched {
		return errors.WithMessagef(ErrAlreadyInstalled, "gateway 0x%X is reachable from target", h.gateway.addr())
	}
	if h.gateway == nil {
		return errors.WithMessagef(ErrAlreadyUninstalled, "target 0x%X has no gateway", h.target.Addr)
	}
	addr := h.gateway.addr()
	err := h.gateway.release()
	h.gateway = nil
	if err != nil {
		return err
	}
	h.logger.Printf(logger.Debug, logSrc, "release gateway 0x%X", addr)
	return nil
}

// Gateway returns the address of the gateway, or 0 when none is held.
func (h *Hook) Gateway() uintptr {
	return h.gateway.addr()
}

// State returns the current lifecycle state.
func (h *Hook) State() State {
	return State(h.fsm.Current())
}

// Target returns the hooked function.
func (h *Hook) Target() Target {
	return h.target
}

// Detour returns the detour address.
func (h *Hook) Detour() uintptr {
	return h.detour
}

// PatchLen returns the size of the patch window.
func (h *Hook) PatchLen() int {
	return h.patchLen
}

// OriginalBytes returns a copy of the target bytes saved by the last Install.
func (h *Hook) OriginalBytes() []byte {
	if h.patch == nil {
		return nil
	}
	return append([]byte(nil), h.patch.original...)
}

func (h *Hook) transit(event string) {
	err := h.fsm.Event(event)
	if err != nil {
		h.logger.Printf(logger.Error, logSrc, "hook at 0x%X: %s", h.target.Addr, err)
	}
}

func (h *Hook) fail(cause error) {
	h.logger.Printf(logger.Error, logSrc, "hook at 0x%X failed: %s", h.target.Addr, cause)
	h.transit(eventFail)
}
