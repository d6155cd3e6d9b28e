package vmthook

import (
	"github.com/pkg/errors"
)

// Errors returned by the hook engine. They are wrapped with context, test
// them with errors.Is.
var (
	// ErrResolution means a nil object, table or slot entry.
	ErrResolution = errors.New("failed to resolve target function")
	// ErrAllocation means executable memory for the gateway is unavailable.
	ErrAllocation = errors.New("failed to allocate executable memory")
	// ErrProtection means the OS rejected a memory protection change.
	ErrProtection = errors.New("failed to change memory protection")
	// ErrAlreadyInstalled means the hook is installed.
	ErrAlreadyInstalled = errors.New("hook already installed")
	// ErrAlreadyUninstalled means the hook holds nothing to release.
	ErrAlreadyUninstalled = errors.New("hook already uninstalled")
	// ErrFailed means the hook reached the failed state and can not be reused.
	ErrFailed = errors.New("hook is in failed state")
	// ErrGatewayInUse means a deferred gateway has not been released yet.
	ErrGatewayInUse = errors.New("gateway of previous install not released")
	// ErrPatchLength means the patch window can not hold the jump.
	ErrPatchLength = errors.New("invalid patch length")
	// ErrUnsupportedArch means no jump encoding exists for this build.
	ErrUnsupportedArch = errors.New("unsupported architecture")
	// ErrInputType means BindFunc got something other than a pointer to func.
	ErrInputType = errors.New("input is not a pointer to func")
	// ErrConfig means an invalid hook configuration.
	ErrConfig = errors.New("invalid hook config")
)

// kindError binds an OS level cause to one of the errors above.
type kindError struct {
	kind  error
	cause error
}

func newError(kind, cause error) error {
	return &kindError{kind: kind, cause: cause}
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}

// Cause is for errors.Cause of github.com/pkg/errors.
func (e *kindError) Cause() error {
	return e.cause
}
