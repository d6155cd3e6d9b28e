//go:build linux || windows

package vmthook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemPlatform_Alloc(t *testing.T) {
	p := SystemPlatform()

	mem, err := p.Alloc(gatewaySize(16))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(mem), 16+MaxJumpSize)
	require.Zero(t, uintptrOf(mem)%pageSize)

	copy(mem, sampleCode)
	require.Equal(t, sampleCode, readMemory(uintptrOf(mem), len(sampleCode)))

	require.NoError(t, p.Free(mem))
}

func TestSystemPlatform_Protect(t *testing.T) {
	p := SystemPlatform()

	mem, err := p.Alloc(int(pageSize))
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Free(mem)) }()
	addr := uintptrOf(mem) + 100

	old, err := p.Unprotect(addr, 12)
	require.NoError(t, err)
	require.Equal(t, protReadWriteExec, old)

	require.NoError(t, p.Reprotect(addr, 12, protReadExec))
	old, err = p.Unprotect(addr, 12)
	require.NoError(t, err)
	require.Equal(t, protReadExec, old)

	// writable again after Unprotect
	mem[100] = 0x90
	require.NoError(t, p.Reprotect(addr, 12, old))
	require.Equal(t, byte(0x90), mem[100])
}
