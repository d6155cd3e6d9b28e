package vmthook

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

//go:noinline
func sampleAdd(a, b int) int {
	return a*10 + b
}

func TestBindFunc(t *testing.T) {
	addr := FuncAddr(sampleAdd)
	require.NotZero(t, addr)

	var fn func(int, int) int
	err := BindFunc(&fn, addr)
	require.NoError(t, err)
	require.Equal(t, 42, fn(4, 2))
}

func TestBindFunc_Invalid(t *testing.T) {
	var fn func()
	var n int

	err := BindFunc(fn, 0x1000)
	require.True(t, errors.Is(err, ErrInputType), err)

	err = BindFunc(&n, 0x1000)
	require.True(t, errors.Is(err, ErrInputType), err)

	err = BindFunc((*func())(nil), 0x1000)
	require.True(t, errors.Is(err, ErrInputType), err)

	err = BindFunc(&fn, 0)
	require.True(t, errors.Is(err, ErrResolution), err)
	require.Nil(t, fn)
}

func TestFuncAddr(t *testing.T) {
	require.Zero(t, FuncAddr(42))
	require.Zero(t, FuncAddr(nil))
	require.Equal(t, FuncAddr(sampleAdd), FuncAddr(sampleAdd))
}
