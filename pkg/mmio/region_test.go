package mmio

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegion(t *testing.T) {
	r := NewRegion(0x1000, make([]byte, 16))
	require.NoError(t, r.Write32(0x1004, 0xdeadbeef))
	v, err := r.Read32(0x1004)
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), v)
	b, err := r.Read8(0x1004)
	require.NoError(t, err)
	require.Equal(t, byte(0xef), b)

	_, err = r.Read32(0x100e)
	var accessErr *AccessError
	require.True(t, errors.As(err, &accessErr))
	require.Equal(t, uint64(0x100e), accessErr.Addr)
	_, err = r.Read8(0xfff)
	require.Error(t, err)
	_, err = r.Read8(0x1010)
	require.Error(t, err)

	require.False(t, r.Contains(0xffffffffffffffff, 4))
	require.False(t, r.Contains(0x1008, -1))
	require.True(t, r.Contains(0x1010, 0))
	_, err = r.Read32(0xfffffffffffffffe)
	require.True(t, errors.As(err, &accessErr))

	buf := make([]byte, 8)
	_, err = NewRegion(0, make([]byte, 64)).ReadMemory(0xffffffffffffffff, buf)
	require.True(t, errors.As(err, &accessErr))
	n, err := r.ReadMemory(0x100c, buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.NoError(t, r.Close())
}

func TestMapShared(t *testing.T) {
	dir, err := ioutil.TempDir("", "mmio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "regs")
	require.NoError(t, ioutil.WriteFile(path, make([]byte, 4096), 0644))

	w, err := MapWritable(path, 0, 0x8000, 4096)
	require.NoError(t, err)
	defer w.Close()
	r, err := Map(path, 0, 0x8000, 4096)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, w.Write32(0x8010, 42))
	v, err := r.Read32(0x8010)
	require.NoError(t, err)
	require.Equal(t, uint32(42), v)
	require.Equal(t, 4096, r.Size())
}
