package capture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer(4)
	require.Equal(t, 4, b.Cap())
	for _, c := range []byte("abc") {
		require.NoError(t, b.Push(c))
	}
	require.True(t, errors.Is(b.Push('d'), ErrBufferFull))
	require.True(t, errors.Is(b.Push('e'), ErrBufferFull))
	require.Equal(t, 2, b.Dropped())
	require.False(t, b.Sealed())

	b.Seal()
	b.Seal()
	require.True(t, b.Sealed())
	require.Equal(t, []byte("abc"), b.Bytes())
	require.Equal(t, []byte{'a', 'b', 'c', byte(End)}, b.Raw())
	require.Equal(t, 3, b.Len())
	require.True(t, errors.Is(b.Push('f'), ErrSealed))
}

func TestBufferEmpty(t *testing.T) {
	b := NewBuffer(0)
	require.Equal(t, DefaultCapacity, b.Cap())
	b.Seal()
	require.Empty(t, b.Bytes())
	require.Equal(t, []byte{byte(End)}, b.Raw())
}

func TestBufferCapacityOne(t *testing.T) {
	b := NewBuffer(1)
	require.True(t, errors.Is(b.Push('x'), ErrBufferFull))
	b.Seal()
	require.Equal(t, []byte{byte(End)}, b.Raw())
}

func TestOverflowError(t *testing.T) {
	err := error(&OverflowError{Capacity: 4, Dropped: 2})
	require.True(t, errors.Is(err, ErrBufferFull))
	require.Equal(t, "capture overflow: 2 bytes dropped (capacity 4)", err.Error())
}
