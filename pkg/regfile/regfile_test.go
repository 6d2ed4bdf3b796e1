package regfile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sutcheck/pkg/mmio"
)

func TestGet(t *testing.T) {
	region := mmio.NewRegion(0x4000, make([]byte, 0x20))
	require.NoError(t, region.Write32(0x4008, 0x1ff))
	require.NoError(t, region.Write32(0x400c, 0x12345678))
	require.NoError(t, region.Write32(0x4010, 0x80001000))
	r := New(region, 0x4000, nil)

	v, err := r.Get(Reg3)
	require.NoError(t, err)
	require.Equal(t, uint32(0xff), v)
	v, err = r.Get(Reg4)
	require.NoError(t, err)
	require.Equal(t, uint32(0x5678), v)
	v, err = r.Get(Reg5)
	require.NoError(t, err)
	require.Equal(t, uint32(0x80001000), v)

	_, err = r.Get("REG9")
	var unknown *UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, "REG9", unknown.Name)
}

func TestGetBusError(t *testing.T) {
	region := mmio.NewRegion(0x4000, make([]byte, 8))
	r := New(region, 0x4000, nil)
	_, err := r.Get(Reg5)
	var accessErr *mmio.AccessError
	require.True(t, errors.As(err, &accessErr))
}

func TestFields(t *testing.T) {
	r := New(nil, 0, []Field{
		{Name: "B", Offset: 4, Bits: 32},
		{Name: "A", Offset: 0, Bits: 1},
	})
	fields := r.Fields()
	require.Len(t, fields, 2)
	require.Equal(t, "A", fields[0].Name)
	require.Equal(t, uint32(1), fields[0].Mask())
	require.Equal(t, uint32(0xffffffff), fields[1].Mask())
	_, ok := r.Field("C")
	require.False(t, ok)
}
