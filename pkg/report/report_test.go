package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	r := &Report{TesterId: "t1", Messages: []byte("Hi"), Passed: true}
	r.SetRegister("REG4", 1024)
	r.SetRegister("REG3", 7)
	r.Fail("REG3 mismatch: expected %d got %d", 8, 7)
	require.False(t, r.Passed)
	require.Equal(t, []string{"REG3", "REG4"}, r.RegisterNames())

	data, err := r.Encode()
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, "t1", decoded.TesterId)
	require.Equal(t, []byte("Hi"), decoded.Messages)
	require.Equal(t, map[string]uint32{"REG3": 7, "REG4": 1024}, decoded.Registers)
	require.Equal(t, []string{"REG3 mismatch: expected 8 got 7"}, decoded.Failures)
	require.False(t, decoded.Passed)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff})
	require.Error(t, err)
}
