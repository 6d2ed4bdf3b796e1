package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func feedAll(m *Machine, data []byte) (replies []byte, payload []byte, done bool) {
	for _, b := range data {
		st := m.Feed(b)
		if st.Reply != 0 {
			replies = append(replies, st.Reply)
			m.Acked()
		}
		if st.Payload {
			payload = append(payload, st.Data)
		}
		if st.Done {
			done = true
		}
	}
	return
}

func TestMachine(t *testing.T) {
	testCases := []struct {
		name      string
		input     []byte
		replies   []byte
		payload   []byte
		done      bool
		discarded int
		state     State
	}{
		{"nothing", nil, nil, nil, false, 0, StateWaitStart},
		{"noise only", []byte{0x00, 0x01, 'A', 0x06, 0x04}, nil, nil, false, 5, StateWaitStart},
		{"start", []byte{0x05}, []byte{0x06}, nil, false, 0, StateCapturing},
		{"hi", []byte{0x05, 'H', 'i', 0x04}, []byte{0x06}, []byte("Hi"), true, 0, StateDone},
		{"noise then empty", []byte{0x00, 0x01, 0x05, 0x04}, []byte{0x06}, nil, true, 2, StateDone},
		{"second start is payload", []byte{0x05, 0x05, 0x06, 0x04}, []byte{0x06}, []byte{0x05, 0x06}, true, 0, StateDone},
		{"bytes after end ignored", []byte{0x05, 'a', 0x04, 'b', 0x04}, []byte{0x06}, []byte("a"), true, 0, StateDone},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var m Machine
			replies, payload, done := feedAll(&m, tc.input)
			require.Equal(t, tc.replies, replies)
			require.Equal(t, tc.payload, payload)
			require.Equal(t, tc.done, done)
			require.Equal(t, tc.discarded, m.Discarded())
			require.Equal(t, tc.state, m.State())
		})
	}
}

func TestMachineLongNoisePrefix(t *testing.T) {
	var m Machine
	for i := 0; i < 10000; i++ {
		b := byte(i)
		if b == byte(Start) {
			b = 0xff
		}
		require.Zero(t, m.Feed(b).Reply)
	}
	require.Equal(t, StateWaitStart, m.State())
	require.Equal(t, byte(Ack), m.Feed(byte(Start)).Reply)
	require.Equal(t, StateAcked, m.State())
}

func TestMachineImplicitAck(t *testing.T) {
	var m Machine
	m.Feed(byte(Start))
	st := m.Feed('x')
	require.True(t, st.Payload)
	require.Equal(t, byte('x'), st.Data)
	require.Equal(t, StateCapturing, m.State())
	m.Reset()
	require.Equal(t, StateWaitStart, m.State())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "WAIT_START", StateWaitStart.String())
	require.Equal(t, "DONE", StateDone.String())
	require.Equal(t, "UNKNOWN", State(42).String())
}
