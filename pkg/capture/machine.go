package capture

// ControlByte is a reserved protocol byte.
type ControlByte byte

// Control bytes
const (
	// Start is sent by the SUT when it is ready (ENQ).
	Start ControlByte = 0x05
	// Ack is the tester's single reply to Start (ACK).
	Ack ControlByte = 0x06
	// End terminates the capture (EOT).
	End ControlByte = 0x04
)

// State is the handshake state.
type State int

// States
const (
	StateWaitStart State = iota // discarding until Start
	StateAcked                  // Start seen, Ack to be sent
	StateCapturing              // storing payload until End
	StateDone                   // End seen
)

func (s State) String() string {
	switch s {
	case StateWaitStart:
		return "WAIT_START"
	case StateAcked:
		return "ACKED"
	case StateCapturing:
		return "CAPTURING"
	case StateDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// Step is the outcome of feeding one byte.
type Step struct {
	// Reply is a control byte to send to the peer, 0 if none.
	Reply byte
	// Payload is set when Data must be stored.
	Payload bool
	Data    byte
	// Done is set once End has been received.
	Done bool
}

// Machine is the handshake state machine. It does no I/O.
type Machine struct {
	state     State
	discarded int
}

// State gets the current state.
func (m *Machine) State() State {
	return m.state
}

// Discarded counts bytes skipped while waiting for Start.
func (m *Machine) Discarded() int {
	return m.discarded
}

// Reset returns to StateWaitStart.
func (m *Machine) Reset() {
	m.state, m.discarded = StateWaitStart, 0
}

// Acked confirms the Ack reply has been sent.
func (m *Machine) Acked() {
	if m.state == StateAcked {
		m.state = StateCapturing
	}
}

// Feed consumes one received byte.
// Feeding in StateAcked implies the Ack was sent.
func (m *Machine) Feed(b byte) (st Step) {
	switch m.state {
	case StateWaitStart:
		if b != byte(Start) {
			m.discarded++
			return
		}
		m.state = StateAcked
		st.Reply = byte(Ack)
	case StateAcked:
		m.Acked()
		return m.Feed(b)
	case StateCapturing:
		if b == byte(End) {
			m.state = StateDone
			st.Done = true
			return
		}
		st.Payload, st.Data = true, b
	case StateDone:
		st.Done = true
	}
	return
}
