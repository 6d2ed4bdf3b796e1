package sim

import (
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/capture"
	"github.com/robotalks/sutcheck/pkg/regfile"
)

// Program is what the SUT reports in one run.
type Program struct {
	// Noise is sent before Start.
	Noise    []byte
	Messages []byte
	// Registers are written before the handshake, e.g. REG3 and REG4.
	Registers map[string]uint32
	// String is placed in shared memory at StringOffset and its address
	// written to REG5, when the board has shared memory.
	String       []byte
	StringOffset uint64
}

// SUT is a simulated system under test.
type SUT struct {
	Board   *Board
	Program Program
}

// Prepare writes the registers and shared memory.
func (s *SUT) Prepare() error {
	for name, val := range s.Program.Registers {
		if err := s.Board.SetRegister(name, val); err != nil {
			return err
		}
	}
	if s.Board.Memory == nil {
		return nil
	}
	addr, err := s.Board.PlaceString(s.Program.StringOffset, s.Program.String)
	if err != nil {
		return err
	}
	return s.Board.SetRegister(regfile.Reg5, uint32(addr))
}

// Handshake sends Start, waits for Ack, then sends the messages and End.
// Bytes other than Ack received while waiting are ignored.
func (s *SUT) Handshake(rw io.ReadWriter) error {
	out := append(append([]byte{}, s.Program.Noise...), byte(capture.Start))
	if _, err := rw.Write(out); err != nil {
		return fmt.Errorf("send enquiry: %w", err)
	}
	var b [1]byte
	for {
		if _, err := io.ReadFull(rw, b[:]); err != nil {
			return fmt.Errorf("wait ack: %w", err)
		}
		if b[0] == byte(capture.Ack) {
			break
		}
		glog.V(4).Infof("ignored %#02x while waiting ack", b[0])
	}
	glog.V(2).Info("ack received")
	out = append(append([]byte{}, s.Program.Messages...), byte(capture.End))
	if _, err := rw.Write(out); err != nil {
		return fmt.Errorf("send messages: %w", err)
	}
	return nil
}
