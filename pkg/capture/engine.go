package capture

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/framework"
	"github.com/robotalks/sutcheck/pkg/mediator"
)

// Channel is the multiplexed serial channel used by the Engine.
// *mediator.Mediator implements it.
type Channel interface {
	io.Writer
	Select(mediator.Role) error
	Finish(mediator.Role) error
	Send(byte) error
	Recv() (byte, error)
	Echo(byte) error
	OnConsole(func() error) error
	Closer() io.Closer
}

const enquiryMsg = "Received SUT UART enquiry.\nReading SUT messages...\n"

// Engine runs the handshake and captures the SUT messages.
type Engine struct {
	// Capacity of the capture buffer, including the sentinel.
	Capacity int
	// Echo copies every captured byte to the console as it arrives.
	Echo bool

	ch      Channel
	machine Machine
}

// NewEngine creates an Engine over ch.
func NewEngine(ch Channel) *Engine {
	return &Engine{ch: ch, Capacity: DefaultCapacity}
}

// State gets the handshake state.
func (e *Engine) State() State {
	return e.machine.State()
}

// Discarded counts noise bytes skipped before Start.
func (e *Engine) Discarded() int {
	return e.machine.Discarded()
}

// Run selects the peer, runs the handshake to completion and finishes the
// peer channel. Receives block until a byte arrives; ctx cancellation
// closes the peer port to unblock them.
//
// When the SUT sends more than the buffer holds, the capture is trimmed and
// the sealed buffer is returned together with an *OverflowError.
func (e *Engine) Run(ctx context.Context) (*Buffer, error) {
	if err := e.ch.Select(mediator.Peer); err != nil {
		return nil, err
	}
	e.machine.Reset()
	buf := NewBuffer(e.Capacity)
	err := framework.RunWithContextCloser(ctx, e.ch.Closer(), func() error {
		return e.capture(buf)
	})
	if err != nil {
		if ferr := e.ch.Finish(mediator.Peer); ferr != nil {
			glog.Warningf("finish peer: %v", ferr)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	buf.Seal()
	glog.V(2).Infof("captured %d bytes, %d noise bytes skipped", buf.Len(), e.machine.Discarded())
	var errs framework.AggregatedError
	if err := e.ch.Finish(mediator.Peer); err != nil {
		errs.Add(fmt.Errorf("finish peer: %w", err))
	}
	if n := buf.Dropped(); n > 0 {
		glog.Warningf("capture overflow: %d bytes dropped", n)
		errs.Add(&OverflowError{Capacity: buf.Cap(), Dropped: n})
	}
	return buf, errs.Aggregate()
}

func (e *Engine) capture(buf *Buffer) error {
	for {
		b, err := e.ch.Recv()
		if err != nil {
			return fmt.Errorf("receive in %v: %w", e.machine.State(), err)
		}
		prev := e.machine.State()
		st := e.machine.Feed(b)
		if st.Reply != 0 {
			if err := e.ch.Send(st.Reply); err != nil {
				return fmt.Errorf("send ack: %w", err)
			}
			e.machine.Acked()
			if e.Echo {
				if err := e.ch.OnConsole(e.printEnquiry); err != nil {
					return err
				}
			}
		}
		if st.Payload {
			if err := buf.Push(st.Data); err != nil && !errors.Is(err, ErrBufferFull) {
				return err
			}
			if e.Echo {
				if err := e.ch.Echo(st.Data); err != nil {
					return err
				}
			}
		}
		if cur := e.machine.State(); cur != prev {
			glog.V(2).Infof("handshake %v -> %v", prev, cur)
		}
		if st.Done {
			return nil
		}
	}
}

func (e *Engine) printEnquiry() error {
	_, err := io.WriteString(e.ch, enquiryMsg)
	return err
}
