// Package harness runs a complete tester session: banner, handshake and
// capture on the peer channel, then verification on the console.
package harness

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/capture"
	"github.com/robotalks/sutcheck/pkg/env"
	"github.com/robotalks/sutcheck/pkg/framework"
	"github.com/robotalks/sutcheck/pkg/mediator"
	"github.com/robotalks/sutcheck/pkg/mmio"
	"github.com/robotalks/sutcheck/pkg/regfile"
	"github.com/robotalks/sutcheck/pkg/report"
	"github.com/robotalks/sutcheck/pkg/verify"
)

// Banner greets on the console before the handshake.
const Banner = "\n\nHello from tester!\n\n\n"

// Tester is one tester session.
type Tester struct {
	TesterID string
	Channel  *mediator.Mediator
	Engine   *capture.Engine
	Verifier *verify.Verifier

	report  *report.Report
	regions []*mmio.Region
}

// New creates a Tester on ch reading the register file through regs.
func New(ch *mediator.Mediator, regs regfile.View) *Tester {
	return &Tester{
		Channel:  ch,
		Engine:   capture.NewEngine(ch),
		Verifier: &verify.Verifier{Regs: regs},
	}
}

// NewFromConfig creates a Tester with the channels and memory windows
// described by conf. The windows are mapped here and released by Close.
func NewFromConfig(conf *env.Config) (*Tester, error) {
	if conf.RegFile.Device == "" {
		return nil, fmt.Errorf("register file device must be specified")
	}
	regs, err := mmio.Map(conf.RegFile.Device, conf.RegFile.Offset, conf.RegFile.Base, conf.RegFile.Size)
	if err != nil {
		return nil, fmt.Errorf("map register file: %w", err)
	}
	ch := mediator.New(nil, conf.Console, conf.Peer)
	ch.Exclusive = conf.Exclusive
	t := New(ch, regfile.New(regs, conf.RegFile.Base, conf.Registers))
	t.regions = append(t.regions, regs)
	t.TesterID = conf.TesterID
	t.Engine.Capacity = conf.Capacity
	t.Engine.Echo = conf.Debug
	t.Verifier.Expect = conf.Expect
	if conf.SharedMem {
		mem, err := mmio.Map(conf.Memory.Device, conf.Memory.Offset, conf.Memory.Base, conf.Memory.Size)
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("map shared memory: %w", err)
		}
		t.regions = append(t.regions, mem)
		t.Verifier.Memory = mem
		t.Verifier.AddrWidth = conf.AddrWidth
		t.Verifier.MaxString = conf.MaxString
	}
	return t, nil
}

// Name implements framework.Named.
func (t *Tester) Name() string {
	return "tester"
}

// Report is the outcome of the last Run, nil if it never got to
// verification.
func (t *Tester) Report() *report.Report {
	return t.report
}

// Run implements framework.Runnable. The returned error matches
// verify.ErrFailed when the session completed but verification failed.
func (t *Tester) Run(ctx context.Context) error {
	t.report = nil
	if err := t.Channel.Select(mediator.Console); err != nil {
		return err
	}
	if _, err := io.WriteString(t.Channel, Banner); err != nil {
		return fmt.Errorf("console: %w", err)
	}

	buf, captureErr := t.Engine.Run(ctx)
	if buf == nil {
		return captureErr
	}

	if err := t.Channel.Select(mediator.Console); err != nil {
		return err
	}
	t.Verifier.Console = t.Channel
	r, err := t.Verifier.Report(buf, captureErr)
	r.TesterId = t.TesterID
	r.Timestamp = time.Now().UnixNano()
	r.Discarded = uint32(t.Engine.Discarded())
	t.report = r

	if ferr := t.Channel.Finish(mediator.Console); ferr != nil {
		glog.Warningf("finish console: %v", ferr)
		if err == nil {
			err = ferr
		}
	}
	return err
}

// Close releases the channels and memory windows.
func (t *Tester) Close() error {
	var errs framework.AggregatedError
	errs.Add(t.Channel.Close())
	for _, r := range t.regions {
		errs.Add(r.Close())
	}
	t.regions = nil
	return errs.Aggregate()
}
