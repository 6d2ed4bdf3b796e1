// Package verify replays the captured SUT messages and checks the state
// the SUT left in the register file and shared memory.
package verify

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/capture"
	"github.com/robotalks/sutcheck/pkg/framework"
	"github.com/robotalks/sutcheck/pkg/regfile"
	"github.com/robotalks/sutcheck/pkg/report"
	"github.com/robotalks/sutcheck/pkg/sharedmem"
)

// Console banners.
const (
	MessagesBanner    = "#### Messages received from SUT: ####\n\n"
	MessagesEndBanner = "\n#### End of messages received from SUT ####\n\n"
	RegistersBanner   = "REGFILEIF contents read by the Tester:\n"
	SharedMemBanner   = "\nString read by Tester directly from SUT's memory:\n"
	SuccessMessage    = "\nVerification successful!\n"
	FailureMessage    = "\nVerification failed!\n"
)

// ErrFailed is returned when the report has failures.
var ErrFailed = errors.New("verification failed")

// MismatchError reports a register holding an unexpected value.
type MismatchError struct {
	Name     string
	Expected uint32
	Actual   uint32
}

// Error implements error.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: expected %d got %d", e.Name, e.Expected, e.Actual)
}

// Verifier prints the verification report on the console.
type Verifier struct {
	Console io.Writer
	Regs    regfile.View

	// Memory enables the shared memory check when non-nil.
	Memory sharedmem.Memory
	// AddrWidth is the memory address width used by the transform.
	AddrWidth uint
	// MaxString bounds the shared memory string scan.
	MaxString int

	// Expect holds optional expected register values.
	Expect map[string]uint32
}

// Report writes the report for buf to the console. Problems found along the
// way (overflow, truncation, mismatches, read errors) are printed on the
// console, recorded in the returned report and aggregated into the error,
// which then also matches ErrFailed. Only console write errors abort early.
func (v *Verifier) Report(buf *capture.Buffer, captureErr error) (*report.Report, error) {
	r := &report.Report{Passed: true, Messages: buf.Bytes(), Dropped: uint32(buf.Dropped())}
	var errs framework.AggregatedError
	cw := &consoleWriter{w: v.Console}

	cw.print(MessagesBanner)
	cw.write(buf.Bytes())
	cw.print(MessagesEndBanner)
	if captureErr != nil {
		cw.printf("WARNING: %v\n\n", captureErr)
		r.Fail("%v", captureErr)
		errs.Add(captureErr)
	}

	cw.print(RegistersBanner)
	for _, name := range []string{regfile.Reg3, regfile.Reg4} {
		val, err := v.Regs.Get(name)
		if err != nil {
			cw.printf("%s: %v\n", name, err)
			r.Fail("%v", err)
			errs.Add(err)
			continue
		}
		r.SetRegister(name, val)
		cw.printf("%d \n", val)
	}

	if v.Memory != nil {
		r.SharedMem = true
		if err := v.sharedString(cw, r); err != nil {
			r.Fail("%v", err)
			errs.Add(err)
		}
	}
	cw.print("\n")

	for _, name := range sortedKeys(v.Expect) {
		if err := v.expect(r, name); err != nil {
			cw.printf("%v\n", err)
			r.Fail("%v", err)
			errs.Add(err)
		}
	}

	if r.Passed {
		cw.print(SuccessMessage)
	} else {
		cw.print(FailureMessage)
	}
	if cw.err != nil {
		return r, fmt.Errorf("console: %w", cw.err)
	}
	if err := errs.Aggregate(); err != nil {
		glog.Errorf("verification failed: %v", err)
		return r, &failure{err}
	}
	glog.Info("verification successful")
	return r, nil
}

func (v *Verifier) sharedString(cw *consoleWriter, r *report.Report) error {
	raw, err := v.Regs.Get(regfile.Reg5)
	if err != nil {
		cw.print(SharedMemBanner)
		cw.printf("%v\n", err)
		return err
	}
	r.SetRegister(regfile.Reg5, raw)
	c, err := sharedmem.Derive(uint64(raw), v.AddrWidth)
	if err != nil {
		cw.print(SharedMemBanner)
		cw.printf("%v\n", err)
		return err
	}
	r.SharedAddr = c.Addr
	s, err := sharedmem.ReadString(v.Memory, c, v.MaxString)
	r.SharedString = s
	cw.print(SharedMemBanner)
	cw.write(s)
	if err != nil {
		cw.printf("\n(%v)", err)
	}
	return err
}

func (v *Verifier) expect(r *report.Report, name string) error {
	actual, ok := r.Registers[name]
	if !ok {
		val, err := v.Regs.Get(name)
		if err != nil {
			return err
		}
		r.SetRegister(name, val)
		actual = val
	}
	if expected := v.Expect[name]; actual != expected {
		return &MismatchError{Name: name, Expected: expected, Actual: actual}
	}
	return nil
}

type failure struct {
	err error
}

func (f *failure) Error() string { return f.err.Error() }

func (f *failure) Unwrap() error { return f.err }

func (f *failure) Is(target error) bool { return target == ErrFailed }

type consoleWriter struct {
	w   io.Writer
	err error
}

func (c *consoleWriter) write(p []byte) {
	if c.err == nil && len(p) > 0 {
		_, c.err = c.w.Write(p)
	}
}

func (c *consoleWriter) print(s string) {
	c.write([]byte(s))
}

func (c *consoleWriter) printf(format string, args ...interface{}) {
	c.print(fmt.Sprintf(format, args...))
}
