package verify

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sutcheck/pkg/capture"
	"github.com/robotalks/sutcheck/pkg/mmio"
	"github.com/robotalks/sutcheck/pkg/regfile"
	"github.com/robotalks/sutcheck/pkg/sharedmem"
)

type testRegs map[string]uint32

func (r testRegs) Get(name string) (uint32, error) {
	v, ok := r[name]
	if !ok {
		return 0, &regfile.UnknownFieldError{Name: name}
	}
	return v, nil
}

func sealed(payload string) *capture.Buffer {
	buf := capture.NewBuffer(0)
	for _, c := range []byte(payload) {
		buf.Push(c)
	}
	buf.Seal()
	return buf
}

func TestReportWithoutSharedMem(t *testing.T) {
	var console bytes.Buffer
	v := &Verifier{Console: &console, Regs: testRegs{"REG3": 7, "REG4": 1024}}
	r, err := v.Report(sealed("Hi"), nil)
	require.NoError(t, err)
	require.True(t, r.Passed)
	require.Equal(t, uint32(7), r.Registers["REG3"])
	require.Equal(t, MessagesBanner+"Hi"+MessagesEndBanner+
		RegistersBanner+"7 \n1024 \n"+
		"\n"+SuccessMessage, console.String())
}

func TestReportEmptyCapture(t *testing.T) {
	var console bytes.Buffer
	v := &Verifier{Console: &console, Regs: testRegs{"REG3": 0, "REG4": 0}}
	_, err := v.Report(sealed(""), nil)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(console.String(), MessagesBanner+MessagesEndBanner))
}

func TestReportSharedMem(t *testing.T) {
	mem := make([]byte, 0x100)
	copy(mem[0x20:], "SUT string\x00")
	region := mmio.NewRegion(0x1000, mem)

	var console bytes.Buffer
	v := &Verifier{
		Console:   &console,
		Regs:      testRegs{"REG3": 1, "REG4": 2, "REG5": 0x80001020},
		Memory:    region,
		AddrWidth: 32,
	}
	r, err := v.Report(sealed("x"), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1020), r.SharedAddr)
	require.Equal(t, []byte("SUT string"), r.SharedString)
	require.Contains(t, console.String(), RegistersBanner+"1 \n2 \n"+SharedMemBanner+"SUT string\n"+SuccessMessage)
}

func TestReportSharedMemTruncated(t *testing.T) {
	mem := bytes.Repeat([]byte{'z'}, 64)
	var console bytes.Buffer
	v := &Verifier{
		Console:   &console,
		Regs:      testRegs{"REG3": 1, "REG4": 2, "REG5": 0x80000000},
		Memory:    mmio.NewRegion(0, mem),
		AddrWidth: 32,
		MaxString: 8,
	}
	r, err := v.Report(sealed(""), nil)
	require.True(t, errors.Is(err, ErrFailed))
	require.True(t, errors.Is(err, sharedmem.ErrTruncated))
	require.False(t, r.Passed)
	require.Contains(t, console.String(), SharedMemBanner+"zzzzzzzz\n(string truncated)\n"+FailureMessage)
}

func TestReportExpectMismatch(t *testing.T) {
	var console bytes.Buffer
	v := &Verifier{
		Console: &console,
		Regs:    testRegs{"REG3": 1, "REG4": 2},
		Expect:  map[string]uint32{"REG3": 1, "REG4": 3},
	}
	r, err := v.Report(sealed("ok"), nil)
	require.True(t, errors.Is(err, ErrFailed))
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Equal(t, "REG4", mismatch.Name)
	require.Equal(t, []string{"REG4 mismatch: expected 3 got 2"}, r.Failures)
	require.True(t, strings.HasSuffix(console.String(), "\nREG4 mismatch: expected 3 got 2\n"+FailureMessage))
}

func TestReportOverflow(t *testing.T) {
	var console bytes.Buffer
	buf := capture.NewBuffer(3)
	for _, c := range []byte("abcd") {
		buf.Push(c)
	}
	buf.Seal()
	overflow := &capture.OverflowError{Capacity: 3, Dropped: buf.Dropped()}
	v := &Verifier{Console: &console, Regs: testRegs{"REG3": 1, "REG4": 2}}
	r, err := v.Report(buf, overflow)
	require.True(t, errors.Is(err, capture.ErrBufferFull))
	require.Equal(t, uint32(2), r.Dropped)
	require.Contains(t, console.String(), MessagesBanner+"ab"+MessagesEndBanner+"WARNING: capture overflow: 2 bytes dropped (capacity 3)\n\n")
}

func TestReportMissingRegister(t *testing.T) {
	var console bytes.Buffer
	v := &Verifier{Console: &console, Regs: testRegs{"REG3": 1}}
	_, err := v.Report(sealed(""), nil)
	var unknown *regfile.UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	require.Contains(t, console.String(), "REG4: unknown register \"REG4\"\n")
}
