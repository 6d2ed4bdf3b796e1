// Package sharedmem reads SUT-owned memory through a derived capability.
//
// The tester and the SUT see the same external memory through address
// spaces that differ in the most significant address bit. A raw pointer
// published by the SUT is only usable by the tester after Transform.
// The memory content is SUT-controlled and is read with a bounded scan.
package sharedmem

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

// DefaultMaxString bounds string scans.
const DefaultMaxString = 4096

var (
	// ErrInvalidWidth indicates an address width outside 1..64.
	ErrInvalidWidth = errors.New("invalid address width")
	// ErrTruncated indicates no NUL was found within the scan limit.
	ErrTruncated = errors.New("string truncated")
)

// Memory reads target memory. *mmio.Region implements it.
type Memory interface {
	// ReadMemory copies bytes at addr into data and returns the count,
	// which may be short at the end of the accessible range.
	ReadMemory(addr uint64, data []byte) (int, error)
}

// Transform maps an address from the SUT view to the tester view by
// inverting bit width-1.
func Transform(raw uint64, width uint) uint64 {
	return raw ^ (uint64(1) << (width - 1))
}

// Capability is a tester-view address derived from a SUT pointer.
type Capability struct {
	Raw   uint64
	Width uint
	Addr  uint64
}

// Derive builds a Capability from the raw SUT pointer.
func Derive(raw uint64, width uint) (Capability, error) {
	if width == 0 || width > 64 {
		return Capability{}, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	c := Capability{Raw: raw, Width: width, Addr: Transform(raw, width)}
	glog.V(2).Infof("SUT pointer %#x -> tester address %#x (width %d)", raw, c.Addr, width)
	return c, nil
}

// String implements fmt.Stringer.
func (c Capability) String() string {
	return fmt.Sprintf("%#x (SUT %#x)", c.Addr, c.Raw)
}

// ReadString reads the NUL-terminated string at c, scanning at most max
// bytes (DefaultMaxString if max <= 0). When no NUL is found within max
// bytes, the bytes read are returned with ErrTruncated.
func ReadString(mem Memory, c Capability, max int) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxString
	}
	var (
		out   []byte
		chunk [64]byte
		addr  = c.Addr
	)
	for len(out) < max {
		want := len(chunk)
		if left := max - len(out); left < want {
			want = left
		}
		n, err := mem.ReadMemory(addr, chunk[:want])
		for i := 0; i < n; i++ {
			if chunk[i] == 0 {
				return append(out, chunk[:i]...), nil
			}
		}
		out = append(out, chunk[:n]...)
		if err != nil {
			return out, fmt.Errorf("read string at %v: %w", c, err)
		}
		if n == 0 {
			break
		}
		addr += uint64(n)
	}
	return out, ErrTruncated
}
