// Package sim simulates the SUT side of a tester run: it writes the
// register file and shared memory, then performs the serial handshake.
package sim

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/mmio"
	"github.com/robotalks/sutcheck/pkg/regfile"
	"github.com/robotalks/sutcheck/pkg/sharedmem"
)

// Board is the memory the SUT shares with the tester.
type Board struct {
	// Regs is the register file window.
	Regs   *mmio.Region
	Layout []regfile.Field

	// Memory is the shared memory window. Its Base is the address the
	// tester uses for it.
	Memory    *mmio.Region
	AddrWidth uint
}

// SetRegister stores v into the named register, truncated to its width.
func (b *Board) SetRegister(name string, v uint32) error {
	for _, f := range b.layout() {
		if f.Name == name {
			return b.Regs.Write32(b.Regs.Base+f.Offset, v&f.Mask())
		}
	}
	return &regfile.UnknownFieldError{Name: name}
}

// PlaceString writes s and its terminating NUL at offset into shared
// memory and returns the address the SUT publishes in REG5.
func (b *Board) PlaceString(offset uint64, s []byte) (uint64, error) {
	if b.Memory == nil {
		return 0, fmt.Errorf("no shared memory")
	}
	mem := b.Memory.Bytes()
	if offset+uint64(len(s))+1 > uint64(len(mem)) {
		return 0, &mmio.AccessError{Addr: b.Memory.Base + offset, Size: len(s) + 1}
	}
	copy(mem[offset:], s)
	mem[offset+uint64(len(s))] = 0
	// the transform flips one bit, so it maps the tester view back to
	// the SUT view too.
	addr := sharedmem.Transform(b.Memory.Base+offset, b.AddrWidth)
	glog.V(2).Infof("string of %d bytes at %#x (tester view %#x)", len(s), addr, b.Memory.Base+offset)
	return addr, nil
}

// Close unmaps the windows.
func (b *Board) Close() error {
	var err error
	if b.Regs != nil {
		err = b.Regs.Close()
	}
	if b.Memory != nil {
		if e := b.Memory.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (b *Board) layout() []regfile.Field {
	if len(b.Layout) == 0 {
		return regfile.DefaultLayout
	}
	return b.Layout
}
