// Package mmio provides read access to memory-mapped windows.
//
// A Region covers [Base, Base+Size) of an address space and is backed by a
// byte slice, either mapped from a device file (/dev/mem, a UIO node, or a
// file shared with a simulated SUT) or allocated in memory.
package mmio

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

// AccessError reports an access outside a Region.
type AccessError struct {
	Addr uint64
	Size int
}

// Error implements error.
func (e *AccessError) Error() string {
	return fmt.Sprintf("bus error: %d-byte access at %#x", e.Size, e.Addr)
}

// Region is a window of memory at a fixed base address.
type Region struct {
	Base uint64

	mem   []byte
	unmap func() error
}

// NewRegion wraps mem as a Region at base. Writes to mem are visible to
// readers of the Region.
func NewRegion(base uint64, mem []byte) *Region {
	return &Region{Base: base, mem: mem}
}

// Map maps size bytes of the file at path, starting at file offset, as a
// read-only Region at base.
func Map(path string, offset int64, base uint64, size int) (*Region, error) {
	return mapFile(path, offset, base, size, os.O_RDONLY, unix.PROT_READ)
}

// MapWritable is like Map but the mapping can be written through Bytes.
// It is used by the simulated SUT.
func MapWritable(path string, offset int64, base uint64, size int) (*Region, error) {
	return mapFile(path, offset, base, size, os.O_RDWR, unix.PROT_READ|unix.PROT_WRITE)
}

func mapFile(path string, offset int64, base uint64, size int, flag, prot int) (*Region, error) {
	f, err := os.OpenFile(path, flag|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	defer f.Close()
	mem, err := unix.Mmap(int(f.Fd()), offset, size, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map %s at %#x: %w", path, offset, err)
	}
	glog.V(2).Infof("mapped %s+%#x (%d bytes) at %#x", path, offset, size, base)
	return &Region{
		Base:  base,
		mem:   mem,
		unmap: func() error { return unix.Munmap(mem) },
	}, nil
}

// Size is the window size in bytes.
func (r *Region) Size() int {
	return len(r.mem)
}

// Contains reports whether [addr, addr+n) is inside the Region.
func (r *Region) Contains(addr uint64, n int) bool {
	if addr < r.Base || n < 0 {
		return false
	}
	off, size := addr-r.Base, uint64(len(r.mem))
	return off <= size && uint64(n) <= size-off
}

// Bytes exposes the backing memory.
func (r *Region) Bytes() []byte {
	return r.mem
}

// Read8 loads one byte.
func (r *Region) Read8(addr uint64) (byte, error) {
	if !r.Contains(addr, 1) {
		return 0, &AccessError{Addr: addr, Size: 1}
	}
	return r.mem[addr-r.Base], nil
}

// Read32 loads a little-endian 32-bit word.
func (r *Region) Read32(addr uint64) (uint32, error) {
	if !r.Contains(addr, 4) {
		return 0, &AccessError{Addr: addr, Size: 4}
	}
	off := addr - r.Base
	return binary.LittleEndian.Uint32(r.mem[off : off+4]), nil
}

// Write32 stores a little-endian 32-bit word.
func (r *Region) Write32(addr uint64, v uint32) error {
	if !r.Contains(addr, 4) {
		return &AccessError{Addr: addr, Size: 4}
	}
	off := addr - r.Base
	binary.LittleEndian.PutUint32(r.mem[off:off+4], v)
	return nil
}

// ReadMemory copies bytes starting at addr into data. It returns the number
// of bytes copied, which is short when the Region ends first.
func (r *Region) ReadMemory(addr uint64, data []byte) (int, error) {
	if !r.Contains(addr, 1) {
		return 0, &AccessError{Addr: addr, Size: len(data)}
	}
	return copy(data, r.mem[addr-r.Base:]), nil
}

// Close unmaps a mapped Region.
func (r *Region) Close() error {
	if r.unmap == nil {
		return nil
	}
	unmap := r.unmap
	r.unmap, r.mem = nil, nil
	return unmap()
}
