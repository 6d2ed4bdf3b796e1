// Package regfile reads the SUT register file.
//
// The SUT writes its verification values into the register file before it
// completes the handshake. The tester only ever reads it.
package regfile

import (
	"fmt"
	"sort"

	"github.com/golang/glog"
)

// Access is the SUT-side direction of a register.
type Access string

// Accesses
const (
	Read  Access = "R"
	Write Access = "W"
)

// Field describes one register.
type Field struct {
	Name   string `yaml:"name"`
	Offset uint64 `yaml:"offset"`
	Bits   uint   `yaml:"bits"`
	Access Access `yaml:"access"`
}

// Mask keeps the implemented bits of the field.
func (f Field) Mask() uint32 {
	if f.Bits == 0 || f.Bits >= 32 {
		return 0xffffffff
	}
	return 1<<f.Bits - 1
}

// Register names used by the verification.
const (
	Reg3 = "REG3"
	Reg4 = "REG4"
	Reg5 = "REG5"
)

// DefaultLayout is the register file of the reference SUT, one register per
// 32-bit word.
var DefaultLayout = []Field{
	{Name: "REG1", Offset: 0x00, Bits: 8, Access: Write},
	{Name: "REG2", Offset: 0x04, Bits: 16, Access: Write},
	{Name: Reg3, Offset: 0x08, Bits: 8, Access: Read},
	{Name: Reg4, Offset: 0x0c, Bits: 16, Access: Read},
	{Name: Reg5, Offset: 0x10, Bits: 32, Access: Read},
}

// Bus loads 32-bit words. *mmio.Region implements it.
type Bus interface {
	Read32(addr uint64) (uint32, error)
}

// View is the read-only register interface used by the verifier.
type View interface {
	Get(name string) (uint32, error)
}

// UnknownFieldError reports a lookup of an undeclared register.
type UnknownFieldError struct {
	Name string
}

// Error implements error.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown register %q", e.Name)
}

// RegFile reads named registers at a base address on a Bus.
type RegFile struct {
	bus    Bus
	base   uint64
	fields map[string]Field
}

// New creates a RegFile. A nil layout selects DefaultLayout.
func New(bus Bus, base uint64, layout []Field) *RegFile {
	if layout == nil {
		layout = DefaultLayout
	}
	r := &RegFile{bus: bus, base: base, fields: make(map[string]Field, len(layout))}
	for _, f := range layout {
		r.fields[f.Name] = f
	}
	return r
}

// Base is the register file base address.
func (r *RegFile) Base() uint64 {
	return r.base
}

// Field looks up a register description.
func (r *RegFile) Field(name string) (Field, bool) {
	f, ok := r.fields[name]
	return f, ok
}

// Fields lists registers by offset.
func (r *RegFile) Fields() []Field {
	fields := make([]Field, 0, len(r.fields))
	for _, f := range r.fields {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Offset < fields[j].Offset })
	return fields
}

// Get reads a register by name, masked to its width.
func (r *RegFile) Get(name string) (uint32, error) {
	f, ok := r.fields[name]
	if !ok {
		return 0, &UnknownFieldError{Name: name}
	}
	v, err := r.bus.Read32(r.base + f.Offset)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	v &= f.Mask()
	glog.V(4).Infof("%s @%#x = %#x", name, r.base+f.Offset, v)
	return v, nil
}
