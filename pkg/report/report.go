// Package report holds the verification outcome and its wire encoding.
package report

import (
	"fmt"
	"sort"

	"github.com/golang/protobuf/proto"
)

// Report mirrors message Report in report.proto.
type Report struct {
	TesterId     string            `protobuf:"bytes,1,opt,name=tester_id,json=testerId,proto3" json:"tester_id,omitempty"`
	Timestamp    int64             `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Messages     []byte            `protobuf:"bytes,3,opt,name=messages,proto3" json:"messages,omitempty"`
	Registers    map[string]uint32 `protobuf:"bytes,4,rep,name=registers,proto3" json:"registers,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"varint,2,opt,name=value,proto3"`
	SharedMem    bool              `protobuf:"varint,5,opt,name=shared_mem,json=sharedMem,proto3" json:"shared_mem,omitempty"`
	SharedAddr   uint64            `protobuf:"varint,6,opt,name=shared_addr,json=sharedAddr,proto3" json:"shared_addr,omitempty"`
	SharedString []byte            `protobuf:"bytes,7,opt,name=shared_string,json=sharedString,proto3" json:"shared_string,omitempty"`
	Dropped      uint32            `protobuf:"varint,8,opt,name=dropped,proto3" json:"dropped,omitempty"`
	Discarded    uint32            `protobuf:"varint,9,opt,name=discarded,proto3" json:"discarded,omitempty"`
	Failures     []string          `protobuf:"bytes,10,rep,name=failures,proto3" json:"failures,omitempty"`
	Passed       bool              `protobuf:"varint,11,opt,name=passed,proto3" json:"passed,omitempty"`
}

// Reset implements proto.Message.
func (m *Report) Reset() { *m = Report{} }

// String implements proto.Message.
func (m *Report) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Report) ProtoMessage() {}

// SetRegister records a register value.
func (m *Report) SetRegister(name string, value uint32) {
	if m.Registers == nil {
		m.Registers = make(map[string]uint32)
	}
	m.Registers[name] = value
}

// Fail records a failure reason.
func (m *Report) Fail(format string, args ...interface{}) {
	m.Failures = append(m.Failures, fmt.Sprintf(format, args...))
	m.Passed = false
}

// RegisterNames lists recorded registers sorted by name.
func (m *Report) RegisterNames() []string {
	names := make([]string, 0, len(m.Registers))
	for name := range m.Registers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Encode encodes the Report to bytes.
func (m *Report) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Decode decodes bytes into a Report.
func Decode(data []byte) (*Report, error) {
	var m Report
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
