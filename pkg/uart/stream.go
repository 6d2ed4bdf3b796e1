package uart

import (
	"io"
	"os"
	"sync"

	"github.com/golang/glog"
)

// StreamPort implements Port over a byte stream.
type StreamPort struct {
	name string
	rw   io.ReadWriteCloser
	rbuf [1]byte

	closed bool
	lock   sync.Mutex
}

// NewStreamPort wraps a stream as a Port.
func NewStreamPort(name string, rw io.ReadWriteCloser) *StreamPort {
	return &StreamPort{name: name, rw: rw}
}

// Name returns the role label.
func (p *StreamPort) Name() string {
	return p.name
}

// Send implements Port.
func (p *StreamPort) Send(b byte) error {
	_, err := p.Write([]byte{b})
	return err
}

// Write implements Port.
func (p *StreamPort) Write(data []byte) (int, error) {
	if p.isClosed() {
		return 0, ErrClosed
	}
	return p.rw.Write(data)
}

// Recv implements Port.
func (p *StreamPort) Recv() (byte, error) {
	if p.isClosed() {
		return 0, ErrClosed
	}
	if _, err := io.ReadFull(p.rw, p.rbuf[:]); err != nil {
		if p.isClosed() {
			return 0, ErrClosed
		}
		return 0, err
	}
	if glog.V(4) {
		glog.Infof("%s RCV %#02x", p.name, p.rbuf[0])
	}
	return p.rbuf[0], nil
}

// Close implements Port. Closing twice is a no-op.
func (p *StreamPort) Close() error {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return nil
	}
	p.closed = true
	p.lock.Unlock()
	glog.V(2).Infof("%s finished", p.name)
	return p.rw.Close()
}

func (p *StreamPort) isClosed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }

// Stdio returns a Port over the process stdin/stdout.
// Closing it leaves stdin/stdout open.
func Stdio(name string) *StreamPort {
	return NewStreamPort(name, stdio{})
}
