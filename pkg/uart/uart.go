// Package uart provides byte-level serial channels.
//
// A Port is the host equivalent of the firmware UART primitives:
// init (Open), putc (Send), blocking getc (Recv) and finish (Close).
// Channels are addressed by URL so the same tester can talk to a real
// tty, or to a simulated SUT over TCP or websocket.
package uart

import (
	"fmt"
	"io"
	"net"
	"net/url"

	"github.com/golang/glog"
)

// Port is a single serial channel.
type Port interface {
	io.Writer
	// Send transmits one byte.
	Send(byte) error
	// Recv blocks until one byte is received.
	Recv() (byte, error)
	// Close finishes the channel.
	Close() error
}

// Config describes how to reach a channel.
type Config struct {
	// Name is the role label used in logs.
	Name string `yaml:"name"`
	// URL addresses the channel, e.g.
	//   tty:///dev/ttyUSB1
	//   tcp://localhost:5005
	//   ws://localhost:5006/uart
	//   stdio:
	// A bare path is treated as a tty.
	URL string `yaml:"url"`
	// Freq is the system clock frequency in Hz.
	Freq uint32 `yaml:"freq"`
	// Baud is the target baud rate.
	Baud uint32 `yaml:"baud"`
}

// Divisor is the clock divisor programmed into the UART, FREQ/BAUD.
func (c Config) Divisor() uint32 {
	if c.Baud == 0 {
		return 0
	}
	return c.Freq / c.Baud
}

// Opener opens a Port from a Config.
type Opener func(Config) (Port, error)

// Open opens the channel described by conf, selecting the transport from
// the URL scheme.
func Open(conf Config) (Port, error) {
	u, err := url.Parse(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid channel URL %q: %w", conf.URL, err)
	}
	glog.V(2).Infof("open %s channel %s (divisor %d)", conf.Name, conf.URL, conf.Divisor())
	switch u.Scheme {
	case "", "tty":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		return OpenTTY(conf.Name, path, int(conf.Baud))
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewStreamPort(conf.Name, conn), nil
	case "ws", "wss":
		return DialWebsocket(conf.Name, conf.URL)
	case "stdio":
		return Stdio(conf.Name), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
	}
}
