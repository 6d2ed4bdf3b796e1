package uart

import (
	"fmt"

	"github.com/pkg/term"
)

// OpenTTY opens a serial device in raw mode. baud 0 keeps the device speed.
func OpenTTY(name, path string, baud int) (*StreamPort, error) {
	opts := []func(*term.Term) error{term.RawMode}
	if baud > 0 {
		opts = append(opts, term.Speed(baud))
	}
	t, err := term.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("open tty %s: %w", path, err)
	}
	return NewStreamPort(name, t), nil
}
