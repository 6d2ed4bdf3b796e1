package uart

import "errors"

var (
	// ErrClosed indicates the port has been finished.
	ErrClosed = errors.New("port closed")
	// ErrUnknownScheme indicates the channel URL has an unsupported scheme.
	ErrUnknownScheme = errors.New("unknown channel scheme")
)
