package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferFull indicates a payload byte did not fit in the Buffer.
	ErrBufferFull = errors.New("buffer full")
	// ErrSealed indicates a push after the sentinel was placed.
	ErrSealed = errors.New("buffer sealed")
)

// OverflowError reports a capture which was trimmed to the buffer capacity.
type OverflowError struct {
	Capacity int
	Dropped  int
}

// Error implements error.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("capture overflow: %d bytes dropped (capacity %d)", e.Dropped, e.Capacity)
}

// Is matches ErrBufferFull.
func (e *OverflowError) Is(target error) bool {
	return target == ErrBufferFull
}
