package capture

// DefaultCapacity is the capture capacity including the sentinel.
const DefaultCapacity = 512

// Buffer is a bounded capture buffer terminated by an End sentinel.
// At most Cap()-1 payload bytes are stored so the sentinel always fits.
type Buffer struct {
	data     []byte
	capacity int
	sealed   bool
	dropped  int
}

// NewBuffer creates a Buffer. A capacity below 1 selects DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Push appends a payload byte at the cursor.
func (b *Buffer) Push(c byte) error {
	if b.sealed {
		return ErrSealed
	}
	if len(b.data) >= b.capacity-1 {
		b.dropped++
		return ErrBufferFull
	}
	b.data = append(b.data, c)
	return nil
}

// Seal places the End sentinel at the cursor. Sealing twice is a no-op.
func (b *Buffer) Seal() {
	if !b.sealed {
		b.data = append(b.data, byte(End))
		b.sealed = true
	}
}

// Bytes returns the payload before the sentinel.
func (b *Buffer) Bytes() []byte {
	for i, c := range b.data {
		if c == byte(End) {
			return b.data[:i]
		}
	}
	return b.data
}

// Raw returns the stored bytes including the sentinel if sealed.
func (b *Buffer) Raw() []byte {
	return b.data
}

// Len is the payload length.
func (b *Buffer) Len() int {
	return len(b.Bytes())
}

// Cap is the capacity including the sentinel.
func (b *Buffer) Cap() int {
	return b.capacity
}

// Sealed reports whether the sentinel is in place.
func (b *Buffer) Sealed() bool {
	return b.sealed
}

// Dropped counts payload bytes rejected because the buffer was full.
func (b *Buffer) Dropped() int {
	return b.dropped
}
