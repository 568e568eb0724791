package headless

import "sync"

// Buffer is a thread-safe circular buffer for terminal output
type Buffer struct {
	data []byte
	size int
	head int
	tail int
	full bool
	mu   sync.RWMutex
}

// NewBuffer creates a circular buffer holding the last size bytes
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultScrollback
	}
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends p, overwriting the oldest bytes when full
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if n >= b.size {
		copy(b.data, p[n-b.size:])
		b.head, b.tail, b.full = 0, 0, true
		return n, nil
	}

	for _, c := range p {
		b.data[b.tail] = c
		b.tail = (b.tail + 1) % b.size
		if b.full {
			b.head = b.tail
		} else if b.tail == b.head {
			b.full = true
		}
	}
	return n, nil
}

// ReadAll returns a copy of the buffered bytes, oldest first
func (b *Buffer) ReadAll() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := b.lenLocked()
	out := make([]byte, n)
	if n == 0 {
		return out
	}
	if b.head < b.tail {
		copy(out, b.data[b.head:b.tail])
		return out
	}
	// wrapped
	k := copy(out, b.data[b.head:])
	copy(out[k:], b.data[:b.tail])
	return out
}

// Len returns the number of buffered bytes
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lenLocked()
}

func (b *Buffer) lenLocked() int {
	if b.full {
		return b.size
	}
	if b.tail >= b.head {
		return b.tail - b.head
	}
	return b.size - b.head + b.tail
}

// Reset drops all buffered bytes
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head, b.tail, b.full = 0, 0, false
}
