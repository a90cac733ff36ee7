// Package ring provides the bounded receive queue shared by the host drivers.
// One goroutine may push while another pops.
package ring

import "sync"

const DefaultCapacity = 64

// Buffer is a fixed-capacity FIFO of payloads. When full, pushing overwrites
// the oldest entry to keep memory bounded.
type Buffer struct {
	mu         sync.Mutex
	data       [][]byte
	head, tail int // head = next pop, tail = next push
	count      int
	dropped    uint64
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([][]byte, capacity)}
}

// Push stores a copy of frame.
func (rb *Buffer) Push(frame []byte) {
	cp := make([]byte, len(frame))
	copy(cp, frame)

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == len(rb.data) {
		rb.data[rb.head] = nil
		rb.head = (rb.head + 1) % len(rb.data)
		rb.count--
		rb.dropped++
	}
	rb.data[rb.tail] = cp
	rb.tail = (rb.tail + 1) % len(rb.data)
	rb.count++
}

// Pop removes and returns the oldest frame.
func (rb *Buffer) Pop() ([]byte, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == 0 {
		return nil, false
	}
	frame := rb.data[rb.head]
	rb.data[rb.head] = nil
	rb.head = (rb.head + 1) % len(rb.data)
	rb.count--
	return frame, true
}

func (rb *Buffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Dropped returns how many frames were overwritten before being popped.
func (rb *Buffer) Dropped() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// Snapshot returns copies of the queued frames, oldest first, without
// removing them.
func (rb *Buffer) Snapshot() [][]byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([][]byte, rb.count)
	i := rb.head
	for c := 0; c < rb.count; c++ {
		p := rb.data[i]
		cp := make([]byte, len(p))
		copy(cp, p)
		out[c] = cp
		i = (i + 1) % len(rb.data)
	}
	return out
}
