package common

// RingBuffer is a fixed-capacity FIFO buffer backed by an arena and a write cursor.
// Adding to a full buffer overwrites the oldest element.
// It is not safe for concurrent use; owners serialize access.
type RingBuffer[T any] struct {
	buffer []T
	size   int
	write  int
	count  int
}

// NewRingBuffer creates a new ring buffer with a fixed size.
// Sizes below 1 are raised to 1.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}
	return &RingBuffer[T]{
		buffer: make([]T, size),
		size:   size,
	}
}

// Add inserts a new element into the buffer, overwriting the oldest if full.
func (rb *RingBuffer[T]) Add(value T) {
	rb.buffer[rb.write] = value
	rb.write = (rb.write + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

// index maps a FIFO position (0 is oldest) to an arena index.
func (rb *RingBuffer[T]) index(i int) int {
	return (rb.write + rb.size - rb.count + i) % rb.size
}

// At returns the i'th element in FIFO order, 0 being the oldest.
// It panics if i is out of range, like a slice would.
func (rb *RingBuffer[T]) At(i int) T {
	if i < 0 || i >= rb.count {
		panic("ring buffer index out of range")
	}
	return rb.buffer[rb.index(i)]
}

// Get returns a copy of the contents of the buffer in FIFO order.
func (rb *RingBuffer[T]) Get() []T {
	result := make([]T, 0, rb.count)
	for i := 0; i < rb.count; i++ {
		result = append(result, rb.buffer[rb.index(i)])
	}
	return result
}

// Tail returns the last (last in) n elements in the buffer.
func (rb *RingBuffer[T]) Tail(n int) []T {
	if n > rb.count {
		n = rb.count
	}
	result := make([]T, 0, n)
	for i := rb.count - n; i < rb.count; i++ {
		result = append(result, rb.buffer[rb.index(i)])
	}
	return result
}

// Len returns the current number of elements in the buffer.
func (rb *RingBuffer[T]) Len() int {
	return rb.count
}

// Cap returns the fixed capacity of the buffer.
func (rb *RingBuffer[T]) Cap() int {
	return rb.size
}

// Last returns the newest element, or the zero value when empty.
func (rb *RingBuffer[T]) Last() T {
	if rb.count == 0 {
		var zero T
		return zero
	}
	return rb.buffer[(rb.write+rb.size-1)%rb.size]
}

// First returns the oldest element, or the zero value when empty.
func (rb *RingBuffer[T]) First() T {
	if rb.count == 0 {
		var zero T
		return zero
	}
	return rb.buffer[rb.index(0)]
}

// Scan calls fn for each element in FIFO order until fn returns false.
func (rb *RingBuffer[T]) Scan(fn func(T) bool) {
	for i := 0; i < rb.count; i++ {
		if !fn(rb.buffer[rb.index(i)]) {
			break
		}
	}
}

// Reset empties the buffer without releasing the arena.
func (rb *RingBuffer[T]) Reset() {
	var zero T
	for i := range rb.buffer {
		rb.buffer[i] = zero
	}
	rb.write = 0
	rb.count = 0
}
