package common

import (
	"sync"
)

// RingBuffer keeps the last size values added.
type RingBuffer[T any] struct {
	buffer []T
	size   int
	mu     sync.Mutex
	write  int
	count  int
}

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
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.buffer[rb.write] = value
	rb.write = (rb.write + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

func (rb *RingBuffer[T]) index(i int) int {
	return (rb.write + rb.size - rb.count + i) % rb.size
}

// Get returns the contents oldest first.
func (rb *RingBuffer[T]) Get() []T {
	return rb.Tail(rb.size)
}

// Tail returns the newest n elements, oldest first.
func (rb *RingBuffer[T]) Tail(n int) []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if n > rb.count {
		n = rb.count
	}
	result := make([]T, 0, n)
	for i := rb.count - n; i < rb.count; i++ {
		result = append(result, rb.buffer[rb.index(i)])
	}
	return result
}

func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}
