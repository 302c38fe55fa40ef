// Package ringbuffer provides a fixed-capacity circular buffer that
// overwrites its oldest element once full.
//
// A RingBuffer is not safe for concurrent use. Callers sharing one across
// goroutines must serialize every call behind their own lock.
package ringbuffer

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned by New when the capacity is not positive.
var ErrInvalidArgument = errors.New("invalid argument")

// RingBuffer keeps the last Cap() appended values in insertion order.
type RingBuffer[T any] struct {
	data  []T
	head  int // oldest element
	tail  int // next write position
	count int
}

// New returns an empty buffer holding at most capacity elements.
func New[T any](capacity int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be a positive integer, got %d", ErrInvalidArgument, capacity)
	}
	return &RingBuffer[T]{data: make([]T, capacity)}, nil
}

// Append stores item as the newest element. On a full buffer the oldest
// element is overwritten.
func (r *RingBuffer[T]) Append(item T) {
	r.data[r.tail] = item
	r.tail = (r.tail + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
		return
	}
	r.head = (r.head + 1) % len(r.data)
}

// Snapshot returns a copy of the elements, oldest first. The result never
// aliases the buffer's storage.
func (r *RingBuffer[T]) Snapshot() []T {
	out := make([]T, r.count)
	r.copyRange(out, r.head, r.count)
	return out
}

// Last returns a copy of the newest n elements, oldest first.
func (r *RingBuffer[T]) Last(n int) []T {
	if n <= 0 {
		return []T{}
	}
	if n > r.count {
		n = r.count
	}
	out := make([]T, n)
	r.copyRange(out, r.index(r.count-n), n)
	return out
}

// copyRange copies n logical elements starting at storage index start.
// The live region wraps when it runs past the end of storage; head and tail
// alone cannot tell, since they are equal both when empty and when full.
func (r *RingBuffer[T]) copyRange(dst []T, start, n int) {
	if start+n <= len(r.data) {
		copy(dst, r.data[start:start+n])
		return
	}
	k := copy(dst, r.data[start:])
	copy(dst[k:], r.data[:n-k])
}

// At returns the i-th element counting from the oldest.
func (r *RingBuffer[T]) At(i int) (T, bool) {
	if i < 0 || i >= r.count {
		var zero T
		return zero, false
	}
	return r.data[r.index(i)], true
}

func (r *RingBuffer[T]) index(i int) int {
	return (r.head + i) % len(r.data)
}

// Clear drops every element. Storage is zeroed so nothing stays reachable.
func (r *RingBuffer[T]) Clear() {
	clear(r.data)
	r.head, r.tail, r.count = 0, 0, 0
}

func (r *RingBuffer[T]) IsEmpty() bool { return r.count == 0 }

func (r *RingBuffer[T]) IsFull() bool { return r.count == len(r.data) }

// Len returns the number of stored elements.
func (r *RingBuffer[T]) Len() int { return r.count }

// Cap returns the fixed capacity.
func (r *RingBuffer[T]) Cap() int { return len(r.data) }
