package ringbuffer

import "iter"

// All yields the elements oldest first. The traversal covers the Len()
// elements present when it starts; appending or clearing while it runs
// gives unspecified results.
func (r *RingBuffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		head, n := r.head, r.count
		for i := 0; i < n; i++ {
			if !yield(r.data[(head+i)%len(r.data)]) {
				return
			}
		}
	}
}

// Backward yields the elements newest first, with the same caveats as All.
func (r *RingBuffer[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		head, n := r.head, r.count
		for i := n - 1; i >= 0; i-- {
			if !yield(r.data[(head+i)%len(r.data)]) {
				return
			}
		}
	}
}
