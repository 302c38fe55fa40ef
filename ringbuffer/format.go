package ringbuffer

import "fmt"

// String renders the logical contents, e.g.
// "RingBuffer([1 2 3]) with capacity 5, size 3".
func (r *RingBuffer[T]) String() string {
	return fmt.Sprintf("RingBuffer(%v) with capacity %d, size %d", r.Snapshot(), r.Cap(), r.Len())
}

// GoString shows the raw storage and cursors, for %#v.
func (r *RingBuffer[T]) GoString() string {
	return fmt.Sprintf("RingBuffer(capacity=%d, size=%d, head=%d, tail=%d, buffer=%v)",
		r.Cap(), r.Len(), r.head, r.tail, r.data)
}
