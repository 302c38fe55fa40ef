package ringbuffer_test

import (
	"errors"
	"fmt"

	"github.com/tusharrohilla/ringhistory/ringbuffer"
)

func ExampleRingBuffer() {
	rb, err := ringbuffer.New[int](5)
	if err != nil {
		panic(err)
	}
	for v := 1; v <= 3; v++ {
		rb.Append(v)
	}
	fmt.Println(rb)
	rb.Append(4)
	rb.Append(5)
	fmt.Println(rb.Snapshot())
	rb.Append(6)
	fmt.Println(rb.Snapshot(), rb.IsFull())
	// Output:
	// RingBuffer([1 2 3]) with capacity 5, size 3
	// [1 2 3 4 5]
	// [2 3 4 5 6] true
}

func ExampleRingBuffer_All() {
	rb, _ := ringbuffer.New[string](2)
	rb.Append("a")
	rb.Append("b")
	rb.Append("c")
	for s := range rb.All() {
		fmt.Println(s)
	}
	// Output:
	// b
	// c
}

func ExampleNew_invalid() {
	_, err := ringbuffer.New[int](0)
	fmt.Println(errors.Is(err, ringbuffer.ErrInvalidArgument))
	// Output: true
}
