package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/MakeNowJust/heredoc"

	"github.com/tusharrohilla/ringhistory/ringbuffer"
)

var usage = heredoc.Doc(`
	Usage: ringdemo [-capacity N] [-n COUNT]

	Appends 1..COUNT to a ring buffer of the given capacity and prints the
	buffer after every append. Once the buffer is full each append overwrites
	the oldest value.

	Flags:
`)

func main() {
	log.SetFlags(0)
	capacity := flag.Int("capacity", 5, "ring buffer capacity")
	n := flag.Int("n", 6, "number of values to append")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(os.Stdout, *capacity, *n); err != nil {
		log.Fatalf("ringdemo: %v", err)
	}
}

func run(w io.Writer, capacity, n int) error {
	rb, err := ringbuffer.New[int](capacity)
	if err != nil {
		return err
	}
	for v := 1; v <= n; v++ {
		rb.Append(v)
		fmt.Fprintln(w, rb)
	}
	fmt.Fprintf(w, "snapshot: %v\n", rb.Snapshot())
	fmt.Fprintf(w, "full: %t, len: %d\n", rb.IsFull(), rb.Len())
	return nil
}
