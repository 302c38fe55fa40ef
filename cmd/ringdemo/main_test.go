package main

import (
	"bytes"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharrohilla/ringhistory/ringbuffer"
)

func TestRunDefaultScenario(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(&buf, 5, 6))
	want := heredoc.Doc(`
		RingBuffer([1]) with capacity 5, size 1
		RingBuffer([1 2]) with capacity 5, size 2
		RingBuffer([1 2 3]) with capacity 5, size 3
		RingBuffer([1 2 3 4]) with capacity 5, size 4
		RingBuffer([1 2 3 4 5]) with capacity 5, size 5
		RingBuffer([2 3 4 5 6]) with capacity 5, size 5
		snapshot: [2 3 4 5 6]
		full: true, len: 5
	`)
	assert.Equal(t, want, buf.String())
}

func TestRunInvalidCapacity(t *testing.T) {
	var buf bytes.Buffer
	err := run(&buf, 0, 3)
	require.ErrorIs(t, err, ringbuffer.ErrInvalidArgument)
	assert.Empty(t, buf.String())
}
