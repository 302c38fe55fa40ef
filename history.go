package main

import (
	"sync"

	"github.com/tusharrohilla/ringhistory/ringbuffer"
)

// History is the per-topic message backlog. The ring buffer itself holds no
// lock, so every access goes through mu.
type History struct {
	mu  sync.RWMutex
	buf *ringbuffer.RingBuffer[Message]
}

func NewHistory(size int) (*History, error) {
	buf, err := ringbuffer.New[Message](size)
	if err != nil {
		return nil, err
	}
	return &History{buf: buf}, nil
}

func (h *History) Add(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.Append(m)
}

// LastN returns up to n of the newest messages, oldest first.
func (h *History) LastN(n int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buf.Last(n)
}

func (h *History) All() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buf.Snapshot()
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.Clear()
}

// Stats returns the current size and fixed capacity.
func (h *History) Stats() (size, capacity int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buf.Len(), h.buf.Cap()
}
