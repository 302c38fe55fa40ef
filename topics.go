package main

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrTopicExists   = errors.New("topic already exists")
	ErrTopicNotFound = errors.New("topic not found")
)

type TopicsManager struct {
	mu          sync.RWMutex
	topics      map[string]*Topic
	historySize int
	start       time.Time
}

type Topic struct {
	name        string
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	history     *History
	msgCount    int64
}

type Subscriber struct {
	id        string
	send      chan Message // bounded channel for backpressure
	conn      WSConn       // abstracted websocket conn
	closed    chan struct{}
	closeOnce sync.Once
}

func newSubscriber(id string, conn WSConn, queueSize int) *Subscriber {
	return &Subscriber{
		id:     id,
		send:   make(chan Message, queueSize),
		conn:   conn,
		closed: make(chan struct{}),
	}
}

// NewTopicsManager returns a manager whose topics each retain the last
// historySize messages.
func NewTopicsManager(historySize int) *TopicsManager {
	return &TopicsManager{
		topics:      make(map[string]*Topic),
		historySize: historySize,
		start:       time.Now(),
	}
}

func (tm *TopicsManager) CreateTopic(name string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if _, ok := tm.topics[name]; ok {
		return ErrTopicExists
	}
	h, err := NewHistory(tm.historySize)
	if err != nil {
		return err
	}
	tm.topics[name] = &Topic{
		name:        name,
		subscribers: make(map[string]*Subscriber),
		history:     h,
	}
	return nil
}

func (tm *TopicsManager) GetTopic(name string) (*Topic, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	t, ok := tm.topics[name]
	if !ok {
		return nil, ErrTopicNotFound
	}
	return t, nil
}

func (tm *TopicsManager) DeleteTopic(name string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	t, ok := tm.topics[name]
	if !ok {
		return ErrTopicNotFound
	}
	// disconnect all subscribers
	t.mu.Lock()
	for _, sub := range t.subscribers {
		sub.Close()
	}
	t.mu.Unlock()
	t.history.Clear()
	delete(tm.topics, name)
	return nil
}

// Publish records m in the topic history and fans it out. Subscribers whose
// queue is full are disconnected and returned.
func (tm *TopicsManager) Publish(name string, m Message) ([]*Subscriber, error) {
	t, err := tm.GetTopic(name)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history.Add(m)
	var dropped []*Subscriber
	for id, s := range t.subscribers {
		select {
		case s.send <- m:
		default:
			dropped = append(dropped, s)
			delete(t.subscribers, id)
		}
	}
	t.msgCount++
	return dropped, nil
}

// SubscribeWithReplay queues the newest lastN history messages on sub and
// registers it in one step, replacing any subscriber with the same id, so no publish falls between replay and live
// delivery. It reports false, leaving sub unregistered, if the replay does
// not fit in sub's queue.
func (t *Topic) SubscribeWithReplay(sub *Subscriber, lastN int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if lastN > 0 && !sub.replay(t.history.LastN(lastN)) {
		return false
	}
	if old, ok := t.subscribers[sub.id]; ok {
		old.Close()
	}
	t.subscribers[sub.id] = sub
	return true
}

// detach removes sub only if it is still the registered subscriber for its id.
func (t *Topic) detach(sub *Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.subscribers[sub.id]; ok && cur == sub {
		delete(t.subscribers, sub.id)
	}
}

func (tm *TopicsManager) ListTopics() []map[string]any {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	out := make([]map[string]any, 0, len(tm.topics))
	for _, t := range tm.topics {
		t.mu.RLock()
		out = append(out, map[string]any{
			"name":        t.name,
			"subscribers": len(t.subscribers),
		})
		t.mu.RUnlock()
	}
	return out
}

func (tm *TopicsManager) Health() map[string]any {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	subs := 0
	for _, t := range tm.topics {
		t.mu.RLock()
		subs += len(t.subscribers)
		t.mu.RUnlock()
	}
	return map[string]any{
		"uptime_sec":  int(time.Since(tm.start).Seconds()),
		"topics":      len(tm.topics),
		"subscribers": subs,
	}
}

func (tm *TopicsManager) Stats() map[string]any {
	stats := map[string]any{"topics": map[string]any{}}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	topics := stats["topics"].(map[string]any)
	for _, t := range tm.topics {
		size, capacity := t.history.Stats()
		t.mu.RLock()
		topics[t.name] = map[string]any{
			"messages":         t.msgCount,
			"subscribers":      len(t.subscribers),
			"history_size":     size,
			"history_capacity": capacity,
		}
		t.mu.RUnlock()
	}
	return stats
}

func (tm *TopicsManager) CloseAllGracefully(timeout time.Duration) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	for _, t := range tm.topics {
		t.mu.RLock()
		for _, sub := range t.subscribers {
			sub.CloseGracefully(timeout)
		}
		t.mu.RUnlock()
	}
}

// CloseGracefully waits up to timeout for the writer to drain the queue,
// then closes the subscriber.
func (s *Subscriber) CloseGracefully(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for len(s.send) > 0 && time.Now().Before(deadline) {
		select {
		case <-s.closed:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
	s.Close()
}
