// Package sse fans out run events to server-sent-event subscribers.
package sse

import "sync"

// Buffer is the per-subscriber channel capacity.
const Buffer = 64

// Hub routes messages by topic (a run id) to its subscribers.
type Hub struct {
	mu     sync.Mutex
	topics map[string][]chan string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: map[string][]chan string{}}
}

// Subscribe registers a subscriber on topic and returns its channel and an
// unsubscribe function.
func (h *Hub) Subscribe(topic string) (<-chan string, func()) {
	ch := make(chan string, Buffer)

	h.mu.Lock()
	h.topics[topic] = append(h.topics[topic], ch)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			list := h.topics[topic]
			for i, c := range list {
				if c == ch {
					h.topics[topic] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(h.topics[topic]) == 0 {
				delete(h.topics, topic)
			}
		})
	}

	return ch, cancel
}

// Publish sends msg to every subscriber of topic. Subscribers with a full
// buffer miss the message. It reports how many received it.
func (h *Hub) Publish(topic, msg string) int {
	h.mu.Lock()
	list := append([]chan string(nil), h.topics[topic]...)
	h.mu.Unlock()

	sent := 0
	for _, ch := range list {
		select {
		case ch <- msg:
			sent++
		default:
		}
	}
	return sent
}

// Subscribers counts the subscribers of topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}
