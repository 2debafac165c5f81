// Package refresh carries cross-component refresh signals over typed topics.
// Publishers and subscribers share a *Hub explicitly; nothing is global.
package refresh

import (
	"log/slog"
	"sync"
)

// Topic names a kind of refresh signal.
type Topic string

// Topics
const (
	ScheduleSaved        Topic = "schedule_saved"
	NotificationsChanged Topic = "notifications_changed"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 16

// Event is one published signal.
type Event struct {
	Topic     Topic
	TrainerID string // ScheduleSaved
	Version   int    // ScheduleSaved
	Unread    int    // NotificationsChanged
}

// Hub fans events out to subscribers of each topic.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[Topic]map[int]chan Event
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[Topic]map[int]chan Event)}
}

// Subscribe returns a channel receiving events for topic and a cancel func.
// POST: cancel is idempotent and closes the channel
func (h *Hub) Subscribe(topic Topic) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan Event)
	}
	h.subs[topic][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[topic][id]; ok {
				delete(h.subs[topic], id)
				close(c)
			}
		})
	}
}

// Publish delivers e to every subscriber of e.Topic without blocking.
// A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs[e.Topic] {
		select {
		case ch <- e:
		default:
			slog.Debug("refresh_event_dropped", "topic", e.Topic, "subscriber", id)
		}
	}
}

// Close closes every subscriber channel. Later Subscribe calls get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for topic, subs := range h.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(h.subs, topic)
	}
}
