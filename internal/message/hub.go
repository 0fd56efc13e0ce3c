package message

import (
	"sync"
	"sync/atomic"
)

// Hub fans out new messages to the recipient's live subscriptions.
// Publishing never blocks: a subscriber whose buffer is full misses the
// message and has to catch up through the conversation endpoints.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[chan *Message]struct{}
	buffer  int
	dropped atomic.Int64
}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[string]map[chan *Message]struct{}), buffer: buffer}
}

// Subscribe registers a subscription for userID. The returned function
// removes it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan *Message, func()) {
	ch := make(chan *Message, h.buffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan *Message]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
		})
	}
}

// Publish delivers m to every subscription of its recipient.
func (h *Hub) Publish(m *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[m.RecipientID] {
		select {
		case ch <- m:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of live subscriptions of userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
