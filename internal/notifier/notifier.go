// Package notifier fans out claim state changes to subscribed clients.
// The coordinator publishes after every committed transition so UIs
// converge without polling. The hub holds no durable state: a
// subscriber that reconnects (or detects a version gap) resyncs from
// the catalog read.
package notifier

import (
	"sync"

	"github.com/expocenter/stand-reservation/internal/model"
)

// Event describes one accepted claim transition. Per stand, versions
// are strictly increasing by one; a subscriber that observes a gap
// must discard the event and re-read the catalog instead of trying to
// reorder.
type Event struct {
	StandID   string            `json:"stand_id"`
	OldStatus model.ClaimStatus `json:"old_status"`
	NewStatus model.ClaimStatus `json:"new_status"`
	Version   uint64            `json:"version"`
}

// Publisher is the sink the coordinator and sweeper publish into.
// Implemented by Hub and, when Redis is configured, by Bridge.
type Publisher interface {
	Publish(ev Event)
}

// Hub is an in-process subscriber registry with channel fan-out.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
}

// NewHub returns a Hub whose subscriber channels buffer the given
// number of events. A buffer of at least a few dozen keeps a briefly
// slow SSE writer from losing events during normal traffic.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking the
// publishing request. A subscriber whose buffer is full misses the
// event; the resulting version gap triggers its resync, so dropping
// here is safe.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
