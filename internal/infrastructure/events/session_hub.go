package events

import (
	"sync"
	"time"

	"minimarket/internal/domain/entity"
	"minimarket/internal/platform/metrics"
	"minimarket/pkg/logger"
)

// SessionHub fans auth state changes out to subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type SessionHub struct {
	mu      sync.RWMutex
	subs    map[int]chan entity.AuthEvent
	nextID  int
	closed  bool
	metrics *metrics.MetricsManager
}

func NewSessionHub(m *metrics.MetricsManager) *SessionHub {
	return &SessionHub{
		subs:    make(map[int]chan entity.AuthEvent),
		metrics: m,
	}
}

func (h *SessionHub) Publish(event entity.AuthEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if h.metrics != nil {
		h.metrics.AuthEventsTotal.WithLabelValues(string(event.Type)).Inc()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			logger.Warn("session subscriber %d is behind, dropped %s", id, event.Type)
		}
	}
}

// Subscribe returns a stream of events and the function that releases it.
// After Close the stream is already closed.
func (h *SessionHub) Subscribe(buffer int) (<-chan entity.AuthEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan entity.AuthEvent, buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Close releases every subscription.
func (h *SessionHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
