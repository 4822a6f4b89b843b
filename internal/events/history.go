package events

import (
	"context"
	"sync"
)

// DefaultHistorySize is used when NewHistory receives a non-positive capacity.
const DefaultHistorySize = 100

// History is an EventHandler keeping the most recent events in memory.
type History struct {
	mu     sync.RWMutex
	buf    []*Event
	next   int
	filled bool
}

// NewHistory creates a History holding at most capacity events.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{buf: make([]*Event, capacity)}
}

// HandleEvent implements EventHandler. The oldest event is evicted when full.
func (h *History) HandleEvent(_ context.Context, event *Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = event
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.filled = true
	}
	return nil
}

// Recent returns up to limit events, newest first, optionally restricted to
// eventType. A non-positive limit returns everything retained.
func (h *History) Recent(limit int, eventType string) []*Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	size := h.next
	if h.filled {
		size = len(h.buf)
	}

	result := make([]*Event, 0, size)
	for i := 1; i <= size; i++ {
		event := h.buf[(h.next-i+len(h.buf))%len(h.buf)]
		if eventType != "" && event.Type != eventType {
			continue
		}
		result = append(result, event)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}
