package telemetry

import (
	"context"
	"sync"
	"time"
)

// Event is one named show event with its session and timing context.
type Event struct {
	Sequence     uint64         `json:"seq,omitempty"`
	SessionID    string         `json:"sessionId"`
	Name         string         `json:"event"`
	Timestamp    time.Time      `json:"ts"`
	RelativeTime int64          `json:"relativeTime"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// EventSink receives every published event (for persistence, etc.).
type EventSink interface {
	Append(Event)
}

// Hub stores the most recent events and wakes waiters when new events
// arrive. It backs both the local inspection buffer and the long-poll
// event stream.
type Hub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
	sinks    []EventSink
}

// DefaultHubCapacity caps the inspection buffer at the most recent 100
// events.
const DefaultHubCapacity = 100

// NewHub constructs a bounded in-memory event buffer.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultHubCapacity
	}
	h := &Hub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// AddSink wires an additional sink that receives every published event.
func (h *Hub) AddSink(sink EventSink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Publish appends an event, evicting the oldest once full.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	sinks := append([]EventSink(nil), h.sinks...)
	h.cond.Broadcast()
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
}

// Fetch returns events with sequence greater than since. When wait is
// true it blocks until at least one event is available or the context
// ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, ctxErr(ctx)
		}
		if err := ctxErr(ctx); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
		if err := ctxErr(ctx); err != nil {
			return nil, next, err
		}
	}
}

// Tail returns the most recent limit events without blocking.
func (h *Hub) Tail(limit int) []Event {
	if h == nil {
		return nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buffer) == 0 {
		return nil
	}
	start := len(h.buffer) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(h.buffer)-start)
	copy(out, h.buffer[start:])
	return out
}

func (h *Hub) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	if len(h.buffer) == 0 {
		return nil, h.nextSeq
	}
	startIdx := -1
	for i, evt := range h.buffer {
		if evt.Sequence > since {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return nil, h.nextSeq
	}
	end := startIdx + limit
	if end > len(h.buffer) {
		end = len(h.buffer)
	}
	out := make([]Event, end-startIdx)
	copy(out, h.buffer[startIdx:end])
	return out, h.nextSeq
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
