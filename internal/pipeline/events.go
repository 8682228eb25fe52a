package pipeline

import (
	"sync"
	"time"
)

// Pipeline stage names published on the event bus
const (
	StageUniverse   = "universe"
	StageFeatures   = "features"
	StageCandidates = "candidates"
	StageDecisions  = "decisions"
	StageReport     = "report"
)

// Event is one progress notification from a running pipeline
type Event struct {
	RunID   string    `json:"run_id"`
	Stage   string    `json:"stage"`
	Symbol  string    `json:"symbol,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// EventBus fans pipeline progress out to subscribers (websocket watchers,
// tests). Publishing never blocks: a slow subscriber loses events rather than
// stalling the run.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a listener; the returned func removes it
func (b *EventBus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking
func (b *EventBus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
