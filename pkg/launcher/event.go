package launcher

import (
	"sync"
	"time"
)

// EventKind identifies the type of launcher event.
type EventKind string

const (
	EventOutputMessage  EventKind = "output_message"
	EventOutputHeader   EventKind = "output_header"
	EventOutputProgress EventKind = "output_progress"
	EventAuthPrompt     EventKind = "auth_prompt"
	EventStateChanged   EventKind = "state_changed"
	EventLaunchError    EventKind = "launch_error"
	EventGameFinished   EventKind = "game_finished"
	EventBundlesChanged EventKind = "bundles_changed"
)

// Event is an immutable notification of launcher activity.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// TextData is the payload of output_message, output_header and launch_error.
type TextData struct {
	Text string `json:"text"`
}

// ProgressData is the payload of output_progress.
type ProgressData struct {
	Label   string `json:"label"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// AuthPromptData is the payload of auth_prompt.
type AuthPromptData struct {
	URL  string `json:"url"`
	Code string `json:"code"`
}

// StateData is the payload of state_changed and game_finished.
type StateData struct {
	BundleID string `json:"bundle_id"`
	State    State  `json:"state"`
	Error    string `json:"error,omitempty"`
}

// Terminal reports whether events of this kind end a session's stream.
// The bus makes room for them in a full subscriber buffer instead of
// dropping them.
func (k EventKind) Terminal() bool {
	return k == EventLaunchError || k == EventGameFinished
}

// Subscription is one frontend's view of the bus. Read from C until it is
// closed by Unsubscribe.
type Subscription struct {
	C <-chan Event

	queue chan Event
}

// EventBus delivers launcher events to every subscribed frontend. Publishing
// never blocks: a subscriber that falls behind loses output events, but
// still receives terminal ones. It is safe for concurrent use.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: map[*Subscription]struct{}{}}
}

// Subscribe registers a subscriber that buffers up to size events.
func (b *EventBus) Subscribe(size int) *Subscription {
	queue := make(chan Event, size)
	sub := &Subscription{C: queue, queue: queue}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe closes sub.C. Calling it twice is harmless.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub.queue)
}

// Publish stamps e and offers it to every subscriber.
func (b *EventBus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		sub.offer(e)
	}
}

// offer queues e without blocking. A terminal event evicts the oldest
// queued events until it fits.
func (s *Subscription) offer(e Event) {
	select {
	case s.queue <- e:
		return
	default:
	}
	if !e.Kind.Terminal() {
		return
	}

	for range cap(s.queue) {
		select {
		case <-s.queue:
		default:
		}
		select {
		case s.queue <- e:
			return
		default:
		}
	}
}
