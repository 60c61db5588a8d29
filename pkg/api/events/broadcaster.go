// Package events fans memory and quiz changes out to in-process subscribers.
package events

import (
	"sync"
	"time"

	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/quiz"
)

// Event types.
const (
	TypeMemoryCreated = "memory.created"
	TypeMemoryUpdated = "memory.updated"
	TypeMemoryDeleted = "memory.deleted"
	TypeQuizAnswered  = "quiz.answered"
)

// Event is the payload delivered to subscribers. ContainerTag scopes it to
// one user.
type Event struct {
	Type         string    `json:"type"`
	ContainerTag string    `json:"containerTag"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload"`

	// Origin is set on events relayed from another instance.
	Origin string `json:"-"`
}

// Broadcaster delivers events to buffered subscriber channels. Slow
// subscribers lose events rather than blocking publishers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
	now         func() time.Time
}

// NewBroadcaster creates a broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
		now:         time.Now,
	}
}

// Subscribe returns a channel receiving every subsequent event.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast delivers event to all subscribers without blocking.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// MemoryPayload is the body of memory.* events.
type MemoryPayload struct {
	ID       string      `json:"id"`
	Type     memory.Type `json:"type,omitempty"`
	Reviewed bool        `json:"reviewed"`
}

// MemoryChanged emits a memory.* event for r.
func (b *Broadcaster) MemoryChanged(eventType string, r *memory.Record) {
	if r == nil {
		return
	}
	b.Broadcast(Event{
		Type:         eventType,
		ContainerTag: r.ContainerTag,
		Payload: MemoryPayload{
			ID:       r.ID,
			Type:     r.Metadata.Type,
			Reviewed: r.Metadata.Reviewed,
		},
	})
}

// MemoryDeleted emits memory.deleted for an id.
func (b *Broadcaster) MemoryDeleted(containerTag, id string) {
	b.Broadcast(Event{
		Type:         TypeMemoryDeleted,
		ContainerTag: containerTag,
		Payload:      MemoryPayload{ID: id},
	})
}

// QuizAnswered emits quiz.answered with the updated retention figures.
func (b *Broadcaster) QuizAnswered(containerTag string, outcome quiz.Outcome) {
	b.Broadcast(Event{
		Type:         TypeQuizAnswered,
		ContainerTag: containerTag,
		Payload:      outcome,
	})
}

// Close closes all subscriber channels. Later subscriptions are closed
// immediately.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}
