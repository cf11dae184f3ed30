package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler consumes a single published event.
type Handler func(event any)

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

// Bus is a minimal in-process publish/subscribe bus for transaction
// life-cycle events. Publishing is synchronous; handlers must not block.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Topic]map[int]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Topic]map[int]Handler),
	}
}

// Subscribe registers a handler for the given topic and returns a function
// that removes it again.
func (b *Bus) Subscribe(topic Topic, handler Handler) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}

	id := b.nextID
	b.nextID++
	b.handlers[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}

// Publish delivers the event to all handlers registered for the topic.
func (b *Bus) Publish(topic Topic, event any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[topic]))
	for _, h := range b.handlers[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	log.Trace().Str("topic", string(topic)).Int("handlers", len(handlers)).Msg("Publishing event")

	for _, h := range handlers {
		h(event)
	}
}
