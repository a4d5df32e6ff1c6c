package event

import (
	"sync"

	"github.com/plinth-io/plinth/pkg/safe"
)

// Bus is an in-process publish/subscribe bus. Handlers are invoked on
// their own goroutines so a slow subscriber cannot stall the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for the named event.
func (b *Bus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// SubscribeFunc registers a function handler for the named event.
func (b *Bus) SubscribeFunc(eventName string, f func(Event)) {
	b.Subscribe(eventName, HandlerFunc(f))
}

// Publish delivers the event to every subscribed handler asynchronously.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.EventName()]))
	copy(handlers, b.handlers[event.EventName()])
	b.mu.RUnlock()

	for _, h := range handlers {
		h := h
		safe.Go(func() { h.Handle(event) })
	}
}
