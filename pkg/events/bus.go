// Package events provides in-process publish/subscribe for run lifecycle
// events. Subscribers with a filter only receive the listed types; slow
// subscribers drop events rather than block the publisher.
package events

import (
	"sync"
	"time"
)

// maxRetained bounds the in-memory event history.
const maxRetained = 1024

// Bus provides publish/subscribe for run events.
type Bus interface {
	Publish(event Event)
	Subscribe(filter ...EventType) <-chan Event
	Unsubscribe(ch <-chan Event)
	Recent(n int) []Event
}

type subscriber struct {
	ch     chan Event
	filter map[EventType]bool // empty means all events
}

// MemoryBus is an in-memory implementation of Bus.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	retained    []Event
}

// NewMemoryBus creates a new in-memory event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		retained: make([]Event, 0, 256),
	}
}

func (b *MemoryBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.retained = append(b.retained, event)
	if len(b.retained) > maxRetained {
		b.retained = b.retained[len(b.retained)-maxRetained:]
	}
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, sub := range subs {
		if len(sub.filter) > 0 && !sub.filter[event.Type] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Drop event if subscriber is slow; avoids blocking the publisher.
		}
	}
}

func (b *MemoryBus) Subscribe(filter ...EventType) <-chan Event {
	ch := make(chan Event, 64)
	sub := subscriber{ch: ch}
	if len(filter) > 0 {
		sub.filter = make(map[EventType]bool, len(filter))
		for _, f := range filter {
			sub.filter[f] = true
		}
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	return ch
}

func (b *MemoryBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub.ch == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Recent returns up to n of the most recent events, oldest first.
func (b *MemoryBus) Recent(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > len(b.retained) {
		n = len(b.retained)
	}
	out := make([]Event, n)
	copy(out, b.retained[len(b.retained)-n:])
	return out
}
