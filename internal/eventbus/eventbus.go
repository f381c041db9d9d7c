// ABOUTME: Typed fan-out bus carrying install progress from workers to observers
// ABOUTME: Delivery follows subscription order; a nil bus discards events

package eventbus

import (
	"sync"
	"sync/atomic"
)

// Handler receives one event. It runs on the publisher's goroutine.
type Handler[T any] func(T)

type subscriber[T any] struct {
	id int
	fn Handler[T]
}

// Bus delivers events to its subscribers. Workers may publish concurrently.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    []subscriber[T]
	nextID  int
	dropped atomic.Int64
}

// New creates an empty bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus[T]) Subscribe(fn Handler[T]) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber[T]{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Forward subscribes a channel. Events that would block are dropped and
// counted so a slow renderer never stalls a download worker.
func (b *Bus[T]) Forward(ch chan<- T) func() {
	return b.Subscribe(func(ev T) {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	})
}

// Publish delivers ev to every subscriber in subscription order.
func (b *Bus[T]) Publish(ev T) {
	if b == nil {
		return
	}
	b.mu.RLock()
	// copy so handlers may unsubscribe while being called
	snapshot := make([]Handler[T], len(b.subs))
	for i, s := range b.subs {
		snapshot[i] = s.fn
	}
	b.mu.RUnlock()

	for _, fn := range snapshot {
		fn(ev)
	}
}

// Count returns the number of subscribers.
func (b *Bus[T]) Count() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many events Forward discarded.
func (b *Bus[T]) Dropped() int64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}
