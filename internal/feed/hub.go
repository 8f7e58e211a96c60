package feed

import "sync"

// Subscription is one receiver's buffered view of the hub's stream.
type Subscription[T any] struct {
	ch chan T
}

func (s *Subscription[T]) C() <-chan T { return s.ch }

// Hub fans one stream of values out to any number of subscribers.
// Slow subscribers drop values rather than block the publisher.
type Hub[T any] struct {
	mu   sync.RWMutex
	subs map[*Subscription[T]]struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

func (h *Hub[T]) Subscribe(buffer int) *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan T, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub[T]) Unsubscribe(sub *Subscription[T]) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	h.mu.Unlock()
}

func (h *Hub[T]) Broadcast(value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- value:
		default:
		}
	}
}
