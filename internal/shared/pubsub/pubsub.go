// Package pubsub is a small typed fan-out used for terminal events and
// session snapshots.
//
// Delivery never drops: a subscriber whose buffer is full blocks the
// publisher until it reads or cancels. Each subscriber sees values in the
// order a single publisher produced them.
package pubsub

import "sync"

// DefaultDepth is the per-subscriber buffer used when New gets depth <= 0
const DefaultDepth = 256

// Bus fans values out to every current subscriber
type Bus[T any] struct {
	mu    sync.RWMutex
	subs  map[*Subscription[T]]struct{}
	depth int
}

// New creates a bus whose subscribers buffer depth values
func New[T any](depth int) *Bus[T] {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Bus[T]{subs: make(map[*Subscription[T]]struct{}), depth: depth}
}

// Subscription receives every value published after it was created
type Subscription[T any] struct {
	bus  *Bus[T]
	ch   chan T
	done chan struct{}
	once sync.Once
}

// Subscribe registers a new subscriber
func (b *Bus[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		bus:  b,
		ch:   make(chan T, b.depth),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers v to every subscriber
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- v:
		case <-sub.done:
		}
	}
}

// Len returns the number of subscribers
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// C returns the value channel. It is closed after Cancel.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Done is closed when the subscription is cancelled
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Cancel stops delivery and releases publishers blocked on this subscriber.
// Buffered values can still be drained from C.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		close(s.done)
		// in-flight publishes hold the read lock and observe done
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}
