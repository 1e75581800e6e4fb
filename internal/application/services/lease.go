package services

import (
	"context"
	"sync"
)

// KeyedLease grants exclusive, context-aware leases per key. Slots are
// reference counted and dropped once no holder or waiter remains.
type KeyedLease struct {
	mu    sync.Mutex
	slots map[string]*leaseSlot
}

type leaseSlot struct {
	ch   chan struct{}
	refs int
}

func NewKeyedLease() *KeyedLease {
	return &KeyedLease{slots: make(map[string]*leaseSlot)}
}

// Acquire blocks until the lease for key is free or ctx is done. The returned
// release func is safe to call more than once.
func (l *KeyedLease) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &leaseSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.drop(key, s)
		})
	}, nil
}

func (l *KeyedLease) drop(key string, s *leaseSlot) {
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

func (l *KeyedLease) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
