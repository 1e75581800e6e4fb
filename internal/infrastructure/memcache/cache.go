// Package memcache is an in-process ports.Cache with the same expiry
// semantics as the Redis backend. It is meant for single-instance
// deployments and tests.
package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

type entry struct {
	value    []byte
	deadline time.Time // absolute; zero when unset
	sliding  time.Duration
	expires  time.Time // next eviction point; zero means never
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock builds a cache that reads time from now.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{entries: make(map[string]*entry), now: now}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	now := c.now()
	if !e.expires.IsZero() && !now.Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	if e.sliding > 0 {
		e.expires = now.Add(e.sliding)
		if !e.deadline.IsZero() && e.deadline.Before(e.expires) {
			e.expires = e.deadline
		}
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, exp ports.Expiry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := c.now()
	e := &entry{value: append([]byte(nil), value...), sliding: exp.Sliding}
	if exp.Absolute > 0 {
		e.deadline = now.Add(exp.Absolute)
		e.expires = e.deadline
	}
	if exp.Sliding > 0 {
		if s := now.Add(exp.Sliding); e.expires.IsZero() || s.Before(e.expires) {
			e.expires = s
		}
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, including ones that have
// expired but not yet been read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
