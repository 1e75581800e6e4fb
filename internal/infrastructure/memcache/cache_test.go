package memcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newCache() (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewWithClock(clk.Now), clk
}

func TestCache_AbsoluteExpiry(t *testing.T) {
	c, clk := newCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "inv:1", []byte("v"), ports.Expiry{Absolute: 5 * time.Minute}))

	v, ok, err := c.Get(ctx, "inv:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	clk.Advance(5 * time.Minute)
	_, ok, err = c.Get(ctx, "inv:1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestCache_SlidingExpiryRefreshesOnRead(t *testing.T) {
	c, clk := newCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), ports.Expiry{Sliding: time.Minute}))

	for i := 0; i < 5; i++ {
		clk.Advance(50 * time.Second)
		_, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok, "read %d", i)
	}

	clk.Advance(61 * time.Second)
	_, ok, _ := c.Get(ctx, "k")
	require.False(t, ok)
}

func TestCache_SlidingNeverPassesAbsolute(t *testing.T) {
	c, clk := newCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), ports.Expiry{Absolute: 90 * time.Second, Sliding: time.Minute}))

	clk.Advance(50 * time.Second)
	_, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)

	clk.Advance(45 * time.Second)
	_, ok, _ = c.Get(ctx, "k")
	require.False(t, ok)
}

func TestCache_RemoveAlwaysAbsent(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()

	require.NoError(t, c.Remove(ctx, "missing"))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), ports.Expiry{Absolute: time.Minute}))
	require.NoError(t, c.Remove(ctx, "k"))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_SetReplacesPolicy(t *testing.T) {
	c, clk := newCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("old"), ports.Expiry{Absolute: time.Second}))
	require.NoError(t, c.Set(ctx, "k", []byte("new"), ports.Expiry{Absolute: time.Hour}))

	clk.Advance(time.Minute)
	v, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("new"), v)
}

func TestCache_ReturnsCopy(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, ports.Expiry{}))
	buf[0] = 'z'

	v, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("abc"), v)
}

func TestCache_CancelledContext(t *testing.T) {
	c, _ := newCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}
