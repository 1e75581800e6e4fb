package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/vehicle-trading/go/internal/application/services"
	tmocks "github.com/avatarctic/vehicle-trading/go/test/mocks"
)

func TestRateLimiter_BurstThenReject(t *testing.T) {
	repo := &tmocks.RateLimitRepositoryMock{}
	rl := services.NewRateLimiterService(repo, &services.RateLimiterConfig{DefaultRequestsPerMinute: 2, BurstMultiplier: 1.5, Window: time.Minute}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, limit, _, err := rl.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, 2, limit)
		require.Equal(t, 2-i, remaining)
	}
	allowed, remaining, _, _, err := rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	// other clients have their own window
	allowed, _, _, _, err = rl.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRateLimiter_StoreErrorFailsOpen(t *testing.T) {
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
		require.Equal(t, "ratelimit:client", keyPrefix)
		require.Equal(t, 2*window, ttl)
		return 0, time.Now().Truncate(window), errors.New("connection refused")
	}}
	rl := services.NewRateLimiterService(repo, nil, nil)

	allowed, _, limit, _, err := rl.Allow(context.Background(), "10.0.0.1")
	require.Error(t, err)
	require.True(t, allowed)
	require.Equal(t, 120, limit)
}
