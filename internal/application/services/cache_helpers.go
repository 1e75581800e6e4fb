package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

const (
	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupError = "error"
)

// cacheGet decodes the entry for key into T. Backend errors and undecodable
// payloads are reported as a miss so the caller falls back to the store.
func cacheGet[T any](ctx context.Context, c ports.Cache, logger *logrus.Logger, key string) (T, bool, string) {
	var zero T
	if c == nil {
		return zero, false, lookupMiss
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil {
		logger.WithFields(logrus.Fields{"cache_key": key}).WithError(err).Warn("cache get failed; reading from store")
		return zero, false, lookupError
	}
	if !ok {
		return zero, false, lookupMiss
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		logger.WithFields(logrus.Fields{"cache_key": key}).WithError(err).Warn("cache entry undecodable; reading from store")
		return zero, false, lookupError
	}
	return v, true, lookupHit
}

func cacheSetSilently(ctx context.Context, c ports.Cache, logger *logrus.Logger, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		logger.WithFields(logrus.Fields{"cache_key": key}).WithError(err).Warn("cache encode failed")
		return
	}
	if err := c.Set(ctx, key, b, ports.Expiry{Absolute: ttl}); err != nil {
		logger.WithFields(logrus.Fields{"cache_key": key}).WithError(err).Warn("cache set failed")
	}
}

// cacheRemoveAll removes keys, retrying each failed removal once. Entries that
// still cannot be removed expire on their own TTL.
func cacheRemoveAll(ctx context.Context, c ports.Cache, logger *logrus.Logger, keys []string) {
	if c == nil {
		return
	}
	for _, key := range keys {
		err := c.Remove(ctx, key)
		if err != nil {
			err = c.Remove(ctx, key)
		}
		if err != nil {
			logger.WithFields(logrus.Fields{"cache_key": key}).WithError(err).Error("cache invalidation failed; entry stays until TTL")
		}
	}
}
