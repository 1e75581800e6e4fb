package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

const DefaultCacheTTL = 5 * time.Minute

// QueryOrchestrator is the read-through path: cache first, then the store,
// then populate the cache. Concurrent misses on one key share a single load.
type QueryOrchestrator struct {
	cache   ports.Cache
	ttl     time.Duration
	metrics ports.CoreMetrics
	logger  *logrus.Logger
	group   singleflight.Group
}

func NewQueryOrchestrator(cache ports.Cache, ttl time.Duration, metrics ports.CoreMetrics, logger *logrus.Logger) *QueryOrchestrator {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &QueryOrchestrator{cache: cache, ttl: ttl, metrics: metricsOrNoop(metrics), logger: loggerOrDiscard(logger)}
}

// RunQuery returns the cached value for key, or loads it and caches it. A
// failed load is never cached.
func RunQuery[T any](ctx context.Context, q *QueryOrchestrator, key, source string, load func(ctx context.Context) (T, error)) result.Result[T] {
	v, ok, outcome := cacheGet[T](ctx, q.cache, q.logger, key)
	q.metrics.CacheLookup(outcome)
	if ok {
		return result.Success(v)
	}

	// waiters share this load, so it runs detached from the caller that started it
	shared := context.WithoutCancel(ctx)
	ch := q.group.DoChan(key, func() (any, error) {
		if v, ok, _ := cacheGet[T](shared, q.cache, q.logger, key); ok {
			return v, nil
		}
		loaded, err := load(shared)
		if err != nil {
			return nil, err
		}
		cacheSetSilently(shared, q.cache, q.logger, key, loaded, q.ttl)
		return loaded, nil
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return result.FromError[T](ctx.Err(), source)
	case r = <-ch:
	}
	res, err := r.Val, r.Err
	if err != nil {
		if result.KindOf(err) == result.KindException {
			q.logger.WithFields(logrus.Fields{"cache_key": key, "source": source}).WithError(err).Error("query failed")
		}
		return result.FromError[T](err, source)
	}
	out, ok := res.(T)
	if !ok {
		return result.FromError[T](fmt.Errorf("unexpected type %T from shared load", res), source)
	}
	return result.Success(out)
}
