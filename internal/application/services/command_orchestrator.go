package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/idempotency"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

// Command describes one idempotent mutation.
type Command[T any] struct {
	IdempotencyKey string
	// ResourceType is the entity kind recorded in the ledger.
	ResourceType string
	// Operation names the mutation, e.g. "decrease". Together with Request it
	// forms the fingerprint a reused key must match.
	Operation string
	// Request is the canonical input of the mutation, including its target id.
	Request any
	// Source labels errors that carry no source of their own.
	Source string
	// Execute performs the mutation and returns the result with the id of
	// the affected entity.
	Execute func(ctx context.Context) (T, string, error)
	// Replay re-reads the entity for a key seen before. When nil, or when the
	// entity no longer exists, the stored response is returned instead.
	Replay func(ctx context.Context, resourceID string) (T, error)
	// Invalidate lists the cache keys made stale by a successful Execute.
	Invalidate func(v T) []string
}

// CommandOrchestrator runs mutations at most once per idempotency key and
// invalidates the cache entries they affect.
type CommandOrchestrator struct {
	ledger  ports.IdempotencyLedger
	cache   ports.Cache
	metrics ports.CoreMetrics
	logger  *logrus.Logger
	group   singleflight.Group
}

func NewCommandOrchestrator(ledger ports.IdempotencyLedger, cache ports.Cache, metrics ports.CoreMetrics, logger *logrus.Logger) *CommandOrchestrator {
	return &CommandOrchestrator{ledger: ledger, cache: cache, metrics: metricsOrNoop(metrics), logger: loggerOrDiscard(logger)}
}

// sharedOutcome carries the fingerprint of the request that ran, so callers
// that joined it with a different request can be told apart.
type sharedOutcome struct {
	value       any
	requestHash string
}

// RunCommand executes cmd unless its key was already recorded, in which case
// the recorded outcome is replayed. Concurrent calls with the same key in
// this process share one execution.
func RunCommand[T any](ctx context.Context, o *CommandOrchestrator, cmd Command[T]) result.Result[T] {
	if err := idempotency.ValidateKey(cmd.IdempotencyKey); err != nil {
		return result.FromError[T](err, cmd.Source)
	}
	requestHash, err := idempotency.Fingerprint(cmd.ResourceType+"."+cmd.Operation, cmd.Request)
	if err != nil {
		return result.FromError[T](err, cmd.Source)
	}

	// the shared execution must not fail because the caller that started it went away
	shared := context.WithoutCancel(ctx)
	ch := o.group.DoChan("cmd:"+cmd.IdempotencyKey, func() (any, error) {
		v, err := runCommand(shared, o, cmd, requestHash)
		return sharedOutcome{value: v, requestHash: requestHash}, err
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return result.FromError[T](ctx.Err(), cmd.Source)
	case r = <-ch:
	}
	out, _ := r.Val.(sharedOutcome)
	if out.requestHash != requestHash {
		o.logger.WithFields(logrus.Fields{"idempotency_key": cmd.IdempotencyKey, "resource_type": cmd.ResourceType}).Warn("idempotency key in flight for a different request")
		return result.FromError[T](idempotency.ErrKeyReused, cmd.Source)
	}
	if r.Err != nil {
		return result.FromError[T](r.Err, cmd.Source)
	}
	v, ok := out.value.(T)
	if !ok {
		return result.FromError[T](fmt.Errorf("unexpected type %T from shared command", out.value), cmd.Source)
	}
	return result.Success(v)
}

func runCommand[T any](ctx context.Context, o *CommandOrchestrator, cmd Command[T], requestHash string) (T, error) {
	var zero T
	fields := logrus.Fields{"idempotency_key": cmd.IdempotencyKey, "resource_type": cmd.ResourceType, "operation": cmd.Operation}

	rec, err := o.ledger.Lookup(ctx, cmd.IdempotencyKey)
	if err != nil {
		// without the ledger a retry cannot be told apart from a new request
		o.logger.WithFields(fields).WithError(err).Error("idempotency lookup failed; refusing to execute")
		return zero, err
	}
	if rec != nil {
		if !rec.Matches(cmd.ResourceType, requestHash) {
			o.logger.WithFields(fields).WithField("recorded_type", rec.ResourceType).Warn("idempotency key reused for a different request")
			return zero, idempotency.ErrKeyReused
		}
		o.metrics.IdempotencyReplay(cmd.ResourceType)
		o.logger.WithFields(fields).WithField("resource_id", rec.ResourceID).Info("replaying recorded outcome")
		return replay(ctx, cmd, rec)
	}

	v, resourceID, err := cmd.Execute(ctx)
	if err != nil {
		if result.KindOf(err) == result.KindException {
			o.logger.WithFields(fields).WithError(err).Error("command failed")
		}
		return zero, err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		o.logger.WithFields(fields).WithError(err).Warn("response not serializable; recording without snapshot")
		payload = nil
	}
	if err := o.ledger.Record(ctx, cmd.IdempotencyKey, cmd.ResourceType, resourceID, requestHash, payload); err != nil {
		o.metrics.LedgerWriteFailed(cmd.ResourceType)
		o.logger.WithFields(fields).WithField("resource_id", resourceID).WithError(err).Error("mutation succeeded but ledger write failed; a retry may execute again")
	}
	if cmd.Invalidate != nil {
		cacheRemoveAll(ctx, o.cache, o.logger, cmd.Invalidate(v))
	}
	return v, nil
}

func replay[T any](ctx context.Context, cmd Command[T], rec *idempotency.Record) (T, error) {
	var zero T
	var replayErr error
	if cmd.Replay != nil {
		v, err := cmd.Replay(ctx, rec.ResourceID)
		if err == nil {
			return v, nil
		}
		if result.KindOf(err) != result.KindNotFound {
			return zero, err
		}
		replayErr = err
	}
	if len(rec.ResponseJSON) == 0 {
		if replayErr != nil {
			return zero, replayErr
		}
		return zero, fmt.Errorf("idempotency record %q has no stored response", rec.Key)
	}
	var v T
	if err := json.Unmarshal(rec.ResponseJSON, &v); err != nil {
		return zero, fmt.Errorf("decode stored response for %q: %w", rec.Key, err)
	}
	return v, nil
}
