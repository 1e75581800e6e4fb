package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/idempotency"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

// IdempotencyLedger records the outcome of the first successful mutation for
// each client key.
type IdempotencyLedger struct {
	repo   ports.IdempotencyRepository
	logger *logrus.Logger
	now    func() time.Time
}

func NewIdempotencyLedger(repo ports.IdempotencyRepository, logger *logrus.Logger) *IdempotencyLedger {
	return &IdempotencyLedger{repo: repo, logger: loggerOrDiscard(logger), now: time.Now}
}

// Lookup returns the recorded outcome for key, or nil when the key is new.
func (l *IdempotencyLedger) Lookup(ctx context.Context, key string) (*idempotency.Record, error) {
	if err := idempotency.ValidateKey(key); err != nil {
		return nil, err
	}
	rec, err := l.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup failed: %w", err)
	}
	return rec, nil
}

// Record stores the outcome once. A second call for the same key is a no-op
// and leaves the first record unchanged.
func (l *IdempotencyLedger) Record(ctx context.Context, key, resourceType, resourceID, requestHash string, responseJSON json.RawMessage) error {
	if err := idempotency.ValidateKey(key); err != nil {
		return err
	}
	if err := idempotency.ValidateResourceType(resourceType); err != nil {
		return err
	}
	rec := &idempotency.Record{
		Key:          key,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestHash:  requestHash,
		ResponseJSON: responseJSON,
		Status:       idempotency.StatusCompleted,
		CreatedAt:    l.now().UTC(),
	}
	written, err := l.repo.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("idempotency record failed: %w", err)
	}
	if !written {
		l.logger.WithFields(logrus.Fields{"key": key, "resource_type": resourceType}).Debug("idempotency key already recorded; keeping first outcome")
	}
	return nil
}
