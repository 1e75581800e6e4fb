package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

// InventoryAdjusterConfig groups the adjuster's policy switches.
type InventoryAdjusterConfig struct {
	// StrictAvailability reports IsAvailable only when stock covers the
	// request. When false, any existing row is reported as available.
	StrictAvailability bool
}

// InventoryAdjuster serializes quantity changes per car model twice over:
// an in-process lease keeps local callers from piling onto one row lock, and
// SELECT ... FOR UPDATE inside a transaction covers other instances.
type InventoryAdjuster struct {
	repo    ports.InventoryRepository
	tx      ports.Transactor
	lease   *KeyedLease
	strict  bool
	metrics ports.CoreMetrics
	logger  *logrus.Logger
	now     func() time.Time
}

func NewInventoryAdjuster(repo ports.InventoryRepository, tx ports.Transactor, cfg InventoryAdjusterConfig, metrics ports.CoreMetrics, logger *logrus.Logger) *InventoryAdjuster {
	return &InventoryAdjuster{
		repo:    repo,
		tx:      tx,
		lease:   NewKeyedLease(),
		strict:  cfg.StrictAvailability,
		metrics: metricsOrNoop(metrics),
		logger:  loggerOrDiscard(logger),
		now:     time.Now,
	}
}

func (a *InventoryAdjuster) CheckAvailability(ctx context.Context, carModelID uuid.UUID, requested int) (*inventory.Availability, error) {
	if requested < 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	out := &inventory.Availability{CarModelID: carModelID, RequestedQuantity: requested}
	rec, err := a.repo.GetByCarModelID(ctx, carModelID)
	if errors.Is(err, inventory.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.AvailableQuantity = rec.Quantity
	if a.strict {
		out.IsAvailable = rec.Quantity >= requested
	} else {
		out.IsAvailable = true
	}
	return out, nil
}

func (a *InventoryAdjuster) Increase(ctx context.Context, carModelID uuid.UUID, quantity int) (*inventory.Record, error) {
	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	return a.adjust(ctx, carModelID, quantity)
}

func (a *InventoryAdjuster) Decrease(ctx context.Context, carModelID uuid.UUID, quantity int) (*inventory.Record, error) {
	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	return a.adjust(ctx, carModelID, -quantity)
}

// adjust applies delta to the row for carModelID. A failed adjustment leaves
// the row untouched.
func (a *InventoryAdjuster) adjust(ctx context.Context, carModelID uuid.UUID, delta int) (*inventory.Record, error) {
	release, err := a.lease.Acquire(ctx, carModelID.String())
	if err != nil {
		return nil, fmt.Errorf("inventory lease for %s: %w", carModelID, err)
	}
	defer release()

	var updated *inventory.Record
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := a.repo.GetByCarModelIDForUpdate(ctx, carModelID)
		if err != nil {
			return err
		}
		if delta < 0 && -delta > rec.Quantity {
			return inventory.ErrInsufficientStock
		}
		if delta > 0 && rec.Quantity > math.MaxInt32-delta {
			return result.Validation(inventory.ResourceType, "quantity would exceed the supported maximum")
		}
		rec.Quantity += delta
		rec.LastUpdated = a.now().UTC()
		if err := a.repo.UpdateQuantity(ctx, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		a.reject(carModelID, delta, err)
		return nil, err
	}
	a.logger.WithFields(logrus.Fields{"car_model_id": carModelID, "delta": delta, "quantity": updated.Quantity}).Debug("inventory adjusted")
	return updated, nil
}

func (a *InventoryAdjuster) reject(carModelID uuid.UUID, delta int, err error) {
	fields := logrus.Fields{"car_model_id": carModelID, "delta": delta}
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		a.metrics.InventoryRejected("not_found")
		a.logger.WithFields(fields).Info("inventory adjustment rejected: no inventory row")
	case errors.Is(err, inventory.ErrInsufficientStock):
		a.metrics.InventoryRejected("insufficient_stock")
		a.logger.WithFields(fields).Info("inventory adjustment rejected: insufficient stock")
	default:
		a.logger.WithFields(fields).WithError(err).Warn("inventory adjustment failed")
	}
}
