package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
)

type InventoryRepository interface {
	// Create fails with inventory.ErrAlreadyExists if the car model already has a row.
	Create(ctx context.Context, rec *inventory.Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*inventory.Record, error)
	GetByCarModelID(ctx context.Context, carModelID uuid.UUID) (*inventory.Record, error)
	// GetByCarModelIDForUpdate reads the row and locks it until the
	// surrounding transaction ends.
	GetByCarModelIDForUpdate(ctx context.Context, carModelID uuid.UUID) (*inventory.Record, error)
	// UpdateQuantity writes quantity and refreshes last_updated.
	UpdateQuantity(ctx context.Context, rec *inventory.Record) error
	List(ctx context.Context) ([]*inventory.Record, error)
}

// InventoryAdjuster owns every change to stock counts. Adjustments for the
// same car model are linearizable.
type InventoryAdjuster interface {
	CheckAvailability(ctx context.Context, carModelID uuid.UUID, requested int) (*inventory.Availability, error)
	Increase(ctx context.Context, carModelID uuid.UUID, quantity int) (*inventory.Record, error)
	Decrease(ctx context.Context, carModelID uuid.UUID, quantity int) (*inventory.Record, error)
}

type InventoryService interface {
	Provision(ctx context.Context, idempotencyKey string, req *inventory.ProvisionRequest) result.Result[inventory.DTO]
	Get(ctx context.Context, id uuid.UUID) result.Result[inventory.DTO]
	GetByCarModel(ctx context.Context, carModelID uuid.UUID) result.Result[inventory.DTO]
	List(ctx context.Context, limit, offset int) result.Result[[]inventory.DTO]
	CheckAvailability(ctx context.Context, carModelID uuid.UUID, requested int) result.Result[inventory.Availability]
	Increase(ctx context.Context, idempotencyKey string, carModelID uuid.UUID, quantity int) result.Result[inventory.DTO]
	Decrease(ctx context.Context, idempotencyKey string, carModelID uuid.UUID, quantity int) result.Result[inventory.DTO]
}
