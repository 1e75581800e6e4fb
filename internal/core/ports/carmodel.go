package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/carmodel"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
)

type CarModelRepository interface {
	Create(ctx context.Context, m *carmodel.CarModel) error
	GetByID(ctx context.Context, id uuid.UUID) (*carmodel.CarModel, error)
	Update(ctx context.Context, m *carmodel.CarModel) error
	// Delete fails with carmodel.ErrInUse while inventory or orders reference the model.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*carmodel.CarModel, error)
}

type CarModelService interface {
	Create(ctx context.Context, idempotencyKey string, req *carmodel.CreateCarModelRequest) result.Result[carmodel.DTO]
	Update(ctx context.Context, idempotencyKey string, id uuid.UUID, req *carmodel.UpdateCarModelRequest) result.Result[carmodel.DTO]
	Delete(ctx context.Context, idempotencyKey string, id uuid.UUID) result.Result[carmodel.DTO]
	Get(ctx context.Context, id uuid.UUID) result.Result[carmodel.DTO]
	List(ctx context.Context, limit, offset int) result.Result[[]carmodel.DTO]
}
