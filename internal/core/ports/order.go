package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/order"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
)

type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	// UpdateStatus moves the order from one status to another. It fails with
	// order.ErrInvalidTransition when the stored status is not from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to order.Status) (*order.Order, error)
	List(ctx context.Context) ([]*order.Order, error)
}

type OrderService interface {
	PlaceOrder(ctx context.Context, idempotencyKey string, req *order.PlaceOrderRequest) result.Result[order.DTO]
	CancelOrder(ctx context.Context, idempotencyKey string, id uuid.UUID) result.Result[order.DTO]
	Get(ctx context.Context, id uuid.UUID) result.Result[order.DTO]
	List(ctx context.Context, limit, offset int) result.Result[[]order.DTO]
}
