package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
)

const ResourceType = "Order"

type Status string

const (
	StatusPlaced    Status = "Placed"
	StatusCancelled Status = "Cancelled"
)

// CanTransitionTo reports whether an order may move from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPlaced && next == StatusCancelled
}

// Order is a purchase of Quantity units of one car model.
type Order struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CarModelID uuid.UUID `json:"car_model_id" db:"car_model_id"`
	BuyerID    uuid.UUID `json:"buyer_id" db:"buyer_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Status     Status    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type DTO struct {
	ID         uuid.UUID `json:"id"`
	CarModelID uuid.UUID `json:"car_model_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	Quantity   int       `json:"quantity"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ToDTO(o *Order) DTO {
	return DTO{
		ID:         o.ID,
		CarModelID: o.CarModelID,
		BuyerID:    o.BuyerID,
		Quantity:   o.Quantity,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func ToDTOs(orders []*Order) []DTO {
	out := make([]DTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToDTO(o))
	}
	return out
}

type PlaceOrderRequest struct {
	CarModelID uuid.UUID `json:"car_model_id" validate:"required"`
	BuyerID    uuid.UUID `json:"buyer_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"gte=1"`
}

const CollectionCacheKey = "order:all"

func ItemCacheKey(id uuid.UUID) string { return "order:" + id.String() }

var (
	ErrNotFound          = result.NotFound(ResourceType, "order not found")
	ErrInvalidTransition = result.Validation(ResourceType, "order status transition not allowed")
)
