package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
)

const ResourceType = "Inventory"

// Record tracks the units available for one car model. There is at most one
// record per car model.
type Record struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CarModelID  uuid.UUID `json:"car_model_id" db:"car_model_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// Availability answers whether a requested quantity can be served.
type Availability struct {
	CarModelID        uuid.UUID `json:"car_model_id"`
	RequestedQuantity int       `json:"requested_quantity"`
	IsAvailable       bool      `json:"is_available"`
	AvailableQuantity int       `json:"available_quantity"`
}

type DTO struct {
	ID          uuid.UUID `json:"id"`
	CarModelID  uuid.UUID `json:"car_model_id"`
	Quantity    int       `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

func ToDTO(r *Record) DTO {
	return DTO{ID: r.ID, CarModelID: r.CarModelID, Quantity: r.Quantity, LastUpdated: r.LastUpdated}
}

func ToDTOs(records []*Record) []DTO {
	out := make([]DTO, 0, len(records))
	for _, r := range records {
		out = append(out, ToDTO(r))
	}
	return out
}

// ProvisionRequest creates the inventory row for a car model.
type ProvisionRequest struct {
	CarModelID uuid.UUID `json:"car_model_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"gte=0"`
}

// AdjustRequest increases or decreases stock by Quantity units.
type AdjustRequest struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

// Cache keys.
const CollectionCacheKey = "inv:all"

func ItemCacheKey(id uuid.UUID) string { return "inv:" + id.String() }

func CarModelCacheKey(carModelID uuid.UUID) string { return "inv:model:" + carModelID.String() }

// CacheKeys lists every key invalidated by a change to r.
func CacheKeys(r *Record) []string {
	return []string{ItemCacheKey(r.ID), CarModelCacheKey(r.CarModelID), CollectionCacheKey}
}

var (
	ErrNotFound          = result.NotFound(ResourceType, "inventory record not found")
	ErrInsufficientStock = result.NewError(result.KindInsufficientStock, ResourceType, "insufficient stock")
	ErrAlreadyExists     = result.Validation(ResourceType, "inventory already provisioned for car model")
	ErrInvalidQuantity   = result.Validation(ResourceType, "quantity must be positive")
)
