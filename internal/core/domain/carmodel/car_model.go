package carmodel

import (
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
)

const ResourceType = "CarModel"

type CarModel struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Brand      string    `json:"brand" db:"brand"`
	Name       string    `json:"name" db:"name"`
	Year       int       `json:"year" db:"year"`
	PriceCents int64     `json:"price_cents" db:"price_cents"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type DTO struct {
	ID         uuid.UUID `json:"id"`
	Brand      string    `json:"brand"`
	Name       string    `json:"name"`
	Year       int       `json:"year"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ToDTO(m *CarModel) DTO {
	return DTO{
		ID:         m.ID,
		Brand:      m.Brand,
		Name:       m.Name,
		Year:       m.Year,
		PriceCents: m.PriceCents,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func ToDTOs(models []*CarModel) []DTO {
	out := make([]DTO, 0, len(models))
	for _, m := range models {
		out = append(out, ToDTO(m))
	}
	return out
}

type CreateCarModelRequest struct {
	Brand      string `json:"brand" validate:"required,max=100"`
	Name       string `json:"name" validate:"required,max=100"`
	Year       int    `json:"year" validate:"required,gte=1886,lte=2100"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
}

type UpdateCarModelRequest struct {
	Brand      *string `json:"brand,omitempty" validate:"omitempty,max=100"`
	Name       *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Year       *int    `json:"year,omitempty" validate:"omitempty,gte=1886,lte=2100"`
	PriceCents *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
}

const CollectionCacheKey = "cm:all"

func ItemCacheKey(id uuid.UUID) string { return "cm:" + id.String() }

var (
	ErrNotFound = result.NotFound(ResourceType, "car model not found")
	ErrInUse    = result.Validation(ResourceType, "car model is referenced by inventory or orders")
)
