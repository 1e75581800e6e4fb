package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/carmodel"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/db"
)

// errCarModelMissing is returned when a row references a car model that does not exist.
var errCarModelMissing = result.NotFound(carmodel.ResourceType, "car model not found")

// CarModelRepository implements the car model repository interface
type CarModelRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewCarModelRepository creates a new car model repository
func NewCarModelRepository(database *db.Database, logger *logrus.Logger) ports.CarModelRepository {
	return &CarModelRepository{db: database, logger: logger}
}

func (r *CarModelRepository) Create(ctx context.Context, m *carmodel.CarModel) error {
	query := `
		INSERT INTO car_models (id, brand, name, year, price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		m.ID, m.Brand, m.Name, m.Year, m.PriceCents, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create car model: %w", err)
	}
	return nil
}

func (r *CarModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*carmodel.CarModel, error) {
	var m carmodel.CarModel
	query := `
		SELECT id, brand, name, year, price_cents, created_at, updated_at
		FROM car_models
		WHERE id = $1`

	if err := sqlx.GetContext(ctx, r.db.Executor(ctx), &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, carmodel.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get car model: %w", err)
	}
	return &m, nil
}

func (r *CarModelRepository) Update(ctx context.Context, m *carmodel.CarModel) error {
	query := `
		UPDATE car_models
		SET brand = $2, name = $3, year = $4, price_cents = $5, updated_at = $6
		WHERE id = $1`

	res, err := r.db.Executor(ctx).ExecContext(ctx, query,
		m.ID, m.Brand, m.Name, m.Year, m.PriceCents, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update car model: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return carmodel.ErrNotFound
	}
	return nil
}

func (r *CarModelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM car_models WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return carmodel.ErrInUse
		}
		return fmt.Errorf("failed to delete car model: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return carmodel.ErrNotFound
	}
	return nil
}

func (r *CarModelRepository) List(ctx context.Context) ([]*carmodel.CarModel, error) {
	var out []*carmodel.CarModel
	query := `
		SELECT id, brand, name, year, price_cents, created_at, updated_at
		FROM car_models
		ORDER BY created_at DESC, id`
	if err := sqlx.SelectContext(ctx, r.db.Executor(ctx), &out, query); err != nil {
		return nil, fmt.Errorf("failed to list car models: %w", err)
	}
	return out, nil
}
