package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/db"
)

type InventoryRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewInventoryRepository(database *db.Database, logger *logrus.Logger) ports.InventoryRepository {
	return &InventoryRepository{db: database, logger: logger}
}

const inventoryColumns = `id, car_model_id, quantity, last_updated`

func (r *InventoryRepository) Create(ctx context.Context, rec *inventory.Record) error {
	query := `
		INSERT INTO inventory (id, car_model_id, quantity, last_updated)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, rec.ID, rec.CarModelID, rec.Quantity, rec.LastUpdated)
	if err != nil {
		if isUniqueViolation(err) {
			return inventory.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("car model %s: %w", rec.CarModelID, errCarModelMissing)
		}
		return fmt.Errorf("failed to create inventory: %w", err)
	}
	return nil
}

func (r *InventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*inventory.Record, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, id)
}

func (r *InventoryRepository) GetByCarModelID(ctx context.Context, carModelID uuid.UUID) (*inventory.Record, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE car_model_id = $1`, carModelID)
}

func (r *InventoryRepository) GetByCarModelIDForUpdate(ctx context.Context, carModelID uuid.UUID) (*inventory.Record, error) {
	return r.getOne(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE car_model_id = $1 FOR UPDATE`, carModelID)
}

func (r *InventoryRepository) getOne(ctx context.Context, query string, arg any) (*inventory.Record, error) {
	var rec inventory.Record
	if err := sqlx.GetContext(ctx, r.db.Executor(ctx), &rec, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return &rec, nil
}

func (r *InventoryRepository) UpdateQuantity(ctx context.Context, rec *inventory.Record) error {
	query := `
		UPDATE inventory
		SET quantity = $2, last_updated = $3
		WHERE id = $1`

	res, err := r.db.Executor(ctx).ExecContext(ctx, query, rec.ID, rec.Quantity, rec.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to update inventory quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

func (r *InventoryRepository) List(ctx context.Context) ([]*inventory.Record, error) {
	var out []*inventory.Record
	query := `SELECT ` + inventoryColumns + ` FROM inventory ORDER BY last_updated DESC, id`
	if err := sqlx.SelectContext(ctx, r.db.Executor(ctx), &out, query); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return out, nil
}
