package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/order"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/db"
)

type OrderRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewOrderRepository(database *db.Database, logger *logrus.Logger) ports.OrderRepository {
	return &OrderRepository{db: database, logger: logger}
}

const orderColumns = `id, car_model_id, buyer_id, quantity, status, created_at, updated_at`

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (id, car_model_id, buyer_id, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		o.ID, o.CarModelID, o.BuyerID, o.Quantity, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("car model %s: %w", o.CarModelID, errCarModelMissing)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db.Executor(ctx), &o, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// UpdateStatus is a conditional update so two concurrent cancels cannot both
// observe Placed.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to order.Status) (*order.Order, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns

	var o order.Order
	err := sqlx.GetContext(ctx, r.db.Executor(ctx), &o, query, id, from, to, time.Now().UTC())
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	// distinguish a missing order from one in the wrong state
	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, order.ErrInvalidTransition
}

func (r *OrderRepository) List(ctx context.Context) ([]*order.Order, error) {
	var out []*order.Order
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id`
	if err := sqlx.SelectContext(ctx, r.db.Executor(ctx), &out, query); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return out, nil
}
