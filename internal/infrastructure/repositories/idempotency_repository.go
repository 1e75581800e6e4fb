package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/idempotency"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/db"
)

// IdempotencyRepository stores ledger records in idempotency_records. The
// unique index on key makes concurrent inserts first-writer-wins.
type IdempotencyRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewIdempotencyRepository(database *db.Database, logger *logrus.Logger) ports.IdempotencyRepository {
	return &IdempotencyRepository{db: database, logger: logger}
}

type idempotencyRow struct {
	Key          string    `db:"key"`
	ResourceType string    `db:"resource_type"`
	ResourceID   string    `db:"resource_id"`
	RequestHash  string    `db:"request_hash"`
	ResponseJSON []byte    `db:"response_json"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r *IdempotencyRepository) GetByKey(ctx context.Context, key string) (*idempotency.Record, error) {
	var row idempotencyRow
	query := `
		SELECT key, resource_type, resource_id, request_hash, response_json, status, created_at
		FROM idempotency_records
		WHERE key = $1`

	err := sqlx.GetContext(ctx, r.db.Executor(ctx), &row, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}
	return &idempotency.Record{
		Key:          row.Key,
		ResourceType: row.ResourceType,
		ResourceID:   row.ResourceID,
		RequestHash:  row.RequestHash,
		ResponseJSON: json.RawMessage(row.ResponseJSON),
		Status:       row.Status,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (r *IdempotencyRepository) Insert(ctx context.Context, rec *idempotency.Record) (bool, error) {
	query := `
		INSERT INTO idempotency_records (key, resource_type, resource_id, request_hash, response_json, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO NOTHING`

	// lib/pq sends []byte as bytea, so jsonb goes over as text
	var responseJSON sql.NullString
	if len(rec.ResponseJSON) > 0 {
		responseJSON = sql.NullString{String: string(rec.ResponseJSON), Valid: true}
	}
	res, err := r.db.Executor(ctx).ExecContext(ctx, query,
		rec.Key, rec.ResourceType, rec.ResourceID, rec.RequestHash, responseJSON, rec.Status, rec.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert idempotency record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 && r.logger != nil {
		r.logger.WithFields(logrus.Fields{"key": rec.Key, "resource_type": rec.ResourceType}).Debug("idempotency record already present")
	}
	return n > 0, nil
}
