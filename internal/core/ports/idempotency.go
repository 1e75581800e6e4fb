package ports

import (
	"context"
	"encoding/json"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/idempotency"
)

// IdempotencyRepository persists ledger records.
type IdempotencyRepository interface {
	// GetByKey returns the record for key, or nil and no error when none exists.
	GetByKey(ctx context.Context, key string) (*idempotency.Record, error)
	// Insert stores rec unless a record for rec.Key already exists. The
	// returned bool reports whether this call wrote the row.
	Insert(ctx context.Context, rec *idempotency.Record) (bool, error)
}

// IdempotencyLedger deduplicates retried mutations by client-supplied key.
type IdempotencyLedger interface {
	Lookup(ctx context.Context, key string) (*idempotency.Record, error)
	// Record is first-writer-wins: an existing record for key is left untouched.
	Record(ctx context.Context, key, resourceType, resourceID, requestHash string, responseJSON json.RawMessage) error
}
