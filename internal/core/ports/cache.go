package ports

import (
	"context"
	"time"
)

// Expiry is the lifetime policy for a cache entry. Zero fields are unset.
// With both set, the entry lives until whichever deadline comes first; a
// sliding read never extends it past the absolute deadline.
type Expiry struct {
	Absolute time.Duration
	Sliding  time.Duration
}

// Cache defines a minimal key-value cache contract.
// Implementations should degrade gracefully (returning an error without crashing callers)
// so that application logic can fall back to the primary datastore.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key under the given expiry policy, replacing any previous entry.
	Set(ctx context.Context, key string, value []byte, exp Expiry) error
	// Remove deletes the key; absence is not an error.
	Remove(ctx context.Context, key string) error
}
