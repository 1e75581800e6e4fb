package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
)

const (
	MaxKeyLength          = 100
	MaxResourceTypeLength = 50

	StatusCompleted = "Completed"
)

// Record is the outcome of the first successful mutation issued under a key.
// Records are written once and never updated or deleted.
type Record struct {
	Key          string          `json:"key"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	RequestHash  string          `json:"request_hash,omitempty"`
	ResponseJSON json.RawMessage `json:"response_json,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ValidateKey checks the client-supplied key against the ledger bounds.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return result.Validation("IdempotencyKey", "idempotency key is required")
	}
	if len(key) > MaxKeyLength {
		return result.Validation("IdempotencyKey", fmt.Sprintf("idempotency key must be at most %d characters", MaxKeyLength))
	}
	return nil
}

func ValidateResourceType(resourceType string) error {
	if strings.TrimSpace(resourceType) == "" {
		return result.Validation("IdempotencyKey", "resource type is required")
	}
	if len(resourceType) > MaxResourceTypeLength {
		return result.Validation("IdempotencyKey", fmt.Sprintf("resource type must be at most %d characters", MaxResourceTypeLength))
	}
	return nil
}

// ErrKeyReused is returned when a recorded key is presented with a different
// operation or request.
var ErrKeyReused = result.Validation("IdempotencyKey", "idempotency key already used for a different operation")

// Fingerprint hashes the operation name with its canonical JSON request so a
// key presented for another operation, target or payload can be refused.
func Fingerprint(operation string, request any) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s request: %w", operation, err)
	}
	sum := sha256.New()
	sum.Write([]byte(operation))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// Matches reports whether rec was recorded for a request with hash. Records
// written without a hash only match on resource type.
func (rec *Record) Matches(resourceType, requestHash string) bool {
	if rec.ResourceType != resourceType {
		return false
	}
	return rec.RequestHash == "" || requestHash == "" || rec.RequestHash == requestHash
}
