package ports

// CoreMetrics records decisions taken on the idempotent write path and the
// cached read path. A nil CoreMetrics is valid and records nothing.
type CoreMetrics interface {
	// CacheLookup counts a read-path cache consultation; outcome is hit, miss or error.
	CacheLookup(outcome string)
	IdempotencyReplay(resourceType string)
	LedgerWriteFailed(resourceType string)
	// InventoryRejected counts adjustments refused with reason not_found or insufficient_stock.
	InventoryRejected(reason string)
}
