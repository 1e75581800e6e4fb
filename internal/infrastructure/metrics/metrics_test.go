package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCore_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewCore(reg)
	require.NoError(t, err)

	m.CacheLookup("hit")
	m.CacheLookup("hit")
	m.CacheLookup("miss")
	m.IdempotencyReplay("Order")
	m.LedgerWriteFailed("Inventory")
	m.InventoryRejected("insufficient_stock")

	require.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.replays.WithLabelValues("Order")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ledgerWriteFailed.WithLabelValues("Inventory")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.inventoryRejected.WithLabelValues("insufficient_stock")))
}

func TestNewCore_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCore(reg)
	require.NoError(t, err)
	_, err = NewCore(reg)
	require.Error(t, err)
}
