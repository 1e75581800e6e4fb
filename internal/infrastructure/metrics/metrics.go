package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

// Core implements ports.CoreMetrics with prometheus counters.
type Core struct {
	cacheLookups      *prometheus.CounterVec
	replays           *prometheus.CounterVec
	ledgerWriteFailed *prometheus.CounterVec
	inventoryRejected *prometheus.CounterVec
}

// NewCore creates the core counters and registers them with reg.
func NewCore(reg prometheus.Registerer) (*Core, error) {
	m := &Core{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_lookups_total",
				Help: "Read-path cache lookups by outcome (hit, miss, error)",
			},
			[]string{"outcome"},
		),
		replays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idempotency_replays_total",
				Help: "Mutations answered from the idempotency ledger instead of re-executing",
			},
			[]string{"resource_type"},
		),
		ledgerWriteFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idempotency_ledger_write_failures_total",
				Help: "Successful mutations whose ledger record could not be written",
			},
			[]string{"resource_type"},
		),
		inventoryRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_adjustments_rejected_total",
				Help: "Inventory adjustments refused by reason",
			},
			[]string{"reason"},
		),
	}
	for _, c := range []prometheus.Collector{m.cacheLookups, m.replays, m.ledgerWriteFailed, m.inventoryRejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

var _ ports.CoreMetrics = (*Core)(nil)

func (m *Core) CacheLookup(outcome string) { m.cacheLookups.WithLabelValues(outcome).Inc() }

func (m *Core) IdempotencyReplay(resourceType string) {
	m.replays.WithLabelValues(resourceType).Inc()
}

func (m *Core) LedgerWriteFailed(resourceType string) {
	m.ledgerWriteFailed.WithLabelValues(resourceType).Inc()
}

func (m *Core) InventoryRejected(reason string) {
	m.inventoryRejected.WithLabelValues(reason).Inc()
}
