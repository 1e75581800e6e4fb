package services_test

import (
	"github.com/avatarctic/vehicle-trading/go/internal/application/services"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
	tmocks "github.com/avatarctic/vehicle-trading/go/test/mocks"
)

type harness struct {
	ledgerRepo *tmocks.IdempotencyRepositoryMock
	invRepo    *tmocks.InventoryRepositoryMock
	models     *tmocks.CarModelRepositoryMock
	orders     *tmocks.OrderRepositoryMock
	cache      *tmocks.CacheMock
	metrics    *tmocks.MetricsMock

	adjuster  *services.InventoryAdjuster
	inventory ports.InventoryService
	carModels ports.CarModelService
	orderSvc  ports.OrderService
}

func newHarness() *harness {
	h := &harness{
		ledgerRepo: &tmocks.IdempotencyRepositoryMock{},
		invRepo:    &tmocks.InventoryRepositoryMock{},
		models:     &tmocks.CarModelRepositoryMock{},
		orders:     &tmocks.OrderRepositoryMock{},
		cache:      &tmocks.CacheMock{},
		metrics:    tmocks.NewMetricsMock(),
	}
	tx := &tmocks.TransactorMock{}
	ledger := services.NewIdempotencyLedger(h.ledgerRepo, nil)
	cmd := services.NewCommandOrchestrator(ledger, h.cache, h.metrics, nil)
	query := services.NewQueryOrchestrator(h.cache, 0, h.metrics, nil)
	h.adjuster = services.NewInventoryAdjuster(h.invRepo, tx, services.InventoryAdjusterConfig{StrictAvailability: true}, h.metrics, nil)
	h.inventory = services.NewInventoryService(h.invRepo, h.adjuster, cmd, query, nil)
	h.carModels = services.NewCarModelService(h.models, cmd, query, nil)
	h.orderSvc = services.NewOrderService(h.orders, h.adjuster, tx, cmd, query, nil)
	return h
}
