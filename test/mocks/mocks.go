package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/carmodel"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/idempotency"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/order"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

// IdempotencyRepositoryMock is an in-memory ledger store. Fn fields override
// the default behavior.
type IdempotencyRepositoryMock struct {
	GetByKeyFn func(ctx context.Context, key string) (*idempotency.Record, error)
	InsertFn   func(ctx context.Context, rec *idempotency.Record) (bool, error)

	mu      sync.Mutex
	records map[string]idempotency.Record
}

func (m *IdempotencyRepositoryMock) GetByKey(ctx context.Context, key string) (*idempotency.Record, error) {
	if m.GetByKeyFn != nil {
		return m.GetByKeyFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *IdempotencyRepositoryMock) Insert(ctx context.Context, rec *idempotency.Record) (bool, error) {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]idempotency.Record)
	}
	if _, ok := m.records[rec.Key]; ok {
		return false, nil
	}
	m.records[rec.Key] = *rec
	return true, nil
}

// Len reports how many records are stored.
func (m *IdempotencyRepositoryMock) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// InventoryRepositoryMock is an in-memory inventory table. It does not lock
// rows; serialization in tests comes from the adjuster's lease.
type InventoryRepositoryMock struct {
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*inventory.Record, error)
	GetByCarModelIDFn func(ctx context.Context, carModelID uuid.UUID) (*inventory.Record, error)
	UpdateQuantityFn  func(ctx context.Context, rec *inventory.Record) error
	ListFn            func(ctx context.Context) ([]*inventory.Record, error)

	mu    sync.Mutex
	rows  map[uuid.UUID]inventory.Record // by id
	reads int
}

// ReadCount reports how many reads reached the store.
func (m *InventoryRepositoryMock) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Seed inserts a row for carModelID with quantity units.
func (m *InventoryRepositoryMock) Seed(carModelID uuid.UUID, quantity int) *inventory.Record {
	rec := &inventory.Record{ID: uuid.New(), CarModelID: carModelID, Quantity: quantity, LastUpdated: time.Now().UTC()}
	if err := m.Create(context.Background(), rec); err != nil {
		panic(err)
	}
	return rec
}

func (m *InventoryRepositoryMock) Create(ctx context.Context, rec *inventory.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[uuid.UUID]inventory.Record)
	}
	for _, r := range m.rows {
		if r.CarModelID == rec.CarModelID {
			return inventory.ErrAlreadyExists
		}
	}
	m.rows[rec.ID] = *rec
	return nil
}

func (m *InventoryRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*inventory.Record, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	r, ok := m.rows[id]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	return &r, nil
}

func (m *InventoryRepositoryMock) GetByCarModelID(ctx context.Context, carModelID uuid.UUID) (*inventory.Record, error) {
	if m.GetByCarModelIDFn != nil {
		return m.GetByCarModelIDFn(ctx, carModelID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	for _, r := range m.rows {
		if r.CarModelID == carModelID {
			return &r, nil
		}
	}
	return nil, inventory.ErrNotFound
}

func (m *InventoryRepositoryMock) GetByCarModelIDForUpdate(ctx context.Context, carModelID uuid.UUID) (*inventory.Record, error) {
	return m.GetByCarModelID(ctx, carModelID)
}

func (m *InventoryRepositoryMock) UpdateQuantity(ctx context.Context, rec *inventory.Record) error {
	if m.UpdateQuantityFn != nil {
		return m.UpdateQuantityFn(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[rec.ID]; !ok {
		return inventory.ErrNotFound
	}
	m.rows[rec.ID] = *rec
	return nil
}

func (m *InventoryRepositoryMock) List(ctx context.Context) ([]*inventory.Record, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	out := make([]*inventory.Record, 0, len(m.rows))
	for _, r := range m.rows {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// Quantity returns the stored quantity for carModelID, or -1 without a row.
func (m *InventoryRepositoryMock) Quantity(carModelID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.CarModelID == carModelID {
			return r.Quantity
		}
	}
	return -1
}

type CarModelRepositoryMock struct {
	DeleteFn func(ctx context.Context, id uuid.UUID) error

	mu     sync.Mutex
	models map[uuid.UUID]carmodel.CarModel
}

func (m *CarModelRepositoryMock) Create(ctx context.Context, cm *carmodel.CarModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.models == nil {
		m.models = make(map[uuid.UUID]carmodel.CarModel)
	}
	m.models[cm.ID] = *cm
	return nil
}

func (m *CarModelRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*carmodel.CarModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cm, ok := m.models[id]
	if !ok {
		return nil, carmodel.ErrNotFound
	}
	return &cm, nil
}

func (m *CarModelRepositoryMock) Update(ctx context.Context, cm *carmodel.CarModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[cm.ID]; !ok {
		return carmodel.ErrNotFound
	}
	m.models[cm.ID] = *cm
	return nil
}

func (m *CarModelRepositoryMock) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[id]; !ok {
		return carmodel.ErrNotFound
	}
	delete(m.models, id)
	return nil
}

func (m *CarModelRepositoryMock) List(ctx context.Context) ([]*carmodel.CarModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*carmodel.CarModel, 0, len(m.models))
	for _, cm := range m.models {
		cm := cm
		out = append(out, &cm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type OrderRepositoryMock struct {
	CreateFn func(ctx context.Context, o *order.Order) error

	mu     sync.Mutex
	orders map[uuid.UUID]order.Order
}

func (m *OrderRepositoryMock) Create(ctx context.Context, o *order.Order) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orders == nil {
		m.orders = make(map[uuid.UUID]order.Order)
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *OrderRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (m *OrderRepositoryMock) UpdateStatus(ctx context.Context, id uuid.UUID, from, to order.Status) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if o.Status != from {
		return nil, order.ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	return &o, nil
}

func (m *OrderRepositoryMock) List(ctx context.Context) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*order.Order, 0, len(m.orders))
	for _, o := range m.orders {
		o := o
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// Len reports how many orders are stored.
func (m *OrderRepositoryMock) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// TransactorMock runs fn directly unless WithinTxFn is set.
type TransactorMock struct {
	WithinTxFn func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *TransactorMock) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return fn(ctx)
}

// CacheMock is a map-backed cache that ignores expiry and records removals.
type CacheMock struct {
	GetFn    func(ctx context.Context, key string) ([]byte, bool, error)
	SetFn    func(ctx context.Context, key string, value []byte, exp ports.Expiry) error
	RemoveFn func(ctx context.Context, key string) error

	mu      sync.Mutex
	entries map[string][]byte
	Removed []string
	Expiry  map[string]ports.Expiry
}

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *CacheMock) Set(ctx context.Context, key string, value []byte, exp ports.Expiry) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, exp)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string][]byte)
		m.Expiry = make(map[string]ports.Expiry)
	}
	m.entries[key] = value
	m.Expiry[key] = exp
	return nil
}

func (m *CacheMock) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, key)
	m.mu.Unlock()
	if m.RemoveFn != nil {
		return m.RemoveFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Has reports whether key is currently cached.
func (m *CacheMock) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// MetricsMock counts core metric events by label.
type MetricsMock struct {
	mu             sync.Mutex
	CacheLookups   map[string]int
	Replays        map[string]int
	LedgerFailures map[string]int
	Rejections     map[string]int
}

func NewMetricsMock() *MetricsMock {
	return &MetricsMock{
		CacheLookups:   map[string]int{},
		Replays:        map[string]int{},
		LedgerFailures: map[string]int{},
		Rejections:     map[string]int{},
	}
}

func (m *MetricsMock) inc(counter map[string]int, label string) {
	m.mu.Lock()
	counter[label]++
	m.mu.Unlock()
}

func (m *MetricsMock) CacheLookup(outcome string)            { m.inc(m.CacheLookups, outcome) }
func (m *MetricsMock) IdempotencyReplay(resourceType string) { m.inc(m.Replays, resourceType) }
func (m *MetricsMock) LedgerWriteFailed(resourceType string) { m.inc(m.LedgerFailures, resourceType) }
func (m *MetricsMock) InventoryRejected(reason string)       { m.inc(m.Rejections, reason) }

// Count returns counter[label] under the lock.
func (m *MetricsMock) Count(counter map[string]int, label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return counter[label]
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, clientKey string) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, clientKey string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, clientKey)
	}
	return true, 1, 1, time.Now().Add(time.Minute), nil
}

// RateLimitRepositoryMock counts requests per client in memory.
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)

	mu     sync.Mutex
	counts map[string]int
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, clientKey, window, keyPrefix, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[clientKey]++
	return m.counts[clientKey], time.Now().Truncate(window), nil
}
