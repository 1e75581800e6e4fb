package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/vehicle-trading/go/internal/application/services"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/httpserver"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/httpserver/helpers"
	tmocks "github.com/avatarctic/vehicle-trading/go/test/mocks"
)

type apiEnvelope struct {
	Success bool                 `json:"success"`
	Data    json.RawMessage      `json:"data"`
	Errors  []result.ErrorDetail `json:"errors"`
}

type testAPI struct {
	srv     *httpserver.Server
	invRepo *tmocks.InventoryRepositoryMock
	cache   *tmocks.CacheMock
}

func newTestAPI(t *testing.T, limiter *tmocks.RateLimiterServiceMock, checkers ...ports.HealthChecker) *testAPI {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	api := &testAPI{invRepo: &tmocks.InventoryRepositoryMock{}, cache: &tmocks.CacheMock{}}
	tx := &tmocks.TransactorMock{}
	metrics := tmocks.NewMetricsMock()
	ledger := services.NewIdempotencyLedger(&tmocks.IdempotencyRepositoryMock{}, logger)
	cmd := services.NewCommandOrchestrator(ledger, api.cache, metrics, logger)
	query := services.NewQueryOrchestrator(api.cache, time.Minute, metrics, logger)
	adjuster := services.NewInventoryAdjuster(api.invRepo, tx, services.InventoryAdjusterConfig{StrictAvailability: true}, metrics, logger)

	deps := httpserver.ServerDeps{
		CarModelService:  services.NewCarModelService(&tmocks.CarModelRepositoryMock{}, cmd, query, logger),
		InventoryService: services.NewInventoryService(api.invRepo, adjuster, cmd, query, logger),
		OrderService:     services.NewOrderService(&tmocks.OrderRepositoryMock{}, adjuster, tx, cmd, query, logger),
	}
	if limiter != nil {
		deps.RateLimiterService = limiter
	}
	if len(checkers) > 0 {
		deps.HealthCheckers = checkers
	}
	api.srv = httpserver.NewServer(&httpserver.ServerConfig{Host: "127.0.0.1", Port: "0", CacheBackend: "memory"}, logger, deps)
	return api
}

func (a *testAPI) do(t *testing.T, method, path, key string, body any) (int, apiEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(helpers.IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	a.srv.Echo().ServeHTTP(rec, req)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env apiEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestInventoryEndpoints_ReadThroughAndInvalidation(t *testing.T) {
	api := newTestAPI(t, nil)
	carModelID := uuid.New()

	code, env := api.do(t, http.MethodPost, "/api/v1/inventory", "prov-1", map[string]any{"car_model_id": carModelID, "quantity": 5})
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)
	created := decodeData[inventory.DTO](t, env)
	require.Equal(t, 5, created.Quantity)

	code, env = api.do(t, http.MethodGet, "/api/v1/inventory/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 5, decodeData[inventory.DTO](t, env).Quantity)
	require.True(t, api.cache.Has(inventory.ItemCacheKey(created.ID)))

	decreasePath := "/api/v1/inventory/models/" + carModelID.String() + "/decrease"
	code, env = api.do(t, http.MethodPost, decreasePath, "dec-1", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 3, decodeData[inventory.DTO](t, env).Quantity)
	require.False(t, api.cache.Has(inventory.ItemCacheKey(created.ID)))

	// retry with the same key replays without touching stock again
	code, env = api.do(t, http.MethodPost, decreasePath, "dec-1", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 3, decodeData[inventory.DTO](t, env).Quantity)
	require.Equal(t, 3, api.invRepo.Quantity(carModelID))

	code, env = api.do(t, http.MethodGet, "/api/v1/inventory/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 3, decodeData[inventory.DTO](t, env).Quantity)
}

func TestInventoryEndpoints_InsufficientStockIsConflict(t *testing.T) {
	api := newTestAPI(t, nil)
	carModelID := uuid.New()
	api.invRepo.Seed(carModelID, 1)

	code, env := api.do(t, http.MethodPost, "/api/v1/inventory/models/"+carModelID.String()+"/decrease", "dec-big", map[string]any{"quantity": 4})
	require.Equal(t, http.StatusConflict, code)
	require.False(t, env.Success)
	require.Equal(t, result.KindInsufficientStock, env.Errors[0].Kind)
	require.Equal(t, 1, api.invRepo.Quantity(carModelID))
}

func TestInventoryEndpoints_Availability(t *testing.T) {
	api := newTestAPI(t, nil)
	carModelID := uuid.New()
	api.invRepo.Seed(carModelID, 2)

	code, env := api.do(t, http.MethodGet, "/api/v1/inventory/availability?car_model_id="+carModelID.String()+"&quantity=3", "", nil)
	require.Equal(t, http.StatusOK, code)
	av := decodeData[inventory.Availability](t, env)
	require.False(t, av.IsAvailable)
	require.Equal(t, 2, av.AvailableQuantity)

	code, env = api.do(t, http.MethodGet, "/api/v1/inventory/availability?car_model_id=nope&quantity=3", "", nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, result.KindValidation, env.Errors[0].Kind)
}

func TestMutations_RequireIdempotencyKey(t *testing.T) {
	api := newTestAPI(t, nil)
	code, env := api.do(t, http.MethodPost, "/api/v1/inventory", "", map[string]any{"car_model_id": uuid.New(), "quantity": 1})
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, env.Success)
	require.Equal(t, result.KindValidation, env.Errors[0].Kind)
	require.Equal(t, "IdempotencyKey", env.Errors[0].Source)
}

func TestRequests_BadInputUsesEnvelope(t *testing.T) {
	api := newTestAPI(t, nil)

	code, env := api.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, result.KindValidation, env.Errors[0].Kind)

	code, env = api.do(t, http.MethodPost, "/api/v1/inventory/models/"+uuid.NewString()+"/increase", "inc-0", map[string]any{"quantity": 0})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, inventory.ResourceType, env.Errors[0].Source)

	code, env = api.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, result.KindNotFound, env.Errors[0].Kind)

	code, env = api.do(t, http.MethodGet, "/api/v1/car-models/"+uuid.NewString(), "", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, result.KindNotFound, env.Errors[0].Kind)
}

func TestOrderEndpoints_PlaceAndCancel(t *testing.T) {
	api := newTestAPI(t, nil)
	carModelID := uuid.New()
	api.invRepo.Seed(carModelID, 4)

	code, env := api.do(t, http.MethodPost, "/api/v1/orders", "order-1", map[string]any{"car_model_id": carModelID, "buyer_id": uuid.New(), "quantity": 3})
	require.Equal(t, http.StatusCreated, code)
	var placed struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	require.Equal(t, "Placed", placed.Status)
	require.Equal(t, 1, api.invRepo.Quantity(carModelID))

	code, env = api.do(t, http.MethodPost, "/api/v1/orders/"+placed.ID.String()+"/cancel", "cancel-1", nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(env.Data), `"status":"Cancelled"`)
	require.Equal(t, 4, api.invRepo.Quantity(carModelID))

	code, env = api.do(t, http.MethodPost, "/api/v1/orders/"+placed.ID.String()+"/cancel", "cancel-2", nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, result.KindValidation, env.Errors[0].Kind)
	require.Equal(t, 4, api.invRepo.Quantity(carModelID))
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	limiter := &tmocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, clientKey string) (bool, int, int, time.Time, error) {
		return false, 0, 10, time.Now().Add(time.Minute), nil
	}}
	api := newTestAPI(t, limiter)

	code, env := api.do(t, http.MethodGet, "/api/v1/inventory", "", nil)
	require.Equal(t, http.StatusTooManyRequests, code)
	require.False(t, env.Success)
}

func TestHealth_NoCheckersIsHealthy(t *testing.T) {
	api := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	api.srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"healthy"`)
	require.Contains(t, rec.Body.String(), `"cache_backend":"memory"`)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                    { return s.name }
func (s stubChecker) Check(ctx context.Context) error { return s.err }

func TestHealth_FailingDependencyIsDegraded(t *testing.T) {
	api := newTestAPI(t, nil,
		stubChecker{name: "database"},
		stubChecker{name: "redis", err: errors.New("connection refused")},
	)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	api.srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status       string `json:"status"`
		Dependencies map[string]struct {
			Status string `json:"status"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "degraded", body.Status)
	require.Equal(t, "healthy", body.Dependencies["database"].Status)
	require.Equal(t, "unhealthy", body.Dependencies["redis"].Status)
	require.NotContains(t, rec.Body.String(), "connection refused")
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	api := newTestAPI(t, nil)
	api.invRepo.ListFn = func(ctx context.Context) ([]*inventory.Record, error) {
		return nil, errors.New("pq: connection reset by peer")
	}

	code, env := api.do(t, http.MethodGet, "/api/v1/inventory", "", nil)
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, result.KindException, env.Errors[0].Kind)
	require.Equal(t, "internal error", env.Errors[0].Message)
}
