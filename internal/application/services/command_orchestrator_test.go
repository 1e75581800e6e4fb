package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/vehicle-trading/go/internal/application/services"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/carmodel"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/idempotency"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/order"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	tmocks "github.com/avatarctic/vehicle-trading/go/test/mocks"
)

func placeReq(model uuid.UUID, qty int) *order.PlaceOrderRequest {
	return &order.PlaceOrderRequest{CarModelID: model, BuyerID: uuid.New(), Quantity: qty}
}

func TestPlaceOrder_RetryWithSameKeyDoesNotDecrementTwice(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model := uuid.New()
	h.invRepo.Seed(model, 5)

	req := placeReq(model, 3)
	first := h.orderSvc.PlaceOrder(ctx, "K1", req)
	require.True(t, first.IsSuccess(), "%v", first.Errors)
	require.Equal(t, 2, h.invRepo.Quantity(model))
	require.Equal(t, 1, h.ledgerRepo.Len())

	rec, err := h.ledgerRepo.GetByKey(ctx, "K1")
	require.NoError(t, err)
	require.Equal(t, first.Value.ID.String(), rec.ResourceID)
	require.Equal(t, order.ResourceType, rec.ResourceType)

	retry := h.orderSvc.PlaceOrder(ctx, "K1", req)
	require.True(t, retry.IsSuccess())
	require.Equal(t, first.Value.ID, retry.Value.ID)
	require.Equal(t, 2, h.invRepo.Quantity(model))
	require.Equal(t, 1, h.orders.Len())
	require.Equal(t, 1, h.metrics.Count(h.metrics.Replays, order.ResourceType))
}

func TestPlaceOrder_InvalidatesOrderAndInventoryKeys(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model := uuid.New()
	stock := h.invRepo.Seed(model, 5)

	res := h.orderSvc.PlaceOrder(ctx, "K1", placeReq(model, 1))
	require.True(t, res.IsSuccess())
	require.ElementsMatch(t, []string{
		order.ItemCacheKey(res.Value.ID),
		order.CollectionCacheKey,
		inventory.ItemCacheKey(stock.ID),
		inventory.CarModelCacheKey(model),
		inventory.CollectionCacheKey,
	}, h.cache.Removed)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model := uuid.New()
	h.invRepo.Seed(model, 2)

	res := h.orderSvc.PlaceOrder(ctx, "K1", placeReq(model, 3))
	require.Equal(t, result.KindInsufficientStock, res.FirstKind())
	require.Equal(t, 2, h.invRepo.Quantity(model))
	require.Equal(t, 0, h.orders.Len())
	require.Equal(t, 0, h.ledgerRepo.Len(), "failed mutations are not recorded")
	require.Empty(t, h.cache.Removed)
}

func TestCommand_LedgerLookupFailureFailsClosed(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model := uuid.New()
	h.invRepo.Seed(model, 5)
	h.ledgerRepo.GetByKeyFn = func(ctx context.Context, key string) (*idempotency.Record, error) {
		return nil, errors.New("ledger unavailable")
	}

	res := h.orderSvc.PlaceOrder(ctx, "K1", placeReq(model, 1))
	require.Equal(t, result.KindException, res.FirstKind())
	require.Equal(t, 5, h.invRepo.Quantity(model))
	require.Equal(t, 0, h.orders.Len())
}

func TestCommand_LedgerWriteFailureStillReturnsSuccess(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model := uuid.New()
	h.invRepo.Seed(model, 5)
	h.ledgerRepo.InsertFn = func(ctx context.Context, rec *idempotency.Record) (bool, error) {
		return false, errors.New("disk full")
	}

	req := placeReq(model, 1)
	res := h.orderSvc.PlaceOrder(ctx, "K1", req)
	require.True(t, res.IsSuccess())
	require.Equal(t, 4, h.invRepo.Quantity(model))
	require.Equal(t, 1, h.metrics.Count(h.metrics.LedgerFailures, order.ResourceType))
	require.NotEmpty(t, h.cache.Removed, "cache is still invalidated")

	// nothing was recorded, so a retry executes again
	res = h.orderSvc.PlaceOrder(ctx, "K1", req)
	require.True(t, res.IsSuccess())
	require.Equal(t, 3, h.invRepo.Quantity(model))
}

func TestCommand_KeyReusedForDifferentResourceType(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model := uuid.New()

	prov := h.inventory.Provision(ctx, "K1", &inventory.ProvisionRequest{CarModelID: model, Quantity: 5})
	require.True(t, prov.IsSuccess())

	res := h.orderSvc.PlaceOrder(ctx, "K1", placeReq(model, 1))
	require.Equal(t, result.KindValidation, res.FirstKind())
	require.Equal(t, idempotency.ErrKeyReused.Message, res.Errors[0].Message)
	require.Equal(t, 5, h.invRepo.Quantity(model))
}

func TestCommand_KeyReusedForDifferentOperationOrTarget(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model, other := uuid.New(), uuid.New()
	h.invRepo.Seed(model, 5)
	h.invRepo.Seed(other, 9)

	inc := h.inventory.Increase(ctx, "K1", model, 2)
	require.True(t, inc.IsSuccess(), "%v", inc.Errors)
	require.Equal(t, 7, h.invRepo.Quantity(model))

	dec := h.inventory.Decrease(ctx, "K1", model, 4)
	require.Equal(t, result.KindValidation, dec.FirstKind())
	require.Equal(t, idempotency.ErrKeyReused.Message, dec.Errors[0].Message)
	require.Equal(t, 7, h.invRepo.Quantity(model))

	elsewhere := h.inventory.Decrease(ctx, "K1", other, 1)
	require.Equal(t, result.KindValidation, elsewhere.FirstKind())
	require.Equal(t, 9, h.invRepo.Quantity(other))

	more := h.inventory.Increase(ctx, "K1", model, 3)
	require.Equal(t, result.KindValidation, more.FirstKind())

	same := h.inventory.Increase(ctx, "K1", model, 2)
	require.True(t, same.IsSuccess())
	require.Equal(t, 7, same.Value.Quantity)
	require.Equal(t, 7, h.invRepo.Quantity(model))
	require.Equal(t, 1, h.metrics.Count(h.metrics.Replays, inventory.ResourceType))
}

func TestCommand_KeyReusedWithDifferentBody(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first := h.carModels.Create(ctx, "create-1", &carmodel.CreateCarModelRequest{Brand: "Volvo", Name: "XC60", Year: 2023})
	require.True(t, first.IsSuccess())

	res := h.carModels.Create(ctx, "create-1", &carmodel.CreateCarModelRequest{Brand: "Volvo", Name: "XC90", Year: 2023})
	require.Equal(t, result.KindValidation, res.FirstKind())
	require.Equal(t, idempotency.ErrKeyReused.Message, res.Errors[0].Message)

	rec, err := h.ledgerRepo.GetByKey(ctx, "create-1")
	require.NoError(t, err)
	require.NotEmpty(t, rec.RequestHash)
}

func TestCommand_InFlightKeyWithDifferentRequestRejected(t *testing.T) {
	o := services.NewCommandOrchestrator(services.NewIdempotencyLedger(&tmocks.IdempotencyRepositoryMock{}, nil), nil, nil, nil)
	ctx := context.Background()

	started, release := make(chan struct{}), make(chan struct{})
	var execs int32
	cmd := func(n int) services.Command[int] {
		return services.Command[int]{
			IdempotencyKey: "K1",
			ResourceType:   "Thing",
			Operation:      "bump",
			Request:        n,
			Execute: func(ctx context.Context) (int, string, error) {
				if atomic.AddInt32(&execs, 1) == 1 {
					close(started)
				}
				<-release
				return n, "thing-1", nil
			},
		}
	}

	done := make(chan result.Result[int])
	go func() { done <- services.RunCommand(ctx, o, cmd(1)) }()
	<-started

	other := make(chan result.Result[int])
	go func() { other <- services.RunCommand(ctx, o, cmd(2)) }()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.Equal(t, 1, (<-done).Value)
	res := <-other
	require.Equal(t, result.KindValidation, res.FirstKind())
	require.Equal(t, idempotency.ErrKeyReused.Message, res.Errors[0].Message)
	require.Equal(t, int32(1), atomic.LoadInt32(&execs))
}

func TestCommand_CancelledLeaderDoesNotFailWaiters(t *testing.T) {
	o := services.NewCommandOrchestrator(services.NewIdempotencyLedger(&tmocks.IdempotencyRepositoryMock{}, nil), nil, nil, nil)

	started, release := make(chan struct{}), make(chan struct{})
	var execs int32
	cmd := services.Command[int]{
		IdempotencyKey: "K1",
		ResourceType:   "Thing",
		Operation:      "bump",
		Execute: func(ctx context.Context) (int, string, error) {
			if atomic.AddInt32(&execs, 1) == 1 {
				close(started)
			}
			<-release
			if err := ctx.Err(); err != nil {
				return 0, "", err
			}
			return 7, "thing-1", nil
		},
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan result.Result[int])
	go func() { leader <- services.RunCommand(leaderCtx, o, cmd) }()
	<-started

	waiter := make(chan result.Result[int])
	go func() { waiter <- services.RunCommand(context.Background(), o, cmd) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	gone := <-leader
	require.Equal(t, result.KindException, gone.FirstKind())
	require.Contains(t, gone.Errors[0].Message, context.Canceled.Error())

	close(release)
	res := <-waiter
	require.True(t, res.IsSuccess(), "%v", res.Errors)
	require.Equal(t, 7, res.Value)
	require.Equal(t, int32(1), atomic.LoadInt32(&execs))
}

func TestCommand_MissingKeyRejected(t *testing.T) {
	h := newHarness()
	model := uuid.New()
	h.invRepo.Seed(model, 5)

	res := h.orderSvc.PlaceOrder(context.Background(), "", placeReq(model, 1))
	require.Equal(t, result.KindValidation, res.FirstKind())
	require.Equal(t, 5, h.invRepo.Quantity(model))
}

func TestCommand_ConcurrentSameKeyExecutesOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model := uuid.New()
	h.invRepo.Seed(model, 10)

	req := placeReq(model, 2)
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := h.orderSvc.PlaceOrder(ctx, "K-same", req)
			if res.IsSuccess() {
				ids[i] = res.Value.ID
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 8, h.invRepo.Quantity(model))
	require.Equal(t, 1, h.orders.Len())
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
}

func TestDelete_ReplayAnswersFromStoredResponse(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created := h.carModels.Create(ctx, "create-1", &carmodel.CreateCarModelRequest{Brand: "Volvo", Name: "XC60", Year: 2023, PriceCents: 4_500_000})
	require.True(t, created.IsSuccess())

	deleted := h.carModels.Delete(ctx, "delete-1", created.Value.ID)
	require.True(t, deleted.IsSuccess())
	require.Equal(t, created.Value.ID, deleted.Value.ID)

	replayed := h.carModels.Delete(ctx, "delete-1", created.Value.ID)
	require.True(t, replayed.IsSuccess(), "%v", replayed.Errors)
	require.Equal(t, created.Value.ID, replayed.Value.ID)
	require.Equal(t, "XC60", replayed.Value.Name)

	again := h.carModels.Delete(ctx, "delete-2", created.Value.ID)
	require.Equal(t, result.KindNotFound, again.FirstKind())
}

func TestCommand_ReplayFallsBackToSnapshotWhenEntityGone(t *testing.T) {
	ledgerRepo := &tmocks.IdempotencyRepositoryMock{}
	o := services.NewCommandOrchestrator(services.NewIdempotencyLedger(ledgerRepo, nil), nil, nil, nil)
	ctx := context.Background()

	type out struct{ N int }
	exec := 0
	cmd := services.Command[out]{
		IdempotencyKey: "K1",
		ResourceType:   "Thing",
		Execute: func(ctx context.Context) (out, string, error) {
			exec++
			return out{N: 42}, "thing-1", nil
		},
		Replay: func(ctx context.Context, id string) (out, error) {
			return out{}, result.NotFound("Thing", "gone")
		},
	}
	require.Equal(t, 42, services.RunCommand(ctx, o, cmd).Value.N)
	res := services.RunCommand(ctx, o, cmd)
	require.True(t, res.IsSuccess())
	require.Equal(t, 42, res.Value.N)
	require.Equal(t, 1, exec)
}

func TestCarModelDelete_InUseIsValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	created := h.carModels.Create(ctx, "c", &carmodel.CreateCarModelRequest{Brand: "Saab", Name: "900", Year: 1990})
	require.True(t, created.IsSuccess())
	h.models.DeleteFn = func(ctx context.Context, id uuid.UUID) error { return carmodel.ErrInUse }

	res := h.carModels.Delete(ctx, "d", created.Value.ID)
	require.Equal(t, result.KindValidation, res.FirstKind())
}

func TestCancelOrder_RestocksAndIsIdempotent(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	model := uuid.New()
	h.invRepo.Seed(model, 5)

	placed := h.orderSvc.PlaceOrder(ctx, "place", placeReq(model, 3))
	require.True(t, placed.IsSuccess())

	cancelled := h.orderSvc.CancelOrder(ctx, "cancel", placed.Value.ID)
	require.True(t, cancelled.IsSuccess())
	require.Equal(t, order.StatusCancelled, cancelled.Value.Status)
	require.Equal(t, 5, h.invRepo.Quantity(model))

	again := h.orderSvc.CancelOrder(ctx, "cancel", placed.Value.ID)
	require.True(t, again.IsSuccess())
	require.Equal(t, 5, h.invRepo.Quantity(model))

	other := h.orderSvc.CancelOrder(ctx, "cancel-2", placed.Value.ID)
	require.Equal(t, result.KindValidation, other.FirstKind())
	require.Equal(t, 5, h.invRepo.Quantity(model))
}
