package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/order"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

const orderSource = "OrderService"

type OrderService struct {
	orders   ports.OrderRepository
	adjuster ports.InventoryAdjuster
	tx       ports.Transactor
	cmd      *CommandOrchestrator
	query    *QueryOrchestrator
	logger   *logrus.Logger
}

func NewOrderService(orders ports.OrderRepository, adjuster ports.InventoryAdjuster, tx ports.Transactor, cmd *CommandOrchestrator, query *QueryOrchestrator, logger *logrus.Logger) ports.OrderService {
	return &OrderService{orders: orders, adjuster: adjuster, tx: tx, cmd: cmd, query: query, logger: loggerOrDiscard(logger)}
}

func (s *OrderService) replay(ctx context.Context, resourceID string) (order.DTO, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return order.DTO{}, order.ErrNotFound
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return order.DTO{}, err
	}
	return order.ToDTO(o), nil
}

func orderKeys(o order.DTO, stock *inventory.Record) []string {
	keys := []string{order.ItemCacheKey(o.ID), order.CollectionCacheKey}
	if stock != nil {
		keys = append(keys, inventory.CacheKeys(stock)...)
	}
	return keys
}

// PlaceOrder takes stock and records the order in one transaction, so a
// failed insert gives the units back.
func (s *OrderService) PlaceOrder(ctx context.Context, idempotencyKey string, req *order.PlaceOrderRequest) result.Result[order.DTO] {
	var stock *inventory.Record
	return RunCommand(ctx, s.cmd, Command[order.DTO]{
		IdempotencyKey: idempotencyKey,
		ResourceType:   order.ResourceType,
		Operation:      "place",
		Request:        req,
		Source:         orderSource,
		Execute: func(ctx context.Context) (order.DTO, string, error) {
			now := time.Now().UTC()
			o := &order.Order{
				ID:         uuid.New(),
				CarModelID: req.CarModelID,
				BuyerID:    req.BuyerID,
				Quantity:   req.Quantity,
				Status:     order.StatusPlaced,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
				rec, err := s.adjuster.Decrease(ctx, req.CarModelID, req.Quantity)
				if err != nil {
					return err
				}
				if err := s.orders.Create(ctx, o); err != nil {
					return err
				}
				stock = rec
				return nil
			})
			if err != nil {
				return order.DTO{}, "", err
			}
			s.logger.WithFields(logrus.Fields{"order_id": o.ID, "car_model_id": o.CarModelID, "quantity": o.Quantity, "remaining": stock.Quantity}).Info("order placed")
			return order.ToDTO(o), o.ID.String(), nil
		},
		Replay:     s.replay,
		Invalidate: func(d order.DTO) []string { return orderKeys(d, stock) },
	})
}

// CancelOrder moves a placed order to cancelled and returns its units to stock.
func (s *OrderService) CancelOrder(ctx context.Context, idempotencyKey string, id uuid.UUID) result.Result[order.DTO] {
	var stock *inventory.Record
	return RunCommand(ctx, s.cmd, Command[order.DTO]{
		IdempotencyKey: idempotencyKey,
		ResourceType:   order.ResourceType,
		Operation:      "cancel",
		Request:        targeted{ID: id},
		Source:         orderSource,
		Execute: func(ctx context.Context) (order.DTO, string, error) {
			var cancelled *order.Order
			err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
				o, err := s.orders.UpdateStatus(ctx, id, order.StatusPlaced, order.StatusCancelled)
				if err != nil {
					return err
				}
				rec, err := s.adjuster.Increase(ctx, o.CarModelID, o.Quantity)
				if err != nil {
					return err
				}
				cancelled, stock = o, rec
				return nil
			})
			if err != nil {
				return order.DTO{}, "", err
			}
			s.logger.WithFields(logrus.Fields{"order_id": id, "car_model_id": cancelled.CarModelID, "restocked": cancelled.Quantity}).Info("order cancelled")
			return order.ToDTO(cancelled), cancelled.ID.String(), nil
		},
		Replay:     s.replay,
		Invalidate: func(d order.DTO) []string { return orderKeys(d, stock) },
	})
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) result.Result[order.DTO] {
	return RunQuery(ctx, s.query, order.ItemCacheKey(id), orderSource, func(ctx context.Context) (order.DTO, error) {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return order.DTO{}, err
		}
		return order.ToDTO(o), nil
	})
}

func (s *OrderService) List(ctx context.Context, limit, offset int) result.Result[[]order.DTO] {
	res := RunQuery(ctx, s.query, order.CollectionCacheKey, orderSource, func(ctx context.Context) ([]order.DTO, error) {
		all, err := s.orders.List(ctx)
		if err != nil {
			return nil, err
		}
		return order.ToDTOs(all), nil
	})
	if !res.IsSuccess() {
		return res
	}
	return result.Success(page(res.Value, limit, offset))
}
