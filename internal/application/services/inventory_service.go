package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/inventory"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

const inventorySource = "InventoryService"

type InventoryService struct {
	repo     ports.InventoryRepository
	adjuster ports.InventoryAdjuster
	cmd      *CommandOrchestrator
	query    *QueryOrchestrator
	logger   *logrus.Logger
}

func NewInventoryService(repo ports.InventoryRepository, adjuster ports.InventoryAdjuster, cmd *CommandOrchestrator, query *QueryOrchestrator, logger *logrus.Logger) ports.InventoryService {
	return &InventoryService{repo: repo, adjuster: adjuster, cmd: cmd, query: query, logger: loggerOrDiscard(logger)}
}

func (s *InventoryService) replay(ctx context.Context, resourceID string) (inventory.DTO, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return inventory.DTO{}, inventory.ErrNotFound
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return inventory.DTO{}, err
	}
	return inventory.ToDTO(rec), nil
}

func invalidateInventory(d inventory.DTO) []string {
	return inventory.CacheKeys(&inventory.Record{ID: d.ID, CarModelID: d.CarModelID})
}

func (s *InventoryService) Provision(ctx context.Context, idempotencyKey string, req *inventory.ProvisionRequest) result.Result[inventory.DTO] {
	return RunCommand(ctx, s.cmd, Command[inventory.DTO]{
		IdempotencyKey: idempotencyKey,
		ResourceType:   inventory.ResourceType,
		Operation:      "provision",
		Request:        req,
		Source:         inventorySource,
		Execute: func(ctx context.Context) (inventory.DTO, string, error) {
			if req.Quantity < 0 {
				return inventory.DTO{}, "", result.Validation(inventory.ResourceType, "quantity must not be negative")
			}
			rec := &inventory.Record{
				ID:          uuid.New(),
				CarModelID:  req.CarModelID,
				Quantity:    req.Quantity,
				LastUpdated: time.Now().UTC(),
			}
			if err := s.repo.Create(ctx, rec); err != nil {
				return inventory.DTO{}, "", err
			}
			s.logger.WithFields(logrus.Fields{"inventory_id": rec.ID, "car_model_id": rec.CarModelID, "quantity": rec.Quantity}).Info("inventory provisioned")
			return inventory.ToDTO(rec), rec.ID.String(), nil
		},
		Replay:     s.replay,
		Invalidate: invalidateInventory,
	})
}

func (s *InventoryService) Get(ctx context.Context, id uuid.UUID) result.Result[inventory.DTO] {
	return RunQuery(ctx, s.query, inventory.ItemCacheKey(id), inventorySource, func(ctx context.Context) (inventory.DTO, error) {
		rec, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return inventory.DTO{}, err
		}
		return inventory.ToDTO(rec), nil
	})
}

func (s *InventoryService) GetByCarModel(ctx context.Context, carModelID uuid.UUID) result.Result[inventory.DTO] {
	return RunQuery(ctx, s.query, inventory.CarModelCacheKey(carModelID), inventorySource, func(ctx context.Context) (inventory.DTO, error) {
		rec, err := s.repo.GetByCarModelID(ctx, carModelID)
		if err != nil {
			return inventory.DTO{}, err
		}
		return inventory.ToDTO(rec), nil
	})
}

func (s *InventoryService) List(ctx context.Context, limit, offset int) result.Result[[]inventory.DTO] {
	res := RunQuery(ctx, s.query, inventory.CollectionCacheKey, inventorySource, func(ctx context.Context) ([]inventory.DTO, error) {
		all, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		return inventory.ToDTOs(all), nil
	})
	if !res.IsSuccess() {
		return res
	}
	return result.Success(page(res.Value, limit, offset))
}

// CheckAvailability always reads the store; stock answers are not cached.
func (s *InventoryService) CheckAvailability(ctx context.Context, carModelID uuid.UUID, requested int) result.Result[inventory.Availability] {
	a, err := s.adjuster.CheckAvailability(ctx, carModelID, requested)
	if err != nil {
		return result.FromError[inventory.Availability](err, inventorySource)
	}
	return result.Success(*a)
}

func (s *InventoryService) Increase(ctx context.Context, idempotencyKey string, carModelID uuid.UUID, quantity int) result.Result[inventory.DTO] {
	return s.adjust(ctx, idempotencyKey, "increase", adjustment{carModelID, quantity}, func(ctx context.Context) (*inventory.Record, error) {
		return s.adjuster.Increase(ctx, carModelID, quantity)
	})
}

func (s *InventoryService) Decrease(ctx context.Context, idempotencyKey string, carModelID uuid.UUID, quantity int) result.Result[inventory.DTO] {
	return s.adjust(ctx, idempotencyKey, "decrease", adjustment{carModelID, quantity}, func(ctx context.Context) (*inventory.Record, error) {
		return s.adjuster.Decrease(ctx, carModelID, quantity)
	})
}

// adjustment is the fingerprinted input of an increase or decrease.
type adjustment struct {
	CarModelID uuid.UUID `json:"car_model_id"`
	Quantity   int       `json:"quantity"`
}

func (s *InventoryService) adjust(ctx context.Context, idempotencyKey, operation string, req adjustment, apply func(ctx context.Context) (*inventory.Record, error)) result.Result[inventory.DTO] {
	return RunCommand(ctx, s.cmd, Command[inventory.DTO]{
		IdempotencyKey: idempotencyKey,
		ResourceType:   inventory.ResourceType,
		Operation:      operation,
		Request:        req,
		Source:         inventorySource,
		Execute: func(ctx context.Context) (inventory.DTO, string, error) {
			rec, err := apply(ctx)
			if err != nil {
				return inventory.DTO{}, "", err
			}
			return inventory.ToDTO(rec), rec.ID.String(), nil
		},
		Replay:     s.replay,
		Invalidate: invalidateInventory,
	})
}
