package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/carmodel"
	"github.com/avatarctic/vehicle-trading/go/internal/core/domain/result"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

const carModelSource = "CarModelService"

type CarModelService struct {
	repo   ports.CarModelRepository
	cmd    *CommandOrchestrator
	query  *QueryOrchestrator
	logger *logrus.Logger
}

func NewCarModelService(repo ports.CarModelRepository, cmd *CommandOrchestrator, query *QueryOrchestrator, logger *logrus.Logger) ports.CarModelService {
	return &CarModelService{repo: repo, cmd: cmd, query: query, logger: loggerOrDiscard(logger)}
}

func carModelKeys(id uuid.UUID) []string {
	return []string{carmodel.ItemCacheKey(id), carmodel.CollectionCacheKey}
}

func (s *CarModelService) replay(ctx context.Context, resourceID string) (carmodel.DTO, error) {
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return carmodel.DTO{}, carmodel.ErrNotFound
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return carmodel.DTO{}, err
	}
	return carmodel.ToDTO(m), nil
}

func (s *CarModelService) Create(ctx context.Context, idempotencyKey string, req *carmodel.CreateCarModelRequest) result.Result[carmodel.DTO] {
	return RunCommand(ctx, s.cmd, Command[carmodel.DTO]{
		IdempotencyKey: idempotencyKey,
		ResourceType:   carmodel.ResourceType,
		Operation:      "create",
		Request:        req,
		Source:         carModelSource,
		Execute: func(ctx context.Context) (carmodel.DTO, string, error) {
			now := time.Now().UTC()
			m := &carmodel.CarModel{
				ID:         uuid.New(),
				Brand:      req.Brand,
				Name:       req.Name,
				Year:       req.Year,
				PriceCents: req.PriceCents,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.repo.Create(ctx, m); err != nil {
				return carmodel.DTO{}, "", err
			}
			s.logger.WithFields(logrus.Fields{"car_model_id": m.ID, "brand": m.Brand, "name": m.Name}).Info("car model created")
			return carmodel.ToDTO(m), m.ID.String(), nil
		},
		Replay:     s.replay,
		Invalidate: func(d carmodel.DTO) []string { return carModelKeys(d.ID) },
	})
}

func (s *CarModelService) Update(ctx context.Context, idempotencyKey string, id uuid.UUID, req *carmodel.UpdateCarModelRequest) result.Result[carmodel.DTO] {
	return RunCommand(ctx, s.cmd, Command[carmodel.DTO]{
		IdempotencyKey: idempotencyKey,
		ResourceType:   carmodel.ResourceType,
		Operation:      "update",
		Request:        targeted{ID: id, Body: req},
		Source:         carModelSource,
		Execute: func(ctx context.Context) (carmodel.DTO, string, error) {
			m, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return carmodel.DTO{}, "", err
			}
			if req.Brand != nil {
				m.Brand = *req.Brand
			}
			if req.Name != nil {
				m.Name = *req.Name
			}
			if req.Year != nil {
				m.Year = *req.Year
			}
			if req.PriceCents != nil {
				m.PriceCents = *req.PriceCents
			}
			m.UpdatedAt = time.Now().UTC()
			if err := s.repo.Update(ctx, m); err != nil {
				return carmodel.DTO{}, "", err
			}
			return carmodel.ToDTO(m), m.ID.String(), nil
		},
		Replay:     s.replay,
		Invalidate: func(d carmodel.DTO) []string { return carModelKeys(d.ID) },
	})
}

// Delete returns the removed model. A replayed delete answers from the
// ledger snapshot since the row is gone.
func (s *CarModelService) Delete(ctx context.Context, idempotencyKey string, id uuid.UUID) result.Result[carmodel.DTO] {
	return RunCommand(ctx, s.cmd, Command[carmodel.DTO]{
		IdempotencyKey: idempotencyKey,
		ResourceType:   carmodel.ResourceType,
		Operation:      "delete",
		Request:        targeted{ID: id},
		Source:         carModelSource,
		Execute: func(ctx context.Context) (carmodel.DTO, string, error) {
			m, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return carmodel.DTO{}, "", err
			}
			if err := s.repo.Delete(ctx, id); err != nil {
				return carmodel.DTO{}, "", err
			}
			s.logger.WithFields(logrus.Fields{"car_model_id": id}).Info("car model deleted")
			return carmodel.ToDTO(m), id.String(), nil
		},
		Invalidate: func(d carmodel.DTO) []string { return carModelKeys(d.ID) },
	})
}

func (s *CarModelService) Get(ctx context.Context, id uuid.UUID) result.Result[carmodel.DTO] {
	return RunQuery(ctx, s.query, carmodel.ItemCacheKey(id), carModelSource, func(ctx context.Context) (carmodel.DTO, error) {
		m, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return carmodel.DTO{}, err
		}
		return carmodel.ToDTO(m), nil
	})
}

func (s *CarModelService) List(ctx context.Context, limit, offset int) result.Result[[]carmodel.DTO] {
	res := RunQuery(ctx, s.query, carmodel.CollectionCacheKey, carModelSource, func(ctx context.Context) ([]carmodel.DTO, error) {
		all, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		return carmodel.ToDTOs(all), nil
	})
	if !res.IsSuccess() {
		return res
	}
	return result.Success(page(res.Value, limit, offset))
}
