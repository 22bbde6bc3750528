package service

import (
	"context"

	"eventrix-booking/internal/cache"
	"eventrix-booking/internal/model"
	"eventrix-booking/internal/repository"
	apperrors "eventrix-booking/pkg/app_errors"
	"eventrix-booking/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	UpdateByEventID(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
}

type EventServiceImpl struct {
	repo              repository.EventRepository
	waitlistRepo      repository.WaitlistRepository
	availabilityCache cache.EventAvailabilityCache
}

func NewEventService(repo repository.EventRepository, waitlistRepo repository.WaitlistRepository, availabilityCache cache.EventAvailabilityCache) EventService {
	return &EventServiceImpl{repo: repo, waitlistRepo: waitlistRepo, availabilityCache: availabilityCache}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

func (s *EventServiceImpl) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	if req.Capacity < 0 {
		return nil, apperrors.ErrInvalidRequest
	}

	event := &model.Event{
		EventID:     uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		Date:        req.Date,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Status:      model.EventStatusUpcoming,
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, err
	}

	s.warmUpAvailability(ctx, created, 0)
	return created, nil
}

func (s *EventServiceImpl) UpdateByEventID(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, event.ID, params)
	if err != nil {
		return nil, err
	}

	waitlistLen, err := s.waitlistRepo.CountByEventID(ctx, updated.ID)
	if err != nil {
		return updated, nil
	}
	s.warmUpAvailability(ctx, updated, waitlistLen)

	return updated, nil
}

// warmUpAvailability 把座位快照放進 Redis，失敗只記錄
func (s *EventServiceImpl) warmUpAvailability(ctx context.Context, event *model.Event, waitlistLen int) {
	err := s.availabilityCache.WarmUp(ctx, event.EventID, cache.EventAvailability{
		Capacity:       event.Capacity,
		AvailableSeats: event.AvailableSeats,
		WaitlistLength: waitlistLen,
	})
	if err != nil {
		logger.WithComponent("service").Warn("availability cache warm-up failed",
			zap.String("event_id", event.EventID.String()), zap.Error(err))
	}
}
