package service

import (
	"context"
	"errors"
	"strings"

	"eventrix-booking/internal/cache"
	"eventrix-booking/internal/model"
	"eventrix-booking/internal/notification"
	"eventrix-booking/internal/queue"
	"eventrix-booking/internal/repository"
	apperrors "eventrix-booking/pkg/app_errors"
	"eventrix-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BookingService interface {
	// 建立訂票：原子決策 confirmed / waitlisted / 拒絕
	CreateBooking(ctx context.Context, user model.UserIdentity, req model.CreateBookingRequest) (*model.Booking, error)
	// 取消訂票：釋出座位並觸發候補遞補
	CancelBooking(ctx context.Context, reference string, userID string) (*model.Booking, error)
	GetByReference(ctx context.Context, reference string) (*model.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]*model.Booking, error)
	EventStats(ctx context.Context, eventID uuid.UUID) (*model.EventStats, error)
}

type BookingServiceImpl struct {
	pool              *pgxpool.Pool
	repository        repository.BookingRepository
	eventRepository   repository.EventRepository
	waitlistRepo      repository.WaitlistRepository
	availabilityCache cache.EventAvailabilityCache
	promotionQueue    queue.PromotionQueue
	notifier          notification.Notifier
}

func NewBookingService(
	pool *pgxpool.Pool,
	bookingRepository repository.BookingRepository,
	eventRepository repository.EventRepository,
	waitlistRepo repository.WaitlistRepository,
	availabilityCache cache.EventAvailabilityCache,
	promotionQueue queue.PromotionQueue,
	notifier notification.Notifier,
) BookingService {
	return &BookingServiceImpl{
		pool:              pool,
		repository:        bookingRepository,
		eventRepository:   eventRepository,
		waitlistRepo:      waitlistRepo,
		availabilityCache: availabilityCache,
		promotionQueue:    promotionQueue,
		notifier:          notifier,
	}
}

// NewBookingReference 產生對外的訂票編號，與儲存層主鍵無關
func NewBookingReference() string {
	return "BK-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}

// CreateBooking 訂票決策。座位扣減 (TryReserve) 和訂票寫入同一筆交易，
// 不會出現扣了座位沒有訂票、或有訂票沒扣座位的中間態。
func (s *BookingServiceImpl) CreateBooking(ctx context.Context, user model.UserIdentity, req model.CreateBookingRequest) (*model.Booking, error) {
	if req.NumberOfTickets < 1 {
		return nil, apperrors.ErrInvalidRequest
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, apperrors.ErrInvalidRequest
	}

	event, err := s.eventRepository.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !event.Status.IsBookable() {
		return nil, apperrors.ErrEventNotBookable
	}

	// total_amount 以下訂當下的價格快照，之後改價不影響；
	// 候補單同樣在加入時鎖價，遞補時不重算。
	booking := &model.Booking{
		BookingReference: NewBookingReference(),
		EventID:          event.ID,
		UserID:           user.UserID,
		UserName:         user.UserName,
		UserEmail:        user.UserEmail,
		NumberOfTickets:  req.NumberOfTickets,
		TotalAmount:      event.Price * float64(req.NumberOfTickets),
		PaymentMethod:    req.PaymentMethod,
		EventTitle:       event.Title,
		EventDate:        event.Date,
		EventVenue:       event.Venue,
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	reserveErr := s.eventRepository.TryReserve(ctx, tx, event.ID, req.NumberOfTickets)

	switch {
	case reserveErr == nil:
		booking.Status = model.BookingStatusConfirmed
		if _, err := s.repository.Create(ctx, tx, booking); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		s.notifier.NotifyConfirmed(booking, event)
		s.syncAvailability(event.EventID, -req.NumberOfTickets, 0)
		return booking, nil

	case errors.Is(reserveErr, apperrors.ErrInsufficientSeats):
		if !req.JoinWaitlist {
			return nil, apperrors.ErrSoldOut
		}

		position, err := s.eventRepository.NextWaitlistPosition(ctx, tx, event.ID)
		if err != nil {
			return nil, err
		}

		booking.Status = model.BookingStatusWaitlisted
		booking.QueuePosition = &position
		created, err := s.repository.Create(ctx, tx, booking)
		if err != nil {
			return nil, err
		}
		if _, err := s.waitlistRepo.Enqueue(ctx, tx, event.ID, created.ID, position); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		s.notifier.NotifyWaitlisted(booking, event)
		s.syncAvailability(event.EventID, 0, 1)
		return booking, nil

	default:
		return nil, reserveErr
	}
}

// CancelBooking 取消訂票。confirmed 單釋出座位並投遞遞補任務；
// waitlisted 單只離隊，不碰帳本也不觸發遞補。
func (s *BookingServiceImpl) CancelBooking(ctx context.Context, reference string, userID string) (*model.Booking, error) {
	booking, err := s.repository.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if booking.UserID != userID {
		return nil, apperrors.ErrForbidden
	}

	if booking.Status == model.BookingStatusCancelled {
		return nil, apperrors.ErrAlreadyCancelled
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// UpdateStatus 帶 WHERE status = from 條件：並發下第二個取消
	// 會匹配 0 rows，視為已取消。
	wasConfirmed := booking.Status == model.BookingStatusConfirmed

	cancelled, err := s.repository.UpdateStatus(ctx, tx, booking.ID, booking.Status, model.BookingStatusCancelled)
	if err != nil {
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			return nil, apperrors.ErrAlreadyCancelled
		}
		return nil, err
	}

	if wasConfirmed {
		if err := s.eventRepository.Release(ctx, tx, booking.EventID, booking.NumberOfTickets); err != nil {
			return nil, err
		}
	} else {
		if err := s.waitlistRepo.Remove(ctx, tx, booking.EventID, booking.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if wasConfirmed {
		s.syncAvailability(s.eventUUID(ctx, booking.EventID), booking.NumberOfTickets, 0)
		s.publishPromotion(booking)
	} else {
		s.syncAvailability(s.eventUUID(ctx, booking.EventID), 0, -1)
	}

	return cancelled, nil
}

func (s *BookingServiceImpl) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	return s.repository.FindByReference(ctx, reference)
}

func (s *BookingServiceImpl) ListUserBookings(ctx context.Context, userID string) ([]*model.Booking, error) {
	return s.repository.FindByUserID(ctx, userID)
}

// EventStats 活動訂票/候補統計。座位快照優先走 Redis，miss 時回 DB 並回填。
func (s *BookingServiceImpl) EventStats(ctx context.Context, eventID uuid.UUID) (*model.EventStats, error) {
	event, err := s.eventRepository.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	bookings, tickets, err := s.repository.CountConfirmedTickets(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	stats := &model.EventStats{
		EventID:           event.EventID,
		Capacity:          event.Capacity,
		AvailableSeats:    event.AvailableSeats,
		ConfirmedBookings: bookings,
		TicketsSold:       tickets,
	}

	availability, err := s.availabilityCache.Get(ctx, eventID)
	if err == nil {
		stats.AvailableSeats = availability.AvailableSeats
		stats.WaitlistLength = availability.WaitlistLength
		return stats, nil
	}
	if !errors.Is(err, apperrors.ErrCacheMiss) {
		logger.WithComponent("service").Warn("availability cache read failed",
			zap.String("event_id", eventID.String()), zap.Error(err))
	}

	waitlistLen, err := s.waitlistRepo.CountByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	stats.WaitlistLength = waitlistLen

	if err := s.availabilityCache.WarmUp(ctx, eventID, cache.EventAvailability{
		Capacity:       event.Capacity,
		AvailableSeats: event.AvailableSeats,
		WaitlistLength: waitlistLen,
	}); err != nil {
		logger.WithComponent("service").Warn("availability cache warm-up failed",
			zap.String("event_id", eventID.String()), zap.Error(err))
	}

	return stats, nil
}

// syncAvailability 調整 Redis 快照，失敗只記錄（快照允許短暫過期）
func (s *BookingServiceImpl) syncAvailability(eventID uuid.UUID, seatsDelta, waitlistDelta int) {
	if eventID == uuid.Nil {
		return
	}
	if err := s.availabilityCache.ApplyDelta(context.Background(), eventID, seatsDelta, waitlistDelta); err != nil {
		logger.WithComponent("service").Warn("availability cache sync failed",
			zap.String("event_id", eventID.String()), zap.Error(err))
	}
}

// publishPromotion 投遞遞補任務。投遞失敗只記錄：遞補冪等，
// 下一次同活動的取消或手動重跑都會補上。
func (s *BookingServiceImpl) publishPromotion(booking *model.Booking) {
	job := &queue.PromotionJob{
		EventID:   booking.EventID,
		Reference: booking.BookingReference,
	}
	if err := s.promotionQueue.PublishPromotion(context.Background(), job); err != nil {
		logger.WithComponent("service").Error("failed to publish promotion job",
			zap.Int("event_id", booking.EventID),
			zap.String("booking_reference", booking.BookingReference),
			zap.Error(err))
	}
}

func (s *BookingServiceImpl) eventUUID(ctx context.Context, eventID int) uuid.UUID {
	event, err := s.eventRepository.FindByID(ctx, eventID)
	if err != nil {
		return uuid.Nil
	}
	return event.EventID
}
