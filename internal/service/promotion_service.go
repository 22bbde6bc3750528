package service

import (
	"context"
	"errors"

	"eventrix-booking/internal/cache"
	"eventrix-booking/internal/model"
	"eventrix-booking/internal/notification"
	"eventrix-booking/internal/repository"
	apperrors "eventrix-booking/pkg/app_errors"
	"eventrix-booking/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PromotionService 候補遞補協調器。只在 confirmed 單取消（容量增加）後觸發，
// 依 queue_position 嚴格 FIFO 遞補。每一次遞補（扣座位 + 狀態翻轉 + 離隊）
// 是一筆獨立交易，中途失敗不留半套狀態，重跑安全。
type PromotionService interface {
	PromoteWaitlist(ctx context.Context, eventID int) (int, error)
}

type PromotionServiceImpl struct {
	pool              *pgxpool.Pool
	bookingRepository repository.BookingRepository
	eventRepository   repository.EventRepository
	waitlistRepo      repository.WaitlistRepository
	availabilityCache cache.EventAvailabilityCache
	notifier          notification.Notifier
}

func NewPromotionService(
	pool *pgxpool.Pool,
	bookingRepository repository.BookingRepository,
	eventRepository repository.EventRepository,
	waitlistRepo repository.WaitlistRepository,
	availabilityCache cache.EventAvailabilityCache,
	notifier notification.Notifier,
) PromotionService {
	return &PromotionServiceImpl{
		pool:              pool,
		bookingRepository: bookingRepository,
		eventRepository:   eventRepository,
		waitlistRepo:      waitlistRepo,
		availabilityCache: availabilityCache,
		notifier:          notifier,
	}
}

// PromoteWaitlist 依序遞補候補單，回傳成功遞補的筆數。
// 隊首要的票數比剩餘座位多時整個迴圈停下：寧可留空位也不跳過隊首
// （嚴格 FIFO 優先於填滿率）。
func (s *PromotionServiceImpl) PromoteWaitlist(ctx context.Context, eventID int) (int, error) {
	log := logger.WithComponent("promotion").With(zap.Int("event_id", eventID))
	promoted := 0

	for {
		entry, err := s.waitlistRepo.PeekNext(ctx, eventID)
		if err != nil {
			if errors.Is(err, apperrors.ErrWaitlistEmpty) {
				return promoted, nil
			}
			return promoted, err
		}

		booking, err := s.bookingRepository.FindByID(ctx, entry.BookingID)
		if err != nil {
			if errors.Is(err, apperrors.ErrBookingNotFound) {
				// 殘留項目：訂票不存在，清掉後繼續，不消耗座位
				if err := s.removeEntry(ctx, eventID, entry.BookingID); err != nil {
					return promoted, err
				}
				continue
			}
			return promoted, err
		}

		// 已被持有人取消（或已確認）的單不佔隊，清掉後看下一個
		if booking.Status != model.BookingStatusWaitlisted {
			if err := s.removeEntry(ctx, eventID, entry.BookingID); err != nil {
				return promoted, err
			}
			continue
		}

		result, err := s.promoteOne(ctx, eventID, booking)
		if err != nil {
			return promoted, err
		}
		if result == promoteStop {
			// 座位不夠隊首的需求，FIFO 停損
			return promoted, nil
		}
		if result == promoteRetry {
			// 遞補途中被持有人取消，下一輪會把它清出隊
			continue
		}

		promoted++
		log.Info("waitlisted booking promoted",
			zap.String("booking_reference", booking.BookingReference),
			zap.Int("queue_position", entry.QueuePosition),
			zap.Int("tickets", booking.NumberOfTickets))
	}
}

type promoteResult int

const (
	promoteOK promoteResult = iota
	promoteStop
	promoteRetry
)

// promoteOne 單筆遞補交易：TryReserve + waitlisted→confirmed + 離隊。
// 座位不足回傳 promoteStop，其他錯誤讓交易回滾。
func (s *PromotionServiceImpl) promoteOne(ctx context.Context, eventID int, booking *model.Booking) (promoteResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return promoteStop, err
	}
	defer tx.Rollback(ctx)

	err = s.eventRepository.TryReserve(ctx, tx, eventID, booking.NumberOfTickets)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientSeats) {
			return promoteStop, nil
		}
		return promoteStop, err
	}

	confirmed, err := s.bookingRepository.UpdateStatus(ctx, tx, booking.ID,
		model.BookingStatusWaitlisted, model.BookingStatusConfirmed)
	if err != nil {
		// 條件更新匹配 0 rows：這一瞬間被取消了，整筆回滾、下一輪重看隊首
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			return promoteRetry, nil
		}
		return promoteStop, err
	}

	if err := s.waitlistRepo.Remove(ctx, tx, eventID, booking.ID); err != nil {
		return promoteStop, err
	}

	if err := tx.Commit(ctx); err != nil {
		return promoteStop, err
	}

	event, err := s.eventRepository.FindByID(ctx, eventID)
	if err == nil {
		s.notifier.NotifyConfirmed(confirmed, event)
		if err := s.availabilityCache.ApplyDelta(context.Background(), event.EventID,
			-booking.NumberOfTickets, -1); err != nil {
			logger.WithComponent("promotion").Warn("availability cache sync failed",
				zap.String("event_id", event.EventID.String()), zap.Error(err))
		}
	}

	return promoteOK, nil
}

func (s *PromotionServiceImpl) removeEntry(ctx context.Context, eventID, bookingID int) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.waitlistRepo.Remove(ctx, tx, eventID, bookingID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
