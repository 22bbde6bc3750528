package repository

import (
	"context"
	"fmt"
	"time"

	"eventrix-booking/internal/model"
	apperrors "eventrix-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id int) (*model.Booking, error)
	FindByReference(ctx context.Context, reference string) (*model.Booking, error)
	FindByUserID(ctx context.Context, userID string) ([]*model.Booking, error)
	ListByEventID(ctx context.Context, eventID int) ([]*model.Booking, error)
	CountConfirmedTickets(ctx context.Context, eventID int) (bookings int, tickets int, err error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, from, to model.BookingStatus) (*model.Booking, error)
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

const bookingColumns = `id, booking_reference, event_id, user_id, user_name, user_email,
		number_of_tickets, total_amount, payment_method, status, queue_position,
		event_title, event_date, event_venue, created_at, updated_at`

func scanBooking(row pgx.Row, b *model.Booking) error {
	return row.Scan(
		&b.ID,
		&b.BookingReference,
		&b.EventID,
		&b.UserID,
		&b.UserName,
		&b.UserEmail,
		&b.NumberOfTickets,
		&b.TotalAmount,
		&b.PaymentMethod,
		&b.Status,
		&b.QueuePosition,
		&b.EventTitle,
		&b.EventDate,
		&b.EventVenue,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	query := fmt.Sprintf(`
		INSERT INTO bookings (
			booking_reference, event_id, user_id, user_name, user_email,
			number_of_tickets, total_amount, payment_method, status, queue_position,
			event_title, event_date, event_venue
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s
	`, bookingColumns)

	err := scanBooking(tx.QueryRow(ctx, query,
		booking.BookingReference, booking.EventID, booking.UserID,
		booking.UserName, booking.UserEmail,
		booking.NumberOfTickets, booking.TotalAmount, booking.PaymentMethod,
		booking.Status, booking.QueuePosition,
		booking.EventTitle, booking.EventDate, booking.EventVenue,
	), booking)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE id = $1
	`, bookingColumns)

	var booking model.Booking
	err := scanBooking(r.pool.QueryRow(ctx, query, id), &booking)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

func (r *BookingRepositoryImpl) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE booking_reference = $1
	`, bookingColumns)

	var booking model.Booking
	err := scanBooking(r.pool.QueryRow(ctx, query, reference), &booking)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

func (r *BookingRepositoryImpl) FindByUserID(ctx context.Context, userID string) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, bookingColumns)

	return r.queryBookings(ctx, query, userID)
}

func (r *BookingRepositoryImpl) ListByEventID(ctx context.Context, eventID int) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE event_id = $1
		ORDER BY created_at DESC
	`, bookingColumns)

	return r.queryBookings(ctx, query, eventID)
}

func (r *BookingRepositoryImpl) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*model.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		var booking model.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// CountConfirmedTickets 回報已確認的訂票筆數與票數總和，統計報表用
func (r *BookingRepositoryImpl) CountConfirmedTickets(ctx context.Context, eventID int) (int, int, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(number_of_tickets), 0)
		FROM bookings
		WHERE event_id = $1 AND status = $2
	`

	var bookings, tickets int
	err := r.pool.QueryRow(ctx, query, eventID, model.BookingStatusConfirmed).Scan(&bookings, &tickets)
	if err != nil {
		return 0, 0, err
	}

	return bookings, tickets, nil
}

// UpdateStatus 帶前置狀態條件的狀態更新：WHERE status = from 擋掉並發下的
// 重複取消與非法轉換，0 rows 時回 ErrBookingNotFound。
func (r *BookingRepositoryImpl) UpdateStatus(
	ctx context.Context,
	tx pgx.Tx,
	id int,
	from, to model.BookingStatus,
) (*model.Booking, error) {
	if !from.CanTransitionTo(to) {
		return nil, apperrors.ErrInvalidRequest
	}

	query := fmt.Sprintf(`
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING %s
	`, bookingColumns)

	var booking model.Booking
	err := scanBooking(tx.QueryRow(ctx, query, to, time.Now().UTC(), id, from), &booking)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	return &booking, nil
}
