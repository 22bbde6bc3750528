package repository

import (
	"context"

	"eventrix-booking/internal/model"
	apperrors "eventrix-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WaitlistRepository 每個活動一條 FIFO 候補佇列，以 queue_position 遞增排序。
// 序號由活動上的計數器發放（見 EventRepository.NextWaitlistPosition），
// 項目離隊後序號不再使用。
type WaitlistRepository interface {
	PeekNext(ctx context.Context, eventID int) (*model.WaitlistEntry, error)
	CountByEventID(ctx context.Context, eventID int) (int, error)
	ListByEventID(ctx context.Context, eventID int) ([]*model.WaitlistEntry, error)

	// Transaction methods
	Enqueue(ctx context.Context, tx pgx.Tx, eventID, bookingID, position int) (*model.WaitlistEntry, error)
	Remove(ctx context.Context, tx pgx.Tx, eventID, bookingID int) error
}

type WaitlistRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewWaitlistRepository(pool *pgxpool.Pool) WaitlistRepository {
	return &WaitlistRepositoryImpl{
		pool: pool,
	}
}

func (r *WaitlistRepositoryImpl) Enqueue(ctx context.Context, tx pgx.Tx, eventID, bookingID, position int) (*model.WaitlistEntry, error) {
	query := `
		INSERT INTO waitlist_entries (event_id, booking_id, queue_position)
		VALUES ($1, $2, $3)
		RETURNING id, event_id, booking_id, queue_position, created_at
	`

	var entry model.WaitlistEntry
	err := tx.QueryRow(ctx, query, eventID, bookingID, position).Scan(
		&entry.ID,
		&entry.EventID,
		&entry.BookingID,
		&entry.QueuePosition,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// PeekNext 取隊首（最小 queue_position），不出隊
func (r *WaitlistRepositoryImpl) PeekNext(ctx context.Context, eventID int) (*model.WaitlistEntry, error) {
	query := `
		SELECT id, event_id, booking_id, queue_position, created_at
		FROM waitlist_entries
		WHERE event_id = $1
		ORDER BY queue_position ASC
		LIMIT 1
	`

	var entry model.WaitlistEntry
	err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&entry.ID,
		&entry.EventID,
		&entry.BookingID,
		&entry.QueuePosition,
		&entry.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrWaitlistEmpty
		}
		return nil, err
	}

	return &entry, nil
}

func (r *WaitlistRepositoryImpl) Remove(ctx context.Context, tx pgx.Tx, eventID, bookingID int) error {
	query := `
		DELETE FROM waitlist_entries
		WHERE event_id = $1 AND booking_id = $2
	`

	_, err := tx.Exec(ctx, query, eventID, bookingID)
	return err
}

func (r *WaitlistRepositoryImpl) CountByEventID(ctx context.Context, eventID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM waitlist_entries
		WHERE event_id = $1
	`

	var count int
	err := r.pool.QueryRow(ctx, query, eventID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *WaitlistRepositoryImpl) ListByEventID(ctx context.Context, eventID int) ([]*model.WaitlistEntry, error) {
	query := `
		SELECT id, event_id, booking_id, queue_position, created_at
		FROM waitlist_entries
		WHERE event_id = $1
		ORDER BY queue_position ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.WaitlistEntry, 0)
	for rows.Next() {
		var entry model.WaitlistEntry
		err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.BookingID,
			&entry.QueuePosition,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
