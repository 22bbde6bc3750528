package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventrix-booking/internal/model"
	apperrors "eventrix-booking/pkg/app_errors"
	"eventrix-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// EventRepository 活動目錄兼座位帳本。available_seats 的所有加減都走
// TryReserve / Release，兩者都是單一條件式 UPDATE，同一活動的並發請求
// 由資料庫序列化，不存在先讀後寫的競態窗口。
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	FindByID(ctx context.Context, id int) (*model.Event, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error)

	// Transaction methods (seat ledger)
	TryReserve(ctx context.Context, tx pgx.Tx, id int, count int) error
	Release(ctx context.Context, tx pgx.Tx, id int, count int) error
	NextWaitlistPosition(ctx context.Context, tx pgx.Tx, id int) (int, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, event_id, title, description, venue, date, price,
		capacity, available_seats, status, waitlist_next_position,
		created_at, updated_at`

func scanEvent(row pgx.Row, event *model.Event) error {
	return row.Scan(
		&event.ID,
		&event.EventID,
		&event.Title,
		&event.Description,
		&event.Venue,
		&event.Date,
		&event.Price,
		&event.Capacity,
		&event.AvailableSeats,
		&event.Status,
		&event.WaitlistNextPosition,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := fmt.Sprintf(`
		INSERT INTO events (event_id, title, description, venue, date, price, capacity, available_seats, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		RETURNING %s
	`, eventColumns)

	err := scanEvent(r.pool.QueryRow(ctx, query,
		event.EventID, event.Title, event.Description, event.Venue,
		event.Date, event.Price, event.Capacity, event.Status,
	), event)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		ORDER BY date ASC
	`, eventColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		var event model.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE id = $1
	`, eventColumns)

	var event model.Event
	err := scanEvent(r.pool.QueryRow(ctx, query, id), &event)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

func (r *EventRepositoryImpl) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE event_id = $1
	`, eventColumns)

	var event model.Event
	err := scanEvent(r.pool.QueryRow(ctx, query, eventID), &event)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

func (r *EventRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	if params.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argPos))
		args = append(args, *params.Title)
		argPos++
	}

	if params.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *params.Description)
		argPos++
	}

	if params.Venue != nil {
		sets = append(sets, fmt.Sprintf("venue = $%d", argPos))
		args = append(args, *params.Venue)
		argPos++
	}

	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, apperrors.ErrInvalidRequest
		}
		sets = append(sets, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidRequest
	}

	// add updated_at
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, eventColumns)

	var event model.Event
	err := scanEvent(r.pool.QueryRow(ctx, query, args...), &event)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

// TryReserve 原子地扣減可用座位：條件 available_seats >= count 內建在
// UPDATE 裡，兩筆合計超過剩餘座位的並發請求不可能同時成功。
// 扣不到回傳 ErrInsufficientSeats。
func (r *EventRepositoryImpl) TryReserve(ctx context.Context, tx pgx.Tx, id int, count int) error {
	query := `
		UPDATE events
		SET available_seats = available_seats - $1, updated_at = $2
		WHERE id = $3 AND available_seats >= $1
	`

	result, err := tx.Exec(ctx, query, count, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInsufficientSeats
	}

	return nil
}

// Release 歸還座位。正常情況 available_seats + count 不會超過 capacity；
// 超過代表上游記帳出錯，此時夾到 capacity 並記錄錯誤，不讓帳本壞掉也不無聲吞掉。
func (r *EventRepositoryImpl) Release(ctx context.Context, tx pgx.Tx, id int, count int) error {
	query := `
		UPDATE events
		SET available_seats = available_seats + $1, updated_at = $2
		WHERE id = $3 AND available_seats + $1 <= capacity
	`

	result, err := tx.Exec(ctx, query, count, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() > 0 {
		return nil
	}

	clamp := `
		UPDATE events
		SET available_seats = capacity, updated_at = $1
		WHERE id = $2
	`
	clamped, err := tx.Exec(ctx, clamp, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if clamped.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	logger.WithComponent("repository").Error("seat release exceeded capacity, clamped",
		zap.Int("event_id", id), zap.Int("count", count))
	return nil
}

// NextWaitlistPosition 取得該活動下一個候補序號，嚴格遞增且離隊後不回收
func (r *EventRepositoryImpl) NextWaitlistPosition(ctx context.Context, tx pgx.Tx, id int) (int, error) {
	query := `
		UPDATE events
		SET waitlist_next_position = waitlist_next_position + 1
		WHERE id = $1
		RETURNING waitlist_next_position
	`

	var position int
	err := tx.QueryRow(ctx, query, id).Scan(&position)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, apperrors.ErrEventNotFound
		}
		return 0, err
	}

	return position, nil
}
