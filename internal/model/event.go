package model

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus 活動生命週期狀態
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// IsBookable 只有 upcoming 的活動可以訂票
func (s EventStatus) IsBookable() bool {
	return s == EventStatusUpcoming
}

// Event 活動模型。available_seats 只由座位帳本（event repository）變動，
// capacity 建立後不再更改。
type Event struct {
	ID                   int         `json:"id" db:"id"`
	EventID              uuid.UUID   `json:"event_id" db:"event_id"`
	Title                string      `json:"title" db:"title"`
	Description          *string     `json:"description,omitempty" db:"description"`
	Venue                string      `json:"venue" db:"venue"`
	Date                 time.Time   `json:"date" db:"date"`
	Price                float64     `json:"price" db:"price"`
	Capacity             int         `json:"capacity" db:"capacity"`
	AvailableSeats       int         `json:"available_seats" db:"available_seats"`
	Status               EventStatus `json:"status" db:"status"`
	WaitlistNextPosition int         `json:"-" db:"waitlist_next_position"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" db:"updated_at"`
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description *string   `json:"description"`
	Venue       string    `json:"venue" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	Price       float64   `json:"price" binding:"min=0"`
	Capacity    int       `json:"capacity" binding:"required,min=0"`
}

type UpdateEventParams struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Venue       *string      `json:"venue"`
	Status      *EventStatus `json:"status"`
}

// EventStats 每個活動的訂票與候補統計（唯讀報表用）
type EventStats struct {
	EventID           uuid.UUID `json:"event_id"`
	Capacity          int       `json:"capacity"`
	AvailableSeats    int       `json:"available_seats"`
	ConfirmedBookings int       `json:"confirmed_bookings"`
	TicketsSold       int       `json:"tickets_sold"`
	WaitlistLength    int       `json:"waitlist_length"`
}
