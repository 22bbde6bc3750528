package model

import "time"

// BookingStatus 訂票狀態類型
type BookingStatus string

const (
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusWaitlisted BookingStatus = "waitlisted"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusWaitlisted, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態。
// 狀態只能往前走：waitlisted 可升級為 confirmed，cancelled 是終點。
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusWaitlisted: {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed:  {BookingStatusCancelled},
		BookingStatusCancelled:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Booking 訂票模型。活動標題、日期、場地與價格在建立當下快照，
// 之後活動資料異動不影響既有訂票（total_amount 鎖定在下訂時的價格）。
// 訂票永不刪除，取消只是標記 status = cancelled。
type Booking struct {
	ID               int           `json:"id" db:"id"`
	BookingReference string        `json:"booking_reference" db:"booking_reference"`
	EventID          int           `json:"event_id" db:"event_id"`
	UserID           string        `json:"user_id" db:"user_id"`
	UserName         string        `json:"user_name" db:"user_name"`
	UserEmail        string        `json:"user_email" db:"user_email"`
	NumberOfTickets  int           `json:"number_of_tickets" db:"number_of_tickets"`
	TotalAmount      float64       `json:"total_amount" db:"total_amount"`
	PaymentMethod    string        `json:"payment_method" db:"payment_method"`
	Status           BookingStatus `json:"status" db:"status"`
	QueuePosition    *int          `json:"queue_position,omitempty" db:"queue_position"`
	EventTitle       string        `json:"event_title" db:"event_title"`
	EventDate        time.Time     `json:"event_date" db:"event_date"`
	EventVenue       string        `json:"event_venue" db:"event_venue"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// IsActive 尚未取消的訂票
func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCancelled
}

// UserIdentity 呼叫者身分，由認證服務經 gateway header 傳入
type UserIdentity struct {
	UserID    string
	UserName  string
	UserEmail string
}

// CreateBookingRequest 建立訂票請求。JoinWaitlist 表示滿座時願意候補。
type CreateBookingRequest struct {
	EventID         string `json:"event_id" binding:"required,uuid"`
	NumberOfTickets int    `json:"number_of_tickets" binding:"required,min=1"`
	PaymentMethod   string `json:"payment_method"`
	JoinWaitlist    bool   `json:"join_waitlist"`
}

// BookingResponse 訂票響應
type BookingResponse struct {
	BookingReference string  `json:"booking_reference"`
	EventID          string  `json:"event_id"`
	EventTitle       string  `json:"event_title"`
	NumberOfTickets  int     `json:"number_of_tickets"`
	TotalAmount      float64 `json:"total_amount"`
	Status           string  `json:"status"`
	QueuePosition    *int    `json:"queue_position,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// WaitlistEntry 候補佇列項目，queue_position 每個活動嚴格遞增且不重複使用
type WaitlistEntry struct {
	ID            int       `json:"id" db:"id"`
	EventID       int       `json:"event_id" db:"event_id"`
	BookingID     int       `json:"booking_id" db:"booking_id"`
	QueuePosition int       `json:"queue_position" db:"queue_position"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
