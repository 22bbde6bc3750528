package notification

import (
	"eventrix-booking/internal/model"
	"eventrix-booking/pkg/logger"

	"go.uber.org/zap"
)

// Notifier 訂票結果通知。呼叫端不等待也不依賴結果：
// 通知失敗只記錄，絕不影響訂票決策。
type Notifier interface {
	NotifyConfirmed(booking *model.Booking, event *model.Event)
	NotifyWaitlisted(booking *model.Booking, event *model.Event)
}

// EmailNotifier 把通知丟到 goroutine 寄信，fire-and-forget
type EmailNotifier struct {
	mailer *Mailer
}

func NewEmailNotifier(mailer *Mailer) Notifier {
	return &EmailNotifier{mailer: mailer}
}

func (n *EmailNotifier) NotifyConfirmed(booking *model.Booking, event *model.Event) {
	go func() {
		if err := n.mailer.SendConfirmationEmail(booking, event); err != nil {
			logger.WithComponent("notification").Error("confirmation email failed",
				zap.String("booking_reference", booking.BookingReference),
				zap.String("to", booking.UserEmail),
				zap.Error(err))
		}
	}()
}

func (n *EmailNotifier) NotifyWaitlisted(booking *model.Booking, event *model.Event) {
	go func() {
		if err := n.mailer.SendWaitlistEmail(booking, event); err != nil {
			logger.WithComponent("notification").Error("waitlist email failed",
				zap.String("booking_reference", booking.BookingReference),
				zap.String("to", booking.UserEmail),
				zap.Error(err))
		}
	}()
}

// NoopNotifier 測試或未設定 SMTP 時使用
type NoopNotifier struct{}

func NewNoopNotifier() Notifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) NotifyConfirmed(booking *model.Booking, event *model.Event)  {}
func (n *NoopNotifier) NotifyWaitlisted(booking *model.Booking, event *model.Event) {}
