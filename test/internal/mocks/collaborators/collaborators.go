// Package collaborators 提供 service 測試用的輕量替身：
// 記錄呼叫的通知器與遞補隊列，以及永遠 miss 的座位快照。
package collaborators

import (
	"context"
	"sync"

	"eventrix-booking/internal/cache"
	"eventrix-booking/internal/model"
	"eventrix-booking/internal/queue"
	apperrors "eventrix-booking/pkg/app_errors"

	"github.com/google/uuid"
)

type RecordingNotifier struct {
	mu         sync.Mutex
	Confirmed  []string // booking references
	Waitlisted []string
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) NotifyConfirmed(booking *model.Booking, event *model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Confirmed = append(n.Confirmed, booking.BookingReference)
}

func (n *RecordingNotifier) NotifyWaitlisted(booking *model.Booking, event *model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Waitlisted = append(n.Waitlisted, booking.BookingReference)
}

func (n *RecordingNotifier) ConfirmedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Confirmed)
}

type RecordingPromotionQueue struct {
	mu   sync.Mutex
	Jobs []*queue.PromotionJob
}

func NewRecordingPromotionQueue() *RecordingPromotionQueue {
	return &RecordingPromotionQueue{}
}

func (q *RecordingPromotionQueue) PublishPromotion(ctx context.Context, job *queue.PromotionJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Jobs = append(q.Jobs, job)
	return nil
}

func (q *RecordingPromotionQueue) SubscribePromotions(ctx context.Context) (<-chan queue.Delivery, error) {
	out := make(chan queue.Delivery)
	close(out)
	return out, nil
}

func (q *RecordingPromotionQueue) Published() []*queue.PromotionJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*queue.PromotionJob(nil), q.Jobs...)
}

// MissingAvailabilityCache 永遠 cache miss 的快照，讓 service 走 DB 路徑
type MissingAvailabilityCache struct{}

func NewMissingAvailabilityCache() *MissingAvailabilityCache {
	return &MissingAvailabilityCache{}
}

func (c *MissingAvailabilityCache) WarmUp(ctx context.Context, eventID uuid.UUID, availability cache.EventAvailability) error {
	return nil
}

func (c *MissingAvailabilityCache) Get(ctx context.Context, eventID uuid.UUID) (cache.EventAvailability, error) {
	return cache.EventAvailability{}, apperrors.ErrCacheMiss
}

func (c *MissingAvailabilityCache) ApplyDelta(ctx context.Context, eventID uuid.UUID, seatsDelta, waitlistDelta int) error {
	return nil
}

func (c *MissingAvailabilityCache) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	return nil
}
