package worker

import (
	"context"

	"eventrix-booking/internal/queue"
	"eventrix-booking/internal/service"
	"eventrix-booking/pkg/logger"

	"go.uber.org/zap"
)

// PromotionWorker 訂閱遞補任務隊列，逐筆執行候補遞補。
// 一個活動的遞補失敗只 Nack 那一筆任務，不影響其他活動。
type PromotionWorker interface {
	Start(ctx context.Context) error
}

type PromotionWorkerImpl struct {
	service service.PromotionService
	queue   queue.PromotionQueue
}

func NewPromotionWorker(service service.PromotionService, queue queue.PromotionQueue) PromotionWorker {
	return &PromotionWorkerImpl{
		service: service,
		queue:   queue,
	}
}

func (w *PromotionWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribePromotions(ctx)
	if err != nil {
		return err
	}

	go func() {
		log := logger.WithComponent("worker")
		for msg := range msgs {
			promoted, err := w.service.PromoteWaitlist(ctx, msg.Data.EventID)

			if err != nil {
				// 遞補冪等：已成功的那幾筆不會重複，重試只補剩下的
				log.Error("waitlist promotion failed, will retry",
					zap.Int("event_id", msg.Data.EventID),
					zap.String("trigger_reference", msg.Data.Reference),
					zap.Error(err))
				msg.Nack(true)
				continue
			}

			if promoted > 0 {
				log.Info("waitlist promotion completed",
					zap.Int("event_id", msg.Data.EventID),
					zap.Int("promoted", promoted))
			}
			msg.Ack()
		}
	}()
	return nil
}
