package queue

import (
	"context"
)

// PromotionJob 一次容量釋出事件：請 worker 對該活動跑候補遞補迴圈。
// 遞補本身冪等，同一活動重複投遞無害。
type PromotionJob struct {
	EventID   int    `json:"event_id"`
	Reference string `json:"reference"` // 觸發釋出的訂票編號，追蹤用
}

type Delivery struct {
	Data *PromotionJob
	Ack  func()
	Nack func(requeue bool)
}

type PromotionQueue interface {
	// 發送遞補任務到隊列
	PublishPromotion(ctx context.Context, job *PromotionJob) error
	// 訂閱遞補任務隊列
	SubscribePromotions(ctx context.Context) (<-chan Delivery, error)
}

type PromotionQueueImpl struct {
	// 使用 Go channel 的行程內隊列，開發與測試用；部署版見 Redis Stream 實作
	ch chan *PromotionJob
}

func NewPromotionQueue(bufferSize int) PromotionQueue {
	return &PromotionQueueImpl{
		ch: make(chan *PromotionJob, bufferSize),
	}
}

func (q *PromotionQueueImpl) PublishPromotion(ctx context.Context, job *PromotionJob) error {
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *PromotionQueueImpl) SubscribePromotions(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: job,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- job // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
