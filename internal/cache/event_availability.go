package cache

import (
	"context"
	"fmt"
	"strconv"

	apperrors "eventrix-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventAvailability 活動座位快照，給唯讀的查詢/統計端點用。
// 帳本真相在 Postgres，這裡只是 best-effort 快取。
type EventAvailability struct {
	Capacity       int
	AvailableSeats int
	WaitlistLength int
}

type EventAvailabilityCache interface {
	// 預熱：活動開賣或資料異動時寫入快照
	WarmUp(ctx context.Context, eventID uuid.UUID, availability EventAvailability) error
	// 讀取快照，未預熱回 ErrCacheMiss
	Get(ctx context.Context, eventID uuid.UUID) (EventAvailability, error)
	// 帳本異動後調整快照 (Lua 確保只在 key 存在時生效，不會復活被清除的快照)
	ApplyDelta(ctx context.Context, eventID uuid.UUID, seatsDelta, waitlistDelta int) error
	Invalidate(ctx context.Context, eventID uuid.UUID) error
}

type EventAvailabilityCacheImpl struct {
	client *redis.Client
}

func NewEventAvailabilityCache(client *redis.Client) EventAvailabilityCache {
	return &EventAvailabilityCacheImpl{
		client: client,
	}
}

func (c *EventAvailabilityCacheImpl) getKey(eventID uuid.UUID) string {
	return fmt.Sprintf("event:%s:availability", eventID)
}

func (c *EventAvailabilityCacheImpl) WarmUp(ctx context.Context, eventID uuid.UUID, availability EventAvailability) error {
	key := c.getKey(eventID)
	return c.client.HSet(ctx, key, map[string]interface{}{
		"capacity":  availability.Capacity,
		"available": availability.AvailableSeats,
		"waitlist":  availability.WaitlistLength,
	}).Err()
}

func (c *EventAvailabilityCacheImpl) Get(ctx context.Context, eventID uuid.UUID) (EventAvailability, error) {
	key := c.getKey(eventID)
	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return EventAvailability{}, err
	}

	// 檢查 key 是否存在
	if len(result) == 0 {
		return EventAvailability{}, apperrors.ErrCacheMiss
	}

	capacity, err := strconv.Atoi(result["capacity"])
	if err != nil {
		return EventAvailability{}, fmt.Errorf("invalid capacity: %v", err)
	}

	available, err := strconv.Atoi(result["available"])
	if err != nil {
		return EventAvailability{}, fmt.Errorf("invalid available: %v", err)
	}

	waitlist, err := strconv.Atoi(result["waitlist"])
	if err != nil {
		return EventAvailability{}, fmt.Errorf("invalid waitlist: %v", err)
	}

	return EventAvailability{
		Capacity:       capacity,
		AvailableSeats: available,
		WaitlistLength: waitlist,
	}, nil
}

func (c *EventAvailabilityCacheImpl) ApplyDelta(ctx context.Context, eventID uuid.UUID, seatsDelta, waitlistDelta int) error {
	key := c.getKey(eventID)

	script := `
		-- 1. 取得參數
		local key = KEYS[1]
		local seats_delta = tonumber(ARGV[1])
		local waitlist_delta = tonumber(ARGV[2])

		-- 2. key 不存在表示尚未預熱或已失效，跳過不寫
		if redis.call('EXISTS', key) == 0 then
			return 0
		end

		-- 3. 調整快照
		if seats_delta ~= 0 then
			redis.call('HINCRBY', key, 'available', seats_delta)
		end
		if waitlist_delta ~= 0 then
			redis.call('HINCRBY', key, 'waitlist', waitlist_delta)
		end

		return 1
	`

	return c.client.Eval(ctx, script, []string{key}, seatsDelta, waitlistDelta).Err()
}

func (c *EventAvailabilityCacheImpl) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	key := c.getKey(eventID)
	return c.client.Del(ctx, key).Err()
}
