package service

import (
	"context"
	"testing"

	"eventrix-booking/internal/model"
	"eventrix-booking/internal/repository"
	"eventrix-booking/internal/service"
	"eventrix-booking/test/internal/mocks/collaborators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promotionFixture struct {
	booking   service.BookingService
	promotion service.PromotionService
	notifier  *collaborators.RecordingNotifier
}

func newPromotionFixture(t *testing.T) *promotionFixture {
	t.Helper()

	db := getTestDB()
	notifier := collaborators.NewRecordingNotifier()
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewEventRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)
	availabilityCache := collaborators.NewMissingAvailabilityCache()

	return &promotionFixture{
		booking: service.NewBookingService(db, bookingRepo, eventRepo, waitlistRepo,
			availabilityCache, collaborators.NewRecordingPromotionQueue(), notifier),
		promotion: service.NewPromotionService(db, bookingRepo, eventRepo, waitlistRepo,
			availabilityCache, notifier),
		notifier: notifier,
	}
}

func TestPromotionService_PromoteWaitlist(t *testing.T) {
	ctx := context.Background()

	t.Run("Cancel then promote - full scenario", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()
		f := newPromotionFixture(t)

		// capacity=2：A 拿走全部，B 候補 1 張
		eventID, eventUUID := createTestEvent(t, "Tiny Venue", 300.0, 2, model.EventStatusUpcoming)

		a, err := f.booking.CreateBooking(ctx, testUser("a"), model.CreateBookingRequest{
			EventID: eventUUID.String(), NumberOfTickets: 2,
		})
		require.NoError(t, err)
		require.Equal(t, 0, getAvailableSeats(t, eventID))

		b, err := f.booking.CreateBooking(ctx, testUser("b"), model.CreateBookingRequest{
			EventID: eventUUID.String(), NumberOfTickets: 1, JoinWaitlist: true,
		})
		require.NoError(t, err)
		require.Equal(t, 1, *b.QueuePosition)

		_, err = f.booking.CancelBooking(ctx, a.BookingReference, "a")
		require.NoError(t, err)
		require.Equal(t, 2, getAvailableSeats(t, eventID))

		promoted, err := f.promotion.PromoteWaitlist(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 1, promoted)

		assert.Equal(t, 1, getAvailableSeats(t, eventID))
		assert.Equal(t, 0, countWaitlistEntries(t, eventID))
		bStatus := getBookingStatus(t, findBookingID(t, b.BookingReference))
		assert.Equal(t, model.BookingStatusConfirmed, bStatus)
	})

	t.Run("Strict FIFO - head blocks even if later entry fits", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()
		f := newPromotionFixture(t)

		// 1 個空位；隊首要 3 張、第二位只要 1 張
		eventID, _ := createTestEventWithSeats(t, "FIFO Venue", 300.0, 10, 1, model.EventStatusUpcoming)

		head := createTestBooking(t, eventID, "BK-HEAD00000001", "h", 3, model.BookingStatusWaitlisted, intPtr(1))
		second := createTestBooking(t, eventID, "BK-SECOND000001", "s", 1, model.BookingStatusWaitlisted, intPtr(2))
		enqueueTestWaitlistEntry(t, eventID, head, 1)
		enqueueTestWaitlistEntry(t, eventID, second, 2)

		promoted, err := f.promotion.PromoteWaitlist(ctx, eventID)
		require.NoError(t, err)

		// 寧可留空位也不跳過隊首
		assert.Equal(t, 0, promoted)
		assert.Equal(t, 1, getAvailableSeats(t, eventID))
		assert.Equal(t, model.BookingStatusWaitlisted, getBookingStatus(t, head))
		assert.Equal(t, model.BookingStatusWaitlisted, getBookingStatus(t, second))
		assert.Equal(t, 2, countWaitlistEntries(t, eventID))
	})

	t.Run("Skips stale cancelled entry without consuming seats", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()
		f := newPromotionFixture(t)

		eventID, _ := createTestEventWithSeats(t, "Stale Venue", 300.0, 10, 2, model.EventStatusUpcoming)

		// 殘留項目：booking 已取消但還掛在隊上（模擬取消流程中斷）
		stale := createTestBooking(t, eventID, "BK-STALE0000001", "x", 2, model.BookingStatusCancelled, intPtr(1))
		live := createTestBooking(t, eventID, "BK-LIVE00000001", "y", 2, model.BookingStatusWaitlisted, intPtr(2))
		enqueueTestWaitlistEntry(t, eventID, stale, 1)
		enqueueTestWaitlistEntry(t, eventID, live, 2)

		promoted, err := f.promotion.PromoteWaitlist(ctx, eventID)
		require.NoError(t, err)

		assert.Equal(t, 1, promoted)
		assert.Equal(t, model.BookingStatusCancelled, getBookingStatus(t, stale))
		assert.Equal(t, model.BookingStatusConfirmed, getBookingStatus(t, live))
		assert.Equal(t, 0, getAvailableSeats(t, eventID))
		assert.Equal(t, 0, countWaitlistEntries(t, eventID))
	})

	t.Run("Promotes multiple entries in order", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()
		f := newPromotionFixture(t)

		eventID, _ := createTestEventWithSeats(t, "Drain Venue", 100.0, 10, 3, model.EventStatusUpcoming)

		first := createTestBooking(t, eventID, "BK-FIRST0000001", "f", 2, model.BookingStatusWaitlisted, intPtr(1))
		second := createTestBooking(t, eventID, "BK-SECOND000002", "s", 1, model.BookingStatusWaitlisted, intPtr(2))
		third := createTestBooking(t, eventID, "BK-THIRD0000001", "t", 5, model.BookingStatusWaitlisted, intPtr(3))
		enqueueTestWaitlistEntry(t, eventID, first, 1)
		enqueueTestWaitlistEntry(t, eventID, second, 2)
		enqueueTestWaitlistEntry(t, eventID, third, 3)

		promoted, err := f.promotion.PromoteWaitlist(ctx, eventID)
		require.NoError(t, err)

		// 前兩位吃掉 3 個座位，第三位要 5 張 → 停
		assert.Equal(t, 2, promoted)
		assert.Equal(t, 0, getAvailableSeats(t, eventID))
		assert.Equal(t, model.BookingStatusConfirmed, getBookingStatus(t, first))
		assert.Equal(t, model.BookingStatusConfirmed, getBookingStatus(t, second))
		assert.Equal(t, model.BookingStatusWaitlisted, getBookingStatus(t, third))
		assert.Equal(t, 1, countWaitlistEntries(t, eventID))
		assert.Equal(t, 2, f.notifier.ConfirmedCount())
	})

	t.Run("Idempotent - empty effective queue is a no-op", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()
		f := newPromotionFixture(t)

		eventID, _ := createTestEventWithSeats(t, "Quiet Venue", 100.0, 10, 5, model.EventStatusUpcoming)

		promoted, err := f.promotion.PromoteWaitlist(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 0, promoted)

		// 重跑還是 no-op
		promoted, err = f.promotion.PromoteWaitlist(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 0, promoted)
		assert.Equal(t, 5, getAvailableSeats(t, eventID))
	})
}

func findBookingID(t *testing.T, reference string) int {
	t.Helper()
	var id int
	err := testDB.QueryRow(context.Background(),
		"SELECT id FROM bookings WHERE booking_reference = $1", reference).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to find booking by reference: %v", err)
	}
	return id
}

func intPtr(v int) *int {
	return &v
}
