package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	apperrors "eventrix-booking/pkg/app_errors"

	"eventrix-booking/internal/model"

	"github.com/stretchr/testify/assert"
)

// Simulates real scenario: 100 users simultaneously competing for 10 seats
func TestConcurrentBookingCreate_NoOversell(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	f := newBookingFixture(t)

	// Concurrency parameters
	concurrentUsers := 100 // 100 different users
	ticketsPerUser := 1    // 1 ticket per user
	totalSeats := 10       // Only 10 seats available

	eventID, eventUUID := createTestEvent(t, "Popular Concert", 1000.0, totalSeats, model.EventStatusUpcoming)

	var wg sync.WaitGroup
	successCount := 0
	soldOutCount := 0
	otherErrCount := 0
	var mu sync.Mutex

	for i := 0; i < concurrentUsers; i++ {
		wg.Add(1)
		go func(userIndex int) {
			defer wg.Done()

			user := testUser(fmt.Sprintf("user-%d", userIndex))
			_, err := f.service.CreateBooking(ctx, user, model.CreateBookingRequest{
				EventID:         eventUUID.String(),
				NumberOfTickets: ticketsPerUser,
			})

			mu.Lock()
			switch {
			case err == nil:
				successCount++
			case errors.Is(err, apperrors.ErrSoldOut):
				soldOutCount++
			default:
				otherErrCount++
			}
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	t.Logf("100 users competing for 10 seats - Success: %d, SoldOut: %d", successCount, soldOutCount)

	// Critical assertions: exactly 10 seats sold, no overselling
	assert.Equal(t, totalSeats, successCount, "Successful bookings should equal total seats")
	assert.Equal(t, concurrentUsers-totalSeats, soldOutCount, "90 users should see sold out")
	assert.Equal(t, 0, otherErrCount, "No unexpected errors")
	assert.Equal(t, 0, getAvailableSeats(t, eventID), "Ledger should read 0 available")
}

// Concurrent waitlist joins must get distinct, strictly increasing positions
func TestConcurrentWaitlistJoin_UniquePositions(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	f := newBookingFixture(t)

	concurrentUsers := 30
	eventID, eventUUID := createTestEventWithSeats(t, "Sold Out Show", 800.0, 10, 0, model.EventStatusUpcoming)

	var wg sync.WaitGroup
	positions := make([]int, 0, concurrentUsers)
	var mu sync.Mutex

	for i := 0; i < concurrentUsers; i++ {
		wg.Add(1)
		go func(userIndex int) {
			defer wg.Done()

			user := testUser(fmt.Sprintf("wait-%d", userIndex))
			booking, err := f.service.CreateBooking(ctx, user, model.CreateBookingRequest{
				EventID:         eventUUID.String(),
				NumberOfTickets: 1,
				JoinWaitlist:    true,
			})
			if err != nil {
				return
			}

			mu.Lock()
			positions = append(positions, *booking.QueuePosition)
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	assert.Len(t, positions, concurrentUsers)
	assert.Equal(t, concurrentUsers, countWaitlistEntries(t, eventID))

	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		assert.False(t, seen[p], "Queue position %d assigned twice", p)
		seen[p] = true
		assert.GreaterOrEqual(t, p, 1)
		assert.LessOrEqual(t, p, concurrentUsers)
	}
}
