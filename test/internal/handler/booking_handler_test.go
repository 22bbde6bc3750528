package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eventrix-booking/internal/handler"
	"eventrix-booking/internal/model"
	apperrors "eventrix-booking/pkg/app_errors"
	"eventrix-booking/test/internal/mocks/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupBookingTestRouter(mockService *services.BookingServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	bookingHandler := handler.NewBookingHandler(mockService)
	bookingHandler.RegisterRoutes(router)

	return router
}

func confirmedBooking(reference string) *model.Booking {
	return &model.Booking{
		ID:               1,
		BookingReference: reference,
		EventID:          1,
		UserID:           "u1",
		NumberOfTickets:  2,
		TotalAmount:      1000,
		Status:           model.BookingStatusConfirmed,
	}
}

func TestCreateBooking(t *testing.T) {
	validRequest := model.CreateBookingRequest{
		EventID:         "7b1d5f52-8a4c-4c62-9a87-0a6e49f34abc",
		NumberOfTickets: 2,
	}

	t.Run("Success", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).
			Return(confirmedBooking("BK-TEST00000001"), nil).Once()

		req := createUserJSONHTTPRequest("POST", "/api/v1/bookings", validRequest)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "BK-TEST00000001")
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - missing user identity", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		// 沒有 X-User-ID header
		req := createJSONHTTPRequest("POST", "/api/v1/bookings", validRequest)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "CreateBooking")
	})

	t.Run("Failed - ErrSoldOut", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.ErrSoldOut).Once()

		req := createUserJSONHTTPRequest("POST", "/api/v1/bookings", validRequest)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - ErrEventNotFound", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.ErrEventNotFound).Once()

		req := createUserJSONHTTPRequest("POST", "/api/v1/bookings", validRequest)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - ErrEventNotBookable", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.ErrEventNotBookable).Once()

		req := createUserJSONHTTPRequest("POST", "/api/v1/bookings", validRequest)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - BindingError", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		req := createUserJSONHTTPRequest("POST", "/api/v1/bookings", InvalidJSON)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "CreateBooking")
	})

	t.Run("Failed - ErrInternalServerError", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.ErrInternalServerError).Once()

		req := createUserJSONHTTPRequest("POST", "/api/v1/bookings", validRequest)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestGetBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("GetByReference", mock.Anything, "BK-TEST00000001").
			Return(confirmedBooking("BK-TEST00000001"), nil).Once()

		req := createJSONHTTPRequest("GET", "/api/v1/bookings/BK-TEST00000001", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - NotFound", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("GetByReference", mock.Anything, "BK-NOSUCHREF").
			Return(nil, apperrors.ErrBookingNotFound).Once()

		req := createJSONHTTPRequest("GET", "/api/v1/bookings/BK-NOSUCHREF", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		cancelled := confirmedBooking("BK-TEST00000001")
		cancelled.Status = model.BookingStatusCancelled
		mockService.On("CancelBooking", mock.Anything, "BK-TEST00000001", "u1").
			Return(cancelled, nil).Once()

		req := createUserJSONHTTPRequest("PUT", "/api/v1/bookings/BK-TEST00000001/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - ErrForbidden", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("CancelBooking", mock.Anything, "BK-TEST00000001", "u1").
			Return(nil, apperrors.ErrForbidden).Once()

		req := createUserJSONHTTPRequest("PUT", "/api/v1/bookings/BK-TEST00000001/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - ErrAlreadyCancelled", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("CancelBooking", mock.Anything, "BK-TEST00000001", "u1").
			Return(nil, apperrors.ErrAlreadyCancelled).Once()

		req := createUserJSONHTTPRequest("PUT", "/api/v1/bookings/BK-TEST00000001/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - missing user identity", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		req := createJSONHTTPRequest("PUT", "/api/v1/bookings/BK-TEST00000001/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "CancelBooking")
	})
}

func TestGetUserBookings(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		bookings := []*model.Booking{
			confirmedBooking("BK-TEST00000001"),
			confirmedBooking("BK-TEST00000002"),
		}
		mockService.On("ListUserBookings", mock.Anything, "u1").
			Return(bookings, nil).Once()

		req := createJSONHTTPRequest("GET", "/api/v1/users/u1/bookings", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "BK-TEST00000002")
		mockService.AssertExpectations(t)
	})

	t.Run("Success - empty history", func(t *testing.T) {
		mockService := services.NewBookingServiceMock()
		router := setupBookingTestRouter(mockService)

		mockService.On("ListUserBookings", mock.Anything, "nobody").
			Return([]*model.Booking{}, nil).Once()

		req := createJSONHTTPRequest("GET", "/api/v1/users/nobody/bookings", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})
}
