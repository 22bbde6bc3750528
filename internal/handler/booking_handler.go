package handler

import (
	"errors"
	"net/http"

	"eventrix-booking/internal/model"
	"eventrix-booking/internal/service"
	apperrors "eventrix-booking/pkg/app_errors"
	"eventrix-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("bookings", h.CreateBooking)
		router.GET("bookings/:reference", h.GetBooking)
		router.PUT("bookings/:reference/cancel", h.CancelBooking)
		router.GET("users/:user_id/bookings", h.GetUserBookings)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, userName, userEmail, ok := UserIdentityFromHeaders(c)
	if !ok {
		return
	}

	var bookingReq model.CreateBookingRequest
	if err := BindJson(c, &bookingReq); err != nil {
		return
	}

	user := model.UserIdentity{UserID: userID, UserName: userName, UserEmail: userEmail}
	created, err := h.service.CreateBooking(c, user, bookingReq)
	if err != nil {
		h.handleBookingError(c, err, "CreateBooking")
		return
	}

	h.handleBookingSuccess(c, created, http.StatusCreated)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	reference := c.Param("reference")

	booking, err := h.service.GetByReference(c, reference)
	if err != nil {
		h.handleBookingError(c, err, "GetBooking")
		return
	}

	h.handleBookingSuccess(c, booking, http.StatusOK)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, _, _, ok := UserIdentityFromHeaders(c)
	if !ok {
		return
	}

	reference := c.Param("reference")

	cancelled, err := h.service.CancelBooking(c, reference, userID)
	if err != nil {
		h.handleBookingError(c, err, "CancelBooking")
		return
	}

	h.handleBookingSuccess(c, cancelled, http.StatusOK)
}

func (h *BookingHandler) GetUserBookings(c *gin.Context) {
	userID := c.Param("user_id")

	bookings, err := h.service.ListUserBookings(c, userID)
	if err != nil {
		h.handleBookingError(c, err, "GetUserBookings")
		return
	}

	h.handleBookingSuccess(c, bookings, http.StatusOK)
}

// Helper functions

func (h *BookingHandler) handleBookingError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrInvalidRequest):
		log.Warn("Invalid request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request",
		})
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Booking belongs to another user",
		})
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Event not found",
		})
	case errors.Is(err, apperrors.ErrBookingNotFound):
		log.Warn("Booking not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Booking not found",
		})
	case errors.Is(err, apperrors.ErrEventNotBookable):
		log.Warn("Event not bookable")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Event is not open for booking",
		})
	case errors.Is(err, apperrors.ErrSoldOut):
		log.Warn("Sold out")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Event is sold out",
		})
	case errors.Is(err, apperrors.ErrAlreadyCancelled):
		log.Warn("Already cancelled")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Booking already cancelled",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func (h *BookingHandler) handleBookingSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
