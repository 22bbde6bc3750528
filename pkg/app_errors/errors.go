package apperrors

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrEventNotFound       = errors.New("event not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrEventNotBookable    = errors.New("event is not open for booking")
	ErrInsufficientSeats   = errors.New("insufficient seats")
	ErrSoldOut             = errors.New("event is sold out")
	ErrForbidden           = errors.New("booking belongs to another user")
	ErrAlreadyCancelled    = errors.New("booking already cancelled")
	ErrWaitlistEmpty       = errors.New("waitlist is empty")
	ErrCacheMiss           = errors.New("availability not cached")
	ErrInternalServerError = errors.New("internal server error")
)
