package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrPastDate               = errors.New("cannot book in the past")
	ErrTooSoon                = errors.New("appointment is too close to the current time")
	ErrDateTooFar             = errors.New("appointment is too far in the future")
	ErrTooManyAttempts        = errors.New("too many booking attempts")
	ErrServiceNotProvided     = errors.New("worker does not provide this service")
	ErrInvalidWindow          = errors.New("window start must be before its end")
	ErrInvalidDuration        = errors.New("service duration must be within one day")
	ErrAlreadyCancelled       = errors.New("appointment is already cancelled")
	ErrInvalidInput           = errors.New("invalid input")
)
