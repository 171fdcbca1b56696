package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrConflict
	ErrInternal
)

// Engine sentinel errors. These are recovered locally by the waitlist
// engine and turned into structured results; only storage failures
// propagate past it.
var (
	// ErrSlotTaken means the (professional, date, time) slot already
	// holds a pending or confirmed appointment.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrNoCandidate means the waiting pool held no eligible entry for
	// a released slot.
	ErrNoCandidate = errors.New("no eligible waitlist candidate")

	// ErrOfferActive means the entry already holds an active offer.
	ErrOfferActive = errors.New("entry already has an active offer")

	// ErrOfferNotFound means no active offer (within the grace window)
	// matched the reply.
	ErrOfferNotFound = errors.New("offer expired or not found")

	// ErrProfessionalUnavailable means the professional was deactivated
	// between offer creation and acceptance.
	ErrProfessionalUnavailable = errors.New("professional no longer available")
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewConflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}
