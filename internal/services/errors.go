package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoStagedBooking    = errors.New("no staged booking for this session")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("admin access required")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionRevoked     = errors.New("session has been logged out")
	ErrNotificationFailed = errors.New("notification could not be sent")
)

// GatewayError is returned when the payment gateway declines or cannot be reached.
// Message is safe to show to the customer.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment failed: %s: %v", e.Message, e.Err)
	}
	return "payment failed: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ChargedNotBookedError means the customer was charged but the parcel record
// could not be written. The staged booking keeps the charge id so a retry
// books the parcel without charging again.
type ChargedNotBookedError struct {
	ChargeID       string
	TrackingNumber string
	Err            error
}

func (e *ChargedNotBookedError) Error() string {
	return fmt.Sprintf("charge %s succeeded but parcel %s was not saved: %v", e.ChargeID, e.TrackingNumber, e.Err)
}

func (e *ChargedNotBookedError) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
