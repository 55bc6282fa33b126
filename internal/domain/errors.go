package domain

import (
	"errors"
	"fmt"
)

// Sentinel domain faults. The HTTP boundary maps these to wire-level codes
// and status lines (see internal/api/httperr); nothing below this package
// knows about status codes.
var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidState        = errors.New("invalid reservation state for this operation")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidQuantity     = fmt.Errorf("%w: invalid quantity", ErrInvalidInput)
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")
	ErrMaintenanceMode     = errors.New("service is in maintenance mode")
	ErrIntegrity           = errors.New("referential integrity violation")
)
