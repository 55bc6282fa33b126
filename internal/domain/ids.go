package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ResourceID is a branded identifier for a Resource. It is externally
// supplied (not generated by this service) so the only invariant enforced
// at the boundary is shape: non-empty, bounded length.
type ResourceID string

const maxResourceIDLen = 100

// NewResourceID validates and constructs a ResourceID. Internal code that
// already holds a ResourceID never re-validates it.
func NewResourceID(raw string) (ResourceID, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: resource id must not be empty", ErrInvalidInput)
	}
	if len(raw) > maxResourceIDLen {
		return "", fmt.Errorf("%w: resource id exceeds %d characters", ErrInvalidInput, maxResourceIDLen)
	}
	return ResourceID(raw), nil
}

func (id ResourceID) String() string { return string(id) }

// ClientID is a branded identifier for the caller that requested a
// reservation. The charset is restricted to the set the spec allows:
// alphanumeric, dot, underscore, hyphen, at-sign.
type ClientID string

const maxClientIDLen = 100

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)

// NewClientID trims, bounds, and charset-checks raw client input.
func NewClientID(raw string) (ClientID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: client id must not be empty", ErrInvalidInput)
	}
	if len(trimmed) > maxClientIDLen {
		return "", fmt.Errorf("%w: client id exceeds %d characters", ErrInvalidInput, maxClientIDLen)
	}
	if !clientIDPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: client id contains disallowed characters", ErrInvalidInput)
	}
	return ClientID(trimmed), nil
}

func (id ClientID) String() string { return string(id) }

// ReservationID is a server-generated UUID branded identifier.
type ReservationID string

// NewReservationID generates a fresh, random ReservationID.
func NewReservationID() ReservationID {
	return ReservationID(uuid.New().String())
}

// ParseReservationID validates that raw is a well-formed UUID and brands it.
func ParseReservationID(raw string) (ReservationID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("%w: reservation id is not a valid UUID", ErrInvalidInput)
	}
	return ReservationID(raw), nil
}

func (id ReservationID) String() string { return string(id) }
