package domain

import "time"

// ReservationStatus is the lifecycle state of a Reservation. The only
// transition after creation is CONFIRMED -> CANCELLED; REJECTED and
// CANCELLED are terminal.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationRejected  ReservationStatus = "REJECTED"
)

// RejectionReason is present iff Status == ReservationRejected.
type RejectionReason string

const (
	RejectionNone           RejectionReason = ""
	RejectionResourceFull   RejectionReason = "RESOURCE_FULL"
	RejectionResourceClosed RejectionReason = "RESOURCE_CLOSED"
)

// Reservation is a durable record of a single commit decision, successful
// or not. REJECTED rows are written for history and client-facing
// retrieval, not only CONFIRMED ones.
type Reservation struct {
	ID              ReservationID
	ResourceID      ResourceID
	ClientID        ClientID
	Quantity        int
	Status          ReservationStatus
	RejectionReason RejectionReason
	ServerTimestamp time.Time
	CreatedAt       time.Time
}

// ValidateInvariant enforces the entity invariant
// status = REJECTED <=> rejectionReason in {RESOURCE_FULL, RESOURCE_CLOSED}.
func (r Reservation) ValidateInvariant() error {
	switch r.Status {
	case ReservationRejected:
		if r.RejectionReason != RejectionResourceFull && r.RejectionReason != RejectionResourceClosed {
			return ErrInvalidInput
		}
	default:
		if r.RejectionReason != RejectionNone {
			return ErrInvalidInput
		}
	}
	return nil
}

// NewConfirmed constructs a CONFIRMED reservation at the given server
// timestamp. The caller (the commit service) is responsible for ensuring
// `now` was captured before the transaction opened.
func NewConfirmed(resourceID ResourceID, clientID ClientID, quantity int, now time.Time) Reservation {
	return Reservation{
		ID:              NewReservationID(),
		ResourceID:      resourceID,
		ClientID:        clientID,
		Quantity:        quantity,
		Status:          ReservationConfirmed,
		RejectionReason: RejectionNone,
		ServerTimestamp: now,
		CreatedAt:       now,
	}
}

// NewRejected constructs a REJECTED reservation for audit purposes.
func NewRejected(resourceID ResourceID, clientID ClientID, quantity int, reason RejectionReason, now time.Time) Reservation {
	return Reservation{
		ID:              NewReservationID(),
		ResourceID:      resourceID,
		ClientID:        clientID,
		Quantity:        quantity,
		Status:          ReservationRejected,
		RejectionReason: reason,
		ServerTimestamp: now,
		CreatedAt:       now,
	}
}

// Cancelled returns a copy of r transitioned to CANCELLED. Callers must
// have already verified r.Status == CONFIRMED (see Cancel Service step 3).
func (r Reservation) Cancelled() Reservation {
	next := r
	next.Status = ReservationCancelled
	return next
}
