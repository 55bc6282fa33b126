package domain

import "time"

// ResourceState is the lifecycle state of a Resource. Only OPEN accepts
// new commits; CLOSED rejects them with RESOURCE_CLOSED.
type ResourceState string

const (
	ResourceOpen   ResourceState = "OPEN"
	ResourceClosed ResourceState = "CLOSED"
)

// Resource is a bookable, finite-capacity pool. CurrentBookings is a
// denormalized cache of the sum of CONFIRMED reservation quantities; it may
// drift from the authoritative aggregate, which is why the commit path
// never trusts it alone (see the effectiveBookings computation in
// CommitService.Commit).
type Resource struct {
	ID              ResourceID
	Type            string
	Capacity        int
	CurrentBookings int
	State           ResourceState
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RemainingCapacity returns max(0, capacity - currentBookings) using the
// resource's own (possibly drifted) counter. The commit service computes
// the effective remaining capacity against the drift-corrected counter
// instead of calling this method directly during admission.
func (r Resource) RemainingCapacity() int {
	remaining := r.Capacity - r.CurrentBookings
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsOpen reports whether the resource currently accepts commits.
func (r Resource) IsOpen() bool {
	return r.State == ResourceOpen
}

// WithBookingIncrease returns a copy of r reflecting a successful commit of
// the given quantity: currentBookings bumped, version incremented,
// updatedAt refreshed. The caller supplies `now` so the timestamp matches
// the service's single authoritative clock read.
func (r Resource) WithBookingIncrease(quantity int, now time.Time) Resource {
	next := r
	next.CurrentBookings += quantity
	next.Version++
	next.UpdatedAt = now
	return next
}

// WithBookingDecrease returns a copy of r with currentBookings released by
// quantity, clamped at zero per the cancel algorithm's drift protection.
func (r Resource) WithBookingDecrease(quantity int, now time.Time) Resource {
	next := r
	next.CurrentBookings -= quantity
	if next.CurrentBookings < 0 {
		next.CurrentBookings = 0
	}
	next.Version++
	next.UpdatedAt = now
	return next
}
