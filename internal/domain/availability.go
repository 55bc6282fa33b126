package domain

import "time"

// AvailabilityView is a derived, cacheable projection of a Resource. It is
// the only shape the Availability Cache and the read-side HTTP handlers
// ever see; the commit/cancel path never reads or writes through it.
type AvailabilityView struct {
	ResourceID        ResourceID
	Type              string
	State             ResourceState
	Capacity          int
	CurrentBookings   int
	RemainingCapacity int
	IsAvailable       bool
	CachedAt          time.Time
	IsCached          bool
}

// MaterializeAvailability projects a Resource into its AvailabilityView at
// the given instant. IsCached is left false; callers that serve the view
// out of the Availability Cache set it to true on hit.
func MaterializeAvailability(r Resource, now time.Time) AvailabilityView {
	remaining := r.Capacity - r.CurrentBookings
	if remaining < 0 {
		remaining = 0
	}
	return AvailabilityView{
		ResourceID:        r.ID,
		Type:              r.Type,
		State:             r.State,
		Capacity:          r.Capacity,
		CurrentBookings:   r.CurrentBookings,
		RemainingCapacity: remaining,
		IsAvailable:       r.State == ResourceOpen && remaining > 0,
		CachedAt:          now,
		IsCached:          false,
	}
}
