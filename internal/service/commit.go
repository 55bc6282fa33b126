// Package service implements the two public operations of the reservation
// engine: Commit (the serialized admission path) and Cancel. Both are thin
// orchestrations over the Store's scoped transaction, the repositories, and
// the Availability Cache; neither holds state of its own.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitaliisemenov/reservo/internal/cache"
	"github.com/vitaliisemenov/reservo/internal/domain"
	"github.com/vitaliisemenov/reservo/internal/repository"
	"github.com/vitaliisemenov/reservo/internal/store"
	"github.com/vitaliisemenov/reservo/pkg/metrics"
)

// CommitResult is the outcome of a Commit call: either a CONFIRMED or a
// REJECTED reservation, both of which are durable rows and legitimate
// business outcomes (§7) returned with a nil error. An error is returned
// for an invalid quantity, maintenance mode, an unknown resource, and
// Store/transport faults.
type CommitResult struct {
	Success         bool
	Reservation     domain.Reservation
	Event           domain.Event
	ServerTimestamp time.Time
}

// CommitService implements the §4.5 serialized admission path.
type CommitService struct {
	store        *store.Store
	resources    *repository.ResourceRepository
	reservations *repository.ReservationRepository
	availability *cache.AvailabilityCache
	maintenance  *MaintenanceFlag
	logger       *slog.Logger
	metrics      *metrics.BusinessMetrics
}

// NewCommitService constructs a CommitService.
func NewCommitService(
	s *store.Store,
	resources *repository.ResourceRepository,
	reservations *repository.ReservationRepository,
	availability *cache.AvailabilityCache,
	maintenance *MaintenanceFlag,
	logger *slog.Logger,
) *CommitService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitService{
		store: s, resources: resources, reservations: reservations,
		availability: availability, maintenance: maintenance, logger: logger,
		metrics: metrics.DefaultRegistry().Business(),
	}
}

// Commit runs the §4.5 algorithm: step 1 (timestamp) and the maintenance
// pre-check happen outside the transaction; steps 2-13 run inside a single
// Store-scoped transaction serialized by the resource's row lock.
func (s *CommitService) Commit(ctx context.Context, resourceID domain.ResourceID, clientID domain.ClientID, quantity int) (CommitResult, error) {
	if quantity < 1 {
		return CommitResult{}, fmt.Errorf("%w: quantity must be >= 1", domain.ErrInvalidQuantity)
	}

	serverTimestamp := time.Now()
	start := time.Now()

	if s.maintenance != nil && s.maintenance.Enabled(ctx) {
		s.metrics.RecordRejection("MAINTENANCE_MODE")
		return CommitResult{}, domain.ErrMaintenanceMode
	}

	var result CommitResult
	err := s.store.WithTransaction(ctx, func(tx pgx.Tx) error {
		resource, err := s.resources.FindByIDForUpdate(ctx, tx, resourceID)
		if err != nil {
			return err
		}

		actual, err := s.reservations.SumActiveQuantityByResourceID(ctx, tx, resourceID)
		if err != nil {
			return err
		}
		effectiveBookings := resource.CurrentBookings
		if actual > effectiveBookings {
			effectiveBookings = actual
		}
		if resource.CurrentBookings != actual {
			s.logger.Warn("resource counter drift detected",
				"resource_id", resourceID, "cached_bookings", resource.CurrentBookings, "actual_bookings", actual)
		}

		if !resource.IsOpen() {
			rejected := domain.NewRejected(resourceID, clientID, quantity, domain.RejectionResourceClosed, serverTimestamp)
			if err := s.reservations.Save(ctx, tx, rejected); err != nil {
				return err
			}
			s.metrics.RecordRejection(string(domain.RejectionResourceClosed))
			result = CommitResult{
				Success: false, Reservation: rejected, ServerTimestamp: serverTimestamp,
				Event: domain.Rejected{Reservation: rejected, Reason: domain.RejectionResourceClosed, At: serverTimestamp},
			}
			return nil
		}

		remaining := resource.Capacity - effectiveBookings
		if quantity > remaining {
			rejected := domain.NewRejected(resourceID, clientID, quantity, domain.RejectionResourceFull, serverTimestamp)
			if err := s.reservations.Save(ctx, tx, rejected); err != nil {
				return err
			}
			s.metrics.RecordRejection(string(domain.RejectionResourceFull))
			result = CommitResult{
				Success: false, Reservation: rejected, ServerTimestamp: serverTimestamp,
				Event: domain.Rejected{Reservation: rejected, Reason: domain.RejectionResourceFull, At: serverTimestamp},
			}
			return nil
		}

		confirmed := domain.NewConfirmed(resourceID, clientID, quantity, serverTimestamp)
		if err := s.reservations.Save(ctx, tx, confirmed); err != nil {
			return err
		}

		updated := resource.WithBookingIncrease(quantity, serverTimestamp)
		if err := s.resources.UpdateWithOptimisticLock(ctx, tx, updated); err != nil {
			return err
		}

		s.metrics.RecordCommit(resourceID.String())
		result = CommitResult{
			Success: true, Reservation: confirmed, ServerTimestamp: serverTimestamp,
			Event: domain.Confirmed{Reservation: confirmed, At: serverTimestamp},
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveCommitDuration("conflict", time.Since(start).Seconds())
		return CommitResult{}, err
	}

	outcome := "rejected"
	if result.Success {
		outcome = "committed"
	}
	s.metrics.ObserveCommitDuration(outcome, time.Since(start).Seconds())

	s.availability.Invalidate(resourceID)
	return result, nil
}
