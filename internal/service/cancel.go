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

// CancelResult is the outcome of a successful Cancel call.
type CancelResult struct {
	Reservation      domain.Reservation
	Event            domain.Event
	ServerTimestamp  time.Time
	CapacityReleased int
}

// CancelService implements the §4.6 cancel path.
type CancelService struct {
	store        *store.Store
	resources    *repository.ResourceRepository
	reservations *repository.ReservationRepository
	availability *cache.AvailabilityCache
	logger       *slog.Logger
	metrics      *metrics.BusinessMetrics
}

// NewCancelService constructs a CancelService.
func NewCancelService(
	s *store.Store,
	resources *repository.ResourceRepository,
	reservations *repository.ReservationRepository,
	availability *cache.AvailabilityCache,
	logger *slog.Logger,
) *CancelService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CancelService{
		store: s, resources: resources, reservations: reservations, availability: availability, logger: logger,
		metrics: metrics.DefaultRegistry().Business(),
	}
}

// Cancel transitions a CONFIRMED reservation to CANCELLED and releases its
// quantity back to the resource's counter. Double-cancel is an error, not
// an idempotent no-op (§4.6 step 3).
func (s *CancelService) Cancel(ctx context.Context, reservationID domain.ReservationID) (CancelResult, error) {
	serverTimestamp := time.Now()

	var result CancelResult
	err := s.store.WithTransaction(ctx, func(tx pgx.Tx) error {
		reservation, err := s.reservations.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}

		if reservation.Status != domain.ReservationConfirmed {
			return fmt.Errorf("%w: reservation %s is %s, not CONFIRMED", domain.ErrInvalidState, reservationID, reservation.Status)
		}

		resource, err := s.resources.FindByIDForUpdate(ctx, tx, reservation.ResourceID)
		if err != nil {
			return fmt.Errorf("%w: resource %s for reservation %s", domain.ErrIntegrity, reservation.ResourceID, reservationID)
		}

		cancelled := reservation.Cancelled()
		if err := s.reservations.Save(ctx, tx, cancelled); err != nil {
			return err
		}

		updated := resource.WithBookingDecrease(reservation.Quantity, serverTimestamp)
		if err := s.resources.UpdateWithOptimisticLock(ctx, tx, updated); err != nil {
			return err
		}

		result = CancelResult{
			Reservation: cancelled, ServerTimestamp: serverTimestamp, CapacityReleased: reservation.Quantity,
			Event: domain.Cancelled{Reservation: cancelled, CapacityReleased: reservation.Quantity, At: serverTimestamp},
		}
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}

	s.metrics.RecordCancel(result.Reservation.ResourceID.String())
	s.availability.Invalidate(result.Reservation.ResourceID)
	return result, nil
}
