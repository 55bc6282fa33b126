package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitaliisemenov/reservo/internal/domain"
	"github.com/vitaliisemenov/reservo/internal/store"
)

// ReservationRepository persists Reservation entities, including REJECTED
// rows kept for audit (§3 Lifecycle: append-only apart from the single
// CONFIRMED->CANCELLED transition).
type ReservationRepository struct {
	store  *store.Store
	logger *slog.Logger
}

// NewReservationRepository constructs a ReservationRepository.
func NewReservationRepository(s *store.Store, logger *slog.Logger) *ReservationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationRepository{store: s, logger: logger}
}

const reservationColumns = `id, resource_id, client_id, quantity, status, rejection_reason, server_timestamp, created_at`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		res             domain.Reservation
		id              string
		resourceID      string
		clientID        string
		status          string
		rejectionReason string
		serverTimestamp time.Time
		createdAt       time.Time
	)
	if err := row.Scan(&id, &resourceID, &clientID, &res.Quantity, &status, &rejectionReason, &serverTimestamp, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, err
	}
	res.ID = domain.ReservationID(id)
	res.ResourceID = domain.ResourceID(resourceID)
	res.ClientID = domain.ClientID(clientID)
	res.Status = domain.ReservationStatus(status)
	res.RejectionReason = domain.RejectionReason(rejectionReason)
	res.ServerTimestamp = serverTimestamp
	res.CreatedAt = createdAt
	return res, nil
}

// Save upserts a reservation. When tx is non-nil the write happens inside
// it; the commit service always supplies tx so a REJECTED row is only
// durable alongside the lock decision that produced it (§4.5).
func (repo *ReservationRepository) Save(ctx context.Context, tx pgx.Tx, r domain.Reservation) error {
	if err := r.ValidateInvariant(); err != nil {
		return err
	}
	query := `
		INSERT INTO reservations (id, resource_id, client_id, quantity, status, rejection_reason, server_timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`
	args := []interface{}{
		r.ID.String(), r.ResourceID.String(), r.ClientID.String(), r.Quantity,
		string(r.Status), string(r.RejectionReason), r.ServerTimestamp, r.CreatedAt,
	}

	start := time.Now()
	var err error
	if tx != nil {
		_, err = tx.Exec(ctx, query, args...)
	} else {
		_, err = repo.store.Exec(ctx, query, args...)
	}
	repo.logger.Debug("reservation save", "reservation_id", r.ID, "status", r.Status, "duration", time.Since(start), "error", err)
	if err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	return nil
}

// FindByID performs a non-locking read.
func (repo *ReservationRepository) FindByID(ctx context.Context, id domain.ReservationID) (domain.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1`, reservationColumns)
	row := repo.store.QueryRow(ctx, query, id.String())
	return scanReservation(row)
}

// FindByIDForUpdate acquires an exclusive row lock inside tx, used by the
// cancel path before the CONFIRMED->CANCELLED transition.
func (repo *ReservationRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id domain.ReservationID) (domain.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1 FOR UPDATE`, reservationColumns)
	row := tx.QueryRow(ctx, query, id.String())
	return scanReservation(row)
}

// SumActiveQuantityByResourceID returns SUM(quantity) over CONFIRMED
// reservations for resourceID. Run inside tx, this reflects committed rows
// plus the transaction's own uncommitted writes — the basis of the
// counter-drift guard in §4.5 step 4.
func (repo *ReservationRepository) SumActiveQuantityByResourceID(ctx context.Context, tx pgx.Tx, resourceID domain.ResourceID) (int, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM reservations WHERE resource_id = $1 AND status = $2`
	var sum int
	var err error
	if tx != nil {
		err = tx.QueryRow(ctx, query, resourceID.String(), string(domain.ReservationConfirmed)).Scan(&sum)
	} else {
		err = repo.store.QueryRow(ctx, query, resourceID.String(), string(domain.ReservationConfirmed)).Scan(&sum)
	}
	if err != nil {
		return 0, fmt.Errorf("sum active quantity: %w", err)
	}
	return sum, nil
}
