// Package repository adapts the domain's Resource and Reservation entities
// onto PostgreSQL through the Store, following the teacher's query-wrapping
// idiom: the resource statements and the reservation save are logged with
// their duration (the reservation reads and the sum are not). Errors returned
// inside Store.WithTransaction are classified there by store.classify;
// errors of reads made outside a transaction are not.
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

// ResourceRepository persists Resource entities. It holds no state beyond
// the Store handle; every method either runs against the pool directly or
// against a caller-supplied pgx.Tx from Store.WithTransaction.
type ResourceRepository struct {
	store  *store.Store
	logger *slog.Logger
}

// NewResourceRepository constructs a ResourceRepository.
func NewResourceRepository(s *store.Store, logger *slog.Logger) *ResourceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceRepository{store: s, logger: logger}
}

const resourceColumns = `id, type, capacity, current_bookings, state, version, created_at, updated_at`

func scanResource(row pgx.Row) (domain.Resource, error) {
	var (
		r         domain.Resource
		id        string
		state     string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &r.Type, &r.Capacity, &r.CurrentBookings, &state, &r.Version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Resource{}, domain.ErrResourceNotFound
		}
		return domain.Resource{}, err
	}
	r.ID = domain.ResourceID(id)
	r.State = domain.ResourceState(state)
	r.CreatedAt = createdAt
	r.UpdatedAt = updatedAt
	return r, nil
}

// FindByID performs a non-locking read, used by the read-side availability
// path and the admin surface.
func (repo *ResourceRepository) FindByID(ctx context.Context, id domain.ResourceID) (domain.Resource, error) {
	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE id = $1`, resourceColumns)
	row := repo.store.QueryRow(ctx, query, id.String())
	res, err := scanResource(row)
	repo.logger.Debug("resource find_by_id", "resource_id", id, "duration", time.Since(start), "error", err)
	return res, err
}

// FindByIDForUpdate acquires an exclusive row lock inside tx. Every commit
// and cancel operation for a given resource serializes on this call.
func (repo *ResourceRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id domain.ResourceID) (domain.Resource, error) {
	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE id = $1 FOR UPDATE`, resourceColumns)
	row := tx.QueryRow(ctx, query, id.String())
	res, err := scanResource(row)
	repo.logger.Debug("resource find_by_id_for_update", "resource_id", id, "duration", time.Since(start), "error", err)
	return res, err
}

// Save inserts a new resource, or unconditionally overwrites an existing
// one. Used only for creation and admin state changes (§5 "Admission of
// admin operations") — never by the commit/cancel path, which goes through
// UpdateWithOptimisticLock instead.
func (repo *ResourceRepository) Save(ctx context.Context, r domain.Resource) error {
	start := time.Now()
	query := `
		INSERT INTO resources (id, type, capacity, current_bookings, state, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			capacity = EXCLUDED.capacity,
			current_bookings = EXCLUDED.current_bookings,
			state = EXCLUDED.state,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at`
	_, err := repo.store.Exec(ctx, query,
		r.ID.String(), r.Type, r.Capacity, r.CurrentBookings, string(r.State), r.Version, r.CreatedAt, r.UpdatedAt)
	repo.logger.Debug("resource save", "resource_id", r.ID, "duration", time.Since(start), "error", err)
	if err != nil {
		return fmt.Errorf("save resource: %w", err)
	}
	return nil
}

// UpdateWithOptimisticLock updates the row conditional on its stored
// version equaling r.Version-1, i.e. the version this copy of r was read
// at, plus one increment already applied by the caller. A zero rows-
// affected result means either the row is gone (ResourceNotFound) or
// another writer raced past the lock discipline (ConcurrencyConflict).
func (repo *ResourceRepository) UpdateWithOptimisticLock(ctx context.Context, tx pgx.Tx, r domain.Resource) error {
	start := time.Now()
	query := `
		UPDATE resources
		SET current_bookings = $1, state = $2, version = $3, updated_at = $4
		WHERE id = $5 AND version = $6`
	tag, err := tx.Exec(ctx, query,
		r.CurrentBookings, string(r.State), r.Version, r.UpdatedAt, r.ID.String(), r.Version-1)
	repo.logger.Debug("resource update_optimistic", "resource_id", r.ID, "duration", time.Since(start), "error", err)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, existsErr := repo.exists(ctx, tx, r.ID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return domain.ErrResourceNotFound
		}
		return domain.ErrConcurrencyConflict
	}
	return nil
}

func (repo *ResourceRepository) exists(ctx context.Context, tx pgx.Tx, id domain.ResourceID) (bool, error) {
	var found bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM resources WHERE id = $1)`, id.String()).Scan(&found)
	return found, err
}
