package repository

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vitaliisemenov/reservo/internal/domain"
	"github.com/vitaliisemenov/reservo/internal/store"
)

const schema = `
CREATE TABLE resources (
	id VARCHAR(100) PRIMARY KEY,
	type VARCHAR(100) NOT NULL,
	capacity INTEGER NOT NULL,
	current_bookings INTEGER NOT NULL DEFAULT 0,
	state VARCHAR(20) NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE reservations (
	id UUID PRIMARY KEY,
	resource_id VARCHAR(100) NOT NULL REFERENCES resources(id),
	client_id VARCHAR(100) NOT NULL,
	quantity INTEGER NOT NULL,
	status VARCHAR(20) NOT NULL,
	rejection_reason VARCHAR(30) NOT NULL DEFAULT '',
	server_timestamp TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX idx_reservations_resource_status ON reservations(resource_id, status);
`

// setupTestStore boots a throwaway Postgres container and returns a
// connected Store with the reservations schema applied, following the
// teacher's testcontainers setup in postgres_history_test.go.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("reservo_test"),
		tcpostgres.WithUsername("reservo_test"),
		tcpostgres.WithPassword("reservo_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := store.DefaultConfig()
	cfg.Host = host
	cfg.Port = port.Int()
	cfg.Database = "reservo_test"
	cfg.User = "reservo_test"
	cfg.Password = "reservo_test"

	s := store.New(cfg, slog.Default())
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Exec(ctx, schema)
	require.NoError(t, err)

	return s
}

func newOpenResource(id string, capacity int) domain.Resource {
	now := time.Now()
	rid, _ := domain.NewResourceID(id)
	return domain.Resource{
		ID: rid, Type: "seat", Capacity: capacity, CurrentBookings: 0,
		State: domain.ResourceOpen, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
}

func TestResourceRepository_SaveAndFindByID(t *testing.T) {
	s := setupTestStore(t)
	repo := NewResourceRepository(s, nil)
	ctx := context.Background()

	r := newOpenResource("room-1", 10)
	require.NoError(t, repo.Save(ctx, r))

	found, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, r.Type, found.Type)
	require.Equal(t, r.Capacity, found.Capacity)
	require.Equal(t, domain.ResourceOpen, found.State)
}

func TestResourceRepository_FindByID_NotFound(t *testing.T) {
	s := setupTestStore(t)
	repo := NewResourceRepository(s, nil)

	missing, _ := domain.NewResourceID("does-not-exist")
	_, err := repo.FindByID(context.Background(), missing)
	require.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestResourceRepository_UpdateWithOptimisticLock_VersionMismatch(t *testing.T) {
	s := setupTestStore(t)
	repo := NewResourceRepository(s, nil)
	ctx := context.Background()

	r := newOpenResource("room-2", 5)
	require.NoError(t, repo.Save(ctx, r))

	stale := r.WithBookingIncrease(1, time.Now())
	stale.Version = 5 // does not match the stored version + increment

	err := s.WithTransaction(ctx, func(tx pgx.Tx) error {
		return repo.UpdateWithOptimisticLock(ctx, tx, stale)
	})
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestReservationRepository_SumActiveQuantity(t *testing.T) {
	s := setupTestStore(t)
	resources := NewResourceRepository(s, nil)
	reservations := NewReservationRepository(s, nil)
	ctx := context.Background()

	r := newOpenResource("room-3", 10)
	require.NoError(t, resources.Save(ctx, r))

	clientA, _ := domain.NewClientID("client-a")
	clientB, _ := domain.NewClientID("client-b")

	err := s.WithTransaction(ctx, func(tx pgx.Tx) error {
		confirmed1 := domain.NewConfirmed(r.ID, clientA, 3, time.Now())
		confirmed2 := domain.NewConfirmed(r.ID, clientB, 2, time.Now())
		rejected := domain.NewRejected(r.ID, clientB, 100, domain.RejectionResourceFull, time.Now())
		if err := reservations.Save(ctx, tx, confirmed1); err != nil {
			return err
		}
		if err := reservations.Save(ctx, tx, confirmed2); err != nil {
			return err
		}
		return reservations.Save(ctx, tx, rejected)
	})
	require.NoError(t, err)

	sum, err := reservations.SumActiveQuantityByResourceID(ctx, nil, r.ID)
	require.NoError(t, err)
	require.Equal(t, 5, sum)
}

func TestReservationRepository_Save_RejectsInvalidInvariant(t *testing.T) {
	s := setupTestStore(t)
	reservations := NewReservationRepository(s, nil)
	ctx := context.Background()

	clientA, _ := domain.NewClientID("client-a")
	broken := domain.NewConfirmed("room-x", clientA, 1, time.Now())
	broken.RejectionReason = domain.RejectionResourceFull // invalid: CONFIRMED must have no reason

	err := s.WithTransaction(ctx, func(tx pgx.Tx) error {
		return reservations.Save(ctx, tx, broken)
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
