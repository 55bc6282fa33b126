package service

import (
	"context"
	"log/slog"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vitaliisemenov/reservo/internal/cache"
	"github.com/vitaliisemenov/reservo/internal/domain"
	"github.com/vitaliisemenov/reservo/internal/repository"
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

CREATE TABLE system_settings (
	key VARCHAR(100) PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type harness struct {
	store        *store.Store
	resources    *repository.ResourceRepository
	reservations *repository.ReservationRepository
	availability *cache.AvailabilityCache
	commit       *CommitService
	cancel       *CancelService
}

func setupHarness(t *testing.T) *harness {
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
	cfg.MaxConns = 50

	s := store.New(cfg, slog.Default())
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Exec(ctx, schema)
	require.NoError(t, err)

	resources := repository.NewResourceRepository(s, nil)
	reservations := repository.NewReservationRepository(s, nil)
	availability, err := cache.New(1000, time.Minute, resources, nil)
	require.NoError(t, err)

	maintenance := NewMaintenanceFlag(s, 2*time.Second, nil)

	return &harness{
		store: s, resources: resources, reservations: reservations, availability: availability,
		commit: NewCommitService(s, resources, reservations, availability, maintenance, nil),
		cancel: NewCancelService(s, resources, reservations, availability, nil),
	}
}

func (h *harness) createResource(t *testing.T, id string, capacity int) domain.Resource {
	t.Helper()
	now := time.Now()
	rid, err := domain.NewResourceID(id)
	require.NoError(t, err)
	r := domain.Resource{
		ID: rid, Type: "seat", Capacity: capacity, CurrentBookings: 0,
		State: domain.ResourceOpen, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, h.resources.Save(context.Background(), r))
	return r
}

// TestCommit_S1_SingleSeatManyConcurrentCommitsAdmitsExactlyOne is seed
// scenario S1: capacity=1, 100 concurrent commits of quantity=1 must yield
// exactly 1 CONFIRMED and 99 REJECTED with reason RESOURCE_FULL.
func TestCommit_S1_SingleSeatManyConcurrentCommitsAdmitsExactlyOne(t *testing.T) {
	h := setupHarness(t)
	resource := h.createResource(t, "room-s1", 1)

	const attempts = 100
	results := make([]CommitResult, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clientID, _ := domain.NewClientID(clientName(i))
			results[i], errs[i] = h.commit.Commit(context.Background(), resource.ID, clientID, 1)
		}(i)
	}
	wg.Wait()

	var confirmed, rejected int
	for i, res := range results {
		require.NoError(t, errs[i])
		if res.Success {
			confirmed++
		} else {
			rejected++
			require.Equal(t, domain.RejectionResourceFull, res.Reservation.RejectionReason)
		}
	}
	require.Equal(t, 1, confirmed)
	require.Equal(t, attempts-1, rejected)

	final, err := h.resources.FindByID(context.Background(), resource.ID)
	require.NoError(t, err)
	require.Equal(t, 1, final.CurrentBookings)
}

// TestCommit_S3_TwoUnitQuantityRespectsCapacity is seed scenario S3:
// capacity=10, 100 concurrent commits of quantity=2 must yield exactly 5
// CONFIRMED and 95 REJECTED.
func TestCommit_S3_TwoUnitQuantityRespectsCapacity(t *testing.T) {
	h := setupHarness(t)
	resource := h.createResource(t, "room-s3", 10)

	const attempts = 100
	results := make([]CommitResult, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clientID, _ := domain.NewClientID(clientName(i))
			results[i], errs[i] = h.commit.Commit(context.Background(), resource.ID, clientID, 2)
		}(i)
	}
	wg.Wait()

	var confirmed int
	for i, res := range results {
		require.NoError(t, errs[i])
		if res.Success {
			confirmed++
		}
	}
	require.Equal(t, 5, confirmed)

	final, err := h.resources.FindByID(context.Background(), resource.ID)
	require.NoError(t, err)
	require.Equal(t, 10, final.CurrentBookings)

	sum, err := h.reservations.SumActiveQuantityByResourceID(context.Background(), nil, resource.ID)
	require.NoError(t, err)
	require.Equal(t, 10, sum, "no-overbooking property: confirmed sum must never exceed capacity")
}

// TestCommit_S6_ClosedResourceRejectsThenReopenedAccepts is seed scenario S6.
func TestCommit_S6_ClosedResourceRejectsThenReopenedAccepts(t *testing.T) {
	h := setupHarness(t)
	resource := h.createResource(t, "room-s6", 5)

	closed := resource
	closed.State = domain.ResourceClosed
	closed.Version++
	require.NoError(t, h.resources.Save(context.Background(), closed))

	clientID, _ := domain.NewClientID("client-1")
	result, err := h.commit.Commit(context.Background(), resource.ID, clientID, 1)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, domain.RejectionResourceClosed, result.Reservation.RejectionReason)

	reopened := closed
	reopened.State = domain.ResourceOpen
	reopened.Version++
	require.NoError(t, h.resources.Save(context.Background(), reopened))

	result2, err := h.commit.Commit(context.Background(), resource.ID, clientID, 1)
	require.NoError(t, err)
	require.True(t, result2.Success)
}

// TestCancelThenRecommit_S5 is seed scenario S5.
func TestCancelThenRecommit_S5(t *testing.T) {
	h := setupHarness(t)
	resource := h.createResource(t, "room-s5", 1)
	clientID, _ := domain.NewClientID("client-1")

	committed, err := h.commit.Commit(context.Background(), resource.ID, clientID, 1)
	require.NoError(t, err)
	require.True(t, committed.Success)

	cancelled, err := h.cancel.Cancel(context.Background(), committed.Reservation.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ReservationCancelled, cancelled.Reservation.Status)
	require.Equal(t, 1, cancelled.CapacityReleased)

	afterCancel, err := h.resources.FindByID(context.Background(), resource.ID)
	require.NoError(t, err)
	require.Equal(t, 0, afterCancel.CurrentBookings)

	recommitted, err := h.commit.Commit(context.Background(), resource.ID, clientID, 1)
	require.NoError(t, err)
	require.True(t, recommitted.Success)

	final, err := h.resources.FindByID(context.Background(), resource.ID)
	require.NoError(t, err)
	require.Equal(t, 1, final.CurrentBookings)
}

func TestCancel_DoubleCancelIsAnError(t *testing.T) {
	h := setupHarness(t)
	resource := h.createResource(t, "room-double-cancel", 5)
	clientID, _ := domain.NewClientID("client-1")

	committed, err := h.commit.Commit(context.Background(), resource.ID, clientID, 1)
	require.NoError(t, err)

	_, err = h.cancel.Cancel(context.Background(), committed.Reservation.ID)
	require.NoError(t, err)

	_, err = h.cancel.Cancel(context.Background(), committed.Reservation.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCommit_UnknownResourceFails(t *testing.T) {
	h := setupHarness(t)
	clientID, _ := domain.NewClientID("client-1")
	missing, _ := domain.NewResourceID("ghost")

	_, err := h.commit.Commit(context.Background(), missing, clientID, 1)
	require.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestCommit_ServerTimestampIsAuthoritative(t *testing.T) {
	h := setupHarness(t)
	resource := h.createResource(t, "room-ts", 5)
	clientID, _ := domain.NewClientID("client-1")

	before := time.Now()
	result, err := h.commit.Commit(context.Background(), resource.ID, clientID, 1)
	after := time.Now()

	require.NoError(t, err)
	require.True(t, !result.ServerTimestamp.Before(before) && !result.ServerTimestamp.After(after))
}

func clientName(i int) string {
	return fmt.Sprintf("client-%03d", i)
}
