package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/reservo/internal/domain"
)

type fakeLoader struct {
	resources map[domain.ResourceID]domain.Resource
	loadCount int
}

func (f *fakeLoader) FindByID(_ context.Context, id domain.ResourceID) (domain.Resource, error) {
	f.loadCount++
	r, ok := f.resources[id]
	if !ok {
		return domain.Resource{}, domain.ErrResourceNotFound
	}
	return r, nil
}

func testResource(id string) domain.Resource {
	rid, _ := domain.NewResourceID(id)
	now := time.Now()
	return domain.Resource{
		ID: rid, Type: "seat", Capacity: 10, CurrentBookings: 3,
		State: domain.ResourceOpen, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
}

func TestAvailabilityCache_MissThenHit(t *testing.T) {
	loader := &fakeLoader{resources: map[domain.ResourceID]domain.Resource{}}
	r := testResource("room-1")
	loader.resources[r.ID] = r

	c, err := New(10, time.Minute, loader, nil)
	require.NoError(t, err)

	view, err := c.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.False(t, view.IsCached)
	assert.Equal(t, 7, view.RemainingCapacity)
	assert.Equal(t, 1, loader.loadCount)

	view2, err := c.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, view2.IsCached)
	assert.Equal(t, 1, loader.loadCount, "second Get must hit cache, not reload")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestAvailabilityCache_ExpiredEntryTreatedAsMiss(t *testing.T) {
	loader := &fakeLoader{resources: map[domain.ResourceID]domain.Resource{}}
	r := testResource("room-2")
	loader.resources[r.ID] = r

	c, err := New(10, time.Millisecond, loader, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), r.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	view, err := c.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.False(t, view.IsCached, "expired hit must rematerialize, not report cached")
	assert.Equal(t, 2, loader.loadCount)
}

func TestAvailabilityCache_Invalidate(t *testing.T) {
	loader := &fakeLoader{resources: map[domain.ResourceID]domain.Resource{}}
	r := testResource("room-3")
	loader.resources[r.ID] = r

	c, err := New(10, time.Minute, loader, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), r.ID)
	require.NoError(t, err)

	c.Invalidate(r.ID)

	view, err := c.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.False(t, view.IsCached)
	assert.Equal(t, 2, loader.loadCount)
}

func TestAvailabilityCache_InvalidateAllResetsStats(t *testing.T) {
	loader := &fakeLoader{resources: map[domain.ResourceID]domain.Resource{}}
	r := testResource("room-4")
	loader.resources[r.ID] = r

	c, err := New(10, time.Minute, loader, nil)
	require.NoError(t, err)

	_, _ = c.Get(context.Background(), r.ID)
	_, _ = c.Get(context.Background(), r.ID)

	c.InvalidateAll()

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestAvailabilityCache_EvictsLeastRecentlyUsedBeyondMaxSize(t *testing.T) {
	loader := &fakeLoader{resources: map[domain.ResourceID]domain.Resource{}}
	r1, r2, r3 := testResource("a"), testResource("b"), testResource("c")
	loader.resources[r1.ID] = r1
	loader.resources[r2.ID] = r2
	loader.resources[r3.ID] = r3

	c, err := New(2, time.Minute, loader, nil)
	require.NoError(t, err)

	_, _ = c.Get(context.Background(), r1.ID)
	_, _ = c.Get(context.Background(), r2.ID)
	_, _ = c.Get(context.Background(), r3.ID) // evicts r1, the LRU entry

	loadsBefore := loader.loadCount
	_, _ = c.Get(context.Background(), r1.ID)
	assert.Equal(t, loadsBefore+1, loader.loadCount, "r1 must have been evicted and required a reload")
}

func TestAvailabilityCache_NotFoundPropagates(t *testing.T) {
	loader := &fakeLoader{resources: map[domain.ResourceID]domain.Resource{}}
	c, err := New(10, time.Minute, loader, nil)
	require.NoError(t, err)

	missing, _ := domain.NewResourceID("ghost")
	_, err = c.Get(context.Background(), missing)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}
