package countdown_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/footy-auction/go/internal/auction"
	"github.com/mcdev12/footy-auction/go/internal/countdown"
	"github.com/mcdev12/footy-auction/go/internal/models"
)

var auctionDay = time.Date(2025, 12, 14, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) (*auction.MemoryStore, *countdown.Synchronizer, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(auctionDay)
	store := auction.NewMemoryStore(clock)
	return store, countdown.NewSynchronizer(store, clock), clock
}

func setDeadline(t *testing.T, store auction.Store, deadline time.Time) models.AuctionSession {
	t.Helper()
	session, err := store.Write(context.Background(), auction.Mutation{
		Deadline:  deadline,
		Actor:     "admin",
		Operation: auction.OperationSet,
	})
	require.NoError(t, err)
	return session
}

func TestSynchronizer_Snapshot(t *testing.T) {
	store, sync, clock := newFixture(t)
	ctx := context.Background()

	snap, err := sync.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatePending, snap.State)
	assert.Nil(t, snap.Deadline)

	setDeadline(t, store, clock.Now().Add(10*time.Second))
	clock.Advance(3 * time.Second)

	snap, err = sync.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, models.AuctionStateRunning, snap.State)
	assert.Equal(t, clock.Now(), snap.ServerTime)
	assert.Equal(t, 7*time.Second, snap.RemainingAt(0))
}

type downStore struct{}

func (downStore) Read(context.Context) (models.AuctionSession, error) {
	return models.AuctionSession{}, auction.ErrUnavailable
}

func TestSynchronizer_SnapshotUnavailable(t *testing.T) {
	sync := countdown.NewSynchronizer(downStore{}, clockwork.NewFakeClock())
	_, err := sync.Snapshot(context.Background())
	require.True(t, errors.Is(err, auction.ErrUnavailable))
}

func TestSynchronizer_PublishIsMonotonic(t *testing.T) {
	store, sync, clock := newFixture(t)

	updates, cancel := sync.Subscribe()
	defer cancel()

	first := setDeadline(t, store, clock.Now().Add(time.Minute))
	second := setDeadline(t, store, clock.Now().Add(2*time.Minute))

	assert.True(t, sync.Publish(second))
	assert.False(t, sync.Publish(first), "older version must not be pushed")
	assert.False(t, sync.Publish(second), "same version must not be pushed twice")

	snap := <-updates
	assert.Equal(t, second.Version, snap.Version)

	select {
	case extra := <-updates:
		t.Fatalf("unexpected push of version %d", extra.Version)
	default:
	}
	assert.Equal(t, second.Version, sync.LastPublished())
}

func TestSynchronizer_SlowSubscriberGetsLatest(t *testing.T) {
	store, sync, clock := newFixture(t)

	updates, cancel := sync.Subscribe()
	defer cancel()

	for i := 1; i <= 5; i++ {
		session := setDeadline(t, store, clock.Now().Add(time.Duration(i)*time.Minute))
		sync.Publish(session)
	}

	snap := <-updates
	assert.Equal(t, int64(5), snap.Version)
}

func TestSynchronizer_Refresh(t *testing.T) {
	store, sync, clock := newFixture(t)
	updates, cancel := sync.Subscribe()

	setDeadline(t, store, clock.Now().Add(time.Minute))
	require.NoError(t, sync.Refresh(context.Background()))

	snap := <-updates
	assert.Equal(t, int64(1), snap.Version)

	cancel()
	cancel()
	_, open := <-updates
	assert.False(t, open)
	assert.Equal(t, 0, sync.Subscribers())
}

func auctionMutation(deadline time.Time, label *string) auction.Mutation {
	return auction.Mutation{
		Deadline:  deadline,
		Label:     label,
		Actor:     "admin",
		Operation: auction.OperationSet,
	}
}
