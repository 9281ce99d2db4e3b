package auction_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/footy-auction/go/internal/auction"
	"github.com/mcdev12/footy-auction/go/internal/auction/db"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) EnsureAuctionSession(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockQuerier) GetAuctionSession(ctx context.Context) (db.AuctionSession, error) {
	args := m.Called(ctx)
	return args.Get(0).(db.AuctionSession), args.Error(1)
}

func (m *mockQuerier) GetAuctionSessionForUpdate(ctx context.Context) (db.AuctionSession, error) {
	args := m.Called(ctx)
	return args.Get(0).(db.AuctionSession), args.Error(1)
}

func (m *mockQuerier) UpdateAuctionSession(ctx context.Context, arg db.UpdateAuctionSessionParams) (db.AuctionSession, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.AuctionSession), args.Error(1)
}

func (m *mockQuerier) InsertAuctionSessionHistory(ctx context.Context, arg db.InsertAuctionSessionHistoryParams) error {
	return m.Called(ctx, arg).Error(0)
}

func (m *mockQuerier) ListAuctionSessionHistory(ctx context.Context, limit int32) ([]db.AuctionSessionHistory, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]db.AuctionSessionHistory), args.Error(1)
}

var writeTime = time.Date(2025, 12, 14, 9, 0, 0, 0, time.UTC)

// newPostgresStore runs transactions directly against q; beginErr simulates a
// failed BEGIN.
func newPostgresStore(q *mockQuerier, beginErr error) *auction.PostgresStore {
	inTx := func(ctx context.Context, fn func(auction.Querier) error) error {
		if beginErr != nil {
			return beginErr
		}
		return fn(q)
	}
	return auction.NewPostgresStoreWithQuerier(q, inTx, clockwork.NewFakeClockAt(writeTime))
}

func sessionRow(version int64, deadline *time.Time) db.AuctionSession {
	row := db.AuctionSession{ID: 1, Version: version, UpdatedAt: writeTime}
	if deadline != nil {
		row.Deadline = sql.NullTime{Time: *deadline, Valid: true}
	}
	return row
}

func TestPostgresStore_Read(t *testing.T) {
	ctx := context.Background()
	deadline := writeTime.Add(time.Hour)

	tests := []struct {
		name        string
		row         db.AuctionSession
		err         error
		wantVersion int64
		wantErr     error
		wantPending bool
	}{
		{name: "committed row", row: sessionRow(4, &deadline), wantVersion: 4},
		{name: "missing row reads as pending", err: sql.ErrNoRows, wantPending: true},
		{name: "connection failure", err: driver.ErrBadConn, wantErr: auction.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(mockQuerier)
			q.On("GetAuctionSession", ctx).Return(tt.row, tt.err)

			session, err := newPostgresStore(q, nil).Read(ctx)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, session.Version)
			if tt.wantPending {
				assert.Nil(t, session.Deadline)
			} else {
				require.NotNil(t, session.Deadline)
				assert.True(t, session.Deadline.Equal(deadline))
			}
		})
	}
}

func TestPostgresStore_Write(t *testing.T) {
	ctx := context.Background()
	previous := writeTime.Add(time.Hour)
	next := writeTime.Add(2 * time.Hour)
	label := "Main auction"

	q := new(mockQuerier)
	q.On("GetAuctionSessionForUpdate", ctx).Return(sessionRow(3, &previous), nil)
	q.On("UpdateAuctionSession", ctx, db.UpdateAuctionSessionParams{
		Deadline:  next,
		Label:     label,
		UpdatedAt: writeTime,
		UpdatedBy: "admin",
	}).Return(db.AuctionSession{
		ID:        1,
		Deadline:  sql.NullTime{Time: next, Valid: true},
		Version:   4,
		Label:     label,
		UpdatedAt: writeTime,
		UpdatedBy: "admin",
	}, nil)
	q.On("InsertAuctionSessionHistory", ctx, mock.MatchedBy(func(arg db.InsertAuctionSessionHistoryParams) bool {
		var details struct {
			PreviousVersion int64 `json:"previous_version"`
		}
		return arg.Version == 4 &&
			arg.Operation == auction.OperationSet &&
			arg.Details.Valid &&
			json.Unmarshal(arg.Details.RawMessage, &details) == nil &&
			details.PreviousVersion == 3
	})).Return(nil)

	session, err := newPostgresStore(q, nil).CompareAndWrite(ctx, 3, auction.Mutation{
		Deadline:  next,
		Label:     &label,
		Actor:     "admin",
		Operation: auction.OperationSet,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), session.Version)
	require.NotNil(t, session.Deadline)
	assert.True(t, session.Deadline.Equal(next))
	assert.Equal(t, label, session.Label)
	q.AssertExpectations(t)
}

func TestPostgresStore_CompareAndWriteVersionMismatch(t *testing.T) {
	ctx := context.Background()
	deadline := writeTime.Add(time.Hour)

	q := new(mockQuerier)
	q.On("GetAuctionSessionForUpdate", ctx).Return(sessionRow(5, &deadline), nil)

	_, err := newPostgresStore(q, nil).CompareAndWrite(ctx, 4, auction.Mutation{
		Deadline:  deadline.Add(time.Minute),
		Actor:     "admin",
		Operation: auction.OperationExtend,
	})
	require.ErrorIs(t, err, auction.ErrWriteConflict)
	q.AssertNotCalled(t, "UpdateAuctionSession", mock.Anything, mock.Anything)
}

func TestPostgresStore_WriteErrors(t *testing.T) {
	ctx := context.Background()
	deadline := writeTime.Add(time.Hour)
	mutation := auction.Mutation{Deadline: deadline, Actor: "admin", Operation: auction.OperationSet}

	tests := []struct {
		name      string
		beginErr  error
		lockErr   error
		updateErr error
		wantErr   error
	}{
		{name: "serialization failure", updateErr: &pq.Error{Code: "40001"}, wantErr: auction.ErrWriteConflict},
		{name: "deadlock", updateErr: &pq.Error{Code: "40P01"}, wantErr: auction.ErrWriteConflict},
		{name: "begin fails", beginErr: driver.ErrBadConn, wantErr: auction.ErrUnavailable},
		{name: "lock query fails", lockErr: driver.ErrBadConn, wantErr: auction.ErrUnavailable},
		{name: "other postgres error", updateErr: &pq.Error{Code: "57P01"}, wantErr: auction.ErrUnavailable},
		{name: "row missing", lockErr: sql.ErrNoRows, wantErr: sql.ErrNoRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(mockQuerier)
			q.On("GetAuctionSessionForUpdate", ctx).Return(sessionRow(1, &deadline), tt.lockErr)
			q.On("UpdateAuctionSession", ctx, mock.Anything).Return(db.AuctionSession{}, tt.updateErr)

			_, err := newPostgresStore(q, tt.beginErr).Write(ctx, mutation)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr != auction.ErrUnavailable {
				assert.NotErrorIs(t, err, auction.ErrUnavailable)
			}
		})
	}
}

func TestPostgresStore_WriteRejectsZeroDeadline(t *testing.T) {
	q := new(mockQuerier)
	_, err := newPostgresStore(q, nil).Write(context.Background(), auction.Mutation{Actor: "admin"})
	require.ErrorIs(t, err, auction.ErrInvalidMutation)
	q.AssertNotCalled(t, "GetAuctionSessionForUpdate", mock.Anything)
}

func TestPostgresStore_History(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	details := json.RawMessage(`{"previous_version":1}`)

	q := new(mockQuerier)
	q.On("ListAuctionSessionHistory", ctx, int32(50)).Return([]db.AuctionSessionHistory{
		{
			ID:        id,
			Version:   2,
			Deadline:  writeTime.Add(time.Hour),
			Actor:     "admin",
			Operation: auction.OperationExtend,
			Details:   pqtype.NullRawMessage{RawMessage: details, Valid: true},
			CreatedAt: writeTime,
		},
		{
			ID:        uuid.New(),
			Version:   1,
			Deadline:  writeTime,
			Actor:     "system",
			Operation: auction.OperationSeed,
			CreatedAt: writeTime,
		},
	}, nil)

	store := newPostgresStore(q, nil)

	// out-of-range limits fall back to the default instead of overflowing LIMIT
	for _, limit := range []int{0, -1, 1 << 40} {
		changes, err := store.History(ctx, limit)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, id.String(), changes[0].ID)
		assert.JSONEq(t, string(details), string(changes[0].Details))
		assert.Nil(t, changes[1].Details)
	}
}

func TestPostgresStore_HistoryUnavailable(t *testing.T) {
	ctx := context.Background()
	q := new(mockQuerier)
	q.On("ListAuctionSessionHistory", ctx, int32(10)).Return([]db.AuctionSessionHistory(nil), driver.ErrBadConn)

	_, err := newPostgresStore(q, nil).History(ctx, 10)
	require.ErrorIs(t, err, auction.ErrUnavailable)
}
