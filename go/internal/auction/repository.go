package auction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/mcdev12/footy-auction/go/internal/auction/db"
	"github.com/mcdev12/footy-auction/go/internal/models"
	"github.com/mcdev12/footy-auction/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

// Postgres error codes that mean the transaction lost a race and can be retried.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Querier is the subset of generated queries the Postgres store runs.
type Querier interface {
	EnsureAuctionSession(ctx context.Context) error
	GetAuctionSession(ctx context.Context) (db.AuctionSession, error)
	GetAuctionSessionForUpdate(ctx context.Context) (db.AuctionSession, error)
	UpdateAuctionSession(ctx context.Context, arg db.UpdateAuctionSessionParams) (db.AuctionSession, error)
	InsertAuctionSessionHistory(ctx context.Context, arg db.InsertAuctionSessionHistoryParams) error
	ListAuctionSessionHistory(ctx context.Context, limit int32) ([]db.AuctionSessionHistory, error)
}

// TxRunner runs fn with queries bound to one transaction, committing when fn
// returns nil.
type TxRunner func(ctx context.Context, fn func(q Querier) error) error

// PostgresStore keeps the session in the single-row auction_session table.
// Writes lock the row for the duration of one short transaction.
type PostgresStore struct {
	queries Querier
	inTx    TxRunner
	clock   clockwork.Clock
}

// NewPostgresStore creates a Postgres-backed session store
func NewPostgresStore(database *sql.DB, clock clockwork.Clock) *PostgresStore {
	queries := db.New(database)
	inTx := func(ctx context.Context, fn func(q Querier) error) error {
		return sqlutil.Run(ctx, database, queries.WithTx, func(q *db.Queries) error {
			return fn(q)
		})
	}
	return NewPostgresStoreWithQuerier(queries, inTx, clock)
}

// NewPostgresStoreWithQuerier creates a store over an existing querier and
// transaction runner.
func NewPostgresStoreWithQuerier(queries Querier, inTx TxRunner, clock clockwork.Clock) *PostgresStore {
	return &PostgresStore{
		queries: queries,
		inTx:    inTx,
		clock:   clock,
	}
}

var _ Store = (*PostgresStore)(nil)

// EnsureInitialized creates the PENDING session row on first startup.
func (s *PostgresStore) EnsureInitialized(ctx context.Context) error {
	if err := s.queries.EnsureAuctionSession(ctx); err != nil {
		return fmt.Errorf("%w: ensure auction session: %v", ErrUnavailable, err)
	}
	return nil
}

// Read returns the committed session. A missing row reads as the PENDING default.
func (s *PostgresStore) Read(ctx context.Context) (models.AuctionSession, error) {
	row, err := s.queries.GetAuctionSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuctionSession{}, nil
	}
	if err != nil {
		return models.AuctionSession{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return dbSessionToModel(row), nil
}

// Write replaces the deadline and bumps the version.
func (s *PostgresStore) Write(ctx context.Context, m Mutation) (models.AuctionSession, error) {
	return s.write(ctx, nil, m)
}

// CompareAndWrite writes only if the committed version equals expectedVersion.
func (s *PostgresStore) CompareAndWrite(ctx context.Context, expectedVersion int64, m Mutation) (models.AuctionSession, error) {
	return s.write(ctx, &expectedVersion, m)
}

// History returns the most recent changes, newest first.
func (s *PostgresStore) History(ctx context.Context, limit int) ([]models.SessionChange, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	rows, err := s.queries.ListAuctionSessionHistory(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: list auction session history: %v", ErrUnavailable, err)
	}

	changes := make([]models.SessionChange, 0, len(rows))
	for _, row := range rows {
		change := models.SessionChange{
			ID:        row.ID.String(),
			Version:   row.Version,
			Deadline:  row.Deadline.UTC(),
			Label:     row.Label,
			Actor:     row.Actor,
			Operation: row.Operation,
			CreatedAt: row.CreatedAt.UTC(),
		}
		if row.Details.Valid {
			change.Details = row.Details.RawMessage
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (s *PostgresStore) write(ctx context.Context, expectedVersion *int64, m Mutation) (models.AuctionSession, error) {
	if m.Deadline.IsZero() {
		return models.AuctionSession{}, ErrInvalidMutation
	}

	var result models.AuctionSession
	err := s.inTx(ctx, func(q Querier) error {
		row, err := q.GetAuctionSessionForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to lock auction session: %w", err)
		}
		current := dbSessionToModel(row)

		if expectedVersion != nil && current.Version != *expectedVersion {
			return fmt.Errorf("%w: expected version %d, found %d",
				ErrWriteConflict, *expectedVersion, current.Version)
		}

		now := s.clock.Now().UTC()
		next := nextSession(current, m, now)
		updated, err := q.UpdateAuctionSession(ctx, db.UpdateAuctionSessionParams{
			Deadline:  *next.Deadline,
			Label:     next.Label,
			UpdatedAt: now,
			UpdatedBy: m.Actor,
		})
		if err != nil {
			return fmt.Errorf("failed to update auction session: %w", err)
		}

		details := changeDetails(current)
		if err := q.InsertAuctionSessionHistory(ctx, db.InsertAuctionSessionHistoryParams{
			ID:        uuid.New(),
			Version:   updated.Version,
			Deadline:  *next.Deadline,
			Label:     updated.Label,
			Actor:     m.Actor,
			Operation: m.Operation,
			Details:   pqtype.NullRawMessage{RawMessage: details, Valid: len(details) > 0},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("failed to record auction session history: %w", err)
		}

		result = dbSessionToModel(updated)
		return nil
	})
	if err != nil {
		return models.AuctionSession{}, classifyWriteError(err)
	}

	log.Debug().
		Int64("version", result.Version).
		Str("actor", m.Actor).
		Str("operation", m.Operation).
		Msg("auction session written")

	return result, nil
}

// classifyWriteError sorts a failed write into a retryable conflict, a missing
// session row, or an unreachable backend.
func classifyWriteError(err error) error {
	switch {
	case errors.Is(err, ErrWriteConflict):
		return err
	case isRetryable(err):
		return fmt.Errorf("%w: %v", ErrWriteConflict, err)
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("auction session not initialized: %w", err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// isRetryable reports whether Postgres aborted the transaction because of a concurrent writer.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pgSerializationFailure || pqErr.Code == pgDeadlockDetected
}

// dbSessionToModel converts a database row to the domain model
func dbSessionToModel(row db.AuctionSession) models.AuctionSession {
	session := models.AuctionSession{
		Version:   row.Version,
		Label:     row.Label,
		UpdatedAt: row.UpdatedAt.UTC(),
		UpdatedBy: row.UpdatedBy,
	}
	if deadline := sqlutil.FromSqlTime(row.Deadline); deadline != nil {
		d := deadline.UTC()
		session.Deadline = &d
	}
	return session
}
