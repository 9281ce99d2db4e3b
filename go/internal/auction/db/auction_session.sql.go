package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const ensureAuctionSession = `-- name: EnsureAuctionSession :exec
INSERT INTO auction_session (id, version, label, updated_at, updated_by)
VALUES (1, 0, '', NOW(), '')
ON CONFLICT (id) DO NOTHING
`

func (q *Queries) EnsureAuctionSession(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, ensureAuctionSession)
	return err
}

const getAuctionSession = `-- name: GetAuctionSession :one
SELECT id, deadline, version, label, updated_at, updated_by
FROM auction_session
WHERE id = 1
`

func (q *Queries) GetAuctionSession(ctx context.Context) (AuctionSession, error) {
	row := q.db.QueryRowContext(ctx, getAuctionSession)
	var i AuctionSession
	err := row.Scan(
		&i.ID,
		&i.Deadline,
		&i.Version,
		&i.Label,
		&i.UpdatedAt,
		&i.UpdatedBy,
	)
	return i, err
}

const getAuctionSessionForUpdate = `-- name: GetAuctionSessionForUpdate :one
SELECT id, deadline, version, label, updated_at, updated_by
FROM auction_session
WHERE id = 1
FOR UPDATE
`

func (q *Queries) GetAuctionSessionForUpdate(ctx context.Context) (AuctionSession, error) {
	row := q.db.QueryRowContext(ctx, getAuctionSessionForUpdate)
	var i AuctionSession
	err := row.Scan(
		&i.ID,
		&i.Deadline,
		&i.Version,
		&i.Label,
		&i.UpdatedAt,
		&i.UpdatedBy,
	)
	return i, err
}

const updateAuctionSession = `-- name: UpdateAuctionSession :one
UPDATE auction_session
SET deadline = $1,
    label = $2,
    version = version + 1,
    updated_at = $3,
    updated_by = $4
WHERE id = 1
RETURNING id, deadline, version, label, updated_at, updated_by
`

type UpdateAuctionSessionParams struct {
	Deadline  time.Time `json:"deadline"`
	Label     string    `json:"label"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

func (q *Queries) UpdateAuctionSession(ctx context.Context, arg UpdateAuctionSessionParams) (AuctionSession, error) {
	row := q.db.QueryRowContext(ctx, updateAuctionSession,
		arg.Deadline,
		arg.Label,
		arg.UpdatedAt,
		arg.UpdatedBy,
	)
	var i AuctionSession
	err := row.Scan(
		&i.ID,
		&i.Deadline,
		&i.Version,
		&i.Label,
		&i.UpdatedAt,
		&i.UpdatedBy,
	)
	return i, err
}

const insertAuctionSessionHistory = `-- name: InsertAuctionSessionHistory :exec
INSERT INTO auction_session_history (id, version, deadline, label, actor, operation, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertAuctionSessionHistoryParams struct {
	ID        uuid.UUID             `json:"id"`
	Version   int64                 `json:"version"`
	Deadline  time.Time             `json:"deadline"`
	Label     string                `json:"label"`
	Actor     string                `json:"actor"`
	Operation string                `json:"operation"`
	Details   pqtype.NullRawMessage `json:"details"`
	CreatedAt time.Time             `json:"created_at"`
}

func (q *Queries) InsertAuctionSessionHistory(ctx context.Context, arg InsertAuctionSessionHistoryParams) error {
	_, err := q.db.ExecContext(ctx, insertAuctionSessionHistory,
		arg.ID,
		arg.Version,
		arg.Deadline,
		arg.Label,
		arg.Actor,
		arg.Operation,
		arg.Details,
		arg.CreatedAt,
	)
	return err
}

const listAuctionSessionHistory = `-- name: ListAuctionSessionHistory :many
SELECT id, version, deadline, label, actor, operation, details, created_at
FROM auction_session_history
ORDER BY version DESC
LIMIT $1
`

func (q *Queries) ListAuctionSessionHistory(ctx context.Context, limit int32) ([]AuctionSessionHistory, error) {
	rows, err := q.db.QueryContext(ctx, listAuctionSessionHistory, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuctionSessionHistory
	for rows.Next() {
		var i AuctionSessionHistory
		if err := rows.Scan(
			&i.ID,
			&i.Version,
			&i.Deadline,
			&i.Label,
			&i.Actor,
			&i.Operation,
			&i.Details,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
