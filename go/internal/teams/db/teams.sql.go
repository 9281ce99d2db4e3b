package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const createTeam = `-- name: CreateTeam :one
INSERT INTO teams (id, name, owner, coowner_name, batch, price, number_of_members, logo_filename)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, name, owner, coowner_name, batch, price, number_of_members, logo_filename, created_at
`

type CreateTeamParams struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Owner           string         `json:"owner"`
	CoownerName     sql.NullString `json:"coowner_name"`
	Batch           string         `json:"batch"`
	Price           float64        `json:"price"`
	NumberOfMembers int32          `json:"number_of_members"`
	LogoFilename    sql.NullString `json:"logo_filename"`
}

func (q *Queries) CreateTeam(ctx context.Context, arg CreateTeamParams) (Team, error) {
	row := q.db.QueryRowContext(ctx, createTeam,
		arg.ID,
		arg.Name,
		arg.Owner,
		arg.CoownerName,
		arg.Batch,
		arg.Price,
		arg.NumberOfMembers,
		arg.LogoFilename,
	)
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Owner,
		&i.CoownerName,
		&i.Batch,
		&i.Price,
		&i.NumberOfMembers,
		&i.LogoFilename,
		&i.CreatedAt,
	)
	return i, err
}

const getTeam = `-- name: GetTeam :one
SELECT id, name, owner, coowner_name, batch, price, number_of_members, logo_filename, created_at
FROM teams
WHERE id = $1
`

func (q *Queries) GetTeam(ctx context.Context, id uuid.UUID) (Team, error) {
	row := q.db.QueryRowContext(ctx, getTeam, id)
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Owner,
		&i.CoownerName,
		&i.Batch,
		&i.Price,
		&i.NumberOfMembers,
		&i.LogoFilename,
		&i.CreatedAt,
	)
	return i, err
}

const getTeamByName = `-- name: GetTeamByName :one
SELECT id, name, owner, coowner_name, batch, price, number_of_members, logo_filename, created_at
FROM teams
WHERE name = $1
`

func (q *Queries) GetTeamByName(ctx context.Context, name string) (Team, error) {
	row := q.db.QueryRowContext(ctx, getTeamByName, name)
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Owner,
		&i.CoownerName,
		&i.Batch,
		&i.Price,
		&i.NumberOfMembers,
		&i.LogoFilename,
		&i.CreatedAt,
	)
	return i, err
}

const listAllTeams = `-- name: ListAllTeams :many
SELECT id, name, owner, coowner_name, batch, price, number_of_members, logo_filename, created_at
FROM teams
ORDER BY created_at, name
`

func (q *Queries) ListAllTeams(ctx context.Context) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listAllTeams)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		var i Team
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Owner,
			&i.CoownerName,
			&i.Batch,
			&i.Price,
			&i.NumberOfMembers,
			&i.LogoFilename,
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

const countTeams = `-- name: CountTeams :one
SELECT COUNT(*) FROM teams
`

func (q *Queries) CountTeams(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTeams)
	var count int64
	err := row.Scan(&count)
	return count, err
}
