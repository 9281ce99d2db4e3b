package db

import (
	"context"
)

const getCredentialByUsername = `-- name: GetCredentialByUsername :one
SELECT username, password_hash, role, subject_id, created_at
FROM credentials
WHERE username = $1
`

func (q *Queries) GetCredentialByUsername(ctx context.Context, username string) (Credential, error) {
	row := q.db.QueryRowContext(ctx, getCredentialByUsername, username)
	var i Credential
	err := row.Scan(
		&i.Username,
		&i.PasswordHash,
		&i.Role,
		&i.SubjectID,
		&i.CreatedAt,
	)
	return i, err
}

const createCredentialIfMissing = `-- name: CreateCredentialIfMissing :execrows
INSERT INTO credentials (username, password_hash, role, subject_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (username) DO NOTHING
`

type CreateCredentialIfMissingParams struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	SubjectID    string `json:"subject_id"`
}

func (q *Queries) CreateCredentialIfMissing(ctx context.Context, arg CreateCredentialIfMissingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createCredentialIfMissing,
		arg.Username,
		arg.PasswordHash,
		arg.Role,
		arg.SubjectID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
