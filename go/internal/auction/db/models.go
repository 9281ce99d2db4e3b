package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type AuctionSession struct {
	ID        int32        `json:"id"`
	Deadline  sql.NullTime `json:"deadline"`
	Version   int64        `json:"version"`
	Label     string       `json:"label"`
	UpdatedAt time.Time    `json:"updated_at"`
	UpdatedBy string       `json:"updated_by"`
}

type AuctionSessionHistory struct {
	ID        uuid.UUID             `json:"id"`
	Version   int64                 `json:"version"`
	Deadline  time.Time             `json:"deadline"`
	Label     string                `json:"label"`
	Actor     string                `json:"actor"`
	Operation string                `json:"operation"`
	Details   pqtype.NullRawMessage `json:"details"`
	CreatedAt time.Time             `json:"created_at"`
}
