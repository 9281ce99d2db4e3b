package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Owner           string         `json:"owner"`
	CoownerName     sql.NullString `json:"coowner_name"`
	Batch           string         `json:"batch"`
	Price           float64        `json:"price"`
	NumberOfMembers int32          `json:"number_of_members"`
	LogoFilename    sql.NullString `json:"logo_filename"`
	CreatedAt       time.Time      `json:"created_at"`
}
