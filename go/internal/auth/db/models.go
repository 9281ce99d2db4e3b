package db

import (
	"time"
)

type Credential struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	SubjectID    string    `json:"subject_id"`
	CreatedAt    time.Time `json:"created_at"`
}
