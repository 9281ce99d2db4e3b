package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mcdev12/footy-auction/go/internal/auth/db"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetCredentialByUsername(ctx context.Context, username string) (db.Credential, error)
	CreateCredentialIfMissing(ctx context.Context, arg db.CreateCredentialIfMissingParams) (int64, error)
}

// Repository implements credential storage on Postgres
type Repository struct {
	queries Querier
}

// NewRepository creates a new credentials repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// LookupCredential retrieves a credential by username
func (r *Repository) LookupCredential(ctx context.Context, username string) (*Credential, error) {
	row, err := r.queries.GetCredentialByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	role, err := ParseRole(row.Role)
	if err != nil {
		return nil, fmt.Errorf("credential %s: %w", row.Username, err)
	}

	return &Credential{
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Role:         role,
		SubjectID:    row.SubjectID,
	}, nil
}

// CreateCredentialIfMissing inserts the credential unless the username is taken.
// It reports whether a row was written.
func (r *Repository) CreateCredentialIfMissing(ctx context.Context, cred Credential) (bool, error) {
	n, err := r.queries.CreateCredentialIfMissing(ctx, db.CreateCredentialIfMissingParams{
		Username:     cred.Username,
		PasswordHash: cred.PasswordHash,
		Role:         string(cred.Role),
		SubjectID:    cred.SubjectID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create credential: %w", err)
	}
	return n > 0, nil
}

// MemoryRepository keeps credentials in process.
type MemoryRepository struct {
	mu          sync.RWMutex
	credentials map[string]Credential
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{credentials: make(map[string]Credential)}
}

func (r *MemoryRepository) LookupCredential(_ context.Context, username string) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.credentials[username]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &cred, nil
}

func (r *MemoryRepository) CreateCredentialIfMissing(_ context.Context, cred Credential) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.credentials[cred.Username]; ok {
		return false, nil
	}
	r.credentials[cred.Username] = cred
	return true, nil
}
