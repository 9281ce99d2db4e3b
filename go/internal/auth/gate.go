package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Credential is a stored login.
type Credential struct {
	Username     string
	PasswordHash string
	Role         Role
	SubjectID    string
}

// CredentialStore defines what the gate needs from credential storage
type CredentialStore interface {
	LookupCredential(ctx context.Context, username string) (*Credential, error)
}

// Gate verifies credentials and issues capabilities.
type Gate struct {
	credentials CredentialStore
	// dummyHash is compared against when the username is unknown so both paths cost one bcrypt.
	dummyHash []byte
}

// NewGate creates a new auth gate. cost should match the cost used for stored hashes.
func NewGate(credentials CredentialStore, cost int) (*Gate, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("footy-auction:no-such-user"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &Gate{
		credentials: credentials,
		dummyHash:   dummy,
	}, nil
}

// Authenticate checks username and password for the requested role.
func (g *Gate) Authenticate(ctx context.Context, username, password string, role Role) (*Capability, error) {
	cred, err := g.credentials.LookupCredential(ctx, username)
	if errors.Is(err, ErrCredentialNotFound) {
		_ = bcrypt.CompareHashAndPassword(g.dummyHash, []byte(password))
		log.Info().Str("role", string(role)).Msg("login rejected: unknown username")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		log.Info().Str("username", username).Str("role", string(role)).Msg("login rejected: wrong password")
		return nil, ErrInvalidCredentials
	}

	if cred.Role != role {
		log.Info().Str("username", username).Str("role", string(role)).Msg("login rejected: role mismatch")
		return nil, ErrRoleMismatch
	}

	return &Capability{Role: cred.Role, SubjectID: cred.SubjectID}, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
