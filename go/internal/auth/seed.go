package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// CredentialWriter is implemented by credential stores that can be seeded.
type CredentialWriter interface {
	CreateCredentialIfMissing(ctx context.Context, cred Credential) (bool, error)
}

// Account is a plaintext account to seed.
type Account struct {
	Username  string
	Password  string
	Role      Role
	SubjectID string
}

// SeedAccounts hashes and stores each account whose username is not taken yet.
// Existing accounts are left untouched so rotated passwords survive restarts.
func SeedAccounts(ctx context.Context, store CredentialWriter, accounts []Account, cost int) error {
	for _, acct := range accounts {
		if acct.Username == "" || acct.Password == "" {
			return fmt.Errorf("seed account for role %s: username and password are required", acct.Role)
		}

		hash, err := HashPassword(acct.Password, cost)
		if err != nil {
			return err
		}

		created, err := store.CreateCredentialIfMissing(ctx, Credential{
			Username:     acct.Username,
			PasswordHash: hash,
			Role:         acct.Role,
			SubjectID:    acct.SubjectID,
		})
		if err != nil {
			return fmt.Errorf("seed account %s: %w", acct.Username, err)
		}
		if created {
			log.Warn().
				Str("username", acct.Username).
				Str("role", string(acct.Role)).
				Msg("seeded default account, rotate its password")
		}
	}
	return nil
}
