package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/footy-auction/go/internal/auth"
	"github.com/mcdev12/footy-auction/go/internal/auth/db"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) GetCredentialByUsername(ctx context.Context, username string) (db.Credential, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(db.Credential), args.Error(1)
}

func (m *mockQuerier) CreateCredentialIfMissing(ctx context.Context, arg db.CreateCredentialIfMissingParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func TestRepository_LookupCredential(t *testing.T) {
	ctx := context.Background()
	q := new(mockQuerier)
	q.On("GetCredentialByUsername", ctx, "team1").
		Return(db.Credential{Username: "team1", PasswordHash: "hash", Role: "TEAM", SubjectID: "t1"}, nil)
	q.On("GetCredentialByUsername", ctx, "ghost").
		Return(db.Credential{}, sql.ErrNoRows)
	q.On("GetCredentialByUsername", ctx, "odd").
		Return(db.Credential{Username: "odd", Role: "SUPERUSER"}, nil)

	repo := auth.NewRepository(q)

	cred, err := repo.LookupCredential(ctx, "team1")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTeam, cred.Role)
	assert.Equal(t, "t1", cred.SubjectID)

	_, err = repo.LookupCredential(ctx, "ghost")
	require.ErrorIs(t, err, auth.ErrCredentialNotFound)

	_, err = repo.LookupCredential(ctx, "odd")
	require.Error(t, err)

	q.AssertExpectations(t)
}

func TestRepository_CreateCredentialIfMissing(t *testing.T) {
	ctx := context.Background()
	q := new(mockQuerier)
	params := db.CreateCredentialIfMissingParams{Username: "admin", PasswordHash: "h", Role: "ADMIN", SubjectID: "admin"}
	q.On("CreateCredentialIfMissing", ctx, params).Return(int64(0), nil).Once()

	repo := auth.NewRepository(q)
	created, err := repo.CreateCredentialIfMissing(ctx, auth.Credential{
		Username: "admin", PasswordHash: "h", Role: auth.RoleAdmin, SubjectID: "admin",
	})
	require.NoError(t, err)
	assert.False(t, created)
	q.AssertExpectations(t)
}
