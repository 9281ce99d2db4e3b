package teams_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/footy-auction/go/internal/teams"
	"github.com/mcdev12/footy-auction/go/internal/teams/db"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) CreateTeam(ctx context.Context, arg db.CreateTeamParams) (db.Team, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Team), args.Error(1)
}

func (m *mockQuerier) GetTeam(ctx context.Context, id uuid.UUID) (db.Team, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(db.Team), args.Error(1)
}

func (m *mockQuerier) GetTeamByName(ctx context.Context, name string) (db.Team, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(db.Team), args.Error(1)
}

func (m *mockQuerier) ListAllTeams(ctx context.Context) ([]db.Team, error) {
	args := m.Called(ctx)
	return args.Get(0).([]db.Team), args.Error(1)
}

func (m *mockQuerier) CountTeams(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestRepository_CreateTeam(t *testing.T) {
	ctx := context.Background()
	q := new(mockQuerier)
	coOwner := "Jane Doe"
	created := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	q.On("CreateTeam", ctx, mock.MatchedBy(func(p db.CreateTeamParams) bool {
		return p.Name == "Team Alpha" && p.CoownerName.Valid && p.CoownerName.String == coOwner && !p.LogoFilename.Valid
	})).Return(db.Team{
		ID:              uuid.New(),
		Name:            "Team Alpha",
		Owner:           "John Doe",
		CoownerName:     sql.NullString{String: coOwner, Valid: true},
		Batch:           "CSE 1",
		Price:           50000,
		NumberOfMembers: 12,
		CreatedAt:       created,
	}, nil)

	repo := teams.NewRepository(q)
	team, err := repo.CreateTeam(ctx, teams.CreateTeamRequest{
		Name: "Team Alpha", Owner: "John Doe", CoOwnerName: &coOwner, Batch: "CSE 1", Price: 50000, NumberOfMembers: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, team.NumberOfMembers)
	require.NotNil(t, team.CoOwnerName)
	assert.Equal(t, coOwner, *team.CoOwnerName)
	assert.Nil(t, team.LogoFilename)
	q.AssertExpectations(t)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	q := new(mockQuerier)
	id := uuid.New()
	q.On("GetTeam", ctx, id).Return(db.Team{}, sql.ErrNoRows)
	q.On("GetTeamByName", ctx, "Team Zeta").Return(db.Team{}, sql.ErrNoRows)
	q.On("CountTeams", ctx).Return(int64(3), nil)

	repo := teams.NewRepository(q)

	_, err := repo.GetTeam(ctx, id)
	require.ErrorIs(t, err, teams.ErrTeamNotFound)
	_, err = repo.GetTeamByName(ctx, "Team Zeta")
	require.ErrorIs(t, err, teams.ErrTeamNotFound)

	n, err := repo.CountTeams(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
