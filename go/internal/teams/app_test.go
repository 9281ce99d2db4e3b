package teams_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/footy-auction/go/internal/auth"
	"github.com/mcdev12/footy-auction/go/internal/teams"
)

func newSeededApp(t *testing.T) *teams.App {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	app := teams.NewApp(teams.NewMemoryRepository(clock), 0)
	require.NoError(t, app.SeedSampleTeams(context.Background()))
	return app
}

func TestSeedSampleTeams(t *testing.T) {
	app := newSeededApp(t)
	ctx := context.Background()

	// seeding twice is a no-op
	require.NoError(t, app.SeedSampleTeams(ctx))

	list, err := app.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "Team Alpha", list[0].Name)
	assert.Equal(t, "John Doe", list[0].Owner)
	assert.Equal(t, "CSE 1", list[0].Batch)

	alpha, err := app.GetTeamByName(ctx, "Team Alpha")
	require.NoError(t, err)
	require.NotNil(t, alpha.CoOwnerName)
	assert.Equal(t, "Jane Doe", *alpha.CoOwnerName)
}

func TestDashboardSlots(t *testing.T) {
	app := newSeededApp(t)
	ctx := context.Background()

	dashboard, err := app.Dashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, dashboard.Teams, 4)
	assert.Equal(t, 12, dashboard.Slots.TotalSlots)
	assert.Equal(t, 4, dashboard.Slots.FilledSlots)
	assert.Equal(t, 8, dashboard.Slots.RemainingSlots)

	slots, err := app.Slots(ctx)
	require.NoError(t, err)
	assert.Equal(t, dashboard.Slots, slots)
}

func TestCreateTeam_Validation(t *testing.T) {
	app := newSeededApp(t)
	ctx := context.Background()

	_, err := app.CreateTeam(ctx, teams.CreateTeamRequest{Name: "Team Omega"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner is required")

	_, err = app.CreateTeam(ctx, teams.CreateTeamRequest{Name: "Team Alpha", Owner: "X", Batch: "CSE 9"})
	require.Error(t, err)

	team, err := app.CreateTeam(ctx, teams.CreateTeamRequest{Name: "Team Omega", Owner: "Ravi", Batch: "ECE 1", Price: 1000})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, team.ID)
}

func TestTeamDashboard_Access(t *testing.T) {
	app := newSeededApp(t)
	ctx := context.Background()

	alpha, err := app.GetTeamByName(ctx, "Team Alpha")
	require.NoError(t, err)
	beta, err := app.GetTeamByName(ctx, "Team Beta")
	require.NoError(t, err)

	owner := &auth.Capability{Role: auth.RoleTeam, SubjectID: alpha.ID.String()}
	admin := &auth.Capability{Role: auth.RoleAdmin, SubjectID: "admin"}

	got, err := app.TeamDashboard(ctx, owner, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, alpha.Name, got.Name)

	_, err = app.TeamDashboard(ctx, owner, beta.ID)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = app.TeamDashboard(ctx, nil, alpha.ID)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = app.TeamDashboard(ctx, admin, beta.ID)
	require.NoError(t, err)

	_, err = app.TeamDashboard(ctx, admin, uuid.New())
	require.ErrorIs(t, err, teams.ErrTeamNotFound)
}
