package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/auth"
	"github.com/mcdev12/footy-auction/go/internal/models"
)

// TeamsRepository defines what the app layer needs from the repository
type TeamsRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetTeamByName(ctx context.Context, name string) (*models.Team, error)
	ListAllTeams(ctx context.Context) ([]models.Team, error)
	CountTeams(ctx context.Context) (int, error)
}

// Dashboard is the public overview of registered teams.
type Dashboard struct {
	Teams []models.Team   `json:"teams"`
	Slots models.SlotInfo `json:"slots"`
}

// App handles the team directory
type App struct {
	repo       TeamsRepository
	totalSlots int
}

// NewApp creates a new teams App
func NewApp(repo TeamsRepository, totalSlots int) *App {
	if totalSlots <= 0 {
		totalSlots = models.DefaultTotalSlots
	}
	return &App{
		repo:       repo,
		totalSlots: totalSlots,
	}
}

// CreateTeam registers a new team with validation
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	if err := a.validateCreateTeamRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := a.repo.GetTeamByName(ctx, req.Name)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("team with name %s already exists", req.Name)
	}

	team, err := a.repo.CreateTeam(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.Info().Str("team_id", team.ID.String()).Str("name", team.Name).Msg("created team")
	return team, nil
}

// GetTeam retrieves a team by ID
func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// GetTeamByName retrieves a team by name
func (a *App) GetTeamByName(ctx context.Context, name string) (*models.Team, error) {
	return a.repo.GetTeamByName(ctx, name)
}

// ListTeams returns the public listing of all teams
func (a *App) ListTeams(ctx context.Context) ([]TeamSummary, error) {
	teams, err := a.repo.ListAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	out := make([]TeamSummary, len(teams))
	for i, t := range teams {
		out[i] = TeamSummary{
			ID:    t.ID.String(),
			Name:  t.Name,
			Owner: t.Owner,
			Batch: t.Batch,
		}
	}
	return out, nil
}

// Dashboard returns every team plus slot usage
func (a *App) Dashboard(ctx context.Context) (*Dashboard, error) {
	teams, err := a.repo.ListAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return &Dashboard{
		Teams: teams,
		Slots: models.NewSlotInfo(a.totalSlots, len(teams)),
	}, nil
}

// Slots returns slot usage
func (a *App) Slots(ctx context.Context) (models.SlotInfo, error) {
	n, err := a.repo.CountTeams(ctx)
	if err != nil {
		return models.SlotInfo{}, err
	}
	return models.NewSlotInfo(a.totalSlots, n), nil
}

// TeamDashboard returns the full record of a team to its owner or an admin.
func (a *App) TeamDashboard(ctx context.Context, c *auth.Capability, id uuid.UUID) (*models.Team, error) {
	if err := auth.AuthorizeTeam(c, id.String()); err != nil {
		return nil, err
	}
	return a.repo.GetTeam(ctx, id)
}

// SeedSampleTeams registers the sample teams when the directory is empty.
func (a *App) SeedSampleTeams(ctx context.Context) error {
	n, err := a.repo.CountTeams(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, req := range SampleTeams() {
		if _, err := a.CreateTeam(ctx, req); err != nil {
			return fmt.Errorf("failed to seed team %s: %w", req.Name, err)
		}
	}
	log.Info().Int("teams", len(SampleTeams())).Msg("seeded sample teams")
	return nil
}

func (a *App) validateCreateTeamRequest(req CreateTeamRequest) error {
	var errs []error
	if req.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if req.Owner == "" {
		errs = append(errs, errors.New("owner is required"))
	}
	if req.Batch == "" {
		errs = append(errs, errors.New("batch is required"))
	}
	if req.Price < 0 {
		errs = append(errs, errors.New("price must not be negative"))
	}
	if req.NumberOfMembers < 0 {
		errs = append(errs, errors.New("number_of_members must not be negative"))
	}
	return errors.Join(errs...)
}
