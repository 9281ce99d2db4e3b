package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/footy-auction/go/internal/models"
	"github.com/mcdev12/footy-auction/go/internal/sqlutil"
	"github.com/mcdev12/footy-auction/go/internal/teams/db"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateTeam(ctx context.Context, arg db.CreateTeamParams) (db.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (db.Team, error)
	GetTeamByName(ctx context.Context, name string) (db.Team, error)
	ListAllTeams(ctx context.Context) ([]db.Team, error)
	CountTeams(ctx context.Context) (int64, error)
}

// Repository implements team data access operations
type Repository struct {
	queries Querier
}

// NewRepository creates a new teams repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// CreateTeam creates a new team
func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	dbTeam, err := r.queries.CreateTeam(ctx, db.CreateTeamParams{
		ID:              uuid.New(),
		Name:            req.Name,
		Owner:           req.Owner,
		CoownerName:     sqlutil.ToSqlString(req.CoOwnerName),
		Batch:           req.Batch,
		Price:           req.Price,
		NumberOfMembers: int32(req.NumberOfMembers),
		LogoFilename:    sqlutil.ToSqlString(req.LogoFilename),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return r.dbTeamToModel(dbTeam), nil
}

// GetTeam retrieves a team by ID
func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	dbTeam, err := r.queries.GetTeam(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return r.dbTeamToModel(dbTeam), nil
}

// GetTeamByName retrieves a team by its unique name
func (r *Repository) GetTeamByName(ctx context.Context, name string) (*models.Team, error) {
	dbTeam, err := r.queries.GetTeamByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by name: %w", err)
	}

	return r.dbTeamToModel(dbTeam), nil
}

// ListAllTeams retrieves all teams
func (r *Repository) ListAllTeams(ctx context.Context) ([]models.Team, error) {
	dbTeams, err := r.queries.ListAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list all teams: %w", err)
	}

	teams := make([]models.Team, len(dbTeams))
	for i, dbTeam := range dbTeams {
		teams[i] = *r.dbTeamToModel(dbTeam)
	}

	return teams, nil
}

// CountTeams returns the number of registered teams
func (r *Repository) CountTeams(ctx context.Context) (int, error) {
	n, err := r.queries.CountTeams(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return int(n), nil
}

func (r *Repository) dbTeamToModel(dbTeam db.Team) *models.Team {
	return &models.Team{
		ID:              dbTeam.ID,
		Name:            dbTeam.Name,
		Owner:           dbTeam.Owner,
		CoOwnerName:     sqlutil.FromSqlStringPtr(dbTeam.CoownerName),
		Batch:           dbTeam.Batch,
		Price:           dbTeam.Price,
		NumberOfMembers: int(dbTeam.NumberOfMembers),
		LogoFilename:    sqlutil.FromSqlStringPtr(dbTeam.LogoFilename),
		CreatedAt:       dbTeam.CreatedAt,
	}
}

// MemoryRepository keeps teams in process, in registration order.
type MemoryRepository struct {
	clock clockwork.Clock

	mu    sync.RWMutex
	teams map[uuid.UUID]models.Team
	order []uuid.UUID
}

func NewMemoryRepository(clock clockwork.Clock) *MemoryRepository {
	return &MemoryRepository{
		clock: clock,
		teams: make(map[uuid.UUID]models.Team),
	}
}

func (r *MemoryRepository) CreateTeam(_ context.Context, req CreateTeamRequest) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.teams {
		if t.Name == req.Name {
			return nil, fmt.Errorf("failed to create team: name %q already taken", req.Name)
		}
	}

	team := models.Team{
		ID:              uuid.New(),
		Name:            req.Name,
		Owner:           req.Owner,
		CoOwnerName:     req.CoOwnerName,
		Batch:           req.Batch,
		Price:           req.Price,
		NumberOfMembers: req.NumberOfMembers,
		LogoFilename:    req.LogoFilename,
		CreatedAt:       r.clock.Now().UTC(),
	}
	r.teams[team.ID] = team
	r.order = append(r.order, team.ID)
	return &team, nil
}

func (r *MemoryRepository) GetTeam(_ context.Context, id uuid.UUID) (*models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return &team, nil
}

func (r *MemoryRepository) GetTeamByName(_ context.Context, name string) (*models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, team := range r.teams {
		if team.Name == name {
			return &team, nil
		}
	}
	return nil, ErrTeamNotFound
}

func (r *MemoryRepository) ListAllTeams(_ context.Context) ([]models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := make([]models.Team, 0, len(r.order))
	for _, id := range r.order {
		teams = append(teams, r.teams[id])
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].CreatedAt.Before(teams[j].CreatedAt)
	})
	return teams, nil
}

func (r *MemoryRepository) CountTeams(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.teams), nil
}
