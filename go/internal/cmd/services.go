package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/admin"
	"github.com/mcdev12/footy-auction/go/internal/auction"
	"github.com/mcdev12/footy-auction/go/internal/auth"
	authdb "github.com/mcdev12/footy-auction/go/internal/auth/db"
	"github.com/mcdev12/footy-auction/go/internal/countdown"
	"github.com/mcdev12/footy-auction/go/internal/dbconfig"
	"github.com/mcdev12/footy-auction/go/internal/models"
	"github.com/mcdev12/footy-auction/go/internal/teams"
	teamsdb "github.com/mcdev12/footy-auction/go/internal/teams/db"
)

const systemActor = "system"

type credentialStore interface {
	auth.CredentialStore
	auth.CredentialWriter
}

type Services struct {
	Store        auction.Store
	Synchronizer *countdown.Synchronizer
	Connections  *countdown.ConnectionManager
	Relay        *countdown.Relay
	Watcher      *countdown.SessionWatcher
	Bus          *countdown.NATSBus
	Sessions     *auth.SessionRegistry

	Auth      *auth.Handler
	Countdown *countdown.Handler
	Admin     *admin.Handler
	Teams     *teams.Handler
}

// setupServices wires the dependency chain:
// store/repositories → apps → handlers. database is nil for the memory backend.
func setupServices(ctx context.Context, cfg *Config, database *sql.DB, clock clockwork.Clock) (*Services, error) {
	var (
		store    auction.Store
		teamRepo teams.TeamsRepository
		creds    credentialStore
	)
	if database != nil {
		store = auction.NewPostgresStore(database, clock)
		teamRepo = teams.NewRepository(teamsdb.New(database))
		creds = auth.NewRepository(authdb.New(database))
	} else {
		store = auction.NewMemoryStore(clock)
		teamRepo = teams.NewMemoryRepository(clock)
		creds = auth.NewMemoryRepository()
	}

	if err := store.EnsureInitialized(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize auction session: %w", err)
	}

	// Teams
	teamsApp := teams.NewApp(teamRepo, cfg.Teams.TotalSlots)
	if cfg.Teams.SeedSamples {
		if err := teamsApp.SeedSampleTeams(ctx); err != nil {
			return nil, err
		}
	}

	// Auth
	if err := seedAccounts(ctx, cfg, creds, teamsApp); err != nil {
		return nil, err
	}
	gate, err := auth.NewGate(creds, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	sessions := auth.NewSessionRegistry(clock, cfg.SessionTTL())

	// Countdown
	synchronizer := countdown.NewSynchronizer(store, clock)
	connConfig := countdown.DefaultConnectionConfig()
	connConfig.ResyncInterval = cfg.ResyncInterval()
	connections := countdown.NewConnectionManager(synchronizer, clock, connConfig)

	notifiers := []admin.ChangeNotifier{synchronizer}

	var (
		bus   *countdown.NATSBus
		relay *countdown.Relay
	)
	if cfg.NATS.URL != "" {
		relayConfig := countdown.DefaultRelayConfig()
		relayConfig.URL = cfg.NATS.URL
		if cfg.NATS.Subject != "" {
			relayConfig.Subject = cfg.NATS.Subject
		}
		bus, err = countdown.ConnectNATS(relayConfig)
		if err != nil {
			return nil, err
		}
		relay = countdown.NewRelay(bus, relayConfig.Subject, synchronizer)
		notifiers = append(notifiers, relay)
	}

	var watcher *countdown.SessionWatcher
	if database != nil {
		watcherConfig := countdown.DefaultWatcherConfig()
		watcherConfig.DatabaseURL = dbconfig.NewConfigFromEnv().DSN()
		listener, err := countdown.ListenPostgres(watcherConfig)
		if err != nil {
			return nil, err
		}
		watcher = countdown.NewSessionWatcher(listener, synchronizer, clock, watcherConfig)
	}

	// Admin
	adminApp := admin.NewApp(store, clock, notifiers...)

	if err := seedInitialDeadline(ctx, cfg, store, clock); err != nil {
		return nil, err
	}
	if err := synchronizer.Refresh(ctx); err != nil {
		return nil, err
	}

	return &Services{
		Store:        store,
		Synchronizer: synchronizer,
		Connections:  connections,
		Relay:        relay,
		Watcher:      watcher,
		Bus:          bus,
		Sessions:     sessions,
		Auth:         auth.NewHandler(gate, sessions, cfg.Server.SecureCookies),
		Countdown:    countdown.NewHandler(synchronizer, connections),
		Admin:        admin.NewHandler(adminApp, clock),
		Teams:        teams.NewHandler(teamsApp),
	}, nil
}

// Start runs the background loops until ctx is done.
func (s *Services) Start(ctx context.Context) {
	go s.Connections.Start(ctx)
	go s.Sessions.Run(ctx, time.Minute)
	if s.Watcher != nil {
		go func() {
			if err := s.Watcher.Start(ctx); err != nil {
				log.Error().Err(err).Msg("session watcher failed")
			}
		}()
	}
	if s.Relay != nil {
		go func() {
			if err := s.Relay.Start(ctx); err != nil {
				log.Error().Err(err).Msg("session change relay failed")
			}
		}()
	}
}

func (s *Services) Close() {
	if s.Bus != nil {
		s.Bus.Close()
	}
}

func seedAccounts(ctx context.Context, cfg *Config, creds auth.CredentialWriter, teamsApp *teams.App) error {
	accounts := []auth.Account{{
		Username:  cfg.Auth.Admin.Username,
		Password:  cfg.Auth.Admin.Password,
		Role:      auth.RoleAdmin,
		SubjectID: cfg.Auth.Admin.Username,
	}}

	if cfg.Auth.Team.Username != "" {
		team, err := teamsApp.GetTeamByName(ctx, cfg.Auth.TeamName)
		switch {
		case errors.Is(err, teams.ErrTeamNotFound):
			log.Warn().Str("team", cfg.Auth.TeamName).Msg("team for seeded account not found, skipping")
		case err != nil:
			return err
		default:
			accounts = append(accounts, auth.Account{
				Username:  cfg.Auth.Team.Username,
				Password:  cfg.Auth.Team.Password,
				Role:      auth.RoleTeam,
				SubjectID: team.ID.String(),
			})
		}
	}

	return auth.SeedAccounts(ctx, creds, accounts, cfg.Auth.BcryptCost)
}

// seedInitialDeadline writes the configured deadline once, while the session is
// still PENDING. Another instance winning the race is fine.
func seedInitialDeadline(ctx context.Context, cfg *Config, store auction.Store, clock clockwork.Clock) error {
	if cfg.Countdown.InitialDeadline == "" {
		return nil
	}
	deadline, err := admin.ParseDeadline(cfg.Countdown.InitialDeadline)
	if err != nil {
		return fmt.Errorf("initial deadline %q: %w", cfg.Countdown.InitialDeadline, err)
	}

	current, err := store.Read(ctx)
	if err != nil {
		return err
	}
	if current.StateAt(clock.Now()) != models.AuctionStatePending {
		return nil
	}

	var label *string
	if cfg.Countdown.Label != "" {
		label = &cfg.Countdown.Label
	}
	session, err := store.CompareAndWrite(ctx, current.Version, auction.Mutation{
		Deadline:  deadline,
		Label:     label,
		Actor:     systemActor,
		Operation: auction.OperationSeed,
	})
	if errors.Is(err, auction.ErrWriteConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed initial deadline: %w", err)
	}

	log.Info().Time("deadline", deadline).Int64("version", session.Version).Msg("seeded initial auction deadline")
	return nil
}
