package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/auction"
	"github.com/mcdev12/footy-auction/go/internal/auth"
	"github.com/mcdev12/footy-auction/go/internal/models"
)

const defaultMaxAttempts = 3

// MaxExtension caps a single deadline extension.
const MaxExtension = 365 * 24 * time.Hour

// SessionStore defines what the app layer needs from the session store
type SessionStore interface {
	Read(ctx context.Context) (models.AuctionSession, error)
	Write(ctx context.Context, m auction.Mutation) (models.AuctionSession, error)
	CompareAndWrite(ctx context.Context, expectedVersion int64, m auction.Mutation) (models.AuctionSession, error)
	History(ctx context.Context, limit int) ([]models.SessionChange, error)
}

// ChangeNotifier is told about every committed session write.
type ChangeNotifier interface {
	SessionChanged(ctx context.Context, session models.AuctionSession)
}

// SetDeadlineRequest replaces the auction deadline. A deadline in the past ends
// the auction immediately.
type SetDeadlineRequest struct {
	Deadline time.Time
	Label    *string
}

// App handles admin control of the auction session
type App struct {
	store       SessionStore
	clock       clockwork.Clock
	notifiers   []ChangeNotifier
	maxAttempts int
}

// NewApp creates a new admin App
func NewApp(store SessionStore, clock clockwork.Clock, notifiers ...ChangeNotifier) *App {
	return &App{
		store:       store,
		clock:       clock,
		notifiers:   notifiers,
		maxAttempts: defaultMaxAttempts,
	}
}

// SetDeadline sets the auction deadline.
func (a *App) SetDeadline(ctx context.Context, c *auth.Capability, req SetDeadlineRequest) (models.AuctionSession, error) {
	if err := auth.Authorize(c, auth.RoleAdmin); err != nil {
		return models.AuctionSession{}, err
	}
	if req.Deadline.IsZero() {
		return models.AuctionSession{}, ErrMalformedTimestamp
	}

	return a.commit(ctx, c, auction.OperationSet, func() (models.AuctionSession, error) {
		return a.store.Write(ctx, auction.Mutation{
			Deadline:  req.Deadline.UTC(),
			Label:     req.Label,
			Actor:     c.SubjectID,
			Operation: auction.OperationSet,
		})
	})
}

// ExtendDeadline pushes the current deadline back by the given duration.
func (a *App) ExtendDeadline(ctx context.Context, c *auth.Capability, by time.Duration) (models.AuctionSession, error) {
	if err := auth.Authorize(c, auth.RoleAdmin); err != nil {
		return models.AuctionSession{}, err
	}
	if by <= 0 || by > MaxExtension {
		return models.AuctionSession{}, ErrInvalidExtension
	}

	return a.commit(ctx, c, auction.OperationExtend, func() (models.AuctionSession, error) {
		current, err := a.store.Read(ctx)
		if err != nil {
			return models.AuctionSession{}, err
		}
		if current.Deadline == nil {
			return models.AuctionSession{}, ErrNoDeadline
		}
		return a.store.CompareAndWrite(ctx, current.Version, auction.Mutation{
			Deadline:  current.Deadline.Add(by),
			Actor:     c.SubjectID,
			Operation: auction.OperationExtend,
		})
	})
}

// EndNow ends the auction at the current server time.
func (a *App) EndNow(ctx context.Context, c *auth.Capability) (models.AuctionSession, error) {
	if err := auth.Authorize(c, auth.RoleAdmin); err != nil {
		return models.AuctionSession{}, err
	}

	return a.commit(ctx, c, auction.OperationEnd, func() (models.AuctionSession, error) {
		return a.store.Write(ctx, auction.Mutation{
			Deadline:  a.clock.Now().UTC(),
			Actor:     c.SubjectID,
			Operation: auction.OperationEnd,
		})
	})
}

// Session returns the current session record.
func (a *App) Session(ctx context.Context, c *auth.Capability) (models.AuctionSession, error) {
	if err := auth.Authorize(c, auth.RoleAdmin); err != nil {
		return models.AuctionSession{}, err
	}
	return a.store.Read(ctx)
}

// History returns the most recent session changes, newest first.
func (a *App) History(ctx context.Context, c *auth.Capability, limit int) ([]models.SessionChange, error) {
	if err := auth.Authorize(c, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return a.store.History(ctx, limit)
}

// commit runs write, retrying on write conflicts, and notifies on success.
func (a *App) commit(ctx context.Context, c *auth.Capability, op string, write func() (models.AuctionSession, error)) (models.AuctionSession, error) {
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.AuctionSession{}, err
		}

		session, err := write()
		if err == nil {
			log.Info().
				Str("actor", c.String()).
				Str("operation", op).
				Int64("version", session.Version).
				Time("deadline", *session.Deadline).
				Int("attempt", attempt).
				Msg("auction deadline updated")

			for _, n := range a.notifiers {
				n.SessionChanged(ctx, session)
			}
			return session, nil
		}
		if !errors.Is(err, auction.ErrWriteConflict) {
			return models.AuctionSession{}, err
		}

		lastErr = err
		log.Debug().Err(err).Str("operation", op).Int("attempt", attempt).Msg("auction write conflict, retrying")
	}
	return models.AuctionSession{}, fmt.Errorf("%w: %w", ErrTransient, lastErr)
}
