package auction

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/footy-auction/go/internal/models"
)

// Operations recorded in the session history.
const (
	OperationSet    = "set"
	OperationExtend = "extend"
	OperationEnd    = "end"
	OperationSeed   = "seed"
)

const defaultHistoryLimit = 50

// Mutation replaces the deadline of the auction session.
type Mutation struct {
	Deadline time.Time
	// Label replaces the session label when non-nil.
	Label     *string
	Actor     string
	Operation string
}

// Store owns the single auction session record.
type Store interface {
	EnsureInitialized(ctx context.Context) error
	Read(ctx context.Context) (models.AuctionSession, error)
	Write(ctx context.Context, m Mutation) (models.AuctionSession, error)
	CompareAndWrite(ctx context.Context, expectedVersion int64, m Mutation) (models.AuctionSession, error)
	History(ctx context.Context, limit int) ([]models.SessionChange, error)
}

// MemoryStore keeps the session in process memory.
// Writers are serialised by mu; readers load an immutable record through an atomic pointer
// and never wait on a writer.
type MemoryStore struct {
	clock   clockwork.Clock
	current atomic.Pointer[models.AuctionSession]

	mu      sync.Mutex
	history []models.SessionChange
}

// NewMemoryStore creates a store holding a PENDING session at version 0.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	s := &MemoryStore{clock: clock}
	s.current.Store(&models.AuctionSession{UpdatedAt: clock.Now().UTC()})
	return s
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) EnsureInitialized(ctx context.Context) error {
	return nil
}

// Read returns the current session.
func (s *MemoryStore) Read(ctx context.Context) (models.AuctionSession, error) {
	return cloneSession(*s.current.Load()), nil
}

// Write replaces the deadline and bumps the version.
func (s *MemoryStore) Write(ctx context.Context, m Mutation) (models.AuctionSession, error) {
	if m.Deadline.IsZero() {
		return models.AuctionSession{}, ErrInvalidMutation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply(*s.current.Load(), m), nil
}

// CompareAndWrite writes only if the current version equals expectedVersion.
func (s *MemoryStore) CompareAndWrite(ctx context.Context, expectedVersion int64, m Mutation) (models.AuctionSession, error) {
	if m.Deadline.IsZero() {
		return models.AuctionSession{}, ErrInvalidMutation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := *s.current.Load()
	if current.Version != expectedVersion {
		return models.AuctionSession{}, fmt.Errorf("%w: expected version %d, found %d",
			ErrWriteConflict, expectedVersion, current.Version)
	}
	return s.apply(current, m), nil
}

// History returns the most recent changes, newest first.
func (s *MemoryStore) History(ctx context.Context, limit int) ([]models.SessionChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]models.SessionChange, 0, limit)
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.history[i])
	}
	return out, nil
}

// apply must be called with mu held.
func (s *MemoryStore) apply(current models.AuctionSession, m Mutation) models.AuctionSession {
	now := s.clock.Now().UTC()
	next := nextSession(current, m, now)
	s.current.Store(&next)

	s.history = append(s.history, models.SessionChange{
		ID:        uuid.NewString(),
		Version:   next.Version,
		Deadline:  *next.Deadline,
		Label:     next.Label,
		Actor:     m.Actor,
		Operation: m.Operation,
		Details:   changeDetails(current),
		CreatedAt: now,
	})
	if len(s.history) > defaultHistoryLimit {
		s.history = s.history[len(s.history)-defaultHistoryLimit:]
	}

	return cloneSession(next)
}

func nextSession(current models.AuctionSession, m Mutation, now time.Time) models.AuctionSession {
	deadline := m.Deadline.UTC()
	label := current.Label
	if m.Label != nil {
		label = *m.Label
	}
	return models.AuctionSession{
		Deadline:  &deadline,
		Version:   current.Version + 1,
		Label:     label,
		UpdatedAt: now,
		UpdatedBy: m.Actor,
	}
}

// changeDetails records what the mutation replaced.
func changeDetails(previous models.AuctionSession) json.RawMessage {
	details := struct {
		PreviousVersion  int64      `json:"previous_version"`
		PreviousDeadline *time.Time `json:"previous_deadline,omitempty"`
	}{
		PreviousVersion:  previous.Version,
		PreviousDeadline: previous.Deadline,
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return data
}

func cloneSession(s models.AuctionSession) models.AuctionSession {
	if s.Deadline != nil {
		d := *s.Deadline
		s.Deadline = &d
	}
	return s
}
