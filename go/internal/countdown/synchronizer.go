package countdown

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/models"
)

// SessionReader defines what the synchronizer needs from the session store
type SessionReader interface {
	Read(ctx context.Context) (models.AuctionSession, error)
}

// Synchronizer hands out snapshots of the shared deadline and pushes new ones to
// subscribers whenever the session version advances.
type Synchronizer struct {
	store SessionReader
	clock clockwork.Clock

	mu            sync.Mutex
	subscribers   map[uint64]chan models.Snapshot
	nextID        uint64
	lastPublished int64
}

// NewSynchronizer creates a synchronizer over store.
func NewSynchronizer(store SessionReader, clock clockwork.Clock) *Synchronizer {
	return &Synchronizer{
		store:         store,
		clock:         clock,
		subscribers:   make(map[uint64]chan models.Snapshot),
		lastPublished: -1,
	}
}

// Snapshot reads the session and stamps server time after the read, so the
// snapshot never reports a server time older than the deadline it carries.
func (s *Synchronizer) Snapshot(ctx context.Context) (models.Snapshot, error) {
	session, err := s.store.Read(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read auction session: %w", err)
	}
	return models.NewSnapshot(session, s.clock.Now()), nil
}

// Subscribe registers a receiver of pushed snapshots. The channel holds at most the
// latest unread snapshot; older unread ones are replaced. Call cancel to unsubscribe.
func (s *Synchronizer) Subscribe() (<-chan models.Snapshot, func()) {
	ch := make(chan models.Snapshot, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish pushes session to subscribers if its version is newer than anything
// published before. It reports whether a push happened.
func (s *Synchronizer) Publish(session models.AuctionSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.Version <= s.lastPublished {
		return false
	}
	s.lastPublished = session.Version
	snap := models.NewSnapshot(session, s.clock.Now())

	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale unread snapshot so the newest one wins
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}

	log.Debug().
		Int64("version", session.Version).
		Int("subscribers", len(s.subscribers)).
		Msg("published auction snapshot")
	return true
}

// SessionChanged publishes a session returned by a successful write.
func (s *Synchronizer) SessionChanged(_ context.Context, session models.AuctionSession) {
	s.Publish(session)
}

// Refresh re-reads the store and publishes the result.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	session, err := s.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh auction session: %w", err)
	}
	s.Publish(session)
	return nil
}

// LastPublished returns the highest version pushed so far, or -1.
func (s *Synchronizer) LastPublished() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPublished
}

// Subscribers returns the number of registered subscribers.
func (s *Synchronizer) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}
