package countdown

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// DefaultNotifyChannel matches the trigger installed by the session migrations.
const DefaultNotifyChannel = "auction_session_changed"

type WatcherConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to re-read the session regardless of notifications
	PingInterval     time.Duration
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		NotifyChannel:    DefaultNotifyChannel,
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
	}
}

// NotificationSource is the subset of *pq.Listener the watcher uses.
type NotificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// SessionWatcher refreshes the synchronizer when another instance writes the
// session to the shared database.
type SessionWatcher struct {
	source       NotificationSource
	synchronizer *Synchronizer
	clock        clockwork.Clock
	cfg          WatcherConfig
}

// ListenPostgres opens a pq listener on cfg.NotifyChannel.
func ListenPostgres(cfg WatcherConfig) (*pq.Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("session listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for session notifications")
	return l, nil
}

func NewSessionWatcher(source NotificationSource, synchronizer *Synchronizer, clock clockwork.Clock, cfg WatcherConfig) *SessionWatcher {
	return &SessionWatcher{
		source:       source,
		synchronizer: synchronizer,
		clock:        clock,
		cfg:          cfg,
	}
}

// Start blocks until ctx is done, then closes the source.
func (w *SessionWatcher) Start(ctx context.Context) error {
	log.Info().
		Str("channel", w.cfg.NotifyChannel).
		Dur("ping_interval", w.cfg.PingInterval).
		Dur("fallback_interval", w.cfg.FallbackInterval).
		Msg("session watcher started")

	pingTicker := w.clock.NewTicker(w.cfg.PingInterval)
	fallbackTicker := w.clock.NewTicker(w.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	notifications := w.source.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session watcher shutting down")
			return w.source.Close()
		case note := <-notifications:
			if note == nil {
				// reconnected; notifications may have been missed
				w.refresh(ctx)
				continue
			}
			w.handleNotification(ctx, note.Extra)
		case <-fallbackTicker.Chan():
			w.refresh(ctx)
		case <-pingTicker.Chan():
			if err := w.source.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping session listener")
			}
		}
	}
}

// handleNotification refreshes unless the payload names a version already published.
func (w *SessionWatcher) handleNotification(ctx context.Context, extra string) {
	version, err := strconv.ParseInt(extra, 10, 64)
	if err == nil && version <= w.synchronizer.LastPublished() {
		return
	}
	if err != nil {
		log.Warn().Str("payload", extra).Msg("unparseable session notification")
	}
	w.refresh(ctx)
}

func (w *SessionWatcher) refresh(ctx context.Context) {
	if err := w.synchronizer.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("failed to refresh session")
	}
}
