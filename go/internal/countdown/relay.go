package countdown

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/models"
)

// DefaultRelaySubject carries session change notifications between instances.
const DefaultRelaySubject = "auction.session.updated"

// Bus is the pub/sub transport the relay runs on.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func() error, err error)
}

// RelayConfig holds configuration for the NATS connection
type RelayConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultRelayConfig returns default relay configuration
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		URL:           nats.DefaultURL,
		Subject:       DefaultRelaySubject,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSBus adapts a NATS connection to Bus.
type NATSBus struct {
	nc *nats.Conn
}

// ConnectNATS dials NATS with reconnect logging.
func ConnectNATS(config RelayConfig) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("footy-auction"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSBus{nc: nc}, nil
}

func (b *NATSBus) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

func (b *NATSBus) Subscribe(subject string, handler func(data []byte)) (func() error, error) {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub.Unsubscribe, nil
}

// Close drains pending messages and closes the connection.
func (b *NATSBus) Close() {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
	}
}

type changeNotice struct {
	Origin  string `json:"origin"`
	Version int64  `json:"version"`
}

// Relay tells other instances that the shared session changed and refreshes the
// local synchronizer when they say the same. Notices only carry the version; the
// session itself is always re-read from the store.
type Relay struct {
	bus     Bus
	subject string
	origin  string
	sync    *Synchronizer
}

// NewRelay creates a relay for synchronizer on bus.
func NewRelay(bus Bus, subject string, synchronizer *Synchronizer) *Relay {
	if subject == "" {
		subject = DefaultRelaySubject
	}
	return &Relay{
		bus:     bus,
		subject: subject,
		origin:  uuid.NewString(),
		sync:    synchronizer,
	}
}

// SessionChanged announces a committed write to the other instances.
func (r *Relay) SessionChanged(_ context.Context, session models.AuctionSession) {
	data, err := json.Marshal(changeNotice{Origin: r.origin, Version: session.Version})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode session change notice")
		return
	}
	if err := r.bus.Publish(r.subject, data); err != nil {
		// Remote instances still converge on their next resync.
		log.Warn().Err(err).Int64("version", session.Version).Msg("failed to relay session change")
	}
}

// Start listens for notices from other instances until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	unsubscribe, err := r.bus.Subscribe(r.subject, func(data []byte) {
		r.handleNotice(ctx, data)
	})
	if err != nil {
		return err
	}

	log.Info().Str("subject", r.subject).Str("origin", r.origin).Msg("session change relay started")

	<-ctx.Done()
	if err := unsubscribe(); err != nil {
		log.Warn().Err(err).Msg("failed to unsubscribe session change relay")
	}
	return nil
}

func (r *Relay) handleNotice(ctx context.Context, data []byte) {
	var notice changeNotice
	if err := json.Unmarshal(data, &notice); err != nil {
		log.Warn().Err(err).Msg("ignoring malformed session change notice")
		return
	}
	if notice.Origin == r.origin || notice.Version <= r.sync.LastPublished() {
		return
	}
	if err := r.sync.Refresh(ctx); err != nil {
		log.Error().Err(err).Int64("version", notice.Version).Msg("failed to refresh after remote change")
	}
}
