package countdown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/models"
)

var errUpgrade = errors.New("failed to upgrade connection")

func isUpgradeError(err error) bool {
	return errors.Is(err, errUpgrade)
}

// MessageTypeSnapshot tags pushed countdown snapshots.
const MessageTypeSnapshot = "snapshot"

// Message is the websocket frame sent to countdown clients.
type Message struct {
	Type string          `json:"type"`
	Data models.Snapshot `json:"data"`
}

// ConnectionConfig holds configuration for countdown websocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	ResyncInterval  time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default websocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		ResyncInterval:  15 * time.Second,
		MaxMessageSize:  512,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  16,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Connection is one connected countdown viewer.
type Connection struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	Manager     *ConnectionManager
	ConnectedAt time.Time

	mu      sync.Mutex
	version int64
	closed  bool
}

// enqueue queues data unless it carries an older version than what this
// connection already got. It returns false when the send buffer is full.
func (c *Connection) enqueue(version int64, data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || version < c.version {
		return true
	}
	select {
	case c.Send <- data:
		c.version = version
		return true
	default:
		return false
	}
}

func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ConnectionManager keeps the pool of countdown websocket viewers and pushes
// snapshots to them when the session changes and on every resync interval.
type ConnectionManager struct {
	sync   *Synchronizer
	clock  clockwork.Clock
	config ConnectionConfig

	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[*Connection]bool

	// highest version broadcast so far; owned by the Start loop
	lastVersion int64
}

// NewConnectionManager creates a new websocket connection manager
func NewConnectionManager(synchronizer *Synchronizer, clock clockwork.Clock, config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		sync:   synchronizer,
		clock:  clock,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		connections: make(map[*Connection]bool),
		lastVersion: -1,
	}
}

// Start forwards published snapshots to every connection and resyncs all
// connections periodically until ctx is done.
func (cm *ConnectionManager) Start(ctx context.Context) {
	updates, cancel := cm.sync.Subscribe()
	defer cancel()

	ticker := cm.clock.NewTicker(cm.config.ResyncInterval)
	defer ticker.Stop()

	log.Info().Dur("resync_interval", cm.config.ResyncInterval).Msg("countdown connection manager started")

	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			log.Info().Msg("countdown connection manager shutting down")
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			cm.broadcast(snap)
		case <-ticker.Chan():
			snap, err := cm.sync.Snapshot(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("countdown resync skipped")
				continue
			}
			cm.broadcast(snap)
		}
	}
}

// UpgradeConnection upgrades the request and sends the current snapshot first.
// It fails before upgrading when the session store cannot be read.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	snap, err := cm.sync.Snapshot(r.Context())
	if err != nil {
		return err
	}

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", errUpgrade, err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: cm.clock.Now(),
		version:     -1,
	}
	cm.registerConnection(connection)

	// Re-read after registering so a publish racing with the upgrade is not missed.
	if fresh, err := cm.sync.Snapshot(r.Context()); err == nil {
		snap = fresh
	}
	if data, err := encodeSnapshot(snap); err == nil {
		connection.enqueue(snap.Version, data)
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Int64("version", snap.Version).
		Msg("countdown websocket connection established")

	return nil
}

// ConnectionCount returns the number of open connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn] = true
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		conn.closeSend()

		log.Debug().
			Str("connection_id", conn.ID).
			Int("remaining_connections", len(cm.connections)).
			Msg("countdown connection unregistered")
	}
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		cm.unregisterConnection(conn)
	}
}

// broadcast never sends a version lower than one already sent, so a resync read
// racing with a publish cannot move clients backwards.
func (cm *ConnectionManager) broadcast(snap models.Snapshot) {
	if snap.Version < cm.lastVersion {
		return
	}
	cm.lastVersion = snap.Version

	data, err := encodeSnapshot(snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal snapshot for broadcast")
		return
	}

	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		if !conn.enqueue(snap.Version, data) {
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}
}

func encodeSnapshot(snap models.Snapshot) ([]byte, error) {
	data, err := json.Marshal(Message{Type: MessageTypeSnapshot, Data: snap})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to write snapshot")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; viewers have nothing to say.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close")
			}
			return
		}
	}
}
