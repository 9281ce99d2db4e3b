package countdown

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler serves countdown snapshots over plain HTTP and websocket.
type Handler struct {
	sync        *Synchronizer
	connections *ConnectionManager
}

// NewHandler creates the countdown handler.
func NewHandler(synchronizer *Synchronizer, connections *ConnectionManager) *Handler {
	return &Handler{
		sync:        synchronizer,
		connections: connections,
	}
}

// RegisterRoutes mounts the countdown endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/countdown", h.HandleSnapshot)
	mux.HandleFunc("GET /ws/countdown", h.HandleWebSocket)
}

// HandleSnapshot returns the current snapshot for polling clients.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sync.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to serve countdown snapshot")
		http.Error(w, "auction session unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Error().Err(err).Msg("failed to encode countdown snapshot")
	}
}

// HandleWebSocket upgrades the request into a pushed countdown stream.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.connections.UpgradeConnection(w, r); err != nil {
		log.Error().Err(err).Msg("failed to open countdown stream")
		// Upgrade failures have already written a response.
		if !isUpgradeError(err) {
			http.Error(w, "auction session unavailable", http.StatusServiceUnavailable)
		}
	}
}
