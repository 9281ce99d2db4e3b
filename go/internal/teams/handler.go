package teams

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/auth"
)

// Handler serves the team directory over HTTP
type Handler struct {
	app *App
}

// NewHandler creates a new teams handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the team endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/teams", h.handleListTeams)
	mux.HandleFunc("GET /api/dashboard", h.handleDashboard)
	mux.HandleFunc("GET /api/slots", h.handleSlots)
	mux.HandleFunc("GET /api/team/{id}", h.handleTeam)
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.app.ListTeams(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list teams")
		http.Error(w, "failed to list teams", http.StatusInternalServerError)
		return
	}
	writeJSON(w, teams)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.app.Dashboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build dashboard")
		http.Error(w, "failed to build dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, dashboard)
}

func (h *Handler) handleSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.app.Slots(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to count team slots")
		http.Error(w, "failed to count team slots", http.StatusInternalServerError)
		return
	}
	writeJSON(w, slots)
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return
	}

	c, _ := auth.CapabilityFromContext(r.Context())
	team, err := h.app.TeamDashboard(r.Context(), c, id)
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	case errors.Is(err, ErrTeamNotFound):
		http.Error(w, "team not found", http.StatusNotFound)
		return
	case err != nil:
		log.Error().Err(err).Str("team_id", id.String()).Msg("failed to get team")
		http.Error(w, "failed to get team", http.StatusInternalServerError)
		return
	}
	writeJSON(w, team)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
