package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/footy-auction/go/internal/auction"
	"github.com/mcdev12/footy-auction/go/internal/auth"
	"github.com/mcdev12/footy-auction/go/internal/models"
)

// Layouts accepted for deadlines without an offset; they are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDeadline parses an ISO-8601 timestamp. Timestamps without a zone are UTC.
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrMalformedTimestamp
}

type setDeadlineBody struct {
	Deadline string  `json:"deadline"`
	Label    *string `json:"label"`
}

type extendBody struct {
	Seconds int64 `json:"seconds"`
}

type sessionView struct {
	Deadline   *time.Time          `json:"deadline"`
	Version    int64               `json:"version"`
	State      models.AuctionState `json:"state"`
	Label      string              `json:"label"`
	UpdatedAt  time.Time           `json:"updated_at"`
	UpdatedBy  string              `json:"updated_by,omitempty"`
	ServerTime time.Time           `json:"server_time"`
}

// Handler exposes the admin control surface over HTTP. It expects
// auth.CapabilityMiddleware to run first.
type Handler struct {
	app   *App
	clock clockwork.Clock
}

// NewHandler creates the admin handler.
func NewHandler(app *App, clock clockwork.Clock) *Handler {
	return &Handler{app: app, clock: clock}
}

// RegisterRoutes mounts the admin endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/session", h.handleSession)
	mux.HandleFunc("GET /api/admin/history", h.handleHistory)
	mux.HandleFunc("POST /api/admin/deadline", h.handleSetDeadline)
	mux.HandleFunc("POST /api/admin/deadline/extend", h.handleExtend)
	mux.HandleFunc("POST /api/admin/deadline/end", h.handleEnd)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.CapabilityFromContext(r.Context())
	session, err := h.app.Session(r.Context(), c)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSession(w, session)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.CapabilityFromContext(r.Context())

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	changes, err := h.app.History(r.Context(), c, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

func (h *Handler) handleSetDeadline(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.CapabilityFromContext(r.Context())

	// Authorize before looking at the payload so anonymous callers learn nothing.
	if err := auth.Authorize(c, auth.RoleAdmin); err != nil {
		h.writeError(w, err)
		return
	}

	var body setDeadlineBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	deadline, err := ParseDeadline(body.Deadline)
	if err != nil {
		h.writeError(w, err)
		return
	}

	session, err := h.app.SetDeadline(r.Context(), c, SetDeadlineRequest{Deadline: deadline, Label: body.Label})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSession(w, session)
}

func (h *Handler) handleExtend(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.CapabilityFromContext(r.Context())
	if err := auth.Authorize(c, auth.RoleAdmin); err != nil {
		h.writeError(w, err)
		return
	}

	var body extendBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	// checked before converting so large values cannot overflow the Duration
	if body.Seconds <= 0 || body.Seconds > int64(MaxExtension/time.Second) {
		h.writeError(w, ErrInvalidExtension)
		return
	}

	session, err := h.app.ExtendDeadline(r.Context(), c, time.Duration(body.Seconds)*time.Second)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSession(w, session)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	c, _ := auth.CapabilityFromContext(r.Context())
	session, err := h.app.EndNow(r.Context(), c)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSession(w, session)
}

func (h *Handler) writeSession(w http.ResponseWriter, session models.AuctionSession) {
	now := h.clock.Now()
	writeJSON(w, http.StatusOK, sessionView{
		Deadline:   session.Deadline,
		Version:    session.Version,
		State:      session.StateAt(now),
		Label:      session.Label,
		UpdatedAt:  session.UpdatedAt,
		UpdatedBy:  session.UpdatedBy,
		ServerTime: now.UTC(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrMalformedTimestamp),
		errors.Is(err, ErrInvalidExtension),
		errors.Is(err, ErrNoDeadline):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrTransient), errors.Is(err, auction.ErrUnavailable):
		log.Warn().Err(err).Msg("admin request failed")
		http.Error(w, "auction session unavailable, try again", http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("admin request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
