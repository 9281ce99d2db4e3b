package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// loginFailedMessage is shared by every authentication failure so callers cannot
// tell unknown users, wrong passwords and role mismatches apart.
const loginFailedMessage = "invalid username or password"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string    `json:"token"`
	Capability string    `json:"capability"`
	Role       Role      `json:"role"`
	SubjectID  string    `json:"subject_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	// ExpiresIn is the token lifetime in seconds, for clients whose clock disagrees with ExpiresAt.
	ExpiresIn  int64     `json:"expires_in"`
}

// Handler serves the login and logout endpoints.
type Handler struct {
	gate          *Gate
	sessions      *SessionRegistry
	secureCookies bool
}

// NewHandler creates the login handler. secureCookies marks the session cookie Secure.
func NewHandler(gate *Gate, sessions *SessionRegistry, secureCookies bool) *Handler {
	return &Handler{
		gate:          gate,
		sessions:      sessions,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes mounts the auth endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/login", h.login(RoleAdmin))
	mux.HandleFunc("POST /api/team/login", h.login(RoleTeam))
	mux.HandleFunc("POST /api/logout", h.logout)
}

func (h *Handler) login(role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		c, err := h.gate.Authenticate(r.Context(), req.Username, req.Password, role)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrRoleMismatch) {
				http.Error(w, loginFailedMessage, http.StatusUnauthorized)
				return
			}
			log.Error().Err(err).Str("role", string(role)).Msg("login failed")
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}

		s := h.sessions.Issue(*c)
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    s.Token,
			Path:     "/",
			// relative lifetime: the browser's clock need not agree with ours
			MaxAge:   int(h.sessions.TTL().Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})

		log.Info().Str("capability", c.String()).Msg("login succeeded")

		writeJSON(w, http.StatusOK, loginResponse{
			Token:      s.Token,
			Capability: c.String(),
			Role:       c.Role,
			SubjectID:  c.SubjectID,
			ExpiresAt:  s.ExpiresAt,
			ExpiresIn:  int64(h.sessions.TTL().Seconds()),
		})
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token := TokenFromRequest(r); token != "" {
		h.sessions.Revoke(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
