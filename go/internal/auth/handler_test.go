package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/footy-auction/go/internal/auth"
)

func newAuthServer(t *testing.T) (*http.ServeMux, *auth.SessionRegistry) {
	t.Helper()
	reg := auth.NewSessionRegistry(clockwork.NewFakeClock(), time.Hour)
	mux := http.NewServeMux()
	auth.NewHandler(newSeededGate(t), reg, false).RegisterRoutes(mux)
	return mux, reg
}

func postJSON(mux http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestLoginHandler(t *testing.T) {
	mux, reg := newAuthServer(t)

	rec := postJSON(mux, "/api/admin/login", `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token      string `json:"token"`
		Capability string `json:"capability"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "admin", resp.Capability)

	c, err := reg.Resolve(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, c.Role)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginHandler_FailuresLookAlike(t *testing.T) {
	mux, _ := newAuthServer(t)

	wrongPassword := postJSON(mux, "/api/admin/login", `{"username":"admin","password":"nope"}`)
	unknownUser := postJSON(mux, "/api/admin/login", `{"username":"ghost","password":"nope"}`)
	wrongRole := postJSON(mux, "/api/admin/login", `{"username":"team1","password":"team123"}`)

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownUser, wrongRole} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, wrongPassword.Body.String(), rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestLoginHandler_BadBody(t *testing.T) {
	mux, _ := newAuthServer(t)
	rec := postJSON(mux, "/api/team/login", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutHandler(t *testing.T) {
	mux, reg := newAuthServer(t)
	s := reg.Issue(auth.Capability{Role: auth.RoleTeam, SubjectID: "t1"})

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := reg.Resolve(s.Token)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestLoginHandler_CookieSurvivesClockSkew(t *testing.T) {
	// server clock a day behind the client's
	clock := clockwork.NewFakeClockAt(time.Now().Add(-24 * time.Hour))
	reg := auth.NewSessionRegistry(clock, time.Hour)
	mux := http.NewServeMux()
	auth.NewHandler(newSeededGate(t), reg, false).RegisterRoutes(mux)

	srv := httptest.NewServer(auth.CapabilityMiddleware(reg)(mux))
	defer srv.Close()

	rec := postJSON(mux, "/api/admin/login", `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, int(time.Hour.Seconds()), cookies[0].MaxAge)
	assert.True(t, cookies[0].Expires.IsZero(), "cookie must not carry an absolute expiry")

	// a real cookie jar keeps the cookie and sends it back
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Post(srv.URL+"/api/admin/login", "application/json",
		strings.NewReader(`{"username":"admin","password":"admin123"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	stored := jar.Cookies(u)
	require.Len(t, stored, 1)

	c, err := reg.Resolve(stored[0].Value)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, c.Role)
}
