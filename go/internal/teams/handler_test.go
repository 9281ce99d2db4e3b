package teams_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/footy-auction/go/internal/auth"
	"github.com/mcdev12/footy-auction/go/internal/models"
	"github.com/mcdev12/footy-auction/go/internal/teams"
)

func TestHandler(t *testing.T) {
	app := newSeededApp(t)
	alpha, err := app.GetTeamByName(context.Background(), "Team Alpha")
	require.NoError(t, err)

	mux := http.NewServeMux()
	teams.NewHandler(app).RegisterRoutes(mux)

	get := func(path string, c *auth.Capability) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if c != nil {
			req = req.WithContext(auth.WithCapability(req.Context(), c))
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/api/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 4)
	assert.ElementsMatch(t, []string{"id", "name", "owner", "batch"}, keys(list[0]))

	rec = get("/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dashboard teams.Dashboard
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dashboard))
	assert.Equal(t, 8, dashboard.Slots.RemainingSlots)

	rec = get("/api/slots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slots models.SlotInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&slots))
	assert.Equal(t, dashboard.Slots, slots)

	owner := &auth.Capability{Role: auth.RoleTeam, SubjectID: alpha.ID.String()}
	assert.Equal(t, http.StatusOK, get("/api/team/"+alpha.ID.String(), owner).Code)
	assert.Equal(t, http.StatusUnauthorized, get("/api/team/"+alpha.ID.String(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/team/42", owner).Code)

	admin := &auth.Capability{Role: auth.RoleAdmin, SubjectID: "admin"}
	assert.Equal(t, http.StatusNotFound, get("/api/team/"+uuid.NewString(), admin).Code)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
