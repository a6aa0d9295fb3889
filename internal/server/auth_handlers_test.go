package server

import (
	"net/http"
	"testing"

	"lukeblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.staff("luke", "skywalker-123", false)
	reader := env.staff("reader", "reader-pass-1", false)
	require.NoError(t, env.db.Model(reader).Update("is_staff", false).Error)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{"valid credentials", map[string]string{"username": "luke", "password": "skywalker-123"}, http.StatusOK},
		{"wrong password", map[string]string{"username": "luke", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "vader", "password": "whatever"}, http.StatusUnauthorized},
		{"not staff", map[string]string{"username": "reader", "password": "reader-pass-1"}, http.StatusForbidden},
		{"missing fields", map[string]string{"username": "luke"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.postJSON("/api/auth/login", tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestMeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	env.staff("luke", "skywalker-123", false)
	token := env.login("luke", "skywalker-123")

	assert.Equal(t, http.StatusUnauthorized, env.get("/api/auth/me").StatusCode)

	resp := env.get("/api/auth/me", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	decodeBody(t, resp, &me)
	assert.Equal(t, "luke", me.Username)

	resp = env.postJSON("/api/auth/logout", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusUnauthorized, env.get("/api/auth/me", "Authorization", "Bearer "+token).StatusCode)
}

func TestAdminSites_RequireStaffToken(t *testing.T) {
	env := newTestEnv(t)
	luke := env.staff("luke", "skywalker-123", false)
	cat := env.fx.Category(luke, "Go", false)
	env.fx.Post(luke, cat, "Mine", models.StatusDraft)
	token := env.login("luke", "skywalker-123")

	for _, site := range []string{"super_admin", "admin", "mgadmin"} {
		assert.Equal(t, http.StatusUnauthorized, env.get("/"+site+"/post/").StatusCode, site)

		resp := env.get("/"+site+"/post/", "Authorization", "Bearer "+token)
		require.Equal(t, http.StatusOK, resp.StatusCode, site)
		var out struct {
			Count   int64            `json:"count"`
			Results []map[string]any `json:"results"`
		}
		decodeBody(t, resp, &out)
		assert.EqualValues(t, 1, out.Count, site)
	}

	// staff status is checked on every request, not only at login
	require.NoError(t, env.db.Model(luke).Update("is_staff", false).Error)
	assert.Equal(t, http.StatusForbidden, env.get("/admin/post/", "Authorization", "Bearer "+token).StatusCode)
}

func TestFeatureFlags(t *testing.T) {
	env := newTestEnv(t)
	env.staff("luke", "skywalker-123", false)
	token := env.login("luke", "skywalker-123")

	resp := env.get("/api/features", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Flags []struct {
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		} `json:"flags"`
	}
	decodeBody(t, resp, &out)
	enabled := map[string]bool{}
	for _, f := range out.Flags {
		enabled[f.Name] = f.Enabled
	}
	assert.True(t, enabled["watermark"])
	assert.False(t, enabled["comment_moderation"])
}

func TestAdminFeed_RequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)
	env.staff("luke", "skywalker-123", false)
	token := env.login("luke", "skywalker-123")

	assert.Equal(t, http.StatusUnauthorized, env.get("/admin/ws").StatusCode)
	assert.Equal(t, http.StatusUpgradeRequired, env.get("/admin/ws?token="+token).StatusCode)
}
