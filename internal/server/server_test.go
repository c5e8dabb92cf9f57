package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"alliancefeed/internal/config"
	"alliancefeed/internal/featureflags"
	"alliancefeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Comment{}))

	cfg := &config.Config{
		JWTSecret: "test-secret-test-secret-test-secret!",
		Env:       "test",
	}

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.StartFeed(ctx))
	t.Cleanup(func() {
		cancel()
		srv.feed.Close()
	})

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

// signupUser registers a user and returns its auth token.
func signupUser(t *testing.T, app *fiber.App, username, email string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "SecurePass12!@",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "signup failed: %v", body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoints(t *testing.T) {
	_, app := setupTestServer(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])

	// Without Redis readiness degrades but does not fail.
	resp, body = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuthRequired_RejectsAnonymous(t *testing.T) {
	_, app := setupTestServer(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/feed/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, models.CodeUnauthorized, body["code"])
}

func TestAuthRequired_RejectsGarbageToken(t *testing.T) {
	_, app := setupTestServer(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/feed/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFeatureFlagsEndpoint(t *testing.T) {
	srv, app := setupTestServer(t)
	srv.flags = featureflags.NewManager("dark_mode=on,legacy_composer=off")
	token := signupUser(t, app, "ana", "ana@example.com")

	resp, body := doJSON(t, app, http.MethodGet, "/api/flags", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	flags, ok := body["flags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, flags["dark_mode"])
	assert.Equal(t, false, flags["legacy_composer"])
}

func TestStatusForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Validation", models.NewValidationError("bad"), http.StatusBadRequest},
		{"Unauthorized", models.NewUnauthorizedError("who"), http.StatusUnauthorized},
		{"Permission", models.NewPermissionError("no"), http.StatusForbidden},
		{"NotFound", models.NewNotFoundError("Comment", "x"), http.StatusNotFound},
		{"Publish", models.NewPublishError("down", nil), http.StatusBadGateway},
		{"Plain", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}
