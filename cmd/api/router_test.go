package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/local-guide/internal/domain/favorites"
	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/config"
	"github.com/FACorreiaa/local-guide/pkg/interceptors"
)

type emptyFavorites struct{}

func (emptyFavorites) List(context.Context, uuid.UUID) ([]types.Place, error) {
	return []types.Place{}, nil
}
func (emptyFavorites) Add(context.Context, uuid.UUID, types.FavoriteRequest) error { return nil }
func (emptyFavorites) Remove(context.Context, uuid.UUID, string) error             { return nil }
func (emptyFavorites) SetFavorite(context.Context, uuid.UUID, string, bool) error  { return nil }

const testSecret = "router-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Auth:   config.AuthConfig{JWTSecret: testSecret, SessionName: "local_guide_session"},
		Observability: config.ObservabilityConfig{
			MetricsEnabled: true,
			ServiceName:    "local-guide",
		},
	}
	deps := &Dependencies{
		Config:           cfg,
		Logger:           logger,
		FavoritesHandler: favorites.NewHandler(emptyFavorites{}, logger),
	}
	return SetupRouter(deps)
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		path string
		want int
	}{
		{"/ready", http.StatusOK},
		{"/health", http.StatusServiceUnavailable},
		{"/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_FavoritesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/favorites", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := interceptors.NewToken([]byte(testSecret), uuid.NewString(), time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/favorites", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSecureCookies(t *testing.T) {
	assert.False(t, secureCookies(""))
	assert.False(t, secureCookies("localhost"))
	assert.True(t, secureCookies("guide.example.com"))
}
