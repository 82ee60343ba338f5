package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/local-guide/internal/types"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, auth Authorizer, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, auth, newTestLogger(), WithHTTPClient(srv.Client()))
}

func TestClient_List(t *testing.T) {
	c := newTestClient(t, BearerToken("tok"), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/favorites", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"id":"g1","name":"Louvre","latitude":48.86,"longitude":2.33,"source":"favorite","isFavorite":true}]`)
	})

	got, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].ID)
	assert.Equal(t, types.SourceFavorite, got[0].Source)
}

func TestClient_ListNullBody(t *testing.T) {
	c := newTestClient(t, BearerToken("tok"), func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})
	got, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClient_Add(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, SessionCookie{Name: "session", Value: "abc"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		cookie, err := r.Cookie("session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", cookie.Value)
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Add(context.Background(), types.Place{
		ID:         "g1",
		Name:       "Louvre",
		Latitude:   48.86,
		Longitude:  2.33,
		Category:   "museums",
		Source:     types.SourceGoogle,
		VisitCount: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, "g1", body["id"])
	assert.Equal(t, "Louvre", body["name"])
	assert.Equal(t, 48.86, body["latitude"])
	assert.Equal(t, "museums", body["category"])
	assert.Equal(t, "google", body["source"])
	assert.NotContains(t, body, "visitCount")
	assert.NotContains(t, body, "address", "optional fields are omitted when empty")
}

func TestClient_Remove(t *testing.T) {
	c := newTestClient(t, BearerToken("tok"), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "places/a b", r.URL.Query().Get("placeId"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.Remove(context.Background(), "places/a b"))
}

func TestClient_Unauthorized(t *testing.T) {
	c := newTestClient(t, BearerToken("expired"), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Unauthorized"}`)
	})

	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
	assert.ErrorIs(t, c.Add(context.Background(), types.Place{ID: "x"}), types.ErrUnauthenticated)
}

func TestClient_MissingCredentialFailsBeforeSending(t *testing.T) {
	called := false
	c := newTestClient(t, BearerToken(""), func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
	assert.False(t, called)
}

func TestClient_HTTPError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json envelope", http.StatusInternalServerError, `{"error":"Failed to add favorite"}`, "Failed to add favorite"},
		{"plain text", http.StatusBadGateway, "bad gateway", "bad gateway"},
		{"empty body", http.StatusServiceUnavailable, "", "503 Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, BearerToken("tok"), func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			err := c.Add(context.Background(), types.Place{ID: "x"})
			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.message, httpErr.Message)
			assert.NotErrorIs(t, err, types.ErrUnauthenticated)
		})
	}
}

func TestClient_NotFoundMapsToSentinel(t *testing.T) {
	c := newTestClient(t, BearerToken("tok"), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"place not found"}`)
	})
	assert.ErrorIs(t, c.Remove(context.Background(), "x"), types.ErrNotFound)
}
