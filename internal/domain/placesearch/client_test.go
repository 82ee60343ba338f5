package placesearch

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

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, newTestLogger(), WithHTTPClient(srv.Client()))
}

func TestClient_SearchNearby(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchNearby", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.displayName")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"places":[{"id":"p1","displayName":{"text":"One"}},"bad",{"id":"p2"}]}`)
	})

	places, err := c.SearchNearby(context.Background(), NearbyRequest{
		Center:        types.Coordinate{Latitude: 38.7, Longitude: -9.1},
		RadiusMeters:  1500,
		IncludedTypes: []string{"cafe"},
		MaxResults:    99,
	})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "One", places[0].Name)
	assert.Equal(t, UnnamedPlace, places[1].Name)

	assert.Equal(t, float64(MaxResultCount), got["maxResultCount"], "clamped to the vendor maximum")
	assert.Equal(t, "POPULARITY", got["rankPreference"])
	assert.Equal(t, []any{"cafe"}, got["includedTypes"])
	circle := got["locationRestriction"].(map[string]any)["circle"].(map[string]any)
	assert.Equal(t, 1500.0, circle["radius"])
	center := circle["center"].(map[string]any)
	assert.Equal(t, 38.7, center["latitude"])
	assert.Equal(t, -9.1, center["longitude"])
}

func TestClient_SearchNearbyWithKeywordUsesTextSearch(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"places":[]}`)
	})

	places, err := c.SearchNearby(context.Background(), NearbyRequest{
		Center:        types.Coordinate{Latitude: 1, Longitude: 2},
		IncludedTypes: []string{"night_club"},
		Keyword:       "nightlife",
		MaxResults:    5,
	})
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.Equal(t, "nightlife", got["textQuery"])
	assert.Equal(t, "night_club", got["includedType"])
	assert.Equal(t, 5.0, got["maxResultCount"])
	assert.Contains(t, got, "locationBias")
	assert.NotContains(t, got, "locationRestriction")
}

func TestClient_SearchByText(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"places":[{"id":"eiffel","displayName":{"text":"Eiffel Tower"}}]}`)
	})

	places, err := c.SearchByText(context.Background(), TextRequest{Query: "eiffel"})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "eiffel", places[0].ID)
	assert.NotContains(t, got, "locationBias")
}

func TestClient_EmptyBodyYieldsNoPlaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	places, err := c.SearchByText(context.Background(), TextRequest{Query: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestClient_FetchDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/places/ChIJabc", r.URL.Path)
		assert.NotContains(t, r.Header.Get("X-Goog-FieldMask"), "places.")
		_, _ = io.WriteString(w, `{"id":"ChIJabc","displayName":{"text":"Belem Tower"},"photos":[{"name":"places/ChIJabc/photos/p1"}]}`)
	})

	p, err := c.FetchDetails(context.Background(), "ChIJabc")
	require.NoError(t, err)
	assert.Equal(t, "Belem Tower", p.Name)
	assert.Contains(t, p.ImageURI, "/places/ChIJabc/photos/p1/media?")
	assert.Contains(t, p.ImageURI, "maxWidthPx=800")
}

func TestClient_QuotaExceeded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"Quota exceeded for quota metric","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := c.SearchNearby(context.Background(), NearbyRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrQuotaExceeded)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", apiErr.Status())
	assert.Equal(t, "Quota exceeded for quota metric", apiErr.Message())
}

func TestClient_ResourceExhaustedWithout429(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`)
	})
	_, err := c.FetchDetails(context.Background(), "x")
	assert.ErrorIs(t, err, types.ErrQuotaExceeded)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream exploded")
	})

	_, err := c.SearchByText(context.Background(), TextRequest{Query: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Body)
	assert.Contains(t, err.Error(), "upstream exploded")
	assert.NotErrorIs(t, err, types.ErrQuotaExceeded)
}

func TestClient_MissingAPIKey(t *testing.T) {
	c := NewClient(Config{}, newTestLogger())
	_, err := c.SearchByText(context.Background(), TextRequest{Query: "x"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestClient_FetchDetailsEmptyID(t *testing.T) {
	c := NewClient(Config{APIKey: "k"}, newTestLogger())
	_, err := c.FetchDetails(context.Background(), " ")
	assert.ErrorIs(t, err, types.ErrBadRequest)
}
