// Package client is the HTTP transport for the backend favorites resource.
// It holds no state beyond its configuration.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/local-guide/internal/types"
)

const favoritesPath = "/api/favorites"

// Authorizer attaches the caller's credential to an outgoing request.
type Authorizer interface {
	Authorize(req *http.Request) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(req *http.Request) error

func (f AuthorizerFunc) Authorize(req *http.Request) error { return f(req) }

// BearerToken sends an Authorization: Bearer header.
type BearerToken string

func (t BearerToken) Authorize(req *http.Request) error {
	if t == "" {
		return types.ErrUnauthenticated
	}
	req.Header.Set("Authorization", "Bearer "+string(t))
	return nil
}

// SessionCookie sends the session cookie issued by the auth provider.
type SessionCookie struct {
	Name  string
	Value string
}

func (c SessionCookie) Authorize(req *http.Request) error {
	if c.Value == "" {
		return types.ErrUnauthenticated
	}
	req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	return nil
}

// HTTPError is a non-2xx, non-401 response from the favorites resource.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("favorites: status %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Is(target error) bool {
	switch target {
	case types.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case types.ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case types.ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// Client calls the favorites endpoints.
type Client struct {
	baseURL    string
	auth       Authorizer
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, auth Authorizer, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the caller's favorites.
func (c *Client) List(ctx context.Context) ([]types.Place, error) {
	ctx, span := otel.Tracer("FavoritesClient").Start(ctx, "List")
	defer span.End()

	var places []types.Place
	if err := c.do(ctx, http.MethodGet, favoritesPath, nil, &places); err != nil {
		return nil, fail(span, err)
	}
	if places == nil {
		places = []types.Place{}
	}
	span.SetAttributes(attribute.Int("favorites.count", len(places)))
	span.SetStatus(codes.Ok, "")
	return places, nil
}

// Add favorites p. The backend upserts, so repeating the call is harmless.
func (c *Client) Add(ctx context.Context, p types.Place) error {
	ctx, span := otel.Tracer("FavoritesClient").Start(ctx, "Add", trace.WithAttributes(
		attribute.String("place.id", p.ID),
	))
	defer span.End()

	if err := c.do(ctx, http.MethodPost, favoritesPath, types.FavoriteRequestFromPlace(p), nil); err != nil {
		return fail(span, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Remove deletes the favorite for placeID. Removing a missing favorite succeeds.
func (c *Client) Remove(ctx context.Context, placeID string) error {
	ctx, span := otel.Tracer("FavoritesClient").Start(ctx, "Remove", trace.WithAttributes(
		attribute.String("place.id", placeID),
	))
	defer span.End()

	path := favoritesPath + "?" + url.Values{"placeId": []string{placeID}}.Encode()
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fail(span, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	l := c.logger.With(slog.String("method", method), slog.String("path", favoritesPath))

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("favorites: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("favorites: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		if err := c.auth.Authorize(req); err != nil {
			return fmt.Errorf("favorites: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		l.WarnContext(ctx, "favorites request failed", slog.Any("error", err))
		return fmt.Errorf("favorites: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("favorites: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("favorites: %w", types.ErrUnauthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
		l.WarnContext(ctx, "favorites request rejected", slog.Int("status", resp.StatusCode), slog.String("message", httpErr.Message))
		return httpErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("favorites: failed to decode response: %w", err)
	}
	return nil
}

func errorMessage(raw []byte, status string) string {
	var env types.ErrorResponse
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
		return env.Error
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return status
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	if errors.Is(err, types.ErrUnauthenticated) {
		span.SetStatus(codes.Error, "unauthenticated")
	} else {
		span.SetStatus(codes.Error, "favorites call failed")
	}
	return err
}
