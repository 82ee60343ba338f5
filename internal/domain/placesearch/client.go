package placesearch

import (
	"bytes"
	"context"
	"encoding/json"
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
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/observability"
)

const (
	DefaultBaseURL = "https://places.googleapis.com/v1"
	MaxResultCount = 20

	listFields = "places.id,places.displayName,places.formattedAddress,places.shortFormattedAddress," +
		"places.location,places.rating,places.userRatingCount,places.currentOpeningHours.openNow," +
		"places.businessStatus,places.priceLevel,places.types,places.primaryType," +
		"places.primaryTypeDisplayName,places.photos,places.editorialSummary"
	detailFields = "id,displayName,formattedAddress,shortFormattedAddress,location,rating,userRatingCount," +
		"currentOpeningHours,regularOpeningHours,businessStatus,priceLevel,types,primaryType," +
		"primaryTypeDisplayName,photos,editorialSummary"
)

// Config configures the vendor client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond caps outgoing calls. Zero disables the limiter.
	RequestsPerSecond float64
	Burst             int
	PhotoMaxWidth     int
	LanguageCode      string
}

// NearbyRequest searches around Center. A Keyword turns the call into a
// location-biased text search, since the nearby endpoint cannot filter by keyword.
type NearbyRequest struct {
	Center        types.Coordinate
	RadiusMeters  float64
	IncludedTypes []string
	Keyword       string
	MaxResults    int
}

// TextRequest searches by free text, optionally biased to a circle.
type TextRequest struct {
	Query        string
	Center       *types.Coordinate
	RadiusMeters float64
	MaxResults   int
}

// Client talks to the places vendor API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.PhotoMaxWidth <= 0 {
		cfg.PhotoMaxWidth = 800
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PhotoURL builds the media URL for a photo resource name.
func (c *Client) PhotoURL(photoName string) string {
	q := url.Values{}
	q.Set("maxWidthPx", fmt.Sprint(c.cfg.PhotoMaxWidth))
	q.Set("key", c.cfg.APIKey)
	return fmt.Sprintf("%s/%s/media?%s", c.cfg.BaseURL, photoName, q.Encode())
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type area struct {
	Circle circle `json:"circle"`
}

type nearbyBody struct {
	IncludedTypes       []string `json:"includedTypes,omitempty"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction area     `json:"locationRestriction"`
	RankPreference      string   `json:"rankPreference"`
	LanguageCode        string   `json:"languageCode,omitempty"`
}

type textBody struct {
	TextQuery      string `json:"textQuery"`
	IncludedType   string `json:"includedType,omitempty"`
	MaxResultCount int    `json:"maxResultCount"`
	LocationBias   *area  `json:"locationBias,omitempty"`
	LanguageCode   string `json:"languageCode,omitempty"`
}

func clampResults(n int) int {
	if n < 1 || n > MaxResultCount {
		return MaxResultCount
	}
	return n
}

func toArea(center types.Coordinate, radius float64) area {
	if radius <= 0 {
		radius = 5000
	}
	// the vendor rejects radii above 50 km
	if radius > 50000 {
		radius = 50000
	}
	return area{Circle: circle{Center: latLng(center), Radius: radius}}
}

// SearchNearby returns places around req.Center, most popular first.
func (c *Client) SearchNearby(ctx context.Context, req NearbyRequest) ([]types.Place, error) {
	ctx, span := otel.Tracer("PlaceSearchClient").Start(ctx, "SearchNearby", trace.WithAttributes(
		attribute.Float64("center.latitude", req.Center.Latitude),
		attribute.Float64("center.longitude", req.Center.Longitude),
		attribute.StringSlice("included_types", req.IncludedTypes),
		attribute.String("keyword", req.Keyword),
	))
	defer span.End()

	if req.Keyword != "" {
		textReq := TextRequest{
			Query:        req.Keyword,
			Center:       &req.Center,
			RadiusMeters: req.RadiusMeters,
			MaxResults:   req.MaxResults,
		}
		includedType := ""
		if len(req.IncludedTypes) == 1 {
			includedType = req.IncludedTypes[0]
		}
		places, err := c.searchText(ctx, textReq, includedType)
		return places, recordSpan(span, err, len(places))
	}

	body := nearbyBody{
		IncludedTypes:       req.IncludedTypes,
		MaxResultCount:      clampResults(req.MaxResults),
		LocationRestriction: toArea(req.Center, req.RadiusMeters),
		RankPreference:      "POPULARITY",
		LanguageCode:        c.cfg.LanguageCode,
	}

	var resp struct {
		Places []any `json:"places"`
	}
	if err := c.do(ctx, http.MethodPost, "/places:searchNearby", "searchNearby", listFields, body, &resp); err != nil {
		return nil, recordSpan(span, err, 0)
	}
	places := NormalizeList(resp.Places, c.PhotoURL)
	return places, recordSpan(span, nil, len(places))
}

// SearchByText runs a free text query.
func (c *Client) SearchByText(ctx context.Context, req TextRequest) ([]types.Place, error) {
	ctx, span := otel.Tracer("PlaceSearchClient").Start(ctx, "SearchByText", trace.WithAttributes(
		attribute.String("query", req.Query),
	))
	defer span.End()

	places, err := c.searchText(ctx, req, "")
	return places, recordSpan(span, err, len(places))
}

func (c *Client) searchText(ctx context.Context, req TextRequest, includedType string) ([]types.Place, error) {
	body := textBody{
		TextQuery:      req.Query,
		IncludedType:   includedType,
		MaxResultCount: clampResults(req.MaxResults),
		LanguageCode:   c.cfg.LanguageCode,
	}
	if req.Center != nil {
		a := toArea(*req.Center, req.RadiusMeters)
		body.LocationBias = &a
	}

	var resp struct {
		Places []any `json:"places"`
	}
	if err := c.do(ctx, http.MethodPost, "/places:searchText", "searchText", listFields, body, &resp); err != nil {
		return nil, err
	}
	return NormalizeList(resp.Places, c.PhotoURL), nil
}

// FetchDetails returns one place by vendor id.
func (c *Client) FetchDetails(ctx context.Context, id string) (types.Place, error) {
	ctx, span := otel.Tracer("PlaceSearchClient").Start(ctx, "FetchDetails", trace.WithAttributes(
		attribute.String("place.id", id),
	))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return types.Place{}, recordSpan(span, fmt.Errorf("%w: empty place id", types.ErrBadRequest), 0)
	}

	var raw map[string]any
	path := "/places/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, "details", detailFields, nil, &raw); err != nil {
		return types.Place{}, recordSpan(span, err, 0)
	}
	p := Normalize(raw, c.PhotoURL)
	if p.ID == "" {
		p.ID = id
	}
	return p, recordSpan(span, nil, 1)
}

func (c *Client) do(ctx context.Context, method, path, endpoint, fieldMask string, body, out any) error {
	l := c.logger.With(slog.String("method", "do"), slog.String("endpoint", endpoint))

	if c.cfg.APIKey == "" {
		return ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("places %s: rate limiter: %w", endpoint, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("places %s: failed to encode request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("places %s: failed to build request: %w", endpoint, err)
	}
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.ObserveVendorCall(endpoint, 0, time.Since(start))
		l.WarnContext(ctx, "vendor request failed", slog.Any("error", err))
		return fmt.Errorf("places %s: request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	observability.ObserveVendorCall(endpoint, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("places %s: failed to read response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(endpoint, resp.StatusCode, raw)
		l.WarnContext(ctx, "vendor returned error",
			slog.Int("status", resp.StatusCode),
			slog.String("vendor_status", apiErr.Status()))
		return apiErr
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("places %s: failed to decode response: %w", endpoint, err)
	}
	l.DebugContext(ctx, "vendor request completed", slog.Int("status", resp.StatusCode))
	return nil
}

func recordSpan(span trace.Span, err error, count int) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "vendor call failed")
		return err
	}
	span.SetAttributes(attribute.Int("places.count", count))
	span.SetStatus(codes.Ok, "")
	return nil
}
