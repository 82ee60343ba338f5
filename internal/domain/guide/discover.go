package guide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/local-guide/internal/domain/placesearch"
	"github.com/FACorreiaa/local-guide/internal/geo"
	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/observability"
)

// DiscoverOptions controls RefreshDiscover.
type DiscoverOptions struct {
	// Force skips both the rate gate and the nearby cache.
	Force bool
}

func nearbyKey(categoryID string, c types.Coordinate) string {
	r := geo.Round(c, 3)
	return fmt.Sprintf("%s|%.3f,%.3f", categoryID, r.Latitude, r.Longitude)
}

func searchKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// vendorMessage is the user-facing text for a vendor failure.
func vendorMessage(err error) (string, bool) {
	if errors.Is(err, types.ErrQuotaExceeded) {
		return QuotaExceededMessage, true
	}
	var apiErr *placesearch.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message(), false
	}
	return err.Error(), false
}

// RefreshDiscover loads nearby places for the active category. Without a known
// coordinate it asks the locator for permission and returns. Non-forced calls
// inside the minimum interval do nothing.
func (s *Store) RefreshDiscover(ctx context.Context, opts DiscoverOptions) error {
	ctx, span := startSpan(ctx, "RefreshDiscover", attribute.Bool("force", opts.Force))
	defer span.End()
	l := s.logger.With(slog.String("method", "RefreshDiscover"))

	s.mu.Lock()
	sess, epoch := s.session, s.epoch
	if s.coordinate == nil {
		s.mu.Unlock()
		if sess != nil && sess.Locator != nil {
			if err := sess.Locator.RequestPermission(ctx); err != nil {
				l.WarnContext(ctx, "location permission request failed", slog.Any("error", err))
			}
		}
		l.DebugContext(ctx, "no coordinate yet, skipping discover")
		return endSpan(span, nil)
	}
	if sess == nil || sess.Search == nil {
		s.mu.Unlock()
		return endSpan(span, fmt.Errorf("refresh discover: search client: %w", ErrNoSession))
	}

	now := s.now()
	if !opts.Force && !s.lastDiscoverAt.IsZero() && now.Sub(s.lastDiscoverAt) < s.opts.MinDiscoverInterval {
		s.mu.Unlock()
		l.DebugContext(ctx, "discover refresh rate limited")
		return endSpan(span, nil)
	}
	s.lastDiscoverAt = now

	cat, ok := s.catalog.Get(s.activeCategory)
	if !ok {
		cat = s.catalog.Default()
	}
	coord := *s.coordinate
	key := nearbyKey(cat.ID, coord)

	if !opts.Force {
		if v, ok := s.nearbyCache.Get(key); ok {
			observability.CacheHit("nearby")
			s.discover = enrichAll(v.([]types.Place), s.favoriteSetLocked(), s.coordinate)
			s.lastFetched = &coord
			s.discoverErr = ""
			s.discoverQuota = false
			s.mu.Unlock()
			s.notify()
			return endSpan(span, nil)
		}
		observability.CacheMiss("nearby")
	}

	s.discoverLoading = true
	s.discoverErr = ""
	s.discoverQuota = false
	s.mu.Unlock()
	s.notify()

	radius := cat.Radius
	if radius <= 0 {
		radius = s.opts.DefaultRadiusMeters
	}
	places, err := sess.Search.SearchNearby(ctx, placesearch.NearbyRequest{
		Center:        coord,
		RadiusMeters:  radius,
		IncludedTypes: cat.IncludedTypes,
		Keyword:       cat.Keyword,
		MaxResults:    s.opts.MaxResults,
	})

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return endSpan(span, nil)
	}
	s.discoverLoading = false
	if err != nil {
		msg, quota := vendorMessage(err)
		s.discoverErr = msg
		s.discoverQuota = quota
		s.mu.Unlock()
		s.notify()
		l.WarnContext(ctx, "discover refresh failed", slog.Bool("quota_exceeded", quota), slog.Any("error", err))
		return endSpan(span, fmt.Errorf("refresh discover: %w", err))
	}

	places = truncate(places, s.opts.MaxResults)
	s.nearbyCache.SetDefault(key, types.ClonePlaces(places))
	s.discover = enrichAll(places, s.favoriteSetLocked(), s.coordinate)
	s.lastFetched = &coord
	s.mu.Unlock()
	s.notify()

	l.DebugContext(ctx, "discover refreshed", slog.String("category", cat.ID), slog.Int("count", len(places)))
	span.SetAttributes(attribute.Int("places.count", len(places)))
	return endSpan(span, nil)
}

// SearchPlaces runs a text search. Only the response to the most recently
// issued query is applied; earlier responses that arrive late are dropped.
func (s *Store) SearchPlaces(ctx context.Context, query string) error {
	ctx, span := startSpan(ctx, "SearchPlaces", attribute.String("query", query))
	defer span.End()
	l := s.logger.With(slog.String("method", "SearchPlaces"))

	trimmed := strings.TrimSpace(query)
	key := searchKey(query)

	s.mu.Lock()
	s.searchSeq++
	seq := s.searchSeq
	s.query = query
	sess, epoch := s.session, s.epoch

	if utf8.RuneCountInString(trimmed) < s.opts.MinQueryLength {
		s.search = []types.Place{}
		s.searchErr = ""
		s.searchQuota = false
		s.searchLoading = false
		s.mu.Unlock()
		s.notify()
		return endSpan(span, nil)
	}

	if v, ok := s.searchCache.Get(key); ok {
		observability.CacheHit("search")
		s.search = enrichAll(v.([]types.Place), s.favoriteSetLocked(), s.coordinate)
		s.searchErr = ""
		s.searchQuota = false
		s.searchLoading = false
		s.mu.Unlock()
		s.notify()
		return endSpan(span, nil)
	}
	observability.CacheMiss("search")

	if sess == nil || sess.Search == nil {
		s.mu.Unlock()
		return endSpan(span, fmt.Errorf("search places: search client: %w", ErrNoSession))
	}

	var center *types.Coordinate
	if s.coordinate != nil {
		c := *s.coordinate
		center = &c
	}
	s.searchLoading = true
	s.searchErr = ""
	s.searchQuota = false
	s.mu.Unlock()
	s.notify()

	places, err := sess.Search.SearchByText(ctx, placesearch.TextRequest{
		Query:        trimmed,
		Center:       center,
		RadiusMeters: s.opts.DefaultRadiusMeters,
		MaxResults:   s.opts.MaxResults,
	})
	if err == nil {
		places = truncate(places, s.opts.MaxResults)
		s.searchCache.SetDefault(key, types.ClonePlaces(places))
	}

	s.mu.Lock()
	if seq != s.searchSeq || epoch != s.epoch {
		s.mu.Unlock()
		l.DebugContext(ctx, "discarding stale search response", slog.String("query", query))
		return endSpan(span, nil)
	}
	s.searchLoading = false
	if err != nil {
		msg, quota := vendorMessage(err)
		s.searchErr = msg
		s.searchQuota = quota
		s.mu.Unlock()
		s.notify()
		l.WarnContext(ctx, "search failed", slog.Bool("quota_exceeded", quota), slog.Any("error", err))
		return endSpan(span, fmt.Errorf("search places: %w", err))
	}
	s.search = enrichAll(places, s.favoriteSetLocked(), s.coordinate)
	s.mu.Unlock()
	s.notify()

	span.SetAttributes(attribute.Int("places.count", len(places)))
	return endSpan(span, nil)
}

// FetchPlaceDetails returns vendor details for id, memoised for the session.
func (s *Store) FetchPlaceDetails(ctx context.Context, id string) (types.Place, error) {
	ctx, span := startSpan(ctx, "FetchPlaceDetails", attribute.String("place.id", id))
	defer span.End()

	if v, ok := s.detailCache.Get(id); ok {
		observability.CacheHit("details")
		return s.enrichOne(v.(types.Place)), endSpan(span, nil)
	}
	observability.CacheMiss("details")

	s.mu.RLock()
	sess, group := s.session, s.details
	s.mu.RUnlock()
	if sess == nil || sess.Search == nil {
		return types.Place{}, endSpan(span, fmt.Errorf("fetch details: search client: %w", ErrNoSession))
	}

	v, err, _ := group.Do(id, func() (any, error) {
		p, err := sess.Search.FetchDetails(ctx, id)
		if err != nil {
			return nil, err
		}
		s.detailCache.Set(id, p.Clone(), cache.NoExpiration)
		return p, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to fetch place details", slog.String("id", id), slog.Any("error", err))
		return types.Place{}, endSpan(span, fmt.Errorf("fetch details %s: %w", id, err))
	}
	return s.enrichOne(v.(types.Place)), endSpan(span, nil)
}

func (s *Store) enrichOne(p types.Place) types.Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return enrich(p, s.favoriteSetLocked(), s.coordinate)
}
