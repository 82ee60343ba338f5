package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/local-guide/internal/types"
)

// PlacesKey holds the JSON array of custom places.
const PlacesKey = "local_guide.places"

// Places reads and writes the custom place list as one JSON document.
type Places struct {
	kv     KV
	logger *slog.Logger
	now    func() time.Time
}

func NewPlaces(kv KV, logger *slog.Logger) *Places {
	return &Places{kv: kv, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Load returns the stored places with defaults filled in. A missing key is an empty list.
// Entries that fail to decode are dropped.
func (p *Places) Load(ctx context.Context) ([]types.Place, error) {
	l := p.logger.With(slog.String("method", "Load"))

	raw, ok, err := p.kv.Get(ctx, PlacesKey)
	if err != nil {
		return nil, fmt.Errorf("load custom places: %w", err)
	}
	if !ok || raw == "" {
		return []types.Place{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode custom places: %w", err)
	}

	now := p.now()
	places := make([]types.Place, 0, len(records))
	for i, rec := range records {
		var place types.Place
		if err := json.Unmarshal(rec, &place); err != nil {
			l.WarnContext(ctx, "skipping malformed custom place", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		places = append(places, hydrate(place, now))
	}
	return places, nil
}

// Save replaces the stored list with places.
func (p *Places) Save(ctx context.Context, places []types.Place) error {
	if places == nil {
		places = []types.Place{}
	}
	payload, err := json.Marshal(places)
	if err != nil {
		return fmt.Errorf("%w: encode custom places: %w", types.ErrPersistence, err)
	}
	if err := p.kv.Set(ctx, PlacesKey, string(payload)); err != nil {
		return fmt.Errorf("%w: %w", types.ErrPersistence, err)
	}
	return nil
}

func hydrate(place types.Place, now time.Time) types.Place {
	if place.Source == "" {
		place.Source = types.SourceCustom
	}
	if place.VisitCount < 0 {
		place.VisitCount = 0
	}
	if place.CreatedAt.IsZero() {
		place.CreatedAt = now
	}
	if place.UpdatedAt.IsZero() {
		place.UpdatedAt = place.CreatedAt
	}
	return place
}
