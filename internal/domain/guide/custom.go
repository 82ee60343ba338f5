package guide

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/local-guide/internal/geo"
	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/observability"
)

// mutateCustom runs one read-modify-write cycle on the custom list. fn returns
// the next list, or changed=false to skip persistence. The in-memory list is
// replaced only after the write succeeds. Subscribers run after persistMu is
// released, so they may call back into the store.
func (s *Store) mutateCustom(ctx context.Context, op string, fn func(current []types.Place) (next []types.Place, changed bool, err error)) error {
	sess, _ := s.currentSession()
	if sess == nil || sess.Local == nil {
		return fmt.Errorf("%s: local store: %w", op, ErrNoSession)
	}

	changed, err := s.commitCustom(ctx, op, sess, fn)
	if changed {
		s.notify()
	}
	return err
}

func (s *Store) commitCustom(ctx context.Context, op string, sess *Session, fn func(current []types.Place) ([]types.Place, bool, error)) (bool, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	current := types.ClonePlaces(s.custom)
	s.mu.RUnlock()

	next, changed, err := fn(current)
	if err != nil || !changed {
		return false, err
	}

	if err := sess.Local.Save(ctx, next); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist custom places", slog.String("method", op), slog.Any("error", err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.custom = next
	s.mu.Unlock()
	return true, nil
}

// AddPlace creates a custom place and persists the full list.
func (s *Store) AddPlace(ctx context.Context, form types.PlaceForm) (types.Place, error) {
	ctx, span := startSpan(ctx, "AddPlace", attribute.String("place.name", form.Name))
	defer span.End()

	if err := form.Validate(); err != nil {
		return types.Place{}, endSpan(span, fmt.Errorf("add place: %w", err))
	}

	var created types.Place
	err := s.mutateCustom(ctx, "AddPlace", func(current []types.Place) ([]types.Place, bool, error) {
		now := s.now()
		created = types.Place{
			ID:          newCustomID(now, current),
			Name:        strings.TrimSpace(form.Name),
			Description: form.Description,
			Address:     form.Address,
			Latitude:    form.Latitude,
			Longitude:   form.Longitude,
			ImageURI:    form.ImageURI,
			Category:    form.Category,
			Source:      types.SourceCustom,
			IsFavorite:  false,
			VisitCount:  0,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if form.Tags != nil {
			created.Tags = append([]string(nil), form.Tags...)
		}
		if created.Category == "" {
			if cat, ok := s.detector.Detect(created.Name + " " + created.Description); ok {
				created.Category = cat
			}
		}
		return append([]types.Place{created}, current...), true, nil
	})
	if err != nil {
		return types.Place{}, endSpan(span, err)
	}

	s.logger.InfoContext(ctx, "custom place added", slog.String("id", created.ID))
	span.SetAttributes(attribute.String("place.id", created.ID))
	return created.Clone(), endSpan(span, nil)
}

// UpdatePlace merges patch into the custom place id. Unknown ids are ignored.
func (s *Store) UpdatePlace(ctx context.Context, id string, patch types.PlacePatch) error {
	ctx, span := startSpan(ctx, "UpdatePlace", attribute.String("place.id", id))
	defer span.End()

	err := s.mutateCustom(ctx, "UpdatePlace", func(current []types.Place) ([]types.Place, bool, error) {
		i := indexOf(current, id)
		if i < 0 {
			return nil, false, nil
		}
		updated := patch.Apply(current[i])
		if !geo.Valid(updated.Coordinate()) {
			return nil, false, fmt.Errorf("update place: %w: invalid coordinate %v,%v", types.ErrBadRequest, updated.Latitude, updated.Longitude)
		}
		updated.UpdatedAt = s.now()
		current[i] = updated
		return current, true, nil
	})
	return endSpan(span, err)
}

// DeletePlace removes the custom place id. Its local favorite flag goes with it.
func (s *Store) DeletePlace(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "DeletePlace", attribute.String("place.id", id))
	defer span.End()

	err := s.mutateCustom(ctx, "DeletePlace", func(current []types.Place) ([]types.Place, bool, error) {
		if indexOf(current, id) < 0 {
			return nil, false, nil
		}
		return without(current, id), true, nil
	})
	return endSpan(span, err)
}

// IncrementVisitCount bumps the visit counter of a custom place.
func (s *Store) IncrementVisitCount(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "IncrementVisitCount", attribute.String("place.id", id))
	defer span.End()

	err := s.mutateCustom(ctx, "IncrementVisitCount", func(current []types.Place) ([]types.Place, bool, error) {
		i := indexOf(current, id)
		if i < 0 {
			return nil, false, nil
		}
		current[i].VisitCount++
		current[i].UpdatedAt = s.now()
		return current, true, nil
	})
	return endSpan(span, err)
}

// LoadLocalPlaces replaces the custom list with what the device has stored.
func (s *Store) LoadLocalPlaces(ctx context.Context) error {
	ctx, span := startSpan(ctx, "LoadLocalPlaces")
	defer span.End()
	l := s.logger.With(slog.String("method", "LoadLocalPlaces"))

	sess, _ := s.currentSession()
	if sess == nil || sess.Local == nil {
		return endSpan(span, fmt.Errorf("load local places: %w", ErrNoSession))
	}

	s.persistMu.Lock()
	places, err := sess.Local.Load(ctx)
	if err != nil {
		s.persistMu.Unlock()
		l.ErrorContext(ctx, "failed to load custom places", slog.Any("error", err))
		return endSpan(span, fmt.Errorf("load local places: %w", err))
	}
	if places == nil {
		places = []types.Place{}
	}
	s.mu.Lock()
	s.custom = places
	s.mu.Unlock()
	s.persistMu.Unlock()
	s.notify()

	l.DebugContext(ctx, "custom places loaded", slog.Int("count", len(places)))
	span.SetAttributes(attribute.Int("places.count", len(places)))
	return endSpan(span, nil)
}

func (s *Store) toggleLocal(ctx context.Context, id string) error {
	var next bool
	err := s.mutateCustom(ctx, "ToggleFavorite", func(current []types.Place) ([]types.Place, bool, error) {
		i := indexOf(current, id)
		if i < 0 {
			return nil, false, nil
		}
		next = !current[i].IsFavorite
		current[i].IsFavorite = next
		current[i].UpdatedAt = s.now()
		return current, true, nil
	})
	scope := types.FavoriteScopeLocal.String()
	if err != nil {
		observability.FavoriteToggles.WithLabelValues(scope, "failed").Inc()
		return err
	}
	outcome := "removed"
	if next {
		outcome = "added"
	}
	observability.FavoriteToggles.WithLabelValues(scope, outcome).Inc()
	return nil
}
