package guide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/observability"
)

// Favorites returns remote favorites followed by custom places flagged
// favorite, deduplicated by id with the remote entry winning.
func (s *Store) Favorites() []types.Place {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Place, 0, len(s.favorites))
	seen := make(map[string]struct{}, len(s.favorites))
	for _, f := range s.favorites {
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f.Clone())
	}
	for _, c := range s.custom {
		if !c.IsFavorite {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c.Clone())
	}
	return out
}

// LoadFavorites replaces the remote favorites with the backend's list. A
// missing or rejected credential flips NotLoggedIn instead of failing.
func (s *Store) LoadFavorites(ctx context.Context) error {
	ctx, span := startSpan(ctx, "LoadFavorites")
	defer span.End()
	l := s.logger.With(slog.String("method", "LoadFavorites"))

	sess, epoch := s.currentSession()
	if !sess.Authenticated() {
		s.markSignedOut(epoch)
		return endSpan(span, nil)
	}

	list, err := sess.Favorites.List(ctx)
	if errors.Is(err, types.ErrUnauthenticated) {
		l.InfoContext(ctx, "favorites require sign in")
		s.markSignedOut(epoch)
		return endSpan(span, nil)
	}
	if err != nil {
		l.ErrorContext(ctx, "failed to load favorites", slog.Any("error", err))
		return endSpan(span, fmt.Errorf("load favorites: %w", err))
	}

	favorites := make([]types.Place, 0, len(list))
	for _, f := range list {
		if f.Source == "" {
			f.Source = types.SourceFavorite
		}
		f.IsFavorite = true
		favorites = append(favorites, f)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return endSpan(span, nil)
	}
	s.favorites = favorites
	s.notLoggedIn = false
	s.reenrichLocked()
	s.mu.Unlock()
	s.notify()

	l.DebugContext(ctx, "favorites loaded", slog.Int("count", len(favorites)))
	span.SetAttributes(attribute.Int("favorites.count", len(favorites)))
	return endSpan(span, nil)
}

func (s *Store) markSignedOut(epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.favorites = []types.Place{}
	s.notLoggedIn = true
	s.reenrichLocked()
	s.mu.Unlock()
	s.notify()
}

// ToggleFavorite flips the favorite state of id. Custom places keep a local
// flag; every other place is written to the backend with an optimistic update
// that is undone if the write fails. Concurrent toggles of the same id share
// one remote write.
func (s *Store) ToggleFavorite(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "ToggleFavorite", attribute.String("place.id", id))
	defer span.End()

	s.mu.RLock()
	isCustom := indexOf(s.custom, id) >= 0
	group := s.toggles
	s.mu.RUnlock()

	if isCustom {
		span.SetAttributes(attribute.String("favorite.scope", types.FavoriteScopeLocal.String()))
		return endSpan(span, s.toggleLocal(ctx, id))
	}

	span.SetAttributes(attribute.String("favorite.scope", types.FavoriteScopeRemote.String()))
	_, err, shared := group.Do(id, func() (any, error) {
		return nil, s.toggleRemote(ctx, id)
	})
	if shared {
		s.logger.DebugContext(ctx, "joined in-flight favorite toggle", slog.String("id", id))
	}
	return endSpan(span, err)
}

func (s *Store) toggleRemote(ctx context.Context, id string) error {
	l := s.logger.With(slog.String("method", "ToggleFavorite"), slog.String("id", id))
	scope := types.FavoriteScopeRemote.String()

	sess, epoch := s.currentSession()
	if !sess.Authenticated() {
		s.markSignedOut(epoch)
		return fmt.Errorf("toggle favorite %s: %w", id, types.ErrUnauthenticated)
	}

	s.mu.RLock()
	favIdx := indexOf(s.favorites, id)
	adding := favIdx < 0
	var target types.Place
	found := false
	if adding {
		target, found = s.resolveLocked(id)
	}
	s.mu.RUnlock()

	if adding && !found {
		p, err := s.FetchPlaceDetails(ctx, id)
		if err != nil {
			return fmt.Errorf("toggle favorite %s: resolve place: %w", id, err)
		}
		target = p
	}

	// optimistic update
	var removed types.Place
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return fmt.Errorf("toggle favorite %s: %w", id, types.ErrUnauthenticated)
	}
	if adding {
		entry := target.Clone()
		entry.Source = types.SourceFavorite
		entry.IsFavorite = true
		s.favorites = append([]types.Place{entry}, without(s.favorites, id)...)
	} else {
		favIdx = indexOf(s.favorites, id)
		if favIdx >= 0 {
			removed = s.favorites[favIdx]
		}
		s.favorites = without(s.favorites, id)
	}
	s.reenrichLocked()
	s.mu.Unlock()
	s.notify()

	var err error
	if adding {
		err = sess.Favorites.Add(ctx, target)
	} else {
		err = sess.Favorites.Remove(ctx, id)
	}

	if err == nil {
		outcome := "removed"
		if adding {
			outcome = "added"
		}
		observability.FavoriteToggles.WithLabelValues(scope, outcome).Inc()
		l.InfoContext(ctx, "favorite toggled", slog.Bool("favorite", adding))
		return nil
	}

	l.WarnContext(ctx, "favorite write failed, rolling back", slog.Any("error", err))
	observability.FavoriteToggles.WithLabelValues(scope, "rolled_back").Inc()

	s.mu.Lock()
	if s.epoch == epoch {
		if adding {
			s.favorites = without(s.favorites, id)
		} else if favIdx >= 0 && indexOf(s.favorites, id) < 0 {
			s.favorites = insertAt(s.favorites, favIdx, removed)
		}
		if errors.Is(err, types.ErrUnauthenticated) {
			s.notLoggedIn = true
		}
		s.reenrichLocked()
	}
	s.mu.Unlock()
	s.notify()

	return fmt.Errorf("toggle favorite %s: %w", id, err)
}

// resolveLocked finds a non-custom place in discover, search or the detail cache.
func (s *Store) resolveLocked(id string) (types.Place, bool) {
	if i := indexOf(s.discover, id); i >= 0 {
		return s.discover[i].Clone(), true
	}
	if i := indexOf(s.search, id); i >= 0 {
		return s.search[i].Clone(), true
	}
	if v, ok := s.detailCache.Get(id); ok {
		return v.(types.Place).Clone(), true
	}
	return types.Place{}, false
}
